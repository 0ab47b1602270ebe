package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"gitlab.connectwisedev.com/storefront-service/pkg/bootstrap"
	"gitlab.connectwisedev.com/storefront-service/pkg/shell"
)

func main() {
	services := bootstrap.MustNew()
	defer services.Close()

	session := shell.NewSession(services.Catalog, services.Orders, services.Config.TaxRate, os.Stdout)
	ctx := context.Background()

	fmt.Println("Storefront. Type help for commands.")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Printf("cart(%d)> ", session.Cart().Count())
		if !scanner.Scan() {
			break
		}
		err := session.Exec(ctx, scanner.Text())
		if errors.Is(err, shell.ErrQuit) {
			break
		}
		if err != nil {
			log.Printf("Error: %v", err)
		}
	}
	if err := scanner.Err(); err != nil {
		log.Printf("Error reading input: %v", err)
	}
}
