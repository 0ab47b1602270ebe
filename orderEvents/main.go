package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"gitlab.connectwisedev.com/storefront-service/models"
	"gitlab.connectwisedev.com/storefront-service/pkg/config"
	"gitlab.connectwisedev.com/storefront-service/pkg/messaging"
	"gitlab.connectwisedev.com/storefront-service/pkg/orders"
)

func main() {
	config.LoadEnv()
	cfg := config.Load()
	if cfg.AMQPURL == "" {
		log.Fatal("AMQP_URL is not set")
	}

	conn, ch, err := messaging.SetupConn(cfg.AMQPURL, 5)
	if err != nil {
		log.Fatalf("Failed to setup RabbitMQ: %v", err)
	}
	defer conn.Close()
	defer ch.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Println("Order events listener starting (order.#)...")
	err = messaging.Subscribe(ctx, ch, "order.#", func(e orders.Event) error {
		switch {
		case e.Type == orders.EventCreated:
			log.Printf("New order #%d: %d items, total %s", e.OrderID, e.ItemCount, e.TotalAmount.StringFixed(2))
		case e.Status == models.OrderStatusCancelled:
			log.Printf("Order #%d was cancelled (was %s)", e.OrderID, e.Previous)
		default:
			log.Printf("Order #%d is now %s", e.OrderID, e.Status)
		}
		return nil
	})
	if err != nil {
		log.Fatalf("Subscriber error: %v", err)
	}

	<-ctx.Done()
	log.Println("Order events listener stopped.")
}
