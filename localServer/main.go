package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gitlab.connectwisedev.com/storefront-service/pkg/api"
	"gitlab.connectwisedev.com/storefront-service/pkg/bootstrap"
)

func main() {
	services := bootstrap.MustNew()
	defer services.Close()

	server := &http.Server{
		Addr:         services.Config.LocalAddr,
		Handler:      api.New(services).Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 35 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Local storefront API listening on %s (store backend: %s)", server.Addr, services.Config.StoreBackend)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
		return
	}
	log.Println("Server exited properly")
}
