package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"media-gallery/pkg/app"
	"media-gallery/pkg/config"
	"media-gallery/pkg/server"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize services
	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer func() {
		if err := a.Close(context.Background()); err != nil {
			log.Printf("Error during shutdown: %v", err)
		}
	}()

	// Start server
	cfg.PrintServerStartMessage()
	if err := server.Run(ctx, cfg.ServerAddress(), a.Handler(), a.Logger); err != nil {
		log.Printf("Server error: %v", err)
	}
}
