package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/fearless-dhbw/img-classification/internal/app"
)

func main() {
	application, err := app.NewApp()
	if err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
	defer application.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := application.Run(ctx); err != nil {
		log.Printf("Server error: %v", err)
		application.Close()
		os.Exit(1)
	}
}
