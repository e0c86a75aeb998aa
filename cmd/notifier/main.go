package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Pesokrava/product_directory/internal/config"
	"github.com/Pesokrava/product_directory/internal/delivery/events"
	"github.com/Pesokrava/product_directory/internal/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger := logger.NewWithOptions(logger.Options{
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		Service: "notifier",
	})
	appLogger.Info("Starting notifier service...")

	if !cfg.NATS.Enabled {
		appLogger.Fatal("Event consumers need NATS", fmt.Errorf("NATS_ENABLED is false"))
	}

	consumer, err := events.NewConsumer(cfg, events.NotifierConsumer, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to create JetStream consumer", err)
	}
	defer consumer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appLogger.Info("Notifier service started and listening for events...")
	consumer.Run(ctx, events.LoggingHandler(appLogger))

	appLogger.Info("Shutting down notifier service...")
}
