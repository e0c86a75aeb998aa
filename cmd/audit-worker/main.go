package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Pesokrava/product_directory/internal/config"
	"github.com/Pesokrava/product_directory/internal/delivery/events"
	"github.com/Pesokrava/product_directory/internal/pkg/database"
	"github.com/Pesokrava/product_directory/internal/pkg/logger"
	"github.com/Pesokrava/product_directory/internal/repository/postgres"
	"github.com/Pesokrava/product_directory/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger := logger.NewWithOptions(logger.Options{
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		Service: "audit-worker",
	})
	appLogger.Info("Starting aggregate audit worker...")

	if cfg.Store.Driver != config.DriverPostgres {
		appLogger.Fatal("Audit worker requires the postgres store", fmt.Errorf("STORE_DRIVER=%s", cfg.Store.Driver))
	}
	if !cfg.NATS.Enabled {
		appLogger.Fatal("Event consumers need NATS", fmt.Errorf("NATS_ENABLED is false"))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appLogger.Info("Connecting to PostgreSQL...")
	db, err := database.WaitForDB(ctx, cfg, 10, 2*time.Second)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", err)
	}
	defer db.Close()

	auditWorker := worker.NewAuditWorker(
		worker.NewStoreAuditor(postgres.NewStore(db)),
		cfg.Audit.Debounce,
		cfg.Audit.MaxRetries,
		appLogger,
	)

	appLogger.Info("Connecting to NATS JetStream...")
	consumer, err := events.NewConsumer(cfg, events.AuditConsumer, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to create JetStream consumer", err)
	}
	defer consumer.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		consumer.Run(ctx, auditWorker.HandleEvent)
	}()

	<-ctx.Done()
	appLogger.Info("Received shutdown signal")
	<-done

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := auditWorker.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Error during shutdown", err)
	}

	appLogger.Info("Audit worker stopped")
}
