package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Pesokrava/product_directory/internal/config"
	"github.com/Pesokrava/product_directory/internal/delivery/events"
	httpDelivery "github.com/Pesokrava/product_directory/internal/delivery/http"
	"github.com/Pesokrava/product_directory/internal/delivery/http/handler"
	"github.com/Pesokrava/product_directory/internal/delivery/http/middleware"
	"github.com/Pesokrava/product_directory/internal/domain"
	"github.com/Pesokrava/product_directory/internal/pkg/cache"
	"github.com/Pesokrava/product_directory/internal/pkg/database"
	"github.com/Pesokrava/product_directory/internal/pkg/logger"
	cacheRepo "github.com/Pesokrava/product_directory/internal/repository/cache"
	"github.com/Pesokrava/product_directory/internal/repository/memory"
	"github.com/Pesokrava/product_directory/internal/repository/postgres"
	"github.com/Pesokrava/product_directory/internal/usecase/catalog"
	"github.com/Pesokrava/product_directory/internal/usecase/product"
	"github.com/Pesokrava/product_directory/internal/usecase/review"
	"github.com/Pesokrava/product_directory/internal/usecase/vote"

	_ "github.com/Pesokrava/product_directory/docs"
)

// @title Product Directory API
// @version 1.0
// @description A moderated directory of products with reviews, helpfulness votes, caching and event notifications.
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url http://github.com/Pesokrava/product_directory
// @contact.email support@example.com

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

// @tag.name Products
// @tag.description Product submission and browsing

// @tag.name Reviews
// @tag.description Reviews and helpfulness votes

// @tag.name Admin
// @tag.description Moderation endpoints

// @tag.name Catalog
// @tag.description Categories, tags, statistics and profile

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger := logger.NewWithOptions(logger.Options{
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		Service: "api",
	})
	logger.SetGlobalLogger(appLogger)
	appLogger.Info("Starting Product Directory API...")

	ctx := context.Background()

	store, closeStore := openStore(ctx, cfg, appLogger)
	defer closeStore()

	var readCache cacheRepo.Cache = cacheRepo.Noop{}
	if cfg.Redis.Enabled {
		appLogger.Info("Connecting to Redis...")
		redisClient, err := cache.WaitForRedis(ctx, cfg, 10, 2*time.Second)
		if err != nil {
			appLogger.Fatal("Failed to connect to Redis", err)
		}
		defer redisClient.Close()
		readCache = cacheRepo.NewRedisCache(redisClient, cfg.Cache.ProductTTL, cfg.Cache.ReviewsListTTL, cfg.Cache.StatsTTL)
		appLogger.Info("Connected to Redis successfully")
	} else {
		appLogger.Warn("Redis disabled, serving reads without cache")
	}

	var publisher domain.EventPublisher = events.NoopPublisher{}
	if cfg.NATS.Enabled {
		appLogger.Info("Connecting to NATS...")
		natsPublisher, err := events.NewPublisher(cfg, appLogger)
		if err != nil {
			appLogger.Fatal("Failed to create NATS publisher", err)
		}
		defer natsPublisher.Close()
		publisher = natsPublisher
	} else {
		appLogger.Warn("NATS disabled, events will not be published")
	}

	if cfg.Auth.JWTSecret == "" {
		appLogger.Warn("JWT_SECRET is empty, every bearer token will be rejected")
	}
	auth := middleware.NewAuthenticator(cfg.Auth.JWTSecret, cfg.Auth.Issuer, appLogger)

	productService := product.NewService(store, readCache, publisher, appLogger)
	reviewService := review.NewService(store, readCache, publisher, appLogger, domain.ReviewStatus(cfg.Moderation.ReviewDefaultStatus))
	voteService := vote.NewService(store, readCache, publisher, appLogger)
	catalogService := catalog.NewService(store, readCache, appLogger)

	router := httpDelivery.NewRouter(httpDelivery.Handlers{
		Products: handler.NewProductHandler(productService, reviewService, appLogger),
		Reviews:  handler.NewReviewHandler(reviewService, voteService, appLogger),
		Admin:    handler.NewAdminHandler(productService, reviewService, appLogger),
		Catalog:  handler.NewCatalogHandler(catalogService, appLogger),
	}, auth, cfg, appLogger)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		appLogger.Infof("HTTP server listening on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal("HTTP server failed", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Server forced to shutdown", err)
		return
	}

	appLogger.Info("Server stopped gracefully")
}

// openStore returns the configured entity store and a function releasing it
func openStore(ctx context.Context, cfg *config.Config, appLogger *logger.Logger) (domain.Store, func()) {
	if cfg.Store.Driver == config.DriverMemory {
		appLogger.Warn("Using the in-memory store with demo data, nothing will be persisted")
		store := memory.NewStore()
		memory.SeedDemo(store)
		return store, func() {}
	}

	appLogger.Info("Connecting to PostgreSQL...")
	db, err := database.WaitForDB(ctx, cfg, 10, 2*time.Second)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", err)
	}
	appLogger.Info("Connected to PostgreSQL successfully")

	if cfg.Database.AutoMigrate {
		if err := database.RunMigrations(ctx, db); err != nil {
			appLogger.Fatal("Failed to run migrations", err)
		}
	}

	return postgres.NewStore(db), func() { _ = db.Close() }
}
