package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Pesokrava/product_directory/internal/config"
	"github.com/Pesokrava/product_directory/internal/pkg/retry"
)

// NewRedisClient creates a Redis client and verifies it answers PING
func NewRedisClient(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.GetRedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return client, nil
}

// WaitForRedis retries NewRedisClient until it succeeds, retries run out or ctx ends
func WaitForRedis(ctx context.Context, cfg *config.Config, maxRetries int, retryDelay time.Duration) (*redis.Client, error) {
	var client *redis.Client
	err := retry.Do(ctx, retry.Policy{Attempts: maxRetries, Delay: retryDelay}, func(ctx context.Context) error {
		var err error
		client, err = NewRedisClient(ctx, cfg)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Redis after %d retries: %w", maxRetries, err)
	}
	return client, nil
}
