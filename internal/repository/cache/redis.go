package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/Pesokrava/product_directory/internal/domain"
	"github.com/Pesokrava/product_directory/internal/pkg/metrics"
)

const (
	statsKey = "stats:v1"
	epochKey = "cache:epoch"
)

// errStaleFill aborts a fill whose epoch is behind the current one
var errStaleFill = errors.New("cache fill raced an invalidation")

// RedisCache implements Cache on Redis. Entries derived from a product are tracked
// in a per-product SET so they can be dropped together.
type RedisCache struct {
	client         *redis.Client
	productTTL     time.Duration
	reviewsListTTL time.Duration
	statsTTL       time.Duration
}

// NewRedisCache creates a new Redis cache instance
func NewRedisCache(client *redis.Client, productTTL, reviewsListTTL, statsTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:         client,
		productTTL:     productTTL,
		reviewsListTTL: reviewsListTTL,
		statsTTL:       statsTTL,
	}
}

func productDetailKey(slug string) string {
	return fmt.Sprintf("product:slug:%s", slug)
}

func reviewsPageKey(q domain.ReviewQuery) string {
	return fmt.Sprintf("product:%s:reviews:%s:%s:page:%d:limit:%d", q.ProductID, q.Sort, q.Order, q.Page, q.PageSize)
}

func productKeysSet(productID uuid.UUID) string {
	return fmt.Sprintf("product:%s:cache_keys", productID)
}

func (c *RedisCache) get(ctx context.Context, name, key string, dst any) error {
	val, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.CacheLookups.WithLabelValues(name, "miss").Inc()
		return domain.ErrNotFound
	}
	if err != nil {
		return err
	}
	metrics.CacheLookups.WithLabelValues(name, "hit").Inc()
	return json.Unmarshal(val, dst)
}

// Epoch returns the current invalidation epoch
func (c *RedisCache) Epoch(ctx context.Context) (int64, error) {
	epoch, err := c.client.Get(ctx, epochKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return epoch, err
}

// fill runs the writes in a transaction that only commits while the epoch is unchanged.
// A stale fill is dropped without error.
func (c *RedisCache) fill(ctx context.Context, epoch int64, write func(pipe redis.Pipeliner)) error {
	err := c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, epochKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != epoch {
			return errStaleFill
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			write(pipe)
			return nil
		})
		return err
	}, epochKey)
	if errors.Is(err, errStaleFill) || errors.Is(err, redis.TxFailedErr) {
		return nil
	}
	return err
}

// setTracked stores the value and records its key in the product's tracking SET
func (c *RedisCache) setTracked(ctx context.Context, epoch int64, productID uuid.UUID, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	trackingKey := productKeysSet(productID)
	return c.fill(ctx, epoch, func(pipe redis.Pipeliner) {
		pipe.Set(ctx, key, data, ttl)
		pipe.SAdd(ctx, trackingKey, key)
		pipe.Expire(ctx, trackingKey, ttl)
	})
}

// GetProductDetail retrieves a cached product detail by slug
func (c *RedisCache) GetProductDetail(ctx context.Context, slug string) (*domain.ProductDetail, error) {
	var detail domain.ProductDetail
	if err := c.get(ctx, "product_detail", productDetailKey(slug), &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// SetProductDetail caches a product detail
func (c *RedisCache) SetProductDetail(ctx context.Context, epoch int64, detail *domain.ProductDetail) error {
	return c.setTracked(ctx, epoch, detail.ID, productDetailKey(detail.Slug), detail, c.productTTL)
}

// GetReviewsPage retrieves a cached page of a product's reviews
func (c *RedisCache) GetReviewsPage(ctx context.Context, q domain.ReviewQuery) (*ReviewsPage, error) {
	if q.ProductID == nil {
		return nil, domain.ErrNotFound
	}
	var page ReviewsPage
	if err := c.get(ctx, "reviews_page", reviewsPageKey(q), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// SetReviewsPage caches a page of a product's reviews
func (c *RedisCache) SetReviewsPage(ctx context.Context, epoch int64, q domain.ReviewQuery, page *ReviewsPage) error {
	if q.ProductID == nil {
		return nil
	}
	return c.setTracked(ctx, epoch, *q.ProductID, reviewsPageKey(q), page, c.reviewsListTTL)
}

// GetStats retrieves cached platform statistics
func (c *RedisCache) GetStats(ctx context.Context) (*domain.Stats, error) {
	var stats domain.Stats
	if err := c.get(ctx, "stats", statsKey, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// SetStats caches platform statistics
func (c *RedisCache) SetStats(ctx context.Context, epoch int64, stats *domain.Stats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	return c.fill(ctx, epoch, func(pipe redis.Pipeliner) {
		pipe.Set(ctx, statsKey, data, c.statsTTL)
	})
}

// InvalidateProduct advances the epoch and removes every tracked entry of a product
func (c *RedisCache) InvalidateProduct(ctx context.Context, productID uuid.UUID) error {
	if err := c.client.Incr(ctx, epochKey).Err(); err != nil {
		return err
	}
	trackingKey := productKeysSet(productID)

	keys, err := c.client.SMembers(ctx, trackingKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	if len(keys) == 0 {
		return nil
	}

	keys = append(keys, trackingKey)
	return c.client.Unlink(ctx, keys...).Err()
}

// InvalidateStats advances the epoch and removes cached statistics
func (c *RedisCache) InvalidateStats(ctx context.Context) error {
	if err := c.client.Incr(ctx, epochKey).Err(); err != nil {
		return err
	}
	return c.client.Unlink(ctx, statsKey).Err()
}
