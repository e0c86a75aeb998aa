// Package aggregate recomputes derived columns from live review and vote data.
// Every function joins the caller's transaction when given a transaction-bound store.
package aggregate

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Pesokrava/product_directory/internal/domain"
	"github.com/Pesokrava/product_directory/internal/pkg/metrics"
)

// ProductRating is the written rating aggregate of a product
type ProductRating struct {
	AverageRating domain.Rating `json:"average_rating"`
	TotalReviews  int           `json:"total_reviews"`
}

// Recompute kinds as reported by the recompute metric
const (
	KindProductRating = "product_rating"
	KindHelpfulCount  = "helpful_count"
)

// RecordRecompute counts a recompute of kind. Recomputes usually join the caller's
// transaction, so callers record them once that transaction has committed.
func RecordRecompute(kind string) {
	metrics.AggregateRecomputes.WithLabelValues(kind).Inc()
}

// Average returns sum/count rounded to two digits, or zero when there are no ratings
func Average(stats domain.RatingStats) domain.Rating {
	if stats.Count == 0 {
		return domain.NewRating(decimal.Zero)
	}
	sum := decimal.NewFromInt(stats.Sum)
	return domain.NewRating(sum.Div(decimal.NewFromInt(int64(stats.Count))))
}

// RecomputeProductRating locks the product and rewrites average_rating and total_reviews
// from its approved, live reviews.
func RecomputeProductRating(ctx context.Context, store domain.Store, productID uuid.UUID) (ProductRating, error) {
	var result ProductRating
	err := store.WithinTx(ctx, func(ctx context.Context, tx domain.Store) error {
		agg := tx.Aggregates()
		if err := agg.LockProduct(ctx, productID); err != nil {
			return fmt.Errorf("lock product %s: %w", productID, err)
		}

		stats, err := agg.RatingStats(ctx, productID)
		if err != nil {
			return fmt.Errorf("rating stats for product %s: %w", productID, err)
		}

		result = ProductRating{AverageRating: Average(stats), TotalReviews: stats.Count}
		return agg.SetProductRating(ctx, productID, result.AverageRating, result.TotalReviews)
	})
	if err != nil {
		return ProductRating{}, err
	}

	return result, nil
}

// RecomputeHelpfulCount locks the review and rewrites helpful_count from its votes
func RecomputeHelpfulCount(ctx context.Context, store domain.Store, reviewID uuid.UUID) (int, error) {
	var count int
	err := store.WithinTx(ctx, func(ctx context.Context, tx domain.Store) error {
		agg := tx.Aggregates()
		if err := agg.LockReview(ctx, reviewID); err != nil {
			return fmt.Errorf("lock review %s: %w", reviewID, err)
		}

		n, err := agg.CountHelpfulVotes(ctx, reviewID)
		if err != nil {
			return fmt.Errorf("count votes for review %s: %w", reviewID, err)
		}

		count = n
		return agg.SetHelpfulCount(ctx, reviewID, n)
	})
	if err != nil {
		return 0, err
	}

	return count, nil
}

// AuditProductRating compares the stored aggregate with a fresh computation and repairs
// it when they differ. It reports whether a repair was needed.
func AuditProductRating(ctx context.Context, store domain.Store, productID uuid.UUID) (bool, error) {
	drifted := false
	err := store.WithinTx(ctx, func(ctx context.Context, tx domain.Store) error {
		agg := tx.Aggregates()
		if err := agg.LockProduct(ctx, productID); err != nil {
			return fmt.Errorf("lock product %s: %w", productID, err)
		}

		product, err := tx.Products().GetByID(ctx, productID, domain.IncludeDeleted)
		if err != nil {
			return err
		}

		stats, err := agg.RatingStats(ctx, productID)
		if err != nil {
			return fmt.Errorf("rating stats for product %s: %w", productID, err)
		}

		avg := Average(stats)
		if product.TotalReviews == stats.Count && product.AverageRating.Equal(avg.Decimal) {
			return nil
		}

		drifted = true
		return agg.SetProductRating(ctx, productID, avg, stats.Count)
	})
	if err != nil {
		return false, err
	}

	if drifted {
		metrics.AggregateDrift.Inc()
	}
	return drifted, nil
}
