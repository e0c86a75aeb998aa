package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Pesokrava/product_directory/internal/domain"
)

// AggregateStore implements domain.AggregateStore for PostgreSQL.
// It is the only code that writes average_rating, total_reviews and helpful_count.
type AggregateStore struct {
	db queryer
}

// LockProduct takes a FOR UPDATE lock on the product row, tombstoned or not
func (s *AggregateStore) LockProduct(ctx context.Context, productID uuid.UUID) error {
	var id uuid.UUID
	err := s.db.GetContext(ctx, &id, `SELECT id FROM products WHERE id = $1 FOR UPDATE`, productID)
	return mapError(err)
}

// RatingStats sums approved live reviews of the product
func (s *AggregateStore) RatingStats(ctx context.Context, productID uuid.UUID) (domain.RatingStats, error) {
	var stats domain.RatingStats
	err := s.db.GetContext(ctx, &stats, `
		SELECT COALESCE(SUM(rating), 0) AS rating_sum, COUNT(*) AS rating_count
		FROM reviews
		WHERE product_id = $1 AND status = 'approved' AND deleted_at IS NULL`, productID)
	return stats, err
}

// SetProductRating writes the product's aggregate columns
func (s *AggregateStore) SetProductRating(ctx context.Context, productID uuid.UUID, avg domain.Rating, total int) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE products
		SET average_rating = $1, total_reviews = $2, updated_at = $3
		WHERE id = $4`,
		avg.StringFixed(2), total, time.Now(), productID)
	if err != nil {
		return err
	}
	return affectedOne(res)
}

// LockReview takes a FOR UPDATE lock on the review row, tombstoned or not
func (s *AggregateStore) LockReview(ctx context.Context, reviewID uuid.UUID) error {
	var id uuid.UUID
	err := s.db.GetContext(ctx, &id, `SELECT id FROM reviews WHERE id = $1 FOR UPDATE`, reviewID)
	return mapError(err)
}

// CountHelpfulVotes counts helpful votes on the review
func (s *AggregateStore) CountHelpfulVotes(ctx context.Context, reviewID uuid.UUID) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n,
		`SELECT COUNT(*) FROM review_votes WHERE review_id = $1 AND is_helpful`, reviewID)
	return n, err
}

// SetHelpfulCount writes the review's helpful_count
func (s *AggregateStore) SetHelpfulCount(ctx context.Context, reviewID uuid.UUID, count int) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE reviews SET helpful_count = $1 WHERE id = $2`, count, reviewID)
	if err != nil {
		return err
	}
	return affectedOne(res)
}
