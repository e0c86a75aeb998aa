package postgres

import (
	"context"
	"time"

	"github.com/Pesokrava/product_directory/internal/domain"
)

// StatsRepository implements domain.StatsRepository for PostgreSQL
type StatsRepository struct {
	db queryer
}

// Overview returns platform counters over live rows
func (r *StatsRepository) Overview(ctx context.Context) (domain.Overview, error) {
	var o domain.Overview
	err := r.db.GetContext(ctx, &o, `
		SELECT
			(SELECT COUNT(*) FROM products WHERE deleted_at IS NULL) AS total_products,
			(SELECT COUNT(*) FROM products WHERE deleted_at IS NULL AND status = 'approved') AS approved_products,
			(SELECT COUNT(*) FROM products WHERE deleted_at IS NULL AND status = 'pending') AS pending_products,
			(SELECT COUNT(*) FROM reviews r JOIN products p ON p.id = r.product_id
				WHERE r.deleted_at IS NULL AND p.deleted_at IS NULL AND r.status = 'approved') AS total_reviews,
			(SELECT COUNT(*) FROM users WHERE deleted_at IS NULL) AS total_users,
			(SELECT COUNT(*) FROM categories) AS total_categories`)
	return o, err
}

// TopRated returns approved live products with at least minReviews reviews, best rated first
func (r *StatsRepository) TopRated(ctx context.Context, minReviews, limit int) ([]domain.RankedProduct, error) {
	products := []domain.RankedProduct{}
	err := r.db.SelectContext(ctx, &products, `
		SELECT id, name, slug, average_rating, total_reviews
		FROM products
		WHERE deleted_at IS NULL AND status = 'approved' AND total_reviews >= $1
		ORDER BY average_rating DESC, total_reviews DESC, id
		LIMIT $2`, minReviews, limit)
	return products, err
}

// MostReviewed returns approved live products with the most reviews
func (r *StatsRepository) MostReviewed(ctx context.Context, limit int) ([]domain.RankedProduct, error) {
	products := []domain.RankedProduct{}
	err := r.db.SelectContext(ctx, &products, `
		SELECT id, name, slug, average_rating, total_reviews
		FROM products
		WHERE deleted_at IS NULL AND status = 'approved' AND total_reviews > 0
		ORDER BY total_reviews DESC, average_rating DESC, id
		LIMIT $1`, limit)
	return products, err
}

// CategoryDistribution counts approved live products per category
func (r *StatsRepository) CategoryDistribution(ctx context.Context) ([]domain.CategoryShare, error) {
	shares := []domain.CategoryShare{}
	err := r.db.SelectContext(ctx, &shares, `
		SELECT c.name, COUNT(p.id) AS count
		FROM categories c
		JOIN products p ON p.category_id = c.id AND p.deleted_at IS NULL AND p.status = 'approved'
		GROUP BY c.id, c.name
		ORDER BY count DESC, c.name`)
	return shares, err
}

// RatingDistribution counts approved live reviews per star rating
func (r *StatsRepository) RatingDistribution(ctx context.Context) ([]domain.RatingBucket, error) {
	buckets := []domain.RatingBucket{}
	err := r.db.SelectContext(ctx, &buckets, `
		SELECT r.rating, COUNT(*) AS count
		FROM reviews r
		JOIN products p ON p.id = r.product_id AND p.deleted_at IS NULL
		WHERE r.deleted_at IS NULL AND r.status = 'approved'
		GROUP BY r.rating
		ORDER BY r.rating`)
	return buckets, err
}

// MonthlyReviews counts live reviews per month since the given time
func (r *StatsRepository) MonthlyReviews(ctx context.Context, since time.Time) ([]domain.MonthlyCount, error) {
	months := []domain.MonthlyCount{}
	err := r.db.SelectContext(ctx, &months, `
		SELECT date_trunc('month', r.created_at) AS month, COUNT(*) AS count
		FROM reviews r
		JOIN products p ON p.id = r.product_id AND p.deleted_at IS NULL
		WHERE r.deleted_at IS NULL AND r.created_at >= $1
		GROUP BY month
		ORDER BY month`, since)
	return months, err
}
