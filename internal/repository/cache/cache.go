package cache

import (
	"context"

	"github.com/google/uuid"

	"github.com/Pesokrava/product_directory/internal/domain"
)

// ReviewsPage is a cached page of a product's public reviews
type ReviewsPage struct {
	Reviews []*domain.ReviewListing `json:"reviews"`
	Total   int                     `json:"total"`
}

// Cache is the read cache used by the services.
// Get methods return domain.ErrNotFound on a miss.
//
// Every invalidation advances the epoch. A reader takes the epoch before reading
// the database and hands it to Set, which drops the fill when an invalidation
// happened in between, so a value read before a write commits is never cached
// after that write's invalidation.
type Cache interface {
	Epoch(ctx context.Context) (int64, error)

	GetProductDetail(ctx context.Context, slug string) (*domain.ProductDetail, error)
	SetProductDetail(ctx context.Context, epoch int64, detail *domain.ProductDetail) error

	GetReviewsPage(ctx context.Context, q domain.ReviewQuery) (*ReviewsPage, error)
	SetReviewsPage(ctx context.Context, epoch int64, q domain.ReviewQuery, page *ReviewsPage) error

	GetStats(ctx context.Context) (*domain.Stats, error)
	SetStats(ctx context.Context, epoch int64, stats *domain.Stats) error

	// InvalidateProduct drops every entry derived from the product
	InvalidateProduct(ctx context.Context, productID uuid.UUID) error
	InvalidateStats(ctx context.Context) error
}

// Noop is a Cache that never hits
type Noop struct{}

func (Noop) Epoch(context.Context) (int64, error) { return 0, nil }
func (Noop) GetProductDetail(context.Context, string) (*domain.ProductDetail, error) {
	return nil, domain.ErrNotFound
}
func (Noop) SetProductDetail(context.Context, int64, *domain.ProductDetail) error { return nil }
func (Noop) GetReviewsPage(context.Context, domain.ReviewQuery) (*ReviewsPage, error) {
	return nil, domain.ErrNotFound
}
func (Noop) SetReviewsPage(context.Context, int64, domain.ReviewQuery, *ReviewsPage) error {
	return nil
}
func (Noop) GetStats(context.Context) (*domain.Stats, error) { return nil, domain.ErrNotFound }
func (Noop) SetStats(context.Context, int64, *domain.Stats) error { return nil }
func (Noop) InvalidateProduct(context.Context, uuid.UUID) error { return nil }
func (Noop) InvalidateStats(context.Context) error { return nil }
