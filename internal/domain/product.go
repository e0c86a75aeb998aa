package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductStatus is the moderation state of a product
type ProductStatus string

const (
	ProductPending  ProductStatus = "pending"
	ProductApproved ProductStatus = "approved"
	ProductRejected ProductStatus = "rejected"
)

// Valid reports whether s is a known product status
func (s ProductStatus) Valid() bool {
	switch s {
	case ProductPending, ProductApproved, ProductRejected:
		return true
	}
	return false
}

// Rating is an average rating held at two fractional digits.
// It scans from NUMERIC columns and marshals as a JSON number such as 4.50.
type Rating struct {
	decimal.Decimal
}

// NewRating rounds d to two fractional digits
func NewRating(d decimal.Decimal) Rating {
	return Rating{Decimal: d.Round(2)}
}

// MarshalJSON renders the rating with exactly two fractional digits
func (r Rating) MarshalJSON() ([]byte, error) {
	return []byte(r.StringFixed(2)), nil
}

// Product represents a submitted product in the directory
type Product struct {
	ID               uuid.UUID     `json:"id" db:"id"`
	Name             string        `json:"name" db:"name" validate:"required,min=1,max=200"`
	Slug             string        `json:"slug" db:"slug"`
	Description      string        `json:"description" db:"description" validate:"required,min=1"`
	ShortDescription *string       `json:"short_description,omitempty" db:"short_description" validate:"omitempty,max=500"`
	Website          *string       `json:"website,omitempty" db:"website" validate:"omitempty,url"`
	Pricing          *string       `json:"pricing,omitempty" db:"pricing" validate:"omitempty,max=100"`
	CategoryID       uuid.UUID     `json:"category_id" db:"category_id" validate:"required"`
	SubmittedBy      uuid.UUID     `json:"submitted_by" db:"submitted_by"`
	Status           ProductStatus `json:"status" db:"status"`
	IsFeatured       bool          `json:"is_featured" db:"is_featured"`
	AverageRating    Rating        `json:"average_rating" db:"average_rating"`
	TotalReviews     int           `json:"total_reviews" db:"total_reviews"`
	CreatedAt        time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at" db:"updated_at"`
	DeletedAt        *time.Time    `json:"deleted_at,omitempty" db:"deleted_at"`
}

// IsDeleted reports whether the product is tombstoned
func (p *Product) IsDeleted() bool {
	return p.DeletedAt != nil
}

// ProductListing is a product row as returned by listings
type ProductListing struct {
	Product
	CategoryName  *string `json:"category_name,omitempty" db:"category_name"`
	CategorySlug  *string `json:"category_slug,omitempty" db:"category_slug"`
	SubmitterName *string `json:"submitter_name,omitempty" db:"submitter_name"`
	PrimaryImage  *string `json:"primary_image,omitempty" db:"primary_image"`
}

// ProductImage is an image owned by a product
type ProductImage struct {
	ID        uuid.UUID `json:"id" db:"id"`
	ProductID uuid.UUID `json:"product_id" db:"product_id"`
	URL       string    `json:"url" db:"url" validate:"required,url"`
	Alt       *string   `json:"alt,omitempty" db:"alt"`
	IsPrimary bool      `json:"is_primary" db:"is_primary"`
	Position  int       `json:"position" db:"position"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// ProductDetail is a product with its owned and related records
type ProductDetail struct {
	Product
	Category      *Category        `json:"category,omitempty"`
	SubmitterName *string          `json:"submitter_name,omitempty"`
	Images        []ProductImage   `json:"images"`
	Tags          []Tag            `json:"tags"`
	RecentReviews []*ReviewListing `json:"recent_reviews"`
}

// ProductRepository defines data access for products.
// Aggregate columns are never written here; see AggregateStore.
type ProductRepository interface {
	// Create inserts a product, filling ID and timestamps
	Create(ctx context.Context, product *Product) error

	// GetByID retrieves a product by ID within the given deletion scope
	GetByID(ctx context.Context, id uuid.UUID, scope DeletedScope) (*Product, error)

	// GetBySlug retrieves a product by slug within the given deletion scope
	GetBySlug(ctx context.Context, slug string, scope DeletedScope) (*Product, error)

	// SlugExists reports whether any product, tombstoned or not, uses the slug
	SlugExists(ctx context.Context, slug string) (bool, error)

	// Update writes content fields and status
	Update(ctx context.Context, product *Product) error

	// SetStatus changes the moderation status of a live product
	SetStatus(ctx context.Context, id uuid.UUID, status ProductStatus) error

	// SetFeatured toggles the featured flag of a live product
	SetFeatured(ctx context.Context, id uuid.UUID, featured bool) error

	// SoftDelete tombstones a live product
	SoftDelete(ctx context.Context, id uuid.UUID) error

	// Restore clears the tombstone of a deleted product
	Restore(ctx context.Context, id uuid.UUID) error

	// List returns one page of products matching the query and the total match count
	List(ctx context.Context, q ProductQuery) ([]*ProductListing, int, error)

	// CountByStatus returns per-status counts over the query filters, ignoring its status filter
	CountByStatus(ctx context.Context, q ProductQuery) (StatusCounts, error)

	// AddImages stores images for a product
	AddImages(ctx context.Context, productID uuid.UUID, images []ProductImage) error

	// Images returns a product's images ordered by position
	Images(ctx context.Context, productID uuid.UUID) ([]ProductImage, error)

	// SetTags replaces a product's tags
	SetTags(ctx context.Context, productID uuid.UUID, tagIDs []uuid.UUID) error

	// Tags returns a product's tags ordered by name
	Tags(ctx context.Context, productID uuid.UUID) ([]Tag, error)
}
