package domain

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ReviewStatus is the moderation state of a review
type ReviewStatus string

const (
	ReviewPending  ReviewStatus = "pending"
	ReviewApproved ReviewStatus = "approved"
	ReviewRejected ReviewStatus = "rejected"
)

// Valid reports whether s is a known review status
func (s ReviewStatus) Valid() bool {
	switch s {
	case ReviewPending, ReviewApproved, ReviewRejected:
		return true
	}
	return false
}

// StringList is an ordered list of strings stored as JSON
type StringList []string

// Value implements driver.Valuer
func (l StringList) Value() (driver.Value, error) {
	if len(l) == 0 {
		return nil, nil
	}
	return json.Marshal([]string(l))
}

// Scan implements sql.Scanner
func (l *StringList) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*l = nil
		return nil
	case []byte:
		return json.Unmarshal(v, (*[]string)(l))
	case string:
		return json.Unmarshal([]byte(v), (*[]string)(l))
	default:
		return fmt.Errorf("cannot scan %T into StringList", src)
	}
}

// Review represents a user-authored product review
type Review struct {
	ID           uuid.UUID    `json:"id" db:"id"`
	ProductID    uuid.UUID    `json:"product_id" db:"product_id" validate:"required"`
	UserID       uuid.UUID    `json:"user_id" db:"user_id" validate:"required"`
	Rating       int          `json:"rating" db:"rating" validate:"required,min=1,max=5"`
	Title        *string      `json:"title,omitempty" db:"title" validate:"omitempty,max=200"`
	Content      string       `json:"content" db:"content" validate:"required,min=1,max=5000"`
	Pros         StringList   `json:"pros,omitempty" db:"pros" validate:"max=20,dive,min=1,max=200"`
	Cons         StringList   `json:"cons,omitempty" db:"cons" validate:"max=20,dive,min=1,max=200"`
	HelpfulCount int          `json:"helpful_count" db:"helpful_count"`
	Status       ReviewStatus `json:"status" db:"status"`
	CreatedAt    time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at" db:"updated_at"`
	DeletedAt    *time.Time   `json:"deleted_at,omitempty" db:"deleted_at"`
}

// Counted reports whether the review contributes to its product's rating
func (r *Review) Counted() bool {
	return r != nil && r.Status == ReviewApproved && r.DeletedAt == nil
}

// ReviewListing is a review row as returned by listings
type ReviewListing struct {
	Review
	UserName    *string `json:"user_name,omitempty" db:"user_name"`
	UserAvatar  *string `json:"user_avatar,omitempty" db:"user_avatar"`
	ProductName string  `json:"product_name" db:"product_name"`
	ProductSlug string  `json:"product_slug" db:"product_slug"`
}

// ReviewRepository defines data access for reviews.
// helpful_count is never written here; see AggregateStore.
type ReviewRepository interface {
	// Create inserts a review, filling ID and timestamps
	Create(ctx context.Context, review *Review) error

	// GetByID retrieves a review by ID within the given deletion scope
	GetByID(ctx context.Context, id uuid.UUID, scope DeletedScope) (*Review, error)

	// FindLive returns the live review a user wrote for a product
	FindLive(ctx context.Context, productID, userID uuid.UUID) (*Review, error)

	// Update writes content fields, rating and status of a live review
	Update(ctx context.Context, review *Review) error

	// SetStatus changes the moderation status of a live review
	SetStatus(ctx context.Context, id uuid.UUID, status ReviewStatus) error

	// SoftDelete tombstones a live review
	SoftDelete(ctx context.Context, id uuid.UUID) error

	// List returns one page of reviews matching the query and the total match count
	List(ctx context.Context, q ReviewQuery) ([]*ReviewListing, int, error)

	// CountByStatus returns per-status counts over the query filters, ignoring its status filter
	CountByStatus(ctx context.Context, q ReviewQuery) (StatusCounts, error)
}
