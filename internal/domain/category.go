package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Category groups products. Categories may nest through ParentID.
type Category struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	Name        string     `json:"name" db:"name"`
	Slug        string     `json:"slug" db:"slug"`
	Description *string    `json:"description,omitempty" db:"description"`
	Icon        *string    `json:"icon,omitempty" db:"icon"`
	ParentID    *uuid.UUID `json:"parent_id,omitempty" db:"parent_id"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// CategoryWithCount is a category with its number of approved live products
type CategoryWithCount struct {
	Category
	ProductCount int `json:"product_count" db:"product_count"`
}

// Tag labels products
type Tag struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Slug      string    `json:"slug" db:"slug"`
	Color     *string   `json:"color,omitempty" db:"color"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// TagWithUsage is a tag with the number of live products carrying it
type TagWithUsage struct {
	Tag
	UsageCount int `json:"usage_count" db:"usage_count"`
}

// CategoryRepository reads category reference data
type CategoryRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Category, error)
	GetBySlug(ctx context.Context, slug string) (*Category, error)
	// ListWithCounts returns categories ordered by name with approved live product counts
	ListWithCounts(ctx context.Context) ([]CategoryWithCount, error)
}

// TagRepository reads tag reference data
type TagRepository interface {
	// ListWithUsage returns tags ordered by name with live product usage counts
	ListWithUsage(ctx context.Context) ([]TagWithUsage, error)
	// CountExisting returns how many of the given IDs name existing tags
	CountExisting(ctx context.Context, ids []uuid.UUID) (int, error)
}
