package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Overview holds platform-wide counters. Tombstoned rows are never counted.
type Overview struct {
	TotalProducts    int `json:"total_products" db:"total_products"`
	ApprovedProducts int `json:"approved_products" db:"approved_products"`
	PendingProducts  int `json:"pending_products" db:"pending_products"`
	TotalReviews     int `json:"total_reviews" db:"total_reviews"`
	TotalUsers       int `json:"total_users" db:"total_users"`
	TotalCategories  int `json:"total_categories" db:"total_categories"`
}

// RankedProduct is a compact product row used by rankings
type RankedProduct struct {
	ID            uuid.UUID `json:"id" db:"id"`
	Name          string    `json:"name" db:"name"`
	Slug          string    `json:"slug" db:"slug"`
	AverageRating Rating    `json:"average_rating" db:"average_rating"`
	TotalReviews  int       `json:"total_reviews" db:"total_reviews"`
}

// CategoryShare is the number of approved live products in a category
type CategoryShare struct {
	Name  string `json:"name" db:"name"`
	Count int    `json:"count" db:"count"`
}

// RatingBucket is the number of approved live reviews with a given rating
type RatingBucket struct {
	Rating int `json:"rating" db:"rating"`
	Count  int `json:"count" db:"count"`
}

// MonthlyCount is the number of live reviews created in a calendar month
type MonthlyCount struct {
	Month time.Time `json:"month" db:"month"`
	Count int       `json:"count" db:"count"`
}

// Stats is the platform statistics report
type Stats struct {
	Overview             Overview        `json:"overview"`
	TopRated             []RankedProduct `json:"top_rated"`
	MostReviewed         []RankedProduct `json:"most_reviewed"`
	CategoryDistribution []CategoryShare `json:"category_distribution"`
	RatingDistribution   []RatingBucket  `json:"rating_distribution"`
	MonthlyReviews       []MonthlyCount  `json:"monthly_reviews"`
}

// StatsRepository computes reporting queries
type StatsRepository interface {
	Overview(ctx context.Context) (Overview, error)
	// TopRated returns approved live products with at least minReviews reviews by rating
	TopRated(ctx context.Context, minReviews, limit int) ([]RankedProduct, error)
	MostReviewed(ctx context.Context, limit int) ([]RankedProduct, error)
	CategoryDistribution(ctx context.Context) ([]CategoryShare, error)
	RatingDistribution(ctx context.Context) ([]RatingBucket, error)
	// MonthlyReviews returns review counts per month for months starting at or after since
	MonthlyReviews(ctx context.Context, since time.Time) ([]MonthlyCount, error)
}
