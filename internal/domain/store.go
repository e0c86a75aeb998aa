package domain

import (
	"context"

	"github.com/google/uuid"
)

// TxFunc runs inside a store transaction. The Store it receives is bound to the transaction.
type TxFunc func(ctx context.Context, tx Store) error

// Store is the gateway to persisted entities
type Store interface {
	Products() ProductRepository
	Reviews() ReviewRepository
	Votes() VoteRepository
	Categories() CategoryRepository
	Tags() TagRepository
	Users() UserRepository
	Stats() StatsRepository
	Aggregates() AggregateStore

	// WithinTx runs fn in a read-write transaction, committing when it returns nil.
	// Calling WithinTx on a transaction-bound Store reuses the transaction.
	WithinTx(ctx context.Context, fn TxFunc) error

	// ReadOnly runs fn in a read-only snapshot so that multi-query reads agree
	ReadOnly(ctx context.Context, fn TxFunc) error
}

// RatingStats is the sum and count of ratings that contribute to a product's aggregate
type RatingStats struct {
	Sum   int64 `db:"rating_sum"`
	Count int   `db:"rating_count"`
}

// AggregateStore is the only writer of derived columns.
// Lock methods must be called inside WithinTx.
type AggregateStore interface {
	// LockProduct takes a row lock on the product regardless of its deletion state
	LockProduct(ctx context.Context, productID uuid.UUID) error

	// RatingStats sums approved, live reviews of the product
	RatingStats(ctx context.Context, productID uuid.UUID) (RatingStats, error)

	// SetProductRating writes average_rating, total_reviews and updated_at
	SetProductRating(ctx context.Context, productID uuid.UUID, avg Rating, total int) error

	// LockReview takes a row lock on the review regardless of its deletion state
	LockReview(ctx context.Context, reviewID uuid.UUID) error

	// CountHelpfulVotes counts helpful votes on the review
	CountHelpfulVotes(ctx context.Context, reviewID uuid.UUID) (int, error)

	// SetHelpfulCount writes helpful_count
	SetHelpfulCount(ctx context.Context, reviewID uuid.UUID, count int) error
}
