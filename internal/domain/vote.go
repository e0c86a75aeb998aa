package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ReviewVote is one user's helpfulness vote on a review
type ReviewVote struct {
	ID        uuid.UUID `json:"id" db:"id"`
	ReviewID  uuid.UUID `json:"review_id" db:"review_id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	IsHelpful bool      `json:"is_helpful" db:"is_helpful"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// VoteState is the caller's view of their own vote
type VoteState struct {
	Voted     bool  `json:"voted"`
	IsHelpful *bool `json:"is_helpful,omitempty"`
}

// VoteRepository defines data access for review votes. Votes are never deleted.
type VoteRepository interface {
	// Find returns the vote a user cast on a review, or ErrNotFound
	Find(ctx context.Context, reviewID, userID uuid.UUID) (*ReviewVote, error)

	// Insert stores a new vote, filling ID and timestamps
	Insert(ctx context.Context, vote *ReviewVote) error

	// SetHelpful flips an existing vote in place
	SetHelpful(ctx context.Context, id uuid.UUID, isHelpful bool) error
}
