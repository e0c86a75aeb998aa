package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Pesokrava/product_directory/internal/domain"
)

// VoteRepository implements domain.VoteRepository for PostgreSQL
type VoteRepository struct {
	db queryer
}

// Find returns the vote a user cast on a review
func (r *VoteRepository) Find(ctx context.Context, reviewID, userID uuid.UUID) (*domain.ReviewVote, error) {
	var vote domain.ReviewVote
	err := r.db.GetContext(ctx, &vote, `
		SELECT id, review_id, user_id, is_helpful, created_at, updated_at
		FROM review_votes
		WHERE review_id = $1 AND user_id = $2`, reviewID, userID)
	if err != nil {
		return nil, mapError(err)
	}
	return &vote, nil
}

// Insert stores a new vote
func (r *VoteRepository) Insert(ctx context.Context, vote *domain.ReviewVote) error {
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO review_votes (review_id, user_id, is_helpful)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at`,
		vote.ReviewID, vote.UserID, vote.IsHelpful,
	).Scan(&vote.ID, &vote.CreatedAt, &vote.UpdatedAt)
	return mapError(err)
}

// SetHelpful flips an existing vote in place
func (r *VoteRepository) SetHelpful(ctx context.Context, id uuid.UUID, isHelpful bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE review_votes SET is_helpful = $1, updated_at = $2 WHERE id = $3`,
		isHelpful, time.Now(), id)
	if err != nil {
		return mapError(err)
	}
	return affectedOne(res)
}
