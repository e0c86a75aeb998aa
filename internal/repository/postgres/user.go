package postgres

import (
	"context"

	"github.com/google/uuid"

	"github.com/Pesokrava/product_directory/internal/domain"
)

// UserRepository implements domain.UserRepository for PostgreSQL
type UserRepository struct {
	db queryer
}

// GetByID retrieves a live user by ID
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var u domain.User
	err := r.db.GetContext(ctx, &u, `
		SELECT id, name, email, role, avatar, created_at, updated_at, deleted_at
		FROM users
		WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return nil, mapError(err)
	}
	return &u, nil
}

// Count returns the number of live users
func (r *UserRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM users WHERE deleted_at IS NULL`)
	return n, err
}
