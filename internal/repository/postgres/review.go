package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Pesokrava/product_directory/internal/domain"
)

const reviewColumns = `r.id, r.product_id, r.user_id, r.rating, r.title, r.content, r.pros, r.cons,
	r.helpful_count, r.status, r.created_at, r.updated_at, r.deleted_at`

const reviewJoins = `
	FROM reviews r
	JOIN products p ON p.id = r.product_id`

// ReviewRepository implements domain.ReviewRepository for PostgreSQL
type ReviewRepository struct {
	db queryer
}

// NewReviewRepository creates a review repository on a pool or transaction
func NewReviewRepository(db queryer) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// Create inserts a review. helpful_count starts at its column default.
func (r *ReviewRepository) Create(ctx context.Context, review *domain.Review) error {
	query := `
		INSERT INTO reviews (product_id, user_id, rating, title, content, pros, cons, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, helpful_count, created_at, updated_at
	`

	err := r.db.QueryRowxContext(
		ctx,
		query,
		review.ProductID,
		review.UserID,
		review.Rating,
		review.Title,
		review.Content,
		review.Pros,
		review.Cons,
		string(review.Status),
	).Scan(
		&review.ID,
		&review.HelpfulCount,
		&review.CreatedAt,
		&review.UpdatedAt,
	)
	return mapError(err)
}

// GetByID retrieves a review by ID
func (r *ReviewRepository) GetByID(ctx context.Context, id uuid.UUID, scope domain.DeletedScope) (*domain.Review, error) {
	query := fmt.Sprintf(`SELECT %s FROM reviews r WHERE r.id = $1`, reviewColumns)
	if scope == domain.ExcludeDeleted {
		query += " AND " + liveOnly("r")
	}

	var review domain.Review
	if err := r.db.GetContext(ctx, &review, query, id); err != nil {
		return nil, mapError(err)
	}
	return &review, nil
}

// FindLive returns the live review a user wrote for a product
func (r *ReviewRepository) FindLive(ctx context.Context, productID, userID uuid.UUID) (*domain.Review, error) {
	query := fmt.Sprintf(`SELECT %s FROM reviews r WHERE r.product_id = $1 AND r.user_id = $2 AND %s`,
		reviewColumns, liveOnly("r"))

	var review domain.Review
	if err := r.db.GetContext(ctx, &review, query, productID, userID); err != nil {
		return nil, mapError(err)
	}
	return &review, nil
}

// Update writes content fields, rating and status of a live review
func (r *ReviewRepository) Update(ctx context.Context, review *domain.Review) error {
	query := `
		UPDATE reviews
		SET rating = $1, title = $2, content = $3, pros = $4, cons = $5, status = $6, updated_at = $7
		WHERE id = $8 AND deleted_at IS NULL
		RETURNING updated_at
	`

	err := r.db.QueryRowxContext(
		ctx,
		query,
		review.Rating,
		review.Title,
		review.Content,
		review.Pros,
		review.Cons,
		string(review.Status),
		time.Now(),
		review.ID,
	).Scan(&review.UpdatedAt)
	return mapError(err)
}

// SetStatus changes the moderation status of a live review
func (r *ReviewRepository) SetStatus(ctx context.Context, id uuid.UUID, status domain.ReviewStatus) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE reviews SET status = $1, updated_at = $2 WHERE id = $3 AND deleted_at IS NULL`,
		string(status), time.Now(), id)
	if err != nil {
		return mapError(err)
	}
	return affectedOne(res)
}

// SoftDelete tombstones a live review
func (r *ReviewRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE reviews SET deleted_at = $1 WHERE id = $2 AND deleted_at IS NULL`,
		time.Now(), id)
	if err != nil {
		return mapError(err)
	}
	return affectedOne(res)
}

// List returns one page of reviews and the total number of matches
func (r *ReviewRepository) List(ctx context.Context, q domain.ReviewQuery) ([]*domain.ReviewListing, int, error) {
	w := reviewFilters(q)

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) %s %s`, reviewJoins, w.clause())
	if err := r.db.GetContext(ctx, &total, countQuery, w.args...); err != nil {
		return nil, 0, fmt.Errorf("count reviews: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s,
			u.name AS user_name, u.avatar AS user_avatar,
			p.name AS product_name, p.slug AS product_slug
		%s
		LEFT JOIN users u ON u.id = r.user_id
		%s
		%s
		LIMIT $%d OFFSET $%d`,
		reviewColumns, reviewJoins, w.clause(), reviewOrderBy(q), w.next(), w.next()+1,
	)
	args := append(w.args, q.PageSize, q.Offset())

	reviews := []*domain.ReviewListing{}
	if err := r.db.SelectContext(ctx, &reviews, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list reviews: %w", err)
	}

	return reviews, total, nil
}

// CountByStatus counts matches per status, ignoring the query's status filter
func (r *ReviewRepository) CountByStatus(ctx context.Context, q domain.ReviewQuery) (domain.StatusCounts, error) {
	w := reviewFilters(q.WithoutStatus())
	query := fmt.Sprintf(`
		SELECT COUNT(*) AS all_count,
			COUNT(*) FILTER (WHERE r.status = 'pending') AS pending_count,
			COUNT(*) FILTER (WHERE r.status = 'approved') AS approved_count,
			COUNT(*) FILTER (WHERE r.status = 'rejected') AS rejected_count
		%s
		%s`, reviewJoins, w.clause())

	var counts domain.StatusCounts
	if err := r.db.GetContext(ctx, &counts, query, w.args...); err != nil {
		return domain.StatusCounts{}, fmt.Errorf("count reviews by status: %w", err)
	}
	return counts, nil
}
