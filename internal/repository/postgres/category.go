package postgres

import (
	"context"

	"github.com/google/uuid"

	"github.com/Pesokrava/product_directory/internal/domain"
)

const categoryColumns = `id, name, slug, description, icon, parent_id, created_at, updated_at`

// CategoryRepository implements domain.CategoryRepository for PostgreSQL
type CategoryRepository struct {
	db queryer
}

// GetByID retrieves a category by ID
func (r *CategoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	var c domain.Category
	if err := r.db.GetContext(ctx, &c, `SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id); err != nil {
		return nil, mapError(err)
	}
	return &c, nil
}

// GetBySlug retrieves a category by slug
func (r *CategoryRepository) GetBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	var c domain.Category
	if err := r.db.GetContext(ctx, &c, `SELECT `+categoryColumns+` FROM categories WHERE slug = $1`, slug); err != nil {
		return nil, mapError(err)
	}
	return &c, nil
}

// ListWithCounts returns every category with its approved live product count
func (r *CategoryRepository) ListWithCounts(ctx context.Context) ([]domain.CategoryWithCount, error) {
	categories := []domain.CategoryWithCount{}
	err := r.db.SelectContext(ctx, &categories, `
		SELECT c.id, c.name, c.slug, c.description, c.icon, c.parent_id, c.created_at, c.updated_at,
			COUNT(p.id) AS product_count
		FROM categories c
		LEFT JOIN products p ON p.category_id = c.id AND p.status = 'approved' AND p.deleted_at IS NULL
		GROUP BY c.id
		ORDER BY c.name`)
	return categories, err
}
