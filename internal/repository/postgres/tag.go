package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/Pesokrava/product_directory/internal/domain"
)

// TagRepository implements domain.TagRepository for PostgreSQL
type TagRepository struct {
	db queryer
}

// ListWithUsage returns every tag with the number of live products carrying it
func (r *TagRepository) ListWithUsage(ctx context.Context) ([]domain.TagWithUsage, error) {
	tags := []domain.TagWithUsage{}
	err := r.db.SelectContext(ctx, &tags, `
		SELECT t.id, t.name, t.slug, t.color, t.created_at, COUNT(p.id) AS usage_count
		FROM tags t
		LEFT JOIN product_tags pt ON pt.tag_id = t.id
		LEFT JOIN products p ON p.id = pt.product_id AND p.deleted_at IS NULL
		GROUP BY t.id
		ORDER BY t.name`)
	return tags, err
}

// CountExisting returns how many of ids name existing tags
func (r *TagRepository) CountExisting(ctx context.Context, ids []uuid.UUID) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	strs := make([]string, len(ids))
	for i, id := range ids {
		strs[i] = id.String()
	}

	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM tags WHERE id = ANY($1::uuid[])`, pq.Array(strs))
	return n, err
}
