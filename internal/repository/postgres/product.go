package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Pesokrava/product_directory/internal/domain"
)

const productColumns = `p.id, p.name, p.slug, p.description, p.short_description, p.website, p.pricing,
	p.category_id, p.submitted_by, p.status, p.is_featured, p.average_rating, p.total_reviews,
	p.created_at, p.updated_at, p.deleted_at`

const productJoins = `
	FROM products p
	LEFT JOIN categories c ON c.id = p.category_id`

// ProductRepository implements domain.ProductRepository for PostgreSQL
type ProductRepository struct {
	db queryer
}

// NewProductRepository creates a product repository on a pool or transaction
func NewProductRepository(db queryer) *ProductRepository {
	return &ProductRepository{db: db}
}

// Create inserts a product. Aggregates start at their column defaults.
func (r *ProductRepository) Create(ctx context.Context, product *domain.Product) error {
	query := `
		INSERT INTO products (name, slug, description, short_description, website, pricing,
			category_id, submitted_by, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, is_featured, average_rating, total_reviews, created_at, updated_at
	`

	err := r.db.QueryRowxContext(
		ctx,
		query,
		product.Name,
		product.Slug,
		product.Description,
		product.ShortDescription,
		product.Website,
		product.Pricing,
		product.CategoryID,
		product.SubmittedBy,
		string(product.Status),
	).Scan(
		&product.ID,
		&product.IsFeatured,
		&product.AverageRating,
		&product.TotalReviews,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	return mapError(err)
}

// GetByID retrieves a product by ID
func (r *ProductRepository) GetByID(ctx context.Context, id uuid.UUID, scope domain.DeletedScope) (*domain.Product, error) {
	return r.getOne(ctx, "p.id = $1", id, scope)
}

// GetBySlug retrieves a product by slug
func (r *ProductRepository) GetBySlug(ctx context.Context, slug string, scope domain.DeletedScope) (*domain.Product, error) {
	return r.getOne(ctx, "p.slug = $1", slug, scope)
}

func (r *ProductRepository) getOne(ctx context.Context, cond string, arg any, scope domain.DeletedScope) (*domain.Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM products p WHERE %s`, productColumns, cond)
	if scope == domain.ExcludeDeleted {
		query += " AND " + liveOnly("p")
	}

	var product domain.Product
	if err := r.db.GetContext(ctx, &product, query, arg); err != nil {
		return nil, mapError(err)
	}
	return &product, nil
}

// SlugExists reports whether any product row, tombstoned or not, holds the slug
func (r *ProductRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM products WHERE slug = $1)`, slug)
	return exists, err
}

// Update writes content fields and status of a live product
func (r *ProductRepository) Update(ctx context.Context, product *domain.Product) error {
	query := `
		UPDATE products
		SET name = $1, description = $2, short_description = $3, website = $4, pricing = $5,
			category_id = $6, status = $7, updated_at = $8
		WHERE id = $9 AND deleted_at IS NULL
		RETURNING updated_at
	`

	err := r.db.QueryRowxContext(
		ctx,
		query,
		product.Name,
		product.Description,
		product.ShortDescription,
		product.Website,
		product.Pricing,
		product.CategoryID,
		string(product.Status),
		time.Now(),
		product.ID,
	).Scan(&product.UpdatedAt)
	return mapError(err)
}

// SetStatus changes the moderation status of a live product
func (r *ProductRepository) SetStatus(ctx context.Context, id uuid.UUID, status domain.ProductStatus) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE products SET status = $1, updated_at = $2 WHERE id = $3 AND deleted_at IS NULL`,
		string(status), time.Now(), id)
	if err != nil {
		return mapError(err)
	}
	return affectedOne(res)
}

// SetFeatured toggles the featured flag of a live product
func (r *ProductRepository) SetFeatured(ctx context.Context, id uuid.UUID, featured bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE products SET is_featured = $1, updated_at = $2 WHERE id = $3 AND deleted_at IS NULL`,
		featured, time.Now(), id)
	if err != nil {
		return mapError(err)
	}
	return affectedOne(res)
}

// SoftDelete tombstones a live product
func (r *ProductRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE products SET deleted_at = $1 WHERE id = $2 AND deleted_at IS NULL`,
		time.Now(), id)
	if err != nil {
		return mapError(err)
	}
	return affectedOne(res)
}

// Restore clears the tombstone of a deleted product
func (r *ProductRepository) Restore(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE products SET deleted_at = NULL, updated_at = $1 WHERE id = $2 AND deleted_at IS NOT NULL`,
		time.Now(), id)
	if err != nil {
		return mapError(err)
	}
	return affectedOne(res)
}

// List returns one page of products and the total number of matches
func (r *ProductRepository) List(ctx context.Context, q domain.ProductQuery) ([]*domain.ProductListing, int, error) {
	w := productFilters(q)

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) %s %s`, productJoins, w.clause())
	if err := r.db.GetContext(ctx, &total, countQuery, w.args...); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s,
			c.name AS category_name, c.slug AS category_slug, u.name AS submitter_name,
			(SELECT pi.url FROM product_images pi WHERE pi.product_id = p.id
				ORDER BY pi.is_primary DESC, pi.position LIMIT 1) AS primary_image
		%s
		LEFT JOIN users u ON u.id = p.submitted_by
		%s
		%s
		LIMIT $%d OFFSET $%d`,
		productColumns, productJoins, w.clause(), productOrderBy(q), w.next(), w.next()+1,
	)
	args := append(w.args, q.PageSize, q.Offset())

	products := []*domain.ProductListing{}
	if err := r.db.SelectContext(ctx, &products, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}

	return products, total, nil
}

// CountByStatus counts matches per status, ignoring the query's status filter
func (r *ProductRepository) CountByStatus(ctx context.Context, q domain.ProductQuery) (domain.StatusCounts, error) {
	w := productFilters(q.WithoutStatus())
	query := fmt.Sprintf(`
		SELECT COUNT(*) AS all_count,
			COUNT(*) FILTER (WHERE p.status = 'pending') AS pending_count,
			COUNT(*) FILTER (WHERE p.status = 'approved') AS approved_count,
			COUNT(*) FILTER (WHERE p.status = 'rejected') AS rejected_count
		%s
		%s`, productJoins, w.clause())

	var counts domain.StatusCounts
	if err := r.db.GetContext(ctx, &counts, query, w.args...); err != nil {
		return domain.StatusCounts{}, fmt.Errorf("count products by status: %w", err)
	}
	return counts, nil
}

// AddImages stores images for a product
func (r *ProductRepository) AddImages(ctx context.Context, productID uuid.UUID, images []domain.ProductImage) error {
	query := `
		INSERT INTO product_images (product_id, url, alt, is_primary, position)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	for i := range images {
		img := &images[i]
		img.ProductID = productID
		err := r.db.QueryRowxContext(ctx, query, productID, img.URL, img.Alt, img.IsPrimary, img.Position).
			Scan(&img.ID, &img.CreatedAt)
		if err != nil {
			return mapError(err)
		}
	}
	return nil
}

// Images returns a product's images ordered by position
func (r *ProductRepository) Images(ctx context.Context, productID uuid.UUID) ([]domain.ProductImage, error) {
	images := []domain.ProductImage{}
	err := r.db.SelectContext(ctx, &images, `
		SELECT id, product_id, url, alt, is_primary, position, created_at
		FROM product_images
		WHERE product_id = $1
		ORDER BY position, created_at`, productID)
	return images, err
}

// SetTags replaces a product's tags
func (r *ProductRepository) SetTags(ctx context.Context, productID uuid.UUID, tagIDs []uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM product_tags WHERE product_id = $1`, productID); err != nil {
		return err
	}
	for _, tagID := range tagIDs {
		_, err := r.db.ExecContext(ctx,
			`INSERT INTO product_tags (product_id, tag_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			productID, tagID)
		if err != nil {
			return mapError(err)
		}
	}
	return nil
}

// Tags returns a product's tags ordered by name
func (r *ProductRepository) Tags(ctx context.Context, productID uuid.UUID) ([]domain.Tag, error) {
	tags := []domain.Tag{}
	err := r.db.SelectContext(ctx, &tags, `
		SELECT t.id, t.name, t.slug, t.color, t.created_at
		FROM tags t
		JOIN product_tags pt ON pt.tag_id = t.id
		WHERE pt.product_id = $1
		ORDER BY t.name`, productID)
	return tags, err
}
