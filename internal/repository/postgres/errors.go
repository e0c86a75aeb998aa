package postgres

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"github.com/Pesokrava/product_directory/internal/domain"
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// mapError translates driver errors into domain errors
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case uniqueViolation:
			return domain.Conflict("%s already exists", constraintSubject(pqErr.Constraint))
		case foreignKeyViolation:
			return domain.Invalid("referenced %s does not exist", constraintSubject(pqErr.Constraint))
		}
	}
	return err
}

func constraintSubject(constraint string) string {
	switch constraint {
	case "products_slug_key":
		return "product with this name"
	case "uq_reviews_product_user_live":
		return "review for this product"
	case "uq_review_votes_review_user":
		return "vote for this review"
	case "products_category_id_fkey":
		return "category"
	case "product_tags_tag_id_fkey":
		return "tag"
	case "products_submitted_by_fkey", "reviews_user_id_fkey", "review_votes_user_id_fkey":
		return "user"
	case "":
		return "record"
	default:
		return constraint
	}
}

// affectedOne returns ErrNotFound when an update touched no rows
func affectedOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
