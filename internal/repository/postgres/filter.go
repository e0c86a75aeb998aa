package postgres

import (
	"fmt"
	"strings"

	"github.com/Pesokrava/product_directory/internal/domain"
)

// whereBuilder accumulates AND-ed conditions with positional arguments.
// Conditions use %d verbs for their own arguments, e.g. "p.status = $%d"
// or "(a ILIKE $%[1]d OR b ILIKE $%[1]d)".
type whereBuilder struct {
	conditions []string
	args       []any
}

func (w *whereBuilder) add(cond string, args ...any) {
	idx := make([]any, len(args))
	for i := range args {
		idx[i] = len(w.args) + i + 1
	}
	if len(idx) > 0 {
		cond = fmt.Sprintf(cond, idx...)
	}
	w.conditions = append(w.conditions, cond)
	w.args = append(w.args, args...)
}

// next returns the placeholder number of the next argument
func (w *whereBuilder) next() int {
	return len(w.args) + 1
}

func (w *whereBuilder) clause() string {
	if len(w.conditions) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(w.conditions, " AND ")
}

// liveOnly is the soft-delete predicate for a table alias
func liveOnly(alias string) string {
	return alias + ".deleted_at IS NULL"
}

func scoped(w *whereBuilder, alias string, scope domain.DeletedScope) {
	if scope == domain.ExcludeDeleted {
		w.add(liveOnly(alias))
	}
}

// escapeLike escapes LIKE wildcards so user input matches literally
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func contains(s string) string {
	return "%" + escapeLike(s) + "%"
}

func productFilters(q domain.ProductQuery) *whereBuilder {
	w := &whereBuilder{}
	scoped(w, "p", q.Deleted)

	if q.Status != nil {
		w.add("p.status = $%d", string(*q.Status))
	}
	if q.Search != "" {
		w.add("(p.name ILIKE $%[1]d OR p.description ILIKE $%[1]d)", contains(q.Search))
	}
	if q.CategoryID != nil {
		w.add("p.category_id = $%d", *q.CategoryID)
	} else if q.CategorySlug != "" {
		w.add("c.slug = $%d", q.CategorySlug)
	}
	if q.Pricing != "" {
		w.add("p.pricing ILIKE $%d", contains(q.Pricing))
	}
	if q.FeaturedOnly {
		w.add("p.is_featured")
	}
	if q.SubmittedBy != nil {
		w.add("p.submitted_by = $%d", *q.SubmittedBy)
	}
	return w
}

var productSortColumns = map[domain.ProductSort]string{
	domain.ProductSortCreatedAt:    "p.created_at",
	domain.ProductSortName:         "p.name",
	domain.ProductSortRating:       "p.average_rating",
	domain.ProductSortTotalReviews: "p.total_reviews",
}

func productOrderBy(q domain.ProductQuery) string {
	col, ok := productSortColumns[q.Sort]
	if !ok {
		col = "p.created_at"
	}
	return orderBy(col, q.Order, "p.id")
}

func reviewFilters(q domain.ReviewQuery) *whereBuilder {
	w := &whereBuilder{}
	scoped(w, "r", q.Deleted)
	// reviews of tombstoned products are never listed
	w.add(liveOnly("p"))

	if q.Status != nil {
		w.add("r.status = $%d", string(*q.Status))
	}
	if q.ProductID != nil {
		w.add("r.product_id = $%d", *q.ProductID)
	}
	if q.UserID != nil {
		w.add("r.user_id = $%d", *q.UserID)
	}
	return w
}

var reviewSortColumns = map[domain.ReviewSort]string{
	domain.ReviewSortCreatedAt:    "r.created_at",
	domain.ReviewSortRating:       "r.rating",
	domain.ReviewSortHelpfulCount: "r.helpful_count",
}

func reviewOrderBy(q domain.ReviewQuery) string {
	col, ok := reviewSortColumns[q.Sort]
	if !ok {
		col = "r.created_at"
	}
	return orderBy(col, q.Order, "r.id")
}

func orderBy(col string, order domain.SortOrder, tieBreak string) string {
	dir := "DESC"
	if order == domain.SortAsc {
		dir = "ASC"
	}
	return fmt.Sprintf("ORDER BY %s %s, %s %s", col, dir, tieBreak, dir)
}
