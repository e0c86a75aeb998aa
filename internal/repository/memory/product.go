package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Pesokrava/product_directory/internal/domain"
)

func now() time.Time {
	return time.Now().UTC()
}

func visible(deletedAt *time.Time, scope domain.DeletedScope) bool {
	return deletedAt == nil || scope == domain.IncludeDeleted
}

type productRepo struct {
	s *Store
}

func (r *productRepo) Create(_ context.Context, p *domain.Product) error {
	defer r.s.lock()()
	st := r.s.db.st

	for _, existing := range st.products {
		if existing.Slug == p.Slug {
			return domain.Conflict("product with this name already exists")
		}
	}
	if _, ok := st.categories[p.CategoryID]; !ok {
		return domain.Invalid("referenced category does not exist")
	}
	if _, ok := st.users[p.SubmittedBy]; !ok {
		return domain.Invalid("referenced user does not exist")
	}

	p.ID = uuid.New()
	p.CreatedAt, p.UpdatedAt = now(), now()
	p.IsFeatured = false
	p.AverageRating = domain.Rating{}
	p.TotalReviews = 0
	p.DeletedAt = nil
	st.products[p.ID] = *p
	return nil
}

func (r *productRepo) GetByID(_ context.Context, id uuid.UUID, scope domain.DeletedScope) (*domain.Product, error) {
	defer r.s.lock()()
	p, ok := r.s.db.st.products[id]
	if !ok || !visible(p.DeletedAt, scope) {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (r *productRepo) GetBySlug(_ context.Context, slug string, scope domain.DeletedScope) (*domain.Product, error) {
	defer r.s.lock()()
	for _, p := range r.s.db.st.products {
		if p.Slug == slug && visible(p.DeletedAt, scope) {
			return &p, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *productRepo) SlugExists(_ context.Context, slug string) (bool, error) {
	defer r.s.lock()()
	for _, p := range r.s.db.st.products {
		if p.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (r *productRepo) Update(_ context.Context, p *domain.Product) error {
	defer r.s.lock()()
	st := r.s.db.st

	cur, ok := st.products[p.ID]
	if !ok || cur.DeletedAt != nil {
		return domain.ErrNotFound
	}
	if _, ok := st.categories[p.CategoryID]; !ok {
		return domain.Invalid("referenced category does not exist")
	}

	cur.Name = p.Name
	cur.Description = p.Description
	cur.ShortDescription = p.ShortDescription
	cur.Website = p.Website
	cur.Pricing = p.Pricing
	cur.CategoryID = p.CategoryID
	cur.Status = p.Status
	cur.UpdatedAt = now()
	st.products[p.ID] = cur
	p.UpdatedAt = cur.UpdatedAt
	return nil
}

func (r *productRepo) mutateLive(id uuid.UUID, fn func(p *domain.Product)) error {
	defer r.s.lock()()
	p, ok := r.s.db.st.products[id]
	if !ok || p.DeletedAt != nil {
		return domain.ErrNotFound
	}
	fn(&p)
	r.s.db.st.products[id] = p
	return nil
}

func (r *productRepo) SetStatus(_ context.Context, id uuid.UUID, status domain.ProductStatus) error {
	return r.mutateLive(id, func(p *domain.Product) {
		p.Status = status
		p.UpdatedAt = now()
	})
}

func (r *productRepo) SetFeatured(_ context.Context, id uuid.UUID, featured bool) error {
	return r.mutateLive(id, func(p *domain.Product) {
		p.IsFeatured = featured
		p.UpdatedAt = now()
	})
}

func (r *productRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	return r.mutateLive(id, func(p *domain.Product) {
		t := now()
		p.DeletedAt = &t
	})
}

func (r *productRepo) Restore(_ context.Context, id uuid.UUID) error {
	defer r.s.lock()()
	p, ok := r.s.db.st.products[id]
	if !ok || p.DeletedAt == nil {
		return domain.ErrNotFound
	}
	p.DeletedAt = nil
	p.UpdatedAt = now()
	r.s.db.st.products[id] = p
	return nil
}

func (r *productRepo) matches(p domain.Product, q domain.ProductQuery) bool {
	st := r.s.db.st
	if !visible(p.DeletedAt, q.Deleted) {
		return false
	}
	if q.Status != nil && p.Status != *q.Status {
		return false
	}
	if q.Search != "" {
		needle := strings.ToLower(q.Search)
		if !strings.Contains(strings.ToLower(p.Name), needle) &&
			!strings.Contains(strings.ToLower(p.Description), needle) {
			return false
		}
	}
	if q.CategoryID != nil && p.CategoryID != *q.CategoryID {
		return false
	}
	if q.CategoryID == nil && q.CategorySlug != "" {
		c, ok := st.categories[p.CategoryID]
		if !ok || c.Slug != q.CategorySlug {
			return false
		}
	}
	if q.Pricing != "" {
		if p.Pricing == nil || !strings.Contains(strings.ToLower(*p.Pricing), strings.ToLower(q.Pricing)) {
			return false
		}
	}
	if q.FeaturedOnly && !p.IsFeatured {
		return false
	}
	if q.SubmittedBy != nil && p.SubmittedBy != *q.SubmittedBy {
		return false
	}
	return true
}

func (r *productRepo) List(_ context.Context, q domain.ProductQuery) ([]*domain.ProductListing, int, error) {
	defer r.s.lock()()
	st := r.s.db.st

	var matched []domain.Product
	for _, p := range st.products {
		if r.matches(p, q) {
			matched = append(matched, p)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		return lessProduct(matched[i], matched[j], q.Sort, q.Order)
	})

	page := paginate(matched, q.Offset(), q.PageSize)
	out := make([]*domain.ProductListing, 0, len(page))
	for _, p := range page {
		l := &domain.ProductListing{Product: p}
		if c, ok := st.categories[p.CategoryID]; ok {
			l.CategoryName, l.CategorySlug = strPtr(c.Name), strPtr(c.Slug)
		}
		if u, ok := st.users[p.SubmittedBy]; ok {
			l.SubmitterName = u.Name
		}
		if img, ok := primaryImage(st.images[p.ID]); ok {
			l.PrimaryImage = strPtr(img.URL)
		}
		out = append(out, l)
	}
	return out, len(matched), nil
}

func (r *productRepo) CountByStatus(_ context.Context, q domain.ProductQuery) (domain.StatusCounts, error) {
	defer r.s.lock()()
	q = q.WithoutStatus()

	var counts domain.StatusCounts
	for _, p := range r.s.db.st.products {
		if r.matches(p, q) {
			counts.Add(string(p.Status))
		}
	}
	return counts, nil
}

func (r *productRepo) AddImages(_ context.Context, productID uuid.UUID, images []domain.ProductImage) error {
	defer r.s.lock()()
	st := r.s.db.st
	if _, ok := st.products[productID]; !ok {
		return domain.Invalid("referenced product does not exist")
	}
	for i := range images {
		images[i].ID = uuid.New()
		images[i].ProductID = productID
		images[i].CreatedAt = now()
		st.images[productID] = append(st.images[productID], images[i])
	}
	return nil
}

func (r *productRepo) Images(_ context.Context, productID uuid.UUID) ([]domain.ProductImage, error) {
	defer r.s.lock()()
	images := append([]domain.ProductImage{}, r.s.db.st.images[productID]...)
	sort.SliceStable(images, func(i, j int) bool { return images[i].Position < images[j].Position })
	return images, nil
}

func (r *productRepo) SetTags(_ context.Context, productID uuid.UUID, tagIDs []uuid.UUID) error {
	defer r.s.lock()()
	st := r.s.db.st
	seen := map[uuid.UUID]bool{}
	ids := make([]uuid.UUID, 0, len(tagIDs))
	for _, id := range tagIDs {
		if _, ok := st.tags[id]; !ok {
			return domain.Invalid("referenced tag does not exist")
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	st.productTags[productID] = ids
	return nil
}

func (r *productRepo) Tags(_ context.Context, productID uuid.UUID) ([]domain.Tag, error) {
	defer r.s.lock()()
	st := r.s.db.st
	tags := []domain.Tag{}
	for _, id := range st.productTags[productID] {
		if t, ok := st.tags[id]; ok {
			tags = append(tags, t)
		}
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i].Name < tags[j].Name })
	return tags, nil
}

func lessProduct(a, b domain.Product, by domain.ProductSort, order domain.SortOrder) bool {
	var cmp int
	switch by {
	case domain.ProductSortName:
		cmp = strings.Compare(a.Name, b.Name)
	case domain.ProductSortRating:
		cmp = a.AverageRating.Cmp(b.AverageRating.Decimal)
	case domain.ProductSortTotalReviews:
		cmp = compareInt(a.TotalReviews, b.TotalReviews)
	default:
		cmp = compareTime(a.CreatedAt, b.CreatedAt)
	}
	if cmp == 0 {
		cmp = strings.Compare(a.ID.String(), b.ID.String())
	}
	if order == domain.SortAsc {
		return cmp < 0
	}
	return cmp > 0
}

func primaryImage(images []domain.ProductImage) (domain.ProductImage, bool) {
	if len(images) == 0 {
		return domain.ProductImage{}, false
	}
	best := images[0]
	for _, img := range images[1:] {
		if img.IsPrimary && !best.IsPrimary || img.IsPrimary == best.IsPrimary && img.Position < best.Position {
			best = img
		}
	}
	return best, true
}

func paginate[T any](items []T, offset, size int) []T {
	if offset < 0 || size <= 0 || offset >= len(items) {
		return nil
	}
	end := offset + size
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareTime(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	}
	return 0
}

func strPtr(s string) *string {
	return &s
}
