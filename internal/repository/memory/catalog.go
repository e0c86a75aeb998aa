package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/Pesokrava/product_directory/internal/domain"
)

type categoryRepo struct {
	s *Store
}

func (r *categoryRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Category, error) {
	defer r.s.lock()()
	c, ok := r.s.db.st.categories[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &c, nil
}

func (r *categoryRepo) GetBySlug(_ context.Context, slug string) (*domain.Category, error) {
	defer r.s.lock()()
	for _, c := range r.s.db.st.categories {
		if c.Slug == slug {
			return &c, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *categoryRepo) ListWithCounts(_ context.Context) ([]domain.CategoryWithCount, error) {
	defer r.s.lock()()
	st := r.s.db.st

	counts := map[uuid.UUID]int{}
	for _, p := range st.products {
		if p.DeletedAt == nil && p.Status == domain.ProductApproved {
			counts[p.CategoryID]++
		}
	}

	out := make([]domain.CategoryWithCount, 0, len(st.categories))
	for id, c := range st.categories {
		out = append(out, domain.CategoryWithCount{Category: c, ProductCount: counts[id]})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type tagRepo struct {
	s *Store
}

func (r *tagRepo) ListWithUsage(_ context.Context) ([]domain.TagWithUsage, error) {
	defer r.s.lock()()
	st := r.s.db.st

	usage := map[uuid.UUID]int{}
	for productID, tagIDs := range st.productTags {
		if p, ok := st.products[productID]; !ok || p.DeletedAt != nil {
			continue
		}
		for _, id := range tagIDs {
			usage[id]++
		}
	}

	out := make([]domain.TagWithUsage, 0, len(st.tags))
	for id, t := range st.tags {
		out = append(out, domain.TagWithUsage{Tag: t, UsageCount: usage[id]})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *tagRepo) CountExisting(_ context.Context, ids []uuid.UUID) (int, error) {
	defer r.s.lock()()
	seen := map[uuid.UUID]bool{}
	n := 0
	for _, id := range ids {
		if _, ok := r.s.db.st.tags[id]; ok && !seen[id] {
			seen[id] = true
			n++
		}
	}
	return n, nil
}

type userRepo struct {
	s *Store
}

func (r *userRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	defer r.s.lock()()
	u, ok := r.s.db.st.users[id]
	if !ok || u.DeletedAt != nil {
		return nil, domain.ErrNotFound
	}
	return &u, nil
}

func (r *userRepo) Count(_ context.Context) (int, error) {
	defer r.s.lock()()
	n := 0
	for _, u := range r.s.db.st.users {
		if u.DeletedAt == nil {
			n++
		}
	}
	return n, nil
}

type statsRepo struct {
	s *Store
}

func (r *statsRepo) liveReviews() []domain.Review {
	st := r.s.db.st
	var out []domain.Review
	for _, rv := range st.reviews {
		if rv.DeletedAt != nil {
			continue
		}
		if p, ok := st.products[rv.ProductID]; !ok || p.DeletedAt != nil {
			continue
		}
		out = append(out, rv)
	}
	return out
}

func (r *statsRepo) Overview(_ context.Context) (domain.Overview, error) {
	defer r.s.lock()()
	st := r.s.db.st

	var o domain.Overview
	for _, p := range st.products {
		if p.DeletedAt != nil {
			continue
		}
		o.TotalProducts++
		switch p.Status {
		case domain.ProductApproved:
			o.ApprovedProducts++
		case domain.ProductPending:
			o.PendingProducts++
		}
	}
	for _, rv := range r.liveReviews() {
		if rv.Status == domain.ReviewApproved {
			o.TotalReviews++
		}
	}
	for _, u := range st.users {
		if u.DeletedAt == nil {
			o.TotalUsers++
		}
	}
	o.TotalCategories = len(st.categories)
	return o, nil
}

func (r *statsRepo) ranked(filter func(domain.Product) bool, less func(a, b domain.Product) bool, limit int) []domain.RankedProduct {
	var matched []domain.Product
	for _, p := range r.s.db.st.products {
		if p.DeletedAt == nil && p.Status == domain.ProductApproved && filter(p) {
			matched = append(matched, p)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return less(matched[i], matched[j]) })
	matched = paginate(matched, 0, limit)

	out := make([]domain.RankedProduct, 0, len(matched))
	for _, p := range matched {
		out = append(out, domain.RankedProduct{
			ID:            p.ID,
			Name:          p.Name,
			Slug:          p.Slug,
			AverageRating: p.AverageRating,
			TotalReviews:  p.TotalReviews,
		})
	}
	return out
}

func (r *statsRepo) TopRated(_ context.Context, minReviews, limit int) ([]domain.RankedProduct, error) {
	defer r.s.lock()()
	return r.ranked(
		func(p domain.Product) bool { return p.TotalReviews >= minReviews },
		func(a, b domain.Product) bool {
			if c := a.AverageRating.Cmp(b.AverageRating.Decimal); c != 0 {
				return c > 0
			}
			if a.TotalReviews != b.TotalReviews {
				return a.TotalReviews > b.TotalReviews
			}
			return a.ID.String() < b.ID.String()
		},
		limit,
	), nil
}

func (r *statsRepo) MostReviewed(_ context.Context, limit int) ([]domain.RankedProduct, error) {
	defer r.s.lock()()
	return r.ranked(
		func(p domain.Product) bool { return p.TotalReviews > 0 },
		func(a, b domain.Product) bool {
			if a.TotalReviews != b.TotalReviews {
				return a.TotalReviews > b.TotalReviews
			}
			if c := a.AverageRating.Cmp(b.AverageRating.Decimal); c != 0 {
				return c > 0
			}
			return a.ID.String() < b.ID.String()
		},
		limit,
	), nil
}

func (r *statsRepo) CategoryDistribution(_ context.Context) ([]domain.CategoryShare, error) {
	defer r.s.lock()()
	st := r.s.db.st

	counts := map[uuid.UUID]int{}
	for _, p := range st.products {
		if p.DeletedAt == nil && p.Status == domain.ProductApproved {
			counts[p.CategoryID]++
		}
	}

	out := []domain.CategoryShare{}
	for id, n := range counts {
		if c, ok := st.categories[id]; ok {
			out = append(out, domain.CategoryShare{Name: c.Name, Count: n})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (r *statsRepo) RatingDistribution(_ context.Context) ([]domain.RatingBucket, error) {
	defer r.s.lock()()
	counts := map[int]int{}
	for _, rv := range r.liveReviews() {
		if rv.Status == domain.ReviewApproved {
			counts[rv.Rating]++
		}
	}

	out := []domain.RatingBucket{}
	for rating := 1; rating <= 5; rating++ {
		if n := counts[rating]; n > 0 {
			out = append(out, domain.RatingBucket{Rating: rating, Count: n})
		}
	}
	return out, nil
}

func (r *statsRepo) MonthlyReviews(_ context.Context, since time.Time) ([]domain.MonthlyCount, error) {
	defer r.s.lock()()
	counts := map[time.Time]int{}
	for _, rv := range r.liveReviews() {
		if rv.CreatedAt.Before(since) {
			continue
		}
		t := rv.CreatedAt.UTC()
		month := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
		counts[month]++
	}

	out := make([]domain.MonthlyCount, 0, len(counts))
	for month, n := range counts {
		out = append(out, domain.MonthlyCount{Month: month, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month.Before(out[j].Month) })
	return out, nil
}
