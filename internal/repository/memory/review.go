package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/Pesokrava/product_directory/internal/domain"
)

type reviewRepo struct {
	s *Store
}

func (r *reviewRepo) Create(_ context.Context, rv *domain.Review) error {
	defer r.s.lock()()
	st := r.s.db.st

	if _, ok := st.products[rv.ProductID]; !ok {
		return domain.Invalid("referenced product does not exist")
	}
	if _, ok := st.users[rv.UserID]; !ok {
		return domain.Invalid("referenced user does not exist")
	}
	for _, existing := range st.reviews {
		if existing.ProductID == rv.ProductID && existing.UserID == rv.UserID && existing.DeletedAt == nil {
			return domain.Conflict("review for this product already exists")
		}
	}

	rv.ID = uuid.New()
	rv.HelpfulCount = 0
	rv.CreatedAt, rv.UpdatedAt = now(), now()
	rv.DeletedAt = nil
	st.reviews[rv.ID] = *rv
	return nil
}

func (r *reviewRepo) GetByID(_ context.Context, id uuid.UUID, scope domain.DeletedScope) (*domain.Review, error) {
	defer r.s.lock()()
	rv, ok := r.s.db.st.reviews[id]
	if !ok || !visible(rv.DeletedAt, scope) {
		return nil, domain.ErrNotFound
	}
	return &rv, nil
}

func (r *reviewRepo) FindLive(_ context.Context, productID, userID uuid.UUID) (*domain.Review, error) {
	defer r.s.lock()()
	for _, rv := range r.s.db.st.reviews {
		if rv.ProductID == productID && rv.UserID == userID && rv.DeletedAt == nil {
			return &rv, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *reviewRepo) Update(_ context.Context, rv *domain.Review) error {
	defer r.s.lock()()
	cur, ok := r.s.db.st.reviews[rv.ID]
	if !ok || cur.DeletedAt != nil {
		return domain.ErrNotFound
	}
	cur.Rating = rv.Rating
	cur.Title = rv.Title
	cur.Content = rv.Content
	cur.Pros = append(domain.StringList(nil), rv.Pros...)
	cur.Cons = append(domain.StringList(nil), rv.Cons...)
	cur.Status = rv.Status
	cur.UpdatedAt = now()
	r.s.db.st.reviews[rv.ID] = cur
	rv.UpdatedAt = cur.UpdatedAt
	return nil
}

func (r *reviewRepo) SetStatus(_ context.Context, id uuid.UUID, status domain.ReviewStatus) error {
	defer r.s.lock()()
	rv, ok := r.s.db.st.reviews[id]
	if !ok || rv.DeletedAt != nil {
		return domain.ErrNotFound
	}
	rv.Status = status
	rv.UpdatedAt = now()
	r.s.db.st.reviews[id] = rv
	return nil
}

func (r *reviewRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	defer r.s.lock()()
	rv, ok := r.s.db.st.reviews[id]
	if !ok || rv.DeletedAt != nil {
		return domain.ErrNotFound
	}
	t := now()
	rv.DeletedAt = &t
	r.s.db.st.reviews[id] = rv
	return nil
}

func (r *reviewRepo) matches(rv domain.Review, q domain.ReviewQuery) bool {
	if !visible(rv.DeletedAt, q.Deleted) {
		return false
	}
	p, ok := r.s.db.st.products[rv.ProductID]
	if !ok || p.DeletedAt != nil {
		return false
	}
	if q.Status != nil && rv.Status != *q.Status {
		return false
	}
	if q.ProductID != nil && rv.ProductID != *q.ProductID {
		return false
	}
	if q.UserID != nil && rv.UserID != *q.UserID {
		return false
	}
	return true
}

func (r *reviewRepo) List(_ context.Context, q domain.ReviewQuery) ([]*domain.ReviewListing, int, error) {
	defer r.s.lock()()
	st := r.s.db.st

	var matched []domain.Review
	for _, rv := range st.reviews {
		if r.matches(rv, q) {
			matched = append(matched, rv)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		return lessReview(matched[i], matched[j], q.Sort, q.Order)
	})

	page := paginate(matched, q.Offset(), q.PageSize)
	out := make([]*domain.ReviewListing, 0, len(page))
	for _, rv := range page {
		l := &domain.ReviewListing{Review: rv}
		if u, ok := st.users[rv.UserID]; ok {
			l.UserName, l.UserAvatar = u.Name, u.Avatar
		}
		p := st.products[rv.ProductID]
		l.ProductName, l.ProductSlug = p.Name, p.Slug
		out = append(out, l)
	}
	return out, len(matched), nil
}

func (r *reviewRepo) CountByStatus(_ context.Context, q domain.ReviewQuery) (domain.StatusCounts, error) {
	defer r.s.lock()()
	q = q.WithoutStatus()

	var counts domain.StatusCounts
	for _, rv := range r.s.db.st.reviews {
		if r.matches(rv, q) {
			counts.Add(string(rv.Status))
		}
	}
	return counts, nil
}

func lessReview(a, b domain.Review, by domain.ReviewSort, order domain.SortOrder) bool {
	var cmp int
	switch by {
	case domain.ReviewSortRating:
		cmp = compareInt(a.Rating, b.Rating)
	case domain.ReviewSortHelpfulCount:
		cmp = compareInt(a.HelpfulCount, b.HelpfulCount)
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

type voteRepo struct {
	s *Store
}

func (r *voteRepo) Find(_ context.Context, reviewID, userID uuid.UUID) (*domain.ReviewVote, error) {
	defer r.s.lock()()
	for _, v := range r.s.db.st.votes {
		if v.ReviewID == reviewID && v.UserID == userID {
			return &v, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *voteRepo) Insert(_ context.Context, vote *domain.ReviewVote) error {
	defer r.s.lock()()
	st := r.s.db.st
	if _, ok := st.reviews[vote.ReviewID]; !ok {
		return domain.Invalid("referenced review does not exist")
	}
	for _, v := range st.votes {
		if v.ReviewID == vote.ReviewID && v.UserID == vote.UserID {
			return domain.Conflict("vote for this review already exists")
		}
	}
	vote.ID = uuid.New()
	vote.CreatedAt, vote.UpdatedAt = now(), now()
	st.votes[vote.ID] = *vote
	return nil
}

func (r *voteRepo) SetHelpful(_ context.Context, id uuid.UUID, isHelpful bool) error {
	defer r.s.lock()()
	v, ok := r.s.db.st.votes[id]
	if !ok {
		return domain.ErrNotFound
	}
	v.IsHelpful = isHelpful
	v.UpdatedAt = now()
	r.s.db.st.votes[id] = v
	return nil
}
