package memory

import (
	"context"

	"github.com/google/uuid"

	"github.com/Pesokrava/product_directory/internal/domain"
)

// aggregateStore writes derived columns. Row locks are implied by the store mutex.
type aggregateStore struct {
	s *Store
}

func (a *aggregateStore) LockProduct(_ context.Context, productID uuid.UUID) error {
	defer a.s.lock()()
	if _, ok := a.s.db.st.products[productID]; !ok {
		return domain.ErrNotFound
	}
	return nil
}

func (a *aggregateStore) RatingStats(_ context.Context, productID uuid.UUID) (domain.RatingStats, error) {
	defer a.s.lock()()
	var stats domain.RatingStats
	for _, rv := range a.s.db.st.reviews {
		if rv.ProductID == productID && rv.Counted() {
			stats.Sum += int64(rv.Rating)
			stats.Count++
		}
	}
	return stats, nil
}

func (a *aggregateStore) SetProductRating(_ context.Context, productID uuid.UUID, avg domain.Rating, total int) error {
	defer a.s.lock()()
	p, ok := a.s.db.st.products[productID]
	if !ok {
		return domain.ErrNotFound
	}
	p.AverageRating = avg
	p.TotalReviews = total
	p.UpdatedAt = now()
	a.s.db.st.products[productID] = p
	return nil
}

func (a *aggregateStore) LockReview(_ context.Context, reviewID uuid.UUID) error {
	defer a.s.lock()()
	if _, ok := a.s.db.st.reviews[reviewID]; !ok {
		return domain.ErrNotFound
	}
	return nil
}

func (a *aggregateStore) CountHelpfulVotes(_ context.Context, reviewID uuid.UUID) (int, error) {
	defer a.s.lock()()
	n := 0
	for _, v := range a.s.db.st.votes {
		if v.ReviewID == reviewID && v.IsHelpful {
			n++
		}
	}
	return n, nil
}

func (a *aggregateStore) SetHelpfulCount(_ context.Context, reviewID uuid.UUID, count int) error {
	defer a.s.lock()()
	rv, ok := a.s.db.st.reviews[reviewID]
	if !ok {
		return domain.ErrNotFound
	}
	rv.HelpfulCount = count
	a.s.db.st.reviews[reviewID] = rv
	return nil
}
