package aggregate

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pesokrava/product_directory/internal/domain"
	"github.com/Pesokrava/product_directory/internal/pkg/metrics"
	"github.com/Pesokrava/product_directory/internal/repository/memory"
)

type fixture struct {
	store    *memory.Store
	product  *domain.Product
	category domain.Category
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	s := memory.NewStore()
	owner := s.AddUser(domain.User{Email: "owner@example.com"})
	category := s.AddCategory(domain.Category{Name: "Writing", Slug: "writing"})

	p := &domain.Product{
		Name:        "Foo",
		Slug:        "foo",
		Description: "Foo writes",
		CategoryID:  category.ID,
		SubmittedBy: owner.ID,
		Status:      domain.ProductApproved,
	}
	require.NoError(t, s.Products().Create(ctx, p))
	return fixture{store: s, product: p, category: category}
}

func (f fixture) review(t *testing.T, rating int, status domain.ReviewStatus) *domain.Review {
	t.Helper()
	author := f.store.AddUser(domain.User{Email: uuid.NewString() + "@example.com"})
	r := &domain.Review{
		ProductID: f.product.ID,
		UserID:    author.ID,
		Rating:    rating,
		Content:   "review",
		Status:    status,
	}
	require.NoError(t, f.store.Reviews().Create(context.Background(), r))
	return r
}

func (f fixture) stored(t *testing.T) *domain.Product {
	t.Helper()
	p, err := f.store.Products().GetByID(context.Background(), f.product.ID, domain.IncludeDeleted)
	require.NoError(t, err)
	return p
}

func TestAverage(t *testing.T) {
	assert.Equal(t, "0.00", Average(domain.RatingStats{}).StringFixed(2))
	assert.Equal(t, "4.00", Average(domain.RatingStats{Sum: 12, Count: 3}).StringFixed(2))
	assert.Equal(t, "4.67", Average(domain.RatingStats{Sum: 14, Count: 3}).StringFixed(2))
	assert.Equal(t, "1.33", Average(domain.RatingStats{Sum: 4, Count: 3}).StringFixed(2))
}

func TestRecomputeProductRating_Scenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.review(t, 5, domain.ReviewApproved)
	f.review(t, 4, domain.ReviewApproved)
	three := f.review(t, 3, domain.ReviewApproved)
	f.review(t, 1, domain.ReviewPending)

	got, err := RecomputeProductRating(ctx, f.store, f.product.ID)
	require.NoError(t, err)
	assert.Equal(t, "4.00", got.AverageRating.StringFixed(2))
	assert.Equal(t, 3, got.TotalReviews)

	require.NoError(t, f.store.Reviews().SoftDelete(ctx, three.ID))
	got, err = RecomputeProductRating(ctx, f.store, f.product.ID)
	require.NoError(t, err)
	assert.Equal(t, "4.50", got.AverageRating.StringFixed(2))
	assert.Equal(t, 2, got.TotalReviews)

	p := f.stored(t)
	assert.True(t, p.AverageRating.Equal(decimal.RequireFromString("4.5")))
	assert.Equal(t, 2, p.TotalReviews)
}

func TestRecomputeProductRating_Idempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.review(t, 2, domain.ReviewApproved)
	f.review(t, 5, domain.ReviewApproved)

	first, err := RecomputeProductRating(ctx, f.store, f.product.ID)
	require.NoError(t, err)
	second, err := RecomputeProductRating(ctx, f.store, f.product.ID)
	require.NoError(t, err)
	assert.Equal(t, first.TotalReviews, second.TotalReviews)
	assert.True(t, first.AverageRating.Equal(second.AverageRating.Decimal))
}

func TestRecomputeProductRating_NoReviews(t *testing.T) {
	f := newFixture(t)

	got, err := RecomputeProductRating(context.Background(), f.store, f.product.ID)
	require.NoError(t, err)
	assert.True(t, got.AverageRating.IsZero())
	assert.Equal(t, 0, got.TotalReviews)
}

func TestRecomputeProductRating_UnknownProduct(t *testing.T) {
	f := newFixture(t)

	_, err := RecomputeProductRating(context.Background(), f.store, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRecomputeHelpfulCount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.review(t, 4, domain.ReviewApproved)

	for _, helpful := range []bool{true, true, false} {
		voter := f.store.AddUser(domain.User{Email: uuid.NewString() + "@example.com"})
		require.NoError(t, f.store.Votes().Insert(ctx, &domain.ReviewVote{ReviewID: r.ID, UserID: voter.ID, IsHelpful: helpful}))
	}

	n, err := RecomputeHelpfulCount(ctx, f.store, r.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	stored, err := f.store.Reviews().GetByID(ctx, r.ID, domain.ExcludeDeleted)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.HelpfulCount)
}

func TestAuditProductRating(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.review(t, 5, domain.ReviewApproved)
	f.review(t, 3, domain.ReviewApproved)

	drifted, err := AuditProductRating(ctx, f.store, f.product.ID)
	require.NoError(t, err)
	assert.True(t, drifted)
	assert.Equal(t, 2, f.stored(t).TotalReviews)

	drifted, err = AuditProductRating(ctx, f.store, f.product.ID)
	require.NoError(t, err)
	assert.False(t, drifted)
}

func TestRecomputeProductRating_RollsBackWithCaller(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.review(t, 5, domain.ReviewApproved)
	recomputes := counterValue(t, metrics.AggregateRecomputes.WithLabelValues(KindProductRating))

	err := f.store.WithinTx(ctx, func(ctx context.Context, tx domain.Store) error {
		if _, err := RecomputeProductRating(ctx, tx, f.product.ID); err != nil {
			return err
		}
		return domain.ErrConflict
	})
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, 0, f.stored(t).TotalReviews)
	assert.Equal(t, recomputes, counterValue(t, metrics.AggregateRecomputes.WithLabelValues(KindProductRating)))
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}
