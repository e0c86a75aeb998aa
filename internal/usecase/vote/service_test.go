package vote

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Pesokrava/product_directory/internal/domain"
	"github.com/Pesokrava/product_directory/internal/pkg/logger"
	"github.com/Pesokrava/product_directory/internal/repository/cache"
	"github.com/Pesokrava/product_directory/internal/repository/memory"
)

// MockEventPublisher is a mock implementation of domain.EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, event domain.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

type fixture struct {
	store   *memory.Store
	service *Service
	review  *domain.Review
	voter   *domain.Actor
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	s := memory.NewStore()
	owner := s.AddUser(domain.User{Email: "owner@example.com"})
	voter := s.AddUser(domain.User{Email: "voter@example.com"})
	category := s.AddCategory(domain.Category{Name: "Writing", Slug: "writing"})

	p := &domain.Product{Name: "Foo", Slug: "foo", Description: "d", CategoryID: category.ID,
		SubmittedBy: owner.ID, Status: domain.ProductApproved}
	require.NoError(t, s.Products().Create(ctx, p))

	r := &domain.Review{ProductID: p.ID, UserID: owner.ID, Rating: 4, Content: "good", Status: domain.ReviewApproved}
	require.NoError(t, s.Reviews().Create(ctx, r))

	publisher := new(MockEventPublisher)
	publisher.On("Publish", mock.Anything, mock.MatchedBy(func(e domain.Event) bool { return e.Type == domain.EventReviewVoted })).Return(nil).Maybe()

	return fixture{
		store:   s,
		service: NewService(s, cache.Noop{}, publisher, logger.Nop()),
		review:  r,
		voter:   &domain.Actor{UserID: voter.ID, Role: domain.RoleUser},
	}
}

func TestCastVote_FlipUpdatesInPlace(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	count, err := f.service.CastVote(ctx, f.voter, f.review.ID, true)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	count, err = f.service.CastVote(ctx, f.voter, f.review.ID, false)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	state, err := f.service.GetVote(ctx, f.voter, f.review.ID)
	require.NoError(t, err)
	assert.True(t, state.Voted)
	require.NotNil(t, state.IsHelpful)
	assert.False(t, *state.IsHelpful)

	stored, err := f.store.Reviews().GetByID(ctx, f.review.ID, domain.ExcludeDeleted)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.HelpfulCount)
}

func TestCastVote_RepeatIsNoop(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		count, err := f.service.CastVote(ctx, f.voter, f.review.ID, true)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	}
}

func TestCastVote_CountsAcrossVoters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, helpful := range []bool{true, true, false, true} {
		u := f.store.AddUser(domain.User{Email: uuid.NewString() + "@example.com"})
		_, err := f.service.CastVote(ctx, &domain.Actor{UserID: u.ID, Role: domain.RoleUser}, f.review.ID, helpful)
		require.NoError(t, err)
	}

	count, err := f.service.CastVote(ctx, f.voter, f.review.ID, false)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestCastVote_Anonymous(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.CastVote(context.Background(), nil, f.review.ID, true)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestCastVote_DeletedReview(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.Reviews().SoftDelete(ctx, f.review.ID))

	_, err := f.service.CastVote(ctx, f.voter, f.review.ID, true)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGetVote_NotVoted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	state, err := f.service.GetVote(ctx, nil, f.review.ID)
	require.NoError(t, err)
	assert.False(t, state.Voted)

	state, err = f.service.GetVote(ctx, f.voter, f.review.ID)
	require.NoError(t, err)
	assert.False(t, state.Voted)
	assert.Nil(t, state.IsHelpful)
}

func TestGetVote_UnknownReview(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.GetVote(context.Background(), f.voter, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
