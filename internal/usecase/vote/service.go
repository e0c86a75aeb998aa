package vote

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/Pesokrava/product_directory/internal/domain"
	"github.com/Pesokrava/product_directory/internal/pkg/logger"
	"github.com/Pesokrava/product_directory/internal/pkg/metrics"
	"github.com/Pesokrava/product_directory/internal/repository/cache"
	"github.com/Pesokrava/product_directory/internal/usecase/aggregate"
)

// Vote outcomes
const (
	outcomeInserted  = "inserted"
	outcomeFlipped   = "flipped"
	outcomeUnchanged = "unchanged"
)

// Service tallies helpfulness votes
type Service struct {
	store     domain.Store
	cache     cache.Cache
	publisher domain.EventPublisher
	logger    *logger.Logger
}

// NewService creates a new vote service
func NewService(store domain.Store, cache cache.Cache, publisher domain.EventPublisher, log *logger.Logger) *Service {
	return &Service{
		store:     store,
		cache:     cache,
		publisher: publisher,
		logger:    log,
	}
}

// CastVote records the actor's vote on a review and returns the review's new helpful count.
// A repeated identical vote changes nothing; an opposite vote flips the existing row.
func (s *Service) CastVote(ctx context.Context, actor *domain.Actor, reviewID uuid.UUID, isHelpful bool) (int, error) {
	if err := domain.RequireActor(actor); err != nil {
		return 0, err
	}

	var (
		review  *domain.Review
		count   int
		outcome string
	)
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx domain.Store) error {
		if err := tx.Aggregates().LockReview(ctx, reviewID); err != nil {
			return err
		}

		var err error
		review, err = tx.Reviews().GetByID(ctx, reviewID, domain.ExcludeDeleted)
		if err != nil {
			return err
		}
		if _, err := tx.Products().GetByID(ctx, review.ProductID, domain.ExcludeDeleted); err != nil {
			return err
		}

		existing, err := tx.Votes().Find(ctx, reviewID, actor.UserID)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			outcome = outcomeInserted
			if err := tx.Votes().Insert(ctx, &domain.ReviewVote{
				ReviewID:  reviewID,
				UserID:    actor.UserID,
				IsHelpful: isHelpful,
			}); err != nil {
				return err
			}
		case err != nil:
			return err
		case existing.IsHelpful != isHelpful:
			outcome = outcomeFlipped
			if err := tx.Votes().SetHelpful(ctx, existing.ID, isHelpful); err != nil {
				return err
			}
		default:
			outcome = outcomeUnchanged
		}

		count, err = aggregate.RecomputeHelpfulCount(ctx, tx, reviewID)
		return err
	})
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.Error("Failed to cast vote", err)
		}
		return 0, err
	}

	metrics.VotesCast.WithLabelValues(outcome).Inc()
	aggregate.RecordRecompute(aggregate.KindHelpfulCount)

	if outcome != outcomeUnchanged {
		if err := s.cache.InvalidateProduct(ctx, review.ProductID); err != nil {
			s.logger.Warnf("Failed to invalidate cache for product %s: %v", review.ProductID, err)
		}

		event := domain.NewEvent(domain.EventReviewVoted, actor, review.ProductID)
		event.ReviewID = &review.ID
		event.HelpfulCount = &count
		s.publishEvent(event)
	}

	s.logger.WithFields(map[string]any{
		"review_id":     reviewID,
		"helpful_count": count,
		"outcome":       outcome,
	}).Debug("Vote recorded")

	return count, nil
}

// GetVote returns the actor's vote on a review. Anonymous callers have not voted.
func (s *Service) GetVote(ctx context.Context, actor *domain.Actor, reviewID uuid.UUID) (domain.VoteState, error) {
	review, err := s.store.Reviews().GetByID(ctx, reviewID, domain.ExcludeDeleted)
	if err != nil {
		return domain.VoteState{}, err
	}
	if _, err := s.store.Products().GetByID(ctx, review.ProductID, domain.ExcludeDeleted); err != nil {
		return domain.VoteState{}, err
	}
	if actor == nil {
		return domain.VoteState{}, nil
	}

	v, err := s.store.Votes().Find(ctx, reviewID, actor.UserID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.VoteState{}, nil
	}
	if err != nil {
		s.logger.Error("Failed to get vote", err)
		return domain.VoteState{}, err
	}

	helpful := v.IsHelpful
	return domain.VoteState{Voted: true, IsHelpful: &helpful}, nil
}

// publishEvent publishes a vote event (non-blocking)
func (s *Service) publishEvent(event domain.Event) {
	go func() {
		if err := s.publisher.Publish(context.Background(), event); err != nil {
			s.logger.Errorf(err, "Failed to publish %s event", event.Type)
		}
	}()
}
