package catalog

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Pesokrava/product_directory/internal/domain"
	"github.com/Pesokrava/product_directory/internal/pkg/logger"
	"github.com/Pesokrava/product_directory/internal/repository/cache"
)

// Ranking sizes of the stats report
const (
	topRatedMinReviews = 2
	rankingLimit       = 5
	trendMonths        = 6
)

// Service serves reference data and platform statistics
type Service struct {
	store  domain.Store
	cache  cache.Cache
	logger *logger.Logger
	now    func() time.Time
}

// NewService creates a new catalog service
func NewService(store domain.Store, cache cache.Cache, log *logger.Logger) *Service {
	return &Service{
		store:  store,
		cache:  cache,
		logger: log,
		now:    time.Now,
	}
}

// Categories lists categories with their approved product counts
func (s *Service) Categories(ctx context.Context) ([]domain.CategoryWithCount, error) {
	categories, err := s.store.Categories().ListWithCounts(ctx)
	if err != nil {
		s.logger.Error("Failed to list categories", err)
		return nil, err
	}
	return categories, nil
}

// Tags lists tags with their usage counts
func (s *Service) Tags(ctx context.Context) ([]domain.TagWithUsage, error) {
	tags, err := s.store.Tags().ListWithUsage(ctx)
	if err != nil {
		s.logger.Error("Failed to list tags", err)
		return nil, err
	}
	return tags, nil
}

// Me returns the actor's user record
func (s *Service) Me(ctx context.Context, actor *domain.Actor) (*domain.User, error) {
	if err := domain.RequireActor(actor); err != nil {
		return nil, err
	}
	user, err := s.store.Users().GetByID(ctx, actor.UserID)
	if err != nil {
		if domain.ErrorCode(err) == domain.CodeInternal {
			s.logger.Error("Failed to get user", err)
		}
		return nil, err
	}
	return user, nil
}

// Stats builds the platform statistics report. The report queries run concurrently.
func (s *Service) Stats(ctx context.Context) (*domain.Stats, error) {
	if cached, err := s.cache.GetStats(ctx); err == nil {
		return cached, nil
	}
	epoch, epochErr := s.cache.Epoch(ctx)

	stats := &domain.Stats{}
	since := monthStart(s.now().UTC()).AddDate(0, -(trendMonths - 1), 0)
	repo := s.store.Stats()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stats.Overview, err = repo.Overview(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		stats.TopRated, err = repo.TopRated(gctx, topRatedMinReviews, rankingLimit)
		return err
	})
	g.Go(func() error {
		var err error
		stats.MostReviewed, err = repo.MostReviewed(gctx, rankingLimit)
		return err
	})
	g.Go(func() error {
		var err error
		stats.CategoryDistribution, err = repo.CategoryDistribution(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		stats.RatingDistribution, err = repo.RatingDistribution(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		stats.MonthlyReviews, err = repo.MonthlyReviews(gctx, since)
		return err
	})

	if err := g.Wait(); err != nil {
		s.logger.Error("Failed to build stats", err)
		return nil, err
	}

	stats.RatingDistribution = fillRatings(stats.RatingDistribution)

	if epochErr != nil {
		s.logger.Warnf("Skipping stats cache fill: %v", epochErr)
	} else if err := s.cache.SetStats(ctx, epoch, stats); err != nil {
		s.logger.Warnf("Failed to cache stats: %v", err)
	}
	return stats, nil
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// fillRatings returns one bucket per rating from 5 down to 1
func fillRatings(buckets []domain.RatingBucket) []domain.RatingBucket {
	counts := make(map[int]int, len(buckets))
	for _, b := range buckets {
		counts[b.Rating] = b.Count
	}
	out := make([]domain.RatingBucket, 0, 5)
	for r := 5; r >= 1; r-- {
		out = append(out, domain.RatingBucket{Rating: r, Count: counts[r]})
	}
	return out
}
