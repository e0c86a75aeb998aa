package review

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/Pesokrava/product_directory/internal/domain"
	"github.com/Pesokrava/product_directory/internal/pkg/logger"
	"github.com/Pesokrava/product_directory/internal/pkg/validator"
	"github.com/Pesokrava/product_directory/internal/repository/cache"
	"github.com/Pesokrava/product_directory/internal/usecase/aggregate"
	"github.com/Pesokrava/product_directory/internal/usecase/moderation"
)

// CreateInput holds the fields of a new review
type CreateInput struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Rating    int       `json:"rating" validate:"required,min=1,max=5"`
	Title     *string   `json:"title,omitempty" validate:"omitempty,max=200"`
	Content   string    `json:"content" validate:"notblank,max=5000"`
	Pros      []string  `json:"pros,omitempty" validate:"max=20,dive,notblank,max=200"`
	Cons      []string  `json:"cons,omitempty" validate:"max=20,dive,notblank,max=200"`
}

// UpdateInput replaces the author-owned fields of a review
type UpdateInput struct {
	Rating  int      `json:"rating" validate:"required,min=1,max=5"`
	Title   *string  `json:"title,omitempty" validate:"omitempty,max=200"`
	Content string   `json:"content" validate:"notblank,max=5000"`
	Pros    []string `json:"pros,omitempty" validate:"max=20,dive,notblank,max=200"`
	Cons    []string `json:"cons,omitempty" validate:"max=20,dive,notblank,max=200"`
}

// ListResult is one page of a review listing
type ListResult struct {
	Reviews []*domain.ReviewListing
	Page    domain.PageInfo
	Query   domain.ReviewQuery
	// Counts is only filled for admin listings
	Counts *domain.StatusCounts
}

// Service handles review business logic with caching and event publishing
type Service struct {
	store         domain.Store
	cache         cache.Cache
	publisher     domain.EventPublisher
	logger        *logger.Logger
	defaultStatus domain.ReviewStatus
}

// NewService creates a new review service. New and edited reviews take defaultStatus.
func NewService(
	store domain.Store,
	cache cache.Cache,
	publisher domain.EventPublisher,
	log *logger.Logger,
	defaultStatus domain.ReviewStatus,
) *Service {
	return &Service{
		store:         store,
		cache:         cache,
		publisher:     publisher,
		logger:        log,
		defaultStatus: defaultStatus,
	}
}

// Create adds the actor's review of an approved product and recomputes its rating.
// A user holds at most one live review per product.
func (s *Service) Create(ctx context.Context, actor *domain.Actor, in CreateInput) (*domain.Review, error) {
	if err := domain.RequireActor(actor); err != nil {
		return nil, err
	}
	if err := validator.Struct(in); err != nil {
		return nil, domain.Invalid("%s", err.Error())
	}

	review := &domain.Review{
		ProductID: in.ProductID,
		UserID:    actor.UserID,
		Rating:    in.Rating,
		Title:     in.Title,
		Content:   in.Content,
		Pros:      domain.StringList(in.Pros),
		Cons:      domain.StringList(in.Cons),
	}

	status, err := moderation.ReviewTransition(actor, review, moderation.ActionCreate, s.defaultStatus)
	if err != nil {
		return nil, err
	}
	review.Status = status

	var rating *aggregate.ProductRating
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx domain.Store) error {
		product, err := tx.Products().GetByID(ctx, in.ProductID, domain.ExcludeDeleted)
		if err != nil {
			return err
		}
		if product.Status != domain.ProductApproved {
			return domain.Conflict("product %s is not open for reviews", product.Slug)
		}

		if _, err := tx.Reviews().FindLive(ctx, in.ProductID, actor.UserID); err == nil {
			return domain.Conflict("you have already reviewed this product")
		} else if !errors.Is(err, domain.ErrNotFound) {
			return err
		}

		if err := tx.Reviews().Create(ctx, review); err != nil {
			return err
		}

		rating, err = s.recompute(ctx, tx, nil, review)
		return err
	})
	if err != nil {
		s.logFailure("Failed to create review", err)
		return nil, err
	}

	moderation.Record("review", moderation.ActionCreate, string(review.Status))
	s.afterCommit(ctx, review.ProductID, rating)
	s.publishEvent(s.reviewEvent(domain.EventReviewCreated, actor, review, rating))

	s.logger.WithFields(map[string]any{
		"review_id":  review.ID,
		"product_id": review.ProductID,
		"rating":     review.Rating,
	}).Info("Review created successfully")

	return review, nil
}

// Get returns a live review of a live product. Reviews that are not approved are
// visible to their author and to admins only.
func (s *Service) Get(ctx context.Context, actor *domain.Actor, id uuid.UUID) (*domain.Review, error) {
	var review *domain.Review
	err := s.store.ReadOnly(ctx, func(ctx context.Context, tx domain.Store) error {
		var err error
		review, err = loadLive(ctx, tx, id)
		if err != nil {
			return err
		}
		if review.Status != domain.ReviewApproved && !actor.Owns(review.UserID) && !actor.IsAdmin() {
			return domain.ErrNotFound
		}
		return nil
	})
	if err != nil {
		s.logFailure("Failed to get review", err)
		return nil, err
	}
	return review, nil
}

// List returns one page of the public review listing
func (s *Service) List(ctx context.Context, actor *domain.Actor, params domain.ReviewParams) (*ListResult, error) {
	q, err := domain.NormalizeReviewsPublic(params, actor)
	if err != nil {
		return nil, err
	}
	if q.ProductID != nil {
		if _, err := s.store.Products().GetByID(ctx, *q.ProductID, domain.ExcludeDeleted); err != nil {
			return nil, err
		}
	}
	return s.list(ctx, q, false)
}

// ListForProduct returns one page of a product's reviews. The product must be
// visible to the actor.
func (s *Service) ListForProduct(ctx context.Context, actor *domain.Actor, productSlug string, params domain.ReviewParams) (*ListResult, error) {
	product, err := s.store.Products().GetBySlug(ctx, productSlug, domain.ExcludeDeleted)
	if err != nil {
		return nil, err
	}
	if product.Status != domain.ProductApproved && !actor.Owns(product.SubmittedBy) && !actor.IsAdmin() {
		return nil, domain.ErrNotFound
	}

	params.ProductID = &product.ID
	q, err := domain.NormalizeReviewsPublic(params, actor)
	if err != nil {
		return nil, err
	}
	return s.list(ctx, q, false)
}

// AdminList returns one page of the admin review listing with per-status counts
func (s *Service) AdminList(ctx context.Context, actor *domain.Actor, params domain.ReviewParams) (*ListResult, error) {
	if err := domain.RequireAdmin(actor); err != nil {
		return nil, err
	}
	q, err := domain.NormalizeReviewsAdmin(params)
	if err != nil {
		return nil, err
	}
	return s.list(ctx, q, true)
}

func (s *Service) list(ctx context.Context, q domain.ReviewQuery, withCounts bool) (*ListResult, error) {
	cacheable := !withCounts && q.ProductID != nil && q.Status != nil &&
		*q.Status == domain.ReviewApproved && q.Deleted == domain.ExcludeDeleted

	if cacheable {
		page, err := s.cache.GetReviewsPage(ctx, q)
		if err == nil {
			s.logger.Debugf("Cache hit for product %s reviews (page=%d, limit=%d)", *q.ProductID, q.Page, q.PageSize)
			return &ListResult{
				Reviews: page.Reviews,
				Page:    domain.NewPageInfo(q.Page, q.PageSize, page.Total),
				Query:   q,
			}, nil
		}
	}

	var epoch int64
	if cacheable {
		var err error
		if epoch, err = s.cache.Epoch(ctx); err != nil {
			s.logger.Warnf("Skipping cache fill for product %s reviews: %v", *q.ProductID, err)
			cacheable = false
		}
	}

	result := &ListResult{Query: q}
	err := s.store.ReadOnly(ctx, func(ctx context.Context, tx domain.Store) error {
		reviews, total, err := tx.Reviews().List(ctx, q)
		if err != nil {
			return err
		}
		result.Reviews = reviews
		result.Page = domain.NewPageInfo(q.Page, q.PageSize, total)

		if withCounts {
			counts, err := tx.Reviews().CountByStatus(ctx, q)
			if err != nil {
				return err
			}
			result.Counts = &counts
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to list reviews", err)
		return nil, err
	}

	if cacheable {
		page := &cache.ReviewsPage{Reviews: result.Reviews, Total: result.Page.Total}
		if err := s.cache.SetReviewsPage(ctx, epoch, q, page); err != nil {
			s.logger.Warnf("Failed to cache reviews for product %s: %v", *q.ProductID, err)
		}
	}

	return result, nil
}

// Update replaces the author's review content. The review takes the default status
// again and the product rating is recomputed when the change affects it.
func (s *Service) Update(ctx context.Context, actor *domain.Actor, id uuid.UUID, in UpdateInput) (*domain.Review, error) {
	if err := domain.RequireActor(actor); err != nil {
		return nil, err
	}
	if err := validator.Struct(in); err != nil {
		return nil, domain.Invalid("%s", err.Error())
	}

	var (
		review *domain.Review
		rating *aggregate.ProductRating
	)
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx domain.Store) error {
		var err error
		review, err = loadLive(ctx, tx, id)
		if err != nil {
			return err
		}
		before := *review

		review.Rating = in.Rating
		review.Title = in.Title
		review.Content = in.Content
		review.Pros = domain.StringList(in.Pros)
		review.Cons = domain.StringList(in.Cons)

		status, err := moderation.ReviewTransition(actor, review, moderation.ActionEdit, s.defaultStatus)
		if err != nil {
			return err
		}
		review.Status = status

		if err := tx.Reviews().Update(ctx, review); err != nil {
			return err
		}

		rating, err = s.recompute(ctx, tx, &before, review)
		return err
	})
	if err != nil {
		s.logFailure("Failed to update review", err)
		return nil, err
	}

	s.afterCommit(ctx, review.ProductID, rating)
	s.publishEvent(s.reviewEvent(domain.EventReviewUpdated, actor, review, rating))

	s.logger.WithFields(map[string]any{
		"review_id":  review.ID,
		"product_id": review.ProductID,
		"rating":     review.Rating,
	}).Info("Review updated successfully")

	return review, nil
}

// Delete tombstones the author's review and recomputes the product rating
func (s *Service) Delete(ctx context.Context, actor *domain.Actor, id uuid.UUID) error {
	if err := domain.RequireActor(actor); err != nil {
		return err
	}

	var (
		review *domain.Review
		rating *aggregate.ProductRating
	)
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx domain.Store) error {
		var err error
		review, err = loadLive(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := moderation.CanEditReview(actor, review); err != nil {
			return err
		}

		if err := tx.Reviews().SoftDelete(ctx, id); err != nil {
			return err
		}

		after := *review
		deletedAt := review.UpdatedAt
		after.DeletedAt = &deletedAt
		rating, err = s.recompute(ctx, tx, review, &after)
		return err
	})
	if err != nil {
		s.logFailure("Failed to delete review", err)
		return err
	}

	s.afterCommit(ctx, review.ProductID, rating)
	s.publishEvent(s.reviewEvent(domain.EventReviewDeleted, actor, review, rating))

	s.logger.WithFields(map[string]any{
		"review_id":  id,
		"product_id": review.ProductID,
	}).Info("Review deleted successfully")

	return nil
}

// Approve moves a pending review to approved
func (s *Service) Approve(ctx context.Context, actor *domain.Actor, id uuid.UUID) (*domain.Review, error) {
	return s.moderate(ctx, actor, id, moderation.ActionApprove)
}

// Reject moves a pending review to rejected
func (s *Service) Reject(ctx context.Context, actor *domain.Actor, id uuid.UUID) (*domain.Review, error) {
	return s.moderate(ctx, actor, id, moderation.ActionReject)
}

func (s *Service) moderate(ctx context.Context, actor *domain.Actor, id uuid.UUID, action moderation.Action) (*domain.Review, error) {
	if err := domain.RequireAdmin(actor); err != nil {
		return nil, err
	}

	var (
		review *domain.Review
		rating *aggregate.ProductRating
	)
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx domain.Store) error {
		var err error
		review, err = loadLive(ctx, tx, id)
		if err != nil {
			return err
		}
		before := *review

		status, err := moderation.ReviewTransition(actor, review, action, s.defaultStatus)
		if err != nil {
			return err
		}
		if err := tx.Reviews().SetStatus(ctx, id, status); err != nil {
			return err
		}
		review.Status = status

		rating, err = s.recompute(ctx, tx, &before, review)
		return err
	})
	if err != nil {
		s.logFailure("Failed to moderate review", err)
		return nil, err
	}

	moderation.Record("review", action, string(review.Status))
	s.afterCommit(ctx, review.ProductID, rating)

	eventType := domain.EventReviewApproved
	if action == moderation.ActionReject {
		eventType = domain.EventReviewRejected
	}
	s.publishEvent(s.reviewEvent(eventType, actor, review, rating))

	return review, nil
}

// recompute refreshes the product rating inside tx when the change affects it
func (s *Service) recompute(ctx context.Context, tx domain.Store, before, after *domain.Review) (*aggregate.ProductRating, error) {
	if !moderation.AffectsRating(before, after) {
		return nil, nil
	}
	rating, err := aggregate.RecomputeProductRating(ctx, tx, after.ProductID)
	if err != nil {
		return nil, err
	}
	return &rating, nil
}

// loadLive returns a live review whose product is live too
func loadLive(ctx context.Context, tx domain.Store, id uuid.UUID) (*domain.Review, error) {
	review, err := tx.Reviews().GetByID(ctx, id, domain.ExcludeDeleted)
	if err != nil {
		return nil, err
	}
	if _, err := tx.Products().GetByID(ctx, review.ProductID, domain.ExcludeDeleted); err != nil {
		return nil, err
	}
	return review, nil
}

// afterCommit records a committed rating recompute and drops cached reads derived from the product
func (s *Service) afterCommit(ctx context.Context, productID uuid.UUID, rating *aggregate.ProductRating) {
	if rating != nil {
		aggregate.RecordRecompute(aggregate.KindProductRating)
	}

	// Stale cache would show incorrect ratings and review lists
	if err := s.cache.InvalidateProduct(ctx, productID); err != nil {
		s.logger.Warnf("Failed to invalidate cache for product %s: %v", productID, err)
	}
	if err := s.cache.InvalidateStats(ctx); err != nil {
		s.logger.Warnf("Failed to invalidate stats cache: %v", err)
	}
}

func (s *Service) logFailure(msg string, err error) {
	if domain.ErrorCode(err) == domain.CodeInternal {
		s.logger.Error(msg, err)
		return
	}
	s.logger.Debugf("%s: %v", msg, err)
}

func (s *Service) reviewEvent(t domain.EventType, actor *domain.Actor, r *domain.Review, rating *aggregate.ProductRating) domain.Event {
	event := domain.NewEvent(t, actor, r.ProductID)
	event.ReviewID = &r.ID
	event.Status = string(r.Status)
	if rating != nil {
		event.AverageRating = &rating.AverageRating
		event.TotalReviews = &rating.TotalReviews
	}
	return event
}

// publishEvent publishes a review event (non-blocking)
func (s *Service) publishEvent(event domain.Event) {
	// Publish in background to avoid blocking
	go func() {
		if err := s.publisher.Publish(context.Background(), event); err != nil {
			s.logger.Errorf(err, "Failed to publish event for product %s", event.ProductID)
		}
	}()
}
