package product

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/Pesokrava/product_directory/internal/domain"
	"github.com/Pesokrava/product_directory/internal/pkg/logger"
	"github.com/Pesokrava/product_directory/internal/pkg/slug"
	"github.com/Pesokrava/product_directory/internal/pkg/validator"
	"github.com/Pesokrava/product_directory/internal/repository/cache"
	"github.com/Pesokrava/product_directory/internal/usecase/aggregate"
	"github.com/Pesokrava/product_directory/internal/usecase/moderation"
)

// recentReviewsLimit is the number of reviews embedded in a product detail
const recentReviewsLimit = 5

// ImageInput is an image submitted with a product
type ImageInput struct {
	URL string  `json:"url" validate:"required,url"`
	Alt *string `json:"alt,omitempty" validate:"omitempty,max=200"`
}

// CreateInput holds the fields a submitter provides
type CreateInput struct {
	Name             string       `json:"name" validate:"notblank,max=200"`
	Description      string       `json:"description" validate:"notblank"`
	ShortDescription *string      `json:"short_description,omitempty" validate:"omitempty,max=500"`
	Website          *string      `json:"website,omitempty" validate:"omitempty,url"`
	Pricing          *string      `json:"pricing,omitempty" validate:"omitempty,max=100"`
	CategoryID       uuid.UUID    `json:"category_id" validate:"required"`
	Images           []ImageInput `json:"images,omitempty" validate:"max=10,dive"`
	TagIDs           []uuid.UUID  `json:"tag_ids,omitempty" validate:"max=10"`
}

// UpdateInput replaces a product's content. A nil TagIDs leaves tags unchanged.
type UpdateInput struct {
	Name             string      `json:"name" validate:"notblank,max=200"`
	Description      string      `json:"description" validate:"notblank"`
	ShortDescription *string     `json:"short_description,omitempty" validate:"omitempty,max=500"`
	Website          *string     `json:"website,omitempty" validate:"omitempty,url"`
	Pricing          *string     `json:"pricing,omitempty" validate:"omitempty,max=100"`
	CategoryID       uuid.UUID   `json:"category_id" validate:"required"`
	TagIDs           []uuid.UUID `json:"tag_ids,omitempty" validate:"omitempty,max=10"`
}

// Key identifies a product by ID or by slug
type Key struct {
	ID   uuid.UUID
	Slug string
}

// ByID returns a key for the product ID
func ByID(id uuid.UUID) Key { return Key{ID: id} }

// BySlug returns a key for the product slug
func BySlug(s string) Key { return Key{Slug: s} }

func (k Key) load(ctx context.Context, repo domain.ProductRepository, scope domain.DeletedScope) (*domain.Product, error) {
	if k.Slug != "" {
		return repo.GetBySlug(ctx, k.Slug, scope)
	}
	return repo.GetByID(ctx, k.ID, scope)
}

// ListResult is one page of a product listing
type ListResult struct {
	Products []*domain.ProductListing
	Page     domain.PageInfo
	Query    domain.ProductQuery
	// Counts is only filled for admin listings
	Counts *domain.StatusCounts
}

// Service handles product business logic with caching and event publishing
type Service struct {
	store     domain.Store
	cache     cache.Cache
	publisher domain.EventPublisher
	logger    *logger.Logger
}

// NewService creates a new product service
func NewService(store domain.Store, cache cache.Cache, publisher domain.EventPublisher, log *logger.Logger) *Service {
	return &Service{
		store:     store,
		cache:     cache,
		publisher: publisher,
		logger:    log,
	}
}

// Create submits a new product in pending status together with its images and tags
func (s *Service) Create(ctx context.Context, actor *domain.Actor, in CreateInput) (*domain.ProductDetail, error) {
	if err := domain.RequireActor(actor); err != nil {
		return nil, err
	}
	if err := validator.Struct(in); err != nil {
		return nil, domain.Invalid("%s", err.Error())
	}

	product := &domain.Product{
		Name:             in.Name,
		Slug:             slug.Generate(in.Name),
		Description:      in.Description,
		ShortDescription: in.ShortDescription,
		Website:          in.Website,
		Pricing:          in.Pricing,
		CategoryID:       in.CategoryID,
		SubmittedBy:      actor.UserID,
	}
	if product.Slug == "" {
		return nil, domain.Invalid("name must contain letters or digits")
	}

	status, err := moderation.ProductTransition(actor, product, moderation.ActionCreate)
	if err != nil {
		return nil, err
	}
	product.Status = status

	var detail *domain.ProductDetail
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx domain.Store) error {
		if err := checkReferences(ctx, tx, in.CategoryID, in.TagIDs); err != nil {
			return err
		}

		exists, err := tx.Products().SlugExists(ctx, product.Slug)
		if err != nil {
			return err
		}
		if exists {
			return domain.Conflict("a product named %q already exists", in.Name)
		}

		if err := tx.Products().Create(ctx, product); err != nil {
			return err
		}

		if len(in.Images) > 0 {
			images := make([]domain.ProductImage, len(in.Images))
			for i, img := range in.Images {
				images[i] = domain.ProductImage{URL: img.URL, Alt: img.Alt, IsPrimary: i == 0, Position: i}
			}
			if err := tx.Products().AddImages(ctx, product.ID, images); err != nil {
				return err
			}
		}

		if len(in.TagIDs) > 0 {
			if err := tx.Products().SetTags(ctx, product.ID, in.TagIDs); err != nil {
				return err
			}
		}

		detail, err = buildDetail(ctx, tx, product)
		return err
	})
	if err != nil {
		s.logFailure("Failed to create product", err)
		return nil, err
	}

	moderation.Record("product", moderation.ActionCreate, string(product.Status))
	s.invalidateStats(ctx)
	s.publishEvent(s.productEvent(domain.EventProductSubmitted, actor, product))

	s.logger.WithFields(map[string]any{
		"product_id": product.ID,
		"slug":       product.Slug,
	}).Info("Product submitted successfully")

	return detail, nil
}

// Get returns a product detail by slug. Products that are not approved are visible
// to their submitter and to admins only.
func (s *Service) Get(ctx context.Context, actor *domain.Actor, productSlug string) (*domain.ProductDetail, error) {
	detail, err := s.cache.GetProductDetail(ctx, productSlug)
	if err == nil {
		s.logger.Debugf("Cache hit for product %s", productSlug)
		return detail, nil
	}
	epoch, epochErr := s.cache.Epoch(ctx)

	err = s.store.ReadOnly(ctx, func(ctx context.Context, tx domain.Store) error {
		product, err := tx.Products().GetBySlug(ctx, productSlug, domain.ExcludeDeleted)
		if err != nil {
			return err
		}
		if product.Status != domain.ProductApproved && !actor.Owns(product.SubmittedBy) && !actor.IsAdmin() {
			return domain.ErrNotFound
		}
		detail, err = buildDetail(ctx, tx, product)
		return err
	})
	if err != nil {
		s.logFailure("Failed to get product", err)
		return nil, err
	}

	if detail.Status == domain.ProductApproved {
		if epochErr != nil {
			s.logger.Warnf("Skipping cache fill for product %s: %v", productSlug, epochErr)
		} else if err := s.cache.SetProductDetail(ctx, epoch, detail); err != nil {
			s.logger.Warnf("Failed to cache product %s: %v", productSlug, err)
		}
	}

	return detail, nil
}

// List returns one page of the public product listing
func (s *Service) List(ctx context.Context, actor *domain.Actor, params domain.ProductParams) (*ListResult, error) {
	q, err := domain.NormalizePublic(params, actor)
	if err != nil {
		return nil, err
	}
	return s.list(ctx, q, false)
}

// AdminList returns one page of the admin listing with per-status counts
func (s *Service) AdminList(ctx context.Context, actor *domain.Actor, params domain.ProductParams) (*ListResult, error) {
	if err := domain.RequireAdmin(actor); err != nil {
		return nil, err
	}
	q, err := domain.NormalizeAdmin(params)
	if err != nil {
		return nil, err
	}
	return s.list(ctx, q, true)
}

func (s *Service) list(ctx context.Context, q domain.ProductQuery, withCounts bool) (*ListResult, error) {
	result := &ListResult{Query: q}
	err := s.store.ReadOnly(ctx, func(ctx context.Context, tx domain.Store) error {
		products, total, err := tx.Products().List(ctx, q)
		if err != nil {
			return err
		}
		result.Products = products
		result.Page = domain.NewPageInfo(q.Page, q.PageSize, total)

		if withCounts {
			counts, err := tx.Products().CountByStatus(ctx, q)
			if err != nil {
				return err
			}
			result.Counts = &counts
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to list products", err)
		return nil, err
	}
	return result, nil
}

// Update replaces a product's content. An edit by the submitter sends the product
// back to pending; an admin edit keeps its status. The slug never changes.
func (s *Service) Update(ctx context.Context, actor *domain.Actor, key Key, in UpdateInput) (*domain.Product, error) {
	if err := domain.RequireActor(actor); err != nil {
		return nil, err
	}
	if err := validator.Struct(in); err != nil {
		return nil, domain.Invalid("%s", err.Error())
	}

	var (
		product *domain.Product
		before  domain.ProductStatus
	)
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx domain.Store) error {
		var err error
		product, err = key.load(ctx, tx.Products(), domain.ExcludeDeleted)
		if err != nil {
			return err
		}
		before = product.Status

		status, err := moderation.ProductTransition(actor, product, moderation.ActionEdit)
		if err != nil {
			return err
		}

		if err := checkReferences(ctx, tx, in.CategoryID, in.TagIDs); err != nil {
			return err
		}

		product.Name = in.Name
		product.Description = in.Description
		product.ShortDescription = in.ShortDescription
		product.Website = in.Website
		product.Pricing = in.Pricing
		product.CategoryID = in.CategoryID
		product.Status = status

		if err := tx.Products().Update(ctx, product); err != nil {
			return err
		}
		if in.TagIDs != nil {
			return tx.Products().SetTags(ctx, product.ID, in.TagIDs)
		}
		return nil
	})
	if err != nil {
		s.logFailure("Failed to update product", err)
		return nil, err
	}

	if product.Status != before {
		moderation.Record("product", moderation.ActionEdit, string(product.Status))
	}
	s.invalidate(ctx, product.ID)
	s.publishEvent(s.productEvent(domain.EventProductUpdated, actor, product))

	s.logger.WithFields(map[string]any{
		"product_id": product.ID,
		"status":     product.Status,
	}).Info("Product updated successfully")

	return product, nil
}

// Delete tombstones a product. Its reviews stay in place but are hidden with it.
func (s *Service) Delete(ctx context.Context, actor *domain.Actor, key Key) error {
	if err := domain.RequireActor(actor); err != nil {
		return err
	}

	var product *domain.Product
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx domain.Store) error {
		var err error
		product, err = key.load(ctx, tx.Products(), domain.ExcludeDeleted)
		if err != nil {
			return err
		}
		if err := moderation.CanEditProduct(actor, product); err != nil {
			return err
		}
		return tx.Products().SoftDelete(ctx, product.ID)
	})
	if err != nil {
		s.logFailure("Failed to delete product", err)
		return err
	}

	s.invalidate(ctx, product.ID)
	s.publishEvent(s.productEvent(domain.EventProductDeleted, actor, product))

	s.logger.WithFields(map[string]any{
		"product_id": product.ID,
	}).Info("Product deleted successfully")

	return nil
}

// Approve moves a pending product to approved
func (s *Service) Approve(ctx context.Context, actor *domain.Actor, id uuid.UUID) (*domain.Product, error) {
	return s.moderate(ctx, actor, id, moderation.ActionApprove, "")
}

// Reject moves a pending product to rejected. The reason travels on the event only.
func (s *Service) Reject(ctx context.Context, actor *domain.Actor, id uuid.UUID, reason string) (*domain.Product, error) {
	return s.moderate(ctx, actor, id, moderation.ActionReject, reason)
}

func (s *Service) moderate(ctx context.Context, actor *domain.Actor, id uuid.UUID, action moderation.Action, reason string) (*domain.Product, error) {
	if err := domain.RequireAdmin(actor); err != nil {
		return nil, err
	}

	var product *domain.Product
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx domain.Store) error {
		var err error
		product, err = tx.Products().GetByID(ctx, id, domain.ExcludeDeleted)
		if err != nil {
			return err
		}

		status, err := moderation.ProductTransition(actor, product, action)
		if err != nil {
			return err
		}
		if err := tx.Products().SetStatus(ctx, id, status); err != nil {
			return err
		}
		product.Status = status
		return nil
	})
	if err != nil {
		s.logFailure("Failed to moderate product", err)
		return nil, err
	}

	moderation.Record("product", action, string(product.Status))
	s.invalidate(ctx, product.ID)

	eventType := domain.EventProductApproved
	if action == moderation.ActionReject {
		eventType = domain.EventProductRejected
	}
	event := s.productEvent(eventType, actor, product)
	event.Reason = reason
	s.publishEvent(event)

	s.logger.WithFields(map[string]any{
		"product_id": product.ID,
		"status":     product.Status,
	}).Info("Product moderated")

	return product, nil
}

// SetFeatured toggles the featured flag of a live product
func (s *Service) SetFeatured(ctx context.Context, actor *domain.Actor, id uuid.UUID, featured bool) (*domain.Product, error) {
	if err := domain.RequireAdmin(actor); err != nil {
		return nil, err
	}

	var product *domain.Product
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx domain.Store) error {
		if err := tx.Products().SetFeatured(ctx, id, featured); err != nil {
			return err
		}
		var err error
		product, err = tx.Products().GetByID(ctx, id, domain.ExcludeDeleted)
		return err
	})
	if err != nil {
		s.logFailure("Failed to feature product", err)
		return nil, err
	}

	s.invalidate(ctx, product.ID)
	s.publishEvent(s.productEvent(domain.EventProductFeatured, actor, product))
	return product, nil
}

// Restore clears a product's tombstone and recomputes its rating
func (s *Service) Restore(ctx context.Context, actor *domain.Actor, id uuid.UUID) (*domain.Product, error) {
	if err := domain.RequireAdmin(actor); err != nil {
		return nil, err
	}

	var product *domain.Product
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx domain.Store) error {
		existing, err := tx.Products().GetByID(ctx, id, domain.IncludeDeleted)
		if err != nil {
			return err
		}
		if !existing.IsDeleted() {
			return domain.Conflict("product is not deleted")
		}
		if err := tx.Products().Restore(ctx, id); err != nil {
			return err
		}
		if _, err := aggregate.RecomputeProductRating(ctx, tx, id); err != nil {
			return err
		}
		product, err = tx.Products().GetByID(ctx, id, domain.ExcludeDeleted)
		return err
	})
	if err != nil {
		s.logFailure("Failed to restore product", err)
		return nil, err
	}

	aggregate.RecordRecompute(aggregate.KindProductRating)
	s.invalidate(ctx, product.ID)
	s.publishEvent(s.productEvent(domain.EventProductRestored, actor, product))

	s.logger.WithFields(map[string]any{
		"product_id": product.ID,
	}).Info("Product restored")

	return product, nil
}

// checkReferences rejects unknown categories and tags
func checkReferences(ctx context.Context, tx domain.Store, categoryID uuid.UUID, tagIDs []uuid.UUID) error {
	if _, err := tx.Categories().GetByID(ctx, categoryID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Invalid("category %s does not exist", categoryID)
		}
		return err
	}

	unique := uniqueIDs(tagIDs)
	if len(unique) == 0 {
		return nil
	}
	n, err := tx.Tags().CountExisting(ctx, unique)
	if err != nil {
		return err
	}
	if n != len(unique) {
		return domain.Invalid("unknown tag in tag_ids")
	}
	return nil
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// buildDetail loads the records shown with a product
func buildDetail(ctx context.Context, tx domain.Store, product *domain.Product) (*domain.ProductDetail, error) {
	detail := &domain.ProductDetail{Product: *product}

	category, err := tx.Categories().GetByID(ctx, product.CategoryID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	detail.Category = category

	submitter, err := tx.Users().GetByID(ctx, product.SubmittedBy)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if submitter != nil {
		detail.SubmitterName = submitter.Name
	}

	if detail.Images, err = tx.Products().Images(ctx, product.ID); err != nil {
		return nil, err
	}
	if detail.Tags, err = tx.Products().Tags(ctx, product.ID); err != nil {
		return nil, err
	}

	approved := domain.ReviewApproved
	reviews, _, err := tx.Reviews().List(ctx, domain.ReviewQuery{
		ProductID: &product.ID,
		Status:    &approved,
		Sort:      domain.ReviewSortCreatedAt,
		Order:     domain.SortDesc,
		Page:      1,
		PageSize:  recentReviewsLimit,
	})
	if err != nil {
		return nil, err
	}
	detail.RecentReviews = reviews
	return detail, nil
}

// invalidate drops cached reads derived from the product
func (s *Service) invalidate(ctx context.Context, productID uuid.UUID) {
	if err := s.cache.InvalidateProduct(ctx, productID); err != nil {
		s.logger.Warnf("Failed to invalidate cache for product %s: %v", productID, err)
	}
	s.invalidateStats(ctx)
}

func (s *Service) invalidateStats(ctx context.Context) {
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

func (s *Service) productEvent(t domain.EventType, actor *domain.Actor, p *domain.Product) domain.Event {
	event := domain.NewEvent(t, actor, p.ID)
	event.Status = string(p.Status)
	return event
}

// publishEvent publishes a product event (non-blocking)
func (s *Service) publishEvent(event domain.Event) {
	// Publish in background to avoid blocking
	go func() {
		if err := s.publisher.Publish(context.Background(), event); err != nil {
			s.logger.Errorf(err, "Failed to publish event for product %s", event.ProductID)
		}
	}()
}
