package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Pesokrava/product_directory/internal/delivery/http/request"
	"github.com/Pesokrava/product_directory/internal/delivery/http/response"
	"github.com/Pesokrava/product_directory/internal/domain"
	"github.com/Pesokrava/product_directory/internal/pkg/logger"
	"github.com/Pesokrava/product_directory/internal/usecase/product"
	"github.com/Pesokrava/product_directory/internal/usecase/review"
)

// ProductHandler handles HTTP requests for products
type ProductHandler struct {
	service *product.Service
	reviews *review.Service
	logger  *logger.Logger
}

// NewProductHandler creates a new product handler
func NewProductHandler(service *product.Service, reviews *review.Service, log *logger.Logger) *ProductHandler {
	return &ProductHandler{
		service: service,
		reviews: reviews,
		logger:  log,
	}
}

// List handles GET /api/v1/products
// @Summary List products
// @Description Paginated listing of approved products. Signed-in users may pass mine=true to see their own submissions.
// @Tags Products
// @Produce json
// @Param search query string false "Full-text search over name and descriptions"
// @Param category query string false "Category slug"
// @Param pricing query string false "Pricing label"
// @Param featured query bool false "Only featured products"
// @Param mine query bool false "Only the caller's submissions, any status"
// @Param sort query string false "newest, name, rating, reviews, featured" default(newest)
// @Param order query string false "asc or desc" default(desc)
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page (max 100)" default(12)
// @Success 200 {object} map[string]interface{} "Paginated list of products"
// @Failure 400 {object} response.ErrorBody "Invalid query"
// @Router /products [get]
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	actor := domain.ActorFromContext(r.Context())

	result, err := h.service.List(r.Context(), actor, request.GetProductParams(r))
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	response.SetLinks(w, r.URL.Path, result.Page, linkValues(result.Query.WithPage))
	response.Paginated(w, result.Products, result.Page, nil)
}

// Create handles POST /api/v1/products
// @Summary Submit a product
// @Description Submit a product for moderation. New products start in pending status.
// @Tags Products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param product body product.CreateInput true "Product details"
// @Success 201 {object} map[string]interface{} "Product created"
// @Failure 400 {object} response.ErrorBody "Invalid request body"
// @Failure 401 {object} response.ErrorBody "Authentication required"
// @Failure 409 {object} response.ErrorBody "Slug already taken"
// @Router /products [post]
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in product.CreateInput
	if err := request.DecodeJSON(r, &in); err != nil {
		invalidBody(w)
		return
	}

	detail, err := h.service.Create(r.Context(), domain.ActorFromContext(r.Context()), in)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	response.Created(w, detail)
}

// Get handles GET /api/v1/products/{slug}
// @Summary Get a product
// @Description Product detail with images, tags, category, submitter and recent reviews
// @Tags Products
// @Produce json
// @Param slug path string true "Product slug"
// @Success 200 {object} map[string]interface{} "Product detail"
// @Failure 404 {object} response.ErrorBody "Product not found"
// @Router /products/{slug} [get]
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	detail, err := h.service.Get(r.Context(), domain.ActorFromContext(r.Context()), chi.URLParam(r, "slug"))
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	response.Success(w, detail)
}

// Update handles PUT /api/v1/products/{slug}
// @Summary Update a product
// @Description Owners and admins may edit. An owner's edit sends the product back to moderation.
// @Tags Products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param slug path string true "Product slug"
// @Param product body product.UpdateInput true "Updated product"
// @Success 200 {object} map[string]interface{} "Product updated"
// @Failure 400 {object} response.ErrorBody "Invalid request"
// @Failure 403 {object} response.ErrorBody "Not the owner"
// @Failure 404 {object} response.ErrorBody "Product not found"
// @Router /products/{slug} [put]
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in product.UpdateInput
	if err := request.DecodeJSON(r, &in); err != nil {
		invalidBody(w)
		return
	}

	p, err := h.service.Update(r.Context(), domain.ActorFromContext(r.Context()), product.BySlug(chi.URLParam(r, "slug")), in)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	response.Success(w, p)
}

// Delete handles DELETE /api/v1/products/{slug}
// @Summary Delete a product
// @Description Soft delete. The product and its reviews disappear from every public view.
// @Tags Products
// @Security BearerAuth
// @Param slug path string true "Product slug"
// @Success 204 "Product deleted"
// @Failure 403 {object} response.ErrorBody "Not the owner"
// @Failure 404 {object} response.ErrorBody "Product not found"
// @Router /products/{slug} [delete]
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), domain.ActorFromContext(r.Context()), product.BySlug(chi.URLParam(r, "slug"))); err != nil {
		handleError(w, h.logger, err)
		return
	}

	response.NoContent(w)
}

// ListReviews handles GET /api/v1/products/{slug}/reviews
// @Summary List a product's reviews
// @Tags Reviews
// @Produce json
// @Param slug path string true "Product slug"
// @Param sort query string false "newest, rating, helpful" default(newest)
// @Param order query string false "asc or desc" default(desc)
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page (max 100)" default(10)
// @Success 200 {object} map[string]interface{} "Paginated list of reviews"
// @Failure 404 {object} response.ErrorBody "Product not found"
// @Router /products/{slug}/reviews [get]
func (h *ProductHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	params, err := request.GetReviewParams(r)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	result, err := h.reviews.ListForProduct(r.Context(), domain.ActorFromContext(r.Context()), chi.URLParam(r, "slug"), params)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	response.SetLinks(w, r.URL.Path, result.Page, linkValues(result.Query.WithPage))
	response.Paginated(w, result.Reviews, result.Page, nil)
}
