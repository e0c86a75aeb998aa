package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/Pesokrava/product_directory/internal/delivery/http/request"
	"github.com/Pesokrava/product_directory/internal/delivery/http/response"
	"github.com/Pesokrava/product_directory/internal/domain"
	"github.com/Pesokrava/product_directory/internal/pkg/logger"
	"github.com/Pesokrava/product_directory/internal/usecase/product"
	"github.com/Pesokrava/product_directory/internal/usecase/review"
)

// AdminHandler handles moderation endpoints. Every operation requires the admin role.
type AdminHandler struct {
	products *product.Service
	reviews  *review.Service
	logger   *logger.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(products *product.Service, reviews *review.Service, log *logger.Logger) *AdminHandler {
	return &AdminHandler{
		products: products,
		reviews:  reviews,
		logger:   log,
	}
}

// RejectRequest is the body of a product rejection
type RejectRequest struct {
	Reason string `json:"reason"`
}

// FeatureRequest is the body of a feature toggle
type FeatureRequest struct {
	Featured bool `json:"featured"`
}

// ListProducts handles GET /api/v1/admin/products
// @Summary Moderation queue
// @Description Products in any status with per-status counts
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param status query string false "pending, approved or rejected"
// @Param include_deleted query bool false "Include soft-deleted products"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page (max 100)" default(20)
// @Success 200 {object} map[string]interface{} "Paginated list with counts"
// @Failure 403 {object} response.ErrorBody "Admin role required"
// @Router /admin/products [get]
func (h *AdminHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	result, err := h.products.AdminList(r.Context(), domain.ActorFromContext(r.Context()), request.GetProductParams(r))
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	response.SetLinks(w, r.URL.Path, result.Page, linkValues(result.Query.WithPage))
	response.Paginated(w, result.Products, result.Page, result.Counts)
}

// ApproveProduct handles POST /api/v1/admin/products/{id}/approve
// @Summary Approve a pending product
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Product ID (UUID)"
// @Success 200 {object} map[string]interface{} "Product approved"
// @Failure 409 {object} response.ErrorBody "Product is not pending"
// @Router /admin/products/{id}/approve [post]
func (h *AdminHandler) ApproveProduct(w http.ResponseWriter, r *http.Request) {
	id, err := request.GetUUIDParam(r, "id")
	if err != nil {
		invalidID(w, "product")
		return
	}

	p, err := h.products.Approve(r.Context(), domain.ActorFromContext(r.Context()), id)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	response.Success(w, p)
}

// RejectProduct handles POST /api/v1/admin/products/{id}/reject
// @Summary Reject a pending product
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Product ID (UUID)"
// @Param body body RejectRequest false "Rejection reason"
// @Success 200 {object} map[string]interface{} "Product rejected"
// @Failure 409 {object} response.ErrorBody "Product is not pending"
// @Router /admin/products/{id}/reject [post]
func (h *AdminHandler) RejectProduct(w http.ResponseWriter, r *http.Request) {
	id, err := request.GetUUIDParam(r, "id")
	if err != nil {
		invalidID(w, "product")
		return
	}

	// The reason is optional, so an empty body is accepted
	var req RejectRequest
	if err := request.DecodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		invalidBody(w)
		return
	}

	p, err := h.products.Reject(r.Context(), domain.ActorFromContext(r.Context()), id, req.Reason)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	response.Success(w, p)
}

// UpdateProduct handles PUT /api/v1/admin/products/{id}
// @Summary Edit any product
// @Description Admin edits keep the current moderation status
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Product ID (UUID)"
// @Param product body product.UpdateInput true "Updated product"
// @Success 200 {object} map[string]interface{} "Product updated"
// @Router /admin/products/{id} [put]
func (h *AdminHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := request.GetUUIDParam(r, "id")
	if err != nil {
		invalidID(w, "product")
		return
	}

	var in product.UpdateInput
	if err := request.DecodeJSON(r, &in); err != nil {
		invalidBody(w)
		return
	}

	actor := domain.ActorFromContext(r.Context())
	if err := domain.RequireAdmin(actor); err != nil {
		handleError(w, h.logger, err)
		return
	}

	p, err := h.products.Update(r.Context(), actor, product.ByID(id), in)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	response.Success(w, p)
}

// DeleteProduct handles DELETE /api/v1/admin/products/{id}
// @Summary Delete any product
// @Tags Admin
// @Security BearerAuth
// @Param id path string true "Product ID (UUID)"
// @Success 204 "Product deleted"
// @Router /admin/products/{id} [delete]
func (h *AdminHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := request.GetUUIDParam(r, "id")
	if err != nil {
		invalidID(w, "product")
		return
	}

	actor := domain.ActorFromContext(r.Context())
	if err := domain.RequireAdmin(actor); err != nil {
		handleError(w, h.logger, err)
		return
	}

	if err := h.products.Delete(r.Context(), actor, product.ByID(id)); err != nil {
		handleError(w, h.logger, err)
		return
	}

	response.NoContent(w)
}

// FeatureProduct handles POST /api/v1/admin/products/{id}/feature
// @Summary Set or clear the featured flag
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Product ID (UUID)"
// @Param body body FeatureRequest true "Featured flag"
// @Success 200 {object} map[string]interface{} "Product updated"
// @Router /admin/products/{id}/feature [post]
func (h *AdminHandler) FeatureProduct(w http.ResponseWriter, r *http.Request) {
	id, err := request.GetUUIDParam(r, "id")
	if err != nil {
		invalidID(w, "product")
		return
	}

	var req FeatureRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		invalidBody(w)
		return
	}

	p, err := h.products.SetFeatured(r.Context(), domain.ActorFromContext(r.Context()), id, req.Featured)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	response.Success(w, p)
}

// RestoreProduct handles POST /api/v1/admin/products/{id}/restore
// @Summary Restore a soft-deleted product
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Product ID (UUID)"
// @Success 200 {object} map[string]interface{} "Product restored"
// @Failure 409 {object} response.ErrorBody "Product is not deleted"
// @Router /admin/products/{id}/restore [post]
func (h *AdminHandler) RestoreProduct(w http.ResponseWriter, r *http.Request) {
	id, err := request.GetUUIDParam(r, "id")
	if err != nil {
		invalidID(w, "product")
		return
	}

	p, err := h.products.Restore(r.Context(), domain.ActorFromContext(r.Context()), id)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	response.Success(w, p)
}

// ListReviews handles GET /api/v1/admin/reviews
// @Summary Review moderation queue
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param status query string false "pending, approved or rejected"
// @Param product_id query string false "Product ID (UUID)"
// @Param user_id query string false "Author ID (UUID)"
// @Param include_deleted query bool false "Include soft-deleted reviews"
// @Success 200 {object} map[string]interface{} "Paginated list with counts"
// @Router /admin/reviews [get]
func (h *AdminHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	params, err := request.GetReviewParams(r)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	result, err := h.reviews.AdminList(r.Context(), domain.ActorFromContext(r.Context()), params)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	response.SetLinks(w, r.URL.Path, result.Page, linkValues(result.Query.WithPage))
	response.Paginated(w, result.Reviews, result.Page, result.Counts)
}

// ApproveReview handles POST /api/v1/admin/reviews/{id}/approve
// @Summary Approve a pending review
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Review ID (UUID)"
// @Success 200 {object} map[string]interface{} "Review approved"
// @Router /admin/reviews/{id}/approve [post]
func (h *AdminHandler) ApproveReview(w http.ResponseWriter, r *http.Request) {
	id, err := request.GetUUIDParam(r, "id")
	if err != nil {
		invalidID(w, "review")
		return
	}

	rv, err := h.reviews.Approve(r.Context(), domain.ActorFromContext(r.Context()), id)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	response.Success(w, rv)
}

// RejectReview handles POST /api/v1/admin/reviews/{id}/reject
// @Summary Reject a pending review
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Review ID (UUID)"
// @Success 200 {object} map[string]interface{} "Review rejected"
// @Router /admin/reviews/{id}/reject [post]
func (h *AdminHandler) RejectReview(w http.ResponseWriter, r *http.Request) {
	id, err := request.GetUUIDParam(r, "id")
	if err != nil {
		invalidID(w, "review")
		return
	}

	rv, err := h.reviews.Reject(r.Context(), domain.ActorFromContext(r.Context()), id)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	response.Success(w, rv)
}
