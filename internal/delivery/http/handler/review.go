package handler

import (
	"net/http"

	"github.com/Pesokrava/product_directory/internal/delivery/http/request"
	"github.com/Pesokrava/product_directory/internal/delivery/http/response"
	"github.com/Pesokrava/product_directory/internal/domain"
	"github.com/Pesokrava/product_directory/internal/pkg/logger"
	"github.com/Pesokrava/product_directory/internal/usecase/review"
	"github.com/Pesokrava/product_directory/internal/usecase/vote"
)

// ReviewHandler handles HTTP requests for reviews and helpfulness votes
type ReviewHandler struct {
	service *review.Service
	votes   *vote.Service
	logger  *logger.Logger
}

// NewReviewHandler creates a new review handler
func NewReviewHandler(service *review.Service, votes *vote.Service, log *logger.Logger) *ReviewHandler {
	return &ReviewHandler{
		service: service,
		votes:   votes,
		logger:  log,
	}
}

// VoteRequest is the body of a helpfulness vote. The camelCase key is accepted as an alias.
type VoteRequest struct {
	IsHelpful      *bool `json:"is_helpful"`
	IsHelpfulCamel *bool `json:"isHelpful,omitempty" swaggerignore:"true"`
}

func (v VoteRequest) value() (bool, bool) {
	switch {
	case v.IsHelpful != nil:
		return *v.IsHelpful, true
	case v.IsHelpfulCamel != nil:
		return *v.IsHelpfulCamel, true
	default:
		return false, false
	}
}

// VoteResponse carries the recomputed helpful count
type VoteResponse struct {
	HelpfulCount int `json:"helpful_count"`
}

// List handles GET /api/v1/reviews
// @Summary List reviews
// @Description Approved reviews of live products
// @Tags Reviews
// @Produce json
// @Param product_id query string false "Product ID (UUID)"
// @Param user_id query string false "Author ID (UUID)"
// @Param sort query string false "newest, rating, helpful" default(newest)
// @Param order query string false "asc or desc" default(desc)
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page (max 100)" default(10)
// @Success 200 {object} map[string]interface{} "Paginated list of reviews"
// @Failure 400 {object} response.ErrorBody "Invalid query"
// @Router /reviews [get]
func (h *ReviewHandler) List(w http.ResponseWriter, r *http.Request) {
	params, err := request.GetReviewParams(r)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	result, err := h.service.List(r.Context(), domain.ActorFromContext(r.Context()), params)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	response.SetLinks(w, r.URL.Path, result.Page, linkValues(result.Query.WithPage))
	response.Paginated(w, result.Reviews, result.Page, nil)
}

// Create handles POST /api/v1/reviews
// @Summary Create a review
// @Description One review per user and product. The product's rating is recomputed.
// @Tags Reviews
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param review body review.CreateInput true "Review details"
// @Success 201 {object} map[string]interface{} "Review created"
// @Failure 400 {object} response.ErrorBody "Invalid request body"
// @Failure 404 {object} response.ErrorBody "Product not found"
// @Failure 409 {object} response.ErrorBody "Already reviewed"
// @Router /reviews [post]
func (h *ReviewHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in review.CreateInput
	if err := request.DecodeJSON(r, &in); err != nil {
		invalidBody(w)
		return
	}

	rv, err := h.service.Create(r.Context(), domain.ActorFromContext(r.Context()), in)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	response.Created(w, rv)
}

// Get handles GET /api/v1/reviews/{id}
// @Summary Get a review
// @Tags Reviews
// @Produce json
// @Param id path string true "Review ID (UUID)"
// @Success 200 {object} map[string]interface{} "Review"
// @Failure 404 {object} response.ErrorBody "Review not found"
// @Router /reviews/{id} [get]
func (h *ReviewHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := request.GetUUIDParam(r, "id")
	if err != nil {
		invalidID(w, "review")
		return
	}

	rv, err := h.service.Get(r.Context(), domain.ActorFromContext(r.Context()), id)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	response.Success(w, rv)
}

// Update handles PUT /api/v1/reviews/{id}
// @Summary Update a review
// @Description Only the author may edit
// @Tags Reviews
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Review ID (UUID)"
// @Param review body review.UpdateInput true "Updated review"
// @Success 200 {object} map[string]interface{} "Review updated"
// @Failure 403 {object} response.ErrorBody "Not the author"
// @Router /reviews/{id} [put]
func (h *ReviewHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := request.GetUUIDParam(r, "id")
	if err != nil {
		invalidID(w, "review")
		return
	}

	var in review.UpdateInput
	if err := request.DecodeJSON(r, &in); err != nil {
		invalidBody(w)
		return
	}

	rv, err := h.service.Update(r.Context(), domain.ActorFromContext(r.Context()), id, in)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	response.Success(w, rv)
}

// Delete handles DELETE /api/v1/reviews/{id}
// @Summary Delete a review
// @Description Only the author may delete
// @Tags Reviews
// @Security BearerAuth
// @Param id path string true "Review ID (UUID)"
// @Success 204 "Review deleted"
// @Failure 403 {object} response.ErrorBody "Not the author"
// @Router /reviews/{id} [delete]
func (h *ReviewHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := request.GetUUIDParam(r, "id")
	if err != nil {
		invalidID(w, "review")
		return
	}

	if err := h.service.Delete(r.Context(), domain.ActorFromContext(r.Context()), id); err != nil {
		handleError(w, h.logger, err)
		return
	}

	response.NoContent(w)
}

// Vote handles POST /api/v1/reviews/{id}/vote
// @Summary Vote on a review's helpfulness
// @Description Repeating the same vote is a no-op. Voting the other way flips the vote.
// @Tags Reviews
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Review ID (UUID)"
// @Param vote body VoteRequest true "Vote"
// @Success 200 {object} VoteResponse "Recomputed helpful count"
// @Failure 401 {object} response.ErrorBody "Authentication required"
// @Failure 404 {object} response.ErrorBody "Review not found"
// @Router /reviews/{id}/vote [post]
func (h *ReviewHandler) Vote(w http.ResponseWriter, r *http.Request) {
	id, err := request.GetUUIDParam(r, "id")
	if err != nil {
		invalidID(w, "review")
		return
	}

	var req VoteRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		invalidBody(w)
		return
	}
	isHelpful, ok := req.value()
	if !ok {
		response.Error(w, http.StatusBadRequest, domain.CodeValidationFailed, "is_helpful: is required")
		return
	}

	count, err := h.votes.CastVote(r.Context(), domain.ActorFromContext(r.Context()), id, isHelpful)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	response.Success(w, VoteResponse{HelpfulCount: count})
}

// GetVote handles GET /api/v1/reviews/{id}/vote
// @Summary Get the caller's vote
// @Description Anonymous callers always get voted=false
// @Tags Reviews
// @Produce json
// @Param id path string true "Review ID (UUID)"
// @Success 200 {object} domain.VoteState "Vote state"
// @Failure 404 {object} response.ErrorBody "Review not found"
// @Router /reviews/{id}/vote [get]
func (h *ReviewHandler) GetVote(w http.ResponseWriter, r *http.Request) {
	id, err := request.GetUUIDParam(r, "id")
	if err != nil {
		invalidID(w, "review")
		return
	}

	state, err := h.votes.GetVote(r.Context(), domain.ActorFromContext(r.Context()), id)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	response.Success(w, state)
}
