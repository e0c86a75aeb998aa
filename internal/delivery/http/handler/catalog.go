package handler

import (
	"net/http"

	"github.com/Pesokrava/product_directory/internal/delivery/http/response"
	"github.com/Pesokrava/product_directory/internal/domain"
	"github.com/Pesokrava/product_directory/internal/pkg/logger"
	"github.com/Pesokrava/product_directory/internal/usecase/catalog"
)

// CatalogHandler serves reference data, statistics and the caller's profile
type CatalogHandler struct {
	service *catalog.Service
	logger  *logger.Logger
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(service *catalog.Service, log *logger.Logger) *CatalogHandler {
	return &CatalogHandler{
		service: service,
		logger:  log,
	}
}

// Categories handles GET /api/v1/categories
// @Summary List categories with product counts
// @Tags Catalog
// @Produce json
// @Success 200 {object} map[string]interface{} "Categories"
// @Router /categories [get]
func (h *CatalogHandler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.Categories(r.Context())
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	response.Success(w, categories)
}

// Tags handles GET /api/v1/tags
// @Summary List tags with usage counts
// @Tags Catalog
// @Produce json
// @Success 200 {object} map[string]interface{} "Tags"
// @Router /tags [get]
func (h *CatalogHandler) Tags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.service.Tags(r.Context())
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	response.Success(w, tags)
}

// Stats handles GET /api/v1/stats
// @Summary Platform statistics
// @Tags Catalog
// @Produce json
// @Success 200 {object} domain.Stats "Statistics"
// @Router /stats [get]
func (h *CatalogHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	response.Success(w, stats)
}

// Me handles GET /api/v1/me
// @Summary The caller's profile
// @Tags Catalog
// @Produce json
// @Security BearerAuth
// @Success 200 {object} domain.User "Profile"
// @Failure 401 {object} response.ErrorBody "Authentication required"
// @Router /me [get]
func (h *CatalogHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.Me(r.Context(), domain.ActorFromContext(r.Context()))
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	response.Success(w, user)
}
