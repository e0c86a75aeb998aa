package handler

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pesokrava/product_directory/internal/domain"
)

func TestCatalogHandler_Categories(t *testing.T) {
	api := newTestAPI(t)
	api.submitApproved("Foo Writer")

	w := api.do(http.MethodGet, "/categories", nil, nil)

	require.Equal(t, http.StatusOK, w.Code)
	var categories []domain.CategoryWithCount
	decodeData(t, w, &categories)
	require.Len(t, categories, 1)
	assert.Equal(t, "writing", categories[0].Slug)
}

func TestCatalogHandler_Tags(t *testing.T) {
	api := newTestAPI(t)
	api.store.AddTag(domain.Tag{Name: "API", Slug: "api"})

	w := api.do(http.MethodGet, "/tags", nil, nil)

	require.Equal(t, http.StatusOK, w.Code)
	var tags []domain.TagWithUsage
	decodeData(t, w, &tags)
	assert.Len(t, tags, 1)
}

func TestCatalogHandler_Stats(t *testing.T) {
	api := newTestAPI(t)
	p := api.submitApproved("Foo Writer")
	api.review(p, api.stranger, 4)

	w := api.do(http.MethodGet, "/stats", nil, nil)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var stats struct {
		Overview struct {
			TotalProducts int `json:"total_products"`
			TotalReviews  int `json:"total_reviews"`
		} `json:"overview"`
	}
	decodeData(t, w, &stats)
	assert.Equal(t, 1, stats.Overview.TotalProducts)
	assert.Equal(t, 1, stats.Overview.TotalReviews)
}

func TestCatalogHandler_Me(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(http.MethodGet, "/me", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = api.do(http.MethodGet, "/me", nil, api.owner)
	require.Equal(t, http.StatusOK, w.Code)
	var user domain.User
	decodeData(t, w, &user)
	assert.Equal(t, api.owner.UserID, user.ID)
	assert.Equal(t, "owner@example.com", user.Email)
}
