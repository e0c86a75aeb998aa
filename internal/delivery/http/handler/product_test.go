package handler

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pesokrava/product_directory/internal/domain"
)

func TestProductHandler_Create_Unauthenticated(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(http.MethodPost, "/products", map[string]any{
		"name":        "Foo",
		"description": "Foo things",
		"category_id": api.category.ID,
	}, nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, domain.CodeUnauthenticated, decode(t, w).Error.Code)
}

func TestProductHandler_Create_InvalidBody(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(http.MethodPost, "/products", "{not json", api.owner)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, domain.CodeValidationFailed, decode(t, w).Error.Code)
}

func TestProductHandler_Create_ValidationFailed(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(http.MethodPost, "/products", map[string]any{
		"name":        "  ",
		"description": "Foo things",
		"category_id": api.category.ID,
	}, api.owner)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	env := decode(t, w)
	assert.Equal(t, domain.CodeValidationFailed, env.Error.Code)
	assert.Contains(t, env.Error.Message, "name")
}

func TestProductHandler_Create_DuplicateSlug(t *testing.T) {
	api := newTestAPI(t)
	api.submitApproved("Foo Writer")

	w := api.do(http.MethodPost, "/products", map[string]any{
		"name":        "foo writer",
		"description": "Another",
		"category_id": api.category.ID,
	}, api.stranger)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, domain.CodeConflict, decode(t, w).Error.Code)
}

func TestProductHandler_PendingVisibility(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(http.MethodPost, "/products", map[string]any{
		"name":        "Foo Writer",
		"description": "Writes foo",
		"category_id": api.category.ID,
	}, api.owner)
	require.Equal(t, http.StatusCreated, w.Code)
	var p productView
	decodeData(t, w, &p)
	assert.Equal(t, "pending", p.Status)
	assert.Equal(t, "foo-writer", p.Slug)

	tests := []struct {
		name   string
		actor  *domain.Actor
		status int
	}{
		{"anonymous", nil, http.StatusNotFound},
		{"stranger", api.stranger, http.StatusNotFound},
		{"owner", api.owner, http.StatusOK},
		{"admin", api.admin, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := api.do(http.MethodGet, "/products/"+p.Slug, nil, tt.actor)
			assert.Equal(t, tt.status, w.Code)
		})
	}

	w = api.do(http.MethodGet, "/products", nil, nil)
	env := decode(t, w)
	require.NotNil(t, env.Pagination)
	assert.Equal(t, 0, env.Pagination.Total)
}

func TestProductHandler_List_PaginationAndLinks(t *testing.T) {
	api := newTestAPI(t)
	for _, name := range []string{"Alpha", "Bravo", "Charlie"} {
		api.submitApproved(name)
	}

	w := api.do(http.MethodGet, "/products?limit=2&page=1&sort=name&order=asc", nil, nil)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var listed []productView
	env := decodeData(t, w, &listed)
	require.Len(t, listed, 2)
	assert.Equal(t, "alpha", listed[0].Slug)
	assert.Equal(t, 3, env.Pagination.Total)
	assert.Equal(t, 2, env.Pagination.TotalPages)
	assert.True(t, env.Pagination.HasNext)
	assert.Nil(t, env.Counts)

	link := w.Header().Get("Link")
	assert.Contains(t, link, `rel="next"`)
	assert.Contains(t, link, "page=2")
	assert.NotContains(t, link, `rel="prev"`)
}

func TestProductHandler_List_InvalidSort(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(http.MethodGet, "/products?sort=popularity", nil, nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, domain.CodeValidationFailed, decode(t, w).Error.Code)
}

func TestProductHandler_Update(t *testing.T) {
	api := newTestAPI(t)
	p := api.submitApproved("Foo Writer")
	body := map[string]any{
		"name":        "Foo Writer Pro",
		"description": "Writes more foo",
		"category_id": api.category.ID,
	}

	w := api.do(http.MethodPut, "/products/"+p.Slug, body, api.stranger)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, domain.CodePermissionDenied, decode(t, w).Error.Code)

	w = api.do(http.MethodPut, "/products/"+p.Slug, body, api.owner)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updated productView
	decodeData(t, w, &updated)
	assert.Equal(t, "pending", updated.Status)
	assert.Equal(t, p.Slug, updated.Slug)
}

func TestProductHandler_Delete(t *testing.T) {
	api := newTestAPI(t)
	p := api.submitApproved("Foo Writer")

	w := api.do(http.MethodDelete, "/products/"+p.Slug, nil, api.stranger)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = api.do(http.MethodDelete, "/products/"+p.Slug, nil, api.owner)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = api.do(http.MethodGet, "/products/"+p.Slug, nil, api.admin)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = api.do(http.MethodDelete, "/products/"+p.Slug, nil, api.owner)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProductHandler_DetailAndReviews(t *testing.T) {
	api := newTestAPI(t)
	p := api.submitApproved("Foo Writer")
	api.review(p, api.stranger, 5)
	api.review(p, api.newUser("second@example.com"), 3)

	w := api.do(http.MethodGet, "/products/"+p.Slug, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var detail struct {
		productView
		RecentReviews []reviewView `json:"recent_reviews"`
	}
	decodeData(t, w, &detail)
	assert.InDelta(t, 4.0, detail.AverageRating, 0.001)
	assert.Equal(t, 2, detail.TotalReviews)
	assert.Len(t, detail.RecentReviews, 2)
	assert.Contains(t, w.Body.String(), `"average_rating":4.00`)

	w = api.do(http.MethodGet, "/products/"+p.Slug+"/reviews?sort=rating&order=asc", nil, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var reviews []reviewView
	env := decodeData(t, w, &reviews)
	require.Len(t, reviews, 2)
	assert.Equal(t, 3, reviews[0].Rating)
	assert.Equal(t, 2, env.Pagination.Total)

	w = api.do(http.MethodGet, "/products/missing/reviews", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProductHandler_ReviewsRejectBadQuery(t *testing.T) {
	api := newTestAPI(t)
	p := api.submitApproved("Foo Writer")

	w := api.do(http.MethodGet, "/products/"+p.Slug+"/reviews?user_id=nope", nil, nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProductHandler_CreateWithTagsAndImages(t *testing.T) {
	api := newTestAPI(t)
	tag := api.store.AddTag(domain.Tag{Name: "API", Slug: "api"})

	w := api.do(http.MethodPost, "/products", map[string]any{
		"name":        "Foo Writer",
		"description": "Writes foo",
		"category_id": api.category.ID,
		"tag_ids":     []uuid.UUID{tag.ID},
		"images": []map[string]any{
			{"url": "https://img.example.com/1.png"},
			{"url": "https://img.example.com/2.png", "alt": "second"},
		},
	}, api.owner)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var detail struct {
		Images []struct {
			URL       string `json:"url"`
			IsPrimary bool   `json:"is_primary"`
		} `json:"images"`
		Tags []struct {
			Slug string `json:"slug"`
		} `json:"tags"`
	}
	decodeData(t, w, &detail)
	require.Len(t, detail.Images, 2)
	assert.True(t, detail.Images[0].IsPrimary)
	assert.False(t, detail.Images[1].IsPrimary)
	require.Len(t, detail.Tags, 1)
	assert.Equal(t, "api", detail.Tags[0].Slug)
}
