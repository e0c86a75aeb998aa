package handler

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pesokrava/product_directory/internal/domain"
)

func TestAdminHandler_RequiresAdmin(t *testing.T) {
	api := newTestAPI(t)
	p := api.submitApproved("Foo Writer")

	tests := []struct {
		method string
		path   string
		body   any
	}{
		{http.MethodGet, "/admin/products", nil},
		{http.MethodGet, "/admin/reviews", nil},
		{http.MethodPost, "/admin/products/" + p.ID + "/approve", nil},
		{http.MethodPost, "/admin/products/" + p.ID + "/feature", map[string]any{"featured": true}},
		{http.MethodPost, "/admin/products/" + p.ID + "/restore", nil},
		{http.MethodDelete, "/admin/products/" + p.ID, nil},
		{http.MethodPut, "/admin/products/" + p.ID, map[string]any{
			"name": "Foo", "description": "Foo", "category_id": api.category.ID,
		}},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := api.do(tt.method, tt.path, tt.body, api.owner)
			assert.Equal(t, http.StatusForbidden, w.Code, w.Body.String())
			assert.Equal(t, domain.CodePermissionDenied, decode(t, w).Error.Code)
		})
	}
}

func TestAdminHandler_ModerationQueue(t *testing.T) {
	api := newTestAPI(t)
	api.submitApproved("Approved One")

	var pending, rejected productView
	for name, dst := range map[string]*productView{"Pending One": &pending, "Rejected One": &rejected} {
		w := api.do(http.MethodPost, "/products", map[string]any{
			"name":        name,
			"description": name,
			"category_id": api.category.ID,
		}, api.owner)
		require.Equal(t, http.StatusCreated, w.Code)
		decodeData(t, w, dst)
	}

	w := api.do(http.MethodPost, "/admin/products/"+rejected.ID+"/reject", map[string]any{"reason": "spam"}, api.admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var p productView
	decodeData(t, w, &p)
	assert.Equal(t, "rejected", p.Status)

	// Only pending products can be moderated
	w = api.do(http.MethodPost, "/admin/products/"+rejected.ID+"/approve", nil, api.admin)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = api.do(http.MethodGet, "/admin/products?status=pending", nil, api.admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var listed []productView
	env := decodeData(t, w, &listed)
	require.Len(t, listed, 1)
	assert.Equal(t, pending.ID, listed[0].ID)
	require.NotNil(t, env.Counts)
	assert.Equal(t, domain.StatusCounts{All: 3, Pending: 1, Approved: 1, Rejected: 1}, *env.Counts)
}

func TestAdminHandler_RejectWithoutBody(t *testing.T) {
	api := newTestAPI(t)
	w := api.do(http.MethodPost, "/products", map[string]any{
		"name":        "Foo Writer",
		"description": "Writes foo",
		"category_id": api.category.ID,
	}, api.owner)
	require.Equal(t, http.StatusCreated, w.Code)
	var p productView
	decodeData(t, w, &p)

	w = api.do(http.MethodPost, "/admin/products/"+p.ID+"/reject", nil, api.admin)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decodeData(t, w, &p)
	assert.Equal(t, "rejected", p.Status)
}

func TestAdminHandler_FeatureDeleteRestore(t *testing.T) {
	api := newTestAPI(t)
	p := api.submitApproved("Foo Writer")
	api.review(p, api.stranger, 3)

	w := api.do(http.MethodPost, "/admin/products/"+p.ID+"/feature", map[string]any{"featured": true}, api.admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var got productView
	decodeData(t, w, &got)
	assert.True(t, got.IsFeatured)

	w = api.do(http.MethodPost, "/admin/products/"+p.ID+"/restore", nil, api.admin)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = api.do(http.MethodDelete, "/admin/products/"+p.ID, nil, api.admin)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = api.do(http.MethodGet, "/admin/products?include_deleted=true", nil, api.admin)
	var listed []productView
	decodeData(t, w, &listed)
	assert.Len(t, listed, 1)

	w = api.do(http.MethodPost, "/admin/products/"+p.ID+"/restore", nil, api.admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decodeData(t, w, &got)
	assert.Equal(t, 1, got.TotalReviews)

	w = api.do(http.MethodGet, "/products/"+p.Slug, nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAdminHandler_UpdateKeepsStatus(t *testing.T) {
	api := newTestAPI(t)
	p := api.submitApproved("Foo Writer")

	w := api.do(http.MethodPut, "/admin/products/"+p.ID, map[string]any{
		"name":        "Foo Writer",
		"description": "Edited by staff",
		"category_id": api.category.ID,
	}, api.admin)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var got productView
	decodeData(t, w, &got)
	assert.Equal(t, "approved", got.Status)
}

func TestAdminHandler_InvalidID(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(http.MethodPost, "/admin/products/nope/approve", nil, api.admin)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
