package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/Pesokrava/product_directory/internal/delivery/events"
	"github.com/Pesokrava/product_directory/internal/delivery/http/middleware"
	"github.com/Pesokrava/product_directory/internal/delivery/http/response"
	"github.com/Pesokrava/product_directory/internal/domain"
	"github.com/Pesokrava/product_directory/internal/pkg/logger"
	"github.com/Pesokrava/product_directory/internal/repository/cache"
	"github.com/Pesokrava/product_directory/internal/repository/memory"
	"github.com/Pesokrava/product_directory/internal/usecase/catalog"
	"github.com/Pesokrava/product_directory/internal/usecase/product"
	"github.com/Pesokrava/product_directory/internal/usecase/review"
	"github.com/Pesokrava/product_directory/internal/usecase/vote"
)

// envelope is the union of the success, paginated and error bodies
type envelope struct {
	Success    bool                 `json:"success"`
	Data       json.RawMessage      `json:"data"`
	Pagination *domain.PageInfo     `json:"pagination"`
	Counts     *domain.StatusCounts `json:"counts"`
	Error      response.ErrorDetail `json:"error"`
}

type testAPI struct {
	t        *testing.T
	router   http.Handler
	auth     *middleware.Authenticator
	store    *memory.Store
	owner    *domain.Actor
	stranger *domain.Actor
	admin    *domain.Actor
	category domain.Category
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	log := logger.Nop()
	store := memory.NewStore()
	owner := store.AddUser(domain.User{Email: "owner@example.com"})
	stranger := store.AddUser(domain.User{Email: "stranger@example.com"})
	admin := store.AddUser(domain.User{Email: "admin@example.com", Role: domain.RoleAdmin})
	category := store.AddCategory(domain.Category{Name: "Writing", Slug: "writing"})

	publisher := events.NoopPublisher{}
	products := product.NewService(store, cache.Noop{}, publisher, log)
	reviews := review.NewService(store, cache.Noop{}, publisher, log, domain.ReviewApproved)
	votes := vote.NewService(store, cache.Noop{}, publisher, log)

	productHandler := NewProductHandler(products, reviews, log)
	reviewHandler := NewReviewHandler(reviews, votes, log)
	adminHandler := NewAdminHandler(products, reviews, log)
	catalogHandler := NewCatalogHandler(catalog.NewService(store, cache.Noop{}, log), log)

	auth := middleware.NewAuthenticator("test-secret", "", log)

	r := chi.NewRouter()
	r.Use(auth.Authenticate)
	r.Route("/products", func(r chi.Router) {
		r.Get("/", productHandler.List)
		r.Post("/", productHandler.Create)
		r.Get("/{slug}", productHandler.Get)
		r.Put("/{slug}", productHandler.Update)
		r.Delete("/{slug}", productHandler.Delete)
		r.Get("/{slug}/reviews", productHandler.ListReviews)
	})
	r.Route("/reviews", func(r chi.Router) {
		r.Get("/", reviewHandler.List)
		r.Post("/", reviewHandler.Create)
		r.Get("/{id}", reviewHandler.Get)
		r.Put("/{id}", reviewHandler.Update)
		r.Delete("/{id}", reviewHandler.Delete)
		r.Post("/{id}/vote", reviewHandler.Vote)
		r.Get("/{id}/vote", reviewHandler.GetVote)
	})
	r.Route("/admin", func(r chi.Router) {
		r.Get("/products", adminHandler.ListProducts)
		r.Put("/products/{id}", adminHandler.UpdateProduct)
		r.Delete("/products/{id}", adminHandler.DeleteProduct)
		r.Post("/products/{id}/approve", adminHandler.ApproveProduct)
		r.Post("/products/{id}/reject", adminHandler.RejectProduct)
		r.Post("/products/{id}/feature", adminHandler.FeatureProduct)
		r.Post("/products/{id}/restore", adminHandler.RestoreProduct)
		r.Get("/reviews", adminHandler.ListReviews)
		r.Post("/reviews/{id}/approve", adminHandler.ApproveReview)
		r.Post("/reviews/{id}/reject", adminHandler.RejectReview)
	})
	r.Get("/categories", catalogHandler.Categories)
	r.Get("/tags", catalogHandler.Tags)
	r.Get("/stats", catalogHandler.Stats)
	r.Get("/me", catalogHandler.Me)

	return &testAPI{
		t:        t,
		router:   r,
		auth:     auth,
		store:    store,
		owner:    &domain.Actor{UserID: owner.ID, Role: domain.RoleUser},
		stranger: &domain.Actor{UserID: stranger.ID, Role: domain.RoleUser},
		admin:    &domain.Actor{UserID: admin.ID, Role: domain.RoleAdmin},
		category: category,
	}
}

// newUser registers another signed-in user
func (a *testAPI) newUser(email string) *domain.Actor {
	u := a.store.AddUser(domain.User{Email: email})
	return &domain.Actor{UserID: u.ID, Role: domain.RoleUser}
}

// do sends a request as actor (nil for anonymous). A string body is sent verbatim.
func (a *testAPI) do(method, path string, body any, actor *domain.Actor) *httptest.ResponseRecorder {
	a.t.Helper()

	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(a.t, json.NewEncoder(&buf).Encode(b))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if actor != nil {
		token, err := a.auth.Issue(*actor)
		require.NoError(a.t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, dst any) envelope {
	t.Helper()
	env := decode(t, w)
	require.NoError(t, json.Unmarshal(env.Data, dst))
	return env
}

// productView is the subset of product fields the tests inspect
type productView struct {
	ID            string  `json:"id"`
	Slug          string  `json:"slug"`
	Status        string  `json:"status"`
	AverageRating float64 `json:"average_rating"`
	TotalReviews  int     `json:"total_reviews"`
	IsFeatured    bool    `json:"is_featured"`
}

type reviewView struct {
	ID           string `json:"id"`
	Rating       int    `json:"rating"`
	Status       string `json:"status"`
	HelpfulCount int    `json:"helpful_count"`
}

// submitApproved creates a product as the owner and approves it as admin
func (a *testAPI) submitApproved(name string) productView {
	a.t.Helper()
	w := a.do(http.MethodPost, "/products", map[string]any{
		"name":        name,
		"description": name + " does things",
		"category_id": a.category.ID,
	}, a.owner)
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())

	var p productView
	decodeData(a.t, w, &p)

	w = a.do(http.MethodPost, "/admin/products/"+p.ID+"/approve", nil, a.admin)
	require.Equal(a.t, http.StatusOK, w.Code, w.Body.String())
	decodeData(a.t, w, &p)
	return p
}

// review posts a review as actor and returns it
func (a *testAPI) review(p productView, actor *domain.Actor, rating int) reviewView {
	a.t.Helper()
	w := a.do(http.MethodPost, "/reviews", map[string]any{
		"product_id": p.ID,
		"rating":     rating,
		"content":    "tried it",
	}, actor)
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())

	var r reviewView
	decodeData(a.t, w, &r)
	return r
}
