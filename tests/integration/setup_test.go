//go:build integration
// +build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/Pesokrava/product_directory/internal/config"
	"github.com/Pesokrava/product_directory/internal/delivery/events"
	httpDelivery "github.com/Pesokrava/product_directory/internal/delivery/http"
	"github.com/Pesokrava/product_directory/internal/delivery/http/handler"
	"github.com/Pesokrava/product_directory/internal/delivery/http/middleware"
	"github.com/Pesokrava/product_directory/internal/domain"
	"github.com/Pesokrava/product_directory/internal/pkg/cache"
	"github.com/Pesokrava/product_directory/internal/pkg/database"
	"github.com/Pesokrava/product_directory/internal/pkg/logger"
	cacheRepo "github.com/Pesokrava/product_directory/internal/repository/cache"
	"github.com/Pesokrava/product_directory/internal/repository/postgres"
	"github.com/Pesokrava/product_directory/internal/usecase/catalog"
	"github.com/Pesokrava/product_directory/internal/usecase/product"
	"github.com/Pesokrava/product_directory/internal/usecase/review"
	"github.com/Pesokrava/product_directory/internal/usecase/vote"
)

const testSecret = "integration-secret"

type testEnv struct {
	t        *testing.T
	cfg      *config.Config
	log      *logger.Logger
	db       *sqlx.DB
	store    *postgres.Store
	cache    *cacheRepo.RedisCache
	server   http.Handler
	auth     *middleware.Authenticator
	category uuid.UUID
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	cfg, err := config.Load()
	require.NoError(t, err)
	log := logger.New(cfg.Env)

	db, err := database.WaitForDB(ctx, cfg, 5, 2*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.RunMigrations(ctx, db))

	redisClient, err := cache.WaitForRedis(ctx, cfg, 5, 2*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = redisClient.Close() })

	publisher, err := events.NewPublisher(cfg, log)
	require.NoError(t, err)
	t.Cleanup(publisher.Close)

	store := postgres.NewStore(db)
	readCache := cacheRepo.NewRedisCache(redisClient, cfg.Cache.ProductTTL, cfg.Cache.ReviewsListTTL, cfg.Cache.StatsTTL)

	products := product.NewService(store, readCache, publisher, log)
	reviews := review.NewService(store, readCache, publisher, log, domain.ReviewApproved)
	votes := vote.NewService(store, readCache, publisher, log)
	auth := middleware.NewAuthenticator(testSecret, "", log)

	router := httpDelivery.NewRouter(httpDelivery.Handlers{
		Products: handler.NewProductHandler(products, reviews, log),
		Reviews:  handler.NewReviewHandler(reviews, votes, log),
		Admin:    handler.NewAdminHandler(products, reviews, log),
		Catalog:  handler.NewCatalogHandler(catalog.NewService(store, readCache, log), log),
	}, auth, cfg, log)

	env := &testEnv{
		t:      t,
		cfg:    cfg,
		log:    log,
		db:     db,
		store:  store,
		cache:  readCache,
		server: router.Setup(),
		auth:   auth,
	}

	slug := "integration-" + uuid.NewString()[:8]
	require.NoError(t, db.GetContext(ctx, &env.category,
		`INSERT INTO categories (name, slug) VALUES ($1, $2) RETURNING id`, slug, slug))

	return env
}

// user inserts a reference user and returns its actor
func (e *testEnv) user(role domain.Role) *domain.Actor {
	e.t.Helper()
	var id uuid.UUID
	email := uuid.NewString() + "@example.com"
	require.NoError(e.t, e.db.GetContext(context.Background(), &id,
		`INSERT INTO users (email, role) VALUES ($1, $2) RETURNING id`, email, string(role)))
	return &domain.Actor{UserID: id, Role: role}
}

func (e *testEnv) do(method, path string, body any, actor *domain.Actor) *httptest.ResponseRecorder {
	e.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(e.t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if actor != nil {
		token, err := e.auth.Issue(*actor)
		require.NoError(e.t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.server.ServeHTTP(w, req)
	return w
}

// data decodes the data field of a success envelope
func data(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var env struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env.Data
}

// approvedProduct submits a product as owner and approves it as admin, returning its ID and slug
func (e *testEnv) approvedProduct(owner, admin *domain.Actor) (string, string) {
	e.t.Helper()
	name := fmt.Sprintf("Integration Product %s", uuid.NewString()[:8])
	w := e.do(http.MethodPost, "/api/v1/products", map[string]any{
		"name":        name,
		"description": "Created by the integration suite",
		"category_id": e.category,
	}, owner)
	require.Equal(e.t, http.StatusCreated, w.Code, w.Body.String())
	created := data(e.t, w)
	id := created["id"].(string)

	w = e.do(http.MethodPost, "/api/v1/admin/products/"+id+"/approve", nil, admin)
	require.Equal(e.t, http.StatusOK, w.Code, w.Body.String())
	return id, created["slug"].(string)
}
