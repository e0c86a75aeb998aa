package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/Pesokrava/product_directory/internal/config"
	"github.com/Pesokrava/product_directory/internal/delivery/http/handler"
	"github.com/Pesokrava/product_directory/internal/delivery/http/middleware"
	"github.com/Pesokrava/product_directory/internal/delivery/http/response"
	"github.com/Pesokrava/product_directory/internal/pkg/logger"
)

// Handlers groups the HTTP handlers served by the router
type Handlers struct {
	Products *handler.ProductHandler
	Reviews  *handler.ReviewHandler
	Admin    *handler.AdminHandler
	Catalog  *handler.CatalogHandler
}

// Router holds HTTP handlers and router configuration
type Router struct {
	handlers Handlers
	auth     *middleware.Authenticator
	logger   *logger.Logger
	cfg      *config.Config
}

// NewRouter creates a new HTTP router
func NewRouter(handlers Handlers, auth *middleware.Authenticator, cfg *config.Config, log *logger.Logger) *Router {
	return &Router{
		handlers: handlers,
		auth:     auth,
		logger:   log,
		cfg:      cfg,
	}
}

// Setup configures and returns the HTTP router
func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(rt.logger))
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   rt.cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	if rt.cfg.Server.RequestTimeout > 0 {
		r.Use(chimw.Timeout(rt.cfg.Server.RequestTimeout))
	}

	r.Get("/health", rt.healthCheck)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(rt.auth.Authenticate)
		r.Use(middleware.Logger(rt.logger))

		r.Route("/products", func(r chi.Router) {
			r.Get("/", rt.handlers.Products.List)
			r.Post("/", rt.handlers.Products.Create)
			r.Get("/{slug}", rt.handlers.Products.Get)
			r.Put("/{slug}", rt.handlers.Products.Update)
			r.Delete("/{slug}", rt.handlers.Products.Delete)
			r.Get("/{slug}/reviews", rt.handlers.Products.ListReviews)
		})

		r.Route("/reviews", func(r chi.Router) {
			r.Get("/", rt.handlers.Reviews.List)
			r.Post("/", rt.handlers.Reviews.Create)
			r.Get("/{id}", rt.handlers.Reviews.Get)
			r.Put("/{id}", rt.handlers.Reviews.Update)
			r.Delete("/{id}", rt.handlers.Reviews.Delete)
			r.Post("/{id}/vote", rt.handlers.Reviews.Vote)
			r.Get("/{id}/vote", rt.handlers.Reviews.GetVote)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Get("/products", rt.handlers.Admin.ListProducts)
			r.Put("/products/{id}", rt.handlers.Admin.UpdateProduct)
			r.Delete("/products/{id}", rt.handlers.Admin.DeleteProduct)
			r.Post("/products/{id}/approve", rt.handlers.Admin.ApproveProduct)
			r.Post("/products/{id}/reject", rt.handlers.Admin.RejectProduct)
			r.Post("/products/{id}/feature", rt.handlers.Admin.FeatureProduct)
			r.Post("/products/{id}/restore", rt.handlers.Admin.RestoreProduct)

			r.Get("/reviews", rt.handlers.Admin.ListReviews)
			r.Post("/reviews/{id}/approve", rt.handlers.Admin.ApproveReview)
			r.Post("/reviews/{id}/reject", rt.handlers.Admin.RejectReview)
		})

		r.Get("/categories", rt.handlers.Catalog.Categories)
		r.Get("/tags", rt.handlers.Catalog.Tags)
		r.Get("/stats", rt.handlers.Catalog.Stats)
		r.Get("/me", rt.handlers.Catalog.Me)
	})

	return r
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}
