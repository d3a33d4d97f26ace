// Package api wires the read-only status API: middleware, routes and the
// swagger UI.
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	corslib "github.com/rs/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/apptwatch/apptwatch/internal/api/handler"
	"github.com/apptwatch/apptwatch/internal/cache"
	"github.com/apptwatch/apptwatch/internal/config"
	"github.com/apptwatch/apptwatch/internal/store"
)

// NewRouter creates and configures the Chi router with all middleware and routes.
// db may be nil for stores without a database.
func NewRouter(s store.SnapshotStore, appCache *cache.Cache, cfg *config.Config, db handler.HealthChecker) *chi.Mux {
	r := chi.NewRouter()

	// --- Middleware stack ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(TimingMiddleware)
	r.Use(middleware.Compress(5)) // gzip

	// CORS
	c := corslib.New(corslib.Options{
		AllowedOrigins:   cfg.CORSAllowOrigins,
		AllowedMethods:   []string{"GET", "HEAD", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Accept-Encoding", "Content-Type", "If-None-Match", "Cache-Control"},
		ExposedHeaders:   []string{"X-Process-Time", "X-Cache", "ETag", "Last-Modified"},
		AllowCredentials: false,
	})
	r.Use(c.Handler)

	// Rate limiting
	if cfg.RateLimitEnabled {
		r.Use(RateLimitMiddleware(cfg.RateLimitRequests, cfg.RateLimitWindow))
	}

	// --- Handler dependencies ---
	h := handler.New(s, appCache, cfg, db)

	// --- Routes ---

	// Root
	r.Get("/", h.Root)

	// Health checks
	r.Route("/health", func(r chi.Router) {
		r.Get("/", h.HealthCheck)
		r.Get("/db", h.HealthCheckDB)
		r.Get("/cache", h.HealthCheckCache)
	})

	// Swagger UI
	r.Get("/docs/*", httpSwagger.Handler(httpSwagger.URL("/docs/doc.json")))

	// API v1 routes
	r.Route("/api/v1/{service}", func(r chi.Router) {
		r.Get("/snapshot", h.GetSnapshot)
		r.Get("/totals", h.GetTotals)
		r.Get("/outage", h.GetOutage)
	})

	return r
}
