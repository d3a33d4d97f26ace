// Package handler provides HTTP handlers for all API endpoints.
// Handlers read straight from the snapshot store; encoded responses are
// cached per service and dropped when a new snapshot is stored.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/apptwatch/apptwatch/internal/api/respond"
	"github.com/apptwatch/apptwatch/internal/cache"
	"github.com/apptwatch/apptwatch/internal/config"
	"github.com/apptwatch/apptwatch/internal/store"
)

// HealthChecker verifies a backing database. *db.Pool implements it.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Handler holds shared dependencies for all endpoint handlers.
type Handler struct {
	store store.SnapshotStore
	cache *cache.Cache
	cfg   *config.Config
	db    HealthChecker
}

// New creates a Handler with shared dependencies. db may be nil when the
// store is not database backed.
func New(s store.SnapshotStore, c *cache.Cache, cfg *config.Config, db HealthChecker) *Handler {
	return &Handler{
		store: s,
		cache: c,
		cfg:   cfg,
		db:    db,
	}
}

// Root serves API info at /.
// @Summary API root info
// @Description Returns API name, version, status and the monitored service.
// @Tags meta
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router / [get]
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, map[string]interface{}{
		"name":    "apptwatch",
		"version": "1.0.0",
		"status":  "running",
		"docs":    "/docs",
		"service": h.cfg.Service,
		"store":   h.cfg.StoreBackend,
	})
}

// HealthResponse is returned by the /health endpoints.
type HealthResponse struct {
	Status    string       `json:"status"`
	Service   string       `json:"service"`
	Store     string       `json:"store"`
	Database  string       `json:"database,omitempty"`
	Error     string       `json:"error,omitempty"`
	Cache     *cache.Stats `json:"cache,omitempty"`
	Timestamp string       `json:"timestamp"`
}

func (h *Handler) health(status string) HealthResponse {
	return HealthResponse{
		Status:    status,
		Service:   h.cfg.Service,
		Store:     h.cfg.StoreBackend,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// HealthCheck returns basic health status.
// @Summary Health check
// @Description Returns liveness, the monitored service and the store backend.
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, h.health("healthy"))
}

// HealthCheckDB verifies database connectivity.
// @Summary Database health check
// @Description Verifies Postgres connectivity. Reports "not_configured" for other store backends.
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /health/db [get]
func (h *Handler) HealthCheckDB(w http.ResponseWriter, r *http.Request) {
	resp := h.health("healthy")
	switch {
	case h.db == nil:
		resp.Database = "not_configured"
	case h.db.HealthCheck(r.Context()) != nil:
		resp.Status = "unhealthy"
		resp.Database = "disconnected"
		resp.Error = "Database connection check failed"
		respond.JSON(w, http.StatusServiceUnavailable, resp)
		return
	default:
		resp.Database = "connected"
	}
	respond.JSON(w, http.StatusOK, resp)
}

// HealthCheckCache returns cache statistics.
// @Summary Cache health check
// @Description Returns response cache statistics (entries, hits, misses, invalidations).
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health/cache [get]
func (h *Handler) HealthCheckCache(w http.ResponseWriter, r *http.Request) {
	resp := h.health("healthy")
	stats := h.cache.Stats()
	resp.Cache = &stats
	respond.JSON(w, http.StatusOK, resp)
}
