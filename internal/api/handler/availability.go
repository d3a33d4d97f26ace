package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/apptwatch/apptwatch/internal/api/respond"
	"github.com/apptwatch/apptwatch/internal/availability"
	"github.com/apptwatch/apptwatch/internal/cache"
	"github.com/apptwatch/apptwatch/internal/store"
)

// LocationRow is one office's counts, aligned with SnapshotResponse.Labels.
type LocationRow struct {
	Location string `json:"location"`
	Counts   []int  `json:"counts"`
	Total    int    `json:"total"`
}

// SnapshotResponse is the wide table as JSON.
type SnapshotResponse struct {
	Service string        `json:"service"`
	Labels  []string      `json:"labels"`
	Rows    []LocationRow `json:"rows"`
	Total   int           `json:"total"`
}

// TotalsResponse lists per-office totals across the horizon.
type TotalsResponse struct {
	Service string                       `json:"service"`
	Totals  []availability.LocationCount `json:"totals"`
	Total   int                          `json:"total"`
}

// OutageResponse is the stored outage marker.
type OutageResponse struct {
	Service string `json:"service"`
	availability.OutageMarker
}

// GetSnapshot returns the last stored snapshot.
// @Summary Latest snapshot
// @Description Returns the wide availability table from the last poll: one row per office, one count per day.
// @Tags availability
// @Produce json
// @Param service path string true "Service name" example(premium)
// @Success 200 {object} SnapshotResponse
// @Success 304
// @Failure 404 {object} respond.ErrorResponse "Unknown service or nothing stored yet"
// @Failure 502 {object} respond.ErrorResponse
// @Router /{service}/snapshot [get]
func (h *Handler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	h.serveCached(w, r, cache.ViewSnapshot, func(ctx context.Context, service string) (any, error) {
		snap, err := h.store.Previous(ctx, service)
		if err != nil {
			return nil, err
		}
		resp := SnapshotResponse{Service: service, Labels: snap.Labels(), Total: snap.Total()}
		for _, lc := range snap.Totals() {
			resp.Rows = append(resp.Rows, LocationRow{
				Location: lc.Location,
				Counts:   snap.Row(lc.Location),
				Total:    lc.Count,
			})
		}
		return resp, nil
	})
}

// GetTotals returns per-office totals from the last stored snapshot.
// @Summary Totals per office
// @Description Returns each office's appointment count summed across the horizon.
// @Tags availability
// @Produce json
// @Param service path string true "Service name" example(premium)
// @Success 200 {object} TotalsResponse
// @Success 304
// @Failure 404 {object} respond.ErrorResponse "Unknown service or nothing stored yet"
// @Failure 502 {object} respond.ErrorResponse
// @Router /{service}/totals [get]
func (h *Handler) GetTotals(w http.ResponseWriter, r *http.Request) {
	h.serveCached(w, r, cache.ViewTotals, func(ctx context.Context, service string) (any, error) {
		snap, err := h.store.Previous(ctx, service)
		if err != nil {
			return nil, err
		}
		return TotalsResponse{Service: service, Totals: snap.Totals(), Total: snap.Total()}, nil
	})
}

// GetOutage returns the outage marker.
// @Summary Outage marker
// @Description Returns whether "no appointments" was last announced, and on which day.
// @Tags availability
// @Produce json
// @Param service path string true "Service name" example(premium)
// @Success 200 {object} OutageResponse
// @Success 304
// @Failure 404 {object} respond.ErrorResponse "Unknown service or nothing stored yet"
// @Failure 502 {object} respond.ErrorResponse
// @Router /{service}/outage [get]
func (h *Handler) GetOutage(w http.ResponseWriter, r *http.Request) {
	h.serveCached(w, r, cache.ViewOutage, func(ctx context.Context, service string) (any, error) {
		m, err := h.store.OutageMarker(ctx, service)
		if err != nil {
			return nil, err
		}
		return OutageResponse{Service: service, OutageMarker: m}, nil
	})
}

// serveCached answers from the cache when it can, otherwise builds, encodes
// and caches the view.
func (h *Handler) serveCached(w http.ResponseWriter, r *http.Request, view cache.View,
	build func(ctx context.Context, service string) (any, error)) {
	service := chi.URLParam(r, "service")
	if service != h.cfg.Service {
		respond.Error(w, http.StatusNotFound, "UNKNOWN_SERVICE", "Not monitoring "+service)
		return
	}
	ifNoneMatch := r.Header.Get("If-None-Match")

	e, hit := h.cache.Get(service, view)
	if !hit {
		v, err := build(r.Context(), service)
		if errors.Is(err, store.ErrNotFound) {
			respond.Error(w, http.StatusNotFound, "NOT_FOUND", "Nothing stored yet for "+service)
			return
		}
		if err != nil {
			respond.ErrorDetail(w, http.StatusBadGateway, "STORE_ERROR", "Snapshot store read failed", err.Error())
			return
		}
		data, err := json.Marshal(v)
		if err != nil {
			respond.Error(w, http.StatusInternalServerError, "ENCODE_ERROR", "Failed to encode response")
			return
		}
		e = h.cache.Put(service, view, data)
	}

	if cache.Matches(ifNoneMatch, e.ETag) {
		respond.NotModified(w, e.ETag)
		return
	}
	respond.Cached(w, e, view.TTL(), hit)
}
