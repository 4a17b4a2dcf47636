// Setlist - Music Library Enrichment for Playlist Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/tomtom215/setlist/internal/models"
)

const (
	defaultRunLimit = 20
	maxRunLimit     = 100
	statusRunLimit  = 5
	pingTimeout     = 2 * time.Second
)

// Store is the read side of the database the API needs.
type Store interface {
	Ping(ctx context.Context) error
	Status(ctx context.Context, recentRuns int) (models.StatusReport, error)
	RecentRuns(ctx context.Context, limit int) ([]models.RunRecord, error)
}

// RunState reports the orchestrator's live state. Satisfied by
// *pipeline.Orchestrator.
type RunState interface {
	Running() bool
	EnabledPhaseNames() []string
}

// Handler serves the status API.
type Handler struct {
	store     Store
	runs      RunState
	startTime time.Time
}

// NewHandler creates a Handler. runs may be nil when no orchestrator is
// attached; status then reports Running false and no phases.
func NewHandler(store Store, runs RunState) *Handler {
	return &Handler{store: store, runs: runs, startTime: time.Now()}
}

// HealthStatus is the body of GET /healthz.
type HealthStatus struct {
	Status            string  `json:"status"` // healthy or degraded
	DatabaseConnected bool    `json:"database_connected"`
	Running           bool    `json:"running"`
	UptimeSeconds     float64 `json:"uptime_seconds"`
}

// Healthz reports liveness. A failed database ping is 503.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
	defer cancel()

	health := HealthStatus{
		Status:            "healthy",
		DatabaseConnected: h.store.Ping(ctx) == nil,
		Running:           h.runs != nil && h.runs.Running(),
		UptimeSeconds:     time.Since(h.startTime).Seconds(),
	}
	code := http.StatusOK
	if !health.DatabaseConnected {
		health.Status = "degraded"
		code = http.StatusServiceUnavailable
	}
	NewResponseWriter(w, r).SuccessWithStatus(code, health)
}

// Status returns the StatusReport.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	report, err := h.store.Status(r.Context(), statusRunLimit)
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	if h.runs != nil {
		report.Running = h.runs.Running()
		report.EnabledPhases = h.runs.EnabledPhaseNames()
	}
	rw.Success(report)
}

// Runs returns run history, newest first.
func (h *Handler) Runs(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	limit := defaultRunLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxRunLimit {
			rw.BadRequest("limit must be an integer between 1 and " + strconv.Itoa(maxRunLimit))
			return
		}
		limit = n
	}

	runs, err := h.store.RecentRuns(r.Context(), limit)
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	if runs == nil {
		runs = []models.RunRecord{}
	}
	rw.Success(runs)
}
