// Setlist - Music Library Enrichment for Playlist Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/setlist/internal/metrics"
)

func TestPrometheusMetrics_LabelsByRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(PrometheusMetrics)
	r.Get("/api/v1/runs/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	tests := []struct {
		path   string
		route  string
		status string
	}{
		{"/api/v1/runs/42", "/api/v1/runs/{id}", "404"},
		{"/api/v1/runs/43", "/api/v1/runs/{id}", "404"},
		{"/healthz", "/healthz", "200"},
	}

	before := map[string]float64{}
	for _, tt := range tests {
		before[tt.route] = testutil.ToFloat64(metrics.APIRequests.WithLabelValues(http.MethodGet, tt.route, tt.status))
	}

	for _, tt := range tests {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, tt.path, nil))
	}

	if got := testutil.ToFloat64(metrics.APIRequests.WithLabelValues(http.MethodGet, "/api/v1/runs/{id}", "404")) - before["/api/v1/runs/{id}"]; got != 2 {
		t.Errorf("parameterised route count = %v, want 2", got)
	}
	if got := testutil.ToFloat64(metrics.APIRequests.WithLabelValues(http.MethodGet, "/healthz", "200")) - before["/healthz"]; got != 1 {
		t.Errorf("healthz count = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.APIActiveRequests); got != 0 {
		t.Errorf("active requests = %v after all requests finished", got)
	}
}

func TestPrometheusMetrics_FirstStatusWins(t *testing.T) {
	h := PrometheusMetrics(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.WriteHeader(http.StatusOK)
	}))

	before := testutil.ToFloat64(metrics.APIRequests.WithLabelValues(http.MethodGet, unmatchedRoute, "503"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))

	if got := testutil.ToFloat64(metrics.APIRequests.WithLabelValues(http.MethodGet, unmatchedRoute, "503")) - before; got != 1 {
		t.Errorf("503 count = %v, want 1", got)
	}
}
