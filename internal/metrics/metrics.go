// Setlist - Music Library Enrichment for Playlist Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Source call metrics
	SourceCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "setlist_source_calls_total",
			Help: "External source calls by final outcome",
		},
		[]string{"source", "result"}, // result: found, no_data, degraded, canceled
	)

	SourceRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "setlist_source_retries_total",
			Help: "Retry attempts issued after a transient source failure",
		},
		[]string{"source"},
	)

	SourceCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "setlist_source_call_duration_seconds",
			Help:    "Duration of a single source call attempt",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "setlist_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "setlist_circuit_breaker_requests_total",
			Help: "Requests passed through a circuit breaker",
		},
		[]string{"name", "result"}, // result: success, failure, rejected
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "setlist_circuit_breaker_state_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Enrichment metrics
	EnrichmentEntities = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "setlist_enrichment_entities_total",
			Help: "Entities processed by enrichment phase and outcome",
		},
		[]string{"phase", "outcome"}, // outcome: updated, unchanged, no_data, error
	)

	PhaseDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "setlist_enrichment_phase_duration_seconds",
			Help:    "Wall time of one enrichment phase",
			Buckets: []float64{0.1, 1, 10, 60, 300, 900, 3600, 14400},
		},
		[]string{"phase"},
	)

	// Run metrics
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "setlist_runs_total",
			Help: "Completed runs by mode and status",
		},
		[]string{"mode", "status"},
	)

	RunRecords = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "setlist_run_library_records_total",
			Help: "Library records ingested by runs",
		},
		[]string{"mode"},
	)

	WatermarkTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "setlist_run_watermark_timestamp_seconds",
			Help: "Unix time of the latest library entry covered by a successful run",
		},
	)

	LastRunSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "setlist_run_last_success_timestamp_seconds",
			Help: "Unix time the last successful run finished",
		},
	)

	// Status API metrics
	APIRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "setlist_api_requests_total",
			Help: "Status API requests by route and status code",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "setlist_api_request_duration_seconds",
			Help:    "Status API request latency",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1},
		},
		[]string{"method", "route"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "setlist_api_active_requests",
			Help: "Status API requests currently in flight",
		},
	)
)

// RecordSourceCall records the final outcome of one retried call.
func RecordSourceCall(source, result string) {
	SourceCalls.WithLabelValues(source, result).Inc()
}

// RecordSourceAttempt records one attempt's latency, and a retry if it was not the first.
func RecordSourceAttempt(source string, attempt int, duration time.Duration) {
	SourceCallDuration.WithLabelValues(source).Observe(duration.Seconds())
	if attempt > 1 {
		SourceRetries.WithLabelValues(source).Inc()
	}
}

// RecordPhase records per-phase outcome counts and duration.
func RecordPhase(phase string, updated, unchanged, noData, errs int, duration time.Duration) {
	PhaseDuration.WithLabelValues(phase).Observe(duration.Seconds())
	add := func(outcome string, n int) {
		if n > 0 {
			EnrichmentEntities.WithLabelValues(phase, outcome).Add(float64(n))
		}
	}
	add("updated", updated)
	add("unchanged", unchanged)
	add("no_data", noData)
	add("error", errs)
}

// RecordRun records a finished run. A zero watermark leaves the gauge untouched.
func RecordRun(mode string, records int, err error, watermark time.Time) {
	RunRecords.WithLabelValues(mode).Add(float64(records))
	if err != nil {
		RunsTotal.WithLabelValues(mode, "failed").Inc()
		return
	}
	RunsTotal.WithLabelValues(mode, "succeeded").Inc()
	LastRunSuccess.Set(float64(time.Now().Unix()))
	if !watermark.IsZero() {
		WatermarkTimestamp.Set(float64(watermark.Unix()))
	}
}

// RecordAPIRequest records one status API request. route is the matched
// route pattern, never the raw path.
func RecordAPIRequest(method, route, status string, duration time.Duration) {
	APIRequests.WithLabelValues(method, route, status).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// TrackActiveRequest adjusts the in-flight request gauge.
func TrackActiveRequest(start bool) {
	if start {
		APIActiveRequests.Inc()
		return
	}
	APIActiveRequests.Dec()
}
