// Setlist - Music Library Enrichment for Playlist Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/setlist/internal/config"
	"github.com/tomtom215/setlist/internal/middleware"
)

const requestTimeout = 30 * time.Second

// RouterOptions configures the cross-cutting middleware of the router.
type RouterOptions struct {
	// CORSOrigins are the browser origins allowed to read the API.
	// Empty disables CORS handling.
	CORSOrigins []string
	CORSMaxAge  int // seconds

	// RateLimitRequests per RateLimitWindow per client IP. Zero disables.
	RateLimitRequests int
	RateLimitWindow   time.Duration
}

// DefaultRouterOptions returns options with CORS off and a per-IP limit
// of 120 requests a minute.
func DefaultRouterOptions() RouterOptions {
	return RouterOptions{
		CORSMaxAge:        300,
		RateLimitRequests: 120,
		RateLimitWindow:   time.Minute,
	}
}

// RouterOptionsFromConfig maps the daemon settings onto RouterOptions.
func RouterOptionsFromConfig(cfg config.DaemonConfig) RouterOptions {
	opts := DefaultRouterOptions()
	opts.CORSOrigins = cfg.CORSOrigins
	opts.RateLimitRequests = cfg.RateLimit
	return opts
}

// NewRouter builds the chi router for h.
func NewRouter(h *Handler, opts RouterOptions) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.PrometheusMetrics)
	if len(opts.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodOptions},
			AllowedHeaders: []string{"Accept", middleware.RequestIDHeader},
			ExposedHeaders: []string{middleware.RequestIDHeader},
			MaxAge:         opts.CORSMaxAge,
		}))
	}
	if opts.RateLimitRequests > 0 {
		r.Use(httprate.Limit(
			opts.RateLimitRequests,
			opts.RateLimitWindow,
			httprate.WithKeyFuncs(httprate.KeyByIP),
			httprate.WithLimitHandler(func(w http.ResponseWriter, req *http.Request) {
				NewResponseWriter(w, req).Error(http.StatusTooManyRequests, ErrCodeRateLimited, "Rate limit exceeded")
			}),
		))
	}
	r.Use(chimiddleware.Timeout(requestTimeout))

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		NewResponseWriter(w, req).Error(http.StatusNotFound, ErrCodeNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		NewResponseWriter(w, req).Error(http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed, "Method not allowed")
	})

	r.Get("/healthz", h.Healthz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/status", h.Status)
		r.Get("/runs", h.Runs)
	})

	return r
}

// NewServer returns an *http.Server for addr serving h.
func NewServer(addr string, h *Handler, opts RouterOptions) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           NewRouter(h, opts),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      requestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
