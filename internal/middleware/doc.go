// Setlist - Music Library Enrichment for Playlist Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

/*
Package middleware provides the chi middleware of the daemon's status API.

  - RequestID: X-Request-ID propagation, with the id attached to the
    request's logging context as its correlation id
  - PrometheusMetrics: request counts and latency labelled by chi route
    pattern

Usage:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.PrometheusMetrics)
*/
package middleware
