// Setlist - Music Library Enrichment for Playlist Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package middleware

import (
	"net/http"

	"github.com/tomtom215/setlist/internal/logging"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

// maxRequestIDLen bounds ids accepted from upstream proxies.
const maxRequestIDLen = 64

// RequestID reuses the caller's X-Request-ID or generates one, echoes it
// in the response and stores it as the logging correlation id.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" || len(id) > maxRequestIDLen {
			id = logging.GenerateCorrelationID()
		}
		w.Header().Set(RequestIDHeader, id)

		ctx := logging.ContextWithCorrelationID(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID returns the id RequestID stored for r.
func GetRequestID(r *http.Request) string {
	return logging.CorrelationIDFromContext(r.Context())
}
