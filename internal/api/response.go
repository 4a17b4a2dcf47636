// Setlist - Music Library Enrichment for Playlist Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package api

import (
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/setlist/internal/logging"
	"github.com/tomtom215/setlist/internal/middleware"
)

// APIResponse is the envelope of every JSON response.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
	Meta    *APIMeta    `json:"meta,omitempty"`
}

// APIError describes a failed request.
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// APIMeta carries per-response metadata.
type APIMeta struct {
	RequestID  string    `json:"request_id,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	DurationMs int64     `json:"duration_ms"`
}

// Error codes
const (
	ErrCodeBadRequest         = "BAD_REQUEST"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeMethodNotAllowed   = "METHOD_NOT_ALLOWED"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	ErrCodeDatabaseError      = "DATABASE_ERROR"
	ErrCodeRateLimited        = "RATE_LIMITED"
)

// ResponseWriter writes APIResponse envelopes.
type ResponseWriter struct {
	w         http.ResponseWriter
	r         *http.Request
	startTime time.Time
}

// NewResponseWriter creates a ResponseWriter for one request.
func NewResponseWriter(w http.ResponseWriter, r *http.Request) *ResponseWriter {
	return &ResponseWriter{w: w, r: r, startTime: time.Now()}
}

func (rw *ResponseWriter) meta() *APIMeta {
	return &APIMeta{
		RequestID:  middleware.GetRequestID(rw.r),
		Timestamp:  time.Now().UTC(),
		DurationMs: time.Since(rw.startTime).Milliseconds(),
	}
}

// Success writes a 200 response with data.
func (rw *ResponseWriter) Success(data interface{}) {
	rw.SuccessWithStatus(http.StatusOK, data)
}

// SuccessWithStatus writes a successful envelope with an explicit status,
// used by health checks that report degraded state with a body.
func (rw *ResponseWriter) SuccessWithStatus(statusCode int, data interface{}) {
	rw.writeJSON(statusCode, APIResponse{Success: statusCode < 400, Data: data, Meta: rw.meta()})
}

// Error writes an error envelope.
func (rw *ResponseWriter) Error(statusCode int, code, message string) {
	meta := rw.meta()
	rw.writeJSON(statusCode, APIResponse{
		Error: &APIError{Code: code, Message: message, RequestID: meta.RequestID},
		Meta:  meta,
	})
}

// BadRequest writes a 400 error.
func (rw *ResponseWriter) BadRequest(message string) {
	rw.Error(http.StatusBadRequest, ErrCodeBadRequest, message)
}

// DatabaseError logs err and writes a 500 without leaking its text.
func (rw *ResponseWriter) DatabaseError(err error) {
	logging.Ctx(rw.r.Context()).Error().Err(err).Str("path", rw.r.URL.Path).Msg("Database error")
	rw.Error(http.StatusInternalServerError, ErrCodeDatabaseError, "A database error occurred")
}

func (rw *ResponseWriter) writeJSON(statusCode int, data interface{}) {
	rw.w.Header().Set("Content-Type", "application/json; charset=utf-8")
	rw.w.WriteHeader(statusCode)

	if err := json.NewEncoder(rw.w).Encode(data); err != nil {
		logging.Ctx(rw.r.Context()).Error().Err(err).Msg("Failed to encode JSON response")
	}
}
