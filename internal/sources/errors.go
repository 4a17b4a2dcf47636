// Setlist - Music Library Enrichment for Playlist Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package sources

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

var (
	// ErrNotFound means the source answered and has nothing for the entity.
	ErrNotFound = errors.New("not found")

	// ErrMalformedResponse means the source answered with a body that
	// could not be decoded. It is not retried.
	ErrMalformedResponse = errors.New("malformed response")
)

// StatusError is a non-success answer from a source, either an HTTP
// status or an error code carried in the response body.
type StatusError struct {
	Source     string
	StatusCode int
	// Code is the source-specific error code, 0 when absent.
	Code    int
	Message string
	// RetryAfter is the server-requested wait before the next attempt.
	RetryAfter time.Duration
	// Throttled marks source codes that mean "slow down" or "try later".
	Throttled bool
}

func (e *StatusError) Error() string {
	switch {
	case e.Code != 0 && e.Message != "":
		return fmt.Sprintf("%s: error %d: %s (HTTP %d)", e.Source, e.Code, e.Message, e.StatusCode)
	case e.Message != "":
		return fmt.Sprintf("%s: HTTP %d: %s", e.Source, e.StatusCode, e.Message)
	default:
		return fmt.Sprintf("%s: HTTP %d", e.Source, e.StatusCode)
	}
}

// IsNotFound reports whether err is a permanent miss.
func IsNotFound(err error) bool {
	if errors.Is(err, ErrNotFound) {
		return true
	}
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusNotFound && se.Code == 0
}

// IsTransient reports whether a failed attempt may succeed when retried.
// Errors that are neither status errors nor malformed responses are
// treated as network failures and are transient.
func IsTransient(err error) bool {
	if err == nil || IsNotFound(err) || errors.Is(err, ErrMalformedResponse) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Throttled ||
			se.StatusCode == http.StatusTooManyRequests ||
			se.StatusCode >= http.StatusInternalServerError
	}
	return true
}

// retryAfterOf returns the server-requested delay carried by err, if any.
func retryAfterOf(err error) time.Duration {
	var se *StatusError
	if errors.As(err, &se) {
		return se.RetryAfter
	}
	return 0
}
