// Setlist - Music Library Enrichment for Playlist Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package sources

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/setlist/internal/logging"
	"github.com/tomtom215/setlist/internal/metrics"
)

// BreakerSettings tunes a source's circuit breaker.
type BreakerSettings struct {
	// MinRequests is the number of requests in the window before the
	// failure ratio is evaluated.
	MinRequests uint32
	// FailureRatio opens the circuit when reached.
	FailureRatio float64
	// Interval resets counts while closed.
	Interval time.Duration
	// Timeout is how long the circuit stays open before probing.
	Timeout time.Duration
	// HalfOpenRequests is the number of probes allowed while half-open.
	HalfOpenRequests uint32
}

// DefaultBreakerSettings opens after a 60% failure rate over at least 10
// requests and probes again after two minutes.
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		MinRequests:      10,
		FailureRatio:     0.6,
		Interval:         time.Minute,
		Timeout:          2 * time.Minute,
		HalfOpenRequests: 3,
	}
}

// newBreaker builds the circuit breaker for one source. Permanent misses
// and cancellations count as successes so they never trip the circuit.
func newBreaker(source string, s BreakerSettings) *gobreaker.CircuitBreaker[any] {
	name := source + "-api"

	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	return gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        name,
		MaxRequests: s.HalfOpenRequests,
		Interval:    s.Interval,
		Timeout:     s.Timeout,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < s.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			shouldTrip := failureRatio >= s.FailureRatio
			if shouldTrip {
				logging.Warn().
					Str("breaker", name).
					Uint32("failures", counts.TotalFailures).
					Float64("failure_rate", failureRatio*100).
					Msg("[CIRCUIT BREAKER] Opening circuit")
			}
			return shouldTrip
		},

		IsSuccessful: func(err error) bool {
			return err == nil ||
				IsNotFound(err) ||
				errors.Is(err, context.Canceled) ||
				errors.Is(err, ErrMalformedResponse)
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr := stateToString(from)
			toStr := stateToString(to)
			logging.Info().Str("breaker", name).Str("from", fromStr).Str("to", toStr).Msg("[CIRCUIT BREAKER] State transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
		},
	})
}

// isBreakerRejection reports whether the breaker refused to run the call.
func isBreakerRejection(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

// stateToFloat converts circuit breaker state to numeric value for metrics
func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// stateToString converts circuit breaker state to string for logging
func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
