// Setlist - Music Library Enrichment for Playlist Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package sources

import (
	"context"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/tomtom215/setlist/internal/config"
	"github.com/tomtom215/setlist/internal/logging"
	"github.com/tomtom215/setlist/internal/metrics"
)

// Outcome classifies the final result of a retried source call.
type Outcome int

const (
	// OutcomeFound means the source returned data.
	OutcomeFound Outcome = iota
	// OutcomeNoData means the source answered with a permanent miss.
	OutcomeNoData
	// OutcomeDegraded means retries were exhausted, the circuit was open,
	// or the source rejected the request.
	OutcomeDegraded
	// OutcomeCanceled means the caller's context ended.
	OutcomeCanceled
)

func (o Outcome) String() string {
	switch o {
	case OutcomeFound:
		return "found"
	case OutcomeNoData:
		return "no_data"
	case OutcomeDegraded:
		return "degraded"
	case OutcomeCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Policy is the pacing and retry policy of one source.
type Policy struct {
	// RequestDelay is the minimum spacing between requests. Zero is unpaced.
	RequestDelay time.Duration
	MaxAttempts  int
	BaseDelay    time.Duration
	MaxDelay     time.Duration
	// MaxRetryAfter caps server-requested waits. Zero is unbounded.
	MaxRetryAfter time.Duration
	Breaker       BreakerSettings
}

// NewPolicy combines the shared retry settings with a source's pacing.
func NewPolicy(retry config.RetryConfig, requestDelay time.Duration) Policy {
	return Policy{
		RequestDelay:  requestDelay,
		MaxAttempts:   retry.MaxAttempts,
		BaseDelay:     retry.BaseDelay,
		MaxDelay:      retry.MaxDelay,
		MaxRetryAfter: retry.MaxRetryAfter,
		Breaker:       DefaultBreakerSettings(),
	}
}

// backoff returns the wait after the given failed attempt (1-based):
// BaseDelay doubled per attempt, capped at MaxDelay. A server-requested
// delay replaces the computed one.
func (p Policy) backoff(attempt int, retryAfter time.Duration) time.Duration {
	if retryAfter > 0 {
		return retryAfter
	}
	d := p.BaseDelay
	for i := 1; i < attempt; i++ {
		d *= 2
		if p.MaxDelay > 0 && d >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if p.MaxDelay > 0 && d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}

// Caller paces, retries and circuit-breaks calls to one source. A Caller
// is safe for concurrent use, though Setlist issues one call at a time
// per source.
type Caller struct {
	source  string
	policy  Policy
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[any]

	// sleep waits between retries; tests replace it.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewCaller creates the Caller for source.
func NewCaller(source string, policy Policy) *Caller {
	limit := rate.Inf
	if policy.RequestDelay > 0 {
		limit = rate.Every(policy.RequestDelay)
	}
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	return &Caller{
		source:  source,
		policy:  policy,
		limiter: rate.NewLimiter(limit, 1),
		breaker: newBreaker(source, policy.Breaker),
		sleep:   sleepContext,
	}
}

// Source returns the source name used in logs and metrics.
func (c *Caller) Source() string {
	return c.source
}

// Result is the outcome of a retried call. Value is only meaningful when
// Outcome is OutcomeFound; Err holds the last failure otherwise.
type Result[T any] struct {
	Value    T
	Outcome  Outcome
	Err      error
	Attempts int
}

// Found reports whether the call produced data.
func (r Result[T]) Found() bool {
	return r.Outcome == OutcomeFound
}

// Call runs fn under c's pacing, retry and breaker policy. op names the
// operation in logs. Call never returns an error to the caller; the
// outcome carries the classification.
func Call[T any](ctx context.Context, c *Caller, op string, fn func(ctx context.Context) (T, error)) Result[T] {
	log := logging.Ctx(ctx).With().Str("source", c.source).Str("op", op).Logger()

	var lastErr error
	for attempt := 1; attempt <= c.policy.MaxAttempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return finish(c, Result[T]{Outcome: OutcomeCanceled, Err: ctxErr(ctx, err), Attempts: attempt - 1})
		}

		start := time.Now()
		out, err := c.breaker.Execute(func() (any, error) {
			return fn(ctx)
		})
		metrics.RecordSourceAttempt(c.source, attempt, time.Since(start))

		switch {
		case err == nil:
			metrics.CircuitBreakerRequests.WithLabelValues(c.source+"-api", "success").Inc()
			v, _ := out.(T)
			return finish(c, Result[T]{Value: v, Outcome: OutcomeFound, Attempts: attempt})

		case ctx.Err() != nil:
			return finish(c, Result[T]{Outcome: OutcomeCanceled, Err: ctx.Err(), Attempts: attempt})

		case isBreakerRejection(err):
			metrics.CircuitBreakerRequests.WithLabelValues(c.source+"-api", "rejected").Inc()
			log.Warn().Err(err).Msg("Source circuit open, skipping call")
			return finish(c, Result[T]{Outcome: OutcomeDegraded, Err: err, Attempts: attempt})

		case IsNotFound(err):
			metrics.CircuitBreakerRequests.WithLabelValues(c.source+"-api", "success").Inc()
			return finish(c, Result[T]{Outcome: OutcomeNoData, Err: err, Attempts: attempt})

		case !IsTransient(err):
			metrics.CircuitBreakerRequests.WithLabelValues(c.source+"-api", "failure").Inc()
			log.Error().Err(err).Int("attempt", attempt).Msg("Source rejected request")
			return finish(c, Result[T]{Outcome: OutcomeDegraded, Err: err, Attempts: attempt})
		}

		metrics.CircuitBreakerRequests.WithLabelValues(c.source+"-api", "failure").Inc()
		lastErr = err
		if attempt == c.policy.MaxAttempts {
			break
		}

		retryAfter := retryAfterOf(err)
		if c.policy.MaxRetryAfter > 0 && retryAfter > c.policy.MaxRetryAfter {
			log.Warn().
				Err(err).
				Dur("retry_after", retryAfter).
				Dur("max_retry_after", c.policy.MaxRetryAfter).
				Msg("Source asked for a longer wait than allowed, giving up")
			return finish(c, Result[T]{Outcome: OutcomeDegraded, Err: err, Attempts: attempt})
		}

		delay := c.policy.backoff(attempt, retryAfter)
		log.Warn().
			Err(err).
			Int("attempt", attempt).
			Int("max_attempts", c.policy.MaxAttempts).
			Dur("retry_delay", delay).
			Msg("Source call failed, retrying")

		if err := c.sleep(ctx, delay); err != nil {
			return finish(c, Result[T]{Outcome: OutcomeCanceled, Err: ctxErr(ctx, err), Attempts: attempt})
		}
	}

	log.Error().Err(lastErr).Int("attempts", c.policy.MaxAttempts).Msg("Source call failed after retries")
	return finish(c, Result[T]{Outcome: OutcomeDegraded, Err: lastErr, Attempts: c.policy.MaxAttempts})
}

func finish[T any](c *Caller, r Result[T]) Result[T] {
	metrics.RecordSourceCall(c.source, r.Outcome.String())
	return r
}

func ctxErr(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
