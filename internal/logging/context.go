// Setlist - Music Library Enrichment for Playlist Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package logging

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type contextKey string

const (
	runIDKey         contextKey = "run_id"
	correlationIDKey contextKey = "correlation_id"
	loggerKey        contextKey = "logger"
)

// NewRunID returns a fresh identifier for one enrichment run.
func NewRunID() string {
	return uuid.New().String()
}

// GenerateCorrelationID returns a short ID for request-scoped correlation.
func GenerateCorrelationID() string {
	return uuid.New().String()[:8]
}

func ContextWithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey, id)
}

func RunIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(runIDKey).(string); ok {
		return id
	}
	return ""
}

func ContextWithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey, id)
}

func CorrelationIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(correlationIDKey).(string); ok {
		return id
	}
	return ""
}

// ContextWithLogger stores a specific logger in ctx, overriding the global one for Ctx.
func ContextWithLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// Ctx returns a logger carrying the run and correlation IDs found in ctx.
func Ctx(ctx context.Context) *zerolog.Logger {
	logger, ok := ctx.Value(loggerKey).(zerolog.Logger)
	if !ok {
		logger = Logger()
	}

	logCtx := logger.With()
	if id := RunIDFromContext(ctx); id != "" {
		logCtx = logCtx.Str("run_id", id)
	}
	if id := CorrelationIDFromContext(ctx); id != "" {
		logCtx = logCtx.Str("correlation_id", id)
	}

	l := logCtx.Logger()
	return &l
}
