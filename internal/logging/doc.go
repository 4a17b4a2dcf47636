// Setlist - Music Library Enrichment for Playlist Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

// Package logging provides the zerolog-based structured logger used across Setlist.
//
// The logger is process-wide: it is configured once at startup with Init and
// then used through the package-level event constructors.
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//	logging.Info().Str("phase", "primary_full").Int("selected", 12).Msg("Phase started")
//
// Enrichment runs attach a run ID to the context so every log line emitted
// while processing a run can be correlated:
//
//	ctx = logging.ContextWithRunID(ctx, runID)
//	logging.Ctx(ctx).Warn().Str("source", "lastfm").Msg("Retrying lookup")
//
// # Output Formats
//
//   - json: one JSON object per line (default, for log shippers)
//   - console: human-readable, colorized output for interactive use
//
// # slog Integration
//
// Suture's event hook (via sutureslog) expects a *slog.Logger. NewSlogLogger
// returns one that forwards every record to the zerolog logger, so supervisor
// events share the same output and format as the rest of the application.
package logging
