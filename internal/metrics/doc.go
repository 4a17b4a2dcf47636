// Setlist - Music Library Enrichment for Playlist Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

// Package metrics defines the Prometheus instrumentation for Setlist.
//
// All collectors are registered with the default registry via promauto and
// exposed by the daemon's /metrics endpoint. One-shot CLI runs record into
// the same collectors; they are simply never scraped.
//
// Metric families:
//   - setlist_source_*: external source calls, retries and degraded results
//   - setlist_circuit_breaker_*: per-source breaker state
//   - setlist_enrichment_*: per-phase entity outcomes and durations
//   - setlist_run_*: run outcomes and the persisted watermark
package metrics
