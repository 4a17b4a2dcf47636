// Setlist - Music Library Enrichment for Playlist Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

// Package database is the entity store for Setlist.
//
// # Overview
//
// The store persists the music library (tracks and artists), the metadata
// attached to it by enrichment (external identities, tempo, genre
// associations and the similar-artist graph), per-entity enrichment
// markers, the library watermark and the run history. It is backed by
// DuckDB through the database/sql driver github.com/duckdb/duckdb-go/v2.
//
// # Files
//
//   - database.go: connection lifecycle and transactions
//   - migrations.go: versioned schema
//   - errors.go: typed persistence errors
//   - crud_tracks.go, crud_artists.go, crud_genres.go, crud_similar.go: writes
//   - selectors.go: work-set queries for the enrichment phases
//   - watermark.go: library watermark and run history
//   - stats.go: library counters for status output
//
// # Artist classification
//
// An artist is primary when at least one track references it and a stub
// otherwise. Classification is never stored; every query derives it with
// an EXISTS over the track table, so it is always current.
//
// # Idempotence
//
// Every write is an upsert keyed on a natural key (origin reference, name
// key, genre label, edge pair). Enrichment markers are only rewritten when
// the status changes or the previous marker has aged past the caller's
// staleness bound, so repeating an enrichment pass over unchanged source
// data writes nothing.
//
// # Errors
//
// All failures from the database itself are returned as *Error, which
// matches ErrPersistence with errors.Is. Callers treat those as fatal for
// the current run.
package database
