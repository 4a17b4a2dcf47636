// Setlist - Music Library Enrichment for Playlist Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

/*
Package enrich contains one executor per enrichment phase.

An executor receives the ids chosen by its selector, calls a source
through the retry client for each entity, and writes the result through
the store. Executors keep no state between calls; every decision is
re-derived from the store.

# Executors

  - PrimaryFull: Last.fm artist lookup for primary artists, writing
    identity, genres, similar-artist stubs and edges.
  - StubCore: Last.fm artist lookup for stubs, writing identity and
    genres only. The similar list is dropped before it reaches the
    store, so a stub can never become an edge source.
  - TrackGenre: Last.fm track lookup, writing track genres.
  - TempoLookup: AcousticBrainz bulk tempo lookup by recording id.
  - TempoLocal: local analyzer command over the audio file.
  - FileIdentity: MusicBrainz and AcoustID ids read from file tags,
    with AcoustID resolution when only a fingerprint id is tagged.

# Outcomes

Each entity lands in exactly one bucket of models.PhaseSummary:
Updated, Unchanged, NoData or Errors. Lookup-based executors record an
enrichment marker with status enriched, empty or errored. Tempo and
file-identity executors write no marker; their selectors key off the
data itself.

# Aborting

A persistence failure or context cancellation stops the executor
immediately and is returned with the partial summary. The entity in
flight keeps its prior persisted state. Any other per-entity failure is
counted and the executor moves on.
*/
package enrich
