// Setlist - Music Library Enrichment for Playlist Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

/*
Package models defines the data structures shared across Setlist.

Key Components:

  - TrackRecord: one track as reported by the library source
  - Track, Artist: persisted entities as read back from the entity store
  - ArtistInfo, TrackInfo, TrackTags: results returned by enrichment sources
  - Watermark, RunRecord: run bookkeeping
  - PhaseSummary, RunSummary: per-run outcome counts reported to the CLI and API

Artist classification (primary or stub) is never stored. Artist.TrackCount
is filled by the store from the live track relation whenever an artist is
read, and Primary derives the classification from it.
*/
package models
