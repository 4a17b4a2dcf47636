// Setlist - Music Library Enrichment for Playlist Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

/*
Package pipeline sequences enrichment phases into runs and owns the run
watermark.

# Phases

Phases run in a fixed order:

	file_identity  tags (and AcoustID) give tracks a recording id
	primary_full   Last.fm artist info with similar artists
	stub_core      Last.fm artist info for stubs, no similar artists
	track_genre    Last.fm track tags
	tempo_lookup   AcousticBrainz bulk tempo
	tempo_local    local analyzer

Each phase pairs a selector from the database package with an executor
from the enrich package. A phase is skipped when it is not listed in
enrichment.phases or its source is disabled.

# Runs

Full: list the whole library, upsert it, run every phase with the
re-attempt horizons active, then advance the watermark.

Incremental: list library entries added since the watermark, upsert them,
run marker phases over never-attempted entities and data phases over the
changed tracks, then advance the watermark.

Refresh: force every phase over the named artists and their tracks. The
watermark is not touched. A dry run reports the selection only.

A library listing failure, a persistence failure or cancellation fails
the run. The watermark only moves after every phase has completed.
Every non-dry run is recorded in run_history.
*/
package pipeline
