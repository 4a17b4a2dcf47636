// Setlist - Music Library Enrichment for Playlist Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

/*
Package sources contains the clients for every external system Setlist talks
to and the rate-limited retry client they share.

Clients:
  - PlexClient: lists the music library section (the library source)
  - LastFMClient: artist identity, genres and similar artists; track identity
    and genres
  - AcousticBrainzClient: tempo by MusicBrainz recording id, single and bulk
  - AcoustIDClient: resolves an AcoustID to a MusicBrainz recording id

Retry client:

Every request goes through a Caller, one per source. A Caller paces requests
with a token bucket (golang.org/x/time/rate), retries transient failures
with capped exponential backoff, and trips a circuit breaker
(github.com/sony/gobreaker/v2) when a source keeps failing. Calls never
return a raw error to the enrichment layer; they return a Result whose
Outcome is one of Found, NoData, Degraded or Canceled:

	res := lastfm.LookupArtist(ctx, "Radiohead", "")
	switch res.Outcome {
	case sources.OutcomeFound:
		// use res.Value
	case sources.OutcomeNoData, sources.OutcomeDegraded:
		// record the attempt, write nothing else
	case sources.OutcomeCanceled:
		// stop the phase
	}

Transient failures are network errors, timeouts, HTTP 5xx, HTTP 429 and the
throttle codes each source defines. HTTP 404 and source "not found" codes
are NoData without a retry. Any other rejection (a bad API key, a malformed
request) is Degraded without a retry and logged at error level.
*/
package sources
