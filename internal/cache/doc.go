// Setlist - Music Library Enrichment for Playlist Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

/*
Package cache provides a persistent, TTL-bounded lookup cache backed by
BadgerDB.

Repeated runs over the same library ask Last.fm the same questions. The
cache remembers definite answers (data or a permanent miss) so a re-run
within the TTL does not spend request budget on them. Degraded and
canceled lookups are never cached; they must be retried on the next run.

# Keys

	lastfm:artist:<name key>|<mbid>
	lastfm:track:<artist key>|<title key>|<mbid>

Values are JSON documents written with goccy/go-json. Expiry is enforced
by Badger itself through per-entry TTLs.

# Usage

	store, err := cache.Open(cfg.Cache)
	if err != nil {
	    return err
	}
	defer store.Close()

	lastfm := cache.NewLastFM(sources.NewLastFMClient(cfg.LastFM, cfg.Retry), store, cfg.Cache.TTL)
	res := lastfm.LookupArtist(ctx, "Portishead", "")
*/
package cache
