// Setlist - Music Library Enrichment for Playlist Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/setlist/internal/database"
	"github.com/tomtom215/setlist/internal/logging"
	"github.com/tomtom215/setlist/internal/models"
	"github.com/tomtom215/setlist/internal/sources"
)

const (
	prefixLastFM       = "lastfm:"
	prefixLastFMArtist = prefixLastFM + "artist:"
	prefixLastFMTrack  = prefixLastFM + "track:"
)

// LastFMLookup is the subset of the Last.fm client the cache decorates.
type LastFMLookup interface {
	LookupArtist(ctx context.Context, name, mbid string) sources.Result[models.ArtistInfo]
	LookupTrack(ctx context.Context, artist, title, mbid string) sources.Result[models.TrackInfo]
}

type cachedArtist struct {
	NoData     bool     `json:"no_data,omitempty"`
	ExternalID string   `json:"mbid,omitempty"`
	Genres     []string `json:"genres,omitempty"`
	Similar    []string `json:"similar,omitempty"`
}

type cachedTrack struct {
	NoData     bool     `json:"no_data,omitempty"`
	ExternalID string   `json:"mbid,omitempty"`
	Genres     []string `json:"genres,omitempty"`
}

// LastFM serves Last.fm lookups from the store when it can and records
// definite answers from the wrapped client. Contexts marked with
// sources.WithFreshLookups always reach the wrapped client.
type LastFM struct {
	next  LastFMLookup
	store *Store
	ttl   time.Duration
}

// NewLastFM wraps next with store. A nil store disables caching.
func NewLastFM(next LastFMLookup, store *Store, ttl time.Duration) *LastFM {
	return &LastFM{next: next, store: store, ttl: ttl}
}

func artistKey(name, mbid string) string {
	return fmt.Sprintf("%s%s|%s", prefixLastFMArtist, database.NameKey(name), mbid)
}

func trackKey(artist, title, mbid string) string {
	return fmt.Sprintf("%s%s|%s|%s", prefixLastFMTrack, database.NameKey(artist), database.NameKey(title), mbid)
}

// LookupArtist implements LastFMLookup.
func (c *LastFM) LookupArtist(ctx context.Context, name, mbid string) sources.Result[models.ArtistInfo] {
	if c.store == nil {
		return c.next.LookupArtist(ctx, name, mbid)
	}
	key := artistKey(name, mbid)

	if !sources.FreshLookups(ctx) {
		var hit cachedArtist
		if ok, err := c.store.Get(key, &hit); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("Lookup cache read failed")
		} else if ok {
			if hit.NoData {
				return sources.Result[models.ArtistInfo]{Outcome: sources.OutcomeNoData, Err: sources.ErrNotFound}
			}
			return sources.Result[models.ArtistInfo]{
				Value:   models.ArtistInfo{ExternalID: hit.ExternalID, Genres: hit.Genres, Similar: hit.Similar},
				Outcome: sources.OutcomeFound,
			}
		}
	}

	res := c.next.LookupArtist(ctx, name, mbid)
	switch res.Outcome {
	case sources.OutcomeFound:
		c.put(ctx, key, cachedArtist{ExternalID: res.Value.ExternalID, Genres: res.Value.Genres, Similar: res.Value.Similar})
	case sources.OutcomeNoData:
		c.put(ctx, key, cachedArtist{NoData: true})
	}
	return res
}

// LookupTrack implements LastFMLookup.
func (c *LastFM) LookupTrack(ctx context.Context, artist, title, mbid string) sources.Result[models.TrackInfo] {
	if c.store == nil {
		return c.next.LookupTrack(ctx, artist, title, mbid)
	}
	key := trackKey(artist, title, mbid)

	if !sources.FreshLookups(ctx) {
		var hit cachedTrack
		if ok, err := c.store.Get(key, &hit); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("Lookup cache read failed")
		} else if ok {
			if hit.NoData {
				return sources.Result[models.TrackInfo]{Outcome: sources.OutcomeNoData, Err: sources.ErrNotFound}
			}
			return sources.Result[models.TrackInfo]{
				Value:   models.TrackInfo{ExternalID: hit.ExternalID, Genres: hit.Genres},
				Outcome: sources.OutcomeFound,
			}
		}
	}

	res := c.next.LookupTrack(ctx, artist, title, mbid)
	switch res.Outcome {
	case sources.OutcomeFound:
		c.put(ctx, key, cachedTrack{ExternalID: res.Value.ExternalID, Genres: res.Value.Genres})
	case sources.OutcomeNoData:
		c.put(ctx, key, cachedTrack{NoData: true})
	}
	return res
}

// Forget drops every cached Last.fm answer.
func (c *LastFM) Forget() (int, error) {
	if c.store == nil {
		return 0, nil
	}
	return c.store.DeletePrefix(prefixLastFM)
}

func (c *LastFM) put(ctx context.Context, key string, v any) {
	if err := c.store.Set(key, v, c.ttl); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("Lookup cache write failed")
	}
}
