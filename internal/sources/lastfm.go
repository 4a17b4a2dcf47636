// Setlist - Music Library Enrichment for Playlist Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package sources

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/goccy/go-json"

	"github.com/tomtom215/setlist/internal/config"
	"github.com/tomtom215/setlist/internal/models"
)

// SourceLastFM is the Last.fm source name in logs and metrics.
const SourceLastFM = "lastfm"

// Last.fm API error codes.
const (
	lastfmInvalidParameters = 6 // also "artist/track not found"
	lastfmOperationFailed   = 8
	lastfmServiceOffline    = 11
	lastfmTemporaryError    = 16
	lastfmRateLimited       = 29
)

// LastFMClient queries the Last.fm web service for artist and track
// metadata.
type LastFMClient struct {
	http         *httpClient
	apiKey       string
	similarLimit int
	caller       *Caller
}

// NewLastFMClient creates a Last.fm client from configuration.
func NewLastFMClient(cfg config.LastFMConfig, retry config.RetryConfig) *LastFMClient {
	return &LastFMClient{
		http:         newHTTPClient(SourceLastFM, cfg.BaseURL, cfg.Timeout),
		apiKey:       cfg.APIKey,
		similarLimit: cfg.SimilarLimit,
		caller:       NewCaller(SourceLastFM, NewPolicy(retry, cfg.RequestDelay)),
	}
}

// namedList decodes Last.fm lists, which are a JSON array when there are
// several entries and a bare object when there is one.
type namedList []struct {
	Name string `json:"name"`
}

func (l *namedList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) || bytes.Equal(data, []byte(`""`)) {
		*l = nil
		return nil
	}
	type entry = struct {
		Name string `json:"name"`
	}
	if data[0] == '{' {
		var one entry
		if err := json.Unmarshal(data, &one); err != nil {
			return err
		}
		*l = namedList{one}
		return nil
	}
	var many []entry
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*l = namedList(many)
	return nil
}

func (l namedList) names() []string {
	out := make([]string, 0, len(l))
	for _, e := range l {
		if e.Name != "" {
			out = append(out, e.Name)
		}
	}
	return out
}

type lastfmError struct {
	Error   int    `json:"error"`
	Message string `json:"message"`
}

type lastfmArtistInfo struct {
	Artist *struct {
		Name string `json:"name"`
		MBID string `json:"mbid"`
		Tags struct {
			Tag namedList `json:"tag"`
		} `json:"tags"`
		Similar struct {
			Artist namedList `json:"artist"`
		} `json:"similar"`
	} `json:"artist"`
}

type lastfmTrackInfo struct {
	Track *struct {
		Name    string `json:"name"`
		MBID    string `json:"mbid"`
		TopTags struct {
			Tag namedList `json:"tag"`
		} `json:"toptags"`
	} `json:"track"`
}

// LookupArtist fetches identity, genre tags and similar artists for an
// artist. A known MusicBrainz id is sent alongside the name.
func (c *LastFMClient) LookupArtist(ctx context.Context, name, mbid string) Result[models.ArtistInfo] {
	query := url.Values{}
	query.Set("method", "artist.getinfo")
	query.Set("artist", name)
	if mbid != "" {
		query.Set("mbid", mbid)
	}
	query.Set("autocorrect", "1")

	return Call(ctx, c.caller, "artist.getinfo", func(ctx context.Context) (models.ArtistInfo, error) {
		var payload lastfmArtistInfo
		if err := c.query(ctx, query, &payload); err != nil {
			return models.ArtistInfo{}, err
		}
		if payload.Artist == nil {
			return models.ArtistInfo{}, ErrNotFound
		}
		similar := payload.Artist.Similar.Artist.names()
		if c.similarLimit > 0 && len(similar) > c.similarLimit {
			similar = similar[:c.similarLimit]
		}
		info := models.ArtistInfo{
			ExternalID: payload.Artist.MBID,
			Genres:     payload.Artist.Tags.Tag.names(),
			Similar:    similar,
		}
		if info.Empty() {
			return models.ArtistInfo{}, ErrNotFound
		}
		return info, nil
	})
}

// LookupTrack fetches identity and genre tags for a track.
func (c *LastFMClient) LookupTrack(ctx context.Context, artist, title, mbid string) Result[models.TrackInfo] {
	query := url.Values{}
	query.Set("method", "track.getInfo")
	if mbid != "" {
		query.Set("mbid", mbid)
	}
	query.Set("artist", artist)
	query.Set("track", title)
	query.Set("autocorrect", "1")

	return Call(ctx, c.caller, "track.getinfo", func(ctx context.Context) (models.TrackInfo, error) {
		var payload lastfmTrackInfo
		if err := c.query(ctx, query, &payload); err != nil {
			return models.TrackInfo{}, err
		}
		if payload.Track == nil {
			return models.TrackInfo{}, ErrNotFound
		}
		info := models.TrackInfo{
			ExternalID: payload.Track.MBID,
			Genres:     payload.Track.TopTags.Tag.names(),
		}
		if info.Empty() {
			return models.TrackInfo{}, ErrNotFound
		}
		return info, nil
	})
}

// query calls the 2.0 endpoint. Last.fm reports failures as an error
// object in the body, with or without an HTTP error status.
func (c *LastFMClient) query(ctx context.Context, q url.Values, result any) error {
	params := url.Values{}
	for k, v := range q {
		params[k] = v
	}
	params.Set("api_key", c.apiKey)
	params.Set("format", "json")

	resp, err := c.http.get(ctx, requestConfig{path: "/2.0/", query: params})
	if err != nil {
		return err
	}

	var apiErr lastfmError
	if json.Unmarshal(resp.body, &apiErr) == nil && apiErr.Error != 0 {
		return c.classify(resp, apiErr)
	}
	if resp.status != http.StatusOK {
		return c.http.statusError(resp)
	}
	return c.http.decode(resp.body, result)
}

func (c *LastFMClient) classify(resp *response, apiErr lastfmError) error {
	if apiErr.Error == lastfmInvalidParameters {
		return fmt.Errorf("%s: %s: %w", SourceLastFM, apiErr.Message, ErrNotFound)
	}
	se := c.http.statusError(resp)
	se.Code = apiErr.Error
	se.Message = apiErr.Message
	switch apiErr.Error {
	case lastfmOperationFailed, lastfmServiceOffline, lastfmTemporaryError, lastfmRateLimited:
		se.Throttled = true
	}
	return se
}
