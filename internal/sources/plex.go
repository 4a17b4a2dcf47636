// Setlist - Music Library Enrichment for Playlist Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tomtom215/setlist/internal/config"
	"github.com/tomtom215/setlist/internal/logging"
	"github.com/tomtom215/setlist/internal/models"
)

// SourcePlex is the library source name in logs and metrics.
const SourcePlex = "plex"

// plexTrackType is the Plex metadata type for tracks.
const plexTrackType = "10"

// variousArtists is the album-artist placeholder Plex uses for compilations.
const variousArtists = "various artists"

// PlexClient lists the tracks of one Plex music library section.
type PlexClient struct {
	http     *httpClient
	token    string
	section  string
	pageSize int
	caller   *Caller
}

// NewPlexClient creates a library client from configuration.
func NewPlexClient(cfg config.PlexConfig, retry config.RetryConfig) *PlexClient {
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 500
	}
	return &PlexClient{
		http:     newHTTPClient(SourcePlex, cfg.URL, cfg.Timeout),
		token:    cfg.Token,
		section:  cfg.Section,
		pageSize: pageSize,
		caller:   NewCaller(SourcePlex, NewPolicy(retry, cfg.RequestDelay)),
	}
}

// plexContainer is the envelope of a Plex library listing.
type plexContainer struct {
	MediaContainer struct {
		Size      int             `json:"size"`
		TotalSize int             `json:"totalSize"`
		Offset    int             `json:"offset"`
		Metadata  []plexTrackItem `json:"Metadata"`
	} `json:"MediaContainer"`
}

type plexTrackItem struct {
	RatingKey        string `json:"ratingKey"`
	Title            string `json:"title"`
	GrandparentTitle string `json:"grandparentTitle"` // album artist
	OriginalTitle    string `json:"originalTitle"`    // track artist when it differs
	ParentTitle      string `json:"parentTitle"`      // album
	AddedAt          int64  `json:"addedAt"`
	Media            []struct {
		Part []struct {
			File string `json:"file"`
		} `json:"Part"`
	} `json:"Media"`
	Genre []struct {
		Tag string `json:"tag"`
	} `json:"Genre"`
}

// record converts a Plex listing item to a library record.
func (it plexTrackItem) record() models.TrackRecord {
	artist := it.GrandparentTitle
	if it.OriginalTitle != "" && (artist == "" || strings.EqualFold(strings.TrimSpace(artist), variousArtists)) {
		artist = it.OriginalTitle
	}

	var file string
	for _, m := range it.Media {
		for _, p := range m.Part {
			if p.File != "" {
				file = p.File
			}
		}
	}

	genres := make([]string, 0, len(it.Genre))
	for _, g := range it.Genre {
		genres = append(genres, g.Tag)
	}

	return models.TrackRecord{
		OriginRef:  it.RatingKey,
		Title:      it.Title,
		ArtistName: artist,
		Album:      it.ParentTitle,
		FilePath:   file,
		AddedAt:    time.Unix(it.AddedAt, 0).UTC(),
		Genres:     genres,
	}
}

// ListAllTracks returns every track in the configured section.
func (c *PlexClient) ListAllTracks(ctx context.Context) ([]models.TrackRecord, error) {
	return c.listTracks(ctx, nil)
}

// ListTracksChangedSince returns tracks added at or after since. The
// bound is inclusive so entries sharing the watermark's second are not
// lost; upserts make the overlap harmless.
func (c *PlexClient) ListTracksChangedSince(ctx context.Context, since time.Time) ([]models.TrackRecord, error) {
	filter := url.Values{}
	filter.Set("addedAt>>", strconv.FormatInt(since.Unix(), 10))
	return c.listTracks(ctx, filter)
}

func (c *PlexClient) listTracks(ctx context.Context, filter url.Values) ([]models.TrackRecord, error) {
	path := "/library/sections/" + url.PathEscape(c.section) + "/all"

	var records []models.TrackRecord
	for start := 0; ; {
		query := url.Values{}
		query.Set("type", plexTrackType)
		query.Set("sort", "addedAt")
		query.Set("X-Plex-Container-Start", strconv.Itoa(start))
		query.Set("X-Plex-Container-Size", strconv.Itoa(c.pageSize))
		for k, vs := range filter {
			query[k] = vs
		}

		res := Call(ctx, c.caller, "list_tracks", func(ctx context.Context) (*plexContainer, error) {
			var page plexContainer
			err := c.http.getJSON(ctx, requestConfig{
				path:   path,
				query:  query,
				header: http.Header{"X-Plex-Token": []string{c.token}},
			}, &page)
			if err != nil {
				return nil, err
			}
			return &page, nil
		})
		if !res.Found() {
			if res.Outcome == OutcomeCanceled {
				return nil, res.Err
			}
			return nil, fmt.Errorf("list plex section %s at offset %d: %s: %w", c.section, start, res.Outcome, res.Err)
		}

		items := res.Value.MediaContainer.Metadata
		for _, it := range items {
			records = append(records, it.record())
		}

		start += len(items)
		total := res.Value.MediaContainer.TotalSize
		logging.Ctx(ctx).Debug().Int("fetched", start).Int("total", total).Msg("Fetched library page")
		if len(items) == 0 || (total > 0 && start >= total) || (total == 0 && len(items) < c.pageSize) {
			break
		}
	}
	return records, nil
}

// CountTracks asks for an empty page and returns the section's track
// count. `setlist validate` uses it as a connectivity and token check.
func (c *PlexClient) CountTracks(ctx context.Context) (int, error) {
	query := url.Values{}
	query.Set("type", plexTrackType)
	query.Set("X-Plex-Container-Start", "0")
	query.Set("X-Plex-Container-Size", "0")

	res := Call(ctx, c.caller, "count_tracks", func(ctx context.Context) (int, error) {
		var page plexContainer
		err := c.http.getJSON(ctx, requestConfig{
			path:   "/library/sections/" + url.PathEscape(c.section) + "/all",
			query:  query,
			header: http.Header{"X-Plex-Token": []string{c.token}},
		}, &page)
		if err != nil {
			return 0, err
		}
		return page.MediaContainer.TotalSize, nil
	})
	if !res.Found() {
		return 0, fmt.Errorf("plex section %s: %s: %w", c.section, res.Outcome, res.Err)
	}
	return res.Value, nil
}
