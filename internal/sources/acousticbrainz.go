// Setlist - Music Library Enrichment for Playlist Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package sources

import (
	"context"
	"net/url"
	"sort"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/setlist/internal/config"
)

// SourceAcousticBrainz is the tempo source name in logs and metrics.
const SourceAcousticBrainz = "acousticbrainz"

// MaxBulkRecordings is the most recording ids one bulk request may carry.
const MaxBulkRecordings = 25

// AcousticBrainzClient looks up tempo by MusicBrainz recording id.
type AcousticBrainzClient struct {
	http      *httpClient
	batchSize int
	caller    *Caller
}

// NewAcousticBrainzClient creates a tempo client from configuration.
func NewAcousticBrainzClient(cfg config.AcousticBrainzConfig, retry config.RetryConfig) *AcousticBrainzClient {
	batch := cfg.BatchSize
	if batch <= 0 || batch > MaxBulkRecordings {
		batch = MaxBulkRecordings
	}
	return &AcousticBrainzClient{
		http:      newHTTPClient(SourceAcousticBrainz, cfg.BaseURL, cfg.Timeout),
		batchSize: batch,
		caller:    NewCaller(SourceAcousticBrainz, NewPolicy(retry, cfg.RequestDelay)),
	}
}

// BatchSize returns the number of ids LookupTempos accepts per call.
func (c *AcousticBrainzClient) BatchSize() int {
	return c.batchSize
}

type lowLevel struct {
	Rhythm struct {
		BPM float64 `json:"bpm"`
	} `json:"rhythm"`
}

// LookupTempo returns the tempo of one recording.
func (c *AcousticBrainzClient) LookupTempo(ctx context.Context, mbid string) Result[float64] {
	return Call(ctx, c.caller, "low-level", func(ctx context.Context) (float64, error) {
		var doc lowLevel
		if err := c.http.getJSON(ctx, requestConfig{path: "/api/v1/" + url.PathEscape(mbid) + "/low-level"}, &doc); err != nil {
			return 0, err
		}
		if doc.Rhythm.BPM <= 0 {
			return 0, ErrNotFound
		}
		return doc.Rhythm.BPM, nil
	})
}

// LookupTempos returns tempos for up to BatchSize recordings in one
// request. Recordings the service does not know are absent from the map.
// A reply that knows none of them is NoData.
func (c *AcousticBrainzClient) LookupTempos(ctx context.Context, mbids []string) Result[map[string]float64] {
	if len(mbids) > c.batchSize {
		mbids = mbids[:c.batchSize]
	}
	query := url.Values{}
	query.Set("recording_ids", strings.Join(mbids, ";"))

	return Call(ctx, c.caller, "bulk low-level", func(ctx context.Context) (map[string]float64, error) {
		var raw map[string]json.RawMessage
		if err := c.http.getJSON(ctx, requestConfig{path: "/api/v1/low-level", query: query}, &raw); err != nil {
			return nil, err
		}
		tempos, err := c.parseBulk(raw)
		if err != nil {
			return nil, err
		}
		if len(tempos) == 0 {
			return nil, ErrNotFound
		}
		return tempos, nil
	})
}

// parseBulk reads {"<mbid>": {"<offset>": <low-level doc>}, "mbid_mapping": {...}}
// and takes the lowest submission offset per recording.
func (c *AcousticBrainzClient) parseBulk(raw map[string]json.RawMessage) (map[string]float64, error) {
	tempos := make(map[string]float64, len(raw))
	for mbid, body := range raw {
		if mbid == "mbid_mapping" {
			continue
		}
		var submissions map[string]lowLevel
		if err := c.http.decode(body, &submissions); err != nil {
			return nil, err
		}
		offsets := make([]string, 0, len(submissions))
		for k := range submissions {
			offsets = append(offsets, k)
		}
		sort.Strings(offsets)
		for _, off := range offsets {
			if bpm := submissions[off].Rhythm.BPM; bpm > 0 {
				tempos[strings.ToLower(mbid)] = bpm
				break
			}
		}
	}
	return tempos, nil
}
