// Setlist - Music Library Enrichment for Playlist Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package sources

import (
	"context"
	"net/http"
	"net/url"

	"github.com/goccy/go-json"

	"github.com/tomtom215/setlist/internal/config"
)

// SourceAcoustID is the fingerprint resolver name in logs and metrics.
const SourceAcoustID = "acoustid"

// AcoustID error codes that mean "try again later".
const (
	acoustidInternalError      = 5
	acoustidServiceUnavailable = 13
	acoustidTooManyRequests    = 14
)

// AcoustIDClient resolves AcoustID track ids to MusicBrainz recordings.
type AcoustIDClient struct {
	http   *httpClient
	apiKey string
	caller *Caller
}

// NewAcoustIDClient creates a resolver from configuration.
func NewAcoustIDClient(cfg config.AcoustIDConfig, retry config.RetryConfig) *AcoustIDClient {
	return &AcoustIDClient{
		http:   newHTTPClient(SourceAcoustID, cfg.BaseURL, cfg.Timeout),
		apiKey: cfg.APIKey,
		caller: NewCaller(SourceAcoustID, NewPolicy(retry, cfg.RequestDelay)),
	}
}

type acoustidLookup struct {
	Status string `json:"status"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Results []struct {
		ID         string  `json:"id"`
		Score      float64 `json:"score"`
		Recordings []struct {
			ID string `json:"id"`
		} `json:"recordings"`
	} `json:"results"`
}

// ResolveRecording returns the MusicBrainz recording id linked to an
// AcoustID track id, taking the best-scored result.
func (c *AcoustIDClient) ResolveRecording(ctx context.Context, acoustID string) Result[string] {
	query := url.Values{}
	query.Set("client", c.apiKey)
	query.Set("trackid", acoustID)
	query.Set("meta", "recordings")
	query.Set("format", "json")

	return Call(ctx, c.caller, "lookup", func(ctx context.Context) (string, error) {
		resp, err := c.http.get(ctx, requestConfig{path: "/v2/lookup", query: query})
		if err != nil {
			return "", err
		}

		var payload acoustidLookup
		if json.Unmarshal(resp.body, &payload) == nil && payload.Status == "error" && payload.Error != nil {
			se := c.http.statusError(resp)
			se.Code = payload.Error.Code
			se.Message = payload.Error.Message
			switch payload.Error.Code {
			case acoustidInternalError, acoustidServiceUnavailable, acoustidTooManyRequests:
				se.Throttled = true
			}
			return "", se
		}
		if resp.status != http.StatusOK {
			return "", c.http.statusError(resp)
		}
		if err := c.http.decode(resp.body, &payload); err != nil {
			return "", err
		}

		best, bestScore := "", -1.0
		for _, r := range payload.Results {
			if len(r.Recordings) == 0 || r.Recordings[0].ID == "" {
				continue
			}
			if r.Score > bestScore {
				best, bestScore = r.Recordings[0].ID, r.Score
			}
		}
		if best == "" {
			return "", ErrNotFound
		}
		return best, nil
	})
}
