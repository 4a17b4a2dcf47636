// Setlist - Music Library Enrichment for Playlist Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package sources

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// UserAgent identifies Setlist to external services.
const UserAgent = "setlist/1 (+https://github.com/tomtom215/setlist)"

// maxBodyBytes bounds how much of a response body is read.
const maxBodyBytes = 32 << 20

// requestConfig holds configuration for building HTTP requests
type requestConfig struct {
	path   string
	query  url.Values
	header http.Header
}

// response is a fully read HTTP answer.
type response struct {
	status int
	header http.Header
	body   []byte
}

// httpClient issues GET requests against one base URL.
type httpClient struct {
	source  string
	baseURL string
	client  *http.Client
}

func newHTTPClient(source, baseURL string, timeout time.Duration) *httpClient {
	return &httpClient{
		source:  source,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// get executes one request and reads the body. Transport failures are
// returned as-is; the status code is left for the caller to interpret.
func (h *httpClient) get(ctx context.Context, cfg requestConfig) (*response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.baseURL+cfg.path, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "application/json")
	for k, vs := range cfg.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if len(cfg.query) > 0 {
		req.URL.RawQuery = cfg.query.Encode()
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return &response{status: resp.StatusCode, header: resp.Header, body: body}, nil
}

// getJSON executes a request, maps non-200 statuses to *StatusError and
// decodes the body into result.
func (h *httpClient) getJSON(ctx context.Context, cfg requestConfig, result any) error {
	resp, err := h.get(ctx, cfg)
	if err != nil {
		return err
	}
	if resp.status != http.StatusOK {
		return h.statusError(resp)
	}
	return h.decode(resp.body, result)
}

func (h *httpClient) decode(body []byte, result any) error {
	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("%s: %w: %v", h.source, ErrMalformedResponse, err)
	}
	return nil
}

func (h *httpClient) statusError(resp *response) *StatusError {
	return &StatusError{
		Source:     h.source,
		StatusCode: resp.status,
		Message:    snippet(resp.body),
		RetryAfter: parseRetryAfter(resp.header, time.Now()),
	}
}

// parseRetryAfter reads Retry-After (seconds or HTTP date) and the
// X-RateLimit-Reset-In header some services send instead.
func parseRetryAfter(h http.Header, now time.Time) time.Duration {
	if v := strings.TrimSpace(h.Get("Retry-After")); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
			return time.Duration(secs) * time.Second
		}
		if t, err := http.ParseTime(v); err == nil {
			if d := t.Sub(now); d > 0 {
				return d
			}
		}
	}
	if v := strings.TrimSpace(h.Get("X-RateLimit-Reset-In")); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return 0
}

// snippet returns a short single-line excerpt of a response body.
func snippet(body []byte) string {
	s := strings.Join(strings.Fields(string(body)), " ")
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}
