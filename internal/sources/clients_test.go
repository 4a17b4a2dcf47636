// Setlist - Music Library Enrichment for Playlist Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tomtom215/setlist/internal/config"
)

func noSleep(ctx context.Context, _ time.Duration) error { return ctx.Err() }

func TestPlexClient_ListAllTracksPages(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		if r.URL.Path != "/library/sections/3/all" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("X-Plex-Token") != "secret" {
			t.Errorf("missing token header")
		}
		if r.URL.Query().Get("type") != "10" {
			t.Errorf("type = %s", r.URL.Query().Get("type"))
		}
		start, _ := strconv.Atoi(r.URL.Query().Get("X-Plex-Container-Start"))
		var items []string
		for i := start; i < start+2 && i < 3; i++ {
			items = append(items, fmt.Sprintf(`{
				"ratingKey": "%d", "title": "Track %d", "grandparentTitle": "Various Artists",
				"originalTitle": "Artist %d", "parentTitle": "Comp", "addedAt": %d,
				"Media": [{"Part": [{"file": "/music/%d.flac"}]}],
				"Genre": [{"tag": "Rock"}]
			}`, i, i, i, 1700000000+i, i))
		}
		fmt.Fprintf(w, `{"MediaContainer": {"size": %d, "totalSize": 3, "offset": %d, "Metadata": [%s]}}`,
			len(items), start, strings.Join(items, ","))
	}))
	defer server.Close()

	client := NewPlexClient(config.PlexConfig{URL: server.URL, Token: "secret", Section: "3", PageSize: 2, Timeout: 5 * time.Second}, testRetry)
	client.caller.sleep = noSleep

	records, err := client.ListAllTracks(context.Background())
	if err != nil {
		t.Fatalf("ListAllTracks() error = %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("records = %d, want 3", len(records))
	}
	if got := requests.Load(); got != 2 {
		t.Errorf("requests = %d, want 2 pages", got)
	}
	r := records[1]
	if r.OriginRef != "1" || r.ArtistName != "Artist 1" || r.Album != "Comp" || r.FilePath != "/music/1.flac" {
		t.Errorf("record = %+v", r)
	}
	if !r.AddedAt.Equal(time.Unix(1700000001, 0)) || !reflect.DeepEqual(r.Genres, []string{"Rock"}) {
		t.Errorf("record = %+v", r)
	}
}

func TestPlexClient_ChangedSinceFilter(t *testing.T) {
	since := time.Unix(1700000000, 0)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("addedAt>>"); got != "1700000000" {
			t.Errorf("addedAt filter = %q", got)
		}
		fmt.Fprint(w, `{"MediaContainer": {"size": 0, "totalSize": 0, "Metadata": []}}`)
	}))
	defer server.Close()

	client := NewPlexClient(config.PlexConfig{URL: server.URL, Section: "1", PageSize: 50, Timeout: time.Second}, testRetry)
	records, err := client.ListTracksChangedSince(context.Background(), since)
	if err != nil || len(records) != 0 {
		t.Errorf("ListTracksChangedSince() = %v, %v", records, err)
	}
}

func TestPlexClient_ListingFailureIsError(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewPlexClient(config.PlexConfig{URL: server.URL, Section: "1", PageSize: 50, Timeout: time.Second}, testRetry)
	client.caller.sleep = noSleep

	if _, err := client.ListAllTracks(context.Background()); err == nil {
		t.Fatal("ListAllTracks() should fail when the server is down")
	}
	if got := requests.Load(); got != int32(testRetry.MaxAttempts) {
		t.Errorf("requests = %d, want %d", got, testRetry.MaxAttempts)
	}
}

func TestPlexClient_CountTracks(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		want    int
		wantErr bool
	}{
		{"ok", http.StatusOK, `{"MediaContainer": {"size": 0, "totalSize": 1234}}`, 1234, false},
		{"bad token", http.StatusUnauthorized, ``, 0, true},
		{"unknown section", http.StatusNotFound, ``, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Query().Get("X-Plex-Container-Size") != "0" {
					t.Errorf("container size = %q", r.URL.Query().Get("X-Plex-Container-Size"))
				}
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer server.Close()

			client := NewPlexClient(config.PlexConfig{URL: server.URL, Token: "t", Section: "2", Timeout: time.Second}, testRetry)
			client.caller.sleep = noSleep

			got, err := client.CountTracks(context.Background())
			if (err != nil) != tt.wantErr || got != tt.want {
				t.Errorf("CountTracks() = %d, %v; want %d, err %v", got, err, tt.want, tt.wantErr)
			}
		})
	}
}

func newLastFMTest(t *testing.T, handler http.HandlerFunc) *LastFMClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := NewLastFMClient(config.LastFMConfig{
		Enabled: true, APIKey: "key", BaseURL: server.URL, Timeout: time.Second, SimilarLimit: 2,
	}, testRetry)
	client.caller.sleep = noSleep
	return client
}

func TestLastFMClient_LookupArtist(t *testing.T) {
	client := newLastFMTest(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("method") != "artist.getinfo" || q.Get("api_key") != "key" || q.Get("autocorrect") != "1" {
			t.Errorf("query = %v", q)
		}
		// A single tag arrives as an object rather than an array.
		fmt.Fprint(w, `{"artist": {"name": "Cher", "mbid": "mbid-cher",
			"tags": {"tag": {"name": "pop"}},
			"similar": {"artist": [{"name": "Madonna"}, {"name": "Kylie"}, {"name": "Sonny"}]}}}`)
	})

	res := client.LookupArtist(context.Background(), "Cher", "")
	if !res.Found() {
		t.Fatalf("Outcome = %v, err = %v", res.Outcome, res.Err)
	}
	if res.Value.ExternalID != "mbid-cher" {
		t.Errorf("ExternalID = %q", res.Value.ExternalID)
	}
	if !reflect.DeepEqual(res.Value.Genres, []string{"pop"}) {
		t.Errorf("Genres = %v", res.Value.Genres)
	}
	if !reflect.DeepEqual(res.Value.Similar, []string{"Madonna", "Kylie"}) {
		t.Errorf("Similar = %v, want capped at 2", res.Value.Similar)
	}
}

func TestLastFMClient_ErrorCodes(t *testing.T) {
	tests := []struct {
		name         string
		body         string
		status       int
		wantOutcome  Outcome
		wantRequests int32
	}{
		{"not found", `{"error": 6, "message": "The artist you supplied could not be found"}`, 200, OutcomeNoData, 1},
		{"rate limited", `{"error": 29, "message": "Rate limit exceeded"}`, 200, OutcomeDegraded, 3},
		{"bad key", `{"error": 10, "message": "Invalid API key"}`, 403, OutcomeDegraded, 1},
		{"empty artist", `{"artist": {"name": "X", "mbid": "", "tags": {"tag": []}, "similar": {"artist": []}}}`, 200, OutcomeNoData, 1},
		{"server error", `oops`, 502, OutcomeDegraded, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var requests atomic.Int32
			client := newLastFMTest(t, func(w http.ResponseWriter, r *http.Request) {
				requests.Add(1)
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			})
			res := client.LookupArtist(context.Background(), "X", "")
			if res.Outcome != tt.wantOutcome {
				t.Errorf("Outcome = %v, want %v (err %v)", res.Outcome, tt.wantOutcome, res.Err)
			}
			if got := requests.Load(); got != tt.wantRequests {
				t.Errorf("requests = %d, want %d", got, tt.wantRequests)
			}
		})
	}
}

func TestLastFMClient_LookupTrack(t *testing.T) {
	client := newLastFMTest(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("method") != "track.getInfo" || q.Get("mbid") != "rec-1" || q.Get("track") != "Believe" {
			t.Errorf("query = %v", q)
		}
		fmt.Fprint(w, `{"track": {"name": "Believe", "mbid": "rec-1",
			"toptags": {"tag": [{"name": "pop"}, {"name": "dance"}]}}}`)
	})

	res := client.LookupTrack(context.Background(), "Cher", "Believe", "rec-1")
	if !res.Found() {
		t.Fatalf("Outcome = %v, err = %v", res.Outcome, res.Err)
	}
	if res.Value.ExternalID != "rec-1" || !reflect.DeepEqual(res.Value.Genres, []string{"pop", "dance"}) {
		t.Errorf("Value = %+v", res.Value)
	}
}

func TestAcousticBrainzClient(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		switch r.URL.Path {
		case "/api/v1/low-level":
			ids := strings.Split(r.URL.Query().Get("recording_ids"), ";")
			if len(ids) != 3 {
				t.Errorf("recording_ids = %v", ids)
			}
			fmt.Fprint(w, `{
				"aaa": {"0": {"rhythm": {"bpm": 120.5}}, "1": {"rhythm": {"bpm": 60}}},
				"BBB": {"0": {"rhythm": {"bpm": 98}}},
				"mbid_mapping": {"ccc": "ddd"}
			}`)
		case "/api/v1/aaa/low-level":
			fmt.Fprint(w, `{"rhythm": {"bpm": 120.5}}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := NewAcousticBrainzClient(config.AcousticBrainzConfig{BaseURL: server.URL, Timeout: time.Second, BatchSize: 25}, testRetry)
	client.caller.sleep = noSleep

	bulk := client.LookupTempos(context.Background(), []string{"aaa", "bbb", "zzz"})
	if !bulk.Found() {
		t.Fatalf("bulk Outcome = %v, err = %v", bulk.Outcome, bulk.Err)
	}
	want := map[string]float64{"aaa": 120.5, "bbb": 98}
	if !reflect.DeepEqual(bulk.Value, want) {
		t.Errorf("bulk = %v, want %v", bulk.Value, want)
	}

	single := client.LookupTempo(context.Background(), "aaa")
	if !single.Found() || single.Value != 120.5 {
		t.Errorf("single = %+v", single)
	}

	before := requests.Load()
	missing := client.LookupTempo(context.Background(), "nope")
	if missing.Outcome != OutcomeNoData {
		t.Errorf("missing Outcome = %v", missing.Outcome)
	}
	if requests.Load()-before != 1 {
		t.Error("404 must not be retried")
	}
}

func TestAcoustIDClient_ResolveRecording(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantOutcome Outcome
		wantID      string
	}{
		{
			name: "best score wins",
			body: `{"status": "ok", "results": [
				{"id": "a", "score": 0.5, "recordings": [{"id": "rec-low"}]},
				{"id": "a", "score": 0.9, "recordings": [{"id": "rec-high"}]}]}`,
			wantOutcome: OutcomeFound,
			wantID:      "rec-high",
		},
		{"no recordings", `{"status": "ok", "results": [{"id": "a", "score": 1}]}`, OutcomeNoData, ""},
		{"invalid key", `{"status": "error", "error": {"code": 4, "message": "invalid API key"}}`, OutcomeDegraded, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Query().Get("trackid") != "acoustid-1" || r.URL.Query().Get("meta") != "recordings" {
					t.Errorf("query = %v", r.URL.Query())
				}
				fmt.Fprint(w, tt.body)
			}))
			defer server.Close()

			client := NewAcoustIDClient(config.AcoustIDConfig{APIKey: "k", BaseURL: server.URL, Timeout: time.Second}, testRetry)
			client.caller.sleep = noSleep

			res := client.ResolveRecording(context.Background(), "acoustid-1")
			if res.Outcome != tt.wantOutcome {
				t.Errorf("Outcome = %v, want %v (err %v)", res.Outcome, tt.wantOutcome, res.Err)
			}
			if res.Found() && res.Value != tt.wantID {
				t.Errorf("Value = %q, want %q", res.Value, tt.wantID)
			}
		})
	}
}
