// Setlist - Music Library Enrichment for Playlist Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package cache

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/tomtom215/setlist/internal/models"
	"github.com/tomtom215/setlist/internal/sources"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})
	return s
}

func TestStore_SetGet(t *testing.T) {
	s := setupStore(t)

	type doc struct {
		Name  string
		Count int
	}
	if err := s.Set("k", doc{"a", 2}, 0); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	var got doc
	ok, err := s.Get("k", &got)
	if err != nil || !ok {
		t.Fatalf("Get() = %v, %v", ok, err)
	}
	if got != (doc{"a", 2}) {
		t.Errorf("Get() value = %+v", got)
	}

	ok, err = s.Get("missing", &got)
	if err != nil || ok {
		t.Errorf("Get(missing) = %v, %v", ok, err)
	}

	hits, misses := s.Stats()
	if hits != 1 || misses != 1 {
		t.Errorf("Stats() = %d, %d, want 1, 1", hits, misses)
	}
}

func TestStore_TTLExpiry(t *testing.T) {
	s := setupStore(t)

	// Badger TTLs have one-second resolution.
	if err := s.Set("short", "v", time.Second); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	time.Sleep(2100 * time.Millisecond)

	var v string
	ok, err := s.Get("short", &v)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if ok {
		t.Error("expired entry still readable")
	}
}

func TestStore_DeletePrefix(t *testing.T) {
	s := setupStore(t)
	for _, k := range []string{"a:1", "a:2", "b:1"} {
		if err := s.Set(k, 1, 0); err != nil {
			t.Fatalf("Set(%s) error = %v", k, err)
		}
	}

	n, err := s.DeletePrefix("a:")
	if err != nil {
		t.Fatalf("DeletePrefix() error = %v", err)
	}
	if n != 2 {
		t.Errorf("DeletePrefix() = %d, want 2", n)
	}

	var v int
	if ok, _ := s.Get("b:1", &v); !ok {
		t.Error("unrelated key was deleted")
	}
	if ok, _ := s.Get("a:1", &v); ok {
		t.Error("prefixed key survived")
	}
	if err := s.Delete("never-set"); err != nil {
		t.Errorf("Delete(absent) error = %v", err)
	}
	if err := s.RunGC(0.5); err != nil {
		t.Errorf("RunGC() on in-memory store error = %v", err)
	}
}

type fakeLastFM struct {
	artistCalls int
	trackCalls  int
	artist      sources.Result[models.ArtistInfo]
	track       sources.Result[models.TrackInfo]
}

func (f *fakeLastFM) LookupArtist(context.Context, string, string) sources.Result[models.ArtistInfo] {
	f.artistCalls++
	return f.artist
}

func (f *fakeLastFM) LookupTrack(context.Context, string, string, string) sources.Result[models.TrackInfo] {
	f.trackCalls++
	return f.track
}

func TestLastFM_CachesDefiniteAnswers(t *testing.T) {
	tests := []struct {
		name      string
		outcome   sources.Outcome
		wantCalls int
	}{
		{"found is cached", sources.OutcomeFound, 1},
		{"no data is cached", sources.OutcomeNoData, 1},
		{"degraded is not cached", sources.OutcomeDegraded, 2},
		{"canceled is not cached", sources.OutcomeCanceled, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := models.ArtistInfo{ExternalID: "mbid-1", Genres: []string{"trip hop"}, Similar: []string{"Massive Attack"}}
			fake := &fakeLastFM{artist: sources.Result[models.ArtistInfo]{Outcome: tt.outcome}}
			if tt.outcome == sources.OutcomeFound {
				fake.artist.Value = info
			} else {
				fake.artist.Err = errors.New("lookup failed")
			}
			c := NewLastFM(fake, setupStore(t), time.Hour)

			first := c.LookupArtist(context.Background(), "Portishead", "")
			second := c.LookupArtist(context.Background(), "  PORTISHEAD ", "")

			if fake.artistCalls != tt.wantCalls {
				t.Errorf("upstream calls = %d, want %d", fake.artistCalls, tt.wantCalls)
			}
			if first.Outcome != tt.outcome || second.Outcome != tt.outcome {
				t.Errorf("outcomes = %v, %v, want %v", first.Outcome, second.Outcome, tt.outcome)
			}
			if tt.outcome == sources.OutcomeFound && !reflect.DeepEqual(second.Value, info) {
				t.Errorf("cached value = %+v, want %+v", second.Value, info)
			}
			if tt.outcome == sources.OutcomeNoData && !sources.IsNotFound(second.Err) {
				t.Errorf("cached miss error = %v, want not found", second.Err)
			}
		})
	}
}

func TestLastFM_TrackAndForget(t *testing.T) {
	fake := &fakeLastFM{track: sources.Result[models.TrackInfo]{
		Value:   models.TrackInfo{ExternalID: "rec-1", Genres: []string{"dub"}},
		Outcome: sources.OutcomeFound,
	}}
	c := NewLastFM(fake, setupStore(t), 0)
	ctx := context.Background()

	c.LookupTrack(ctx, "Burial", "Archangel", "")
	res := c.LookupTrack(ctx, "burial", "archangel", "")
	if fake.trackCalls != 1 {
		t.Errorf("upstream calls = %d, want 1", fake.trackCalls)
	}
	if res.Value.ExternalID != "rec-1" {
		t.Errorf("cached track = %+v", res.Value)
	}

	n, err := c.Forget()
	if err != nil || n != 1 {
		t.Fatalf("Forget() = %d, %v", n, err)
	}
	c.LookupTrack(ctx, "Burial", "Archangel", "")
	if fake.trackCalls != 2 {
		t.Errorf("upstream calls after Forget = %d, want 2", fake.trackCalls)
	}
}

func TestLastFM_FreshLookupsBypassReads(t *testing.T) {
	fake := &fakeLastFM{artist: sources.Result[models.ArtistInfo]{Outcome: sources.OutcomeNoData, Err: sources.ErrNotFound}}
	c := NewLastFM(fake, setupStore(t), time.Hour)
	ctx := context.Background()

	c.LookupArtist(ctx, "Boards of Canada", "")
	if res := c.LookupArtist(ctx, "Boards of Canada", ""); res.Outcome != sources.OutcomeNoData || fake.artistCalls != 1 {
		t.Fatalf("cached miss = %v after %d calls", res.Outcome, fake.artistCalls)
	}

	// The source now knows the artist; a fresh lookup must reach it.
	info := models.ArtistInfo{ExternalID: "mbid-boc", Genres: []string{"idm"}}
	fake.artist = sources.Result[models.ArtistInfo]{Value: info, Outcome: sources.OutcomeFound}
	res := c.LookupArtist(sources.WithFreshLookups(ctx), "Boards of Canada", "")
	if fake.artistCalls != 2 {
		t.Errorf("upstream calls = %d, want 2", fake.artistCalls)
	}
	if res.Outcome != sources.OutcomeFound {
		t.Errorf("fresh outcome = %v, want found", res.Outcome)
	}

	// The fresh answer replaced the stored miss.
	res = c.LookupArtist(ctx, "Boards of Canada", "")
	if fake.artistCalls != 2 {
		t.Errorf("upstream calls after refill = %d, want 2", fake.artistCalls)
	}
	if !reflect.DeepEqual(res.Value, info) {
		t.Errorf("cached value = %+v, want %+v", res.Value, info)
	}

	fake.track = sources.Result[models.TrackInfo]{Outcome: sources.OutcomeNoData, Err: sources.ErrNotFound}
	c.LookupTrack(ctx, "Boards of Canada", "Roygbiv", "")
	c.LookupTrack(sources.WithFreshLookups(ctx), "Boards of Canada", "Roygbiv", "")
	if fake.trackCalls != 2 {
		t.Errorf("track upstream calls = %d, want 2", fake.trackCalls)
	}
}

func TestLastFM_NilStorePassesThrough(t *testing.T) {
	fake := &fakeLastFM{artist: sources.Result[models.ArtistInfo]{Outcome: sources.OutcomeFound}}
	c := NewLastFM(fake, nil, time.Hour)
	c.LookupArtist(context.Background(), "a", "")
	c.LookupArtist(context.Background(), "a", "")
	if fake.artistCalls != 2 {
		t.Errorf("upstream calls = %d, want 2", fake.artistCalls)
	}
	if n, err := c.Forget(); n != 0 || err != nil {
		t.Errorf("Forget() = %d, %v", n, err)
	}
}
