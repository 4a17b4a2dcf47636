// Setlist - Music Library Enrichment for Playlist Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package enrich

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/setlist/internal/config"
	"github.com/tomtom215/setlist/internal/database"
	"github.com/tomtom215/setlist/internal/models"
	"github.com/tomtom215/setlist/internal/sources"
)

var testDBSemaphore = make(chan struct{}, 1)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func setupTestDB(t *testing.T) *database.DB {
	t.Helper()

	testDBSemaphore <- struct{}{}
	t.Cleanup(func() { <-testDBSemaphore })

	db, err := database.New(&config.DatabaseConfig{Path: ":memory:", MaxMemory: "512MB", Threads: 1})
	if err != nil {
		t.Fatalf("database.New() error = %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})
	return db
}

// addTrack stores a library track and returns its id and artist id.
func addTrack(t *testing.T, db *database.DB, ref, title, artist string) (int64, int64) {
	t.Helper()
	res, err := db.UpsertTrack(context.Background(), models.TrackRecord{
		OriginRef:  ref,
		Title:      title,
		ArtistName: artist,
		FilePath:   "/library/" + ref + ".flac",
		AddedAt:    testNow,
	})
	if err != nil {
		t.Fatalf("UpsertTrack(%s) error = %v", ref, err)
	}
	return res.TrackID, res.ArtistID
}

func fullScope() database.Scope {
	return database.Scope{Now: testNow, ReattemptAfter: 90 * 24 * time.Hour, ErroredReattemptAfter: 7 * 24 * time.Hour}
}

func attemptAt(now time.Time) Attempt {
	return Attempt{At: now, StaleBefore: now.Add(-90 * 24 * time.Hour), ErroredStaleBefore: now.Add(-7 * 24 * time.Hour)}
}

// fakeLastFM answers artist and track lookups by lower-cased name.
type fakeLastFM struct {
	artists map[string]sources.Result[models.ArtistInfo]
	tracks  map[string]sources.Result[models.TrackInfo]
	calls   []string
}

func (f *fakeLastFM) LookupArtist(_ context.Context, name, _ string) sources.Result[models.ArtistInfo] {
	f.calls = append(f.calls, "artist:"+name)
	if r, ok := f.artists[strings.ToLower(name)]; ok {
		return r
	}
	return sources.Result[models.ArtistInfo]{Outcome: sources.OutcomeNoData, Err: sources.ErrNotFound}
}

func (f *fakeLastFM) LookupTrack(_ context.Context, artist, title, _ string) sources.Result[models.TrackInfo] {
	f.calls = append(f.calls, "track:"+artist+"/"+title)
	if r, ok := f.tracks[strings.ToLower(title)]; ok {
		return r
	}
	return sources.Result[models.TrackInfo]{Outcome: sources.OutcomeNoData, Err: sources.ErrNotFound}
}

func foundArtist(mbid string, genres, similar []string) sources.Result[models.ArtistInfo] {
	return sources.Result[models.ArtistInfo]{
		Value:   models.ArtistInfo{ExternalID: mbid, Genres: genres, Similar: similar},
		Outcome: sources.OutcomeFound,
	}
}

func degradedArtist() sources.Result[models.ArtistInfo] {
	return sources.Result[models.ArtistInfo]{Outcome: sources.OutcomeDegraded, Err: errors.New("503 after 3 attempts"), Attempts: 3}
}

type fakeTempo struct {
	size    int
	tempos  map[string]float64
	outcome sources.Outcome
	batches [][]string
}

func (f *fakeTempo) BatchSize() int { return f.size }

func (f *fakeTempo) LookupTempos(_ context.Context, mbids []string) sources.Result[map[string]float64] {
	f.batches = append(f.batches, append([]string(nil), mbids...))
	if f.outcome != sources.OutcomeFound {
		return sources.Result[map[string]float64]{Outcome: f.outcome, Err: errors.New("lookup failed")}
	}
	out := make(map[string]float64)
	for _, id := range mbids {
		if v, ok := f.tempos[id]; ok {
			out[id] = v
		}
	}
	return sources.Result[map[string]float64]{Value: out, Outcome: sources.OutcomeFound}
}

type fakeAnalyzer struct {
	bpm   map[string]float64
	paths []string
}

func (f *fakeAnalyzer) Analyze(_ context.Context, path string) (float64, error) {
	f.paths = append(f.paths, path)
	if v, ok := f.bpm[path]; ok {
		return v, nil
	}
	return 0, errors.New("decoder error")
}

type fakeTags map[string]models.TrackTags

func (f fakeTags) ReadIdentityTags(path string) (models.TrackTags, error) {
	if tt, ok := f[path]; ok {
		return tt, nil
	}
	return models.TrackTags{}, errors.New("open: no such file")
}

type fakeResolver struct {
	results map[string]sources.Result[string]
	calls   int
}

func (f *fakeResolver) ResolveRecording(_ context.Context, acoustID string) sources.Result[string] {
	f.calls++
	if r, ok := f.results[acoustID]; ok {
		return r
	}
	return sources.Result[string]{Outcome: sources.OutcomeNoData, Err: sources.ErrNotFound}
}

type prefixMapper struct{ from, to string }

func (m prefixMapper) Local(p string) string {
	return m.to + strings.TrimPrefix(p, m.from)
}
