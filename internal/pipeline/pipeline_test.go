// Setlist - Music Library Enrichment for Playlist Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package pipeline

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

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

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

func testConfig() *config.Config {
	return &config.Config{
		Enrichment: config.EnrichmentConfig{
			ReattemptAfter:        90 * 24 * time.Hour,
			ErroredReattemptAfter: 7 * 24 * time.Hour,
			SkipTracksWithGenres:  true,
		},
		Analyzer: config.AnalyzerConfig{BatchSize: 10, MinBPM: 40, MaxBPM: 220},
	}
}

// fakeLibrary serves a mutable track list and filters by added time.
type fakeLibrary struct {
	tracks []models.TrackRecord
	err    error
	since  []time.Time
}

func (f *fakeLibrary) ListAllTracks(context.Context) ([]models.TrackRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	return append([]models.TrackRecord(nil), f.tracks...), nil
}

func (f *fakeLibrary) ListTracksChangedSince(_ context.Context, since time.Time) ([]models.TrackRecord, error) {
	f.since = append(f.since, since)
	if f.err != nil {
		return nil, f.err
	}
	var out []models.TrackRecord
	for _, r := range f.tracks {
		if !r.AddedAt.Before(since) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeLibrary) add(ref, title, artist string, added time.Time) {
	f.tracks = append(f.tracks, models.TrackRecord{
		OriginRef:  ref,
		Title:      title,
		ArtistName: artist,
		FilePath:   "/library/" + ref + ".flac",
		AddedAt:    added,
	})
}

// fakeLastFM returns three similar artists for every artist whose name
// starts with "Band", and nothing for anyone else. With degraded set,
// every lookup fails.
type fakeLastFM struct {
	artistCalls []string
	trackCalls  int
	freshCalls  int
	degraded    bool
	cancelOn    string
	cancel      context.CancelFunc
}

func (f *fakeLastFM) LookupArtist(ctx context.Context, name, _ string) sources.Result[models.ArtistInfo] {
	f.artistCalls = append(f.artistCalls, name)
	if sources.FreshLookups(ctx) {
		f.freshCalls++
	}
	if f.degraded {
		return sources.Result[models.ArtistInfo]{Outcome: sources.OutcomeDegraded, Err: errors.New("service unavailable")}
	}
	if f.cancelOn != "" && name == f.cancelOn {
		f.cancel()
		return sources.Result[models.ArtistInfo]{Outcome: sources.OutcomeCanceled, Err: ctx.Err()}
	}
	if !strings.HasPrefix(name, "Band") {
		return sources.Result[models.ArtistInfo]{Outcome: sources.OutcomeNoData, Err: sources.ErrNotFound}
	}
	return sources.Result[models.ArtistInfo]{
		Value: models.ArtistInfo{
			ExternalID: "mbid-" + strings.ToLower(name),
			Genres:     []string{"rock"},
			Similar:    []string{name + " Friend 1", name + " Friend 2", name + " Friend 3"},
		},
		Outcome: sources.OutcomeFound,
	}
}

func (f *fakeLastFM) LookupTrack(context.Context, string, string, string) sources.Result[models.TrackInfo] {
	f.trackCalls++
	if f.degraded {
		return sources.Result[models.TrackInfo]{Outcome: sources.OutcomeDegraded, Err: errors.New("service unavailable")}
	}
	return sources.Result[models.TrackInfo]{Outcome: sources.OutcomeNoData, Err: sources.ErrNotFound}
}

type fakeTags map[string]models.TrackTags

func (f fakeTags) ReadIdentityTags(path string) (models.TrackTags, error) {
	return f[path], nil
}

type fakeTempo struct{ batches int }

func (f *fakeTempo) BatchSize() int { return 25 }

func (f *fakeTempo) LookupTempos(_ context.Context, mbids []string) sources.Result[map[string]float64] {
	f.batches++
	out := map[string]float64{}
	for _, id := range mbids {
		out[id] = 120
	}
	return sources.Result[map[string]float64]{Value: out, Outcome: sources.OutcomeFound}
}

type harness struct {
	db      *database.DB
	library *fakeLibrary
	lastfm  *fakeLastFM
	tempo   *fakeTempo
	orch    *Orchestrator
}

func newHarness(t *testing.T, cfg *config.Config) *harness {
	t.Helper()
	h := &harness{
		db:      setupTestDB(t),
		library: &fakeLibrary{},
		lastfm:  &fakeLastFM{},
		tempo:   &fakeTempo{},
	}
	h.orch = New(h.db, cfg, Sources{
		Library: h.library,
		LastFM:  h.lastfm,
		Tempo:   h.tempo,
		Tags: fakeTags{
			"/library/1.flac": {RecordingID: "rec-1"},
			"/library/3.flac": {RecordingID: "rec-3"},
		},
	})
	h.orch.now = func() time.Time { return t0 }
	return h
}

func phase(t *testing.T, sum models.RunSummary, p Phase) models.PhaseSummary {
	t.Helper()
	for _, ps := range sum.Phases {
		if ps.Phase == p.String() {
			return ps
		}
	}
	t.Fatalf("phase %s missing from summary %+v", p, sum.Phases)
	return models.PhaseSummary{}
}
