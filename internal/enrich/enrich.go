// Setlist - Music Library Enrichment for Playlist Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package enrich

import (
	"context"
	"time"

	"github.com/tomtom215/setlist/internal/models"
	"github.com/tomtom215/setlist/internal/sources"
)

// ArtistLookup is the identity-lookup source.
type ArtistLookup interface {
	LookupArtist(ctx context.Context, name, mbid string) sources.Result[models.ArtistInfo]
}

// TrackLookup is the track-identity source.
type TrackLookup interface {
	LookupTrack(ctx context.Context, artist, title, mbid string) sources.Result[models.TrackInfo]
}

// TempoSource looks up tempos by recording id in batches.
type TempoSource interface {
	BatchSize() int
	LookupTempos(ctx context.Context, mbids []string) sources.Result[map[string]float64]
}

// TempoAnalyzer estimates the tempo of a local audio file.
type TempoAnalyzer interface {
	Analyze(ctx context.Context, path string) (float64, error)
}

// TagReader reads identity tags from a local audio file.
type TagReader interface {
	ReadIdentityTags(path string) (models.TrackTags, error)
}

// RecordingResolver maps an AcoustID to a MusicBrainz recording id.
type RecordingResolver interface {
	ResolveRecording(ctx context.Context, acoustID string) sources.Result[string]
}

// PathMapper maps library file paths to local ones.
type PathMapper interface {
	Local(path string) string
}

// Attempt carries the per-pass marker parameters.
type Attempt struct {
	// At is written as enrichment_attempted_at.
	At time.Time
	// StaleBefore allows same-status markers older than this to be
	// rewritten. Zero leaves them alone.
	StaleBefore time.Time
	// ErroredStaleBefore is the same bound for errored markers. It tracks
	// the errored re-attempt horizon so a failure that repeats after the
	// horizon still moves the marker.
	ErroredStaleBefore time.Time
}

// Executor runs one phase over a selected id set.
type Executor interface {
	Run(ctx context.Context, ids []int64, at Attempt) (models.PhaseSummary, error)
}

// identityPath is the default PathMapper.
type identityPath struct{}

func (identityPath) Local(p string) string { return p }

// tally tracks one executor pass.
type tally struct {
	sum   models.PhaseSummary
	start time.Time
}

func newTally(selected int) *tally {
	return &tally{sum: models.PhaseSummary{Selected: selected}, start: time.Now()}
}

func (t *tally) done() models.PhaseSummary {
	t.sum.Duration = time.Since(t.start)
	return t.sum
}

// changed counts a write as Updated or Unchanged.
func (t *tally) changed(c bool) {
	if c {
		t.sum.Updated++
	} else {
		t.sum.Unchanged++
	}
}

func statusFor(o sources.Outcome) models.EnrichmentStatus {
	switch o {
	case sources.OutcomeFound:
		return models.StatusEnriched
	case sources.OutcomeNoData:
		return models.StatusEmpty
	default:
		return models.StatusErrored
	}
}

// canceled returns the error to abort with when a lookup was canceled.
func canceled(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		return err
	}
	return context.Canceled
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
