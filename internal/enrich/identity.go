// Setlist - Music Library Enrichment for Playlist Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package enrich

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomtom215/setlist/internal/database"
	"github.com/tomtom215/setlist/internal/logging"
	"github.com/tomtom215/setlist/internal/models"
	"github.com/tomtom215/setlist/internal/sources"
	"github.com/tomtom215/setlist/internal/tags"
)

// FileIdentity reads identity tags from audio files. When a file only
// carries an AcoustID, the resolver supplies the recording id. A tagged
// BPM within range fills a missing tempo.
type FileIdentity struct {
	db       *database.DB
	reader   TagReader
	resolver RecordingResolver
	paths    PathMapper
	minBPM   float64
	maxBPM   float64
}

// NewFileIdentity creates the file-tag executor. resolver may be nil
// when AcoustID resolution is disabled.
func NewFileIdentity(db *database.DB, reader TagReader, resolver RecordingResolver, paths PathMapper, minBPM, maxBPM float64) *FileIdentity {
	if paths == nil {
		paths = identityPath{}
	}
	return &FileIdentity{
		db:       db,
		reader:   reader,
		resolver: resolver,
		paths:    paths,
		minBPM:   minBPM,
		maxBPM:   maxBPM,
	}
}

// Run implements Executor. File tags carry no marker; at is unused.
func (e *FileIdentity) Run(ctx context.Context, ids []int64, _ Attempt) (models.PhaseSummary, error) {
	t := newTally(len(ids))
	log := logging.Ctx(ctx)

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return t.done(), err
		}

		track, err := e.db.GetTrack(ctx, id)
		if err != nil {
			return t.done(), fmt.Errorf("load track %d: %w", id, err)
		}
		if track.FilePath == "" {
			t.sum.NoData++
			continue
		}
		t.sum.Attempted++

		path := e.paths.Local(track.FilePath)
		tt, err := e.reader.ReadIdentityTags(path)
		if errors.Is(err, tags.ErrNoTags) {
			t.sum.NoData++
			continue
		}
		if err != nil {
			t.sum.Errors++
			log.Warn().Err(err).Int64("track_id", id).Str("path", path).Msg("Reading file tags failed")
			continue
		}

		recording := tt.RecordingID
		resolveFailed := false
		if recording == "" && tt.AcoustID != "" && e.resolver != nil {
			res := e.resolver.ResolveRecording(ctx, tt.AcoustID)
			switch res.Outcome {
			case sources.OutcomeCanceled:
				return t.done(), canceled(ctx, res.Err)
			case sources.OutcomeFound:
				recording = res.Value
			case sources.OutcomeDegraded:
				resolveFailed = true
			}
		}

		changed, err := e.apply(ctx, track, recording, tt)
		if err != nil {
			return t.done(), err
		}

		switch {
		case resolveFailed:
			t.sum.Errors++
		case changed:
			t.sum.Updated++
		case recording == "" && tt.AcoustID == "" && tt.ArtistID == "" && tt.BPM == 0:
			t.sum.NoData++
		default:
			t.sum.Unchanged++
		}
	}
	return t.done(), nil
}

func (e *FileIdentity) apply(ctx context.Context, track *models.Track, recording string, tt models.TrackTags) (bool, error) {
	changed, err := e.db.SetTrackIdentity(ctx, track.ID, recording, tt.AcoustID)
	if err != nil {
		return false, fmt.Errorf("write identity for track %d: %w", track.ID, err)
	}

	if tt.ArtistID != "" {
		set, err := e.db.SetArtistIdentity(ctx, track.ArtistID, tt.ArtistID)
		if err != nil {
			return false, fmt.Errorf("write identity for artist %d: %w", track.ArtistID, err)
		}
		changed = changed || set
	}

	if tt.BPM > 0 && track.Tempo == nil {
		if tt.BPM < e.minBPM || (e.maxBPM > 0 && tt.BPM > e.maxBPM) {
			logging.Ctx(ctx).Debug().Int64("track_id", track.ID).Float64("bpm", tt.BPM).Msg("Ignoring out-of-range BPM tag")
		} else {
			set, err := e.db.SetTrackTempo(ctx, track.ID, tt.BPM, models.TempoSourceTag)
			if err != nil {
				return false, fmt.Errorf("write tempo for track %d: %w", track.ID, err)
			}
			changed = changed || set
		}
	}
	return changed, nil
}
