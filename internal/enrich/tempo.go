// Setlist - Music Library Enrichment for Playlist Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package enrich

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/setlist/internal/database"
	"github.com/tomtom215/setlist/internal/logging"
	"github.com/tomtom215/setlist/internal/models"
	"github.com/tomtom215/setlist/internal/sources"
)

// TempoLookup fills missing tempos from the tempo-by-identity source.
// Tracks absent from a bulk reply are counted as NoData and not retried
// one by one.
type TempoLookup struct {
	db     *database.DB
	source TempoSource
}

// NewTempoLookup creates the bulk tempo executor.
func NewTempoLookup(db *database.DB, source TempoSource) *TempoLookup {
	return &TempoLookup{db: db, source: source}
}

// Run implements Executor. Tempo carries no marker; at is unused.
func (e *TempoLookup) Run(ctx context.Context, ids []int64, _ Attempt) (models.PhaseSummary, error) {
	t := newTally(len(ids))
	if len(ids) == 0 {
		return t.done(), nil
	}

	size := e.source.BatchSize()
	if size <= 0 {
		size = sources.MaxBulkRecordings
	}

	for start := 0; start < len(ids); start += size {
		if err := ctx.Err(); err != nil {
			return t.done(), err
		}
		chunk, err := e.db.GetTracks(ctx, ids[start:min(start+size, len(ids))])
		if err != nil {
			return t.done(), fmt.Errorf("load tracks: %w", err)
		}

		byMBID := make(map[string][]*models.Track, len(chunk))
		mbids := make([]string, 0, len(chunk))
		for _, tr := range chunk {
			key := strings.ToLower(tr.ExternalID)
			if _, seen := byMBID[key]; !seen {
				mbids = append(mbids, key)
			}
			byMBID[key] = append(byMBID[key], tr)
		}
		t.sum.Attempted += len(chunk)

		res := e.source.LookupTempos(ctx, mbids)
		switch res.Outcome {
		case sources.OutcomeCanceled:
			return t.done(), canceled(ctx, res.Err)
		case sources.OutcomeNoData:
			t.sum.NoData += len(chunk)
			continue
		case sources.OutcomeDegraded:
			t.sum.Errors += len(chunk)
			logging.Ctx(ctx).Warn().Err(res.Err).Int("tracks", len(chunk)).Msg("Bulk tempo lookup degraded")
			continue
		}

		for _, mbid := range mbids {
			bpm, ok := res.Value[mbid]
			for _, tr := range byMBID[mbid] {
				if !ok {
					t.sum.NoData++
					continue
				}
				set, err := e.db.SetTrackTempo(ctx, tr.ID, bpm, models.TempoSourceAcousticBrainz)
				if err != nil {
					return t.done(), fmt.Errorf("write tempo for track %d: %w", tr.ID, err)
				}
				t.changed(set)
			}
		}
	}
	return t.done(), nil
}

// TempoLocal fills missing tempos by running the local analyzer over the
// audio files, in batches with a rest between them.
type TempoLocal struct {
	db        *database.DB
	analyzer  TempoAnalyzer
	paths     PathMapper
	batchSize int
	batchRest time.Duration

	sleep func(ctx context.Context, d time.Duration) error
}

// NewTempoLocal creates the local-analysis executor. A nil paths mapper
// uses library paths unchanged.
func NewTempoLocal(db *database.DB, analyzer TempoAnalyzer, paths PathMapper, batchSize int, batchRest time.Duration) *TempoLocal {
	if paths == nil {
		paths = identityPath{}
	}
	if batchSize <= 0 {
		batchSize = 1
	}
	return &TempoLocal{
		db:        db,
		analyzer:  analyzer,
		paths:     paths,
		batchSize: batchSize,
		batchRest: batchRest,
		sleep:     sleepContext,
	}
}

// Run implements Executor. Analysis failures count as errors and are
// retried on the next run.
func (e *TempoLocal) Run(ctx context.Context, ids []int64, _ Attempt) (models.PhaseSummary, error) {
	t := newTally(len(ids))
	log := logging.Ctx(ctx)

	for i, id := range ids {
		if i > 0 && i%e.batchSize == 0 && e.batchRest > 0 {
			log.Debug().Int("analyzed", i).Dur("rest", e.batchRest).Msg("Resting between analysis batches")
			if err := e.sleep(ctx, e.batchRest); err != nil {
				return t.done(), err
			}
		}
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
		bpm, err := e.analyzer.Analyze(ctx, path)
		if err != nil {
			if ctx.Err() != nil {
				return t.done(), ctx.Err()
			}
			t.sum.Errors++
			log.Warn().Err(err).Int64("track_id", id).Str("path", path).Msg("Local tempo analysis failed")
			continue
		}

		set, err := e.db.SetTrackTempo(ctx, id, bpm, models.TempoSourceLocal)
		if err != nil {
			return t.done(), fmt.Errorf("write tempo for track %d: %w", id, err)
		}
		t.changed(set)
	}
	return t.done(), nil
}
