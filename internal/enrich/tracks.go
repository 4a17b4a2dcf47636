// Setlist - Music Library Enrichment for Playlist Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package enrich

import (
	"context"
	"fmt"

	"github.com/tomtom215/setlist/internal/database"
	"github.com/tomtom215/setlist/internal/logging"
	"github.com/tomtom215/setlist/internal/models"
	"github.com/tomtom215/setlist/internal/sources"
)

// TrackGenre links track-level genres from the track-identity source.
type TrackGenre struct {
	db     *database.DB
	lookup TrackLookup
}

// NewTrackGenre creates the track-genre executor.
func NewTrackGenre(db *database.DB, lookup TrackLookup) *TrackGenre {
	return &TrackGenre{db: db, lookup: lookup}
}

// Run implements Executor. The stored recording id is authoritative and
// is never replaced by the id the source reports.
func (e *TrackGenre) Run(ctx context.Context, ids []int64, at Attempt) (models.PhaseSummary, error) {
	t := newTally(len(ids))

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return t.done(), err
		}

		track, err := e.db.GetTrack(ctx, id)
		if err != nil {
			return t.done(), fmt.Errorf("load track %d: %w", id, err)
		}
		t.sum.Attempted++

		res := e.lookup.LookupTrack(ctx, track.ArtistName, track.Title, track.ExternalID)
		if res.Outcome == sources.OutcomeCanceled {
			return t.done(), canceled(ctx, res.Err)
		}

		in := database.TrackEnrichment{
			TrackID:            id,
			Status:             statusFor(res.Outcome),
			AttemptedAt:        at.At,
			StaleBefore:        at.StaleBefore,
			ErroredStaleBefore: at.ErroredStaleBefore,
		}
		if res.Found() {
			in.Genres = res.Value.Genres
			if track.ExternalID == "" {
				in.ExternalID = res.Value.ExternalID
			}
		}

		wr, err := e.db.ApplyTrackEnrichment(ctx, in)
		if err != nil {
			return t.done(), fmt.Errorf("write track %d: %w", id, err)
		}

		switch res.Outcome {
		case sources.OutcomeFound:
			t.changed(wr.Changed())
		case sources.OutcomeNoData:
			t.sum.NoData++
		default:
			t.sum.Errors++
			logging.Ctx(ctx).Debug().Err(res.Err).Int64("track_id", id).Msg("Track lookup degraded")
		}
	}
	return t.done(), nil
}
