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
)

// PrimaryFull enriches primary artists with identity, genres and
// similar artists.
type PrimaryFull struct {
	db     *database.DB
	lookup ArtistLookup
}

// NewPrimaryFull creates the primary-artist executor.
func NewPrimaryFull(db *database.DB, lookup ArtistLookup) *PrimaryFull {
	return &PrimaryFull{db: db, lookup: lookup}
}

// Run implements Executor.
func (e *PrimaryFull) Run(ctx context.Context, ids []int64, at Attempt) (models.PhaseSummary, error) {
	return runArtists(ctx, e.db, e.lookup, ids, at, true)
}

// StubCore enriches stub artists with identity and genres. Similar
// artists returned by the source are discarded.
type StubCore struct {
	db     *database.DB
	lookup ArtistLookup
}

// NewStubCore creates the stub-artist executor.
func NewStubCore(db *database.DB, lookup ArtistLookup) *StubCore {
	return &StubCore{db: db, lookup: lookup}
}

// Run implements Executor.
func (e *StubCore) Run(ctx context.Context, ids []int64, at Attempt) (models.PhaseSummary, error) {
	return runArtists(ctx, e.db, e.lookup, ids, at, false)
}

func runArtists(ctx context.Context, db *database.DB, lookup ArtistLookup, ids []int64, at Attempt, withSimilar bool) (models.PhaseSummary, error) {
	t := newTally(len(ids))
	log := logging.Ctx(ctx)

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return t.done(), err
		}

		artist, err := db.GetArtist(ctx, id)
		if err != nil {
			return t.done(), fmt.Errorf("load artist %d: %w", id, err)
		}
		t.sum.Attempted++

		res := lookup.LookupArtist(ctx, artist.Name, artist.ExternalID)
		if res.Outcome == sources.OutcomeCanceled {
			return t.done(), canceled(ctx, res.Err)
		}

		in := database.ArtistEnrichment{
			ArtistID:           id,
			Kind:               models.KindCore,
			Status:             statusFor(res.Outcome),
			AttemptedAt:        at.At,
			StaleBefore:        at.StaleBefore,
			ErroredStaleBefore: at.ErroredStaleBefore,
		}
		if withSimilar {
			in.Kind = models.KindFull
		}
		if res.Found() {
			in.ExternalID = res.Value.ExternalID
			in.Genres = res.Value.Genres
			if withSimilar {
				in.Similar = res.Value.Similar
			}
		}

		wr, err := db.ApplyArtistEnrichment(ctx, in)
		if errors.Is(err, database.ErrStubEdgeSource) {
			// The artist lost its tracks after selection. Keep identity
			// and genres, drop the edges.
			log.Warn().Int64("artist_id", id).Str("artist", artist.Name).
				Msg("Artist is no longer primary, writing without similar artists")
			in.Similar = nil
			in.Kind = models.KindCore
			wr, err = db.ApplyArtistEnrichment(ctx, in)
		}
		if err != nil {
			return t.done(), fmt.Errorf("write artist %d: %w", id, err)
		}

		switch res.Outcome {
		case sources.OutcomeFound:
			t.changed(wr.Changed())
		case sources.OutcomeNoData:
			t.sum.NoData++
		default:
			t.sum.Errors++
			log.Debug().Err(res.Err).Int64("artist_id", id).Str("artist", artist.Name).
				Msg("Artist lookup degraded")
		}

		if wr.StubsCreated > 0 || wr.EdgesAdded > 0 {
			log.Debug().Int64("artist_id", id).
				Int("stubs_created", wr.StubsCreated).
				Int("edges_added", wr.EdgesAdded).
				Msg("Similar artists linked")
		}
	}
	return t.done(), nil
}
