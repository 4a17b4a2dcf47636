// Setlist - Music Library Enrichment for Playlist Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/setlist/internal/database"
	"github.com/tomtom215/setlist/internal/logging"
	"github.com/tomtom215/setlist/internal/models"
)

// ingestResult summarizes one library upsert pass.
type ingestResult struct {
	records    int
	inserted   int
	updated    int
	newArtists int
	skipped    int
	changed    []int64 // ids of inserted or updated tracks
	latest     time.Time
}

// dedupeRecords keeps the last listing of each origin reference.
func dedupeRecords(records []models.TrackRecord) []models.TrackRecord {
	index := make(map[string]int, len(records))
	out := make([]models.TrackRecord, 0, len(records))
	for _, r := range records {
		if i, ok := index[r.OriginRef]; ok {
			out[i] = r
			continue
		}
		index[r.OriginRef] = len(out)
		out = append(out, r)
	}
	return out
}

// ingest upserts library records. Records the store rejects as invalid
// are skipped; any other store failure aborts.
func (o *Orchestrator) ingest(ctx context.Context, records []models.TrackRecord) (ingestResult, error) {
	log := logging.Ctx(ctx)
	records = dedupeRecords(records)
	res := ingestResult{records: len(records), changed: []int64{}}

	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if rec.AddedAt.After(res.latest) {
			res.latest = rec.AddedAt.UTC()
		}

		up, err := o.db.UpsertTrack(ctx, rec)
		if errors.Is(err, database.ErrInvalidRecord) {
			res.skipped++
			log.Warn().Str("origin_ref", rec.OriginRef).Str("title", rec.Title).Msg("Skipping invalid library record")
			continue
		}
		if err != nil {
			return res, fmt.Errorf("ingest %s: %w", rec.OriginRef, err)
		}

		switch up.Outcome {
		case database.UpsertInserted:
			res.inserted++
			res.changed = append(res.changed, up.TrackID)
		case database.UpsertUpdated:
			res.updated++
			res.changed = append(res.changed, up.TrackID)
		}
		if up.ArtistCreated {
			res.newArtists++
		}
	}

	log.Info().
		Int("records", res.records).
		Int("inserted", res.inserted).
		Int("updated", res.updated).
		Int("new_artists", res.newArtists).
		Int("skipped", res.skipped).
		Msg("Library ingested")
	return res, nil
}
