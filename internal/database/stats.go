// Setlist - Music Library Enrichment for Playlist Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package database

import (
	"context"

	"github.com/tomtom215/setlist/internal/models"
)

// LibraryStats returns library and enrichment coverage counters.
func (db *DB) LibraryStats(ctx context.Context) (models.LibraryStats, error) {
	var s models.LibraryStats
	err := db.conn.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM track),
			(SELECT COUNT(*) FROM track WHERE tempo IS NOT NULL),
			(SELECT COUNT(*) FROM track WHERE external_id IS NOT NULL),
			(SELECT COUNT(*) FROM artist a WHERE `+primaryPredicate+`),
			(SELECT COUNT(*) FROM artist a WHERE NOT `+primaryPredicate+`),
			(SELECT COUNT(*) FROM artist WHERE enrichment_attempted_at IS NOT NULL),
			(SELECT COUNT(*) FROM artist WHERE enrichment_status = ?),
			(SELECT COUNT(*) FROM genre),
			(SELECT COUNT(*) FROM similar_artist)`,
		string(models.StatusErrored)).Scan(
		&s.Tracks, &s.TracksWithTempo, &s.TracksWithIdentity,
		&s.PrimaryArtists, &s.StubArtists, &s.AttemptedArtists, &s.ErroredArtists,
		&s.Genres, &s.SimilarEdges)
	if err != nil {
		return models.LibraryStats{}, wrapErr("library stats", err)
	}
	return s, nil
}

// Status gathers the schema version, watermark, coverage counters and the
// last recentRuns runs. Running and EnabledPhases are left for the caller.
func (db *DB) Status(ctx context.Context, recentRuns int) (models.StatusReport, error) {
	var r models.StatusReport
	var err error

	if r.SchemaVersion, err = db.SchemaVersion(ctx); err != nil {
		return r, err
	}
	wm, err := db.GetWatermark(ctx)
	if err != nil {
		return r, err
	}
	if !wm.IsZero() {
		r.Watermark = &wm
	}
	if r.Library, err = db.LibraryStats(ctx); err != nil {
		return r, err
	}
	if r.RecentRuns, err = db.RecentRuns(ctx, recentRuns); err != nil {
		return r, err
	}
	if r.RecentRuns == nil {
		r.RecentRuns = []models.RunRecord{}
	}
	return r, nil
}
