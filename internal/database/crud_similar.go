// Setlist - Music Library Enrichment for Playlist Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
)

func (db *DB) insertEdge(ctx context.Context, q queryer, sourceID, targetID int64) (bool, error) {
	res, err := q.ExecContext(ctx,
		`INSERT INTO similar_artist (artist_id, similar_artist_id, created_at) VALUES (?, ?, ?) ON CONFLICT DO NOTHING`,
		sourceID, targetID, db.now())
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// AddSimilarArtistEdge links sourceID to targetID. The source must be a
// primary artist at the time of the write; otherwise ErrStubEdgeSource is
// returned and nothing is written. Self-edges are ignored.
func (db *DB) AddSimilarArtistEdge(ctx context.Context, sourceID, targetID int64) (bool, error) {
	if sourceID == targetID {
		return false, nil
	}
	var added bool
	err := db.withTx(ctx, "add similar artist edge", func(tx *sql.Tx) error {
		var primary bool
		err := tx.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM track t WHERE t.artist_id = a.id) FROM artist a WHERE a.id = ?`,
			sourceID).Scan(&primary)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %d", ErrArtistNotFound, sourceID)
		}
		if err != nil {
			return err
		}
		if !primary {
			return fmt.Errorf("%w: artist %d", ErrStubEdgeSource, sourceID)
		}

		var exists bool
		if err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM artist WHERE id = ?)`, targetID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("%w: %d", ErrArtistNotFound, targetID)
		}

		added, err = db.insertEdge(ctx, tx, sourceID, targetID)
		return err
	})
	return added, err
}

// SimilarArtistIDs returns the targets of an artist's outgoing edges.
func (db *DB) SimilarArtistIDs(ctx context.Context, artistID int64) ([]int64, error) {
	return db.queryIDs(ctx, "similar artists",
		`SELECT similar_artist_id FROM similar_artist WHERE artist_id = ? ORDER BY similar_artist_id`, artistID)
}

// EdgeSourcesWithoutTracks returns ids of artists that own outgoing edges
// but no tracks. A healthy graph returns none unless tracks were moved
// away from an artist after its edges were written.
func (db *DB) EdgeSourcesWithoutTracks(ctx context.Context) ([]int64, error) {
	return db.queryIDs(ctx, "edge sources without tracks",
		`SELECT DISTINCT s.artist_id FROM similar_artist s
		 WHERE NOT EXISTS (SELECT 1 FROM track t WHERE t.artist_id = s.artist_id)
		 ORDER BY s.artist_id`)
}

// queryIDs runs a single-column id query.
func (db *DB) queryIDs(ctx context.Context, op, query string, args ...any) ([]int64, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	defer closeWithLog(rows, "rows")

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, wrapErr(op, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr(op, err)
	}
	return ids, nil
}

func sortIDs(ids []int64) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}
