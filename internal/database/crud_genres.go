// Setlist - Music Library Enrichment for Playlist Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package database

import (
	"context"
	"database/sql"
)

// ensureGenre returns the id for a normalized label, creating it if needed.
func ensureGenre(ctx context.Context, q queryer, label string) (int64, error) {
	if _, err := q.ExecContext(ctx,
		`INSERT INTO genre (label) VALUES (?) ON CONFLICT (label) DO NOTHING`, label); err != nil {
		return 0, err
	}
	var id int64
	if err := q.QueryRowContext(ctx, `SELECT id FROM genre WHERE label = ?`, label).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

// linkGenres associates the labels with one owner row in the given link
// table and returns how many associations were new.
func linkGenres(ctx context.Context, q queryer, table, ownerCol string, ownerID int64, labels []string) (int, error) {
	added := 0
	for _, label := range dedupeGenres(labels) {
		genreID, err := ensureGenre(ctx, q, label)
		if err != nil {
			return added, err
		}
		res, err := q.ExecContext(ctx,
			`INSERT INTO `+table+` (`+ownerCol+`, genre_id) VALUES (?, ?) ON CONFLICT DO NOTHING`,
			ownerID, genreID)
		if err != nil {
			return added, err
		}
		if n, err := res.RowsAffected(); err == nil && n > 0 {
			added++
		}
	}
	return added, nil
}

// LinkTrackGenres associates genre labels with a track. Labels are
// normalized; blanks and existing associations are skipped. It returns
// the number of new associations.
func (db *DB) LinkTrackGenres(ctx context.Context, trackID int64, labels []string) (int, error) {
	var added int
	err := db.withTx(ctx, "link track genres", func(tx *sql.Tx) error {
		var err error
		added, err = linkGenres(ctx, tx, "track_genre", "track_id", trackID, labels)
		return err
	})
	return added, err
}

// LinkArtistGenres associates genre labels with an artist.
func (db *DB) LinkArtistGenres(ctx context.Context, artistID int64, labels []string) (int, error) {
	var added int
	err := db.withTx(ctx, "link artist genres", func(tx *sql.Tx) error {
		var err error
		added, err = linkGenres(ctx, tx, "artist_genre", "artist_id", artistID, labels)
		return err
	})
	return added, err
}

// TrackGenres returns the labels associated with a track in label order.
func (db *DB) TrackGenres(ctx context.Context, trackID int64) ([]string, error) {
	return db.genreLabels(ctx, "track genres",
		`SELECT g.label FROM track_genre tg JOIN genre g ON g.id = tg.genre_id
		 WHERE tg.track_id = ? ORDER BY g.label`, trackID)
}

// ArtistGenres returns the labels associated with an artist in label order.
func (db *DB) ArtistGenres(ctx context.Context, artistID int64) ([]string, error) {
	return db.genreLabels(ctx, "artist genres",
		`SELECT g.label FROM artist_genre ag JOIN genre g ON g.id = ag.genre_id
		 WHERE ag.artist_id = ? ORDER BY g.label`, artistID)
}

func (db *DB) genreLabels(ctx context.Context, op, query string, id int64) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx, query, id)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	defer closeWithLog(rows, "rows")

	var labels []string
	for rows.Next() {
		var l string
		if err := rows.Scan(&l); err != nil {
			return nil, wrapErr(op, err)
		}
		labels = append(labels, l)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr(op, err)
	}
	return labels, nil
}
