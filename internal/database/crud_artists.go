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
	"time"

	"github.com/tomtom215/setlist/internal/models"
)

// ArtistEnrichment is the complete write set for one artist attempt.
type ArtistEnrichment struct {
	ArtistID   int64
	ExternalID string
	Genres     []string

	// Similar holds display names of similar artists. Each one is upserted
	// as an artist (a stub when it has no tracks) and linked by an edge
	// from ArtistID. Non-empty Similar requires ArtistID to be primary.
	Similar []string

	// Kind is KindFull when similar artists were asked for. A full attempt
	// is recorded separately so a core-only marker does not hold back
	// full enrichment once the artist becomes primary.
	Kind models.EnrichmentKind

	Status      models.EnrichmentStatus
	AttemptedAt time.Time

	// StaleBefore bounds marker rewrites: an existing marker with the same
	// status is only rewritten when it is older than this. Zero never
	// rewrites a same-status marker.
	StaleBefore time.Time

	// ErroredStaleBefore is the bound applied instead when the existing
	// marker is errored.
	ErroredStaleBefore time.Time
}

// WriteResult counts the rows an enrichment write actually changed.
type WriteResult struct {
	IdentitySet   bool
	GenresAdded   int
	StubsCreated  int
	EdgesAdded    int
	MarkerWritten bool
}

// Changed reports whether any enrichment data (not just the marker) changed.
func (w WriteResult) Changed() bool {
	return w.IdentitySet || w.GenresAdded > 0 || w.StubsCreated > 0 || w.EdgesAdded > 0
}

// upsertArtist returns the id for name, creating the artist if its name
// key is new. The first display name seen for a key is kept.
func (db *DB) upsertArtist(ctx context.Context, q queryer, name string) (int64, bool, error) {
	key := NameKey(name)
	if key == "" {
		return 0, false, fmt.Errorf("%w: empty artist name", ErrInvalidRecord)
	}
	res, err := q.ExecContext(ctx,
		`INSERT INTO artist (name, name_key, created_at) VALUES (?, ?, ?) ON CONFLICT (name_key) DO NOTHING`,
		name, key, db.now())
	if err != nil {
		return 0, false, err
	}
	created := false
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		created = true
	}

	var id int64
	if err := q.QueryRowContext(ctx, `SELECT id FROM artist WHERE name_key = ?`, key).Scan(&id); err != nil {
		return 0, false, err
	}
	return id, created, nil
}

// UpsertArtist returns the id for the artist named name, creating it when
// no artist with the same name key exists.
func (db *DB) UpsertArtist(ctx context.Context, name string) (int64, bool, error) {
	if NameKey(name) == "" {
		return 0, false, fmt.Errorf("upsert artist: %w: empty artist name", ErrInvalidRecord)
	}
	var (
		id      int64
		created bool
	)
	err := db.withTx(ctx, "upsert artist", func(tx *sql.Tx) error {
		var err error
		id, created, err = db.upsertArtist(ctx, tx, name)
		return err
	})
	return id, created, err
}

const artistColumns = `a.id, a.name, a.external_id, a.enrichment_attempted_at, a.enrichment_status,
	(SELECT COUNT(*) FROM track t WHERE t.artist_id = a.id) AS track_count`

func scanArtist(row interface{ Scan(...any) error }) (*models.Artist, error) {
	var (
		a          models.Artist
		externalID sql.NullString
		attempted  sql.NullTime
		status     sql.NullString
	)
	if err := row.Scan(&a.ID, &a.Name, &externalID, &attempted, &status, &a.TrackCount); err != nil {
		return nil, err
	}
	a.ExternalID = externalID.String
	a.AttemptedAt = timePtr(attempted)
	a.Status = statusOf(status)
	return &a, nil
}

// GetArtist returns one artist with its current track count.
func (db *DB) GetArtist(ctx context.Context, id int64) (*models.Artist, error) {
	row := db.conn.QueryRowContext(ctx, `SELECT `+artistColumns+` FROM artist a WHERE a.id = ?`, id)
	a, err := scanArtist(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &Error{Op: "get artist", Err: fmt.Errorf("%w: %d", ErrArtistNotFound, id)}
	}
	if err != nil {
		return nil, wrapErr("get artist", err)
	}
	return a, nil
}

// FindArtistByName returns the artist whose name key matches name, or
// nil when there is none.
func (db *DB) FindArtistByName(ctx context.Context, name string) (*models.Artist, error) {
	row := db.conn.QueryRowContext(ctx, `SELECT `+artistColumns+` FROM artist a WHERE a.name_key = ?`, NameKey(name))
	a, err := scanArtist(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapErr("find artist", err)
	}
	return a, nil
}

// GetArtists returns the artists with the given ids ordered by id.
func (db *DB) GetArtists(ctx context.Context, ids []int64) ([]*models.Artist, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+artistColumns+` FROM artist a WHERE a.id IN (`+placeholders(len(ids))+`) ORDER BY a.id`,
		int64Args(ids)...)
	if err != nil {
		return nil, wrapErr("get artists", err)
	}
	defer closeWithLog(rows, "rows")

	var out []*models.Artist
	for rows.Next() {
		a, err := scanArtist(rows)
		if err != nil {
			return nil, wrapErr("get artists", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("get artists", err)
	}
	return out, nil
}

// ApplyArtistEnrichment writes identity, genres, similar-artist stubs and
// edges, and the enrichment marker for one artist in a single
// transaction. The primary check for edges happens inside the
// transaction, so a concurrent track change cannot slip an edge onto a
// stub.
func (db *DB) ApplyArtistEnrichment(ctx context.Context, in ArtistEnrichment) (WriteResult, error) {
	var result WriteResult
	err := db.withTx(ctx, "apply artist enrichment", func(tx *sql.Tx) error {
		result = WriteResult{}

		var (
			nameKey    string
			externalID sql.NullString
			primary    bool
		)
		err := tx.QueryRowContext(ctx,
			`SELECT name_key, external_id, EXISTS (SELECT 1 FROM track t WHERE t.artist_id = a.id)
			 FROM artist a WHERE a.id = ?`, in.ArtistID).Scan(&nameKey, &externalID, &primary)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %d", ErrArtistNotFound, in.ArtistID)
		}
		if err != nil {
			return err
		}

		if in.ExternalID != "" && externalID.String != in.ExternalID {
			if _, err := tx.ExecContext(ctx,
				`UPDATE artist SET external_id = ? WHERE id = ?`, in.ExternalID, in.ArtistID); err != nil {
				return err
			}
			result.IdentitySet = true
		}

		added, err := linkGenres(ctx, tx, "artist_genre", "artist_id", in.ArtistID, in.Genres)
		if err != nil {
			return err
		}
		result.GenresAdded = added

		if len(in.Similar) > 0 {
			if !primary {
				return fmt.Errorf("%w: artist %d", ErrStubEdgeSource, in.ArtistID)
			}
			for _, name := range in.Similar {
				key := NameKey(name)
				if key == "" || key == nameKey {
					continue
				}
				targetID, created, err := db.upsertArtist(ctx, tx, name)
				if err != nil {
					return err
				}
				if created {
					result.StubsCreated++
				}
				edge, err := db.insertEdge(ctx, tx, in.ArtistID, targetID)
				if err != nil {
					return err
				}
				if edge {
					result.EdgesAdded++
				}
			}
		}

		written, err := writeMarker(ctx, tx, "artist", in.ArtistID, marker{
			status:             in.Status,
			at:                 in.AttemptedAt,
			staleBefore:        in.StaleBefore,
			erroredStaleBefore: in.ErroredStaleBefore,
		})
		if err != nil {
			return err
		}
		if in.Kind == models.KindFull && in.Status != "" {
			res, err := tx.ExecContext(ctx,
				`INSERT INTO artist_full_attempt (artist_id, attempted_at) VALUES (?, ?)
				 ON CONFLICT (artist_id) DO NOTHING`, in.ArtistID, utc(in.AttemptedAt))
			if err != nil {
				return err
			}
			if n, err := res.RowsAffected(); err == nil && n > 0 {
				written = true
			}
		}
		result.MarkerWritten = written
		return nil
	})
	if err != nil {
		return WriteResult{}, err
	}
	return result, nil
}

// SetArtistIdentity fills an artist's external id when it is still unset.
func (db *DB) SetArtistIdentity(ctx context.Context, artistID int64, externalID string) (bool, error) {
	if externalID == "" {
		return false, nil
	}
	res, err := db.conn.ExecContext(ctx,
		`UPDATE artist SET external_id = ? WHERE id = ? AND external_id IS NULL`, externalID, artistID)
	if err != nil {
		return false, wrapErr("set artist identity", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, wrapErr("set artist identity", err)
	}
	return n > 0, nil
}

// ArtistIDsByNames resolves display names to artist ids by name key.
// Unknown names are returned separately, in input order.
func (db *DB) ArtistIDsByNames(ctx context.Context, names []string) ([]int64, []string, error) {
	var (
		ids     []int64
		missing []string
		seen    = make(map[int64]struct{})
	)
	for _, name := range names {
		var id int64
		err := db.conn.QueryRowContext(ctx, `SELECT id FROM artist WHERE name_key = ?`, NameKey(name)).Scan(&id)
		if errors.Is(err, sql.ErrNoRows) {
			missing = append(missing, name)
			continue
		}
		if err != nil {
			return nil, nil, wrapErr("resolve artist names", err)
		}
		if _, dup := seen[id]; !dup {
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	sortIDs(ids)
	return ids, missing, nil
}

// marker is one enrichment attempt to record.
type marker struct {
	status             models.EnrichmentStatus
	at                 time.Time
	staleBefore        time.Time
	erroredStaleBefore time.Time
}

// writeMarker records an enrichment attempt on an artist or track row.
// The marker is only written when it is unset, when the status differs,
// or when the existing marker is older than its staleness bound:
// erroredStaleBefore for errored markers, staleBefore otherwise.
func writeMarker(ctx context.Context, q queryer, table string, id int64, m marker) (bool, error) {
	if m.status == "" {
		return false, nil
	}
	res, err := q.ExecContext(ctx,
		`UPDATE `+table+` SET enrichment_attempted_at = ?, enrichment_status = ?
		 WHERE id = ? AND (enrichment_attempted_at IS NULL
		   OR enrichment_status IS DISTINCT FROM ?
		   OR enrichment_attempted_at < ?
		   OR (enrichment_status = ? AND enrichment_attempted_at < ?))`,
		utc(m.at), string(m.status), id, string(m.status), utc(m.staleBefore),
		string(models.StatusErrored), utc(m.erroredStaleBefore))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
