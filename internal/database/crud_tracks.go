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
	"strings"
	"time"

	"github.com/tomtom215/setlist/internal/models"
)

// UpsertOutcome describes what UpsertTrack did with a library record.
type UpsertOutcome int

const (
	UpsertUnchanged UpsertOutcome = iota
	UpsertInserted
	UpsertUpdated
)

func (o UpsertOutcome) String() string {
	switch o {
	case UpsertInserted:
		return "inserted"
	case UpsertUpdated:
		return "updated"
	default:
		return "unchanged"
	}
}

// TrackUpsert is the result of storing one library record.
type TrackUpsert struct {
	TrackID       int64
	ArtistID      int64
	Outcome       UpsertOutcome
	ArtistCreated bool
}

// TrackEnrichment is the write set for one track-level attempt.
type TrackEnrichment struct {
	TrackID     int64
	ExternalID  string
	Genres      []string
	Status      models.EnrichmentStatus
	AttemptedAt time.Time
	StaleBefore time.Time

	// ErroredStaleBefore bounds rewrites of an errored marker.
	ErroredStaleBefore time.Time
}

// UpsertTrack stores a library record keyed by its origin reference.
// The artist is upserted by name key and library genres are linked.
// Records without an origin reference or title are rejected with
// ErrInvalidRecord, which is not a persistence failure.
func (db *DB) UpsertTrack(ctx context.Context, rec models.TrackRecord) (TrackUpsert, error) {
	rec.OriginRef = strings.TrimSpace(rec.OriginRef)
	rec.Title = strings.TrimSpace(rec.Title)
	rec.ArtistName = strings.TrimSpace(rec.ArtistName)
	if rec.OriginRef == "" || rec.Title == "" || rec.ArtistName == "" {
		return TrackUpsert{}, fmt.Errorf("upsert track %q: %w", rec.OriginRef, ErrInvalidRecord)
	}
	addedAt := rec.AddedAt.UTC().Truncate(time.Microsecond)

	var out TrackUpsert
	err := db.withTx(ctx, "upsert track", func(tx *sql.Tx) error {
		out = TrackUpsert{}

		artistID, created, err := db.upsertArtist(ctx, tx, rec.ArtistName)
		if err != nil {
			return err
		}
		out.ArtistID = artistID
		out.ArtistCreated = created

		var (
			id       int64
			title    string
			curArtID int64
			album    sql.NullString
			filePath sql.NullString
			curAdded time.Time
		)
		err = tx.QueryRowContext(ctx,
			`SELECT id, title, artist_id, album, file_path, added_at FROM track WHERE origin_ref = ?`,
			rec.OriginRef).Scan(&id, &title, &curArtID, &album, &filePath, &curAdded)

		switch {
		case errors.Is(err, sql.ErrNoRows):
			if err := tx.QueryRowContext(ctx,
				`INSERT INTO track (origin_ref, title, artist_id, album, file_path, added_at, created_at)
				 VALUES (?, ?, ?, ?, ?, ?, ?) RETURNING id`,
				rec.OriginRef, rec.Title, artistID, nullString(rec.Album), nullString(rec.FilePath),
				addedAt, db.now()).Scan(&id); err != nil {
				return err
			}
			out.Outcome = UpsertInserted
		case err != nil:
			return err
		default:
			if title != rec.Title || curArtID != artistID || album.String != rec.Album ||
				filePath.String != rec.FilePath || !curAdded.UTC().Equal(addedAt) {
				if _, err := tx.ExecContext(ctx,
					`UPDATE track SET title = ?, artist_id = ?, album = ?, file_path = ?, added_at = ? WHERE id = ?`,
					rec.Title, artistID, nullString(rec.Album), nullString(rec.FilePath), addedAt, id); err != nil {
					return err
				}
				out.Outcome = UpsertUpdated
			}
		}
		out.TrackID = id

		added, err := linkGenres(ctx, tx, "track_genre", "track_id", id, rec.Genres)
		if err != nil {
			return err
		}
		if added > 0 && out.Outcome == UpsertUnchanged {
			out.Outcome = UpsertUpdated
		}
		return nil
	})
	if err != nil {
		return TrackUpsert{}, err
	}
	return out, nil
}

const trackColumns = `t.id, t.origin_ref, t.title, t.artist_id, a.name, t.album, t.file_path,
	t.tempo, t.tempo_source, t.external_id, t.fingerprint_id, t.added_at,
	t.enrichment_attempted_at, t.enrichment_status`

func scanTrack(row interface{ Scan(...any) error }) (*models.Track, error) {
	var (
		t           models.Track
		album       sql.NullString
		filePath    sql.NullString
		tempo       sql.NullFloat64
		tempoSource sql.NullString
		externalID  sql.NullString
		fingerprint sql.NullString
		attempted   sql.NullTime
		status      sql.NullString
	)
	if err := row.Scan(&t.ID, &t.OriginRef, &t.Title, &t.ArtistID, &t.ArtistName, &album, &filePath,
		&tempo, &tempoSource, &externalID, &fingerprint, &t.AddedAt, &attempted, &status); err != nil {
		return nil, err
	}
	t.Album = album.String
	t.FilePath = filePath.String
	if tempo.Valid {
		v := tempo.Float64
		t.Tempo = &v
	}
	t.TempoSource = tempoSource.String
	t.ExternalID = externalID.String
	t.FingerprintID = fingerprint.String
	t.AddedAt = t.AddedAt.UTC()
	t.AttemptedAt = timePtr(attempted)
	t.Status = statusOf(status)
	return &t, nil
}

// GetTrack returns one track joined with its artist name.
func (db *DB) GetTrack(ctx context.Context, id int64) (*models.Track, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+trackColumns+` FROM track t JOIN artist a ON a.id = t.artist_id WHERE t.id = ?`, id)
	t, err := scanTrack(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &Error{Op: "get track", Err: fmt.Errorf("%w: %d", ErrTrackNotFound, id)}
	}
	if err != nil {
		return nil, wrapErr("get track", err)
	}
	return t, nil
}

// GetTrackByOriginRef returns the track for a library key, or nil.
func (db *DB) GetTrackByOriginRef(ctx context.Context, ref string) (*models.Track, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+trackColumns+` FROM track t JOIN artist a ON a.id = t.artist_id WHERE t.origin_ref = ?`, ref)
	t, err := scanTrack(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapErr("get track by origin", err)
	}
	return t, nil
}

// GetTracks returns the tracks with the given ids ordered by id.
func (db *DB) GetTracks(ctx context.Context, ids []int64) ([]*models.Track, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+trackColumns+` FROM track t JOIN artist a ON a.id = t.artist_id
		 WHERE t.id IN (`+placeholders(len(ids))+`) ORDER BY t.id`, int64Args(ids)...)
	if err != nil {
		return nil, wrapErr("get tracks", err)
	}
	defer closeWithLog(rows, "rows")

	var out []*models.Track
	for rows.Next() {
		t, err := scanTrack(rows)
		if err != nil {
			return nil, wrapErr("get tracks", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("get tracks", err)
	}
	return out, nil
}

// TrackIDsForArtists returns the ids of every track owned by the artists.
func (db *DB) TrackIDsForArtists(ctx context.Context, artistIDs []int64) ([]int64, error) {
	if len(artistIDs) == 0 {
		return []int64{}, nil
	}
	return db.queryIDs(ctx, "track ids for artists",
		`SELECT id FROM track WHERE artist_id IN (`+placeholders(len(artistIDs))+`) ORDER BY id`,
		int64Args(artistIDs)...)
}

// SetTrackTempo records a tempo value while the track has none. It never
// overwrites an existing tempo.
func (db *DB) SetTrackTempo(ctx context.Context, trackID int64, bpm float64, source string) (bool, error) {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE track SET tempo = ?, tempo_source = ? WHERE id = ? AND tempo IS NULL`,
		bpm, source, trackID)
	if err != nil {
		return false, wrapErr("set track tempo", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, wrapErr("set track tempo", err)
	}
	return n > 0, nil
}

// SetTrackIdentity records the MusicBrainz recording id and AcoustID of a
// track. Empty arguments leave the stored value alone, and nothing is
// written when the stored values already match.
func (db *DB) SetTrackIdentity(ctx context.Context, trackID int64, recordingID, fingerprintID string) (bool, error) {
	if recordingID == "" && fingerprintID == "" {
		return false, nil
	}
	var changed bool
	err := db.withTx(ctx, "set track identity", func(tx *sql.Tx) error {
		changed = false

		var curRecording, curFingerprint sql.NullString
		err := tx.QueryRowContext(ctx,
			`SELECT external_id, fingerprint_id FROM track WHERE id = ?`, trackID).Scan(&curRecording, &curFingerprint)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %d", ErrTrackNotFound, trackID)
		}
		if err != nil {
			return err
		}

		nextRecording := curRecording.String
		if recordingID != "" {
			nextRecording = recordingID
		}
		nextFingerprint := curFingerprint.String
		if fingerprintID != "" {
			nextFingerprint = fingerprintID
		}
		if nextRecording == curRecording.String && nextFingerprint == curFingerprint.String {
			return nil
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE track SET external_id = ?, fingerprint_id = ? WHERE id = ?`,
			nullString(nextRecording), nullString(nextFingerprint), trackID); err != nil {
			return err
		}
		changed = true
		return nil
	})
	return changed, err
}

// ApplyTrackEnrichment writes a track's identity, genres and enrichment
// marker in one transaction.
func (db *DB) ApplyTrackEnrichment(ctx context.Context, in TrackEnrichment) (WriteResult, error) {
	var result WriteResult
	err := db.withTx(ctx, "apply track enrichment", func(tx *sql.Tx) error {
		result = WriteResult{}

		var externalID sql.NullString
		err := tx.QueryRowContext(ctx, `SELECT external_id FROM track WHERE id = ?`, in.TrackID).Scan(&externalID)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %d", ErrTrackNotFound, in.TrackID)
		}
		if err != nil {
			return err
		}

		if in.ExternalID != "" && externalID.String != in.ExternalID {
			if _, err := tx.ExecContext(ctx,
				`UPDATE track SET external_id = ? WHERE id = ?`, in.ExternalID, in.TrackID); err != nil {
				return err
			}
			result.IdentitySet = true
		}

		added, err := linkGenres(ctx, tx, "track_genre", "track_id", in.TrackID, in.Genres)
		if err != nil {
			return err
		}
		result.GenresAdded = added

		written, err := writeMarker(ctx, tx, "track", in.TrackID, marker{
			status:             in.Status,
			at:                 in.AttemptedAt,
			staleBefore:        in.StaleBefore,
			erroredStaleBefore: in.ErroredStaleBefore,
		})
		if err != nil {
			return err
		}
		result.MarkerWritten = written
		return nil
	})
	if err != nil {
		return WriteResult{}, err
	}
	return result, nil
}
