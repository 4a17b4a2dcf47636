// Setlist - Music Library Enrichment for Playlist Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/setlist/internal/logging"
)

// Migration is one versioned schema change. Migrations run exactly once,
// in version order, and are recorded in schema_migrations.
type Migration struct {
	Version     int
	Name        string
	Description string
	SQL         string
	AppliedAt   time.Time
}

const schemaMigrationsTable = `
CREATE TABLE IF NOT EXISTS schema_migrations (
	version INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	description TEXT,
	applied_at TIMESTAMP NOT NULL DEFAULT current_timestamp
);
`

// No foreign keys and no secondary indexes. Referential integrity is
// maintained by the write paths in this package.
const initialSchema = `
CREATE SEQUENCE IF NOT EXISTS artist_id_seq START 1;
CREATE SEQUENCE IF NOT EXISTS track_id_seq START 1;
CREATE SEQUENCE IF NOT EXISTS genre_id_seq START 1;
CREATE SEQUENCE IF NOT EXISTS run_history_id_seq START 1;

CREATE TABLE IF NOT EXISTS artist (
	id BIGINT PRIMARY KEY DEFAULT nextval('artist_id_seq'),
	name TEXT NOT NULL,
	name_key TEXT NOT NULL UNIQUE,
	external_id TEXT,
	enrichment_attempted_at TIMESTAMP,
	enrichment_status TEXT,
	created_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS track (
	id BIGINT PRIMARY KEY DEFAULT nextval('track_id_seq'),
	origin_ref TEXT NOT NULL UNIQUE,
	title TEXT NOT NULL,
	artist_id BIGINT NOT NULL,
	album TEXT,
	file_path TEXT,
	tempo DOUBLE,
	tempo_source TEXT,
	external_id TEXT,
	fingerprint_id TEXT,
	added_at TIMESTAMP NOT NULL,
	enrichment_attempted_at TIMESTAMP,
	enrichment_status TEXT,
	created_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS genre (
	id BIGINT PRIMARY KEY DEFAULT nextval('genre_id_seq'),
	label TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS track_genre (
	track_id BIGINT NOT NULL,
	genre_id BIGINT NOT NULL,
	PRIMARY KEY (track_id, genre_id)
);

CREATE TABLE IF NOT EXISTS artist_genre (
	artist_id BIGINT NOT NULL,
	genre_id BIGINT NOT NULL,
	PRIMARY KEY (artist_id, genre_id)
);

CREATE TABLE IF NOT EXISTS similar_artist (
	artist_id BIGINT NOT NULL,
	similar_artist_id BIGINT NOT NULL,
	created_at TIMESTAMP NOT NULL,
	PRIMARY KEY (artist_id, similar_artist_id)
);

CREATE TABLE IF NOT EXISTS run_watermark (
	id INTEGER PRIMARY KEY,
	latest_entry TIMESTAMP NOT NULL,
	records INTEGER NOT NULL,
	run_id TEXT NOT NULL,
	mode TEXT NOT NULL,
	completed_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS run_history (
	id BIGINT PRIMARY KEY DEFAULT nextval('run_history_id_seq'),
	run_id TEXT NOT NULL,
	mode TEXT NOT NULL,
	status TEXT NOT NULL,
	started_at TIMESTAMP NOT NULL,
	finished_at TIMESTAMP,
	records INTEGER NOT NULL DEFAULT 0,
	summary_json TEXT,
	error TEXT
);
`

// fullAttemptSchema records which artists have had a full attempt.
// Artists already attempted while primary are backfilled.
const fullAttemptSchema = `
CREATE TABLE IF NOT EXISTS artist_full_attempt (
	artist_id BIGINT PRIMARY KEY,
	attempted_at TIMESTAMP NOT NULL
);

INSERT INTO artist_full_attempt (artist_id, attempted_at)
SELECT a.id, a.enrichment_attempted_at FROM artist a
WHERE a.enrichment_attempted_at IS NOT NULL
  AND EXISTS (SELECT 1 FROM track t WHERE t.artist_id = a.id)
ON CONFLICT (artist_id) DO NOTHING;
`

// getMigrations returns all versioned migrations in order.
func getMigrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Name:        "initial_schema",
			Description: "Library, enrichment, graph and run bookkeeping tables",
			SQL:         initialSchema,
		},
		{
			Version:     2,
			Name:        "artist_full_attempt",
			Description: "Separate full artist attempts from core-only ones",
			SQL:         fullAttemptSchema,
		},
	}
}

// migrate applies every migration not yet recorded in schema_migrations.
func (db *DB) migrate(ctx context.Context) error {
	if _, err := db.conn.ExecContext(ctx, schemaMigrationsTable); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied, err := db.appliedVersions(ctx)
	if err != nil {
		return err
	}

	newMigrations := 0
	for _, m := range getMigrations() {
		if applied[m.Version] {
			continue
		}
		if _, err := db.conn.ExecContext(ctx, m.SQL); err != nil {
			return fmt.Errorf("failed to execute migration v%d (%s): %w", m.Version, m.Name, err)
		}
		if _, err := db.conn.ExecContext(ctx,
			`INSERT INTO schema_migrations (version, name, description) VALUES (?, ?, ?)`,
			m.Version, m.Name, m.Description); err != nil {
			return fmt.Errorf("failed to record migration v%d: %w", m.Version, err)
		}
		newMigrations++
	}

	if newMigrations > 0 {
		logging.Info().Int("count", newMigrations).Msg("Applied database migrations")
	}
	return nil
}

func (db *DB) appliedVersions(ctx context.Context) (map[int]bool, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT version FROM schema_migrations ORDER BY version`)
	if err != nil {
		return nil, fmt.Errorf("failed to query applied migrations: %w", err)
	}
	defer closeWithLog(rows, "rows")

	applied := make(map[int]bool)
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan migration row: %w", err)
		}
		applied[v] = true
	}
	return applied, rows.Err()
}

// SchemaVersion returns the highest applied migration version.
func (db *DB) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	err := db.conn.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&version)
	if err != nil {
		return 0, wrapErr("schema version", err)
	}
	return version, nil
}
