// Setlist - Music Library Enrichment for Playlist Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/tomtom215/setlist/internal/config"
	"github.com/tomtom215/setlist/internal/logging"
)

// maxTxAttempts bounds retries of a transaction that lost a write conflict.
const maxTxAttempts = 3

// DB wraps the DuckDB connection and provides the entity store operations.
type DB struct {
	conn *sql.DB
	cfg  *config.DatabaseConfig

	// now is the clock used for created_at columns; tests may replace it.
	now func() time.Time
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// New opens the database at cfg.Path and applies pending migrations.
// A path of ":memory:" opens a private in-memory database.
func New(cfg *config.DatabaseConfig) (*DB, error) {
	numThreads := cfg.Threads
	if numThreads <= 0 {
		numThreads = runtime.NumCPU()
	}

	if cfg.Path != ":memory:" {
		dbDir := filepath.Dir(cfg.Path)
		if dbDir != "" && dbDir != "." {
			if err := os.MkdirAll(dbDir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create database directory %s: %w", dbDir, err)
			}
		}
	}

	connStr := fmt.Sprintf("%s?access_mode=read_write&threads=%d&max_memory=%s",
		cfg.Path, numThreads, cfg.MaxMemory)

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, &Error{Op: "open", Err: err}
	}

	db := &DB{
		conn: conn,
		cfg:  cfg,
		now:  func() time.Time { return time.Now().UTC() },
	}
	db.configureConnectionPool()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	if err := db.Ping(ctx); err != nil {
		closeQuietly(conn)
		return nil, &Error{Op: "ping", Err: err}
	}
	if err := db.migrate(ctx); err != nil {
		closeQuietly(conn)
		return nil, wrapErr("migrate", err)
	}

	logging.Debug().Str("path", cfg.Path).Int("threads", numThreads).Msg("Database opened")
	return db, nil
}

func (db *DB) configureConnectionPool() {
	db.conn.SetMaxOpenConns(runtime.NumCPU())
	db.conn.SetMaxIdleConns(2)
	db.conn.SetConnMaxLifetime(time.Hour)
	db.conn.SetConnMaxIdleTime(5 * time.Minute)
}

// Close checkpoints the database and closes the connection.
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}
	if db.cfg != nil && db.cfg.Path != ":memory:" {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if _, err := db.conn.ExecContext(ctx, "CHECKPOINT"); err != nil {
			logging.Warn().Err(err).Msg("Checkpoint before close failed")
		}
		cancel()
	}
	return db.conn.Close()
}

// Ping verifies the connection is alive.
func (db *DB) Ping(ctx context.Context) error {
	if db.conn == nil {
		return fmt.Errorf("database connection is nil")
	}
	return db.conn.PingContext(ctx)
}

// withTx runs fn inside a transaction and commits on success. A DuckDB
// write conflict is retried a bounded number of times; any other failure
// rolls back and is returned as *Error. Sentinels returned by fn stay
// matchable through errors.Is.
func (db *DB) withTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	var lastErr error
	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		err := db.runTx(ctx, fn)
		if err == nil {
			return nil
		}
		lastErr = err
		if !isTransactionConflict(err) || ctx.Err() != nil {
			break
		}
		logging.Debug().Str("op", op).Int("attempt", attempt).Err(err).Msg("Retrying transaction after conflict")
	}
	return wrapErr(op, lastErr)
}

func (db *DB) runTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
