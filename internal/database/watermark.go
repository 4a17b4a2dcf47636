// Setlist - Music Library Enrichment for Playlist Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/tomtom215/setlist/internal/models"
)

// GetWatermark returns the library watermark, or a zero Watermark when no
// run has completed yet.
func (db *DB) GetWatermark(ctx context.Context) (models.Watermark, error) {
	var w models.Watermark
	err := db.conn.QueryRowContext(ctx,
		`SELECT latest_entry, records, run_id, mode, completed_at FROM run_watermark WHERE id = 1`).
		Scan(&w.LatestEntry, &w.Records, &w.RunID, &w.Mode, &w.CompletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Watermark{}, nil
	}
	if err != nil {
		return models.Watermark{}, wrapErr("get watermark", err)
	}
	w.LatestEntry = w.LatestEntry.UTC()
	w.CompletedAt = w.CompletedAt.UTC()
	return w, nil
}

// AdvanceWatermark replaces the watermark row. Only the orchestrator calls
// it, after a successful full or incremental run.
func (db *DB) AdvanceWatermark(ctx context.Context, w models.Watermark) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO run_watermark (id, latest_entry, records, run_id, mode, completed_at)
		 VALUES (1, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
			latest_entry = excluded.latest_entry,
			records = excluded.records,
			run_id = excluded.run_id,
			mode = excluded.mode,
			completed_at = excluded.completed_at`,
		utc(w.LatestEntry), w.Records, w.RunID, w.Mode, utc(w.CompletedAt))
	return wrapErr("advance watermark", err)
}

// StartRun records a run in the history with status running.
func (db *DB) StartRun(ctx context.Context, runID, mode string, startedAt time.Time) (int64, error) {
	var id int64
	err := db.conn.QueryRowContext(ctx,
		`INSERT INTO run_history (run_id, mode, status, started_at) VALUES (?, ?, ?, ?) RETURNING id`,
		runID, mode, models.RunStatusRunning, utc(startedAt)).Scan(&id)
	if err != nil {
		return 0, wrapErr("start run", err)
	}
	return id, nil
}

// FinishRun closes a run history row.
func (db *DB) FinishRun(ctx context.Context, id int64, status string, records int, summaryJSON, errMsg string, finishedAt time.Time) error {
	_, err := db.conn.ExecContext(ctx,
		`UPDATE run_history SET status = ?, records = ?, summary_json = ?, error = ?, finished_at = ? WHERE id = ?`,
		status, records, nullString(summaryJSON), nullString(errMsg), utc(finishedAt), id)
	return wrapErr("finish run", err)
}

// RecentRuns returns up to limit runs, newest first.
func (db *DB) RecentRuns(ctx context.Context, limit int) ([]models.RunRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, run_id, mode, status, started_at, finished_at, records, summary_json, error
		 FROM run_history ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, wrapErr("recent runs", err)
	}
	defer closeWithLog(rows, "rows")

	runs := []models.RunRecord{}
	for rows.Next() {
		var (
			r        models.RunRecord
			finished sql.NullTime
			summary  sql.NullString
			errMsg   sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.RunID, &r.Mode, &r.Status, &r.StartedAt, &finished, &r.Records, &summary, &errMsg); err != nil {
			return nil, wrapErr("recent runs", err)
		}
		r.StartedAt = r.StartedAt.UTC()
		r.FinishedAt = timePtr(finished)
		r.Summary = summary.String
		r.Error = errMsg.String
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("recent runs", err)
	}
	return runs, nil
}
