// Setlist - Music Library Enrichment for Playlist Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package database

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/tomtom215/setlist/internal/config"
	"github.com/tomtom215/setlist/internal/models"
)

// testDBSemaphore serializes DuckDB usage across parallel tests. It is
// held for the whole test, not only while opening the database.
var testDBSemaphore = make(chan struct{}, 1)

var testBase = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func setupTestDB(t *testing.T) *DB {
	t.Helper()

	testDBSemaphore <- struct{}{}
	t.Cleanup(func() { <-testDBSemaphore })

	db, err := New(&config.DatabaseConfig{Path: ":memory:", MaxMemory: "512MB", Threads: 1})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	db.now = func() time.Time { return testBase }
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})
	return db
}

func record(ref, title, artist string) models.TrackRecord {
	return models.TrackRecord{
		OriginRef:  ref,
		Title:      title,
		ArtistName: artist,
		Album:      "Album " + ref,
		FilePath:   "/music/" + ref + ".flac",
		AddedAt:    testBase,
	}
}

// mustUpsert stores a record and fails the test on error.
func mustUpsert(t *testing.T, db *DB, rec models.TrackRecord) TrackUpsert {
	t.Helper()
	res, err := db.UpsertTrack(context.Background(), rec)
	if err != nil {
		t.Fatalf("UpsertTrack(%s) error = %v", rec.OriginRef, err)
	}
	return res
}

func TestNew_AppliesMigrations(t *testing.T) {
	db := setupTestDB(t)

	version, err := db.SchemaVersion(context.Background())
	if err != nil {
		t.Fatalf("SchemaVersion() error = %v", err)
	}
	if want := getMigrations()[len(getMigrations())-1].Version; version != want {
		t.Errorf("SchemaVersion() = %d, want %d", version, want)
	}

	// Re-running is a no-op.
	if err := db.migrate(context.Background()); err != nil {
		t.Fatalf("migrate() second pass error = %v", err)
	}
}

func TestError_MatchesPersistence(t *testing.T) {
	err := wrapErr("op", errors.New("boom"))
	if !errors.Is(err, ErrPersistence) {
		t.Error("wrapped error should match ErrPersistence")
	}
	if !IsPersistence(err) {
		t.Error("IsPersistence() = false, want true")
	}

	inner := wrapErr("inner", ErrStubEdgeSource)
	outer := wrapErr("outer", inner)
	var dbErr *Error
	if !errors.As(outer, &dbErr) || dbErr.Op != "inner" {
		t.Errorf("outer wrap should keep inner op, got %v", outer)
	}
	if !errors.Is(outer, ErrStubEdgeSource) {
		t.Error("sentinel lost through wrapping")
	}
	if wrapErr("nil", nil) != nil {
		t.Error("wrapErr(nil) should be nil")
	}
	if IsPersistence(fmt.Errorf("x: %w", ErrInvalidRecord)) {
		t.Error("ErrInvalidRecord must not be a persistence failure")
	}
}

func TestNameKeyAndGenreNormalization(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Radiohead", "radiohead"},
		{"  The   Beatles ", "the beatles"},
		{"\tSIGUR RÓS\n", "sigur rós"},
		{"   ", ""},
	}
	for _, tt := range tests {
		if got := NameKey(tt.in); got != tt.want {
			t.Errorf("NameKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
		if got := NormalizeGenre(tt.in); got != tt.want {
			t.Errorf("NormalizeGenre(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	got := dedupeGenres([]string{"Rock", " rock ", "", "Post Rock", "post  rock"})
	if len(got) != 2 || got[0] != "rock" || got[1] != "post rock" {
		t.Errorf("dedupeGenres() = %v", got)
	}
}
