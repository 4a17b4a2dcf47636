// Setlist - Music Library Enrichment for Playlist Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package database

import (
	"context"
	"strings"
	"time"

	"github.com/tomtom215/setlist/internal/models"
)

// Scope parameterizes the work-set selectors.
type Scope struct {
	// Now is the reference time for re-attempt horizons.
	Now time.Time

	// ReattemptAfter re-selects entities whose marker is older than this.
	// Zero disables age-based re-selection.
	ReattemptAfter time.Duration

	// ErroredReattemptAfter re-selects entities whose last attempt
	// errored once the marker is older than this. Zero disables it.
	ErroredReattemptAfter time.Duration

	// Force selects every entity in the restriction regardless of
	// existing data and markers. Forced scopes must be restricted.
	Force bool

	// ArtistIDs and TrackIDs restrict artist and track selectors. Nil
	// means unrestricted; an empty non-nil slice selects nothing.
	ArtistIDs []int64
	TrackIDs  []int64
}

// whereBuilder accumulates AND-ed predicates and their arguments.
type whereBuilder struct {
	clauses []string
	args    []any
}

func (w *whereBuilder) add(clause string, args ...any) {
	w.clauses = append(w.clauses, clause)
	w.args = append(w.args, args...)
}

// restrict adds "col IN (...)" for a non-nil id list.
func (w *whereBuilder) restrict(col string, ids []int64) {
	if ids == nil {
		return
	}
	if len(ids) == 0 {
		w.add("FALSE")
		return
	}
	w.add(col+" IN ("+placeholders(len(ids))+")", int64Args(ids)...)
}

func (w *whereBuilder) String() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}

// markerPredicate returns the "due for an attempt" predicate for the
// marker columns under alias, honoring the scope's horizons.
func markerPredicate(alias string, scope Scope) (string, []any) {
	parts := []string{alias + ".enrichment_attempted_at IS NULL"}
	var args []any
	if scope.ErroredReattemptAfter > 0 {
		parts = append(parts, "("+alias+".enrichment_status = ? AND "+alias+".enrichment_attempted_at < ?)")
		args = append(args, string(models.StatusErrored), utc(scope.Now.Add(-scope.ErroredReattemptAfter)))
	}
	if scope.ReattemptAfter > 0 {
		parts = append(parts, alias+".enrichment_attempted_at < ?")
		args = append(args, utc(scope.Now.Add(-scope.ReattemptAfter)))
	}
	return "(" + strings.Join(parts, " OR ") + ")", args
}

const primaryPredicate = "EXISTS (SELECT 1 FROM track t WHERE t.artist_id = a.id)"

// PrimaryArtistsNeedingFull selects primary artists that have no
// outgoing similar-artist edges and are due for an attempt. An artist
// whose only attempt was a core one (made while it was a stub) is due.
func (db *DB) PrimaryArtistsNeedingFull(ctx context.Context, scope Scope) ([]int64, error) {
	var w whereBuilder
	w.add(primaryPredicate)
	w.restrict("a.id", scope.ArtistIDs)
	if !scope.Force {
		w.add("NOT EXISTS (SELECT 1 FROM similar_artist s WHERE s.artist_id = a.id)")
		pred, args := markerPredicate("a", scope)
		w.add("("+pred+" OR NOT EXISTS (SELECT 1 FROM artist_full_attempt f WHERE f.artist_id = a.id))", args...)
	}
	return db.queryIDs(ctx, "select primary artists",
		`SELECT a.id FROM artist a`+w.String()+` ORDER BY a.id`, w.args...)
}

// StubArtistsNeedingCore selects stub artists with no identity that have
// never been attempted. Stubs are not re-attempted on age.
func (db *DB) StubArtistsNeedingCore(ctx context.Context, scope Scope) ([]int64, error) {
	var w whereBuilder
	w.add("NOT " + primaryPredicate)
	w.restrict("a.id", scope.ArtistIDs)
	if !scope.Force {
		w.add("a.external_id IS NULL")
		w.add("a.enrichment_attempted_at IS NULL")
	}
	return db.queryIDs(ctx, "select stub artists",
		`SELECT a.id FROM artist a`+w.String()+` ORDER BY a.id`, w.args...)
}

// TracksNeedingTempo selects tracks with no tempo.
func (db *DB) TracksNeedingTempo(ctx context.Context, scope Scope) ([]int64, error) {
	var w whereBuilder
	w.add("t.tempo IS NULL")
	w.restrict("t.id", scope.TrackIDs)
	return db.queryIDs(ctx, "select tracks needing tempo",
		`SELECT t.id FROM track t`+w.String()+` ORDER BY t.id`, w.args...)
}

// TracksNeedingTempoLookup selects tracks with no tempo that carry a
// recording id a tempo service can be asked about.
func (db *DB) TracksNeedingTempoLookup(ctx context.Context, scope Scope) ([]int64, error) {
	var w whereBuilder
	w.add("t.tempo IS NULL")
	w.add("t.external_id IS NOT NULL")
	w.restrict("t.id", scope.TrackIDs)
	return db.queryIDs(ctx, "select tracks needing tempo lookup",
		`SELECT t.id FROM track t`+w.String()+` ORDER BY t.id`, w.args...)
}

// TracksNeedingTrackEnrichment selects identified tracks due for a
// track-level metadata attempt. With skipWithGenres, tracks that already
// have genre associations are left out.
func (db *DB) TracksNeedingTrackEnrichment(ctx context.Context, scope Scope, skipWithGenres bool) ([]int64, error) {
	var w whereBuilder
	w.add("t.external_id IS NOT NULL")
	w.restrict("t.id", scope.TrackIDs)
	if !scope.Force {
		pred, args := markerPredicate("t", scope)
		w.add(pred, args...)
		if skipWithGenres {
			w.add("NOT EXISTS (SELECT 1 FROM track_genre tg WHERE tg.track_id = t.id)")
		}
	}
	return db.queryIDs(ctx, "select tracks needing enrichment",
		`SELECT t.id FROM track t`+w.String()+` ORDER BY t.id`, w.args...)
}

// TracksNeedingIdentity selects tracks with a file path but no recording
// id. With Force, every restricted track with a file path is selected.
func (db *DB) TracksNeedingIdentity(ctx context.Context, scope Scope) ([]int64, error) {
	var w whereBuilder
	w.add("t.file_path IS NOT NULL")
	w.add("t.file_path <> ''")
	w.restrict("t.id", scope.TrackIDs)
	if !scope.Force {
		w.add("t.external_id IS NULL")
	}
	return db.queryIDs(ctx, "select tracks needing identity",
		`SELECT t.id FROM track t`+w.String()+` ORDER BY t.id`, w.args...)
}
