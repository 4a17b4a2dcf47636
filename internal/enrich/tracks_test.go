// Setlist - Music Library Enrichment for Playlist Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package enrich

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/tomtom215/setlist/internal/database"
	"github.com/tomtom215/setlist/internal/models"
	"github.com/tomtom215/setlist/internal/sources"
	"github.com/tomtom215/setlist/internal/tags"
)

func setIdentity(t *testing.T, db *database.DB, id int64, mbid string) {
	t.Helper()
	if _, err := db.SetTrackIdentity(context.Background(), id, mbid, ""); err != nil {
		t.Fatalf("SetTrackIdentity(%d) error = %v", id, err)
	}
}

func TestTrackGenre(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	known, _ := addTrack(t, db, "1", "Roads", "Portishead")
	unknown, _ := addTrack(t, db, "2", "Demo 4", "Portishead")
	setIdentity(t, db, known, "rec-roads")
	setIdentity(t, db, unknown, "rec-demo")

	lastfm := &fakeLastFM{tracks: map[string]sources.Result[models.TrackInfo]{
		"roads": {Value: models.TrackInfo{ExternalID: "other-id", Genres: []string{"Trip Hop", "trip hop"}}, Outcome: sources.OutcomeFound},
	}}

	ids, err := db.TracksNeedingTrackEnrichment(ctx, fullScope(), false)
	if err != nil {
		t.Fatal(err)
	}
	sum, err := NewTrackGenre(db, lastfm).Run(ctx, ids, attemptAt(testNow))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if sum.Updated != 1 || sum.NoData != 1 {
		t.Errorf("summary = %+v", sum)
	}

	genres, err := db.TrackGenres(ctx, known)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(genres, []string{"trip hop"}) {
		t.Errorf("genres = %v", genres)
	}
	tr, err := db.GetTrack(ctx, known)
	if err != nil {
		t.Fatal(err)
	}
	if tr.ExternalID != "rec-roads" {
		t.Errorf("stored recording id replaced: %q", tr.ExternalID)
	}
	if tr.Status != models.StatusEnriched {
		t.Errorf("status = %q", tr.Status)
	}

	ids, err = db.TracksNeedingTrackEnrichment(ctx, fullScope(), false)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 0 {
		t.Errorf("tracks still selected after run: %v", ids)
	}
}

// A track that already has a tempo is never selected, whatever else is
// missing from it.
func TestTempo_ExistingTempoNeverSelected(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	withTempo, _ := addTrack(t, db, "1", "a", "x")
	without, _ := addTrack(t, db, "2", "b", "x")
	if _, err := db.SetTrackTempo(ctx, withTempo, 120, models.TempoSourceTag); err != nil {
		t.Fatal(err)
	}

	ids, err := db.TracksNeedingTempo(ctx, fullScope())
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(ids, []int64{without}) {
		t.Errorf("TracksNeedingTempo() = %v, want [%d]", ids, without)
	}

	setIdentity(t, db, withTempo, "rec-1")
	setIdentity(t, db, without, "rec-2")
	ids, err = db.TracksNeedingTempoLookup(ctx, fullScope())
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(ids, []int64{without}) {
		t.Errorf("TracksNeedingTempoLookup() = %v, want [%d]", ids, without)
	}
}

func TestTempoLookup_Batches(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	var ids []int64
	for i := 0; i < 5; i++ {
		id, _ := addTrack(t, db, fmt.Sprint(i), fmt.Sprintf("t%d", i), "x")
		setIdentity(t, db, id, fmt.Sprintf("REC-%d", i))
		ids = append(ids, id)
	}

	src := &fakeTempo{size: 2, outcome: sources.OutcomeFound, tempos: map[string]float64{
		"rec-0": 100, "rec-1": 101, "rec-3": 103,
	}}
	sum, err := NewTempoLookup(db, src).Run(ctx, ids, Attempt{})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	wantBatches := [][]string{{"rec-0", "rec-1"}, {"rec-2", "rec-3"}, {"rec-4"}}
	if !reflect.DeepEqual(src.batches, wantBatches) {
		t.Errorf("batches = %v, want %v", src.batches, wantBatches)
	}
	if sum.Attempted != 5 || sum.Updated != 3 || sum.NoData != 2 {
		t.Errorf("summary = %+v", sum)
	}

	tr, err := db.GetTrack(ctx, ids[3])
	if err != nil {
		t.Fatal(err)
	}
	if tr.Tempo == nil || *tr.Tempo != 103 || tr.TempoSource != models.TempoSourceAcousticBrainz {
		t.Errorf("track 3 tempo = %v (%s)", tr.Tempo, tr.TempoSource)
	}

	left, err := db.TracksNeedingTempoLookup(ctx, fullScope())
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(left, []int64{ids[2], ids[4]}) {
		t.Errorf("still needing tempo = %v", left)
	}
}

func TestTempoLookup_DegradedBatch(t *testing.T) {
	db := setupTestDB(t)
	id, _ := addTrack(t, db, "1", "a", "x")
	setIdentity(t, db, id, "rec-1")

	src := &fakeTempo{size: 25, outcome: sources.OutcomeDegraded}
	sum, err := NewTempoLookup(db, src).Run(context.Background(), []int64{id}, Attempt{})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if sum.Errors != 1 || sum.Updated != 0 {
		t.Errorf("summary = %+v", sum)
	}
}

func TestTempoLocal_BatchesAndRange(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	var ids []int64
	for i := 0; i < 5; i++ {
		id, _ := addTrack(t, db, fmt.Sprint(i), fmt.Sprintf("t%d", i), "x")
		ids = append(ids, id)
	}

	analyzer := &fakeAnalyzer{bpm: map[string]float64{
		"/mnt/0.flac": 90,
		"/mnt/1.flac": 128.5,
		"/mnt/3.flac": 174,
		"/mnt/4.flac": 140,
	}}
	exec := NewTempoLocal(db, analyzer, prefixMapper{from: "/library", to: "/mnt"}, 2, time.Minute)
	var rests []time.Duration
	exec.sleep = func(_ context.Context, d time.Duration) error {
		rests = append(rests, d)
		return nil
	}

	sum, err := exec.Run(ctx, ids, Attempt{})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if sum.Attempted != 5 || sum.Updated != 4 || sum.Errors != 1 {
		t.Errorf("summary = %+v", sum)
	}
	if !reflect.DeepEqual(rests, []time.Duration{time.Minute, time.Minute}) {
		t.Errorf("rests = %v, want two", rests)
	}
	if analyzer.paths[0] != "/mnt/0.flac" {
		t.Errorf("analyzer path = %q", analyzer.paths[0])
	}

	failed, err := db.GetTrack(ctx, ids[2])
	if err != nil {
		t.Fatal(err)
	}
	if failed.Tempo != nil || failed.AttemptedAt != nil {
		t.Errorf("failed analysis left state: %+v", failed)
	}
}

func TestFileIdentity(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	tagged, artistID := addTrack(t, db, "1", "a", "Tagged Artist")
	fingerprintOnly, _ := addTrack(t, db, "2", "b", "Other")
	untagged, _ := addTrack(t, db, "3", "c", "Other")
	missing, _ := addTrack(t, db, "4", "d", "Other")
	unresolved, _ := addTrack(t, db, "5", "e", "Other")

	reader := fakeTags{
		"/library/1.flac": {RecordingID: "rec-1", ArtistID: "art-1", BPM: 122},
		"/library/2.flac": {AcoustID: "aid-2", BPM: 9000},
		"/library/3.flac": {},
		"/library/5.flac": {AcoustID: "aid-5"},
	}
	resolver := &fakeResolver{results: map[string]sources.Result[string]{
		"aid-2": {Value: "rec-2", Outcome: sources.OutcomeFound},
		"aid-5": {Outcome: sources.OutcomeDegraded, Err: errors.New("503")},
	}}

	ids, err := db.TracksNeedingIdentity(ctx, fullScope())
	if err != nil {
		t.Fatal(err)
	}
	exec := NewFileIdentity(db, reader, resolver, nil, 40, 220)
	sum, err := exec.Run(ctx, ids, Attempt{})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if sum.Attempted != 5 || sum.Updated != 2 || sum.NoData != 1 || sum.Errors != 2 {
		t.Errorf("summary = %+v", sum)
	}

	tr, _ := db.GetTrack(ctx, tagged)
	if tr.ExternalID != "rec-1" || tr.Tempo == nil || *tr.Tempo != 122 || tr.TempoSource != models.TempoSourceTag {
		t.Errorf("tagged track = %+v", tr)
	}
	a, _ := db.GetArtist(ctx, artistID)
	if a.ExternalID != "art-1" {
		t.Errorf("artist identity = %q", a.ExternalID)
	}

	tr, _ = db.GetTrack(ctx, fingerprintOnly)
	if tr.ExternalID != "rec-2" || tr.FingerprintID != "aid-2" {
		t.Errorf("resolved track = %+v", tr)
	}
	if tr.Tempo != nil {
		t.Errorf("out-of-range BPM tag written: %v", *tr.Tempo)
	}

	tr, _ = db.GetTrack(ctx, unresolved)
	if tr.ExternalID != "" || tr.FingerprintID != "aid-5" {
		t.Errorf("unresolved track = %+v", tr)
	}
	for _, id := range []int64{untagged, missing} {
		tr, _ = db.GetTrack(ctx, id)
		if tr.ExternalID != "" {
			t.Errorf("track %d gained identity %q", id, tr.ExternalID)
		}
	}

	// Second pass over the remaining tracks changes nothing.
	ids, err = db.TracksNeedingIdentity(ctx, fullScope())
	if err != nil {
		t.Fatal(err)
	}
	sum, err = exec.Run(ctx, ids, Attempt{})
	if err != nil {
		t.Fatal(err)
	}
	if sum.Updated != 0 {
		t.Errorf("second pass summary = %+v", sum)
	}
}

func TestFileIdentity_NoTagBlock(t *testing.T) {
	db := setupTestDB(t)
	id, _ := addTrack(t, db, "1", "a", "x")

	sum, err := NewFileIdentity(db, noTagsReader{}, nil, nil, 40, 220).Run(context.Background(), []int64{id}, Attempt{})
	if err != nil {
		t.Fatal(err)
	}
	if sum.NoData != 1 || sum.Errors != 0 {
		t.Errorf("summary = %+v", sum)
	}
}

type noTagsReader struct{}

func (noTagsReader) ReadIdentityTags(string) (models.TrackTags, error) {
	return models.TrackTags{}, tags.ErrNoTags
}
