// Setlist - Music Library Enrichment for Playlist Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package models

import "time"

// Run modes.
const (
	RunModeFull        = "full"
	RunModeIncremental = "incremental"
	RunModeRefresh     = "refresh"
)

// Run statuses stored in run_history.
const (
	RunStatusRunning   = "running"
	RunStatusSucceeded = "succeeded"
	RunStatusFailed    = "failed"
)

// Watermark is the persisted point up to which library changes have been processed.
type Watermark struct {
	LatestEntry time.Time `json:"latest_entry"`
	Records     int       `json:"records"`
	RunID       string    `json:"run_id"`
	Mode        string    `json:"mode"`
	CompletedAt time.Time `json:"completed_at"`
}

// IsZero reports whether no run has completed yet.
func (w Watermark) IsZero() bool {
	return w.RunID == ""
}

// PhaseSummary aggregates the per-entity outcomes of one phase.
type PhaseSummary struct {
	Phase     string        `json:"phase"`
	Selected  int           `json:"selected"`
	Attempted int           `json:"attempted"`
	Updated   int           `json:"updated"`
	Unchanged int           `json:"unchanged"`
	NoData    int           `json:"no_data"`
	Errors    int           `json:"errors"`
	Skipped   bool          `json:"skipped,omitempty"`
	Duration  time.Duration `json:"duration_ns"`
}

// Add folds another summary's counts into s.
func (s *PhaseSummary) Add(o PhaseSummary) {
	s.Selected += o.Selected
	s.Attempted += o.Attempted
	s.Updated += o.Updated
	s.Unchanged += o.Unchanged
	s.NoData += o.NoData
	s.Errors += o.Errors
}

// RunSummary is what a run reports back to its caller.
type RunSummary struct {
	RunID      string         `json:"run_id"`
	Mode       string         `json:"mode"`
	DryRun     bool           `json:"dry_run,omitempty"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Records    int            `json:"records"`
	Inserted   int            `json:"inserted"`
	NewArtists int            `json:"new_artists"`
	Skipped    int            `json:"skipped_records,omitempty"`
	Unmatched  []string       `json:"unmatched_artists,omitempty"`
	Watermark  *Watermark     `json:"watermark,omitempty"`
	Phases     []PhaseSummary `json:"phases"`
	Error      string         `json:"error,omitempty"`
}

// RunRecord is one row of run history.
type RunRecord struct {
	ID         int64      `json:"id"`
	RunID      string     `json:"run_id"`
	Mode       string     `json:"mode"`
	Status     string     `json:"status"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Records    int        `json:"records"`
	Summary    string     `json:"summary,omitempty"` // JSON-encoded []PhaseSummary
	Error      string     `json:"error,omitempty"`
}

// LibraryStats are entity counts reported by `setlist status`.
type LibraryStats struct {
	Tracks             int `json:"tracks"`
	TracksWithTempo    int `json:"tracks_with_tempo"`
	TracksWithIdentity int `json:"tracks_with_identity"`
	PrimaryArtists     int `json:"primary_artists"`
	StubArtists        int `json:"stub_artists"`
	AttemptedArtists   int `json:"attempted_artists"`
	ErroredArtists     int `json:"errored_artists"`
	Genres             int `json:"genres"`
	SimilarEdges       int `json:"similar_edges"`
}

// StatusReport is the snapshot shown by `setlist status` and GET /api/v1/status.
type StatusReport struct {
	SchemaVersion int          `json:"schema_version"`
	Watermark     *Watermark   `json:"watermark,omitempty"`
	Library       LibraryStats `json:"library"`
	RecentRuns    []RunRecord  `json:"recent_runs"`
	Running       bool         `json:"running"`
	EnabledPhases []string     `json:"enabled_phases,omitempty"`
}
