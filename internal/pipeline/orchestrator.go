// Setlist - Music Library Enrichment for Playlist Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package pipeline

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/tomtom215/setlist/internal/config"
	"github.com/tomtom215/setlist/internal/database"
	"github.com/tomtom215/setlist/internal/enrich"
	"github.com/tomtom215/setlist/internal/models"
)

var (
	// ErrRunInProgress is returned when a run is requested while another
	// one is still executing.
	ErrRunInProgress = errors.New("a run is already in progress")

	// ErrLibrary wraps library listing failures.
	ErrLibrary = errors.New("library listing failed")
)

// Library lists tracks from the library server.
type Library interface {
	ListAllTracks(ctx context.Context) ([]models.TrackRecord, error)
	ListTracksChangedSince(ctx context.Context, since time.Time) ([]models.TrackRecord, error)
}

// Sources are the external collaborators of a run. A nil source disables
// the phases that need it.
type Sources struct {
	Library Library
	LastFM  interface {
		enrich.ArtistLookup
		enrich.TrackLookup
	}
	Tempo    enrich.TempoSource
	Analyzer enrich.TempoAnalyzer
	Tags     enrich.TagReader
	Resolver enrich.RecordingResolver
	Paths    enrich.PathMapper
}

// step pairs a phase's selector with its executor.
type step struct {
	phase  Phase
	selFn  func(ctx context.Context, scope database.Scope) ([]int64, error)
	exec   enrich.Executor
	reason string // why the phase is disabled; empty when enabled
}

// Orchestrator runs enrichment passes over the store. Runs never
// overlap; a second concurrent request fails with ErrRunInProgress.
type Orchestrator struct {
	db      *database.DB
	library Library
	cfg     config.EnrichmentConfig
	steps   []step
	running atomic.Bool

	now func() time.Time
}

// New wires an orchestrator from configuration and sources.
func New(db *database.DB, cfg *config.Config, src Sources) *Orchestrator {
	o := &Orchestrator{
		db:      db,
		library: src.Library,
		cfg:     cfg.Enrichment,
		now:     func() time.Time { return time.Now().UTC() },
	}

	skip := cfg.Enrichment.SkipTracksWithGenres
	for _, p := range phaseOrder {
		s := step{phase: p}
		switch p {
		case PhaseFileIdentity:
			s.selFn = db.TracksNeedingIdentity
			if src.Tags != nil {
				s.exec = enrich.NewFileIdentity(db, src.Tags, src.Resolver, src.Paths, cfg.Analyzer.MinBPM, cfg.Analyzer.MaxBPM)
			}
		case PhasePrimaryFull:
			s.selFn = db.PrimaryArtistsNeedingFull
			if src.LastFM != nil {
				s.exec = enrich.NewPrimaryFull(db, src.LastFM)
			}
		case PhaseStubCore:
			s.selFn = db.StubArtistsNeedingCore
			if src.LastFM != nil {
				s.exec = enrich.NewStubCore(db, src.LastFM)
			}
		case PhaseTrackGenre:
			s.selFn = func(ctx context.Context, scope database.Scope) ([]int64, error) {
				return db.TracksNeedingTrackEnrichment(ctx, scope, skip)
			}
			if src.LastFM != nil {
				s.exec = enrich.NewTrackGenre(db, src.LastFM)
			}
		case PhaseTempoLookup:
			s.selFn = db.TracksNeedingTempoLookup
			if src.Tempo != nil {
				s.exec = enrich.NewTempoLookup(db, src.Tempo)
			}
		case PhaseTempoLocal:
			s.selFn = db.TracksNeedingTempo
			if src.Analyzer != nil {
				s.exec = enrich.NewTempoLocal(db, src.Analyzer, src.Paths, cfg.Analyzer.BatchSize, cfg.Analyzer.BatchRest)
			}
		}

		switch {
		case !cfg.Enrichment.PhaseEnabled(p.String()):
			s.reason = "not in enrichment.phases"
		case s.exec == nil:
			s.reason = "source disabled"
		}
		o.steps = append(o.steps, s)
	}
	return o
}

// EnabledPhases returns the phases that will execute, in order.
func (o *Orchestrator) EnabledPhases() []Phase {
	var out []Phase
	for _, s := range o.steps {
		if s.reason == "" {
			out = append(out, s.phase)
		}
	}
	return out
}

// EnabledPhaseNames is EnabledPhases as strings.
func (o *Orchestrator) EnabledPhaseNames() []string {
	phases := o.EnabledPhases()
	names := make([]string, len(phases))
	for i, p := range phases {
		names[i] = p.String()
	}
	return names
}

// DisabledPhases maps each disabled phase name to the reason it is off.
func (o *Orchestrator) DisabledPhases() map[string]string {
	out := make(map[string]string)
	for _, s := range o.steps {
		if s.reason != "" {
			out[s.phase.String()] = s.reason
		}
	}
	return out
}

// acquire marks a run as started. It fails when one is already running.
func (o *Orchestrator) acquire() error {
	if !o.running.CompareAndSwap(false, true) {
		return ErrRunInProgress
	}
	return nil
}

func (o *Orchestrator) release() {
	o.running.Store(false)
}

// Running reports whether a run is executing.
func (o *Orchestrator) Running() bool {
	return o.running.Load()
}
