// Setlist - Music Library Enrichment for Playlist Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/setlist/internal/database"
	"github.com/tomtom215/setlist/internal/enrich"
	"github.com/tomtom215/setlist/internal/logging"
	"github.com/tomtom215/setlist/internal/metrics"
	"github.com/tomtom215/setlist/internal/models"
	"github.com/tomtom215/setlist/internal/sources"
)

// Full lists the entire library and runs every enabled phase with
// re-attempt horizons active.
func (o *Orchestrator) Full(ctx context.Context) (models.RunSummary, error) {
	return o.run(ctx, models.RunModeFull, func(ctx context.Context, sum *models.RunSummary) error {
		records, err := o.library.ListAllTracks(ctx)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrLibrary, err)
		}
		ing, err := o.ingest(ctx, records)
		applyIngest(sum, ing)
		if err != nil {
			return err
		}

		scope, at := o.horizons(o.now())
		if err := o.runPhases(ctx, sum, func(Phase) database.Scope { return scope }, at); err != nil {
			return err
		}
		return o.advance(ctx, sum, ing)
	})
}

// horizons returns the unrestricted scope and matching marker bounds for
// the configured re-attempt horizons.
func (o *Orchestrator) horizons(now time.Time) (database.Scope, enrich.Attempt) {
	scope := database.Scope{
		Now:                   now,
		ReattemptAfter:        o.cfg.ReattemptAfter,
		ErroredReattemptAfter: o.cfg.ErroredReattemptAfter,
	}
	at := enrich.Attempt{At: now}
	if o.cfg.ReattemptAfter > 0 {
		at.StaleBefore = now.Add(-o.cfg.ReattemptAfter)
	}
	if o.cfg.ErroredReattemptAfter > 0 {
		at.ErroredStaleBefore = now.Add(-o.cfg.ErroredReattemptAfter)
	}
	return scope, at
}

// Incremental picks up library entries added since the watermark. Marker
// phases see never-attempted entities and those whose re-attempt horizon
// has passed; tempo and identity phases see the tracks this run inserted
// or changed.
func (o *Orchestrator) Incremental(ctx context.Context) (models.RunSummary, error) {
	return o.run(ctx, models.RunModeIncremental, func(ctx context.Context, sum *models.RunSummary) error {
		wm, err := o.db.GetWatermark(ctx)
		if err != nil {
			return err
		}

		var records []models.TrackRecord
		if wm.IsZero() {
			logging.Ctx(ctx).Info().Msg("No watermark yet, listing the whole library")
			records, err = o.library.ListAllTracks(ctx)
		} else {
			records, err = o.library.ListTracksChangedSince(ctx, wm.LatestEntry)
		}
		if err != nil {
			return fmt.Errorf("%w: %w", ErrLibrary, err)
		}

		ing, err := o.ingest(ctx, records)
		applyIngest(sum, ing)
		if err != nil {
			return err
		}

		now := o.now()
		markers, at := o.horizons(now)
		scopeFor := func(p Phase) database.Scope {
			if p.markerBased() {
				return markers
			}
			return database.Scope{Now: now, TrackIDs: ing.changed}
		}
		if err := o.runPhases(ctx, sum, scopeFor, at); err != nil {
			return err
		}
		if ing.latest.Before(wm.LatestEntry) {
			ing.latest = wm.LatestEntry
		}
		return o.advance(ctx, sum, ing)
	})
}

// Refresh forces every enabled phase over the named artists and their
// tracks. With dryRun it reports what would be selected and writes
// nothing. The watermark is never touched.
func (o *Orchestrator) Refresh(ctx context.Context, artists []string, dryRun bool) (models.RunSummary, error) {
	body := func(ctx context.Context, sum *models.RunSummary) error {
		ids, missing, err := o.db.ArtistIDsByNames(ctx, artists)
		if err != nil {
			return err
		}
		sum.Unmatched = missing
		for _, name := range missing {
			logging.Ctx(ctx).Warn().Str("artist", name).Msg("No artist with this name in the library")
		}
		if ids == nil {
			ids = []int64{}
		}
		trackIDs, err := o.db.TrackIDsForArtists(ctx, ids)
		if err != nil {
			return err
		}

		now := o.now()
		scope := database.Scope{Now: now, Force: true, ArtistIDs: ids, TrackIDs: trackIDs}
		scopeFor := func(Phase) database.Scope { return scope }

		if dryRun {
			return o.selectPhases(ctx, sum, scopeFor)
		}
		return o.runPhases(sources.WithFreshLookups(ctx), sum, scopeFor,
			enrich.Attempt{At: now, StaleBefore: now, ErroredStaleBefore: now})
	}

	if dryRun {
		return o.dryRun(ctx, models.RunModeRefresh, body)
	}
	return o.run(ctx, models.RunModeRefresh, body)
}

// runPhases selects and executes each enabled phase in order.
func (o *Orchestrator) runPhases(ctx context.Context, sum *models.RunSummary, scopeFor func(Phase) database.Scope, at enrich.Attempt) error {
	for _, s := range o.steps {
		log := logging.Ctx(ctx).With().Str("phase", s.phase.String()).Logger()

		if s.reason != "" {
			log.Debug().Str("reason", s.reason).Msg("Phase skipped")
			sum.Phases = append(sum.Phases, models.PhaseSummary{Phase: s.phase.String(), Skipped: true})
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		ids, err := s.selFn(ctx, scopeFor(s.phase))
		if err != nil {
			return fmt.Errorf("select %s: %w", s.phase, err)
		}

		ps, err := s.exec.Run(ctx, ids, at)
		ps.Phase = s.phase.String()
		ps.Selected = len(ids)
		sum.Phases = append(sum.Phases, ps)
		metrics.RecordPhase(ps.Phase, ps.Updated, ps.Unchanged, ps.NoData, ps.Errors, ps.Duration)

		if err != nil {
			log.Error().Err(err).Int("attempted", ps.Attempted).Msg("Phase aborted")
			return fmt.Errorf("phase %s: %w", s.phase, err)
		}
		log.Info().
			Int("selected", ps.Selected).
			Int("updated", ps.Updated).
			Int("unchanged", ps.Unchanged).
			Int("no_data", ps.NoData).
			Int("errors", ps.Errors).
			Dur("duration", ps.Duration).
			Msg("Phase complete")
	}
	return nil
}

// selectPhases fills the summary with selection counts only.
func (o *Orchestrator) selectPhases(ctx context.Context, sum *models.RunSummary, scopeFor func(Phase) database.Scope) error {
	for _, s := range o.steps {
		if s.reason != "" {
			sum.Phases = append(sum.Phases, models.PhaseSummary{Phase: s.phase.String(), Skipped: true})
			continue
		}
		ids, err := s.selFn(ctx, scopeFor(s.phase))
		if err != nil {
			return fmt.Errorf("select %s: %w", s.phase, err)
		}
		sum.Phases = append(sum.Phases, models.PhaseSummary{Phase: s.phase.String(), Selected: len(ids)})
	}
	return nil
}

func applyIngest(sum *models.RunSummary, ing ingestResult) {
	sum.Records = ing.records
	sum.Inserted = ing.inserted
	sum.NewArtists = ing.newArtists
	sum.Skipped = ing.skipped
}

// advance moves the watermark after a successful run.
func (o *Orchestrator) advance(ctx context.Context, sum *models.RunSummary, ing ingestResult) error {
	wm := models.Watermark{
		LatestEntry: ing.latest,
		Records:     ing.records,
		RunID:       sum.RunID,
		Mode:        sum.Mode,
		CompletedAt: o.now(),
	}
	if err := o.db.AdvanceWatermark(ctx, wm); err != nil {
		return err
	}
	sum.Watermark = &wm
	return nil
}

// run wraps body with run bookkeeping: the overlap guard, a run id on
// the logger, run_history rows and metrics.
func (o *Orchestrator) run(ctx context.Context, mode string, body func(context.Context, *models.RunSummary) error) (models.RunSummary, error) {
	if err := o.acquire(); err != nil {
		return models.RunSummary{Mode: mode}, err
	}
	defer o.release()

	sum := models.RunSummary{RunID: logging.NewRunID(), Mode: mode, StartedAt: o.now()}
	ctx = logging.ContextWithRunID(ctx, sum.RunID)
	log := logging.Ctx(ctx)
	log.Info().Str("mode", mode).Msg("Run started")

	historyID, err := o.db.StartRun(ctx, sum.RunID, mode, sum.StartedAt)
	if err != nil {
		sum.FinishedAt = o.now()
		sum.Error = err.Error()
		metrics.RecordRun(mode, 0, err, time.Time{})
		return sum, err
	}

	runErr := body(ctx, &sum)
	sum.FinishedAt = o.now()

	status := models.RunStatusSucceeded
	var watermark time.Time
	if runErr != nil {
		status = models.RunStatusFailed
		sum.Error = runErr.Error()
	} else if sum.Watermark != nil {
		watermark = sum.Watermark.LatestEntry
	}

	phases, err := json.Marshal(sum.Phases)
	if err != nil {
		phases = []byte("[]")
	}
	// Record the outcome even when the run's context was canceled.
	finishCtx := context.WithoutCancel(ctx)
	if err := o.db.FinishRun(finishCtx, historyID, status, sum.Records, string(phases), sum.Error, sum.FinishedAt); err != nil {
		log.Error().Err(err).Msg("Failed to record run outcome")
		if runErr == nil {
			runErr = err
		}
	}
	metrics.RecordRun(mode, sum.Records, runErr, watermark)

	event := log.Info()
	if runErr != nil {
		event = log.Error().Err(runErr)
	}
	event.Str("mode", mode).
		Int("records", sum.Records).
		Dur("duration", sum.FinishedAt.Sub(sum.StartedAt)).
		Str("status", status).
		Msg("Run finished")
	return sum, runErr
}

// dryRun runs body without run history or metrics.
func (o *Orchestrator) dryRun(ctx context.Context, mode string, body func(context.Context, *models.RunSummary) error) (models.RunSummary, error) {
	if err := o.acquire(); err != nil {
		return models.RunSummary{Mode: mode, DryRun: true}, err
	}
	defer o.release()

	sum := models.RunSummary{RunID: logging.NewRunID(), Mode: mode, DryRun: true, StartedAt: o.now()}
	ctx = logging.ContextWithRunID(ctx, sum.RunID)
	err := body(ctx, &sum)
	sum.FinishedAt = o.now()
	if err != nil {
		sum.Error = err.Error()
	}
	return sum, err
}

// IsFatal reports whether a run error should fail the process: store
// failures and library connectivity faults. Cancellation and overlap are
// not fatal.
func IsFatal(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded), errors.Is(err, ErrRunInProgress):
		return false
	default:
		return true
	}
}
