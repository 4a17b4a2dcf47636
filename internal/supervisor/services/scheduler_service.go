// Setlist - Music Library Enrichment for Playlist Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/setlist/internal/logging"
	"github.com/tomtom215/setlist/internal/models"
	"github.com/tomtom215/setlist/internal/pipeline"
)

// Updater runs one incremental update. Satisfied by *pipeline.Orchestrator.
type Updater interface {
	Incremental(ctx context.Context) (models.RunSummary, error)
}

// AfterRunFunc is called after every run that was not skipped. A returned
// error stops the scheduler so suture restarts it.
type AfterRunFunc func(ctx context.Context, sum models.RunSummary) error

// SchedulerService runs incremental updates on a fixed interval.
type SchedulerService struct {
	updater  Updater
	interval time.Duration
	afterRun []AfterRunFunc
	name     string
}

// NewSchedulerService creates a scheduler. Non-positive intervals mean 6h.
func NewSchedulerService(updater Updater, interval time.Duration, afterRun ...AfterRunFunc) *SchedulerService {
	if interval <= 0 {
		interval = 6 * time.Hour
	}
	return &SchedulerService{
		updater:  updater,
		interval: interval,
		afterRun: afterRun,
		name:     "enrichment-scheduler",
	}
}

// Serve implements suture.Service. The first run starts immediately.
func (s *SchedulerService) Serve(ctx context.Context) error {
	log := logging.WithComponent(s.name)
	log.Info().Dur("interval", s.interval).Msg("Scheduler started")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if err := s.tick(ctx); err != nil {
			return err
		}

		// A run longer than the interval leaves a tick buffered; drop it
		// so the next run waits a full interval.
		select {
		case <-ticker.C:
			log.Debug().Msg("Dropped tick that arrived during a run")
		default:
		}

		select {
		case <-ctx.Done():
			log.Info().Msg("Scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *SchedulerService) tick(ctx context.Context) error {
	log := logging.WithComponent(s.name)

	sum, err := s.updater.Incremental(ctx)
	switch {
	case errors.Is(err, pipeline.ErrRunInProgress):
		log.Info().Msg("Skipping scheduled update, a run is already in progress")
		return nil
	case ctx.Err() != nil:
		return ctx.Err()
	case err != nil:
		// The orchestrator already logged the failure with its run id.
		log.Warn().Err(err).Str("run_id", sum.RunID).Msg("Scheduled update failed, retrying next interval")
	}

	for _, fn := range s.afterRun {
		if err := fn(ctx, sum); err != nil {
			return fmt.Errorf("after-run hook failed: %w", err)
		}
	}
	return nil
}

// String identifies the service in supervisor logs.
func (s *SchedulerService) String() string {
	return s.name
}
