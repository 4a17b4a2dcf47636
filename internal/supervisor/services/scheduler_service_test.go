// Setlist - Music Library Enrichment for Playlist Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/setlist/internal/models"
	"github.com/tomtom215/setlist/internal/pipeline"
)

var _ suture.Service = (*SchedulerService)(nil)

type fakeUpdater struct {
	calls    atomic.Int32
	inFlight atomic.Int32
	overlaps atomic.Int32
	delay    time.Duration
	err      error
}

func (f *fakeUpdater) Incremental(ctx context.Context) (models.RunSummary, error) {
	n := f.calls.Add(1)
	if f.inFlight.Add(1) > 1 {
		f.overlaps.Add(1)
	}
	defer f.inFlight.Add(-1)

	if f.delay > 0 {
		select {
		case <-ctx.Done():
			return models.RunSummary{}, ctx.Err()
		case <-time.After(f.delay):
		}
	}
	return models.RunSummary{RunID: "run", Mode: models.RunModeIncremental, Records: int(n)}, f.err
}

// serveFor runs svc until d elapses and returns Serve's error.
func serveFor(t *testing.T, svc *SchedulerService, d time.Duration) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	return svc.Serve(ctx)
}

func TestNewSchedulerService_Defaults(t *testing.T) {
	svc := NewSchedulerService(&fakeUpdater{}, 0)
	if svc.interval != 6*time.Hour {
		t.Errorf("interval = %v, want 6h", svc.interval)
	}
	if svc.String() != "enrichment-scheduler" {
		t.Errorf("String() = %q", svc.String())
	}
}

func TestSchedulerService_RunsAtStartAndOnInterval(t *testing.T) {
	up := &fakeUpdater{}
	svc := NewSchedulerService(up, 30*time.Millisecond)

	err := serveFor(t, svc, 110*time.Millisecond)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Serve() error = %v, want deadline exceeded", err)
	}
	if got := up.calls.Load(); got < 3 {
		t.Errorf("runs = %d, want at least 3 (start plus ticks)", got)
	}
}

func TestSchedulerService_FirstRunIsImmediate(t *testing.T) {
	up := &fakeUpdater{}
	svc := NewSchedulerService(up, time.Hour)

	_ = serveFor(t, svc, 50*time.Millisecond)
	if got := up.calls.Load(); got != 1 {
		t.Errorf("runs = %d, want 1", got)
	}
}

func TestSchedulerService_RunsNeverOverlap(t *testing.T) {
	up := &fakeUpdater{delay: 40 * time.Millisecond}
	svc := NewSchedulerService(up, 10*time.Millisecond)

	_ = serveFor(t, svc, 150*time.Millisecond)
	if up.overlaps.Load() != 0 {
		t.Errorf("overlapping runs = %d", up.overlaps.Load())
	}
	// Buffered ticks are dropped, so each run is followed by a full interval.
	if got := up.calls.Load(); got > 4 {
		t.Errorf("runs = %d, want at most 4", got)
	}
}

func TestSchedulerService_FailuresKeepScheduling(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"run in progress", pipeline.ErrRunInProgress},
		{"run failed", errors.New("persistence failure")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			up := &fakeUpdater{err: tt.err}
			svc := NewSchedulerService(up, 20*time.Millisecond)

			err := serveFor(t, svc, 90*time.Millisecond)
			if !errors.Is(err, context.DeadlineExceeded) {
				t.Errorf("Serve() error = %v, want deadline exceeded", err)
			}
			if up.calls.Load() < 2 {
				t.Errorf("runs = %d, want scheduling to continue", up.calls.Load())
			}
		})
	}
}

func TestSchedulerService_AfterRunHooks(t *testing.T) {
	t.Run("hooks see each summary but not skipped runs", func(t *testing.T) {
		var seen atomic.Int32
		hook := func(_ context.Context, sum models.RunSummary) error {
			if sum.Mode == models.RunModeIncremental {
				seen.Add(1)
			}
			return nil
		}

		_ = serveFor(t, NewSchedulerService(&fakeUpdater{}, time.Hour, hook), 30*time.Millisecond)
		if seen.Load() != 1 {
			t.Errorf("hook calls = %d, want 1", seen.Load())
		}

		seen.Store(0)
		skipped := &fakeUpdater{err: pipeline.ErrRunInProgress}
		_ = serveFor(t, NewSchedulerService(skipped, time.Hour, hook), 30*time.Millisecond)
		if seen.Load() != 0 {
			t.Errorf("hook ran after a skipped run")
		}
	})

	t.Run("hook failure stops the service", func(t *testing.T) {
		hookErr := errors.New("gc failed")
		svc := NewSchedulerService(&fakeUpdater{}, time.Hour, func(context.Context, models.RunSummary) error {
			return hookErr
		})
		if err := serveFor(t, svc, time.Second); !errors.Is(err, hookErr) {
			t.Errorf("Serve() error = %v, want %v", err, hookErr)
		}
	})
}
