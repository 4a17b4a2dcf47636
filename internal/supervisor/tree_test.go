// Setlist - Music Library Enrichment for Playlist Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package supervisor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// mockService is a suture.Service whose failures tests can script.
type mockService struct {
	name       string
	startCount atomic.Int32
	failCount  atomic.Int32
	maxFails   int32
	mu         sync.Mutex
}

func newMockService(name string) *mockService {
	return &mockService{name: name}
}

func (m *mockService) Serve(ctx context.Context) error {
	m.startCount.Add(1)

	m.mu.Lock()
	maxFails := m.maxFails
	m.mu.Unlock()

	if maxFails > 0 && m.failCount.Add(1) <= maxFails {
		return errors.New("simulated failure")
	}
	<-ctx.Done()
	return ctx.Err()
}

func (m *mockService) setFailCount(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.maxFails = int32(n)
}

func (m *mockService) String() string { return m.name }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSupervisorTreeConstruction(t *testing.T) {
	t.Run("creates hierarchical supervisor tree", func(t *testing.T) {
		tree, err := NewSupervisorTree(quietLogger(), TreeConfig{
			FailureThreshold: 5,
			FailureBackoff:   time.Second,
			ShutdownTimeout:  10 * time.Second,
		})
		if err != nil {
			t.Fatalf("failed to create tree: %v", err)
		}
		if tree.Root() == nil {
			t.Error("root supervisor should not be nil")
		}
	})

	t.Run("applies default values for zero config", func(t *testing.T) {
		tree, err := NewSupervisorTree(quietLogger(), TreeConfig{})
		if err != nil {
			t.Fatalf("failed to create tree: %v", err)
		}
		if tree.config != DefaultTreeConfig() {
			t.Errorf("config = %+v, want defaults %+v", tree.config, DefaultTreeConfig())
		}
	})
}

func TestSupervisorTreeLifecycle(t *testing.T) {
	tree, err := NewSupervisorTree(quietLogger(), TreeConfig{
		FailureBackoff:  100 * time.Millisecond,
		ShutdownTimeout: time.Second,
	})
	if err != nil {
		t.Fatalf("failed to create tree: %v", err)
	}

	scheduler := newMockService("scheduler")
	api := newMockService("status-api")
	tree.AddEnrichmentService(scheduler)
	tree.AddAPIService(api)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := tree.ServeBackground(ctx)

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Errorf("unexpected error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("tree did not shut down in time")
	}

	if scheduler.startCount.Load() < 1 {
		t.Error("enrichment service was not started")
	}
	if api.startCount.Load() < 1 {
		t.Error("api service was not started")
	}

	report, err := tree.UnstoppedServiceReport()
	if err != nil {
		t.Fatalf("UnstoppedServiceReport() error = %v", err)
	}
	if len(report) != 0 {
		t.Errorf("unstopped services = %v", report)
	}
}

func TestSupervisorTreeFailureIsolation(t *testing.T) {
	tree, _ := NewSupervisorTree(quietLogger(), TreeConfig{
		FailureThreshold: 10,
		FailureBackoff:   10 * time.Millisecond,
		ShutdownTimeout:  time.Second,
	})

	failing := newMockService("failing-scheduler")
	failing.setFailCount(2)
	stable := newMockService("status-api")

	tree.AddEnrichmentService(failing)
	tree.AddAPIService(stable)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	errCh := tree.ServeBackground(ctx)
	time.Sleep(200 * time.Millisecond)

	if failing.startCount.Load() < 3 {
		t.Errorf("failing service started %d times, want at least 3", failing.startCount.Load())
	}
	if stable.startCount.Load() != 1 {
		t.Errorf("stable service started %d times, want 1", stable.startCount.Load())
	}

	cancel()
	<-errCh
}

func TestRemoveEnrichmentService(t *testing.T) {
	tree, _ := NewSupervisorTree(quietLogger(), TreeConfig{ShutdownTimeout: time.Second})

	svc := newMockService("scheduler")
	token := tree.AddEnrichmentService(svc)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := tree.ServeBackground(ctx)

	time.Sleep(50 * time.Millisecond)
	if err := tree.RemoveEnrichmentService(token); err != nil {
		t.Errorf("RemoveEnrichmentService() error = %v", err)
	}

	cancel()
	<-errCh
}
