// Setlist - Music Library Enrichment for Playlist Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	if cfg.Level != "info" {
		t.Errorf("expected default level 'info', got '%s'", cfg.Level)
	}
	if cfg.Format != "json" {
		t.Errorf("expected default format 'json', got '%s'", cfg.Format)
	}
	if cfg.Caller {
		t.Error("expected default caller to be false")
	}
}

func TestInit(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "debug", Format: "json", Output: &buf})
	t.Cleanup(func() { Init(DefaultConfig()) })

	Info().Str("phase", "tempo_lookup").Msg("test message")

	output := buf.String()
	if !strings.Contains(output, "test message") {
		t.Errorf("expected output to contain 'test message', got: %s", output)
	}
	if !strings.Contains(output, `"phase":"tempo_lookup"`) {
		t.Errorf("expected phase field, got: %s", output)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"WARN", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"disabled", zerolog.Disabled},
		{"bogus", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseLevel(tt.input); got != tt.expected {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestValidLevel(t *testing.T) {
	if !ValidLevel("Debug") {
		t.Error("expected Debug to be valid")
	}
	if ValidLevel("verbose") {
		t.Error("expected verbose to be invalid")
	}
}

func TestCtxAddsRunID(t *testing.T) {
	var buf bytes.Buffer
	ctx := ContextWithLogger(context.Background(), NewTestLogger(&buf))
	ctx = ContextWithRunID(ctx, "run-123")
	ctx = ContextWithCorrelationID(ctx, "abcd1234")

	Ctx(ctx).Info().Msg("hello")

	output := buf.String()
	if !strings.Contains(output, `"run_id":"run-123"`) {
		t.Errorf("expected run_id in output, got: %s", output)
	}
	if !strings.Contains(output, `"correlation_id":"abcd1234"`) {
		t.Errorf("expected correlation_id in output, got: %s", output)
	}
}

func TestRunIDFromContextEmpty(t *testing.T) {
	if id := RunIDFromContext(context.Background()); id != "" {
		t.Errorf("expected empty run id, got %q", id)
	}
	if len(NewRunID()) != 36 {
		t.Error("expected a UUID-formatted run id")
	}
}

func TestSlogHandlerForwardsAttributes(t *testing.T) {
	var buf bytes.Buffer
	handler := &SlogHandler{logger: NewTestLogger(&buf)}
	logger := slog.New(handler).With("service", "scheduler").WithGroup("supervisor")

	logger.Warn("service restarted", "attempt", 2)

	output := buf.String()
	for _, want := range []string{`"level":"warn"`, `"service":"scheduler"`, `"supervisor.attempt":2`, "service restarted"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %s in output, got: %s", want, output)
		}
	}
}
