// Setlist - Music Library Enrichment for Playlist Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

// Package analysis runs a local tempo analyzer over audio files and maps
// library file paths onto the local filesystem.
package analysis

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/tomtom215/setlist/internal/config"
)

// FilePlaceholder is replaced by the audio file path in analyzer args.
const FilePlaceholder = "{file}"

var (
	// ErrNoTempo is returned when the analyzer printed no number.
	ErrNoTempo = errors.New("analyzer printed no tempo")
	// ErrOutOfRange is returned for a tempo outside the plausible range.
	ErrOutOfRange = errors.New("tempo out of range")
)

var commandContext = exec.CommandContext

var numberPattern = regexp.MustCompile(`[-+]?\d+(?:\.\d+)?`)

// Analyzer execs an external tempo estimator.
type Analyzer struct {
	command string
	args    []string
	timeout time.Duration
	minBPM  float64
	maxBPM  float64
}

// New creates an Analyzer from configuration. When args do not mention
// the placeholder the file path is appended as the last argument.
func New(cfg config.AnalyzerConfig) *Analyzer {
	args := append([]string(nil), cfg.Args...)
	hasPlaceholder := false
	for _, a := range args {
		if strings.Contains(a, FilePlaceholder) {
			hasPlaceholder = true
			break
		}
	}
	if !hasPlaceholder {
		args = append(args, FilePlaceholder)
	}
	return &Analyzer{
		command: cfg.Command,
		args:    args,
		timeout: cfg.Timeout,
		minBPM:  cfg.MinBPM,
		maxBPM:  cfg.MaxBPM,
	}
}

// Command returns the configured analyzer executable.
func (a *Analyzer) Command() string {
	return a.command
}

// Analyze estimates the tempo of the file at path.
func (a *Analyzer) Analyze(ctx context.Context, path string) (float64, error) {
	if path == "" {
		return 0, errors.New("file path required")
	}
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	args := make([]string, len(a.args))
	for i, arg := range a.args {
		args[i] = strings.ReplaceAll(arg, FilePlaceholder, path)
	}

	cmd := commandContext(ctx, a.command, args...) //nolint:gosec // operator-configured command
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return 0, fmt.Errorf("analyze %s: %w", path, ctx.Err())
		}
		return 0, fmt.Errorf("analyze %s: %w: %s", path, err, strings.TrimSpace(stderr.String()))
	}

	bpm, err := parseTempo(stdout.String())
	if err != nil {
		return 0, fmt.Errorf("analyze %s: %w", path, err)
	}
	if bpm < a.minBPM || bpm > a.maxBPM {
		return 0, fmt.Errorf("analyze %s: %w: %.1f not in [%.0f, %.0f]", path, ErrOutOfRange, bpm, a.minBPM, a.maxBPM)
	}
	return bpm, nil
}

// parseTempo returns the last number in the analyzer output.
func parseTempo(out string) (float64, error) {
	matches := numberPattern.FindAllString(out, -1)
	if len(matches) == 0 {
		return 0, ErrNoTempo
	}
	v, err := strconv.ParseFloat(matches[len(matches)-1], 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrNoTempo, err)
	}
	return v, nil
}
