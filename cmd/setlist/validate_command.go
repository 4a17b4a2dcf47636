// Setlist - Music Library Enrichment for Playlist Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package main

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tomtom215/setlist/internal/analysis"
)

// Check statuses.
const (
	checkOK   = "ok"
	checkFail = "fail"
	checkSkip = "skip"
)

// checkResult is one line of `setlist validate` output.
type checkResult struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
}

type validateReport struct {
	Checks []checkResult `json:"checks"`
	OK     bool          `json:"ok"`
}

var errValidationFailed = errors.New("validation failed")

func newValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check configuration, database, Plex, analyzer and cache",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			var checks []checkResult
			runErr := cfg.ValidateForRun()
			checks = append(checks, resultOf("configuration", "", runErr))

			appErr := ctx.withApp(false, func(a *app) error {
				checks = append(checks, a.validate(cmd.Context())...)
				return nil
			})
			if appErr != nil {
				checks = append(checks, resultOf("database", "", appErr))
			}

			report := validateReport{Checks: checks, OK: true}
			for _, c := range checks {
				if c.Status == checkFail {
					report.OK = false
				}
			}

			if ctx.jsonFlag {
				if err := writeJSON(cmd.OutOrStdout(), report); err != nil {
					return err
				}
			} else {
				renderChecks(cmd.OutOrStdout(), report.Checks)
			}
			if !report.OK {
				return errValidationFailed
			}
			return nil
		},
	}
}

func resultOf(name, okDetail string, err error) checkResult {
	if err != nil {
		return checkResult{Name: name, Status: checkFail, Detail: err.Error()}
	}
	return checkResult{Name: name, Status: checkOK, Detail: okDetail}
}

// validate probes every configured dependency without writing anything.
func (a *app) validate(ctx context.Context) []checkResult {
	var checks []checkResult

	pingErr := a.db.Ping(ctx)
	if pingErr == nil {
		version, err := a.db.SchemaVersion(ctx)
		if err != nil {
			pingErr = err
		} else {
			checks = append(checks, resultOf("database", fmt.Sprintf("%s (schema v%d)", a.cfg.Database.Path, version), nil))
		}
	}
	if pingErr != nil {
		checks = append(checks, resultOf("database", "", pingErr))
	}

	if a.plex == nil {
		checks = append(checks, checkResult{Name: "plex", Status: checkFail, Detail: "plex.url is not set"})
	} else {
		n, err := a.plex.CountTracks(ctx)
		checks = append(checks, resultOf("plex", fmt.Sprintf("section %s, %d tracks", a.cfg.Plex.Section, n), err))
	}

	if a.cfg.Analyzer.Enabled {
		cmd := analysis.New(a.cfg.Analyzer).Command()
		path, err := exec.LookPath(cmd)
		checks = append(checks, resultOf("analyzer", path, err))
	} else {
		checks = append(checks, checkResult{Name: "analyzer", Status: checkSkip, Detail: "analyzer.enabled is false"})
	}

	switch {
	case a.cache != nil:
		hits, misses := a.cache.Stats()
		checks = append(checks, resultOf("cache", fmt.Sprintf("%s (hits %d, misses %d)", a.cfg.Cache.Path, hits, misses), nil))
	case a.cfg.Cache.Enabled:
		checks = append(checks, checkResult{Name: "cache", Status: checkSkip, Detail: "lastfm.enabled is false"})
	default:
		checks = append(checks, checkResult{Name: "cache", Status: checkSkip, Detail: "cache.enabled is false"})
	}

	checks = append(checks, checkResult{
		Name:   "phases",
		Status: checkOK,
		Detail: phaseDetail(a.orch.EnabledPhaseNames(), a.orch.DisabledPhases()),
	})
	return checks
}

func phaseDetail(enabled []string, disabled map[string]string) string {
	var b strings.Builder
	b.WriteString("enabled: ")
	if len(enabled) == 0 {
		b.WriteString("none")
	} else {
		b.WriteString(strings.Join(enabled, ", "))
	}
	if len(disabled) > 0 {
		names := make([]string, 0, len(disabled))
		for n := range disabled {
			names = append(names, n)
		}
		sort.Strings(names)
		parts := make([]string, 0, len(names))
		for _, n := range names {
			parts = append(parts, n+" ("+disabled[n]+")")
		}
		b.WriteString("; disabled: ")
		b.WriteString(strings.Join(parts, ", "))
	}
	return b.String()
}
