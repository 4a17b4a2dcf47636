// Setlist - Music Library Enrichment for Playlist Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package main

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tomtom215/setlist/internal/models"
)

type runFunc func(ctx context.Context, a *app) (models.RunSummary, error)

// runAndReport executes one orchestrator run and prints its summary. The
// summary is printed even when the run failed part way.
func (c *commandContext) runAndReport(cmd *cobra.Command, fn runFunc) error {
	return c.withApp(true, func(a *app) error {
		summary, err := fn(cmd.Context(), a)
		if summary.RunID != "" {
			if werr := c.printSummary(cmd, summary); werr != nil && err == nil {
				err = werr
			}
		}
		return err
	})
}

func (c *commandContext) printSummary(cmd *cobra.Command, summary models.RunSummary) error {
	if c.jsonFlag {
		return writeJSON(cmd.OutOrStdout(), summary)
	}
	renderSummary(cmd.OutOrStdout(), summary)
	return nil
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Ingest the whole library, then run every enabled phase",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return ctx.runAndReport(cmd, func(c context.Context, a *app) (models.RunSummary, error) {
				return a.orch.Full(c)
			})
		},
	}
}

func newUpdateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "update",
		Short: "Ingest tracks added since the last run, then enrich",
		Long: `Fetch only tracks added after the stored watermark and enrich them.
With no watermark yet this behaves like "setlist run".`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return ctx.runAndReport(cmd, func(c context.Context, a *app) (models.RunSummary, error) {
				return a.orch.Incremental(c)
			})
		},
	}
}

func newRefreshCommand(ctx *commandContext) *cobra.Command {
	var (
		artists []string
		dryRun  bool
	)
	cmd := &cobra.Command{
		Use:   "refresh --artist NAME [--artist NAME...]",
		Short: "Re-enrich named artists and their tracks",
		Long: `Force re-enrichment of the named artists, ignoring freshness markers.
Names are matched case-insensitively. With --dry-run the selection is
reported without contacting any source or writing anything.`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			names := make([]string, 0, len(artists))
			for _, a := range artists {
				if n := strings.TrimSpace(a); n != "" {
					names = append(names, n)
				}
			}
			if len(names) == 0 {
				return usagef("refresh requires at least one --artist")
			}
			return ctx.runAndReport(cmd, func(c context.Context, a *app) (models.RunSummary, error) {
				return a.orch.Refresh(c, names, dryRun)
			})
		},
	}
	cmd.Flags().StringArrayVarP(&artists, "artist", "a", nil, "Artist name to refresh (repeatable)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report the selection without enriching")
	return cmd
}
