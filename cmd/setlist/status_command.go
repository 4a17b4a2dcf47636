// Setlist - Music Library Enrichment for Playlist Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package main

import (
	"github.com/spf13/cobra"
)

const statusRecentRuns = 10

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the watermark, enrichment coverage and recent runs",
		Long: `Print the stored watermark, entity counts and the most recent runs.
The database is opened directly, so this fails while a daemon holds it;
query the daemon's /api/v1/status endpoint instead.`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return ctx.withApp(false, func(a *app) error {
				report, err := a.db.Status(cmd.Context(), statusRecentRuns)
				if err != nil {
					return err
				}
				report.EnabledPhases = a.orch.EnabledPhaseNames()

				if ctx.jsonFlag {
					return writeJSON(cmd.OutOrStdout(), report)
				}
				renderStatus(cmd.OutOrStdout(), report, a.orch.DisabledPhases())
				return nil
			})
		},
	}
}
