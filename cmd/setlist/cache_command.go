// Setlist - Music Library Enrichment for Playlist Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var errCacheDisabled = errors.New("lookup cache is disabled (cache.enabled and lastfm.enabled must both be true)")

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the Last.fm lookup cache",
		Args:  subcommandArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Drop every cached Last.fm answer",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return ctx.withApp(false, func(a *app) error {
				if a.lastfm == nil {
					return errCacheDisabled
				}
				n, err := a.lastfm.Forget()
				if err != nil {
					return fmt.Errorf("clear lookup cache: %w", err)
				}
				if ctx.jsonFlag {
					return writeJSON(cmd.OutOrStdout(), map[string]int{"deleted": n})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d cached entries\n", n)
				return nil
			})
		},
	})
	return cmd
}
