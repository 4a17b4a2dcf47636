// Setlist - Music Library Enrichment for Playlist Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tomtom215/setlist/internal/api"
	"github.com/tomtom215/setlist/internal/cache"
	"github.com/tomtom215/setlist/internal/logging"
	"github.com/tomtom215/setlist/internal/models"
	"github.com/tomtom215/setlist/internal/supervisor"
	"github.com/tomtom215/setlist/internal/supervisor/services"
)

// cacheGCDiscardRatio is the value-log discard ratio used after each
// scheduled run.
const cacheGCDiscardRatio = 0.5

func newDaemonCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Run incremental updates on a schedule and serve the status API",
		Long: `Run "setlist update" at start and then every daemon.interval, under a
supervisor that restarts failed services. A read-only status API is served
on daemon.listen_addr. SIGINT or SIGTERM stops both gracefully.`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return ctx.withApp(true, func(a *app) error {
				return runDaemon(cmd.Context(), a)
			})
		},
	}
}

func runDaemon(ctx context.Context, a *app) error {
	cfg := a.cfg

	treeCfg := supervisor.DefaultTreeConfig()
	treeCfg.ShutdownTimeout = cfg.Daemon.ShutdownTimeout
	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), treeCfg)
	if err != nil {
		return fmt.Errorf("create supervisor tree: %w", err)
	}

	var hooks []services.AfterRunFunc
	if a.cache != nil {
		hooks = append(hooks, cacheGCHook(a.cache))
	}
	tree.AddEnrichmentService(services.NewSchedulerService(a.orch, cfg.Daemon.Interval, hooks...))

	server := api.NewServer(cfg.Daemon.ListenAddr, api.NewHandler(a.db, a.orch), api.RouterOptionsFromConfig(cfg.Daemon))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Daemon.ShutdownTimeout))

	logging.Info().
		Dur("interval", cfg.Daemon.Interval).
		Str("listen_addr", cfg.Daemon.ListenAddr).
		Strs("phases", a.orch.EnabledPhaseNames()).
		Msg("Starting daemon")

	err = tree.Serve(ctx)

	if report, rerr := tree.UnstoppedServiceReport(); rerr == nil && len(report) > 0 {
		for _, svc := range report {
			logging.Warn().Str("service", svc.Name).Msg("Service did not stop within the shutdown timeout")
		}
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("supervisor: %w", err)
	}
	logging.Info().Msg("Daemon stopped")
	return nil
}

// cacheGCHook reclaims badger value-log space after each run. A GC failure
// never stops the scheduler.
func cacheGCHook(store *cache.Store) services.AfterRunFunc {
	return func(ctx context.Context, _ models.RunSummary) error {
		if err := store.RunGC(cacheGCDiscardRatio); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Msg("Lookup cache GC failed")
		}
		return nil
	}
}
