// Setlist - Music Library Enrichment for Playlist Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

/*
Package supervisor runs the long-lived services of `setlist daemon` under a
suture v4 supervisor tree.

# Overview

	RootSupervisor ("setlist")
	├── EnrichmentSupervisor ("enrichment-layer")
	│   └── SchedulerService (incremental update every daemon.interval)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService (/healthz, /metrics, /api/v1/status)

Each layer restarts independently with exponential backoff, so a scheduler
that keeps failing never takes the status API down with it.

Supervisor events (start, stop, panic, backoff) are logged through
sutureslog into the process-wide zerolog logger via logging.NewSlogLogger.

# Usage

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddEnrichmentService(services.NewSchedulerService(orch, cfg.Daemon.Interval))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Daemon.ShutdownTimeout))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return tree.Serve(ctx)

Service wrappers live in the services subpackage.
*/
package supervisor
