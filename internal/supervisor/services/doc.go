// Setlist - Music Library Enrichment for Playlist Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

/*
Package services adapts Setlist components to suture's Serve pattern.

	type Service interface {
	    Serve(ctx context.Context) error
	}

# Available Services

Scheduler (SchedulerService):
  - Runs an incremental update at start, then every interval
  - Never starts a run while another is active; ticks that arrive during
    a run are dropped
  - Run failures are logged and retried on the next tick; only a failing
    after-run hook is returned to the supervisor

HTTP Server (HTTPServerService):
  - Wraps *http.Server with graceful shutdown
  - Converts ListenAndServe to Serve
  - http.ErrServerClosed is not an error
*/
package services
