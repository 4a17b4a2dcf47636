// Setlist - Music Library Enrichment for Playlist Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

/*
Package api serves the read-only status API of `setlist daemon`.

Routes:

	GET /healthz          liveness plus a database ping (503 when the ping fails)
	GET /metrics          Prometheus exposition
	GET /api/v1/status    watermark, coverage counters, recent runs, run state
	GET /api/v1/runs      run history; ?limit=N (1-100, default 20)

JSON bodies use the APIResponse envelope:

	{"success": true, "data": {...}, "meta": {"request_id": "...", "timestamp": "..."}}

The listener binds to daemon.listen_addr, loopback by default. There is
no authentication; the API exposes nothing that is not already in the
local database. Requests are limited per client IP (daemon.rate_limit per
minute, 429 RATE_LIMITED beyond it). CORS headers are sent only for the
origins listed in daemon.cors_origins.
*/
package api
