// Setlist - Music Library Enrichment for Playlist Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

// Command setlist enriches a Plex music library with artist identity,
// similar-artist edges, genres and tempo, for playlist generation.
//
// # Commands
//
//	setlist run                       ingest the whole library, then enrich
//	setlist update                    ingest tracks added since the watermark, then enrich
//	setlist refresh --artist NAME...  force re-enrichment of named artists
//	setlist status                    watermark, coverage and recent runs
//	setlist validate                  check database, Plex, analyzer and cache
//	setlist daemon                    scheduled updates plus the status API
//	setlist cache clear               drop cached Last.fm answers
//
// Every command accepts --config (YAML file) and --json (machine-readable
// output). Logs go to stderr; command output goes to stdout.
//
// # Exit Codes
//
//	0  success, including runs with per-entity errors or a canceled run
//	1  persistence, configuration, library or startup failure
//	2  invalid command-line usage
//
// # Configuration
//
// Settings are layered: built-in defaults, then the YAML file (--config,
// CONFIG_PATH, ./setlist.yaml or /etc/setlist/config.yaml), then
// environment variables such as PLEX_URL, PLEX_TOKEN and LASTFM_API_KEY.
//
//	export PLEX_URL=http://plex:32400
//	export PLEX_TOKEN=your-plex-token
//	export LASTFM_API_KEY=your-lastfm-key
//	setlist run
package main

import (
	"context"
	"os"
)

func main() {
	os.Exit(execute(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}
