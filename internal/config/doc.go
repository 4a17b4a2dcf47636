// Setlist - Music Library Enrichment for Playlist Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

/*
Package config provides layered configuration loading for Setlist.

Configuration is built once at process start by Load and passed explicitly to
every component constructor. Nothing in Setlist reads configuration from a
package-level variable.

# Configuration Sources

Sources are applied in order, later sources overriding earlier ones:

 1. Built-in defaults (defaultConfig)
 2. YAML file: CONFIG_PATH, or the first of setlist.yaml, setlist.yml,
    /etc/setlist/config.yaml
 3. Environment variables (see envMappings in koanf.go)

# Sections

  - database: DuckDB file path and resource limits
  - plex: library source (server URL, token, music section)
  - lastfm: artist and track identity/genre lookups
  - acousticbrainz: tempo lookups by MusicBrainz recording ID
  - acoustid: fingerprint ID to recording ID resolution
  - retry: attempts and backoff shared by every external source
  - enrichment: re-attempt horizons and phase selection
  - analyzer: local tempo analysis command
  - paths: mapping from library file paths to locally readable paths
  - cache: on-disk lookup response cache
  - daemon: scheduler interval, status listener, CORS origins, rate limit
  - logging: level, format, caller

# Environment Variables

The most commonly used variables:

	PLEX_URL, PLEX_TOKEN, PLEX_SECTION
	LASTFM_API_KEY, ACOUSTID_API_KEY
	SETLIST_DB_PATH
	LOG_LEVEL, LOG_FORMAT
*/
package config
