// Setlist - Music Library Enrichment for Playlist Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths are searched in order when neither an explicit path nor
// CONFIG_PATH is given.
var DefaultConfigPaths = []string{
	"setlist.yaml",
	"setlist.yml",
	"/etc/setlist/config.yaml",
}

// ConfigPathEnvVar names the environment variable holding a config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config with all default values.
// These defaults match the published rate limits of each external source.
func defaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:      "/data/setlist.duckdb",
			MaxMemory: "1GB",
			Threads:   0,
		},
		Plex: PlexConfig{
			URL:          "",
			Token:        "",
			Section:      "1",
			PageSize:     500,
			RequestDelay: 0,
			Timeout:      30 * time.Second,
		},
		LastFM: LastFMConfig{
			Enabled:      true,
			BaseURL:      "https://ws.audioscrobbler.com",
			RequestDelay: 250 * time.Millisecond,
			Timeout:      15 * time.Second,
			SimilarLimit: 5,
		},
		AcousticBrainz: AcousticBrainzConfig{
			Enabled:      true,
			BaseURL:      "https://acousticbrainz.org",
			RequestDelay: 100 * time.Millisecond,
			Timeout:      30 * time.Second,
			BatchSize:    25,
		},
		AcoustID: AcoustIDConfig{
			Enabled:      false,
			BaseURL:      "https://api.acoustid.org",
			RequestDelay: 340 * time.Millisecond,
			Timeout:      15 * time.Second,
		},
		Retry: RetryConfig{
			MaxAttempts:   3,
			BaseDelay:     2 * time.Second,
			MaxDelay:      8 * time.Second,
			MaxRetryAfter: time.Minute,
		},
		Enrichment: EnrichmentConfig{
			ReattemptAfter:        90 * 24 * time.Hour,
			ErroredReattemptAfter: 7 * 24 * time.Hour,
			SkipTracksWithGenres:  true,
			Phases:                nil, // all phases
		},
		Analyzer: AnalyzerConfig{
			Enabled:   false,
			Command:   "aubio",
			Args:      []string{"tempo", "{file}"},
			Timeout:   2 * time.Minute,
			BatchSize: 25,
			BatchRest: 10 * time.Second,
			MinBPM:    40,
			MaxBPM:    220,
		},
		Cache: CacheConfig{
			Enabled: false,
			Path:    "/data/cache",
			TTL:     30 * 24 * time.Hour,
		},
		Daemon: DaemonConfig{
			Interval:        6 * time.Hour,
			ListenAddr:      "127.0.0.1:9477",
			ShutdownTimeout: 10 * time.Second,
			RateLimit:       120,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources.
func LoadWithKoanf(explicitPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	configPath, err := findConfigFile(explicitPath)
	if err != nil {
		return nil, err
	}
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func findConfigFile(explicitPath string) (string, error) {
	if explicitPath != "" {
		if _, err := os.Stat(explicitPath); err != nil {
			return "", fmt.Errorf("config file %s: %w", explicitPath, err)
		}
		return explicitPath, nil
	}

	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath, nil
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return "", nil
}

// sliceConfigPaths lists keys that accept comma-separated values from the environment.
var sliceConfigPaths = []string{
	"enrichment.phases",
	"analyzer.args",
	"daemon.cors_origins",
}

// processSliceFields converts comma-separated strings to slices for known list keys.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

var envMappings = map[string]string{
	"setlist_db_path":   "database.path",
	"duckdb_path":       "database.path",
	"duckdb_max_memory": "database.max_memory",
	"duckdb_threads":    "database.threads",

	"plex_url":           "plex.url",
	"plex_token":         "plex.token",
	"plex_section":       "plex.section",
	"plex_page_size":     "plex.page_size",
	"plex_request_delay": "plex.request_delay",
	"plex_timeout":       "plex.timeout",

	"lastfm_enabled":       "lastfm.enabled",
	"lastfm_api_key":       "lastfm.api_key",
	"lastfm_base_url":      "lastfm.base_url",
	"lastfm_request_delay": "lastfm.request_delay",
	"lastfm_similar_limit": "lastfm.similar_limit",

	"acousticbrainz_enabled":       "acousticbrainz.enabled",
	"acousticbrainz_base_url":      "acousticbrainz.base_url",
	"acousticbrainz_request_delay": "acousticbrainz.request_delay",
	"acousticbrainz_batch_size":    "acousticbrainz.batch_size",

	"acoustid_enabled":       "acoustid.enabled",
	"acoustid_api_key":       "acoustid.api_key",
	"acoustid_base_url":      "acoustid.base_url",
	"acoustid_request_delay": "acoustid.request_delay",

	"retry_max_attempts":    "retry.max_attempts",
	"retry_base_delay":      "retry.base_delay",
	"retry_max_delay":       "retry.max_delay",
	"retry_max_retry_after": "retry.max_retry_after",

	"enrichment_reattempt_after":         "enrichment.reattempt_after",
	"enrichment_errored_reattempt_after": "enrichment.errored_reattempt_after",
	"enrichment_skip_tracks_with_genres": "enrichment.skip_tracks_with_genres",
	"enrichment_phases":                  "enrichment.phases",

	"analyzer_enabled":    "analyzer.enabled",
	"analyzer_command":    "analyzer.command",
	"analyzer_args":       "analyzer.args",
	"analyzer_timeout":    "analyzer.timeout",
	"analyzer_batch_size": "analyzer.batch_size",
	"analyzer_batch_rest": "analyzer.batch_rest",

	"library_path_prefix": "paths.library_prefix",
	"local_path_prefix":   "paths.local_prefix",

	"cache_enabled": "cache.enabled",
	"cache_path":    "cache.path",
	"cache_ttl":     "cache.ttl",

	"daemon_interval":         "daemon.interval",
	"daemon_listen_addr":      "daemon.listen_addr",
	"daemon_cors_origins":     "daemon.cors_origins",
	"daemon_rate_limit":       "daemon.rate_limit",
	"daemon_shutdown_timeout": "daemon.shutdown_timeout",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc maps environment variable names to koanf keys.
// Unmapped variables return "" and are ignored.
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}
