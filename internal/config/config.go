// Setlist - Music Library Enrichment for Playlist Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package config

import (
	"time"
)

// Config is the root configuration value.
type Config struct {
	Database       DatabaseConfig       `koanf:"database"`
	Plex           PlexConfig           `koanf:"plex"`
	LastFM         LastFMConfig         `koanf:"lastfm"`
	AcousticBrainz AcousticBrainzConfig `koanf:"acousticbrainz"`
	AcoustID       AcoustIDConfig       `koanf:"acoustid"`
	Retry          RetryConfig          `koanf:"retry"`
	Enrichment     EnrichmentConfig     `koanf:"enrichment"`
	Analyzer       AnalyzerConfig       `koanf:"analyzer"`
	Paths          PathsConfig          `koanf:"paths"`
	Cache          CacheConfig          `koanf:"cache"`
	Daemon         DaemonConfig         `koanf:"daemon"`
	Logging        LoggingConfig        `koanf:"logging"`
}

// DatabaseConfig configures the DuckDB entity store.
type DatabaseConfig struct {
	Path      string `koanf:"path" validate:"required"`
	MaxMemory string `koanf:"max_memory" validate:"required"`
	Threads   int    `koanf:"threads" validate:"min=0"` // 0 = runtime.NumCPU()
}

// PlexConfig configures the library source.
type PlexConfig struct {
	URL          string        `koanf:"url" validate:"omitempty,http_url"`
	Token        string        `koanf:"token"`
	Section      string        `koanf:"section" validate:"required"` // music library section key
	PageSize     int           `koanf:"page_size" validate:"min=1,max=5000"`
	RequestDelay time.Duration `koanf:"request_delay" validate:"min=0"`
	Timeout      time.Duration `koanf:"timeout" validate:"gt=0"`
}

// LastFMConfig configures the identity-lookup and track-identity source.
type LastFMConfig struct {
	Enabled      bool          `koanf:"enabled"`
	APIKey       string        `koanf:"api_key"`
	BaseURL      string        `koanf:"base_url" validate:"required,http_url"`
	RequestDelay time.Duration `koanf:"request_delay" validate:"min=0"`
	Timeout      time.Duration `koanf:"timeout" validate:"gt=0"`
	// SimilarLimit caps similar artists materialized per primary artist.
	// artist.getinfo returns at most five; 0 keeps every returned name.
	SimilarLimit int `koanf:"similar_limit" validate:"min=0,max=5"`
}

// AcousticBrainzConfig configures the tempo-by-identity source.
type AcousticBrainzConfig struct {
	Enabled      bool          `koanf:"enabled"`
	BaseURL      string        `koanf:"base_url" validate:"required,http_url"`
	RequestDelay time.Duration `koanf:"request_delay" validate:"min=0"`
	Timeout      time.Duration `koanf:"timeout" validate:"gt=0"`
	BatchSize    int           `koanf:"batch_size" validate:"min=1,max=25"`
}

// AcoustIDConfig configures fingerprint resolution during file identity reads.
type AcoustIDConfig struct {
	Enabled      bool          `koanf:"enabled"`
	APIKey       string        `koanf:"api_key"`
	BaseURL      string        `koanf:"base_url" validate:"required,http_url"`
	RequestDelay time.Duration `koanf:"request_delay" validate:"min=0"`
	Timeout      time.Duration `koanf:"timeout" validate:"gt=0"`
}

// RetryConfig is the backoff policy applied to every external source call.
type RetryConfig struct {
	MaxAttempts int           `koanf:"max_attempts" validate:"min=1,max=10"`
	BaseDelay   time.Duration `koanf:"base_delay" validate:"gt=0"`
	MaxDelay    time.Duration `koanf:"max_delay" validate:"gt=0"`
	// MaxRetryAfter is the longest server-requested wait honored. A call
	// asked to wait longer degrades instead. 0 honors any wait.
	MaxRetryAfter time.Duration `koanf:"max_retry_after" validate:"min=0"`
}

// EnrichmentConfig controls selector horizons and which phases run.
type EnrichmentConfig struct {
	// ReattemptAfter re-selects attempted primary artists (and tracks) that
	// still lack data once their marker is older than this. 0 disables.
	ReattemptAfter time.Duration `koanf:"reattempt_after" validate:"min=0"`
	// ErroredReattemptAfter applies instead when the last attempt degraded.
	ErroredReattemptAfter time.Duration `koanf:"errored_reattempt_after" validate:"min=0"`
	SkipTracksWithGenres  bool          `koanf:"skip_tracks_with_genres"`
	Phases                []string      `koanf:"phases" validate:"dive,oneof=file_identity primary_full stub_core track_genre tempo_lookup tempo_local"`
}

// AnalyzerConfig configures the local tempo analyzer command.
type AnalyzerConfig struct {
	Enabled bool     `koanf:"enabled"`
	Command string   `koanf:"command" validate:"required_if=Enabled true"`
	Args    []string `koanf:"args"` // "{file}" is replaced by the local file path
	// Timeout bounds a single file analysis.
	Timeout   time.Duration `koanf:"timeout" validate:"gt=0"`
	BatchSize int           `koanf:"batch_size" validate:"min=1"`
	BatchRest time.Duration `koanf:"batch_rest" validate:"min=0"`
	MinBPM    float64       `koanf:"min_bpm" validate:"gt=0"`
	MaxBPM    float64       `koanf:"max_bpm" validate:"gtfield=MinBPM"`
}

// PathsConfig maps file paths reported by the library to local paths.
type PathsConfig struct {
	LibraryPrefix string `koanf:"library_prefix"`
	LocalPrefix   string `koanf:"local_prefix"`
}

// CacheConfig configures the badger-backed lookup cache.
type CacheConfig struct {
	Enabled bool          `koanf:"enabled"`
	Path    string        `koanf:"path" validate:"required_if=Enabled true"`
	TTL     time.Duration `koanf:"ttl" validate:"min=0"`
}

// DaemonConfig configures `setlist daemon`.
type DaemonConfig struct {
	Interval        time.Duration `koanf:"interval" validate:"gt=0"`
	ListenAddr      string        `koanf:"listen_addr" validate:"required,hostname_port"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
	// CORSOrigins lists browser origins allowed to read the status API.
	// Empty disables CORS headers.
	CORSOrigins []string `koanf:"cors_origins" validate:"dive,http_url"`
	// RateLimit is requests per minute per client IP. Zero disables it.
	RateLimit int `koanf:"rate_limit" validate:"min=0"`
}

// LoggingConfig configures internal/logging.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn warning error disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// PhaseEnabled reports whether a named phase is in the configured list.
// An empty list enables every phase.
func (e EnrichmentConfig) PhaseEnabled(name string) bool {
	if len(e.Phases) == 0 {
		return true
	}
	for _, p := range e.Phases {
		if p == name {
			return true
		}
	}
	return false
}

// Load reads configuration from defaults, an optional YAML file and the environment.
//
// explicitPath, when non-empty, takes precedence over CONFIG_PATH and the
// default search locations; a missing explicit file is an error.
func Load(explicitPath string) (*Config, error) {
	return LoadWithKoanf(explicitPath)
}
