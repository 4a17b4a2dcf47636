// Setlist - Music Library Enrichment for Playlist Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package main

import (
	"fmt"

	"github.com/tomtom215/setlist/internal/analysis"
	"github.com/tomtom215/setlist/internal/cache"
	"github.com/tomtom215/setlist/internal/config"
	"github.com/tomtom215/setlist/internal/database"
	"github.com/tomtom215/setlist/internal/logging"
	"github.com/tomtom215/setlist/internal/pipeline"
	"github.com/tomtom215/setlist/internal/sources"
	"github.com/tomtom215/setlist/internal/tags"
)

// app holds the opened resources of one command invocation.
type app struct {
	cfg    *config.Config
	db     *database.DB
	cache  *cache.Store  // nil unless cache.enabled and Last.fm is on
	lastfm *cache.LastFM // cache-backed Last.fm lookups, nil without the cache
	plex   *sources.PlexClient
	orch   *pipeline.Orchestrator
}

// newApp opens the store and wires the sources. requireLibrary enforces
// the Plex and API-key settings commands that talk to the network need.
func newApp(cfg *config.Config, requireLibrary bool) (*app, error) {
	if requireLibrary {
		if err := cfg.ValidateForRun(); err != nil {
			return nil, err
		}
	}

	db, err := database.New(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", cfg.Database.Path, err)
	}
	a := &app{cfg: cfg, db: db}

	src, err := a.buildSources()
	if err != nil {
		a.Close()
		return nil, err
	}
	a.orch = pipeline.New(db, cfg, src)

	logging.Debug().
		Str("db_path", cfg.Database.Path).
		Strs("phases", a.orch.EnabledPhaseNames()).
		Bool("cache", a.cache != nil).
		Msg("Application initialized")
	return a, nil
}

// buildSources assigns each optional source only when it is enabled, so a
// disabled source is a nil interface rather than a typed nil pointer.
func (a *app) buildSources() (pipeline.Sources, error) {
	cfg := a.cfg
	src := pipeline.Sources{
		Tags:  tags.Reader{},
		Paths: analysis.NewPathMapper(cfg.Paths),
	}

	if cfg.Plex.URL != "" {
		a.plex = sources.NewPlexClient(cfg.Plex, cfg.Retry)
		src.Library = a.plex
	}

	if cfg.LastFM.Enabled {
		client := sources.NewLastFMClient(cfg.LastFM, cfg.Retry)
		if cfg.Cache.Enabled {
			store, err := cache.Open(cfg.Cache)
			if err != nil {
				return src, fmt.Errorf("open lookup cache %s: %w", cfg.Cache.Path, err)
			}
			a.cache = store
			a.lastfm = cache.NewLastFM(client, store, cfg.Cache.TTL)
			src.LastFM = a.lastfm
		} else {
			src.LastFM = client
		}
	}

	if cfg.AcousticBrainz.Enabled {
		src.Tempo = sources.NewAcousticBrainzClient(cfg.AcousticBrainz, cfg.Retry)
	}
	if cfg.AcoustID.Enabled {
		src.Resolver = sources.NewAcoustIDClient(cfg.AcoustID, cfg.Retry)
	}
	if cfg.Analyzer.Enabled {
		src.Analyzer = analysis.New(cfg.Analyzer)
	}
	return src, nil
}

// Close releases the cache and the database.
func (a *app) Close() {
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing lookup cache")
		}
	}
	if err := a.db.Close(); err != nil {
		logging.Error().Err(err).Msg("Error closing database")
	}
}
