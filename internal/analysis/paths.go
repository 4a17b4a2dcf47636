// Setlist - Music Library Enrichment for Playlist Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package analysis

import (
	"path/filepath"
	"strings"

	"github.com/tomtom215/setlist/internal/config"
)

// PathMapper rewrites file paths reported by the library server into
// paths readable on this host.
type PathMapper struct {
	from string
	to   string
}

// NewPathMapper creates a mapper from configuration. An empty library
// prefix leaves paths unchanged.
func NewPathMapper(cfg config.PathsConfig) PathMapper {
	return PathMapper{
		from: strings.TrimRight(cfg.LibraryPrefix, "/"),
		to:   strings.TrimRight(cfg.LocalPrefix, "/"),
	}
}

// Local maps p. Paths outside the library prefix are returned as-is.
func (m PathMapper) Local(p string) string {
	if m.from == "" || p == "" {
		return p
	}
	if p != m.from && !strings.HasPrefix(p, m.from+"/") {
		return p
	}
	rest := strings.TrimPrefix(p, m.from)
	if m.to == "" {
		return filepath.Clean("/" + strings.TrimPrefix(rest, "/"))
	}
	return filepath.Join(m.to, rest)
}
