// Setlist - Music Library Enrichment for Playlist Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package config

import (
	"errors"
	"fmt"

	"github.com/tomtom215/setlist/internal/validation"
)

// ErrLibraryNotConfigured is returned by ValidateForRun when Plex is not set up.
var ErrLibraryNotConfigured = errors.New("library source not configured: set PLEX_URL and PLEX_TOKEN")

// Validate checks struct-tag rules and the cross-field rules tags cannot express.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c); err != nil {
		return err
	}

	if c.Retry.MaxDelay < c.Retry.BaseDelay {
		return fmt.Errorf("retry.max_delay (%s) must not be less than retry.base_delay (%s)", c.Retry.MaxDelay, c.Retry.BaseDelay)
	}

	if c.Enrichment.ErroredReattemptAfter > 0 && c.Enrichment.ReattemptAfter > 0 &&
		c.Enrichment.ErroredReattemptAfter > c.Enrichment.ReattemptAfter {
		return fmt.Errorf("enrichment.errored_reattempt_after (%s) must not exceed enrichment.reattempt_after (%s)",
			c.Enrichment.ErroredReattemptAfter, c.Enrichment.ReattemptAfter)
	}

	if (c.Paths.LibraryPrefix == "") != (c.Paths.LocalPrefix == "") {
		return fmt.Errorf("paths.library_prefix and paths.local_prefix must be set together")
	}

	return nil
}

// ValidateForRun adds the checks needed by commands that talk to the library.
func (c *Config) ValidateForRun() error {
	if c.Plex.URL == "" || c.Plex.Token == "" {
		return ErrLibraryNotConfigured
	}
	if c.LastFM.Enabled && c.LastFM.APIKey == "" {
		return fmt.Errorf("lastfm.api_key is required when lastfm.enabled is true")
	}
	if c.AcoustID.Enabled && c.AcoustID.APIKey == "" {
		return fmt.Errorf("acoustid.api_key is required when acoustid.enabled is true")
	}
	return nil
}
