// Setlist - Music Library Enrichment for Playlist Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package sources

import "context"

type freshKey struct{}

// WithFreshLookups marks ctx so lookup caches go to the source instead of
// answering from stored results. Fresh answers are still stored.
func WithFreshLookups(ctx context.Context) context.Context {
	return context.WithValue(ctx, freshKey{}, true)
}

// FreshLookups reports whether ctx asks for uncached lookups.
func FreshLookups(ctx context.Context) bool {
	fresh, _ := ctx.Value(freshKey{}).(bool)
	return fresh
}
