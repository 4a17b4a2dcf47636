// Setlist - Music Library Enrichment for Playlist Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package database

import (
	"database/sql"
	"strings"
	"time"

	"github.com/tomtom215/setlist/internal/models"
)

// NameKey returns the identity key for an artist name: trimmed,
// lowercased, with internal whitespace collapsed.
func NameKey(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

// NormalizeGenre returns the stored form of a genre label, or "" when the
// label is blank.
func NormalizeGenre(label string) string {
	return strings.Join(strings.Fields(strings.ToLower(label)), " ")
}

// placeholders returns "?, ?, ?" for n parameters.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func int64Args(ids []int64) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

// nullString maps "" to SQL NULL.
func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func utc(t time.Time) time.Time {
	return t.UTC()
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time.UTC()
	return &t
}

func statusOf(ns sql.NullString) models.EnrichmentStatus {
	if !ns.Valid {
		return ""
	}
	return models.EnrichmentStatus(ns.String)
}

// dedupeGenres normalizes labels and drops blanks and duplicates while
// keeping first-seen order.
func dedupeGenres(labels []string) []string {
	seen := make(map[string]struct{}, len(labels))
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		g := NormalizeGenre(l)
		if g == "" {
			continue
		}
		if _, ok := seen[g]; ok {
			continue
		}
		seen[g] = struct{}{}
		out = append(out, g)
	}
	return out
}
