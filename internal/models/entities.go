// Setlist - Music Library Enrichment for Playlist Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package models

import "time"

// EnrichmentStatus is the outcome recorded alongside an enrichment-attempted marker.
type EnrichmentStatus string

const (
	// StatusEnriched means the source returned data.
	StatusEnriched EnrichmentStatus = "enriched"
	// StatusEmpty means the source answered but had nothing for the entity.
	StatusEmpty EnrichmentStatus = "empty"
	// StatusErrored means retries were exhausted or the source rejected the call.
	StatusErrored EnrichmentStatus = "errored"
)

// EnrichmentKind records which artist attempt produced the marker.
type EnrichmentKind string

const (
	// KindCore is an identity and genre attempt without similar artists.
	KindCore EnrichmentKind = "core"
	// KindFull also asked for similar artists.
	KindFull EnrichmentKind = "full"
)

// Tempo sources recorded in Track.TempoSource.
const (
	TempoSourceAcousticBrainz = "acousticbrainz"
	TempoSourceLocal          = "local"
	TempoSourceTag            = "tag"
)

// TrackRecord is one track as listed by the library source.
type TrackRecord struct {
	OriginRef  string    `json:"origin_ref"` // library-native key (Plex ratingKey)
	Title      string    `json:"title"`
	ArtistName string    `json:"artist_name"`
	Album      string    `json:"album,omitempty"`
	FilePath   string    `json:"file_path,omitempty"`
	AddedAt    time.Time `json:"added_at"`
	Genres     []string  `json:"genres,omitempty"`
}

// Track is a persisted track.
type Track struct {
	ID            int64            `json:"id"`
	OriginRef     string           `json:"origin_ref"`
	Title         string           `json:"title"`
	ArtistID      int64            `json:"artist_id"`
	ArtistName    string           `json:"artist_name"`
	Album         string           `json:"album,omitempty"`
	FilePath      string           `json:"file_path,omitempty"`
	Tempo         *float64         `json:"tempo,omitempty"`
	TempoSource   string           `json:"tempo_source,omitempty"`
	ExternalID    string           `json:"external_id,omitempty"`
	FingerprintID string           `json:"fingerprint_id,omitempty"`
	AddedAt       time.Time        `json:"added_at"`
	AttemptedAt   *time.Time       `json:"enrichment_attempted_at,omitempty"`
	Status        EnrichmentStatus `json:"enrichment_status,omitempty"`
}

// Artist is a persisted artist.
type Artist struct {
	ID          int64            `json:"id"`
	Name        string           `json:"name"`
	ExternalID  string           `json:"external_id,omitempty"`
	AttemptedAt *time.Time       `json:"enrichment_attempted_at,omitempty"`
	Status      EnrichmentStatus `json:"enrichment_status,omitempty"`
	TrackCount  int              `json:"track_count"`
}

// Primary reports whether the artist owns at least one track.
func (a *Artist) Primary() bool {
	return a.TrackCount > 0
}

// ArtistInfo is an identity-lookup result.
type ArtistInfo struct {
	ExternalID string
	Genres     []string
	Similar    []string
}

// Empty reports whether the lookup carried nothing worth writing.
func (i ArtistInfo) Empty() bool {
	return i.ExternalID == "" && len(i.Genres) == 0 && len(i.Similar) == 0
}

// TrackInfo is a track-identity lookup result.
type TrackInfo struct {
	ExternalID string
	Genres     []string
}

// Empty reports whether the lookup carried nothing worth writing.
func (i TrackInfo) Empty() bool {
	return i.ExternalID == "" && len(i.Genres) == 0
}

// TrackTags holds the identity tags embedded in an audio file.
type TrackTags struct {
	RecordingID string
	ArtistID    string
	AcoustID    string
	BPM         float64
}
