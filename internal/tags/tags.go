// Setlist - Music Library Enrichment for Playlist Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

// Package tags reads MusicBrainz and AcoustID identity tags from audio files.
//
// ID3v2 (MP3), Vorbis comments (FLAC, Ogg) and iTunes atoms (MP4/M4A) are
// read through github.com/dhowden/tag. Each format spells the same fields
// differently; the key tables below map them onto models.TrackTags.
package tags

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/dhowden/tag"

	"github.com/tomtom215/setlist/internal/models"
)

// ErrNoTags is returned when the file carries no readable tag block.
var ErrNoTags = errors.New("no tags found")

const musicBrainzUFIDProvider = "http://musicbrainz.org"

// Tag names per field, compared case-insensitively after stripping the
// iTunes freeform prefix.
var (
	recordingKeys = []string{"musicbrainz_trackid", "musicbrainz track id", "musicbrainz recording id"}
	artistKeys    = []string{"musicbrainz_artistid", "musicbrainz artist id"}
	acoustIDKeys  = []string{"acoustid_id", "acoustid id"}
	bpmKeys       = []string{"bpm", "tbpm", "tmpo", "tempo"}
)

// Reader reads identity tags from files on the local filesystem.
type Reader struct{}

// ReadIdentityTags opens path and extracts its identity tags. A file
// without any tag block returns ErrNoTags; a file whose tags lack identity
// fields returns an empty TrackTags and no error.
func (Reader) ReadIdentityTags(path string) (models.TrackTags, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from the library index
	if err != nil {
		return models.TrackTags{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	m, err := tag.ReadFrom(f)
	if errors.Is(err, tag.ErrNoTagsFound) {
		return models.TrackTags{}, ErrNoTags
	}
	if err != nil {
		return models.TrackTags{}, fmt.Errorf("read tags %s: %w", path, err)
	}
	return FromRaw(m.Raw()), nil
}

// FromRaw maps a raw tag dictionary as produced by tag.Metadata.Raw.
func FromRaw(raw map[string]interface{}) models.TrackTags {
	fields := make(map[string]string, len(raw))
	var out models.TrackTags

	for name, value := range raw {
		switch v := value.(type) {
		case *tag.Comm:
			// ID3 TXXX: the description names the field.
			if v != nil {
				fields[normalizeKey(v.Description)] = strings.TrimSpace(v.Text)
			}
		case *tag.UFID:
			if v != nil && v.Provider == musicBrainzUFIDProvider && out.RecordingID == "" {
				out.RecordingID = strings.TrimSpace(string(v.Identifier))
			}
		default:
			if s := stringValue(value); s != "" {
				fields[normalizeKey(name)] = s
			}
		}
	}

	if id := lookup(fields, recordingKeys); id != "" {
		out.RecordingID = id
	}
	out.ArtistID = firstOf(lookup(fields, artistKeys))
	out.AcoustID = lookup(fields, acoustIDKeys)
	if bpm, err := strconv.ParseFloat(lookup(fields, bpmKeys), 64); err == nil && bpm > 0 {
		out.BPM = bpm
	}
	out.RecordingID = strings.ToLower(out.RecordingID)
	out.ArtistID = strings.ToLower(out.ArtistID)
	return out
}

// normalizeKey lowercases a raw tag name and drops the iTunes freeform
// prefix ("----:com.apple.iTunes:").
func normalizeKey(k string) string {
	if i := strings.LastIndex(k, ":"); i >= 0 {
		k = k[i+1:]
	}
	return strings.ToLower(strings.TrimSpace(k))
}

func lookup(fields map[string]string, keys []string) string {
	for _, k := range keys {
		if v := fields[k]; v != "" {
			return v
		}
	}
	return ""
}

// firstOf returns the first of several ids joined in one tag value.
// Multi-artist tracks store "id1/id2" or "id1; id2".
func firstOf(v string) string {
	if i := strings.IndexAny(v, "/;"); i >= 0 {
		v = v[:i]
	}
	return strings.TrimSpace(v)
}

func stringValue(v interface{}) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(strings.TrimRight(t, "\x00"))
	case []byte:
		return strings.TrimSpace(strings.TrimRight(string(t), "\x00"))
	case int:
		return strconv.Itoa(t)
	case []string:
		if len(t) > 0 {
			return strings.TrimSpace(t[0])
		}
	}
	return ""
}
