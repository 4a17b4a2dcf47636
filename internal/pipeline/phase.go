// Setlist - Music Library Enrichment for Playlist Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package pipeline

import "fmt"

// Phase is one enrichment step.
type Phase int

const (
	PhaseFileIdentity Phase = iota
	PhasePrimaryFull
	PhaseStubCore
	PhaseTrackGenre
	PhaseTempoLookup
	PhaseTempoLocal
)

// phaseOrder is the order phases run in. Identity comes first so later
// phases can select on it; stubs follow the primary pass that creates
// them.
var phaseOrder = []Phase{
	PhaseFileIdentity,
	PhasePrimaryFull,
	PhaseStubCore,
	PhaseTrackGenre,
	PhaseTempoLookup,
	PhaseTempoLocal,
}

var phaseNames = map[Phase]string{
	PhaseFileIdentity: "file_identity",
	PhasePrimaryFull:  "primary_full",
	PhaseStubCore:     "stub_core",
	PhaseTrackGenre:   "track_genre",
	PhaseTempoLookup:  "tempo_lookup",
	PhaseTempoLocal:   "tempo_local",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// Phases returns every phase in run order.
func Phases() []Phase {
	return append([]Phase(nil), phaseOrder...)
}

// ParsePhase returns the phase with the given name.
func ParsePhase(name string) (Phase, error) {
	for p, n := range phaseNames {
		if n == name {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown phase %q", name)
}

// markerBased reports whether the phase records an enrichment marker and
// so selects by marker instead of by changed tracks in incremental runs.
func (p Phase) markerBased() bool {
	switch p {
	case PhasePrimaryFull, PhaseStubCore, PhaseTrackGenre:
		return true
	default:
		return false
	}
}
