package models

import "time"

// Transition describes the boundary between two adjacent tracks. At most one
// of Crossfade and Gap may be non-zero.
type Transition struct {
	Crossfade time.Duration `json:"crossfade,omitempty"`
	Gap       time.Duration `json:"silence_gap,omitempty"`
}

// IsCrossfade reports whether the boundary overlaps the two tracks.
func (t Transition) IsCrossfade() bool {
	return t.Crossfade > 0
}

// TransitionConfig holds the uniform transition plus per-boundary overrides.
// Boundary i sits between track i and track i+1.
type TransitionConfig struct {
	CrossfadeDuration time.Duration
	SilenceGap        time.Duration
	Overrides         map[int]Transition
}

// At returns the transition that applies to boundary i.
func (c TransitionConfig) At(i int) Transition {
	if t, ok := c.Overrides[i]; ok {
		return t
	}
	return Transition{Crossfade: c.CrossfadeDuration, Gap: c.SilenceGap}
}
