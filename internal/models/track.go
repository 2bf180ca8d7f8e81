package models

import "time"

// Track is one resolved audio file in play order.
type Track struct {
	Name     string        `json:"name"`
	Path     string        `json:"path"`
	Duration time.Duration `json:"duration"`
	Title    string        `json:"title,omitempty"`
	Artist   *string       `json:"artist,omitempty"`
}

// TimelineEntry places a track inside the final mix.
type TimelineEntry struct {
	Track       Track         `json:"track"`
	StartOffset time.Duration `json:"start_offset"`
	Label       string        `json:"label"`
	Intro       bool          `json:"intro,omitempty"`
	FadeIn      time.Duration `json:"fade_in,omitempty"`
	FadeOut     time.Duration `json:"fade_out,omitempty"`
}

// End returns the offset at which the entry stops sounding.
func (e TimelineEntry) End() time.Duration {
	return e.StartOffset + e.Track.Duration
}

// PlaylistConfig is the static description of one mix.
type PlaylistConfig struct {
	Title       string
	Description string
	SongNames   []string
	// Transitions overrides the boundary after the named song.
	Transitions map[string]Transition
}
