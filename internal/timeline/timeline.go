package timeline

import (
	"errors"
	"fmt"
	"time"

	"mixtape/internal/config"
	"mixtape/internal/models"
)

// ConstraintError reports a crossfade that is longer than one of the two
// tracks it joins.
type ConstraintError struct {
	Boundary  int
	Crossfade time.Duration
	Left      models.Track
	Right     models.Track
}

func (e *ConstraintError) Error() string {
	return fmt.Sprintf("crossfade %s between %q (%s) and %q (%s) exceeds the shorter track",
		e.Crossfade, e.Left.Name, e.Left.Duration, e.Right.Name, e.Right.Duration)
}

// Build computes the start offset of every track in play order. Each
// crossfade is checked against its two neighbours only, so a track shorter
// than its fade-in plus fade-out is allowed and its fades overlap.
func Build(tracks []models.Track, cfg models.TransitionConfig) ([]models.TimelineEntry, error) {
	return build(nil, tracks, cfg)
}

// BuildWithIntro places intro at offset 0 and starts the first track when
// the intro ends. No transition is applied between the two.
func BuildWithIntro(intro models.Track, tracks []models.Track, cfg models.TransitionConfig) ([]models.TimelineEntry, error) {
	return build(&intro, tracks, cfg)
}

func build(intro *models.Track, tracks []models.Track, cfg models.TransitionConfig) ([]models.TimelineEntry, error) {
	if len(tracks) == 0 {
		return nil, &config.Error{Field: "song_names", Err: errors.New("playlist has no tracks")}
	}
	if err := config.ValidateTransitions(cfg, len(tracks)); err != nil {
		return nil, err
	}
	for _, track := range tracks {
		if track.Duration <= 0 {
			return nil, fmt.Errorf("track %q has no duration", track.Name)
		}
	}

	entries := make([]models.TimelineEntry, 0, len(tracks)+1)
	var cursor time.Duration

	if intro != nil {
		if intro.Duration <= 0 {
			return nil, fmt.Errorf("producer tag %q has no duration", intro.Name)
		}
		entries = append(entries, models.TimelineEntry{
			Track: *intro,
			Label: Label(intro.Name),
			Intro: true,
		})
		cursor = intro.Duration
	}

	var fadeIn time.Duration
	for i, track := range tracks {
		entry := models.TimelineEntry{
			Track:       track,
			StartOffset: cursor,
			Label:       Label(track.Name),
			FadeIn:      fadeIn,
		}
		cursor += track.Duration
		fadeIn = 0

		if i < len(tracks)-1 {
			transition := cfg.At(i)
			switch {
			case transition.Crossfade > 0:
				next := tracks[i+1]
				if transition.Crossfade > min(track.Duration, next.Duration) {
					return nil, &ConstraintError{
						Boundary:  i,
						Crossfade: transition.Crossfade,
						Left:      track,
						Right:     next,
					}
				}
				cursor -= transition.Crossfade
				entry.FadeOut = transition.Crossfade
				fadeIn = transition.Crossfade
			case transition.Gap > 0:
				cursor += transition.Gap
			}
		}

		entries = append(entries, entry)
	}

	return entries, nil
}

// End returns the length of the mix described by entries.
func End(entries []models.TimelineEntry) time.Duration {
	var end time.Duration
	for _, entry := range entries {
		end = max(end, entry.End())
	}
	return end
}

// Songs drops the intro entry, if any.
func Songs(entries []models.TimelineEntry) []models.TimelineEntry {
	songs := make([]models.TimelineEntry, 0, len(entries))
	for _, entry := range entries {
		if !entry.Intro {
			songs = append(songs, entry)
		}
	}
	return songs
}
