package config

import (
	"errors"
	"fmt"
	"sort"

	"mixtape/internal/models"
)

// Error reports a malformed or missing configuration value.
type Error struct {
	Field string
	Err   error
}

func (e *Error) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("config: %v", e.Err)
	}
	return fmt.Sprintf("config %s: %v", e.Field, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func fieldError(field, format string, args ...any) *Error {
	return &Error{Field: field, Err: fmt.Errorf(format, args...)}
}

// ValidateTransitions checks the uniform transition and every override for a
// playlist of the given number of tracks.
func ValidateTransitions(cfg models.TransitionConfig, tracks int) error {
	uniform := models.Transition{Crossfade: cfg.CrossfadeDuration, Gap: cfg.SilenceGap}
	if err := validateTransition("transition", uniform); err != nil {
		return err
	}

	boundaries := make([]int, 0, len(cfg.Overrides))
	for boundary := range cfg.Overrides {
		boundaries = append(boundaries, boundary)
	}
	sort.Ints(boundaries)

	for _, boundary := range boundaries {
		field := fmt.Sprintf("transitions[%d]", boundary)
		if boundary < 0 || boundary >= tracks-1 {
			return fieldError(field, "no boundary %d in a playlist of %d tracks", boundary, tracks)
		}
		if err := validateTransition(field, cfg.Overrides[boundary]); err != nil {
			return err
		}
	}
	return nil
}

func validateTransition(field string, t models.Transition) error {
	if t.Crossfade < 0 {
		return fieldError(field, "crossfade must not be negative, got %s", t.Crossfade)
	}
	if t.Gap < 0 {
		return fieldError(field, "silence gap must not be negative, got %s", t.Gap)
	}
	if t.Crossfade > 0 && t.Gap > 0 {
		return &Error{Field: field, Err: errors.New("crossfade and silence gap are mutually exclusive")}
	}
	return nil
}
