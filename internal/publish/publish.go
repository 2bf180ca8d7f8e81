package publish

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"mixtape/internal/models"
)

const fallbackSlug = "mixtape"

// FormatTimestamp renders d as HH:MM:SS, dropping fractional seconds.
func FormatTimestamp(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	hours := total / 3600
	minutes := (total % 3600) / 60
	secs := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, secs)
}

// Tracklist renders one "HH:MM:SS — label" line per song. The intro tag is
// not listed. With showArtists the artist tag is appended when present.
func Tracklist(entries []models.TimelineEntry, showArtists bool) string {
	var b strings.Builder
	for _, entry := range entries {
		if entry.Intro {
			continue
		}
		b.WriteString(FormatTimestamp(entry.StartOffset))
		b.WriteString(" — ")
		b.WriteString(entryLabel(entry, showArtists))
		b.WriteByte('\n')
	}
	return b.String()
}

func entryLabel(entry models.TimelineEntry, showArtists bool) string {
	label := entry.Label
	if label == "" {
		label = entry.Track.Name
	}
	if showArtists && entry.Track.Artist != nil && *entry.Track.Artist != "" {
		label += " – " + *entry.Track.Artist
	}
	return label
}

// Description assembles the publishable description: playlist description,
// tracklist, footer and hashtags separated by blank lines. Empty sections
// are left out.
func Description(playlist models.PlaylistConfig, tracklist, footer string, hashtags []string) string {
	sections := make([]string, 0, 4)
	for _, section := range []string{
		playlist.Description,
		tracklist,
		footer,
		strings.Join(hashtags, " "),
	} {
		section = strings.TrimSpace(section)
		if section != "" {
			sections = append(sections, section)
		}
	}
	if len(sections) == 0 {
		return ""
	}
	return strings.Join(sections, "\n\n") + "\n"
}

// Slug turns a playlist title into a base name that is safe on common
// filesystems. Runs of whitespace, tabs and newlines included, become one
// space; separators, reserved and control characters are dropped.
func Slug(title string) string {
	var b strings.Builder
	space := false
	for _, r := range title {
		switch {
		case unicode.IsSpace(r):
			space = b.Len() > 0
			continue
		case strings.ContainsRune(`<>:"/\|?*`, r), unicode.IsControl(r):
			continue
		}
		if space {
			b.WriteByte(' ')
			space = false
		}
		b.WriteRune(r)
	}

	slug := strings.Trim(b.String(), ". ")
	if slug == "" {
		return fallbackSlug
	}
	return slug
}
