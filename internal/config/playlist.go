package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"mixtape/internal/models"
)

type playlistYAML struct {
	Title       string                    `yaml:"title"`
	Description string                    `yaml:"description"`
	SongNames   []string                  `yaml:"song_names"`
	Transitions map[string]transitionYAML `yaml:"transitions"`
}

type transitionYAML struct {
	Crossfade  float64 `yaml:"crossfade"`
	SilenceGap float64 `yaml:"silence_gap"`
}

// LoadPlaylist reads a playlist document. The document is JSON or YAML and
// holds either a single playlist object or a list of them, in which case
// index selects one. When limit is positive only the first limit songs are
// kept.
func LoadPlaylist(path string, index, limit int) (models.PlaylistConfig, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return models.PlaylistConfig{}, &Error{Field: "playlist", Err: err}
	}
	data, err := os.ReadFile(resolved)
	if err != nil {
		return models.PlaylistConfig{}, &Error{Field: "playlist", Err: err}
	}
	return ParsePlaylist(data, index, limit)
}

// ParsePlaylist decodes and validates a playlist document.
func ParsePlaylist(data []byte, index, limit int) (models.PlaylistConfig, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return models.PlaylistConfig{}, &Error{Field: "playlist", Err: err}
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return models.PlaylistConfig{}, &Error{Field: "playlist", Err: errors.New("document is empty")}
	}

	doc := root.Content[0]
	var raw playlistYAML
	switch doc.Kind {
	case yaml.SequenceNode:
		var all []playlistYAML
		if err := doc.Decode(&all); err != nil {
			return models.PlaylistConfig{}, &Error{Field: "playlist", Err: err}
		}
		if index < 0 || index >= len(all) {
			return models.PlaylistConfig{}, fieldError("playlist", "index %d out of range (document holds %d playlists)", index, len(all))
		}
		raw = all[index]
	case yaml.MappingNode:
		if index != 0 {
			return models.PlaylistConfig{}, fieldError("playlist", "index %d given but document holds a single playlist", index)
		}
		if err := doc.Decode(&raw); err != nil {
			return models.PlaylistConfig{}, &Error{Field: "playlist", Err: err}
		}
	default:
		return models.PlaylistConfig{}, fieldError("playlist", "expected an object or a list of objects")
	}

	return raw.toModel(limit)
}

func (p playlistYAML) toModel(limit int) (models.PlaylistConfig, error) {
	title := strings.TrimSpace(p.Title)
	if title == "" {
		return models.PlaylistConfig{}, fieldError("title", "must be set")
	}
	if len(p.SongNames) == 0 {
		return models.PlaylistConfig{}, fieldError("song_names", "must list at least one song")
	}

	seen := make(map[string]struct{}, len(p.SongNames))
	names := make([]string, 0, len(p.SongNames))
	for i, name := range p.SongNames {
		name = strings.TrimSpace(name)
		if name == "" {
			return models.PlaylistConfig{}, fieldError(fmt.Sprintf("song_names[%d]", i), "must not be blank")
		}
		if _, dup := seen[name]; dup {
			return models.PlaylistConfig{}, fieldError(fmt.Sprintf("song_names[%d]", i), "%q is listed twice", name)
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}

	if limit > 0 && len(names) > limit {
		names = names[:limit]
	}
	kept := make(map[string]struct{}, len(names))
	for _, name := range names {
		kept[name] = struct{}{}
	}

	var transitions map[string]models.Transition
	for name, raw := range p.Transitions {
		name = strings.TrimSpace(name)
		field := fmt.Sprintf("transitions[%q]", name)
		if _, ok := seen[name]; !ok {
			return models.PlaylistConfig{}, fieldError(field, "no such song in song_names")
		}
		t := models.Transition{Crossfade: Seconds(raw.Crossfade), Gap: Seconds(raw.SilenceGap)}
		if err := validateTransition(field, t); err != nil {
			return models.PlaylistConfig{}, err
		}
		if _, ok := kept[name]; !ok || name == names[len(names)-1] {
			continue
		}
		if transitions == nil {
			transitions = make(map[string]models.Transition)
		}
		transitions[name] = t
	}

	return models.PlaylistConfig{
		Title:       title,
		Description: strings.TrimSpace(p.Description),
		SongNames:   names,
		Transitions: transitions,
	}, nil
}
