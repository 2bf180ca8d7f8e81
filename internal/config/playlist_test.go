package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const playlistJSON = `[
  {
    "title": "Morning Coffee",
    "description": "Warm beats for slow mornings.",
    "song_names": ["Cozy Cafe", "Golden Hour", "Soft Rain"]
  },
  {
    "title": "Rest under a tree",
    "description": "Feel protected by nature.",
    "song_names": ["Leaves", "Meadow", "River", "Dusk"],
    "transitions": {"Meadow": {"silence_gap": 4}}
  }
]`

func TestLoadPlaylistFromJSONList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lofi_playlist_data.json")
	if err := os.WriteFile(path, []byte(playlistJSON), 0o644); err != nil {
		t.Fatalf("write playlist: %v", err)
	}

	playlist, err := LoadPlaylist(path, 1, 0)
	if err != nil {
		t.Fatalf("LoadPlaylist: %v", err)
	}
	if playlist.Title != "Rest under a tree" {
		t.Fatalf("unexpected title %q", playlist.Title)
	}
	if strings.Join(playlist.SongNames, ",") != "Leaves,Meadow,River,Dusk" {
		t.Fatalf("expected play order preserved, got %v", playlist.SongNames)
	}
	if playlist.Transitions["Meadow"].Gap != 4*time.Second {
		t.Fatalf("expected override on Meadow, got %+v", playlist.Transitions)
	}
}

func TestParsePlaylistSingleYAMLObject(t *testing.T) {
	doc := "" +
		"title: Night Drive\n" +
		"description: |\n" +
		"  Synths for the road.\n" +
		"song_names:\n" +
		"  - Neon\n" +
		"  - Highway\n"

	playlist, err := ParsePlaylist([]byte(doc), 0, 0)
	if err != nil {
		t.Fatalf("ParsePlaylist: %v", err)
	}
	if playlist.Description != "Synths for the road." || len(playlist.SongNames) != 2 {
		t.Fatalf("unexpected playlist %+v", playlist)
	}
}

func TestParsePlaylistLimit(t *testing.T) {
	playlist, err := ParsePlaylist([]byte(playlistJSON), 1, 2)
	if err != nil {
		t.Fatalf("ParsePlaylist: %v", err)
	}
	if len(playlist.SongNames) != 2 {
		t.Fatalf("expected 2 songs, got %v", playlist.SongNames)
	}
	if len(playlist.Transitions) != 0 {
		t.Fatalf("override on the new last song should be dropped, got %+v", playlist.Transitions)
	}
}

func TestParsePlaylistErrors(t *testing.T) {
	cases := []struct {
		name  string
		doc   string
		index int
	}{
		{"empty document", "", 0},
		{"malformed", "{title: [", 0},
		{"scalar", "just text", 0},
		{"missing title", `{"song_names": ["A"]}`, 0},
		{"no songs", `{"title": "T", "song_names": []}`, 0},
		{"blank song", `{"title": "T", "song_names": ["A", " "]}`, 0},
		{"duplicate song", `{"title": "T", "song_names": ["A", "A"]}`, 0},
		{"index out of range", playlistJSON, 5},
		{"index on object", `{"title": "T", "song_names": ["A"]}`, 1},
		{"unknown transition song", `{"title": "T", "song_names": ["A", "B"], "transitions": {"Z": {"silence_gap": 1}}}`, 0},
		{"transition with both", `{"title": "T", "song_names": ["A", "B"], "transitions": {"A": {"silence_gap": 1, "crossfade": 1}}}`, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParsePlaylist([]byte(tc.doc), tc.index, 0)
			var cfgErr *Error
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected config error, got %v", err)
			}
		})
	}
}

func TestLoadPlaylistMissingFile(t *testing.T) {
	_, err := LoadPlaylist(filepath.Join(t.TempDir(), "missing.json"), 0, 0)
	var cfgErr *Error
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected config error, got %v", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected wrapped not-exist error, got %v", err)
	}
}
