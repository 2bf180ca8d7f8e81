package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"mixtape/internal/config"
	"mixtape/internal/ffmpeg"
	"mixtape/internal/library"
	"mixtape/internal/models"
	"mixtape/internal/pipeline"
)

const playlistDoc = `[
  {"title": "Morning", "description": "Wake up.", "song_names": ["Dew"]},
  {"title": "Forest Rest", "description": "Rest under a tree.", "song_names": ["A", "B", "C"]}
]`

type stubProber struct {
	durations map[string]time.Duration
}

func (p stubProber) Probe(_ context.Context, name, path string) (models.Track, error) {
	return models.Track{Name: name, Path: path, Duration: p.durations[name]}, nil
}

type stubMixer struct{}

func (stubMixer) Mix(_ context.Context, _ []models.TimelineEntry, output string) error {
	return os.WriteFile(output, []byte("audio"), 0o644)
}

type stubTranscoder struct{}

func (stubTranscoder) Render(_ context.Context, _, _, output string, _ time.Duration, _ func(ffmpeg.Progress)) error {
	return os.WriteFile(output, []byte("video"), 0o644)
}

type cliEnv struct {
	dir      string
	playlist string
	output   string
	tracks   string
}

func setupCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	for _, key := range []string{"MIXTAPE_SETTINGS", "MIXTAPE_IMAGE", "MIXTAPE_PRODUCER_TAG", "MIXTAPE_HASHTAGS_FILE",
		"MIXTAPE_CROSSFADE_SECONDS", "MIXTAPE_SILENCE_GAP_SECONDS", "MIXTAPE_FFMPEG", "MIXTAPE_FFPROBE", "MIXTAPE_DURATION_PROBE"} {
		t.Setenv(key, "")
	}

	dir := t.TempDir()
	env := &cliEnv{
		dir:      dir,
		playlist: filepath.Join(dir, "playlist.json"),
		output:   filepath.Join(dir, "playlists"),
		tracks:   filepath.Join(dir, "songs"),
	}
	t.Setenv("MIXTAPE_TRACK_DIR", env.tracks)
	t.Setenv("MIXTAPE_OUTPUT_DIR", env.output)
	t.Setenv("MIXTAPE_THUMBNAIL_DIR", filepath.Join(dir, "thumbnails"))

	if err := os.MkdirAll(env.tracks, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	for _, name := range []string{"A.mp3", "B.mp3", "C.wav"} {
		if err := os.WriteFile(filepath.Join(env.tracks, name), []byte("audio"), 0o644); err != nil {
			t.Fatalf("write song: %v", err)
		}
	}
	if err := os.WriteFile(env.playlist, []byte(playlistDoc), 0o644); err != nil {
		t.Fatalf("write playlist: %v", err)
	}
	return env
}

func executeCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	prober := stubProber{durations: map[string]time.Duration{
		"A": 180 * time.Second,
		"B": 200 * time.Second,
		"C": 150 * time.Second,
	}}
	cmd := newRootCommand(
		pipeline.WithProber(prober),
		pipeline.WithMixer(stubMixer{}),
		pipeline.WithTranscoder(stubTranscoder{}),
	)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootCommandRunsPipeline(t *testing.T) {
	env := setupCLIEnv(t)

	out, err := executeCLI(t, env.playlist, "--index", "1", "--quiet")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(out, filepath.Join(env.output, "Forest Rest.mp3")) {
		t.Fatalf("expected audio path in output:\n%s", out)
	}

	data, err := os.ReadFile(filepath.Join(env.output, "Forest Rest_tracklist.txt"))
	if err != nil {
		t.Fatalf("read tracklist: %v", err)
	}
	if string(data) != "00:00:00 — A\n00:02:55 — B\n00:06:10 — C\n" {
		t.Fatalf("unexpected tracklist %q", data)
	}
}

func TestPlanCommandPrintsTimeline(t *testing.T) {
	env := setupCLIEnv(t)

	out, err := executeCLI(t, "plan", env.playlist, "--index", "1", "--gap", "2")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	for _, want := range []string{
		"Forest Rest (Forest Rest.mp3)",
		"1\t00:00:00\tA\t180s\tgap 2s",
		"2\t00:03:02\tB\t200s\tgap 2s",
		"3\t00:06:24\tC\t150s\t\n",
		"Total: 00:08:54",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
	if _, err := os.Stat(env.output); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected plan to write nothing, got %v", err)
	}
}

func TestPlanCommandReportsResolutionErrors(t *testing.T) {
	env := setupCLIEnv(t)
	if err := os.Remove(filepath.Join(env.tracks, "B.mp3")); err != nil {
		t.Fatalf("remove: %v", err)
	}

	_, err := executeCLI(t, "plan", env.playlist, "--index", "1")
	var resErr *library.ResolutionError
	if !errors.As(err, &resErr) {
		t.Fatalf("expected ResolutionError, got %v", err)
	}
}

func TestPlaylistFlagValidation(t *testing.T) {
	env := setupCLIEnv(t)

	if _, err := executeCLI(t, "plan", env.playlist, "--index", "5"); err == nil {
		t.Fatal("expected out-of-range index to fail")
	}
	if _, err := executeCLI(t, "plan", env.playlist, "--limit=-1"); err == nil {
		t.Fatal("expected negative limit to fail")
	}
	_, err := executeCLI(t, "plan", env.playlist, "--crossfade=-3")
	var cfgErr *config.Error
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected config error for negative crossfade, got %v", err)
	}
}

func TestRenameCommandDryRun(t *testing.T) {
	env := setupCLIEnv(t)
	if err := os.WriteFile(filepath.Join(env.tracks, "take_01.mp3"), []byte("audio"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	doc := `{"title": "Dawn", "song_names": ["A", "Sunrise"]}`
	if err := os.WriteFile(env.playlist, []byte(doc), 0o644); err != nil {
		t.Fatalf("write playlist: %v", err)
	}

	out, err := executeCLI(t, "rename", env.playlist, "--dry-run")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(out, "B.mp3\tSunrise.mp3\trename") {
		t.Fatalf("expected planned rename in output:\n%s", out)
	}
	if _, err := os.Stat(filepath.Join(env.tracks, "B.mp3")); err != nil {
		t.Fatalf("expected dry run to leave files alone: %v", err)
	}

	if _, err := executeCLI(t, "rename", env.playlist, "--quiet"); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if _, err := os.Stat(filepath.Join(env.tracks, "Sunrise.mp3")); err != nil {
		t.Fatalf("expected rename to happen: %v", err)
	}
}

func TestCheckCommand(t *testing.T) {
	setupCLIEnv(t)
	binDir := t.TempDir()
	ffmpegPath := filepath.Join(binDir, "ffmpeg")
	if err := os.WriteFile(ffmpegPath, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	t.Setenv("MIXTAPE_FFMPEG", ffmpegPath)
	t.Setenv("MIXTAPE_FFPROBE", "clearly-not-present-ffprobe")

	out, err := executeCLI(t, "check")
	if err == nil || !strings.Contains(err.Error(), "FFprobe") {
		t.Fatalf("expected missing ffprobe error, got %v", err)
	}
	if !strings.Contains(out, "FFmpeg\t"+ffmpegPath+"\tok") {
		t.Fatalf("expected ffmpeg to be reported ok:\n%s", out)
	}

	t.Setenv("MIXTAPE_DURATION_PROBE", "native")
	out, err = executeCLI(t, "check")
	if err != nil {
		t.Fatalf("expected optional ffprobe to pass, got %v", err)
	}
	if !strings.Contains(out, "missing (optional)") {
		t.Fatalf("expected optional status:\n%s", out)
	}
}
