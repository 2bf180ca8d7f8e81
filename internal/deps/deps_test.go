package deps

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mixtape/internal/config"
)

func TestCheckBinaries(t *testing.T) {
	binDir := t.TempDir()
	present := filepath.Join(binDir, "present")
	script := []byte("#!/bin/sh\nexit 0\n")
	if err := os.WriteFile(present, script, 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Blank", Command: "  "},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}

	if !results[0].Available || results[0].Path != present {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}
	if results[0].Detail != "" {
		t.Fatalf("unexpected detail for available dependency: %s", results[0].Detail)
	}

	if results[1].Available {
		t.Fatalf("expected missing binary to be unavailable")
	}
	if results[1].Detail == "" {
		t.Fatalf("expected detail message for missing binary")
	}
	if results[1].Command != "clearly-not-present-binary" {
		t.Fatalf("unexpected command recorded: %s", results[1].Command)
	}

	if results[2].Available || results[2].Detail != "command not configured" {
		t.Fatalf("expected blank command to be reported, got %#v", results[2])
	}
}

func TestRequirements(t *testing.T) {
	settings := config.Default()
	reqs := Requirements(settings)
	if len(reqs) != 2 {
		t.Fatalf("expected ffmpeg and ffprobe, got %+v", reqs)
	}
	if reqs[0].Command != "ffmpeg" || reqs[1].Command != "ffprobe" {
		t.Fatalf("expected default binaries, got %+v", reqs)
	}
	if reqs[0].Optional || reqs[1].Optional {
		t.Fatalf("expected both binaries to be required in auto mode")
	}

	settings.FFmpegBinary = "/opt/ffmpeg/bin/ffmpeg"
	settings.DurationProbe = config.ProbeNative
	reqs = Requirements(settings)
	if reqs[0].Command != "/opt/ffmpeg/bin/ffmpeg" {
		t.Fatalf("expected configured ffmpeg, got %s", reqs[0].Command)
	}
	if !reqs[1].Optional {
		t.Fatalf("expected ffprobe to be optional in native mode")
	}
}

func TestVerify(t *testing.T) {
	statuses := []Status{
		{Name: "FFmpeg", Available: true},
		{Name: "FFprobe", Detail: `binary "ffprobe" not found`},
		{Name: "Extra", Optional: true, Detail: "missing"},
	}
	err := Verify(statuses)
	if err == nil {
		t.Fatal("expected error for missing required binary")
	}
	if !strings.Contains(err.Error(), "FFprobe") || strings.Contains(err.Error(), "Extra") {
		t.Fatalf("unexpected error %v", err)
	}

	if err := Verify(statuses[:1]); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}
