package metadata

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dhowden/tag"
	"github.com/tcolgate/mp3"

	"mixtape/internal/config"
	"mixtape/internal/ffmpeg"
	"mixtape/internal/models"
)

var probeDuration = ffmpeg.ProbeDuration

// Prober reads durations and tags for resolved audio files.
type Prober struct {
	ffprobe string
	mode    string
	logger  *log.Logger
}

// NewProber constructs a Prober. mode is one of config.ProbeAuto,
// config.ProbeNative or config.ProbeFFprobe; empty means auto.
func NewProber(ffprobe, mode string, logger *log.Logger) *Prober {
	if logger == nil {
		logger = log.Default()
	}
	if strings.TrimSpace(ffprobe) == "" {
		ffprobe = "ffprobe"
	}
	if strings.TrimSpace(mode) == "" {
		mode = config.ProbeAuto
	}
	return &Prober{ffprobe: ffprobe, mode: mode, logger: logger}
}

// Probe builds the Track for name at path.
func (p *Prober) Probe(ctx context.Context, name, path string) (models.Track, error) {
	info, err := os.Stat(path)
	if err != nil {
		return models.Track{}, err
	}
	if info.IsDir() {
		return models.Track{}, fmt.Errorf("probe %s: %s is a directory", name, path)
	}

	duration, err := p.duration(ctx, path)
	if err != nil {
		return models.Track{}, fmt.Errorf("probe %s: %w", name, err)
	}
	if duration <= 0 {
		return models.Track{}, fmt.Errorf("probe %s: %s has zero duration", name, path)
	}

	title, artist := readTags(path)
	return models.Track{
		Name:     name,
		Path:     path,
		Duration: duration,
		Title:    title,
		Artist:   artist,
	}, nil
}

func (p *Prober) duration(ctx context.Context, path string) (time.Duration, error) {
	isMP3 := strings.EqualFold(filepath.Ext(path), ".mp3")

	switch p.mode {
	case config.ProbeFFprobe:
		return probeDuration(ctx, p.ffprobe, path)
	case config.ProbeNative:
		if !isMP3 {
			return 0, fmt.Errorf("native probing only supports mp3, got %s", filepath.Base(path))
		}
		return computeMP3Duration(path)
	}

	if isMP3 {
		dur, err := computeMP3Duration(path)
		if err == nil && dur > 0 {
			return dur, nil
		}
		p.logger.Printf("mp3 decode of %s failed, falling back to ffprobe: %v", filepath.Base(path), err)
	}
	return probeDuration(ctx, p.ffprobe, path)
}

func readTags(path string) (string, *string) {
	f, err := os.Open(path)
	if err != nil {
		return "", nil
	}
	defer f.Close()

	meta, err := tag.ReadFrom(f)
	if err != nil {
		return "", nil
	}

	return strings.TrimSpace(meta.Title()), optionalString(meta.Artist())
}

func optionalString(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}

func computeMP3Duration(path string) (time.Duration, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	decoder := mp3.NewDecoder(f)
	var frame mp3.Frame
	var skipped int
	var total time.Duration
	frames := 0

	for {
		err := decoder.Decode(&frame, &skipped)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return 0, err
		}
		total += frame.Duration()
		frames++
	}
	if frames == 0 {
		return 0, errors.New("no mp3 frames found")
	}

	ms := math.Round(float64(total) / float64(time.Millisecond))
	return time.Duration(ms) * time.Millisecond, nil
}
