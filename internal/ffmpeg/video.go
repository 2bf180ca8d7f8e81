package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Progress reports how far a video render has advanced.
type Progress struct {
	Elapsed time.Duration
	Total   time.Duration
	Percent float64
	Done    bool
}

// Transcoder renders the mixed audio into a video with a still background.
type Transcoder struct {
	binary  string
	bitrate string
	width   int
	height  int
	logger  *log.Logger
}

// TranscoderOption configures a Transcoder.
type TranscoderOption func(*Transcoder)

// WithTranscoderBinary overrides the ffmpeg binary.
func WithTranscoderBinary(binary string) TranscoderOption {
	return func(t *Transcoder) {
		if strings.TrimSpace(binary) != "" {
			t.binary = binary
		}
	}
}

// WithAudioBitrate sets the AAC bitrate of the video's audio track.
func WithAudioBitrate(bitrate string) TranscoderOption {
	return func(t *Transcoder) {
		if strings.TrimSpace(bitrate) != "" {
			t.bitrate = bitrate
		}
	}
}

// WithBackgroundSize sets the frame size used when no image is supplied.
func WithBackgroundSize(width, height int) TranscoderOption {
	return func(t *Transcoder) {
		if width > 0 && height > 0 {
			t.width = width
			t.height = height
		}
	}
}

// NewTranscoder constructs a Transcoder.
func NewTranscoder(logger *log.Logger, opts ...TranscoderOption) *Transcoder {
	if logger == nil {
		logger = log.Default()
	}
	t := &Transcoder{
		binary:  "ffmpeg",
		bitrate: "192k",
		width:   1920,
		height:  1080,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Render writes a video of audio over image to output. An empty image uses
// a black background. total is the expected length and drives progress;
// progress may be nil.
func (t *Transcoder) Render(ctx context.Context, audio, image, output string, total time.Duration, progress func(Progress)) error {
	if strings.TrimSpace(audio) == "" {
		return errors.New("render: audio path required")
	}
	if strings.TrimSpace(output) == "" {
		return errors.New("render: output path required")
	}

	args := t.Args(audio, image, output)
	if image == "" {
		t.logger.Printf("rendering %s over a %dx%d background", output, t.width, t.height)
	} else {
		t.logger.Printf("rendering %s over %s", output, image)
	}

	onLine := func(line string) {
		if update, ok := parseProgressLine(line, total); ok && progress != nil {
			progress(update)
		}
	}
	if err := runStreaming(ctx, t.binary, args, nil, onLine); err != nil {
		return err
	}
	return verifyOutput(filepath.Base(t.binary), output)
}

// Args returns the ffmpeg arguments for rendering the video.
func (t *Transcoder) Args(audio, image, output string) []string {
	args := []string{"-hide_banner", "-nostdin", "-y"}
	if image != "" {
		args = append(args, "-loop", "1", "-i", image)
	} else {
		args = append(args, "-f", "lavfi", "-i", fmt.Sprintf("color=c=black:s=%dx%d:r=1", t.width, t.height))
	}
	args = append(args,
		"-i", audio,
		"-map", "0:v", "-map", "1:a",
		"-c:v", "libx264",
		"-tune", "stillimage",
		"-c:a", "aac",
		"-b:a", t.bitrate,
		"-vf", "scale=trunc(iw/2)*2:trunc(ih/2)*2",
		"-pix_fmt", "yuv420p",
		"-shortest",
		"-progress", "pipe:1",
		"-nostats",
		output,
	)
	return args
}

// parseProgressLine understands the key=value lines ffmpeg writes with
// -progress. out_time_ms carries microseconds.
func parseProgressLine(line string, total time.Duration) (Progress, bool) {
	key, value, ok := strings.Cut(strings.TrimSpace(line), "=")
	if !ok {
		return Progress{}, false
	}

	switch key {
	case "out_time_ms", "out_time_us":
		micros, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
		if err != nil || micros < 0 {
			return Progress{}, false
		}
		elapsed := time.Duration(micros) * time.Microsecond
		return Progress{Elapsed: elapsed, Total: total, Percent: percent(elapsed, total)}, true
	case "progress":
		if strings.TrimSpace(value) != "end" {
			return Progress{}, false
		}
		return Progress{Elapsed: total, Total: total, Percent: 100, Done: true}, true
	}
	return Progress{}, false
}

func percent(elapsed, total time.Duration) float64 {
	if total <= 0 {
		return 0
	}
	return min(float64(elapsed)/float64(total)*100, 100)
}
