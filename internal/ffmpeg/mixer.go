package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"mixtape/internal/models"
)

// Mixer renders a timeline into a single audio file with one ffmpeg call.
// Every entry is delayed to its exact start offset and faded over its
// crossfade windows, then all entries are summed.
type Mixer struct {
	binary    string
	codec     string
	bitrate   string
	normalize bool
	logger    *log.Logger
}

// MixerOption configures a Mixer.
type MixerOption func(*Mixer)

// WithMixerBinary overrides the ffmpeg binary.
func WithMixerBinary(binary string) MixerOption {
	return func(m *Mixer) {
		if strings.TrimSpace(binary) != "" {
			m.binary = binary
		}
	}
}

// WithEncoding sets the output codec and bitrate.
func WithEncoding(codec, bitrate string) MixerOption {
	return func(m *Mixer) {
		if strings.TrimSpace(codec) != "" {
			m.codec = codec
		}
		if strings.TrimSpace(bitrate) != "" {
			m.bitrate = bitrate
		}
	}
}

// WithNormalize appends dynaudnorm after the mix.
func WithNormalize(enabled bool) MixerOption {
	return func(m *Mixer) {
		m.normalize = enabled
	}
}

// NewMixer constructs a Mixer with mp3 320k defaults.
func NewMixer(logger *log.Logger, opts ...MixerOption) *Mixer {
	if logger == nil {
		logger = log.Default()
	}
	m := &Mixer{
		binary:  "ffmpeg",
		codec:   "libmp3lame",
		bitrate: "320k",
		logger:  logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Mix writes the mixed timeline to output, overwriting any previous file.
func (m *Mixer) Mix(ctx context.Context, entries []models.TimelineEntry, output string) error {
	if len(entries) == 0 {
		return errors.New("mix: no timeline entries")
	}
	if strings.TrimSpace(output) == "" {
		return errors.New("mix: output path required")
	}

	args := m.Args(entries, output)
	m.logger.Printf("mixing %d inputs into %s", len(entries), output)
	if err := run(ctx, m.binary, args, nil); err != nil {
		return err
	}
	return verifyOutput(filepath.Base(m.binary), output)
}

// Args returns the ffmpeg arguments for mixing entries into output.
func (m *Mixer) Args(entries []models.TimelineEntry, output string) []string {
	args := []string{"-hide_banner", "-nostdin", "-y"}
	for _, entry := range entries {
		args = append(args, "-i", entry.Track.Path)
	}

	graph, label := m.FilterGraph(entries)
	args = append(args,
		"-filter_complex", graph,
		"-map", label,
		"-c:a", m.codec,
		"-b:a", m.bitrate,
		output,
	)
	return args
}

// FilterGraph builds the filter_complex for entries and returns it with the
// label of the final stream.
func (m *Mixer) FilterGraph(entries []models.TimelineEntry) (string, string) {
	chains := make([]string, 0, len(entries)+2)
	var mixInputs strings.Builder

	for i, entry := range entries {
		filters := make([]string, 0, 3)
		if entry.FadeIn > 0 {
			filters = append(filters, fmt.Sprintf("afade=t=in:st=0:d=%s", seconds(entry.FadeIn)))
		}
		if entry.FadeOut > 0 {
			start := entry.Track.Duration - entry.FadeOut
			filters = append(filters, fmt.Sprintf("afade=t=out:st=%s:d=%s", seconds(start), seconds(entry.FadeOut)))
		}
		if entry.StartOffset > 0 {
			filters = append(filters, fmt.Sprintf("adelay=delays=%d:all=1", entry.StartOffset.Milliseconds()))
		}
		if len(filters) == 0 {
			filters = append(filters, "anull")
		}

		label := fmt.Sprintf("[a%d]", i)
		chains = append(chains, fmt.Sprintf("[%d:a]%s%s", i, strings.Join(filters, ","), label))
		mixInputs.WriteString(label)
	}

	chains = append(chains, fmt.Sprintf("%samix=inputs=%d:duration=longest:dropout_transition=0:normalize=0[mix]", mixInputs.String(), len(entries)))
	final := "[mix]"
	if m.normalize {
		chains = append(chains, "[mix]dynaudnorm[out]")
		final = "[out]"
	}
	return strings.Join(chains, ";"), final
}

func seconds(d time.Duration) string {
	return fmt.Sprintf("%.3f", d.Seconds())
}
