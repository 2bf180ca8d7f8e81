package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"mixtape/internal/models"
)

var allowedExtensions = []string{
	".mp3",
	".m4a",
	".aac",
	".wav",
	".flac",
	".ogg",
}

const (
	defaultTrackDir          = "songs"
	defaultOutputDir         = "playlists"
	defaultThumbnailDir      = "thumbnails"
	defaultCrossfadeSeconds  = 5
	defaultAudioCodec        = "libmp3lame"
	defaultAudioBitrate      = "320k"
	defaultVideoBitrate      = "192k"
	defaultResolution        = "1920x1080"
	defaultDurationProbe     = ProbeAuto
	defaultWatchDebounceMS   = 2000
	defaultDescriptionFooter = "All music featured on this channel is produced by Naturalist.mp3.\n" +
		"Images are sourced from Unsplash and edited by Naturalist.mp3 before use."
)

// Duration probe modes.
const (
	ProbeAuto    = "auto"
	ProbeNative  = "native"
	ProbeFFprobe = "ffprobe"
)

var defaultHashtags = []string{
	"#backgroundmusicwithoutlimitations", "#coffeetime", "#coffeebreak", "#coffeeshopmusic",
	"#cafemusic", "#lofimusic", "#chillmusic", "#chillhop", "#lofihiphop", "#relaxingmusic",
	"#naturemusic", "#lofimusicforsleep", "#musicforsleep", "#studymusic", "#retromusic",
	"#lofichill", "#retrolofi", "#funk", "#funkopop", "#relaxation", "#relaxmusic",
	"#lofiremix", "#backgroundmusicforsleep", "#lofiforstudy",
}

// Settings holds everything a run needs besides the playlist itself.
type Settings struct {
	TrackDir          string   `yaml:"track_dir" toml:"track_dir"`
	OutputDir         string   `yaml:"output_dir" toml:"output_dir"`
	ThumbnailDir      string   `yaml:"thumbnail_dir" toml:"thumbnail_dir"`
	Image             string   `yaml:"image" toml:"image"`
	ProducerTag       string   `yaml:"producer_tag" toml:"producer_tag"`
	CrossfadeSeconds  float64  `yaml:"crossfade_seconds" toml:"crossfade_seconds"`
	SilenceGapSeconds float64  `yaml:"silence_gap_seconds" toml:"silence_gap_seconds"`
	AudioCodec        string   `yaml:"audio_codec" toml:"audio_codec"`
	AudioBitrate      string   `yaml:"audio_bitrate" toml:"audio_bitrate"`
	VideoAudioBitrate string   `yaml:"video_audio_bitrate" toml:"video_audio_bitrate"`
	Resolution        string   `yaml:"resolution" toml:"resolution"`
	Normalize         bool     `yaml:"normalize" toml:"normalize"`
	DurationProbe     string   `yaml:"duration_probe" toml:"duration_probe"`
	FFmpegBinary      string   `yaml:"ffmpeg_binary" toml:"ffmpeg_binary"`
	FFprobeBinary     string   `yaml:"ffprobe_binary" toml:"ffprobe_binary"`
	ShowArtists       bool     `yaml:"show_artists" toml:"show_artists"`
	DescriptionFooter string   `yaml:"description_footer" toml:"description_footer"`
	Hashtags          []string `yaml:"hashtags" toml:"hashtags"`
	HashtagsFile      string   `yaml:"hashtags_file" toml:"hashtags_file"`
	WatchDebounceMS   int      `yaml:"watch_debounce_ms" toml:"watch_debounce_ms"`
}

// AllowedExtensions returns the list of supported audio file extensions (lowercase).
func AllowedExtensions() []string {
	result := make([]string, len(allowedExtensions))
	copy(result, allowedExtensions)
	return result
}

// Default returns the built-in settings.
func Default() Settings {
	hashtags := make([]string, len(defaultHashtags))
	copy(hashtags, defaultHashtags)
	return Settings{
		TrackDir:          defaultTrackDir,
		OutputDir:         defaultOutputDir,
		ThumbnailDir:      defaultThumbnailDir,
		CrossfadeSeconds:  defaultCrossfadeSeconds,
		AudioCodec:        defaultAudioCodec,
		AudioBitrate:      defaultAudioBitrate,
		VideoAudioBitrate: defaultVideoBitrate,
		Resolution:        defaultResolution,
		DurationProbe:     defaultDurationProbe,
		FFmpegBinary:      "ffmpeg",
		FFprobeBinary:     "ffprobe",
		DescriptionFooter: defaultDescriptionFooter,
		Hashtags:          hashtags,
		WatchDebounceMS:   defaultWatchDebounceMS,
	}
}

// ResolveSettings returns the run settings after applying defaults, the
// settings file (when path or MIXTAPE_SETTINGS is set), and environment
// variable overrides. Relative directories are made absolute.
func ResolveSettings(path string) (Settings, error) {
	settings := Default()

	if strings.TrimSpace(path) == "" {
		path = strings.TrimSpace(os.Getenv("MIXTAPE_SETTINGS"))
	}
	if path != "" {
		if err := loadSettingsFile(path, &settings); err != nil {
			return Settings{}, err
		}
	}

	if err := applyEnv(&settings); err != nil {
		return Settings{}, err
	}

	if err := settings.resolvePaths(); err != nil {
		return Settings{}, err
	}

	return settings, settings.Validate()
}

// Validate ensures the settings are usable.
func (s Settings) Validate() error {
	if err := validateTransition("transition", s.uniformTransition()); err != nil {
		return err
	}
	if strings.TrimSpace(s.TrackDir) == "" {
		return fieldError("track_dir", "must be set")
	}
	if strings.TrimSpace(s.OutputDir) == "" {
		return fieldError("output_dir", "must be set")
	}
	if strings.TrimSpace(s.AudioCodec) == "" {
		return fieldError("audio_codec", "must be set")
	}
	if strings.TrimSpace(s.AudioBitrate) == "" {
		return fieldError("audio_bitrate", "must be set")
	}
	switch s.DurationProbe {
	case ProbeAuto, ProbeNative, ProbeFFprobe:
	default:
		return fieldError("duration_probe", "unknown mode %q (want %s, %s or %s)", s.DurationProbe, ProbeAuto, ProbeNative, ProbeFFprobe)
	}
	if _, _, err := ParseResolution(s.Resolution); err != nil {
		return &Error{Field: "resolution", Err: err}
	}
	return nil
}

// Transitions combines the uniform transition with the playlist's
// per-song overrides. An override keyed by song name applies to the
// boundary after that song.
func (s Settings) Transitions(playlist models.PlaylistConfig) models.TransitionConfig {
	uniform := s.uniformTransition()
	cfg := models.TransitionConfig{
		CrossfadeDuration: uniform.Crossfade,
		SilenceGap:        uniform.Gap,
	}
	if len(playlist.Transitions) == 0 {
		return cfg
	}

	cfg.Overrides = make(map[int]models.Transition, len(playlist.Transitions))
	for i, name := range playlist.SongNames {
		if t, ok := playlist.Transitions[name]; ok && i < len(playlist.SongNames)-1 {
			cfg.Overrides[i] = t
		}
	}
	return cfg
}

// WatchDebounce returns the delay between a source change and the rerun.
func (s Settings) WatchDebounce() time.Duration {
	if s.WatchDebounceMS < 0 {
		return time.Duration(defaultWatchDebounceMS) * time.Millisecond
	}
	return time.Duration(s.WatchDebounceMS) * time.Millisecond
}

// ParseResolution splits a WIDTHxHEIGHT string.
func ParseResolution(value string) (int, int, error) {
	w, h, ok := strings.Cut(strings.ToLower(strings.TrimSpace(value)), "x")
	if !ok {
		return 0, 0, fmt.Errorf("expected WIDTHxHEIGHT, got %q", value)
	}
	width, err := strconv.Atoi(w)
	if err != nil || width <= 0 {
		return 0, 0, fmt.Errorf("invalid width in %q", value)
	}
	height, err := strconv.Atoi(h)
	if err != nil || height <= 0 {
		return 0, 0, fmt.Errorf("invalid height in %q", value)
	}
	return width, height, nil
}

// Seconds converts a seconds value from configuration to a duration rounded
// to the millisecond.
func Seconds(value float64) time.Duration {
	return time.Duration(math.Round(value*1000)) * time.Millisecond
}

func (s Settings) uniformTransition() models.Transition {
	return models.Transition{
		Crossfade: Seconds(s.CrossfadeSeconds),
		Gap:       Seconds(s.SilenceGapSeconds),
	}
}

func loadSettingsFile(path string, settings *Settings) error {
	resolved, err := resolvePath(path)
	if err != nil {
		return &Error{Field: "settings", Err: err}
	}
	data, err := os.ReadFile(resolved)
	if err != nil {
		return &Error{Field: "settings", Err: err}
	}

	var unmarshal func([]byte, any) error
	switch strings.ToLower(filepath.Ext(resolved)) {
	case ".toml":
		decoder := toml.NewDecoder(bytes.NewReader(data))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(settings); err != nil {
			return &Error{Field: "settings", Err: fmt.Errorf("parse %s: %w", resolved, err)}
		}
		unmarshal = toml.Unmarshal
	case ".yaml", ".yml", ".json":
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		if err := decoder.Decode(settings); err != nil && !errors.Is(err, io.EOF) {
			return &Error{Field: "settings", Err: fmt.Errorf("parse %s: %w", resolved, err)}
		}
		unmarshal = yaml.Unmarshal
	default:
		return fieldError("settings", "unsupported settings file %s (want .yaml, .yml, .json or .toml)", resolved)
	}

	var keys transitionKeys
	if err := unmarshal(data, &keys); err != nil {
		return &Error{Field: "settings", Err: fmt.Errorf("parse %s: %w", resolved, err)}
	}
	settings.gapOnly(keys.Crossfade != nil, keys.Gap != nil)
	return nil
}

// transitionKeys records which transition keys a settings file spells out.
type transitionKeys struct {
	Crossfade *float64 `yaml:"crossfade_seconds" toml:"crossfade_seconds"`
	Gap       *float64 `yaml:"silence_gap_seconds" toml:"silence_gap_seconds"`
}

// gapOnly drops the inherited crossfade when a layer sets a silence gap but
// no crossfade. A layer that sets both is left for Validate to reject.
func (s *Settings) gapOnly(crossfadeSet, gapSet bool) {
	if gapSet && !crossfadeSet {
		s.CrossfadeSeconds = 0
	}
}

func applyEnv(s *Settings) error {
	stringVars := []struct {
		key    string
		target *string
	}{
		{"MIXTAPE_TRACK_DIR", &s.TrackDir},
		{"MIXTAPE_OUTPUT_DIR", &s.OutputDir},
		{"MIXTAPE_THUMBNAIL_DIR", &s.ThumbnailDir},
		{"MIXTAPE_IMAGE", &s.Image},
		{"MIXTAPE_PRODUCER_TAG", &s.ProducerTag},
		{"MIXTAPE_AUDIO_CODEC", &s.AudioCodec},
		{"MIXTAPE_AUDIO_BITRATE", &s.AudioBitrate},
		{"MIXTAPE_RESOLUTION", &s.Resolution},
		{"MIXTAPE_DURATION_PROBE", &s.DurationProbe},
		{"MIXTAPE_FFMPEG", &s.FFmpegBinary},
		{"MIXTAPE_FFPROBE", &s.FFprobeBinary},
		{"MIXTAPE_HASHTAGS_FILE", &s.HashtagsFile},
	}
	for _, v := range stringVars {
		if value := strings.TrimSpace(os.Getenv(v.key)); value != "" {
			*v.target = value
		}
	}

	floatVars := []struct {
		key    string
		field  string
		target *float64
	}{
		{"MIXTAPE_CROSSFADE_SECONDS", "crossfade_seconds", &s.CrossfadeSeconds},
		{"MIXTAPE_SILENCE_GAP_SECONDS", "silence_gap_seconds", &s.SilenceGapSeconds},
	}
	for _, v := range floatVars {
		value := strings.TrimSpace(os.Getenv(v.key))
		if value == "" {
			continue
		}
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil || math.IsNaN(parsed) || math.IsInf(parsed, 0) {
			return fieldError(v.field, "%s=%q is not a number", v.key, value)
		}
		*v.target = parsed
	}
	s.gapOnly(
		strings.TrimSpace(os.Getenv("MIXTAPE_CROSSFADE_SECONDS")) != "",
		strings.TrimSpace(os.Getenv("MIXTAPE_SILENCE_GAP_SECONDS")) != "",
	)

	if value := strings.TrimSpace(os.Getenv("MIXTAPE_NORMALIZE")); value != "" {
		enabled, err := strconv.ParseBool(value)
		if err != nil {
			return fieldError("normalize", "MIXTAPE_NORMALIZE=%q is not a boolean", value)
		}
		s.Normalize = enabled
	}

	if value := strings.TrimSpace(os.Getenv("MIXTAPE_WATCH_DEBOUNCE_MS")); value != "" {
		if ms, err := strconv.Atoi(value); err == nil && ms >= 0 {
			s.WatchDebounceMS = ms
		}
	}

	return nil
}

func (s *Settings) resolvePaths() error {
	for _, target := range []*string{&s.TrackDir, &s.OutputDir, &s.ThumbnailDir, &s.Image, &s.ProducerTag, &s.HashtagsFile} {
		if strings.TrimSpace(*target) == "" {
			continue
		}
		abs, err := resolvePath(*target)
		if err != nil {
			return err
		}
		*target = abs
	}
	return nil
}

func resolvePath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[1:])
		}
	}

	return filepath.Abs(path)
}
