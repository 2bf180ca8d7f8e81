package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"mixtape/internal/config"
	"mixtape/internal/ffmpeg"
	"mixtape/internal/library"
	"mixtape/internal/metadata"
	"mixtape/internal/models"
	"mixtape/internal/publish"
	"mixtape/internal/timeline"
)

const lockFileName = ".mixtape.lock"

var imageExtensions = []string{".png", ".jpg", ".jpeg", ".bmp", ".tiff"}

// Mixer renders a timeline into one audio file.
type Mixer interface {
	Mix(ctx context.Context, entries []models.TimelineEntry, output string) error
}

// Transcoder renders the mixed audio into a video.
type Transcoder interface {
	Render(ctx context.Context, audio, image, output string, total time.Duration, progress func(ffmpeg.Progress)) error
}

// Prober builds a Track for a resolved file.
type Prober interface {
	Probe(ctx context.Context, name, path string) (models.Track, error)
}

// Plan is the computed timeline of one playlist.
type Plan struct {
	Playlist models.PlaylistConfig
	Slug     string
	Entries  []models.TimelineEntry
	Total    time.Duration
}

// Result lists the files written by a run.
type Result struct {
	RunID           string
	Plan            Plan
	AudioPath       string
	VideoPath       string
	ImagePath       string
	TracklistPath   string
	DescriptionPath string
}

// Runner drives one playlist from song names to published files.
type Runner struct {
	settings   config.Settings
	mixer      Mixer
	transcoder Transcoder
	prober     Prober
	logger     *log.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithMixer replaces the ffmpeg mixer.
func WithMixer(m Mixer) Option {
	return func(r *Runner) {
		if m != nil {
			r.mixer = m
		}
	}
}

// WithTranscoder replaces the ffmpeg video transcoder.
func WithTranscoder(t Transcoder) Option {
	return func(r *Runner) {
		if t != nil {
			r.transcoder = t
		}
	}
}

// WithProber replaces the metadata prober.
func WithProber(p Prober) Option {
	return func(r *Runner) {
		if p != nil {
			r.prober = p
		}
	}
}

// New constructs a Runner whose collaborators follow settings.
func New(settings config.Settings, logger *log.Logger, opts ...Option) *Runner {
	if logger == nil {
		logger = log.Default()
	}

	width, height, _ := config.ParseResolution(settings.Resolution)

	r := &Runner{
		settings: settings,
		logger:   logger,
		mixer: ffmpeg.NewMixer(logger,
			ffmpeg.WithMixerBinary(settings.FFmpegBinary),
			ffmpeg.WithEncoding(settings.AudioCodec, settings.AudioBitrate),
			ffmpeg.WithNormalize(settings.Normalize),
		),
		transcoder: ffmpeg.NewTranscoder(logger,
			ffmpeg.WithTranscoderBinary(settings.FFmpegBinary),
			ffmpeg.WithAudioBitrate(settings.VideoAudioBitrate),
			ffmpeg.WithBackgroundSize(width, height),
		),
		prober: metadata.NewProber(settings.FFprobeBinary, settings.DurationProbe, logger),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Plan resolves and probes every song and computes the timeline without
// writing anything.
func (r *Runner) Plan(ctx context.Context, playlist models.PlaylistConfig) (Plan, error) {
	if strings.TrimSpace(playlist.Title) == "" {
		return Plan{}, &config.Error{Field: "title", Err: errors.New("title is required")}
	}
	if len(playlist.SongNames) == 0 {
		return Plan{}, &config.Error{Field: "song_names", Err: errors.New("playlist has no songs")}
	}

	paths, err := library.Resolve(r.settings.TrackDir, playlist.SongNames, config.AllowedExtensions())
	if err != nil {
		return Plan{}, err
	}
	tagPath, err := r.producerTag()
	if err != nil {
		return Plan{}, err
	}

	tracks := make([]models.Track, len(paths))
	for i, path := range paths {
		if err := ctx.Err(); err != nil {
			return Plan{}, err
		}
		track, err := r.prober.Probe(ctx, playlist.SongNames[i], path)
		if err != nil {
			return Plan{}, err
		}
		tracks[i] = track
	}

	transitions := r.settings.Transitions(playlist)
	var entries []models.TimelineEntry
	if tagPath != "" {
		name := strings.TrimSuffix(filepath.Base(tagPath), filepath.Ext(tagPath))
		intro, err := r.prober.Probe(ctx, name, tagPath)
		if err != nil {
			return Plan{}, err
		}
		entries, err = timeline.BuildWithIntro(intro, tracks, transitions)
		if err != nil {
			return Plan{}, err
		}
	} else {
		entries, err = timeline.Build(tracks, transitions)
		if err != nil {
			return Plan{}, err
		}
	}

	return Plan{
		Playlist: playlist,
		Slug:     publish.Slug(playlist.Title),
		Entries:  entries,
		Total:    timeline.End(entries),
	}, nil
}

// Run produces the mixed audio, the video, the tracklist and the
// description for playlist. Existing outputs of the same playlist are
// overwritten.
func (r *Runner) Run(ctx context.Context, playlist models.PlaylistConfig) (Result, error) {
	runID := uuid.NewString()
	start := time.Now()
	r.logger.Printf("run %s: %q with %d songs", runID, playlist.Title, len(playlist.SongNames))

	plan, err := r.Plan(ctx, playlist)
	if err != nil {
		return Result{}, err
	}
	hashtags, err := r.hashtags()
	if err != nil {
		return Result{}, err
	}
	image, err := r.findImage(plan.Slug)
	if err != nil {
		return Result{}, err
	}

	outDir := r.settings.OutputDir
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return Result{}, fmt.Errorf("create output directory: %w", err)
	}
	lock := flock.New(filepath.Join(outDir, lockFileName))
	ok, err := lock.TryLock()
	if err != nil {
		return Result{}, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return Result{}, fmt.Errorf("another mixtape run is writing to %s", outDir)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			r.logger.Printf("run %s: release lock: %v", runID, err)
		}
	}()

	result := Result{
		RunID:           runID,
		Plan:            plan,
		AudioPath:       filepath.Join(outDir, plan.Slug+".mp3"),
		VideoPath:       filepath.Join(outDir, plan.Slug+".mp4"),
		ImagePath:       image,
		TracklistPath:   filepath.Join(outDir, plan.Slug+"_tracklist.txt"),
		DescriptionPath: filepath.Join(outDir, plan.Slug+"_description.txt"),
	}

	r.logger.Printf("run %s: mixing %s of audio", runID, plan.Total)
	if err := r.mixer.Mix(ctx, plan.Entries, result.AudioPath); err != nil {
		return Result{}, fmt.Errorf("mix audio: %w", err)
	}

	if image == "" {
		r.logger.Printf("run %s: no image found, using a solid background", runID)
	}
	if err := r.transcoder.Render(ctx, result.AudioPath, image, result.VideoPath, plan.Total, r.progressLogger(runID)); err != nil {
		return Result{}, fmt.Errorf("render video: %w", err)
	}

	tracklist := publish.Tracklist(plan.Entries, r.settings.ShowArtists)
	if err := os.WriteFile(result.TracklistPath, []byte(tracklist), 0o644); err != nil {
		return Result{}, fmt.Errorf("write tracklist: %w", err)
	}
	description := publish.Description(playlist, tracklist, r.settings.DescriptionFooter, hashtags)
	if err := os.WriteFile(result.DescriptionPath, []byte(description), 0o644); err != nil {
		return Result{}, fmt.Errorf("write description: %w", err)
	}

	r.logger.Printf("run %s: finished in %s", runID, time.Since(start).Round(time.Millisecond))
	return result, nil
}

func (r *Runner) producerTag() (string, error) {
	path := strings.TrimSpace(r.settings.ProducerTag)
	if path == "" {
		return "", nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return "", &config.Error{Field: "producer_tag", Err: err}
	}
	if info.IsDir() {
		return "", &config.Error{Field: "producer_tag", Err: fmt.Errorf("%s is a directory", path)}
	}
	return path, nil
}

func (r *Runner) hashtags() ([]string, error) {
	if r.settings.HashtagsFile != "" {
		tags, err := publish.LoadHashtags(r.settings.HashtagsFile)
		if err != nil {
			return nil, &config.Error{Field: "hashtags_file", Err: err}
		}
		return tags, nil
	}
	return publish.ParseHashtags(r.settings.Hashtags), nil
}

// findImage picks the video background: the configured image, then
// <thumbnails>/<slug>.<ext>, then the first image in the thumbnails
// directory. An empty result means a solid background.
func (r *Runner) findImage(slug string) (string, error) {
	if image := strings.TrimSpace(r.settings.Image); image != "" {
		if _, err := os.Stat(image); err != nil {
			return "", &config.Error{Field: "image", Err: err}
		}
		return image, nil
	}

	dir := r.settings.ThumbnailDir
	if dir == "" {
		return "", nil
	}
	for _, ext := range imageExtensions {
		candidate := filepath.Join(dir, slug+ext)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("read thumbnails: %w", err)
	}
	var images []string
	for _, entry := range entries {
		if !entry.IsDir() && isImage(entry.Name()) {
			images = append(images, entry.Name())
		}
	}
	if len(images) == 0 {
		return "", nil
	}
	sort.Strings(images)
	return filepath.Join(dir, images[0]), nil
}

func (r *Runner) progressLogger(runID string) func(ffmpeg.Progress) {
	last := -1
	return func(p ffmpeg.Progress) {
		step := int(p.Percent) / 5 * 5
		if p.Done {
			step = 100
		}
		if step <= last {
			return
		}
		last = step
		r.logger.Printf("run %s: video %d%%", runID, step)
	}
}

func isImage(name string) bool {
	return slices.Contains(imageExtensions, strings.ToLower(filepath.Ext(name)))
}
