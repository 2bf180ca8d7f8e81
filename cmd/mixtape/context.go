package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"mixtape/internal/config"
	"mixtape/internal/models"
	"mixtape/internal/pipeline"
)

const defaultPlaylistFile = "playlist.json"

type commandContext struct {
	settingsFlag *string
	quietFlag    *bool
	overrides    *settingsOverrides
	pipelineOpts []pipeline.Option

	settingsOnce sync.Once
	settings     config.Settings
	settingsErr  error
}

type settingsOverrides struct {
	trackDir  string
	outputDir string
	image     string
	crossfade float64
	gap       float64
	normalize bool
}

type playlistFlags struct {
	index int
	limit int
}

func newCommandContext(settingsFlag *string, quietFlag *bool, overrides *settingsOverrides, opts []pipeline.Option) *commandContext {
	return &commandContext{
		settingsFlag: settingsFlag,
		quietFlag:    quietFlag,
		overrides:    overrides,
		pipelineOpts: opts,
	}
}

func (c *commandContext) settingsPath() string {
	if c.settingsFlag != nil && strings.TrimSpace(*c.settingsFlag) != "" {
		return strings.TrimSpace(*c.settingsFlag)
	}
	return strings.TrimSpace(os.Getenv("MIXTAPE_SETTINGS"))
}

// ensureSettings resolves settings once and layers changed flags on top.
func (c *commandContext) ensureSettings(cmd *cobra.Command) (config.Settings, error) {
	c.settingsOnce.Do(func() {
		settings, err := config.ResolveSettings(c.settingsPath())
		if err != nil {
			c.settingsErr = err
			return
		}
		if err := c.applyOverrides(cmd, &settings); err != nil {
			c.settingsErr = err
			return
		}
		c.settings = settings
	})
	return c.settings, c.settingsErr
}

func (c *commandContext) applyOverrides(cmd *cobra.Command, settings *config.Settings) error {
	if c.overrides == nil {
		return nil
	}
	flags := cmd.Flags()
	paths := []struct {
		flag   string
		value  string
		target *string
	}{
		{"tracks", c.overrides.trackDir, &settings.TrackDir},
		{"output", c.overrides.outputDir, &settings.OutputDir},
		{"image", c.overrides.image, &settings.Image},
	}
	for _, p := range paths {
		if !flags.Changed(p.flag) {
			continue
		}
		abs, err := filepath.Abs(p.value)
		if err != nil {
			return &config.Error{Field: p.flag, Err: err}
		}
		*p.target = abs
	}

	if flags.Changed("crossfade") {
		settings.CrossfadeSeconds = c.overrides.crossfade
	}
	if flags.Changed("gap") {
		settings.SilenceGapSeconds = c.overrides.gap
		if !flags.Changed("crossfade") {
			settings.CrossfadeSeconds = 0
		}
	}
	if flags.Changed("normalize") {
		settings.Normalize = c.overrides.normalize
	}
	return settings.Validate()
}

func (c *commandContext) logger(cmd *cobra.Command) *log.Logger {
	if c.quietFlag != nil && *c.quietFlag {
		return log.New(io.Discard, "", 0)
	}
	return log.New(cmd.ErrOrStderr(), "mixtape ", log.LstdFlags|log.Lmsgprefix)
}

func (c *commandContext) runner(cmd *cobra.Command) (*pipeline.Runner, config.Settings, error) {
	settings, err := c.ensureSettings(cmd)
	if err != nil {
		return nil, config.Settings{}, err
	}
	return pipeline.New(settings, c.logger(cmd), c.pipelineOpts...), settings, nil
}

func addPlaylistFlags(cmd *cobra.Command, flags *playlistFlags) {
	cmd.Flags().IntVar(&flags.index, "index", 0, "Playlist to use when the document holds a list")
	cmd.Flags().IntVar(&flags.limit, "limit", 0, "Use only the first N songs (0 keeps all)")
}

func playlistPath(args []string) string {
	if len(args) > 0 && strings.TrimSpace(args[0]) != "" {
		return args[0]
	}
	return defaultPlaylistFile
}

func loadPlaylist(args []string, flags playlistFlags) (models.PlaylistConfig, error) {
	if flags.index < 0 {
		return models.PlaylistConfig{}, fmt.Errorf("--index must not be negative")
	}
	if flags.limit < 0 {
		return models.PlaylistConfig{}, fmt.Errorf("--limit must not be negative")
	}
	return config.LoadPlaylist(playlistPath(args), flags.index, flags.limit)
}
