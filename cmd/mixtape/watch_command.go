package main

import (
	"context"
	"errors"
	"path/filepath"

	"github.com/spf13/cobra"

	"mixtape/internal/config"
	"mixtape/internal/library"
	"mixtape/internal/pipeline"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var flags playlistFlags
	cmd := &cobra.Command{
		Use:   "watch [playlist]",
		Short: "Run the pipeline and rerun it whenever songs or inputs change",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := ctx.ensureSettings(cmd)
			if err != nil {
				return err
			}
			logger := ctx.logger(cmd)
			runCtx := cmd.Context()

			rerun := func() {
				current, err := config.ResolveSettings(ctx.settingsPath())
				if err == nil {
					err = ctx.applyOverrides(cmd, &current)
				}
				if err != nil {
					logger.Printf("reload settings: %v", err)
					return
				}
				playlist, err := loadPlaylist(args, flags)
				if err != nil {
					logger.Printf("reload playlist: %v", err)
					return
				}
				result, err := pipeline.New(current, logger, ctx.pipelineOpts...).Run(runCtx, playlist)
				if err != nil {
					if !errors.Is(err, context.Canceled) {
						logger.Printf("run failed: %v", err)
					}
					return
				}
				logger.Printf("wrote %s", filepath.Base(result.AudioPath))
			}

			files := []string{settings.ProducerTag, settings.Image, settings.HashtagsFile}
			if path, err := filepath.Abs(playlistPath(args)); err == nil {
				files = append(files, path)
			}
			if path := ctx.settingsPath(); path != "" {
				if abs, err := filepath.Abs(path); err == nil {
					files = append(files, abs)
				}
			}

			watcher, err := library.NewWatcher(settings.TrackDir, files, config.AllowedExtensions(), settings.WatchDebounce(), rerun, logger)
			if err != nil {
				return err
			}
			defer func() {
				if err := watcher.Close(); err != nil {
					logger.Printf("error closing watcher: %v", err)
				}
			}()

			watcher.Trigger()
			logger.Printf("watching %s", settings.TrackDir)
			<-runCtx.Done()
			logger.Println("watch stopped")
			return nil
		},
	}
	addPlaylistFlags(cmd, &flags)
	return cmd
}
