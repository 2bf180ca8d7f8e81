package main

import (
	"github.com/spf13/cobra"

	"mixtape/internal/pipeline"
)

func newRootCommand(opts ...pipeline.Option) *cobra.Command {
	var settingsFlag string
	var quietFlag bool
	var overrides settingsOverrides
	var flags playlistFlags

	ctx := newCommandContext(&settingsFlag, &quietFlag, &overrides, opts)

	rootCmd := &cobra.Command{
		Use:           "mixtape [playlist]",
		Short:         "Stitch a playlist into one mix, a video and a description",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(cmd, ctx, args, flags)
		},
	}

	persistent := rootCmd.PersistentFlags()
	persistent.StringVarP(&settingsFlag, "settings", "s", "", "Settings file path (.yaml, .yml or .toml)")
	persistent.BoolVarP(&quietFlag, "quiet", "q", false, "Suppress progress logging")
	persistent.StringVar(&overrides.trackDir, "tracks", "", "Directory holding the song files")
	persistent.StringVar(&overrides.outputDir, "output", "", "Directory receiving the generated files")
	persistent.StringVar(&overrides.image, "image", "", "Background image for the video")
	persistent.Float64Var(&overrides.crossfade, "crossfade", 0, "Crossfade between songs in seconds")
	persistent.Float64Var(&overrides.gap, "gap", 0, "Silence between songs in seconds (disables the crossfade)")
	persistent.BoolVar(&overrides.normalize, "normalize", false, "Normalise loudness of the final mix")
	addPlaylistFlags(rootCmd, &flags)

	rootCmd.AddCommand(newRunCommand(ctx))
	rootCmd.AddCommand(newPlanCommand(ctx))
	rootCmd.AddCommand(newRenameCommand(ctx))
	rootCmd.AddCommand(newWatchCommand(ctx))
	rootCmd.AddCommand(newCheckCommand(ctx))

	return rootCmd
}
