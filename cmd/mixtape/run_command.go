package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var flags playlistFlags
	cmd := &cobra.Command{
		Use:   "run [playlist]",
		Short: "Mix the playlist and write the video, tracklist and description",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(cmd, ctx, args, flags)
		},
	}
	addPlaylistFlags(cmd, &flags)
	return cmd
}

func runPipeline(cmd *cobra.Command, ctx *commandContext, args []string, flags playlistFlags) error {
	playlist, err := loadPlaylist(args, flags)
	if err != nil {
		return err
	}
	runner, _, err := ctx.runner(cmd)
	if err != nil {
		return err
	}

	result, err := runner.Run(cmd.Context(), playlist)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Audio:       %s\n", result.AudioPath)
	fmt.Fprintf(out, "Video:       %s\n", result.VideoPath)
	fmt.Fprintf(out, "Tracklist:   %s\n", result.TracklistPath)
	fmt.Fprintf(out, "Description: %s\n", result.DescriptionPath)
	return nil
}
