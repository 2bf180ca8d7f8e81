package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"mixtape/internal/config"
	"mixtape/internal/library"
)

func newRenameCommand(ctx *commandContext) *cobra.Command {
	var flags playlistFlags
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "rename [playlist]",
		Short: "Rename unnamed song files after the playlist's song names",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			playlist, err := loadPlaylist(args, flags)
			if err != nil {
				return err
			}
			settings, err := ctx.ensureSettings(cmd)
			if err != nil {
				return err
			}

			plan, err := library.PlanRenames(settings.TrackDir, playlist.SongNames, config.AllowedExtensions())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(plan.Renames) == 0 && len(plan.Skipped) == 0 {
				fmt.Fprintln(out, "Nothing to rename")
				return nil
			}
			rows := make([][]string, 0, len(plan.Renames)+len(plan.Skipped))
			for _, r := range plan.Renames {
				rows = append(rows, []string{filepath.Base(r.From), filepath.Base(r.To), "rename"})
			}
			for _, r := range plan.Skipped {
				rows = append(rows, []string{filepath.Base(r.From), filepath.Base(r.To), "skip (target exists)"})
			}
			if err := writeTable(out, []string{"File", "New name", "Action"}, rows, nil); err != nil {
				return err
			}
			if dryRun {
				return nil
			}
			return library.ApplyRenames(plan, ctx.logger(cmd))
		},
	}
	addPlaylistFlags(cmd, &flags)
	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "Only print the planned renames")
	return cmd
}
