package main

import (
	"github.com/spf13/cobra"

	"mixtape/internal/deps"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify that ffmpeg and ffprobe are available",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := ctx.ensureSettings(cmd)
			if err != nil {
				return err
			}

			statuses := deps.CheckBinaries(deps.Requirements(settings))
			rows := make([][]string, 0, len(statuses))
			for _, status := range statuses {
				state := "ok"
				switch {
				case !status.Available && status.Optional:
					state = "missing (optional)"
				case !status.Available:
					state = "missing"
				}
				location := status.Path
				if location == "" {
					location = status.Detail
				}
				rows = append(rows, []string{status.Name, status.Command, state, location})
			}
			if err := writeTable(cmd.OutOrStdout(), []string{"Dependency", "Command", "Status", "Location"}, rows, nil); err != nil {
				return err
			}
			return deps.Verify(statuses)
		},
	}
}
