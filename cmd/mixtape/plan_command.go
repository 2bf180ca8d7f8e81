package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"mixtape/internal/models"
	"mixtape/internal/publish"
)

func newPlanCommand(ctx *commandContext) *cobra.Command {
	var flags playlistFlags
	cmd := &cobra.Command{
		Use:   "plan [playlist]",
		Short: "Show the computed timeline without rendering anything",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			playlist, err := loadPlaylist(args, flags)
			if err != nil {
				return err
			}
			runner, _, err := ctx.runner(cmd)
			if err != nil {
				return err
			}
			plan, err := runner.Plan(cmd.Context(), playlist)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%s.mp3)\n", plan.Playlist.Title, plan.Slug)
			rows := planRows(plan.Entries)
			if err := writeTable(out, []string{"#", "Start", "Song", "Duration", "Next"}, rows,
				[]columnAlignment{alignRight, alignRight, alignLeft, alignRight, alignLeft}); err != nil {
				return err
			}
			fmt.Fprintf(out, "Total: %s\n", publish.FormatTimestamp(plan.Total))
			return nil
		},
	}
	addPlaylistFlags(cmd, &flags)
	return cmd
}

func planRows(entries []models.TimelineEntry) [][]string {
	rows := make([][]string, 0, len(entries))
	number := 0
	for i, entry := range entries {
		index := "-"
		if !entry.Intro {
			number++
			index = strconv.Itoa(number)
		}
		rows = append(rows, []string{
			index,
			publish.FormatTimestamp(entry.StartOffset),
			entry.Label,
			formatSeconds(entry.Track.Duration),
			boundary(entries, i),
		})
	}
	return rows
}

// boundary describes how entry i hands over to the next one.
func boundary(entries []models.TimelineEntry, i int) string {
	entry := entries[i]
	if i == len(entries)-1 {
		return ""
	}
	if entry.Intro {
		return "intro"
	}
	if entry.FadeOut > 0 {
		return "crossfade " + formatSeconds(entry.FadeOut)
	}
	if gap := entries[i+1].StartOffset - entry.End(); gap > 0 {
		return "gap " + formatSeconds(gap)
	}
	return "cut"
}

func formatSeconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', -1, 64) + "s"
}
