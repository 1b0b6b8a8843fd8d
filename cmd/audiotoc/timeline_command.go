package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"audiotoc/internal/report"
)

func newTimelineCommand(ctx *commandContext) *cobra.Command {
	var (
		audioDir string
		probe    bool
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "timeline <manifest>",
		Short: "Show the resolved chapter timeline as tables",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			book, err := loadBook(cmd, ctx, args[0], audioDir, probe)
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), report.Build(book))
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, report.TrackTable(book))
			fmt.Fprintln(out)
			fmt.Fprintln(out, report.TimelineTable(book))

			if unplayed := book.UnplayedDuration(); unplayed > 0 {
				fmt.Fprintf(out, "\nUn-played leading audio: %gs / %s\n",
					unplayed, report.SecondsToHMS(unplayed))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&audioDir, "audio-dir", "", "Directory holding the book's downloaded tracks")
	cmd.Flags().BoolVar(&probe, "probe", false, "Measure real track durations with ffprobe")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit the report as JSON")

	return cmd
}
