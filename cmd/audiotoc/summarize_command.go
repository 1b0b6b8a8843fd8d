package main

import (
	"github.com/spf13/cobra"

	"audiotoc/internal/report"
)

func newSummarizeCommand(ctx *commandContext) *cobra.Command {
	var (
		audioDir string
		probe    bool
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "summarize <manifest>",
		Short: "Summarize a manifest's playback timeline",
		Long: `Summarize imports an audiobook manifest from a file or URL, resolves its
table of contents against the reading order, and prints the resulting
chapter timeline: total durations, the tracks, and every entry with the
audio segments it plays.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			book, err := loadBook(cmd, ctx, args[0], audioDir, probe)
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), report.Build(book))
			}

			report.WriteSummary(cmd.OutOrStdout(), book)
			return nil
		},
	}

	cmd.Flags().StringVar(&audioDir, "audio-dir", "", "Directory holding the book's downloaded tracks")
	cmd.Flags().BoolVar(&probe, "probe", false, "Measure real track durations with ffprobe")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit the report as JSON")

	return cmd
}
