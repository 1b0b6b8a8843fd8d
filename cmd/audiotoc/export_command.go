package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"audiotoc/audiobook"
)

func newExportCommand(ctx *commandContext) *cobra.Command {
	var (
		audioDir  string
		outputDir string
		format    string
		workers   int
	)

	cmd := &cobra.Command{
		Use:   "export <manifest>",
		Short: "Export one audio file per chapter",
		Long: `Export runs the full pipeline: it imports the manifest, downloads any
tracks not already on disk, resolves the chapter timeline, and writes one
tagged audio file per chapter to the output directory.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if outputDir != "" {
				cfg.Storage.OutputDir = outputDir
			}
			if format == "" {
				format = cfg.FileExtension
			}

			processor, err := audiobook.NewProcessor(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			opts := &audiobook.ProcessingOptions{
				Source:             args[0],
				AudioDir:           audioDir,
				FileExtension:      format,
				MaxConcurrentTasks: workers,
			}

			results, err := processor.ProcessChapters(cmd.Context(), opts)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "\nExported %d chapters:\n", len(results))
			for _, path := range results {
				fmt.Fprintf(out, "  %s\n", path)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&audioDir, "audio-dir", "", "Directory holding already-downloaded tracks (skips fetching)")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Output directory for exported chapters")
	cmd.Flags().StringVar(&format, "format", "", "Audio format for exported chapters (default from config)")
	cmd.Flags().IntVar(&workers, "workers", 4, "Maximum concurrent export tasks")

	return cmd
}
