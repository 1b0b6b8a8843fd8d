package main

import (
	"fmt"

	"github.com/k0kubun/go-ansi"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"audiotoc/audiobook"
	"audiotoc/internal/fetch"
	"audiotoc/internal/manifest"
	"audiotoc/internal/storage"
)

func newFetchCommand(ctx *commandContext) *cobra.Command {
	var outputDir string

	cmd := &cobra.Command{
		Use:   "fetch <manifest>",
		Short: "Download an audiobook's tracks",
		Long: `Fetch imports a manifest and downloads every reading-order track that is
not already present, so later runs can work offline via --audio-dir.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			importer := manifest.NewImporter(cfg)
			book, err := audiobook.Load(cmd.Context(), importer, args[0])
			if err != nil {
				return err
			}

			dir := outputDir
			if dir == "" {
				store, err := storage.New(cmd.Context(), cfg)
				if err != nil {
					return err
				}
				dir = store.TrackDir(book.Title())
			}

			bar := progressbar.NewOptions(
				100,
				progressbar.OptionSetWriter(ansi.NewAnsiStdout()),
				progressbar.OptionEnableColorCodes(true),
				// Inline copy of progressbar.ThemeASCII, which was added in v3.16.0;
				// the pinned v3.15.0 (newest version buildable with Go 1.21) predates it.
				progressbar.OptionSetTheme(progressbar.Theme{
					Saucer:        "=",
					SaucerHead:    ">",
					SaucerPadding: ".",
					BarStart:      "[",
					BarEnd:        "]",
				}),
				progressbar.OptionFullWidth(),
				progressbar.OptionSetDescription("[cyan]Downloading tracks...[reset]"),
			)
			callback := func(pct int, message string, data []byte) {
				_ = bar.Set(pct)
			}

			downloader := fetch.NewHTTPDownloader(cfg)
			paths, err := fetch.EnsureTracks(cmd.Context(), downloader, book.Manifest, dir, callback)
			if err != nil {
				return err
			}
			_ = bar.Finish()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "\nFetched %d tracks into %s\n", len(paths), dir)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Directory to download tracks into")

	return cmd
}
