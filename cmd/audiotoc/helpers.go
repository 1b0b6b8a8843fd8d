package main

import (
	"encoding/json"
	"errors"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"audiotoc/audiobook"
	"audiotoc/internal/audio"
	"audiotoc/internal/manifest"
)

// loadBook imports a manifest from a file path or URL and resolves its
// playback timeline. With probe set it also measures the real track
// durations with ffprobe, which fills in any the manifest omits.
func loadBook(cmd *cobra.Command, ctx *commandContext, source, audioDir string, probe bool) (*audiobook.Audiobook, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}

	importer := manifest.NewImporter(cfg)
	book, err := audiobook.Load(cmd.Context(), importer, source)
	if err != nil {
		return nil, err
	}

	if probe {
		if audioDir == "" {
			return nil, errors.New("--audio-dir is required with --probe")
		}
		if err := book.ProbeDurations(cmd.Context(), audio.NewFFMPEGEngine(), audioDir); err != nil {
			return nil, err
		}
	}

	return book, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func sanitizeFilename(name string) string {
	unsafe := []string{"/", "\\", "..", ":", "*", "?", "\"", "<", ">", "|"}
	result := name
	for _, char := range unsafe {
		result = strings.ReplaceAll(result, char, "_")
	}

	result = strings.TrimSpace(result)
	if result == "" {
		result = "untitled"
	}
	return result
}
