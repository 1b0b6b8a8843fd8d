package audio

import (
	"context"

	"audiotoc/internal/timeline"
)

// Processor probes and cuts audiobook audio files.
type Processor interface {
	Probe(ctx context.Context, path string) (float64, error)
	ExtractCoverArt(ctx context.Context, inputPath, coverPath string) error
	ExportChapter(ctx context.Context, cp ChapterParams) error
}

// ChapterParams describes one resolved ToC entry to cut into a single audio
// file. Segments reference tracks by index into TrackPaths.
type ChapterParams struct {
	TrackPaths    []string
	Segments      []timeline.Segment
	OutputPath    string // final path without extension
	FileExtension string
	Title         string
	Album         string
	Artist        string
	TrackNumber   int
	TrackCount    int
	CoverArtPath  string
}
