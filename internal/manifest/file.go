package manifest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"audiotoc/internal/domain"
)

// FileImporter loads manifests from local JSON files.
type FileImporter struct {
}

func NewFileImporter() *FileImporter {
	return &FileImporter{}
}

func (f *FileImporter) Name() string {
	return SourceFile
}

func (f *FileImporter) Import(ctx context.Context, source string) (*domain.Manifest, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return nil, fmt.Errorf("%w: %s is a URL", ErrUnsupportedSource, source)
	}

	file, err := os.Open(source)
	if err != nil {
		return nil, fmt.Errorf("failed to open manifest file: %w", err)
	}
	defer file.Close()

	m, err := Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", source, err)
	}
	ensureSelfLink(m, source)

	slog.Debug("Imported manifest from file",
		"path", source,
		"title", m.Metadata.Title,
		"tracks", len(m.ReadingOrder))

	return m, nil
}
