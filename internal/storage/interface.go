package storage

import (
	"context"
	"fmt"
	"io"

	"audiotoc/config"
)

// Storage defines the interface for handling file storage operations for
// audiotoc artifacts: downloaded manifests, fetched audio tracks, and
// exported chapter files.
type Storage interface {
	// ManifestPath returns where a book's manifest document lives.
	ManifestPath(bookName string) string

	// TrackDir returns the directory holding a book's downloaded tracks.
	TrackDir(bookName string) string

	// SaveChapter returns the path an exported chapter file should be
	// written to, creating the book's output directory when needed.
	SaveChapter(bookName, chapterName, ext string) (string, error)

	// CreateBookOutputDir creates the output directory for a book's chapters.
	CreateBookOutputDir(bookName string) error

	// CoverArtPath returns the path for temporary cover art storage.
	CoverArtPath() string

	Cleanup() error

	GetReader(path string) (io.ReadCloser, error)

	GetWriter(path string) (io.WriteCloser, error)

	FileExists(path string) bool

	ListFiles(dir string, pattern string) ([]string, error)
}

// Uploader is implemented by backends that stage files locally and need an
// explicit upload step once the encoder has written them.
type Uploader interface {
	UploadFile(localPath, objectName string) (string, error)
}

// New returns the storage backend selected by the configuration.
func New(ctx context.Context, cfg *config.Config) (Storage, error) {
	switch cfg.Storage.Type {
	case "", "local":
		return NewLocalStorage(cfg.DataDir, cfg.Storage.OutputDir, cfg.TempDir)
	case "gcs":
		return NewGCSStorage(ctx, cfg.Storage.Bucket, cfg.Storage.ObjectPrefix, cfg.TempDir, cfg.Storage.CredentialsFile)
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Storage.Type)
	}
}
