package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalStorage implements the Storage interface for the local filesystem
type LocalStorage struct {
	dataDir   string
	outputDir string
	tempDir   string
}

// NewLocalStorage creates a new local storage instance
func NewLocalStorage(dataDir, outputDir, tempDir string) (*LocalStorage, error) {
	// Ensure directories exist
	for _, dir := range []string{dataDir, outputDir, tempDir} {
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return &LocalStorage{
		dataDir:   dataDir,
		outputDir: outputDir,
		tempDir:   tempDir,
	}, nil
}

// ManifestPath returns the path where a book's manifest is stored
func (s *LocalStorage) ManifestPath(bookName string) string {
	return filepath.Join(s.dataDir, bookName, "manifest.json")
}

// TrackDir returns the directory holding a book's downloaded audio tracks
func (s *LocalStorage) TrackDir(bookName string) string {
	return filepath.Join(s.dataDir, bookName, "tracks")
}

// SaveChapter returns the path where an exported chapter should be stored
// Note: The actual encoding is done by the audio processor
func (s *LocalStorage) SaveChapter(bookName, chapterName, ext string) (string, error) {
	outputDir := filepath.Join(s.outputDir, bookName)
	if err := os.MkdirAll(outputDir, os.ModePerm); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	return filepath.Join(outputDir, fmt.Sprintf("%s.%s", chapterName, ext)), nil
}

// CreateBookOutputDir creates the output directory for a book's chapters
func (s *LocalStorage) CreateBookOutputDir(bookName string) error {
	return os.MkdirAll(filepath.Join(s.outputDir, bookName), os.ModePerm)
}

// CoverArtPath returns the path for temporary cover art storage
func (s *LocalStorage) CoverArtPath() string {
	return filepath.Join(s.tempDir, "cover_temp.jpg")
}

// Cleanup removes temporary files
func (s *LocalStorage) Cleanup() error {
	if err := os.Remove(s.CoverArtPath()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove cover art: %w", err)
	}
	return nil
}

// GetReader returns a reader for the specified file
func (s *LocalStorage) GetReader(path string) (io.ReadCloser, error) {
	return os.Open(path)
}

// GetWriter returns a writer for the specified file
func (s *LocalStorage) GetWriter(path string) (io.WriteCloser, error) {
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return nil, fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	return os.Create(path)
}

// FileExists checks if a file exists
func (s *LocalStorage) FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// ListFiles lists files in a directory matching a pattern
func (s *LocalStorage) ListFiles(dir string, pattern string) ([]string, error) {
	// If dir is empty, use the data directory
	if dir == "" {
		dir = s.dataDir
	}

	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var results []string
	for _, file := range files {
		if file.IsDir() {
			continue
		}

		// Match pattern (simple prefix for now)
		if pattern != "" && !strings.HasPrefix(file.Name(), pattern) {
			continue
		}

		results = append(results, filepath.Join(dir, file.Name()))
	}

	return results, nil
}
