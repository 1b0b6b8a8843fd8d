package storage

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T) *LocalStorage {
	t.Helper()
	base := t.TempDir()
	s, err := NewLocalStorage(
		filepath.Join(base, "data"),
		filepath.Join(base, "output"),
		filepath.Join(base, "tmp"),
	)
	require.NoError(t, err)
	return s
}

func TestNewLocalStorageCreatesDirectories(t *testing.T) {
	base := t.TempDir()
	dataDir := filepath.Join(base, "data")
	outputDir := filepath.Join(base, "output")
	tempDir := filepath.Join(base, "tmp")

	_, err := NewLocalStorage(dataDir, outputDir, tempDir)
	require.NoError(t, err)

	for _, dir := range []string{dataDir, outputDir, tempDir} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestLocalStoragePaths(t *testing.T) {
	s := newTestStorage(t)

	manifestPath := s.ManifestPath("Moby Dick")
	assert.Equal(t, "manifest.json", filepath.Base(manifestPath))
	assert.Contains(t, manifestPath, "Moby Dick")

	trackDir := s.TrackDir("Moby Dick")
	assert.Equal(t, "tracks", filepath.Base(trackDir))

	assert.Equal(t, "cover_temp.jpg", filepath.Base(s.CoverArtPath()))
}

func TestSaveChapterCreatesBookDir(t *testing.T) {
	s := newTestStorage(t)

	path, err := s.SaveChapter("Moby Dick", "01 - Loomings", "mp3")
	require.NoError(t, err)
	assert.Equal(t, "01 - Loomings.mp3", filepath.Base(path))

	info, err := os.Stat(filepath.Dir(path))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestReadWriteRoundTrip(t *testing.T) {
	s := newTestStorage(t)

	path := s.ManifestPath("book")
	w, err := s.GetWriter(path)
	require.NoError(t, err)
	_, err = w.Write([]byte(`{"metadata":{"title":"book"}}`))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	assert.True(t, s.FileExists(path))
	assert.False(t, s.FileExists(path+".missing"))

	r, err := s.GetReader(path)
	require.NoError(t, err)
	defer r.Close()
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Contains(t, string(data), "book")
}

func TestListFiles(t *testing.T) {
	s := newTestStorage(t)

	dir := t.TempDir()
	for _, name := range []string{"chapter_01.mp3", "chapter_02.mp3", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "subdir"), 0755))

	files, err := s.ListFiles(dir, "chapter_")
	require.NoError(t, err)
	assert.Len(t, files, 2)

	all, err := s.ListFiles(dir, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestCleanupRemovesCoverArt(t *testing.T) {
	s := newTestStorage(t)

	require.NoError(t, os.WriteFile(s.CoverArtPath(), []byte("jpg"), 0644))
	require.NoError(t, s.Cleanup())
	assert.False(t, s.FileExists(s.CoverArtPath()))

	// Cleanup with nothing to remove is not an error.
	require.NoError(t, s.Cleanup())
}
