package server

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain", "Chapter One", "Chapter One"},
		{"path separators", "a/b\\c", "a_b_c"},
		{"reserved characters", `x:y*z?`, "x_y_z_"},
		{"control characters", "a\nb\tc", "a_b_c"},
		{"trailing dots and spaces", " name. ", "name"},
		{"empty after trim", " .. ", "untitled"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeFilename(tt.input))
		})
	}
}

func TestCleanupOldFiles(t *testing.T) {
	server := newTestServer(t)

	staleDir := filepath.Join(server.cfg.TempDir, "Old Book")
	require.NoError(t, os.MkdirAll(staleDir, 0755))
	old := time.Now().Add(-2 * DefaultFileTTL)
	require.NoError(t, os.Chtimes(staleDir, old, old))

	freshDir := filepath.Join(server.cfg.TempDir, "Fresh Book")
	require.NoError(t, os.MkdirAll(freshDir, 0755))

	server.cleanupOldFiles()

	_, err := os.Stat(staleDir)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(freshDir)
	assert.NoError(t, err)
}
