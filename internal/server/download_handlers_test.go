package server

import (
	"archive/zip"
	"bytes"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// completedTestJob creates a job with exported chapter files on disk.
func completedTestJob(t *testing.T, server *Server, bookName string, chapters ...string) string {
	t.Helper()

	dir := t.TempDir()
	paths := make([]string, len(chapters))
	for i, name := range chapters {
		paths[i] = filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(paths[i], []byte("audio: "+name), 0644))
	}

	created, _ := server.jobManager.CreateJob()
	server.jobManager.SetBook(created.ID, bookName, len(chapters))
	server.jobManager.Complete(created.ID, paths)
	return created.ID
}

func TestDownloadChapters(t *testing.T) {
	server := newTestServer(t)
	jobID := completedTestJob(t, server, "My Book", "01 - Intro.mp3", "02 - End.mp3")

	rr := doRequest(t, server, http.MethodGet, "/api/v1/jobs/"+jobID+"/download", nil)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/zip", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "My Book.zip")

	reader, err := zip.NewReader(bytes.NewReader(rr.Body.Bytes()), int64(rr.Body.Len()))
	require.NoError(t, err)
	require.Len(t, reader.File, 2)
	assert.Equal(t, "01 - Intro.mp3", reader.File[0].Name)
	assert.Equal(t, "02 - End.mp3", reader.File[1].Name)

	entry, err := reader.File[0].Open()
	require.NoError(t, err)
	defer entry.Close()
	content, err := io.ReadAll(entry)
	require.NoError(t, err)
	assert.Equal(t, "audio: 01 - Intro.mp3", string(content))
}

func TestDownloadChaptersNotFound(t *testing.T) {
	server := newTestServer(t)

	rr := doRequest(t, server, http.MethodGet, "/api/v1/jobs/non-existent-job/download", nil)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestDownloadChaptersNotCompleted(t *testing.T) {
	server := newTestServer(t)

	created, _ := server.jobManager.CreateJob()

	rr := doRequest(t, server, http.MethodGet, "/api/v1/jobs/"+created.ID+"/download", nil)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestDownloadChaptersMissingFile(t *testing.T) {
	server := newTestServer(t)

	created, _ := server.jobManager.CreateJob()
	server.jobManager.Complete(created.ID, []string{filepath.Join(t.TempDir(), "gone.mp3")})

	rr := doRequest(t, server, http.MethodGet, "/api/v1/jobs/"+created.ID+"/download", nil)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestDownloadChapter(t *testing.T) {
	server := newTestServer(t)
	jobID := completedTestJob(t, server, "My Book", "01 - Intro.mp3", "02 - End.mp3")

	rr := doRequest(t, server, http.MethodGet, "/api/v1/jobs/"+jobID+"/chapters/2/download", nil)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "02 - End.mp3")
	assert.Equal(t, "audio: 02 - End.mp3", rr.Body.String())
}

func TestDownloadChapterErrors(t *testing.T) {
	server := newTestServer(t)
	jobID := completedTestJob(t, server, "My Book", "01 - Intro.mp3")

	tests := []struct {
		name           string
		target         string
		expectedStatus int
	}{
		{"invalid chapter number", "/api/v1/jobs/" + jobID + "/chapters/abc/download", http.StatusBadRequest},
		{"chapter out of range", "/api/v1/jobs/" + jobID + "/chapters/5/download", http.StatusNotFound},
		{"unknown job", "/api/v1/jobs/nope/chapters/1/download", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doRequest(t, server, http.MethodGet, tt.target, nil)
			assert.Equal(t, tt.expectedStatus, rr.Code)
		})
	}
}
