package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"audiotoc/config"
	"audiotoc/internal/job"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	rootDir := t.TempDir()
	cfg := config.Default()
	cfg.DataDir = filepath.Join(rootDir, "data")
	cfg.TempDir = filepath.Join(rootDir, "tmp")
	cfg.Storage.Type = "local"
	cfg.Storage.OutputDir = filepath.Join(rootDir, "output")

	server, err := New(context.Background(), cfg)
	require.NoError(t, err)
	return server
}

func doRequest(t *testing.T, server *Server, method, target string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()

	req, err := http.NewRequest(method, target, body)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	rr := httptest.NewRecorder()
	server.router.ServeHTTP(rr, req)
	return rr
}

func TestHealthCheck(t *testing.T) {
	server := newTestServer(t)

	rr := doRequest(t, server, http.MethodGet, "/health", nil)

	require.Equal(t, http.StatusOK, rr.Code)

	var response map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))
	assert.Equal(t, "ok", response["status"])
}

func TestGetJobStatusNotFound(t *testing.T) {
	server := newTestServer(t)

	rr := doRequest(t, server, http.MethodGet, "/api/v1/jobs/non-existent-job", nil)

	require.Equal(t, http.StatusNotFound, rr.Code)

	var response ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))
	assert.Contains(t, response.Error, "job not found")
}

func TestGetJobStatus(t *testing.T) {
	server := newTestServer(t)

	created, _ := server.jobManager.CreateJob()

	rr := doRequest(t, server, http.MethodGet, "/api/v1/jobs/"+created.ID, nil)

	require.Equal(t, http.StatusOK, rr.Code)

	var status job.Status
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &status))
	assert.Equal(t, created.ID, status.ID)
	assert.Equal(t, job.StatusPending, status.Status)
}

func TestCancelJob(t *testing.T) {
	server := newTestServer(t)

	created, ctx := server.jobManager.CreateJob()

	rr := doRequest(t, server, http.MethodDelete, "/api/v1/jobs/"+created.ID, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var response MessageResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))
	assert.Equal(t, "Job cancelled", response.Message)
	assert.Error(t, ctx.Err())

	// A cancelled job cannot be cancelled again.
	rr = doRequest(t, server, http.MethodDelete, "/api/v1/jobs/"+created.ID, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCancelJobNotFound(t *testing.T) {
	server := newTestServer(t)

	rr := doRequest(t, server, http.MethodDelete, "/api/v1/jobs/non-existent-job", nil)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestListJobs(t *testing.T) {
	server := newTestServer(t)

	rr := doRequest(t, server, http.MethodGet, "/api/v1/jobs", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var response job.Response
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))
	assert.Zero(t, response.TotalJobs)
	assert.Empty(t, response.Jobs)

	for i := 0; i < 3; i++ {
		server.jobManager.CreateJob()
	}

	rr = doRequest(t, server, http.MethodGet, "/api/v1/jobs?pageSize=2", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))
	assert.Equal(t, 3, response.TotalJobs)
	assert.Equal(t, 2, response.TotalPages)
	assert.Len(t, response.Jobs, 2)
}
