package server

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"audiotoc/audiobook"
	"audiotoc/internal/domain"
	"audiotoc/internal/job"
	"audiotoc/internal/manifest"
	"audiotoc/internal/report"
)

// health godoc
// @Summary Health check
// @Tags Utility
// @Produce json
// @Success 200 {object} MessageResponse
// @Router /health [get]
func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// resolveTimeline godoc
// @Summary Resolve a manifest's playback timeline
// @Description Derives the chapter timeline for the given audiobook manifest and returns it without touching any audio.
// @Tags Timeline
// @Accept json
// @Produce json
// @Param request body TimelineRequest true "Manifest document or URL"
// @Success 200 {object} report.Report
// @Failure 400 {object} ErrorResponse
// @Router /api/v1/timeline [post]
func (s *Server) resolveTimeline(c *gin.Context) {
	var req TimelineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, ErrorResponse{Error: fmt.Sprintf("invalid request: %v", err)})
		return
	}

	var (
		m   *domain.Manifest
		err error
	)
	switch {
	case len(req.Manifest) > 0:
		m, err = manifest.Decode(bytes.NewReader(req.Manifest))
	case req.ManifestURL != "":
		m, err = s.importer.Import(c.Request.Context(), req.ManifestURL)
	default:
		c.JSON(400, ErrorResponse{Error: "manifest or manifestUrl is required"})
		return
	}
	if err != nil {
		c.JSON(400, ErrorResponse{Error: fmt.Sprintf("%v: %v", job.ErrInvalidManifest, err)})
		return
	}

	book, err := audiobook.FromManifest(m)
	if err != nil {
		c.JSON(400, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(200, report.Build(book))
}

// startExport godoc
// @Summary Start exporting chapters
// @Description Submits a job that fetches the audiobook's tracks and exports one audio file per chapter.
// @Tags Jobs
// @Accept json
// @Produce json
// @Param request body job.Request true "Export parameters"
// @Success 202 {object} ExportResponse
// @Failure 400 {object} ErrorResponse
// @Router /api/v1/export [post]
func (s *Server) startExport(c *gin.Context) {
	var req job.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, ErrorResponse{Error: fmt.Sprintf("invalid request: %v", err)})
		return
	}

	if req.ManifestURL == "" && len(req.Manifest) == 0 {
		c.JSON(400, ErrorResponse{Error: "manifest or manifestUrl is required"})
		return
	}

	// Reject malformed manifests before accepting the job.
	if len(req.Manifest) > 0 {
		if _, err := manifest.Decode(bytes.NewReader(req.Manifest)); err != nil {
			c.JSON(400, ErrorResponse{Error: fmt.Sprintf("%v: %v", job.ErrInvalidManifest, err)})
			return
		}
	}

	if req.FileExtension == "" {
		req.FileExtension = s.cfg.FileExtension
	}

	if req.MaxConcurrentTasks <= 0 {
		req.MaxConcurrentTasks = job.DefaultMaxConcurrentTasks
	}

	jobStatus, ctx := s.jobManager.CreateJob()
	go s.runExport(ctx, jobStatus.ID, req)

	c.JSON(202, ExportResponse{
		Message: "Export started",
		JobID:   jobStatus.ID,
	})
}

// listJobs godoc
// @Summary List jobs
// @Tags Jobs
// @Produce json
// @Param page query int false "Page number"
// @Param pageSize query int false "Page size"
// @Success 200 {object} job.Response
// @Router /api/v1/jobs [get]
func (s *Server) listJobs(c *gin.Context) {
	page := 1
	pageSize := job.DefaultPageSize

	if p := c.Query("page"); p != "" {
		if parsed, err := strconv.Atoi(p); err == nil && parsed > 0 {
			page = parsed
		}
	}

	if ps := c.Query("pageSize"); ps != "" {
		if parsed, err := strconv.Atoi(ps); err == nil && parsed > 0 && parsed <= job.MaxPageSize {
			pageSize = parsed
		}
	}

	response := s.jobManager.ListJobs(page, pageSize)
	c.JSON(200, response)
}
