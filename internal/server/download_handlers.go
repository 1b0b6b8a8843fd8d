package server

import (
	"archive/zip"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"

	"audiotoc/internal/job"
)

// downloadChapters handles downloading all chapters for a job as a ZIP file
//
//	@Summary		Download all chapters as ZIP
//	@Description	Downloads all exported chapters for a completed job as a ZIP archive
//	@Tags			Downloads
//	@Produce		application/zip
//	@Param			id	path		string			true	"Job ID"
//	@Success		200	{file}		application/zip	"ZIP file containing all chapters"
//	@Failure		400	{object}	ErrorResponse	"Job is not completed yet"
//	@Failure		404	{object}	ErrorResponse	"Job not found or no chapters available"
//	@Failure		500	{object}	ErrorResponse	"Server error during ZIP creation"
//	@Router			/api/v1/jobs/{id}/download [get]
func (s *Server) downloadChapters(c *gin.Context) {
	jobID := c.Param("id")

	jobStatus, err := s.jobManager.GetJob(jobID)
	if err != nil {
		c.JSON(404, ErrorResponse{Error: err.Error()})
		return
	}

	if jobStatus.Status != job.StatusCompleted {
		c.JSON(400, ErrorResponse{Error: "Job is not completed yet"})
		return
	}

	if len(jobStatus.Results) == 0 {
		c.JSON(404, ErrorResponse{Error: "No chapters available for download"})
		return
	}

	// Make sure every file can be served before the response headers go out.
	for i, chapterPath := range jobStatus.Results {
		if _, err := os.Stat(chapterPath); err != nil {
			slog.Error("Chapter file missing", "jobId", jobID, "chapter", i+1, "path", chapterPath)
			c.JSON(500, ErrorResponse{Error: fmt.Sprintf("chapter file %d not found", i+1)})
			return
		}
	}

	bookName := jobStatus.Book
	if bookName == "" {
		bookName = "audiobook"
	}
	zipFileName := fmt.Sprintf("%s.zip", SanitizeFilename(bookName))

	c.Header("Content-Type", "application/zip")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", zipFileName))

	zipWriter := zip.NewWriter(c.Writer)
	defer zipWriter.Close()

	for i, chapterPath := range jobStatus.Results {
		if err := addFileToZip(zipWriter, chapterPath); err != nil {
			// Headers are already sent, so the client receives a truncated
			// archive. Log with enough context to diagnose it.
			slog.Error("Failed to add chapter to ZIP after headers were set",
				"jobId", jobID,
				"chapter", i+1,
				"path", chapterPath,
				"error", err)
			return
		}
	}

	slog.Info("Served chapter archive", "jobId", jobID, "chapters", len(jobStatus.Results))
}

// downloadChapter handles downloading a single chapter
//
//	@Summary		Download a single chapter
//	@Description	Downloads a specific exported chapter by job ID and chapter number
//	@Tags			Downloads
//	@Produce		audio/mpeg,audio/flac,audio/wav
//	@Param			id				path		string			true	"Job ID"
//	@Param			chapterNumber	path		int				true	"Chapter number (1-based)"
//	@Success		200				{file}		audio/*			"Audio file"
//	@Failure		400				{object}	ErrorResponse	"Invalid chapter number or job not completed"
//	@Failure		404				{object}	ErrorResponse	"Job or chapter not found"
//	@Router			/api/v1/jobs/{id}/chapters/{chapterNumber}/download [get]
func (s *Server) downloadChapter(c *gin.Context) {
	jobID := c.Param("id")

	chapterNumber, err := strconv.Atoi(c.Param("chapterNumber"))
	if err != nil {
		c.JSON(400, ErrorResponse{Error: "Invalid chapter number"})
		return
	}

	jobStatus, err := s.jobManager.GetJob(jobID)
	if err != nil {
		c.JSON(404, ErrorResponse{Error: err.Error()})
		return
	}

	if jobStatus.Status != job.StatusCompleted {
		c.JSON(400, ErrorResponse{Error: "Job is not completed yet"})
		return
	}

	if chapterNumber < 1 || chapterNumber > len(jobStatus.Results) {
		c.JSON(404, ErrorResponse{Error: "Chapter not found"})
		return
	}

	chapterPath := jobStatus.Results[chapterNumber-1]
	if _, err := os.Stat(chapterPath); os.IsNotExist(err) {
		c.JSON(404, ErrorResponse{Error: "Chapter file not found"})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(chapterPath)))
	c.File(chapterPath)
}
