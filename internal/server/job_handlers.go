package server

import (
	"errors"

	"github.com/gin-gonic/gin"

	"audiotoc/internal/job"
)

// getJobStatus godoc
// @Summary Get job status
// @Description Retrieves the current status, progress and event history of an export job by ID
// @Tags Jobs
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} job.Status
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/jobs/{id} [get]
func (s *Server) getJobStatus(c *gin.Context) {
	jobID := c.Param("id")

	jobStatus, err := s.jobManager.GetJob(jobID)
	if err != nil {
		c.JSON(404, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(200, jobStatus)
}

// cancelJob godoc
// @Summary Cancel a job
// @Description Cancels a pending or running export job by ID
// @Tags Jobs
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/jobs/{id} [delete]
func (s *Server) cancelJob(c *gin.Context) {
	jobID := c.Param("id")

	if err := s.jobManager.CancelJob(jobID); err != nil {
		switch {
		case errors.Is(err, job.ErrNotFound):
			c.JSON(404, ErrorResponse{Error: err.Error()})
		case errors.Is(err, job.ErrInvalidState):
			c.JSON(400, ErrorResponse{Error: err.Error()})
		default:
			c.JSON(500, ErrorResponse{Error: err.Error()})
		}
		return
	}

	c.JSON(200, MessageResponse{Message: "Job cancelled"})
}
