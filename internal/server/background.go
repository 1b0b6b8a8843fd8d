package server

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"audiotoc/audiobook"
	"audiotoc/internal/job"
	"audiotoc/internal/progress"
)

// exportTimeout bounds a single export job so an abandoned download cannot
// hold its goroutine forever.
const exportTimeout = 45 * time.Minute

// runExport handles the background processing of an export job
func (s *Server) runExport(ctx context.Context, jobID string, req job.Request) {
	slog.Info("Starting export job", "jobId", jobID, "source", req.ManifestURL)

	ctx, cancel := context.WithTimeout(ctx, exportTimeout)
	defer cancel()

	s.jobManager.SetProcessing(jobID, "Starting export")

	tracker := progress.NewTracker()
	listener := func(event progress.Event) {
		s.jobManager.UpdateProgress(jobID, event)
	}
	tracker.AddListener(listener)
	defer tracker.RemoveListener(listener)

	opts := &audiobook.ProcessingOptions{
		Source:             req.ManifestURL,
		RawManifest:        req.Manifest,
		AudioDir:           req.AudioDir,
		FileExtension:      req.FileExtension,
		MaxConcurrentTasks: req.MaxConcurrentTasks,
		Tracker:            tracker,
		OnBook: func(title string, chapters int) {
			s.jobManager.SetBook(jobID, title, chapters)
		},
	}

	results, err := s.processor.ProcessChapters(ctx, opts)
	if err != nil {
		s.jobManager.Fail(jobID, err)
		if errors.Is(err, context.Canceled) {
			slog.Warn("Export job cancelled", "jobId", jobID)
		} else {
			slog.Error("Export job failed", "jobId", jobID, "error", err)
		}
		return
	}

	s.jobManager.Complete(jobID, results)
	slog.Info("Export job completed", "jobId", jobID, "chapters", len(results))
}
