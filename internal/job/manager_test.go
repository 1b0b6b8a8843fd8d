package job

import (
	"errors"
	"testing"
	"time"

	"audiotoc/internal/progress"
)

func TestJobLifecycle(t *testing.T) {
	manager := NewManager()

	jobStatus, ctx := manager.CreateJob()
	jobID := jobStatus.ID

	if jobID == "" {
		t.Fatal("Expected a job ID")
	}
	if jobStatus.Status != StatusPending {
		t.Errorf("Expected status %s, got %s", StatusPending, jobStatus.Status)
	}
	if jobStatus.Progress != 0 {
		t.Errorf("Expected initial progress 0, got %f", jobStatus.Progress)
	}

	manager.SetProcessing(jobID, "Starting export")
	manager.SetBook(jobID, "Test Book", 12)

	manager.UpdateProgress(jobID, progress.Event{
		Stage:     progress.StageFetching,
		Progress:  15.0,
		Message:   "Fetching track 2/8",
		Timestamp: time.Now(),
	})

	updatedJob, err := manager.GetJob(jobID)
	if err != nil {
		t.Fatalf("Failed to get updated job: %v", err)
	}
	if updatedJob.Status != StatusProcessing {
		t.Errorf("Expected status %s, got %s", StatusProcessing, updatedJob.Status)
	}
	if updatedJob.Progress != 15.0 {
		t.Errorf("Expected progress 15.0, got %f", updatedJob.Progress)
	}
	if updatedJob.Book != "Test Book" || updatedJob.Chapters != 12 {
		t.Errorf("Expected book metadata to be set, got %q/%d", updatedJob.Book, updatedJob.Chapters)
	}
	if len(updatedJob.Events) != 1 {
		t.Errorf("Expected 1 event, got %d", len(updatedJob.Events))
	}

	manager.Complete(jobID, []string{"01 - Opening.mp3", "02 - Chapter One.mp3"})

	finalJob, err := manager.GetJob(jobID)
	if err != nil {
		t.Fatalf("Failed to get final job: %v", err)
	}
	if finalJob.Status != StatusCompleted {
		t.Errorf("Expected status %s, got %s", StatusCompleted, finalJob.Status)
	}
	if finalJob.Progress != ProgressComplete {
		t.Errorf("Expected progress %d, got %f", ProgressComplete, finalJob.Progress)
	}
	if len(finalJob.Results) != 2 {
		t.Errorf("Expected 2 results, got %d", len(finalJob.Results))
	}
	if finalJob.EndTime == nil {
		t.Error("Expected an end time")
	}

	select {
	case <-ctx.Done():
		t.Error("Job context should not be cancelled after completion")
	default:
	}
}

func TestGetJobNotFound(t *testing.T) {
	manager := NewManager()

	_, err := manager.GetJob("does-not-exist")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestCancelJob(t *testing.T) {
	manager := NewManager()

	jobStatus, ctx := manager.CreateJob()

	if err := manager.CancelJob(jobStatus.ID); err != nil {
		t.Fatalf("Failed to cancel job: %v", err)
	}

	select {
	case <-ctx.Done():
	default:
		t.Error("Expected the job context to be cancelled")
	}

	cancelled, err := manager.GetJob(jobStatus.ID)
	if err != nil {
		t.Fatalf("Failed to get cancelled job: %v", err)
	}
	if cancelled.Status != StatusCancelled {
		t.Errorf("Expected status %s, got %s", StatusCancelled, cancelled.Status)
	}

	// A second cancel is an invalid state transition.
	err = manager.CancelJob(jobStatus.ID)
	if !errors.Is(err, ErrInvalidState) {
		t.Errorf("Expected ErrInvalidState, got %v", err)
	}
}

func TestFailAfterCancelKeepsCancelledState(t *testing.T) {
	manager := NewManager()

	jobStatus, _ := manager.CreateJob()
	if err := manager.CancelJob(jobStatus.ID); err != nil {
		t.Fatalf("Failed to cancel job: %v", err)
	}

	// The background worker reports its context error after the cancel.
	manager.Fail(jobStatus.ID, errors.New("context canceled"))

	got, err := manager.GetJob(jobStatus.ID)
	if err != nil {
		t.Fatalf("Failed to get job: %v", err)
	}
	if got.Status != StatusCancelled {
		t.Errorf("Expected status %s, got %s", StatusCancelled, got.Status)
	}
}

func TestListJobsPagination(t *testing.T) {
	manager := NewManager()

	ids := make([]string, 0, 5)
	for i := 0; i < 5; i++ {
		s, _ := manager.CreateJob()
		ids = append(ids, s.ID)
	}

	response := manager.ListJobs(1, 2)
	if response.TotalJobs != 5 {
		t.Errorf("Expected 5 total jobs, got %d", response.TotalJobs)
	}
	if response.TotalPages != 3 {
		t.Errorf("Expected 3 total pages, got %d", response.TotalPages)
	}
	if len(response.Jobs) != 2 {
		t.Errorf("Expected 2 jobs on page 1, got %d", len(response.Jobs))
	}

	// Past the last page.
	response = manager.ListJobs(4, 2)
	if len(response.Jobs) != 0 {
		t.Errorf("Expected 0 jobs past the last page, got %d", len(response.Jobs))
	}

	// Invalid pagination values fall back to defaults.
	response = manager.ListJobs(0, MaxPageSize+1)
	if response.Page != 1 || response.PageSize != DefaultPageSize {
		t.Errorf("Expected defaults (1, %d), got (%d, %d)", DefaultPageSize, response.Page, response.PageSize)
	}

	seen := make(map[string]bool)
	full := manager.ListJobs(1, DefaultPageSize)
	for _, j := range full.Jobs {
		seen[j.ID] = true
	}
	for _, id := range ids {
		if !seen[id] {
			t.Errorf("Job %s missing from listing", id)
		}
	}
}
