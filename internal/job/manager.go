package job

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"audiotoc/internal/progress"
)

// Manager tracks export jobs. All state lives in memory; jobs disappear when
// the process exits. Background workers report through the mutating methods
// rather than touching a Status directly, so reads always see a consistent
// snapshot.
type Manager struct {
	mu   sync.RWMutex
	jobs map[string]*Status
}

// NewManager creates a new job manager
func NewManager() *Manager {
	return &Manager{
		jobs: make(map[string]*Status),
	}
}

// CreateJob creates a new job and returns its initial status along with the
// context the background worker must honor for cancellation.
func (m *Manager) CreateJob() (*Status, context.Context) {
	jobID := uuid.NewString()
	ctx, cancel := context.WithCancel(context.Background())

	job := &Status{
		ID:         jobID,
		Status:     StatusPending,
		Progress:   0,
		Message:    "Job created",
		Events:     make([]progress.Event, 0),
		StartTime:  time.Now(),
		cancelFunc: cancel,
	}

	m.mu.Lock()
	m.jobs[jobID] = job
	m.mu.Unlock()

	snapshot := *job
	return &snapshot, ctx
}

// GetJob retrieves a snapshot of a job by ID
func (m *Manager) GetJob(jobID string) (*Status, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	job, exists := m.jobs[jobID]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, jobID)
	}
	snapshot := *job
	return &snapshot, nil
}

// CancelJob cancels a pending or processing job
func (m *Manager) CancelJob(jobID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, exists := m.jobs[jobID]
	if !exists {
		return fmt.Errorf("%w: %s", ErrNotFound, jobID)
	}

	if job.Status != StatusProcessing && job.Status != StatusPending {
		return fmt.Errorf("%w: %s", ErrInvalidState, job.Status)
	}

	job.cancelFunc()
	job.Status = StatusCancelled
	job.Message = "Job cancelled by user"
	endTime := time.Now()
	job.EndTime = &endTime

	return nil
}

// SetProcessing marks a job as running
func (m *Manager) SetProcessing(jobID, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if job, exists := m.jobs[jobID]; exists {
		job.Status = StatusProcessing
		job.Message = message
	}
}

// SetBook records the audiobook a job is exporting, once known
func (m *Manager) SetBook(jobID, book string, chapters int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if job, exists := m.jobs[jobID]; exists {
		job.Book = book
		job.Chapters = chapters
	}
}

// UpdateProgress records a progress update and appends it to the job's event
// history
func (m *Manager) UpdateProgress(jobID string, event progress.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if job, exists := m.jobs[jobID]; exists {
		job.Progress = event.Progress
		job.Message = event.Message
		job.Events = append(job.Events, event)
	}
}

// Complete marks a job as finished with its exported file paths
func (m *Manager) Complete(jobID string, results []string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if job, exists := m.jobs[jobID]; exists {
		job.Status = StatusCompleted
		job.Progress = ProgressComplete
		job.Message = "Export completed successfully"
		job.Results = results
		endTime := time.Now()
		job.EndTime = &endTime
	}
}

// Fail marks a job as failed, or cancelled when the error is the job
// context's cancellation
func (m *Manager) Fail(jobID string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, exists := m.jobs[jobID]
	if !exists {
		return
	}
	if job.Status == StatusCancelled {
		// CancelJob already recorded the outcome.
		return
	}
	if errors.Is(err, context.Canceled) {
		job.Status = StatusCancelled
		job.Message = "Export was cancelled"
	} else {
		job.Status = StatusFailed
		job.Error = err.Error()
		job.Message = "Export failed"
	}
	endTime := time.Now()
	job.EndTime = &endTime
}

// ListJobs lists all jobs with pagination, newest first
func (m *Manager) ListJobs(page, pageSize int) *Response {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > MaxPageSize {
		pageSize = DefaultPageSize
	}

	m.mu.RLock()
	jobs := make([]*Status, 0, len(m.jobs))
	for _, job := range m.jobs {
		snapshot := *job
		jobs = append(jobs, &snapshot)
	}
	m.mu.RUnlock()

	sort.Slice(jobs, func(i, j int) bool {
		if jobs[i].StartTime.Equal(jobs[j].StartTime) {
			return jobs[i].ID < jobs[j].ID
		}
		return jobs[i].StartTime.After(jobs[j].StartTime)
	})

	start := (page - 1) * pageSize
	end := start + pageSize

	if start >= len(jobs) {
		return &Response{
			Jobs:       []*Status{},
			Page:       page,
			PageSize:   pageSize,
			TotalJobs:  len(jobs),
			TotalPages: (len(jobs) + pageSize - 1) / pageSize,
		}
	}

	if end > len(jobs) {
		end = len(jobs)
	}

	return &Response{
		Jobs:       jobs[start:end],
		Page:       page,
		PageSize:   pageSize,
		TotalJobs:  len(jobs),
		TotalPages: (len(jobs) + pageSize - 1) / pageSize,
	}
}
