package job

import (
	"context"
	"encoding/json"
	"time"

	"audiotoc/internal/progress"
)

// Constants for job status
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
	StatusCancelled  = "cancelled"
)

// Constants for progress percentages
const (
	ProgressFetchStart  = 0
	ProgressFetchEnd    = 25
	ProgressExportStart = 25
	ProgressExportEnd   = 99
	ProgressComplete    = 100
)

// Constants for pagination
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Constants for configuration
const (
	DefaultMaxConcurrentTasks = 4
)

// Status represents the current state of an export job
type Status struct {
	ID        string           `json:"id"`
	Status    string           `json:"status"`
	Progress  float64          `json:"progress"`
	Message   string           `json:"message"`
	Error     string           `json:"error,omitempty"`
	Results   []string         `json:"results,omitempty"`
	Events    []progress.Event `json:"events"`
	StartTime time.Time        `json:"startTime"`
	EndTime   *time.Time       `json:"endTime,omitempty"`

	// Book identifies the audiobook being exported, once its manifest has
	// been imported.
	Book     string `json:"book,omitempty"`
	Chapters int    `json:"chapters,omitempty"`

	cancelFunc context.CancelFunc
}

// Request represents the request body for an export job. Exactly one of
// ManifestURL and Manifest must be set.
type Request struct {
	ManifestURL        string          `json:"manifestUrl,omitempty"`
	Manifest           json.RawMessage `json:"manifest,omitempty"`
	AudioDir           string          `json:"audioDir,omitempty"`
	FileExtension      string          `json:"fileExtension,omitempty"`
	MaxConcurrentTasks int             `json:"maxConcurrentTasks,omitempty"`
}

// Response represents the response for job listings
type Response struct {
	Jobs       []*Status `json:"jobs"`
	Page       int       `json:"page"`
	PageSize   int       `json:"pageSize"`
	TotalJobs  int       `json:"totalJobs"`
	TotalPages int       `json:"totalPages"`
}
