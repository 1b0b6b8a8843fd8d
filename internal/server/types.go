package server

import "encoding/json"

// TimelineRequest represents the request body for resolving a playback
// timeline. Exactly one of Manifest and ManifestURL must be set.
type TimelineRequest struct {
	ManifestURL string          `json:"manifestUrl,omitempty"`
	Manifest    json.RawMessage `json:"manifest,omitempty"`
}

// ExportResponse acknowledges an accepted export job.
type ExportResponse struct {
	Message string `json:"message"`
	JobID   string `json:"jobId"`
}

// MessageResponse represents a generic message payload used for success responses.
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse represents a generic error payload used for error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}
