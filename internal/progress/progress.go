package progress

import (
	"encoding/json"
	"reflect"
	"sync"
	"time"
)

// Stage represents the current stage of a manifest processing run
type Stage string

const (
	StageInitializing Stage = "initializing"
	StageImporting    Stage = "importing"
	StageFetching     Stage = "fetching"
	StageProbing      Stage = "probing"
	StageResolving    Stage = "resolving"
	StageExporting    Stage = "exporting"
	StageComplete     Stage = "complete"
	StageError        Stage = "error"
)

// Event represents a progress event
type Event struct {
	Stage          Stage           `json:"stage"`
	Progress       float64         `json:"progress"`
	Message        string          `json:"message"`
	Data           []byte          `json:"data,omitempty"`
	Timestamp      time.Time       `json:"timestamp"`
	ChapterDetails *ChapterDetails `json:"chapterDetails,omitempty"`
	Error          string          `json:"error,omitempty"`
}

// ChapterDetails contains information about the chapter currently being exported
type ChapterDetails struct {
	ChapterNumber    int    `json:"chapterNumber"`
	TotalChapters    int    `json:"totalChapters"`
	CurrentChapter   string `json:"currentChapter"`
	ExportedChapters int    `json:"exportedChapters"`
}

// Tracker manages progress tracking across the import/fetch/resolve/export
// pipeline
type Tracker struct {
	mu             sync.RWMutex
	stage          Stage
	progress       float64
	message        string
	chapterDetails *ChapterDetails
	error          error
	listeners      []func(Event)
}

// NewTracker creates a new Tracker instance
func NewTracker() *Tracker {
	return &Tracker{
		stage:     StageInitializing,
		listeners: make([]func(Event), 0),
	}
}

// AddListener adds a new progress event listener
func (t *Tracker) AddListener(listener func(Event)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.listeners = append(t.listeners, listener)
}

// RemoveListener removes a progress event listener
func (t *Tracker) RemoveListener(listener func(Event)) {
	t.mu.Lock()
	defer t.mu.Unlock()

	listenerPtr := reflect.ValueOf(listener).Pointer()
	for i := range t.listeners {
		if reflect.ValueOf(t.listeners[i]).Pointer() == listenerPtr {
			t.listeners = append(t.listeners[:i], t.listeners[i+1:]...)
			break
		}
	}
}

// UpdateProgress updates the progress and notifies all listeners
func (t *Tracker) UpdateProgress(stage Stage, progress float64, message string, data []byte) {
	t.mu.Lock()
	t.stage = stage
	t.progress = progress
	t.message = message
	t.mu.Unlock()

	t.notifyListeners(Event{
		Stage:     stage,
		Progress:  progress,
		Message:   message,
		Data:      data,
		Timestamp: time.Now(),
	})
}

// UpdateChapterProgress updates chapter-specific progress
func (t *Tracker) UpdateChapterProgress(chapterNumber, totalChapters, exportedChapters int, currentChapter string) {
	t.mu.Lock()
	t.chapterDetails = &ChapterDetails{
		ChapterNumber:    chapterNumber,
		TotalChapters:    totalChapters,
		CurrentChapter:   currentChapter,
		ExportedChapters: exportedChapters,
	}
	details := t.chapterDetails
	stage := t.stage
	progress := t.progress
	message := t.message
	t.mu.Unlock()

	t.notifyListeners(Event{
		Stage:          stage,
		Progress:       progress,
		Message:        message,
		Timestamp:      time.Now(),
		ChapterDetails: details,
	})
}

// SetError sets an error state and notifies all listeners
func (t *Tracker) SetError(err error) {
	t.mu.Lock()
	t.stage = StageError
	t.error = err
	progress := t.progress
	t.mu.Unlock()

	t.notifyListeners(Event{
		Stage:     StageError,
		Progress:  progress,
		Message:   err.Error(),
		Timestamp: time.Now(),
		Error:     err.Error(),
	})
}

// notifyListeners sends an event to all registered listeners
func (t *Tracker) notifyListeners(event Event) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for _, listener := range t.listeners {
		listener(event)
	}
}

// GetCurrentState returns the current progress state
func (t *Tracker) GetCurrentState() Event {
	t.mu.RLock()
	defer t.mu.RUnlock()

	errMsg := ""
	if t.error != nil {
		errMsg = t.error.Error()
	}
	return Event{
		Stage:          t.stage,
		Progress:       t.progress,
		Message:        t.message,
		Timestamp:      time.Now(),
		ChapterDetails: t.chapterDetails,
		Error:          errMsg,
	}
}

// MarshalJSON implements json.Marshaler for Event
func (e Event) MarshalJSON() ([]byte, error) {
	type Alias Event
	return json.Marshal(&struct {
		Timestamp string `json:"timestamp"`
		*Alias
	}{
		Timestamp: e.Timestamp.Format(time.RFC3339),
		Alias:     (*Alias)(&e),
	})
}

// UnmarshalJSON implements json.Unmarshaler for Event
func (e *Event) UnmarshalJSON(data []byte) error {
	type Alias Event
	aux := &struct {
		Timestamp string `json:"timestamp"`
		*Alias
	}{
		Alias: (*Alias)(e),
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	t, err := time.Parse(time.RFC3339, aux.Timestamp)
	if err != nil {
		return err
	}
	e.Timestamp = t
	return nil
}
