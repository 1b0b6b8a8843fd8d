package report

import (
	"audiotoc/audiobook"
	"audiotoc/internal/timeline"
)

// Track is one reading-order track in the JSON report.
type Track struct {
	Index          int     `json:"index"`
	Title          string  `json:"title,omitempty"`
	Href           string  `json:"href"`
	Duration       float64 `json:"duration"`
	ActualDuration float64 `json:"actualDuration,omitempty"`
}

// Report is the machine-readable form of a resolved audiobook.
type Report struct {
	Title            string   `json:"title"`
	Authors          []string `json:"authors,omitempty"`
	DeclaredDuration float64  `json:"declaredDuration,omitempty"`

	// TotalDuration is the length of the book as resolved from the ToC.
	TotalDuration float64 `json:"totalDuration"`

	TrackCount         int     `json:"trackCount"`
	TotalTrackDuration float64 `json:"totalTrackDuration"`
	SegmentCount       int     `json:"segmentCount"`

	UnplayedDuration     float64            `json:"unplayedDuration,omitempty"`
	UnplayedLeadingAudio []timeline.Segment `json:"unplayedLeadingAudio,omitempty"`

	Tracks  []Track                  `json:"tracks"`
	Entries []timeline.ResolvedEntry `json:"entries"`
}

// Build assembles the JSON report for a resolved audiobook.
func Build(book *audiobook.Audiobook) *Report {
	tracks := make([]Track, len(book.Manifest.ReadingOrder))
	for i, track := range book.Manifest.ReadingOrder {
		tracks[i] = Track{
			Index:          i,
			Title:          track.Title,
			Href:           track.Href,
			Duration:       track.Duration,
			ActualDuration: track.ActualDuration,
		}
	}

	return &Report{
		Title:                book.Title(),
		Authors:              book.Manifest.Metadata.Author,
		DeclaredDuration:     book.Manifest.Metadata.Duration,
		TotalDuration:        book.TotalDuration(),
		TrackCount:           len(book.Manifest.ReadingOrder),
		TotalTrackDuration:   book.Manifest.TotalTrackDuration(),
		SegmentCount:         book.SegmentCount(),
		UnplayedDuration:     book.UnplayedDuration(),
		UnplayedLeadingAudio: book.UnplayedLeadingAudio(),
		Tracks:               tracks,
		Entries:              book.Entries,
	}
}
