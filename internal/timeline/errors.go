package timeline

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownTrack   = errors.New("toc entry references unknown track")
	ErrMalformedOrder = errors.New("toc entries out of playback order")
)

// ReferenceError reports a ToC entry whose href names a track that does not
// appear in the manifest's reading order.
type ReferenceError struct {
	Href  string
	Title string
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("toc entry %q (%s): %v", e.Title, e.Href, ErrUnknownTrack)
}

func (e *ReferenceError) Unwrap() error { return ErrUnknownTrack }

// OrderError reports two consecutive entries that run backwards in playback
// order, either by track or by offset within the same track.
type OrderError struct {
	Entry Entry
	Next  Entry
}

func (e *OrderError) Error() string {
	return fmt.Sprintf("entry %d %q (track %d, offset %gs) followed by entry %d %q (track %d, offset %gs): %v",
		e.Entry.SequenceIndex, e.Entry.Title, e.Entry.TrackIndex, e.Entry.StartOffset,
		e.Next.SequenceIndex, e.Next.Title, e.Next.TrackIndex, e.Next.StartOffset,
		ErrMalformedOrder)
}

func (e *OrderError) Unwrap() error { return ErrMalformedOrder }
