// Package timeline derives an audiobook's playback timeline from its
// manifest. A ToC entry declares only where it starts; its end is wherever
// the next entry in playback order begins, so resolution pairs each entry
// with its successor and walks the reading order between them.
package timeline

import (
	"fmt"

	"audiotoc/internal/domain"
)

// Entry is a table-of-contents entry flattened into playback order.
type Entry struct {
	SequenceIndex int     `json:"sequenceIndex"`
	TrackIndex    int     `json:"trackIndex"`
	StartOffset   float64 `json:"startOffset"`
	Title         string  `json:"title,omitempty"`
	Href          string  `json:"href,omitempty"`
	Depth         int     `json:"depth"`
}

// Segment is a contiguous span of exactly one track.
type Segment struct {
	TrackIndex  int     `json:"trackIndex"`
	StartOffset float64 `json:"startOffset"`
	EndOffset   float64 `json:"endOffset"`
}

// Duration returns the segment's length in seconds.
func (s Segment) Duration() float64 {
	return s.EndOffset - s.StartOffset
}

// ResolvedEntry is an Entry annotated with the audio segments it owns.
type ResolvedEntry struct {
	Entry
	Segments []Segment `json:"segments"`
	Duration float64   `json:"duration"`
}

// Linearize flattens the ToC tree depth-first, each parent before its
// children and siblings in declared order. A nil or empty tree falls back to
// one synthetic entry per track, starting at offset 0, so any manifest with
// audio yields at least one entry.
func Linearize(toc []*domain.ToCEntry, tracks []domain.AudioTrack) ([]Entry, error) {
	if len(toc) == 0 {
		entries := make([]Entry, 0, len(tracks))
		for i, track := range tracks {
			title := track.Title
			if title == "" {
				title = fmt.Sprintf("Track %d", i+1)
			}
			entries = append(entries, Entry{
				SequenceIndex: i,
				TrackIndex:    i,
				Title:         title,
				Href:          track.Href + "#t=0",
			})
		}
		return entries, nil
	}

	indexByHref := make(map[string]int, len(tracks))
	for i, track := range tracks {
		indexByHref[track.Href] = i
	}

	var entries []Entry
	var walk func(nodes []*domain.ToCEntry, depth int) error
	walk = func(nodes []*domain.ToCEntry, depth int) error {
		for _, node := range nodes {
			trackIndex, ok := indexByHref[node.TrackHref()]
			if !ok {
				return &ReferenceError{Href: node.Href, Title: node.Title}
			}
			offset, err := node.StartOffset()
			if err != nil {
				return err
			}
			entries = append(entries, Entry{
				SequenceIndex: len(entries),
				TrackIndex:    trackIndex,
				StartOffset:   offset,
				Title:         node.Title,
				Href:          node.Href,
				Depth:         depth,
			})
			if err := walk(node.Children, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(toc, 0); err != nil {
		return nil, err
	}
	return entries, nil
}

// Resolve computes the audio segments and duration for every entry, in
// order, by pairing each one with its successor. It returns either one
// ResolvedEntry per input entry or the first error encountered; there is no
// partial result.
func Resolve(entries []Entry, tracks []domain.AudioTrack) ([]ResolvedEntry, error) {
	resolved := make([]ResolvedEntry, 0, len(entries))
	for i := range entries {
		var next *Entry
		if i+1 < len(entries) {
			next = &entries[i+1]
		}
		segments, err := segmentsForPair(&entries[i], next, tracks)
		if err != nil {
			return nil, err
		}
		var total float64
		for _, s := range segments {
			total += s.Duration()
		}
		resolved = append(resolved, ResolvedEntry{
			Entry:    entries[i],
			Segments: segments,
			Duration: total,
		})
	}
	return resolved, nil
}

// segmentsForPair finds the span of audio between an entry and its
// successor. The last track of the span and the end offset within it are the
// only unknowns: with no successor the entry runs to the end of the book;
// when the successor starts mid-track the entry ends right there; and when
// the successor starts at the top of a track the entry ends at the end of
// the track before it.
func segmentsForPair(entry, next *Entry, tracks []domain.AudioTrack) ([]Segment, error) {
	if entry.TrackIndex < 0 || entry.TrackIndex >= len(tracks) {
		return nil, &ReferenceError{Href: entry.Href, Title: entry.Title}
	}

	lastTrack := len(tracks) - 1
	lastEnd := tracks[lastTrack].Duration
	if next != nil {
		if next.TrackIndex < 0 || next.TrackIndex >= len(tracks) {
			return nil, &ReferenceError{Href: next.Href, Title: next.Title}
		}
		if next.TrackIndex < entry.TrackIndex ||
			(next.TrackIndex == entry.TrackIndex && next.StartOffset < entry.StartOffset) {
			return nil, &OrderError{Entry: *entry, Next: *next}
		}
		if next.TrackIndex == entry.TrackIndex || next.StartOffset != 0 {
			lastTrack = next.TrackIndex
			lastEnd = next.StartOffset
		} else {
			lastTrack = next.TrackIndex - 1
			lastEnd = tracks[lastTrack].Duration
		}
	}

	// The first segment is always present, even when zero-length, so every
	// entry resolves to at least one segment.
	firstEnd := tracks[entry.TrackIndex].Duration
	if entry.TrackIndex == lastTrack {
		firstEnd = lastEnd
	}
	segments := make([]Segment, 0, lastTrack-entry.TrackIndex+1)
	segments = append(segments, Segment{
		TrackIndex:  entry.TrackIndex,
		StartOffset: entry.StartOffset,
		EndOffset:   firstEnd,
	})
	for i := entry.TrackIndex + 1; i < lastTrack; i++ {
		segments = append(segments, Segment{TrackIndex: i, EndOffset: tracks[i].Duration})
	}
	if entry.TrackIndex != lastTrack {
		segments = append(segments, Segment{TrackIndex: lastTrack, EndOffset: lastEnd})
	}
	return segments, nil
}

// UnplayedLeadingAudio returns the spans before the first entry's start
// offset, which a conforming player never reaches. The result is empty when
// the first entry begins at the top of the first track. This leading audio
// is reported, not reassigned; excluding it from every entry is the declared
// behavior of offset-based ToCs.
func UnplayedLeadingAudio(entries []Entry, tracks []domain.AudioTrack) []Segment {
	if len(entries) == 0 || len(tracks) == 0 {
		return nil
	}
	first := entries[0]
	if first.TrackIndex == 0 && first.StartOffset == 0 {
		return nil
	}
	opening := Entry{}
	segments, err := segmentsForPair(&opening, &first, tracks)
	if err != nil {
		return nil
	}
	return segments
}
