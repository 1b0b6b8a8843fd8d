// Package report renders a resolved audiobook for humans and machines: a
// plain-text summary of the playback timeline, tabular track and entry
// views, and a JSON report document.
package report

import (
	"fmt"
	"io"
	"strings"

	"audiotoc/audiobook"
	"audiotoc/internal/domain"
	"audiotoc/internal/timeline"
)

// WriteSummary writes the full text summary of a resolved audiobook: title
// and totals, the track list, any unplayed leading audio, and every ToC
// entry with the audio segments it owns.
func WriteSummary(w io.Writer, book *audiobook.Audiobook) {
	fmt.Fprintf(w, "%s\n\n",
		withDelta(fmt.Sprintf("Title: %q", book.Title()), book.Manifest.Metadata.Duration, "duration"))

	writeTotals(w, book)
	writeTracks(w, book)
	writeEntries(w, book)
}

func writeTotals(w io.Writer, book *audiobook.Audiobook) {
	fmt.Fprintln(w, withDelta("Audiobook ToC-based total duration", book.TotalDuration(), "duration"))
	fmt.Fprintln(w, withDelta(
		fmt.Sprintf("Number of tracks: %d", len(book.Manifest.ReadingOrder)),
		book.Manifest.TotalTrackDuration(), "total duration"))
	fmt.Fprintln(w, withDelta(
		fmt.Sprintf("Audio segments: %d", book.SegmentCount()),
		book.TotalDuration(), "total duration"))

	if unplayed := book.UnplayedLeadingAudio(); len(unplayed) > 0 {
		fmt.Fprintln(w, withDelta(
			fmt.Sprintf("<*> Un-played audio segments (before first ToC segment): %d", len(unplayed)),
			book.UnplayedDuration(), "total duration"))
	}
	fmt.Fprint(w, "\n\n")
}

func writeTracks(w io.Writer, book *audiobook.Audiobook) {
	fmt.Fprintln(w, "Tracks (from manifest `readingOrder`):")
	for i, track := range book.Manifest.ReadingOrder {
		fmt.Fprintln(w, withDelta(
			fmt.Sprintf("  #%d %q %s", i, track.Title, track.Href),
			track.Duration, "duration"))
	}
	fmt.Fprint(w, "\n\n")
}

func writeEntries(w io.Writer, book *audiobook.Audiobook) {
	if unplayed := book.UnplayedLeadingAudio(); len(unplayed) > 0 {
		fmt.Fprintln(w, withDelta(
			"<*> Un-played audio segments (before first ToC segment):",
			book.UnplayedDuration(), "duration"))
		for _, segment := range unplayed {
			fmt.Fprintln(w, "   "+segmentLine(book.Track(segment), segment))
		}
		fmt.Fprint(w, "\n\n")
	}

	for i, entry := range book.Entries {
		indent := strings.Repeat("  ", entry.Depth)
		fmt.Fprintln(w, indent+withDelta(
			fmt.Sprintf("ToC Entry #%d %q", i, entry.Title),
			entry.Duration, "total duration"))
		fmt.Fprintln(w, withDelta(
			fmt.Sprintf("%s          href: %s", indent, entry.Href),
			entry.Segments[0].StartOffset, "offset"))
		fmt.Fprintf(w, "%sNumber of tracks: %d\n", indent, len(entry.Segments))
		for _, segment := range entry.Segments {
			fmt.Fprintln(w, indent+"   "+segmentLine(book.Track(segment), segment))
		}
		fmt.Fprint(w, "\n")
	}
}

func segmentLine(track domain.AudioTrack, segment timeline.Segment) string {
	return withDelta(
		fmt.Sprintf("Track %q %s from %s to %s",
			track.Title, track.Href,
			formatSeconds(segment.StartOffset), formatSeconds(segment.EndOffset)),
		segment.Duration(), "duration")
}
