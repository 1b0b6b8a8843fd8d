// Package audiobook ties the pipeline together. It loads an audiobook
// manifest, derives the playback timeline from its table of contents, and
// exports chapter audio files along that timeline.
package audiobook

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"audiotoc/internal/audio"
	"audiotoc/internal/domain"
	"audiotoc/internal/fetch"
	"audiotoc/internal/manifest"
	"audiotoc/internal/timeline"
)

// durationDriftTolerance is how far a probed track duration may differ from
// the declared one before the mismatch is worth surfacing, in seconds.
const durationDriftTolerance = 1.0

// Audiobook is a manifest together with its resolved playback timeline.
type Audiobook struct {
	Manifest *domain.Manifest

	// Entries is the table of contents in playback order, each entry
	// carrying the audio segments it owns.
	Entries []timeline.ResolvedEntry

	unplayed []timeline.Segment
}

// Load imports the manifest at source and resolves its timeline.
func Load(ctx context.Context, importer manifest.Importer, source string) (*Audiobook, error) {
	m, err := importer.Import(ctx, source)
	if err != nil {
		return nil, err
	}
	return FromManifest(m)
}

// FromManifest resolves the timeline of an already-decoded manifest.
func FromManifest(m *domain.Manifest) (*Audiobook, error) {
	book := &Audiobook{Manifest: m}
	if err := book.resolve(); err != nil {
		return nil, err
	}
	return book, nil
}

func (b *Audiobook) resolve() error {
	entries, err := timeline.Linearize(b.Manifest.ToC, b.Manifest.ReadingOrder)
	if err != nil {
		return err
	}
	resolved, err := timeline.Resolve(entries, b.Manifest.ReadingOrder)
	if err != nil {
		return err
	}
	b.Entries = resolved
	b.unplayed = timeline.UnplayedLeadingAudio(entries, b.Manifest.ReadingOrder)
	return nil
}

// ProbeDurations measures each local track file with the given prober and
// records the result next to the declared duration. Tracks that declare no
// duration take the probed value, and the timeline is resolved again so that
// segment end points reflect the measured audio. Track files are looked up
// under audioDir the same way the fetcher places them.
func (b *Audiobook) ProbeDurations(ctx context.Context, prober audio.Processor, audioDir string) error {
	var changed bool
	for i := range b.Manifest.ReadingOrder {
		track := &b.Manifest.ReadingOrder[i]
		path := fetch.TrackLocalPath(audioDir, track.Href)
		duration, err := prober.Probe(ctx, path)
		if err != nil {
			return fmt.Errorf("probe track %d (%s): %w", i, track.Href, err)
		}
		track.ActualDuration = duration
		if track.Duration == 0 {
			track.Duration = duration
			changed = true
			continue
		}
		if math.Abs(duration-track.Duration) > durationDriftTolerance {
			slog.Warn("Track duration differs from manifest",
				"track", track.Href,
				"declared", track.Duration,
				"actual", duration,
			)
		}
	}
	if changed {
		return b.resolve()
	}
	return nil
}

// Title returns the publication title.
func (b *Audiobook) Title() string {
	return b.Manifest.Metadata.Title
}

// TotalDuration sums the resolved duration of every entry, the length of the
// book as a conforming player would play it.
func (b *Audiobook) TotalDuration() float64 {
	var total float64
	for _, entry := range b.Entries {
		total += entry.Duration
	}
	return total
}

// SegmentCount returns the number of audio segments across all entries.
func (b *Audiobook) SegmentCount() int {
	var count int
	for _, entry := range b.Entries {
		count += len(entry.Segments)
	}
	return count
}

// UnplayedLeadingAudio returns the audio before the first entry's start
// point, which a conforming player never reaches. Empty when the timeline
// starts at the top of the first track.
func (b *Audiobook) UnplayedLeadingAudio() []timeline.Segment {
	return b.unplayed
}

// UnplayedDuration sums the unplayed leading audio.
func (b *Audiobook) UnplayedDuration() float64 {
	var total float64
	for _, segment := range b.unplayed {
		total += segment.Duration()
	}
	return total
}

// Track returns the reading-order track a segment points into.
func (b *Audiobook) Track(segment timeline.Segment) domain.AudioTrack {
	return b.Manifest.ReadingOrder[segment.TrackIndex]
}
