package report

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"audiotoc/audiobook"
	"audiotoc/internal/domain"
)

func TestSecondsToHMS(t *testing.T) {
	tests := []struct {
		seconds  float64
		expected string
	}{
		{0, "0:00:00"},
		{5, "0:00:05"},
		{61.5, "0:01:01.5"},
		{3600, "1:00:00"},
		{3723, "1:02:03"},
		{3601.25, "1:00:01.25"},
		{30.125, "0:00:30.125"},
		{86400, "24:00:00"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, SecondsToHMS(tt.seconds))
		})
	}
}

func TestWithDelta(t *testing.T) {
	assert.Equal(t, "Chapter 1 - duration: 120s / 0:02:00", withDelta("Chapter 1", 120, "duration"))
	assert.Equal(t, "Intro - offset: 30.5s / 0:00:30.5", withDelta("Intro", 30.5, "offset"))
}

func testBook(t *testing.T) *audiobook.Audiobook {
	t.Helper()
	book, err := audiobook.FromManifest(&domain.Manifest{
		Metadata: domain.Metadata{
			Title:    "The Test Book",
			Author:   domain.Authors{"Test Author"},
			Duration: 900,
		},
		ReadingOrder: []domain.AudioTrack{
			{Href: "part1.mp3", Title: "Part 1", Duration: 300},
			{Href: "part2.mp3", Title: "Part 2", Duration: 300},
			{Href: "part3.mp3", Title: "Part 3", Duration: 300},
		},
		ToC: []*domain.ToCEntry{
			{
				Href:  "part1.mp3#t=30",
				Title: "Chapter 1",
				Children: []*domain.ToCEntry{
					{Href: "part1.mp3#t=150", Title: "Section 1.1"},
				},
			},
			{Href: "part2.mp3#t=0", Title: "Chapter 2"},
			{Href: "part3.mp3#t=100", Title: "Chapter 3"},
		},
	})
	require.NoError(t, err)
	return book
}

func TestWriteSummary(t *testing.T) {
	var sb strings.Builder
	WriteSummary(&sb, testBook(t))
	out := sb.String()

	assert.Contains(t, out, `Title: "The Test Book" - duration: 900s / 0:15:00`)
	assert.Contains(t, out, "Audiobook ToC-based total duration - duration: 870s / 0:14:30")
	assert.Contains(t, out, "Number of tracks: 3 - total duration: 900s / 0:15:00")
	assert.Contains(t, out, "Audio segments: 5 - total duration: 870s / 0:14:30")
	assert.Contains(t, out, "<*> Un-played audio segments (before first ToC segment): 1 - total duration: 30s / 0:00:30")

	assert.Contains(t, out, "Tracks (from manifest `readingOrder`):")
	assert.Contains(t, out, `  #0 "Part 1" part1.mp3 - duration: 300s / 0:05:00`)

	assert.Contains(t, out, `Track "Part 1" part1.mp3 from 0 to 30 - duration: 30s / 0:00:30`)
	assert.Contains(t, out, `ToC Entry #0 "Chapter 1" - total duration: 120s / 0:02:00`)
	assert.Contains(t, out, "          href: part1.mp3#t=30 - offset: 30s / 0:00:30")

	// Nested entries are indented by depth.
	assert.Contains(t, out, `  ToC Entry #1 "Section 1.1" - total duration: 150s / 0:02:30`)
	assert.Contains(t, out, `Track "Part 1" part1.mp3 from 30 to 150 - duration: 120s / 0:02:00`)

	// The cross-track entry lists both of its segments.
	assert.Contains(t, out, `ToC Entry #2 "Chapter 2" - total duration: 400s / 0:06:40`)
	assert.Contains(t, out, `Track "Part 2" part2.mp3 from 0 to 300 - duration: 300s / 0:05:00`)
	assert.Contains(t, out, `Track "Part 3" part3.mp3 from 0 to 100 - duration: 100s / 0:01:40`)
}

func TestTrackTable(t *testing.T) {
	book := testBook(t)

	out := TrackTable(book)
	assert.Contains(t, out, "Part 1")
	assert.Contains(t, out, "part2.mp3")
	assert.Contains(t, out, "0:05:00")
	assert.NotContains(t, out, "Measured")

	book.Manifest.ReadingOrder[0].ActualDuration = 301.4
	out = TrackTable(book)
	assert.Contains(t, out, "Measured")
	assert.Contains(t, out, "301.4")
}

func TestTimelineTable(t *testing.T) {
	out := TimelineTable(testBook(t))

	assert.Contains(t, out, "Chapter 1")
	assert.Contains(t, out, "  Section 1.1")
	assert.Contains(t, out, "track 2 @ 100")
	assert.Contains(t, out, "0:06:40")
}

func TestBuild(t *testing.T) {
	r := Build(testBook(t))

	assert.Equal(t, "The Test Book", r.Title)
	assert.Equal(t, []string{"Test Author"}, r.Authors)
	assert.Equal(t, 870.0, r.TotalDuration)
	assert.Equal(t, 900.0, r.TotalTrackDuration)
	assert.Equal(t, 3, r.TrackCount)
	assert.Equal(t, 5, r.SegmentCount)
	assert.Equal(t, 30.0, r.UnplayedDuration)
	require.Len(t, r.Entries, 4)
	require.Len(t, r.Tracks, 3)
	assert.Equal(t, "part2.mp3", r.Tracks[1].Href)
	require.Len(t, r.UnplayedLeadingAudio, 1)
	assert.Equal(t, 30.0, r.UnplayedLeadingAudio[0].EndOffset)
}
