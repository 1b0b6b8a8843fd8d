package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleManifest = `{
	"@context": "https://readium.org/webpub-manifest/context.jsonld",
	"metadata": {
		"@type": "https://schema.org/Audiobook",
		"identifier": "urn:isbn:9780000000001",
		"title": "The Test Book",
		"author": "Jane Writer",
		"publisher": "Test House",
		"language": "en",
		"duration": 300
	},
	"readingOrder": [
		{"title": "Part 1", "href": "part1.mp3", "type": "audio/mpeg", "duration": 100},
		{"title": "Part 2", "href": "part2.mp3", "type": "audio/mpeg", "duration": 200}
	],
	"toc": [
		{
			"href": "part1.mp3#t=0",
			"title": "Chapter 1",
			"children": [{"href": "part1.mp3#t=30", "title": "Section 1.1"}]
		},
		{"href": "part2.mp3#t=45.5", "title": "Chapter 2"}
	]
}`

func TestManifestDecode(t *testing.T) {
	var m Manifest
	require.NoError(t, json.Unmarshal([]byte(sampleManifest), &m))

	assert.Equal(t, "The Test Book", m.Metadata.Title)
	assert.Equal(t, Authors{"Jane Writer"}, m.Metadata.Author)
	assert.Equal(t, 300.0, m.Metadata.Duration)

	require.Len(t, m.ReadingOrder, 2)
	assert.Equal(t, "part1.mp3", m.ReadingOrder[0].Href)
	assert.Equal(t, 200.0, m.ReadingOrder[1].Duration)

	require.Len(t, m.ToC, 2)
	require.Len(t, m.ToC[0].Children, 1)
	assert.Equal(t, "Section 1.1", m.ToC[0].Children[0].Title)
}

func TestToCEntryFragmentParsing(t *testing.T) {
	tests := []struct {
		name       string
		href       string
		wantHref   string
		wantOffset float64
		wantErr    bool
	}{
		{
			name:       "integer offset",
			href:       "track1.mp3#t=120",
			wantHref:   "track1.mp3",
			wantOffset: 120,
		},
		{
			name:       "fractional offset",
			href:       "track2.mp3#t=45.5",
			wantHref:   "track2.mp3",
			wantOffset: 45.5,
		},
		{
			name:       "no fragment starts at zero",
			href:       "track3.mp3",
			wantHref:   "track3.mp3",
			wantOffset: 0,
		},
		{
			name:     "non-numeric fragment",
			href:     "track4.mp3#t=abc",
			wantHref: "track4.mp3",
			wantErr:  true,
		},
		{
			name:     "negative fragment",
			href:     "track5.mp3#t=-10",
			wantHref: "track5.mp3",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := &ToCEntry{Href: tt.href}
			assert.Equal(t, tt.wantHref, entry.TrackHref())

			offset, err := entry.StartOffset()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.wantOffset, offset)
		})
	}
}

func TestAuthorsDecodeVariants(t *testing.T) {
	tests := []struct {
		name string
		json string
		want Authors
	}{
		{"single string", `"Jane Writer"`, Authors{"Jane Writer"}},
		{"string list", `["Jane Writer", "John Scribe"]`, Authors{"Jane Writer", "John Scribe"}},
		{"object with name", `{"name": "Jane Writer"}`, Authors{"Jane Writer"}},
		{"object list", `[{"name": "Jane Writer"}, "John Scribe"]`, Authors{"Jane Writer", "John Scribe"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got Authors
			require.NoError(t, json.Unmarshal([]byte(tt.json), &got))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTrackIndex(t *testing.T) {
	m := &Manifest{
		ReadingOrder: []AudioTrack{
			{Href: "a.mp3", Duration: 10},
			{Href: "b.mp3", Duration: 20},
		},
	}

	i, ok := m.TrackIndex("b.mp3")
	assert.True(t, ok)
	assert.Equal(t, 1, i)

	_, ok = m.TrackIndex("missing.mp3")
	assert.False(t, ok)

	assert.Equal(t, 30.0, m.TotalTrackDuration())
}
