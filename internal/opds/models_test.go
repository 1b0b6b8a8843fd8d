package opds

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelsUnmarshal(t *testing.T) {
	var link Link
	require.NoError(t, json.Unmarshal([]byte(`{"href": "/a", "rel": "self"}`), &link))
	assert.True(t, link.Rel.Contains("self"))

	require.NoError(t, json.Unmarshal([]byte(`{"href": "/a", "rel": ["self", "next"]}`), &link))
	assert.True(t, link.Rel.Contains("self"))
	assert.True(t, link.Rel.Contains("next"))
	assert.False(t, link.Rel.Contains("previous"))

	assert.Error(t, json.Unmarshal([]byte(`{"href": "/a", "rel": 7}`), &link))
}

func TestContributorsUnmarshal(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"bare string", `"Ursula K. Le Guin"`, "Ursula K. Le Guin"},
		{"object", `{"name": "Ursula K. Le Guin"}`, "Ursula K. Le Guin"},
		{"string list", `["A. Author", "B. Author"]`, "A. Author, B. Author"},
		{"object list", `[{"name": "A. Author"}, {"name": "B. Author"}]`, "A. Author, B. Author"},
		{"mixed list", `["A. Author", {"name": "B. Author"}]`, "A. Author, B. Author"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var contributors Contributors
			require.NoError(t, json.Unmarshal([]byte(tc.in), &contributors))
			assert.Equal(t, tc.want, contributors.String())
		})
	}
}

func TestManifestLink(t *testing.T) {
	publication := Publication{
		Links: []Link{
			{Href: "/cover.jpg", Rel: Rels{"cover"}},
			{Href: "/borrow", Rel: Rels{BorrowRel}, Type: "application/epub+zip"},
			{Href: "/manifest.json", Rel: Rels{AcquisitionOpenAccessRel}, Type: AudiobookManifestType},
		},
	}
	assert.Equal(t, "/manifest.json", publication.ManifestLink())
	assert.True(t, publication.IsAudiobook())
	assert.Len(t, publication.AcquisitionLinks(), 2)

	// Untyped open-access links still count as a manifest source.
	publication = Publication{
		Links: []Link{{Href: "/download", Rel: Rels{AcquisitionOpenAccessRel}}},
	}
	assert.Equal(t, "/download", publication.ManifestLink())
	assert.False(t, publication.IsAudiobook())

	publication = Publication{
		Metadata: PublicationMetadata{Type: AudiobookSchemaType},
		Links:    []Link{{Href: "/borrow", Rel: Rels{BorrowRel}}},
	}
	assert.Equal(t, "", publication.ManifestLink())
	assert.True(t, publication.IsAudiobook())
}

func TestNextPageURL(t *testing.T) {
	feed := Feed{
		Links: []Link{
			{Href: "/catalog?page=2", Rel: Rels{"self"}},
			{Href: "/catalog?page=3", Rel: Rels{"next"}},
		},
	}
	assert.Equal(t, "/catalog?page=3", feed.NextPageURL())

	feed.Links = feed.Links[:1]
	assert.Equal(t, "", feed.NextPageURL())
}
