package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// fragmentMarker separates a ToC href's track portion from its temporal offset,
// per the W3C media fragment syntax used by RWPM audiobook manifests.
const fragmentMarker = "#t="

// AudioTrack is one audio file in the manifest's reading order.
type AudioTrack struct {
	Title    string  `json:"title,omitempty"`
	Href     string  `json:"href"`
	Type     string  `json:"type,omitempty"`
	Duration float64 `json:"duration"`
	Bitrate  float64 `json:"bitrate,omitempty"`

	// ActualDuration is the probed duration of the local audio file,
	// when one was available. Zero when the track was never probed.
	ActualDuration float64 `json:"-"`
}

// ToCEntry is a node of the manifest's table of contents. Its href names a
// track plus a starting offset ("chapter3.mp3#t=120"); the entry's end point
// is never declared and must be inferred from the entry that follows it.
type ToCEntry struct {
	Href     string      `json:"href"`
	Title    string      `json:"title,omitempty"`
	Children []*ToCEntry `json:"children,omitempty"`
}

// TrackHref returns the href with any temporal fragment removed.
func (e *ToCEntry) TrackHref() string {
	href, _, _ := strings.Cut(e.Href, fragmentMarker)
	return href
}

// StartOffset returns the offset in seconds from the href's temporal
// fragment. An href without a fragment starts at the beginning of its track.
func (e *ToCEntry) StartOffset() (float64, error) {
	_, fragment, ok := strings.Cut(e.Href, fragmentMarker)
	if !ok {
		return 0, nil
	}
	offset, err := strconv.ParseFloat(fragment, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid time fragment in toc href %q: %w", e.Href, err)
	}
	if offset < 0 {
		return 0, fmt.Errorf("negative time fragment in toc href %q", e.Href)
	}
	return offset, nil
}

// Authors holds the manifest's author field, which may be a single string,
// a list of strings, or objects carrying a name.
type Authors []string

func (a *Authors) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*a = Authors{single}
		return nil
	}
	var many []json.RawMessage
	if err := json.Unmarshal(data, &many); err != nil {
		many = []json.RawMessage{data}
	}
	names := make(Authors, 0, len(many))
	for _, raw := range many {
		var name string
		if err := json.Unmarshal(raw, &name); err == nil {
			names = append(names, name)
			continue
		}
		var obj struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(raw, &obj); err != nil {
			return fmt.Errorf("invalid author entry: %w", err)
		}
		names = append(names, obj.Name)
	}
	*a = names
	return nil
}

func (a Authors) String() string {
	return strings.Join(a, ", ")
}

// Metadata describes the publication. Dates are carried verbatim.
type Metadata struct {
	Type       string  `json:"@type,omitempty"`
	Identifier string  `json:"identifier,omitempty"`
	Title      string  `json:"title"`
	Author     Authors `json:"author,omitempty"`
	Publisher  string  `json:"publisher,omitempty"`
	Published  string  `json:"published,omitempty"`
	Language   string  `json:"language,omitempty"`
	Modified   string  `json:"modified,omitempty"`
	Duration   float64 `json:"duration,omitempty"`
}

// Link is a generic RWPM link object.
type Link struct {
	Href  string `json:"href"`
	Rel   string `json:"rel,omitempty"`
	Type  string `json:"type,omitempty"`
	Title string `json:"title,omitempty"`
}

// Manifest is a Readium Web Publication Manifest, Audiobook Profile.
type Manifest struct {
	Context      json.RawMessage `json:"@context,omitempty"`
	Metadata     Metadata        `json:"metadata"`
	Links        []Link          `json:"links,omitempty"`
	ReadingOrder []AudioTrack    `json:"readingOrder"`
	ToC          []*ToCEntry     `json:"toc,omitempty"`
}

// SelfLink returns the href of the manifest's rel=self link, or "" when the
// manifest does not carry one. Importers record the source there so that
// relative track hrefs can be resolved later.
func (m *Manifest) SelfLink() string {
	for _, l := range m.Links {
		if l.Rel == "self" {
			return l.Href
		}
	}
	return ""
}

// TrackIndex returns the reading-order position of the track with the given
// href, or false when no such track exists.
func (m *Manifest) TrackIndex(href string) (int, bool) {
	for i := range m.ReadingOrder {
		if m.ReadingOrder[i].Href == href {
			return i, true
		}
	}
	return -1, false
}

// TotalTrackDuration sums the declared durations of the reading order.
func (m *Manifest) TotalTrackDuration() float64 {
	var total float64
	for _, t := range m.ReadingOrder {
		total += t.Duration
	}
	return total
}
