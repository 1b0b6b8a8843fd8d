// Package opds models OPDS 2.0 catalog feeds and harvests audiobook
// publications from them, following pagination until the catalog is
// exhausted.
//
// https://drafts.opds.io/opds-2.0.html
package opds

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	FeedType = "application/opds+json"

	AcquisitionRel           = "http://opds-spec.org/acquisition"
	AcquisitionOpenAccessRel = "http://opds-spec.org/acquisition/open-access"
	BorrowRel                = "http://opds-spec.org/acquisition/borrow"

	AudiobookManifestType = "application/audiobook+json"
	WebPubManifestType    = "application/webpub+json"
	AudiobookSchemaType   = "http://schema.org/Audiobook"
)

// Rels holds a link's rel field, which may be a single string or a list.
type Rels []string

func (r *Rels) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*r = Rels{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("invalid rel value: %w", err)
	}
	*r = many
	return nil
}

// Contains reports whether rel is one of the link's rels.
func (r Rels) Contains(rel string) bool {
	for _, candidate := range r {
		if candidate == rel {
			return true
		}
	}
	return false
}

// Link is an OPDS link object.
type Link struct {
	Href       string          `json:"href"`
	Rel        Rels            `json:"rel,omitempty"`
	Type       string          `json:"type,omitempty"`
	Title      string          `json:"title,omitempty"`
	Properties json.RawMessage `json:"properties,omitempty"`
}

// IsAcquisition reports whether the link offers the publication's content.
func (l Link) IsAcquisition() bool {
	return l.Rel.Contains(AcquisitionRel) ||
		l.Rel.Contains(AcquisitionOpenAccessRel) ||
		l.Rel.Contains(BorrowRel)
}

// Contributor holds an author or narrator entry, which may appear as a bare
// string, an object with a name, or a list of either.
type Contributor struct {
	Name string `json:"name"`
}

type Contributors []Contributor

func (c *Contributors) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*c = Contributors{{Name: single}}
		return nil
	}
	var one Contributor
	if err := json.Unmarshal(data, &one); err == nil && one.Name != "" {
		*c = Contributors{one}
		return nil
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("invalid contributor value: %w", err)
	}
	out := make(Contributors, 0, len(raw))
	for _, item := range raw {
		var name string
		if err := json.Unmarshal(item, &name); err == nil {
			out = append(out, Contributor{Name: name})
			continue
		}
		var obj Contributor
		if err := json.Unmarshal(item, &obj); err != nil {
			return fmt.Errorf("invalid contributor entry: %w", err)
		}
		out = append(out, obj)
	}
	*c = out
	return nil
}

func (c Contributors) String() string {
	names := make([]string, len(c))
	for i, contributor := range c {
		names[i] = contributor.Name
	}
	return strings.Join(names, ", ")
}

// PublicationMetadata describes one publication in a feed.
type PublicationMetadata struct {
	Type        string       `json:"@type,omitempty"`
	Identifier  string       `json:"identifier,omitempty"`
	Title       string       `json:"title"`
	Author      Contributors `json:"author,omitempty"`
	Narrator    Contributors `json:"narrator,omitempty"`
	Language    string       `json:"language,omitempty"`
	Modified    string       `json:"modified,omitempty"`
	Published   string       `json:"published,omitempty"`
	Description string       `json:"description,omitempty"`
	Duration    float64      `json:"duration,omitempty"`
}

// Publication is one catalog entry.
type Publication struct {
	Metadata PublicationMetadata `json:"metadata"`
	Links    []Link              `json:"links"`
	Images   []Link              `json:"images,omitempty"`
}

// AcquisitionLinks returns the publication's acquisition links, in feed order.
func (p *Publication) AcquisitionLinks() []Link {
	var matches []Link
	for _, link := range p.Links {
		if link.IsAcquisition() {
			matches = append(matches, link)
		}
	}
	return matches
}

// ManifestLink returns the href of the acquisition link that serves an
// audiobook manifest, preferring a direct manifest type over an untyped
// open-access link. Returns "" when the publication offers none.
func (p *Publication) ManifestLink() string {
	acquisitions := p.AcquisitionLinks()
	for _, link := range acquisitions {
		if link.Type == AudiobookManifestType || link.Type == WebPubManifestType {
			return link.Href
		}
	}
	for _, link := range acquisitions {
		if link.Rel.Contains(AcquisitionOpenAccessRel) {
			return link.Href
		}
	}
	return ""
}

// IsAudiobook reports whether the entry is an audiobook, by schema type or
// by offering an audiobook manifest.
func (p *Publication) IsAudiobook() bool {
	if p.Metadata.Type == AudiobookSchemaType {
		return true
	}
	for _, link := range p.AcquisitionLinks() {
		if link.Type == AudiobookManifestType {
			return true
		}
	}
	return false
}

// FeedMetadata describes a feed page.
type FeedMetadata struct {
	Title         string `json:"title,omitempty"`
	NumberOfItems int    `json:"numberOfItems,omitempty"`
	ItemsPerPage  int    `json:"itemsPerPage,omitempty"`
}

// Feed is one page of an OPDS 2.0 catalog.
type Feed struct {
	Metadata     FeedMetadata  `json:"metadata"`
	Links        []Link        `json:"links,omitempty"`
	Publications []Publication `json:"publications,omitempty"`
	Navigation   []Link        `json:"navigation,omitempty"`
}

// NextPageURL returns the feed's rel=next link, or "" on the last page.
func (f *Feed) NextPageURL() string {
	for _, link := range f.Links {
		if link.Rel.Contains("next") {
			return link.Href
		}
	}
	return ""
}
