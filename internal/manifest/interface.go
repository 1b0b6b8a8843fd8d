package manifest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"audiotoc/config"
	"audiotoc/internal/domain"
)

// Importer loads an audiobook manifest from a given source.
type Importer interface {
	Import(ctx context.Context, source string) (*domain.Manifest, error)
	Name() string
}

const (
	SourceFile = "file"
	SourceHTTP = "http"
)

// Decode parses a manifest document and rejects ones with no audio.
func Decode(r io.Reader) (*domain.Manifest, error) {
	var m domain.Manifest
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, fmt.Errorf("failed to decode manifest: %w", err)
	}
	if len(m.ReadingOrder) == 0 {
		return nil, ErrEmptyReadingOrder
	}
	return &m, nil
}

// CompositeImporter tries multiple importers in sequence until one succeeds
type CompositeImporter struct {
	importers []Importer
}

func NewCompositeImporter(cfg *config.Config) *CompositeImporter {
	return &CompositeImporter{
		importers: []Importer{
			NewFileImporter(),
			NewHTTPImporter(cfg),
		},
	}
}

func (c *CompositeImporter) Name() string {
	return "composite"
}

func (c *CompositeImporter) Import(ctx context.Context, source string) (*domain.Manifest, error) {
	var errors []error
	for _, importer := range c.importers {
		m, err := importer.Import(ctx, source)
		if err == nil {
			return m, nil
		}
		errors = append(errors, fmt.Errorf("%s: %v", importer.Name(), err))
	}
	return nil, fmt.Errorf("all importers failed: %v", errors)
}

// NewImporter returns the importer used by the CLI and server: a composite
// that accepts both local manifest files and manifest URLs.
func NewImporter(cfg *config.Config) Importer {
	return NewCompositeImporter(cfg)
}

// ensureSelfLink records where the manifest came from unless the document
// already declares a self link.
func ensureSelfLink(m *domain.Manifest, source string) {
	if m.SelfLink() != "" {
		return
	}
	m.Links = append(m.Links, domain.Link{Rel: "self", Href: source})
}
