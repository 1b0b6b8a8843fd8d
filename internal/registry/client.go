// Package registry looks up library OPDS catalogs in a library registry,
// such as the Palace Project registry. The registry's /libraries endpoint is
// an OPDS 2.0 catalog feed; each entry carries the library's catalog and
// authentication document links.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"audiotoc/config"
)

const (
	CatalogRel  = "http://opds-spec.org/catalog"
	AuthDocRel  = "http://opds-spec.org/auth/document"
	AuthDocType = "application/vnd.opds.authentication.v1.0+json"
	OPDSType    = "application/opds+json"
)

// Link is one link object in a registry catalog entry.
type Link struct {
	Href string `json:"href"`
	Rel  string `json:"rel,omitempty"`
	Type string `json:"type,omitempty"`
}

// Library is one catalog entry from the registry's /libraries feed.
type Library struct {
	Metadata struct {
		Title       string `json:"title"`
		Description string `json:"description,omitempty"`
	} `json:"metadata"`
	Links []Link `json:"links"`
}

// CatalogURL returns the library's OPDS catalog link, or "" when the entry
// carries none.
func (l *Library) CatalogURL() string {
	for _, link := range l.Links {
		if link.Rel == CatalogRel || link.Type == OPDSType {
			return link.Href
		}
	}
	return ""
}

// AuthDocURL returns the library's authentication document link, or "".
func (l *Library) AuthDocURL() string {
	for _, link := range l.Links {
		if link.Rel == AuthDocRel || link.Type == AuthDocType {
			return link.Href
		}
	}
	return ""
}

// Client queries a library registry over HTTP.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client

	// IncludeHidden also lists libraries the registry does not show
	// publicly (the /libraries/qa endpoint).
	IncludeHidden bool
}

// NewClient creates a registry client for the configured registry URL.
func NewClient(cfg *config.Config) *Client {
	baseURL := ""
	userAgent := "audiotoc"
	if cfg != nil {
		baseURL = cfg.Registry.URL
		if cfg.Fetch.UserAgent != "" {
			userAgent = cfg.Fetch.UserAgent
		}
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		userAgent:  userAgent,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) librariesURL() string {
	url := c.baseURL + "/libraries"
	if c.IncludeHidden {
		url += "/qa"
	}
	return url
}

// Libraries fetches every library the registry lists.
func (c *Client) Libraries(ctx context.Context) ([]Library, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.librariesURL(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", OPDSType)
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to query registry: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var result struct {
		Catalogs []Library `json:"catalogs"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode registry response: %w", err)
	}

	return result.Catalogs, nil
}

// FindLibrary returns the registry entry whose title matches name,
// ignoring case and surrounding whitespace.
func (c *Client) FindLibrary(ctx context.Context, name string) (*Library, error) {
	libraries, err := c.Libraries(ctx)
	if err != nil {
		return nil, err
	}

	want := forLookup(name)
	for i := range libraries {
		if forLookup(libraries[i].Metadata.Title) == want {
			return &libraries[i], nil
		}
	}
	return nil, fmt.Errorf("library %q not found in registry", name)
}

func forLookup(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
