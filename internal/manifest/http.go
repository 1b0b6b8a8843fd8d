package manifest

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"audiotoc/config"
	"audiotoc/internal/domain"
)

const acceptHeader = "application/audiobook+json, application/webpub+json;q=0.9, application/json;q=0.8, */*;q=0.1"

// HTTPImporter fetches manifests from HTTP and HTTPS URLs.
type HTTPImporter struct {
	client    *http.Client
	userAgent string
	auth      config.AuthConfig
}

func NewHTTPImporter(cfg *config.Config) *HTTPImporter {
	userAgent := "audiotoc"
	auth := config.AuthConfig{}
	if cfg != nil {
		if cfg.Fetch.UserAgent != "" {
			userAgent = cfg.Fetch.UserAgent
		}
		auth = cfg.Fetch.Auth
	}
	return &HTTPImporter{
		client:    &http.Client{Timeout: 30 * time.Second},
		userAgent: userAgent,
		auth:      auth,
	}
}

func (h *HTTPImporter) Name() string {
	return SourceHTTP
}

func (h *HTTPImporter) Import(ctx context.Context, source string) (*domain.Manifest, error) {
	if !strings.HasPrefix(source, "http://") && !strings.HasPrefix(source, "https://") {
		return nil, fmt.Errorf("%w: %s is not an HTTP URL", ErrUnsupportedSource, source)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("User-Agent", h.userAgent)
	setAuthHeader(req, h.auth)

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch manifest: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("manifest fetch failed with status: %d", resp.StatusCode)
	}

	m, err := Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse manifest from %s: %w", source, err)
	}
	ensureSelfLink(m, source)

	slog.Debug("Imported manifest over HTTP",
		"url", source,
		"title", m.Metadata.Title,
		"tracks", len(m.ReadingOrder))

	return m, nil
}

func setAuthHeader(req *http.Request, auth config.AuthConfig) {
	switch auth.Type {
	case "bearer":
		req.Header.Set("Authorization", "Bearer "+auth.Token)
	case "basic":
		req.SetBasicAuth(auth.Username, auth.Password)
	}
}
