package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"audiotoc/config"
)

// HTTPDownloader handles downloading from generic HTTP URLs
type HTTPDownloader struct {
	client    *http.Client
	userAgent string
	auth      config.AuthConfig
}

// NewHTTPDownloader creates a new HTTP downloader. A nil config uses the
// defaults.
func NewHTTPDownloader(cfg *config.Config) *HTTPDownloader {
	timeout := 30 * time.Minute // Long timeout for large audio files
	userAgent := "audiotoc"
	auth := config.AuthConfig{}
	if cfg != nil {
		if cfg.Fetch.TimeoutMinutes > 0 {
			timeout = time.Duration(cfg.Fetch.TimeoutMinutes) * time.Minute
		}
		if cfg.Fetch.UserAgent != "" {
			userAgent = cfg.Fetch.UserAgent
		}
		auth = cfg.Fetch.Auth
	}
	return &HTTPDownloader{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
		auth:      auth,
	}
}

// SupportsURL checks if the URL is an HTTP/HTTPS URL
func (d *HTTPDownloader) SupportsURL(url string) bool {
	return strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://")
}

// Download downloads a file from an HTTP URL, reporting byte progress
// through the callback when the response declares its length.
func (d *HTTPDownloader) Download(ctx context.Context, downloadUrl, outputDir string, progressCallback ProgressCallback) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, downloadUrl, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", d.userAgent)
	switch d.auth.Type {
	case "bearer":
		req.Header.Set("Authorization", "Bearer "+d.auth.Token)
	case "basic":
		req.SetBasicAuth(d.auth.Username, d.auth.Password)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download failed with status: %d", resp.StatusCode)
	}

	filename := filenameForDownload(resp, downloadUrl)

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	// Create output file
	outputPath := filepath.Join(outputDir, filename)
	outFile, err := os.Create(outputPath)
	if err != nil {
		return "", fmt.Errorf("failed to create output file: %w", err)
	}
	defer outFile.Close()

	var writer io.Writer = outFile
	if progressCallback != nil && resp.ContentLength > 0 {
		writer = io.MultiWriter(outFile, &progressWriter{
			total:    resp.ContentLength,
			message:  fmt.Sprintf("Downloading %s", filename),
			callback: progressCallback,
		})
	}

	// Copy data
	bytesWritten, err := io.Copy(writer, resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to save file: %w", err)
	}

	// Basic validation - check if we actually downloaded something
	if bytesWritten == 0 {
		return "", fmt.Errorf("downloaded file is empty")
	}

	slog.Info("Downloaded file", "path", outputPath, "size", bytesWritten, "filename", filename)

	return outputPath, nil
}

// filenameForDownload derives the local filename from the
// Content-Disposition header, falling back to the URL path.
func filenameForDownload(resp *http.Response, downloadUrl string) string {
	filename := "download"
	if contentDisp := resp.Header.Get("Content-Disposition"); contentDisp != "" {
		// Try to extract filename from Content-Disposition header
		if idx := strings.Index(contentDisp, "filename="); idx != -1 {
			filename = strings.Trim(contentDisp[idx+9:], "\"")
		}
	} else {
		// Extract from URL
		if u, err := url.Parse(downloadUrl); err == nil && u.Path != "" {
			if name := filepath.Base(u.Path); name != "" && name != "." && name != "/" {
				filename = name
			}
		}
	}
	return filename
}

// progressWriter reports whole-percent progress as bytes pass through it.
type progressWriter struct {
	total       int64
	written     int64
	lastPercent int
	message     string
	callback    ProgressCallback
}

func (w *progressWriter) Write(p []byte) (int, error) {
	w.written += int64(len(p))
	percent := int(w.written * 100 / w.total)
	if percent > 100 {
		percent = 100
	}
	if percent != w.lastPercent {
		w.lastPercent = percent
		w.callback(percent, w.message, nil)
	}
	return len(p), nil
}
