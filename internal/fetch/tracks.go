package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"audiotoc/internal/domain"
)

// TrackLocalPath returns where a track's audio file lives inside dir. A
// relative href keeps its path structure; an absolute URL contributes only
// its final path element.
func TrackLocalPath(dir, href string) string {
	rel := href
	if u, err := url.Parse(href); err == nil {
		if u.IsAbs() {
			rel = path.Base(u.Path)
		} else if u.Path != "" {
			rel = u.Path
		}
	}
	rel = strings.TrimPrefix(rel, "/")
	if rel == "" || rel == "." {
		rel = "track"
	}
	return filepath.Join(dir, filepath.FromSlash(rel))
}

// EnsureTracks makes every reading-order track available under dir and
// returns the local path for each track, in reading order. Tracks already
// present are kept; missing ones are downloaded, resolving relative hrefs
// against the manifest's self link.
func EnsureTracks(ctx context.Context, downloader Downloader, m *domain.Manifest, dir string, progressCallback ProgressCallback) ([]string, error) {
	var base *url.URL
	if self := m.SelfLink(); strings.HasPrefix(self, "http://") || strings.HasPrefix(self, "https://") {
		parsed, err := url.Parse(self)
		if err != nil {
			return nil, fmt.Errorf("invalid manifest self link %q: %w", self, err)
		}
		base = parsed
	}

	paths := make([]string, len(m.ReadingOrder))
	for i, track := range m.ReadingOrder {
		localPath := TrackLocalPath(dir, track.Href)
		if info, err := os.Stat(localPath); err == nil && info.Size() > 0 {
			paths[i] = localPath
			continue
		}

		trackURL, err := resolveTrackURL(base, track.Href)
		if err != nil {
			return nil, fmt.Errorf("track %d (%s): %w", i, track.Href, err)
		}

		slog.Info("Fetching track", "index", i, "url", trackURL)
		trackCallback := progressCallback
		if progressCallback != nil {
			trackIndex := i
			// Scale the per-track percentage into overall progress.
			trackCallback = func(pct int, message string, data []byte) {
				progressCallback((trackIndex*100+pct)/len(m.ReadingOrder), message, data)
			}
		}
		downloadedPath, err := downloader.Download(ctx, trackURL, filepath.Dir(localPath), trackCallback)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch track %d (%s): %w", i, track.Href, err)
		}

		// The server may suggest a different filename; keep the manifest's.
		if downloadedPath != localPath {
			if err := os.Rename(downloadedPath, localPath); err != nil {
				return nil, fmt.Errorf("failed to place track %d: %w", i, err)
			}
		}

		if err := validateAudioFile(localPath); err != nil {
			return nil, fmt.Errorf("track %d validation failed: %w", i, err)
		}

		paths[i] = localPath
	}
	return paths, nil
}

func resolveTrackURL(base *url.URL, href string) (string, error) {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href, nil
	}
	if base == nil {
		return "", fmt.Errorf("relative href and no manifest URL to resolve against")
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("invalid track href: %w", err)
	}
	return base.ResolveReference(ref).String(), nil
}

// validateAudioFile performs basic validation to ensure the downloaded file is likely an audio file
func validateAudioFile(filePath string) error {
	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open file for validation: %w", err)
	}
	defer file.Close()

	// Read first 512 bytes to check file signature
	buffer := make([]byte, 512)
	n, err := file.Read(buffer)
	if err != nil && err != io.EOF {
		return fmt.Errorf("failed to read file header: %w", err)
	}

	if n < 4 {
		return fmt.Errorf("file too small to be a valid audio file")
	}

	// Check for common audio file signatures
	header := buffer[:n]

	// MP3 signatures
	if header[0] == 0xFF && (header[1]&0xE0) == 0xE0 {
		return nil // MP3 frame header
	}
	if string(header[:3]) == "ID3" {
		return nil // MP3 with ID3 tag
	}

	// Other audio formats
	if string(header[:4]) == "RIFF" {
		return nil // WAV
	}
	if string(header[:4]) == "fLaC" {
		return nil // FLAC
	}
	if string(header[:4]) == "OggS" {
		return nil // OGG
	}
	if len(header) >= 8 && string(header[4:8]) == "ftyp" {
		return nil // M4A/MP4
	}

	// Check if it looks like HTML/text (common when download fails)
	checkLen := len(header)
	if checkLen > 100 {
		checkLen = 100
	}
	headerStr := strings.ToLower(string(header[:checkLen]))
	if strings.Contains(headerStr, "<html") || strings.Contains(headerStr, "<!doctype") {
		return fmt.Errorf("downloaded file appears to be HTML, not an audio file - check the download URL")
	}

	// Log warning but don't fail - let ffmpeg try to handle it
	headerLen := len(header)
	if headerLen > 16 {
		headerLen = 16
	}
	slog.Warn("Could not verify audio file format, proceeding anyway", "path", filePath, "header", fmt.Sprintf("%x", header[:headerLen]))
	return nil
}
