package server

import (
	"archive/zip"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	// Default TTL for staged track downloads
	DefaultFileTTL = 24 * time.Hour

	// Cleanup interval for stale files
	CleanupInterval = 2 * time.Hour
)

// StartCleanupWorker starts a background worker to clean up stale downloads
func (s *Server) StartCleanupWorker() {
	ticker := time.NewTicker(CleanupInterval)
	go func() {
		defer ticker.Stop()
		for range ticker.C {
			s.cleanupOldFiles()
		}
	}()
	slog.Info("File cleanup worker started", "interval", CleanupInterval)
}

// cleanupOldFiles removes staged book directories older than TTL
func (s *Server) cleanupOldFiles() {
	tempDir := s.cfg.TempDir
	if _, err := os.Stat(tempDir); os.IsNotExist(err) {
		return
	}

	cutoffTime := time.Now().Add(-DefaultFileTTL)
	slog.Debug("Starting cleanup of stale files", "cutoff", cutoffTime)

	entries, err := os.ReadDir(tempDir)
	if err != nil {
		slog.Error("Failed to read temp directory", "error", err)
		return
	}

	cleaned := 0
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		bookDir := filepath.Join(tempDir, entry.Name())
		info, err := entry.Info()
		if err != nil {
			continue
		}

		if info.ModTime().Before(cutoffTime) {
			if err := os.RemoveAll(bookDir); err != nil {
				slog.Error("Failed to remove stale book directory", "dir", bookDir, "error", err)
			} else {
				slog.Debug("Cleaned up stale book directory", "dir", bookDir, "age", time.Since(info.ModTime()))
				cleaned++
			}
		}
	}

	if cleaned > 0 {
		slog.Info("Cleanup completed", "directories_cleaned", cleaned)
	}
}

// SanitizeFilename sanitizes a filename by removing invalid characters
func SanitizeFilename(name string) string {
	// Replace invalid characters with underscores
	invalid := []string{"/", "\\", ":", "*", "?", "\"", "<", ">", "|", "\n", "\r", "\t"}
	result := name
	for _, char := range invalid {
		result = strings.ReplaceAll(result, char, "_")
	}

	// Remove leading and trailing spaces and dots
	result = strings.Trim(result, " .")

	// Ensure the filename is not empty
	if result == "" {
		result = "untitled"
	}

	return result
}

// addFileToZip adds a single file to the ZIP archive under its base name
func addFileToZip(zipWriter *zip.Writer, filePath string) error {
	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open file %s: %w", filePath, err)
	}
	defer file.Close()

	zipEntry, err := zipWriter.Create(filepath.Base(filePath))
	if err != nil {
		return fmt.Errorf("failed to create ZIP entry: %w", err)
	}

	if _, err := io.Copy(zipEntry, file); err != nil {
		return fmt.Errorf("failed to write file to ZIP: %w", err)
	}

	return nil
}
