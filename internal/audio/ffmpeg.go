// Package audio processes audiobook files using FFmpeg. It probes track
// durations with ffprobe, cuts chapter files along resolved timeline
// segments, and attaches metadata and cover art to the results.
package audio

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"audiotoc/internal/timeline"
)

// Supported audio file extensions and their corresponding FFmpeg codecs and formats
var (
	supportedExtensions = map[string]struct {
		codec  string
		format string
	}{
		"mp3":  {"libmp3lame", "mp3"},
		"m4a":  {"aac", "mp4"},
		"wav":  {"pcm_s16le", "wav"},
		"flac": {"flac", "flac"},
	}

	// Default audio settings
	defaultAudioBitrate = "128k"
	defaultID3Version   = "3"
)

var (
	ErrFileNotFound     = fmt.Errorf("file not found")
	ErrFileEmpty        = fmt.Errorf("file is empty")
	ErrInvalidPath      = fmt.Errorf("invalid path")
	ErrInvalidExtension = fmt.Errorf("invalid file extension")
	ErrNoAudio          = fmt.Errorf("no audio to export")
)

// ffmpegError wraps FFmpeg command errors with additional context
type ffmpegError struct {
	cmd     string
	output  string
	wrapped error
}

func (e *ffmpegError) Error() string {
	return fmt.Sprintf("ffmpeg error: %s\nCommand: %s\nOutput: %s", e.wrapped, e.cmd, e.output)
}

func (e *ffmpegError) Unwrap() error {
	return e.wrapped
}

// newFFmpegError creates a new ffmpegError with truncated command output
func newFFmpegError(cmd *exec.Cmd, output []byte, err error) error {
	cmdStr := cmd.String()
	if len(cmdStr) > 200 {
		cmdStr = cmdStr[:200] + "..."
	}
	return &ffmpegError{
		cmd:     cmdStr,
		output:  string(output),
		wrapped: err,
	}
}

type ffmpeg struct{}

func NewFFMPEGEngine() *ffmpeg {
	return &ffmpeg{}
}

func (f *ffmpeg) validateFile(path string) error {
	fileInfo, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return fmt.Errorf("unable to access file: %s: %w", path, err)
	}

	if fileInfo.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrInvalidPath, path)
	}

	if fileInfo.Size() == 0 {
		return fmt.Errorf("%w: %s", ErrFileEmpty, path)
	}

	return nil
}

// Probe returns the duration of an audio file in seconds, as reported by
// ffprobe.
func (f *ffmpeg) Probe(ctx context.Context, path string) (float64, error) {
	if err := f.validateFile(path); err != nil {
		return 0, fmt.Errorf("probe failed: %w", err)
	}

	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		path,
	)

	output, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		return 0, fmt.Errorf("ffprobe failed for %s: %w", path, err)
	}

	return parseProbeDuration(output)
}

type probeOutput struct {
	Format probeFormat `json:"format"`
}

type probeFormat struct {
	FormatName string `json:"format_name"`
	Duration   string `json:"duration"`
}

func parseProbeDuration(output []byte) (float64, error) {
	var data probeOutput
	if err := json.Unmarshal(output, &data); err != nil {
		return 0, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	if data.Format.Duration == "" {
		return 0, fmt.Errorf("ffprobe reported no duration")
	}

	duration, err := strconv.ParseFloat(data.Format.Duration, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid ffprobe duration %q: %w", data.Format.Duration, err)
	}

	return duration, nil
}

// ExtractCoverArt extracts the cover art from the input file and saves it to the coverPath
func (f *ffmpeg) ExtractCoverArt(ctx context.Context, inputPath, coverPath string) error {
	slog.Debug("Extracting cover art", "input", inputPath, "output", coverPath)

	if err := f.validateFile(inputPath); err != nil {
		return fmt.Errorf("cover art extraction failed: %w", err)
	}

	outputDir := filepath.Dir(coverPath)
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-y",
		"-i", inputPath,
		"-map", "0:v:0",
		"-c:v", "mjpeg",
		"-vframes", "1",
		coverPath,
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return newFFmpegError(cmd, output, err)
	}

	return nil
}

// sanitizePath ensures the path is safe and returns an absolute path
func (f *ffmpeg) sanitizePath(path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}

	// Allow temporary files (system temp directory)
	tempDir := os.TempDir()
	if tempDir != "" {
		absTempDir, err := filepath.Abs(tempDir)
		if err == nil && strings.HasPrefix(absPath, absTempDir) {
			return absPath, nil
		}
	}

	// Allow paths within the working directory
	baseDir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}

	if strings.HasPrefix(absPath, baseDir) {
		return absPath, nil
	}

	// Check for path traversal attempts
	if strings.Contains(path, "..") {
		return "", fmt.Errorf("%w: path contains '..' which is not allowed", ErrInvalidPath)
	}

	// For output directories, allow if they're absolute paths without traversal
	if filepath.IsAbs(path) && !strings.Contains(path, "..") {
		return absPath, nil
	}

	return "", fmt.Errorf("%w: path must be within the working directory or a safe absolute path", ErrInvalidPath)
}

// createTempFile creates a temporary file in the system's temp directory
func (f *ffmpeg) createTempFile(extension string) (string, error) {
	const prefix = "audiotoc_part"

	tempFile, err := os.CreateTemp("", prefix+"_*."+extension)
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file: %w", err)
	}
	tempPath := tempFile.Name()
	tempFile.Close()
	return tempPath, nil
}

// ExportChapter cuts the chapter's segments out of their tracks, joins them
// when the chapter spans more than one track, and writes the result with
// metadata and optional cover art.
func (f *ffmpeg) ExportChapter(ctx context.Context, cp ChapterParams) error {
	if _, ok := supportedExtensions[cp.FileExtension]; !ok {
		return fmt.Errorf("%w: %s", ErrInvalidExtension, cp.FileExtension)
	}

	if cp.CoverArtPath != "" {
		if err := f.validateFile(cp.CoverArtPath); err != nil {
			return fmt.Errorf("cover art validation failed: %w", err)
		}
	}

	sanitizedOutputPath, err := f.sanitizePath(cp.OutputPath)
	if err != nil {
		return fmt.Errorf("invalid output path: %w", err)
	}

	var tempFiles []string
	defer func() {
		for _, path := range tempFiles {
			os.Remove(path)
		}
	}()

	var parts []string
	for _, segment := range cp.Segments {
		// Zero-length segments carry no audio.
		if segment.Duration() == 0 {
			continue
		}
		if segment.TrackIndex < 0 || segment.TrackIndex >= len(cp.TrackPaths) {
			return fmt.Errorf("segment references track %d but only %d track files are available",
				segment.TrackIndex, len(cp.TrackPaths))
		}

		inputPath := cp.TrackPaths[segment.TrackIndex]
		if err := f.validateFile(inputPath); err != nil {
			return fmt.Errorf("chapter export failed: %w", err)
		}

		partPath, err := f.createTempFile(cp.FileExtension)
		if err != nil {
			return err
		}
		tempFiles = append(tempFiles, partPath)

		if err := f.extractSegment(ctx, inputPath, segment, partPath); err != nil {
			return err
		}
		parts = append(parts, partPath)
	}

	if len(parts) == 0 {
		return fmt.Errorf("%w: chapter %q", ErrNoAudio, cp.Title)
	}

	mergedPath := parts[0]
	if len(parts) > 1 {
		mergedPath, err = f.createTempFile(cp.FileExtension)
		if err != nil {
			return err
		}
		tempFiles = append(tempFiles, mergedPath)

		if err := f.concatParts(ctx, parts, mergedPath); err != nil {
			return err
		}
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	finalPath := fmt.Sprintf("%s.%s", sanitizedOutputPath, cp.FileExtension)
	return f.addMetadataAndCover(ctx, mergedPath, finalPath, cp)
}

func (f *ffmpeg) extractSegment(ctx context.Context, inputPath string, segment timeline.Segment, outputPath string) error {
	slog.Debug("Extracting audio segment",
		"input", inputPath,
		"output", outputPath,
		"start", fmt.Sprintf("%.3f", segment.StartOffset),
		"duration", fmt.Sprintf("%.3f", segment.Duration()),
	)

	ext := filepath.Ext(outputPath)
	if ext != "" {
		ext = ext[1:] // Remove the leading dot
	}

	codecInfo, ok := supportedExtensions[strings.ToLower(ext)]
	if !ok {
		return fmt.Errorf("%w: %s", ErrInvalidExtension, ext)
	}

	args := []string{
		"-y",
		"-i", inputPath,
		"-ss", fmt.Sprintf("%.3f", segment.StartOffset),
		"-t", fmt.Sprintf("%.3f", segment.Duration()),
		"-map", "0:a",
		"-c:a", codecInfo.codec,
		"-f", codecInfo.format,
		"-b:a", defaultAudioBitrate,
		"-af", "aresample=async=1",
		"-movflags", "+faststart",
		"-id3v2_version", defaultID3Version,
		outputPath,
	}

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return newFFmpegError(cmd, output, err)
	}

	return nil
}

// concatParts joins already-encoded parts with the concat demuxer. The parts
// share a codec, so the streams are copied rather than re-encoded.
func (f *ffmpeg) concatParts(ctx context.Context, parts []string, outputPath string) error {
	slog.Debug("Joining chapter parts", "parts", len(parts), "output", outputPath)

	listFile, err := os.CreateTemp("", "audiotoc_concat_*.txt")
	if err != nil {
		return fmt.Errorf("failed to create concat list: %w", err)
	}
	defer os.Remove(listFile.Name())

	for _, part := range parts {
		escaped := strings.ReplaceAll(part, "'", `'\''`)
		if _, err := fmt.Fprintf(listFile, "file '%s'\n", escaped); err != nil {
			listFile.Close()
			return fmt.Errorf("failed to write concat list: %w", err)
		}
	}
	if err := listFile.Close(); err != nil {
		return fmt.Errorf("failed to close concat list: %w", err)
	}

	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listFile.Name(),
		"-c", "copy",
		outputPath,
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return newFFmpegError(cmd, output, err)
	}

	return nil
}

func (f *ffmpeg) addMetadataAndCover(ctx context.Context, inputPath, outputPath string, cp ChapterParams) error {
	slog.Debug("Adding metadata and cover art",
		"input", inputPath,
		"output", outputPath,
		"chapter", cp.Title,
	)

	outputDir := filepath.Dir(outputPath)
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	ext := filepath.Ext(outputPath)
	if ext != "" {
		ext = ext[1:] // Remove the leading dot
	}

	codecInfo, ok := supportedExtensions[strings.ToLower(ext)]
	if !ok {
		return fmt.Errorf("%w: %s", ErrInvalidExtension, ext)
	}

	hasCover := cp.CoverArtPath != ""

	args := []string{
		"-y",
		"-i", inputPath,
	}
	if hasCover {
		args = append(args, "-i", cp.CoverArtPath)
	}
	args = append(args, "-map", "0:a")
	if hasCover {
		args = append(args,
			"-map", "1:v",
			"-c:v", "mjpeg",
			"-disposition:v:0", "attached_pic",
		)
	}
	args = append(args,
		"-c:a", "copy",
		"-f", codecInfo.format,
		"-movflags", "+faststart",
		"-id3v2_version", defaultID3Version,
	)

	// Add standard metadata
	metadata := map[string]string{
		"album_artist": cp.Artist,
		"artist":       cp.Artist,
		"title":        cp.Title,
		"track":        fmt.Sprintf("%d/%d", cp.TrackNumber, cp.TrackCount),
		"album":        cp.Album,
		"genre":        "Audiobook",
	}
	for k, v := range metadata {
		args = append(args, "-metadata", fmt.Sprintf("%s=%s", k, v))
	}

	if hasCover {
		// Add video stream metadata
		videoMetadata := map[string]string{
			"title":   "Album cover",
			"comment": "Cover (front)",
		}
		for k, v := range videoMetadata {
			args = append(args, "-metadata:s:v", fmt.Sprintf("%s=%s", k, v))
		}
	}

	args = append(args, outputPath)

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return newFFmpegError(cmd, output, err)
	}

	return nil
}
