package audiobook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/k0kubun/go-ansi"
	"github.com/schollz/progressbar/v3"

	"audiotoc/config"
	"audiotoc/internal/audio"
	"audiotoc/internal/fetch"
	"audiotoc/internal/manifest"
	"audiotoc/internal/progress"
	"audiotoc/internal/storage"
	"audiotoc/internal/timeline"
)

const defaultMaxWorkers = 4

// Processor runs the full pipeline: import the manifest, make the track
// files available, resolve the timeline against measured durations, and cut
// one audio file per ToC entry.
type Processor struct {
	importer manifest.Importer
	audio    audio.Processor
	store    storage.Storage
	cfg      *config.Config
}

func NewProcessor(ctx context.Context, cfg *config.Config) (*Processor, error) {
	store, err := storage.New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Processor{
		importer: manifest.NewImporter(cfg),
		audio:    audio.NewFFMPEGEngine(),
		store:    store,
		cfg:      cfg,
	}, nil
}

// ProcessingOptions control one export run.
type ProcessingOptions struct {
	// Source is the manifest file path or URL. Ignored when RawManifest is
	// set.
	Source string

	// RawManifest is an inline manifest document.
	RawManifest json.RawMessage

	// AudioDir points at already-downloaded track files. When empty the
	// tracks are fetched into the storage backend's track directory.
	AudioDir string

	FileExtension      string
	MaxConcurrentTasks int

	// Tracker receives progress events during the run. May be nil.
	Tracker *progress.Tracker

	// OnBook is called once the manifest has been imported, before any
	// audio work starts. May be nil.
	OnBook func(title string, chapters int)
}

func (p *Processor) emit(opts *ProcessingOptions, stage progress.Stage, pct float64, message string) {
	if opts.Tracker != nil {
		opts.Tracker.UpdateProgress(stage, pct, message, nil)
	}
}

// ProcessChapters runs the pipeline and returns the exported file paths in
// chapter order.
func (p *Processor) ProcessChapters(ctx context.Context, opts *ProcessingOptions) ([]string, error) {
	p.emit(opts, progress.StageImporting, 1, "Importing manifest")

	book, err := p.loadBook(ctx, opts)
	if err != nil {
		return nil, err
	}

	if opts.OnBook != nil {
		opts.OnBook(book.Title(), len(book.Entries))
	}

	bookName := sanitizeTitle(book.Title())
	if bookName == "" {
		bookName = "audiobook"
	}

	trackPaths, audioDir, err := p.ensureTracks(ctx, book, opts)
	if err != nil {
		return nil, err
	}

	p.emit(opts, progress.StageProbing, 26, "Measuring track durations")
	if err := book.ProbeDurations(ctx, p.audio, audioDir); err != nil {
		return nil, err
	}

	p.emit(opts, progress.StageResolving, 28, "Resolving playback timeline")
	if len(book.Entries) == 0 {
		return nil, fmt.Errorf("manifest has no table of contents entries")
	}

	coverArtPath := p.store.CoverArtPath()
	if err := p.audio.ExtractCoverArt(ctx, trackPaths[0], coverArtPath); err != nil {
		slog.Debug("No embedded cover art", "track", trackPaths[0], "error", err)
		coverArtPath = ""
	} else {
		defer p.store.Cleanup()
	}

	if err := p.store.CreateBookOutputDir(bookName); err != nil {
		return nil, err
	}

	bar := progressbar.NewOptions(
		len(book.Entries),
		progressbar.OptionSetWriter(ansi.NewAnsiStdout()),
		progressbar.OptionEnableColorCodes(true),
		// Inline copy of progressbar.ThemeASCII, which was added in v3.16.0;
		// the pinned v3.15.0 (newest version buildable with Go 1.21) predates it.
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: ".",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionFullWidth(),
		progressbar.OptionShowCount(),
		progressbar.OptionSetDescription("[cyan][2/2][reset] Exporting chapters..."),
	)

	return p.exportChapters(ctx, book, opts, bar, bookName, coverArtPath, trackPaths)
}

func (p *Processor) loadBook(ctx context.Context, opts *ProcessingOptions) (*Audiobook, error) {
	if len(opts.RawManifest) > 0 {
		m, err := manifest.Decode(bytes.NewReader(opts.RawManifest))
		if err != nil {
			return nil, err
		}
		return FromManifest(m)
	}
	return Load(ctx, p.importer, opts.Source)
}

// ensureTracks makes every track file available locally and returns the
// local paths in reading order along with the directory holding them.
func (p *Processor) ensureTracks(ctx context.Context, book *Audiobook, opts *ProcessingOptions) ([]string, string, error) {
	if opts.AudioDir != "" {
		paths := make([]string, len(book.Manifest.ReadingOrder))
		for i, track := range book.Manifest.ReadingOrder {
			local := fetch.TrackLocalPath(opts.AudioDir, track.Href)
			if _, err := os.Stat(local); err != nil {
				return nil, "", fmt.Errorf("track %d not found at %s: %w", i, local, err)
			}
			paths[i] = local
		}
		return paths, opts.AudioDir, nil
	}

	audioDir := p.store.TrackDir(sanitizeTitle(book.Title()))
	downloader := fetch.NewHTTPDownloader(p.cfg)

	p.emit(opts, progress.StageFetching, 2, "Fetching audio tracks")
	var callback fetch.ProgressCallback
	if opts.Tracker != nil {
		// The fetcher reports 0-100 across all tracks; that phase owns the
		// 2-25 span of the run.
		callback = func(pct int, message string, data []byte) {
			opts.Tracker.UpdateProgress(progress.StageFetching, 2+float64(pct)*0.23, message, data)
		}
	}

	paths, err := fetch.EnsureTracks(ctx, downloader, book.Manifest, audioDir, callback)
	if err != nil {
		return nil, "", err
	}
	return paths, audioDir, nil
}

func sanitizeTitle(title string) string {
	replacer := strings.NewReplacer("/", "-", ":", "-", "\"", "'", "?", "", "\\", "-", "|", "-")
	return strings.TrimSpace(replacer.Replace(title))
}

func (p *Processor) exportChapters(
	ctx context.Context,
	book *Audiobook,
	opts *ProcessingOptions,
	bar *progressbar.ProgressBar,
	bookName string,
	coverArtPath string,
	trackPaths []string,
) ([]string, error) {
	var wg sync.WaitGroup
	maxWorkers := opts.MaxConcurrentTasks
	if maxWorkers < 1 || maxWorkers > 10 {
		slog.Warn("invalid max workers, using default", "maxWorkers", opts.MaxConcurrentTasks)
		maxWorkers = defaultMaxWorkers
	}
	semaphore := make(chan struct{}, maxWorkers)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 1)
	filePathCh := make(chan string, len(book.Entries))
	var exported atomic.Int64

	totalChapters := len(book.Entries)
	for i, entry := range book.Entries {
		wg.Add(1)
		go func(i int, entry timeline.ResolvedEntry) {
			defer func() {
				bar.Add(1)
				wg.Done()
			}()

			select {
			case <-ctx.Done():
				return
			default:
			}

			select {
			case semaphore <- struct{}{}:
			case <-ctx.Done():
				return
			}
			defer func() { <-semaphore }()

			title := entry.Title
			if title == "" {
				title = fmt.Sprintf("Chapter %d", i+1)
			}
			chapterName := fmt.Sprintf("%02d - %s", i+1, sanitizeTitle(title))

			savedPath, err := p.store.SaveChapter(bookName, chapterName, opts.FileExtension)
			if err != nil {
				p.fail(errCh, cancel, fmt.Errorf("chapter %d (%s): %w", i+1, title, err))
				return
			}

			params := audio.ChapterParams{
				TrackPaths:    trackPaths,
				Segments:      entry.Segments,
				OutputPath:    strings.TrimSuffix(savedPath, "."+opts.FileExtension),
				FileExtension: opts.FileExtension,
				Title:         title,
				Album:         book.Title(),
				Artist:        book.Manifest.Metadata.Author.String(),
				TrackNumber:   i + 1,
				TrackCount:    totalChapters,
				CoverArtPath:  coverArtPath,
			}

			if err := p.audio.ExportChapter(ctx, params); err != nil {
				if errors.Is(err, audio.ErrNoAudio) {
					slog.Warn("Skipping chapter with no audio", "chapter", i+1, "title", title)
					return
				}
				p.fail(errCh, cancel, fmt.Errorf("chapter %d (%s): %w", i+1, title, err))
				return
			}

			if uploader, ok := p.store.(storage.Uploader); ok {
				objectName := path.Join(bookName, chapterName+"."+opts.FileExtension)
				if _, err := uploader.UploadFile(savedPath, objectName); err != nil {
					p.fail(errCh, cancel, fmt.Errorf("chapter %d (%s): %w", i+1, title, err))
					return
				}
			}

			filePathCh <- savedPath

			done := int(exported.Add(1))
			if opts.Tracker != nil {
				pct := 28 + float64(done)/float64(totalChapters)*71
				opts.Tracker.UpdateProgress(progress.StageExporting, pct,
					fmt.Sprintf("Exported %d/%d chapters", done, totalChapters), nil)
				opts.Tracker.UpdateChapterProgress(i+1, totalChapters, done, title)
			}
		}(i, entry)
	}

	go func() {
		wg.Wait()
		close(filePathCh)
		close(errCh)
	}()

	filePaths := make([]string, 0, len(book.Entries))
	for filePath := range filePathCh {
		filePaths = append(filePaths, filePath)
	}

	if err := <-errCh; err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Workers finish out of order; the chapter number prefix restores it.
	sort.Strings(filePaths)

	p.emit(opts, progress.StageComplete, 100, fmt.Sprintf("Exported %d chapters", len(filePaths)))
	return filePaths, nil
}

func (p *Processor) fail(errCh chan<- error, cancel context.CancelFunc, err error) {
	select {
	case errCh <- err:
		cancel()
	default:
	}
}
