package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/litreview/internal/core/domain"
	"github.com/custodia-labs/litreview/internal/core/ports/driven"
	"github.com/custodia-labs/litreview/internal/core/ports/driving"
	"github.com/custodia-labs/litreview/internal/logger"
)

// Ensure ExtractionService implements the interface.
var _ driving.ExtractionService = (*ExtractionService)(nil)

// DefaultExtractionWorkers is the number of files read concurrently.
const DefaultExtractionWorkers = 4

// DefaultWatchSettle is how long the papers directory must be quiet before
// a watch triggers another extraction pass.
const DefaultWatchSettle = 2 * time.Second

// ExtractionService reads source documents into the document store.
type ExtractionService struct {
	store     driven.DocumentStore
	extractor driven.TextExtractor
	metrics   driven.MetricsRecorder
	watcher   driven.DirectoryWatcher
	workers   int
	settle    time.Duration
	now       func() time.Time
}

// NewExtractionService creates an extraction service.
func NewExtractionService(store driven.DocumentStore, extractor driven.TextExtractor) *ExtractionService {
	return &ExtractionService{
		store:     store,
		extractor: extractor,
		workers:   DefaultExtractionWorkers,
		settle:    DefaultWatchSettle,
		now:       time.Now,
	}
}

// SetWorkers sets how many files are extracted concurrently.
func (s *ExtractionService) SetWorkers(n int) {
	if n > 0 {
		s.workers = n
	}
}

// SetMetrics sets the metrics recorder.
func (s *ExtractionService) SetMetrics(m driven.MetricsRecorder) {
	s.metrics = m
}

// SetWatcher sets the watcher used by WatchDirectory.
func (s *ExtractionService) SetWatcher(w driven.DirectoryWatcher) {
	s.watcher = w
}

// WatchDirectory extracts dir, then extracts again whenever new files
// appear, until ctx is cancelled. Bursts of changes are coalesced into one
// pass once the directory has been quiet for the settle period.
func (s *ExtractionService) WatchDirectory(ctx context.Context, dir string, onReport func(*driving.ExtractionReport)) error {
	if s.watcher == nil {
		return fmt.Errorf("%w: no directory watcher configured", domain.ErrNotImplemented)
	}

	// Watch before the first pass so files added during it are not missed.
	changes, err := s.watcher.Watch(ctx, dir)
	if err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	pass := func() error {
		report, err := s.ExtractDirectory(ctx, dir)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			return err
		}
		if onReport != nil {
			onReport(report)
		}
		return nil
	}
	if err := pass(); err != nil {
		return err
	}
	logger.Info("Watching %s for new papers", dir)

	timer := time.NewTimer(s.settle)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case change, ok := <-changes:
			if !ok {
				return nil
			}
			logger.Debug("Paper %s: %s", change.Type, change.Path)
			if !change.NeedsExtraction() {
				continue
			}
			timer.Reset(s.settle)
		case <-timer.C:
			if err := pass(); err != nil {
				return err
			}
		}
	}
}

type sourceFile struct {
	docID string
	path  string
}

type extractResult struct {
	doc *domain.Document
}

// ExtractDirectory extracts every supported file below dir.
func (s *ExtractionService) ExtractDirectory(ctx context.Context, dir string) (*driving.ExtractionReport, error) {
	report := &driving.ExtractionReport{}
	defer logger.Timed("Extracting Documents")()

	files, err := s.discover(dir)
	if err != nil {
		return nil, err
	}
	report.Found = len(files)

	var todo []sourceFile
	for _, f := range files {
		_, err := s.store.GetDocumentByPath(ctx, f.path)
		switch {
		case err == nil:
			report.Skipped++
		case errors.Is(err, domain.ErrNotFound):
			todo = append(todo, f)
		default:
			return nil, fmt.Errorf("lookup %s: %w", f.path, err)
		}
	}
	logger.Info("Found %d files, %d already extracted", report.Found, report.Skipped)

	jobs := make(chan sourceFile)
	results := make(chan extractResult)

	var wg sync.WaitGroup
	for range min(s.workers, max(len(todo), 1)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for f := range jobs {
				results <- extractResult{doc: s.extractOne(ctx, f)}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, f := range todo {
			select {
			case jobs <- f:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	// Saves happen on this goroutine so stores need no extra locking.
	var saveErr error
	for r := range results {
		doc := r.doc
		if doc == nil {
			continue
		}
		if err := s.store.SaveDocument(ctx, doc); err != nil {
			saveErr = errors.Join(saveErr, fmt.Errorf("save document %s: %w", doc.DocID, err))
			continue
		}
		if s.metrics != nil {
			s.metrics.DocumentExtracted(doc.Status.String())
		}
		if doc.Status == domain.ExtractionSuccess {
			report.Succeeded++
			report.TotalPages += doc.PageCount
			logger.Debug("Extracted %s (%d pages)", doc.Filename, doc.PageCount)
		} else {
			report.Failed++
			logger.Warn("Failed to extract %s: %s", doc.Filename, doc.ErrorMessage)
		}
	}

	logger.Info("Extracted %d documents (%d pages), %d failed", report.Succeeded, report.TotalPages, report.Failed)
	if saveErr != nil {
		return report, saveErr
	}
	return report, ctx.Err()
}

func (s *ExtractionService) extractOne(ctx context.Context, f sourceFile) *domain.Document {
	doc := &domain.Document{
		DocID:    f.docID,
		Filename: filepath.Base(f.path),
		Filepath: f.path,
		Status:   domain.ExtractionPending,
	}

	pages, err := s.extractor.Extract(ctx, f.path)
	doc.ExtractedAt = s.now()
	if err != nil {
		if ctx.Err() != nil {
			// Interrupted, not unreadable: leave it for the next pass.
			return nil
		}
		doc.Status = domain.ExtractionFailed
		doc.ErrorMessage = err.Error()
		return doc
	}

	doc.Text = JoinPages(pages)
	doc.PageCount = len(pages)
	doc.Status = domain.ExtractionSuccess
	return doc
}

// discover lists supported files below dir, sorted by path.
func (s *ExtractionService) discover(dir string) ([]sourceFile, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", dir, err)
	}

	exts := s.extractor.SupportedExtensions()
	var files []sourceFile
	seen := make(map[string]int)

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !slices.Contains(exts, strings.ToLower(filepath.Ext(path))) {
			return nil
		}
		id := documentID(root, path)
		seen[id]++
		if seen[id] > 1 {
			id = fmt.Sprintf("%s_%s", id, stem(path))
		}
		files = append(files, sourceFile{docID: id, path: path})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", dir, err)
	}
	return files, nil
}

// documentID names a document after its directory, or its stem at the root.
func documentID(root, path string) string {
	parent := filepath.Dir(path)
	if parent == root {
		return stem(path)
	}
	return filepath.Base(parent)
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// JoinPages concatenates page texts with 1-based page markers.
func JoinPages(pages []string) string {
	parts := make([]string, len(pages))
	for i, p := range pages {
		parts[i] = fmt.Sprintf("[Page %d]\n%s", i+1, p)
	}
	return strings.Join(parts, "\n\n")
}
