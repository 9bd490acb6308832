package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/custodia-labs/litreview/internal/core/domain"
	"github.com/custodia-labs/litreview/internal/core/ports/driving"
	"github.com/custodia-labs/litreview/internal/logger"
)

// mockSettingsService implements driving.SettingsService for testing.
type mockSettingsService struct {
	settings    domain.AppSettings
	validateErr error
	setErr      error
	pingErr     error
	set         map[string]string
}

func newMockSettingsService() *mockSettingsService {
	return &mockSettingsService{settings: domain.DefaultAppSettings(), set: map[string]string{}}
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Save(s *domain.AppSettings) error {
	m.settings = *s
	return nil
}

func (m *mockSettingsService) Set(key, value string) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.set[key] = value
	return nil
}

func (m *mockSettingsService) Validate() error { return m.validateErr }
func (m *mockSettingsService) GetDefaults() domain.AppSettings { return domain.DefaultAppSettings() }
func (m *mockSettingsService) ValidateEmbeddingConfig() error { return m.pingErr }
func (m *mockSettingsService) ValidateLLMConfig() error { return m.pingErr }

// mockExtractionService implements driving.ExtractionService for testing.
type mockExtractionService struct {
	report  *driving.ExtractionReport
	err     error
	dir     string
	watched bool
}

func (m *mockExtractionService) ExtractDirectory(_ context.Context, dir string) (*driving.ExtractionReport, error) {
	m.dir = dir
	return m.report, m.err
}

func (m *mockExtractionService) WatchDirectory(_ context.Context, dir string, onReport func(*driving.ExtractionReport)) error {
	m.dir, m.watched = dir, true
	if m.err != nil {
		return m.err
	}
	onReport(m.report)
	return nil
}

// mockIndexingService implements driving.IndexingService for testing.
type mockIndexingService struct {
	calls []string
	err   error
}

func (m *mockIndexingService) step(name string) (*driving.IndexReport, error) {
	m.calls = append(m.calls, name)
	if m.err != nil {
		return nil, m.err
	}
	return &driving.IndexReport{ChunksCreated: 12, ChunksEmbedded: 11, ChunksDegraded: 1}, nil
}

func (m *mockIndexingService) ChunkDocuments(_ context.Context) (*driving.IndexReport, error) {
	return m.step("chunk")
}

func (m *mockIndexingService) EmbedChunks(_ context.Context) (*driving.IndexReport, error) {
	return m.step("embed")
}

func (m *mockIndexingService) EmbedFacts(_ context.Context) (*driving.IndexReport, error) {
	return m.step("facts")
}

func (m *mockIndexingService) Run(_ context.Context) (*driving.IndexReport, error) {
	return m.step("run")
}

// mockReviewService implements driving.ReviewService for testing.
type mockReviewService struct {
	progress []driving.ReviewProgress
	summary  *driving.ReviewSummary
	status   *driving.ReviewStatus
	err      error
	opts     driving.ReviewOptions
	retried  bool
}

func (m *mockReviewService) emit(opts driving.ReviewOptions) (*driving.ReviewSummary, error) {
	m.opts = opts
	for _, p := range m.progress {
		if opts.Progress != nil {
			opts.Progress(p)
		}
	}
	return m.summary, m.err
}

func (m *mockReviewService) Run(_ context.Context, opts driving.ReviewOptions) (*driving.ReviewSummary, error) {
	return m.emit(opts)
}

func (m *mockReviewService) RetryFailed(_ context.Context, opts driving.ReviewOptions) (*driving.ReviewSummary, error) {
	m.retried = true
	return m.emit(opts)
}

func (m *mockReviewService) Status(_ context.Context) (*driving.ReviewStatus, error) {
	return m.status, m.err
}

// mockCatalogueService implements driving.CatalogueService for testing.
type mockCatalogueService struct {
	facts  []domain.Fact
	result *domain.CatalogueImport
	err    error
	source string
	outDir string
}

func (m *mockCatalogueService) List(_ context.Context) ([]domain.Fact, error) {
	return m.facts, m.err
}

func (m *mockCatalogueService) Import(_ context.Context, source, outDir string) (*domain.CatalogueImport, error) {
	m.source, m.outDir = source, outDir
	return m.result, m.err
}

// swapServices replaces every service variable for the duration of the test.
func swapServices(t *testing.T, svc Services) {
	t.Helper()
	oldSettings, oldCatalogue := settingsService, catalogueService
	oldExtraction, oldIndexing, oldReview := extractionService, indexingService, reviewService
	oldBootstrap := bootstrap

	settingsService = svc.Settings
	catalogueService = svc.Catalogue
	extractionService = svc.Extraction
	indexingService = svc.Indexing
	reviewService = svc.Review
	bootstrap = nil

	t.Cleanup(func() {
		settingsService, catalogueService = oldSettings, oldCatalogue
		extractionService, indexingService, reviewService = oldExtraction, oldIndexing, oldReview
		bootstrap = oldBootstrap
	})
}

// execute runs the root command with args and returns its combined output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		reviewSample, retrySample, runSample = 0, 0, 0
		indexOnly, catalogueOut, catalogueJSON = "", "", false
		extractWatch, reviewPlain = false, false
		verbose, logLevel = false, ""
		logger.SetLevel(logger.LevelError)
	})

	err := rootCmd.Execute()
	return buf.String(), err
}
