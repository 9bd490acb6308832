package services

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/litreview/internal/core/domain"
	"github.com/custodia-labs/litreview/internal/core/ports/driven"
	"github.com/custodia-labs/litreview/internal/core/ports/driving"
	"github.com/custodia-labs/litreview/internal/logger"
)

// Ensure CatalogueService implements the interface.
var _ driving.CatalogueService = (*CatalogueService)(nil)

// CatalogueService lists and imports the fact catalogue.
type CatalogueService struct {
	source     driven.CatalogueSource
	importer   driven.CatalogueImporter
	defaultDir string
}

// NewCatalogueService creates a catalogue service. importer may be nil when
// imports are not supported.
func NewCatalogueService(source driven.CatalogueSource, importer driven.CatalogueImporter, defaultDir string) *CatalogueService {
	return &CatalogueService{source: source, importer: importer, defaultDir: defaultDir}
}

// List returns the configured catalogue.
func (s *CatalogueService) List(ctx context.Context) ([]domain.Fact, error) {
	facts, err := s.source.LoadFacts(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalogue: %w", err)
	}
	return facts, nil
}

// Import converts sourcePath into catalogue files.
func (s *CatalogueService) Import(ctx context.Context, sourcePath, outDir string) (*domain.CatalogueImport, error) {
	if s.importer == nil {
		return nil, fmt.Errorf("catalogue import: %w", domain.ErrNotImplemented)
	}
	if strings.TrimSpace(sourcePath) == "" {
		return nil, fmt.Errorf("catalogue import: source path required: %w", domain.ErrInvalidInput)
	}
	if outDir == "" {
		outDir = s.defaultDir
	}

	defer logger.Timed("Catalogue Import")()
	logger.Info("Reading %s", filepath.Base(sourcePath))

	res, err := s.importer.Import(ctx, sourcePath, outDir)
	if err != nil {
		return nil, fmt.Errorf("import %s: %w", sourcePath, err)
	}
	if res.Facts == 0 {
		return res, fmt.Errorf("import %s: %w", sourcePath, domain.ErrCatalogueEmpty)
	}
	logger.Info("Wrote %d facts in %d files to %s", res.Facts, len(res.Files), outDir)
	return res, nil
}
