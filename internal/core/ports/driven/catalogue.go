package driven

import (
	"context"

	"github.com/custodia-labs/litreview/internal/core/domain"
)

// CatalogueSource loads the fact catalogue.
type CatalogueSource interface {
	// LoadFacts returns every fact ordered by Number.
	// Returns domain.ErrCatalogueEmpty if no facts are found and
	// domain.ErrDuplicateFact if a number repeats.
	LoadFacts(ctx context.Context) ([]domain.Fact, error)
}

// ReportSink mirrors assessments into the tabular report.
type ReportSink interface {
	// UpdateFact writes the assessment into the row for its fact.
	// Returns domain.ErrNotFound if no report row carries the fact number.
	UpdateFact(ctx context.Context, a *domain.Assessment) error
}

// CatalogueImporter converts an external fact list into catalogue files.
type CatalogueImporter interface {
	// Import reads sourcePath and writes catalogue files into outDir.
	Import(ctx context.Context, sourcePath, outDir string) (*domain.CatalogueImport, error)
}
