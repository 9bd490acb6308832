package latex

import (
	"context"

	"github.com/custodia-labs/litreview/internal/core/domain"
	"github.com/custodia-labs/litreview/internal/core/ports/driven"
)

// Ensure Importer implements the interface.
var _ driven.CatalogueImporter = (*Importer)(nil)

// Importer converts a LaTeX fact table document into catalogue CSV files.
type Importer struct{}

// NewImporter creates a LaTeX catalogue importer.
func NewImporter() *Importer {
	return &Importer{}
}

// Import parses sourcePath and writes one CSV per non-empty section into outDir.
func (i *Importer) Import(ctx context.Context, sourcePath, outDir string) (*domain.CatalogueImport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sections, err := ParseFile(sourcePath)
	if err != nil {
		return nil, err
	}
	files, err := WriteCSV(outDir, sections)
	if err != nil {
		return nil, err
	}
	return &domain.CatalogueImport{
		Sections: len(sections),
		Facts:    CountFacts(sections),
		Files:    files,
	}, nil
}
