package driving

import (
	"context"

	"github.com/custodia-labs/litreview/internal/core/domain"
)

// CatalogueService manages the stylized fact catalogue.
type CatalogueService interface {
	// List returns every fact in the configured catalogue, ordered by number.
	List(ctx context.Context) ([]domain.Fact, error)

	// Import converts sourcePath into catalogue files written to outDir.
	// An empty outDir means the configured catalogue directory.
	Import(ctx context.Context, sourcePath, outDir string) (*domain.CatalogueImport, error)
}
