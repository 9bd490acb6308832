package driving

import "context"

// ExtractionService reads source documents into the document store.
type ExtractionService interface {
	// ExtractDirectory extracts every supported file below dir.
	// Files already stored are skipped; per-file failures are recorded, not returned.
	ExtractDirectory(ctx context.Context, dir string) (*ExtractionReport, error)

	// WatchDirectory extracts dir and keeps extracting new files as they
	// appear until ctx is cancelled. onReport receives each pass's report.
	WatchDirectory(ctx context.Context, dir string, onReport func(*ExtractionReport)) error
}

// ExtractionReport summarises an extraction pass.
type ExtractionReport struct {
	// Found is the number of supported files discovered.
	Found int

	// Skipped is the number of files already in the store.
	Skipped int

	// Succeeded is the number of files extracted this pass.
	Succeeded int

	// Failed is the number of files that could not be read.
	Failed int

	// TotalPages is the page count across successful extractions.
	TotalPages int
}
