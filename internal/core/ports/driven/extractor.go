package driven

import (
	"context"

	"github.com/custodia-labs/litreview/internal/core/domain"
)

// TextExtractor reads the text of a source document.
type TextExtractor interface {
	// Extract returns the text of each page in order.
	Extract(ctx context.Context, path string) ([]string, error)

	// SupportedExtensions returns the lower-case file extensions handled, e.g. ".pdf".
	SupportedExtensions() []string
}

// DirectoryWatcher reports file changes below a directory.
type DirectoryWatcher interface {
	// Watch starts watching dir and its sub-directories. The channel is
	// closed when ctx is cancelled or the watcher is closed.
	Watch(ctx context.Context, dir string) (<-chan domain.PaperChange, error)

	// Close stops every active watch.
	Close() error
}
