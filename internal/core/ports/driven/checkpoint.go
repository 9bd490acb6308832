package driven

import (
	"context"

	"github.com/custodia-labs/litreview/internal/core/domain"
)

// CheckpointStore persists the single review checkpoint.
type CheckpointStore interface {
	// Load returns the saved checkpoint.
	// Returns domain.ErrNotFound if none has been saved.
	Load(ctx context.Context) (*domain.Checkpoint, error)

	// Save overwrites the stored checkpoint in full.
	Save(ctx context.Context, cp *domain.Checkpoint) error

	// Delete removes the stored checkpoint. Deleting a missing checkpoint is not an error.
	Delete(ctx context.Context) error
}
