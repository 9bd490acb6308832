package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/litreview/internal/core/domain"
	"github.com/custodia-labs/litreview/internal/core/ports/driven"
)

// Checkpoints manages the review checkpoint on top of a CheckpointStore.
// Every mutation is persisted immediately.
type Checkpoints struct {
	store driven.CheckpointStore
	now   func() time.Time
}

// NewCheckpoints creates a checkpoint manager.
func NewCheckpoints(store driven.CheckpointStore) *Checkpoints {
	return &Checkpoints{store: store, now: time.Now}
}

// Load returns the saved checkpoint, or nil when none exists.
func (c *Checkpoints) Load(ctx context.Context) (*domain.Checkpoint, error) {
	cp, err := c.store.Load(ctx)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load checkpoint: %w", err)
	}
	if cp.FailedFacts == nil {
		cp.FailedFacts = []int{}
	}
	return cp, nil
}

// CreateInitial creates and persists a fresh checkpoint for total facts.
func (c *Checkpoints) CreateInitial(ctx context.Context, total int) (*domain.Checkpoint, error) {
	cp := domain.NewCheckpoint(total, c.now())
	if err := c.Save(ctx, cp); err != nil {
		return nil, err
	}
	return cp, nil
}

// LoadOrCreate returns the saved checkpoint or creates one for total facts.
func (c *Checkpoints) LoadOrCreate(ctx context.Context, total int) (*domain.Checkpoint, bool, error) {
	cp, err := c.Load(ctx)
	if err != nil {
		return nil, false, err
	}
	if cp != nil {
		return cp, false, nil
	}
	cp, err = c.CreateInitial(ctx, total)
	return cp, true, err
}

// Save overwrites the stored checkpoint.
func (c *Checkpoints) Save(ctx context.Context, cp *domain.Checkpoint) error {
	if err := c.store.Save(ctx, cp); err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	return nil
}

// Advance records factNumber as processed and persists the checkpoint.
func (c *Checkpoints) Advance(ctx context.Context, cp *domain.Checkpoint, factNumber int, success bool) error {
	cp.Advance(factNumber, success, c.now())
	return c.Save(ctx, cp)
}

// ClearFailure removes factNumber from the failure ledger and persists the checkpoint.
func (c *Checkpoints) ClearFailure(ctx context.Context, cp *domain.Checkpoint, factNumber int) error {
	if !cp.ClearFailure(factNumber, c.now()) {
		return nil
	}
	return c.Save(ctx, cp)
}

// Reset deletes the stored checkpoint so the next run starts from the first fact.
func (c *Checkpoints) Reset(ctx context.Context) error {
	if err := c.store.Delete(ctx); err != nil {
		return fmt.Errorf("delete checkpoint: %w", err)
	}
	return nil
}
