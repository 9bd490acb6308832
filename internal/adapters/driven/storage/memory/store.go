// Package memory provides in-memory implementations of the driven storage ports.
// It backs the "memory" storage backend and is used throughout the tests.
package memory

import (
	"context"

	"github.com/custodia-labs/litreview/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.Store = (*Store)(nil)

// Store combines the in-memory stores into a single driven.Store.
type Store struct {
	*DocumentStore
	*FactStore
	*AssessmentStore
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		DocumentStore:   NewDocumentStore(),
		FactStore:       NewFactStore(),
		AssessmentStore: NewAssessmentStore(),
	}
}

// Ping always succeeds.
func (s *Store) Ping(_ context.Context) error {
	return nil
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}
