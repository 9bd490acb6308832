package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/custodia-labs/litreview/internal/core/domain"
	"github.com/custodia-labs/litreview/internal/core/ports/driven"
)

// Ensure FactStore implements the interface.
var _ driven.FactStore = (*FactStore)(nil)

// FactStore is an in-memory implementation of driven.FactStore.
type FactStore struct {
	mu    sync.RWMutex
	facts map[int]domain.Fact
}

// NewFactStore creates a new in-memory fact store.
func NewFactStore() *FactStore {
	return &FactStore{facts: make(map[int]domain.Fact)}
}

// SaveFacts stores or replaces facts by number.
// An existing embedding is kept when the incoming fact carries none.
func (s *FactStore) SaveFacts(_ context.Context, facts []domain.Fact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range facts {
		f.Embedding = slices.Clone(f.Embedding)
		if prev, ok := s.facts[f.Number]; ok && f.Embedding == nil {
			f.Embedding = prev.Embedding
		}
		s.facts[f.Number] = f
	}
	return nil
}

// GetFact retrieves a fact by number.
func (s *FactStore) GetFact(_ context.Context, number int) (*domain.Fact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.facts[number]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &f, nil
}

// ListFacts returns all facts ordered by number.
func (s *FactStore) ListFacts(_ context.Context) ([]domain.Fact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	facts := make([]domain.Fact, 0, len(s.facts))
	for _, f := range s.facts {
		facts = append(facts, f)
	}
	slices.SortFunc(facts, func(a, b domain.Fact) int { return cmp.Compare(a.Number, b.Number) })
	return facts, nil
}

// UpdateFactEmbedding sets the embedding of one fact.
func (s *FactStore) UpdateFactEmbedding(_ context.Context, number int, embedding []float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.facts[number]
	if !ok {
		return domain.ErrNotFound
	}
	f.Embedding = slices.Clone(embedding)
	s.facts[number] = f
	return nil
}
