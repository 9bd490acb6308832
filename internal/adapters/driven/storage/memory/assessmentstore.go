package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/custodia-labs/litreview/internal/core/domain"
	"github.com/custodia-labs/litreview/internal/core/ports/driven"
)

// Ensure AssessmentStore implements the interface.
var _ driven.AssessmentStore = (*AssessmentStore)(nil)

// AssessmentStore is an in-memory implementation of driven.AssessmentStore.
type AssessmentStore struct {
	mu          sync.RWMutex
	assessments map[int]domain.Assessment
}

// NewAssessmentStore creates a new in-memory assessment store.
func NewAssessmentStore() *AssessmentStore {
	return &AssessmentStore{assessments: make(map[int]domain.Assessment)}
}

// UpsertAssessment stores or replaces the assessment for its fact.
func (s *AssessmentStore) UpsertAssessment(_ context.Context, a *domain.Assessment) error {
	if a == nil {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assessments[a.FactNumber] = *a
	return nil
}

// GetAssessment retrieves the assessment for a fact.
func (s *AssessmentStore) GetAssessment(_ context.Context, factNumber int) (*domain.Assessment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.assessments[factNumber]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &a, nil
}

// ListAssessments returns all assessments ordered by fact number.
func (s *AssessmentStore) ListAssessments(_ context.Context) ([]domain.Assessment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Assessment, 0, len(s.assessments))
	for _, a := range s.assessments {
		out = append(out, a)
	}
	slices.SortFunc(out, func(a, b domain.Assessment) int { return cmp.Compare(a.FactNumber, b.FactNumber) })
	return out, nil
}

// CountAssessments returns the number of stored assessments.
func (s *AssessmentStore) CountAssessments(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.assessments), nil
}
