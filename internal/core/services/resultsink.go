package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/litreview/internal/core/domain"
	"github.com/custodia-labs/litreview/internal/core/ports/driven"
)

// ResultSink writes assessments to the store and mirrors them to the report.
type ResultSink struct {
	store  driven.AssessmentStore
	report driven.ReportSink
}

// NewResultSink creates a result sink. report may be nil to skip the tabular mirror.
func NewResultSink(store driven.AssessmentStore, report driven.ReportSink) *ResultSink {
	return &ResultSink{store: store, report: report}
}

// Upsert replaces the stored assessment for a.FactNumber and updates its report row.
// A store failure is returned as is. A report failure is wrapped in *ReportError
// so callers can tell the durable write succeeded.
func (s *ResultSink) Upsert(ctx context.Context, a *domain.Assessment) error {
	if err := s.store.UpsertAssessment(ctx, a); err != nil {
		return fmt.Errorf("upsert assessment %d: %w", a.FactNumber, err)
	}
	if s.report == nil {
		return nil
	}
	if err := s.report.UpdateFact(ctx, a); err != nil {
		return &ReportError{FactNumber: a.FactNumber, Err: err}
	}
	return nil
}

// ReportError reports a failed tabular mirror after a successful store write.
type ReportError struct {
	FactNumber int
	Err        error
}

func (e *ReportError) Error() string {
	return fmt.Sprintf("update report for fact %d: %v", e.FactNumber, e.Err)
}

func (e *ReportError) Unwrap() error {
	return e.Err
}
