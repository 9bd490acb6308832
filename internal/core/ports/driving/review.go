package driving

import (
	"context"
	"time"

	"github.com/custodia-labs/litreview/internal/core/domain"
)

// ReviewService drives the per-fact assessment loop.
type ReviewService interface {
	// Run assesses every fact after the checkpoint cursor in increasing order.
	// A single fact's failure is recorded and never aborts the run.
	Run(ctx context.Context, opts ReviewOptions) (*ReviewSummary, error)

	// RetryFailed re-assesses the facts recorded as failed in the checkpoint.
	// Successes leave the failure ledger; the cursor is not moved.
	RetryFailed(ctx context.Context, opts ReviewOptions) (*ReviewSummary, error)

	// Status reports progress without processing anything.
	Status(ctx context.Context) (*ReviewStatus, error)
}

// ReviewOptions configures a review pass.
type ReviewOptions struct {
	// Sample limits the run to n evenly spaced facts. Zero processes all.
	Sample int

	// Progress is called after every fact. May be nil.
	Progress func(ReviewProgress)
}

// ReviewProgress describes one finished fact.
type ReviewProgress struct {
	Done       int
	Total      int
	FactNumber int
	Score      int
	Outcome    domain.Outcome
	Err        error
	Elapsed    time.Duration
}

// ReviewSummary summarises a review pass.
type ReviewSummary struct {
	RunID        string
	Processed    int
	Succeeded    int
	Failed       int
	NoEvidence   int
	ParseFailure int
	Duration     time.Duration
	Assessments  int
}

// AverageTime returns the mean time spent per processed fact.
func (s *ReviewSummary) AverageTime() time.Duration {
	if s.Processed == 0 {
		return 0
	}
	return s.Duration / time.Duration(s.Processed)
}

// ReviewStatus is a read-only view of review progress.
type ReviewStatus struct {
	// Checkpoint is nil when no run has started.
	Checkpoint *domain.Checkpoint

	// Assessments is the number of stored assessments.
	Assessments int

	// SupportLevels counts stored assessments per support level.
	SupportLevels map[domain.SupportLevel]int

	// Documents is the number of successfully extracted documents.
	Documents int

	// Chunks is the number of stored chunks.
	Chunks int
}
