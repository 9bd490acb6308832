package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/litreview/internal/core/domain"
	"github.com/custodia-labs/litreview/internal/core/ports/driven"
	"github.com/custodia-labs/litreview/internal/core/ports/driving"
	"github.com/custodia-labs/litreview/internal/logger"
)

// Ensure ReviewService implements the interface.
var _ driving.ReviewService = (*ReviewService)(nil)

// FactAssessor produces an assessment for one fact.
type FactAssessor interface {
	Assess(ctx context.Context, fact domain.Fact) (*domain.Assessment, error)
}

// IndexLoader prepares the vector index before a review pass.
type IndexLoader interface {
	Load(ctx context.Context) (LoadResult, error)
}

// errNoAssessor is returned when a status-only service is asked to review.
var errNoAssessor = fmt.Errorf("%w: no judge configured", domain.ErrLLMUnavailable)

// ReviewService sequences facts through assessment, storage and checkpointing.
// Facts are processed one at a time in increasing number order.
type ReviewService struct {
	catalogue   driven.CatalogueSource
	store       driven.Store
	assessor    FactAssessor
	sink        *ResultSink
	checkpoints *Checkpoints
	indexLoader IndexLoader
	metrics     driven.MetricsRecorder
}

// NewReviewService creates a review orchestrator.
func NewReviewService(
	catalogue driven.CatalogueSource,
	store driven.Store,
	assessor FactAssessor,
	sink *ResultSink,
	checkpoints *Checkpoints,
) *ReviewService {
	return &ReviewService{
		catalogue:   catalogue,
		store:       store,
		assessor:    assessor,
		sink:        sink,
		checkpoints: checkpoints,
	}
}

// SetIndexLoader sets the loader run before each pass to fill the vector index.
func (s *ReviewService) SetIndexLoader(loader IndexLoader) {
	s.indexLoader = loader
}

// SetMetrics sets the metrics recorder.
func (s *ReviewService) SetMetrics(m driven.MetricsRecorder) {
	s.metrics = m
}

// Run assesses every fact after the checkpoint cursor.
// Cancelling ctx stops the loop between facts; the checkpoint stays valid.
//
//nolint:gocyclo // Orchestrator with sequential steps and per-fact bookkeeping.
func (s *ReviewService) Run(ctx context.Context, opts driving.ReviewOptions) (*driving.ReviewSummary, error) {
	if s.assessor == nil {
		return nil, errNoAssessor
	}
	summary := &driving.ReviewSummary{RunID: uuid.NewString()}
	defer logger.Timed("Literature Review")()
	logger.Info("Run %s", summary.RunID)

	// 1. Load catalogue
	facts, err := s.catalogue.LoadFacts(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalogue: %w", err)
	}
	if opts.Sample > 0 {
		facts = domain.SampleFacts(facts, opts.Sample)
		logger.Info("Sample mode: %d facts", len(facts))
	}

	// 2. Prepare retrieval
	if err := s.loadIndex(ctx); err != nil {
		return nil, err
	}

	// 3. Load or create checkpoint
	cp, created, err := s.checkpoints.LoadOrCreate(ctx, len(facts))
	if err != nil {
		return nil, err
	}
	if created {
		logger.Info("Created checkpoint for %d facts", len(facts))
	}

	// 4. Compute pending set
	pending := cp.Pending(facts)
	logger.Info("Processing %d facts (starting after #%d)", len(pending), cp.LastCompletedFact)

	// 5. Assess sequentially
	start := time.Now()
	for i, fact := range pending {
		if err := ctx.Err(); err != nil {
			logger.Warn("Review interrupted after %d facts", summary.Processed)
			summary.Duration = time.Since(start)
			return summary, err
		}

		factStart := time.Now()
		assessment, procErr := s.processFact(ctx, fact)
		if interrupted(ctx, procErr) {
			// The cursor stays before this fact so a resumed run assesses it again.
			logger.Warn("Review interrupted during fact #%d after %d facts", fact.Number, summary.Processed)
			summary.Duration = time.Since(start)
			return summary, ctx.Err()
		}
		s.tally(summary, assessment, procErr)

		if err := s.checkpoints.Advance(ctx, cp, fact.Number, procErr == nil); err != nil {
			logger.Error("Checkpoint not saved after fact #%d: %v", fact.Number, err)
		}

		s.report(opts, driving.ReviewProgress{
			Done:       i + 1,
			Total:      len(pending),
			FactNumber: fact.Number,
			Err:        procErr,
			Elapsed:    time.Since(factStart),
		}, assessment)
	}
	summary.Duration = time.Since(start)

	// 6. Final counts
	s.finalise(ctx, summary, len(cp.FailedFacts))
	return summary, nil
}

// RetryFailed re-assesses the facts in the checkpoint's failure ledger.
func (s *ReviewService) RetryFailed(ctx context.Context, opts driving.ReviewOptions) (*driving.ReviewSummary, error) {
	if s.assessor == nil {
		return nil, errNoAssessor
	}
	summary := &driving.ReviewSummary{RunID: uuid.NewString()}
	defer logger.Timed("Retry Failed Facts")()

	cp, err := s.checkpoints.Load(ctx)
	if err != nil {
		return nil, err
	}
	if cp == nil {
		return nil, fmt.Errorf("retry failed facts: checkpoint %w", domain.ErrNotFound)
	}
	if len(cp.FailedFacts) == 0 {
		logger.Info("No failed facts recorded")
		return summary, nil
	}

	facts, err := s.catalogue.LoadFacts(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalogue: %w", err)
	}
	byNumber := make(map[int]domain.Fact, len(facts))
	for _, f := range facts {
		byNumber[f.Number] = f
	}

	if err := s.loadIndex(ctx); err != nil {
		return nil, err
	}

	failed := slices.Clone(cp.FailedFacts)
	slices.Sort(failed)
	if opts.Sample > 0 && opts.Sample < len(failed) {
		failed = failed[:opts.Sample]
	}

	start := time.Now()
	for i, number := range failed {
		if err := ctx.Err(); err != nil {
			summary.Duration = time.Since(start)
			return summary, err
		}

		fact, ok := byNumber[number]
		if !ok {
			logger.Warn("Failed fact #%d is no longer in the catalogue", number)
			continue
		}

		factStart := time.Now()
		assessment, procErr := s.processFact(ctx, fact)
		if interrupted(ctx, procErr) {
			logger.Warn("Retry interrupted during fact #%d", number)
			summary.Duration = time.Since(start)
			return summary, ctx.Err()
		}
		s.tally(summary, assessment, procErr)

		if procErr == nil {
			if err := s.checkpoints.ClearFailure(ctx, cp, number); err != nil {
				logger.Error("Checkpoint not saved after retrying fact #%d: %v", number, err)
			}
		}

		s.report(opts, driving.ReviewProgress{
			Done:       i + 1,
			Total:      len(failed),
			FactNumber: number,
			Err:        procErr,
			Elapsed:    time.Since(factStart),
		}, assessment)
	}
	summary.Duration = time.Since(start)

	s.finalise(ctx, summary, len(cp.FailedFacts))
	return summary, nil
}

// Status reports progress without processing anything.
func (s *ReviewService) Status(ctx context.Context) (*driving.ReviewStatus, error) {
	cp, err := s.checkpoints.Load(ctx)
	if err != nil {
		return nil, err
	}

	assessments, err := s.store.ListAssessments(ctx)
	if err != nil {
		return nil, fmt.Errorf("list assessments: %w", err)
	}
	levels := make(map[domain.SupportLevel]int)
	for _, a := range assessments {
		levels[domain.SupportLevelFor(a.Verdict.Score)]++
	}

	docs, err := s.store.CountDocuments(ctx, domain.ExtractionSuccess)
	if err != nil {
		return nil, fmt.Errorf("count documents: %w", err)
	}
	chunks, err := s.store.CountChunks(ctx)
	if err != nil {
		return nil, fmt.Errorf("count chunks: %w", err)
	}

	return &driving.ReviewStatus{
		Checkpoint:    cp,
		Assessments:   len(assessments),
		SupportLevels: levels,
		Documents:     docs,
		Chunks:        chunks,
	}, nil
}

// processFact assesses and stores one fact. A panic is converted to an error
// so one fact can never abort the run.
func (s *ReviewService) processFact(ctx context.Context, fact domain.Fact) (a *domain.Assessment, err error) {
	defer func() {
		if r := recover(); r != nil {
			a, err = nil, fmt.Errorf("fact %d: panic: %v", fact.Number, r)
		}
		if err != nil && !interrupted(ctx, err) {
			logger.Error("Failed to process fact #%d: %v", fact.Number, err)
			if s.metrics != nil {
				s.metrics.FactFailed()
			}
		}
	}()

	a, err = s.assessor.Assess(ctx, fact)
	if err != nil {
		return nil, err
	}

	if err := s.sink.Upsert(ctx, a); err != nil {
		var reportErr *ReportError
		if !errors.As(err, &reportErr) {
			return nil, err
		}
		// The durable write succeeded; the tabular mirror is best effort.
		logger.Warn("%v", reportErr)
	}

	if s.metrics != nil {
		s.metrics.FactAssessed(a.Diagnostics.Outcome.String(), a.ProcessingTime)
		s.metrics.JudgeAttempts(a.Diagnostics.Attempts)
	}
	return a, nil
}

// interrupted reports whether err came from ctx being cancelled mid-fact
// rather than from the fact itself.
func interrupted(ctx context.Context, err error) bool {
	return err != nil && ctx.Err() != nil
}

func (s *ReviewService) loadIndex(ctx context.Context) error {
	if s.indexLoader == nil {
		return nil
	}
	if _, err := s.indexLoader.Load(ctx); err != nil {
		return fmt.Errorf("load vector index: %w", err)
	}
	return nil
}

func (s *ReviewService) tally(summary *driving.ReviewSummary, a *domain.Assessment, err error) {
	summary.Processed++
	if err != nil {
		summary.Failed++
		return
	}
	summary.Succeeded++
	switch a.Diagnostics.Outcome {
	case domain.OutcomeNoEvidence:
		summary.NoEvidence++
	case domain.OutcomeParseFailure:
		summary.ParseFailure++
	}
}

func (s *ReviewService) report(opts driving.ReviewOptions, p driving.ReviewProgress, a *domain.Assessment) {
	if opts.Progress == nil {
		return
	}
	if a != nil {
		p.Score = a.Verdict.Score
		p.Outcome = a.Diagnostics.Outcome
	}
	opts.Progress(p)
}

func (s *ReviewService) finalise(ctx context.Context, summary *driving.ReviewSummary, failedTotal int) {
	if n, err := s.store.CountAssessments(ctx); err == nil {
		summary.Assessments = n
	} else {
		logger.Warn("Count assessments: %v", err)
	}

	logger.Section("Review Complete")
	logger.Info("Facts processed: %d", summary.Processed)
	logger.Info("Total time: %.1f minutes", summary.Duration.Minutes())
	logger.Info("Average time per fact: %.1f seconds", summary.AverageTime().Seconds())
	logger.Info("Failed facts: %d", failedTotal)
	logger.Info("Assessments stored: %d", summary.Assessments)

	if s.metrics != nil {
		if err := s.metrics.Flush(); err != nil {
			logger.Warn("Flush metrics: %v", err)
		}
	}
}
