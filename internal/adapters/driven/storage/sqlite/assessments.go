package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/litreview/internal/core/domain"
)

const assessmentColumns = `fact_number, score, confidence, num_supporting_sources, num_contradicting_sources,
	key_evidence, supporting_papers, contradicting_papers, outcome, retrieved_chunks, top_similarity,
	attempts, prompt_tokens, processing_ns, model, created_at`

// UpsertAssessment inserts or replaces the assessment for its fact.
func (s *Store) UpsertAssessment(ctx context.Context, a *domain.Assessment) error {
	if a == nil {
		return fmt.Errorf("saving assessment: %w", domain.ErrInvalidInput)
	}

	supporting, err := marshalPapers(a.Verdict.SupportingPapers)
	if err != nil {
		return err
	}
	contradicting, err := marshalPapers(a.Verdict.ContradictingPapers)
	if err != nil {
		return err
	}

	createdAt := a.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	v, d := a.Verdict, a.Diagnostics
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO assessments (`+assessmentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(fact_number) DO UPDATE SET
			score = excluded.score,
			confidence = excluded.confidence,
			num_supporting_sources = excluded.num_supporting_sources,
			num_contradicting_sources = excluded.num_contradicting_sources,
			key_evidence = excluded.key_evidence,
			supporting_papers = excluded.supporting_papers,
			contradicting_papers = excluded.contradicting_papers,
			outcome = excluded.outcome,
			retrieved_chunks = excluded.retrieved_chunks,
			top_similarity = excluded.top_similarity,
			attempts = excluded.attempts,
			prompt_tokens = excluded.prompt_tokens,
			processing_ns = excluded.processing_ns,
			model = excluded.model,
			created_at = excluded.created_at
	`, a.FactNumber, v.Score, string(v.Confidence), v.NumSupportingSources, v.NumContradictingSources,
		v.KeyEvidence, supporting, contradicting, string(d.Outcome), d.RetrievedChunks, d.TopSimilarity,
		d.Attempts, d.PromptTokens, int64(a.ProcessingTime), a.Model, createdAt.UTC())
	if err != nil {
		return fmt.Errorf("saving assessment %d: %w", a.FactNumber, err)
	}
	return nil
}

// GetAssessment retrieves the assessment for a fact.
func (s *Store) GetAssessment(ctx context.Context, factNumber int) (*domain.Assessment, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+assessmentColumns+` FROM assessments WHERE fact_number = ?`, factNumber)
	return scanAssessment(row)
}

// ListAssessments returns all assessments ordered by fact number.
func (s *Store) ListAssessments(ctx context.Context) ([]domain.Assessment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+assessmentColumns+` FROM assessments ORDER BY fact_number`)
	if err != nil {
		return nil, fmt.Errorf("querying assessments: %w", err)
	}
	defer rows.Close()

	var out []domain.Assessment //nolint:prealloc // size unknown from query
	for rows.Next() {
		a, err := scanAssessment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating assessments: %w", err)
	}
	return out, nil
}

// CountAssessments returns the number of stored assessments.
func (s *Store) CountAssessments(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM assessments`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting assessments: %w", err)
	}
	return n, nil
}

func scanAssessment(row scanner) (*domain.Assessment, error) {
	var a domain.Assessment
	var confidence, outcome, supporting, contradicting string
	var processingNS int64

	v, d := &a.Verdict, &a.Diagnostics
	if err := row.Scan(&a.FactNumber, &v.Score, &confidence, &v.NumSupportingSources,
		&v.NumContradictingSources, &v.KeyEvidence, &supporting, &contradicting, &outcome,
		&d.RetrievedChunks, &d.TopSimilarity, &d.Attempts, &d.PromptTokens, &processingNS,
		&a.Model, &a.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning assessment: %w", err)
	}

	v.Confidence = domain.Confidence(confidence)
	d.Outcome = domain.Outcome(outcome)
	a.ProcessingTime = time.Duration(processingNS)

	if err := json.Unmarshal([]byte(supporting), &v.SupportingPapers); err != nil {
		return nil, fmt.Errorf("unmarshaling supporting papers: %w", err)
	}
	if err := json.Unmarshal([]byte(contradicting), &v.ContradictingPapers); err != nil {
		return nil, fmt.Errorf("unmarshaling contradicting papers: %w", err)
	}
	return &a, nil
}

// marshalPapers stores a nil list as [] so reads always yield a non-nil slice.
func marshalPapers(papers []string) (string, error) {
	if papers == nil {
		papers = []string{}
	}
	b, err := json.Marshal(papers)
	if err != nil {
		return "", fmt.Errorf("marshalling papers: %w", err)
	}
	return string(b), nil
}
