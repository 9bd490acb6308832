package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/custodia-labs/litreview/internal/core/domain"
)

const factColumns = `fact_number, text, section, source_file, embedding`

// SaveFacts inserts or replaces facts keyed by number.
// An existing embedding is kept when the incoming fact carries none.
func (s *Store) SaveFacts(ctx context.Context, facts []domain.Fact) error {
	if len(facts) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO stylized_facts (`+factColumns+`)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(fact_number) DO UPDATE SET
			text = excluded.text,
			section = excluded.section,
			source_file = excluded.source_file,
			embedding = COALESCE(excluded.embedding, stylized_facts.embedding)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, f := range facts {
		if _, err := stmt.ExecContext(ctx, f.Number, f.Text, f.Section, f.SourceFile,
			float32SliceToBytes(f.Embedding)); err != nil {
			return fmt.Errorf("saving fact %d: %w", f.Number, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// GetFact retrieves a fact by number.
func (s *Store) GetFact(ctx context.Context, number int) (*domain.Fact, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+factColumns+` FROM stylized_facts WHERE fact_number = ?`, number)
	return scanFact(row)
}

// ListFacts returns all facts ordered by number.
func (s *Store) ListFacts(ctx context.Context) ([]domain.Fact, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+factColumns+` FROM stylized_facts ORDER BY fact_number`)
	if err != nil {
		return nil, fmt.Errorf("querying facts: %w", err)
	}
	defer rows.Close()

	var facts []domain.Fact //nolint:prealloc // size unknown from query
	for rows.Next() {
		f, err := scanFact(rows)
		if err != nil {
			return nil, err
		}
		facts = append(facts, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating facts: %w", err)
	}
	return facts, nil
}

// UpdateFactEmbedding sets the embedding of one fact.
func (s *Store) UpdateFactEmbedding(ctx context.Context, number int, embedding []float32) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE stylized_facts SET embedding = ? WHERE fact_number = ?`,
		float32SliceToBytes(embedding), number)
	if err != nil {
		return fmt.Errorf("updating fact embedding: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("updating fact %d: %w", number, domain.ErrNotFound)
	}
	return nil
}

func scanFact(row scanner) (*domain.Fact, error) {
	var f domain.Fact
	var embedding []byte

	if err := row.Scan(&f.Number, &f.Text, &f.Section, &f.SourceFile, &embedding); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning fact: %w", err)
	}

	f.Embedding = bytesToFloat32Slice(embedding)
	return &f, nil
}
