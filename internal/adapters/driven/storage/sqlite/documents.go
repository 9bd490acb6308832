package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/custodia-labs/litreview/internal/core/domain"
)

const documentColumns = `doc_id, filename, filepath, text, page_count, status, error_message, extracted_at`

const chunkColumns = `doc_id, chunk_id, char_start, char_end, text, filename, embedding`

// SaveDocument inserts or replaces a document.
func (s *Store) SaveDocument(ctx context.Context, doc *domain.Document) error {
	if doc == nil || doc.DocID == "" {
		return fmt.Errorf("saving document: %w", domain.ErrInvalidInput)
	}

	var extractedAt sql.NullTime
	if !doc.ExtractedAt.IsZero() {
		extractedAt = sql.NullTime{Time: doc.ExtractedAt.UTC(), Valid: true}
	}

	// ON CONFLICT DO UPDATE rather than INSERT OR REPLACE, which would
	// delete the row and cascade to its chunks.
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (`+documentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(doc_id) DO UPDATE SET
			filename = excluded.filename,
			filepath = excluded.filepath,
			text = excluded.text,
			page_count = excluded.page_count,
			status = excluded.status,
			error_message = excluded.error_message,
			extracted_at = excluded.extracted_at
	`, doc.DocID, doc.Filename, doc.Filepath, doc.Text, doc.PageCount,
		string(doc.Status), doc.ErrorMessage, extractedAt)
	if err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	return nil
}

// GetDocument retrieves a document by id.
func (s *Store) GetDocument(ctx context.Context, docID string) (*domain.Document, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE doc_id = ?`, docID)
	return scanDocument(row)
}

// GetDocumentByPath retrieves a document by its source path.
func (s *Store) GetDocumentByPath(ctx context.Context, path string) (*domain.Document, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE filepath = ? LIMIT 1`, path)
	return scanDocument(row)
}

// ListDocuments returns documents with the given status ordered by id.
// An empty status lists every document.
func (s *Store) ListDocuments(ctx context.Context, status domain.ExtractionStatus) ([]domain.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents`
	var args []any
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY doc_id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document //nolint:prealloc // size unknown from query
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}
	return docs, nil
}

// CountDocuments returns the number of documents with the given status.
func (s *Store) CountDocuments(ctx context.Context, status domain.ExtractionStatus) (int, error) {
	query := `SELECT COUNT(*) FROM documents`
	var args []any
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, string(status))
	}

	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting documents: %w", err)
	}
	return n, nil
}

// DeleteDocument removes a document; its chunks go with it via ON DELETE CASCADE.
func (s *Store) DeleteDocument(ctx context.Context, docID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE doc_id = ?`, docID); err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	return nil
}

// SaveChunks inserts or replaces chunks in one transaction.
func (s *Store) SaveChunks(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO document_chunks (`+chunkColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(doc_id, chunk_id) DO UPDATE SET
			char_start = excluded.char_start,
			char_end = excluded.char_end,
			text = excluded.text,
			filename = excluded.filename,
			embedding = excluded.embedding
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, c := range chunks {
		if _, err := stmt.ExecContext(ctx, c.DocID, c.ChunkID, c.CharStart, c.CharEnd,
			c.Text, c.Filename, float32SliceToBytes(c.Embedding)); err != nil {
			return fmt.Errorf("saving chunk %s: %w", c.Ref().Key(), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// GetChunk retrieves a single chunk.
func (s *Store) GetChunk(ctx context.Context, ref domain.ChunkRef) (*domain.Chunk, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+chunkColumns+` FROM document_chunks WHERE doc_id = ? AND chunk_id = ?`,
		ref.DocID, ref.ChunkID)
	return scanChunk(row)
}

// ListChunks returns a document's chunks ordered by chunk id.
func (s *Store) ListChunks(ctx context.Context, docID string) ([]domain.Chunk, error) {
	return s.queryChunks(ctx,
		`SELECT `+chunkColumns+` FROM document_chunks WHERE doc_id = ? ORDER BY chunk_id`, docID)
}

// ListChunksWithoutEmbedding returns up to limit chunks lacking an embedding.
func (s *Store) ListChunksWithoutEmbedding(ctx context.Context, limit int) ([]domain.Chunk, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	return s.queryChunks(ctx,
		`SELECT `+chunkColumns+` FROM document_chunks WHERE embedding IS NULL
		 ORDER BY doc_id, chunk_id LIMIT ?`, limit)
}

// ListEmbeddedChunks returns every chunk that has an embedding.
func (s *Store) ListEmbeddedChunks(ctx context.Context) ([]domain.Chunk, error) {
	return s.queryChunks(ctx,
		`SELECT `+chunkColumns+` FROM document_chunks WHERE embedding IS NOT NULL
		 ORDER BY doc_id, chunk_id`)
}

// UpdateChunkEmbedding sets the embedding of one chunk.
func (s *Store) UpdateChunkEmbedding(ctx context.Context, ref domain.ChunkRef, embedding []float32) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE document_chunks SET embedding = ? WHERE doc_id = ? AND chunk_id = ?`,
		float32SliceToBytes(embedding), ref.DocID, ref.ChunkID)
	if err != nil {
		return fmt.Errorf("updating chunk embedding: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("updating chunk %s: %w", ref.Key(), domain.ErrNotFound)
	}
	return nil
}

// HasChunks reports whether a document has been chunked.
func (s *Store) HasChunks(ctx context.Context, docID string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM document_chunks WHERE doc_id = ?)`, docID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking chunks: %w", err)
	}
	return exists, nil
}

// CountChunks returns the total number of chunks.
func (s *Store) CountChunks(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM document_chunks`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return n, nil
}

func (s *Store) queryChunks(ctx context.Context, query string, args ...any) ([]domain.Chunk, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var chunks []domain.Chunk //nolint:prealloc // size unknown from query
	for rows.Next() {
		c, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}
	return chunks, nil
}

func scanDocument(row scanner) (*domain.Document, error) {
	var doc domain.Document
	var status string
	var extractedAt sql.NullTime

	if err := row.Scan(&doc.DocID, &doc.Filename, &doc.Filepath, &doc.Text, &doc.PageCount,
		&status, &doc.ErrorMessage, &extractedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}

	doc.Status = domain.ExtractionStatus(status)
	if extractedAt.Valid {
		doc.ExtractedAt = extractedAt.Time
	}
	return &doc, nil
}

func scanChunk(row scanner) (*domain.Chunk, error) {
	var c domain.Chunk
	var embedding []byte

	if err := row.Scan(&c.DocID, &c.ChunkID, &c.CharStart, &c.CharEnd,
		&c.Text, &c.Filename, &embedding); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning chunk: %w", err)
	}

	c.Embedding = bytesToFloat32Slice(embedding)
	return &c, nil
}
