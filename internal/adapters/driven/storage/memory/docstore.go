package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/custodia-labs/litreview/internal/core/domain"
	"github.com/custodia-labs/litreview/internal/core/ports/driven"
)

// Ensure DocumentStore implements the interface.
var _ driven.DocumentStore = (*DocumentStore)(nil)

// DocumentStore is an in-memory implementation of driven.DocumentStore.
type DocumentStore struct {
	mu        sync.RWMutex
	documents map[string]domain.Document
	chunks    map[string][]domain.Chunk
}

// NewDocumentStore creates a new in-memory document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		documents: make(map[string]domain.Document),
		chunks:    make(map[string][]domain.Chunk),
	}
}

// SaveDocument stores or replaces a document.
func (s *DocumentStore) SaveDocument(_ context.Context, doc *domain.Document) error {
	if doc == nil || doc.DocID == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents[doc.DocID] = *doc
	return nil
}

// GetDocument retrieves a document by id.
func (s *DocumentStore) GetDocument(_ context.Context, docID string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[docID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

// GetDocumentByPath retrieves a document by its source path.
func (s *DocumentStore) GetDocumentByPath(_ context.Context, path string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, doc := range s.documents {
		if doc.Filepath == path {
			return &doc, nil
		}
	}
	return nil, domain.ErrNotFound
}

// ListDocuments returns documents with the given status ordered by id.
func (s *DocumentStore) ListDocuments(_ context.Context, status domain.ExtractionStatus) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	docs := make([]domain.Document, 0, len(s.documents))
	for _, doc := range s.documents {
		if status == "" || doc.Status == status {
			docs = append(docs, doc)
		}
	}
	slices.SortFunc(docs, func(a, b domain.Document) int { return cmp.Compare(a.DocID, b.DocID) })
	return docs, nil
}

// CountDocuments returns the number of documents with the given status.
func (s *DocumentStore) CountDocuments(ctx context.Context, status domain.ExtractionStatus) (int, error) {
	docs, err := s.ListDocuments(ctx, status)
	return len(docs), err
}

// DeleteDocument removes a document and its chunks.
func (s *DocumentStore) DeleteDocument(_ context.Context, docID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.documents, docID)
	delete(s.chunks, docID)
	return nil
}

// SaveChunks stores chunks, replacing any with the same (DocID, ChunkID).
func (s *DocumentStore) SaveChunks(_ context.Context, chunks []domain.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range chunks {
		c.Embedding = slices.Clone(c.Embedding)
		existing := s.chunks[c.DocID]
		i, found := slices.BinarySearchFunc(existing, c.ChunkID, func(e domain.Chunk, id int) int {
			return cmp.Compare(e.ChunkID, id)
		})
		if found {
			existing[i] = c
		} else {
			existing = slices.Insert(existing, i, c)
		}
		s.chunks[c.DocID] = existing
	}
	return nil
}

// GetChunk retrieves a single chunk.
func (s *DocumentStore) GetChunk(_ context.Context, ref domain.ChunkRef) (*domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.chunks[ref.DocID] {
		if c.ChunkID == ref.ChunkID {
			return &c, nil
		}
	}
	return nil, domain.ErrNotFound
}

// ListChunks returns a document's chunks ordered by ChunkID.
func (s *DocumentStore) ListChunks(_ context.Context, docID string) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.chunks[docID]), nil
}

// ListChunksWithoutEmbedding returns up to limit chunks lacking an embedding.
func (s *DocumentStore) ListChunksWithoutEmbedding(_ context.Context, limit int) ([]domain.Chunk, error) {
	return s.filterChunks(func(c domain.Chunk) bool { return !c.HasEmbedding() }, limit), nil
}

// ListEmbeddedChunks returns every chunk with an embedding.
func (s *DocumentStore) ListEmbeddedChunks(_ context.Context) ([]domain.Chunk, error) {
	return s.filterChunks(domain.Chunk.HasEmbedding, 0), nil
}

// UpdateChunkEmbedding sets the embedding of one chunk.
func (s *DocumentStore) UpdateChunkEmbedding(_ context.Context, ref domain.ChunkRef, embedding []float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	chunks := s.chunks[ref.DocID]
	for i := range chunks {
		if chunks[i].ChunkID == ref.ChunkID {
			chunks[i].Embedding = slices.Clone(embedding)
			return nil
		}
	}
	return domain.ErrNotFound
}

// HasChunks reports whether a document has chunks.
func (s *DocumentStore) HasChunks(_ context.Context, docID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks[docID]) > 0, nil
}

// CountChunks returns the total number of chunks.
func (s *DocumentStore) CountChunks(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := 0
	for _, chunks := range s.chunks {
		total += len(chunks)
	}
	return total, nil
}

// filterChunks walks chunks in (DocID, ChunkID) order. A limit of 0 means no limit.
func (s *DocumentStore) filterChunks(keep func(domain.Chunk) bool, limit int) []domain.Chunk {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docIDs := make([]string, 0, len(s.chunks))
	for id := range s.chunks {
		docIDs = append(docIDs, id)
	}
	slices.Sort(docIDs)

	var out []domain.Chunk
	for _, id := range docIDs {
		for _, c := range s.chunks[id] {
			if !keep(c) {
				continue
			}
			out = append(out, c)
			if limit > 0 && len(out) == limit {
				return out
			}
		}
	}
	return out
}
