package driven

import (
	"context"

	"github.com/custodia-labs/litreview/internal/core/domain"
)

// DocumentStore persists source documents and their chunks.
type DocumentStore interface {
	// SaveDocument inserts or replaces a document keyed by DocID.
	SaveDocument(ctx context.Context, doc *domain.Document) error

	// GetDocument retrieves a document by DocID.
	// Returns domain.ErrNotFound if absent.
	GetDocument(ctx context.Context, docID string) (*domain.Document, error)

	// GetDocumentByPath retrieves a document by its source file path.
	// Returns domain.ErrNotFound if absent.
	GetDocumentByPath(ctx context.Context, path string) (*domain.Document, error)

	// ListDocuments returns documents with the given status, ordered by DocID.
	// An empty status lists every document.
	ListDocuments(ctx context.Context, status domain.ExtractionStatus) ([]domain.Document, error)

	// CountDocuments returns the number of documents with the given status.
	// An empty status counts every document.
	CountDocuments(ctx context.Context, status domain.ExtractionStatus) (int, error)

	// DeleteDocument removes a document and all its chunks.
	DeleteDocument(ctx context.Context, docID string) error

	// SaveChunks bulk-inserts or replaces chunks keyed by (DocID, ChunkID).
	SaveChunks(ctx context.Context, chunks []domain.Chunk) error

	// GetChunk retrieves a single chunk.
	// Returns domain.ErrNotFound if absent.
	GetChunk(ctx context.Context, ref domain.ChunkRef) (*domain.Chunk, error)

	// ListChunks returns a document's chunks ordered by ChunkID.
	ListChunks(ctx context.Context, docID string) ([]domain.Chunk, error)

	// ListChunksWithoutEmbedding returns up to limit chunks lacking an embedding.
	ListChunksWithoutEmbedding(ctx context.Context, limit int) ([]domain.Chunk, error)

	// ListEmbeddedChunks returns every chunk that has an embedding,
	// ordered by DocID then ChunkID.
	ListEmbeddedChunks(ctx context.Context) ([]domain.Chunk, error)

	// UpdateChunkEmbedding sets the embedding of one chunk.
	UpdateChunkEmbedding(ctx context.Context, ref domain.ChunkRef, embedding []float32) error

	// HasChunks reports whether a document has been chunked.
	HasChunks(ctx context.Context, docID string) (bool, error)

	// CountChunks returns the total number of chunks.
	CountChunks(ctx context.Context) (int, error)
}

// FactStore persists the fact catalogue.
type FactStore interface {
	// SaveFacts inserts or replaces facts keyed by Number.
	SaveFacts(ctx context.Context, facts []domain.Fact) error

	// GetFact retrieves a fact by number.
	// Returns domain.ErrNotFound if absent.
	GetFact(ctx context.Context, number int) (*domain.Fact, error)

	// ListFacts returns all facts ordered by Number.
	ListFacts(ctx context.Context) ([]domain.Fact, error)

	// UpdateFactEmbedding sets the embedding of one fact.
	UpdateFactEmbedding(ctx context.Context, number int, embedding []float32) error
}

// AssessmentStore persists assessments, one per fact.
type AssessmentStore interface {
	// UpsertAssessment inserts or replaces the assessment for its FactNumber.
	UpsertAssessment(ctx context.Context, a *domain.Assessment) error

	// GetAssessment retrieves the assessment for a fact.
	// Returns domain.ErrNotFound if absent.
	GetAssessment(ctx context.Context, factNumber int) (*domain.Assessment, error)

	// ListAssessments returns all assessments ordered by FactNumber.
	ListAssessments(ctx context.Context) ([]domain.Assessment, error)

	// CountAssessments returns the number of stored assessments.
	CountAssessments(ctx context.Context) (int, error)
}

// Store bundles every persistence concern behind one handle.
// One Store is constructed per process and passed to the services that need it.
type Store interface {
	DocumentStore
	FactStore
	AssessmentStore

	// Ping verifies the backing engine is reachable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
