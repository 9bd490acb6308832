package driven

import "context"

// VectorIndex provides similarity search over chunk vectors.
type VectorIndex interface {
	// Add inserts or overwrites the vector for the given id.
	Add(ctx context.Context, id string, embedding []float32) error

	// Delete removes a vector from the index.
	Delete(ctx context.Context, id string) error

	// Search returns up to k entries in descending similarity.
	// An empty index yields an empty result, not an error.
	Search(ctx context.Context, query []float32, k int) ([]VectorHit, error)

	// Count returns the number of indexed vectors.
	Count() int

	// Close releases resources.
	Close() error
}

// VectorHit represents a similarity search result.
type VectorHit struct {
	// ID is the matched entry, a domain.ChunkRef key.
	ID string

	// Similarity is the cosine similarity score in [-1, 1].
	Similarity float64
}
