package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/litreview/internal/core/domain"
	"github.com/custodia-labs/litreview/internal/core/ports/driven"
	"github.com/custodia-labs/litreview/internal/logger"
)

// ChunkRetriever finds the chunks most relevant to a query.
type ChunkRetriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]domain.RetrievedChunk, error)
}

// Ensure Retriever implements the interface.
var _ ChunkRetriever = (*Retriever)(nil)

// Retriever embeds a query and looks up the nearest chunks in a vector index.
type Retriever struct {
	docStore    driven.DocumentStore
	vectorIndex driven.VectorIndex
	embedder    driven.EmbeddingService
}

// NewRetriever creates a retriever over the given store, index and embedder.
func NewRetriever(
	docStore driven.DocumentStore,
	vectorIndex driven.VectorIndex,
	embedder driven.EmbeddingService,
) *Retriever {
	return &Retriever{
		docStore:    docStore,
		vectorIndex: vectorIndex,
		embedder:    embedder,
	}
}

// LoadResult summarises a Load call.
type LoadResult struct {
	// Indexed is the number of chunk vectors added to the index.
	Indexed int

	// ZeroVectors is how many of those vectors have zero norm and can never match.
	ZeroVectors int
}

// Load adds every embedded chunk in the store to the vector index.
func (r *Retriever) Load(ctx context.Context) (LoadResult, error) {
	var result LoadResult

	chunks, err := r.docStore.ListEmbeddedChunks(ctx)
	if err != nil {
		return result, fmt.Errorf("list embedded chunks: %w", err)
	}

	for _, c := range chunks {
		if err := r.vectorIndex.Add(ctx, c.Ref().Key(), c.Embedding); err != nil {
			return result, fmt.Errorf("index chunk %s: %w", c.Ref().Key(), err)
		}
		result.Indexed++
		if isZeroVector(c.Embedding) {
			result.ZeroVectors++
		}
	}

	logger.Debug("Loaded %d chunk vectors (%d zero vectors)", result.Indexed, result.ZeroVectors)
	if result.ZeroVectors > 0 {
		logger.Warn("%d chunks carry zero vectors and cannot be retrieved", result.ZeroVectors)
	}
	return result, nil
}

// Retrieve returns up to k chunks ordered by descending similarity to query.
// An empty index yields an empty result without calling the embedder.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) ([]domain.RetrievedChunk, error) {
	query = strings.TrimSpace(query)
	if query == "" || k <= 0 || r.vectorIndex.Count() == 0 {
		return []domain.RetrievedChunk{}, nil
	}

	embedding, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	hits, err := r.vectorIndex.Search(ctx, embedding, k)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	results := make([]domain.RetrievedChunk, 0, len(hits))
	for _, hit := range hits {
		ref, err := domain.ParseChunkRef(hit.ID)
		if err != nil {
			logger.Warn("Skipping hit with malformed id %q", hit.ID)
			continue
		}
		chunk, err := r.docStore.GetChunk(ctx, ref)
		if errors.Is(err, domain.ErrNotFound) {
			logger.Debug("Skipping hit %s: chunk no longer stored", hit.ID)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("get chunk %s: %w", hit.ID, err)
		}
		results = append(results, domain.RetrievedChunk{
			Chunk:      *chunk,
			Similarity: hit.Similarity,
		})
	}

	logger.Debug("Retrieved %d chunks (top similarity %.3f)", len(results), domain.TopSimilarity(results))
	return results, nil
}

func isZeroVector(v []float32) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}
