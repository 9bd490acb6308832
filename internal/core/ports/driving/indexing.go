package driving

import "context"

// IndexingService chunks documents and embeds chunks and facts.
type IndexingService interface {
	// ChunkDocuments chunks every successfully extracted document not yet chunked.
	ChunkDocuments(ctx context.Context) (*IndexReport, error)

	// EmbedChunks embeds every chunk lacking an embedding.
	EmbedChunks(ctx context.Context) (*IndexReport, error)

	// EmbedFacts loads the catalogue, embeds each fact and stores it.
	EmbedFacts(ctx context.Context) (*IndexReport, error)

	// Run performs all three steps in order and merges their reports.
	Run(ctx context.Context) (*IndexReport, error)
}

// IndexReport summarises an indexing pass.
type IndexReport struct {
	// DocumentsChunked is the number of documents split this pass.
	DocumentsChunked int

	// ChunksCreated is the number of chunks written.
	ChunksCreated int

	// ChunksEmbedded is the number of chunks that received a real embedding.
	ChunksEmbedded int

	// ChunksDegraded is the number of chunks given a zero vector after embedding failed.
	// Degraded chunks score 0 against every query and cannot be retrieved.
	ChunksDegraded int

	// FactsEmbedded is the number of facts that received a real embedding.
	FactsEmbedded int

	// FactsDegraded is the number of facts given a zero vector.
	FactsDegraded int
}

// Merge adds other's counts into r.
func (r *IndexReport) Merge(other *IndexReport) {
	if other == nil {
		return
	}
	r.DocumentsChunked += other.DocumentsChunked
	r.ChunksCreated += other.ChunksCreated
	r.ChunksEmbedded += other.ChunksEmbedded
	r.ChunksDegraded += other.ChunksDegraded
	r.FactsEmbedded += other.FactsEmbedded
	r.FactsDegraded += other.FactsDegraded
}
