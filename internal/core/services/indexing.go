package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/litreview/internal/core/domain"
	"github.com/custodia-labs/litreview/internal/core/ports/driven"
	"github.com/custodia-labs/litreview/internal/core/ports/driving"
	"github.com/custodia-labs/litreview/internal/logger"
)

// Ensure IndexingService implements the interface.
var _ driving.IndexingService = (*IndexingService)(nil)

// DocumentChunker splits a document into chunks.
type DocumentChunker interface {
	Chunk(doc *domain.Document) []domain.Chunk
}

// IndexingService chunks extracted documents and embeds chunks and facts.
//
// Embedding failures never abort indexing. A failed batch is retried one text
// at a time and a text that still fails is stored with a zero vector, which
// scores 0 against every query. Such items are counted as degraded.
type IndexingService struct {
	store     driven.Store
	chunker   DocumentChunker
	embedder  driven.EmbeddingService
	catalogue driven.CatalogueSource
	metrics   driven.MetricsRecorder
	batchSize int
}

// NewIndexingService creates an indexing service.
func NewIndexingService(
	store driven.Store,
	chunker DocumentChunker,
	embedder driven.EmbeddingService,
	catalogue driven.CatalogueSource,
	batchSize int,
) *IndexingService {
	if batchSize <= 0 {
		batchSize = domain.DefaultEmbedBatchSize
	}
	return &IndexingService{
		store:     store,
		chunker:   chunker,
		embedder:  embedder,
		catalogue: catalogue,
		batchSize: batchSize,
	}
}

// SetMetrics sets the metrics recorder.
func (s *IndexingService) SetMetrics(m driven.MetricsRecorder) {
	s.metrics = m
}

// ChunkDocuments chunks every successfully extracted document not yet chunked.
func (s *IndexingService) ChunkDocuments(ctx context.Context) (*driving.IndexReport, error) {
	report := &driving.IndexReport{}
	defer logger.Timed("Chunking Documents")()

	docs, err := s.store.ListDocuments(ctx, domain.ExtractionSuccess)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	for i := range docs {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		doc := &docs[i]

		has, err := s.store.HasChunks(ctx, doc.DocID)
		if err != nil {
			return report, fmt.Errorf("check chunks for %s: %w", doc.DocID, err)
		}
		if has {
			continue
		}

		chunks := s.chunker.Chunk(doc)
		if len(chunks) == 0 {
			logger.Warn("Document %s produced no chunks", doc.DocID)
			continue
		}
		if err := s.store.SaveChunks(ctx, chunks); err != nil {
			return report, fmt.Errorf("save chunks for %s: %w", doc.DocID, err)
		}
		report.DocumentsChunked++
		report.ChunksCreated += len(chunks)
		logger.Debug("Chunked %s into %d chunks", doc.DocID, len(chunks))
	}

	logger.Info("Created %d chunks from %d documents", report.ChunksCreated, report.DocumentsChunked)
	return report, nil
}

// EmbedChunks embeds every chunk lacking an embedding, batchSize at a time.
func (s *IndexingService) EmbedChunks(ctx context.Context) (*driving.IndexReport, error) {
	report := &driving.IndexReport{}
	defer logger.Timed("Embedding Chunks")()
	logger.Info("Using %s (%d dimensions)", s.embedder.ModelName(), s.embedder.Dimensions())

	seen := make(map[string]bool)
	for {
		chunks, err := s.store.ListChunksWithoutEmbedding(ctx, s.batchSize)
		if err != nil {
			return report, fmt.Errorf("list chunks without embedding: %w", err)
		}
		if len(chunks) == 0 {
			break
		}

		// A store that fails to persist embeddings would hand back the same batch forever.
		fresh := false
		for _, c := range chunks {
			if !seen[c.Ref().Key()] {
				fresh = true
			}
			seen[c.Ref().Key()] = true
		}
		if !fresh {
			return report, fmt.Errorf("embed chunks: store returned an already embedded batch")
		}

		texts := make([]string, len(chunks))
		for i, c := range chunks {
			texts[i] = c.Text
		}

		vectors, degraded, err := s.embedTexts(ctx, texts)
		if err != nil {
			return report, err
		}

		for i, c := range chunks {
			if err := s.store.UpdateChunkEmbedding(ctx, c.Ref(), vectors[i]); err != nil {
				return report, fmt.Errorf("update embedding for %s: %w", c.Ref().Key(), err)
			}
		}

		report.ChunksEmbedded += len(chunks) - degraded
		report.ChunksDegraded += degraded
		if s.metrics != nil {
			s.metrics.ChunksEmbedded(len(chunks)-degraded, degraded)
		}
		logger.Debug("Embedded %d chunks (%d total)", len(chunks), report.ChunksEmbedded+report.ChunksDegraded)
	}

	logger.Info("Embedded %d chunks", report.ChunksEmbedded)
	if report.ChunksDegraded > 0 {
		logger.Warn("%d chunks were stored with zero vectors and cannot be retrieved", report.ChunksDegraded)
	}
	return report, nil
}

// EmbedFacts loads the catalogue, embeds each fact and stores it.
func (s *IndexingService) EmbedFacts(ctx context.Context) (*driving.IndexReport, error) {
	report := &driving.IndexReport{}
	defer logger.Timed("Embedding Facts")()

	facts, err := s.catalogue.LoadFacts(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalogue: %w", err)
	}

	for start := 0; start < len(facts); start += s.batchSize {
		end := min(start+s.batchSize, len(facts))
		batch := facts[start:end]

		texts := make([]string, len(batch))
		for i, f := range batch {
			texts[i] = f.Text
		}

		vectors, degraded, err := s.embedTexts(ctx, texts)
		if err != nil {
			return report, err
		}
		for i := range batch {
			batch[i].Embedding = vectors[i]
		}

		report.FactsEmbedded += len(batch) - degraded
		report.FactsDegraded += degraded
	}

	if err := s.store.SaveFacts(ctx, facts); err != nil {
		return report, fmt.Errorf("save facts: %w", err)
	}

	logger.Info("Embedded %d facts", report.FactsEmbedded)
	if report.FactsDegraded > 0 {
		logger.Warn("%d facts were stored with zero vectors", report.FactsDegraded)
	}
	return report, nil
}

// Run chunks documents, embeds chunks and embeds facts, in that order.
func (s *IndexingService) Run(ctx context.Context) (*driving.IndexReport, error) {
	total := &driving.IndexReport{}

	steps := []func(context.Context) (*driving.IndexReport, error){
		s.ChunkDocuments,
		s.EmbedChunks,
		s.EmbedFacts,
	}
	for _, step := range steps {
		report, err := step(ctx)
		total.Merge(report)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// embedTexts embeds texts as one batch, falling back to one call per text.
// Texts that cannot be embedded get a zero vector and are counted as degraded.
// Only cancellation of ctx is returned as an error.
func (s *IndexingService) embedTexts(ctx context.Context, texts []string) ([][]float32, int, error) {
	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err == nil && len(vectors) == len(texts) {
		return vectors, 0, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, 0, ctxErr
	}
	if err != nil {
		logger.Warn("Batch embedding failed, retrying individually: %v", err)
	} else {
		logger.Warn("Batch embedding returned %d vectors for %d texts, retrying individually", len(vectors), len(texts))
	}

	vectors = make([][]float32, len(texts))
	degraded := 0
	for i, text := range texts {
		v, err := s.embedder.Embed(ctx, text)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, 0, ctxErr
			}
			logger.Warn("Embedding failed, storing zero vector: %v", err)
			v = make([]float32, s.embedder.Dimensions())
			degraded++
		}
		vectors[i] = v
	}
	return vectors, degraded, nil
}
