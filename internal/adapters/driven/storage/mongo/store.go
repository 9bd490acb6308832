// Package mongo provides a MongoDB implementation of driven.Store.
//
// Collections mirror the SQLite tables: documents, document_chunks,
// stylized_facts and assessments, each with a unique index on its key.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/custodia-labs/litreview/internal/core/domain"
	"github.com/custodia-labs/litreview/internal/core/ports/driven"
)

// Collection names.
const (
	DocumentsCollection   = "documents"
	ChunksCollection      = "document_chunks"
	FactsCollection       = "stylized_facts"
	AssessmentsCollection = "assessments"
)

// connectTimeout bounds server selection on startup.
const connectTimeout = 10 * time.Second

// Ensure Store implements the interface.
var _ driven.Store = (*Store)(nil)

// Store is a MongoDB implementation of driven.Store.
type Store struct {
	client      *mongo.Client
	db          *mongo.Database
	documents   *mongo.Collection
	chunks      *mongo.Collection
	facts       *mongo.Collection
	assessments *mongo.Collection
}

// NewStore connects to uri, selects database and ensures indexes exist.
func NewStore(ctx context.Context, uri, database string) (*Store, error) {
	if uri == "" || database == "" {
		return nil, fmt.Errorf("mongo store: uri and database are required: %w", domain.ErrInvalidInput)
	}

	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(connectTimeout))
	if err != nil {
		return nil, fmt.Errorf("%w: connecting to mongo: %w", domain.ErrStoreUnavailable, err)
	}

	db := client.Database(database)
	s := &Store{
		client:      client,
		db:          db,
		documents:   db.Collection(DocumentsCollection),
		chunks:      db.Collection(ChunksCollection),
		facts:       db.Collection(FactsCollection),
		assessments: db.Collection(AssessmentsCollection),
	}

	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	unique := options.Index().SetUnique(true)
	indexes := map[*mongo.Collection][]mongo.IndexModel{
		s.documents: {
			{Keys: bson.D{{Key: "doc_id", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "filepath", Value: 1}}},
			{Keys: bson.D{{Key: "status", Value: 1}}},
		},
		s.chunks: {
			{Keys: bson.D{{Key: "doc_id", Value: 1}, {Key: "chunk_id", Value: 1}}, Options: unique},
		},
		s.facts: {
			{Keys: bson.D{{Key: "fact_number", Value: 1}}, Options: unique},
		},
		s.assessments: {
			{Keys: bson.D{{Key: "fact_number", Value: 1}}, Options: unique},
		},
	}

	for coll, models := range indexes {
		if _, err := coll.Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("%w: creating indexes on %s: %w", domain.ErrStoreUnavailable, coll.Name(), err)
		}
	}
	return nil
}

// Ping verifies the primary is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}
	return nil
}

// Close disconnects the client.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// Drop removes the whole database.
func (s *Store) Drop(ctx context.Context) error {
	return s.db.Drop(ctx)
}

// ==================== Documents ====================

// SaveDocument inserts or replaces a document.
func (s *Store) SaveDocument(ctx context.Context, doc *domain.Document) error {
	if doc == nil || doc.DocID == "" {
		return fmt.Errorf("saving document: %w", domain.ErrInvalidInput)
	}
	_, err := s.documents.ReplaceOne(ctx,
		bson.M{"doc_id": doc.DocID},
		toDocumentRecord(doc),
		options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	return nil
}

// GetDocument retrieves a document by id.
func (s *Store) GetDocument(ctx context.Context, docID string) (*domain.Document, error) {
	return s.findDocument(ctx, bson.M{"doc_id": docID})
}

// GetDocumentByPath retrieves a document by its source path.
func (s *Store) GetDocumentByPath(ctx context.Context, path string) (*domain.Document, error) {
	return s.findDocument(ctx, bson.M{"filepath": path})
}

func (s *Store) findDocument(ctx context.Context, filter bson.M) (*domain.Document, error) {
	var rec documentRecord
	if err := s.documents.FindOne(ctx, filter).Decode(&rec); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("finding document: %w", err)
	}
	doc := rec.toDomain()
	return &doc, nil
}

// ListDocuments returns documents with the given status ordered by id.
func (s *Store) ListDocuments(ctx context.Context, status domain.ExtractionStatus) ([]domain.Document, error) {
	cur, err := s.documents.Find(ctx, statusFilter(status),
		options.Find().SetSort(bson.D{{Key: "doc_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}

	var recs []documentRecord
	if err := cur.All(ctx, &recs); err != nil {
		return nil, fmt.Errorf("decoding documents: %w", err)
	}
	docs := make([]domain.Document, len(recs))
	for i, r := range recs {
		docs[i] = r.toDomain()
	}
	return docs, nil
}

// CountDocuments returns the number of documents with the given status.
func (s *Store) CountDocuments(ctx context.Context, status domain.ExtractionStatus) (int, error) {
	n, err := s.documents.CountDocuments(ctx, statusFilter(status))
	if err != nil {
		return 0, fmt.Errorf("counting documents: %w", err)
	}
	return int(n), nil
}

func statusFilter(status domain.ExtractionStatus) bson.M {
	if status == "" {
		return bson.M{}
	}
	return bson.M{"status": string(status)}
}

// DeleteDocument removes a document and its chunks, chunks first.
func (s *Store) DeleteDocument(ctx context.Context, docID string) error {
	if _, err := s.chunks.DeleteMany(ctx, bson.M{"doc_id": docID}); err != nil {
		return fmt.Errorf("deleting chunks: %w", err)
	}
	if _, err := s.documents.DeleteOne(ctx, bson.M{"doc_id": docID}); err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	return nil
}

// ==================== Chunks ====================

// SaveChunks upserts chunks with one unordered bulk write.
func (s *Store) SaveChunks(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	models := make([]mongo.WriteModel, len(chunks))
	for i, c := range chunks {
		models[i] = mongo.NewReplaceOneModel().
			SetFilter(bson.M{"doc_id": c.DocID, "chunk_id": c.ChunkID}).
			SetReplacement(toChunkRecord(c)).
			SetUpsert(true)
	}

	if _, err := s.chunks.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false)); err != nil {
		return fmt.Errorf("saving chunks: %w", err)
	}
	return nil
}

// GetChunk retrieves a single chunk.
func (s *Store) GetChunk(ctx context.Context, ref domain.ChunkRef) (*domain.Chunk, error) {
	var rec chunkRecord
	err := s.chunks.FindOne(ctx, bson.M{"doc_id": ref.DocID, "chunk_id": ref.ChunkID}).Decode(&rec)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("finding chunk: %w", err)
	}
	c := rec.toDomain()
	return &c, nil
}

// ListChunks returns a document's chunks ordered by chunk id.
func (s *Store) ListChunks(ctx context.Context, docID string) ([]domain.Chunk, error) {
	return s.findChunks(ctx, bson.M{"doc_id": docID}, 0)
}

// ListChunksWithoutEmbedding returns up to limit chunks lacking an embedding.
func (s *Store) ListChunksWithoutEmbedding(ctx context.Context, limit int) ([]domain.Chunk, error) {
	return s.findChunks(ctx, bson.M{"embedding": nil}, limit)
}

// ListEmbeddedChunks returns every chunk with an embedding.
func (s *Store) ListEmbeddedChunks(ctx context.Context) ([]domain.Chunk, error) {
	return s.findChunks(ctx, bson.M{"embedding": bson.M{"$ne": nil}}, 0)
}

func (s *Store) findChunks(ctx context.Context, filter bson.M, limit int) ([]domain.Chunk, error) {
	opts := options.Find().SetSort(bson.D{{Key: "doc_id", Value: 1}, {Key: "chunk_id", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cur, err := s.chunks.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}

	var recs []chunkRecord
	if err := cur.All(ctx, &recs); err != nil {
		return nil, fmt.Errorf("decoding chunks: %w", err)
	}
	chunks := make([]domain.Chunk, len(recs))
	for i, r := range recs {
		chunks[i] = r.toDomain()
	}
	return chunks, nil
}

// UpdateChunkEmbedding sets the embedding of one chunk.
func (s *Store) UpdateChunkEmbedding(ctx context.Context, ref domain.ChunkRef, embedding []float32) error {
	res, err := s.chunks.UpdateOne(ctx,
		bson.M{"doc_id": ref.DocID, "chunk_id": ref.ChunkID},
		bson.M{"$set": bson.M{"embedding": embedding}})
	if err != nil {
		return fmt.Errorf("updating chunk embedding: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("updating chunk %s: %w", ref.Key(), domain.ErrNotFound)
	}
	return nil
}

// HasChunks reports whether a document has been chunked.
func (s *Store) HasChunks(ctx context.Context, docID string) (bool, error) {
	n, err := s.chunks.CountDocuments(ctx, bson.M{"doc_id": docID}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("checking chunks: %w", err)
	}
	return n > 0, nil
}

// CountChunks returns the total number of chunks.
func (s *Store) CountChunks(ctx context.Context) (int, error) {
	n, err := s.chunks.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return int(n), nil
}

// ==================== Facts ====================

// SaveFacts upserts facts by number.
// An existing embedding is kept when the incoming fact carries none.
func (s *Store) SaveFacts(ctx context.Context, facts []domain.Fact) error {
	if len(facts) == 0 {
		return nil
	}

	models := make([]mongo.WriteModel, len(facts))
	for i, f := range facts {
		set := bson.M{
			"text":        f.Text,
			"section":     f.Section,
			"source_file": f.SourceFile,
		}
		if f.Embedding != nil {
			set["embedding"] = f.Embedding
		}
		models[i] = mongo.NewUpdateOneModel().
			SetFilter(bson.M{"fact_number": f.Number}).
			SetUpdate(bson.M{"$set": set}).
			SetUpsert(true)
	}

	if _, err := s.facts.BulkWrite(ctx, models); err != nil {
		return fmt.Errorf("saving facts: %w", err)
	}
	return nil
}

// GetFact retrieves a fact by number.
func (s *Store) GetFact(ctx context.Context, number int) (*domain.Fact, error) {
	var rec factRecord
	if err := s.facts.FindOne(ctx, bson.M{"fact_number": number}).Decode(&rec); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("finding fact: %w", err)
	}
	f := rec.toDomain()
	return &f, nil
}

// ListFacts returns all facts ordered by number.
func (s *Store) ListFacts(ctx context.Context) ([]domain.Fact, error) {
	cur, err := s.facts.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "fact_number", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("querying facts: %w", err)
	}

	var recs []factRecord
	if err := cur.All(ctx, &recs); err != nil {
		return nil, fmt.Errorf("decoding facts: %w", err)
	}
	facts := make([]domain.Fact, len(recs))
	for i, r := range recs {
		facts[i] = r.toDomain()
	}
	return facts, nil
}

// UpdateFactEmbedding sets the embedding of one fact.
func (s *Store) UpdateFactEmbedding(ctx context.Context, number int, embedding []float32) error {
	res, err := s.facts.UpdateOne(ctx,
		bson.M{"fact_number": number},
		bson.M{"$set": bson.M{"embedding": embedding}})
	if err != nil {
		return fmt.Errorf("updating fact embedding: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("updating fact %d: %w", number, domain.ErrNotFound)
	}
	return nil
}

// ==================== Assessments ====================

// UpsertAssessment inserts or replaces the assessment for its fact.
func (s *Store) UpsertAssessment(ctx context.Context, a *domain.Assessment) error {
	if a == nil {
		return fmt.Errorf("saving assessment: %w", domain.ErrInvalidInput)
	}
	rec := toAssessmentRecord(a)
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	_, err := s.assessments.ReplaceOne(ctx,
		bson.M{"fact_number": a.FactNumber},
		rec,
		options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("saving assessment %d: %w", a.FactNumber, err)
	}
	return nil
}

// GetAssessment retrieves the assessment for a fact.
func (s *Store) GetAssessment(ctx context.Context, factNumber int) (*domain.Assessment, error) {
	var rec assessmentRecord
	if err := s.assessments.FindOne(ctx, bson.M{"fact_number": factNumber}).Decode(&rec); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("finding assessment: %w", err)
	}
	a := rec.toDomain()
	return &a, nil
}

// ListAssessments returns all assessments ordered by fact number.
func (s *Store) ListAssessments(ctx context.Context) ([]domain.Assessment, error) {
	cur, err := s.assessments.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "fact_number", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("querying assessments: %w", err)
	}

	var recs []assessmentRecord
	if err := cur.All(ctx, &recs); err != nil {
		return nil, fmt.Errorf("decoding assessments: %w", err)
	}
	out := make([]domain.Assessment, len(recs))
	for i, r := range recs {
		out[i] = r.toDomain()
	}
	return out, nil
}

// CountAssessments returns the number of stored assessments.
func (s *Store) CountAssessments(ctx context.Context) (int, error) {
	n, err := s.assessments.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("counting assessments: %w", err)
	}
	return int(n), nil
}
