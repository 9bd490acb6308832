// Package storetest holds a conformance suite every driven.Store backend must pass.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/litreview/internal/core/domain"
	"github.com/custodia-labs/litreview/internal/core/ports/driven"
)

// Factory returns an empty store. The suite closes it.
type Factory func(t *testing.T) driven.Store

// Run exercises every driven.Store operation against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, s driven.Store)
	}{
		{"DocumentRoundTrip", testDocumentRoundTrip},
		{"DocumentUpsert", testDocumentUpsert},
		{"ListAndCountByStatus", testListAndCountByStatus},
		{"Chunks", testChunks},
		{"ChunkUpsertKeepsKey", testChunkUpsertKeepsKey},
		{"ChunkEmbeddings", testChunkEmbeddings},
		{"DeleteCascadesChunks", testDeleteCascadesChunks},
		{"Facts", testFacts},
		{"FactResaveKeepsEmbedding", testFactResaveKeepsEmbedding},
		{"Assessments", testAssessments},
		{"Ping", testPing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStore(t)
			t.Cleanup(func() { _ = s.Close() })
			tt.fn(t, s)
		})
	}
}

func seedDocument(t *testing.T, s driven.Store, id string, status domain.ExtractionStatus) *domain.Document {
	t.Helper()
	doc := &domain.Document{
		DocID:       id,
		Filename:    id + ".pdf",
		Filepath:    "/papers/" + id + "/" + id + ".pdf",
		Text:        "[Page 1]\ntext of " + id,
		PageCount:   1,
		Status:      status,
		ExtractedAt: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	if status == domain.ExtractionFailed {
		doc.Text = ""
		doc.ErrorMessage = "malformed PDF"
	}
	require.NoError(t, s.SaveDocument(context.Background(), doc))
	return doc
}

func chunksFor(docID string, n int) []domain.Chunk {
	chunks := make([]domain.Chunk, n)
	for i := range chunks {
		chunks[i] = domain.Chunk{
			DocID:     docID,
			ChunkID:   i,
			CharStart: i * 10,
			CharEnd:   i*10 + 10,
			Text:      "chunk text",
			Filename:  docID + ".pdf",
		}
	}
	return chunks
}

func testDocumentRoundTrip(t *testing.T, s driven.Store) {
	ctx := context.Background()
	want := seedDocument(t, s, "paper-a", domain.ExtractionSuccess)

	got, err := s.GetDocument(ctx, "paper-a")
	require.NoError(t, err)
	assert.Equal(t, want.DocID, got.DocID)
	assert.Equal(t, want.Filename, got.Filename)
	assert.Equal(t, want.Filepath, got.Filepath)
	assert.Equal(t, want.Text, got.Text)
	assert.Equal(t, want.PageCount, got.PageCount)
	assert.Equal(t, want.Status, got.Status)
	assert.True(t, want.ExtractedAt.Equal(got.ExtractedAt), "extracted_at %v != %v", got.ExtractedAt, want.ExtractedAt)

	byPath, err := s.GetDocumentByPath(ctx, want.Filepath)
	require.NoError(t, err)
	assert.Equal(t, "paper-a", byPath.DocID)

	_, err = s.GetDocument(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = s.GetDocumentByPath(ctx, "/nope.pdf")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	failed := seedDocument(t, s, "paper-b", domain.ExtractionFailed)
	got, err = s.GetDocument(ctx, failed.DocID)
	require.NoError(t, err)
	assert.Equal(t, "malformed PDF", got.ErrorMessage)
}

func testDocumentUpsert(t *testing.T, s driven.Store) {
	ctx := context.Background()
	doc := seedDocument(t, s, "paper-a", domain.ExtractionFailed)

	doc.Status = domain.ExtractionSuccess
	doc.Text = "recovered"
	doc.ErrorMessage = ""
	require.NoError(t, s.SaveDocument(ctx, doc))

	got, err := s.GetDocument(ctx, "paper-a")
	require.NoError(t, err)
	assert.Equal(t, domain.ExtractionSuccess, got.Status)
	assert.Equal(t, "recovered", got.Text)
	assert.Empty(t, got.ErrorMessage)

	n, err := s.CountDocuments(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func testListAndCountByStatus(t *testing.T, s driven.Store) {
	ctx := context.Background()
	seedDocument(t, s, "b", domain.ExtractionSuccess)
	seedDocument(t, s, "a", domain.ExtractionSuccess)
	seedDocument(t, s, "c", domain.ExtractionFailed)

	docs, err := s.ListDocuments(ctx, domain.ExtractionSuccess)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "a", docs[0].DocID)
	assert.Equal(t, "b", docs[1].DocID)

	all, err := s.ListDocuments(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	n, err := s.CountDocuments(ctx, domain.ExtractionFailed)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = s.CountDocuments(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	pending, err := s.ListDocuments(ctx, domain.ExtractionPending)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func testChunks(t *testing.T, s driven.Store) {
	ctx := context.Background()
	seedDocument(t, s, "a", domain.ExtractionSuccess)
	seedDocument(t, s, "b", domain.ExtractionSuccess)

	has, err := s.HasChunks(ctx, "a")
	require.NoError(t, err)
	assert.False(t, has)

	// Saved out of order; reads come back sorted.
	chunks := chunksFor("a", 3)
	require.NoError(t, s.SaveChunks(ctx, []domain.Chunk{chunks[2], chunks[0], chunks[1]}))
	require.NoError(t, s.SaveChunks(ctx, chunksFor("b", 1)))
	require.NoError(t, s.SaveChunks(ctx, nil))

	has, err = s.HasChunks(ctx, "a")
	require.NoError(t, err)
	assert.True(t, has)

	list, err := s.ListChunks(ctx, "a")
	require.NoError(t, err)
	require.Len(t, list, 3)
	for i, c := range list {
		assert.Equal(t, i, c.ChunkID)
		assert.Equal(t, i*10, c.CharStart)
		assert.Equal(t, "a.pdf", c.Filename)
		assert.False(t, c.HasEmbedding())
	}

	c, err := s.GetChunk(ctx, domain.ChunkRef{DocID: "a", ChunkID: 1})
	require.NoError(t, err)
	assert.Equal(t, 10, c.CharStart)
	assert.Equal(t, 20, c.CharEnd)

	_, err = s.GetChunk(ctx, domain.ChunkRef{DocID: "a", ChunkID: 9})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	n, err := s.CountChunks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	empty, err := s.ListChunks(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func testChunkUpsertKeepsKey(t *testing.T, s driven.Store) {
	ctx := context.Background()
	seedDocument(t, s, "a", domain.ExtractionSuccess)
	require.NoError(t, s.SaveChunks(ctx, chunksFor("a", 2)))

	replacement := chunksFor("a", 1)
	replacement[0].Text = "replaced"
	require.NoError(t, s.SaveChunks(ctx, replacement))

	n, err := s.CountChunks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	c, err := s.GetChunk(ctx, domain.ChunkRef{DocID: "a", ChunkID: 0})
	require.NoError(t, err)
	assert.Equal(t, "replaced", c.Text)
}

func testChunkEmbeddings(t *testing.T, s driven.Store) {
	ctx := context.Background()
	seedDocument(t, s, "a", domain.ExtractionSuccess)
	seedDocument(t, s, "b", domain.ExtractionSuccess)
	require.NoError(t, s.SaveChunks(ctx, chunksFor("a", 2)))
	require.NoError(t, s.SaveChunks(ctx, chunksFor("b", 2)))

	pending, err := s.ListChunksWithoutEmbedding(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, pending, 3)

	vec := []float32{0.25, -0.5, 1}
	require.NoError(t, s.UpdateChunkEmbedding(ctx, domain.ChunkRef{DocID: "a", ChunkID: 0}, vec))
	require.NoError(t, s.UpdateChunkEmbedding(ctx, domain.ChunkRef{DocID: "b", ChunkID: 1}, []float32{0, 0, 0}))

	err = s.UpdateChunkEmbedding(ctx, domain.ChunkRef{DocID: "a", ChunkID: 7}, vec)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	pending, err = s.ListChunksWithoutEmbedding(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	embedded, err := s.ListEmbeddedChunks(ctx)
	require.NoError(t, err)
	require.Len(t, embedded, 2)
	assert.Equal(t, domain.ChunkRef{DocID: "a", ChunkID: 0}, embedded[0].Ref())
	assert.Equal(t, vec, embedded[0].Embedding)
	assert.Equal(t, domain.ChunkRef{DocID: "b", ChunkID: 1}, embedded[1].Ref())
	// A zero vector is still an embedding.
	assert.Equal(t, []float32{0, 0, 0}, embedded[1].Embedding)
}

func testDeleteCascadesChunks(t *testing.T, s driven.Store) {
	ctx := context.Background()
	seedDocument(t, s, "a", domain.ExtractionSuccess)
	seedDocument(t, s, "b", domain.ExtractionSuccess)
	require.NoError(t, s.SaveChunks(ctx, chunksFor("a", 3)))
	require.NoError(t, s.SaveChunks(ctx, chunksFor("b", 1)))

	require.NoError(t, s.DeleteDocument(ctx, "a"))
	require.NoError(t, s.DeleteDocument(ctx, "never-existed"))

	_, err := s.GetDocument(ctx, "a")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	chunks, err := s.ListChunks(ctx, "a")
	require.NoError(t, err)
	assert.Empty(t, chunks)

	n, err := s.CountChunks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func testFacts(t *testing.T, s driven.Store) {
	ctx := context.Background()
	require.NoError(t, s.SaveFacts(ctx, []domain.Fact{
		{Number: 2, Text: "Reserve density scales with size", Section: "Energetics", SourceFile: "energetics.csv"},
		{Number: 1, Text: "Growth follows von Bertalanffy", Section: "Growth", SourceFile: "growth.csv"},
	}))

	facts, err := s.ListFacts(ctx)
	require.NoError(t, err)
	require.Len(t, facts, 2)
	assert.Equal(t, 1, facts[0].Number)
	assert.Equal(t, "Growth", facts[0].Section)
	assert.Equal(t, "growth.csv", facts[0].SourceFile)
	assert.Nil(t, facts[0].Embedding)

	require.NoError(t, s.UpdateFactEmbedding(ctx, 2, []float32{1, 2}))
	f, err := s.GetFact(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2}, f.Embedding)

	_, err = s.GetFact(ctx, 99)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, s.UpdateFactEmbedding(ctx, 99, []float32{1}), domain.ErrNotFound)

	// Upsert by number replaces the text.
	require.NoError(t, s.SaveFacts(ctx, []domain.Fact{{Number: 1, Text: "edited"}}))
	f, err = s.GetFact(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "edited", f.Text)

	facts, err = s.ListFacts(ctx)
	require.NoError(t, err)
	assert.Len(t, facts, 2)
}

func testFactResaveKeepsEmbedding(t *testing.T, s driven.Store) {
	ctx := context.Background()
	require.NoError(t, s.SaveFacts(ctx, []domain.Fact{{Number: 1, Text: "a", Embedding: []float32{3}}}))
	require.NoError(t, s.SaveFacts(ctx, []domain.Fact{{Number: 1, Text: "a"}}))

	f, err := s.GetFact(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []float32{3}, f.Embedding)
}

func testAssessments(t *testing.T, s driven.Store) {
	ctx := context.Background()
	created := time.Date(2025, 3, 2, 9, 30, 0, 0, time.UTC)
	a := &domain.Assessment{
		FactNumber: 7,
		Verdict: domain.Verdict{
			Score:                   72,
			Confidence:              domain.ConfidenceHigh,
			NumSupportingSources:    3,
			NumContradictingSources: 1,
			KeyEvidence:             "Three growth studies agree",
			SupportingPapers:        []string{"kooijman2010", "sousa2008"},
			ContradictingPapers:     []string{"west2001"},
		},
		Diagnostics: domain.Diagnostics{
			Outcome:         domain.OutcomeJudged,
			RetrievedChunks: 20,
			TopSimilarity:   0.83,
			Attempts:        2,
			PromptTokens:    5120,
		},
		ProcessingTime: 1500 * time.Millisecond,
		Model:          "gpt-oss:120b",
		CreatedAt:      created,
	}
	require.NoError(t, s.UpsertAssessment(ctx, a))

	got, err := s.GetAssessment(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, a.Verdict, got.Verdict)
	assert.Equal(t, a.Diagnostics.Outcome, got.Diagnostics.Outcome)
	assert.Equal(t, a.Diagnostics.RetrievedChunks, got.Diagnostics.RetrievedChunks)
	assert.InDelta(t, a.Diagnostics.TopSimilarity, got.Diagnostics.TopSimilarity, 1e-9)
	assert.Equal(t, a.Diagnostics.Attempts, got.Diagnostics.Attempts)
	assert.Equal(t, a.Diagnostics.PromptTokens, got.Diagnostics.PromptTokens)
	assert.Equal(t, a.ProcessingTime, got.ProcessingTime)
	assert.Equal(t, a.Model, got.Model)
	assert.True(t, created.Equal(got.CreatedAt))

	// Reprocessing replaces rather than duplicates.
	replacement := &domain.Assessment{
		FactNumber:  7,
		Verdict:     domain.ParseFailureVerdict(),
		Diagnostics: domain.Diagnostics{Outcome: domain.OutcomeParseFailure, Attempts: 3},
		CreatedAt:   created.Add(time.Hour),
	}
	require.NoError(t, s.UpsertAssessment(ctx, replacement))
	require.NoError(t, s.UpsertAssessment(ctx, &domain.Assessment{
		FactNumber:  3,
		Verdict:     domain.NoEvidenceVerdict(),
		Diagnostics: domain.Diagnostics{Outcome: domain.OutcomeNoEvidence},
		CreatedAt:   created,
	}))

	n, err := s.CountAssessments(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	list, err := s.ListAssessments(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, 3, list[0].FactNumber)
	assert.Equal(t, domain.NoEvidenceScore, list[0].Verdict.Score)
	assert.NotNil(t, list[0].Verdict.SupportingPapers)
	assert.Equal(t, 7, list[1].FactNumber)
	assert.Equal(t, domain.ParseFailureScore, list[1].Verdict.Score)
	assert.Equal(t, domain.OutcomeParseFailure, list[1].Diagnostics.Outcome)

	_, err = s.GetAssessment(ctx, 99)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func testPing(t *testing.T, s driven.Store) {
	assert.NoError(t, s.Ping(context.Background()))
}
