package mongo

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/litreview/internal/adapters/driven/storage/storetest"
	"github.com/custodia-labs/litreview/internal/core/domain"
	"github.com/custodia-labs/litreview/internal/core/ports/driven"
)

// testURIEnv names the variable pointing the integration tests at a server.
const testURIEnv = "LITREVIEW_TEST_MONGO_URI"

func newTestStore(t *testing.T) *Store {
	t.Helper()
	uri := os.Getenv(testURIEnv)
	if uri == "" {
		t.Skipf("%s not set", testURIEnv)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	db := "litreview_test_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	s, err := NewStore(ctx, uri, db)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Drop(context.Background()) })
	return s
}

func TestStore_Conformance(t *testing.T) {
	if os.Getenv(testURIEnv) == "" {
		t.Skipf("%s not set", testURIEnv)
	}
	storetest.Run(t, func(t *testing.T) driven.Store { return newTestStore(t) })
}

func TestNewStore_RequiresURIAndDatabase(t *testing.T) {
	_, err := NewStore(context.Background(), "", "db")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = NewStore(context.Background(), "mongodb://localhost:27017", "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestNewStore_InvalidURI(t *testing.T) {
	_, err := NewStore(context.Background(), "not-a-uri", "db")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
}

func TestDocumentRecord_RoundTrip(t *testing.T) {
	doc := &domain.Document{
		DocID:        "paper",
		Filename:     "paper.pdf",
		Filepath:     "/papers/paper/paper.pdf",
		Text:         "[Page 1]\nhello",
		PageCount:    1,
		Status:       domain.ExtractionSuccess,
		ExtractedAt:  time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		ErrorMessage: "",
	}
	assert.Equal(t, *doc, toDocumentRecord(doc).toDomain())
}

func TestChunkRecord_RoundTrip(t *testing.T) {
	c := domain.Chunk{DocID: "d", ChunkID: 2, CharStart: 10, CharEnd: 30, Text: "t", Filename: "d.pdf", Embedding: []float32{1, 2}}
	assert.Equal(t, c, toChunkRecord(c).toDomain())

	c.Embedding = nil
	assert.False(t, toChunkRecord(c).toDomain().HasEmbedding())
}

func TestAssessmentRecord_NilPapersBecomeEmpty(t *testing.T) {
	a := &domain.Assessment{
		FactNumber:     4,
		Verdict:        domain.Verdict{Score: 55, Confidence: domain.ConfidenceMedium},
		Diagnostics:    domain.Diagnostics{Outcome: domain.OutcomeJudged, Attempts: 1},
		ProcessingTime: 2 * time.Second,
	}

	rec := toAssessmentRecord(a)
	assert.Equal(t, []string{}, rec.SupportingPapers)
	assert.Equal(t, int64(2*time.Second), rec.ProcessingNS)

	back := rec.toDomain()
	assert.Equal(t, 55, back.Verdict.Score)
	assert.Equal(t, domain.ConfidenceMedium, back.Verdict.Confidence)
	assert.Equal(t, domain.OutcomeJudged, back.Diagnostics.Outcome)
	assert.Equal(t, 2*time.Second, back.ProcessingTime)
	assert.NotNil(t, back.Verdict.ContradictingPapers)
}

func TestStatusFilter(t *testing.T) {
	assert.Empty(t, statusFilter(""))
	assert.Equal(t, "failed", statusFilter(domain.ExtractionFailed)["status"])
}
