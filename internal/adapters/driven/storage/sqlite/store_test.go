package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/litreview/internal/adapters/driven/storage/storetest"
	"github.com/custodia-labs/litreview/internal/core/domain"
	"github.com/custodia-labs/litreview/internal/core/ports/driven"
)

// setupTestStore creates a SQLite store in a temporary directory.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(filepath.Join(t.TempDir(), DefaultFileName))
	require.NoError(t, err)
	require.NotNil(t, store)
	return store
}

func TestStore_Conformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) driven.Store { return setupTestStore(t) })
}

// ==================== Store Creation and Initialization Tests ====================

func TestNewStore_CreatesDirectoryAndFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "review.db")

	store, err := NewStore(path)
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, path, store.Path())
	assert.FileExists(t, path)
}

func TestNewStore_MigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFileName)

	first, err := NewStore(path)
	require.NoError(t, err)
	require.NoError(t, first.SaveDocument(context.Background(), &domain.Document{
		DocID: "kept", Filename: "kept.pdf", Filepath: "/kept.pdf", Status: domain.ExtractionSuccess,
	}))
	require.NoError(t, first.Close())

	second, err := NewStore(path)
	require.NoError(t, err)
	defer second.Close()

	doc, err := second.GetDocument(context.Background(), "kept")
	require.NoError(t, err)
	assert.Equal(t, "kept.pdf", doc.Filename)

	var versions int
	require.NoError(t, second.db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&versions))
	assert.Equal(t, 1, versions)
}

func TestSaveChunks_RequiresParentDocument(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close()

	err := store.SaveChunks(context.Background(), []domain.Chunk{{DocID: "orphan", ChunkID: 0, Text: "x"}})
	assert.Error(t, err)
}

func TestSaveDocument_UpsertKeepsChunks(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)
	defer store.Close()

	doc := &domain.Document{DocID: "a", Filename: "a.pdf", Filepath: "/a.pdf", Status: domain.ExtractionSuccess}
	require.NoError(t, store.SaveDocument(ctx, doc))
	require.NoError(t, store.SaveChunks(ctx, []domain.Chunk{{DocID: "a", ChunkID: 0, Text: "x"}}))

	doc.PageCount = 12
	require.NoError(t, store.SaveDocument(ctx, doc))

	has, err := store.HasChunks(ctx, "a")
	require.NoError(t, err)
	assert.True(t, has)
}

func TestSaveDocument_Invalid(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close()

	assert.ErrorIs(t, store.SaveDocument(context.Background(), nil), domain.ErrInvalidInput)
	assert.ErrorIs(t, store.SaveDocument(context.Background(), &domain.Document{}), domain.ErrInvalidInput)
	assert.ErrorIs(t, store.UpsertAssessment(context.Background(), nil), domain.ErrInvalidInput)
}

func TestPing_AfterClose(t *testing.T) {
	store := setupTestStore(t)
	require.NoError(t, store.Close())

	err := store.Ping(context.Background())
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
}

func TestEmbeddingNullVersusStored(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)
	defer store.Close()

	require.NoError(t, store.SaveDocument(ctx, &domain.Document{DocID: "a", Filename: "a.pdf", Filepath: "/a.pdf", Status: domain.ExtractionSuccess}))
	require.NoError(t, store.SaveChunks(ctx, []domain.Chunk{
		{DocID: "a", ChunkID: 0, Text: "x"},
		{DocID: "a", ChunkID: 1, Text: "y", Embedding: []float32{1}},
	}))

	var nulls int
	require.NoError(t, store.db.QueryRow(
		"SELECT COUNT(*) FROM document_chunks WHERE embedding IS NULL").Scan(&nulls))
	assert.Equal(t, 1, nulls)
}

// ==================== Helper Function Tests ====================

func TestFloat32Conversion(t *testing.T) {
	tests := []struct {
		name string
		in   []float32
	}{
		{"nil", nil},
		{"single", []float32{1.5}},
		{"mixed", []float32{0, -1.25, 3.4028235e38, 1e-7}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.in, bytesToFloat32Slice(float32SliceToBytes(tt.in)))
		})
	}
	assert.Len(t, float32SliceToBytes([]float32{1, 2}), 8)
}

func TestMarshalPapers(t *testing.T) {
	s, err := marshalPapers(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", s)

	s, err = marshalPapers([]string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, `["a","b"]`, s)
}
