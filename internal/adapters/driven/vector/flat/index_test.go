package flat

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/litreview/internal/core/ports/driven"
)

func ids(hits []driven.VectorHit) []string {
	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.ID
	}
	return out
}

func TestInterfaceCompliance(t *testing.T) {
	var _ driven.VectorIndex = (*Index)(nil)
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		a, b     []float32
		expected float64
	}{
		{name: "identical", a: []float32{1, 2, 3}, b: []float32{1, 2, 3}, expected: 1},
		{name: "opposite", a: []float32{1, 0}, b: []float32{-1, 0}, expected: -1},
		{name: "orthogonal", a: []float32{1, 0}, b: []float32{0, 1}, expected: 0},
		{name: "zero left", a: []float32{0, 0}, b: []float32{1, 1}, expected: 0},
		{name: "zero right", a: []float32{1, 1}, b: []float32{0, 0}, expected: 0},
		{name: "length mismatch", a: []float32{1, 1}, b: []float32{1, 1, 1}, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, CosineSimilarity(tt.a, tt.b), 1e-6)
		})
	}
}

func TestCosineSimilarity_Bounds(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 200; i++ {
		a := make([]float32, 16)
		b := make([]float32, 16)
		for j := range a {
			a[j] = rng.Float32()*2 - 1
			b[j] = rng.Float32()*2 - 1
		}
		sim := CosineSimilarity(a, b)
		assert.GreaterOrEqual(t, sim, -1.0)
		assert.LessOrEqual(t, sim, 1.0)
	}
}

func TestSearch_EmptyIndex(t *testing.T) {
	hits, err := New().Search(context.Background(), []float32{1, 0}, 5)
	require.NoError(t, err)
	assert.NotNil(t, hits)
	assert.Empty(t, hits)
}

func TestSearch_OrdersByDescendingSimilarity(t *testing.T) {
	ctx := context.Background()
	idx := New()
	require.NoError(t, idx.Add(ctx, "far", []float32{0, 1}))
	require.NoError(t, idx.Add(ctx, "near", []float32{1, 0.1}))
	require.NoError(t, idx.Add(ctx, "mid", []float32{1, 1}))

	hits, err := idx.Search(ctx, []float32{1, 0}, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"near", "mid", "far"}, ids(hits))
	for i := 1; i < len(hits); i++ {
		assert.GreaterOrEqual(t, hits[i-1].Similarity, hits[i].Similarity)
	}
}

func TestSearch_TiesKeepInsertionOrder(t *testing.T) {
	ctx := context.Background()
	idx := New()
	require.NoError(t, idx.Add(ctx, "b", []float32{2, 0}))
	require.NoError(t, idx.Add(ctx, "a", []float32{1, 0}))
	require.NoError(t, idx.Add(ctx, "c", []float32{3, 0}))

	hits, err := idx.Search(ctx, []float32{1, 0}, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a", "c"}, ids(hits))
}

func TestSearch_TruncatesToK(t *testing.T) {
	ctx := context.Background()
	idx := New()
	for _, id := range []string{"a", "b", "c", "d"} {
		require.NoError(t, idx.Add(ctx, id, []float32{1, 0}))
	}

	hits, err := idx.Search(ctx, []float32{1, 0}, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids(hits))

	hits, err = idx.Search(ctx, []float32{1, 0}, 0)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestSearch_SkipsZeroVectors(t *testing.T) {
	ctx := context.Background()
	idx := New()
	require.NoError(t, idx.Add(ctx, "degraded", []float32{0, 0}))
	require.NoError(t, idx.Add(ctx, "negative", []float32{-1, 0}))

	hits, err := idx.Search(ctx, []float32{1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "negative", hits[0].ID)
	assert.InDelta(t, -1.0, hits[0].Similarity, 1e-6)
	assert.Equal(t, 2, idx.Count(), "zero vectors stay indexed")
}

func TestSearch_ZeroQueryMatchesNothing(t *testing.T) {
	ctx := context.Background()
	idx := New()
	require.NoError(t, idx.Add(ctx, "a", []float32{1, 0}))

	hits, err := idx.Search(ctx, []float32{0, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, hits)

	hits, err = idx.Search(ctx, nil, 5)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestAdd_OverwriteKeepsPosition(t *testing.T) {
	ctx := context.Background()
	idx := New()
	require.NoError(t, idx.Add(ctx, "a", []float32{1, 0}))
	require.NoError(t, idx.Add(ctx, "b", []float32{1, 0}))
	require.NoError(t, idx.Add(ctx, "a", []float32{1, 0}))

	assert.Equal(t, 2, idx.Count())
	hits, err := idx.Search(ctx, []float32{1, 0}, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids(hits))
}

func TestAdd_CopiesVector(t *testing.T) {
	ctx := context.Background()
	idx := New()
	vec := []float32{1, 0}
	require.NoError(t, idx.Add(ctx, "a", vec))
	vec[0] = 0

	hits, err := idx.Search(ctx, []float32{1, 0}, 1)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, hits[0].Similarity, 1e-9)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	idx := New()
	require.NoError(t, idx.Add(ctx, "a", []float32{1, 0}))
	require.NoError(t, idx.Add(ctx, "b", []float32{1, 0}))
	require.NoError(t, idx.Add(ctx, "c", []float32{1, 0}))

	require.NoError(t, idx.Delete(ctx, "b"))
	require.NoError(t, idx.Delete(ctx, "missing"))
	assert.Equal(t, 2, idx.Count())

	// re-adding after delete appends at the end
	require.NoError(t, idx.Add(ctx, "b", []float32{1, 0}))
	hits, err := idx.Search(ctx, []float32{1, 0}, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c", "b"}, ids(hits))
}

func TestSearch_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	idx := New()
	require.NoError(t, idx.Add(ctx, "a", []float32{1, 0}))
	cancel()

	_, err := idx.Search(ctx, []float32{1, 0}, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClose(t *testing.T) {
	ctx := context.Background()
	idx := New()
	require.NoError(t, idx.Add(ctx, "a", []float32{1, 0}))
	require.NoError(t, idx.Close())
	assert.Zero(t, idx.Count())
}
