package flat

import (
	"cmp"
	"context"
	"math"
	"slices"
	"sync"

	"github.com/custodia-labs/litreview/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

type entry struct {
	id     string
	vector []float32
	norm   float64
}

// Index holds vectors in memory in insertion order.
type Index struct {
	mu      sync.RWMutex
	entries []entry
	pos     map[string]int
}

// New creates an empty index.
func New() *Index {
	return &Index{pos: make(map[string]int)}
}

// Add inserts a vector, or overwrites it in place if the id is already present.
// Overwriting keeps the entry's original insertion position.
func (idx *Index) Add(_ context.Context, id string, embedding []float32) error {
	vec := slices.Clone(embedding)
	e := entry{id: id, vector: vec, norm: norm(vec)}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	if i, ok := idx.pos[id]; ok {
		idx.entries[i] = e
		return nil
	}
	idx.pos[id] = len(idx.entries)
	idx.entries = append(idx.entries, e)
	return nil
}

// Delete removes a vector from the index. Unknown ids are ignored.
func (idx *Index) Delete(_ context.Context, id string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	i, ok := idx.pos[id]
	if !ok {
		return nil
	}
	idx.entries = slices.Delete(idx.entries, i, i+1)
	delete(idx.pos, id)
	for j := i; j < len(idx.entries); j++ {
		idx.pos[idx.entries[j].id] = j
	}
	return nil
}

// Search returns the k most similar vectors in descending similarity.
// Zero-norm vectors stay indexed but are never returned, and a zero-norm
// query matches nothing.
func (idx *Index) Search(ctx context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	qNorm := norm(query)
	if k <= 0 || qNorm == 0 {
		return []driven.VectorHit{}, nil
	}

	idx.mu.RLock()
	hits := make([]driven.VectorHit, 0, len(idx.entries))
	for _, e := range idx.entries {
		if e.norm == 0 {
			continue
		}
		hits = append(hits, driven.VectorHit{
			ID:         e.id,
			Similarity: cosine(query, qNorm, e.vector, e.norm),
		})
	}
	idx.mu.RUnlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	slices.SortStableFunc(hits, func(a, b driven.VectorHit) int {
		return cmp.Compare(b.Similarity, a.Similarity)
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Count returns the number of indexed vectors.
func (idx *Index) Count() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.entries)
}

// Clear removes every vector.
func (idx *Index) Clear() {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.entries = nil
	idx.pos = make(map[string]int)
}

// Close releases resources.
func (idx *Index) Close() error {
	idx.Clear()
	return nil
}

// CosineSimilarity returns dot(a,b)/(|a||b|).
// It is 0 when either vector has zero norm or the lengths differ.
func CosineSimilarity(a, b []float32) float64 {
	return cosine(a, norm(a), b, norm(b))
}

func cosine(a []float32, aNorm float64, b []float32, bNorm float64) float64 {
	if len(a) != len(b) || aNorm == 0 || bNorm == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	sim := dot / (aNorm * bNorm)
	switch {
	case math.IsNaN(sim):
		return 0
	case sim > 1:
		return 1
	case sim < -1:
		return -1
	}
	return sim
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}
