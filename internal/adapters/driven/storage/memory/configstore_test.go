package memory

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigStore_Seeded(t *testing.T) {
	store := NewConfigStore(map[string]any{"llm.model": "llama3.2"})
	assert.Equal(t, "llama3.2", store.GetString("llm.model"))
	assert.Equal(t, ":memory:", store.Path())
}

func TestConfigStore_SetAndGet(t *testing.T) {
	store := NewConfigStore()

	require.NoError(t, store.Set("review.top_k", 20))
	val, ok := store.Get("review.top_k")
	assert.True(t, ok)
	assert.Equal(t, 20, val)

	_, ok = store.Get("missing")
	assert.False(t, ok)
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store := NewConfigStore(map[string]any{
		"s":   "text",
		"i":   7,
		"i64": int64(8),
		"f":   0.25,
		"b":   true,
	})

	assert.Equal(t, "text", store.GetString("s"))
	assert.Empty(t, store.GetString("i"))

	assert.Equal(t, 7, store.GetInt("i"))
	assert.Equal(t, 8, store.GetInt("i64"))
	assert.Equal(t, 0, store.GetInt("f"))
	assert.Zero(t, store.GetInt("s"))

	assert.InDelta(t, 0.25, store.GetFloat("f"), 1e-9)
	assert.InDelta(t, 7.0, store.GetFloat("i"), 1e-9)

	assert.True(t, store.GetBool("b"))
	assert.False(t, store.GetBool("s"))
	assert.False(t, store.GetBool("missing"))
}

func TestConfigStore_LoadRollsBackToLastSave(t *testing.T) {
	store := NewConfigStore(map[string]any{"llm.model": "seed"})

	require.NoError(t, store.Set("llm.model", "unsaved"))
	require.NoError(t, store.Load())
	assert.Equal(t, "seed", store.GetString("llm.model"))

	require.NoError(t, store.Set("llm.model", "kept"))
	require.NoError(t, store.Set("retrieval.top_k", 8))
	require.NoError(t, store.Save())
	require.NoError(t, store.Set("retrieval.top_k", nil))
	require.NoError(t, store.Load())

	assert.Equal(t, "kept", store.GetString("llm.model"))
	assert.Equal(t, 8, store.GetInt("retrieval.top_k"))
	assert.Equal(t, 1, store.Saves())
}

func TestConfigStore_Concurrency(t *testing.T) {
	store := NewConfigStore()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			_ = store.Set("counter", n)
		}(i)
		go func() {
			defer wg.Done()
			_ = store.GetInt("counter")
		}()
	}
	wg.Wait()

	_, ok := store.Get("counter")
	assert.True(t, ok)
}
