package file

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConfigStore(t *testing.T) *ConfigStore {
	t.Helper()
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestNewConfigStore_Success(t *testing.T) {
	tmpDir := t.TempDir()

	store, err := NewConfigStore(tmpDir)

	require.NoError(t, err)
	require.NotNil(t, store)
	assert.Equal(t, filepath.Join(tmpDir, "config.toml"), store.Path())
}

func TestNewConfigStore_DefaultDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	store, err := NewConfigStore("")

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".litreview", "config.toml"), store.Path())
}

func TestNewConfigStore_MkdirAllError(t *testing.T) {
	store, err := NewConfigStore("/dev/null/cannot/create/dirs")

	assert.Error(t, err)
	assert.Nil(t, store)
}

func TestNewConfigStore_LoadCorruptedFile(t *testing.T) {
	tmpDir := t.TempDir()
	err := os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte("this is not valid TOML {{{[["), 0600)
	require.NoError(t, err)

	store, err := NewConfigStore(tmpDir)

	assert.Error(t, err)
	assert.Nil(t, store)
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store := newTestConfigStore(t)
	require.NoError(t, store.Set("llm.model", "gpt-oss:120b"))
	require.NoError(t, store.Set("llm.context_size", 32000))
	require.NoError(t, store.Set("llm.temperature", 0.1))
	require.NoError(t, store.Set("flag", true))

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"string", store.GetString("llm.model"), "gpt-oss:120b"},
		{"int", store.GetInt("llm.context_size"), 32000},
		{"float", store.GetFloat("llm.temperature"), 0.1},
		{"int as float", store.GetFloat("llm.context_size"), 32000.0},
		{"bool", store.GetBool("flag"), true},
		{"string wrong type", store.GetString("llm.context_size"), ""},
		{"int unparsable string", store.GetInt("llm.model"), 0},
		{"float unparsable string", store.GetFloat("llm.model"), 0.0},
		{"bool unparsable string", store.GetBool("llm.model"), false},
		{"missing string", store.GetString("missing"), ""},
		{"missing int", store.GetInt("missing"), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func TestConfigStore_Get_NotFound(t *testing.T) {
	store := newTestConfigStore(t)

	val, ok := store.Get("nonexistent")
	assert.False(t, ok)
	assert.Nil(t, val)
}

func TestConfigStore_SetNil_RemovesKey(t *testing.T) {
	store := newTestConfigStore(t)
	require.NoError(t, store.Set("review.max_attempts", 5))

	require.NoError(t, store.Set("review.max_attempts", nil))

	_, ok := store.Get("review.max_attempts")
	assert.False(t, ok)

	reloaded, err := NewConfigStore(filepath.Dir(store.Path()))
	require.NoError(t, err)
	_, ok = reloaded.Get("review.max_attempts")
	assert.False(t, ok)
}

func TestConfigStore_Persistence_WritesTables(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	require.NoError(t, store.Set("llm.model", "gpt-oss:120b"))
	require.NoError(t, store.Set("llm.top_p", 0.9))
	require.NoError(t, store.Set("retrieval.top_k", 20))

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), "[llm]")
	assert.Contains(t, string(data), "[retrieval]")

	reloaded, err := NewConfigStore(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, "gpt-oss:120b", reloaded.GetString("llm.model"))
	assert.InDelta(t, 0.9, reloaded.GetFloat("llm.top_p"), 1e-9)
	assert.Equal(t, 20, reloaded.GetInt("retrieval.top_k"))
}

func TestConfigStore_Load_NestedTables(t *testing.T) {
	tmpDir := t.TempDir()
	content := "[embedding]\nprovider = \"openai\"\nbatch_size = 25\n\n[rate]\nembed_per_second = 2.5\n"
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(content), 0600))

	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	assert.Equal(t, "openai", store.GetString("embedding.provider"))
	assert.Equal(t, 25, store.GetInt("embedding.batch_size"))
	assert.InDelta(t, 2.5, store.GetFloat("rate.embed_per_second"), 1e-9)
}

func TestConfigStore_ApplyEnv_OverridesWithoutPersisting(t *testing.T) {
	store := newTestConfigStore(t)
	require.NoError(t, store.Set("llm.model", "from-file"))

	store.ApplyEnv([]string{
		"LITREVIEW_LLM_MODEL=from-env",
		"LITREVIEW_LLM_API_KEY=sk-test",
		"LITREVIEW_RETRIEVAL_TOP_K=7",
		"LITREVIEW_RATE_EMBED_PER_SECOND=1.5",
		"LITREVIEW_BROKEN",
		"LITREVIEW_NOSECTION=1",
		"PATH=/usr/bin",
	})

	assert.Equal(t, "from-env", store.GetString("llm.model"))
	assert.Equal(t, "sk-test", store.GetString("llm.api_key"))
	assert.Equal(t, 7, store.GetInt("retrieval.top_k"))
	assert.InDelta(t, 1.5, store.GetFloat("rate.embed_per_second"), 1e-9)
	_, ok := store.Get("nosection")
	assert.False(t, ok)

	require.NoError(t, store.Save())
	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.False(t, strings.Contains(string(data), "sk-test"), "overrides must not be written to disk")
	assert.Contains(t, string(data), "from-file")
}

func TestEnvKey(t *testing.T) {
	tests := map[string]string{
		"LLM_MODEL":          "llm.model",
		"LLM_BASE_URL":       "llm.base_url",
		"STORAGE_MONGO_URI":  "storage.mongo_uri",
		"EMBEDDING_PROVIDER": "embedding.provider",
		"NOSECTION":          "",
		"_MODEL":             "",
		"LLM_":               "",
	}
	for in, want := range tests {
		assert.Equal(t, want, envKey(in), in)
	}
}

func TestConfigStore_Keys(t *testing.T) {
	store := newTestConfigStore(t)
	require.NoError(t, store.Set("llm.model", "x"))
	store.ApplyEnv([]string{"LITREVIEW_LLM_MODEL=y", "LITREVIEW_PATHS_DATA_DIR=/tmp"})

	assert.ElementsMatch(t, []string{"llm.model", "paths.data_dir"}, store.Keys())
}

func TestConfigStore_FilePermissions(t *testing.T) {
	store := newTestConfigStore(t)
	require.NoError(t, store.Set("test", "value"))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestConfigStore_EmptyFile(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte("# Just a comment\n\n"), 0600))

	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	_, ok := store.Get("any_key")
	assert.False(t, ok)
}

func TestConfigStore_Concurrency(t *testing.T) {
	store := newTestConfigStore(t)

	done := make(chan bool)
	for i := 0; i < 10; i++ {
		go func(id int) {
			key := "key.n" + string(rune('0'+id))
			_ = store.Set(key, id)
			_ = store.GetInt(key)
			_ = store.GetFloat(key)
			_, _ = store.Get(key)
			done <- true
		}(i)
	}

	for i := 0; i < 10; i++ {
		<-done
	}
}

func TestConfigStore_Save_WriteFileError(t *testing.T) {
	store := newTestConfigStore(t)
	require.NoError(t, store.Set("test", "value"))

	// Replace the file with a directory to cause write error
	require.NoError(t, os.Remove(store.Path()))
	require.NoError(t, os.Mkdir(store.Path(), 0700))

	assert.Error(t, store.Set("another", "value"))
}

func TestConfigStore_Load_InvalidTOML(t *testing.T) {
	store := newTestConfigStore(t)
	require.NoError(t, store.Set("valid", "data"))

	require.NoError(t, os.WriteFile(store.Path(), []byte("invalid toml syntax ][}{"), 0600))

	assert.Error(t, store.Load())
}

func TestConfigStore_SetWithUnmarshallableValue(t *testing.T) {
	store := newTestConfigStore(t)

	err := store.Set("channel", make(chan int))

	assert.Error(t, err)
}

func TestNestMap(t *testing.T) {
	nested := nestMap(map[string]any{
		"llm.model": "m",
		"llm.top_p": 0.9,
		"plain":     true,
		"a.b.c":     int64(1),
		"clash":     "leaf",
		"clash.sub": "inner",
	})

	llm, ok := nested["llm"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "m", llm["model"])
	assert.Equal(t, true, nested["plain"])
	assert.Equal(t, int64(1), nested["a"].(map[string]any)["b"].(map[string]any)["c"])

	assert.Equal(t, "inner", nested["clash.sub"])

	// Round trip through flatten keeps every key.
	flat := flattenMap(nested, "")
	assert.Equal(t, "m", flat["llm.model"])
	assert.Equal(t, "leaf", flat["clash"])
	assert.Equal(t, "inner", flat["clash.sub"])
}
