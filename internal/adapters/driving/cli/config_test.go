package cli

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/litreview/internal/core/domain"
)

// Test helper functions in config.go

func TestMaskAPIKey(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Short key",
			input:    "abc123",
			expected: "****",
		},
		{
			name:     "Exactly 8 chars",
			input:    "12345678",
			expected: "****",
		},
		{
			name:     "Long key",
			input:    "sk-1234567890abcdef",
			expected: "sk-1...cdef",
		},
		{
			name:     "Very long key",
			input:    "sk-proj-1234567890abcdefghijklmnop",
			expected: "sk-p...mnop",
		},
		{
			name:     "Empty key",
			input:    "",
			expected: "****",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := maskAPIKey(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestParseChoice(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		maxVal     int
		defaultVal int
		expected   int
	}{
		{
			name:       "Empty input returns default",
			input:      "",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Valid choice within range",
			input:      "3",
			maxVal:     5,
			defaultVal: 1,
			expected:   3,
		},
		{
			name:       "Choice below minimum returns default",
			input:      "0",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Choice above maximum returns default",
			input:      "6",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Invalid input returns default",
			input:      "abc",
			maxVal:     5,
			defaultVal: 2,
			expected:   2,
		},
		{
			name:       "Negative number returns default",
			input:      "-1",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Whitespace returns default",
			input:      "   ",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Maximum value is valid",
			input:      "5",
			maxVal:     5,
			defaultVal: 1,
			expected:   5,
		},
		{
			name:       "Minimum value is valid",
			input:      "1",
			maxVal:     5,
			defaultVal: 3,
			expected:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parseChoice(tt.input, tt.maxVal, tt.defaultVal)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestConfigShowCmd(t *testing.T) {
	settings := newMockSettingsService()
	settings.settings.LLM.Provider = domain.AIProviderOpenAI
	settings.settings.LLM.APIKey = "sk-1234567890abcdef"
	swapServices(t, Services{Settings: settings})

	out, err := execute(t, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "[Embedding]")
	assert.Contains(t, out, "Model: nomic-embed-text")
	assert.Contains(t, out, "API Key: sk-1...cdef")
	assert.NotContains(t, out, "sk-1234567890abcdef")
	assert.Contains(t, out, "Backend: sqlite")
	assert.Contains(t, out, "Configuration is valid.")
}

func TestConfigShowCmd_InvalidSettings(t *testing.T) {
	settings := newMockSettingsService()
	settings.validateErr = errors.New("llm.api_key is required")
	swapServices(t, Services{Settings: settings})

	out, err := execute(t, "config")
	require.NoError(t, err)
	assert.Contains(t, out, "Warning: llm.api_key is required")
}

func TestConfigSetCmd(t *testing.T) {
	settings := newMockSettingsService()
	swapServices(t, Services{Settings: settings})

	out, err := execute(t, "config", "set", "retrieval.top_k", "30")
	require.NoError(t, err)
	assert.Equal(t, "30", settings.set["retrieval.top_k"])
	assert.Contains(t, out, "Set retrieval.top_k = 30")

	out, err = execute(t, "config", "set", "llm.api_key", "sk-abcdefghijklmnop")
	require.NoError(t, err)
	assert.Contains(t, out, "Set llm.api_key = sk-a...mnop")
}

func TestConfigSetCmd_Rejected(t *testing.T) {
	settings := newMockSettingsService()
	settings.setErr = domain.ErrInvalidInput
	swapServices(t, Services{Settings: settings})

	_, err := execute(t, "config", "set", "chunking.overlap", "5000")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestConfigKeysCmd(t *testing.T) {
	old := settingKeys
	t.Cleanup(func() { settingKeys = old })
	SetSettingKeys([]string{"llm.model", "retrieval.top_k"})
	swapServices(t, Services{})

	out, err := execute(t, "config", "keys")
	require.NoError(t, err)
	assert.Equal(t, "llm.model\nretrieval.top_k\n", out)
}

func TestConfigEmbeddingCmd(t *testing.T) {
	settings := newMockSettingsService()
	swapServices(t, Services{Settings: settings})
	rootCmd.SetIn(strings.NewReader("2\n\nsk-test-key-123456\n"))
	t.Cleanup(func() { rootCmd.SetIn(nil) })

	out, err := execute(t, "config", "embedding")
	require.NoError(t, err)
	assert.Equal(t, "openai", settings.set["embedding.provider"])
	assert.Equal(t, "text-embedding-3-small", settings.set["embedding.model"])
	assert.Equal(t, "sk-test-key-123456", settings.set["embedding.api_key"])
	assert.Contains(t, out, "Validating configuration... OK")
}

func TestConfigLLMCmd_ValidationFails(t *testing.T) {
	settings := newMockSettingsService()
	settings.pingErr = domain.ErrLLMUnavailable
	swapServices(t, Services{Settings: settings})
	rootCmd.SetIn(strings.NewReader("1\nllama3.1:8b\n"))
	t.Cleanup(func() { rootCmd.SetIn(nil) })

	out, err := execute(t, "config", "llm")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
	assert.Equal(t, "ollama", settings.set["llm.provider"])
	assert.Equal(t, "llama3.1:8b", settings.set["llm.model"])
	assert.NotContains(t, settings.set, "llm.api_key")
	assert.Contains(t, out, "FAILED")
}

func TestConfigLLMCmd_MissingAPIKey(t *testing.T) {
	settings := newMockSettingsService()
	swapServices(t, Services{Settings: settings})
	rootCmd.SetIn(strings.NewReader("3\n\n\n"))
	t.Cleanup(func() { rootCmd.SetIn(nil) })

	_, err := execute(t, "config", "llm")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key is required")
	assert.Empty(t, settings.set)
}
