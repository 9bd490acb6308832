package gemini

import (
	"context"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEmbeddingService(t *testing.T) {
	t.Run("requires api key", func(t *testing.T) {
		_, err := NewEmbeddingService(context.Background(), Config{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "API key is required")
	})

	t.Run("defaults", func(t *testing.T) {
		svc, err := NewEmbeddingService(context.Background(), Config{APIKey: "k"})
		require.NoError(t, err)
		defer svc.Close()

		assert.Equal(t, DefaultModel, svc.ModelName())
		assert.Equal(t, DefaultDimensions, svc.Dimensions())
		assert.Equal(t, genai.TaskTypeRetrievalDocument, svc.em.TaskType)
	})

	t.Run("explicit model and dimensions", func(t *testing.T) {
		svc, err := NewEmbeddingService(context.Background(), Config{APIKey: "k", Model: "embedding-001", Dimensions: 256})
		require.NoError(t, err)
		defer svc.Close()

		assert.Equal(t, "embedding-001", svc.ModelName())
		assert.Equal(t, 256, svc.Dimensions())
	})
}

func TestEmbedBatch_Empty(t *testing.T) {
	svc, err := NewEmbeddingService(context.Background(), Config{APIKey: "k"})
	require.NoError(t, err)
	defer svc.Close()

	vecs, err := svc.EmbedBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, vecs)
}
