package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractionStatus_IsValid(t *testing.T) {
	assert.True(t, ExtractionPending.IsValid())
	assert.True(t, ExtractionSuccess.IsValid())
	assert.True(t, ExtractionFailed.IsValid())
	assert.False(t, ExtractionStatus("").IsValid())
	assert.False(t, ExtractionStatus("done").IsValid())
}

func TestChunk_HasEmbedding(t *testing.T) {
	c := Chunk{DocID: "paper-1", ChunkID: 0}
	assert.False(t, c.HasEmbedding())

	c.Embedding = []float32{}
	assert.True(t, c.HasEmbedding(), "an empty but non-nil vector counts as embedded")
}

func TestChunkRef_KeyRoundTrip(t *testing.T) {
	tests := []ChunkRef{
		{DocID: "paper-1", ChunkID: 0},
		{DocID: "smith#2019", ChunkID: 42},
	}

	for _, ref := range tests {
		t.Run(ref.Key(), func(t *testing.T) {
			parsed, err := ParseChunkRef(ref.Key())
			require.NoError(t, err)
			assert.Equal(t, ref, parsed)
		})
	}
}

func TestParseChunkRef_Invalid(t *testing.T) {
	for _, key := range []string{"", "paper-1", "#3", "paper-1#x"} {
		t.Run(key, func(t *testing.T) {
			_, err := ParseChunkRef(key)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestChunk_Ref(t *testing.T) {
	c := Chunk{DocID: "paper-9", ChunkID: 3}
	assert.Equal(t, ChunkRef{DocID: "paper-9", ChunkID: 3}, c.Ref())
}
