package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChangeType_String(t *testing.T) {
	assert.Equal(t, "created", ChangeCreated.String())
	assert.Equal(t, "updated", ChangeUpdated.String())
	assert.Equal(t, "deleted", ChangeDeleted.String())
	assert.Equal(t, "unknown", ChangeType(42).String())
}

func TestPaperChange_NeedsExtraction(t *testing.T) {
	assert.True(t, PaperChange{Type: ChangeCreated}.NeedsExtraction())
	assert.True(t, PaperChange{Type: ChangeUpdated}.NeedsExtraction())
	assert.False(t, PaperChange{Type: ChangeDeleted}.NeedsExtraction())
}
