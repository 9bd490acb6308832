package keymap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultKeyMap(t *testing.T) {
	km := DefaultKeyMap()

	require.NotNil(t, km)
	assert.Contains(t, km.Stop.Keys(), "q")
	assert.Contains(t, km.Stop.Keys(), "ctrl+c")
	assert.Contains(t, km.Recent.Keys(), "r")
}

func TestKeyMap_ShortHelp(t *testing.T) {
	km := DefaultKeyMap()

	help := km.ShortHelp()
	require.Len(t, help, 2)
	assert.Equal(t, "q", help[0].Help().Key)
}
