package cli

import (
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withVersion(t *testing.T, v string) {
	t.Helper()
	old := version
	version = v
	t.Cleanup(func() {
		version = old
		versionShort = false
	})
}

func TestVersionCmd(t *testing.T) {
	withVersion(t, "1.2.0")
	swapServices(t, Services{})

	out, err := execute(t, "version")

	require.NoError(t, err)
	assert.Contains(t, out, "litreview version 1.2.0")
	assert.Contains(t, out, runtime.Version())
}

func TestVersionCmd_Short(t *testing.T) {
	withVersion(t, "dev")
	swapServices(t, Services{})

	out, err := execute(t, "version", "--short")

	require.NoError(t, err)
	assert.Equal(t, "dev", strings.TrimSpace(out))
}
