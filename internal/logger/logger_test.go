package logger

import (
	"bytes"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func capture(t *testing.T, l Level) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel(l)
	t.Cleanup(func() {
		SetLevel(LevelError)
		SetOutput(os.Stderr)
		now = time.Now
	})
	return &buf
}

func TestSetVerbose(t *testing.T) {
	capture(t, LevelError)

	assert.False(t, IsVerbose())
	SetVerbose(true)
	assert.True(t, IsVerbose())
	assert.Equal(t, LevelDebug, CurrentLevel())
	SetVerbose(false)
	assert.False(t, IsVerbose())
	assert.Equal(t, LevelError, CurrentLevel())
}

func TestLevels(t *testing.T) {
	tests := []struct {
		name  string
		level Level
		want  string
	}{
		{"debug shows all", LevelDebug, "[DEBUG] d 1\n[INFO] i 2\n[WARN] w 3\n[ERROR] e 4\n"},
		{"info hides debug", LevelInfo, "[INFO] i 2\n[WARN] w 3\n[ERROR] e 4\n"},
		{"warn", LevelWarn, "[WARN] w 3\n[ERROR] e 4\n"},
		{"errors always print", LevelError, "[ERROR] e 4\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := capture(t, tt.level)

			Debug("d %d", 1)
			Info("i %d", 2)
			Warn("w %d", 3)
			Error("e %d", 4)

			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]Level{
		"debug":   LevelDebug,
		"INFO":    LevelInfo,
		" warn ":  LevelWarn,
		"warning": LevelWarn,
		"Error":   LevelError,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestLevel_String(t *testing.T) {
	assert.Equal(t, "WARN", LevelWarn.String())
	assert.Equal(t, "LEVEL(9)", Level(9).String())
}

func TestSection(t *testing.T) {
	buf := capture(t, LevelInfo)
	Section("Embedding Facts")
	assert.Equal(t, "\n=== Embedding Facts ===\n", buf.String())

	buf.Reset()
	SetLevel(LevelWarn)
	Section("Embedding Facts")
	assert.Empty(t, buf.String())
}

func TestTimed(t *testing.T) {
	buf := capture(t, LevelInfo)
	clock := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	now = func() time.Time { return clock }

	done := Timed("Chunking Documents")
	clock = clock.Add(1500 * time.Millisecond)
	done()

	assert.Equal(t, "\n=== Chunking Documents ===\n[INFO] Chunking Documents took 1.5s\n", buf.String())
}

func TestConcurrentAccess(t *testing.T) {
	capture(t, LevelDebug)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			SetVerbose(i%2 == 0)
			Debug("concurrent %d", i)
			IsVerbose()
		}()
	}
	wg.Wait()
}
