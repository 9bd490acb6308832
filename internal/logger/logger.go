// Package logger writes the leveled diagnostics of litreview to stderr.
//
// The default level only lets errors through, so a plain run prints nothing
// beyond command output. --verbose lowers the threshold to debug and
// --log-level picks any level in between.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Level orders log messages by severity.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = map[Level]string{
	LevelDebug: "DEBUG",
	LevelInfo:  "INFO",
	LevelWarn:  "WARN",
	LevelError: "ERROR",
}

func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("LEVEL(%d)", int(l))
}

// ParseLevel accepts debug, info, warn (or warning) and error, in any case.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	}
	return LevelError, fmt.Errorf("unknown log level %q", s)
}

var (
	mu     sync.RWMutex
	level            = LevelError
	output io.Writer = os.Stderr
	now              = time.Now
)

// SetLevel sets the lowest level that is written.
func SetLevel(l Level) {
	mu.Lock()
	defer mu.Unlock()
	level = l
}

// CurrentLevel returns the threshold in effect.
func CurrentLevel() Level {
	mu.RLock()
	defer mu.RUnlock()
	return level
}

// SetVerbose switches between debug output and errors only.
func SetVerbose(v bool) {
	if v {
		SetLevel(LevelDebug)
		return
	}
	SetLevel(LevelError)
}

// IsVerbose reports whether debug messages are written.
func IsVerbose() bool {
	return CurrentLevel() <= LevelDebug
}

// SetOutput redirects log output. Tests use it to capture messages.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

func logf(l Level, format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if l < level {
		return
	}
	fmt.Fprintf(output, "["+l.String()+"] "+format+"\n", args...)
}

// Debug logs progress detail such as per-file and per-batch steps.
func Debug(format string, args ...any) { logf(LevelDebug, format, args...) }

// Info logs stage totals.
func Info(format string, args ...any) { logf(LevelInfo, format, args...) }

// Warn logs recoverable problems: a skipped paper, a degraded chunk.
func Warn(format string, args ...any) { logf(LevelWarn, format, args...) }

// Error is written at every level.
func Error(format string, args ...any) { logf(LevelError, format, args...) }

// Section prints a stage header at info level.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if level <= LevelInfo {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}

// Timed prints a stage header and returns a func that logs how long the
// stage took. Use it as defer logger.Timed("Embedding Chunks")().
func Timed(name string) func() {
	Section(name)
	start := now()
	return func() {
		Info("%s took %s", name, now().Sub(start).Round(time.Millisecond))
	}
}
