// Package logger prints levelled diagnostic lines to stderr.
// Debug and info output appear only with --verbose; warnings and errors
// are always shown so ingestion failures are never silent.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Level orders log severities.
type Level int

// Log levels from most to least verbose.
const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelTags = map[Level]string{
	LevelDebug: "[DEBUG]",
	LevelInfo:  "[INFO]",
	LevelWarn:  "[WARN]",
	LevelError: "[ERROR]",
}

var (
	mu     sync.RWMutex
	level         = LevelWarn
	output io.Writer = os.Stderr
	now           = time.Now
)

// SetVerbose lowers the threshold to debug, or restores the warning default.
func SetVerbose(v bool) {
	if v {
		SetLevel(LevelDebug)
		return
	}
	SetLevel(LevelWarn)
}

// IsVerbose returns true if debug output is enabled.
func IsVerbose() bool {
	return Enabled(LevelDebug)
}

// SetLevel sets the minimum level that is written.
func SetLevel(l Level) {
	mu.Lock()
	defer mu.Unlock()
	level = l
}

// Enabled reports whether messages at l are written.
func Enabled(l Level) bool {
	mu.RLock()
	defer mu.RUnlock()
	return l >= level
}

// SetOutput sets the writer for log lines. Defaults to os.Stderr.
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
	fmt.Fprintf(output, levelTags[l]+" "+format+"\n", args...)
}

// Debug logs pipeline detail such as routing and retrieval scores.
func Debug(format string, args ...any) { logf(LevelDebug, format, args...) }

// Info logs progress such as files ingested.
func Info(format string, args ...any) { logf(LevelInfo, format, args...) }

// Warn logs recoverable problems such as a skipped source file.
func Warn(format string, args ...any) { logf(LevelWarn, format, args...) }

// Error logs failures.
func Error(format string, args ...any) { logf(LevelError, format, args...) }

// Section prints a section header when debug output is enabled.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if level <= LevelDebug {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}

// Timed logs the elapsed time of an operation at debug level when the
// returned function is called.
//
//	defer logger.Timed("embed corpus")()
func Timed(name string) func() {
	start := now()
	return func() {
		Debug("%s took %s", name, now().Sub(start).Round(time.Millisecond))
	}
}
