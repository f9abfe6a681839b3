// Package logger provides process-wide logging for partsearch.
// Debug, Info and Warn are printed only in verbose mode (the --verbose
// flag) and trace the query pipeline on stderr. Error is always printed.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
)

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr

	onceMu   sync.Mutex
	onceKeys = map[string]struct{}{}
)

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the output writer for logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// Debug prints a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	logf(false, "[DEBUG] ", format, args...)
}

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}

// Info prints an informational message if verbose mode is enabled.
func Info(format string, args ...any) {
	logf(false, "[INFO] ", format, args...)
}

// Warn prints a warning message if verbose mode is enabled.
func Warn(format string, args ...any) {
	logf(false, "[WARN] ", format, args...)
}

// WarnOnce prints a warning the first time key is seen in the process.
// Unlike Warn it is printed regardless of verbose mode.
func WarnOnce(key, format string, args ...any) {
	onceMu.Lock()
	_, seen := onceKeys[key]
	onceKeys[key] = struct{}{}
	onceMu.Unlock()
	if seen {
		return
	}
	logf(true, "[WARN] ", format, args...)
}

// Error prints an error message. It is never suppressed.
func Error(format string, args ...any) {
	logf(true, "[ERROR] ", format, args...)
}

// resetOnce forgets every WarnOnce key.
func resetOnce() {
	onceMu.Lock()
	defer onceMu.Unlock()
	onceKeys = map[string]struct{}{}
}

func logf(always bool, prefix, format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if always || verbose {
		fmt.Fprintf(output, prefix+format+"\n", args...)
	}
}
