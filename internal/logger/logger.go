// Package logger provides progress logging for the pagevec pipeline.
// Progress, stage banners and debug detail are printed only in verbose
// mode. Warnings and errors are always printed.
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
	printIfVerbose("[DEBUG] ", format, args...)
}

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	mu.Lock()
	defer mu.Unlock()
	if verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}

// Step prints a numbered stage banner if verbose mode is enabled.
func Step(n, total int, name string) {
	Section(fmt.Sprintf("Step %d/%d: %s", n, total, name))
}

// Info prints an informational message if verbose mode is enabled.
func Info(format string, args ...any) {
	printIfVerbose("[INFO] ", format, args...)
}

// Warn prints a warning message.
func Warn(format string, args ...any) {
	emit("[WARN] ", format, args...)
}

// Error prints an error message.
func Error(format string, args ...any) {
	emit("[ERROR] ", format, args...)
}

// Writes hold the exclusive lock so a shared writer never sees
// interleaved calls.
func printIfVerbose(prefix, format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	if verbose {
		fmt.Fprintf(output, prefix+format+"\n", args...)
	}
}

func emit(prefix, format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	fmt.Fprintf(output, prefix+format+"\n", args...)
}
