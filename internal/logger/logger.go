// Package logger provides process-wide logging for StudyMate.
// Debug and info messages explain the ingestion and search pipeline and are
// only printed in verbose mode; warnings and errors are always printed.
// Output is rendered by zerolog, as console lines by default or as JSON
// for long-running servers.
package logger

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	mu      sync.RWMutex
	verbose bool
	jsonOut bool
	output  io.Writer = os.Stderr
	zlog              = build(os.Stderr, false)
)

// build creates the zerolog logger for the given writer and format.
// Caller must hold mu for writing, or be in package initialisation.
func build(w io.Writer, asJSON bool) zerolog.Logger {
	if !asJSON {
		w = zerolog.ConsoleWriter{
			Out:        w,
			NoColor:    true,
			TimeFormat: time.TimeOnly,
		}
	}
	return zerolog.New(w).With().Timestamp().Logger()
}

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
	zlog = build(output, jsonOut)
}

// SetJSON switches between console lines and JSON objects.
func SetJSON(enabled bool) {
	mu.Lock()
	defer mu.Unlock()
	jsonOut = enabled
	zlog = build(output, jsonOut)
}

// Zerolog returns the underlying logger for callers that want structured fields.
func Zerolog() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return zlog
}

// Debug prints a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		zlog.Debug().Msgf(format, args...)
	}
}

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		zlog.Info().Str("section", name).Msg("=== " + name + " ===")
	}
}

// Info prints an informational message if verbose mode is enabled.
func Info(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		zlog.Info().Msgf(format, args...)
	}
}

// Warn prints a warning message.
func Warn(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	zlog.Warn().Msgf(format, args...)
}

// Error prints an error message with the error attached as a field.
func Error(err error, format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	zlog.Error().Err(err).Msgf(format, args...)
}
