// Package log provides structured logging for the exprate fitting module.
//
// It defines a minimal, slog-compatible logging interface so implementations
// can be swapped freely while the fitting code logs through a single API.
// The default implementation is backed by log/slog with a handler that
// extracts cockroachdb/errors stack traces into a dedicated attribute.
//
// Example usage:
//
//	logger := log.GetLogger().With(
//	    log.ComponentKey, "exprate",
//	)
//	logger.Info("batch fit started",
//	    log.DatasetsKey, 128,
//	    log.SamplesKey, 3000,
//	)
package log

import (
	"context"
)

// Logger defines a structured logging interface compatible with Go's
// log/slog. Fields are alternating key/value pairs; With returns a derived
// logger carrying pre-populated fields.
type Logger interface {
	// Debug logs detailed diagnostic information.
	Debug(msg string, fields ...any)

	// Info logs general operational information.
	Info(msg string, fields ...any)

	// Warn logs potentially problematic conditions that do not stop
	// processing, such as fits that failed to converge.
	Warn(msg string, fields ...any)

	// Error logs error conditions. If a field value is an error carrying a
	// cockroachdb stack trace, the trace is emitted as a separate attribute.
	Error(msg string, fields ...any)

	// With returns a new Logger with the given fields pre-populated in all
	// subsequent log messages.
	With(fields ...any) Logger

	// Enabled reports whether the logger emits records at the given level.
	// Use it to skip expensive attribute construction.
	Enabled(ctx context.Context, level Level) bool
}

// Level represents a logging level, value-compatible with slog.Level.
type Level int

// Standard logging levels, values are compatible with slog.Level.
const (
	LevelDebug Level = -4
	LevelInfo  Level = 0
	LevelWarn  Level = 4
	LevelError Level = 8
)

// String returns the string representation of the log level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}
