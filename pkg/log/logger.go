package log

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"
)

// SetupLogger configures the process-wide slog default used by GetLogger.
// Records are emitted as JSON with the error-formatting handler wrapped
// around the standard JSON handler.
func SetupLogger(loglevel string) {
	ops := slog.HandlerOptions{
		AddSource: true,
		Level:     slog.Level(ToLogLevel(loglevel)),
	}
	handler := slog.NewJSONHandler(os.Stderr, &ops)
	slog.SetDefault(slog.New(WrapByErrFmtHandler(handler)))
}

// ToLogLevel converts a level name into a Level.
func ToLogLevel(level string) Level {
	switch level {
	case "info":
		return LevelInfo
	case "debug":
		return LevelDebug
	case "warn":
		return LevelWarn
	case "error":
		return LevelError
	default:
		panic(fmt.Sprintf("invalid log level :%s", level))
	}
}

const (
	ErrAttrKey        = "error"
	StacktraceAttrKey = "stacktrace"
)

// ErrAttr is a wrapper to pass an error to slog.
func ErrAttr(err error) slog.Attr {
	return slog.Any(ErrAttrKey, err)
}

// defaultLogger allows tests and hosts to replace the logger returned by
// GetLogger without touching the slog default.
var defaultLogger atomic.Value

// loggerBox wraps the stored Logger so defaultLogger always holds the same
// concrete type; atomic.Value panics when stores change type, and successive
// SetLogger calls may carry different Logger implementations.
type loggerBox struct {
	logger Logger
}

// GetLogger returns the current default Logger. Unless replaced via
// SetLogger it forwards to slog.Default.
func GetLogger() Logger {
	if b, ok := defaultLogger.Load().(loggerBox); ok {
		return b.logger
	}
	return &slogLogger{logger: slog.Default()}
}

// SetLogger replaces the Logger returned by GetLogger.
func SetLogger(l Logger) {
	defaultLogger.Store(loggerBox{logger: l})
}

// slogLogger adapts *slog.Logger to the Logger interface.
type slogLogger struct {
	logger *slog.Logger
}

func (s *slogLogger) Debug(msg string, fields ...any) { s.logger.Debug(msg, fields...) }
func (s *slogLogger) Info(msg string, fields ...any)  { s.logger.Info(msg, fields...) }
func (s *slogLogger) Warn(msg string, fields ...any)  { s.logger.Warn(msg, fields...) }
func (s *slogLogger) Error(msg string, fields ...any) { s.logger.Error(msg, fields...) }

func (s *slogLogger) With(fields ...any) Logger {
	return &slogLogger{logger: s.logger.With(fields...)}
}

func (s *slogLogger) Enabled(ctx context.Context, level Level) bool {
	return s.logger.Enabled(ctx, slog.Level(level))
}
