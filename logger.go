package fsio

import (
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with fsio-specific context.
// Backends log read and download progress through it.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithFile adds the file being operated on to the logger.
func (l *Logger) WithFile(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("file", name),
	}
}
