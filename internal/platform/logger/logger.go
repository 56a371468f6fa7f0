// Package logger provides structured logging via log/slog with JSON output
// and helpers for carrying a request-scoped logger through a context.
package logger

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// contextKey is an unexported type for context keys defined in this package.
type contextKey int

// loggerKey is the context key under which the request-scoped logger is stored.
const loggerKey contextKey = 0

// defaultLogger is used by FromContext when no logger has been attached to
// the context. It is set by Setup and falls back to slog.Default().
var defaultLogger *slog.Logger

// ParseLevel converts a level string to a slog.Level. It accepts "debug",
// "info", "warn", and "error" case-insensitively.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", level)
	}
}

// Setup configures the global logger with a JSON handler writing to stdout
// at the given level, installs it as the slog default, and returns it.
func Setup(level string) (*slog.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: lvl,
	})
	log := slog.New(handler)

	slog.SetDefault(log)
	defaultLogger = log

	return log, nil
}

// WithContext returns a copy of ctx carrying the given logger.
func WithContext(ctx context.Context, log *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, log)
}

// FromContext returns the logger attached to ctx, or the process-wide
// default if none is attached. It never returns nil.
func FromContext(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if log, ok := ctx.Value(loggerKey).(*slog.Logger); ok && log != nil {
			return log
		}
	}
	if defaultLogger != nil {
		return defaultLogger
	}
	return slog.Default()
}
