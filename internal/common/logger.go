package common

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Fields represents structured logging fields.
type Fields map[string]any

// ParseLevel converts a configured level name to a slog level.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("%w: unknown log level %q", ErrInvalidConfig, name)
	}
}

// SetupLogger configures the global logger to write to stderr.
func SetupLogger(level slog.Level, format string) error {
	return SetupLoggerTo(os.Stderr, level, format)
}

// SetupLoggerTo configures the global logger to write to w in the given
// format ("text", "console" or "json").
func SetupLoggerTo(w io.Writer, level slog.Level, format string) error {
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	case "", "text", "console":
		handler = slog.NewTextHandler(w, opts)
	default:
		return fmt.Errorf("%w: unknown log format %q", ErrInvalidConfig, format)
	}

	slog.SetDefault(slog.New(handler))
	return nil
}

// LogError logs an error with additional context.
func LogError(err error, msg string, fields Fields) {
	attrs := make([]slog.Attr, 0, len(fields)+1)
	attrs = append(attrs, slog.String("error", err.Error()))
	logAttrs(slog.LevelError, msg, fields, attrs)
}

// LogWarn logs a warning with fields.
func LogWarn(msg string, fields Fields) {
	logAttrs(slog.LevelWarn, msg, fields, nil)
}

// LogInfo logs an info message with fields.
func LogInfo(msg string, fields Fields) {
	logAttrs(slog.LevelInfo, msg, fields, nil)
}

// LogDebug logs a debug message with fields.
func LogDebug(msg string, fields Fields) {
	logAttrs(slog.LevelDebug, msg, fields, nil)
}

func logAttrs(level slog.Level, msg string, fields Fields, attrs []slog.Attr) {
	for k, v := range fields {
		attrs = append(attrs, slog.Any(k, v))
	}
	slog.LogAttrs(context.Background(), level, msg, attrs...)
}
