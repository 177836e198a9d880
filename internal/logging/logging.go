// Package logging builds the slog loggers used by the dfa tools.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/me/dfanalyzer/pkg/provenance"
)

// NewLogger creates a logger writing to stderr; stdout carries command output.
//
// format is "json" for structured output, anything else for text.
func NewLogger(level slog.Level, format string) *slog.Logger {
	return NewLoggerWithWriter(level, format, os.Stderr)
}

// NewLoggerWithWriter creates a logger writing to w.
func NewLoggerWithWriter(level slog.Level, format string, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ParseLevel converts a level name to slog.Level.
// Unrecognized names map to slog.LevelInfo.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// WithTask annotates logger with the identity of a task document.
func WithTask(logger *slog.Logger, spec provenance.TaskSpec) *slog.Logger {
	return logger.With(
		"dataflow", spec.Dataflow,
		"transformation", spec.Transformation,
		"task", spec.ID,
	)
}
