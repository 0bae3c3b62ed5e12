package logger

import (
	"log/slog"
	"os"
)

// New returns a structured JSON logger using slog. Debug level is enabled via
// AMPAIRS_DEBUG for local troubleshooting of the auth flow.
func New() *slog.Logger {
	level := slog.LevelInfo
	if os.Getenv("AMPAIRS_DEBUG") == "true" {
		level = slog.LevelDebug
	}
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return slog.New(handler)
}

// NewText returns a human-readable logger for CLI use.
func NewText(level slog.Level) *slog.Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return slog.New(handler)
}
