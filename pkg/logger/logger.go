// Package logger provides the shared slog constructor for Rackwatch.
package logger

import (
	"log/slog"
	"os"
)

// New returns a text-formatted slog logger writing to stderr. Debug mode
// lowers the level and adds source locations.
func New(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level:     level,
		AddSource: debug,
	})
	return slog.New(handler)
}
