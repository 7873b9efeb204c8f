// Package logging builds the structured logger every other package takes
// as a constructor argument, adapted from the ad hoc slog.New call the
// daemon command used to build inline.
package logging

import (
	"io"
	"log/slog"
	"strings"
)

// New builds a text-handler slog.Logger writing to w at level, defaulting
// to info on an unrecognized level name.
func New(w io.Writer, level string) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: parseLevel(level),
	}))
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
