// Package observability builds the job's structured logger and Prometheus metrics.
package observability

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/couchcryptid/storm-front-grid/internal/config"
)

// NewLogger returns a JSON or text slog.Logger writing to stderr at the
// configured level.
func NewLogger(cfg *config.Config) *slog.Logger {
	return newLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)
}

func newLogger(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	if strings.EqualFold(format, "text") {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// parseLevel maps debug, info, warn, and error to slog levels. Anything else is info.
func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
