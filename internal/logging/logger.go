// Package logging configures structured logging with log/slog and carries
// chi request IDs into log entries so every line of a request's fetch,
// parse, and store activity can be correlated.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
)

// Setup installs the process-wide default logger. Level is one of
// "debug", "info", "warn", "error"; format is "text" or "json".
// Unrecognized values fall back to info and text.
func Setup(level, format string) {
	slog.SetDefault(New(level, format, os.Stdout))
}

// New builds a logger without touching the global default, so tests and
// tools can hold isolated instances.
func New(level, format string, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}

	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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

// FromContext returns the default logger annotated with the chi request ID
// when the context carries one. Handlers and the service use this so one
// request's candidate attempts, parse outcome, and store writes share a
// request_id attribute.
func FromContext(ctx context.Context) *slog.Logger {
	logger := slog.Default()
	if reqID := middleware.GetReqID(ctx); reqID != "" {
		logger = logger.With("request_id", reqID)
	}
	return logger
}

// WithFields returns a context-annotated logger carrying extra key-value
// pairs, for multi-step operations that log several lines with the same
// identifiers:
//
//	log := logging.WithFields(ctx, "op_id", opID, "locator", locator)
//	log.Info("fetch started")
//	log.Info("fetch completed", "rows", len(table.Rows))
func WithFields(ctx context.Context, args ...any) *slog.Logger {
	return FromContext(ctx).With(args...)
}
