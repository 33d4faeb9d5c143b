// Package logger builds the structured, levelled logger used across the
// worker, on top of log/slog.
//
//	log := logger.New("production")
//	log.Info("package uploaded", "order", id, "url", url)
//	// → {"time":"...","level":"INFO","msg":"package uploaded",...}
package logger

import (
	"log/slog"
	"os"
)

// New returns a logger configured for the given environment: JSON at INFO
// for production (log aggregators), text at DEBUG everywhere else. The
// returned logger is also installed as the slog default.
func New(env string) *slog.Logger {
	var handler slog.Handler

	switch env {
	case "production", "prod":
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	default:
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	}

	log := slog.New(handler)
	slog.SetDefault(log)
	return log
}
