package config

import (
	"log/slog"
	"os"
)

// NewLogger builds the process logger. Production emits JSON at info level
// so recognition events stay machine-parseable; everything else gets a text
// handler at debug with source locations.
func NewLogger(env string) *slog.Logger {
	if env == "production" {
		handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
		return slog.New(handler).With(slog.String("service", "presia"))
	}

	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level:     slog.LevelDebug,
		AddSource: true,
	})
	return slog.New(handler)
}
