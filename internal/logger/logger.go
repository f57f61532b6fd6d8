package logger

import (
	"io"
	"log/slog"

	"github.com/casefile-games/casefile/internal/config"
)

// Setup configures the global slog logger based on environment. The
// writer is passed in because the terminal UI owns stdout; logs go to a
// file or are discarded.
func Setup(cfg *config.Config, w io.Writer) *slog.Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	if cfg.Environment == "production" {
		// JSON format for production
		handler = slog.NewJSONHandler(w, opts)
	} else {
		// Text format for development
		handler = slog.NewTextHandler(w, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	return logger
}

// WithGameID adds the session's game id to logger context
func WithGameID(logger *slog.Logger, id string) *slog.Logger {
	return logger.With("game_id", id)
}
