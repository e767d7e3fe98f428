package config

import (
	"log/slog"
	"os"
)

// NewLogger builds the process-wide JSON logger at the configured level.
// Source locations are attached only at debug level; in normal operation the
// request_id carried on every engine log line is the correlation handle.
func (c *LoggerConfig) NewLogger() *slog.Logger {
	level := c.slogLevel()

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	})

	return slog.New(handler)
}

// slogLevel maps the level vocabulary accepted by Validate onto slog's levels.
func (c *LoggerConfig) slogLevel() slog.Level {
	switch c.Level {
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
