package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

var defaultLogger *slog.Logger

type Options struct {
	Level  string
	Format string
	Output io.Writer
}

// Init configures the process logger. Production defaults to JSON at info,
// everything else to text at debug, unless opts overrides either.
func Init(env string, opts ...Options) *slog.Logger {
	o := Options{Output: os.Stdout}
	if env == "production" {
		o.Level, o.Format = "info", "json"
	} else {
		o.Level, o.Format = "debug", "text"
	}
	for _, override := range opts {
		if override.Level != "" {
			o.Level = override.Level
		}
		if override.Format != "" {
			o.Format = override.Format
		}
		if override.Output != nil {
			o.Output = override.Output
		}
	}

	handlerOpts := &slog.HandlerOptions{Level: ParseLevel(o.Level)}
	var handler slog.Handler
	if o.Format == "json" {
		handler = slog.NewJSONHandler(o.Output, handlerOpts)
	} else {
		handler = slog.NewTextHandler(o.Output, handlerOpts)
	}

	defaultLogger = slog.New(handler)
	slog.SetDefault(defaultLogger)
	return defaultLogger
}

func ParseLevel(level string) slog.Level {
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

func LoggerWrapper() *slog.Logger {
	if defaultLogger == nil {
		// lazy initialize a development logger to avoid nil pointer panics
		Init("development")
	}
	return defaultLogger
}
