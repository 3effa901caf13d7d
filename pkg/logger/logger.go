package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

var defaultLogger *slog.Logger

// Init configures the process logger. Production always logs JSON; elsewhere the
// format follows the config and defaults to text at debug level.
func Init(env string, opts ...Option) {
	cfg := options{level: slog.LevelDebug, format: "text", out: os.Stdout}
	if env == "production" {
		cfg.level = slog.LevelInfo
		cfg.format = "json"
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	var handler slog.Handler
	if cfg.format == "json" {
		handler = slog.NewJSONHandler(cfg.out, &slog.HandlerOptions{Level: cfg.level})
	} else {
		handler = slog.NewTextHandler(cfg.out, &slog.HandlerOptions{Level: cfg.level})
	}

	defaultLogger = slog.New(handler)
	slog.SetDefault(defaultLogger)
}

func LoggerWrapper() *slog.Logger {
	if defaultLogger == nil {
		// lazy initialize a development logger to avoid nil pointer panics
		Init("development")
	}
	return defaultLogger
}

type options struct {
	level  slog.Level
	format string
	out    io.Writer
}

type Option func(*options)

func WithLevel(level string) Option {
	return func(o *options) {
		switch strings.ToLower(level) {
		case "debug":
			o.level = slog.LevelDebug
		case "info":
			o.level = slog.LevelInfo
		case "warn":
			o.level = slog.LevelWarn
		case "error":
			o.level = slog.LevelError
		}
	}
}

func WithFormat(format string) Option {
	return func(o *options) {
		if format == "json" || format == "text" {
			o.format = format
		}
	}
}

func WithOutput(w io.Writer) Option {
	return func(o *options) {
		o.out = w
	}
}
