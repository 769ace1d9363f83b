// Package logger configures the process-wide slog logger used across the
// runtime.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// ParseLevel converts a string log level to slog.Level.
// Valid levels: debug, info, warn, error.
func ParseLevel(levelStr string) slog.Level {
	switch strings.ToLower(levelStr) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Options controls handler construction.
type Options struct {
	Level  string // debug, info, warn, error
	Format string // "text" (default) or "json"
	Output io.Writer
}

// Init installs the default slog logger and returns it.
func Init(opts Options) *slog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	handlerOpts := &slog.HandlerOptions{Level: ParseLevel(opts.Level)}

	var handler slog.Handler
	if strings.ToLower(opts.Format) == "json" {
		handler = slog.NewJSONHandler(out, handlerOpts)
	} else {
		handler = slog.NewTextHandler(out, handlerOpts)
	}

	log := slog.New(handler)
	slog.SetDefault(log)
	return log
}

// Component returns a logger scoped to a named subsystem.
func Component(name string) *slog.Logger {
	return slog.Default().With("component", name)
}
