package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

const serviceName = "station-gourmet"

// Options customizes the root logger. Zero values read LOG_LEVEL and
// LOG_FORMAT from the environment and write to stdout.
type Options struct {
	Level  string
	Format string
	Output io.Writer
}

// New constructs the process wide logger from the environment.
func New() *slog.Logger {
	return NewWithOptions(Options{})
}

// NewWithOptions builds a JSON (or text, for local runs) logger tagged with
// the service name.
func NewWithOptions(opts Options) *slog.Logger {
	level := opts.Level
	if level == "" {
		level = os.Getenv("LOG_LEVEL")
	}
	format := opts.Format
	if format == "" {
		format = os.Getenv("LOG_FORMAT")
	}
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	handlerOpts := &slog.HandlerOptions{Level: parseLevel(level)}
	var handler slog.Handler
	if strings.EqualFold(strings.TrimSpace(format), "text") {
		handler = slog.NewTextHandler(out, handlerOpts)
	} else {
		handler = slog.NewJSONHandler(out, handlerOpts)
	}
	return slog.New(handler).With("service", serviceName)
}

// Component scopes base to one subsystem. A nil base falls back to
// slog.Default so constructors can accept an optional logger.
func Component(base *slog.Logger, name string) *slog.Logger {
	if base == nil {
		base = slog.Default()
	}
	return base.With("component", name)
}

func parseLevel(level string) slog.Leveler {
	switch strings.ToLower(strings.TrimSpace(level)) {
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
