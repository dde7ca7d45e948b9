package featcache

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with featcache-specific helpers so cache
// operations log consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// LogInitFields logs a field-dimension probe.
func (l *Logger) LogInitFields(ctx context.Context, fields int, totalDim int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "field probe failed",
			"fields", fields,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "field dimensions probed",
			"fields", fields,
			"total_dim", totalDim,
		)
	}
}

// LogAutoCache logs a cache population run.
func (l *Logger) LogAutoCache(ctx context.Context, cached, capacity int, full bool, duration time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "auto cache failed",
			"capacity", capacity,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "auto cache completed",
			"cached", cached,
			"capacity", capacity,
			"full", full,
			"duration", duration,
		)
	}
}

// LogFetch logs a gather.
func (l *Logger) LogFetch(ctx context.Context, layers, deviceRows, hostRows int, duration time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "fetch failed",
			"layers", layers,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "fetch completed",
			"layers", layers,
			"device_rows", deviceRows,
			"host_rows", hostRows,
			"duration", duration,
		)
	}
}
