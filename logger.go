package prone

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with clustering-specific context.
// This provides structured logging with consistent field names.
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

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
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

// NoopLogger creates a Logger that discards all log output.
// It is the default.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithK adds a k (cluster count) field to the logger.
func (l *Logger) WithK(k int) *Logger {
	return &Logger{
		Logger: l.Logger.With("k", k),
	}
}

// WithDimension adds a dimension field to the logger.
func (l *Logger) WithDimension(dim int) *Logger {
	return &Logger{
		Logger: l.Logger.With("dimension", dim),
	}
}

// WithCount adds a count (number of points) field to the logger.
func (l *Logger) WithCount(count int) *Logger {
	return &Logger{
		Logger: l.Logger.With("count", count),
	}
}

// LogCluster logs a clustering run.
func (l *Logger) LogCluster(ctx context.Context, res *Result, err error) {
	switch {
	case err != nil && res == nil:
		l.ErrorContext(ctx, "clustering failed",
			"error", err,
		)
	case !res.Converged:
		l.WarnContext(ctx, "clustering stopped before convergence",
			"iterations", res.Iterations,
			"cost", res.TotalCost,
			"reseeds", res.Reseeds,
		)
	default:
		l.DebugContext(ctx, "clustering completed",
			"iterations", res.Iterations,
			"cost", res.TotalCost,
		)
	}
}

// LogCoreset logs a coreset construction.
func (l *Logger) LogCoreset(ctx context.Context, m int, c *Coreset, err error) {
	if err != nil {
		l.ErrorContext(ctx, "coreset construction failed",
			"m", m,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "coreset built",
		"m", m,
		"distinct", c.Distinct().GetCardinality(),
		"total_weight", c.TotalWeight(),
	)
}
