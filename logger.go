package bigmat

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with bigmat-specific context.
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
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithIdentity adds the matrix identity field to the logger.
func (l *Logger) WithIdentity(identity string) *Logger {
	return &Logger{
		Logger: l.Logger.With("identity", identity),
	}
}

// WithShape adds rows/cols fields to the logger.
func (l *Logger) WithShape(rows, cols int) *Logger {
	return &Logger{
		Logger: l.Logger.With("rows", rows, "cols", cols),
	}
}

// LogCreate logs a store create operation.
func (l *Logger) LogCreate(ctx context.Context, kind, identity string, rows, cols int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "create failed",
			"kind", kind,
			"identity", identity,
			"rows", rows,
			"cols", cols,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "create completed",
			"kind", kind,
			"identity", identity,
			"rows", rows,
			"cols", cols,
		)
	}
}

// LogConnect logs a store connect operation.
func (l *Logger) LogConnect(ctx context.Context, kind, identity string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "connect failed",
			"kind", kind,
			"identity", identity,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "connect completed",
			"kind", kind,
			"identity", identity,
		)
	}
}

// LogDestroy logs a store destroy operation. released indicates
// whether this destroy was the last referencer and tore the shared
// resources down.
func (l *Logger) LogDestroy(ctx context.Context, kind, identity string, released bool, err error) {
	if err != nil {
		l.ErrorContext(ctx, "destroy failed",
			"kind", kind,
			"identity", identity,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "destroy completed",
			"kind", kind,
			"identity", identity,
			"released", released,
		)
	}
}

// LogLock logs a batched column lock operation.
func (l *Logger) LogLock(ctx context.Context, op string, columns int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "lock operation failed",
			"op", op,
			"columns", columns,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "lock operation completed",
			"op", op,
			"columns", columns,
		)
	}
}

// LogSnapshot logs a snapshot save or load.
func (l *Logger) LogSnapshot(ctx context.Context, op string, bytes int64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "snapshot failed",
			"op", op,
			"bytes", bytes,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "snapshot completed",
			"op", op,
			"bytes", bytes,
		)
	}
}
