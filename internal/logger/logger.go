// Package logger provides structured, leveled logging for the application,
// wrapping log/slog behind an interface so call sites never import slog
// directly.
package logger

import (
	"context"
	"io"
	"log/slog"
)

// Level is a logging threshold.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) slogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LoggerInterface is what the rest of the application depends on, so tests
// can substitute a no-op or recording logger.
type LoggerInterface interface {
	Debug(ctx context.Context, msg string, kvs ...interface{})
	Info(ctx context.Context, msg string, kvs ...interface{})
	Warn(ctx context.Context, msg string, kvs ...interface{})
	Error(ctx context.Context, msg string, kvs ...interface{})
	With(kvs ...interface{}) LoggerInterface
}

// Options tunes New beyond its required parameters.
type Options struct {
	// JSON selects slog.JSONHandler output; the default is text.
	JSON bool
}

// Logger is the slog-backed LoggerInterface implementation.
type Logger struct {
	slog *slog.Logger
	name string
}

// New builds a Logger writing to w at the given level, tagged with name
// (typically the service name) on every record. opts may be nil.
func New(w io.Writer, level Level, name string, opts *Options) *Logger {
	handlerOpts := &slog.HandlerOptions{Level: level.slogLevel()}

	var handler slog.Handler
	if opts != nil && opts.JSON {
		handler = slog.NewJSONHandler(w, handlerOpts)
	} else {
		handler = slog.NewTextHandler(w, handlerOpts)
	}

	return &Logger{
		slog: slog.New(handler).With("service", name),
		name: name,
	}
}

func (l *Logger) Debug(ctx context.Context, msg string, kvs ...interface{}) {
	l.slog.DebugContext(ctx, msg, kvs...)
}

func (l *Logger) Info(ctx context.Context, msg string, kvs ...interface{}) {
	l.slog.InfoContext(ctx, msg, kvs...)
}

func (l *Logger) Warn(ctx context.Context, msg string, kvs ...interface{}) {
	l.slog.WarnContext(ctx, msg, kvs...)
}

func (l *Logger) Error(ctx context.Context, msg string, kvs ...interface{}) {
	l.slog.ErrorContext(ctx, msg, kvs...)
}

// With returns a child logger that always includes the given key/value
// pairs, e.g. per-venue loggers tagged with "venue", "kraken".
func (l *Logger) With(kvs ...interface{}) LoggerInterface {
	return &Logger{slog: l.slog.With(kvs...), name: l.name}
}
