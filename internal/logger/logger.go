// Package logger provides structured logging for chatxport.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"
)

var (
	defaultLogger *slog.Logger
	mu            sync.RWMutex
)

func init() {
	defaultLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

// Options configures the logger.
type Options struct {
	Debug  bool         // Enable debug level logging
	Quiet  bool         // Only show errors (wins over Debug)
	JSON   bool         // Output as JSON
	Output io.Writer    // Output destination (default: stderr)
	Logger *slog.Logger // Custom logger (overrides all other options)
}

// Init initializes the logger with the specified options.
func Init(opts Options) {
	l := opts.Logger
	if l == nil {
		l = build(opts)
	}

	mu.Lock()
	defaultLogger = l
	mu.Unlock()
}

// SetLogger sets a custom slog.Logger, e.g. to route chatxport logs into
// a host application's logging setup.
func SetLogger(l *slog.Logger) {
	if l == nil {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	defaultLogger = l
}

func build(opts Options) *slog.Logger {
	output := opts.Output
	if output == nil {
		output = os.Stderr
	}

	handlerOpts := &slog.HandlerOptions{Level: levelFor(opts)}
	if opts.JSON {
		return slog.New(slog.NewJSONHandler(output, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(output, handlerOpts))
}

func levelFor(opts Options) slog.Level {
	switch {
	case opts.Quiet:
		return slog.LevelError
	case opts.Debug:
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}

func current() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return defaultLogger
}

// Debug logs a debug message.
func Debug(msg string, args ...any) { current().Debug(msg, args...) }

// Info logs an info message.
func Info(msg string, args ...any) { current().Info(msg, args...) }

// Warn logs a warning message.
func Warn(msg string, args ...any) { current().Warn(msg, args...) }

// Error logs an error message.
func Error(msg string, args ...any) { current().Error(msg, args...) }

// With returns a logger with the given attributes.
func With(args ...any) *slog.Logger {
	return current().With(args...)
}

// Component returns a logger tagged with the component name, the way the
// segmenter, renderer and exporter label their records.
func Component(name string) *slog.Logger {
	return current().With("component", name)
}

// DebugContext logs a debug message with context.
func DebugContext(ctx context.Context, msg string, args ...any) {
	current().DebugContext(ctx, msg, args...)
}

// InfoContext logs an info message with context.
func InfoContext(ctx context.Context, msg string, args ...any) {
	current().InfoContext(ctx, msg, args...)
}

// WarnContext logs a warning message with context.
func WarnContext(ctx context.Context, msg string, args ...any) {
	current().WarnContext(ctx, msg, args...)
}

// ErrorContext logs an error message with context.
func ErrorContext(ctx context.Context, msg string, args ...any) {
	current().ErrorContext(ctx, msg, args...)
}
