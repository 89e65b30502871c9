// Package logging provides a tiny abstraction over slog so downstream code
// can depend on a minimal interface (Logger) while allowing users to plug any
// structured logger. It also offers a richer OrchestratorLogger with
// contextual helpers (component, invocation) and domain specific helpers for
// tool dispatch and model calls.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"
)

// Logger defines the minimal logging interface used throughout ensemble.
// Users can provide their own implementation or use the built-in adapters.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// SlogAdapter wraps *slog.Logger to implement the Logger interface.
type SlogAdapter struct {
	*slog.Logger
}

// Debug logs a debug message.
func (s *SlogAdapter) Debug(msg string, args ...any) { s.Logger.Debug(msg, args...) }

// Info logs an informational message.
func (s *SlogAdapter) Info(msg string, args ...any) { s.Logger.Info(msg, args...) }

// Warn logs a warning message.
func (s *SlogAdapter) Warn(msg string, args ...any) { s.Logger.Warn(msg, args...) }

// Error logs an error message.
func (s *SlogAdapter) Error(msg string, args ...any) { s.Logger.Error(msg, args...) }

// NewSlogAdapter creates a Logger from *slog.Logger.
func NewSlogAdapter(logger *slog.Logger) Logger {
	return &SlogAdapter{Logger: logger}
}

// NewDefaultSlogLogger creates a Logger using slog.Default().
func NewDefaultSlogLogger() Logger {
	return NewSlogAdapter(slog.Default())
}

// NoOpLogger discards all log messages. Useful for testing or when logging
// is disabled.
type NoOpLogger struct{}

// Debug logs a debug message.
func (NoOpLogger) Debug(string, ...any) {}

// Info logs an informational message.
func (NoOpLogger) Info(string, ...any) {}

// Warn logs a warning message.
func (NoOpLogger) Warn(string, ...any) {}

// Error logs an error message.
func (NoOpLogger) Error(string, ...any) {}

// Config configures construction of an OrchestratorLogger.
type Config struct {
	Level     slog.Level
	Format    string // json or text
	Output    io.Writer
	AddSource bool
	Component string
}

// DefaultConfig returns a baseline text info level configuration writing to
// stderr. Stdout is left alone so stdio transports are never corrupted by
// log lines.
func DefaultConfig() *Config {
	return &Config{Level: slog.LevelInfo, Format: "text", Output: os.Stderr}
}

// OrchestratorLogger wraps slog.Logger adding contextual cloning helpers and
// domain convenience methods. Cheap to copy via With* methods.
type OrchestratorLogger struct {
	logger    *slog.Logger
	component string
	attrs     []slog.Attr
}

// New builds an OrchestratorLogger from a config (or defaults if nil).
func New(cfg *Config) *OrchestratorLogger {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	opts := &slog.HandlerOptions{Level: cfg.Level, AddSource: cfg.AddSource}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(cfg.Output, opts)
	} else {
		handler = slog.NewTextHandler(cfg.Output, opts)
	}
	return &OrchestratorLogger{logger: slog.New(handler), component: cfg.Component}
}

// WithComponent sets the logical component (connector, engine, coordinator).
func (l *OrchestratorLogger) WithComponent(c string) *OrchestratorLogger {
	nl := *l
	nl.component = c
	return &nl
}

// WithAttr attaches a key/value pair to every subsequent log entry.
func (l *OrchestratorLogger) WithAttr(key string, value any) *OrchestratorLogger {
	nl := *l
	nl.attrs = append(append([]slog.Attr{}, l.attrs...), slog.Any(key, value))
	return &nl
}

func (l *OrchestratorLogger) log(level slog.Level, msg string, args []any) {
	attrs := make([]slog.Attr, 0, len(l.attrs)+len(args)/2+1)
	if l.component != "" {
		attrs = append(attrs, slog.String("component", l.component))
	}
	attrs = append(attrs, l.attrs...)
	for i := 0; i+1 < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", args[i])
		}
		attrs = append(attrs, slog.Any(key, args[i+1]))
	}
	l.logger.LogAttrs(context.Background(), level, msg, attrs...)
}

// Debug logs at debug level.
func (l *OrchestratorLogger) Debug(msg string, args ...any) { l.log(slog.LevelDebug, msg, args) }

// Info logs at info level.
func (l *OrchestratorLogger) Info(msg string, args ...any) { l.log(slog.LevelInfo, msg, args) }

// Warn logs at warn level.
func (l *OrchestratorLogger) Warn(msg string, args ...any) { l.log(slog.LevelWarn, msg, args) }

// Error logs at error level.
func (l *OrchestratorLogger) Error(msg string, args ...any) { l.log(slog.LevelError, msg, args) }

// LogToolCall records execution details for one dispatched tool call.
func (l *OrchestratorLogger) LogToolCall(tool string, dur time.Duration, err error) {
	args := []any{"tool", tool, "duration_ms", dur.Milliseconds()}
	if err != nil {
		l.log(slog.LevelError, "tool call failed", append(args, "error", err.Error()))
		return
	}
	l.log(slog.LevelInfo, "tool call completed", args)
}

// LogModelCall records model call latency and outcome.
func (l *OrchestratorLogger) LogModelCall(model string, iteration int, dur time.Duration, err error) {
	args := []any{"model", model, "iteration", iteration, "duration_ms", dur.Milliseconds()}
	if err != nil {
		l.log(slog.LevelError, "model call failed", append(args, "error", err.Error()))
		return
	}
	l.log(slog.LevelInfo, "model call completed", args)
}
