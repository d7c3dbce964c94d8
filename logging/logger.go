// Package logging provides a tiny abstraction over slog so downstream code
// can depend on a minimal interface (Logger) while allowing users to plug any
// structured logger. Each record is self-contained: UTC timestamp, level,
// message, call-site location, the request trace fields when present, and any
// caller-supplied key/value pairs.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/taskmesh/taskmesh/trace"
)

// LogLevel is a thin enum for user friendly level configuration decoupled
// from slog.
type LogLevel int

const (
	// LogLevelDebug is the debug logging level.
	LogLevelDebug LogLevel = iota
	// LogLevelInfo is the informational logging level.
	LogLevelInfo
	// LogLevelWarn is the warning logging level.
	LogLevelWarn
	// LogLevelError is the error logging level.
	LogLevelError
)

// String returns the string representation of the log level.
func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func slogLevel(l LogLevel) slog.Level {
	switch l {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Logger defines the minimal logging interface used across taskmesh. Args
// are alternating key/value pairs in the slog convention.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Config configures construction of the default slog-backed Logger.
type Config struct {
	Level     LogLevel
	Format    string // json or text
	Output    io.Writer
	AddSource bool
}

// DefaultConfig returns a baseline JSON info-level configuration with source
// locations enabled.
func DefaultConfig() *Config {
	return &Config{Level: LogLevelInfo, Format: "json", Output: os.Stdout, AddSource: true}
}

// New builds a Logger from cfg (or defaults when nil). Timestamps are
// normalized to UTC so records correlate across services regardless of host
// zone.
func New(cfg *Config) Logger {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	opts := &slog.HandlerOptions{
		Level:     slogLevel(cfg.Level),
		AddSource: cfg.AddSource,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) == 0 && a.Key == slog.TimeKey {
				if t, ok := a.Value.Any().(time.Time); ok {
					a.Value = slog.TimeValue(t.UTC())
				}
			}
			return a
		},
	}
	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(cfg.Output, opts)
	} else {
		handler = slog.NewJSONHandler(cfg.Output, opts)
	}
	return NewSlogAdapter(slog.New(handler))
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

// WithTrace returns a Logger that appends the trace fields carried by ctx
// (trace_id, user_id, correlation_id) to every record. Unset fields are
// omitted entirely. When ctx carries no trace context the original logger is
// returned unchanged.
func WithTrace(ctx context.Context, l Logger) Logger {
	tc := trace.From(ctx)
	if tc.Empty() {
		return l
	}
	return &traceLogger{base: l, tc: tc}
}

type traceLogger struct {
	base Logger
	tc   trace.Context
}

func (l *traceLogger) withTraceArgs(args []any) []any {
	out := make([]any, 0, len(args)+6)
	out = append(out, args...)
	if l.tc.TraceID != "" {
		out = append(out, "trace_id", l.tc.TraceID)
	}
	if l.tc.UserID != "" {
		out = append(out, "user_id", l.tc.UserID)
	}
	if l.tc.CorrelationID != "" {
		out = append(out, "correlation_id", l.tc.CorrelationID)
	}
	return out
}

func (l *traceLogger) Debug(msg string, args ...any) { l.base.Debug(msg, l.withTraceArgs(args)...) }
func (l *traceLogger) Info(msg string, args ...any)  { l.base.Info(msg, l.withTraceArgs(args)...) }
func (l *traceLogger) Warn(msg string, args ...any)  { l.base.Warn(msg, l.withTraceArgs(args)...) }
func (l *traceLogger) Error(msg string, args ...any) { l.base.Error(msg, l.withTraceArgs(args)...) }

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
