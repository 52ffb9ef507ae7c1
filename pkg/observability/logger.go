// Package observability provides structured logging, health checks and
// request correlation for the aira binaries.
package observability

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// LogFormat specifies the output format for logs.
type LogFormat string

const (
	LogFormatText LogFormat = "text"
	LogFormatJSON LogFormat = "json"
)

// LogLevel represents logging verbosity.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// LogConfig configures the logger.
type LogConfig struct {
	Level          LogLevel
	Format         LogFormat
	Output         io.Writer // defaults to os.Stderr
	AddSource      bool
	ServiceName    string
	ServiceVersion string
}

// DefaultLogConfig returns the settings used for interactive CLI runs.
// Only warnings reach the terminal so command output stays readable.
func DefaultLogConfig(service string) LogConfig {
	return LogConfig{
		Level:          LogLevelWarn,
		Format:         LogFormatText,
		Output:         os.Stderr,
		ServiceName:    service,
		ServiceVersion: "dev",
	}
}

// ServerLogConfig returns settings for long-running processes.
func ServerLogConfig(service string) LogConfig {
	return LogConfig{
		Level:          LogLevelInfo,
		Format:         LogFormatJSON,
		Output:         os.Stdout,
		AddSource:      true,
		ServiceName:    service,
		ServiceVersion: "unknown",
	}
}

// NewLogger creates a structured logger with the given configuration.
func NewLogger(cfg LogConfig) *slog.Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}

	opts := &slog.HandlerOptions{
		Level:     ParseLevel(string(cfg.Level)),
		AddSource: cfg.AddSource,
	}

	var handler slog.Handler
	switch cfg.Format {
	case LogFormatJSON:
		handler = slog.NewJSONHandler(cfg.Output, opts)
	default:
		handler = slog.NewTextHandler(cfg.Output, opts)
	}

	var attrs []slog.Attr
	if cfg.ServiceName != "" {
		attrs = append(attrs, slog.String("service", cfg.ServiceName))
	}
	if cfg.ServiceVersion != "" {
		attrs = append(attrs, slog.String("version", cfg.ServiceVersion))
	}

	return slog.New(&contextHandler{handler: handler, attrs: attrs})
}

// LoggerFromEnv builds a logger starting from base and applying
// AIRA_LOG_LEVEL, AIRA_LOG_FORMAT and AIRA_VERSION overrides.
func LoggerFromEnv(base LogConfig) *slog.Logger {
	cfg := base
	if level := os.Getenv("AIRA_LOG_LEVEL"); level != "" {
		cfg.Level = LogLevel(strings.ToLower(level))
	}
	if format := os.Getenv("AIRA_LOG_FORMAT"); format != "" {
		cfg.Format = LogFormat(strings.ToLower(format))
	}
	if version := os.Getenv("AIRA_VERSION"); version != "" {
		cfg.ServiceVersion = version
	}
	return NewLogger(cfg)
}

// ParseLevel maps a level name to a slog level. Unknown names map to info.
func ParseLevel(level string) slog.Level {
	switch LogLevel(strings.ToLower(level)) {
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

// contextHandler stamps service attributes and the ids carried by the
// context on every record.
type contextHandler struct {
	handler slog.Handler
	attrs   []slog.Attr
}

func (h *contextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

func (h *contextHandler) Handle(ctx context.Context, r slog.Record) error {
	r.AddAttrs(h.attrs...)

	if corrID := CorrelationIDFromContext(ctx); corrID != "" {
		r.AddAttrs(slog.String(CorrelationIDKey, corrID))
	}
	if reqID := RequestIDFromContext(ctx); reqID != "" {
		r.AddAttrs(slog.String(RequestIDKey, reqID))
	}

	return h.handler.Handle(ctx, r)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextHandler{handler: h.handler.WithAttrs(attrs), attrs: h.attrs}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{handler: h.handler.WithGroup(name), attrs: h.attrs}
}

// LogOperation creates a logger with operation-specific attributes.
func LogOperation(logger *slog.Logger, operation string, attrs ...any) *slog.Logger {
	args := append([]any{OperationKey, operation}, attrs...)
	return logger.With(args...)
}

// Discard returns a logger that drops everything. Useful as a default for
// components constructed without a logger.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
