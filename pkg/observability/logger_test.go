package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	t.Run("creates text logger", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(LogConfig{Level: LogLevelInfo, Format: LogFormatText, Output: &buf})

		logger.Info("test message", "key", "value")

		assert.Contains(t, buf.String(), "test message")
		assert.Contains(t, buf.String(), "key=value")
	})

	t.Run("creates JSON logger", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(LogConfig{Level: LogLevelInfo, Format: LogFormatJSON, Output: &buf})

		logger.Info("test message", "key", "value")

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "test message", entry["msg"])
		assert.Equal(t, "value", entry["key"])
	})

	t.Run("respects log level", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(LogConfig{Level: LogLevelWarn, Output: &buf})

		logger.Debug("debug message")
		logger.Info("info message")
		logger.Warn("warn message")

		assert.NotContains(t, buf.String(), "debug message")
		assert.NotContains(t, buf.String(), "info message")
		assert.Contains(t, buf.String(), "warn message")
	})

	t.Run("adds service attributes", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(LogConfig{
			Format:         LogFormatJSON,
			Output:         &buf,
			ServiceName:    "aira",
			ServiceVersion: "1.2.3",
		})

		logger.Info("hello")

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "aira", entry["service"])
		assert.Equal(t, "1.2.3", entry["version"])
	})

	t.Run("adds ids from context", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(LogConfig{Format: LogFormatJSON, Output: &buf})

		ctx := WithCorrelationID(context.Background(), "corr-1")
		ctx = WithRequestID(ctx, "req-1")
		logger.InfoContext(ctx, "with ids")

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "corr-1", entry[CorrelationIDKey])
		assert.Equal(t, "req-1", entry[RequestIDKey])
	})

	t.Run("keeps context ids after With", func(t *testing.T) {
		var buf bytes.Buffer
		logger := LogOperation(NewLogger(LogConfig{Format: LogFormatJSON, Output: &buf}), "rule.create", "rule_id", "r1")

		logger.InfoContext(WithCorrelationID(context.Background(), "corr-2"), "created")

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "rule.create", entry[OperationKey])
		assert.Equal(t, "r1", entry["rule_id"])
		assert.Equal(t, "corr-2", entry[CorrelationIDKey])
	})
}

func TestLoggerFromEnv(t *testing.T) {
	defer os.Unsetenv("AIRA_LOG_LEVEL")
	defer os.Unsetenv("AIRA_LOG_FORMAT")

	os.Setenv("AIRA_LOG_LEVEL", "DEBUG")
	os.Setenv("AIRA_LOG_FORMAT", "json")

	var buf bytes.Buffer
	base := DefaultLogConfig("aira")
	base.Output = &buf
	logger := LoggerFromEnv(base)

	logger.Debug("visible")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "visible", entry["msg"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("WARN"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestContextIDs(t *testing.T) {
	t.Run("generates ids when empty", func(t *testing.T) {
		ctx := WithCorrelationID(context.Background(), "")
		ctx = WithRequestID(ctx, "")

		assert.Len(t, CorrelationIDFromContext(ctx), 36)
		assert.Len(t, RequestIDFromContext(ctx), 36)
	})

	t.Run("empty for bare context", func(t *testing.T) {
		assert.Empty(t, CorrelationIDFromContext(context.Background()))
		assert.Empty(t, RequestIDFromContext(context.TODO()))
	})
}

func TestHealthRegistry(t *testing.T) {
	t.Run("healthy with no checks", func(t *testing.T) {
		h := NewHealthRegistry().Check(context.Background())
		assert.Equal(t, HealthStatusHealthy, h.Status)
		assert.Empty(t, h.Checks)
	})

	t.Run("degraded beats healthy", func(t *testing.T) {
		r := NewHealthRegistry()
		r.Register("db", PingChecker("db", HealthStatusUnhealthy, func(context.Context) error { return nil }))
		r.Register("cache", PingChecker("cache", HealthStatusDegraded, func(context.Context) error { return errors.New("refused") }))

		h := r.Check(context.Background())
		assert.Equal(t, HealthStatusDegraded, h.Status)
		assert.Equal(t, []string{"cache", "db"}, r.Names())
		assert.Contains(t, h.Checks["cache"].Message, "refused")
	})

	t.Run("unhealthy beats degraded", func(t *testing.T) {
		r := NewHealthRegistry()
		r.Register("cache", PingChecker("cache", HealthStatusDegraded, func(context.Context) error { return errors.New("x") }))
		r.Register("db", PingChecker("db", HealthStatusUnhealthy, func(context.Context) error { return errors.New("y") }))

		assert.Equal(t, HealthStatusUnhealthy, r.Check(context.Background()).Status)
	})
}
