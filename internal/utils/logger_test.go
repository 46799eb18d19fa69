package utils

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observedLogger(level zapcore.Level) (*Logger, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	return &Logger{Logger: zap.New(core)}, logs
}

func TestLoggerStructuredFields(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	l, logs := observedLogger(zapcore.DebugLevel)
	l.Info("request served", "path", "/api/health", "status", 200, "took", 5*time.Millisecond, "cached", true)

	entries := logs.All()
	require.Len(entries, 1)
	require.Equal("request served", entries[0].Message)
	require.Equal(zapcore.InfoLevel, entries[0].Level)

	fields := entries[0].ContextMap()
	require.Equal("/api/health", fields["path"])
	require.Equal(int64(200), fields["status"])
	require.Equal(5*time.Millisecond, fields["took"])
	require.Equal(true, fields["cached"])
}

func TestLoggerErrorAttachesCause(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	l, logs := observedLogger(zapcore.DebugLevel)
	l.Error("save failed", errors.New("disk full"), "path", "/tmp/x")

	entries := logs.All()
	require.Len(entries, 1)
	require.Equal(zapcore.ErrorLevel, entries[0].Level)

	fields := entries[0].ContextMap()
	require.Equal("disk full", fields["error"])
	require.Equal("/tmp/x", fields["path"])

	// A nil error logs the message without an error field.
	l.Error("soft failure", nil)
	require.NotContains(logs.All()[1].ContextMap(), "error")
}

func TestLoggerToleratesMalformedFieldPairs(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	l, logs := observedLogger(zapcore.DebugLevel)
	l.Info("odd pair", "orphan")
	l.Info("bad key", 42, "value")

	fields := logs.All()[0].ContextMap()
	require.Equal("MISSING_VALUE", fields["orphan"])

	fields = logs.All()[1].ContextMap()
	require.Equal("value", fields["INVALID_KEY"])
}

func TestLoggerNamedAndWith(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	l, logs := observedLogger(zapcore.DebugLevel)
	l.Named("api").With("request_id", "r-1").Warn("slow request")

	entries := logs.All()
	require.Len(entries, 1)
	require.Equal("api", entries[0].LoggerName)
	require.Equal(zapcore.WarnLevel, entries[0].Level)
	require.Equal("r-1", entries[0].ContextMap()["request_id"])
}

func TestLoggerLevelFiltering(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	l, logs := observedLogger(zapcore.WarnLevel)
	l.Debug("hidden")
	l.Info("hidden too")
	l.Warn("visible")

	require.Equal(1, logs.Len())
	require.Equal("visible", logs.All()[0].Message)
}

func TestNewLoggerBuilds(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	l := NewLogger()
	require.NotNil(l)
	l.Sync()

	dev := NewLogger(LoggerOptions{
		Development:      true,
		Level:            zapcore.InfoLevel,
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	})
	require.NotNil(dev)
	dev.Sync()

	require.NotNil(GetLogger())
}
