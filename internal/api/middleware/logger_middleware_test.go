package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"norelock.dev/reelid/backend/internal/utils"
)

// observedLogger returns a logger whose output can be inspected.
func observedLogger() (*utils.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.InfoLevel)
	return &utils.Logger{Logger: zap.New(core)}, logs
}

func TestLoggerRecordsRequest(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	logger, logs := observedLogger()
	mw := NewLoggerMiddleware(logger)

	handler := mw.Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/brew", nil)
	req.Header.Set("User-Agent", "kettle/1.0")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	entries := logs.FilterMessage("HTTP request").All()
	require.Len(entries, 1)

	fields := entries[0].ContextMap()
	require.Equal("GET", fields["method"])
	require.Equal("/brew", fields["path"])
	require.EqualValues(http.StatusTeapot, fields["status"])
	require.Equal("kettle/1.0", fields["userAgent"])
	require.NotEmpty(fields["duration"])
}

func TestLoggerDefaultsStatusToOK(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	logger, logs := observedLogger()
	mw := NewLoggerMiddleware(logger)

	// The handler writes a body without calling WriteHeader.
	handler := mw.Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	entries := logs.FilterMessage("HTTP request").All()
	require.Len(entries, 1)
	require.EqualValues(http.StatusOK, entries[0].ContextMap()["status"])
}
