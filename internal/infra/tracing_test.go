package infra

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestTracingMiddleware(t *testing.T) {
	t.Run("GeneratesIDWhenMissing", func(t *testing.T) {
		var seen string
		h := TracingMiddleware(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			seen = TraceIDFromContext(r.Context())
		}))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		require.NotEmpty(t, seen)
		_, err := uuid.Parse(seen)
		assert.NoError(t, err)
		assert.Equal(t, seen, rec.Header().Get("X-Trace-ID"))
	})

	t.Run("PropagatesIncomingID", func(t *testing.T) {
		var seen string
		h := TracingMiddleware(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			seen = TraceIDFromContext(r.Context())
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Trace-ID", "trace-from-proxy")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, "trace-from-proxy", seen)
		assert.Equal(t, "trace-from-proxy", rec.Header().Get("X-Trace-ID"))
	})
}

func TestTraceIDFromContext_Fallback(t *testing.T) {
	assert.Equal(t, "00000000-0000-0000-0000-000000000000", TraceIDFromContext(context.Background()))
}

func TestNewLogger(t *testing.T) {
	t.Run("ProductionJSON", func(t *testing.T) {
		logger, err := NewLogger(LoggerConfig{Level: "info", Format: "json"})
		require.NoError(t, err)
		assert.NotNil(t, logger)
	})

	t.Run("DevelopmentConsole", func(t *testing.T) {
		logger, err := NewLogger(LoggerConfig{Level: "debug", Format: "console"})
		require.NoError(t, err)
		assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))
	})

	t.Run("BadLevelRejected", func(t *testing.T) {
		_, err := NewLogger(LoggerConfig{Level: "loud"})
		assert.Error(t, err)
	})
}
