package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func setupHealthTestRouter(h *HealthHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	h.RegisterRoutes(router)
	return router
}

func get(router *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestNewHealthHandler(t *testing.T) {
	handler := NewHealthHandler(nil, "1.2.3", "2024-01-15T10:30:00Z")

	assert.Equal(t, "1.2.3", handler.version)
	assert.Equal(t, "2024-01-15T10:30:00Z", handler.buildTime)
	assert.False(t, handler.startTime.IsZero())
	assert.Empty(t, handler.dependencies)
}

func TestHealthHandler_Health(t *testing.T) {
	router := setupHealthTestRouter(NewHealthHandler(nil, "1.0.0", "2024-01-01"))

	w := get(router, "/health")
	require.Equal(t, http.StatusOK, w.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "1.0.0", resp.Version)
	assert.NotEmpty(t, resp.Uptime)
}

func TestHealthHandler_Live(t *testing.T) {
	router := setupHealthTestRouter(NewHealthHandler(nil, "1.0.0", ""))

	w := get(router, "/live")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"alive"}`, w.Body.String())
}

func TestHealthHandler_Ready(t *testing.T) {
	t.Run("WithoutDependencies", func(t *testing.T) {
		router := setupHealthTestRouter(NewHealthHandler(nil, "1.0.0", ""))

		w := get(router, "/ready")
		require.Equal(t, http.StatusOK, w.Code)

		var resp ReadinessResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Ready)
		assert.Equal(t, "not configured", resp.Checks["database"])
	})

	t.Run("HealthyRedis", func(t *testing.T) {
		h := NewHealthHandler(nil, "1.0.0", "").
			WithDependency("redis", pingerFunc(func(context.Context) error { return nil }))
		router := setupHealthTestRouter(h)

		w := get(router, "/ready")
		require.Equal(t, http.StatusOK, w.Code)

		var resp ReadinessResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "healthy", resp.Checks["redis"])
	})

	t.Run("UnhealthyRedis", func(t *testing.T) {
		h := NewHealthHandler(nil, "1.0.0", "").
			WithDependency("redis", pingerFunc(func(context.Context) error { return errors.New("connection refused") }))
		router := setupHealthTestRouter(h)

		w := get(router, "/ready")
		require.Equal(t, http.StatusServiceUnavailable, w.Code)

		var resp ReadinessResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.False(t, resp.Ready)
		assert.Equal(t, "unhealthy: connection refused", resp.Checks["redis"])
	})

	t.Run("PingHasDeadline", func(t *testing.T) {
		var hasDeadline bool
		h := NewHealthHandler(nil, "1.0.0", "").
			WithDependency("redis", pingerFunc(func(ctx context.Context) error {
				_, hasDeadline = ctx.Deadline()
				return nil
			}))

		get(setupHealthTestRouter(h), "/ready")

		assert.True(t, hasDeadline)
	})

	t.Run("NilDependencyIgnored", func(t *testing.T) {
		h := NewHealthHandler(nil, "1.0.0", "").WithDependency("redis", nil)
		assert.Empty(t, h.dependencies)
	})
}

func TestHealthHandler_DetailedHealth(t *testing.T) {
	h := NewHealthHandler(nil, "1.0.0", "").
		WithDependency("redis", pingerFunc(func(context.Context) error { return errors.New("down") }))
	router := setupHealthTestRouter(h)

	w := get(router, "/health/detailed")
	require.Equal(t, http.StatusOK, w.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "unhealthy", resp.Status)
	assert.Equal(t, "unhealthy", resp.Checks["redis"])
	assert.Equal(t, "not configured", resp.Checks["database"])
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
