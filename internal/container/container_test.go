package container

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Haleralex/gincore/internal/config"
	"github.com/Haleralex/gincore/internal/guard"
	"github.com/Haleralex/gincore/internal/infrastructure/persistence/memory"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNew(t *testing.T) {
	cfg := config.Development()
	c := New(cfg)

	require.NotNil(t, c)
	assert.Equal(t, cfg, c.Config())
}

func TestContainer_BeforeInit(t *testing.T) {
	c := New(config.Development())

	assert.Nil(t, c.Logger())
	assert.Nil(t, c.Pool())
	assert.Nil(t, c.HTTPServer())
	assert.Nil(t, c.Registry())
	assert.Nil(t, c.DummyRepository())
}

func TestContainer_Initialize_Memory(t *testing.T) {
	c, err := NewBuilder(config.Test()).
		WithLogger(discardLogger()).
		Build(context.Background())
	require.NoError(t, err)

	assert.Nil(t, c.Pool())
	assert.IsType(t, &guard.MemoryRegistry{}, c.Registry())
	assert.IsType(t, &memory.DummyRepository{}, c.DummyRepository())
	require.NotNil(t, c.HTTPServer())

	t.Run("ServesDummies", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/dummies", nil)
		c.HTTPServer().Handler().ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("ReadyWithoutDatabase", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ready", nil)
		c.HTTPServer().Handler().ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, c.Shutdown(ctx))
}

func TestContainer_Initialize_Redis(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := config.Test()
	cfg.Guard.Backend = config.GuardBackendRedis
	cfg.Redis.Address = mr.Addr()

	c, err := NewBuilder(cfg).WithLogger(discardLogger()).Build(context.Background())
	require.NoError(t, err)

	assert.IsType(t, &guard.RedisRegistry{}, c.Registry())
	assert.Contains(t, c.RouterConfig().Readiness, "redis")

	assert.NoError(t, c.Shutdown(context.Background()))
}

func TestContainer_Initialize_RedisUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	cfg := config.Test()
	cfg.Guard.Backend = config.GuardBackendRedis
	cfg.Redis.Address = addr
	cfg.Redis.DialTimeout = 200 * time.Millisecond

	_, err := NewBuilder(cfg).WithLogger(discardLogger()).Build(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "guard registry")
}

func TestContainer_Initialize_InvalidCompression(t *testing.T) {
	cfg := config.Test()
	cfg.Compression.Enabled = true
	cfg.Compression.Level = 42

	_, err := NewBuilder(cfg).WithLogger(discardLogger()).Build(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP server")
}

func TestContainerBuilder_WithOverrides(t *testing.T) {
	registry := guard.NewMemoryRegistry()
	repo := memory.NewDummyRepository()

	c, err := NewBuilder(config.Test()).
		WithLogger(discardLogger()).
		WithRegistry(registry).
		WithDummyRepository(repo).
		Build(context.Background())
	require.NoError(t, err)

	assert.Same(t, registry, c.Registry())
	assert.Same(t, repo, c.DummyRepository())
}

func TestContainer_RouterConfig(t *testing.T) {
	cfg := config.Test()
	cfg.App.BuildTime = "2024-01-01T00:00:00Z"

	c := New(cfg)
	c.logger = discardLogger()

	rc := c.RouterConfig()
	assert.Equal(t, cfg.App.Version, rc.Version)
	assert.Equal(t, "2024-01-01T00:00:00Z", rc.BuildTime)
	assert.Equal(t, cfg.Guard, rc.Guard)
	assert.Empty(t, rc.ServiceName, "otelgin is off while tracing is disabled")

	cfg.Tracing.Enabled = true
	assert.Equal(t, cfg.App.Name, c.RouterConfig().ServiceName)
}

func TestContainer_Shutdown_NilComponents(t *testing.T) {
	c := New(config.Development())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	assert.NoError(t, c.Shutdown(ctx))
}
