package http

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Haleralex/gincore/internal/adapters/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDefaultServerConfig(t *testing.T) {
	cfg := DefaultServerConfig()

	assert.Equal(t, "0.0.0.0", cfg.Host)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 15*time.Second, cfg.ReadTimeout)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Nil(t, cfg.Compression)
}

func TestServerConfig_Address(t *testing.T) {
	tests := []struct {
		name     string
		host     string
		port     string
		expected string
	}{
		{"localhost", "localhost", "8080", "localhost:8080"},
		{"all interfaces", "0.0.0.0", "3000", "0.0.0.0:3000"},
		{"empty host", "", "8080", ":8080"},
		{"ipv6", "::1", "9000", "[::1]:9000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &ServerConfig{Host: tt.host, Port: tt.port}
			assert.Equal(t, tt.expected, cfg.Address())
		})
	}
}

func TestNewServer(t *testing.T) {
	t.Run("NilConfig", func(t *testing.T) {
		server, err := NewServer(nil, gin.New())
		require.NoError(t, err)
		assert.Equal(t, "0.0.0.0:8080", server.httpServer.Addr)
	})

	t.Run("Timeouts", func(t *testing.T) {
		server, err := NewServer(&ServerConfig{
			Host:         "localhost",
			Port:         "8080",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  20 * time.Second,
		}, gin.New())
		require.NoError(t, err)

		assert.Equal(t, 5*time.Second, server.httpServer.ReadTimeout)
		assert.Equal(t, 10*time.Second, server.httpServer.WriteTimeout)
		assert.Equal(t, 20*time.Second, server.httpServer.IdleTimeout)
	})

	t.Run("InvalidCompressionLevel", func(t *testing.T) {
		_, err := NewServer(&ServerConfig{
			Compression: &middleware.CompressionConfig{Enabled: true, Level: 42},
		}, gin.New())
		assert.Error(t, err)
	})
}

func TestServer_Compression(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/big", func(c *gin.Context) {
		c.String(http.StatusOK, strings.Repeat("dummy ", 1000))
	})

	server, err := NewServer(&ServerConfig{
		Compression: &middleware.CompressionConfig{Enabled: true, MinSize: 100, Level: -1},
		Logger:      quietLogger(),
	}, router)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/big", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "gzip", w.Header().Get("Content-Encoding"))
}

func TestServer_RunWithContext_Cancellation(t *testing.T) {
	router := gin.New()

	server, err := NewServer(&ServerConfig{
		Host:            "localhost",
		Port:            "0",
		ShutdownTimeout: time.Second,
		Logger:          quietLogger(),
	}, router)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- server.RunWithContext(ctx)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shutdown in time")
	}
}
