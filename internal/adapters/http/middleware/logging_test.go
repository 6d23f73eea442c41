package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLoggingRouter(cfg *LoggingConfig) *gin.Engine {
	router := gin.New()
	router.Use(Logging(cfg))
	router.GET("/dummies", func(c *gin.Context) {
		c.String(http.StatusOK, strings.Repeat("x", 2048))
	})
	router.GET("/health", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	router.POST("/dummies", func(c *gin.Context) {
		body, _ := io.ReadAll(c.Request.Body)
		c.String(http.StatusCreated, string(body))
	})
	router.GET("/broken", func(c *gin.Context) {
		_ = c.Error(io.ErrUnexpectedEOF)
		c.String(http.StatusInternalServerError, "error")
	})
	return router
}

func TestLogging_Structured(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	router := newLoggingRouter(&LoggingConfig{Logger: slog.New(slog.NewJSONHandler(&buf, nil))})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/dummies?PageNumber=2", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "HTTP Request", entry["msg"])
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "GET", entry["method"])
	assert.Equal(t, "/dummies", entry["path"])
	assert.Equal(t, "PageNumber=2", entry["query"])
	assert.Equal(t, float64(200), entry["status"])
	assert.Equal(t, float64(2048), entry["response_size"])
}

func TestLogging_Text(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	router := newLoggingRouter(&LoggingConfig{
		Logger: slog.New(slog.NewTextHandler(&buf, nil)),
		Format: LogFormatText,
	})

	req := httptest.NewRequest(http.MethodGet, "/dummies", nil)
	req.Host = "localhost:8080"
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	line := regexp.MustCompile(`\[\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}Z\] GET > localhost:8080/dummies > 200 OK > 2\.0 kB in \S+`)
	assert.Regexp(t, line, buf.String())
}

func TestLogging_LevelByStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	router := newLoggingRouter(&LoggingConfig{Logger: slog.New(slog.NewJSONHandler(&buf, nil))})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/broken", nil))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "ERROR", entry["level"])
	assert.Contains(t, entry["errors"], "unexpected EOF")

	assert.Equal(t, slog.LevelWarn, levelForStatus(http.StatusTooManyRequests))
	assert.Equal(t, slog.LevelInfo, levelForStatus(http.StatusNoContent))
}

func TestLogging_SkipPaths(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	router := newLoggingRouter(&LoggingConfig{
		Logger:    slog.New(slog.NewJSONHandler(&buf, nil)),
		SkipPaths: []string{"/health"},
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Empty(t, buf.String())
}

func TestLogging_Bodies(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	router := newLoggingRouter(&LoggingConfig{
		Logger:          slog.New(slog.NewJSONHandler(&buf, nil)),
		LogRequestBody:  true,
		LogResponseBody: true,
		MaxBodySize:     8,
	})

	req := httptest.NewRequest(http.MethodPost, "/dummies", strings.NewReader(`{"id":"abc","name":"n"}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	// Handler получил тело целиком, несмотря на логирование.
	assert.Equal(t, `{"id":"abc","name":"n"}`, w.Body.String())

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, `{"id":"a...[truncated]`, entry["request_body"])
	assert.Equal(t, `{"id":"a...[truncated]`, entry["response_body"])
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "short", truncateString("short", 10))
	assert.Equal(t, "abc...[truncated]", truncateString("abcdef", 3))
	assert.Equal(t, "abcdef", truncateString("abcdef", 0))
}

func TestLogging_Panic(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	router := gin.New()
	router.Use(ErrorHandler(&ErrorHandlerConfig{Logger: slog.New(slog.NewJSONHandler(io.Discard, nil))}))
	router.Use(Logging(&LoggingConfig{Logger: slog.New(slog.NewJSONHandler(&buf, nil))}))
	router.POST("/dummies", func(c *gin.Context) {
		panic("storage exploded")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/dummies", nil))
	require.Equal(t, http.StatusInternalServerError, w.Code)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "HTTP Request", entry["msg"])
	assert.Equal(t, "ERROR", entry["level"])
	assert.Equal(t, "/dummies", entry["path"])
	assert.Equal(t, float64(500), entry["status"])
}
