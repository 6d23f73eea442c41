// Package middleware - Logging middleware для логирования HTTP запросов.
package middleware

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"
)

// Форматы записи о запросе.
const (
	LogFormatStructured = "structured"
	LogFormatText       = "text"
)

// LoggingConfig - конфигурация для logging middleware.
type LoggingConfig struct {
	Logger *slog.Logger
	// Format: "structured" - запись с атрибутами, "text" - одна строка
	// вида "[date] METHOD > host/path > 200 OK > 1.2 kB in 3ms".
	Format          string
	SkipPaths       []string // Пути для пропуска логирования (e.g., /health)
	LogRequestBody  bool     // Логировать тело запроса (осторожно с PII!)
	LogResponseBody bool     // Логировать тело ответа
	MaxBodySize     int      // Максимальный размер тела для логирования
}

// DefaultLoggingConfig - конфигурация по умолчанию.
func DefaultLoggingConfig() *LoggingConfig {
	return &LoggingConfig{
		Logger:      slog.Default(),
		Format:      LogFormatStructured,
		SkipPaths:   []string{"/health", "/ready", "/metrics"},
		MaxBodySize: 1024, // 1KB
	}
}

// Logging middleware для логирования HTTP запросов.
//
// Уровень записи зависит от статуса: 5xx - error, 4xx - warn, иначе info.
func Logging(config *LoggingConfig) gin.HandlerFunc {
	if config == nil {
		config = DefaultLoggingConfig()
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	skipMap := make(map[string]bool)
	for _, path := range config.SkipPaths {
		skipMap[path] = true
	}

	return func(c *gin.Context) {
		if skipMap[c.Request.URL.Path] {
			c.Next()
			return
		}

		start := time.Now()

		var requestBody string
		if config.LogRequestBody && c.Request.Body != nil {
			bodyBytes, _ := io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
			if len(bodyBytes) > 0 {
				requestBody = truncateString(string(bodyBytes), config.MaxBodySize)
			}
		}

		blw := &bodyLogWriter{body: bytes.NewBufferString(""), ResponseWriter: c.Writer}
		if config.LogResponseBody {
			c.Writer = blw
		}

		defer func() {
			status := c.Writer.Status()
			rec := recover()
			if rec != nil && !c.Writer.Written() {
				// ответа ещё нет, ErrorHandler выше по цепочке ответит 500
				status = http.StatusInternalServerError
			}
			logRequest(c, config, start, status, requestBody, blw)
			if rec != nil {
				panic(rec)
			}
		}()

		c.Next()
	}
}

func logRequest(c *gin.Context, config *LoggingConfig, start time.Time, status int, requestBody string, blw *bodyLogWriter) {
	duration := time.Since(start)
	level := levelForStatus(status)

	if config.Format == LogFormatText {
		config.Logger.Log(c.Request.Context(), level, formatRequestLine(c, start, duration, status))
		return
	}

	attrs := []slog.Attr{
		slog.String("method", c.Request.Method),
		slog.String("path", c.Request.URL.Path),
		slog.String("query", c.Request.URL.RawQuery),
		slog.Int("status", status),
		slog.Duration("duration", duration),
		slog.String("client_ip", c.ClientIP()),
		slog.String("user_agent", c.Request.UserAgent()),
		slog.Int("response_size", max(c.Writer.Size(), 0)),
	}

	if requestBody != "" {
		attrs = append(attrs, slog.String("request_body", requestBody))
	}
	if config.LogResponseBody && blw.body.Len() > 0 {
		attrs = append(attrs, slog.String("response_body",
			truncateString(blw.body.String(), config.MaxBodySize)))
	}
	if len(c.Errors) > 0 {
		attrs = append(attrs, slog.String("errors", c.Errors.String()))
	}

	config.Logger.LogAttrs(c.Request.Context(), level, "HTTP Request", attrs...)
}

func levelForStatus(status int) slog.Level {
	switch {
	case status >= 500:
		return slog.LevelError
	case status >= 400:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// formatRequestLine - "[2024-01-02 15:04:05Z] POST > localhost/dummies > 201 Created > 120 B in 1.5ms"
func formatRequestLine(c *gin.Context, start time.Time, duration time.Duration, status int) string {
	size := c.Writer.Size()
	if size < 0 {
		size = 0
	}
	return fmt.Sprintf("[%s] %s > %s%s > %d %s > %s in %s",
		start.UTC().Format("2006-01-02 15:04:05Z"),
		c.Request.Method,
		c.Request.Host,
		c.Request.URL.Path,
		status,
		http.StatusText(status),
		humanize.Bytes(uint64(size)),
		duration.Round(time.Microsecond),
	)
}

// bodyLogWriter - ResponseWriter с захватом body.
type bodyLogWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

// Write записывает в оригинальный writer и буфер.
func (w bodyLogWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// truncateString обрезает строку до максимальной длины.
func truncateString(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max] + "...[truncated]"
}
