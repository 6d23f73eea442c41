// Package middleware содержит HTTP middleware для обработки запросов.
//
// Middleware в Gin - это функции, которые выполняются до/после handlers.
// Здесь живут cross-cutting concerns: request id, логирование, ошибки,
// CORS, метрики и сжатие ответов. Guard повторных запросов - в пакете guard.
package middleware

import (
	"github.com/Haleralex/gincore/internal/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// RequestIDHeader - имя заголовка для Request ID
	RequestIDHeader = "X-Request-ID"
	// RequestIDContextKey - ключ для хранения Request ID в контексте gin
	RequestIDContextKey = "request_id"
	// maxRequestIDLength - длиннее этого клиентский ID не принимаем
	maxRequestIDLength = 128
)

// RequestID middleware добавляет уникальный ID к каждому запросу.
//
// Если клиент передаёт корректный X-Request-ID - используем его,
// иначе генерируем новый UUID. ID кладётся в gin.Context, в context.Context
// запроса (для slog) и в заголовок ответа.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if !validRequestID(requestID) {
			requestID = uuid.New().String()
		}

		c.Set(RequestIDContextKey, requestID)
		c.Request = c.Request.WithContext(logger.WithRequestID(c.Request.Context(), requestID))
		c.Header(RequestIDHeader, requestID)

		c.Next()
	}
}

// validRequestID - непустой, не длиннее лимита, только печатный ASCII.
func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < 0x21 || id[i] > 0x7e {
			return false
		}
	}
	return true
}

// GetRequestID извлекает Request ID из контекста Gin.
func GetRequestID(c *gin.Context) string {
	if id, exists := c.Get(RequestIDContextKey); exists {
		if strID, ok := id.(string); ok {
			return strID
		}
	}
	return ""
}
