// Package middleware - ErrorHandler превращает ошибки и паники в problem details.
package middleware

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/Haleralex/gincore/internal/adapters/http/problem"
	"github.com/gin-gonic/gin"
)

// ErrorHandlerConfig - конфигурация для error handler middleware.
type ErrorHandlerConfig struct {
	Logger *slog.Logger
	// Production скрывает текст 5xx ошибок и stack trace от клиента.
	Production bool
	// EnableStackTrace - stack trace паники в логе
	EnableStackTrace bool
}

// DefaultErrorHandlerConfig - конфигурация по умолчанию (development).
func DefaultErrorHandlerConfig() *ErrorHandlerConfig {
	return &ErrorHandlerConfig{
		Logger:           slog.Default(),
		Production:       false,
		EnableStackTrace: true,
	}
}

// ErrorHandler - единая точка, где ошибки handlers становятся ответом.
//
// Handler сообщает об ошибке через c.Error(err) и возвращается; после
// c.Next() последняя ошибка пишется как application/problem+json.
// Паника перехватывается и превращается в 500. Если ответ уже начат,
// тело не пишется, ошибка только логируется.
func ErrorHandler(config *ErrorHandlerConfig) gin.HandlerFunc {
	if config == nil {
		config = DefaultErrorHandlerConfig()
	}

	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			// Соединение уже оборвано, net/http обработает сам.
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			err, ok := rec.(error)
			if !ok {
				err = fmt.Errorf("%v", rec)
			}
			stack := debug.Stack()

			attrs := []slog.Attr{
				slog.String("error", err.Error()),
				slog.String("path", c.Request.URL.Path),
				slog.String("method", c.Request.Method),
				slog.String("client_ip", c.ClientIP()),
			}
			if config.EnableStackTrace {
				attrs = append(attrs, slog.String("stack", string(stack)))
			}
			config.Logger.LogAttrs(c.Request.Context(), slog.LevelError, "Panic recovered", attrs...)

			details := problem.New(http.StatusInternalServerError, problem.InternalDetail, c.Request.URL.Path)
			if !config.Production {
				details = problem.Create("", err.Error(), http.StatusInternalServerError, string(stack), c.Request.URL.Path)
			}
			problem.Write(c, details)
		}()

		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err

		status := problem.StatusFromError(err)
		level := slog.LevelWarn
		if status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		config.Logger.LogAttrs(c.Request.Context(), level, "Request failed",
			slog.String("error", err.Error()),
			slog.Int("status", status),
			slog.String("path", c.Request.URL.Path),
			slog.String("method", c.Request.Method),
		)

		if c.Writer.Written() {
			return
		}
		problem.Write(c, problem.FromError(err, c.Request.URL.Path, config.Production))
	}
}

// AbortWithError регистрирует ошибку для ErrorHandler и прерывает цепочку.
func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		err = errors.New("unknown error")
	}
	_ = c.Error(err)
	c.Abort()
}
