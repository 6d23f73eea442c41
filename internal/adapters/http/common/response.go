// Package common содержит общие типы успешных ответов HTTP слоя.
//
// Ошибки сюда не относятся: их формат - problem+json (пакет problem).
// Вынесен отдельно, чтобы handlers и http не импортировали друг друга.
package common

import (
	"net/http"
	"time"

	"github.com/Haleralex/gincore/internal/adapters/http/middleware"
	"github.com/gin-gonic/gin"
)

// APIResponse - стандартная обёртка успешного ответа.
type APIResponse struct {
	Data      interface{} `json:"data"`
	RequestID string      `json:"request_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// Success отправляет успешный ответ.
func Success(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, APIResponse{
		Data:      data,
		RequestID: middleware.GetRequestID(c),
		Timestamp: time.Now().UTC(),
	})
}

// Created отправляет 201 и заголовок Location.
func Created(c *gin.Context, location string, data interface{}) {
	if location != "" {
		c.Header("Location", location)
	}
	Success(c, http.StatusCreated, data)
}
