// Package middleware - CORS middleware.
//
// Cross-Origin Resource Sharing (CORS) позволяет браузерам
// делать запросы к API с других доменов.
package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/Haleralex/gincore/internal/config"
	"github.com/gin-gonic/gin"
)

// CORSConfig - конфигурация CORS.
//
// "*" в AllowOrigins, AllowMethods или AllowHeaders означает "любой":
// для методов и заголовков в preflight ответе отражается то, что запросил браузер.
// Пустой список - соответствующий заголовок не отправляется.
type CORSConfig struct {
	AllowOrigins     []string
	AllowMethods     []string
	AllowHeaders     []string
	ExposeHeaders    []string
	AllowCredentials bool
	// MaxAge - время кеширования preflight запроса (секунды)
	MaxAge int
}

// DefaultCORSConfig - конфигурация по умолчанию.
func DefaultCORSConfig() *CORSConfig {
	return &CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Accept",
			RequestIDHeader,
			"Guard-Unique-Token",
		},
		ExposeHeaders: []string{RequestIDHeader},
		MaxAge:        86400, // 24 часа
	}
}

// CORSFromConfig строит CORS middleware из секции cors конфигурации.
//
// Значения очищаются от пробелов, у origins отрезается завершающий "/",
// методы приводятся к верхнему регистру. Неизвестный метод - ошибка.
func CORSFromConfig(cfg config.CORSConfig) (gin.HandlerFunc, error) {
	methods := make([]string, 0, len(cfg.AllowedMethods))
	for _, m := range cleanList(cfg.AllowedMethods) {
		if err := config.ValidateMethod(m); err != nil {
			return nil, err
		}
		methods = append(methods, strings.ToUpper(m))
	}

	origins := cleanList(cfg.AllowedOrigins)
	for i, o := range origins {
		origins[i] = strings.TrimRight(o, "/")
	}

	return CORS(&CORSConfig{
		AllowOrigins:     origins,
		AllowMethods:     methods,
		AllowHeaders:     cleanList(cfg.AllowedHeaders),
		ExposeHeaders:    cleanList(cfg.ExposedHeaders),
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           int(cfg.MaxAge.Seconds()),
	}), nil
}

// cleanList обрезает пробелы и выкидывает пустые значения.
func cleanList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func containsWildcard(values []string) bool {
	for _, v := range values {
		if v == "*" {
			return true
		}
	}
	return false
}

// CORS middleware для обработки Cross-Origin запросов.
//
// Заголовки:
// - Access-Control-Allow-Origin: Разрешённые домены
// - Access-Control-Allow-Methods: Разрешённые методы (только preflight)
// - Access-Control-Allow-Headers: Разрешённые заголовки (только preflight)
// - Access-Control-Expose-Headers: Заголовки, видимые клиенту
// - Access-Control-Allow-Credentials: Разрешены ли credentials
// - Access-Control-Max-Age: Время кеширования preflight
func CORS(config *CORSConfig) gin.HandlerFunc {
	if config == nil {
		config = DefaultCORSConfig()
	}

	anyMethod := containsWildcard(config.AllowMethods)
	anyHeader := containsWildcard(config.AllowHeaders)
	allowMethods := strings.Join(config.AllowMethods, ", ")
	allowHeaders := strings.Join(config.AllowHeaders, ", ")
	exposeHeaders := strings.Join(config.ExposeHeaders, ", ")
	maxAge := strconv.Itoa(config.MaxAge)

	allowAllOrigins := containsWildcard(config.AllowOrigins)
	originsMap := make(map[string]bool, len(config.AllowOrigins))
	for _, origin := range config.AllowOrigins {
		originsMap[origin] = true
	}

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			c.Next()
			return
		}

		var allowedOrigin string
		switch {
		case allowAllOrigins && config.AllowCredentials:
			// С credentials браузер не принимает "*".
			allowedOrigin = origin
		case allowAllOrigins:
			allowedOrigin = "*"
		case originsMap[origin]:
			allowedOrigin = origin
		}

		// Если origin не разрешён - пропускаем CORS headers
		if allowedOrigin == "" {
			c.Next()
			return
		}

		c.Header("Access-Control-Allow-Origin", allowedOrigin)
		if allowedOrigin != "*" {
			c.Writer.Header().Add("Vary", "Origin")
		}
		if exposeHeaders != "" {
			c.Header("Access-Control-Expose-Headers", exposeHeaders)
		}
		if config.AllowCredentials {
			c.Header("Access-Control-Allow-Credentials", "true")
		}

		preflight := c.Request.Method == http.MethodOptions &&
			c.Request.Header.Get("Access-Control-Request-Method") != ""
		if !preflight {
			c.Next()
			return
		}

		if anyMethod {
			c.Header("Access-Control-Allow-Methods", c.Request.Header.Get("Access-Control-Request-Method"))
		} else if allowMethods != "" {
			c.Header("Access-Control-Allow-Methods", allowMethods)
		}
		if anyHeader {
			if requested := c.Request.Header.Get("Access-Control-Request-Headers"); requested != "" {
				c.Header("Access-Control-Allow-Headers", requested)
			}
		} else if allowHeaders != "" {
			c.Header("Access-Control-Allow-Headers", allowHeaders)
		}
		if config.MaxAge > 0 {
			c.Header("Access-Control-Max-Age", maxAge)
		}

		c.AbortWithStatus(http.StatusNoContent)
	}
}
