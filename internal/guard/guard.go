// Package guard отклоняет повторные неидемпотентные запросы, пока первый
// такой же запрос ещё обрабатывается.
//
// Запрос - дубликат, если на тот же METHOD+PATH уже принят запрос с тем же
// token'ом и его handler ещё не завершился. Token достаёт TokenExtractor
// (из заголовка или из поля тела), состояние хранит Registry.
//
// Принятый запрос помечается как origin (значение в gin.Context) и после
// handler'а снимает свою запись из Registry, даже если handler паниковал.
package guard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Haleralex/gincore/internal/adapters/http/problem"
	"github.com/gin-gonic/gin"
)

// originKey - ключ gin.Context для Lease принятого запроса.
const originKey = "guard.origin"

// idempotentMethods не проверяются guard'ом.
var idempotentMethods = map[string]bool{
	http.MethodGet:     true,
	http.MethodHead:    true,
	http.MethodOptions: true,
	http.MethodTrace:   true,
	http.MethodPut:     true,
	http.MethodPatch:   true,
	http.MethodDelete:  true,
}

// IsIdempotent сообщает, пропускает ли guard метод без проверки.
func IsIdempotent(method string) bool {
	return idempotentMethods[strings.ToUpper(method)]
}

// Config - настройки guard middleware.
type Config struct {
	Registry  Registry
	Extractor TokenExtractor
	// FailOpen: при ошибке Registry запрос пропускается без guard'а.
	// Иначе клиент получает 503.
	FailOpen bool
	Logger   *slog.Logger
}

// DefaultConfig - in-memory registry и token из заголовка Guard-Unique-Token.
func DefaultConfig() *Config {
	return &Config{
		Registry:  NewMemoryRegistry(),
		Extractor: HeaderExtractor{Header: DefaultHeaderName},
		FailOpen:  true,
		Logger:    slog.Default(),
	}
}

// ByHeader - guard с token'ом из заголовка.
func ByHeader(registry Registry, header string) gin.HandlerFunc {
	cfg := DefaultConfig()
	cfg.Registry = registry
	cfg.Extractor = HeaderExtractor{Header: header}
	return New(cfg)
}

// ByBody - guard с token'ом из поля аргумента в теле запроса.
func ByBody(registry Registry, argumentIndex int, field string) gin.HandlerFunc {
	cfg := DefaultConfig()
	cfg.Registry = registry
	cfg.Extractor = BodyExtractor{ArgumentIndex: argumentIndex, Field: field}
	return New(cfg)
}

// New создаёт guard middleware. Пустые поля cfg берутся из DefaultConfig,
// кроме FailOpen.
func New(cfg *Config) gin.HandlerFunc {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	defaults := DefaultConfig()
	registry := cfg.Registry
	if registry == nil {
		registry = defaults.Registry
	}
	extractor := cfg.Extractor
	if extractor == nil {
		extractor = defaults.Extractor
	}
	log := cfg.Logger
	if log == nil {
		log = defaults.Logger
	}
	failOpen := cfg.FailOpen

	emptyTokenDetail := fmt.Sprintf(
		"`%s.ExtractToken()` returned empty value. Make sure it returns a unique value.",
		extractorName(extractor),
	)

	return func(c *gin.Context) {
		if IsIdempotent(c.Request.Method) {
			recordDecision(DecisionSkipped)
			c.Next()
			return
		}

		ctx := c.Request.Context()

		token, err := extractor.ExtractToken(c)
		if err != nil {
			recordDecision(DecisionExtractError)
			log.WarnContext(ctx, "guard token extraction failed",
				slog.String("path", c.Request.URL.Path),
				slog.String("error", err.Error()),
			)
			_ = c.Error(err)
			problem.Abort(c, problem.StatusFromError(err), err.Error())
			return
		}

		if strings.TrimSpace(token) == "" {
			recordDecision(DecisionMissingToken)
			_ = c.Error(ErrMissingToken)
			writeMessage(c, ErrMissingToken.Status, emptyTokenDetail)
			return
		}

		key := NewRouteKey(c.Request.Method, c.Request.URL.Path)
		lease, err := registry.Acquire(ctx, key, token)
		switch {
		case errors.Is(err, ErrDuplicateRequest):
			recordDecision(DecisionDuplicate)
			log.DebugContext(ctx, "duplicate request rejected", slog.String("key", string(key)))
			writeMessage(c, ErrDuplicateRequest.Status, ErrDuplicateRequest.Message)
			return
		case err != nil:
			recordDecision(DecisionRegistryError)
			log.ErrorContext(ctx, "guard registry unavailable",
				slog.String("key", string(key)),
				slog.Bool("fail_open", failOpen),
				slog.String("error", err.Error()),
			)
			if failOpen {
				c.Next()
				return
			}
			_ = c.Error(err)
			problem.Abort(c, http.StatusServiceUnavailable, "Duplicate request guard is unavailable.")
			return
		}

		recordDecision(DecisionAccepted)
		c.Set(originKey, lease)
		ActiveOrigins.Inc()
		defer release(c, registry, log)

		c.Next()
	}
}

// MessageContentType - content type ответов 422 и 429 самого guard'а.
const MessageContentType = "application/json"

// writeMessage пишет сообщение как есть, без problem+json.
func writeMessage(c *gin.Context, status int, message string) {
	c.Abort()
	if c.Writer.Written() {
		return
	}
	c.Data(status, MessageContentType, []byte(message))
}

// release снимает запись, если текущий запрос - origin.
func release(c *gin.Context, registry Registry, log *slog.Logger) {
	lease, ok := OriginLease(c)
	if !ok {
		return
	}
	ActiveOrigins.Dec()

	// Запрос мог быть отменён, но запись всё равно нужно снять.
	ctx := context.WithoutCancel(c.Request.Context())
	removed, err := registry.Release(ctx, lease)
	if err != nil {
		log.ErrorContext(ctx, "guard release failed",
			slog.String("key", string(lease.Key)),
			slog.String("error", err.Error()),
		)
		return
	}
	if !removed {
		log.DebugContext(ctx, "guard lease superseded", slog.String("key", string(lease.Key)))
	}
}

// OriginLease возвращает Lease, если запрос был принят guard'ом.
func OriginLease(c *gin.Context) (Lease, bool) {
	value, ok := c.Get(originKey)
	if !ok {
		return Lease{}, false
	}
	lease, ok := value.(Lease)
	return lease, ok
}

// IsOrigin сообщает, принят ли запрос guard'ом.
func IsOrigin(c *gin.Context) bool {
	_, ok := OriginLease(c)
	return ok
}
