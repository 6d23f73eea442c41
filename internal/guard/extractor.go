package guard

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	// DefaultHeaderName - заголовок с token'ом для HeaderExtractor.
	DefaultHeaderName = "Guard-Unique-Token"
	// DefaultFieldName - поле аргумента для BodyExtractor.
	DefaultFieldName = "Id"
	// DefaultMaxBodySize - сколько байт тела BodyExtractor готов прочитать.
	DefaultMaxBodySize int64 = 1 << 20
)

// TokenExtractor достаёт уникальный token из запроса.
//
// Пустая строка без ошибки означает "token отсутствует" и приводит к 422.
// Ошибка прерывает запрос со статусом, который она несёт (см. Error).
type TokenExtractor interface {
	ExtractToken(c *gin.Context) (string, error)
}

// TokenExtractorFunc позволяет использовать обычную функцию как TokenExtractor.
type TokenExtractorFunc func(c *gin.Context) (string, error)

// ExtractToken вызывает f(c).
func (f TokenExtractorFunc) ExtractToken(c *gin.Context) (string, error) {
	return f(c)
}

// HeaderExtractor берёт token из первого значения заголовка.
type HeaderExtractor struct {
	Header string
}

// ExtractToken реализует TokenExtractor.
func (e HeaderExtractor) ExtractToken(c *gin.Context) (string, error) {
	name := e.Header
	if name == "" {
		name = DefaultHeaderName
	}

	values := c.Request.Header.Values(name)
	if len(values) == 0 {
		return "", nil
	}
	return values[0], nil
}

// BodyExtractor берёт token из поля аргумента, переданного в теле запроса.
//
// Аргументы: если тело - JSON массив, его элементы; иначе всё тело - аргумент 0.
// Пустое тело - один аргумент null. Поле ищется без учёта регистра, строка
// возвращается как есть, число - своим литералом, всё остальное даёт "".
// Тело восстанавливается, чтобы handler мог сделать свой bind.
type BodyExtractor struct {
	ArgumentIndex int
	Field         string
	MaxBodySize   int64
}

// ExtractToken реализует TokenExtractor.
func (e BodyExtractor) ExtractToken(c *gin.Context) (string, error) {
	limit := e.MaxBodySize
	if limit <= 0 {
		limit = DefaultMaxBodySize
	}

	body, err := readBody(c.Request, limit)
	if err != nil {
		return "", err
	}

	args, err := arguments(body)
	if err != nil {
		return "", err
	}
	if e.ArgumentIndex < 0 || e.ArgumentIndex >= len(args) {
		return "", fmt.Errorf("%w: index %d, %d argument(s)", ErrArgumentOutOfRange, e.ArgumentIndex, len(args))
	}

	field := e.Field
	if field == "" {
		field = DefaultFieldName
	}
	return fieldValue(args[e.ArgumentIndex], field), nil
}

// readBody читает тело и возвращает его обратно в запрос.
func readBody(r *http.Request, limit int64) ([]byte, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, nil
	}

	original := r.Body
	body, err := io.ReadAll(io.LimitReader(original, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read request body: %w", err)
	}
	r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(body), original))

	if int64(len(body)) > limit {
		return nil, ErrBodyTooLarge
	}
	return body, nil
}

func arguments(body []byte) ([]any, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return []any{nil}, nil
	}

	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()

	var value any
	if err := decoder.Decode(&value); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedBody, err)
	}
	if decoder.More() {
		return nil, fmt.Errorf("%w: trailing data after JSON value", ErrMalformedBody)
	}

	if list, ok := value.([]any); ok {
		return list, nil
	}
	return []any{value}, nil
}

func fieldValue(arg any, field string) string {
	object, ok := arg.(map[string]any)
	if !ok {
		return ""
	}

	value, ok := object[field]
	if !ok {
		// Точного совпадения нет - первое по алфавиту без учёта регистра.
		keys := make([]string, 0, len(object))
		for k := range object {
			if strings.EqualFold(k, field) {
				keys = append(keys, k)
			}
		}
		if len(keys) == 0 {
			return ""
		}
		sort.Strings(keys)
		value = object[keys[0]]
	}

	switch v := value.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	default:
		return ""
	}
}

// extractorName - имя extractor'а для сообщения об ошибке.
func extractorName(e TokenExtractor) string {
	if named, ok := e.(interface{ Name() string }); ok {
		return named.Name()
	}
	return strings.TrimPrefix(fmt.Sprintf("%T", e), "*")
}
