package middleware

import (
	"fmt"
	"net/http"

	"github.com/klauspost/compress/gzhttp"
)

const defaultCompressionMinSize = 1024

// CompressionConfig - gzip сжатие ответов.
type CompressionConfig struct {
	Enabled bool
	MinSize int // ответы меньше не сжимаются
	Level   int // gzip level, -1 - по умолчанию
}

// Compression возвращает net/http обёртку со сжатием ответов.
//
// Работает на уровне http.Handler, а не gin: так сжимаются и ответы,
// записанные до gin (например, 404 от NoRoute) и /metrics.
func Compression(config *CompressionConfig) (func(http.Handler) http.Handler, error) {
	if config == nil || !config.Enabled {
		return func(h http.Handler) http.Handler { return h }, nil
	}

	minSize := config.MinSize
	if minSize <= 0 {
		minSize = defaultCompressionMinSize
	}

	wrapper, err := gzhttp.NewWrapper(
		gzhttp.MinSize(minSize),
		gzhttp.CompressionLevel(config.Level),
	)
	if err != nil {
		return nil, fmt.Errorf("create gzip wrapper: %w", err)
	}
	return func(h http.Handler) http.Handler { return wrapper(h) }, nil
}
