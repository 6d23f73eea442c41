// Package swagger документирует и перекладывает "служебные" параметры запроса.
//
// ParameterMap описывает один параметр (например, заголовок Culture с набором
// допустимых значений): добавляет его в операции OpenAPI документа и на каждом
// запросе выполняет Process, который может переложить значение в другое место
// (см. HeaderToHeader, HeaderToQuery, QueryToHeader, QueryToQuery).
package swagger

import (
	"fmt"
	"net/http"
	"slices"
	"strings"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/gin-gonic/gin"
)

// ParameterMap - документируемый параметр и его обработка на запросе.
type ParameterMap struct {
	Name string
	// In - openapi3.ParameterInHeader или openapi3.ParameterInQuery.
	In string
	// Source - допустимые значения, уходят в enum схемы.
	Source []string
	// DefaultKey - пример, если он есть в Source.
	DefaultKey string
	AllowEmpty bool
	// ShouldApply решает, документировать ли параметр у операции. nil - всегда.
	ShouldApply func(method, path string, op *openapi3.Operation) bool
	// Process вызывается на каждом запросе до handler'а. nil - ничего не делать.
	Process func(r *http.Request)
}

func (m *ParameterMap) String() string {
	return fmt.Sprintf("Location: %s, Name: %s", m.In, m.Name)
}

// Parameter строит описание параметра для OpenAPI.
func (m *ParameterMap) Parameter() *openapi3.Parameter {
	var param *openapi3.Parameter
	if m.In == openapi3.ParameterInQuery {
		param = openapi3.NewQueryParameter(m.Name)
	} else {
		param = openapi3.NewHeaderParameter(m.Name)
	}
	param.AllowEmptyValue = m.AllowEmpty

	schema := openapi3.NewStringSchema()
	for _, value := range m.Source {
		schema.Enum = append(schema.Enum, value)
	}
	param.WithSchema(schema)

	if strings.TrimSpace(m.DefaultKey) != "" && slices.Contains(m.Source, m.DefaultKey) {
		param.Example = m.DefaultKey
	}
	return param
}

// Apply добавляет параметр в операцию, если ShouldApply разрешает.
func (m *ParameterMap) Apply(op *openapi3.Operation, method, path string) {
	if op == nil {
		return
	}
	if m.ShouldApply != nil && !m.ShouldApply(method, path, op) {
		return
	}
	op.AddParameter(m.Parameter())
}

// Registry хранит ParameterMap'ы приложения.
// Повторная регистрация карты с тем же местом и именем заменяет прежнюю.
type Registry struct {
	mu    sync.RWMutex
	maps  map[string]*ParameterMap
	order []string
}

// NewRegistry создаёт пустой Registry.
func NewRegistry() *Registry {
	return &Registry{maps: make(map[string]*ParameterMap)}
}

// Register добавляет карты.
func (r *Registry) Register(maps ...*ParameterMap) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, m := range maps {
		key := m.String()
		if _, exists := r.maps[key]; !exists {
			r.order = append(r.order, key)
		}
		r.maps[key] = m
	}
}

// Maps возвращает карты в порядке регистрации.
func (r *Registry) Maps() []*ParameterMap {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*ParameterMap, 0, len(r.order))
	for _, key := range r.order {
		out = append(out, r.maps[key])
	}
	return out
}

// Process выполняет Process всех карт над запросом.
func (r *Registry) Process(req *http.Request) {
	for _, m := range r.Maps() {
		if m.Process != nil {
			m.Process(req)
		}
	}
}

// Middleware выполняет карты перед handler'ом.
func (r *Registry) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		r.Process(c.Request)
		c.Next()
	}
}

// ApplyAll добавляет параметры во все операции документа.
func (r *Registry) ApplyAll(doc *openapi3.T) {
	if doc == nil {
		return
	}
	maps := r.Maps()
	for path, item := range doc.Paths {
		for method, op := range item.Operations() {
			for _, m := range maps {
				m.Apply(op, method, path)
			}
		}
	}
}
