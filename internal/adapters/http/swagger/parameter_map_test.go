package swagger

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cultureMap() *ParameterMap {
	return &ParameterMap{
		Name:       "Culture",
		In:         openapi3.ParameterInHeader,
		Source:     []string{"en-US", "el-GR"},
		DefaultKey: "en-US",
		Process: func(r *http.Request) {
			HeaderToHeader(r, "Culture", "Accept-Language")
		},
	}
}

func TestParameterMap_Parameter(t *testing.T) {
	t.Run("Header", func(t *testing.T) {
		p := cultureMap().Parameter()

		assert.Equal(t, "Culture", p.Name)
		assert.Equal(t, openapi3.ParameterInHeader, p.In)
		assert.Equal(t, "en-US", p.Example)
		require.NotNil(t, p.Schema)
		assert.Equal(t, []interface{}{"en-US", "el-GR"}, p.Schema.Value.Enum)
	})

	t.Run("QueryWithoutKnownDefault", func(t *testing.T) {
		m := &ParameterMap{
			Name:       "lang",
			In:         openapi3.ParameterInQuery,
			Source:     []string{"en"},
			DefaultKey: "fr",
			AllowEmpty: true,
		}
		p := m.Parameter()

		assert.Equal(t, openapi3.ParameterInQuery, p.In)
		assert.True(t, p.AllowEmptyValue)
		assert.Nil(t, p.Example)
	})

	t.Run("String", func(t *testing.T) {
		assert.Equal(t, "Location: header, Name: Culture", cultureMap().String())
	})
}

func TestParameterMap_Apply(t *testing.T) {
	t.Run("AddsParameter", func(t *testing.T) {
		op := openapi3.NewOperation()
		cultureMap().Apply(op, http.MethodGet, "/dummies")

		require.Len(t, op.Parameters, 1)
		assert.Equal(t, "Culture", op.Parameters[0].Value.Name)
	})

	t.Run("ShouldApplyFilters", func(t *testing.T) {
		m := cultureMap()
		m.ShouldApply = func(method, path string, _ *openapi3.Operation) bool {
			return method == http.MethodGet
		}

		op := openapi3.NewOperation()
		m.Apply(op, http.MethodPost, "/dummies")
		assert.Empty(t, op.Parameters)

		m.Apply(op, http.MethodGet, "/dummies")
		assert.Len(t, op.Parameters, 1)
	})

	t.Run("NilOperation", func(t *testing.T) {
		assert.NotPanics(t, func() { cultureMap().Apply(nil, http.MethodGet, "/") })
	})
}

func TestRegistry(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("ReplacesSameParameter", func(t *testing.T) {
		reg := NewRegistry()
		reg.Register(cultureMap(), &ParameterMap{Name: "page", In: openapi3.ParameterInQuery})

		replacement := cultureMap()
		replacement.Source = []string{"de-DE"}
		reg.Register(replacement)

		maps := reg.Maps()
		require.Len(t, maps, 2)
		assert.Same(t, replacement, maps[0])
	})

	t.Run("MiddlewareRunsProcess", func(t *testing.T) {
		reg := NewRegistry()
		reg.Register(cultureMap(), &ParameterMap{
			Name: "size",
			In:   openapi3.ParameterInQuery,
			Process: func(r *http.Request) {
				QueryToQuery(r, "size", "PageSize")
			},
		})

		var language, pageSize string
		router := gin.New()
		router.Use(reg.Middleware())
		router.GET("/dummies", func(c *gin.Context) {
			language = c.GetHeader("Accept-Language")
			pageSize = c.Query("PageSize")
			c.Status(http.StatusOK)
		})

		req := httptest.NewRequest(http.MethodGet, "/dummies?size=5", nil)
		req.Header.Set("Culture", "el-GR")
		router.ServeHTTP(httptest.NewRecorder(), req)

		assert.Equal(t, "el-GR", language)
		assert.Equal(t, "5", pageSize)
	})
}

const testDocument = `
openapi: 3.0.3
info:
  title: dummies
  version: "1.0"
paths:
  /dummies:
    get:
      responses:
        "200":
          description: ok
    post:
      responses:
        "201":
          description: created
`

func TestDocument(t *testing.T) {
	gin.SetMode(gin.TestMode)

	doc, err := LoadDocument([]byte(testDocument))
	require.NoError(t, err)

	reg := NewRegistry()
	reg.Register(cultureMap())

	router := gin.New()
	router.GET("/swagger/openapi.json", DocumentHandler(doc, reg))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/swagger/openapi.json", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	paths := body["paths"].(map[string]any)
	get := paths["/dummies"].(map[string]any)["get"].(map[string]any)
	params := get["parameters"].([]any)
	require.Len(t, params, 1)
	assert.Equal(t, "Culture", params[0].(map[string]any)["name"])
	assert.Equal(t, "header", params[0].(map[string]any)["in"])

	_, err = LoadDocument([]byte("openapi: [broken"))
	assert.Error(t, err)
}
