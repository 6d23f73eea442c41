package swagger

import (
	"fmt"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/gin-gonic/gin"
)

// LoadDocument разбирает и валидирует OpenAPI документ (YAML или JSON).
func LoadDocument(data []byte) (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("load openapi document: %w", err)
	}
	if err := doc.Validate(loader.Context); err != nil {
		return nil, fmt.Errorf("validate openapi document: %w", err)
	}
	return doc, nil
}

// DocumentHandler отдаёт документ с параметрами всех зарегистрированных карт.
func DocumentHandler(doc *openapi3.T, registry *Registry) gin.HandlerFunc {
	if registry != nil {
		registry.ApplyAll(doc)
	}
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, doc)
	}
}
