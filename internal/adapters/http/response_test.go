package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Haleralex/gincore/internal/adapters/http/problem"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestReExports(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("Success", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)

		Success(c, http.StatusAccepted, "ok")

		assert.Equal(t, http.StatusAccepted, w.Code)
		assert.Contains(t, w.Body.String(), `"data":"ok"`)
	})

	t.Run("Problem", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/x", nil)

		Problem(c, &ProblemDetails{Status: http.StatusConflict, Title: "Conflict"})

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, problem.ContentType, w.Header().Get("Content-Type"))
		assert.True(t, c.IsAborted())
	})
}
