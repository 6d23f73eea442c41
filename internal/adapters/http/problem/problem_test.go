package problem

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	domainerrors "github.com/Haleralex/gincore/internal/domain/errors"
	"github.com/Haleralex/gincore/internal/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type teapotError struct{}

func (teapotError) Error() string   { return "short and stout" }
func (teapotError) HTTPStatus() int { return http.StatusTeapot }

func TestNew(t *testing.T) {
	d := New(http.StatusNotFound, "no such dummy", "/dummies/1")

	assert.Equal(t, "https://httpstatuses.io/404", d.Type)
	assert.Equal(t, "Not Found", d.Title)
	assert.Equal(t, http.StatusNotFound, d.Status)
	assert.Equal(t, "no such dummy", d.Detail)
	assert.Equal(t, "/dummies/1", d.Instance)
}

func TestCreate_KeepsExplicitValues(t *testing.T) {
	d := Create("urn:dummy:conflict", "Dummy exists", http.StatusConflict, "", "")

	assert.Equal(t, "urn:dummy:conflict", d.Type)
	assert.Equal(t, "Dummy exists", d.Title)

	d = Create("", "", 0, "", "")
	assert.Equal(t, http.StatusInternalServerError, d.Status)
}

func TestStatusFromError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"Nil", nil, http.StatusInternalServerError},
		{"Statuser", fmt.Errorf("wrapped: %w", teapotError{}), http.StatusTeapot},
		{"ProblemError", NewError(New(http.StatusConflict, "", "")), http.StatusConflict},
		{"NotFound", fmt.Errorf("get: %w", domainerrors.ErrEntityNotFound), http.StatusNotFound},
		{"AlreadyExists", domainerrors.NewDomainError("X", "x", domainerrors.ErrEntityAlreadyExists), http.StatusConflict},
		{"Validation", domainerrors.ValidationError{Field: "name", Message: "too long"}, http.StatusBadRequest},
		{"JSONSyntax", &json.SyntaxError{}, http.StatusBadRequest},
		{"Deadline", fmt.Errorf("db: %w", context.DeadlineExceeded), http.StatusGatewayTimeout},
		{"Unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFromError(tt.err))
		})
	}
}

func TestFromError(t *testing.T) {
	t.Run("ProductionClientError", func(t *testing.T) {
		d := FromError(domainerrors.ErrEntityNotFound, "/dummies/1", true)

		assert.Equal(t, http.StatusNotFound, d.Status)
		assert.Equal(t, "Not Found", d.Title)
		assert.Equal(t, "entity not found", d.Detail)
		assert.Equal(t, "/dummies/1", d.Instance)
	})

	t.Run("ProductionHidesServerErrors", func(t *testing.T) {
		d := FromError(errors.New("connection refused"), "/dummies", true)

		assert.Equal(t, http.StatusInternalServerError, d.Status)
		assert.Equal(t, "Internal Server Error", d.Title)
		assert.Equal(t, InternalDetail, d.Detail)
	})

	t.Run("DevelopmentShowsMessage", func(t *testing.T) {
		d := FromError(errors.New("connection refused"), "/dummies", false)

		assert.Equal(t, "connection refused", d.Title)
		assert.Contains(t, d.Detail, "*errors.errorString")
	})

	t.Run("ProblemErrorIsCopied", func(t *testing.T) {
		original := New(http.StatusConflict, "already there", "")
		d := FromError(fmt.Errorf("create: %w", NewError(original)), "/dummies", true)

		assert.Equal(t, "already there", d.Detail)
		assert.Equal(t, "/dummies", d.Instance)
		assert.Empty(t, original.Instance)
	})
}

func TestWrite(t *testing.T) {
	t.Run("WritesProblemJSON", func(t *testing.T) {
		router := gin.New()
		router.POST("/orders", func(c *gin.Context) {
			ctx := logger.WithRequestID(c.Request.Context(), "req-1")
			c.Request = c.Request.WithContext(ctx)
			Abort(c, http.StatusTooManyRequests, "Resource is busy.")
		})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/orders", nil))

		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Equal(t, ContentType, w.Header().Get("Content-Type"))

		var body Details
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "Resource is busy.", body.Detail)
		assert.Equal(t, "/orders", body.Instance)
		assert.Equal(t, "req-1", body.RequestID)
	})

	t.Run("SkipsStartedResponse", func(t *testing.T) {
		router := gin.New()
		router.GET("/started", func(c *gin.Context) {
			c.String(http.StatusOK, "partial")
			Abort(c, http.StatusInternalServerError, "too late")
		})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/started", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "partial", w.Body.String())
	})
}

func TestValidation(t *testing.T) {
	d := Validation(map[string][]string{"name": {"too long"}}, "/api/v1/dummies")

	assert.Equal(t, http.StatusBadRequest, d.Status)
	assert.Equal(t, ValidationTitle, d.Title)
	assert.Equal(t, "https://httpstatuses.io/400", d.Type)
	assert.Equal(t, []string{"too long"}, d.Errors["name"])
}
