// Package handlers содержит HTTP handlers демонстрационного API.
//
// Handler принимает запрос, биндит и валидирует тело, вызывает репозиторий
// и отдаёт ответ. Ошибки уходят в c.Error / problem+json, формат ответа об
// ошибке выбирает пакет problem.
package handlers

import (
	"errors"
	"reflect"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/Haleralex/gincore/internal/adapters/http/problem"
	"github.com/Haleralex/gincore/internal/domain/entities"
	domainerrors "github.com/Haleralex/gincore/internal/domain/errors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var setupOnce sync.Once

// SetupValidator настраивает validator движка gin: имена полей из json tag
// и кастомное правило dummy_name.
func SetupValidator() {
	setupOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			v.RegisterTagNameFunc(func(fld reflect.StructField) string {
				name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
				if name == "-" {
					return ""
				}
				return name
			})

			_ = v.RegisterValidation("dummy_name", validateDummyName)
		}
	})
}

// validateDummyName - длина имени после trim в рунах.
func validateDummyName(fl validator.FieldLevel) bool {
	return utf8.RuneCountInString(strings.TrimSpace(fl.Field().String())) <= entities.MaxDummyNameLength
}

// ValidationProblem строит 400 с ошибками по полям.
// Если err не является ошибкой валидации, detail - её текст.
func ValidationProblem(err error, instance string) *problem.Details {
	fields := make(map[string][]string)

	var validationErrs validator.ValidationErrors
	var domainErr domainerrors.ValidationError
	switch {
	case errors.As(err, &validationErrs):
		for _, fe := range validationErrs {
			fields[fe.Field()] = append(fields[fe.Field()], validationMessage(fe))
		}
	case errors.As(err, &domainErr):
		fields[domainErr.Field] = append(fields[domainErr.Field], domainErr.Message)
	}

	if len(fields) == 0 {
		d := problem.Validation(nil, instance)
		d.Detail = "Invalid request body: " + err.Error()
		return d
	}
	return problem.Validation(fields, instance)
}

// validationMessage возвращает человекочитаемое сообщение об ошибке.
func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "uuid", "uuid4":
		return "Invalid UUID format"
	case "min":
		return "Value is too short (minimum: " + fe.Param() + ")"
	case "max":
		return "Value is too long (maximum: " + fe.Param() + ")"
	case "dummy_name":
		return "Name must not exceed 100 characters"
	default:
		return "Invalid value"
	}
}

// BindJSON биндит JSON тело. false - ответ 400 уже отправлен.
func BindJSON[T any](c *gin.Context, req *T) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		_ = c.Error(err).SetType(gin.ErrorTypeBind)
		problem.Write(c, ValidationProblem(err, c.Request.URL.Path))
		return false
	}
	return true
}

// BindURI биндит URI параметры.
func BindURI[T any](c *gin.Context, req *T) bool {
	if err := c.ShouldBindUri(req); err != nil {
		_ = c.Error(err).SetType(gin.ErrorTypeBind)
		problem.Write(c, ValidationProblem(err, c.Request.URL.Path))
		return false
	}
	return true
}
