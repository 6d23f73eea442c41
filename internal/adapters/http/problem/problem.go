// Package problem формирует ответы об ошибках в формате RFC 7807
// (application/problem+json).
//
// Этот пакет - единственное место, где ошибка превращается в HTTP статус:
// им пользуются и ErrorHandler middleware, и guard, который отвечает сам.
package problem

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	domainerrors "github.com/Haleralex/gincore/internal/domain/errors"
	"github.com/Haleralex/gincore/internal/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

const (
	// ContentType - media type ответа.
	ContentType = "application/problem+json"
	// ReferenceBase - префикс Type по умолчанию, к нему добавляется код.
	ReferenceBase = "https://httpstatuses.io/"
	// InternalDetail - что видит клиент на 5xx в production.
	InternalDetail = "An unexpected error occurred."
)

// Details - тело ответа по RFC 7807.
type Details struct {
	Type      string `json:"type,omitempty"`
	Title     string `json:"title,omitempty"`
	Status    int    `json:"status,omitempty"`
	Detail    string `json:"detail,omitempty"`
	Instance  string `json:"instance,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	// Errors - ошибки по полям, только у ответов валидации.
	Errors map[string][]string `json:"errors,omitempty"`
}

// New создаёт Details со стандартными Type и Title для статуса.
func New(status int, detail, instance string) *Details {
	return Create("", "", status, detail, instance)
}

// Create создаёт Details; пустые type и title заполняются по статусу.
func Create(typ, title string, status int, detail, instance string) *Details {
	if status == 0 {
		status = http.StatusInternalServerError
	}
	if typ == "" {
		typ = ReferenceURL(status)
	}
	if title == "" {
		title = http.StatusText(status)
	}
	return &Details{
		Type:     typ,
		Title:    title,
		Status:   status,
		Detail:   detail,
		Instance: instance,
	}
}

// ValidationTitle - title ответа с ошибками полей.
const ValidationTitle = "One or more validation errors occurred."

// Validation создаёт 400 Details с ошибками по полям.
func Validation(fieldErrors map[string][]string, instance string) *Details {
	d := Create("", ValidationTitle, http.StatusBadRequest, "", instance)
	d.Errors = fieldErrors
	return d
}

// ReferenceURL возвращает ссылку на описание статуса.
func ReferenceURL(status int) string {
	return ReferenceBase + strconv.Itoa(status)
}

// Error - ошибка, которая уже знает, каким ответом она станет.
type Error struct {
	Details *Details
}

// NewError оборачивает готовые Details.
func NewError(details *Details) *Error {
	return &Error{Details: details}
}

func (e *Error) Error() string {
	if e.Details == nil {
		return "problem details"
	}
	if e.Details.Detail == "" {
		return e.Details.Type + " > " + e.Details.Title
	}
	return e.Details.Type + " > " + e.Details.Title + ": " + e.Details.Detail
}

// HTTPStatus возвращает статус из Details.
func (e *Error) HTTPStatus() int {
	if e.Details == nil || e.Details.Status == 0 {
		return http.StatusInternalServerError
	}
	return e.Details.Status
}

type httpStatuser interface {
	HTTPStatus() int
}

// StatusFromError выбирает HTTP статус для ошибки.
func StatusFromError(err error) int {
	var statuser httpStatuser
	var validationErrs validator.ValidationErrors
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError

	switch {
	case err == nil:
		return http.StatusInternalServerError
	case errors.As(err, &statuser):
		return statuser.HTTPStatus()
	case errors.As(err, &validationErrs),
		errors.As(err, &syntaxErr),
		errors.As(err, &typeErr),
		domainerrors.IsValidationError(err):
		return http.StatusBadRequest
	case domainerrors.IsNotFound(err):
		return http.StatusNotFound
	case domainerrors.IsAlreadyExists(err):
		return http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// FromError строит Details для ошибки.
//
// В production title - стандартная фраза статуса, detail - текст ошибки
// (для 5xx текст скрыт). В development title - текст ошибки, detail - её тип.
func FromError(err error, instance string, production bool) *Details {
	var pe *Error
	if errors.As(err, &pe) && pe.Details != nil {
		details := *pe.Details
		if details.Instance == "" {
			details.Instance = instance
		}
		return &details
	}

	status := StatusFromError(err)
	if err == nil {
		return New(status, "", instance)
	}

	if production {
		detail := err.Error()
		if status >= http.StatusInternalServerError {
			detail = InternalDetail
		}
		return New(status, detail, instance)
	}
	return Create("", err.Error(), status, fmt.Sprintf("%T: %v", err, err), instance)
}

// Write пишет Details в ответ и прерывает цепочку handlers.
// Если ответ уже начат, ничего не пишет.
func Write(c *gin.Context, details *Details) {
	c.Abort()
	if c.Writer.Written() {
		return
	}
	if details == nil {
		details = New(http.StatusInternalServerError, "", c.Request.URL.Path)
	}
	if details.Status == 0 {
		details.Status = http.StatusInternalServerError
	}
	if details.RequestID == "" {
		details.RequestID = logger.GetRequestID(c.Request.Context())
	}

	body, err := json.MarshalIndent(details, "", "  ")
	if err != nil {
		c.Status(http.StatusInternalServerError)
		return
	}
	c.Data(details.Status, ContentType, body)
}

// Abort - короткая форма New + Write.
func Abort(c *gin.Context, status int, detail string) {
	Write(c, New(status, detail, c.Request.URL.Path))
}
