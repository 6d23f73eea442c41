package guard

import "net/http"

// Error - ошибка guard'а с HTTP статусом, который получит клиент.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// HTTPStatus используется problem-пакетом для выбора кода ответа.
func (e *Error) HTTPStatus() int {
	return e.Status
}

var (
	// ErrDuplicateRequest - такой же token уже обрабатывается на этом маршруте.
	ErrDuplicateRequest = &Error{Status: http.StatusTooManyRequests, Message: "Duplicate request disallowed."}
	// ErrMissingToken - extractor вернул пустой token.
	ErrMissingToken = &Error{Status: http.StatusUnprocessableEntity, Message: "unique token is empty"}
	// ErrArgumentOutOfRange - в запросе нет аргумента с настроенным индексом.
	ErrArgumentOutOfRange = &Error{Status: http.StatusInternalServerError, Message: "argument index is out of range"}
	// ErrMalformedBody - тело запроса не является JSON.
	ErrMalformedBody = &Error{Status: http.StatusBadRequest, Message: "request body is not valid JSON"}
	// ErrBodyTooLarge - тело больше лимита BodyExtractor.MaxBodySize.
	ErrBodyTooLarge = &Error{Status: http.StatusRequestEntityTooLarge, Message: "request body is too large"}
)
