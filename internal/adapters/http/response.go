// Package http содержит HTTP адаптер (REST API) демонстрационного сервера.
//
// Структура пакета:
// - common/: обёртка успешных ответов
// - problem/: ответы об ошибках (RFC 7807)
// - middleware/: request id, ошибки, логирование, CORS, метрики, сжатие
// - pagination/, swagger/: ссылки страниц и документируемые параметры
// - handlers/: HTTP handlers
// - router.go: маршруты, server.go: жизненный цикл сервера
package http

import (
	"github.com/Haleralex/gincore/internal/adapters/http/common"
	"github.com/Haleralex/gincore/internal/adapters/http/problem"
)

// Re-export для кода, который собирает роутер снаружи пакета.
type (
	// APIResponse - обёртка успешного ответа.
	APIResponse = common.APIResponse
	// ProblemDetails - тело ответа об ошибке.
	ProblemDetails = problem.Details
)

var (
	// Success отправляет успешный ответ.
	Success = common.Success
	// Problem пишет problem+json и прерывает цепочку.
	Problem = problem.Write
)
