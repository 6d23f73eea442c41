package swagger

import (
	"net/http"
	"strings"
)

// Функции для ParameterMap.Process. Значение переносится, только если имена
// непустые и источник существует; источник удаляется. Пустое значение не
// записывается никуда, кроме QueryToQuery.

// HeaderToHeader переносит первое значение заголовка from в заголовок to.
func HeaderToHeader(r *http.Request, from, to string) {
	if blank(from) || blank(to) {
		return
	}
	value, ok := removeHeader(r, from)
	if !ok {
		return
	}
	setHeader(r, to, value)
}

// HeaderToQuery переносит заголовок from в query параметр to.
func HeaderToQuery(r *http.Request, from, to string) {
	if blank(from) || blank(to) {
		return
	}
	value, ok := removeHeader(r, from)
	if !ok {
		return
	}
	setQuery(r, to, value)
}

// QueryToHeader переносит query параметр from в заголовок to.
func QueryToHeader(r *http.Request, from, to string) {
	if blank(from) || blank(to) {
		return
	}
	value, ok := removeQuery(r, from)
	if !ok {
		return
	}
	setHeader(r, to, value)
}

// QueryToQuery переименовывает query параметр, пустое значение сохраняется.
func QueryToQuery(r *http.Request, from, to string) {
	if blank(from) || blank(to) {
		return
	}
	query := r.URL.Query()
	if !query.Has(from) {
		return
	}
	value := query.Get(from)
	query.Del(from)
	query.Set(to, value)
	r.URL.RawQuery = query.Encode()
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func removeHeader(r *http.Request, key string) (string, bool) {
	values := r.Header.Values(key)
	if len(values) == 0 {
		return "", false
	}
	r.Header.Del(key)
	return values[0], true
}

func setHeader(r *http.Request, key, value string) {
	if blank(value) {
		return
	}
	r.Header.Set(key, value)
}

func removeQuery(r *http.Request, key string) (string, bool) {
	query := r.URL.Query()
	if !query.Has(key) {
		return "", false
	}
	value := query.Get(key)
	query.Del(key)
	r.URL.RawQuery = query.Encode()
	return value, true
}

func setQuery(r *http.Request, key, value string) {
	if blank(value) {
		return
	}
	query := r.URL.Query()
	query.Set(key, value)
	r.URL.RawQuery = query.Encode()
}
