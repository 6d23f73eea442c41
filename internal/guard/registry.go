package guard

import "context"

// RouteKey - маршрут в виде METHOD+PATH, например "POST+/orders/42".
type RouteKey string

// NewRouteKey строит ключ из метода и сырого пути запроса.
func NewRouteKey(method, path string) RouteKey {
	return RouteKey(method + "+" + path)
}

// Lease - запись registry, которой владеет принятый запрос.
// ID уникален для каждого принятия: вытесненный владелец не снимет чужую запись.
type Lease struct {
	Key   RouteKey
	Token string
	ID    string
}

// IsZero сообщает, пустой ли Lease.
func (l Lease) IsZero() bool {
	return l.ID == ""
}

// Registry хранит не больше одного Lease на RouteKey.
//
// Acquire - один атомарный шаг: ErrDuplicateRequest, если сохранён тот же
// token, иначе сохраняется новый Lease (запись с другим token'ом заменяется).
// Release снимает запись, только пока в ней лежит этот Lease, и сообщает,
// снял ли.
type Registry interface {
	Acquire(ctx context.Context, key RouteKey, token string) (Lease, error)
	Release(ctx context.Context, lease Lease) (bool, error)
	Current(ctx context.Context, key RouteKey) (Lease, bool, error)
}
