package guard

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryRegistry - Registry в памяти процесса на sync.Map.
//
// Каждая операция - один примитив sync.Map (LoadOrStore, CompareAndSwap,
// CompareAndDelete), блокировки не удерживаются пока работает handler.
type MemoryRegistry struct {
	leases sync.Map // RouteKey -> Lease
}

// NewMemoryRegistry создаёт пустой registry.
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{}
}

// Acquire реализует Registry.
func (r *MemoryRegistry) Acquire(_ context.Context, key RouteKey, token string) (Lease, error) {
	lease := Lease{Key: key, Token: token, ID: uuid.NewString()}

	for {
		current, loaded := r.leases.LoadOrStore(key, lease)
		if !loaded {
			return lease, nil
		}

		stored := current.(Lease)
		if stored.Token == token {
			return Lease{}, ErrDuplicateRequest
		}

		// Другой token - перезаписываем, но только если запись не поменялась
		// между Load и Swap. Иначе повторяем решение заново.
		if r.leases.CompareAndSwap(key, stored, lease) {
			return lease, nil
		}
	}
}

// Release реализует Registry.
func (r *MemoryRegistry) Release(_ context.Context, lease Lease) (bool, error) {
	return r.leases.CompareAndDelete(lease.Key, lease), nil
}

// Current реализует Registry.
func (r *MemoryRegistry) Current(_ context.Context, key RouteKey) (Lease, bool, error) {
	value, ok := r.leases.Load(key)
	if !ok {
		return Lease{}, false, nil
	}
	return value.(Lease), true, nil
}

// Len возвращает количество активных записей.
func (r *MemoryRegistry) Len() int {
	n := 0
	r.leases.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
