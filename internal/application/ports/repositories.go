// Package ports определяет интерфейсы (порты) для внешних зависимостей.
// Реализации живут в infrastructure (postgres, memory).
package ports

import (
	"context"

	"github.com/Haleralex/gincore/internal/domain/entities"
	"github.com/google/uuid"
)

// DummyRepository - хранилище демонстрационных Dummy.
type DummyRepository interface {
	// Create сохраняет новую сущность.
	// Если ID уже занят - ошибка, для которой errors.IsAlreadyExists == true.
	Create(ctx context.Context, dummy *entities.Dummy) error

	// FindByID загружает сущность; ErrEntityNotFound если нет.
	FindByID(ctx context.Context, id uuid.UUID) (*entities.Dummy, error)

	// List возвращает страницу (по дате создания) и общее количество.
	// offset: пропустить N записей
	// limit: вернуть максимум N записей
	List(ctx context.Context, offset, limit int) ([]*entities.Dummy, int, error)
}
