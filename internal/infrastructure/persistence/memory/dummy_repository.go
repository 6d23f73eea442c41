// Package memory - in-memory реализации портов для разработки и тестов.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/Haleralex/gincore/internal/application/ports"
	"github.com/Haleralex/gincore/internal/domain/entities"
	domainErrors "github.com/Haleralex/gincore/internal/domain/errors"
	"github.com/google/uuid"
)

var _ ports.DummyRepository = (*DummyRepository)(nil)

// DummyRepository хранит Dummy в памяти процесса.
type DummyRepository struct {
	mu      sync.RWMutex
	byID    map[uuid.UUID]*entities.Dummy
	ordered []*entities.Dummy
}

// NewDummyRepository создаёт пустой репозиторий.
func NewDummyRepository() *DummyRepository {
	return &DummyRepository{byID: make(map[uuid.UUID]*entities.Dummy)}
}

func (r *DummyRepository) Create(ctx context.Context, dummy *entities.Dummy) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[dummy.ID()]; exists {
		return domainErrors.NewDomainError(
			"DUMMY_ALREADY_EXISTS",
			fmt.Sprintf("dummy %s already exists", dummy.ID()),
			domainErrors.ErrEntityAlreadyExists,
		)
	}

	r.byID[dummy.ID()] = dummy
	r.ordered = append(r.ordered, dummy)
	// порядок как у postgres: date_created_utc, id
	sort.SliceStable(r.ordered, func(i, j int) bool {
		a, b := r.ordered[i], r.ordered[j]
		if !a.DateCreatedUTC().Equal(b.DateCreatedUTC()) {
			return a.DateCreatedUTC().Before(b.DateCreatedUTC())
		}
		return a.ID().String() < b.ID().String()
	})
	return nil
}

func (r *DummyRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.Dummy, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	dummy, ok := r.byID[id]
	if !ok {
		return nil, domainErrors.ErrEntityNotFound
	}
	return dummy, nil
}

func (r *DummyRepository) List(ctx context.Context, offset, limit int) ([]*entities.Dummy, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	total := len(r.ordered)
	offset = min(max(offset, 0), total)
	end := total
	if limit >= 0 {
		end = min(offset+limit, total)
	}

	page := make([]*entities.Dummy, end-offset)
	copy(page, r.ordered[offset:end])
	return page, total, nil
}
