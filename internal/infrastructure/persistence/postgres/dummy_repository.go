// Package postgres - DummyRepository implementation.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Haleralex/gincore/internal/application/ports"
	"github.com/Haleralex/gincore/internal/domain/entities"
	domainErrors "github.com/Haleralex/gincore/internal/domain/errors"
)

// Compile-time check: DummyRepository implements ports.DummyRepository
var _ ports.DummyRepository = (*DummyRepository)(nil)

const dummyColumns = `id, name, date_created_utc`

// DummyRepository реализует ports.DummyRepository поверх pgx pool.
type DummyRepository struct {
	pool *pgxpool.Pool
}

// NewDummyRepository создаёт новый DummyRepository.
func NewDummyRepository(pool *pgxpool.Pool) *DummyRepository {
	return &DummyRepository{pool: pool}
}

// Create вставляет dummy. Повторный ID - ErrEntityAlreadyExists.
func (r *DummyRepository) Create(ctx context.Context, dummy *entities.Dummy) error {
	query := `INSERT INTO dummies (` + dummyColumns + `) VALUES ($1, $2, $3)`

	_, err := r.pool.Exec(ctx, query, dummy.ID(), dummy.Name(), dummy.DateCreatedUTC())
	if err != nil {
		if isUniqueViolation(err, "dummies_pkey") {
			return domainErrors.NewDomainError(
				"DUMMY_ALREADY_EXISTS",
				fmt.Sprintf("dummy %s already exists", dummy.ID()),
				domainErrors.ErrEntityAlreadyExists,
			)
		}
		if isCheckViolation(err) {
			return domainErrors.ValidationError{Field: "name", Message: err.Error()}
		}
		return fmt.Errorf("failed to create dummy: %w", err)
	}
	return nil
}

// scanDummy сканирует строку в entity.
func scanDummy(scanner interface{ Scan(dest ...any) error }) (*entities.Dummy, error) {
	var (
		id      uuid.UUID
		name    string
		created time.Time
	)
	if err := scanner.Scan(&id, &name, &created); err != nil {
		return nil, err
	}
	return entities.ReconstructDummy(id, name, created), nil
}

// FindByID загружает dummy по ID.
func (r *DummyRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.Dummy, error) {
	query := `SELECT ` + dummyColumns + ` FROM dummies WHERE id = $1`

	dummy, err := scanDummy(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrEntityNotFound
		}
		return nil, fmt.Errorf("failed to find dummy by id: %w", err)
	}
	return dummy, nil
}

// List возвращает страницу в порядке создания и общее количество строк.
func (r *DummyRepository) List(ctx context.Context, offset, limit int) ([]*entities.Dummy, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM dummies`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count dummies: %w", err)
	}

	query := `SELECT ` + dummyColumns + ` FROM dummies ORDER BY date_created_utc, id OFFSET $1 LIMIT $2`

	rows, err := r.pool.Query(ctx, query, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list dummies: %w", err)
	}
	defer rows.Close()

	dummies := make([]*entities.Dummy, 0, max(limit, 0))
	for rows.Next() {
		dummy, err := scanDummy(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan dummy row: %w", err)
		}
		dummies = append(dummies, dummy)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating dummy rows: %w", err)
	}

	return dummies, total, nil
}
