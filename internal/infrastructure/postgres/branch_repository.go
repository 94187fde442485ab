package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/backoffice-api/internal/domain"
	"github.com/jhoicas/backoffice-api/internal/domain/entity"
	"github.com/jhoicas/backoffice-api/internal/domain/repository"
)

var _ repository.BranchRepository = (*BranchRepo)(nil)

// BranchRepo implementación del puerto BranchRepository sobre PostgreSQL.
type BranchRepo struct {
	q Querier
}

// NewBranchRepository construye el adaptador de persistencia para sucursales.
func NewBranchRepository(q Querier) *BranchRepo {
	return &BranchRepo{q: q}
}

// Create persiste una nueva sucursal.
func (r *BranchRepo) Create(ctx context.Context, b *entity.Branch) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO branches (code, name, role, active, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		b.Code, b.Name, b.Role, b.Active, b.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) && violatedConstraint(err) == constraintBranchPK {
			return domain.Invalid("code", "la sucursal ya existe")
		}
		return wrapErr("insert sucursal", err)
	}
	return nil
}

// GetByCode obtiene una sucursal; nil, nil si no existe.
func (r *BranchRepo) GetByCode(ctx context.Context, code string) (*entity.Branch, error) {
	var b entity.Branch
	err := r.q.QueryRow(ctx, `
		SELECT code, name, role, active, created_at FROM branches WHERE code = $1`, code).
		Scan(&b.Code, &b.Name, &b.Role, &b.Active, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrapErr("get sucursal", err)
	}
	return &b, nil
}

// List lista las sucursales por código.
func (r *BranchRepo) List(ctx context.Context) ([]*entity.Branch, error) {
	rows, err := r.q.Query(ctx, `SELECT code, name, role, active, created_at FROM branches ORDER BY code`)
	if err != nil {
		return nil, wrapErr("list sucursales", err)
	}
	defer rows.Close()
	var list []*entity.Branch
	for rows.Next() {
		var b entity.Branch
		if err := rows.Scan(&b.Code, &b.Name, &b.Role, &b.Active, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan sucursal: %w", err)
		}
		list = append(list, &b)
	}
	return list, rows.Err()
}
