package repository

import (
	"context"

	"github.com/jhoicas/backoffice-api/internal/domain/entity"
)

// BranchRepository define el puerto de persistencia para sucursales.
type BranchRepository interface {
	Create(ctx context.Context, branch *entity.Branch) error
	// GetByCode devuelve nil, nil si la sucursal no existe.
	GetByCode(ctx context.Context, code string) (*entity.Branch, error)
	List(ctx context.Context) ([]*entity.Branch, error)
}
