package memory

import (
	"context"
	"sort"

	"github.com/jhoicas/backoffice-api/internal/domain"
	"github.com/jhoicas/backoffice-api/internal/domain/entity"
	"github.com/jhoicas/backoffice-api/internal/domain/repository"
)

var _ repository.BranchRepository = (*BranchRepository)(nil)

// BranchRepository sucursales en memoria.
type BranchRepository struct {
	s *Store
}

// Branches devuelve el repositorio de sucursales del store.
func (s *Store) Branches() *BranchRepository {
	return &BranchRepository{s: s}
}

// Create inserta la sucursal; el código debe ser nuevo.
func (r *BranchRepository) Create(_ context.Context, b *entity.Branch) error {
	r.s.branchMu.Lock()
	defer r.s.branchMu.Unlock()
	if _, ok := r.s.branches[b.Code]; ok {
		return domain.Invalid("code", "la sucursal ya existe")
	}
	r.s.branches[b.Code] = *b
	return nil
}

// GetByCode devuelve nil, nil si no existe.
func (r *BranchRepository) GetByCode(_ context.Context, code string) (*entity.Branch, error) {
	r.s.branchMu.RLock()
	defer r.s.branchMu.RUnlock()
	b, ok := r.s.branches[code]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

// List devuelve las sucursales ordenadas por código.
func (r *BranchRepository) List(_ context.Context) ([]*entity.Branch, error) {
	r.s.branchMu.RLock()
	defer r.s.branchMu.RUnlock()
	out := make([]*entity.Branch, 0, len(r.s.branches))
	for _, b := range r.s.branches {
		b := b
		out = append(out, &b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}
