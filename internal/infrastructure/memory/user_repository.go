package memory

import (
	"context"

	"github.com/jhoicas/backoffice-api/internal/domain"
	"github.com/jhoicas/backoffice-api/internal/domain/entity"
	"github.com/jhoicas/backoffice-api/internal/domain/repository"
)

var _ repository.UserRepository = (*UserRepository)(nil)

// UserRepository usuarios en memoria; comparte el lock de sucursales.
type UserRepository struct {
	s *Store
}

// Users devuelve el repositorio de usuarios del store.
func (s *Store) Users() *UserRepository {
	return &UserRepository{s: s}
}

// Create inserta el usuario; el email debe ser nuevo.
func (r *UserRepository) Create(_ context.Context, u *entity.User) error {
	r.s.branchMu.Lock()
	defer r.s.branchMu.Unlock()
	if _, ok := r.s.users[u.Email]; ok {
		return domain.ErrEmailExists
	}
	r.s.users[u.Email] = *u
	return nil
}

// GetByEmail devuelve nil, nil si no existe.
func (r *UserRepository) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	r.s.branchMu.RLock()
	defer r.s.branchMu.RUnlock()
	u, ok := r.s.users[email]
	if !ok {
		return nil, nil
	}
	return &u, nil
}
