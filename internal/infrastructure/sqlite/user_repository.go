package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jhoicas/backoffice-api/internal/domain"
	"github.com/jhoicas/backoffice-api/internal/domain/entity"
	"github.com/jhoicas/backoffice-api/internal/domain/repository"
)

var _ repository.UserRepository = (*UserRepo)(nil)

// UserRepo usuarios sobre SQLite.
type UserRepo struct {
	q querier
}

// Users repositorio de usuarios sobre la conexión.
func (s *Store) Users() *UserRepo {
	return &UserRepo{q: s.db}
}

// Create persiste un nuevo usuario.
func (r *UserRepo) Create(ctx context.Context, u *entity.User) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO users (id, email, password_hash, name, branch, role, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.PasswordHash, u.Name, nullable(u.Branch), u.Role, u.Status,
		ts(u.CreatedAt), ts(u.UpdatedAt))
	if err != nil {
		if uniqueOn(err, "users.email") {
			return domain.ErrEmailExists
		}
		return wrapErr("insert user", err)
	}
	return nil
}

// GetByEmail obtiene un usuario por email; nil, nil si no existe.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	var (
		u                entity.User
		branch           sql.NullString
		created, updated int64
	)
	err := r.q.QueryRowContext(ctx, `
		SELECT id, email, password_hash, name, branch, role, status, created_at, updated_at
		FROM users WHERE email = ?`, email).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &branch, &u.Role, &u.Status, &created, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, wrapErr("get user by email", err)
	}
	u.Branch = branch.String
	u.CreatedAt = fromTS(created)
	u.UpdatedAt = fromTS(updated)
	return &u, nil
}
