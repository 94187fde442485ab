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

var _ repository.LinkRepository = (*LinkRepo)(nil)

// LinkRepo enlaces predecesor → sucesor sobre PostgreSQL.
type LinkRepo struct {
	q Querier
}

// NewLinkRepository construye el adaptador. Pasar pool o tx (Querier).
func NewLinkRepository(q Querier) *LinkRepo {
	return &LinkRepo{q: q}
}

// Create inserta el enlace; si ya existe con el mismo sucesor no hace nada.
func (r *LinkRepo) Create(ctx context.Context, link *entity.DocumentLink) error {
	cmd, err := r.q.Exec(ctx, `
		INSERT INTO document_links (predecessor_number, successor_number, kind, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT ON CONSTRAINT `+constraintLinkKind+` DO NOTHING`,
		link.PredecessorNumber, link.SuccessorNumber, link.Kind, link.CreatedAt)
	if err != nil {
		return wrapErr("insert enlace", err)
	}
	if cmd.RowsAffected() == 1 {
		return nil
	}
	cur, err := r.GetByPredecessor(ctx, link.PredecessorNumber, link.Kind)
	if err != nil {
		return err
	}
	if cur != nil && cur.SuccessorNumber == link.SuccessorNumber {
		return nil
	}
	existing := ""
	if cur != nil {
		existing = cur.SuccessorNumber
	}
	return &domain.LinkConflictError{
		Predecessor: link.PredecessorNumber, Existing: existing,
		Attempted: link.SuccessorNumber, Kind: link.Kind,
	}
}

// GetByPredecessor devuelve nil, nil si no hay enlace de ese kind.
func (r *LinkRepo) GetByPredecessor(ctx context.Context, number, kind string) (*entity.DocumentLink, error) {
	var l entity.DocumentLink
	err := r.q.QueryRow(ctx, `
		SELECT predecessor_number, successor_number, kind, created_at
		FROM document_links WHERE predecessor_number = $1 AND kind = $2`, number, kind).
		Scan(&l.PredecessorNumber, &l.SuccessorNumber, &l.Kind, &l.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrapErr("get enlace", err)
	}
	return &l, nil
}

// ListBySuccessor enlaces donde number es el sucesor.
func (r *LinkRepo) ListBySuccessor(ctx context.Context, number string) ([]*entity.DocumentLink, error) {
	rows, err := r.q.Query(ctx, `
		SELECT predecessor_number, successor_number, kind, created_at
		FROM document_links WHERE successor_number = $1 ORDER BY kind`, number)
	if err != nil {
		return nil, wrapErr("list enlaces", err)
	}
	defer rows.Close()
	var out []*entity.DocumentLink
	for rows.Next() {
		var l entity.DocumentLink
		if err := rows.Scan(&l.PredecessorNumber, &l.SuccessorNumber, &l.Kind, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan enlace: %w", err)
		}
		out = append(out, &l)
	}
	return out, rows.Err()
}
