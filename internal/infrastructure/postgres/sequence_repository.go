package postgres

import (
	"context"

	"github.com/jhoicas/backoffice-api/internal/domain/repository"
)

var _ repository.SequenceRepository = (*SequenceRepo)(nil)

// SequenceRepo contador atómico por prefijo.
type SequenceRepo struct {
	q Querier
}

// NewSequenceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSequenceRepository(q Querier) *SequenceRepo {
	return &SequenceRepo{q: q}
}

// Increment reclama el siguiente valor; la fila queda bloqueada hasta el fin de la tx.
func (r *SequenceRepo) Increment(ctx context.Context, prefix string, floor int64) (int64, error) {
	var n int64
	err := r.q.QueryRow(ctx, `
		INSERT INTO document_sequences (prefix, last_value)
		VALUES ($1, $2::bigint + 1)
		ON CONFLICT (prefix)
		DO UPDATE SET last_value = GREATEST(document_sequences.last_value, $2::bigint) + 1
		RETURNING last_value`, prefix, floor).Scan(&n)
	if err != nil {
		return 0, wrapErr("incrementar contador", err)
	}
	return n, nil
}
