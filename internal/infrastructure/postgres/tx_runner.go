package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/backoffice-api/internal/application/documents"
	"github.com/jhoicas/backoffice-api/internal/domain"
)

// Ensure TxRunner implements documents.TxRunner.
var _ documents.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia una transacción (toma una conexión del pool), ejecuta fn con repos atados
// a la tx y hace Commit o Rollback. Si el contexto se cancela, la tx se revierte.
func (r *TxRunner) Run(ctx context.Context, fn func(repos documents.Repos) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return domain.Transient("begin transaction", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	repos := documents.Repos{
		Documents: NewDocumentRepository(tx),
		Ledger:    NewLedgerRepository(tx),
		Links:     NewLinkRepository(tx),
		Drafts:    NewDraftRepository(tx),
		Sequences: NewSequenceRepository(tx),
	}
	if err := fn(repos); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		if isUniqueViolation(err) && violatedConstraint(err) == constraintDocumentNumber {
			return duplicateNumber("commit", err)
		}
		return domain.Transient("commit transaction", err)
	}
	return nil
}
