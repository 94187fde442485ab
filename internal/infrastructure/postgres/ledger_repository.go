package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/backoffice-api/internal/domain/entity"
	"github.com/jhoicas/backoffice-api/internal/domain/repository"
)

var _ repository.LedgerRepository = (*LedgerRepo)(nil)

// LedgerRepo kardex append-only sobre PostgreSQL (usable con pool o tx).
type LedgerRepo struct {
	q Querier
}

// NewLedgerRepository construye el adaptador. Pasar pool o tx (Querier).
func NewLedgerRepository(q Querier) *LedgerRepo {
	return &LedgerRepo{q: q}
}

var ledgerColumns = []string{
	"id", "branch", "item_code", "variant", "inbound", "outbound",
	"active", "effective_date", "document_number", "created_at",
}

// Append inserta los asientos con COPY.
func (r *LedgerRepo) Append(ctx context.Context, entries []entity.StockLedgerEntry) error {
	if len(entries) == 0 {
		return nil
	}
	rows := make([][]any, 0, len(entries))
	for _, e := range entries {
		id, err := uuid.Parse(e.ID)
		if err != nil {
			return fmt.Errorf("id de asiento inválido %q: %w", e.ID, err)
		}
		createdAt := e.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now()
		}
		rows = append(rows, []any{
			id, e.Branch, e.ItemCode, e.Variant, e.Inbound, e.Outbound,
			e.Active, e.EffectiveDate, e.DocumentNumber, createdAt,
		})
	}
	if _, err := r.q.CopyFrom(ctx, pgx.Identifier{"stock_ledger"}, ledgerColumns, pgx.CopyFromRows(rows)); err != nil {
		return wrapErr("insert kardex", err)
	}
	return nil
}

// Balance Σinbound − Σoutbound de asientos activos hasta asOf.
func (r *LedgerRepo) Balance(ctx context.Context, key entity.StockKey, asOf time.Time) (int64, error) {
	var total int64
	err := r.q.QueryRow(ctx, `
		SELECT COALESCE(SUM(inbound - outbound), 0)::bigint
		FROM stock_ledger
		WHERE branch = $1 AND item_code = $2 AND variant = $3
		  AND active AND effective_date <= $4`,
		key.Branch, key.ItemCode, key.Variant, asOf).Scan(&total)
	if err != nil {
		return 0, wrapErr("saldo", err)
	}
	return total, nil
}

// LockKey toma un advisory lock de transacción sobre la clave; se libera en commit/rollback.
func (r *LedgerRepo) LockKey(ctx context.Context, key entity.StockKey) error {
	_, err := r.q.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`,
		key.Branch+"|"+key.ItemCode+"|"+key.Variant)
	if err != nil {
		return wrapErr("lock clave de stock", err)
	}
	return nil
}

// ListByDocument asientos generados por un documento.
func (r *LedgerRepo) ListByDocument(ctx context.Context, number string) ([]entity.StockLedgerEntry, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id::text, branch, item_code, variant, inbound, outbound, active,
		       effective_date, document_number, created_at
		FROM stock_ledger WHERE document_number = $1
		ORDER BY item_code, variant`, number)
	if err != nil {
		return nil, wrapErr("list kardex", err)
	}
	defer rows.Close()
	var out []entity.StockLedgerEntry
	for rows.Next() {
		var e entity.StockLedgerEntry
		if err := rows.Scan(&e.ID, &e.Branch, &e.ItemCode, &e.Variant, &e.Inbound, &e.Outbound,
			&e.Active, &e.EffectiveDate, &e.DocumentNumber, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan asiento: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
