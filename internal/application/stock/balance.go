package stock

import (
	"context"
	"sort"
	"time"

	"github.com/jhoicas/backoffice-api/internal/domain"
	"github.com/jhoicas/backoffice-api/internal/domain/entity"
	"github.com/jhoicas/backoffice-api/internal/domain/repository"
)

// BalanceCalculator consulta saldos derivados del kardex (solo lectura).
type BalanceCalculator struct {
	ledger repository.LedgerRepository
	now    func() time.Time
}

// NewBalanceCalculator construye el calculador sobre un repositorio atado al pool.
func NewBalanceCalculator(ledger repository.LedgerRepository, now func() time.Time) *BalanceCalculator {
	if now == nil {
		now = time.Now
	}
	return &BalanceCalculator{ledger: ledger, now: now}
}

// Balance devuelve Σinbound − Σoutbound a la fecha asOf (cero = ahora). Puede ser negativo:
// las ventas no se validan contra el saldo y el resultado no se recorta.
func (c *BalanceCalculator) Balance(ctx context.Context, key entity.StockKey, asOf time.Time) (int64, error) {
	if key.Branch == "" {
		return 0, domain.Invalid("branch", "requerido")
	}
	if key.ItemCode == "" {
		return 0, domain.Invalid("item_code", "requerido")
	}
	return c.ledger.Balance(ctx, key, c.AsOf(asOf))
}

// AsOf resuelve la fecha de corte: cero = ahora.
func (c *BalanceCalculator) AsOf(t time.Time) time.Time {
	if t.IsZero() {
		return c.now()
	}
	return t
}

// Request cantidad de salida solicitada para una clave.
type Request struct {
	Key      entity.StockKey
	Quantity int64
}

// Aggregate suma las salidas por clave y las ordena para bloquear siempre en el mismo orden.
func Aggregate(branch string, lines []entity.DocumentLine) []Request {
	totals := make(map[entity.StockKey]int64, len(lines))
	for _, l := range lines {
		if l.Quantity <= 0 {
			continue
		}
		totals[entity.StockKey{Branch: branch, ItemCode: l.ItemCode, Variant: l.Variant}] += l.Quantity
	}
	out := make([]Request, 0, len(totals))
	for k, q := range totals {
		out = append(out, Request{Key: k, Quantity: q})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Key, out[j].Key
		if a.ItemCode != b.ItemCode {
			return a.ItemCode < b.ItemCode
		}
		return a.Variant < b.Variant
	})
	return out
}

// CheckAvailable bloquea cada clave y verifica saldo >= solicitado usando el ledger de la
// transacción en curso. Devuelve *domain.InsufficientStockError con la primera clave que falte.
func CheckAvailable(ctx context.Context, ledger repository.LedgerRepository, reqs []Request, asOf time.Time) error {
	for _, r := range reqs {
		if err := ledger.LockKey(ctx, r.Key); err != nil {
			return err
		}
		available, err := ledger.Balance(ctx, r.Key, asOf)
		if err != nil {
			return err
		}
		if available < r.Quantity {
			return &domain.InsufficientStockError{
				Branch:    r.Key.Branch,
				ItemCode:  r.Key.ItemCode,
				Variant:   r.Key.Variant,
				Available: available,
				Requested: r.Quantity,
			}
		}
	}
	return nil
}
