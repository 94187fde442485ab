package repository

import (
	"context"
	"time"

	"github.com/jhoicas/backoffice-api/internal/domain/entity"
)

// LedgerRepository es el kardex append-only. No hay Update ni Delete.
type LedgerRepository interface {
	Append(ctx context.Context, entries []entity.StockLedgerEntry) error
	// Balance = Σinbound − Σoutbound de asientos activos con fecha efectiva <= asOf. Sin filas = 0.
	Balance(ctx context.Context, key entity.StockKey, asOf time.Time) (int64, error)
	// LockKey serializa a los consumidores de la misma clave hasta el fin de la transacción.
	LockKey(ctx context.Context, key entity.StockKey) error
	ListByDocument(ctx context.Context, number string) ([]entity.StockLedgerEntry, error)
}
