package documents

import (
	"context"
	"time"

	"github.com/jhoicas/backoffice-api/internal/domain/repository"
)

// Repos agrupa los repositorios atados a una misma transacción.
type Repos struct {
	Documents repository.DocumentRepository
	Ledger    repository.LedgerRepository
	Links     repository.LinkRepository
	Drafts    repository.DraftRepository
	Sequences repository.SequenceRepository
}

// TxRunner ejecuta fn dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Commit si fn devuelve nil; Rollback en cualquier otro caso. Cada llamada toma una
// conexión nueva del pool.
type TxRunner interface {
	Run(ctx context.Context, fn func(repos Repos) error) error
}

// Clock fuente de tiempo para fechas de emisión y periodos.
type Clock interface {
	Now() time.Time
}

// SystemClock usa la hora del sistema.
type SystemClock struct{}

// Now devuelve time.Now().
func (SystemClock) Now() time.Time { return time.Now() }

// Notifier recibe los números ya confirmados para los componentes de notificación.
// Se invoca después del commit; sus errores no afectan el resultado.
type Notifier interface {
	DocumentCommitted(ctx context.Context, res Result) error
}
