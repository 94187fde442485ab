package documents

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/jhoicas/backoffice-api/internal/domain"
)

// DefaultMaxAttempts intentos por envío ante número duplicado.
const DefaultMaxAttempts = 3

// RetryPolicy es la única política de reintento del motor: intentos acotados y
// reintento solo cuando Retryable(err) es true.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     time.Duration // base; cada espera es Backoff*intento + jitter
	Retryable   func(error) bool
}

// DefaultRetryPolicy reintenta solo violaciones de unicidad sobre el número de documento.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: DefaultMaxAttempts, Retryable: IsDuplicateNumber}
}

// IsDuplicateNumber es el predicado por defecto.
func IsDuplicateNumber(err error) bool {
	return errors.Is(err, domain.ErrDuplicateNumber)
}

// Do ejecuta fn hasta que tenga éxito, falle con un error no reintentable o se agoten
// los intentos. Devuelve el número de intentos usados. Agotados los intentos devuelve
// *domain.SequenceConflictError.
func (p RetryPolicy) Do(ctx context.Context, fn func(attempt int) error) (int, error) {
	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	retryable := p.Retryable
	if retryable == nil {
		retryable = IsDuplicateNumber
	}

	var last error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn(attempt)
		if err == nil {
			return attempt, nil
		}
		if !retryable(err) {
			return attempt, err
		}
		last = err
		if attempt == maxAttempts {
			break
		}
		if err := p.wait(ctx, attempt); err != nil {
			return attempt, err
		}
	}
	return maxAttempts, &domain.SequenceConflictError{Attempts: maxAttempts, Last: last}
}

func (p RetryPolicy) wait(ctx context.Context, attempt int) error {
	if ctx.Err() != nil {
		return fmt.Errorf("reintento cancelado: %w", ctx.Err())
	}
	if p.Backoff <= 0 {
		return nil
	}
	d := p.Backoff*time.Duration(attempt) + time.Duration(rand.Int64N(int64(p.Backoff)))
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("reintento cancelado: %w", ctx.Err())
	case <-t.C:
		return nil
	}
}
