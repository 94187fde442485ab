package documents_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/backoffice-api/internal/application/documents"
	"github.com/jhoicas/backoffice-api/internal/domain"
)

func TestRetryPolicy_ExitoAlSegundoIntento(t *testing.T) {
	p := documents.DefaultRetryPolicy()
	n, err := p.Do(context.Background(), func(attempt int) error {
		if attempt == 1 {
			return fmt.Errorf("insert: %w", domain.ErrDuplicateNumber)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestRetryPolicy_NoReintentaOtrosErrores(t *testing.T) {
	p := documents.DefaultRetryPolicy()
	boom := errors.New("boom")
	calls := 0
	n, err := p.Do(context.Background(), func(int) error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, calls)
}

func TestRetryPolicy_Agotado(t *testing.T) {
	p := documents.RetryPolicy{MaxAttempts: 2, Backoff: time.Millisecond}
	n, err := p.Do(context.Background(), func(int) error { return domain.ErrDuplicateNumber })
	assert.Equal(t, 2, n)
	assert.ErrorIs(t, err, domain.ErrSequenceConflict)
	assert.ErrorIs(t, err, domain.ErrDuplicateNumber)
}

func TestRetryPolicy_ContextoCancelado(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := documents.RetryPolicy{MaxAttempts: 3, Backoff: time.Hour}
	n, err := p.Do(ctx, func(int) error {
		cancel()
		return domain.ErrDuplicateNumber
	})
	assert.Equal(t, 1, n)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, domain.ErrSequenceConflict)
}
