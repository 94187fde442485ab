package repository

import (
	"context"

	"github.com/jhoicas/backoffice-api/internal/domain/entity"
)

// DraftRepository guarda borradores de recepción. Cada Save reemplaza el borrador completo.
type DraftRepository interface {
	// Save inserta o reemplaza el borrador pendiente del predecesor. Si ya existía,
	// draft.ID toma el ID existente.
	Save(ctx context.Context, draft *entity.Draft) error
	// GetByID devuelve nil, nil si no existe.
	GetByID(ctx context.Context, id string) (*entity.Draft, error)
	GetPendingByPredecessor(ctx context.Context, predecessor string) (*entity.Draft, error)
	MarkPromoted(ctx context.Context, id, number string) error
}
