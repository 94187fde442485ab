package repository

import (
	"context"

	"github.com/jhoicas/backoffice-api/internal/domain/entity"
)

// LinkRepository guarda los enlaces predecesor → sucesor.
type LinkRepository interface {
	// Create inserta el enlace. Si ya existe el mismo (predecesor, kind, sucesor) no hace nada;
	// si existe con otro sucesor devuelve domain.ErrLinkConflict.
	Create(ctx context.Context, link *entity.DocumentLink) error
	// GetByPredecessor devuelve nil, nil si no hay enlace de ese kind.
	GetByPredecessor(ctx context.Context, number, kind string) (*entity.DocumentLink, error)
	ListBySuccessor(ctx context.Context, number string) ([]*entity.DocumentLink, error)
}
