package repository

import (
	"context"

	"github.com/jhoicas/backoffice-api/internal/domain/entity"
)

// DocumentRepository persiste cabeceras y líneas de documentos.
// Usado dentro de transacciones; los documentos nunca se borran.
type DocumentRepository interface {
	// Create inserta la cabecera. Devuelve domain.ErrDuplicateNumber (envuelto)
	// si la constraint única sobre el número lo rechaza.
	Create(ctx context.Context, doc *entity.Document) error
	CreateLines(ctx context.Context, number string, lines []entity.DocumentLine) error
	// GetByNumber devuelve nil, nil si no existe.
	GetByNumber(ctx context.Context, number string) (*entity.Document, error)
	// GetForUpdate bloquea la cabecera hasta el fin de la transacción (SELECT FOR UPDATE).
	GetForUpdate(ctx context.Context, number string) (*entity.Document, error)
	GetLines(ctx context.Context, number string) ([]entity.DocumentLine, error)
	// MaxNumberWithPrefix devuelve el mayor número (por consecutivo) que empieza por prefix, o "".
	MaxNumberWithPrefix(ctx context.Context, prefix string) (string, error)
	// UpdateSuccessor estampa el sucesor y el nuevo estado en la cabecera.
	UpdateSuccessor(ctx context.Context, number, successor string, status entity.DocumentStatus) error
}
