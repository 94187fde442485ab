package documents

import (
	"context"
	"fmt"

	"github.com/jhoicas/backoffice-api/internal/domain"
	"github.com/jhoicas/backoffice-api/internal/domain/entity"
)

// Linker registra la relación predecesor → sucesor y cierra el predecesor.
type Linker struct {
	clock Clock
}

// NewLinker construye el linker.
func NewLinker(clock Clock) *Linker {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Linker{clock: clock}
}

// Link enlaza predecessor con successor (ambos deben existir en la transacción) y, según
// kind, cambia el estado del predecesor. Repetir el mismo enlace no hace nada; enlazar
// un predecesor que ya tiene otro sucesor devuelve *domain.LinkConflictError.
// Devuelve el predecesor ya actualizado.
func (l *Linker) Link(ctx context.Context, repos Repos, predecessor, successor, kind string) (*entity.Document, error) {
	pred, err := repos.Documents.GetForUpdate(ctx, predecessor)
	if err != nil {
		return nil, fmt.Errorf("leer predecesor %s: %w", predecessor, err)
	}
	if pred == nil {
		return nil, domain.Invalid("predecessor_ref", fmt.Sprintf("el documento %s no existe", predecessor))
	}
	succ, err := repos.Documents.GetByNumber(ctx, successor)
	if err != nil {
		return nil, fmt.Errorf("leer sucesor %s: %w", successor, err)
	}
	if succ == nil {
		return nil, fmt.Errorf("sucesor %s no encontrado en la transacción", successor)
	}
	if err := checkChain(pred, succ, kind); err != nil {
		return nil, err
	}

	if pred.SuccessorNumber == successor {
		// Mismo enlace: no-op. Create es idempotente por si faltara la fila de enlace.
		return pred, repos.Links.Create(ctx, &entity.DocumentLink{
			PredecessorNumber: predecessor, SuccessorNumber: successor, Kind: kind, CreatedAt: l.clock.Now(),
		})
	}
	if pred.SuccessorNumber != "" {
		return nil, &domain.LinkConflictError{
			Predecessor: predecessor, Existing: pred.SuccessorNumber, Attempted: successor, Kind: kind,
		}
	}

	status := pred.Status
	if next, ok := entity.CloseStatus(kind); ok {
		if !openFor(pred.Status, next) {
			return nil, &domain.LinkConflictError{
				Predecessor: predecessor, Existing: string(pred.Status), Attempted: successor, Kind: kind,
			}
		}
		status = next
	}
	if err := repos.Documents.UpdateSuccessor(ctx, predecessor, successor, status); err != nil {
		return nil, err
	}
	if err := repos.Links.Create(ctx, &entity.DocumentLink{
		PredecessorNumber: predecessor,
		SuccessorNumber:   successor,
		Kind:              kind,
		CreatedAt:         l.clock.Now(),
	}); err != nil {
		return nil, err
	}
	pred.SuccessorNumber = successor
	pred.Status = status
	return pred, nil
}

// openFor indica si current es el estado previo válido para cerrar hacia next.
func openFor(current, next entity.DocumentStatus) bool {
	switch next {
	case entity.StatusClosed:
		return current == entity.StatusOpen
	case entity.StatusReceived:
		return current == entity.StatusInTransit
	}
	return false
}

// checkChain valida tipos y sucursales del par a enlazar.
func checkChain(pred, succ *entity.Document, kind string) error {
	succType, ok := entity.LookupDocumentType(succ.Type)
	if !ok || succType.CloseKind != kind {
		return domain.Invalid("predecessor_ref", fmt.Sprintf("%s no puede enlazarse como %s", succ.Type, kind))
	}
	if kind == entity.LinkKindCorrection {
		predType, _ := entity.LookupDocumentType(pred.Type)
		if !predType.Reconciles {
			return domain.Invalid("predecessor_ref", fmt.Sprintf("%s no admite corrección", pred.Number))
		}
		return nil
	}
	if pred.Type != succType.Closes {
		return domain.Invalid("predecessor_ref",
			fmt.Sprintf("%s es %s; se esperaba %s", pred.Number, pred.Type, succType.Closes))
	}
	if pred.Destination != succ.Branch {
		return domain.Invalid("predecessor_ref",
			fmt.Sprintf("%s está dirigido a %s, no a %s", pred.Number, pred.Destination, succ.Branch))
	}
	if kind == entity.LinkKindFulfilment && succ.Destination != pred.Branch {
		return domain.Invalid("header.destination",
			fmt.Sprintf("la requisición %s es de %s", pred.Number, pred.Branch))
	}
	return nil
}
