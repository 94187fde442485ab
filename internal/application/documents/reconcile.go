package documents

import (
	"context"
	"fmt"

	"github.com/jhoicas/backoffice-api/internal/domain/entity"
	"github.com/jhoicas/backoffice-api/internal/domain/numbering"
	"github.com/jhoicas/backoffice-api/internal/domain/reconciliation"
)

// Reconciler genera la corrección automática de una recepción que no cuadra con su origen.
// Es el mismo para los tres tipos de recepción.
type Reconciler struct {
	sequence SequenceGenerator
	linker   *Linker
	clock    Clock
}

// NewReconciler construye el reconciliador.
func NewReconciler(sequence SequenceGenerator, linker *Linker, clock Clock) *Reconciler {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Reconciler{sequence: sequence, linker: linker, clock: clock}
}

// Reconcile compara las líneas aceptadas de receipt contra las despachadas por su predecesor
// y, si hay diferencias, escribe una corrección en la misma transacción. Devuelve su número
// o "" si todo cuadra.
func (r *Reconciler) Reconcile(ctx context.Context, repos Repos, receipt *entity.Document, accepted []entity.DocumentLine) (string, error) {
	source, err := repos.Documents.GetByNumber(ctx, receipt.PredecessorNumber)
	if err != nil {
		return "", err
	}
	if source == nil {
		return "", fmt.Errorf("origen %s de %s no encontrado", receipt.PredecessorNumber, receipt.Number)
	}
	shipped, err := repos.Documents.GetLines(ctx, source.Number)
	if err != nil {
		return "", err
	}
	deltas, err := reconciliation.Compute(reconciliation.Input{
		ReceiptNumber: receipt.Number,
		SourceNumber:  source.Number,
		Shipped:       shipped,
		Accepted:      accepted,
	})
	if err != nil {
		return "", err
	}
	if len(deltas) == 0 {
		return "", nil
	}

	typ, _ := entity.LookupDocumentType(entity.DocCorrection)
	number, err := r.sequence.Next(ctx, repos, numbering.ScopeFor(receipt.Branch, typ, receipt.IssueDate))
	if err != nil {
		return "", err
	}
	corr := &entity.Document{
		Number:            number,
		Type:              typ.Code,
		Branch:            receipt.Branch,
		Destination:       source.Branch,
		IssueDate:         receipt.IssueDate,
		Note:              fmt.Sprintf("Corrección automática %s contra %s", receipt.Number, source.Number),
		CreatedBy:         receipt.CreatedBy,
		CreatedAt:         r.clock.Now(),
		PredecessorNumber: receipt.Number,
		Status:            typ.InitialStatus,
	}
	if err := repos.Documents.Create(ctx, corr); err != nil {
		return "", err
	}
	lines := reconciliation.CorrectionLines(deltas)
	for i := range lines {
		lines[i].DocumentNumber = number
	}
	if err := repos.Documents.CreateLines(ctx, number, lines); err != nil {
		return "", err
	}
	if _, err := r.linker.Link(ctx, repos, receipt.Number, number, typ.CloseKind); err != nil {
		return "", err
	}
	return number, nil
}
