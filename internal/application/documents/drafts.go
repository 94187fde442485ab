package documents

import (
	"context"
	"fmt"

	"github.com/jhoicas/backoffice-api/internal/domain"
	"github.com/jhoicas/backoffice-api/internal/domain/entity"
	"github.com/jhoicas/backoffice-api/internal/domain/reconciliation"
)

// savePending guarda el avance de una recepción sin enlazar ni tocar el kardex.
// El borrador del mismo predecesor se reemplaza completo y conserva su ID.
func (w *Writer) savePending(ctx context.Context, p *plan) (Result, error) {
	var id string
	err := w.tx.Run(ctx, func(repos Repos) error {
		pred, err := repos.Documents.GetForUpdate(ctx, p.doc.PredecessorNumber)
		if err != nil {
			return err
		}
		if pred == nil {
			return domain.Invalid("predecessor_ref", fmt.Sprintf("el documento %s no existe", p.doc.PredecessorNumber))
		}
		candidate := p.doc
		if err := checkChain(pred, &candidate, p.typ.CloseKind); err != nil {
			return err
		}
		if pred.SuccessorNumber != "" {
			return &domain.LinkConflictError{
				Predecessor: pred.Number, Existing: pred.SuccessorNumber, Attempted: "borrador", Kind: p.typ.CloseKind,
			}
		}
		shipped, err := repos.Documents.GetLines(ctx, pred.Number)
		if err != nil {
			return err
		}
		if _, err := reconciliation.Compute(reconciliation.Input{
			ReceiptNumber: "borrador", SourceNumber: pred.Number, Shipped: shipped, Accepted: p.lines,
		}); err != nil {
			return err
		}

		d := &entity.Draft{
			Type:              p.typ.Code,
			PredecessorNumber: pred.Number,
			Branch:            p.doc.Branch,
			Destination:       p.doc.Destination,
			IssueDate:         p.doc.IssueDate,
			Note:              p.doc.Note,
			CreatedBy:         p.doc.CreatedBy,
			Lines:             p.lines,
			Status:            entity.DraftStatusPending,
			UpdatedAt:         w.clock.Now(),
		}
		if err := repos.Drafts.Save(ctx, d); err != nil {
			return err
		}
		id = d.ID
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	w.log.Info().
		Str("doc_type", string(p.typ.Code)).
		Str("predecessor", p.doc.PredecessorNumber).
		Str("draft_id", id).
		Msg("borrador guardado")
	return Result{DraftID: id}, nil
}

// Promote convierte un borrador pendiente en la recepción final (enlace y conciliación
// incluidos). Promover un borrador ya promovido devuelve el mismo número.
func (w *Writer) Promote(ctx context.Context, draftID, user string) (Result, error) {
	if draftID == "" {
		return Result{}, domain.Invalid("draft_id", "requerido")
	}
	var (
		draft *entity.Draft
		done  Result
	)
	err := w.tx.Run(ctx, func(repos Repos) error {
		d, err := repos.Drafts.GetByID(ctx, draftID)
		if err != nil {
			return err
		}
		if d == nil {
			return fmt.Errorf("borrador %s: %w", draftID, domain.ErrNotFound)
		}
		draft = d
		if d.IsPending() {
			return nil
		}
		done = Result{DocumentNumber: d.PromotedNumber, DraftID: d.ID}
		link, err := repos.Links.GetByPredecessor(ctx, d.PromotedNumber, entity.LinkKindCorrection)
		if err != nil {
			return err
		}
		if link != nil {
			done.CorrectionNumber = link.SuccessorNumber
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	if !draft.IsPending() {
		return done, nil
	}

	if user == "" {
		user = draft.CreatedBy
	}
	sub := Submission{
		Type: draft.Type,
		Header: Header{
			Branch:      draft.Branch,
			Destination: draft.Destination,
			IssueDate:   draft.IssueDate,
			Note:        draft.Note,
		},
		PredecessorRef: draft.PredecessorNumber,
		Mode:           ModeFinalize,
		CreatedBy:      user,
	}
	for _, l := range draft.Lines {
		sub.Lines = append(sub.Lines, LineInput{
			ItemCode: l.ItemCode, Variant: l.Variant, Quantity: l.Quantity, UnitPrice: l.UnitPrice, Note: l.Note,
		})
	}
	p, err := w.validate(ctx, sub)
	if err != nil {
		return Result{}, err
	}
	return w.finalize(ctx, p, draft.ID)
}
