package documents

import (
	"context"
	"fmt"

	"github.com/jhoicas/backoffice-api/internal/domain"
	"github.com/jhoicas/backoffice-api/internal/domain/entity"
)

// DocumentView es la lectura de un documento con sus líneas y enlaces.
type DocumentView struct {
	Document    *entity.Document
	Lines       []entity.DocumentLine
	Ledger      []entity.StockLedgerEntry
	Successors  []*entity.DocumentLink // enlaces donde este documento es predecesor
	Predecessor *entity.DocumentLink
}

// Get lee un documento. Devuelve domain.ErrNotFound si no existe.
func (w *Writer) Get(ctx context.Context, number string) (*DocumentView, error) {
	if number == "" {
		return nil, domain.Invalid("number", "requerido")
	}
	var view *DocumentView
	err := w.tx.Run(ctx, func(repos Repos) error {
		doc, err := repos.Documents.GetByNumber(ctx, number)
		if err != nil {
			return err
		}
		if doc == nil {
			return fmt.Errorf("documento %s: %w", number, domain.ErrNotFound)
		}
		lines, err := repos.Documents.GetLines(ctx, number)
		if err != nil {
			return err
		}
		entries, err := repos.Ledger.ListByDocument(ctx, number)
		if err != nil {
			return err
		}
		view = &DocumentView{Document: doc, Lines: lines, Ledger: entries}

		for _, kind := range []string{entity.LinkKindFulfilment, entity.LinkKindReceipt, entity.LinkKindCorrection} {
			l, err := repos.Links.GetByPredecessor(ctx, number, kind)
			if err != nil {
				return err
			}
			if l != nil {
				view.Successors = append(view.Successors, l)
			}
		}
		preds, err := repos.Links.ListBySuccessor(ctx, number)
		if err != nil {
			return err
		}
		if len(preds) > 0 {
			view.Predecessor = preds[0]
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// GetDraft lee un borrador. Devuelve domain.ErrNotFound si no existe.
func (w *Writer) GetDraft(ctx context.Context, id string) (*entity.Draft, error) {
	if id == "" {
		return nil, domain.Invalid("draft_id", "requerido")
	}
	var draft *entity.Draft
	err := w.tx.Run(ctx, func(repos Repos) error {
		d, err := repos.Drafts.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if d == nil {
			return fmt.Errorf("borrador %s: %w", id, domain.ErrNotFound)
		}
		draft = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	return draft, nil
}
