package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/backoffice-api/internal/domain"
	"github.com/jhoicas/backoffice-api/internal/domain/entity"
	"github.com/jhoicas/backoffice-api/internal/domain/repository"
)

var _ repository.DraftRepository = (*DraftRepo)(nil)

// DraftRepo borradores de recepción sobre PostgreSQL.
type DraftRepo struct {
	q Querier
}

// NewDraftRepository construye el adaptador. Pasar pool o tx (Querier).
func NewDraftRepository(q Querier) *DraftRepo {
	return &DraftRepo{q: q}
}

// Save reemplaza cabecera y líneas del borrador pendiente del predecesor.
func (r *DraftRepo) Save(ctx context.Context, d *entity.Draft) error {
	var id string
	err := r.q.QueryRow(ctx, `
		SELECT id::text FROM receipt_drafts
		WHERE predecessor_number = $1 AND status = 'pending'
		FOR UPDATE`, d.PredecessorNumber).Scan(&id)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		if d.ID == "" {
			d.ID = uuid.New().String()
		}
		_, err = r.q.Exec(ctx, `
			INSERT INTO receipt_drafts (id, doc_type, predecessor_number, branch, destination,
				issue_date, note, created_by, status, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			d.ID, string(d.Type), d.PredecessorNumber, d.Branch, nullable(d.Destination),
			d.IssueDate, d.Note, d.CreatedBy, entity.DraftStatusPending, d.UpdatedAt)
		if err != nil {
			return wrapErr("insert borrador", err)
		}
	case err != nil:
		return wrapErr("get borrador", err)
	default:
		d.ID = id
		_, err = r.q.Exec(ctx, `
			UPDATE receipt_drafts SET doc_type = $2, branch = $3, destination = $4,
				issue_date = $5, note = $6, created_by = $7, updated_at = $8
			WHERE id = $1`,
			d.ID, string(d.Type), d.Branch, nullable(d.Destination),
			d.IssueDate, d.Note, d.CreatedBy, d.UpdatedAt)
		if err != nil {
			return wrapErr("update borrador", err)
		}
		if _, err := r.q.Exec(ctx, `DELETE FROM receipt_draft_lines WHERE draft_id = $1`, d.ID); err != nil {
			return wrapErr("reemplazar líneas de borrador", err)
		}
	}
	d.Status = entity.DraftStatusPending

	batch := &pgx.Batch{}
	for _, l := range d.Lines {
		batch.Queue(`
			INSERT INTO receipt_draft_lines (draft_id, seq, item_code, variant, quantity, unit_price, note)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			d.ID, l.Seq, l.ItemCode, l.Variant, l.Quantity, l.UnitPrice, l.Note)
	}
	br := r.q.SendBatch(ctx, batch)
	defer br.Close()
	for range d.Lines {
		if _, err := br.Exec(); err != nil {
			return wrapErr("insert líneas de borrador", err)
		}
	}
	return nil
}

const draftColumns = `id::text, doc_type, predecessor_number, branch, destination, issue_date,
	note, created_by, status, promoted_number, updated_at`

func (r *DraftRepo) getWhere(ctx context.Context, where string, arg any) (*entity.Draft, error) {
	var (
		d             entity.Draft
		docType       string
		dest, promote *string
	)
	err := r.q.QueryRow(ctx, `SELECT `+draftColumns+` FROM receipt_drafts WHERE `+where, arg).Scan(
		&d.ID, &docType, &d.PredecessorNumber, &d.Branch, &dest, &d.IssueDate,
		&d.Note, &d.CreatedBy, &d.Status, &promote, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrapErr("get borrador", err)
	}
	d.Type = entity.DocumentTypeCode(docType)
	d.Destination = deref(dest)
	d.PromotedNumber = deref(promote)

	rows, err := r.q.Query(ctx, `
		SELECT seq, item_code, variant, quantity, unit_price, note
		FROM receipt_draft_lines WHERE draft_id = $1 ORDER BY seq`, d.ID)
	if err != nil {
		return nil, wrapErr("list líneas de borrador", err)
	}
	defer rows.Close()
	for rows.Next() {
		var l entity.DocumentLine
		if err := rows.Scan(&l.Seq, &l.ItemCode, &l.Variant, &l.Quantity, &l.UnitPrice, &l.Note); err != nil {
			return nil, fmt.Errorf("scan línea de borrador: %w", err)
		}
		d.Lines = append(d.Lines, l)
	}
	return &d, rows.Err()
}

// GetByID devuelve nil, nil si no existe o el id no es un UUID.
func (r *DraftRepo) GetByID(ctx context.Context, id string) (*entity.Draft, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}
	return r.getWhere(ctx, `id = $1`, id)
}

// GetPendingByPredecessor borrador pendiente del predecesor, o nil.
func (r *DraftRepo) GetPendingByPredecessor(ctx context.Context, predecessor string) (*entity.Draft, error) {
	return r.getWhere(ctx, `predecessor_number = $1 AND status = 'pending'`, predecessor)
}

// MarkPromoted registra el número final del borrador.
func (r *DraftRepo) MarkPromoted(ctx context.Context, id, number string) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE receipt_drafts SET status = $2, promoted_number = $3, updated_at = now()
		WHERE id = $1`, id, entity.DraftStatusPromoted, number)
	if err != nil {
		return wrapErr("promover borrador", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("borrador %s: %w", id, domain.ErrNotFound)
	}
	return nil
}
