package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/backoffice-api/internal/domain"
	"github.com/jhoicas/backoffice-api/internal/domain/entity"
	"github.com/jhoicas/backoffice-api/internal/domain/repository"
)

var (
	_ repository.DocumentRepository = (*documentRepo)(nil)
	_ repository.LedgerRepository   = (*LedgerRepo)(nil)
	_ repository.LinkRepository     = (*linkRepo)(nil)
	_ repository.DraftRepository    = (*draftRepo)(nil)
	_ repository.SequenceRepository = (*sequenceRepo)(nil)
	_ repository.BranchRepository   = (*BranchRepo)(nil)
)

// ────────────────────────────────────────────────────────────────
// Documentos
// ────────────────────────────────────────────────────────────────

type documentRepo struct {
	q querier
}

const documentColumns = `number, doc_type, branch, destination, issue_date, note, created_by,
	created_at, predecessor_number, successor_number, status`

func (r *documentRepo) Create(ctx context.Context, doc *entity.Document) error {
	_, err := r.q.ExecContext(ctx, `INSERT INTO documents (`+documentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		doc.Number, string(doc.Type), doc.Branch, nullable(doc.Destination), ts(doc.IssueDate),
		doc.Note, doc.CreatedBy, ts(doc.CreatedAt), nullable(doc.PredecessorNumber),
		nullable(doc.SuccessorNumber), string(doc.Status))
	if err != nil {
		if uniqueOn(err, "documents.number") {
			return fmt.Errorf("insert documento %s: %w (%v)", doc.Number, domain.ErrDuplicateNumber, err)
		}
		return wrapErr("insert documento", err)
	}
	return nil
}

func (r *documentRepo) CreateLines(ctx context.Context, number string, lines []entity.DocumentLine) error {
	for _, l := range lines {
		_, err := r.q.ExecContext(ctx, `
			INSERT INTO document_lines (document_number, seq, item_code, variant, quantity, unit_price, note)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			number, l.Seq, l.ItemCode, l.Variant, l.Quantity, l.UnitPrice, l.Note)
		if err != nil {
			return wrapErr("insert líneas "+number, err)
		}
	}
	return nil
}

// GetByNumber obtiene una cabecera; nil, nil si no existe.
func (r *documentRepo) GetByNumber(ctx context.Context, number string) (*entity.Document, error) {
	var (
		d                    entity.Document
		docType, status      string
		dest, pred, succ     sql.NullString
		issueDate, createdAt int64
	)
	err := r.q.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE number = ?`, number).
		Scan(&d.Number, &docType, &d.Branch, &dest, &issueDate, &d.Note, &d.CreatedBy,
			&createdAt, &pred, &succ, &status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, wrapErr("get documento", err)
	}
	d.Type = entity.DocumentTypeCode(docType)
	d.Status = entity.DocumentStatus(status)
	d.Destination = dest.String
	d.PredecessorNumber = pred.String
	d.SuccessorNumber = succ.String
	d.IssueDate = fromTS(issueDate)
	d.CreatedAt = fromTS(createdAt)
	return &d, nil
}

// GetForUpdate es una lectura normal: la transacción inmediata ya tiene el lock de escritura.
func (r *documentRepo) GetForUpdate(ctx context.Context, number string) (*entity.Document, error) {
	return r.GetByNumber(ctx, number)
}

func (r *documentRepo) GetLines(ctx context.Context, number string) ([]entity.DocumentLine, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT document_number, seq, item_code, variant, quantity, unit_price, note
		FROM document_lines WHERE document_number = ? ORDER BY seq`, number)
	if err != nil {
		return nil, wrapErr("list líneas", err)
	}
	defer rows.Close()
	var out []entity.DocumentLine
	for rows.Next() {
		var l entity.DocumentLine
		if err := rows.Scan(&l.DocumentNumber, &l.Seq, &l.ItemCode, &l.Variant, &l.Quantity, &l.UnitPrice, &l.Note); err != nil {
			return nil, fmt.Errorf("scan línea: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// MaxNumberWithPrefix compara el prefijo con substr (LIKE en SQLite ignora mayúsculas).
func (r *documentRepo) MaxNumberWithPrefix(ctx context.Context, prefix string) (string, error) {
	var number string
	err := r.q.QueryRowContext(ctx, `
		SELECT number FROM documents
		WHERE substr(number, 1, ?) = ?
		ORDER BY length(number) DESC, number DESC
		LIMIT 1`, len(prefix), prefix).Scan(&number)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", wrapErr("max número", err)
	}
	return number, nil
}

func (r *documentRepo) UpdateSuccessor(ctx context.Context, number, successor string, status entity.DocumentStatus) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE documents SET successor_number = ?, status = ? WHERE number = ?`,
		successor, string(status), number)
	if err != nil {
		return wrapErr("update sucesor", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("documento %s: %w", number, domain.ErrNotFound)
	}
	return nil
}

// ────────────────────────────────────────────────────────────────
// Kardex
// ────────────────────────────────────────────────────────────────

// LedgerRepo kardex append-only sobre SQLite.
type LedgerRepo struct {
	q querier
}

// Append inserta los asientos en orden.
func (r *LedgerRepo) Append(ctx context.Context, entries []entity.StockLedgerEntry) error {
	for _, e := range entries {
		id := e.ID
		if id == "" {
			id = uuid.New().String()
		}
		createdAt := e.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now()
		}
		_, err := r.q.ExecContext(ctx, `
			INSERT INTO stock_ledger (id, branch, item_code, variant, inbound, outbound,
				active, effective_date, document_number, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id, e.Branch, e.ItemCode, e.Variant, e.Inbound, e.Outbound,
			e.Active, ts(e.EffectiveDate), e.DocumentNumber, ts(createdAt))
		if err != nil {
			return wrapErr("insert kardex", err)
		}
	}
	return nil
}

// Balance Σinbound − Σoutbound de asientos activos hasta asOf.
func (r *LedgerRepo) Balance(ctx context.Context, key entity.StockKey, asOf time.Time) (int64, error) {
	var total int64
	err := r.q.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(inbound - outbound), 0)
		FROM stock_ledger
		WHERE branch = ? AND item_code = ? AND variant = ?
		  AND active = 1 AND effective_date <= ?`,
		key.Branch, key.ItemCode, key.Variant, ts(asOf)).Scan(&total)
	if err != nil {
		return 0, wrapErr("saldo", err)
	}
	return total, nil
}

// LockKey no hace nada: BEGIN IMMEDIATE deja un único escritor.
func (r *LedgerRepo) LockKey(context.Context, entity.StockKey) error {
	return nil
}

// ListByDocument asientos generados por un documento.
func (r *LedgerRepo) ListByDocument(ctx context.Context, number string) ([]entity.StockLedgerEntry, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, branch, item_code, variant, inbound, outbound, active,
		       effective_date, document_number, created_at
		FROM stock_ledger WHERE document_number = ?
		ORDER BY item_code, variant`, number)
	if err != nil {
		return nil, wrapErr("list kardex", err)
	}
	defer rows.Close()
	var out []entity.StockLedgerEntry
	for rows.Next() {
		var (
			e                  entity.StockLedgerEntry
			effective, created int64
		)
		if err := rows.Scan(&e.ID, &e.Branch, &e.ItemCode, &e.Variant, &e.Inbound, &e.Outbound,
			&e.Active, &effective, &e.DocumentNumber, &created); err != nil {
			return nil, fmt.Errorf("scan asiento: %w", err)
		}
		e.EffectiveDate = fromTS(effective)
		e.CreatedAt = fromTS(created)
		out = append(out, e)
	}
	return out, rows.Err()
}

// ────────────────────────────────────────────────────────────────
// Enlaces
// ────────────────────────────────────────────────────────────────

type linkRepo struct {
	q querier
}

func (r *linkRepo) Create(ctx context.Context, link *entity.DocumentLink) error {
	res, err := r.q.ExecContext(ctx, `
		INSERT INTO document_links (predecessor_number, successor_number, kind, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (predecessor_number, kind) DO NOTHING`,
		link.PredecessorNumber, link.SuccessorNumber, link.Kind, ts(link.CreatedAt))
	if err != nil {
		return wrapErr("insert enlace", err)
	}
	if n, _ := res.RowsAffected(); n == 1 {
		return nil
	}
	cur, err := r.GetByPredecessor(ctx, link.PredecessorNumber, link.Kind)
	if err != nil {
		return err
	}
	if cur != nil && cur.SuccessorNumber == link.SuccessorNumber {
		return nil
	}
	existing := ""
	if cur != nil {
		existing = cur.SuccessorNumber
	}
	return &domain.LinkConflictError{
		Predecessor: link.PredecessorNumber, Existing: existing,
		Attempted: link.SuccessorNumber, Kind: link.Kind,
	}
}

func (r *linkRepo) GetByPredecessor(ctx context.Context, number, kind string) (*entity.DocumentLink, error) {
	var (
		l       entity.DocumentLink
		created int64
	)
	err := r.q.QueryRowContext(ctx, `
		SELECT predecessor_number, successor_number, kind, created_at
		FROM document_links WHERE predecessor_number = ? AND kind = ?`, number, kind).
		Scan(&l.PredecessorNumber, &l.SuccessorNumber, &l.Kind, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, wrapErr("get enlace", err)
	}
	l.CreatedAt = fromTS(created)
	return &l, nil
}

func (r *linkRepo) ListBySuccessor(ctx context.Context, number string) ([]*entity.DocumentLink, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT predecessor_number, successor_number, kind, created_at
		FROM document_links WHERE successor_number = ? ORDER BY kind`, number)
	if err != nil {
		return nil, wrapErr("list enlaces", err)
	}
	defer rows.Close()
	var out []*entity.DocumentLink
	for rows.Next() {
		var (
			l       entity.DocumentLink
			created int64
		)
		if err := rows.Scan(&l.PredecessorNumber, &l.SuccessorNumber, &l.Kind, &created); err != nil {
			return nil, fmt.Errorf("scan enlace: %w", err)
		}
		l.CreatedAt = fromTS(created)
		out = append(out, &l)
	}
	return out, rows.Err()
}

// ────────────────────────────────────────────────────────────────
// Borradores
// ────────────────────────────────────────────────────────────────

type draftRepo struct {
	q querier
}

func (r *draftRepo) Save(ctx context.Context, d *entity.Draft) error {
	var id string
	err := r.q.QueryRowContext(ctx, `
		SELECT id FROM receipt_drafts WHERE predecessor_number = ? AND status = 'pending'`,
		d.PredecessorNumber).Scan(&id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if d.ID == "" {
			d.ID = uuid.New().String()
		}
		_, err = r.q.ExecContext(ctx, `
			INSERT INTO receipt_drafts (id, doc_type, predecessor_number, branch, destination,
				issue_date, note, created_by, status, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			d.ID, string(d.Type), d.PredecessorNumber, d.Branch, nullable(d.Destination),
			ts(d.IssueDate), d.Note, d.CreatedBy, entity.DraftStatusPending, ts(d.UpdatedAt))
		if err != nil {
			return wrapErr("insert borrador", err)
		}
	case err != nil:
		return wrapErr("get borrador", err)
	default:
		d.ID = id
		_, err = r.q.ExecContext(ctx, `
			UPDATE receipt_drafts SET doc_type = ?, branch = ?, destination = ?,
				issue_date = ?, note = ?, created_by = ?, updated_at = ?
			WHERE id = ?`,
			string(d.Type), d.Branch, nullable(d.Destination),
			ts(d.IssueDate), d.Note, d.CreatedBy, ts(d.UpdatedAt), d.ID)
		if err != nil {
			return wrapErr("update borrador", err)
		}
		if _, err := r.q.ExecContext(ctx, `DELETE FROM receipt_draft_lines WHERE draft_id = ?`, d.ID); err != nil {
			return wrapErr("reemplazar líneas de borrador", err)
		}
	}
	d.Status = entity.DraftStatusPending

	for _, l := range d.Lines {
		_, err := r.q.ExecContext(ctx, `
			INSERT INTO receipt_draft_lines (draft_id, seq, item_code, variant, quantity, unit_price, note)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			d.ID, l.Seq, l.ItemCode, l.Variant, l.Quantity, l.UnitPrice, l.Note)
		if err != nil {
			return wrapErr("insert líneas de borrador", err)
		}
	}
	return nil
}

func (r *draftRepo) getWhere(ctx context.Context, where string, arg any) (*entity.Draft, error) {
	var (
		d                  entity.Draft
		docType            string
		dest, promoted     sql.NullString
		issueDate, updated int64
	)
	err := r.q.QueryRowContext(ctx, `
		SELECT id, doc_type, predecessor_number, branch, destination, issue_date,
		       note, created_by, status, promoted_number, updated_at
		FROM receipt_drafts WHERE `+where, arg).Scan(
		&d.ID, &docType, &d.PredecessorNumber, &d.Branch, &dest, &issueDate,
		&d.Note, &d.CreatedBy, &d.Status, &promoted, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, wrapErr("get borrador", err)
	}
	d.Type = entity.DocumentTypeCode(docType)
	d.Destination = dest.String
	d.PromotedNumber = promoted.String
	d.IssueDate = fromTS(issueDate)
	d.UpdatedAt = fromTS(updated)

	rows, err := r.q.QueryContext(ctx, `
		SELECT seq, item_code, variant, quantity, unit_price, note
		FROM receipt_draft_lines WHERE draft_id = ? ORDER BY seq`, d.ID)
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

func (r *draftRepo) GetByID(ctx context.Context, id string) (*entity.Draft, error) {
	return r.getWhere(ctx, `id = ?`, id)
}

func (r *draftRepo) GetPendingByPredecessor(ctx context.Context, predecessor string) (*entity.Draft, error) {
	return r.getWhere(ctx, `predecessor_number = ? AND status = 'pending'`, predecessor)
}

func (r *draftRepo) MarkPromoted(ctx context.Context, id, number string) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE receipt_drafts SET status = ?, promoted_number = ?, updated_at = ?
		WHERE id = ?`, entity.DraftStatusPromoted, number, ts(time.Now()), id)
	if err != nil {
		return wrapErr("promover borrador", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("borrador %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// ────────────────────────────────────────────────────────────────
// Contadores y sucursales
// ────────────────────────────────────────────────────────────────

type sequenceRepo struct {
	q querier
}

func (r *sequenceRepo) Increment(ctx context.Context, prefix string, floor int64) (int64, error) {
	var n int64
	err := r.q.QueryRowContext(ctx, `
		INSERT INTO document_sequences (prefix, last_value) VALUES (?1, ?2 + 1)
		ON CONFLICT (prefix) DO UPDATE SET last_value = max(last_value, ?2) + 1
		RETURNING last_value`, prefix, floor).Scan(&n)
	if err != nil {
		return 0, wrapErr("incrementar contador", err)
	}
	return n, nil
}

// BranchRepo sucursales sobre SQLite.
type BranchRepo struct {
	q querier
}

// Create persiste una nueva sucursal.
func (r *BranchRepo) Create(ctx context.Context, b *entity.Branch) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO branches (code, name, role, active, created_at) VALUES (?, ?, ?, ?, ?)`,
		b.Code, b.Name, b.Role, b.Active, ts(b.CreatedAt))
	if err != nil {
		if uniqueOn(err, "branches.code") {
			return domain.Invalid("code", "la sucursal ya existe")
		}
		return wrapErr("insert sucursal", err)
	}
	return nil
}

// GetByCode obtiene una sucursal; nil, nil si no existe.
func (r *BranchRepo) GetByCode(ctx context.Context, code string) (*entity.Branch, error) {
	var (
		b       entity.Branch
		created int64
	)
	err := r.q.QueryRowContext(ctx, `
		SELECT code, name, role, active, created_at FROM branches WHERE code = ?`, code).
		Scan(&b.Code, &b.Name, &b.Role, &b.Active, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, wrapErr("get sucursal", err)
	}
	b.CreatedAt = fromTS(created)
	return &b, nil
}

// List lista las sucursales por código.
func (r *BranchRepo) List(ctx context.Context) ([]*entity.Branch, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT code, name, role, active, created_at FROM branches ORDER BY code`)
	if err != nil {
		return nil, wrapErr("list sucursales", err)
	}
	defer rows.Close()
	var list []*entity.Branch
	for rows.Next() {
		var (
			b       entity.Branch
			created int64
		)
		if err := rows.Scan(&b.Code, &b.Name, &b.Role, &b.Active, &created); err != nil {
			return nil, fmt.Errorf("scan sucursal: %w", err)
		}
		b.CreatedAt = fromTS(created)
		list = append(list, &b)
	}
	return list, rows.Err()
}
