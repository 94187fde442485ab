package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/backoffice-api/internal/domain"
	"github.com/jhoicas/backoffice-api/internal/domain/entity"
	"github.com/jhoicas/backoffice-api/internal/domain/repository"
)

var _ repository.DocumentRepository = (*DocumentRepo)(nil)

// DocumentRepo cabeceras y líneas sobre PostgreSQL (usable con pool o tx).
type DocumentRepo struct {
	q Querier
}

// NewDocumentRepository construye el adaptador. Pasar pool o tx (Querier).
func NewDocumentRepository(q Querier) *DocumentRepo {
	return &DocumentRepo{q: q}
}

const documentColumns = `number, doc_type, branch, destination, issue_date, note, created_by,
	created_at, predecessor_number, successor_number, status`

func duplicateNumber(op string, err error) error {
	return fmt.Errorf("%s: %w (%v)", op, domain.ErrDuplicateNumber, err)
}

// Create inserta la cabecera. La constraint documents_number_key rechaza números repetidos.
func (r *DocumentRepo) Create(ctx context.Context, doc *entity.Document) error {
	query := `INSERT INTO documents (` + documentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(ctx, query,
		doc.Number, string(doc.Type), doc.Branch, nullable(doc.Destination), doc.IssueDate,
		doc.Note, doc.CreatedBy, doc.CreatedAt, nullable(doc.PredecessorNumber),
		nullable(doc.SuccessorNumber), string(doc.Status),
	)
	if err != nil {
		if isUniqueViolation(err) && violatedConstraint(err) == constraintDocumentNumber {
			return duplicateNumber("insert documento "+doc.Number, err)
		}
		return wrapErr("insert documento", err)
	}
	return nil
}

// CreateLines inserta las líneas en un solo batch.
func (r *DocumentRepo) CreateLines(ctx context.Context, number string, lines []entity.DocumentLine) error {
	if len(lines) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, l := range lines {
		batch.Queue(`
			INSERT INTO document_lines (document_number, seq, item_code, variant, quantity, unit_price, note)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			number, l.Seq, l.ItemCode, l.Variant, l.Quantity, l.UnitPrice, l.Note)
	}
	br := r.q.SendBatch(ctx, batch)
	defer br.Close()
	for range lines {
		if _, err := br.Exec(); err != nil {
			return wrapErr("insert líneas "+number, err)
		}
	}
	return nil
}

func scanDocument(row pgx.Row) (*entity.Document, error) {
	var (
		d                entity.Document
		docType, status  string
		dest, pred, succ *string
	)
	err := row.Scan(&d.Number, &docType, &d.Branch, &dest, &d.IssueDate, &d.Note, &d.CreatedBy,
		&d.CreatedAt, &pred, &succ, &status)
	if err != nil {
		return nil, err
	}
	d.Type = entity.DocumentTypeCode(docType)
	d.Status = entity.DocumentStatus(status)
	d.Destination = deref(dest)
	d.PredecessorNumber = deref(pred)
	d.SuccessorNumber = deref(succ)
	return &d, nil
}

func (r *DocumentRepo) get(ctx context.Context, number, suffix string) (*entity.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE number = $1` + suffix
	d, err := scanDocument(r.q.QueryRow(ctx, query, number))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrapErr("get documento", err)
	}
	return d, nil
}

// GetByNumber obtiene una cabecera; nil, nil si no existe.
func (r *DocumentRepo) GetByNumber(ctx context.Context, number string) (*entity.Document, error) {
	return r.get(ctx, number, "")
}

// GetForUpdate obtiene la cabecera y bloquea la fila (SELECT FOR UPDATE).
func (r *DocumentRepo) GetForUpdate(ctx context.Context, number string) (*entity.Document, error) {
	return r.get(ctx, number, " FOR UPDATE")
}

// GetLines devuelve las líneas ordenadas por seq.
func (r *DocumentRepo) GetLines(ctx context.Context, number string) ([]entity.DocumentLine, error) {
	rows, err := r.q.Query(ctx, `
		SELECT document_number, seq, item_code, variant, quantity, unit_price, note
		FROM document_lines WHERE document_number = $1 ORDER BY seq`, number)
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

// MaxNumberWithPrefix ordena por longitud y luego lexicográficamente, así 10000 > 9999.
func (r *DocumentRepo) MaxNumberWithPrefix(ctx context.Context, prefix string) (string, error) {
	var number string
	err := r.q.QueryRow(ctx, `
		SELECT number FROM documents
		WHERE number LIKE $1
		ORDER BY length(number) DESC, number DESC
		LIMIT 1`, escapeLike(prefix)+"%").Scan(&number)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", wrapErr("max número", err)
	}
	return number, nil
}

// UpdateSuccessor estampa sucesor y estado.
func (r *DocumentRepo) UpdateSuccessor(ctx context.Context, number, successor string, status entity.DocumentStatus) error {
	cmd, err := r.q.Exec(ctx,
		`UPDATE documents SET successor_number = $2, status = $3 WHERE number = $1`,
		number, successor, string(status))
	if err != nil {
		return wrapErr("update sucesor", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("documento %s: %w", number, domain.ErrNotFound)
	}
	return nil
}
