package documents

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/backoffice-api/internal/application/stock"
	"github.com/jhoicas/backoffice-api/internal/domain"
	"github.com/jhoicas/backoffice-api/internal/domain/entity"
	"github.com/jhoicas/backoffice-api/internal/domain/numbering"
	"github.com/jhoicas/backoffice-api/internal/domain/repository"
	"github.com/jhoicas/backoffice-api/pkg/logger"
)

// Modos de envío.
const (
	ModeFinalize = "finalize"
	ModePending  = "pending"
)

// Header campos de cabecera que envía el cliente.
type Header struct {
	Branch      string
	Destination string
	IssueDate   time.Time // cero = hoy según el Clock
	Note        string
}

// LineInput línea tal como la envía el cliente.
type LineInput struct {
	ItemCode  string
	Variant   string
	Quantity  int64
	UnitPrice decimal.Decimal
	Note      string
}

// Submission es una solicitud de escritura de documento.
type Submission struct {
	Type           entity.DocumentTypeCode
	Header         Header
	Lines          []LineInput
	PredecessorRef string
	Mode           string
	CreatedBy      string
}

// Result números confirmados por un envío.
type Result struct {
	DocumentNumber   string
	CorrectionNumber string
	DraftID          string
	Attempts         int
}

// plan es una Submission ya validada, lista para escribirse.
type plan struct {
	typ   entity.DocumentType
	doc   entity.Document
	lines []entity.DocumentLine
	mode  string
}

// Writer orquesta la escritura transaccional de documentos: guarda de stock, numeración,
// cabecera, líneas, kardex, enlace y conciliación en una sola transacción, con reintento
// ante número duplicado.
type Writer struct {
	tx         TxRunner
	branches   repository.BranchRepository
	sequence   SequenceGenerator
	retry      RetryPolicy
	clock      Clock
	notifier   Notifier
	linker     *Linker
	reconciler *Reconciler
	log        *logger.Logger
}

// NewWriter construye el writer. sequence, clock y log nil toman sus valores por defecto;
// notifier puede ser nil.
func NewWriter(
	tx TxRunner,
	branches repository.BranchRepository,
	sequence SequenceGenerator,
	retry RetryPolicy,
	clock Clock,
	notifier Notifier,
	log *logger.Logger,
) *Writer {
	if sequence == nil {
		sequence = ScanSequence{}
	}
	if clock == nil {
		clock = SystemClock{}
	}
	if log == nil {
		log = logger.Nop()
	}
	if retry.MaxAttempts == 0 {
		retry.MaxAttempts = DefaultMaxAttempts
	}
	linker := NewLinker(clock)
	return &Writer{
		tx:         tx,
		branches:   branches,
		sequence:   sequence,
		retry:      retry,
		clock:      clock,
		notifier:   notifier,
		linker:     linker,
		reconciler: NewReconciler(sequence, linker, clock),
		log:        log.Component("document_writer"),
	}
}

// Submit valida y escribe el documento. En modo pending guarda un borrador y no escribe documento.
func (w *Writer) Submit(ctx context.Context, sub Submission) (Result, error) {
	p, err := w.validate(ctx, sub)
	if err != nil {
		return Result{}, err
	}
	if p.mode == ModePending {
		return w.savePending(ctx, p)
	}
	return w.finalize(ctx, p, "")
}

// validate aplica las reglas que no necesitan transacción.
func (w *Writer) validate(ctx context.Context, sub Submission) (*plan, error) {
	typ, ok := entity.LookupDocumentType(sub.Type)
	if !ok {
		return nil, domain.Invalid("type", fmt.Sprintf("tipo de documento desconocido: %q", sub.Type))
	}
	if !typ.Submittable {
		return nil, domain.Invalid("type", fmt.Sprintf("%s solo lo genera el sistema", typ.Code))
	}

	mode := sub.Mode
	if mode == "" {
		mode = ModeFinalize
	}
	switch mode {
	case ModeFinalize:
	case ModePending:
		if !typ.Reconciles {
			return nil, domain.Invalid("mode", fmt.Sprintf("%s no admite borrador", typ.Code))
		}
	default:
		return nil, domain.Invalid("mode", fmt.Sprintf("modo desconocido: %q", sub.Mode))
	}

	if sub.CreatedBy == "" {
		return nil, domain.Invalid("created_by", "requerido")
	}

	h := sub.Header
	if h.Branch == "" {
		return nil, domain.Invalid("header.branch", "requerido")
	}
	origin, err := w.activeBranch(ctx, "header.branch", h.Branch)
	if err != nil {
		return nil, err
	}
	if !typ.AllowsOrigin(origin.Role) {
		return nil, domain.Invalid("header.branch",
			fmt.Sprintf("una sucursal %s no puede emitir %s", origin.Role, typ.Code))
	}

	if typ.RequiresDestination && h.Destination == "" {
		return nil, domain.Invalid("header.destination", "requerido")
	}
	if h.Destination != "" {
		if h.Destination == h.Branch {
			return nil, domain.Invalid("header.destination", "debe ser distinto de la sucursal de origen")
		}
		if _, err := w.activeBranch(ctx, "header.destination", h.Destination); err != nil {
			return nil, err
		}
	}

	if sub.PredecessorRef != "" && typ.Closes == "" {
		return nil, domain.Invalid("predecessor_ref", fmt.Sprintf("%s no cierra documentos", typ.Code))
	}
	if typ.PredecessorRequired && sub.PredecessorRef == "" {
		return nil, domain.Invalid("predecessor_ref", "requerido")
	}

	lines, err := buildLines(typ, sub.Lines)
	if err != nil {
		return nil, err
	}

	issue := h.IssueDate
	if issue.IsZero() {
		issue = w.clock.Now()
	}
	return &plan{
		typ:  typ,
		mode: mode,
		doc: entity.Document{
			Type:              typ.Code,
			Branch:            h.Branch,
			Destination:       h.Destination,
			IssueDate:         issue,
			Note:              h.Note,
			CreatedBy:         sub.CreatedBy,
			PredecessorNumber: sub.PredecessorRef,
			Status:            typ.InitialStatus,
		},
		lines: lines,
	}, nil
}

func (w *Writer) activeBranch(ctx context.Context, field, code string) (*entity.Branch, error) {
	if !numbering.ValidBranchCode(code) {
		return nil, domain.Invalid(field, fmt.Sprintf("código de sucursal inválido: %q", code))
	}
	b, err := w.branches.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, domain.Invalid(field, fmt.Sprintf("la sucursal %s no existe", code))
	}
	if !b.Active {
		return nil, domain.Invalid(field, fmt.Sprintf("la sucursal %s está inactiva", code))
	}
	return b, nil
}

// buildLines descarta cantidades no positivas y numera las líneas desde 1.
func buildLines(typ entity.DocumentType, in []LineInput) ([]entity.DocumentLine, error) {
	if len(in) == 0 {
		return nil, domain.Invalid("lines", "se requiere al menos una línea")
	}
	lines := make([]entity.DocumentLine, 0, len(in))
	for i, l := range in {
		if l.ItemCode == "" {
			return nil, domain.Invalid(fmt.Sprintf("lines[%d].item_code", i), "requerido")
		}
		if l.UnitPrice.IsNegative() {
			return nil, domain.Invalid(fmt.Sprintf("lines[%d].unit_price", i), "no puede ser negativo")
		}
		if l.Quantity <= 0 {
			continue
		}
		price := decimal.Zero
		if typ.Priced {
			price = l.UnitPrice
		}
		lines = append(lines, entity.DocumentLine{
			Seq:       len(lines) + 1,
			ItemCode:  l.ItemCode,
			Variant:   l.Variant,
			Quantity:  l.Quantity,
			UnitPrice: price,
			Note:      l.Note,
		})
	}
	if len(lines) == 0 {
		return nil, domain.Invalid("lines", "todas las cantidades son cero o negativas")
	}
	return lines, nil
}

// finalize ejecuta la escritura con la política de reintento. Cada intento abre su
// propia transacción y vuelve a pedir número.
func (w *Writer) finalize(ctx context.Context, p *plan, draftID string) (Result, error) {
	var res Result
	attempts, err := w.retry.Do(ctx, func(attempt int) error {
		err := w.tx.Run(ctx, func(repos Repos) error {
			r, err := w.write(ctx, repos, p, draftID)
			if err != nil {
				return err
			}
			res = r
			return nil
		})
		if err != nil && IsDuplicateNumber(err) {
			w.log.Warn().
				Str("doc_type", string(p.typ.Code)).
				Str("branch", p.doc.Branch).
				Int("attempt", attempt).
				Err(err).
				Msg("número duplicado, se reintenta")
		}
		return err
	})
	if err != nil {
		w.log.Debug().Str("doc_type", string(p.typ.Code)).Str("kind", domain.Kind(err)).Err(err).Msg("envío rechazado")
		return Result{Attempts: attempts}, err
	}
	res.Attempts = attempts
	res.DraftID = draftID

	w.log.Info().
		Str("doc_type", string(p.typ.Code)).
		Str("family", p.typ.Family).
		Str("number", res.DocumentNumber).
		Str("correction", res.CorrectionNumber).
		Int("attempts", attempts).
		Msg("documento confirmado")
	if w.notifier != nil {
		if err := w.notifier.DocumentCommitted(ctx, res); err != nil {
			w.log.Warn().Str("number", res.DocumentNumber).Err(err).Msg("notificación fallida")
		}
	}
	return res, nil
}

// write es un intento completo dentro de la transacción de repos.
func (w *Writer) write(ctx context.Context, repos Repos, p *plan, draftID string) (Result, error) {
	doc := p.doc
	if p.typ.Guarded {
		reqs := stock.Aggregate(doc.Branch, p.lines)
		if err := stock.CheckAvailable(ctx, repos.Ledger, reqs, w.guardAsOf(doc.IssueDate)); err != nil {
			return Result{}, err
		}
	}

	number, err := w.sequence.Next(ctx, repos, numbering.ScopeFor(doc.Branch, p.typ, doc.IssueDate))
	if err != nil {
		return Result{}, err
	}
	doc.Number = number
	doc.CreatedAt = w.clock.Now()
	if err := repos.Documents.Create(ctx, &doc); err != nil {
		return Result{}, err
	}

	lines := make([]entity.DocumentLine, len(p.lines))
	for i, l := range p.lines {
		l.DocumentNumber = number
		lines[i] = l
	}
	if err := repos.Documents.CreateLines(ctx, number, lines); err != nil {
		return Result{}, err
	}

	if p.typ.MutatesLedger() {
		if err := repos.Ledger.Append(ctx, ledgerEntries(p.typ, &doc, lines)); err != nil {
			return Result{}, fmt.Errorf("kardex %s: %w", number, err)
		}
	}

	if doc.PredecessorNumber != "" {
		if _, err := w.linker.Link(ctx, repos, doc.PredecessorNumber, number, p.typ.CloseKind); err != nil {
			return Result{}, err
		}
	}

	res := Result{DocumentNumber: number}
	if p.typ.Reconciles {
		corr, err := w.reconciler.Reconcile(ctx, repos, &doc, lines)
		if err != nil {
			return Result{}, err
		}
		res.CorrectionNumber = corr
		if err := w.closeDraft(ctx, repos, draftID, doc.PredecessorNumber, number); err != nil {
			return Result{}, err
		}
	}
	return res, nil
}

// guardAsOf es el corte del control de stock: la fecha de emisión si es futura, si no
// el momento actual. Un documento con fecha pasada no puede usar saldo ya consumido.
func (w *Writer) guardAsOf(issue time.Time) time.Time {
	if now := w.clock.Now(); now.After(issue) {
		return now
	}
	return issue
}

// closeDraft marca promovido el borrador usado o, si la recepción llegó directa,
// el borrador pendiente del mismo predecesor.
func (w *Writer) closeDraft(ctx context.Context, repos Repos, draftID, predecessor, number string) error {
	if draftID == "" {
		d, err := repos.Drafts.GetPendingByPredecessor(ctx, predecessor)
		if err != nil {
			return err
		}
		if d == nil {
			return nil
		}
		draftID = d.ID
	}
	return repos.Drafts.MarkPromoted(ctx, draftID, number)
}

// ledgerEntries genera un asiento por línea con el signo del tipo.
func ledgerEntries(typ entity.DocumentType, doc *entity.Document, lines []entity.DocumentLine) []entity.StockLedgerEntry {
	entries := make([]entity.StockLedgerEntry, 0, len(lines))
	for _, l := range lines {
		e := entity.StockLedgerEntry{
			ID:             uuid.New().String(),
			Branch:         doc.Branch,
			ItemCode:       l.ItemCode,
			Variant:        l.Variant,
			Active:         true,
			EffectiveDate:  doc.IssueDate,
			DocumentNumber: doc.Number,
			CreatedAt:      doc.CreatedAt,
		}
		if typ.LedgerSign == entity.LedgerInbound {
			e.Inbound = l.Quantity
		} else {
			e.Outbound = l.Quantity
		}
		entries = append(entries, e)
	}
	return entries
}
