package documents_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/backoffice-api/internal/application/documents"
	"github.com/jhoicas/backoffice-api/internal/application/stock"
	"github.com/jhoicas/backoffice-api/internal/domain"
	"github.com/jhoicas/backoffice-api/internal/domain/entity"
	"github.com/jhoicas/backoffice-api/internal/infrastructure/memory"
	"github.com/jhoicas/backoffice-api/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

var issue = time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type recordingNotifier struct{ got []documents.Result }

func (n *recordingNotifier) DocumentCommitted(_ context.Context, res documents.Result) error {
	n.got = append(n.got, res)
	return nil
}

type env struct {
	w        *documents.Writer
	store    *memory.Store
	notifier *recordingNotifier
}

// newEnv arma un writer sobre el store en memoria con G01 (central) y K01/K02 (tiendas).
func newEnv(t *testing.T, seq documents.SequenceGenerator) *env {
	t.Helper()
	store := memory.New()
	ctx := context.Background()
	for _, b := range []entity.Branch{
		{Code: "G01", Name: "Centro de distribución", Role: entity.BranchRoleCentral, Active: true},
		{Code: "K01", Name: "Tienda Norte", Role: entity.BranchRoleStore, Active: true},
		{Code: "K02", Name: "Tienda Sur", Role: entity.BranchRoleStore, Active: true},
		{Code: "K09", Name: "Tienda cerrada", Role: entity.BranchRoleStore, Active: false},
	} {
		b := b
		require.NoError(t, store.Branches().Create(ctx, &b))
	}
	n := &recordingNotifier{}
	w := documents.NewWriter(store, store.Branches(), seq, documents.DefaultRetryPolicy(), fixedClock{issue}, n, logger.Nop())
	return &env{w: w, store: store, notifier: n}
}

func (e *env) seedStock(t *testing.T, branch, item, variant string, qty int64) {
	t.Helper()
	require.NoError(t, e.store.Ledger().Append(context.Background(), []entity.StockLedgerEntry{{
		ID: uuid.New().String(), Branch: branch, ItemCode: item, Variant: variant,
		Inbound: qty, Active: true, EffectiveDate: issue.Add(-24 * time.Hour), DocumentNumber: "SALDO-INICIAL",
	}}))
}

func (e *env) balance(t *testing.T, branch, item, variant string) int64 {
	t.Helper()
	calc := stock.NewBalanceCalculator(e.store.Ledger(), nil)
	b, err := calc.Balance(context.Background(), entity.StockKey{Branch: branch, ItemCode: item, Variant: variant}, issue)
	require.NoError(t, err)
	return b
}

func (e *env) doc(t *testing.T, number string) *documents.DocumentView {
	t.Helper()
	v, err := e.w.Get(context.Background(), number)
	require.NoError(t, err)
	return v
}

func sub(typ entity.DocumentTypeCode, branch, dest, pred string, lines ...documents.LineInput) documents.Submission {
	return documents.Submission{
		Type:           typ,
		Header:         documents.Header{Branch: branch, Destination: dest},
		Lines:          lines,
		PredecessorRef: pred,
		CreatedBy:      "user-1",
	}
}

func line(item, variant string, qty int64) documents.LineInput {
	return documents.LineInput{ItemCode: item, Variant: variant, Quantity: qty}
}

// ──────────────────────────────────────────────────────────────────────────────
// Numeración
// ──────────────────────────────────────────────────────────────────────────────

func TestSubmit_NumeraConsecutivoPorScope(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()

	r1, err := e.w.Submit(ctx, sub(entity.DocSale, "K01", "", "", line("A100", "M", 1)))
	require.NoError(t, err)
	r2, err := e.w.Submit(ctx, sub(entity.DocSale, "K01", "", "", line("A100", "M", 1)))
	require.NoError(t, err)
	r3, err := e.w.Submit(ctx, sub(entity.DocSale, "K02", "", "", line("A100", "M", 1)))
	require.NoError(t, err)

	assert.Equal(t, "K01.PJ.2601.0001", r1.DocumentNumber)
	assert.Equal(t, "K01.PJ.2601.0002", r2.DocumentNumber)
	assert.Equal(t, "K02.PJ.2601.0001", r3.DocumentNumber)
	assert.Equal(t, 1, r1.Attempts)
}

func TestSubmit_PackingListUsaPeriodoYY(t *testing.T) {
	e := newEnv(t, nil)
	r, err := e.w.Submit(context.Background(), sub(entity.DocPackingList, "G01", "", "", line("A100", "M", 4)))
	require.NoError(t, err)
	assert.Equal(t, "G01.PL.26.0001", r.DocumentNumber)
	assert.Empty(t, e.doc(t, r.DocumentNumber).Ledger, "packing list no mueve kardex")
}

func TestSubmit_SeEnsanchaPasado9999(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	require.NoError(t, e.store.Run(ctx, func(repos documents.Repos) error {
		return repos.Documents.Create(ctx, &entity.Document{
			Number: "K01.PJ.2601.9999", Type: entity.DocSale, Branch: "K01", IssueDate: issue, Status: entity.StatusPosted,
		})
	}))

	r, err := e.w.Submit(ctx, sub(entity.DocSale, "K01", "", "", line("A100", "M", 1)))
	require.NoError(t, err)
	assert.Equal(t, "K01.PJ.2601.10000", r.DocumentNumber)

	r, err = e.w.Submit(ctx, sub(entity.DocSale, "K01", "", "", line("A100", "M", 1)))
	require.NoError(t, err)
	assert.Equal(t, "K01.PJ.2601.10001", r.DocumentNumber)
}

func TestSubmit_EstrategiaContador(t *testing.T) {
	e := newEnv(t, documents.CounterSequence{})
	ctx := context.Background()
	for _, want := range []string{"K01.PJ.2601.0001", "K01.PJ.2601.0002"} {
		r, err := e.w.Submit(ctx, sub(entity.DocSale, "K01", "", "", line("A100", "M", 1)))
		require.NoError(t, err)
		assert.Equal(t, want, r.DocumentNumber)
	}
}

func TestSubmit_CambioAContadorSobreDatosExistentes(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	r, err := e.w.Submit(ctx, sub(entity.DocSale, "K01", "", "", line("A100", "M", 1)))
	require.NoError(t, err)
	require.Equal(t, "K01.PJ.2601.0001", r.DocumentNumber)

	counter := documents.NewWriter(e.store, e.store.Branches(), documents.CounterSequence{},
		documents.DefaultRetryPolicy(), fixedClock{issue}, nil, logger.Nop())
	for _, want := range []string{"K01.PJ.2601.0002", "K01.PJ.2601.0003"} {
		r, err := counter.Submit(ctx, sub(entity.DocSale, "K01", "", "", line("A100", "M", 1)))
		require.NoError(t, err)
		assert.Equal(t, want, r.DocumentNumber)
		assert.Equal(t, 1, r.Attempts)
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Validación
// ──────────────────────────────────────────────────────────────────────────────

func TestSubmit_ValidacionSinEscrituras(t *testing.T) {
	cases := map[string]documents.Submission{
		"tipo desconocido":         sub("invoice", "K01", "", "", line("A100", "M", 1)),
		"corrección manual":        sub(entity.DocCorrection, "K01", "G01", "", line("A100", "M", -1)),
		"sin sucursal":             sub(entity.DocSale, "", "", "", line("A100", "M", 1)),
		"sucursal inexistente":     sub(entity.DocSale, "K05", "", "", line("A100", "M", 1)),
		"sucursal inactiva":        sub(entity.DocSale, "K09", "", "", line("A100", "M", 1)),
		"rol no permitido":         sub(entity.DocDelivery, "K01", "K02", "", line("A100", "M", 1)),
		"sin destino":              sub(entity.DocTransfer, "K01", "", "", line("A100", "M", 1)),
		"destino igual a origen":   sub(entity.DocTransfer, "K01", "K01", "", line("A100", "M", 1)),
		"destino inactivo":         sub(entity.DocTransfer, "K01", "K09", "", line("A100", "M", 1)),
		"sin líneas":               sub(entity.DocSale, "K01", "", ""),
		"todas no positivas":       sub(entity.DocSale, "K01", "", "", line("A100", "M", 0), line("A200", "L", -3)),
		"línea sin artículo":       sub(entity.DocSale, "K01", "", "", line("", "M", 1)),
		"predecesor no aplica":     sub(entity.DocSale, "K01", "", "K01.RQ.2601.0001", line("A100", "M", 1)),
		"recepción sin predecesor": sub(entity.DocDeliveryReceipt, "K01", "", "", line("A100", "M", 1)),
	}
	pending := sub(entity.DocSale, "K01", "", "", line("A100", "M", 1))
	pending.Mode = documents.ModePending
	cases["borrador en venta"] = pending
	unknownMode := sub(entity.DocSale, "K01", "", "", line("A100", "M", 1))
	unknownMode.Mode = "draft"
	cases["modo desconocido"] = unknownMode
	noUser := sub(entity.DocSale, "K01", "", "", line("A100", "M", 1))
	noUser.CreatedBy = ""
	cases["sin usuario"] = noUser
	negPrice := sub(entity.DocSale, "K01", "", "", documents.LineInput{ItemCode: "A100", Variant: "M", Quantity: 1, UnitPrice: decimal.NewFromInt(-5)})
	cases["precio negativo"] = negPrice

	for name, s := range cases {
		t.Run(name, func(t *testing.T) {
			e := newEnv(t, nil)
			_, err := e.w.Submit(context.Background(), s)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrValidation)
			assert.Equal(t, domain.KindValidation, domain.Kind(err))
			assert.Equal(t, memory.Stats{}, e.store.Stats())
		})
	}
}

func TestSubmit_DescartaCantidadesNoPositivas(t *testing.T) {
	e := newEnv(t, nil)
	r, err := e.w.Submit(context.Background(), sub(entity.DocSale, "K01", "", "",
		line("A100", "M", 0), line("A100", "L", 2), line("A200", "S", -1), line("A300", "M", 1)))
	require.NoError(t, err)

	v := e.doc(t, r.DocumentNumber)
	require.Len(t, v.Lines, 2)
	assert.Equal(t, 1, v.Lines[0].Seq)
	assert.Equal(t, "L", v.Lines[0].Variant)
	assert.Equal(t, 2, v.Lines[1].Seq)
	assert.Equal(t, "A300", v.Lines[1].ItemCode)
	assert.Len(t, v.Ledger, 2)
}

func TestSubmit_PrecioSoloEnVentas(t *testing.T) {
	e := newEnv(t, nil)
	e.seedStock(t, "K01", "A100", "M", 5)
	priced := documents.LineInput{ItemCode: "A100", Variant: "M", Quantity: 2, UnitPrice: decimal.RequireFromString("19.90")}

	r, err := e.w.Submit(context.Background(), sub(entity.DocSale, "K01", "", "", priced))
	require.NoError(t, err)
	got := e.doc(t, r.DocumentNumber).Lines[0]
	assert.True(t, decimal.RequireFromString("39.80").Equal(got.Total()))

	r, err = e.w.Submit(context.Background(), sub(entity.DocTransfer, "K01", "K02", "", priced))
	require.NoError(t, err)
	assert.True(t, e.doc(t, r.DocumentNumber).Lines[0].UnitPrice.IsZero())
}

// ──────────────────────────────────────────────────────────────────────────────
// Guarda de stock
// ──────────────────────────────────────────────────────────────────────────────

func TestSubmit_StockInsuficiente(t *testing.T) {
	e := newEnv(t, nil)
	e.seedStock(t, "G01", "A100", "M", 3)
	ctx := context.Background()

	_, err := e.w.Submit(ctx, sub(entity.DocDelivery, "G01", "K01", "", line("A100", "M", 5)))
	require.Error(t, err)
	var stockErr *domain.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, int64(3), stockErr.Available)
	assert.Equal(t, int64(5), stockErr.Requested)
	assert.Equal(t, int64(2), stockErr.Shortfall())
	assert.Equal(t, "A100", stockErr.ItemCode)
	assert.Equal(t, "M", stockErr.Variant)
	assert.Equal(t, 1, e.store.Stats().LedgerEntries, "solo el saldo inicial")
	assert.Equal(t, 0, e.store.Stats().Documents)

	r, err := e.w.Submit(ctx, sub(entity.DocDelivery, "G01", "K01", "", line("A100", "M", 3)))
	require.NoError(t, err)
	assert.Equal(t, "G01.SJ.2601.0001", r.DocumentNumber)
	assert.Equal(t, int64(0), e.balance(t, "G01", "A100", "M"))
}

func TestSubmit_StockConFechaPasadaUsaSaldoActual(t *testing.T) {
	e := newEnv(t, nil)
	e.seedStock(t, "G01", "A100", "M", 5)
	ctx := context.Background()

	_, err := e.w.Submit(ctx, sub(entity.DocDelivery, "G01", "K01", "", line("A100", "M", 5)))
	require.NoError(t, err)

	backdated := sub(entity.DocDelivery, "G01", "K01", "", line("A100", "M", 5))
	backdated.Header.IssueDate = issue.Add(-12 * time.Hour)
	_, err = e.w.Submit(ctx, backdated)
	var stockErr *domain.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, int64(0), stockErr.Available)
	assert.Equal(t, int64(0), e.balance(t, "G01", "A100", "M"))
	assert.Equal(t, 1, e.store.Stats().Documents)
}

func TestSubmit_StockConFechaSinHoraVeEntradasDelDia(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	// Entrada a las 10:00 del mismo día en que se emite la entrega.
	require.NoError(t, e.store.Ledger().Append(ctx, []entity.StockLedgerEntry{{
		ID: uuid.New().String(), Branch: "G01", ItemCode: "A100", Variant: "M",
		Inbound: 5, Active: true, EffectiveDate: issue, DocumentNumber: "SALDO-INICIAL",
	}}))

	s := sub(entity.DocDelivery, "G01", "K01", "", line("A100", "M", 5))
	s.Header.IssueDate = time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	r, err := e.w.Submit(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, "G01.SJ.2601.0001", r.DocumentNumber)
	assert.Equal(t, int64(0), e.balance(t, "G01", "A100", "M"))
}

func TestSubmit_StockSumaLineasDeLaMismaClave(t *testing.T) {
	e := newEnv(t, nil)
	e.seedStock(t, "K01", "A100", "M", 3)
	_, err := e.w.Submit(context.Background(), sub(entity.DocTransfer, "K01", "K02", "",
		line("A100", "M", 2), line("A100", "M", 2)))
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
}

func TestSubmit_VentaNoValidaStock(t *testing.T) {
	e := newEnv(t, nil)
	_, err := e.w.Submit(context.Background(), sub(entity.DocSale, "K01", "", "", line("A100", "M", 5)))
	require.NoError(t, err)
	assert.Equal(t, int64(-5), e.balance(t, "K01", "A100", "M"), "el saldo negativo no se recorta")
}

// ──────────────────────────────────────────────────────────────────────────────
// Atomicidad y reintento
// ──────────────────────────────────────────────────────────────────────────────

func TestSubmit_FalloEnKardexNoDejaRastro(t *testing.T) {
	e := newEnv(t, nil)
	boom := errors.New("disco lleno")
	e.store.SetHooks(memory.Hooks{
		BeforeAppendLedger: func([]entity.StockLedgerEntry) error { return boom },
	})

	_, err := e.w.Submit(context.Background(), sub(entity.DocSale, "K01", "", "", line("A100", "M", 2)))
	require.ErrorIs(t, err, boom)
	assert.Equal(t, memory.Stats{}, e.store.Stats())
	assert.Empty(t, e.notifier.got)

	e.store.SetHooks(memory.Hooks{})
	r, err := e.w.Submit(context.Background(), sub(entity.DocSale, "K01", "", "", line("A100", "M", 2)))
	require.NoError(t, err)
	assert.Equal(t, "K01.PJ.2601.0001", r.DocumentNumber, "el número del intento fallido se reutiliza")
}

func TestSubmit_ReintentaNumeroDuplicado(t *testing.T) {
	e := newEnv(t, nil)
	calls := 0
	e.store.SetHooks(memory.Hooks{
		BeforeCreateDocument: func(*entity.Document) error {
			calls++
			if calls < 3 {
				return domain.ErrDuplicateNumber
			}
			return nil
		},
	})

	r, err := e.w.Submit(context.Background(), sub(entity.DocSale, "K01", "", "", line("A100", "M", 1)))
	require.NoError(t, err)
	assert.Equal(t, 3, r.Attempts)
	assert.Equal(t, 1, e.store.Stats().Documents)
	assert.Equal(t, 1, e.store.Stats().LedgerEntries)
}

func TestSubmit_AgotaReintentos(t *testing.T) {
	e := newEnv(t, nil)
	calls := 0
	e.store.SetHooks(memory.Hooks{
		BeforeCreateDocument: func(*entity.Document) error {
			calls++
			return domain.ErrDuplicateNumber
		},
	})

	res, err := e.w.Submit(context.Background(), sub(entity.DocSale, "K01", "", "", line("A100", "M", 1)))
	require.Error(t, err)
	var conflict *domain.SequenceConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, documents.DefaultMaxAttempts, conflict.Attempts)
	assert.Equal(t, 3, calls)
	assert.Equal(t, 3, res.Attempts)
	assert.True(t, domain.IsRetryable(err))
	assert.Equal(t, domain.KindSequenceConflict, domain.Kind(err))
	assert.Equal(t, memory.Stats{}, e.store.Stats())
}

func TestSubmit_OtrosErroresNoSeReintentan(t *testing.T) {
	e := newEnv(t, nil)
	calls := 0
	e.store.SetHooks(memory.Hooks{
		BeforeCreateDocument: func(*entity.Document) error {
			calls++
			return domain.Transient("insert documento", errors.New("conexión cerrada"))
		},
	})
	_, err := e.w.Submit(context.Background(), sub(entity.DocSale, "K01", "", "", line("A100", "M", 1)))
	require.ErrorIs(t, err, domain.ErrTransient)
	assert.Equal(t, 1, calls)
	assert.True(t, domain.IsRetryable(err))
}

// ──────────────────────────────────────────────────────────────────────────────
// Cadena requisición → entrega → recepción → corrección
// ──────────────────────────────────────────────────────────────────────────────

func TestSubmit_FlujoCompletoConFaltante(t *testing.T) {
	e := newEnv(t, nil)
	e.seedStock(t, "G01", "A100", "M", 20)
	ctx := context.Background()

	req, err := e.w.Submit(ctx, sub(entity.DocRequisition, "K01", "G01", "", line("A100", "M", 20)))
	require.NoError(t, err)
	assert.Equal(t, "K01.RQ.2601.0001", req.DocumentNumber)
	assert.Equal(t, entity.StatusOpen, e.doc(t, req.DocumentNumber).Document.Status)

	del, err := e.w.Submit(ctx, sub(entity.DocDelivery, "G01", "K01", req.DocumentNumber, line("A100", "M", 20)))
	require.NoError(t, err)
	assert.Equal(t, "G01.SJ.2601.0001", del.DocumentNumber)

	rec, err := e.w.Submit(ctx, sub(entity.DocDeliveryReceipt, "K01", "", del.DocumentNumber, line("A100", "M", 18)))
	require.NoError(t, err)
	assert.Equal(t, "K01.TJ.2601.0001", rec.DocumentNumber)
	require.Equal(t, "K01.KR.2601.0001", rec.CorrectionNumber)

	reqView := e.doc(t, req.DocumentNumber)
	assert.Equal(t, entity.StatusClosed, reqView.Document.Status)
	assert.Equal(t, del.DocumentNumber, reqView.Document.SuccessorNumber)

	delView := e.doc(t, del.DocumentNumber)
	assert.Equal(t, entity.StatusReceived, delView.Document.Status)
	assert.Equal(t, rec.DocumentNumber, delView.Document.SuccessorNumber)
	require.NotNil(t, delView.Predecessor)
	assert.Equal(t, entity.LinkKindFulfilment, delView.Predecessor.Kind)

	corr := e.doc(t, rec.CorrectionNumber)
	assert.Equal(t, entity.DocCorrection, corr.Document.Type)
	assert.Equal(t, "K01", corr.Document.Branch)
	assert.Equal(t, "G01", corr.Document.Destination)
	assert.Equal(t, rec.DocumentNumber, corr.Document.PredecessorNumber)
	require.Len(t, corr.Lines, 1)
	assert.Equal(t, "A100", corr.Lines[0].ItemCode)
	assert.Equal(t, "M", corr.Lines[0].Variant)
	assert.Equal(t, int64(-2), corr.Lines[0].Quantity)
	assert.Empty(t, corr.Ledger)

	recView := e.doc(t, rec.DocumentNumber)
	assert.Equal(t, rec.CorrectionNumber, recView.Document.SuccessorNumber)
	require.Len(t, recView.Successors, 1)
	assert.Equal(t, entity.LinkKindCorrection, recView.Successors[0].Kind)

	assert.Equal(t, int64(18), e.balance(t, "K01", "A100", "M"))
	assert.Equal(t, int64(0), e.balance(t, "G01", "A100", "M"))

	require.Len(t, e.notifier.got, 3)
	assert.Equal(t, rec.CorrectionNumber, e.notifier.got[2].CorrectionNumber)
}

func TestSubmit_ConciliacionEjemplo(t *testing.T) {
	run := func(t *testing.T, item1Accepted int64) documents.Result {
		e := newEnv(t, nil)
		e.seedStock(t, "G01", "ITEM1", "M", 10)
		e.seedStock(t, "G01", "ITEM2", "L", 5)
		ctx := context.Background()
		del, err := e.w.Submit(ctx, sub(entity.DocDelivery, "G01", "K01", "", line("ITEM1", "M", 10), line("ITEM2", "L", 5)))
		require.NoError(t, err)
		rec, err := e.w.Submit(ctx, sub(entity.DocDeliveryReceipt, "K01", "", del.DocumentNumber,
			line("ITEM1", "M", item1Accepted), line("ITEM2", "L", 5)))
		require.NoError(t, err)
		if rec.CorrectionNumber != "" {
			corr := e.doc(t, rec.CorrectionNumber)
			require.Len(t, corr.Lines, 1)
			assert.Equal(t, entity.LineKey{ItemCode: "ITEM1", Variant: "M"}, corr.Lines[0].Key())
			assert.Equal(t, int64(-2), corr.Lines[0].Quantity)
		}
		return rec
	}

	t.Run("faltante", func(t *testing.T) {
		assert.NotEmpty(t, run(t, 8).CorrectionNumber)
	})
	t.Run("coincide", func(t *testing.T) {
		assert.Empty(t, run(t, 10).CorrectionNumber)
	})
}

func TestSubmit_RecepcionConLineaAjena(t *testing.T) {
	e := newEnv(t, nil)
	e.seedStock(t, "G01", "A100", "M", 10)
	ctx := context.Background()
	del, err := e.w.Submit(ctx, sub(entity.DocDelivery, "G01", "K01", "", line("A100", "M", 10)))
	require.NoError(t, err)
	before := e.store.Stats()

	_, err = e.w.Submit(ctx, sub(entity.DocDeliveryReceipt, "K01", "", del.DocumentNumber,
		line("A100", "M", 10), line("A100", "XL", 1)))
	require.Error(t, err)
	var integrity *domain.IntegrityError
	require.ErrorAs(t, err, &integrity)
	assert.Equal(t, "XL", integrity.Variant)
	assert.Equal(t, domain.KindIntegrity, domain.Kind(err))
	assert.Equal(t, before, e.store.Stats())
	assert.Equal(t, entity.StatusInTransit, e.doc(t, del.DocumentNumber).Document.Status)
}

func TestSubmit_RecepcionDobleEsConflicto(t *testing.T) {
	e := newEnv(t, nil)
	e.seedStock(t, "G01", "A100", "M", 10)
	ctx := context.Background()
	del, err := e.w.Submit(ctx, sub(entity.DocDelivery, "G01", "K01", "", line("A100", "M", 10)))
	require.NoError(t, err)
	first, err := e.w.Submit(ctx, sub(entity.DocDeliveryReceipt, "K01", "", del.DocumentNumber, line("A100", "M", 10)))
	require.NoError(t, err)

	_, err = e.w.Submit(ctx, sub(entity.DocDeliveryReceipt, "K01", "", del.DocumentNumber, line("A100", "M", 10)))
	var conflict *domain.LinkConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, first.DocumentNumber, conflict.Existing)
	assert.Equal(t, int64(10), e.balance(t, "K01", "A100", "M"), "la segunda recepción no suma")
}

func TestSubmit_PredecesorInvalido(t *testing.T) {
	e := newEnv(t, nil)
	e.seedStock(t, "G01", "A100", "M", 10)
	e.seedStock(t, "K01", "A100", "M", 10)
	ctx := context.Background()

	req, err := e.w.Submit(ctx, sub(entity.DocRequisition, "K01", "G01", "", line("A100", "M", 5)))
	require.NoError(t, err)
	tr, err := e.w.Submit(ctx, sub(entity.DocTransfer, "K01", "K02", "", line("A100", "M", 5)))
	require.NoError(t, err)

	cases := map[string]documents.Submission{
		"no existe":       sub(entity.DocDeliveryReceipt, "K01", "", "G01.SJ.2601.0042", line("A100", "M", 1)),
		"tipo equivocado": sub(entity.DocDeliveryReceipt, "K02", "", tr.DocumentNumber, line("A100", "M", 5)),
		"otra sucursal":   sub(entity.DocTransferReceipt, "K01", "", tr.DocumentNumber, line("A100", "M", 5)),
		"entrega a otra":  sub(entity.DocDelivery, "G01", "K02", req.DocumentNumber, line("A100", "M", 5)),
	}
	for name, s := range cases {
		t.Run(name, func(t *testing.T) {
			before := e.store.Stats()
			_, err := e.w.Submit(ctx, s)
			assert.ErrorIs(t, err, domain.ErrValidation)
			assert.Equal(t, before, e.store.Stats())
		})
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Borradores
// ──────────────────────────────────────────────────────────────────────────────

func TestSubmit_BorradorYPromocion(t *testing.T) {
	e := newEnv(t, nil)
	e.seedStock(t, "K01", "A100", "M", 10)
	ctx := context.Background()
	tr, err := e.w.Submit(ctx, sub(entity.DocTransfer, "K01", "K02", "", line("A100", "M", 6), line("A200", "S", 2)))
	require.Error(t, err, "A200 sin stock")
	tr, err = e.w.Submit(ctx, sub(entity.DocTransfer, "K01", "K02", "", line("A100", "M", 6)))
	require.NoError(t, err)

	pending := sub(entity.DocTransferReceipt, "K02", "", tr.DocumentNumber, line("A100", "M", 2))
	pending.Mode = documents.ModePending
	d1, err := e.w.Submit(ctx, pending)
	require.NoError(t, err)
	require.NotEmpty(t, d1.DraftID)
	assert.Empty(t, d1.DocumentNumber)

	pending.Lines = []documents.LineInput{line("A100", "M", 5)}
	d2, err := e.w.Submit(ctx, pending)
	require.NoError(t, err)
	assert.Equal(t, d1.DraftID, d2.DraftID, "el borrador se reemplaza, no se duplica")
	assert.Equal(t, 1, e.store.Stats().Drafts)
	assert.Equal(t, entity.StatusInTransit, e.doc(t, tr.DocumentNumber).Document.Status)
	assert.Equal(t, int64(0), e.balance(t, "K02", "A100", "M"))

	res, err := e.w.Promote(ctx, d1.DraftID, "user-2")
	require.NoError(t, err)
	assert.Equal(t, "K02.TMT.2601.0001", res.DocumentNumber)
	assert.Equal(t, "K02.KR.2601.0001", res.CorrectionNumber)
	assert.Equal(t, d1.DraftID, res.DraftID)
	assert.Equal(t, int64(5), e.balance(t, "K02", "A100", "M"))
	assert.Equal(t, entity.StatusReceived, e.doc(t, tr.DocumentNumber).Document.Status)
	assert.Equal(t, "user-2", e.doc(t, res.DocumentNumber).Document.CreatedBy)

	again, err := e.w.Promote(ctx, d1.DraftID, "user-2")
	require.NoError(t, err)
	assert.Equal(t, res.DocumentNumber, again.DocumentNumber)
	assert.Equal(t, res.CorrectionNumber, again.CorrectionNumber)
	assert.Equal(t, int64(5), e.balance(t, "K02", "A100", "M"))

	pending.Lines = []documents.LineInput{line("A100", "M", 6)}
	_, err = e.w.Submit(ctx, pending)
	assert.ErrorIs(t, err, domain.ErrLinkConflict, "no hay borrador sobre un traslado ya recibido")
}

func TestSubmit_RecepcionDirectaCierraBorrador(t *testing.T) {
	e := newEnv(t, nil)
	e.seedStock(t, "G01", "A100", "M", 4)
	ctx := context.Background()
	del, err := e.w.Submit(ctx, sub(entity.DocDelivery, "G01", "K01", "", line("A100", "M", 4)))
	require.NoError(t, err)

	pending := sub(entity.DocDeliveryReceipt, "K01", "", del.DocumentNumber, line("A100", "M", 1))
	pending.Mode = documents.ModePending
	d, err := e.w.Submit(ctx, pending)
	require.NoError(t, err)

	rec, err := e.w.Submit(ctx, sub(entity.DocDeliveryReceipt, "K01", "", del.DocumentNumber, line("A100", "M", 4)))
	require.NoError(t, err)

	res, err := e.w.Promote(ctx, d.DraftID, "")
	require.NoError(t, err)
	assert.Equal(t, rec.DocumentNumber, res.DocumentNumber)
}

func TestSubmit_BorradorConLineaAjena(t *testing.T) {
	e := newEnv(t, nil)
	e.seedStock(t, "G01", "A100", "M", 4)
	ctx := context.Background()
	del, err := e.w.Submit(ctx, sub(entity.DocDelivery, "G01", "K01", "", line("A100", "M", 4)))
	require.NoError(t, err)

	pending := sub(entity.DocDeliveryReceipt, "K01", "", del.DocumentNumber, line("B999", "M", 1))
	pending.Mode = documents.ModePending
	_, err = e.w.Submit(ctx, pending)
	assert.ErrorIs(t, err, domain.ErrIntegrity)
	assert.Equal(t, 0, e.store.Stats().Drafts)
}

func TestPromote_Inexistente(t *testing.T) {
	e := newEnv(t, nil)
	_, err := e.w.Promote(context.Background(), uuid.New().String(), "user-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGet_Inexistente(t *testing.T) {
	e := newEnv(t, nil)
	_, err := e.w.Get(context.Background(), "K01.PJ.2601.0001")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
