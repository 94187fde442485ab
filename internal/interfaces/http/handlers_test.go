package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/backoffice-api/internal/application/auth"
	"github.com/jhoicas/backoffice-api/internal/application/documents"
	"github.com/jhoicas/backoffice-api/internal/application/stock"
	"github.com/jhoicas/backoffice-api/internal/application/usecase"
	"github.com/jhoicas/backoffice-api/internal/domain/entity"
	"github.com/jhoicas/backoffice-api/internal/infrastructure/memory"
	apphttp "github.com/jhoicas/backoffice-api/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/backoffice-api/pkg/jwt"
	"github.com/jhoicas/backoffice-api/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

var issueDay = time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)

type fixedClock struct{}

func (fixedClock) Now() time.Time { return issueDay }

// buildAPI arma el router completo sobre el store en memoria con G01 (central) y K01/K02 (tiendas).
func buildAPI(t *testing.T) (*fiber.App, *memory.Store) {
	t.Helper()
	store := memory.New()
	ctx := context.Background()
	for _, b := range []entity.Branch{
		{Code: "G01", Name: "Centro", Role: entity.BranchRoleCentral, Active: true},
		{Code: "K01", Name: "Tienda Norte", Role: entity.BranchRoleStore, Active: true},
		{Code: "K02", Name: "Tienda Sur", Role: entity.BranchRoleStore, Active: true},
	} {
		b := b
		require.NoError(t, store.Branches().Create(ctx, &b))
	}
	writer := documents.NewWriter(store, store.Branches(), nil, documents.DefaultRetryPolicy(), fixedClock{}, nil, logger.Nop())

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		Writer:   writer,
		Balance:  stock.NewBalanceCalculator(store.Ledger(), func() time.Time { return issueDay }),
		BranchUC: usecase.NewBranchUseCase(store.Branches()),
		AuthUC: auth.NewAuthUseCase(store.Users(), store.Branches(), auth.JWTConfig{
			Secret: testJWTSecret, ExpMinutes: testExpMin, Issuer: testIssuer,
		}).WithCost(bcrypt.MinCost),
		JWTSecret: testJWTSecret,
		Log:       logger.Nop(),
	})
	return app, store
}

func seed(t *testing.T, store *memory.Store, branch string, qty int64) {
	t.Helper()
	require.NoError(t, store.Ledger().Append(context.Background(), []entity.StockLedgerEntry{{
		ID: uuid.New().String(), Branch: branch, ItemCode: "A100", Variant: "M", Inbound: qty,
		Active: true, EffectiveDate: issueDay.Add(-24 * time.Hour), DocumentNumber: "SALDO-INICIAL",
	}}))
}

func token(t *testing.T, branch, role string) string {
	t.Helper()
	tok, err := pkgjwt.Generate(testJWTSecret, "user-"+branch, branch, role, testIssuer, testExpMin)
	require.NoError(t, err)
	return "Bearer " + tok
}

// call lanza la petición y decodifica el cuerpo JSON en un mapa.
func call(t *testing.T, app *fiber.App, method, path, auth string, body any) (int, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	out := map[string]any{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func doc(branch, dest, pred string, qty int64) map[string]any {
	return map[string]any{
		"branch":      branch,
		"destination": dest,
		"predecessor": pred,
		"lines":       []map[string]any{{"item_code": "A100", "variant": "M", "quantity": qty}},
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Documentos
// ──────────────────────────────────────────────────────────────────────────────

func TestAPI_FlujoRequisicionEntregaRecepcion(t *testing.T) {
	app, store := buildAPI(t)
	seed(t, store, "G01", 20)
	tienda := token(t, "K01", entity.RoleVendedor)
	bodega := token(t, "G01", entity.RoleBodeguero)

	status, req := call(t, app, http.MethodPost, "/api/documents/requisition", tienda, doc("K01", "G01", "", 20))
	require.Equal(t, http.StatusCreated, status, req)
	assert.Equal(t, "K01.RQ.2601.0001", req["document_number"])

	status, del := call(t, app, http.MethodPost, "/api/documents/delivery", bodega, doc("G01", "K01", "K01.RQ.2601.0001", 20))
	require.Equal(t, http.StatusCreated, status, del)
	assert.Equal(t, "G01.SJ.2601.0001", del["document_number"])

	status, rec := call(t, app, http.MethodPost, "/api/documents/delivery-receipt", tienda, doc("K01", "", "G01.SJ.2601.0001", 18))
	require.Equal(t, http.StatusCreated, status, rec)
	assert.Equal(t, "K01.TJ.2601.0001", rec["document_number"])
	assert.Equal(t, "K01.KR.2601.0001", rec["correction_number"])

	status, view := call(t, app, http.MethodGet, "/api/documents/G01.SJ.2601.0001", tienda, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, string(entity.StatusReceived), view["status"])
	successors, ok := view["successors"].([]any)
	require.True(t, ok)
	require.Len(t, successors, 1)
	assert.Equal(t, "K01.TJ.2601.0001", successors[0].(map[string]any)["successor"])

	status, bal := call(t, app, http.MethodGet, "/api/stock/balance?branch=k01&item=A100&variant=M", tienda, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(18), bal["balance"])

	status, dup := call(t, app, http.MethodPost, "/api/documents/delivery-receipt", tienda, doc("K01", "", "G01.SJ.2601.0001", 20))
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "LINK_CONFLICT", dup["code"])
}

func TestAPI_StockInsuficiente(t *testing.T) {
	app, store := buildAPI(t)
	seed(t, store, "G01", 3)

	status, body := call(t, app, http.MethodPost, "/api/documents/delivery",
		token(t, "G01", entity.RoleBodeguero), doc("G01", "K01", "", 5))
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "INSUFFICIENT_STOCK", body["code"])
	details, ok := body["details"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(3), details["available"])
	assert.Equal(t, float64(2), details["shortfall"])
	assert.Equal(t, 0, store.Stats().Documents)
}

func TestAPI_BorradorYPromocion(t *testing.T) {
	app, store := buildAPI(t)
	seed(t, store, "G01", 4)
	tienda := token(t, "K01", entity.RoleVendedor)

	status, del := call(t, app, http.MethodPost, "/api/documents/delivery",
		token(t, "G01", entity.RoleBodeguero), doc("G01", "K01", "", 4))
	require.Equal(t, http.StatusCreated, status, del)

	pending := doc("K01", "", del["document_number"].(string), 3)
	pending["mode"] = "pending"
	status, draft := call(t, app, http.MethodPost, "/api/documents/delivery-receipt", tienda, pending)
	require.Equal(t, http.StatusAccepted, status, draft)
	draftID, _ := draft["draft_id"].(string)
	require.NotEmpty(t, draftID)
	assert.Nil(t, draft["document_number"])

	status, other := call(t, app, http.MethodPost, "/api/drafts/"+draftID+"/promote", token(t, "K02", entity.RoleVendedor), nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", other["code"])

	status, res := call(t, app, http.MethodPost, "/api/drafts/"+draftID+"/promote", tienda, nil)
	require.Equal(t, http.StatusCreated, status, res)
	assert.Equal(t, "K01.TJ.2601.0001", res["document_number"])
	assert.Equal(t, "K01.KR.2601.0001", res["correction_number"])

	status, _ = call(t, app, http.MethodPost, "/api/drafts/"+uuid.New().String()+"/promote", tienda, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestAPI_Errores(t *testing.T) {
	app, _ := buildAPI(t)
	tienda := token(t, "K01", entity.RoleVendedor)

	cases := []struct {
		name   string
		method string
		path   string
		auth   string
		body   any
		status int
		code   string
	}{
		{"otra sucursal", http.MethodPost, "/api/documents/sale", tienda, doc("K02", "", "", 1), http.StatusForbidden, "FORBIDDEN"},
		{"tipo desconocido", http.MethodPost, "/api/documents/invoice", tienda, doc("K01", "", "", 1), http.StatusBadRequest, "VALIDATION"},
		{"tipo interno", http.MethodPost, "/api/documents/correction", tienda, doc("K01", "", "", 1), http.StatusBadRequest, "VALIDATION"},
		{"fecha inválida", http.MethodPost, "/api/documents/sale", tienda,
			map[string]any{"branch": "K01", "issue_date": "15/01/2026", "lines": []map[string]any{{"item_code": "A100", "quantity": 1}}},
			http.StatusBadRequest, "VALIDATION"},
		{"documento inexistente", http.MethodGet, "/api/documents/K01.PJ.2601.0099", tienda, nil, http.StatusNotFound, "NOT_FOUND"},
		{"saldo sin artículo", http.MethodGet, "/api/stock/balance?branch=K01", tienda, nil, http.StatusBadRequest, "VALIDATION"},
		{"sin token", http.MethodGet, "/api/branches", "", nil, http.StatusUnauthorized, "MISSING_TOKEN"},
		{"alta de sucursal sin admin", http.MethodPost, "/api/branches", tienda,
			map[string]any{"code": "K03", "name": "Tienda", "role": "store"}, http.StatusForbidden, "FORBIDDEN"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, body := call(t, app, tc.method, tc.path, tc.auth, tc.body)
			assert.Equal(t, tc.status, status, body)
			assert.Equal(t, tc.code, body["code"])
		})
	}
}

func TestAPI_VentaConPrecio(t *testing.T) {
	app, _ := buildAPI(t)
	tienda := token(t, "K01", entity.RoleVendedor)

	sale := map[string]any{
		"branch": "K01",
		"lines":  []map[string]any{{"item_code": "A100", "variant": "M", "quantity": 2, "unit_price": "19900.50"}},
	}
	status, res := call(t, app, http.MethodPost, "/api/documents/sale", tienda, sale)
	require.Equal(t, http.StatusCreated, status, res)
	assert.Equal(t, "K01.PJ.2601.0001", res["document_number"])

	status, view := call(t, app, http.MethodGet, "/api/documents/K01.PJ.2601.0001", tienda, nil)
	require.Equal(t, http.StatusOK, status)
	lines := view["lines"].([]any)
	require.Len(t, lines, 1)
	assert.Equal(t, "39801", lines[0].(map[string]any)["total"])

	status, bal := call(t, app, http.MethodGet, "/api/stock/balance?branch=K01&item=A100&variant=M", tienda, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(-2), bal["balance"])
}

// ──────────────────────────────────────────────────────────────────────────────
// Sucursales y catálogo
// ──────────────────────────────────────────────────────────────────────────────

func TestAPI_Sucursales(t *testing.T) {
	app, _ := buildAPI(t)
	admin := token(t, "G01", entity.RoleAdmin)

	status, created := call(t, app, http.MethodPost, "/api/branches", admin,
		map[string]any{"code": "k03", "name": "Tienda Centro", "role": "store"})
	require.Equal(t, http.StatusCreated, status, created)
	assert.Equal(t, "K03", created["code"])
	assert.Equal(t, true, created["active"])

	status, dup := call(t, app, http.MethodPost, "/api/branches", admin,
		map[string]any{"code": "K03", "name": "Repetida", "role": "store"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION", dup["code"])

	status, list := call(t, app, http.MethodGet, "/api/branches", admin, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, list["items"], 4)

	status, page := call(t, app, http.MethodGet, "/api/branches?limit=2&offset=3", admin, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, page["items"], 1)
	assert.Equal(t, float64(4), page["page"].(map[string]any)["total"])

	status, _ = call(t, app, http.MethodGet, "/api/branches/K99", admin, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestAPI_TiposDeDocumentoEsPublico(t *testing.T) {
	app, _ := buildAPI(t)
	req := httptest.NewRequest(http.MethodGet, "/api/document-types", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var types []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&types))
	assert.Len(t, types, len(entity.DocumentTypes()))
}

// ──────────────────────────────────────────────────────────────────────────────
// Auth
// ──────────────────────────────────────────────────────────────────────────────

func TestAPI_RegistroYLogin(t *testing.T) {
	app, _ := buildAPI(t)
	admin := token(t, "", entity.RoleAdmin)
	nuevo := map[string]any{"email": "luis@tiendas.co", "password": "secreta123", "branch": "K02", "role": "bodeguero"}

	status, _ := call(t, app, http.MethodPost, "/api/auth/register", token(t, "K02", entity.RoleVendedor), nuevo)
	assert.Equal(t, http.StatusForbidden, status)

	status, user := call(t, app, http.MethodPost, "/api/auth/register", admin, nuevo)
	require.Equal(t, http.StatusCreated, status, user)
	assert.Equal(t, "K02", user["branch"])

	status, dup := call(t, app, http.MethodPost, "/api/auth/register", admin, nuevo)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "EMAIL_EXISTS", dup["code"])

	status, bad := call(t, app, http.MethodPost, "/api/auth/login", "", map[string]any{"email": "luis@tiendas.co", "password": "incorrecta"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", bad["code"])

	status, login := call(t, app, http.MethodPost, "/api/auth/login", "", map[string]any{"email": "luis@tiendas.co", "password": "secreta123"})
	require.Equal(t, http.StatusOK, status, login)
	tok, ok := login["token"].(string)
	require.True(t, ok)

	// El token emitido opera sobre su propia sucursal.
	status, bal := call(t, app, http.MethodGet, "/api/stock/balance?branch=K02&item=A100&variant=M", "Bearer "+tok, nil)
	require.Equal(t, http.StatusOK, status, bal)
	status, _ = call(t, app, http.MethodPost, "/api/documents/requisition", "Bearer "+tok, doc("K01", "G01", "", 1))
	assert.Equal(t, http.StatusForbidden, status)
}
