package http_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventory-ledger/internal/application/dto"
	"github.com/jhoicas/inventory-ledger/internal/application/inventory"
	"github.com/jhoicas/inventory-ledger/internal/application/usecase"
	"github.com/jhoicas/inventory-ledger/internal/infrastructure/memory"
	apphttp "github.com/jhoicas/inventory-ledger/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/inventory-ledger/pkg/jwt"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────────────────────────────────

type apiClient struct {
	t    *testing.T
	app  *fiber.App
	auth string
}

// newAPI arma el router completo sobre el store en memoria. secret vacío desactiva auth.
func newAPI(t *testing.T, secret string) *fiber.App {
	t.Helper()
	s := memory.New()
	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		TransactionUC:   inventory.NewTransactionUseCase(s, s.Products(), s.Transactions(), nil, nil, inventory.Options{}),
		ReplenishmentUC: inventory.NewReplenishmentUseCase(s.Transactions()),
		ProductUC:       usecase.NewProductUseCase(s, s.Products(), s.Categories()),
		CategoryUC:      usecase.NewCategoryUseCase(s.Categories(), s.Products()),
		JWTSecret:       secret,
		Log:             zerolog.Nop(),
	})
	return app
}

func clientAs(t *testing.T, app *fiber.App, role string) *apiClient {
	t.Helper()
	tok, err := pkgjwt.Generate(testJWTSecret, testUserID, role, testIssuer, testExpMin)
	require.NoError(t, err)
	return &apiClient{t: t, app: app, auth: "Bearer " + tok}
}

func (c *apiClient) do(method, path, body string) (int, []byte) {
	c.t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.auth != "" {
		req.Header.Set("Authorization", c.auth)
	}
	resp, err := c.app.Test(req, -1)
	require.NoError(c.t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	return resp.StatusCode, out
}

func decode[T any](t *testing.T, raw []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v), string(raw))
	return v
}

// seed crea una categoría y un producto con el stock dado y devuelve el producto.
func seed(t *testing.T, c *apiClient, stock int) dto.ProductResponse {
	t.Helper()
	status, raw := c.do(http.MethodPost, "/api/categories", `{"name":"Herramientas"}`)
	require.Equal(t, http.StatusCreated, status, string(raw))
	cat := decode[dto.CategoryResponse](t, raw)

	body := `{"name":"Martillo","categoryId":` + itoa(cat.ID) + `,"price":"12.50","stock":` + itoa(int64(stock)) + `}`
	status, raw = c.do(http.MethodPost, "/api/products", body)
	require.Equal(t, http.StatusCreated, status, string(raw))
	return decode[dto.ProductResponse](t, raw)
}

func itoa(n int64) string {
	b, _ := json.Marshal(n)
	return string(b)
}

// ──────────────────────────────────────────────────────────────────────────────
// Transacciones
// ──────────────────────────────────────────────────────────────────────────────

func TestHandler_CrearTransaccion_ActualizaStock(t *testing.T) {
	c := clientAs(t, newAPI(t, testJWTSecret), pkgjwt.RoleOperator)
	p := seed(t, c, 10)

	status, raw := c.do(http.MethodPost, "/api/transactions",
		`{"productId":`+itoa(p.ID)+`,"type":"out","quantity":4,"notes":"venta"}`)
	require.Equal(t, http.StatusCreated, status, string(raw))
	tx := decode[dto.TransactionResponse](t, raw)
	assert.Equal(t, "stock_out", tx.Type)
	assert.Equal(t, int64(4), tx.Quantity)

	_, raw = c.do(http.MethodGet, "/api/products/"+itoa(p.ID), "")
	assert.Equal(t, int64(6), decode[dto.ProductResponse](t, raw).Stock)
}

func TestHandler_StockInsuficiente_Retorna400(t *testing.T) {
	c := clientAs(t, newAPI(t, testJWTSecret), pkgjwt.RoleOperator)
	p := seed(t, c, 2)

	status, raw := c.do(http.MethodPost, "/api/transactions",
		`{"productId":`+itoa(p.ID)+`,"type":"stock_out","quantity":5}`)
	assert.Equal(t, http.StatusBadRequest, status)
	e := decode[dto.ErrorResponse](t, raw)
	assert.Equal(t, apphttp.CodeInsufficientStock, e.Code)
	assert.Equal(t, "Insufficient stock for product Martillo. Available: 2, Requested: 5", e.Message)
}

func TestHandler_ValidacionDelBody(t *testing.T) {
	c := clientAs(t, newAPI(t, testJWTSecret), pkgjwt.RoleOperator)

	status, raw := c.do(http.MethodPost, "/api/transactions", `{"productId":1,"type":"in","quantity":0}`)
	assert.Equal(t, http.StatusBadRequest, status)
	e := decode[dto.ErrorResponse](t, raw)
	assert.Equal(t, apphttp.CodeValidation, e.Code)
	assert.Contains(t, e.Message, "quantity")

	status, raw = c.do(http.MethodPost, "/api/transactions", `{"productId":1,"type":"in","quantity":9223372036854775807}`)
	assert.Equal(t, http.StatusBadRequest, status)
	e = decode[dto.ErrorResponse](t, raw)
	assert.Equal(t, apphttp.CodeValidation, e.Code)
	assert.Contains(t, e.Message, "quantity")

	status, raw = c.do(http.MethodPost, "/api/transactions", `{no es json`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, apphttp.CodeInvalidBody, decode[dto.ErrorResponse](t, raw).Code)
}

func TestHandler_ProductoInexistente_Retorna404(t *testing.T) {
	c := clientAs(t, newAPI(t, testJWTSecret), pkgjwt.RoleOperator)

	status, raw := c.do(http.MethodPost, "/api/transactions", `{"productId":99,"type":"in","quantity":1}`)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "product 99 not found", decode[dto.ErrorResponse](t, raw).Message)

	status, _ = c.do(http.MethodGet, "/api/transactions/abc", "")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestHandler_Lote_IndicaLaLineaInvalida(t *testing.T) {
	c := clientAs(t, newAPI(t, testJWTSecret), pkgjwt.RoleOperator)
	p := seed(t, c, 5)
	id := itoa(p.ID)

	body := `{"transactions":[
		{"productId":` + id + `,"type":"in","quantity":3},
		{"productId":` + id + `,"type":"out","quantity":0}
	]}`
	status, raw := c.do(http.MethodPost, "/api/transactions/bulk", body)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.True(t, strings.HasPrefix(decode[dto.ErrorResponse](t, raw).Message, "Transaction 2:"))

	body = `{"transactions":[
		{"productId":` + id + `,"type":"in","quantity":9223372036854775807},
		{"productId":` + id + `,"type":"in","quantity":9223372036854775807}
	]}`
	status, raw = c.do(http.MethodPost, "/api/transactions/bulk", body)
	assert.Equal(t, http.StatusBadRequest, status)
	e := decode[dto.ErrorResponse](t, raw)
	assert.Equal(t, apphttp.CodeValidation, e.Code)
	assert.True(t, strings.HasPrefix(e.Message, "Transaction 1:"), e.Message)

	body = `{"transactions":[
		{"productId":` + id + `,"type":"in","quantity":3},
		{"productId":` + id + `,"type":"out","quantity":8}
	]}`
	status, raw = c.do(http.MethodPost, "/api/transactions/bulk", body)
	require.Equal(t, http.StatusCreated, status, string(raw))
	out := decode[dto.BulkTransactionResponse](t, raw)
	assert.Equal(t, 2, out.InsertedCount)

	status, raw = c.do(http.MethodGet, "/api/transactions/batch/"+out.BatchID, "")
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[dto.TransactionListResponse](t, raw).Items, 2)

	_, raw = c.do(http.MethodGet, "/api/products/"+id, "")
	assert.Equal(t, int64(0), decode[dto.ProductResponse](t, raw).Stock)
}

func TestHandler_EliminarTransaccion_RevierteStock(t *testing.T) {
	app := newAPI(t, testJWTSecret)
	op := clientAs(t, app, pkgjwt.RoleOperator)
	admin := clientAs(t, app, pkgjwt.RoleAdmin)
	p := seed(t, op, 10)

	_, raw := op.do(http.MethodPost, "/api/transactions", `{"productId":`+itoa(p.ID)+`,"type":"out","quantity":3}`)
	tx := decode[dto.TransactionResponse](t, raw)

	status, _ := op.do(http.MethodDelete, "/api/transactions/"+itoa(tx.ID), "")
	assert.Equal(t, http.StatusForbidden, status, "operator no puede borrar transacciones")

	status, _ = admin.do(http.MethodDelete, "/api/transactions/"+itoa(tx.ID), "")
	assert.Equal(t, http.StatusNoContent, status)

	_, raw = admin.do(http.MethodGet, "/api/products/"+itoa(p.ID), "")
	assert.Equal(t, int64(10), decode[dto.ProductResponse](t, raw).Stock)

	status, _ = admin.do(http.MethodGet, "/api/transactions/"+itoa(tx.ID), "")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestHandler_ListadoLimitaElTamañoDePagina(t *testing.T) {
	c := clientAs(t, newAPI(t, testJWTSecret), pkgjwt.RoleOperator)
	p := seed(t, c, 0)
	for i := 0; i < 3; i++ {
		c.do(http.MethodPost, "/api/transactions", `{"productId":`+itoa(p.ID)+`,"type":"in","quantity":1}`)
	}

	status, raw := c.do(http.MethodGet, "/api/transactions?limit=500&sortBy=nope", "")
	require.Equal(t, http.StatusOK, status, string(raw))
	list := decode[dto.TransactionListResponse](t, raw)
	assert.Equal(t, dto.MaxLimit, list.Page.Limit)
	assert.Equal(t, 3, list.Page.Total)

	status, _ = c.do(http.MethodGet, "/api/transactions/type/sideways", "")
	assert.Equal(t, http.StatusBadRequest, status)

	status, raw = c.do(http.MethodGet, "/api/transactions/date-range?startDate=2025-02-01", "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, decode[dto.ErrorResponse](t, raw).Message, "Start date and end date are required")
}

func TestHandler_ResumenYReporte(t *testing.T) {
	c := clientAs(t, newAPI(t, testJWTSecret), pkgjwt.RoleViewer)
	writer := clientAs(t, c.app, pkgjwt.RoleAdmin)
	p := seed(t, writer, 5)
	writer.do(http.MethodPost, "/api/transactions", `{"productId":`+itoa(p.ID)+`,"type":"in","quantity":7}`)
	writer.do(http.MethodPost, "/api/transactions", `{"productId":`+itoa(p.ID)+`,"type":"out","quantity":2}`)

	status, raw := c.do(http.MethodGet, "/api/products/"+itoa(p.ID)+"/summary", "")
	require.Equal(t, http.StatusOK, status, string(raw))
	sum := decode[dto.StockSummaryResponse](t, raw)
	assert.Equal(t, int64(7), sum.TotalIn)
	assert.Equal(t, int64(2), sum.TotalOut)
	assert.Equal(t, int64(5), sum.NetChange)
	assert.Equal(t, int64(10), sum.CurrentStock)

	status, raw = c.do(http.MethodGet, "/api/transactions/report", "")
	require.Equal(t, http.StatusOK, status, string(raw))
	assert.Len(t, decode[dto.MovementReportResponse](t, raw).Products, 1)

	status, raw = c.do(http.MethodGet, "/api/transactions/replenishment?reorderPoint=12", "")
	require.Equal(t, http.StatusOK, status, string(raw))
	rep := decode[dto.ReplenishmentResponse](t, raw)
	require.Len(t, rep.Items, 1)
	assert.Equal(t, int64(8), rep.Items[0].SuggestedOrderQty)

	status, _ = c.do(http.MethodPost, "/api/transactions", `{"productId":`+itoa(p.ID)+`,"type":"in","quantity":1}`)
	assert.Equal(t, http.StatusForbidden, status, "viewer solo lee")
}

// ──────────────────────────────────────────────────────────────────────────────
// Catálogo
// ──────────────────────────────────────────────────────────────────────────────

func TestHandler_EliminarProductoConTransacciones_Retorna409(t *testing.T) {
	c := clientAs(t, newAPI(t, testJWTSecret), pkgjwt.RoleAdmin)
	p := seed(t, c, 1)
	c.do(http.MethodPost, "/api/transactions", `{"productId":`+itoa(p.ID)+`,"type":"out","quantity":1}`)

	status, raw := c.do(http.MethodDelete, "/api/products/"+itoa(p.ID), "")
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, apphttp.CodeConflict, decode[dto.ErrorResponse](t, raw).Code)

	status, _ = c.do(http.MethodDelete, "/api/categories/"+itoa(p.CategoryID), "")
	assert.Equal(t, http.StatusConflict, status)
}

func TestHandler_CategoriaDuplicada_Retorna409(t *testing.T) {
	c := clientAs(t, newAPI(t, testJWTSecret), pkgjwt.RoleAdmin)
	status, _ := c.do(http.MethodPost, "/api/categories", `{"name":"Pinturas"}`)
	require.Equal(t, http.StatusCreated, status)

	status, raw := c.do(http.MethodPost, "/api/categories", `{"name":"pinturas"}`)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, apphttp.CodeDuplicate, decode[dto.ErrorResponse](t, raw).Code)
}

func TestHandler_SinSecretoNoExigeToken(t *testing.T) {
	c := &apiClient{t: t, app: newAPI(t, "")}
	status, raw := c.do(http.MethodGet, "/api/products", "")
	assert.Equal(t, http.StatusOK, status, string(raw))

	withAuth := &apiClient{t: t, app: newAPI(t, testJWTSecret)}
	status, _ = withAuth.do(http.MethodGet, "/api/products", "")
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestHandler_RequestIDEnRespuesta(t *testing.T) {
	app := newAPI(t, "")
	req := httptest.NewRequest(http.MethodGet, "/api/categories", nil)
	req.Header.Set(apphttp.HeaderRequestID, "req-123")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "req-123", resp.Header.Get(apphttp.HeaderRequestID))
}
