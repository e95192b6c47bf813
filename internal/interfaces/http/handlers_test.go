package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/fulfillment-api/internal/application/dto"
	"github.com/jhoicas/fulfillment-api/internal/application/inventory"
	"github.com/jhoicas/fulfillment-api/internal/application/notification"
	"github.com/jhoicas/fulfillment-api/internal/application/orders"
	"github.com/jhoicas/fulfillment-api/internal/application/returns"
	"github.com/jhoicas/fulfillment-api/internal/domain/entity"
	"github.com/jhoicas/fulfillment-api/internal/infrastructure/memory"
	"github.com/jhoicas/fulfillment-api/internal/infrastructure/pdf"
	apphttp "github.com/jhoicas/fulfillment-api/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/fulfillment-api/pkg/jwt"
)

var fixedNow = time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)

func strPtr(s string) *string { return &s }

type apiFixture struct {
	app   *fiber.App
	store *memory.Store
}

// newAPI arma la API completa sobre el store en memoria.
func newAPI(t *testing.T) *apiFixture {
	t.Helper()
	return newAPIWithConfig(t, fiber.Config{Immutable: true})
}

func newAPIWithConfig(t *testing.T, cfg fiber.Config) *apiFixture {
	t.Helper()
	store := memory.NewStore()
	repos := store.Repos()
	clock := func() time.Time { return fixedNow }
	notifier := notification.NewNotifier(notification.NewEmitter(clock), store.Notifications(), nil, nil)

	ledger, err := inventory.NewStockLedger(inventory.Deps{Tx: store, Stock: repos.Stock, Movements: repos.Movements, Clock: clock})
	require.NoError(t, err)
	machine, err := orders.NewOrderStateMachine(orders.Deps{
		Tx:       store,
		Orders:   repos.Orders,
		Ledger:   ledger,
		Notifier: notifier,
		Slips:    pdf.NewPackingSlipGenerator("Tienda Test"),
		Clock:    clock,
	})
	require.NoError(t, err)
	workflow, err := returns.NewReturnWorkflow(returns.Deps{
		Tx:       store,
		Orders:   repos.Orders,
		Returns:  repos.Returns,
		Machine:  machine,
		Ledger:   ledger,
		Notifier: notifier,
		Clock:    clock,
	})
	require.NoError(t, err)

	app := fiber.New(cfg)
	apphttp.Router(app, apphttp.RouterDeps{
		Ledger:        ledger,
		Orders:        machine,
		Returns:       workflow,
		Notifications: store.Notifications(),
		JWTSecret:     testJWTSecret,
		AppName:       "fulfillment-api-test",
	})
	return &apiFixture{app: app, store: store}
}

func (f *apiFixture) call(t *testing.T, method, path, auth string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func (f *apiFixture) seedOrder(id, status string, age time.Duration) {
	f.store.SeedStock(entity.StockRecord{VariantID: "V1", Stock: 5})
	f.store.SeedOrder(entity.Order{
		ID:           id,
		Status:       status,
		UserID:       strPtr("U1"),
		ContactEmail: strPtr("u1@example.com"),
		TotalAmount:  decimal.NewFromInt(90),
		Currency:     "COP",
		CreatedAt:    fixedNow.Add(-age),
		Lines: []entity.OrderLine{
			{ID: "L1", OrderID: id, VariantID: strPtr("V1"), Quantity: 3, UnitPrice: decimal.NewFromInt(30), ProductNameSnapshot: "Camiseta"},
		},
	})
}

func TestHealth(t *testing.T) {
	f := newAPI(t)
	resp := f.call(t, http.MethodGet, "/health", "", nil)
	body := decode[map[string]string](t, resp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
}

func TestAdjust_DeltaYHistorial(t *testing.T) {
	f := newAPI(t)
	f.store.SeedStock(entity.StockRecord{VariantID: "V1", Stock: 10})
	staff := tokenForRole(t, pkgjwt.RoleStaff)

	resp := f.call(t, http.MethodPost, "/api/inventory/variants/V1/adjustments", staff,
		map[string]any{"delta": -3, "reason": "sale", "detail": "venta mostrador"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	change := decode[dto.StockChangeResponse](t, resp)
	assert.Equal(t, 10, change.PreviousStock)
	assert.Equal(t, 7, change.NewStock)
	assert.Equal(t, "sale", change.Movement.Reason)
	require.NotNil(t, change.Movement.ActorID)
	assert.Equal(t, testUserID, *change.Movement.ActorID)

	resp = f.call(t, http.MethodPost, "/api/inventory/variants/V1/adjustments", staff,
		map[string]any{"absolute": 12, "reason": "correction"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	change = decode[dto.StockChangeResponse](t, resp)
	assert.Equal(t, 5, change.Movement.ChangeAmount)

	resp = f.call(t, http.MethodGet, "/api/inventory/variants/V1/movements?limit=10", staff, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	history := decode[dto.StockHistoryResponse](t, resp)
	require.Len(t, history.Items, 2)
	assert.Equal(t, "correction", history.Items[0].Reason)
	assert.Equal(t, "sale", history.Items[1].Reason)
}

func TestAdjust_StockInsuficiente409(t *testing.T) {
	f := newAPI(t)
	f.store.SeedStock(entity.StockRecord{VariantID: "V1", Stock: 7})

	resp := f.call(t, http.MethodPost, "/api/inventory/variants/V1/adjustments", tokenForRole(t, pkgjwt.RoleAdmin),
		map[string]any{"delta": -10})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	body := decode[dto.ErrorResponse](t, resp)
	assert.Equal(t, "INSUFFICIENT_STOCK", body.Code)
	assert.Contains(t, body.Message, "stock 7, change -10")
}

func TestAdjust_Validaciones(t *testing.T) {
	f := newAPI(t)
	f.store.SeedStock(entity.StockRecord{VariantID: "V1", Stock: 7})
	staff := tokenForRole(t, pkgjwt.RoleStaff)

	cases := []struct {
		name string
		body map[string]any
	}{
		{"sin delta ni absolute", map[string]any{"reason": "restock"}},
		{"ambos", map[string]any{"delta": 1, "absolute": 3}},
		{"reason desconocido", map[string]any{"delta": 1, "reason": "magia"}},
		{"reason de sistema", map[string]any{"delta": 1, "reason": "order_cancelled"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := f.call(t, http.MethodPost, "/api/inventory/variants/V1/adjustments", staff, tc.body)
			defer resp.Body.Close()
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestAdjust_AbsolutoSinCambio409(t *testing.T) {
	f := newAPI(t)
	f.store.SeedStock(entity.StockRecord{VariantID: "V1", Stock: 7})

	resp := f.call(t, http.MethodPost, "/api/inventory/variants/V1/adjustments", tokenForRole(t, pkgjwt.RoleStaff),
		map[string]any{"absolute": 7})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "NO_CHANGE", decode[dto.ErrorResponse](t, resp).Code)

	resp = f.call(t, http.MethodPost, "/api/inventory/variants/V1/adjustments", tokenForRole(t, pkgjwt.RoleStaff),
		map[string]any{"delta": 0})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "NO_CHANGE", decode[dto.ErrorResponse](t, resp).Code)
}

func TestInventario_CustomerBloqueado(t *testing.T) {
	f := newAPI(t)
	f.store.SeedStock(entity.StockRecord{VariantID: "V1", Stock: 7})

	resp := f.call(t, http.MethodGet, "/api/inventory/variants/V1", tokenForRole(t, pkgjwt.RoleCustomer), nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestInventario_VarianteInexistente404(t *testing.T) {
	f := newAPI(t)
	staff := tokenForRole(t, pkgjwt.RoleStaff)

	resp := f.call(t, http.MethodGet, "/api/inventory/variants/NOPE", staff, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", decode[dto.ErrorResponse](t, resp).Code)

	resp = f.call(t, http.MethodGet, "/api/inventory/variants/NOPE/movements", staff, nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestInventario_AprovisionarArchivarYConciliar(t *testing.T) {
	f := newAPI(t)
	admin := tokenForRole(t, pkgjwt.RoleAdmin)
	staff := tokenForRole(t, pkgjwt.RoleStaff)

	resp := f.call(t, http.MethodPost, "/api/inventory/variants/V9", staff, map[string]any{"initial_stock": 4})
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode, "aprovisionar es solo admin")

	resp = f.call(t, http.MethodPost, "/api/inventory/variants/V9", admin, map[string]any{"initial_stock": 4})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	rec := decode[dto.StockRecordResponse](t, resp)
	assert.Equal(t, 4, rec.Stock)

	resp = f.call(t, http.MethodPost, "/api/inventory/variants/V9", admin, map[string]any{"initial_stock": 1})
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode, "la variante ya existe")

	resp = f.call(t, http.MethodGet, "/api/inventory/variants/V9/reconciliation", staff, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	rc := decode[dto.ReconciliationResponse](t, resp)
	assert.Equal(t, 4, rc.LedgerSum)
	assert.Equal(t, 0, rc.Drift)

	resp = f.call(t, http.MethodPost, "/api/inventory/variants/V9/archive", admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, entity.VariantStatusArchived, decode[dto.StockRecordResponse](t, resp).Status)

	resp = f.call(t, http.MethodPost, "/api/inventory/variants/V9/adjustments", staff, map[string]any{"delta": 1, "reason": "restock"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "VARIANT_ARCHIVED", decode[dto.ErrorResponse](t, resp).Code)
}

func TestInventario_IDDeRutaNoSeReescribeEntrePeticiones(t *testing.T) {
	// sin Immutable fiber reutiliza el buffer de la ruta entre peticiones
	f := newAPIWithConfig(t, fiber.Config{})
	admin := tokenForRole(t, pkgjwt.RoleAdmin)

	resp := f.call(t, http.MethodPost, "/api/inventory/variants/AAAA", admin, map[string]any{"initial_stock": 5})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()
	resp = f.call(t, http.MethodPost, "/api/inventory/variants/AAAA/adjustments", admin, map[string]any{"delta": -1})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()
	resp = f.call(t, http.MethodGet, "/api/inventory/variants/ZZZZ", admin, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = f.call(t, http.MethodGet, "/api/inventory/variants/AAAA/reconciliation", admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	rc := decode[dto.ReconciliationResponse](t, resp)
	assert.Equal(t, 4, rc.Stock)
	assert.Equal(t, 4, rc.LedgerSum)
	assert.Equal(t, 0, rc.Drift)

	movs, err := f.store.Repos().Movements.ListByVariant(context.Background(), "ZZZZ", 0, 10)
	require.NoError(t, err)
	assert.Empty(t, movs)
}

func TestOrden_CancelarRevierteStockYLuegoEsTerminal(t *testing.T) {
	f := newAPI(t)
	f.seedOrder("O1", entity.OrderStatusPaid, time.Hour)
	staff := tokenForRole(t, pkgjwt.RoleStaff)

	resp := f.call(t, http.MethodPost, "/api/orders/O1/transitions", staff, map[string]string{"status": "cancelled"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, entity.OrderStatusCancelled, decode[dto.OrderResponse](t, resp).Status)

	resp = f.call(t, http.MethodGet, "/api/inventory/variants/V1", staff, nil)
	assert.Equal(t, 8, decode[dto.StockRecordResponse](t, resp).Stock)

	resp = f.call(t, http.MethodPost, "/api/orders/O1/transitions", staff, map[string]string{"status": "paid"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	body := decode[dto.ErrorResponse](t, resp)
	assert.Equal(t, "ILLEGAL_TRANSITION", body.Code)
	assert.Equal(t, "cannot move order from cancelled to paid", body.Message)
}

func TestOrden_EstadoDesconocido400(t *testing.T) {
	f := newAPI(t)
	f.seedOrder("O1", entity.OrderStatusPaid, time.Hour)

	resp := f.call(t, http.MethodPost, "/api/orders/O1/transitions", tokenForRole(t, pkgjwt.RoleStaff), map[string]string{"status": "lost"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestOrden_GuiaYPackingSlip(t *testing.T) {
	f := newAPI(t)
	f.seedOrder("O1", entity.OrderStatusPacked, time.Hour)
	staff := tokenForRole(t, pkgjwt.RoleStaff)

	resp := f.call(t, http.MethodPut, "/api/orders/O1/tracking", staff,
		map[string]string{"tracking_number": " GU-123 ", "courier_name": "Servientrega"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	o := decode[dto.OrderResponse](t, resp)
	assert.Equal(t, "GU-123", o.TrackingNumber)
	assert.Equal(t, "Servientrega", o.CourierName)

	resp = f.call(t, http.MethodGet, "/api/orders/O1/packing-slip", staff, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	assert.True(t, bytes.HasPrefix(raw, []byte("%PDF")))
}

func TestDevolucion_CicloCompletoPorHTTP(t *testing.T) {
	f := newAPI(t)
	f.seedOrder("O1", entity.OrderStatusDelivered, 48*time.Hour)
	customer := tokenFor(t, "U1", pkgjwt.RoleCustomer)
	staff := tokenForRole(t, pkgjwt.RoleStaff)

	resp := f.call(t, http.MethodPost, "/api/orders/O1/returns", customer, map[string]string{"reason": "talla incorrecta"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	ret := decode[dto.ReturnResponse](t, resp)
	assert.Equal(t, entity.ReturnStatusRequested, ret.Status)

	resp = f.call(t, http.MethodPost, "/api/orders/O1/returns", customer, map[string]string{"reason": "otra vez"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "DUPLICATE_RETURN", decode[dto.ErrorResponse](t, resp).Code)

	path := "/api/returns/" + ret.ID
	resp = f.call(t, http.MethodPost, path+"/transitions", staff, map[string]any{"status": "approved", "refund_amount": "60"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	ret = decode[dto.ReturnResponse](t, resp)
	assert.True(t, decimal.NewFromInt(60).Equal(ret.RefundAmount))

	resp = f.call(t, http.MethodPost, path+"/transitions", staff, map[string]any{"status": "received", "notes": "caja abierta"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	ret = decode[dto.ReturnResponse](t, resp)
	assert.Equal(t, "caja abierta", ret.AdminNotes)

	resp = f.call(t, http.MethodGet, "/api/orders/O1", staff, nil)
	assert.Equal(t, entity.OrderStatusReturned, decode[dto.OrderResponse](t, resp).Status)

	resp = f.call(t, http.MethodPost, path+"/restock", staff, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotNil(t, decode[dto.ReturnResponse](t, resp).RestockedAt)

	resp = f.call(t, http.MethodPost, path+"/restock", staff, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "ALREADY_RESTOCKED", decode[dto.ErrorResponse](t, resp).Code)

	resp = f.call(t, http.MethodGet, "/api/inventory/variants/V1", staff, nil)
	assert.Equal(t, 8, decode[dto.StockRecordResponse](t, resp).Stock)

	resp = f.call(t, http.MethodPost, path+"/transitions", staff, map[string]any{"status": "refunded"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = f.call(t, http.MethodGet, path, staff, nil)
	assert.Equal(t, entity.ReturnStatusRefunded, decode[dto.ReturnResponse](t, resp).Status)

	resp = f.call(t, http.MethodGet, "/api/orders/O1", staff, nil)
	assert.Equal(t, entity.OrderStatusRefunded, decode[dto.OrderResponse](t, resp).Status)
}

func TestDevolucion_OtroClienteYVentana(t *testing.T) {
	f := newAPI(t)
	f.seedOrder("O1", entity.OrderStatusDelivered, 48*time.Hour)
	f.seedOrder("O2", entity.OrderStatusDelivered, 20*24*time.Hour)

	resp := f.call(t, http.MethodPost, "/api/orders/O1/returns", tokenFor(t, "U2", pkgjwt.RoleCustomer), map[string]string{"reason": "x"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	resp = f.call(t, http.MethodPost, "/api/orders/O2/returns", tokenFor(t, "U1", pkgjwt.RoleCustomer), map[string]string{"reason": "x"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "RETURN_WINDOW_EXPIRED", decode[dto.ErrorResponse](t, resp).Code)

	resp = f.call(t, http.MethodPost, "/api/orders/O1/returns", tokenForRole(t, pkgjwt.RoleStaff), map[string]string{"reason": "x"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode, "solo clientes solicitan devoluciones")
}

func TestNotificaciones_DelUsuario(t *testing.T) {
	f := newAPI(t)
	f.seedOrder("O1", entity.OrderStatusPacked, time.Hour)
	staff := tokenForRole(t, pkgjwt.RoleStaff)

	resp := f.call(t, http.MethodPost, "/api/orders/O1/transitions", staff, map[string]string{"status": "shipped"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = f.call(t, http.MethodGet, "/api/me/notifications", tokenFor(t, "U1", pkgjwt.RoleCustomer), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[dto.NotificationListResponse](t, resp)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "Order Shipped", list.Items[0].Title)
	assert.Equal(t, "O1", list.Items[0].Metadata["order_id"])
	assert.Equal(t, 20, list.Page.Limit)

	resp = f.call(t, http.MethodGet, "/api/me/notifications?limit=1000000", tokenFor(t, "U1", pkgjwt.RoleCustomer), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, dto.MaxPageLimit, decode[dto.NotificationListResponse](t, resp).Page.Limit)

	resp = f.call(t, http.MethodGet, "/api/me/notifications", tokenFor(t, "U2", pkgjwt.RoleCustomer), nil)
	assert.Empty(t, decode[dto.NotificationListResponse](t, resp).Items)
}
