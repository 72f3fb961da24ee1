package http_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Almacen-api/internal/application/auth"
	"github.com/jhoicas/Almacen-api/internal/application/dto"
	"github.com/jhoicas/Almacen-api/internal/application/inventory"
	"github.com/jhoicas/Almacen-api/internal/application/usecase"
	"github.com/jhoicas/Almacen-api/internal/infrastructure/memory"
	"github.com/jhoicas/Almacen-api/internal/infrastructure/pdf"
	"github.com/jhoicas/Almacen-api/internal/infrastructure/xmlexport"
	apphttp "github.com/jhoicas/Almacen-api/internal/interfaces/http"
)

// ──────────────────────────────────────────────────────────────────────────────
// API completa sobre el store en memoria
// ──────────────────────────────────────────────────────────────────────────────

type apiClient struct {
	t   *testing.T
	app *fiber.App
}

func newAPI(t *testing.T) *apiClient {
	t.Helper()
	store := memory.NewStore()
	repos := memory.NewRepositories(store)
	runner := memory.NewTxRunner(store)

	ledger := inventory.NewRegisterMovementUseCase(runner, repos.Items, repos.Stock, repos.Movements, inventory.Options{})
	deps := apphttp.RouterDeps{
		AuthUC: auth.NewAuthUseCase(repos.Users, repos.Revoked,
			auth.JWTConfig{Secret: testJWTSecret, TTL: time.Hour, Issuer: testIssuer}, zerolog.Nop()),
		WarehouseUC: usecase.NewWarehouseUseCase(repos.Warehouses, repos.Locations, nil),
		LocationUC:  usecase.NewLocationUseCase(repos.Locations, repos.Warehouses, repos.Stock, repos.Movements, nil),
		ItemUC:      usecase.NewItemUseCase(runner, repos.Items, repos.Warehouses, repos.Locations, repos.Movements, ledger, nil),
		UserUC:      usecase.NewUserUseCase(repos.Users),
		Ledger:      ledger,
		Reports: inventory.NewReportUseCase(repos.Movements, repos.Items, repos.Locations, repos.Users,
			pdf.NewMarotoRenderer(), xmlexport.NewExporter()),
	}
	app := fiber.New()
	apphttp.Router(app, deps)
	return &apiClient{t: t, app: app}
}

func (a *apiClient) do(method, path, token string, body any, headers ...string) (*http.Response, []byte) {
	a.t.Helper()
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := a.app.Test(req, -1)
	require.NoError(a.t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(a.t, err)
	return resp, out
}

// decode exige el status esperado y decodifica el cuerpo.
func (a *apiClient) decode(resp *http.Response, raw []byte, status int, out any) {
	a.t.Helper()
	require.Equal(a.t, status, resp.StatusCode, string(raw))
	if out != nil {
		require.NoError(a.t, json.Unmarshal(raw, out))
	}
}

func (a *apiClient) login(email, password string) string {
	a.t.Helper()
	var out dto.LoginResponse
	resp, raw := a.do(http.MethodPost, "/api/auth/login", "", dto.LoginRequest{Email: email, Password: password})
	a.decode(resp, raw, http.StatusOK, &out)
	require.NotEmpty(a.t, out.Token)
	return out.Token
}

func errorCode(t *testing.T, raw []byte) string {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body), string(raw))
	code, _ := body["code"].(string)
	return code
}

type fixture struct {
	token     string
	warehouse string
	locA      string
	locB      string
	item      string
}

// seed registra el admin, crea bodega con dos ubicaciones y un artículo con 10 unidades en A.
func seed(a *apiClient) fixture {
	a.t.Helper()
	var user dto.UserResponse
	resp, raw := a.do(http.MethodPost, "/api/auth/register", "", dto.RegisterRequest{
		Email: "Admin@Almacen.test", Password: "secreto-123", FullName: "Admin",
	})
	a.decode(resp, raw, http.StatusCreated, &user)
	require.Equal(a.t, "admin", user.Role, "el primer usuario queda como admin")

	f := fixture{token: a.login("admin@almacen.test", "secreto-123")}

	var wh dto.WarehouseResponse
	resp, raw = a.do(http.MethodPost, "/api/warehouses", f.token, dto.CreateWarehouseRequest{Name: "Central", Capacity: 100})
	a.decode(resp, raw, http.StatusCreated, &wh)
	f.warehouse = wh.ID

	for _, code := range []string{"A-01", "B-01"} {
		var loc dto.LocationResponse
		resp, raw = a.do(http.MethodPost, "/api/warehouses/"+wh.ID+"/locations", f.token,
			dto.CreateLocationRequest{Name: "Estante " + code, Code: code})
		a.decode(resp, raw, http.StatusCreated, &loc)
		if f.locA == "" {
			f.locA = loc.ID
		} else {
			f.locB = loc.ID
		}
	}

	qty := decimal.NewFromInt(10)
	var item dto.ItemResponse
	resp, raw = a.do(http.MethodPost, "/api/inventory", f.token, dto.CreateItemRequest{
		Name: "Tornillo", SKU: "TOR-001", WarehouseID: wh.ID, Quantity: &qty, LocationID: &f.locA,
	})
	a.decode(resp, raw, http.StatusCreated, &item)
	require.True(a.t, item.Quantity.Equal(qty))
	f.item = item.ID
	return f
}

func TestAPI_FlujoDeMovimientos(t *testing.T) {
	a := newAPI(t)
	f := seed(a)

	// move A→B de 4 unidades
	var moved dto.ApplyMovementResponse
	resp, raw := a.do(http.MethodPost, "/api/stock-movements", f.token, dto.CreateMovementRequest{
		ItemID: f.item, MovementType: "move", Quantity: decimal.NewFromInt(4),
		FromLocationID: &f.locA, ToLocationID: &f.locB,
	})
	a.decode(resp, raw, http.StatusCreated, &moved)
	assert.True(t, moved.ItemQuantity.Equal(decimal.NewFromInt(10)), "move no cambia el total")
	require.Len(t, moved.Balances, 2)

	// outbound mayor al disponible en B
	resp, raw = a.do(http.MethodPost, "/api/stock-movements", f.token, dto.CreateMovementRequest{
		ItemID: f.item, MovementType: "outbound", Quantity: decimal.NewFromInt(5), FromLocationID: &f.locB,
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "INSUFFICIENT_STOCK", errorCode(t, raw))

	var balances dto.ItemBalancesResponse
	resp, raw = a.do(http.MethodGet, "/api/inventory/"+f.item+"/balances", f.token, nil)
	a.decode(resp, raw, http.StatusOK, &balances)
	assert.True(t, balances.Quantity.Equal(decimal.NewFromInt(10)))
	got := map[string]string{}
	for _, b := range balances.Balances {
		got[b.LocationID] = b.Quantity.String()
	}
	assert.Equal(t, "6", got[f.locA])
	assert.Equal(t, "4", got[f.locB])

	var list dto.MovementListResponse
	resp, raw = a.do(http.MethodGet, "/api/stock-movements?item_id="+f.item, f.token, nil)
	a.decode(resp, raw, http.StatusOK, &list)
	require.Len(t, list.Items, 2, "cantidad inicial + move; el rechazado no queda en el libro")
	assert.Equal(t, "move", list.Items[0].MovementType, "más reciente primero")
	assert.Equal(t, "inbound", list.Items[1].MovementType)
}

func TestAPI_IdempotencyKeyDevuelveElMovimientoOriginal(t *testing.T) {
	a := newAPI(t)
	f := seed(a)
	body := dto.CreateMovementRequest{
		ItemID: f.item, MovementType: "inbound", Quantity: decimal.NewFromInt(3), ToLocationID: &f.locB,
	}

	var first, second dto.ApplyMovementResponse
	resp, raw := a.do(http.MethodPost, "/api/stock-movements", f.token, body, apphttp.HeaderIdempotencyKey, "rec-42")
	a.decode(resp, raw, http.StatusCreated, &first)
	resp, raw = a.do(http.MethodPost, "/api/stock-movements", f.token, body, apphttp.HeaderIdempotencyKey, "rec-42")
	a.decode(resp, raw, http.StatusOK, &second)

	assert.Equal(t, first.Movement.ID, second.Movement.ID)
	assert.True(t, second.Replayed)
	assert.True(t, second.ItemQuantity.Equal(decimal.NewFromInt(13)), "la repetición no vuelve a sumar")

	// misma clave con otro cuerpo
	body.Quantity = decimal.NewFromInt(7)
	resp, raw = a.do(http.MethodPost, "/api/stock-movements", f.token, body, apphttp.HeaderIdempotencyKey, "rec-42")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "CONFLICT", errorCode(t, raw))
}

func TestAPI_ValidacionesDeMovimiento(t *testing.T) {
	a := newAPI(t)
	f := seed(a)

	cases := []struct {
		name string
		body dto.CreateMovementRequest
	}{
		{"tipo heredado", dto.CreateMovementRequest{ItemID: f.item, MovementType: "IN", Quantity: decimal.NewFromInt(1), ToLocationID: &f.locA}},
		{"cantidad cero", dto.CreateMovementRequest{ItemID: f.item, MovementType: "inbound", Quantity: decimal.Zero, ToLocationID: &f.locA}},
		{"inbound sin destino", dto.CreateMovementRequest{ItemID: f.item, MovementType: "inbound", Quantity: decimal.NewFromInt(1)}},
		{"move misma ubicación", dto.CreateMovementRequest{ItemID: f.item, MovementType: "move", Quantity: decimal.NewFromInt(1), FromLocationID: &f.locA, ToLocationID: &f.locA}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, raw := a.do(http.MethodPost, "/api/stock-movements", f.token, tc.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode, string(raw))
		})
	}

	missing := "no-existe"
	resp, _ := a.do(http.MethodPost, "/api/stock-movements", f.token, dto.CreateMovementRequest{
		ItemID: f.item, MovementType: "inbound", Quantity: decimal.NewFromInt(1), ToLocationID: &missing,
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = a.do(http.MethodPost, "/api/stock-movements", f.token, dto.CreateMovementRequest{
		ItemID: "1", MovementType: "inbound", Quantity: decimal.NewFromInt(1), ToLocationID: &f.locA,
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode, "un id entero de cliente antiguo es un artículo inexistente")
}

func TestAPI_CantidadDelArticuloEsSoloLectura(t *testing.T) {
	a := newAPI(t)
	f := seed(a)

	qty := decimal.NewFromInt(99)
	resp, raw := a.do(http.MethodPut, "/api/inventory/"+f.item, f.token, dto.UpdateItemRequest{Quantity: &qty})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "QUANTITY_READ_ONLY", errorCode(t, raw))

	name := "Tornillo 3/8"
	var item dto.ItemResponse
	resp, raw = a.do(http.MethodPut, "/api/inventory/"+f.item, f.token, dto.UpdateItemRequest{Name: &name})
	a.decode(resp, raw, http.StatusOK, &item)
	assert.Equal(t, name, item.Name)
	assert.True(t, item.Quantity.Equal(decimal.NewFromInt(10)))
}

func TestAPI_AuditorSoloLee(t *testing.T) {
	a := newAPI(t)
	f := seed(a)

	var user dto.UserResponse
	resp, raw := a.do(http.MethodPost, "/api/auth/register", "", dto.RegisterRequest{Email: "audit@almacen.test", Password: "secreto-456"})
	a.decode(resp, raw, http.StatusCreated, &user)
	assert.Equal(t, "bodeguero", user.Role)

	role := "auditor"
	resp, raw = a.do(http.MethodPut, "/api/users/"+user.ID, f.token, dto.UpdateUserRequest{Role: &role})
	a.decode(resp, raw, http.StatusOK, nil)

	auditor := a.login("audit@almacen.test", "secreto-456")

	resp, _ = a.do(http.MethodGet, "/api/stock-movements", auditor, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, raw = a.do(http.MethodPost, "/api/stock-movements", auditor, dto.CreateMovementRequest{
		ItemID: f.item, MovementType: "inbound", Quantity: decimal.NewFromInt(1), ToLocationID: &f.locA,
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "FORBIDDEN", errorCode(t, raw))

	resp, _ = a.do(http.MethodGet, "/api/users", auditor, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode, "usuarios es solo admin")
}

func TestAPI_EliminarUbicacionConHistorialEsConflicto(t *testing.T) {
	a := newAPI(t)
	f := seed(a)

	resp, raw := a.do(http.MethodDelete, "/api/locations/"+f.locA, f.token, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode, string(raw))

	resp, _ = a.do(http.MethodDelete, "/api/locations/"+f.locB, f.token, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestAPI_ExportXMLLlevaDigest(t *testing.T) {
	a := newAPI(t)
	f := seed(a)

	resp, raw := a.do(http.MethodGet, "/api/stock-movements/export.xml?item_id="+f.item, f.token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	digest := resp.Header.Get(apphttp.HeaderLedgerDigest)
	require.Len(t, digest, 64)
	ok, err := xmlexport.Verify(raw, digest)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Contains(t, string(raw), "TOR-001")

	resp, raw = a.do(http.MethodGet, "/api/stock-movements/report.pdf", f.token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get(fiber.HeaderContentType))
	assert.True(t, bytes.HasPrefix(raw, []byte("%PDF")))
}

func TestAPI_LogoutRevocaElToken(t *testing.T) {
	a := newAPI(t)
	f := seed(a)

	resp, _ := a.do(http.MethodGet, "/api/auth/me", f.token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = a.do(http.MethodPost, "/api/auth/logout", f.token, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = a.do(http.MethodGet, "/api/auth/me", f.token, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
