package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/example/pickupshop/pkg/catalog"
	"github.com/example/pickupshop/pkg/config"
	"github.com/example/pickupshop/pkg/customer"
	"github.com/example/pickupshop/pkg/order"
	"github.com/example/pickupshop/pkg/models"
	"github.com/example/pickupshop/pkg/repository"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	adminUser = "administrador"
	adminPass = "s3cret"
)

type testGateway struct {
	t       *testing.T
	handler http.Handler
	store   *catalog.Store
	session string
}

func newTestGateway(t *testing.T, opts ...Option) *testGateway {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()
	repo := repository.NewCollections(repository.NewMemoryStore(), "test")
	store, err := catalog.Open(ctx, repo, zap.NewNop())
	require.NoError(t, err)
	orders, err := order.NewManager(ctx, order.Options{Catalog: store, Repository: repo})
	require.NoError(t, err)

	cfg := &config.Config{
		Gateway: config.GatewayConfig{CartTTL: time.Hour},
		Admin:   config.AdminConfig{Username: adminUser, Password: adminPass},
	}
	g := NewGateway(cfg, zap.NewNop(), store, orders, customer.NewDirectory(orders), opts...)
	return &testGateway{t: t, handler: g.Handler(), store: store, session: "session-a"}
}

func (tg *testGateway) do(method, path string, body interface{}, admin bool) *httptest.ResponseRecorder {
	tg.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(tg.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if tg.session != "" {
		req.Header.Set(SessionHeader, tg.session)
	}
	if admin {
		req.SetBasicAuth(adminUser, adminPass)
	}
	w := httptest.NewRecorder()
	tg.handler.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func (tg *testGateway) available(id, label string) int {
	n, err := tg.store.Available(id, label)
	require.NoError(tg.t, err)
	return n
}

var maria = map[string]interface{}{
	"customer": map[string]string{
		"identifier": "123.456.789-01",
		"name":       "Maria Souza",
		"phone":      "(11) 98888-7777",
	},
}

func TestStorefrontCheckout(t *testing.T) {
	tg := newTestGateway(t)

	w := tg.do(http.MethodGet, "/api/v1/catalog", nil, false)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["groups"], 2)

	for i := 0; i < 2; i++ {
		w = tg.do(http.MethodPost, "/api/v1/cart/items", map[string]string{"product_id": "1", "variant": "M"}, false)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}
	cart := decode(t, w)
	assert.Equal(t, float64(2), cart["count"])
	assert.Equal(t, "119.8", cart["total"])

	w = tg.do(http.MethodPost, "/api/v1/checkout", maria, false)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	o := decode(t, w)
	assert.Equal(t, "awaiting_pickup", o["status"])
	assert.Equal(t, "Aguardando Retirada", o["status_label"])
	assert.Equal(t, 3, tg.available("1", "M"))

	w = tg.do(http.MethodGet, "/api/v1/cart", nil, false)
	assert.Empty(t, decode(t, w)["lines"])

	w = tg.do(http.MethodGet, "/api/v1/customers/12345678901", nil, false)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Maria Souza", decode(t, w)["name"])

	w = tg.do(http.MethodGet, "/api/v1/customers/123.456.789-01/orders", nil, false)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["orders"], 1)
}

func TestCartIssuesSessionAndCapsStock(t *testing.T) {
	tg := newTestGateway(t)
	tg.session = ""

	w := tg.do(http.MethodPost, "/api/v1/cart/items", map[string]string{"product_id": "2", "variant": "42"}, false)
	require.Equal(t, http.StatusOK, w.Code)
	issued := w.Header().Get(SessionHeader)
	require.NotEmpty(t, issued)

	tg.session = issued
	w = tg.do(http.MethodPost, "/api/v1/cart/items", map[string]string{"product_id": "2", "variant": "42"}, false)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = tg.do(http.MethodPatch, "/api/v1/cart/items/2-42", map[string]int{"delta": 1}, false)
	assert.Equal(t, http.StatusConflict, w.Code)
	w = tg.do(http.MethodPatch, "/api/v1/cart/items/nope", map[string]int{"delta": 1}, false)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = tg.do(http.MethodPost, "/api/v1/cart/items", map[string]string{"product_id": "missing"}, false)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = tg.do(http.MethodDelete, "/api/v1/cart/items/2-42", nil, false)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode(t, w)["lines"])
}

func TestCheckoutValidationErrors(t *testing.T) {
	tg := newTestGateway(t)

	w := tg.do(http.MethodPost, "/api/v1/checkout", maria, false)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	tg.do(http.MethodPost, "/api/v1/cart/items", map[string]string{"product_id": "1", "variant": "P"}, false)
	w = tg.do(http.MethodPost, "/api/v1/checkout", map[string]interface{}{
		"customer": map[string]string{"identifier": "123", "name": "", "phone": ""},
	}, false)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, 5, tg.available("1", "P"))
}

func TestAdminOrderLifecycle(t *testing.T) {
	tg := newTestGateway(t)
	tg.do(http.MethodPost, "/api/v1/cart/items", map[string]string{"product_id": "1", "variant": "GG"}, false)
	w := tg.do(http.MethodPost, "/api/v1/checkout", maria, false)
	require.Equal(t, http.StatusCreated, w.Code)
	id := decode(t, w)["id"].(string)
	assert.Equal(t, 1, tg.available("1", "GG"))

	w = tg.do(http.MethodGet, "/api/v1/admin/orders", nil, false)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = tg.do(http.MethodGet, "/api/v1/admin/orders?status=awaiting_pickup", nil, true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["total"])

	w = tg.do(http.MethodPut, "/api/v1/admin/orders/"+id+"/status", map[string]string{"status": "cancelled"}, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = tg.do(http.MethodPut, "/api/v1/admin/orders/"+id+"/status", map[string]string{"status": "shipped"}, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = tg.do(http.MethodPut, "/api/v1/admin/orders/"+id+"/status", map[string]string{
		"status":        "cancelled",
		"justification": "Tempo limite expirado",
	}, true)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, "cancelled", body["status"])
	assert.Equal(t, "Cancelado", body["status_label"])
	assert.Equal(t, 2, tg.available("1", "GG"))

	w = tg.do(http.MethodPost, "/api/v1/admin/orders/"+id+"/cancel", map[string]string{"justification": "again"}, true)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, 2, tg.available("1", "GG"))

	w = tg.do(http.MethodGet, "/api/v1/admin/orders/unknown", nil, true)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminPickup(t *testing.T) {
	tg := newTestGateway(t)
	tg.do(http.MethodPost, "/api/v1/cart/items", map[string]string{"product_id": "2", "variant": "36"}, false)
	w := tg.do(http.MethodPost, "/api/v1/checkout", maria, false)
	require.Equal(t, http.StatusCreated, w.Code)
	id := decode(t, w)["id"].(string)

	w = tg.do(http.MethodPut, "/api/v1/admin/orders/"+id+"/status", map[string]string{"status": "picked_up"}, true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Retirado (Pago)", decode(t, w)["status_label"])

	w = tg.do(http.MethodPut, "/api/v1/admin/orders/"+id+"/status", map[string]string{"status": "picked_up"}, true)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, 1, tg.available("2", "36"))
}

func TestAdminCatalogManagement(t *testing.T) {
	tg := newTestGateway(t)

	w := tg.do(http.MethodPost, "/api/v1/admin/products", map[string]interface{}{
		"name":     "Boné",
		"price":    "39.90",
		"category": "Acessórios",
		"stock":    4,
		"variants": []map[string]interface{}{{"label": "", "stock": 9}},
	}, true)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode(t, w)
	id := created["id"].(string)
	assert.Equal(t, float64(4), created["stock"])
	assert.NotEmpty(t, created["image"])

	w = tg.do(http.MethodPut, "/api/v1/admin/products/"+id, map[string]interface{}{
		"name":     "Boné",
		"price":    "39.90",
		"category": "Acessórios",
		"variants": []map[string]interface{}{{"label": "U", "stock": 3}},
	}, true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(3), decode(t, w)["stock"])

	w = tg.do(http.MethodPut, "/api/v1/admin/products/missing", map[string]interface{}{"name": "x", "price": "1"}, true)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = tg.do(http.MethodPost, "/api/v1/admin/products", map[string]interface{}{"name": " ", "price": "1"}, true)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = tg.do(http.MethodGet, "/api/v1/catalog", nil, false)
	groups := decode(t, w)["groups"].([]interface{})
	last := groups[len(groups)-1].(map[string]interface{})
	assert.Equal(t, catalog.OthersGroup, last["category"].(map[string]interface{})["name"])

	w = tg.do(http.MethodPost, "/api/v1/admin/categories", map[string]string{"name": "Acessórios"}, true)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, float64(3), decode(t, w)["id"])
	w = tg.do(http.MethodPost, "/api/v1/admin/categories", map[string]string{"name": "Acessórios"}, true)
	assert.Equal(t, http.StatusConflict, w.Code)
	w = tg.do(http.MethodDelete, "/api/v1/admin/categories/3", nil, true)
	assert.Equal(t, http.StatusOK, w.Code)
	w = tg.do(http.MethodDelete, "/api/v1/admin/categories/abc", nil, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = tg.do(http.MethodDelete, "/api/v1/admin/products/"+id, nil, true)
	assert.Equal(t, http.StatusOK, w.Code)
	w = tg.do(http.MethodGet, "/api/v1/products/"+id, nil, false)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

type memoryHistory struct {
	events []models.OrderEvent
}

func (m *memoryHistory) Publish(_ context.Context, e models.OrderEvent) error {
	m.events = append(m.events, e)
	return nil
}

func (m *memoryHistory) History(_ context.Context, orderID string, limit int64) ([]*repository.AuditLog, error) {
	out := []*repository.AuditLog{}
	for i := len(m.events) - 1; i >= 0 && int64(len(out)) < limit; i-- {
		if m.events[i].OrderID == orderID {
			out = append(out, repository.AuditLogFromEvent(m.events[i]))
		}
	}
	return out, nil
}

func TestOrderHistory(t *testing.T) {
	tg := newTestGateway(t)
	w := tg.do(http.MethodGet, "/api/v1/admin/orders/any/history", nil, true)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	h := &memoryHistory{}
	tg = newTestGateway(t, WithHistory(h))
	tg.do(http.MethodPost, "/api/v1/cart/items", map[string]string{"product_id": "1", "variant": "P"}, false)
	w = tg.do(http.MethodPost, "/api/v1/checkout", maria, false)
	require.Equal(t, http.StatusCreated, w.Code)
	id := decode(t, w)["id"].(string)
	h.events = append(h.events, models.OrderEvent{Type: models.EventOrderCreated, OrderID: id, Status: models.StatusAwaitingPickup})

	w = tg.do(http.MethodGet, "/api/v1/admin/orders/"+id+"/history", nil, true)
	require.Equal(t, http.StatusOK, w.Code)
	events := decode(t, w)["events"].([]interface{})
	require.Len(t, events, 1)
	assert.Equal(t, "order.created", events[0].(map[string]interface{})["action"])

	w = tg.do(http.MethodGet, "/api/v1/admin/orders/unknown/history", nil, true)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
