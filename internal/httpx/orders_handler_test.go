package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pressline/dryclean-api/internal/access"
	"github.com/pressline/dryclean-api/internal/apperr"
	"github.com/pressline/dryclean-api/internal/catalog"
	"github.com/pressline/dryclean-api/internal/ledger"
	"github.com/pressline/dryclean-api/internal/orders"
)

// memOrders is just enough of the order store for handler tests; the engine's
// own tests cover the store contract in depth.
type memOrders struct {
	mu   sync.Mutex
	seq  int64
	byID map[string]*orders.Order
}

func (s *memOrders) Create(ctx context.Context, o *orders.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	o.Number = orders.FormatNumber(2025, s.seq)
	cp := *o
	s.byID[o.ID] = &cp
	return nil
}

func (s *memOrders) Get(ctx context.Context, id string) (*orders.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.byID[id]
	if !ok {
		return nil, apperr.New(apperr.KindNotFound, "order not found")
	}
	cp := *o
	return &cp, nil
}

func (s *memOrders) UpdateStatus(ctx context.Context, orderID string, from, to orders.Status, change *orders.StatusChange, accrual *ledger.Entry, completedAt *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o := s.byID[orderID]
	if o.Status != from {
		return apperr.New(apperr.KindConcurrencyConflict, "concurrent status change")
	}
	o.Status = to
	return nil
}

func (s *memOrders) AddItem(ctx context.Context, orderID string, it *orders.OrderItem) error {
	return nil
}

func (s *memOrders) RemoveItem(ctx context.Context, orderID, itemID string) error {
	return nil
}

func (s *memOrders) ListByShop(ctx context.Context, shopID string, status orders.Status) ([]orders.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []orders.Order
	for _, o := range s.byID {
		if o.ShopID == shopID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (s *memOrders) ListByCustomer(ctx context.Context, customerID string) ([]orders.Order, error) {
	return nil, nil
}

type flatPricer struct{ cents int64 }

func (p flatPricer) PriceFor(ctx context.Context, shopID, serviceID, itemID string) (*catalog.ServicePrice, error) {
	return &catalog.ServicePrice{
		ID: "sp-1", ShopID: shopID, ServiceID: serviceID, ItemID: itemID,
		PriceCents: p.cents, Active: true,
	}, nil
}

// unreachableRedis returns a client that fails fast, exercising the
// cache-miss fallback paths.
func unreachableRedis() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
}

func newOrdersRouter() (chi.Router, *memOrders) {
	store := &memOrders{byID: map[string]*orders.Order{}}
	h := &OrdersHandler{
		Engine: &orders.Engine{
			Store:  store,
			Pricer: flatPricer{cents: 1250},
			Ledger: &ledger.Service{Policy: ledger.Policy{EarnPercent: 5}},
			Name:   "test-api",
		},
		Redis: unreachableRedis(),
	}
	r := chi.NewRouter()
	h.Register(r)
	return r, store
}

func createBody() string {
	pickup := time.Now().Add(24 * time.Hour).Format(time.RFC3339)
	delivery := time.Now().Add(72 * time.Hour).Format(time.RFC3339)
	return fmt.Sprintf(`{
		"shop_id": "shop-1",
		"customer_id": "cust-1",
		"pickup_at": %q,
		"delivery_at": %q,
		"items": [{"service_id": "svc-wash", "item_id": "item-shirt", "quantity": 2}]
	}`, pickup, delivery)
}

var testStaff = access.NewActor("staff-1", access.RoleStaff, "shop-1",
	access.CapTakeOrders, access.CapUpdateOrders)

func TestOrdersCreateEndpoint(t *testing.T) {
	router, _ := newOrdersRouter()

	req := withActor(httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(createBody())), testStaff)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "ORD-2025-0001", body["order_number"])
	assert.Equal(t, float64(2500), body["total_cents"])
	assert.Equal(t, "received", body["status"])
	assert.NotEmpty(t, body["order_id"])
}

func TestOrdersCreateRejectsBadBody(t *testing.T) {
	router, _ := newOrdersRouter()

	req := withActor(httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader("{")), testStaff)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOrdersTransitionEndpoint(t *testing.T) {
	router, store := newOrdersRouter()

	req := withActor(httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(createBody())), testStaff)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))
	orderID := created["order_id"].(string)

	req = withActor(httptest.NewRequest(http.MethodPatch, "/orders/"+orderID+"/status",
		strings.NewReader(`{"status": "in_progress"}`)), testStaff)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, orders.StatusInProgress, store.byID[orderID].Status)

	// moving backwards conflicts with the workflow
	req = withActor(httptest.NewRequest(http.MethodPatch, "/orders/"+orderID+"/status",
		strings.NewReader(`{"status": "received"}`)), testStaff)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusConflict, rec.Code)

	var body errorBody
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, apperr.KindInvalidTransition, body.ErrorKind)
}

func TestOrdersStatusFallsBackToStore(t *testing.T) {
	router, _ := newOrdersRouter()

	req := withActor(httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(createBody())), testStaff)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))
	orderID := created["order_id"].(string)

	req = withActor(httptest.NewRequest(http.MethodGet, "/orders/"+orderID+"/status", nil), testStaff)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "received", body["status"])
}

func TestOrdersGetHidesOtherShops(t *testing.T) {
	router, _ := newOrdersRouter()

	req := withActor(httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(createBody())), testStaff)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))
	orderID := created["order_id"].(string)

	outsider := access.NewActor("staff-9", access.RoleStaff, "shop-9", access.CapTakeOrders)
	req = withActor(httptest.NewRequest(http.MethodGet, "/orders/"+orderID, nil), outsider)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
