package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Harshitk-cp/opsconsole/internal/config"
	"github.com/Harshitk-cp/opsconsole/internal/model"
	"github.com/Harshitk-cp/opsconsole/pkg/logging"
)

type recorded struct {
	op, outcome string
}

type fakeRecorder struct {
	mu    sync.Mutex
	calls []recorded
}

func (r *fakeRecorder) UpstreamRequest(op, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, recorded{op, outcome})
}

func newTestClient(t *testing.T, handler http.Handler, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	upstreams := config.UpstreamsConfig{
		Order:     config.UpstreamConfig{BaseURL: srv.URL + "/order-api/"},
		Inventory: config.UpstreamConfig{BaseURL: srv.URL + "/inventory-api"},
	}
	return New(upstreams, config.ClientConfig{}, logger, opts...)
}

func TestCreateOrder(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/order-api/orders", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.JSONEq(t, `{"product_id":7,"quantity":3,"user_id":201}`, string(body))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"order":{"id":42,"product_id":7,"quantity":3,"user_id":201,"order_status":"PENDING"}}`))
	}))

	order, err := c.CreateOrder(context.Background(), 7, 3, 201)
	require.NoError(t, err)

	assert.Equal(t, model.Order{ID: 42, ProductID: 7, Quantity: 3, UserID: 201, OrderStatus: "PENDING"}, order)
	assert.Equal(t, "PENDING", order.Status())
}

func TestListInventory(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/inventory-api/inventory", r.URL.Path)
		_, _ = w.Write([]byte(`[{"product_id":7,"quantity":0},{"product_id":8,"quantity":15},{"product_id":9,"quantity":50}]`))
	}))

	items, err := c.ListInventory(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []model.InventoryItem{
		{ProductID: 7, Quantity: 0},
		{ProductID: 8, Quantity: 15},
		{ProductID: 9, Quantity: 50},
	}, items)
}

func TestListInventoryServerError(t *testing.T) {
	rec := &fakeRecorder{}
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}), WithRecorder(rec))

	items, err := c.ListInventory(context.Background())
	require.Error(t, err)
	assert.Nil(t, items)
	assert.EqualError(t, err, "Failed to fetch inventory")

	rf, ok := IsRequestFailed(err)
	require.True(t, ok)
	assert.Equal(t, OpListInventory, rf.Op)
	assert.Equal(t, ApplicationFailure, rf.Kind)
	assert.Equal(t, http.StatusInternalServerError, rf.StatusCode)

	assert.Equal(t, []recorded{{"list_inventory", "application_failure"}}, rec.calls)
}

func TestTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	c := New(config.UpstreamsConfig{
		Order:     config.UpstreamConfig{BaseURL: base},
		Inventory: config.UpstreamConfig{BaseURL: base},
	}, config.ClientConfig{}, nil)

	_, err := c.ListProducts(context.Background())
	require.Error(t, err)
	assert.EqualError(t, err, "Failed to fetch products")

	rf, ok := IsRequestFailed(err)
	require.True(t, ok)
	assert.Equal(t, TransportFailure, rf.Kind)
	assert.Equal(t, 0, rf.StatusCode)
	assert.NotNil(t, rf.Unwrap())
}

func TestUndecodableBodyIsApplicationFailure(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>maintenance</html>`))
	}))

	_, err := c.ListOrders(context.Background())
	require.Error(t, err)
	assert.EqualError(t, err, "Failed to fetch orders")

	rf, ok := IsRequestFailed(err)
	require.True(t, ok)
	assert.Equal(t, ApplicationFailure, rf.Kind)
	assert.Equal(t, http.StatusOK, rf.StatusCode)
}

func TestUpdateInventory(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/inventory-api/inventory", r.URL.Path)

		var req model.UpdateInventoryRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, model.UpdateInventoryRequest{ProductID: 8, Quantity: 40}, req)

		_ = json.NewEncoder(w).Encode(model.InventoryItem{ProductID: req.ProductID, Quantity: req.Quantity})
	}))

	item, err := c.UpdateInventory(context.Background(), 8, 40)
	require.NoError(t, err)
	assert.Equal(t, model.InventoryItem{ProductID: 8, Quantity: 40}, item)
}

func TestCreateOrderIsNotRetried(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		mu.Unlock()
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	_, err := c.CreateOrder(context.Background(), 1, 1, 1)
	assert.EqualError(t, err, "Failed to create order")

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, calls)
}

func TestRequestIDIsPropagated(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "req-123", r.Header.Get(RequestIDHeader))
		_, _ = w.Write([]byte(`[{"id":1,"name":"Widget"}]`))
	}))

	ctx := logging.ContextWithRequestID(context.Background(), "req-123")
	products, err := c.ListProducts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.Product{{ID: 1, Name: "Widget"}}, products)
}

func TestOpReason(t *testing.T) {
	assert.Equal(t, "Failed to update inventory", OpUpdateInventory.Reason())
	assert.Equal(t, "Request ping failed", Op("ping").Reason())
}
