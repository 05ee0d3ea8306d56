package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Harshitk-cp/opsconsole/internal/config"
	"github.com/Harshitk-cp/opsconsole/internal/model"
	"github.com/Harshitk-cp/opsconsole/pkg/logging"
)

// maxResponseBytes caps how much of an upstream response is decoded
const maxResponseBytes = 4 << 20

// RequestIDHeader carries the console request id to the upstream services
const RequestIDHeader = "X-Request-ID"

// Op identifies an upstream API operation
type Op string

// Upstream operations
const (
	OpListProducts    Op = "list_products"
	OpListOrders      Op = "list_orders"
	OpCreateOrder     Op = "create_order"
	OpListInventory   Op = "list_inventory"
	OpUpdateInventory Op = "update_inventory"
)

var reasons = map[Op]string{
	OpListProducts:    "Failed to fetch products",
	OpListOrders:      "Failed to fetch orders",
	OpCreateOrder:     "Failed to create order",
	OpListInventory:   "Failed to fetch inventory",
	OpUpdateInventory: "Failed to update inventory",
}

// Reason returns the human readable failure reason of the operation
func (o Op) Reason() string {
	if r, ok := reasons[o]; ok {
		return r
	}
	return fmt.Sprintf("Request %s failed", string(o))
}

// Recorder receives the outcome of every upstream call
type Recorder interface {
	UpstreamRequest(op, outcome string)
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithRecorder reports call outcomes to r
func WithRecorder(r Recorder) Option {
	return func(c *Client) {
		c.recorder = r
	}
}

// Client talks to the order and inventory services.
// Every call is a single attempt: nothing is retried, creation included.
type Client struct {
	orderBase     string
	inventoryBase string
	httpClient    *http.Client
	recorder      Recorder
	logger        logrus.FieldLogger
}

// New creates a new API client
func New(upstreams config.UpstreamsConfig, cfg config.ClientConfig, logger logrus.FieldLogger, opts ...Option) *Client {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	c := &Client{
		orderBase:     strings.TrimRight(upstreams.Order.BaseURL, "/"),
		inventoryBase: strings.TrimRight(upstreams.Inventory.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		logger: logger.WithField("component", "api-client"),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// ListProducts returns the product catalog of the order service
func (c *Client) ListProducts(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	if err := c.do(ctx, OpListProducts, http.MethodGet, c.orderBase+"/products", nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// ListOrders returns all orders known to the order service
func (c *Client) ListOrders(ctx context.Context) ([]model.Order, error) {
	var orders []model.Order
	if err := c.do(ctx, OpListOrders, http.MethodGet, c.orderBase+"/orders", nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// CreateOrder places a new order
func (c *Client) CreateOrder(ctx context.Context, productID, quantity, userID int64) (model.Order, error) {
	req := model.CreateOrderRequest{
		ProductID: productID,
		Quantity:  quantity,
		UserID:    userID,
	}

	var resp model.CreateOrderResponse
	if err := c.do(ctx, OpCreateOrder, http.MethodPost, c.orderBase+"/orders", req, &resp); err != nil {
		return model.Order{}, err
	}
	return resp.Order, nil
}

// ListInventory returns the stock level of every product
func (c *Client) ListInventory(ctx context.Context) ([]model.InventoryItem, error) {
	var items []model.InventoryItem
	if err := c.do(ctx, OpListInventory, http.MethodGet, c.inventoryBase+"/inventory", nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// UpdateInventory sets the stock level of a product
func (c *Client) UpdateInventory(ctx context.Context, productID, quantity int64) (model.InventoryItem, error) {
	req := model.UpdateInventoryRequest{
		ProductID: productID,
		Quantity:  quantity,
	}

	var item model.InventoryItem
	if err := c.do(ctx, OpUpdateInventory, http.MethodPost, c.inventoryBase+"/inventory", req, &item); err != nil {
		return model.InventoryItem{}, err
	}
	return item, nil
}

// do issues one request and decodes the JSON response into out
func (c *Client) do(ctx context.Context, op Op, method, url string, in, out interface{}) error {
	start := time.Now()
	logger := c.logger.WithFields(logrus.Fields{
		"op":     op,
		"method": method,
		"url":    url,
	})
	if id := logging.RequestIDFromContext(ctx); id != "" {
		logger = logger.WithField("request_id", id)
	}

	err := c.roundTrip(ctx, op, method, url, in, out)

	outcome := "success"
	if err != nil {
		outcome = string(err.Kind)
		logger.WithError(err.Unwrap()).WithFields(logrus.Fields{
			"status":   err.StatusCode,
			"duration": time.Since(start),
		}).Warn(err.Error())
	} else {
		logger.WithField("duration", time.Since(start)).Debug("Upstream request completed")
	}

	if c.recorder != nil {
		c.recorder.UpstreamRequest(string(op), outcome)
	}

	if err != nil {
		return err
	}
	return nil
}

func (c *Client) roundTrip(ctx context.Context, op Op, method, url string, in, out interface{}) *RequestFailedError {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return transportFailure(op, fmt.Errorf("failed to marshal request: %w", err))
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return transportFailure(op, fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if id := logging.RequestIDFromContext(ctx); id != "" {
		req.Header.Set(RequestIDHeader, id)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return transportFailure(op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return transportFailure(op, fmt.Errorf("failed to read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return applicationFailure(op, resp.StatusCode, fmt.Errorf("unexpected status %s", resp.Status))
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return applicationFailure(op, resp.StatusCode, fmt.Errorf("failed to decode response: %w", err))
		}
	}

	return nil
}
