package service

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Harshitk-cp/opsconsole/internal/config"
	"github.com/Harshitk-cp/opsconsole/internal/metrics"
	"github.com/Harshitk-cp/opsconsole/internal/model"
	"github.com/Harshitk-cp/opsconsole/internal/status"
	"github.com/Harshitk-cp/opsconsole/libs/health"
	"github.com/Harshitk-cp/opsconsole/pkg/util"
)

// Monitored service ids
const (
	ServiceOrder     = "order"
	ServiceInventory = "inventory"
)

// StatusLoading is reported for a service that has not been polled yet
const StatusLoading = "LOADING"

// Feed message types
const (
	MessageMonitor  = "monitor"
	MessageSnapshot = "snapshot"
)

// UpstreamAPI is the order and inventory API used by the console
type UpstreamAPI interface {
	ListProducts(ctx context.Context) ([]model.Product, error)
	ListOrders(ctx context.Context) ([]model.Order, error)
	CreateOrder(ctx context.Context, productID, quantity, userID int64) (model.Order, error)
	ListInventory(ctx context.Context) ([]model.InventoryItem, error)
	UpdateInventory(ctx context.Context, productID, quantity int64) (model.InventoryItem, error)
}

// Broadcaster publishes feed messages to live clients
type Broadcaster interface {
	Broadcast(message []byte)
}

// InventoryRow is an inventory item with its derived stock status
type InventoryRow struct {
	ProductID   int64              `json:"product_id"`
	Quantity    int64              `json:"quantity"`
	StockStatus status.StockStatus `json:"stock_status"`
	Low         bool               `json:"low"`
}

// OrderRow is an order with its status defaulted
type OrderRow struct {
	ID        int64  `json:"id"`
	ProductID int64  `json:"product_id"`
	Quantity  int64  `json:"quantity"`
	UserID    int64  `json:"user_id"`
	Status    string `json:"order_status"`
}

// DependencyView is one dependency reported by a service health check
type DependencyView struct {
	Name   string `json:"name"`
	Label  string `json:"label"`
	Status string `json:"status"`
}

// ServiceCard is the monitor card of one service
type ServiceCard struct {
	ID           string           `json:"id"`
	Title        string           `json:"title"`
	Endpoint     string           `json:"endpoint"`
	HTTPStatus   int              `json:"http_status"`
	Status       string           `json:"status"`
	Reachable    bool             `json:"reachable"`
	Reason       string           `json:"reason,omitempty"`
	Dependencies []DependencyView `json:"dependencies"`
	CheckedAt    *time.Time       `json:"checked_at,omitempty"`
}

// MonitorView is the system monitor page
type MonitorView struct {
	Services    []ServiceCard `json:"services"`
	LastUpdated *time.Time    `json:"last_updated,omitempty"`
}

// FeedMessage is sent to live monitor clients
type FeedMessage struct {
	Type        string       `json:"type"`
	Monitor     *MonitorView `json:"monitor,omitempty"`
	Service     *ServiceCard `json:"service,omitempty"`
	LastUpdated *time.Time   `json:"last_updated,omitempty"`
}

// ConsoleService serves the console views over the order and inventory services
type ConsoleService struct {
	cfg     *config.Config
	api     UpstreamAPI
	poller  *health.Poller
	feed    Broadcaster
	metrics metrics.Collector
	logger  logrus.FieldLogger

	startTime time.Time

	mu          sync.RWMutex
	snapshots   map[string]health.Snapshot
	lastUpdated time.Time

	monitorMu sync.Mutex
	sub       *health.Subscription
}

// MonitorTargets returns the services the console polls, in display order
func MonitorTargets(upstreams config.UpstreamsConfig) []health.Target {
	return []health.Target{
		{ID: ServiceOrder, Name: upstreams.Order.Name, URL: upstreams.Order.HealthURL},
		{ID: ServiceInventory, Name: upstreams.Inventory.Name, URL: upstreams.Inventory.HealthURL},
	}
}

// NewConsoleService creates a new console service
func NewConsoleService(
	cfg *config.Config,
	api UpstreamAPI,
	poller *health.Poller,
	feed Broadcaster,
	m metrics.Collector,
	logger logrus.FieldLogger,
) *ConsoleService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &ConsoleService{
		cfg:       cfg,
		api:       api,
		poller:    poller,
		feed:      feed,
		metrics:   m,
		logger:    logger.WithField("component", "console"),
		startTime: time.Now(),
		snapshots: make(map[string]health.Snapshot),
	}
}

// Products returns the product catalog
func (s *ConsoleService) Products(ctx context.Context) ([]model.Product, error) {
	products, err := s.api.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	if products == nil {
		products = []model.Product{}
	}
	return products, nil
}

// Orders returns every order with its status defaulted to PENDING
func (s *ConsoleService) Orders(ctx context.Context) ([]OrderRow, error) {
	orders, err := s.api.ListOrders(ctx)
	if err != nil {
		return nil, err
	}

	rows := make([]OrderRow, 0, len(orders))
	for _, o := range orders {
		rows = append(rows, OrderRow{
			ID:        o.ID,
			ProductID: o.ProductID,
			Quantity:  o.Quantity,
			UserID:    o.UserID,
			Status:    o.Status(),
		})
	}
	return rows, nil
}

// Inventory returns the stock levels with their stock status
func (s *ConsoleService) Inventory(ctx context.Context) ([]InventoryRow, error) {
	items, err := s.api.ListInventory(ctx)
	if err != nil {
		return nil, err
	}

	rows := make([]InventoryRow, 0, len(items))
	for _, item := range items {
		rows = append(rows, InventoryRow{
			ProductID:   item.ProductID,
			Quantity:    item.Quantity,
			StockStatus: status.StockStatusOf(item.Quantity),
			Low:         status.IsLow(item.Quantity),
		})
	}
	return rows, nil
}

// PlaceOrder checks the order form and creates the order
func (s *ConsoleService) PlaceOrder(ctx context.Context, form model.PlaceOrderForm) (model.Order, error) {
	if err := util.Validate(form); err != nil {
		return model.Order{}, model.ErrInvalidRequest.WithMessage(util.ValidationMessage(err))
	}

	userID, err := util.ParseUserID(form.UserID)
	if err != nil {
		return model.Order{}, model.ErrInvalidRequest.WithMessage("Please enter a valid User ID")
	}

	order, err := s.api.CreateOrder(ctx, form.ProductID, form.Quantity, userID)
	if err != nil {
		return model.Order{}, err
	}

	if order.OrderStatus == "" {
		order.OrderStatus = model.DefaultOrderStatus
	}

	s.logger.WithFields(logrus.Fields{
		"order_id":   order.ID,
		"product_id": order.ProductID,
		"quantity":   order.Quantity,
	}).Info("Order placed")

	return order, nil
}

// UpdateStock checks the stock form and sets the stock level
func (s *ConsoleService) UpdateStock(ctx context.Context, form model.UpdateStockForm) (InventoryRow, error) {
	if err := util.Validate(form); err != nil {
		return InventoryRow{}, model.ErrInvalidRequest.WithMessage(util.ValidationMessage(err))
	}

	item, err := s.api.UpdateInventory(ctx, form.ProductID, form.Quantity)
	if err != nil {
		return InventoryRow{}, err
	}

	s.logger.WithFields(logrus.Fields{
		"product_id": item.ProductID,
		"quantity":   item.Quantity,
	}).Info("Stock updated")

	return InventoryRow{
		ProductID:   item.ProductID,
		Quantity:    item.Quantity,
		StockStatus: status.StockStatusOf(item.Quantity),
		Low:         status.IsLow(item.Quantity),
	}, nil
}

// StartMonitoring starts health polling. Calling it while polling is a no-op.
func (s *ConsoleService) StartMonitoring() error {
	s.monitorMu.Lock()
	defer s.monitorMu.Unlock()

	if s.sub != nil && s.sub.Active() {
		return nil
	}

	sub, err := s.poller.Start(s.ApplySnapshot)
	if err != nil {
		return err
	}
	s.sub = sub
	return nil
}

// StopMonitoring stops health polling. No snapshot is applied after it returns.
func (s *ConsoleService) StopMonitoring() {
	s.monitorMu.Lock()
	sub := s.sub
	s.sub = nil
	s.monitorMu.Unlock()

	if sub != nil {
		sub.Stop()
	}
}

// Monitoring reports whether health polling is running
func (s *ConsoleService) Monitoring() bool {
	return s.poller.State() == health.StatePolling
}

// ApplySnapshot replaces the current snapshot of a service and publishes it
func (s *ConsoleService) ApplySnapshot(serviceID string, snapshot health.Snapshot) {
	now := time.Now()

	s.mu.Lock()
	prev, seen := s.snapshots[serviceID]
	s.snapshots[serviceID] = snapshot
	s.lastUpdated = now
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.HealthPolled(serviceID, string(snapshot.Kind), snapshot.HTTPStatus, snapshot.Up, snapshot.Latency)
	}

	current := status.ServiceStatus(snapshot)
	if !seen || status.ServiceStatus(prev) != current {
		logger := s.logger.WithFields(logrus.Fields{
			"service":     serviceID,
			"http_status": snapshot.HTTPStatus,
		})
		if snapshot.Reason != "" {
			logger = logger.WithField("reason", snapshot.Reason)
		}
		if current == status.Online {
			logger.Info("Service is online")
		} else {
			logger.Warn("Service is offline")
		}
	}

	if s.feed == nil {
		return
	}

	target, ok := s.target(serviceID)
	if !ok {
		return
	}

	card := buildCard(target, snapshot, true)
	msg, err := json.Marshal(FeedMessage{
		Type:        MessageSnapshot,
		Service:     &card,
		LastUpdated: &now,
	})
	if err != nil {
		s.logger.WithError(err).Error("Failed to encode snapshot message")
		return
	}
	s.feed.Broadcast(msg)
}

// Monitor returns the monitor cards of every service
func (s *ConsoleService) Monitor() MonitorView {
	s.mu.RLock()
	defer s.mu.RUnlock()

	view := MonitorView{
		Services: make([]ServiceCard, 0, len(s.poller.Targets())),
	}
	for _, target := range s.poller.Targets() {
		snapshot, ok := s.snapshots[target.ID]
		view.Services = append(view.Services, buildCard(target, snapshot, ok))
	}
	if !s.lastUpdated.IsZero() {
		lastUpdated := s.lastUpdated
		view.LastUpdated = &lastUpdated
	}
	return view
}

// InitialMessage is the first feed message of a live monitor client
func (s *ConsoleService) InitialMessage() []byte {
	view := s.Monitor()
	msg, err := json.Marshal(FeedMessage{
		Type:        MessageMonitor,
		Monitor:     &view,
		LastUpdated: view.LastUpdated,
	})
	if err != nil {
		s.logger.WithError(err).Error("Failed to encode monitor message")
		return nil
	}
	return msg
}

// RawHealth returns the raw health payload of every polled service
func (s *ConsoleService) RawHealth() map[string]json.RawMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()

	raw := make(map[string]json.RawMessage, len(s.snapshots))
	for id, snapshot := range s.snapshots {
		raw[id] = snapshot.Raw
	}
	return raw
}

// Health reports the console's own health
func (s *ConsoleService) Health() model.Health {
	s.mu.RLock()
	defer s.mu.RUnlock()

	checks := make(map[string]string)
	healthStatus := model.HealthStatusOK
	for _, target := range s.poller.Targets() {
		snapshot, ok := s.snapshots[target.ID]
		if !ok {
			checks[target.ID] = StatusLoading
			continue
		}
		checks[target.ID] = status.ServiceStatus(snapshot)
		if !snapshot.Up {
			healthStatus = model.HealthStatusDegraded
		}
	}

	return model.Health{
		Status:    string(healthStatus),
		Uptime:    int64(time.Since(s.startTime).Seconds()),
		StartTime: s.startTime,
		Checks:    checks,
		Version:   s.cfg.Service.Version,
	}
}

func (s *ConsoleService) target(id string) (health.Target, bool) {
	for _, t := range s.poller.Targets() {
		if t.ID == id {
			return t, true
		}
	}
	return health.Target{}, false
}

func buildCard(target health.Target, snapshot health.Snapshot, polled bool) ServiceCard {
	card := ServiceCard{
		ID:           target.ID,
		Title:        target.Name,
		Endpoint:     target.HealthURL(),
		Dependencies: []DependencyView{},
	}
	if !polled {
		card.Status = StatusLoading
		return card
	}

	checkedAt := snapshot.CheckedAt
	card.HTTPStatus = snapshot.HTTPStatus
	card.Status = status.ServiceStatus(snapshot)
	card.Reachable = snapshot.IsReachable()
	card.Reason = snapshot.Reason
	card.CheckedAt = &checkedAt

	deps := status.DependencyStatuses(snapshot)
	names := make([]string, 0, len(deps))
	for name := range deps {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		card.Dependencies = append(card.Dependencies, DependencyView{
			Name:   name,
			Label:  status.DependencyLabel(name),
			Status: deps[name],
		})
	}
	return card
}
