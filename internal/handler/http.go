package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/Harshitk-cp/opsconsole/internal/client"
	"github.com/Harshitk-cp/opsconsole/internal/config"
	"github.com/Harshitk-cp/opsconsole/internal/metrics"
	"github.com/Harshitk-cp/opsconsole/internal/model"
	"github.com/Harshitk-cp/opsconsole/internal/service"
	"github.com/Harshitk-cp/opsconsole/pkg/logging"
	"github.com/Harshitk-cp/opsconsole/pkg/middleware"
)

// maxBodyBytes bounds the order and stock forms
const maxBodyBytes = 1 << 16

// HTTPHandler handles HTTP requests
type HTTPHandler struct {
	cfg         *config.Config
	console     *service.ConsoleService
	auth        *service.AuthService
	rateLimiter *service.RateLimiter
	metrics     metrics.Collector
	ws          http.Handler
	router      *mux.Router
}

// NewHTTPHandler creates a new HTTP handler
func NewHTTPHandler(
	cfg *config.Config,
	console *service.ConsoleService,
	auth *service.AuthService,
	rateLimiter *service.RateLimiter,
	collector metrics.Collector,
	ws http.Handler,
) *HTTPHandler {
	h := &HTTPHandler{
		cfg:         cfg,
		console:     console,
		auth:        auth,
		rateLimiter: rateLimiter,
		metrics:     collector,
		ws:          ws,
		router:      mux.NewRouter(),
	}

	// Set up routes
	h.setupRoutes()

	return h
}

// ServeHTTP implements the http.Handler interface
func (h *HTTPHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

// setupRoutes sets up the HTTP routes
func (h *HTTPHandler) setupRoutes() {
	if h.metrics != nil {
		h.router.Use(middleware.Metrics(h.metrics))
		h.router.Handle("/metrics", h.metrics.Handler()).Methods("GET")
	}

	// API routes
	api := h.router.PathPrefix(h.cfg.HTTP.APIPrefix).Subrouter()

	api.HandleFunc("/products", h.listProducts).Methods("GET")

	api.HandleFunc("/orders", h.listOrders).Methods("GET")
	api.Handle("/orders", h.mutating(h.placeOrder)).Methods("POST")

	api.HandleFunc("/inventory", h.listInventory).Methods("GET")
	api.Handle("/inventory", h.mutating(h.updateStock)).Methods("POST")

	api.HandleFunc("/monitor", h.monitor).Methods("GET")
	api.HandleFunc("/monitor/raw", h.rawHealth).Methods("GET")

	// Live monitor feed
	if h.ws != nil {
		h.router.Handle(h.cfg.WebSocket.Path, h.ws).Methods("GET")
	}

	// Health check
	h.router.HandleFunc("/health", h.healthCheck).Methods("GET")
}

// mutating guards handlers that change orders or stock. Auth runs first so
// the rate limit can be keyed by operator.
func (h *HTTPHandler) mutating(fn http.HandlerFunc) http.Handler {
	var next http.Handler = fn
	if h.rateLimiter != nil {
		next = middleware.RateLimit(h.rateLimiter)(next)
	}
	if h.auth != nil {
		next = middleware.Auth(h.auth)(next)
	}
	return next
}

// healthCheck handles the health check endpoint
func (h *HTTPHandler) healthCheck(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.console.Health())
}

func (h *HTTPHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.console.Products(r.Context())
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"products": products,
	})
}

func (h *HTTPHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.console.Orders(r.Context())
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"orders": orders,
	})
}

// placeOrder handles the order form
func (h *HTTPHandler) placeOrder(w http.ResponseWriter, r *http.Request) {
	var form model.PlaceOrderForm
	if err := decodeBody(w, r, &form); err != nil {
		respondWithError(w, r, err)
		return
	}

	order, err := h.console.PlaceOrder(r.Context(), form)
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Order placed successfully",
		"order":   order,
	})
}

func (h *HTTPHandler) listInventory(w http.ResponseWriter, r *http.Request) {
	rows, err := h.console.Inventory(r.Context())
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"inventory": rows,
	})
}

// updateStock handles the stock update form
func (h *HTTPHandler) updateStock(w http.ResponseWriter, r *http.Request) {
	var form model.UpdateStockForm
	if err := decodeBody(w, r, &form); err != nil {
		respondWithError(w, r, err)
		return
	}

	row, err := h.console.UpdateStock(r.Context(), form)
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Stock updated successfully",
		"item":    row,
	})
}

func (h *HTTPHandler) monitor(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.console.Monitor())
}

func (h *HTTPHandler) rawHealth(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.console.RawHealth())
}

// decodeBody decodes a JSON form into dst
func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return model.ErrInvalidRequest.WithMessage("Invalid request body").WithDetails(err.Error())
	}
	return nil
}

// respondWithJSON sends a JSON response
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	// Convert payload to JSON
	response, err := json.Marshal(payload)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"code":"internal_server_error","message":"failed to marshal response"}`))
		return
	}

	// Set headers
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// respondWithError maps err to an API error response. Failed calls to the
// order or inventory service become 502 with the failure reason as message.
func respondWithError(w http.ResponseWriter, r *http.Request, err error) {
	logger := logging.FromContext(r.Context()).WithError(err)

	var apiErr model.APIError
	if failure, ok := client.IsRequestFailed(err); ok {
		apiErr = model.ErrUpstreamFailed.WithMessage(failure.Error()).WithDetails(string(failure.Kind))
		logger.Warn("Upstream request failed")
	} else {
		apiErr = model.AsAPIError(err)
		if apiErr.Status >= http.StatusInternalServerError {
			logger.Error("Request failed")
		}
	}

	respondWithJSON(w, apiErr.Status, apiErr)
}
