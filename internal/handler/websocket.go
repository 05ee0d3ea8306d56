package handler

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/Harshitk-cp/opsconsole/internal/hub"
	"github.com/Harshitk-cp/opsconsole/pkg/logging"
)

// WebSocketHandler upgrades live monitor clients and attaches them to the hub
type WebSocketHandler struct {
	hub      *hub.Hub
	initial  hub.InitialFunc
	upgrader websocket.Upgrader
}

// NewWebSocketHandler creates a new WebSocket handler. initial builds the
// first message of every client, normally the current monitor view.
func NewWebSocketHandler(h *hub.Hub, initial hub.InitialFunc, allowOrigin string) *WebSocketHandler {
	return &WebSocketHandler{
		hub:     h,
		initial: initial,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin(allowOrigin),
		},
	}
}

// ServeHTTP handles WebSocket connections
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := logging.FromContext(r.Context())

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.WithError(err).Warn("Failed to upgrade connection")
		return
	}

	clientID := h.hub.Register(conn, h.initial)
	logger.WithField("client_id", clientID).Info("Live monitor client connected")
}

func checkOrigin(allowOrigin string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		if allowOrigin == "" || allowOrigin == "*" {
			return true
		}
		origin := r.Header.Get("Origin")
		return origin == "" || origin == allowOrigin
	}
}
