package hub

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/Harshitk-cp/opsconsole/internal/config"
	"github.com/Harshitk-cp/opsconsole/internal/metrics"
)

// InitialFunc builds the first message a client receives
type InitialFunc func() []byte

type registration struct {
	client  *wsClient
	initial InitialFunc
}

// wsClient represents a connected live monitor client
type wsClient struct {
	hub  *Hub
	conn *websocket.Conn
	id   string
	send chan []byte
}

// Hub maintains the set of live monitor clients and broadcasts messages to them
type Hub struct {
	cfg     config.WebSocketConfig
	metrics metrics.Collector
	logger  logrus.FieldLogger

	// Registered clients, owned by the Run goroutine
	clients map[string]*wsClient

	// Outbound messages for every client
	broadcast chan []byte

	// Register requests from clients
	register chan registration

	// Unregister requests from clients
	unregister chan *wsClient

	// Number of registered clients
	mu    sync.RWMutex
	count int

	stopChan chan struct{}
	stopOnce sync.Once
}

// NewHub creates a new hub
func NewHub(cfg config.WebSocketConfig, m metrics.Collector, logger logrus.FieldLogger) *Hub {
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = 16
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	if cfg.PongTimeout <= 0 {
		cfg.PongTimeout = 60 * time.Second
	}
	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = 4096
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &Hub{
		cfg:        cfg,
		metrics:    m,
		logger:     logger.WithField("component", "hub"),
		clients:    make(map[string]*wsClient),
		broadcast:  make(chan []byte, 16),
		register:   make(chan registration),
		unregister: make(chan *wsClient),
		stopChan:   make(chan struct{}),
	}
}

// Run processes registrations and broadcasts until Close is called
func (h *Hub) Run() {
	for {
		select {
		case reg := <-h.register:
			client := reg.client
			if reg.initial != nil {
				if msg := reg.initial(); msg != nil {
					client.send <- msg
				}
			}
			h.clients[client.id] = client
			h.setCount(len(h.clients))
			if h.metrics != nil {
				h.metrics.WSClientConnected()
			}
			h.logger.WithField("client_id", client.id).Debug("Client registered")

		case client := <-h.unregister:
			h.remove(client)

		case message := <-h.broadcast:
			for _, client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Slow client, drop it
					if h.metrics != nil {
						h.metrics.WSMessageDropped()
					}
					h.logger.WithField("client_id", client.id).Warn("Client too slow, closing connection")
					h.remove(client)
				}
			}

		case <-h.stopChan:
			for _, client := range h.clients {
				h.remove(client)
			}
			return
		}
	}
}

func (h *Hub) remove(client *wsClient) {
	if _, ok := h.clients[client.id]; !ok {
		return
	}
	delete(h.clients, client.id)
	close(client.send)
	h.setCount(len(h.clients))
	if h.metrics != nil {
		h.metrics.WSClientDisconnected()
	}
	h.logger.WithField("client_id", client.id).Debug("Client unregistered")
}

func (h *Hub) setCount(n int) {
	h.mu.Lock()
	h.count = n
	h.mu.Unlock()
}

// ClientCount returns the number of registered clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.count
}

// Register attaches a WebSocket connection to the hub. The client first
// receives the message built by initial, then every broadcast after it.
func (h *Hub) Register(conn *websocket.Conn, initial InitialFunc) string {
	client := &wsClient{
		hub:  h,
		conn: conn,
		id:   uuid.New().String(),
		send: make(chan []byte, h.cfg.SendBuffer),
	}

	select {
	case h.register <- registration{client: client, initial: initial}:
	case <-h.stopChan:
		conn.Close()
		return client.id
	}

	// Start goroutines for reading and writing
	go client.writePump()
	go client.readPump()

	return client.id
}

// Broadcast sends a message to all clients
func (h *Hub) Broadcast(message []byte) {
	select {
	case h.broadcast <- message:
	case <-h.stopChan:
	}
}

// Close disconnects every client and stops the hub
func (h *Hub) Close() {
	h.stopOnce.Do(func() {
		close(h.stopChan)
	})
}

// readPump drains the connection until it fails. Inbound messages are ignored.
func (c *wsClient) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.stopChan:
		}
		c.conn.Close()
	}()

	pongWait := c.hub.cfg.PongTimeout

	c.conn.SetReadLimit(c.hub.cfg.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, _, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.WithError(err).WithField("client_id", c.id).Debug("WebSocket read error")
			}
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
	}
}

// writePump pumps messages from the hub to the WebSocket connection
func (c *wsClient) writePump() {
	pingPeriod := c.hub.cfg.PongTimeout * 9 / 10
	writeWait := c.hub.cfg.WriteTimeout

	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
			if c.hub.metrics != nil {
				c.hub.metrics.WSMessageSent(len(message))
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
