package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/nerrad567/gray-logic-input/internal/graph"
	"github.com/nerrad567/gray-logic-input/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-input/internal/infrastructure/logging"
)

// WebSocket message types.
const (
	WSTypeValue = "value"
	WSTypePing  = "ping"
	WSTypePong  = "pong"
	WSTypeError = "error"

	// wsSendBufferSize is the per-client outbound message buffer size.
	wsSendBufferSize = 256
)

// WSMessage is a message sent to or from a stream client.
type WSMessage struct {
	Type      string `json:"type"`
	NodeID    string `json:"node_id,omitempty"`
	Property  string `json:"property,omitempty"`
	Value     any    `json:"value"`
	Timestamp string `json:"timestamp,omitempty"`
	Message   string `json:"message,omitempty"`
}

// Hub tracks open property streams so they can be closed on shutdown.
type Hub struct {
	cfg     config.WebSocketConfig
	logger  *logging.Logger
	clients map[*WSClient]struct{}
	mu      sync.RWMutex
}

// WSClient is one property stream.
type WSClient struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	node     *graph.Node
	property string
	handle   graph.Handle
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		// Origin checking is handled by CORS middleware
		return true
	},
}

// NewHub creates a new WebSocket hub. Zero config values fall back to
// the configuration defaults.
func NewHub(cfg config.WebSocketConfig, logger *logging.Logger) *Hub {
	def := config.Default().WebSocket
	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = def.MaxMessageSize
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = def.PingInterval
	}
	if cfg.PongTimeout <= 0 {
		cfg.PongTimeout = def.PongTimeout
	}
	return &Hub{
		cfg:     cfg,
		logger:  logger,
		clients: make(map[*WSClient]struct{}),
	}
}

// Run blocks until ctx is cancelled, then closes every stream.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()
	h.closeAll()
}

// Register adds a client to the hub.
func (h *Hub) Register(client *WSClient) {
	h.mu.Lock()
	h.clients[client] = struct{}{}
	h.mu.Unlock()
	h.logger.Debug("websocket client connected", "clients", h.ClientCount())
}

// Unregister removes a client from the hub. Only the caller that removes
// the client closes its send channel.
func (h *Hub) Unregister(client *WSClient) {
	h.mu.Lock()
	_, existed := h.clients[client]
	delete(h.clients, client)
	h.mu.Unlock()

	if existed {
		close(client.send)
	}
	h.logger.Debug("websocket client disconnected", "clients", h.ClientCount())
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		close(client.send)
		if client.conn != nil {
			client.conn.Close()
		}
		delete(h.clients, client)
	}
}

// handlePropertyStream upgrades to a WebSocket that receives the current
// value of one property followed by every subsequent write.
func (s *Server) handlePropertyStream(w http.ResponseWriter, r *http.Request) {
	n, ok := s.nodeFromPath(w, r)
	if !ok {
		return
	}
	name := chi.URLParam(r, "name")
	current, ok := n.Get(name)
	if !ok {
		writeNotFound(w, "property not found")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	client := &WSClient{
		hub:      s.hub,
		conn:     conn,
		send:     make(chan []byte, wsSendBufferSize),
		node:     n,
		property: name,
	}
	s.hub.Register(client)

	client.sendValue(current)
	client.handle, _ = n.Subscribe(name, client.sendValue)

	go client.writePump(s.hub.cfg)
	go client.readPump(s.hub.cfg)
}

// readPump drains client messages until the connection closes, then
// detaches the property observer.
func (c *WSClient) readPump(cfg config.WebSocketConfig) {
	defer func() {
		c.node.Unsubscribe(c.property, c.handle)
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(int64(cfg.MaxMessageSize))
	pingInterval := time.Duration(cfg.PingInterval) * time.Second
	pongWait := time.Duration(cfg.PongTimeout) * time.Second
	//nolint:errcheck // Best-effort deadline on connection setup
	c.conn.SetReadDeadline(time.Now().Add(pingInterval + pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pingInterval + pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warn("websocket read error", "error", err)
			} else {
				c.hub.logger.Debug("websocket closed", "error", err)
			}
			return
		}
		//nolint:errcheck // Best-effort deadline reset
		c.conn.SetReadDeadline(time.Now().Add(pingInterval + pongWait))
		c.handleMessage(message)
	}
}

func (c *WSClient) writePump(cfg config.WebSocketConfig) {
	pingInterval := time.Duration(cfg.PingInterval) * time.Second
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	pongWait := time.Duration(cfg.PongTimeout) * time.Second

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				//nolint:errcheck // Best-effort close message
				c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			//nolint:errcheck // Best-effort deadline; write error caught below
			c.conn.SetWriteDeadline(time.Now().Add(pongWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			//nolint:errcheck // Best-effort deadline; ping error caught below
			c.conn.SetWriteDeadline(time.Now().Add(pongWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage answers pings. Streams are otherwise one-way.
func (c *WSClient) handleMessage(data []byte) {
	var msg WSMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		c.sendMessage(WSMessage{Type: WSTypeError, Message: "invalid JSON message"})
		return
	}

	switch msg.Type {
	case WSTypePing:
		c.sendMessage(WSMessage{Type: WSTypePong})
	default:
		c.sendMessage(WSMessage{Type: WSTypeError, Message: "unknown message type: " + msg.Type})
	}
}

// sendValue is the property observer. It runs on the writer's goroutine
// and never blocks.
func (c *WSClient) sendValue(value any) {
	c.sendMessage(WSMessage{
		Type:     WSTypeValue,
		NodeID:   c.node.ID.String(),
		Property: c.property,
		Value:    value,
	})
}

func (c *WSClient) sendMessage(msg WSMessage) {
	msg.Timestamp = time.Now().UTC().Format(time.RFC3339Nano)
	data, err := json.Marshal(msg)
	if err != nil {
		c.hub.logger.Warn("failed to marshal websocket message", "error", err)
		return
	}
	c.trySend(data)
}

// trySend queues data without blocking. Closed channels and full buffers
// drop the message.
func (c *WSClient) trySend(data []byte) {
	defer func() {
		recover() //nolint:errcheck // Absorb send-on-closed-channel panic
	}()

	select {
	case c.send <- data:
	default:
	}
}
