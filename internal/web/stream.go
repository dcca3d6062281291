package web

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/vitos/crypto_take_profit/internal/usecase"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	clientSendSize = 16
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type streamClient struct {
	conn   *websocket.Conn
	send   chan []byte
	logger *zap.Logger
	// revision of the newest snapshot queued for this client
	revision uint64
}

// Hub fans form snapshots out to websocket clients. A client whose buffer is
// full is dropped instead of blocking the form. Each client only receives
// snapshots newer than the last one queued for it.
type Hub struct {
	mu      sync.Mutex
	clients map[*streamClient]struct{}
	closed  bool
	logger  *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[*streamClient]struct{}),
		logger:  logger,
	}
}

func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// register queues the initial snapshot ahead of any broadcast the client will see.
func (h *Hub) register(c *streamClient, initial usecase.FormSnapshot) bool {
	data, err := json.Marshal(initial)
	if err != nil {
		h.logger.Error("Failed to encode snapshot", zap.Error(err))
		return false
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	c.send <- data
	c.revision = initial.Revision
	h.clients[c] = struct{}{}
	return true
}

func (h *Hub) unregister(c *streamClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// Broadcast queues snap for every client that has not seen a newer one yet.
func (h *Hub) Broadcast(snap usecase.FormSnapshot) {
	data, err := json.Marshal(snap)
	if err != nil {
		h.logger.Error("Failed to encode stream message", zap.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		if snap.Revision <= c.revision {
			continue
		}
		select {
		case c.send <- data:
			c.revision = snap.Revision
		default:
			h.logger.Warn("Dropping slow stream client", zap.String("remote", c.conn.RemoteAddr().String()))
			delete(h.clients, c)
			close(c.send)
		}
	}
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

func (c *streamClient) writeLoop() {
	defer c.conn.Close()
	for data := range c.send {
		if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
			c.logger.Debug("Failed to set write deadline", zap.Error(err))
			return
		}
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			c.logger.Debug("Stream write failed", zap.Error(err))
			return
		}
	}
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Debug("Failed to set write deadline", zap.Error(err))
		return
	}
	closing := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	if err := c.conn.WriteMessage(websocket.CloseMessage, closing); err != nil {
		c.logger.Debug("Failed to send close frame", zap.Error(err))
	}
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	client := &streamClient{
		conn:   conn,
		send:   make(chan []byte, clientSendSize),
		logger: s.logger.With(zap.String("remote", conn.RemoteAddr().String())),
	}
	if !s.hub.register(client, s.form.Snapshot()) {
		conn.Close()
		return
	}
	s.logger.Debug("Stream client connected", zap.String("remote", conn.RemoteAddr().String()))
	go client.writeLoop()

	// Incoming frames are ignored; reading detects the disconnect.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	s.hub.unregister(client)
	s.logger.Debug("Stream client disconnected", zap.String("remote", conn.RemoteAddr().String()))
}
