package mapview

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	ws "github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/groupride/convoy/pkg/streaming"
)

const (
	sendChSize     = 256
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 1024
)

// Hub fans envelopes out to connected WebSocket clients. A client that
// cannot keep up is disconnected.
type Hub struct {
	mu       sync.RWMutex
	clients  map[*client]struct{}
	closed   bool
	upgrader ws.Upgrader
	log      zerolog.Logger
}

// NewHub creates a hub with no clients.
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		clients: make(map[*client]struct{}),
		upgrader: ws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		log: logger.With().Str("component", "hub").Logger(),
	}
}

// Broadcast sends env to every client. Never blocks.
func (h *Hub) Broadcast(env streaming.Envelope) {
	data, err := json.Marshal(env)
	if err != nil {
		h.log.Error().Err(err).Str("type", env.Type).Msg("failed to marshal envelope")
		return
	}

	h.mu.RLock()
	targets := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		if !c.send(data) {
			h.log.Warn().Str("remote", c.remote).Msg("client send buffer full, disconnecting")
			h.remove(c)
		}
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	clients := h.clients
	h.clients = make(map[*client]struct{})
	h.mu.Unlock()

	for c := range clients {
		c.close()
	}
}

// upgrade switches the request to a WebSocket. The client is not registered
// until add is called.
func (h *Hub) upgrade(w http.ResponseWriter, r *http.Request) (*client, error) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, err
	}
	return &client{
		conn:   conn,
		sendCh: make(chan []byte, sendChSize),
		done:   make(chan struct{}),
		remote: r.RemoteAddr,
	}, nil
}

// add registers c with an initial message queued ahead of any broadcast and
// starts its pumps.
func (h *Hub) add(c *client, initial []byte) {
	if initial != nil {
		c.send(initial)
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		c.close()
		return
	}
	h.clients[c] = struct{}{}
	total := len(h.clients)
	h.mu.Unlock()

	h.log.Info().Str("remote", c.remote).Int("clients", total).Msg("client connected")

	go c.writePump(h)
	go c.readPump(h)
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()

	c.close()
	if ok {
		h.log.Info().Str("remote", c.remote).Msg("client disconnected")
	}
}

// client is one WebSocket subscriber with a single write goroutine.
type client struct {
	conn   *ws.Conn
	sendCh chan []byte
	done   chan struct{}
	once   sync.Once
	remote string
}

// send queues data without blocking. It returns false if the buffer is full.
func (c *client) send(data []byte) bool {
	select {
	case <-c.done:
		return true
	default:
	}
	select {
	case c.sendCh <- data:
		return true
	default:
		return false
	}
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.done)
		_ = c.conn.WriteControl(ws.CloseMessage,
			ws.FormatCloseMessage(ws.CloseNormalClosure, ""), time.Now().Add(writeWait))
		_ = c.conn.Close()
	})
}

func (c *client) writePump(h *Hub) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		h.remove(c)
	}()

	for {
		select {
		case <-c.done:
			return
		case data := <-c.sendCh:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(ws.TextMessage, data); err != nil {
				h.log.Debug().Err(err).Str("remote", c.remote).Msg("websocket write error")
				return
			}
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(ws.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump discards client messages and detects disconnects.
func (c *client) readPump(h *Hub) {
	defer h.remove(c)

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if ws.IsUnexpectedCloseError(err, ws.CloseGoingAway, ws.CloseNormalClosure) {
				h.log.Debug().Err(err).Str("remote", c.remote).Msg("unexpected websocket close")
			}
			return
		}
	}
}
