// Package stream pushes ledger changes to websocket clients and follows
// such a stream from the command line.
package stream

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/gw/optlog/internal/ledger"
	"github.com/gw/optlog/internal/summary"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
	sendBuffer = 16
)

// Message is what clients receive after every ledger change.
type Message struct {
	Kind    ledger.Kind      `json:"kind"`
	Trades  int              `json:"trades"`
	Summary *summary.Summary `json:"summary"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans ledger events out to connected websocket clients. A client that
// cannot keep up is dropped instead of blocking the ledger.
type Hub struct {
	log      *zap.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
	last    []byte
	lastSeq uint64
}

func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		log: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}
}

// Publish is a ledger subscriber. Events older than the last one seen are
// ignored so the replayed message always reflects the newest state.
func (h *Hub) Publish(ev ledger.Event) {
	data, err := json.Marshal(Message{
		Kind:    ev.Kind,
		Trades:  len(ev.Trades),
		Summary: summary.Summarize(ev.Trades),
	})
	if err != nil {
		h.log.Error("encoding stream message", zap.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if ev.Seq != 0 && ev.Seq <= h.lastSeq {
		return
	}
	if ev.Seq != 0 {
		h.lastSeq = ev.Seq
	}
	h.last = data
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			h.log.Warn("dropping slow stream client", zap.String("remote", c.conn.RemoteAddr().String()))
			h.remove(c)
		}
	}
}

// Clients reports the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// ServeWS upgrades the request and streams messages until the client goes
// away. The latest message is sent right after connecting.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	if h.last != nil {
		c.send <- h.last
	}
	h.mu.Unlock()
	h.log.Debug("stream client connected", zap.String("remote", conn.RemoteAddr().String()))

	go h.writeLoop(c)
	h.readLoop(c)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		h.remove(c)
	}
}

// remove must be called with h.mu held.
func (h *Hub) remove(c *client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
}

// readLoop discards client frames and notices disconnects.
func (h *Hub) readLoop(c *client) {
	defer func() {
		h.mu.Lock()
		h.remove(c)
		h.mu.Unlock()
		c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writeLoop(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
