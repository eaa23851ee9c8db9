// Package stream publishes per-second books to websocket clients. The
// rendering layer (browser order-book view) subscribes here.
package stream

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/houseofai/orderbook-reflex/internal/quote"
)

const (
	writeTimeout = 2 * time.Second
	sendBuffer   = 16
)

// Hub fans per-second books out to connected websocket clients. Slow
// clients are dropped rather than allowed to stall the simulation clock.
type Hub struct {
	log      zerolog.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
}

type client struct {
	conn *websocket.Conn
	send chan quote.Book
}

// NewHub builds an empty hub.
func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		log: log,
		upgrader: websocket.Upgrader{
			// The trainer UI is served from file:// or localhost; skip
			// origin checks for this loopback tool.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}
}

// ServeHTTP upgrades the request and registers the client until it hangs up.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	c := &client{conn: conn, send: make(chan quote.Book, sendBuffer)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	count := len(h.clients)
	h.mu.Unlock()
	h.log.Info().Int("clients", count).Msg("stream client connected")

	go h.writeLoop(c)
	// Drain (and ignore) inbound frames so pings and close frames are
	// processed; returning unregisters the client.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.drop(c)
}

// Broadcast queues the book for every connected client. Never blocks.
func (h *Hub) Broadcast(book quote.Book) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- book:
		default:
			// Client cannot keep up with one frame per second.
			go h.drop(c)
		}
	}
}

// ClientCount reports the number of live subscribers.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()
	for _, c := range clients {
		h.drop(c)
	}
}

// Serve mounts the hub on /stream and starts an HTTP server on addr.
func (h *Hub) Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/stream", h)
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}

func (h *Hub) writeLoop(c *client) {
	for book := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteJSON(book); err != nil {
			h.drop(c)
			return
		}
	}
}

func (h *Hub) drop(c *client) {
	h.mu.Lock()
	_, live := h.clients[c]
	if live {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
	if live {
		_ = c.conn.Close()
	}
}
