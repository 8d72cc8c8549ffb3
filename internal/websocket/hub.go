package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"

	"projectpulse/internal/infrastructure"
	"projectpulse/pkg/contracts/events"
)

const broadcastBuffer = 64

// Hub maintains the set of active clients and broadcasts messages to them.
// Only the Run goroutine mutates the client set.
type Hub struct {
	clients map[*Client]struct{}

	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	mu      sync.RWMutex
	running bool
	stopped bool
	quit    chan struct{}
	done    chan struct{}

	messagesSent    atomic.Int64
	messagesDropped atomic.Int64

	metrics *infrastructure.BusinessMetrics
	logger  *slog.Logger
}

// NewHub creates a hub. metrics may be nil.
func NewHub(metrics *infrastructure.BusinessMetrics, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	return &Hub{
		clients:    make(map[*Client]struct{}),
		broadcast:  make(chan []byte, broadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
		metrics:    metrics,
		logger:     logger.With(slog.String("component", "websocket.hub")),
	}
}

// Start launches the hub loop. A hub runs once: calling Start again, even
// after Stop, is a no-op.
func (h *Hub) Start() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.running || h.stopped {
		return
	}
	h.running = true
	go h.run()
}

// Stop closes every client and waits for the loop to exit.
func (h *Hub) Stop() {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return
	}
	h.running = false
	h.stopped = true
	h.mu.Unlock()

	close(h.quit)
	<-h.done
}

func (h *Hub) run() {
	defer close(h.done)
	ctx := context.Background()

	for {
		select {
		case <-h.quit:
			h.mu.Lock()
			n := len(h.clients)
			for c := range h.clients {
				close(c.send)
				delete(h.clients, c)
			}
			h.mu.Unlock()
			h.metrics.RecordWebSocketClients(ctx, -int64(n))
			h.logger.Info("hub stopped", slog.Int("closed_clients", n))
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			count := len(h.clients)
			h.mu.Unlock()
			h.metrics.RecordWebSocketClients(ctx, 1)

			h.logger.InfoContext(c.context(), "client registered",
				slog.String("client_id", c.id),
				slog.String("remote_addr", c.remoteAddr),
				slog.Int("total_clients", count))

			greeting := events.NewMessage(events.TypeConnection, events.ConnectionData{
				Status:   "connected",
				ClientID: c.id,
			})
			greeting.TraceID = c.traceID
			if payload, err := json.Marshal(greeting); err == nil {
				select {
				case c.send <- payload:
				default:
				}
			}

		case c := <-h.unregister:
			h.remove(c, "client unregistered")

		case payload := <-h.broadcast:
			h.mu.RLock()
			clients := make([]*Client, 0, len(h.clients))
			for c := range h.clients {
				clients = append(clients, c)
			}
			h.mu.RUnlock()

			for _, c := range clients {
				select {
				case c.send <- payload:
					h.messagesSent.Add(1)
				default:
					h.remove(c, "client send buffer full, disconnecting")
				}
			}
		}
	}
}

func (h *Hub) remove(c *Client, reason string) {
	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	close(c.send)
	count := len(h.clients)
	h.mu.Unlock()

	h.metrics.RecordWebSocketClients(context.Background(), -1)
	h.logger.InfoContext(c.context(), reason,
		slog.String("client_id", c.id),
		slog.Int("total_clients", count))
}

// Register adds a client. It gives up once the hub is stopped.
func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.quit:
		_ = c.conn.Close()
	}
}

// Unregister removes a client.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.quit:
	}
}

// Broadcast sends a typed message to every client. It never blocks: when the
// queue is full the message is dropped.
func (h *Hub) Broadcast(messageType string, data interface{}) {
	h.BroadcastMessage(events.NewMessage(messageType, data))
}

// BroadcastMessage sends a prepared message to every client.
func (h *Hub) BroadcastMessage(msg events.Message) {
	payload, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal broadcast",
			slog.String("type", msg.Type),
			slog.String("error", err.Error()))
		return
	}

	select {
	case h.broadcast <- payload:
	case <-h.quit:
	default:
		h.messagesDropped.Add(1)
		h.logger.Warn("broadcast queue full, message dropped", slog.String("type", msg.Type))
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Stats returns hub counters for diagnostics.
func (h *Hub) Stats() map[string]int64 {
	return map[string]int64{
		"clients":          int64(h.ClientCount()),
		"messages_sent":    h.messagesSent.Load(),
		"messages_dropped": h.messagesDropped.Load(),
	}
}
