package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/clairexuu/SWAG-Golf/internal/pkg/logger"
	"github.com/clairexuu/SWAG-Golf/pkg/events"
)

// Hub fans lifecycle events out to every connected dashboard. The feed is
// broadcast only; there is no per-connection targeting.
type Hub struct {
	clients map[*Client]bool

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Lock for safe map access
	mu sync.RWMutex

	logger logger.ILogger
}

func NewHub(log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		logger:     log,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.logger.Info("Hub", "Client registered", map[string]interface{}{"client_id": client.Id})

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
				h.logger.Info("Hub", "Client unregistered", map[string]interface{}{"client_id": client.Id})
			}
			h.mu.Unlock()
		}
	}
}

// envelope mirrors the NATS wire shape so both feeds carry the same frame.
type envelope struct {
	Id        string                 `json:"id"`
	Type      string                 `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Payload   map[string]interface{} `json:"payload"`
}

// Publish implements events.Sink. A client whose send buffer is full has the
// frame dropped rather than stalling the pipeline; dead connections are
// reaped by the ping/pong pumps.
func (h *Hub) Publish(_ context.Context, event events.Event) error {
	data, err := json.Marshal(envelope{
		Id:        event.EventID(),
		Type:      event.EventType(),
		Timestamp: event.Timestamp(),
		Payload:   event.Payload(),
	})
	if err != nil {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		select {
		case client.Send <- data:
		default:
			h.logger.Warn("Hub", "Client send buffer full, dropping event", map[string]interface{}{
				"client_id": client.Id,
				"type":      event.EventType(),
			})
		}
	}
	return nil
}

// ClientCount reports how many dashboards are attached.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
