package ws

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/scalpi-pos/api/internal/enum"
)

// Connections tracks open websocket clients per channel.
var Connections = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "scalpi_ws_connections",
		Help: "Number of open websocket connections",
	},
	[]string{"channel"},
)

// Event represents a WebSocket message to be broadcast
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// channelEvent routes an event to one channel room.
type channelEvent struct {
	Channel string
	Event   Event
}

// Hub maintains the set of active clients and broadcasts messages to them
type Hub struct {
	// Registered clients by channel name
	rooms map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client

	broadcast chan *channelEvent

	// closed when Run returns
	done chan struct{}

	logger *zap.Logger

	mu sync.RWMutex
}

// NewHub creates a new Hub instance
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *channelEvent, 256),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// IsChannel reports whether name is a channel clients may subscribe to.
func IsChannel(name string) bool {
	switch name {
	case enum.ChannelLedger, enum.ChannelInventory, enum.ChannelStaff:
		return true
	}
	return false
}

// Run starts the hub's main loop and returns when ctx is cancelled.
// This should be called as a goroutine: go hub.Run(ctx). Once it returns,
// publishes are dropped and registrations are refused.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case client := <-h.register:
			h.mu.Lock()
			if h.rooms[client.channel] == nil {
				h.rooms[client.channel] = make(map[*Client]bool)
			}
			h.rooms[client.channel][client] = true
			h.mu.Unlock()
			Connections.WithLabelValues(client.channel).Inc()

		case client := <-h.unregister:
			h.mu.Lock()
			h.drop(client)
			h.mu.Unlock()

		case event := <-h.broadcast:
			message, err := json.Marshal(event.Event)
			if err != nil {
				h.logger.Error("marshal ws event", zap.String("type", event.Event.Type), zap.Error(err))
				continue
			}

			h.mu.Lock()
			for client := range h.rooms[event.Channel] {
				select {
				case client.send <- message:
				default:
					// slow consumer
					h.drop(client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// drop removes client from its room and closes its send buffer.
// Caller must hold h.mu.
func (h *Hub) drop(client *Client) {
	clients, ok := h.rooms[client.channel]
	if !ok {
		return
	}
	if _, exists := clients[client]; !exists {
		return
	}
	delete(clients, client)
	close(client.send)
	Connections.WithLabelValues(client.channel).Dec()
	if len(clients) == 0 {
		delete(h.rooms, client.channel)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, clients := range h.rooms {
		for client := range clients {
			h.drop(client)
		}
	}
}

// Broadcast sends an event to every client subscribed to channel. The
// event is dropped when the hub has stopped.
func (h *Hub) Broadcast(channel string, event Event) {
	select {
	case h.broadcast <- &channelEvent{Channel: channel, Event: event}:
	case <-h.done:
	}
}

// Done is closed once Run has returned.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// join hands client to the loop. It reports false when the hub has stopped.
func (h *Hub) join(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) leave(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Publish marshals payload and broadcasts it as an event of the given type.
func (h *Hub) Publish(channel, eventType string, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("marshal ws payload", zap.String("type", eventType), zap.Error(err))
		return
	}
	h.Broadcast(channel, Event{Type: eventType, Payload: raw})
}
