package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/scalpi-pos/api/internal/auth"
	"github.com/scalpi-pos/api/internal/enum"
)

// mockClient creates a client for testing without a real WebSocket connection
func mockClient(hub *Hub, channel string) *Client {
	return &Client{
		hub:     hub,
		channel: channel,
		send:    make(chan []byte, 256),
	}
}

func startHub(t *testing.T) *Hub {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub := NewHub(nil)
	go hub.Run(ctx)
	return hub
}

func TestHubRegistration(t *testing.T) {
	hub := startHub(t)
	client := mockClient(hub, enum.ChannelLedger)

	hub.register <- client
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	defer hub.mu.RUnlock()

	if hub.rooms[enum.ChannelLedger] == nil {
		t.Fatal("channel room not created")
	}
	if !hub.rooms[enum.ChannelLedger][client] {
		t.Fatal("client not registered in channel room")
	}
}

func TestHubUnregistration(t *testing.T) {
	hub := startHub(t)
	client := mockClient(hub, enum.ChannelLedger)

	hub.register <- client
	time.Sleep(10 * time.Millisecond)

	hub.unregister <- client
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	defer hub.mu.RUnlock()

	if hub.rooms[enum.ChannelLedger] != nil {
		t.Fatal("channel room not cleaned up after last client unregistered")
	}
}

func TestBroadcastToSingleChannel(t *testing.T) {
	hub := startHub(t)

	ledger := mockClient(hub, enum.ChannelLedger)
	inventory := mockClient(hub, enum.ChannelInventory)

	hub.register <- ledger
	hub.register <- inventory
	time.Sleep(10 * time.Millisecond)

	testPayload := json.RawMessage(`{"id":"op-1"}`)
	hub.Broadcast(enum.ChannelLedger, Event{Type: "operation.created", Payload: testPayload})

	select {
	case msg := <-ledger.send:
		var received Event
		if err := json.Unmarshal(msg, &received); err != nil {
			t.Fatalf("failed to unmarshal message: %v", err)
		}
		if received.Type != "operation.created" {
			t.Errorf("expected type 'operation.created', got '%s'", received.Type)
		}
		if string(received.Payload) != string(testPayload) {
			t.Errorf("expected payload '%s', got '%s'", testPayload, received.Payload)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("ledger client did not receive message")
	}

	select {
	case <-inventory.send:
		t.Fatal("inventory client should not receive ledger events")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestPublishToMultipleClients(t *testing.T) {
	hub := startHub(t)

	clients := []*Client{
		mockClient(hub, enum.ChannelInventory),
		mockClient(hub, enum.ChannelInventory),
		mockClient(hub, enum.ChannelInventory),
	}
	for _, c := range clients {
		hub.register <- c
	}
	time.Sleep(10 * time.Millisecond)

	hub.Publish(enum.ChannelInventory, "item.updated", map[string]any{"barcode": "4820000000011", "stock": 3})

	for i, client := range clients {
		select {
		case msg := <-client.send:
			var received Event
			if err := json.Unmarshal(msg, &received); err != nil {
				t.Fatalf("client%d: failed to unmarshal: %v", i+1, err)
			}
			if received.Type != "item.updated" {
				t.Errorf("client%d: expected type 'item.updated', got '%s'", i+1, received.Type)
			}
			if !strings.Contains(string(received.Payload), `"barcode":"4820000000011"`) {
				t.Errorf("client%d: unexpected payload %s", i+1, received.Payload)
			}
		case <-time.After(100 * time.Millisecond):
			t.Fatalf("client%d did not receive message", i+1)
		}
	}
}

func TestRunClosesClientsOnShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(nil)
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()

	client := mockClient(hub, enum.ChannelStaff)
	hub.register <- client
	time.Sleep(10 * time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("hub did not stop")
	}

	if _, ok := <-client.send; ok {
		t.Fatal("expected client send channel to be closed")
	}
}

func TestPublishAfterShutdownDoesNotBlock(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(nil)
	go hub.Run(ctx)
	cancel()

	select {
	case <-hub.Done():
	case <-time.After(time.Second):
		t.Fatal("hub did not stop")
	}

	finished := make(chan struct{})
	go func() {
		for i := 0; i < 300; i++ {
			hub.Publish(enum.ChannelLedger, "operation.created", map[string]int{"n": i})
		}
		hub.leave(mockClient(hub, enum.ChannelLedger))
		if hub.join(mockClient(hub, enum.ChannelLedger)) {
			t.Error("join should be refused after shutdown")
		}
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("publish or leave blocked after the hub stopped")
	}
}

func TestIsChannel(t *testing.T) {
	for _, name := range []string{enum.ChannelLedger, enum.ChannelInventory, enum.ChannelStaff} {
		if !IsChannel(name) {
			t.Errorf("%q should be a channel", name)
		}
	}
	if IsChannel("orders") {
		t.Error("orders should not be a channel")
	}
}

func newWSServer(t *testing.T, hub *Hub, secret string) *httptest.Server {
	t.Helper()
	r := chi.NewRouter()
	r.Get("/ws/{channel}", func(w http.ResponseWriter, r *http.Request) {
		ServeWS(hub, secret, w, r)
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestServeWS_RejectsMissingToken(t *testing.T) {
	hub := startHub(t)
	srv := newWSServer(t, hub, "secret")

	resp, err := http.Get(srv.URL + "/ws/ledger")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestServeWS_RejectsUnknownChannel(t *testing.T) {
	hub := startHub(t)
	srv := newWSServer(t, hub, "secret")
	token, _ := auth.GenerateToken("secret", uuid.New(), enum.UserRoleOwner)

	resp, err := http.Get(srv.URL + "/ws/orders?token=" + token)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestServeWS_DeliversChannelEvents(t *testing.T) {
	hub := startHub(t)
	srv := newWSServer(t, hub, "secret")
	token, err := auth.GenerateToken("secret", uuid.New(), enum.UserRoleManager)
	if err != nil {
		t.Fatalf("token: %v", err)
	}

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/ledger?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// registration happens after the handshake completes
	time.Sleep(50 * time.Millisecond)

	hub.Publish(enum.ChannelLedger, "operation.created", map[string]string{"id": "op-7"})

	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var received Event
	if err := json.Unmarshal(msg, &received); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if received.Type != "operation.created" {
		t.Errorf("expected operation.created, got %s", received.Type)
	}
}
