package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/clairexuu/SWAG-Golf/pkg/events"
)

type nopLogger struct{}

func (nopLogger) Debug(string, string, map[string]interface{}) {}
func (nopLogger) Info(string, string, map[string]interface{})  {}
func (nopLogger) Warn(string, string, map[string]interface{})  {}
func (nopLogger) Error(string, string, map[string]interface{}) {}
func (nopLogger) Sync() error                                  { return nil }

func newTestClient(hub *Hub, id string, buffer int) *Client {
	return &Client{Hub: hub, Id: id, Send: make(chan []byte, buffer)}
}

func waitForClients(t *testing.T, hub *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hub.ClientCount() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("hub never reached %d clients, have %d", want, hub.ClientCount())
}

func TestHubBroadcastsToAllClients(t *testing.T) {
	hub := NewHub(nopLogger{})
	go hub.Run()

	first := newTestClient(hub, "first", 8)
	second := newTestClient(hub, "second", 8)
	hub.register <- first
	hub.register <- second
	waitForClients(t, hub, 2)

	event := events.NewGenerationCompleted("bold_marker", "20250101_120000", "generate", 4, 4)
	if err := hub.Publish(context.Background(), event); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	for _, client := range []*Client{first, second} {
		select {
		case frame := <-client.Send:
			var env struct {
				Id      string                 `json:"id"`
				Type    string                 `json:"type"`
				Payload map[string]interface{} `json:"payload"`
			}
			if err := json.Unmarshal(frame, &env); err != nil {
				t.Fatalf("client %s frame not json: %v", client.Id, err)
			}
			if env.Type != events.TypeGenerationCompleted {
				t.Errorf("client %s type = %q, want %q", client.Id, env.Type, events.TypeGenerationCompleted)
			}
			if env.Payload["styleId"] != "bold_marker" {
				t.Errorf("client %s payload styleId = %v", client.Id, env.Payload["styleId"])
			}
			if env.Id == "" {
				t.Errorf("client %s frame has empty event id", client.Id)
			}
		case <-time.After(time.Second):
			t.Fatalf("client %s never received the frame", client.Id)
		}
	}
}

func TestHubDropsFramesForSlowClients(t *testing.T) {
	hub := NewHub(nopLogger{})
	go hub.Run()

	slow := newTestClient(hub, "slow", 1)
	hub.register <- slow
	waitForClients(t, hub, 1)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 3; i++ {
			_ = hub.Publish(context.Background(), events.NewStyleUpdated("bold_marker", "created"))
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a client with a full buffer")
	}

	if got := len(slow.Send); got != 1 {
		t.Fatalf("slow client buffered %d frames, want 1", got)
	}
}

func TestHubUnregisterClosesSend(t *testing.T) {
	hub := NewHub(nopLogger{})
	go hub.Run()

	client := newTestClient(hub, "leaving", 1)
	hub.register <- client
	waitForClients(t, hub, 1)

	hub.unregister <- client
	waitForClients(t, hub, 0)

	select {
	case _, ok := <-client.Send:
		if ok {
			t.Fatal("expected closed send channel after unregister")
		}
	case <-time.After(time.Second):
		t.Fatal("send channel never closed")
	}
}
