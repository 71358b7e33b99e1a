package hub

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

func TestHub_BroadcastReachesClient(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := New(zap.NewNop(), nil)
	go h.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(h.HandleConnect))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for h.Clients() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	h.Broadcast(Event{Type: EventAlertRaised, CycleID: "c1", Payload: []string{"a.example"}})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var got Event
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Type != EventAlertRaised || got.CycleID != "c1" {
		t.Fatalf("unexpected event: %+v", got)
	}
}

func TestHub_CheckOrigin(t *testing.T) {
	h := New(zap.NewNop(), []string{"https://dash.example"})
	cases := map[string]bool{
		"":                      true,
		"https://dash.example":  true,
		"http://localhost:3000": true,
		"https://evil.example":  false,
	}
	for origin, want := range cases {
		r := httptest.NewRequest(http.MethodGet, "/api/ws", nil)
		if origin != "" {
			r.Header.Set("Origin", origin)
		}
		if got := h.upgrader.CheckOrigin(r); got != want {
			t.Errorf("origin %q: want %v, got %v", origin, want, got)
		}
	}
}

func TestHub_BroadcastWithoutRunDoesNotBlock(t *testing.T) {
	h := New(zap.NewNop(), nil)
	for i := 0; i < 300; i++ {
		h.Broadcast(Event{Type: EventCycleFinished})
	}
}
