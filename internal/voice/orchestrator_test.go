package voice

import (
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

func newTestOrchestrator(t *testing.T) *Orchestrator {
	t.Helper()
	session := newTestSession(t, newStubUpstream(t), "sk-test")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewOrchestrator(session, logger)
}

func TestOrchestrator_SubscribeAndDispatch(t *testing.T) {
	orch := newTestOrchestrator(t)

	var first, second []string
	unsubFirst := orch.Subscribe(func(ev Event) { first = append(first, ev.Type) })
	unsubSecond := orch.Subscribe(func(ev Event) { second = append(second, ev.Type) })
	defer unsubSecond()

	orch.dispatch(Event{Kind: EventControl, Type: "response.created"})
	orch.dispatch(Event{Kind: EventControl, Type: "response.done"})

	unsubFirst()
	orch.dispatch(Event{Kind: EventControl, Type: "session.updated"})

	if len(first) != 2 {
		t.Fatalf("unsubscribed observer got %d events, want 2", len(first))
	}
	if len(second) != 3 {
		t.Fatalf("active observer got %d events, want 3", len(second))
	}
	if second[0] != "response.created" || second[1] != "response.done" {
		t.Fatalf("events out of order: %v", second)
	}
}

func TestOrchestrator_PushClientAudioWhileDisconnected(t *testing.T) {
	orch := newTestOrchestrator(t)

	// Never panics and never blocks, regardless of upstream state.
	for i := 0; i < 10; i++ {
		orch.PushClientAudio([]byte{byte(i)})
	}
	if orch.State() != StateDisconnected {
		t.Fatalf("state = %v, want disconnected", orch.State())
	}
}

func TestEventHub_BroadcastsControlEvents(t *testing.T) {
	orch := newTestOrchestrator(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	hub := NewEventHub(orch, logger)
	defer hub.Close()

	e := echo.New()
	e.GET("/ws/voice/events", hub.HandleWebSocket)
	srv := httptest.NewServer(e)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/voice/events"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	if resp != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	waitFor(t, func() bool { return hub.ClientCount() == 1 })

	orch.dispatch(Event{Kind: EventAudio, Data: []byte{0x01}})
	orch.dispatch(Event{Kind: EventControl, Type: "response.done", Data: []byte(`{"type":"response.done"}`)})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	msgType, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if msgType != websocket.TextMessage {
		t.Fatalf("message type = %d, want text", msgType)
	}

	// Audio events never reach the hub; the first frame is the control event.
	if string(payload) != `{"type":"response.done"}` {
		t.Fatalf("payload = %s", payload)
	}
}

func TestEventHub_CloseDisconnectsClients(t *testing.T) {
	orch := newTestOrchestrator(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	hub := NewEventHub(orch, logger)

	e := echo.New()
	e.GET("/ws/voice/events", hub.HandleWebSocket)
	srv := httptest.NewServer(e)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/voice/events"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	if resp != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	waitFor(t, func() bool { return hub.ClientCount() == 1 })

	hub.Close()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Fatal("expected read to fail after hub close")
	}
	if hub.ClientCount() != 0 {
		t.Fatalf("client count = %d, want 0", hub.ClientCount())
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}
