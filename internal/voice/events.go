package voice

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// EventHub streams upstream control events (transcripts, response
// lifecycle markers) to browser clients over websockets. Audio never
// travels here; that stays on the media tracks.
type EventHub struct {
	orch   *Orchestrator
	logger *slog.Logger

	mu          sync.Mutex
	clients     map[*wsClient]struct{}
	unsubscribe func()
	closed      bool
}

func NewEventHub(orch *Orchestrator, logger *slog.Logger) *EventHub {
	h := &EventHub{
		orch:    orch,
		logger:  logger.With("component", "event_hub"),
		clients: make(map[*wsClient]struct{}),
	}
	h.unsubscribe = orch.Subscribe(h.broadcast)
	return h
}

func (h *EventHub) HandleWebSocket(c echo.Context) error {
	ws, err := wsUpgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	client := &wsClient{
		hub:  h,
		ws:   ws,
		send: make(chan []byte, 64),
		done: make(chan struct{}),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		ws.Close()
		return nil
	}
	h.clients[client] = struct{}{}
	count := len(h.clients)
	h.mu.Unlock()

	h.logger.Debug("event subscriber connected", "subscribers", count)

	go client.writePump()
	go client.readPump()
	return nil
}

func (h *EventHub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *EventHub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	clients := make([]*wsClient, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	h.unsubscribe()
	for _, c := range clients {
		c.close()
	}
}

// broadcast forwards one control event to every subscriber. Raw audio
// events are skipped; slow subscribers drop rather than stall the fan-out.
func (h *EventHub) broadcast(ev Event) {
	if ev.Kind != EventControl {
		return
	}

	h.mu.Lock()
	clients := make([]*wsClient, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		select {
		case c.send <- ev.Data:
		default:
			h.logger.Warn("event subscriber too slow, dropping event", "type", ev.Type)
		}
	}
}

func (h *EventHub) remove(c *wsClient) {
	h.mu.Lock()
	delete(h.clients, c)
	count := len(h.clients)
	h.mu.Unlock()
	h.logger.Debug("event subscriber disconnected", "subscribers", count)
}

type wsClient struct {
	hub  *EventHub
	ws   *websocket.Conn
	send chan []byte

	once sync.Once
	done chan struct{}
}

func (c *wsClient) close() {
	c.once.Do(func() {
		close(c.done)
		c.ws.Close()
		c.hub.remove(c)
	})
}

// readPump discards inbound frames; the stream is one-way. It exists to
// observe close frames and keep the pong handler serviced.
func (c *wsClient) readPump() {
	defer c.close()

	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.ws.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case msg := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}
