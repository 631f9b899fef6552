package voice

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/pion/webrtc/v4"
)

// Orchestrator owns the process-wide upstream session and fans its events
// out to any number of subscribers. Downstream surfaces (the bridge, the
// websocket hub, HTTP handlers) all talk to the session through it.
type Orchestrator struct {
	session *Session
	log     *slog.Logger

	mu     sync.RWMutex
	nextID int
	subs   map[int]func(Event)
}

func NewOrchestrator(session *Session, log *slog.Logger) *Orchestrator {
	if log == nil {
		log = slog.Default()
	}
	o := &Orchestrator{
		session: session,
		log:     log.With("component", "voice_orchestrator"),
		subs:    make(map[int]func(Event)),
	}
	session.SetEventHandler(o.dispatch)
	return o
}

// Start brings up the upstream session in the background so a slow or
// failing upstream never blocks process startup. A missing API key is
// logged and leaves the voice surface disabled rather than failing boot.
func (o *Orchestrator) Start(ctx context.Context) {
	go func() {
		if err := o.session.ConnectWithRetry(ctx); err != nil {
			if errors.Is(err, ErrMissingAPIKey) {
				o.log.Error("voice disabled, no upstream API key configured")
				return
			}
			o.log.Error("upstream session unavailable", "error", err)
		}
	}()
}

func (o *Orchestrator) Stop() {
	o.session.Close()
}

func (o *Orchestrator) State() State {
	return o.session.State()
}

// Subscribe registers an event observer and returns its unsubscribe
// function. Observers receive every upstream event in arrival order.
func (o *Orchestrator) Subscribe(fn func(Event)) func() {
	o.mu.Lock()
	id := o.nextID
	o.nextID++
	o.subs[id] = fn
	o.mu.Unlock()

	return func() {
		o.mu.Lock()
		delete(o.subs, id)
		o.mu.Unlock()
	}
}

// OnConnect registers the callback fired when the upstream session comes
// up, including after a reconnect.
func (o *Orchestrator) OnConnect(fn func()) {
	o.session.SetOnConnect(fn)
}

// PushClientAudio forwards one microphone frame upstream. Frames arriving
// while disconnected are dropped by the session.
func (o *Orchestrator) PushClientAudio(data []byte) {
	o.session.PushAudio(Frame{Data: data})
}

func (o *Orchestrator) SendUserMessage(text string) bool {
	return o.session.SendUserMessage(text)
}

func (o *Orchestrator) SendSessionConfig() {
	o.session.SendSessionConfig()
}

func (o *Orchestrator) Interrupt() {
	o.session.Interrupt()
}

// PlaybackTrack exposes the shared assistant audio track, nil until the
// upstream produces audio.
func (o *Orchestrator) PlaybackTrack() *webrtc.TrackLocalStaticRTP {
	return o.session.RemoteTrack()
}

func (o *Orchestrator) dispatch(ev Event) {
	o.mu.RLock()
	handlers := make([]func(Event), 0, len(o.subs))
	for _, fn := range o.subs {
		handlers = append(handlers, fn)
	}
	o.mu.RUnlock()

	for _, fn := range handlers {
		fn(ev)
	}
}
