package voice

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/pion/webrtc/v4"

	"github.com/pathfinder-ai/career-backend/internal/shared"
)

// stubUpstream imitates the realtime speech service: it mints ephemeral
// credentials and answers SDP offers with a real peer connection so the
// handshake completes end to end.
type stubUpstream struct {
	t               *testing.T
	srv             *httptest.Server
	tokenCalls      atomic.Int32
	sdpCalls        atomic.Int32
	failTokens      atomic.Bool
	failFirstTokens atomic.Int32

	mu  sync.Mutex
	pcs []*webrtc.PeerConnection
}

func newStubUpstream(t *testing.T) *stubUpstream {
	t.Helper()
	u := &stubUpstream{t: t}

	mux := http.NewServeMux()
	mux.HandleFunc("/sessions", func(w http.ResponseWriter, r *http.Request) {
		calls := u.tokenCalls.Add(1)
		if u.failTokens.Load() || calls <= u.failFirstTokens.Load() {
			http.Error(w, "unavailable", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"sess_test","client_secret":{"value":"eph_test"}}`))
	})
	mux.HandleFunc("/realtime", func(w http.ResponseWriter, r *http.Request) {
		u.sdpCalls.Add(1)
		offer, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		answer, err := u.answer(string(offer))
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/sdp")
		_, _ = w.Write([]byte(answer))
	})

	u.srv = httptest.NewServer(mux)
	t.Cleanup(u.close)
	return u
}

func (u *stubUpstream) answer(offerSDP string) (string, error) {
	pc, err := webrtc.NewPeerConnection(webrtc.Configuration{})
	if err != nil {
		return "", err
	}
	u.mu.Lock()
	u.pcs = append(u.pcs, pc)
	u.mu.Unlock()

	offer := webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: offerSDP}
	if err := pc.SetRemoteDescription(offer); err != nil {
		return "", err
	}
	answer, err := pc.CreateAnswer(nil)
	if err != nil {
		return "", err
	}
	gathered := webrtc.GatheringCompletePromise(pc)
	if err := pc.SetLocalDescription(answer); err != nil {
		return "", err
	}
	<-gathered
	return pc.LocalDescription().SDP, nil
}

func (u *stubUpstream) close() {
	u.srv.Close()
	u.mu.Lock()
	defer u.mu.Unlock()
	for _, pc := range u.pcs {
		pc.Close()
	}
}

func newTestSession(t *testing.T, upstream *stubUpstream, apiKey string) *Session {
	t.Helper()

	cfg := Config{
		APIKey: apiKey,
		Backoff: shared.BackoffConfig{
			Base:        1,
			MaxDelay:    2,
			MaxAttempts: 3,
		},
	}
	if upstream != nil {
		cfg.SessionsURL = upstream.srv.URL + "/sessions"
		cfg.RealtimeURL = upstream.srv.URL + "/realtime"
	}

	manager, err := NewManager(cfg)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	s := NewSession(cfg, manager, NewTokenClient(apiKey, cfg.SessionsURL), nil)
	t.Cleanup(s.Close)
	return s
}

func TestSession_ConnectWithoutAPIKey(t *testing.T) {
	upstream := newStubUpstream(t)
	s := newTestSession(t, upstream, "")

	err := s.Connect(context.Background())
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}
	if upstream.tokenCalls.Load() != 0 || upstream.sdpCalls.Load() != 0 {
		t.Fatal("expected no network traffic without an API key")
	}
	if s.State() != StateDisconnected {
		t.Fatalf("state = %v, want disconnected", s.State())
	}
}

func TestSession_ConnectTokenFailure(t *testing.T) {
	upstream := newStubUpstream(t)
	upstream.failTokens.Store(true)
	s := newTestSession(t, upstream, "sk-test")

	err := s.Connect(context.Background())
	if !errors.Is(err, ErrConnectionFailed) {
		t.Fatalf("expected ErrConnectionFailed, got %v", err)
	}
	if upstream.sdpCalls.Load() != 0 {
		t.Fatal("no SDP exchange should happen when the credential fails")
	}
	if s.State() != StateDisconnected {
		t.Fatalf("state = %v, want disconnected", s.State())
	}
}

func TestSession_ConnectSuccess(t *testing.T) {
	upstream := newStubUpstream(t)
	s := newTestSession(t, upstream, "sk-test")

	var connects atomic.Int32
	s.SetOnConnect(func() { connects.Add(1) })

	if err := s.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}

	if s.State() != StateConnected {
		t.Fatalf("state = %v, want connected", s.State())
	}
	if connects.Load() != 1 {
		t.Fatalf("onConnect fired %d times, want 1", connects.Load())
	}
	if upstream.tokenCalls.Load() != 1 || upstream.sdpCalls.Load() != 1 {
		t.Fatalf("unexpected call counts: tokens=%d sdp=%d",
			upstream.tokenCalls.Load(), upstream.sdpCalls.Load())
	}

	// A second connect while already up is a no-op.
	if err := s.Connect(context.Background()); err != nil {
		t.Fatalf("repeat connect: %v", err)
	}
	if upstream.tokenCalls.Load() != 1 {
		t.Fatal("repeat connect should not mint another credential")
	}
}

func TestSession_RetryRecoversFromTransientFailures(t *testing.T) {
	upstream := newStubUpstream(t)
	upstream.failFirstTokens.Store(2)
	s := newTestSession(t, upstream, "sk-test")

	var connects atomic.Int32
	s.SetOnConnect(func() { connects.Add(1) })

	if err := s.ConnectWithRetry(context.Background()); err != nil {
		t.Fatalf("connect with retry: %v", err)
	}

	if s.State() != StateConnected {
		t.Fatalf("state = %v, want connected after recovery", s.State())
	}
	// Two failed mints, then the third succeeds within the retry budget.
	if got := upstream.tokenCalls.Load(); got != 3 {
		t.Fatalf("expected 3 connect attempts, got %d", got)
	}
	if connects.Load() != 1 {
		t.Fatalf("onConnect fired %d times, want 1", connects.Load())
	}
}

func TestSession_PeerFailureTriggersReconnect(t *testing.T) {
	upstream := newStubUpstream(t)
	s := newTestSession(t, upstream, "sk-test")

	var connects atomic.Int32
	s.SetOnConnect(func() { connects.Add(1) })

	if err := s.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}

	s.mu.RLock()
	pc := s.pc
	s.mu.RUnlock()

	s.handlePeerState(pc, webrtc.PeerConnectionStateFailed)

	waitFor(t, func() bool {
		return s.State() == StateConnected && connects.Load() == 2
	})
	if got := upstream.tokenCalls.Load(); got != 2 {
		t.Fatalf("expected a fresh credential for the reconnect, got %d mints", got)
	}
}

func TestSession_StalePeerStateIsIgnored(t *testing.T) {
	upstream := newStubUpstream(t)
	s := newTestSession(t, upstream, "sk-test")

	if err := s.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}

	// A state change from a peer the session no longer owns must not tear
	// down the current connection.
	stale, err := webrtc.NewPeerConnection(webrtc.Configuration{})
	if err != nil {
		t.Fatalf("new peer: %v", err)
	}
	defer stale.Close()

	s.handlePeerState(stale, webrtc.PeerConnectionStateFailed)

	if s.State() != StateConnected {
		t.Fatalf("state = %v, want connected", s.State())
	}
	if got := upstream.tokenCalls.Load(); got != 1 {
		t.Fatalf("stale peer state should not trigger a reconnect, got %d mints", got)
	}
}

func TestSession_RetryExhaustion(t *testing.T) {
	upstream := newStubUpstream(t)
	upstream.failTokens.Store(true)
	s := newTestSession(t, upstream, "sk-test")

	err := s.ConnectWithRetry(context.Background())
	if !errors.Is(err, ErrConnectionFailed) {
		t.Fatalf("expected ErrConnectionFailed, got %v", err)
	}

	// One initial attempt plus three bounded retries.
	if got := upstream.tokenCalls.Load(); got != 4 {
		t.Fatalf("expected 4 connect attempts, got %d", got)
	}
	if s.State() != StateDisconnected {
		t.Fatalf("state = %v, want disconnected after exhaustion", s.State())
	}
}

type recordingSender struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (r *recordingSender) SendText(s string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, s)
	return nil
}

func (r *recordingSender) messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.sent...)
}

func TestSession_DisconnectedSendsAreNoOps(t *testing.T) {
	s := newTestSession(t, newStubUpstream(t), "sk-test")

	sender := &recordingSender{}
	s.mu.Lock()
	s.dc = sender
	s.mu.Unlock()

	s.SendSessionConfig()
	s.Interrupt()
	if ok := s.SendUserMessage("hello"); ok {
		t.Fatal("SendUserMessage should report failure while disconnected")
	}
	if len(sender.messages()) != 0 {
		t.Fatalf("no control messages should reach the channel, got %d", len(sender.messages()))
	}
}

func TestSession_SendUserMessageOrdering(t *testing.T) {
	s := newTestSession(t, newStubUpstream(t), "sk-test")

	sender := &recordingSender{}
	s.mu.Lock()
	s.dc = sender
	s.state = StateConnected
	s.mu.Unlock()

	if ok := s.SendUserMessage("find me a job"); !ok {
		t.Fatal("SendUserMessage should succeed while connected")
	}

	msgs := sender.messages()
	if len(msgs) != 2 {
		t.Fatalf("expected 2 control messages, got %d", len(msgs))
	}
	first, ok := parseControlEvent([]byte(msgs[0]))
	if !ok || first.Type != "conversation.item.create" {
		t.Fatalf("first message = %s", msgs[0])
	}
	second, ok := parseControlEvent([]byte(msgs[1]))
	if !ok || second.Type != "response.create" {
		t.Fatalf("second message = %s", msgs[1])
	}
}

func TestSession_PushAudioWhileDisconnected(t *testing.T) {
	s := newTestSession(t, newStubUpstream(t), "sk-test")

	s.PushAudio(Frame{Data: []byte{1, 2, 3}})
	if s.Buffer().Len() != 0 {
		t.Fatal("frames pushed while disconnected should be dropped")
	}
}

func TestSession_DisconnectedDropLoggingThrottled(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	cfg := Config{APIKey: "sk-test"}
	manager, err := NewManager(cfg)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	s := NewSession(cfg, manager, NewTokenClient("sk-test", cfg.SessionsURL), logger)
	t.Cleanup(s.Close)

	frames := 2 * droppedFrameLogInterval
	for i := 0; i < frames; i++ {
		s.PushAudio(Frame{Data: []byte{byte(i)}})
	}

	if s.Buffer().Len() != 0 {
		t.Fatal("frames pushed while disconnected should be dropped")
	}
	// One warning for the first drop, then one per interval boundary.
	warns := strings.Count(buf.String(), "dropping audio frames")
	if warns != 3 {
		t.Fatalf("logged %d drop warnings for %d frames, want 3", warns, frames)
	}
}

func TestSession_StopWithoutConnect(t *testing.T) {
	s := newTestSession(t, newStubUpstream(t), "sk-test")
	s.Stop()
	s.Stop()
	if s.State() != StateDisconnected {
		t.Fatalf("state = %v, want disconnected", s.State())
	}
}
