package voice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pion/webrtc/v4"
)

type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// dataSender is the control-channel write surface. Production uses the
// pion data channel; tests substitute a recording fake.
type dataSender interface {
	SendText(s string) error
}

// Session is the process's single persistent connection to the upstream
// realtime speech service. Client audio is queued through a FrameBuffer
// and drained onto the upstream track by a dedicated forward loop; audio
// synthesized upstream arrives on a remote track and is fanned out to
// downstream peers through the TrackRelay.
//
// One Session per process. Concurrent downstream clients share it.
type Session struct {
	cfg     Config
	manager *Manager
	tokens  *TokenClient
	relay   *TrackRelay
	buffer  *FrameBuffer
	log     *slog.Logger

	httpClient *http.Client

	droppedDisconnected atomic.Int64

	lifeCtx    context.Context
	lifeCancel context.CancelFunc
	wg         sync.WaitGroup

	mu                sync.RWMutex
	state             State
	pc                *webrtc.PeerConnection
	dc                dataSender
	clientTrackTarget *webrtc.TrackLocalStaticRTP
	connCancel        context.CancelFunc
	onEvent           func(Event)
	onConnect         func()
	closing           bool
	reconnecting      bool
}

func NewSession(cfg Config, manager *Manager, tokens *TokenClient, log *slog.Logger) *Session {
	if log == nil {
		log = slog.Default()
	}
	cfg = cfg.withDefaults()

	ctx, cancel := context.WithCancel(context.Background())

	return &Session{
		cfg:        cfg,
		manager:    manager,
		tokens:     tokens,
		relay:      NewTrackRelay(log),
		buffer:     NewFrameBuffer(cfg.FrameBufferSize),
		log:        log.With("component", "upstream_session"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
		lifeCtx:    ctx,
		lifeCancel: cancel,
	}
}

func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Session) Buffer() *FrameBuffer {
	return s.buffer
}

// RemoteTrack returns the shared playback track carrying upstream audio,
// or nil while the upstream session has produced none yet.
func (s *Session) RemoteTrack() *webrtc.TrackLocalStaticRTP {
	return s.relay.Track()
}

// SetEventHandler registers the single inbound-message handler. The
// orchestrator owns multiplexing to multiple subscribers.
func (s *Session) SetEventHandler(fn func(Event)) {
	s.mu.Lock()
	s.onEvent = fn
	s.mu.Unlock()
}

func (s *Session) SetOnConnect(fn func()) {
	s.mu.Lock()
	s.onConnect = fn
	s.mu.Unlock()
}

// Connect establishes the upstream connection: mint an ephemeral
// credential, run the SDP offer/answer exchange with it, apply the answer.
// A missing API key fails immediately without any network traffic. Both
// credential and handshake failures wrap ErrConnectionFailed and leave the
// session disconnected; they are fatal for the attempt, retryable for the
// session.
func (s *Session) Connect(ctx context.Context) error {
	if s.cfg.APIKey == "" {
		return ErrMissingAPIKey
	}

	s.mu.Lock()
	if s.state != StateDisconnected {
		s.mu.Unlock()
		return nil
	}
	s.state = StateConnecting
	s.closing = false
	s.mu.Unlock()

	token, err := s.tokens.Mint(ctx, SessionTokenRequest{
		Model:        s.cfg.Model,
		Voice:        s.cfg.Voice,
		Instructions: s.cfg.Instructions,
	})
	if err != nil {
		s.setState(StateDisconnected)
		return err
	}

	pc, dc, err := s.buildPeer()
	if err != nil {
		s.setState(StateDisconnected)
		return fmt.Errorf("%w: create peer: %v", ErrConnectionFailed, err)
	}

	offerSDP, err := s.createOffer(ctx, pc)
	if err != nil {
		pc.Close()
		s.setState(StateDisconnected)
		return err
	}

	answerSDP, err := s.exchangeSDP(ctx, token.Value, offerSDP)
	if err != nil {
		pc.Close()
		s.setState(StateDisconnected)
		return err
	}

	answer := webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer, SDP: answerSDP}
	if err := pc.SetRemoteDescription(answer); err != nil {
		pc.Close()
		s.setState(StateDisconnected)
		return fmt.Errorf("%w: apply answer: %v", ErrConnectionFailed, err)
	}

	connCtx, connCancel := context.WithCancel(s.lifeCtx)

	s.mu.Lock()
	s.pc = pc
	s.dc = dc
	s.connCancel = connCancel
	s.state = StateConnected
	onConnect := s.onConnect
	s.mu.Unlock()

	s.wg.Add(1)
	go s.forwardLoop(connCtx)

	s.log.Info("upstream session connected", "model", s.cfg.Model)
	if onConnect != nil {
		onConnect()
	}
	return nil
}

// ConnectWithRetry runs Connect and, on transient failure, keeps retrying
// with the configured linear-capped backoff until success or exhaustion.
// Configuration errors are not retried.
func (s *Session) ConnectWithRetry(ctx context.Context) error {
	err := s.Connect(ctx)
	if err == nil || errors.Is(err, ErrMissingAPIKey) {
		return err
	}
	s.log.Warn("initial upstream connect failed", "error", err)
	return s.retryConnect()
}

// droppedFrameLogInterval throttles the disconnected-drop warning: at
// RTP rates a per-frame warning would flood the log.
const droppedFrameLogInterval = 500

// PushAudio queues one client audio frame for upstream delivery. A no-op
// while disconnected; never blocks and never fails. Drops are counted and
// warned about periodically rather than per frame.
func (s *Session) PushAudio(f Frame) {
	if s.State() != StateConnected {
		if n := s.droppedDisconnected.Add(1); n == 1 || n%droppedFrameLogInterval == 0 {
			s.log.Warn("dropping audio frames, session not connected", "dropped", n)
		}
		return
	}
	s.buffer.Push(f)
}

// SendSessionConfig pushes the session.update control message carrying
// instructions, voice, temperature and the transcription model. A no-op
// with a logged warning while disconnected.
func (s *Session) SendSessionConfig() {
	if err := s.sendControl(newSessionUpdate(s.cfg)); err != nil {
		s.log.Warn("session.update not sent", "error", err)
	}
}

// SendUserMessage synthesizes a user turn and requests a response: two
// ordered control messages. Reports success; never panics or raises.
func (s *Session) SendUserMessage(text string) bool {
	if err := s.sendControl(newUserMessage(text)); err != nil {
		s.log.Warn("user message not sent", "error", err)
		return false
	}
	if err := s.sendControl(controlMessage{Type: "response.create"}); err != nil {
		s.log.Warn("response.create not sent", "error", err)
		return false
	}
	return true
}

// Interrupt asks the upstream session to cancel the in-progress response.
func (s *Session) Interrupt() {
	if err := s.sendControl(controlMessage{Type: "interrupt"}); err != nil {
		s.log.Warn("interrupt not sent", "error", err)
	}
}

// Stop closes the upstream connection without triggering reconnection.
// Buffered audio is abandoned. The session can be connected again later.
func (s *Session) Stop() {
	s.mu.Lock()
	s.closing = true
	s.state = StateDisconnected
	pc := s.pc
	s.pc = nil
	s.dc = nil
	if s.connCancel != nil {
		s.connCancel()
		s.connCancel = nil
	}
	s.mu.Unlock()

	s.relay.Stop()
	if pc != nil {
		pc.Close()
	}
}

// Close stops the session and joins all background work. Used by the
// composition root at shutdown; the session cannot be reused afterwards.
func (s *Session) Close() {
	s.Stop()
	s.lifeCancel()
	s.wg.Wait()
}

var errNotConnected = errors.New("session not connected")

func (s *Session) sendControl(v any) error {
	s.mu.RLock()
	dc := s.dc
	st := s.state
	s.mu.RUnlock()

	if st != StateConnected || dc == nil {
		return errNotConnected
	}

	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return dc.SendText(string(data))
}

func (s *Session) buildPeer() (*webrtc.PeerConnection, *webrtc.DataChannel, error) {
	pc, err := s.manager.NewPeerConnection()
	if err != nil {
		return nil, nil, err
	}

	clientTrack, err := webrtc.NewTrackLocalStaticRTP(
		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus},
		"audio",
		"client-voice",
	)
	if err != nil {
		pc.Close()
		return nil, nil, err
	}
	if _, err := pc.AddTrack(clientTrack); err != nil {
		pc.Close()
		return nil, nil, err
	}

	dc, err := pc.CreateDataChannel("oai-events", nil)
	if err != nil {
		pc.Close()
		return nil, nil, err
	}

	dc.OnOpen(func() {
		s.SendSessionConfig()
	})
	dc.OnMessage(func(msg webrtc.DataChannelMessage) {
		s.handleDataMessage(msg)
	})

	pc.OnTrack(func(remote *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
		if remote.Kind() != webrtc.RTPCodecTypeAudio {
			return
		}
		if err := s.relay.SetSource(remote); err != nil {
			s.log.Error("failed to relay upstream track", "error", err)
		}
	})

	pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		s.handlePeerState(pc, state)
	})

	s.mu.Lock()
	s.clientTrackTarget = clientTrack
	s.mu.Unlock()

	return pc, dc, nil
}

func (s *Session) createOffer(ctx context.Context, pc *webrtc.PeerConnection) (string, error) {
	offer, err := pc.CreateOffer(nil)
	if err != nil {
		return "", fmt.Errorf("%w: create offer: %v", ErrConnectionFailed, err)
	}

	gathered := webrtc.GatheringCompletePromise(pc)
	if err := pc.SetLocalDescription(offer); err != nil {
		return "", fmt.Errorf("%w: set local description: %v", ErrConnectionFailed, err)
	}

	select {
	case <-gathered:
	case <-ctx.Done():
		return "", ctx.Err()
	}

	return pc.LocalDescription().SDP, nil
}

func (s *Session) exchangeSDP(ctx context.Context, token, offerSDP string) (string, error) {
	endpoint := s.cfg.RealtimeURL + "?model=" + url.QueryEscape(s.cfg.Model)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(offerSDP))
	if err != nil {
		return "", fmt.Errorf("%w: build handshake request: %v", ErrConnectionFailed, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/sdp")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: sdp exchange: %v", ErrConnectionFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("%w: read handshake response: %v", ErrConnectionFailed, err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: sdp exchange returned %d: %s", ErrConnectionFailed, resp.StatusCode, body)
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return "", fmt.Errorf("%w: empty answer from upstream", ErrConnectionFailed)
	}

	return string(body), nil
}

// forwardLoop drains the frame buffer onto the upstream track in strict
// arrival order. It is the sole buffer consumer.
func (s *Session) forwardLoop(ctx context.Context) {
	defer s.wg.Done()

	for {
		frame, err := s.buffer.Recv(ctx)
		if err != nil {
			return
		}

		s.mu.RLock()
		track := s.clientTrackTarget
		s.mu.RUnlock()
		if track == nil {
			continue
		}

		if _, err := track.Write(frame.Data); err != nil && !errors.Is(err, io.ErrClosedPipe) {
			s.log.Debug("upstream track write failed", "error", err)
		}
	}
}

func (s *Session) handleDataMessage(msg webrtc.DataChannelMessage) {
	s.mu.RLock()
	handler := s.onEvent
	s.mu.RUnlock()
	if handler == nil {
		return
	}

	if !msg.IsString {
		handler(Event{Kind: EventAudio, Data: msg.Data})
		return
	}

	ev, ok := parseControlEvent(msg.Data)
	if !ok {
		s.log.Warn("malformed control event dropped", "size", len(msg.Data))
		return
	}
	handler(ev)
}

func (s *Session) handlePeerState(pc *webrtc.PeerConnection, state webrtc.PeerConnectionState) {
	switch state {
	case webrtc.PeerConnectionStateFailed, webrtc.PeerConnectionStateDisconnected, webrtc.PeerConnectionStateClosed:
	default:
		return
	}

	s.mu.Lock()
	if s.pc != pc || s.closing {
		s.mu.Unlock()
		return
	}
	s.pc = nil
	s.dc = nil
	s.state = StateDisconnected
	if s.connCancel != nil {
		s.connCancel()
		s.connCancel = nil
	}
	s.mu.Unlock()

	pc.Close()
	s.log.Warn("upstream connection lost", "peer_state", state.String())
	s.scheduleReconnect()
}

func (s *Session) scheduleReconnect() {
	s.mu.Lock()
	if s.closing || s.reconnecting {
		s.mu.Unlock()
		return
	}
	s.reconnecting = true
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			s.mu.Lock()
			s.reconnecting = false
			s.mu.Unlock()
		}()
		_ = s.retryConnect()
	}()
}

// retryConnect drives the bounded linear-capped backoff loop. After
// exhausting all attempts the session stays disconnected until an explicit
// Connect.
func (s *Session) retryConnect() error {
	cfg := s.cfg.Backoff
	var lastErr error

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		select {
		case <-s.lifeCtx.Done():
			return s.lifeCtx.Err()
		case <-time.After(cfg.DelayFor(attempt)):
		}

		if s.isClosing() {
			return nil
		}

		if err := s.Connect(s.lifeCtx); err != nil {
			lastErr = err
			s.log.Warn("reconnect attempt failed",
				"attempt", attempt,
				"max_attempts", cfg.MaxAttempts,
				"error", err)
			continue
		}

		s.log.Info("upstream session reconnected", "attempts", attempt)
		return nil
	}

	s.log.Error("reconnect attempts exhausted, explicit connect required",
		"attempts", cfg.MaxAttempts)
	if lastErr == nil {
		lastErr = fmt.Errorf("%w: reconnect attempts exhausted", ErrConnectionFailed)
	}
	return lastErr
}

func (s *Session) isClosing() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closing
}

func (s *Session) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}
