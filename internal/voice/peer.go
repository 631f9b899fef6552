package voice

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/pion/webrtc/v4"
)

// ClientPeer is one downstream browser connection. Incoming microphone
// audio is surfaced through the onAudio callback; assistant playback is
// attached as a shared local track.
type ClientPeer struct {
	id  string
	pc  *webrtc.PeerConnection
	log *slog.Logger

	onAudio func([]byte)
	onClose func(id string)

	mu     sync.Mutex
	closed bool
}

func newClientPeer(id string, pc *webrtc.PeerConnection, log *slog.Logger) *ClientPeer {
	if log == nil {
		log = slog.Default()
	}
	p := &ClientPeer{
		id:  id,
		pc:  pc,
		log: log.With("component", "client_peer", "peer_id", id),
	}

	pc.OnTrack(func(remote *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
		if remote.Kind() != webrtc.RTPCodecTypeAudio {
			return
		}
		go p.readIncomingAudio(remote)
	})

	pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		switch state {
		case webrtc.PeerConnectionStateFailed,
			webrtc.PeerConnectionStateDisconnected,
			webrtc.PeerConnectionStateClosed:
			p.Close()
		}
	})

	return p
}

func (p *ClientPeer) ID() string {
	return p.id
}

// OnAudio registers the handler invoked with each raw audio payload read
// from the client's microphone track. Must be set before the handshake
// completes to avoid dropping early frames.
func (p *ClientPeer) OnAudio(fn func([]byte)) {
	p.mu.Lock()
	p.onAudio = fn
	p.mu.Unlock()
}

func (p *ClientPeer) OnClose(fn func(id string)) {
	p.mu.Lock()
	p.onClose = fn
	p.mu.Unlock()
}

// AttachPlayback adds the shared assistant audio track to this peer so the
// browser hears synthesized speech.
func (p *ClientPeer) AttachPlayback(track *webrtc.TrackLocalStaticRTP) error {
	if track == nil {
		return nil
	}
	_, err := p.pc.AddTrack(track)
	return err
}

// Answer applies the client's SDP offer and produces a complete answer,
// waiting for ICE gathering so the SDP carries all candidates.
func (p *ClientPeer) Answer(ctx context.Context, offerSDP string) (string, error) {
	offer := webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: offerSDP}
	if err := p.pc.SetRemoteDescription(offer); err != nil {
		return "", fmt.Errorf("apply client offer: %w", err)
	}

	answer, err := p.pc.CreateAnswer(nil)
	if err != nil {
		return "", fmt.Errorf("create answer: %w", err)
	}

	gathered := webrtc.GatheringCompletePromise(p.pc)
	if err := p.pc.SetLocalDescription(answer); err != nil {
		return "", fmt.Errorf("set local description: %w", err)
	}

	select {
	case <-gathered:
	case <-ctx.Done():
		return "", ctx.Err()
	}

	return p.pc.LocalDescription().SDP, nil
}

func (p *ClientPeer) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	onClose := p.onClose
	p.mu.Unlock()

	p.pc.Close()
	p.log.Debug("client peer closed")
	if onClose != nil {
		onClose(p.id)
	}
}

func (p *ClientPeer) readIncomingAudio(remote *webrtc.TrackRemote) {
	buf := make([]byte, 1500)
	for {
		n, _, err := remote.Read(buf)
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrClosedPipe) {
				p.log.Debug("client track read ended", "error", err)
			}
			return
		}

		p.mu.Lock()
		handler := p.onAudio
		p.mu.Unlock()
		if handler == nil {
			continue
		}

		// The read buffer is reused, so hand the handler its own copy.
		frame := make([]byte, n)
		copy(frame, buf[:n])
		handler(frame)
	}
}
