package voice

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/pion/webrtc/v4"
)

// TrackRelay copies the upstream session's remote audio track into a local
// track that any number of downstream peers can attach for playback. The
// fan-out is read-only: downstream peers never write to the relay.
type TrackRelay struct {
	log *slog.Logger

	mu     sync.RWMutex
	local  *webrtc.TrackLocalStaticRTP
	cancel context.CancelFunc
}

func NewTrackRelay(log *slog.Logger) *TrackRelay {
	if log == nil {
		log = slog.Default()
	}
	return &TrackRelay{log: log.With("component", "track_relay")}
}

// Track returns the shared playback track, or nil while no upstream audio
// has arrived yet. Callers treat nil as "not ready", not as an error.
func (r *TrackRelay) Track() *webrtc.TrackLocalStaticRTP {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.local
}

// SetSource starts relaying the given remote track, replacing any previous
// source. The local track instance is reused across sources so downstream
// attachments survive upstream reconnects.
func (r *TrackRelay) SetSource(remote *webrtc.TrackRemote) error {
	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}

	if r.local == nil {
		local, err := webrtc.NewTrackLocalStaticRTP(
			webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus},
			"audio",
			"assistant-voice",
		)
		if err != nil {
			r.mu.Unlock()
			return err
		}
		r.local = local
	}

	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	local := r.local
	r.mu.Unlock()

	go r.copyLoop(ctx, remote, local)
	return nil
}

// Stop halts relaying without discarding the local track.
func (r *TrackRelay) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
}

func (r *TrackRelay) copyLoop(ctx context.Context, remote *webrtc.TrackRemote, local *webrtc.TrackLocalStaticRTP) {
	buf := make([]byte, 1500)
	for {
		if ctx.Err() != nil {
			return
		}

		n, _, err := remote.Read(buf)
		if err != nil {
			// End-of-stream is normal teardown; anything else is a real
			// transport fault and is surfaced at error severity.
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) || ctx.Err() != nil {
				r.log.Debug("upstream audio track ended")
			} else {
				r.log.Error("upstream audio track read failed", "error", err)
			}
			return
		}

		if _, err := local.Write(buf[:n]); err != nil && !errors.Is(err, io.ErrClosedPipe) {
			r.log.Debug("relay write failed", "error", err)
		}
	}
}
