package voice

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/pathfinder-ai/career-backend/internal/shared"
)

// Bridge terminates downstream browser connections and splices them onto
// the shared upstream session: microphone audio flows up through the
// orchestrator, assistant audio comes back on the relay track.
type Bridge struct {
	manager *Manager
	orch    *Orchestrator
	log     *slog.Logger

	mu    sync.Mutex
	peers map[string]*ClientPeer
}

func NewBridge(manager *Manager, orch *Orchestrator, log *slog.Logger) *Bridge {
	if log == nil {
		log = slog.Default()
	}
	return &Bridge{
		manager: manager,
		orch:    orch,
		log:     log.With("component", "voice_bridge"),
		peers:   make(map[string]*ClientPeer),
	}
}

// HandleOffer accepts one browser SDP offer and returns the answer. The
// peer is wired into the shared upstream session before the answer is
// produced, so no early microphone frames are lost. An upstream that is
// still connecting does not fail the handshake; the peer simply has no
// playback track yet.
func (b *Bridge) HandleOffer(ctx context.Context, offerSDP string) (string, error) {
	if strings.TrimSpace(offerSDP) == "" {
		return "", ErrInvalidOffer
	}

	pc, err := b.manager.NewPeerConnection()
	if err != nil {
		return "", err
	}

	peer := newClientPeer(shared.NewID("peer"), pc, b.log)
	peer.OnAudio(b.orch.PushClientAudio)
	peer.OnClose(b.removePeer)

	if track := b.orch.PlaybackTrack(); track != nil {
		if err := peer.AttachPlayback(track); err != nil {
			peer.Close()
			return "", err
		}
	}

	answer, err := peer.Answer(ctx, offerSDP)
	if err != nil {
		peer.Close()
		return "", err
	}

	b.mu.Lock()
	b.peers[peer.ID()] = peer
	count := len(b.peers)
	b.mu.Unlock()

	b.log.Info("client peer connected", "peer_id", peer.ID(), "active_peers", count)
	return answer, nil
}

func (b *Bridge) PeerCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.peers)
}

// Close tears down every downstream peer. The upstream session is owned
// by the orchestrator and is not touched here.
func (b *Bridge) Close() {
	b.mu.Lock()
	peers := make([]*ClientPeer, 0, len(b.peers))
	for _, p := range b.peers {
		peers = append(peers, p)
	}
	b.mu.Unlock()

	for _, p := range peers {
		p.Close()
	}
}

func (b *Bridge) removePeer(id string) {
	b.mu.Lock()
	delete(b.peers, id)
	count := len(b.peers)
	b.mu.Unlock()
	b.log.Debug("client peer removed", "peer_id", id, "active_peers", count)
}
