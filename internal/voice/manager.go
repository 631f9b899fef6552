package voice

import (
	"github.com/pion/webrtc/v4"
)

// Manager owns the shared pion API instance (media engine, port range) and
// builds peer connections for both sides of the bridge.
type Manager struct {
	cfg Config
	api *webrtc.API
}

func NewManager(cfg Config) (*Manager, error) {
	cfg = cfg.withDefaults()

	me := &webrtc.MediaEngine{}
	if err := me.RegisterDefaultCodecs(); err != nil {
		return nil, err
	}

	se := &webrtc.SettingEngine{}
	if cfg.PortRange.Min > 0 && cfg.PortRange.Max > cfg.PortRange.Min {
		if err := se.SetEphemeralUDPPortRange(uint16(cfg.PortRange.Min), uint16(cfg.PortRange.Max)); err != nil {
			return nil, err
		}
	}

	api := webrtc.NewAPI(
		webrtc.WithMediaEngine(me),
		webrtc.WithSettingEngine(*se),
	)

	return &Manager{
		cfg: cfg,
		api: api,
	}, nil
}

func (m *Manager) Config() Config {
	return m.cfg
}

func (m *Manager) NewPeerConnection() (*webrtc.PeerConnection, error) {
	return m.api.NewPeerConnection(webrtc.Configuration{
		ICEServers: m.iceServers(),
	})
}

func (m *Manager) iceServers() []webrtc.ICEServer {
	servers := make([]webrtc.ICEServer, 0, len(m.cfg.ICEServers))
	for _, s := range m.cfg.ICEServers {
		server := webrtc.ICEServer{
			URLs: s.URLs,
		}
		if s.Username != "" {
			server.Username = s.Username
			server.Credential = s.Credential
			server.CredentialType = webrtc.ICECredentialTypePassword
		}
		servers = append(servers, server)
	}

	if len(servers) == 0 {
		servers = append(servers, webrtc.ICEServer{
			URLs: []string{"stun:stun.l.google.com:19302"},
		})
	}

	return servers
}
