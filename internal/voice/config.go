package voice

import "github.com/pathfinder-ai/career-backend/internal/shared"

type Config struct {
	// APIKey authenticates the ephemeral-credential mint. Empty means the
	// voice subsystem is not configured; Connect fails without touching
	// the network.
	APIKey string

	Model              string
	Voice              string
	Temperature        float64
	TranscriptionModel string
	Instructions       string

	// SessionsURL issues ephemeral credentials, RealtimeURL terminates the
	// SDP exchange.
	SessionsURL string
	RealtimeURL string

	ICEServers []ICEServerConfig
	PortRange  PortRange

	FrameBufferSize int
	Backoff         shared.BackoffConfig
}

type ICEServerConfig struct {
	URLs       []string
	Username   string
	Credential string
}

type PortRange struct {
	Min int
	Max int
}

const (
	DefaultModel              = "gpt-4o-realtime-preview-2024-12-17"
	DefaultVoice              = "alloy"
	DefaultTemperature        = 0.8
	DefaultTranscriptionModel = "whisper-1"
	DefaultSessionsURL        = "https://api.openai.com/v1/realtime/sessions"
	DefaultRealtimeURL        = "https://api.openai.com/v1/realtime"
)

func (c Config) withDefaults() Config {
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.Voice == "" {
		c.Voice = DefaultVoice
	}
	if c.Temperature == 0 {
		c.Temperature = DefaultTemperature
	}
	if c.TranscriptionModel == "" {
		c.TranscriptionModel = DefaultTranscriptionModel
	}
	if c.SessionsURL == "" {
		c.SessionsURL = DefaultSessionsURL
	}
	if c.RealtimeURL == "" {
		c.RealtimeURL = DefaultRealtimeURL
	}
	if c.FrameBufferSize <= 0 {
		c.FrameBufferSize = DefaultFrameBufferSize
	}
	c.Backoff = shared.NormalizeBackoff(c.Backoff)
	return c
}
