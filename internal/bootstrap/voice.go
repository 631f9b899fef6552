package bootstrap

import (
	"context"
	"log/slog"

	"go.uber.org/fx"

	"github.com/pathfinder-ai/career-backend/internal/prompt"
	"github.com/pathfinder-ai/career-backend/internal/voice"
)

func ProvideVoiceConfig(cfg *Config, prompts *prompt.Handler) voice.Config {
	iceServers := make([]voice.ICEServerConfig, 0, len(cfg.RTCICEServers))
	for _, s := range cfg.RTCICEServers {
		iceServers = append(iceServers, voice.ICEServerConfig{
			URLs:       s.URLs,
			Username:   s.Username,
			Credential: s.Credential,
		})
	}

	return voice.Config{
		APIKey:             cfg.OpenAIAPIKey,
		Model:              cfg.RealtimeModel,
		Voice:              cfg.RealtimeVoice,
		TranscriptionModel: cfg.TranscriptionModel,
		Instructions:       prompts.VoiceInstructions(),
		ICEServers:         iceServers,
		PortRange: voice.PortRange{
			Min: cfg.RTCPortMin,
			Max: cfg.RTCPortMax,
		},
	}
}

func ProvideVoiceManager(cfg voice.Config) (*voice.Manager, error) {
	return voice.NewManager(cfg)
}

func ProvideTokenClient(cfg voice.Config) *voice.TokenClient {
	return voice.NewTokenClient(cfg.APIKey, cfg.SessionsURL)
}

func ProvideVoiceSession(cfg voice.Config, manager *voice.Manager, tokens *voice.TokenClient, logger *slog.Logger) *voice.Session {
	return voice.NewSession(cfg, manager, tokens, logger)
}

func ProvideOrchestrator(session *voice.Session, logger *slog.Logger) *voice.Orchestrator {
	return voice.NewOrchestrator(session, logger)
}

func ProvideBridge(manager *voice.Manager, orch *voice.Orchestrator, logger *slog.Logger) *voice.Bridge {
	return voice.NewBridge(manager, orch, logger)
}

func ProvideEventHub(orch *voice.Orchestrator, logger *slog.Logger) *voice.EventHub {
	return voice.NewEventHub(orch, logger)
}

func ProvideVoiceHandler(bridge *voice.Bridge, orch *voice.Orchestrator, tokens *voice.TokenClient, hub *voice.EventHub, logger *slog.Logger) *voice.Handler {
	return voice.NewHandler(bridge, orch, tokens, hub, logger)
}

// StartVoice brings the upstream speech session up in the background and
// pushes the session configuration once the data channel opens. The server
// stays up without an API key, with voice endpoints degraded.
func StartVoice(lc fx.Lifecycle, orch *voice.Orchestrator, handler *voice.Handler) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			orch.OnConnect(orch.SendSessionConfig)
			orch.Start(context.Background())
			return nil
		},
		OnStop: func(ctx context.Context) error {
			handler.Shutdown(ctx)
			orch.Stop()
			return nil
		},
	})
}

var VoiceModule = fx.Options(
	fx.Provide(
		ProvideVoiceConfig,
		ProvideVoiceManager,
		ProvideTokenClient,
		ProvideVoiceSession,
		ProvideOrchestrator,
		ProvideBridge,
		ProvideEventHub,
		ProvideVoiceHandler,
	),
	fx.Invoke(StartVoice),
)
