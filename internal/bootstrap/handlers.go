package bootstrap

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"

	"github.com/pathfinder-ai/career-backend/internal/chat"
	"github.com/pathfinder-ai/career-backend/internal/job"
	"github.com/pathfinder-ai/career-backend/internal/resume"
	"github.com/pathfinder-ai/career-backend/internal/voice"
)

func ProvideChatHandler(service *chat.Service, logger *slog.Logger) *chat.Handler {
	return chat.NewHandler(service, logger)
}

func ProvideJobHandler(service *job.Service, cfg *Config, logger *slog.Logger) *job.Handler {
	return job.NewHandler(service, cfg.JobsCSVPath, logger)
}

func ProvideResumeHandler(service *resume.Service, logger *slog.Logger) *resume.Handler {
	return resume.NewHandler(service, logger)
}

type RouteParams struct {
	fx.In

	ChatHandler   *chat.Handler
	JobHandler    *job.Handler
	ResumeHandler *resume.Handler
	VoiceHandler  *voice.Handler
}

func RegisterRoutes(e *echo.Echo, params RouteParams) {
	params.ChatHandler.RegisterRoutes(e)
	params.JobHandler.RegisterRoutes(e)
	params.ResumeHandler.RegisterRoutes(e)
	params.VoiceHandler.RegisterRoutes(e)
}

var HandlersModule = fx.Options(
	fx.Provide(
		ProvideChatHandler,
		ProvideJobHandler,
		ProvideResumeHandler,
	),
	fx.Invoke(RegisterRoutes),
)
