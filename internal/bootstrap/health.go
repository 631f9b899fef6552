package bootstrap

import (
	"github.com/labstack/echo/v4"
	"github.com/qdrant/go-client/qdrant"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/pathfinder-ai/career-backend/internal/health"
	"github.com/pathfinder-ai/career-backend/internal/job"
	"github.com/pathfinder-ai/career-backend/internal/resume"
	"github.com/pathfinder-ai/career-backend/internal/voice"
)

const version = "1.0.0"

type voiceStats struct {
	bridge *voice.Bridge
	hub    *voice.EventHub
}

func (v voiceStats) PeerCount() int {
	return v.bridge.PeerCount()
}

func (v voiceStats) SubscriberCount() int {
	return v.hub.ClientCount()
}

func ProvideHealthHandler(
	db *gorm.DB,
	redisClient *redis.Client,
	qdrantClient *qdrant.Client,
	bridge *voice.Bridge,
	hub *voice.EventHub,
	jobStore *job.Store,
	resumeStore *resume.Store,
) *health.Handler {
	return health.NewHandler(
		db,
		redisClient,
		qdrantClient,
		voiceStats{bridge: bridge, hub: hub},
		jobStore,
		resumeStore,
		version,
	)
}

func metricsMiddleware(h *health.Handler) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h.IncrementRequests()
			h.IncrementConnections()
			defer h.DecrementConnections()
			return next(c)
		}
	}
}

func RegisterHealthRoutes(e *echo.Echo, h *health.Handler) {
	e.Use(metricsMiddleware(h))
	h.RegisterRoutes(e)
}

var HealthModule = fx.Options(
	fx.Provide(ProvideHealthHandler),
	fx.Invoke(RegisterHealthRoutes),
)
