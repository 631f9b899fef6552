package bootstrap

import (
	"context"
	"log/slog"
	"os"

	"github.com/qdrant/go-client/qdrant"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/pathfinder-ai/career-backend/internal/llm"
	"github.com/pathfinder-ai/career-backend/internal/prompt"
)

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func ProvideLogger(cfg *Config) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}))
}

func ProvideRedisClient(cfg *Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
}

func ProvideDatabase(cfg *Config) (*gorm.DB, error) {
	return gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
}

func ProvideQdrantClient(cfg *Config) (*qdrant.Client, error) {
	return qdrant.NewClient(&qdrant.Config{
		Host:   cfg.QdrantHost,
		Port:   cfg.QdrantPort,
		APIKey: cfg.QdrantAPIKey,
	})
}

func ProvideLLMClient(cfg *Config, logger *slog.Logger) (*llm.Client, error) {
	return llm.NewClient(context.Background(), llm.Config{
		APIKey:     cfg.GeminiAPIKey,
		Model:      cfg.GeminiModel,
		EmbedModel: cfg.GeminiEmbedModel,
	}, logger)
}

func ProvidePromptHandler(cfg *Config, logger *slog.Logger) *prompt.Handler {
	return prompt.NewHandler(cfg.PromptPath, logger)
}

var InfrastructureModule = fx.Options(
	fx.Provide(
		ProvideLogger,
		ProvideRedisClient,
		ProvideDatabase,
		ProvideQdrantClient,
		ProvideLLMClient,
		ProvidePromptHandler,
	),
)
