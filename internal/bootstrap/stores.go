package bootstrap

import (
	"log/slog"

	"github.com/qdrant/go-client/qdrant"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/pathfinder-ai/career-backend/internal/chat"
	"github.com/pathfinder-ai/career-backend/internal/job"
	"github.com/pathfinder-ai/career-backend/internal/llm"
	"github.com/pathfinder-ai/career-backend/internal/prompt"
	"github.com/pathfinder-ai/career-backend/internal/resume"
	"github.com/pathfinder-ai/career-backend/internal/vectordb"
)

const (
	jobCollection    = "job_offers"
	resumeCollection = "resumes"
)

func ProvideJobStore(db *gorm.DB) *job.Store {
	return job.NewStore(db)
}

func ProvideJobService(lc fx.Lifecycle, store *job.Store, qc *qdrant.Client, llmClient *llm.Client, logger *slog.Logger) *job.Service {
	index := vectordb.NewIndex(qc, jobCollection, llm.EmbeddingDim)
	lc.Append(fx.Hook{OnStart: index.Ensure})
	return job.NewService(store, index, llmClient, logger)
}

func ProvideResumeStore(lc fx.Lifecycle, db *gorm.DB, qc *qdrant.Client, llmClient *llm.Client) *resume.Store {
	index := vectordb.NewIndex(qc, resumeCollection, llm.EmbeddingDim)
	lc.Append(fx.Hook{OnStart: index.Ensure})
	return resume.NewStore(db, index, llmClient)
}

func ProvideResumeService(store *resume.Store, llmClient *llm.Client, jobService *job.Service, jobStore *job.Store, logger *slog.Logger) *resume.Service {
	analyzer := resume.NewAnalyzer(llmClient, logger)
	return resume.NewService(store, analyzer, jobService, jobStore, logger)
}

func ProvideChatStore(redisClient *redis.Client) *chat.Store {
	return chat.NewStore(redisClient)
}

func ProvideChatService(store *chat.Store, prompts *prompt.Handler, llmClient *llm.Client, jobService *job.Service, logger *slog.Logger) *chat.Service {
	return chat.NewService(store, prompts, llmClient, jobService, logger)
}

func RunMigrations(jobStore *job.Store, resumeStore *resume.Store) error {
	if err := jobStore.Migrate(); err != nil {
		return err
	}
	return resumeStore.Migrate()
}

var StoresModule = fx.Options(
	fx.Provide(
		ProvideJobStore,
		ProvideJobService,
		ProvideResumeStore,
		ProvideResumeService,
		ProvideChatStore,
		ProvideChatService,
	),
	fx.Invoke(RunMigrations),
)
