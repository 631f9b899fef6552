package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/qdrant/go-client/qdrant"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/pathfinder-ai/career-backend/internal/job"
	"github.com/pathfinder-ai/career-backend/internal/llm"
	"github.com/pathfinder-ai/career-backend/internal/vectordb"
)

// Seeds the job offer database from a CSV export: rows go to Postgres,
// embedded description chunks go to Qdrant.
func main() {
	csvPath := flag.String("csv", envOr("JOBS_CSV_PATH", "./data/job_offers.csv"), "path to the job offers CSV")
	clear := flag.Bool("clear", false, "clear existing offers before ingesting")
	flag.Parse()

	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	db, err := gorm.Open(postgres.Open(os.Getenv("DATABASE_DSN")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		fail("connect to database: %v", err)
	}

	qdrantClient, err := qdrant.NewClient(&qdrant.Config{
		Host:   envOr("QDRANT_HOST", "localhost"),
		Port:   6334,
		APIKey: os.Getenv("QDRANT_API_KEY"),
	})
	if err != nil {
		fail("connect to qdrant: %v", err)
	}

	llmClient, err := llm.NewClient(ctx, llm.Config{APIKey: os.Getenv("GEMINI_API_KEY")}, logger)
	if err != nil {
		fail("create llm client: %v", err)
	}

	store := job.NewStore(db)
	if err := store.Migrate(); err != nil {
		fail("migrate: %v", err)
	}

	index := vectordb.NewIndex(qdrantClient, "job_offers", llm.EmbeddingDim)
	if err := index.Ensure(ctx); err != nil {
		fail("ensure collection: %v", err)
	}

	svc := job.NewService(store, index, llmClient, logger)

	if *clear {
		if err := svc.Clear(ctx); err != nil {
			fail("clear offers: %v", err)
		}
		fmt.Println("Cleared existing job offers.")
	}

	count, err := svc.IngestCSV(ctx, *csvPath)
	if err != nil {
		fail("ingest: %v", err)
	}

	fmt.Printf("Ingested %d job offers from %s\n", count, *csvPath)
}

func envOr(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
