package resume

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/pathfinder-ai/career-backend/internal/llm"
	"github.com/pathfinder-ai/career-backend/internal/shared"
	"github.com/pathfinder-ai/career-backend/internal/vectordb"
)

const (
	chunkSize    = 1500
	chunkOverlap = 150
)

// Embedder produces vectors for resume chunks.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// ChunkIndex is the vector-store surface the resume store needs.
type ChunkIndex interface {
	Upsert(ctx context.Context, chunks []vectordb.Chunk) error
	Clear(ctx context.Context) error
}

// Store persists resumes in the relational database and their embedded
// chunks in the vector store.
type Store struct {
	db       *gorm.DB
	index    ChunkIndex
	embedder Embedder
}

func NewStore(db *gorm.DB, index ChunkIndex, embedder Embedder) *Store {
	return &Store{
		db:       db,
		index:    index,
		embedder: embedder,
	}
}

func (s *Store) Migrate() error {
	return s.db.AutoMigrate(&Resume{})
}

// Save stores the resume text and indexes its chunks, returning the new
// resume's ID.
func (s *Store) Save(ctx context.Context, fileName, text string) (string, error) {
	r := &Resume{
		ID:       shared.NewID("resume_"),
		FileName: fileName,
		Text:     text,
	}
	if err := s.db.WithContext(ctx).Create(r).Error; err != nil {
		return "", fmt.Errorf("persist resume: %w", err)
	}

	texts := llm.SplitText(text, chunkSize, chunkOverlap)
	if len(texts) == 0 {
		return r.ID, nil
	}

	vectors, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return "", fmt.Errorf("embed resume chunks: %w", err)
	}

	chunks := make([]vectordb.Chunk, 0, len(texts))
	for i, chunkText := range texts {
		chunks = append(chunks, vectordb.Chunk{
			ID:      shared.NewUUID(),
			OwnerID: r.ID,
			Content: chunkText,
			Vector:  vectors[i],
		})
	}
	if err := s.index.Upsert(ctx, chunks); err != nil {
		return "", fmt.Errorf("index resume chunks: %w", err)
	}
	return r.ID, nil
}

func (s *Store) GetByID(ctx context.Context, id string) (*Resume, error) {
	var r Resume
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&r).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.ErrNotFound
	}
	return &r, err
}

func (s *Store) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&Resume{}).Count(&count).Error
	return count, err
}

// DeleteAll clears both stores.
func (s *Store) DeleteAll(ctx context.Context) error {
	if err := s.index.Clear(ctx); err != nil {
		return fmt.Errorf("clear resume index: %w", err)
	}
	return s.db.WithContext(ctx).Where("1 = 1").Delete(&Resume{}).Error
}
