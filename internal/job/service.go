package job

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/pathfinder-ai/career-backend/internal/llm"
	"github.com/pathfinder-ai/career-backend/internal/shared"
	"github.com/pathfinder-ai/career-backend/internal/vectordb"
)

const (
	chunkSize    = 1000
	chunkOverlap = 100

	defaultSearchLimit = 5
)

// Embedder produces vectors for documents and queries.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// ChunkIndex is the vector-store surface the service needs.
type ChunkIndex interface {
	Upsert(ctx context.Context, chunks []vectordb.Chunk) error
	Query(ctx context.Context, vector []float32, limit uint64) ([]vectordb.Scored, error)
	Clear(ctx context.Context) error
}

// Service is the job-offer retrieval system: CSV ingest into the dual
// store (relational rows plus embedded chunks) and semantic search over
// the chunks joined back to their offers.
type Service struct {
	store    *Store
	index    ChunkIndex
	embedder Embedder
	logger   *slog.Logger
}

func NewService(store *Store, index ChunkIndex, embedder Embedder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:    store,
		index:    index,
		embedder: embedder,
		logger:   logger.With("component", "job_service"),
	}
}

// IngestCSV loads offers from a CSV export, persists the rows and indexes
// their embedded chunks. Returns the number of offers ingested. Rows
// without a title or company are skipped.
func (s *Service) IngestCSV(ctx context.Context, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	offers, err := parseOffers(f)
	if err != nil {
		return 0, err
	}
	if len(offers) == 0 {
		return 0, nil
	}

	if err := s.store.CreateBatch(ctx, offers); err != nil {
		return 0, fmt.Errorf("persist offers: %w", err)
	}

	var chunkCount int
	for _, offer := range offers {
		n, err := s.indexOffer(ctx, offer)
		if err != nil {
			return 0, fmt.Errorf("index offer %s: %w", offer.ID, err)
		}
		chunkCount += n
	}

	s.logger.Info("ingested job offers", "offers", len(offers), "chunks", chunkCount)
	return len(offers), nil
}

func (s *Service) indexOffer(ctx context.Context, offer *Offer) (int, error) {
	texts := llm.SplitText(offer.Document(), chunkSize, chunkOverlap)
	if len(texts) == 0 {
		return 0, nil
	}

	vectors, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embed chunks: %w", err)
	}

	chunks := make([]vectordb.Chunk, 0, len(texts))
	for i, text := range texts {
		chunks = append(chunks, vectordb.Chunk{
			ID:      shared.NewUUID(),
			OwnerID: offer.ID,
			Content: text,
			Vector:  vectors[i],
		})
	}
	return len(chunks), s.index.Upsert(ctx, chunks)
}

// Search returns the offers most similar to the query. Each hit carries
// the matched chunk text, the offer's metadata and the similarity score.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, shared.ErrInvalidInput
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	vector, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	// Over-fetch: several chunks can belong to one offer.
	hits, err := s.index.Query(ctx, vector, uint64(limit*3))
	if err != nil {
		return nil, fmt.Errorf("query index: %w", err)
	}

	ids := make([]string, 0, len(hits))
	for _, hit := range hits {
		if hit.OwnerID != "" {
			ids = append(ids, hit.OwnerID)
		}
	}
	offers, err := s.store.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load offers: %w", err)
	}

	results := make([]SearchResult, 0, limit)
	seen := make(map[string]bool, limit)
	for _, hit := range hits {
		if len(results) >= limit {
			break
		}
		offer, ok := offers[hit.OwnerID]
		if !ok || seen[offer.ID] || strings.TrimSpace(hit.Content) == "" {
			continue
		}
		seen[offer.ID] = true
		results = append(results, SearchResult{
			Content:  hit.Content,
			Metadata: offer.Metadata(),
			Score:    hit.Score,
		})
	}
	return results, nil
}

// MatchResume finds offers for a candidate by searching with the raw
// resume text as the query.
func (s *Service) MatchResume(ctx context.Context, resumeText string, limit int) ([]SearchResult, error) {
	return s.Search(ctx, resumeText, limit)
}

// Clear removes every offer from both stores.
func (s *Service) Clear(ctx context.Context) error {
	if err := s.index.Clear(ctx); err != nil {
		return fmt.Errorf("clear index: %w", err)
	}
	if err := s.store.DeleteAll(ctx); err != nil {
		return fmt.Errorf("clear offers: %w", err)
	}
	return nil
}

// parseOffers reads the CSV export into offers. Column order is taken
// from the header row; pandas-style "nan" cells become empty strings.
func parseOffers(r io.Reader) ([]*Offer, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}

	var offers []*Offer
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row: %w", err)
		}

		field := func(name string) string {
			idx, ok := cols[name]
			if !ok || idx >= len(record) {
				return ""
			}
			return cleanField(record[idx])
		}

		offer := &Offer{
			Title:          field("title"),
			Company:        field("company"),
			Location:       field("location"),
			ContractType:   field("contract_type"),
			PostedDate:     field("posted_date"),
			EducationLevel: field("education_level"),
			Skills:         field("skills"),
			Languages:      field("languages"),
			SalaryRange:    field("salary_range"),
			Description:    field("description"),
			URL:            field("url"),
		}
		if offer.Title == "" || offer.Company == "" {
			continue
		}
		offers = append(offers, offer)
	}
	return offers, nil
}

func cleanField(v string) string {
	v = strings.TrimSpace(v)
	if strings.EqualFold(v, "nan") {
		return ""
	}
	return v
}
