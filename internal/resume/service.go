package resume

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pathfinder-ai/career-backend/internal/job"
)

// JobMatcher finds job listings for a resume's text.
type JobMatcher interface {
	MatchResume(ctx context.Context, resumeText string, limit int) ([]job.SearchResult, error)
}

// OfferSource resolves job offers by ID for targeted matching.
type OfferSource interface {
	GetByID(ctx context.Context, id string) (*job.Offer, error)
}

// Service is the resume pipeline: extract text from an upload, store and
// index it, analyze it, and surface matching job listings.
type Service struct {
	store    *Store
	analyzer *Analyzer
	matcher  JobMatcher
	offers   OfferSource
	logger   *slog.Logger
}

func NewService(store *Store, analyzer *Analyzer, matcher JobMatcher, offers OfferSource, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:    store,
		analyzer: analyzer,
		matcher:  matcher,
		offers:   offers,
		logger:   logger.With("component", "resume_service"),
	}
}

// Process runs the full upload pipeline on an extracted resume text. Job
// matching is best-effort: a failed match leaves the report without
// listings rather than failing the upload.
func (s *Service) Process(ctx context.Context, fileName, text string) (*Report, error) {
	resumeID, err := s.store.Save(ctx, fileName, text)
	if err != nil {
		return nil, err
	}

	report, err := s.analyzer.Analyze(ctx, text)
	if err != nil {
		return nil, err
	}
	report.ResumeID = resumeID

	matches, err := s.matcher.MatchResume(ctx, text, 5)
	if err != nil {
		s.logger.Warn("job matching failed for resume", "error", err, "resume_id", resumeID)
		matches = nil
	}
	if matches == nil {
		matches = []job.SearchResult{}
	}
	report.JobMatches = matches

	return report, nil
}

// Match scores a stored resume against a stored job offer.
func (s *Service) Match(ctx context.Context, resumeID, jobID string) (*MatchReport, error) {
	r, err := s.store.GetByID(ctx, resumeID)
	if err != nil {
		return nil, fmt.Errorf("load resume %s: %w", resumeID, err)
	}
	offer, err := s.offers.GetByID(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("load job %s: %w", jobID, err)
	}

	return s.analyzer.Match(ctx, r.Text, offer.Document())
}

// Clear removes every stored resume and its indexed chunks.
func (s *Service) Clear(ctx context.Context) error {
	return s.store.DeleteAll(ctx)
}
