package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pathfinder-ai/career-backend/internal/job"
	"github.com/pathfinder-ai/career-backend/internal/shared"
)

// HistoryStore persists per-session conversation history.
type HistoryStore interface {
	History(ctx context.Context, sessionID string) ([]Message, error)
	Save(ctx context.Context, sessionID string, msgs []Message) error
	PrependSystem(ctx context.Context, sessionID, content string) error
}

// JobSearcher retrieves job listings for a query.
type JobSearcher interface {
	Search(ctx context.Context, query string, limit int) ([]job.SearchResult, error)
}

// SystemPrompter supplies the assistant's base system prompt.
type SystemPrompter interface {
	SystemPrompt() string
}

// Service drives the text assistant. Job-listing queries go through the
// retrieval path and come back as formatted HTML; everything else is a
// model conversation seeded with the structured system prompt and the
// session history.
type Service struct {
	store   HistoryStore
	prompts SystemPrompter
	gen     Generator
	jobs    JobSearcher
	logger  *slog.Logger
}

func NewService(store HistoryStore, prompts SystemPrompter, gen Generator, jobs JobSearcher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:   store,
		prompts: prompts,
		gen:     gen,
		jobs:    jobs,
		logger:  logger.With("component", "chat_service"),
	}
}

// Chat answers one user message and records the exchange. A blank session
// ID starts a new session; the (possibly new) ID is returned with the
// reply.
func (s *Service) Chat(ctx context.Context, sessionID, content string) (string, string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", "", shared.ErrInvalidInput
	}
	if sessionID == "" {
		sessionID = shared.NewID("chat_")
	}

	history, err := s.store.History(ctx, sessionID)
	if err != nil {
		return "", "", fmt.Errorf("load history: %w", err)
	}

	var reply string
	if IsJobQuery(content) {
		reply = s.answerJobQuery(ctx, content, history)
	} else {
		reply, err = s.converse(ctx, content, history)
		if err != nil {
			return "", "", err
		}
	}

	history = append(history,
		Message{Role: RoleUser, Content: content},
		Message{Role: RoleAssistant, Content: reply},
	)
	if err := s.store.Save(ctx, sessionID, TrimHistory(history)); err != nil {
		return "", "", fmt.Errorf("save history: %w", err)
	}

	return reply, sessionID, nil
}

// answerJobQuery tries retrieval first and falls back to a normal
// conversation when the search fails or finds nothing.
func (s *Service) answerJobQuery(ctx context.Context, content string, history []Message) string {
	results, err := s.jobs.Search(ctx, content, 5)
	if err != nil {
		s.logger.Warn("job search failed, falling back to conversation", "error", err)
	} else if len(results) > 0 {
		return FormatJobResultsHTML(ctx, results, s.gen, s.logger)
	}

	reply, err := s.converse(ctx, content, history)
	if err != nil {
		s.logger.Error("fallback conversation failed", "error", err)
		return "I encountered an error. Please try again later."
	}
	return reply
}

func (s *Service) converse(ctx context.Context, content string, history []Message) (string, error) {
	system, transcript := s.buildPrompt(content, history)
	reply, err := s.gen.Generate(ctx, system, transcript)
	if err != nil {
		return "", fmt.Errorf("generate reply: %w", err)
	}
	return strings.TrimSpace(reply), nil
}

// buildPrompt folds session-level system context (like attached resume
// data) into the base system prompt and renders the visible turns as a
// transcript ending with the new message.
func (s *Service) buildPrompt(content string, history []Message) (string, string) {
	var system strings.Builder
	system.WriteString(s.prompts.SystemPrompt())
	for _, m := range history {
		if m.Role == RoleSystem {
			system.WriteString("\n\n")
			system.WriteString(m.Content)
		}
	}

	var transcript strings.Builder
	for _, m := range history {
		switch m.Role {
		case RoleUser:
			fmt.Fprintf(&transcript, "User: %s\n", m.Content)
		case RoleAssistant:
			fmt.Fprintf(&transcript, "Assistant: %s\n", m.Content)
		}
	}
	fmt.Fprintf(&transcript, "User: %s\nAssistant:", content)

	return system.String(), transcript.String()
}

// AttachResume personalizes a session by prepending the uploaded resume's
// summary and skills as system context.
func (s *Service) AttachResume(ctx context.Context, sessionID, summary string, skills []string) error {
	if sessionID == "" {
		return shared.ErrInvalidInput
	}
	if summary == "" {
		summary = "Not available"
	}

	content := fmt.Sprintf(`The user has uploaded a resume with the following information:

Summary: %s

Skills: %s

Use this information to personalize your responses. Reference their skills and background when relevant.`,
		summary, strings.Join(skills, ", "))

	return s.store.PrependSystem(ctx, sessionID, content)
}
