package chat

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/pathfinder-ai/career-backend/internal/shared"
)

type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger.With("handler", "chat"),
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.POST("/api/chat", h.Chat)
	e.POST("/api/session/update", h.UpdateSession)
}

type chatRequest struct {
	Content   string `json:"content"`
	SessionID string `json:"session_id"`
}

type chatResponse struct {
	Content   string `json:"content"`
	SessionID string `json:"session_id"`
}

func (h *Handler) Chat(c echo.Context) error {
	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return shared.BadRequest("invalid_request", "invalid chat request")
	}

	reply, sessionID, err := h.service.Chat(c.Request().Context(), req.SessionID, req.Content)
	if err != nil {
		if errors.Is(err, shared.ErrInvalidInput) {
			return shared.BadRequest("missing_content", "message content is required")
		}
		h.logger.Error("chat failed", "error", err, "session_id", req.SessionID)
		return shared.InternalError("chat_failed", "failed to process chat message")
	}

	return c.JSON(http.StatusOK, chatResponse{Content: reply, SessionID: sessionID})
}

type sessionUpdateRequest struct {
	SessionID  string `json:"session_id"`
	ResumeData *struct {
		Summary string   `json:"summary"`
		Skills  []string `json:"skills"`
	} `json:"resume_data"`
}

type statusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// UpdateSession attaches resume context to a chat session so later
// replies can reference the user's background.
func (h *Handler) UpdateSession(c echo.Context) error {
	var req sessionUpdateRequest
	if err := c.Bind(&req); err != nil {
		return shared.BadRequest("invalid_request", "invalid session update request")
	}
	if req.SessionID == "" {
		return shared.BadRequest("missing_session", "session_id is required")
	}

	if req.ResumeData != nil {
		err := h.service.AttachResume(c.Request().Context(), req.SessionID, req.ResumeData.Summary, req.ResumeData.Skills)
		if err != nil {
			h.logger.Error("session update failed", "error", err, "session_id", req.SessionID)
			return shared.InternalError("update_failed", "failed to update session")
		}
	}

	return c.JSON(http.StatusOK, statusResponse{
		Status:  "success",
		Message: "Session updated successfully",
	})
}
