package resume

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

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
		logger:  logger.With("handler", "resume"),
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.POST("/api/resume/upload", h.Upload)
	e.POST("/api/resume/match", h.Match)
	e.POST("/api/admin/clear-resumes", h.Clear)
}

// Upload accepts a multipart PDF, extracts its text and returns the full
// analysis report.
func (h *Handler) Upload(c echo.Context) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return shared.BadRequest("missing_file", "no file uploaded")
	}
	if !strings.EqualFold(filepath.Ext(fileHeader.Filename), ".pdf") {
		return shared.BadRequest("invalid_file_type", "only PDF files are supported")
	}

	src, err := fileHeader.Open()
	if err != nil {
		return shared.BadRequest("unreadable_file", "could not read uploaded file")
	}
	defer src.Close()

	tmp, err := os.CreateTemp("", "resume-*.pdf")
	if err != nil {
		h.logger.Error("temp file creation failed", "error", err)
		return shared.InternalError("upload_failed", "failed to process upload")
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		h.logger.Error("temp file write failed", "error", err)
		return shared.InternalError("upload_failed", "failed to process upload")
	}
	if err := tmp.Close(); err != nil {
		h.logger.Error("temp file close failed", "error", err)
		return shared.InternalError("upload_failed", "failed to process upload")
	}

	text, err := ExtractPDFText(tmp.Name())
	if err != nil {
		h.logger.Warn("pdf extraction failed", "error", err, "file", fileHeader.Filename)
		return shared.BadRequest("extraction_failed", "could not extract text from the PDF")
	}

	report, err := h.service.Process(c.Request().Context(), fileHeader.Filename, text)
	if err != nil {
		h.logger.Error("resume processing failed", "error", err, "file", fileHeader.Filename)
		return shared.InternalError("processing_failed", "failed to process resume")
	}

	return c.JSON(http.StatusOK, report)
}

type matchRequest struct {
	ResumeID string `json:"resume_id"`
	JobID    string `json:"job_id"`
}

func (h *Handler) Match(c echo.Context) error {
	var req matchRequest
	if err := c.Bind(&req); err != nil {
		return shared.BadRequest("invalid_request", "invalid match request")
	}
	if req.ResumeID == "" || req.JobID == "" {
		return shared.BadRequest("missing_ids", "resume_id and job_id are required")
	}

	report, err := h.service.Match(c.Request().Context(), req.ResumeID, req.JobID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NotFound("not_found", "resume or job not found")
		}
		h.logger.Error("resume match failed", "error", err, "resume_id", req.ResumeID, "job_id", req.JobID)
		return shared.InternalError("match_failed", "failed to match resume against job")
	}

	return c.JSON(http.StatusOK, report)
}

type statusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func (h *Handler) Clear(c echo.Context) error {
	if err := h.service.Clear(c.Request().Context()); err != nil {
		h.logger.Error("resume clear failed", "error", err)
		return shared.InternalError("clear_failed", "failed to clear resumes")
	}

	return c.JSON(http.StatusOK, statusResponse{
		Status:  "success",
		Message: "All resumes cleared from database",
	})
}
