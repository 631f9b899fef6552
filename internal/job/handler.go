package job

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/pathfinder-ai/career-backend/internal/shared"
)

type Handler struct {
	service *Service
	csvPath string
	logger  *slog.Logger
}

func NewHandler(service *Service, csvPath string, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		csvPath: csvPath,
		logger:  logger.With("handler", "jobs"),
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.POST("/api/jobs/search", h.Search)
	e.POST("/api/admin/ingest-jobs", h.Ingest)
	e.POST("/api/admin/clear-jobs", h.Clear)
}

type searchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

type searchResponse struct {
	Results []SearchResult `json:"results"`
}

func (h *Handler) Search(c echo.Context) error {
	var req searchRequest
	if err := c.Bind(&req); err != nil {
		return shared.BadRequest("invalid_request", "invalid search request")
	}
	if req.Query == "" {
		return shared.BadRequest("missing_query", "query is required")
	}

	results, err := h.service.Search(c.Request().Context(), req.Query, req.Limit)
	if err != nil {
		h.logger.Error("job search failed", "error", err, "query", req.Query)
		return shared.InternalError("search_failed", "failed to search jobs")
	}
	if results == nil {
		results = []SearchResult{}
	}

	return c.JSON(http.StatusOK, searchResponse{Results: results})
}

type statusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func (h *Handler) Ingest(c echo.Context) error {
	count, err := h.service.IngestCSV(c.Request().Context(), h.csvPath)
	if err != nil {
		h.logger.Error("job ingest failed", "error", err, "path", h.csvPath)
		return shared.InternalError("ingest_failed", "failed to ingest job offers")
	}

	return c.JSON(http.StatusOK, statusResponse{
		Status:  "success",
		Message: fmt.Sprintf("Ingested %d job offers into vector database", count),
	})
}

func (h *Handler) Clear(c echo.Context) error {
	if err := h.service.Clear(c.Request().Context()); err != nil {
		h.logger.Error("job clear failed", "error", err)
		return shared.InternalError("clear_failed", "failed to clear job database")
	}

	return c.JSON(http.StatusOK, statusResponse{
		Status:  "success",
		Message: "All job offers cleared from database",
	})
}
