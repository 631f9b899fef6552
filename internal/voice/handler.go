package voice

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
)

type Handler struct {
	bridge *Bridge
	orch   *Orchestrator
	tokens *TokenClient
	hub    *EventHub
	logger *slog.Logger
}

func NewHandler(bridge *Bridge, orch *Orchestrator, tokens *TokenClient, hub *EventHub, logger *slog.Logger) *Handler {
	return &Handler{
		bridge: bridge,
		orch:   orch,
		tokens: tokens,
		hub:    hub,
		logger: logger.With("handler", "voice"),
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.POST("/webrtc/voice", h.HandleOffer)
	e.GET("/session", h.MintSessionToken)
	e.GET("/ws/voice/events", h.hub.HandleWebSocket)
}

type offerRequest struct {
	SDP string `json:"sdp"`
}

type answerResponse struct {
	SDP string `json:"sdp"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// HandleOffer performs one browser voice handshake: JSON offer in, JSON
// answer out. An absent or empty SDP is the client's fault; everything
// else that fails is ours.
func (h *Handler) HandleOffer(c echo.Context) error {
	var req offerRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "No SDP provided"})
	}

	answer, err := h.bridge.HandleOffer(c.Request().Context(), req.SDP)
	if err != nil {
		if errors.Is(err, ErrInvalidOffer) {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "No SDP provided"})
		}
		h.logger.Error("voice handshake failed", "error", err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}

	return c.JSON(http.StatusOK, answerResponse{SDP: answer})
}

// MintSessionToken issues an ephemeral upstream credential for clients
// that negotiate with the speech service directly. The upstream response
// is passed through untouched so the client sees the full session object.
func (h *Handler) MintSessionToken(c echo.Context) error {
	cfg := h.bridge.manager.Config()

	token, err := h.tokens.Mint(c.Request().Context(), SessionTokenRequest{
		Model:        cfg.Model,
		Voice:        cfg.Voice,
		Instructions: cfg.Instructions,
	})
	if err != nil {
		if errors.Is(err, ErrMissingAPIKey) {
			h.logger.Error("session token requested without API key configured")
			return c.JSON(http.StatusInternalServerError, errorResponse{Error: "voice service not configured"})
		}
		h.logger.Error("failed to mint session token", "error", err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}

	return c.JSONBlob(http.StatusOK, token.Raw)
}

// Shutdown tears down downstream peers and the websocket hub. Invoked
// from the composition root's stop hook.
func (h *Handler) Shutdown(_ context.Context) {
	h.bridge.Close()
	h.hub.Close()
}
