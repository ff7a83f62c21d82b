// Package v1 provides the agent REST and WebSocket handlers.
package v1

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/xiaot623/gogo/deliveryagent/internal/domain"
	"github.com/xiaot623/gogo/deliveryagent/internal/observability"
	"github.com/xiaot623/gogo/deliveryagent/internal/service"
)

// Version is reported by the root descriptor.
const Version = "1.0.0"

// Handler handles HTTP requests.
type Handler struct {
	service *service.Service
	logger  zerolog.Logger
	chat    *chatServer
}

// NewHandler creates a new handler.
func NewHandler(service *service.Service, logger zerolog.Logger) *Handler {
	h := &Handler{
		service: service,
		logger:  observability.Component(logger, "api"),
	}
	h.chat = newChatServer(service, h.logger)
	return h
}

// RegisterRoutes registers the agent routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/", h.Root)
	e.GET("/health", h.Health)

	// Conversation API
	e.POST("/agent/message", h.PostMessage)
	e.POST("/agent/sessions", h.CreateSession)
	e.GET("/agent/sessions", h.ListSessions)
	e.GET("/agent/session/:session_id", h.GetSession)
	e.GET("/agent/session/:session_id/messages", h.GetSessionMessages)
	e.DELETE("/agent/session/:session_id", h.DeleteSession)

	// Tool API
	e.GET("/agent/tools", h.ListTools)
	e.GET("/agent/tools/logs", h.ListToolLogs)

	e.GET("/agent/ws", h.chat.Handle)
}

// Root describes the service.
// GET /
func (h *Handler) Root(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"service": "Senpex AI Agent API",
		"version": Version,
		"status":  "running",
		"endpoints": map[string]string{
			"message":    "POST /agent/message",
			"session":    "GET /agent/session/{id}",
			"sessions":   "GET /agent/sessions",
			"tools":      "GET /agent/tools",
			"tools_logs": "GET /agent/tools/logs",
			"chat":       "GET /agent/ws",
		},
	})
}

// Health returns health status.
// GET /health
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// writeError maps service errors onto HTTP statuses.
func (h *Handler) writeError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Session not found"})
	case errors.Is(err, domain.ErrInvalidArgument):
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		h.logger.Error().Err(err).Str("path", c.Path()).Msg("request failed")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, map[string]string{"error": msg})
}
