package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/xiaot623/gogo/deliveryagent/internal/domain"
)

// CreateSession starts an empty session.
// POST /agent/sessions
func (h *Handler) CreateSession(c echo.Context) error {
	var req domain.CreateSessionRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	session, err := h.service.CreateSession(c.Request().Context(), req.UserID)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusCreated, session.Summary())
}

// GetSession returns a session summary.
// GET /agent/session/:session_id
func (h *Handler) GetSession(c echo.Context) error {
	info, err := h.service.GetSession(c.Request().Context(), c.Param("session_id"))
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, info)
}

// GetSessionMessages returns the transcript of a session.
// GET /agent/session/:session_id/messages
func (h *Handler) GetSessionMessages(c echo.Context) error {
	sessionID := c.Param("session_id")
	messages, err := h.service.GetMessages(c.Request().Context(), sessionID)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"session_id": sessionID,
		"messages":   messages,
	})
}

// ListSessions lists every live session.
// GET /agent/sessions
func (h *Handler) ListSessions(c echo.Context) error {
	resp, err := h.service.ListSessions(c.Request().Context())
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// DeleteSession removes a session.
// DELETE /agent/session/:session_id
func (h *Handler) DeleteSession(c echo.Context) error {
	sessionID := c.Param("session_id")
	if err := h.service.DeleteSession(c.Request().Context(), sessionID); err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, domain.DeleteSessionResponse{Status: "deleted", SessionID: sessionID})
}
