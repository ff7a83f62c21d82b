package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/xiaot623/gogo/deliveryagent/internal/domain"
)

// PostMessage processes one user message.
// POST /agent/message
func (h *Handler) PostMessage(c echo.Context) error {
	var req domain.MessageRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	resp, err := h.service.ProcessMessage(c.Request().Context(), req)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}
