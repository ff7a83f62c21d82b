package v1

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/xiaot623/gogo/deliveryagent/internal/service"
)

// ListToolLogs returns the most recent tool invocations.
// GET /agent/tools/logs?limit=N
func (h *Handler) ListToolLogs(c echo.Context) error {
	limit := service.DefaultToolLogLimit
	if l := c.QueryParam("limit"); l != "" {
		val, err := strconv.Atoi(l)
		if err != nil || val <= 0 {
			return badRequest(c, "limit must be a positive integer")
		}
		limit = val
	}

	resp, err := h.service.ListToolLogs(c.Request().Context(), limit)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// ListTools returns the tool catalog.
// GET /agent/tools
func (h *Handler) ListTools(c echo.Context) error {
	return c.JSON(http.StatusOK, h.service.ListTools())
}
