package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dojofin/dojo-backend/internal/service"
)

// NetWorthHandler handles net-worth and balance-history HTTP requests
type NetWorthHandler struct {
	netWorthService *service.NetWorthService
}

// NewNetWorthHandler creates a new NetWorthHandler
func NewNetWorthHandler(netWorthService *service.NetWorthService) *NetWorthHandler {
	return &NetWorthHandler{netWorthService: netWorthService}
}

// GetNetWorth handles GET /api/v1/net-worth
func (h *NetWorthHandler) GetNetWorth(c echo.Context) error {
	snapshot, err := h.netWorthService.Current(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, snapshot)
}

// GetNetWorthHistory handles GET /api/v1/net-worth/history
func (h *NetWorthHandler) GetNetWorthHistory(c echo.Context) error {
	start, end, err := historyRange(c)
	if err != nil {
		return NewValidationError(c, err.Error())
	}
	points, err := h.netWorthService.NetWorthHistory(c.Request().Context(), start, end)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, points)
}

// GetAccountHistory handles GET /api/v1/accounts/:id/history
func (h *NetWorthHandler) GetAccountHistory(c echo.Context) error {
	start, end, err := historyRange(c)
	if err != nil {
		return NewValidationError(c, err.Error())
	}
	clearedOnly := c.QueryParam("status") == "cleared"

	points, err := h.netWorthService.AccountHistory(c.Request().Context(), c.Param("id"), start, end, clearedOnly)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, points)
}

// historyRange reads the startDate/endDate query parameters, defaulting
// to the last 90 days.
func historyRange(c echo.Context) (time.Time, time.Time, error) {
	end := time.Now().UTC()
	start := end.AddDate(0, 0, -90)

	if v := c.QueryParam("startDate"); v != "" {
		parsed, err := parseDate(v)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		start = parsed
	}
	if v := c.QueryParam("endDate"); v != "" {
		parsed, err := parseDate(v)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		end = parsed
	}
	return start, end, nil
}
