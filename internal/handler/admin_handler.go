package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dojofin/dojo-backend/internal/service"
)

// AdminHandler handles operational endpoints
type AdminHandler struct {
	rebuildService *service.RebuildService
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(rebuildService *service.RebuildService) *AdminHandler {
	return &AdminHandler{rebuildService: rebuildService}
}

// Rebuild handles POST /api/v1/admin/rebuild
func (h *AdminHandler) Rebuild(c echo.Context) error {
	stats, err := h.rebuildService.Rebuild(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, stats)
}

// Health handles GET /health
func (h *AdminHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
