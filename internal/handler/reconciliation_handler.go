package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dojofin/dojo-backend/internal/service"
)

// ReconciliationHandler handles reconciliation HTTP requests
type ReconciliationHandler struct {
	reconciliationService *service.ReconciliationService
}

// NewReconciliationHandler creates a new ReconciliationHandler
func NewReconciliationHandler(reconciliationService *service.ReconciliationService) *ReconciliationHandler {
	return &ReconciliationHandler{reconciliationService: reconciliationService}
}

// ReconciliationRequest represents the worksheet/commit request body
type ReconciliationRequest struct {
	StatementDate         string `json:"statementDate"`
	StatementBalanceMinor int64  `json:"statementBalanceMinor"`
}

func (h *ReconciliationHandler) commitInput(c echo.Context) (service.CommitInput, error) {
	var req ReconciliationRequest
	if err := c.Bind(&req); err != nil {
		return service.CommitInput{}, echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	date, err := parseDate(req.StatementDate)
	if err != nil {
		return service.CommitInput{}, err
	}
	return service.CommitInput{
		AccountID:             c.Param("id"),
		StatementDate:         date,
		StatementBalanceMinor: req.StatementBalanceMinor,
	}, nil
}

// GetLatest handles GET /api/v1/accounts/:id/reconciliations/latest
func (h *ReconciliationHandler) GetLatest(c echo.Context) error {
	latest, err := h.reconciliationService.Latest(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	if latest == nil {
		return c.JSON(http.StatusOK, map[string]interface{}{"reconciliation": nil})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"reconciliation": latest})
}

// GetHistory handles GET /api/v1/accounts/:id/reconciliations
func (h *ReconciliationHandler) GetHistory(c echo.Context) error {
	recs, err := h.reconciliationService.History(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, recs)
}

// GetWorksheet handles POST /api/v1/accounts/:id/reconciliations/worksheet
func (h *ReconciliationHandler) GetWorksheet(c echo.Context) error {
	input, err := h.commitInput(c)
	if err != nil {
		return NewValidationError(c, err.Error())
	}
	ws, err := h.reconciliationService.Worksheet(c.Request().Context(), input)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, ws)
}

// Commit handles POST /api/v1/accounts/:id/reconciliations
func (h *ReconciliationHandler) Commit(c echo.Context) error {
	input, err := h.commitInput(c)
	if err != nil {
		return NewValidationError(c, err.Error())
	}
	rec, err := h.reconciliationService.Commit(c.Request().Context(), input)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, rec)
}
