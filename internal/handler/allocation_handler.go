package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dojofin/dojo-backend/internal/service"
)

// AllocationHandler handles envelope allocation HTTP requests
type AllocationHandler struct {
	allocationService *service.AllocationService
}

// NewAllocationHandler creates a new AllocationHandler
func NewAllocationHandler(allocationService *service.AllocationService) *AllocationHandler {
	return &AllocationHandler{allocationService: allocationService}
}

// AllocationRequest represents the create/update allocation request body
type AllocationRequest struct {
	Date           string  `json:"allocationDate"`
	FromCategoryID string  `json:"fromCategoryId"`
	ToCategoryID   string  `json:"toCategoryId"`
	AmountMinor    int64   `json:"amountMinor"`
	Memo           *string `json:"memo,omitempty"`
}

func (r *AllocationRequest) toInput() (service.AllocateInput, error) {
	date, err := parseDate(r.Date)
	if err != nil {
		return service.AllocateInput{}, err
	}
	return service.AllocateInput{
		Date:           date,
		FromCategoryID: r.FromCategoryID,
		ToCategoryID:   r.ToCategoryID,
		AmountMinor:    r.AmountMinor,
		Memo:           r.Memo,
	}, nil
}

// CreateAllocation handles POST /api/v1/allocations
func (h *AllocationHandler) CreateAllocation(c echo.Context) error {
	var req AllocationRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body")
	}
	input, err := req.toInput()
	if err != nil {
		return NewValidationError(c, err.Error())
	}

	alloc, err := h.allocationService.Allocate(c.Request().Context(), input)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, alloc)
}

// UpdateAllocation handles PUT /api/v1/allocations/:id
func (h *AllocationHandler) UpdateAllocation(c echo.Context) error {
	conceptID, err := pathUUID(c, "id")
	if err != nil {
		return NewValidationError(c, err.Error())
	}
	var req AllocationRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body")
	}
	input, err := req.toInput()
	if err != nil {
		return NewValidationError(c, err.Error())
	}

	alloc, err := h.allocationService.Edit(c.Request().Context(), conceptID, input)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, alloc)
}

// DeleteAllocation handles DELETE /api/v1/allocations/:id
func (h *AllocationHandler) DeleteAllocation(c echo.Context) error {
	conceptID, err := pathUUID(c, "id")
	if err != nil {
		return NewValidationError(c, err.Error())
	}
	if err := h.allocationService.Delete(c.Request().Context(), conceptID); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// GetAllocations handles GET /api/v1/allocations?month=YYYY-MM
func (h *AllocationHandler) GetAllocations(c echo.Context) error {
	month, err := parseMonth(c.QueryParam("month"))
	if err != nil {
		return NewValidationError(c, err.Error())
	}
	allocs, err := h.allocationService.ListByMonth(c.Request().Context(), month)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, allocs)
}

// GetReadyToAssign handles GET /api/v1/budget/:month/ready-to-assign
func (h *AllocationHandler) GetReadyToAssign(c echo.Context) error {
	month, err := parseMonth(c.Param("month"))
	if err != nil {
		return NewValidationError(c, err.Error())
	}
	rta, err := h.allocationService.ReadyToAssign(c.Request().Context(), month)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]int64{"readyToAssignMinor": rta})
}
