package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dojofin/dojo-backend/internal/domain"
	"github.com/dojofin/dojo-backend/internal/service"
)

// CategoryHandler handles category and category group HTTP requests
type CategoryHandler struct {
	categoryService *service.CategoryService
}

// NewCategoryHandler creates a new CategoryHandler
func NewCategoryHandler(categoryService *service.CategoryService) *CategoryHandler {
	return &CategoryHandler{categoryService: categoryService}
}

// GroupRequest represents the create/update group request body
type GroupRequest struct {
	Name      string `json:"name"`
	SortOrder int    `json:"sortOrder"`
}

// CategoryRequest represents the create/update category request body
type CategoryRequest struct {
	GroupID         *string `json:"groupId,omitempty"`
	Name            string  `json:"name"`
	GoalType        *string `json:"goalType,omitempty"`
	GoalAmountMinor *int64  `json:"goalAmountMinor,omitempty"`
	GoalTargetDate  *string `json:"goalTargetDate,omitempty"`
	GoalFrequency   *string `json:"goalFrequency,omitempty"`
}

func (r *CategoryRequest) toInput() (service.CategoryInput, error) {
	input := service.CategoryInput{
		GroupID:         r.GroupID,
		Name:            r.Name,
		GoalAmountMinor: r.GoalAmountMinor,
		GoalFrequency:   r.GoalFrequency,
	}
	if r.GoalType != nil {
		goalType := domain.GoalType(*r.GoalType)
		input.GoalType = &goalType
	}
	if r.GoalTargetDate != nil {
		date, err := parseDate(*r.GoalTargetDate)
		if err != nil {
			return service.CategoryInput{}, err
		}
		input.GoalTargetDate = &date
	}
	return input, nil
}

// CreateGroup handles POST /api/v1/category-groups
func (h *CategoryHandler) CreateGroup(c echo.Context) error {
	var req GroupRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body")
	}
	group, err := h.categoryService.CreateGroup(c.Request().Context(), service.GroupInput{
		Name:      req.Name,
		SortOrder: req.SortOrder,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, group)
}

// GetGroups handles GET /api/v1/category-groups
func (h *CategoryHandler) GetGroups(c echo.Context) error {
	groups, err := h.categoryService.ListGroups(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, groups)
}

// UpdateGroup handles PUT /api/v1/category-groups/:id
func (h *CategoryHandler) UpdateGroup(c echo.Context) error {
	var req GroupRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body")
	}
	group, err := h.categoryService.UpdateGroup(c.Request().Context(), c.Param("id"), service.GroupInput{
		Name:      req.Name,
		SortOrder: req.SortOrder,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, group)
}

// CreateCategory handles POST /api/v1/categories
func (h *CategoryHandler) CreateCategory(c echo.Context) error {
	var req CategoryRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body")
	}
	input, err := req.toInput()
	if err != nil {
		return NewValidationError(c, err.Error())
	}
	cat, err := h.categoryService.Create(c.Request().Context(), input)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, cat)
}

// GetCategories handles GET /api/v1/categories
func (h *CategoryHandler) GetCategories(c echo.Context) error {
	includeInactive := c.QueryParam("includeInactive") == "true"
	cats, err := h.categoryService.List(c.Request().Context(), includeInactive)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, cats)
}

// UpdateCategory handles PUT /api/v1/categories/:id
func (h *CategoryHandler) UpdateCategory(c echo.Context) error {
	var req CategoryRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body")
	}
	input, err := req.toInput()
	if err != nil {
		return NewValidationError(c, err.Error())
	}
	cat, err := h.categoryService.Update(c.Request().Context(), c.Param("id"), input)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, cat)
}

// DeleteCategory handles DELETE /api/v1/categories/:id
func (h *CategoryHandler) DeleteCategory(c echo.Context) error {
	if err := h.categoryService.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// GetBudgetMonth handles GET /api/v1/budget/:month
func (h *CategoryHandler) GetBudgetMonth(c echo.Context) error {
	month, err := parseMonth(c.Param("month"))
	if err != nil {
		return NewValidationError(c, err.Error())
	}
	rows, err := h.categoryService.ListWithMonthlyState(c.Request().Context(), month)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, rows)
}
