package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dojofin/dojo-backend/internal/domain"
	"github.com/dojofin/dojo-backend/internal/service"
)

// AccountHandler handles account registry HTTP requests
type AccountHandler struct {
	accountService *service.AccountService
}

// NewAccountHandler creates a new AccountHandler
func NewAccountHandler(accountService *service.AccountService) *AccountHandler {
	return &AccountHandler{accountService: accountService}
}

// CreateAccountRequest represents the create account request body
type CreateAccountRequest struct {
	ID                  string        `json:"id,omitempty"`
	Name                string        `json:"name"`
	Class               string        `json:"accountClass"`
	Role                string        `json:"accountRole,omitempty"`
	Currency            string        `json:"currency,omitempty"`
	OpenedOn            string        `json:"openedOn,omitempty"`
	OpeningBalanceMinor int64         `json:"openingBalanceMinor,omitempty"`
	Detail              DetailRequest `json:"detail"`
}

// UpdateAccountRequest represents the update account request body
type UpdateAccountRequest struct {
	Name         *string `json:"name,omitempty"`
	Role         *string `json:"accountRole,omitempty"`
	BalanceMinor *int64  `json:"currentBalanceMinor,omitempty"`
}

// DetailRequest carries the class-discriminated detail fields
type DetailRequest struct {
	APRBps              *int64 `json:"aprBps,omitempty"`
	CreditLimitMinor    *int64 `json:"creditLimitMinor,omitempty"`
	TermMonths          *int32 `json:"termMonths,omitempty"`
	UninvestedCashMinor *int64 `json:"uninvestedCashMinor,omitempty"`
	FairValueMinor      *int64 `json:"fairValueMinor,omitempty"`
	NoticeDays          *int32 `json:"noticeDays,omitempty"`
}

func (r *DetailRequest) toInput() service.DetailInput {
	return service.DetailInput{
		APRBps:              r.APRBps,
		CreditLimitMinor:    r.CreditLimitMinor,
		TermMonths:          r.TermMonths,
		UninvestedCashMinor: r.UninvestedCashMinor,
		FairValueMinor:      r.FairValueMinor,
		NoticeDays:          r.NoticeDays,
	}
}

// CreateAccount handles POST /api/v1/accounts
func (h *AccountHandler) CreateAccount(c echo.Context) error {
	var req CreateAccountRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body")
	}

	input := service.CreateAccountInput{
		ID:                  req.ID,
		Name:                req.Name,
		Class:               domain.AccountClass(req.Class),
		Role:                domain.AccountRole(req.Role),
		Currency:            req.Currency,
		OpeningBalanceMinor: req.OpeningBalanceMinor,
		Detail:              req.Detail.toInput(),
	}
	if req.OpenedOn != "" {
		openedOn, err := parseDate(req.OpenedOn)
		if err != nil {
			return NewValidationError(c, err.Error())
		}
		input.OpenedOn = openedOn
	}

	account, err := h.accountService.Create(c.Request().Context(), input)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, account)
}

// GetAccounts handles GET /api/v1/accounts
func (h *AccountHandler) GetAccounts(c echo.Context) error {
	includeInactive := c.QueryParam("includeInactive") == "true"
	accounts, err := h.accountService.List(c.Request().Context(), includeInactive)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, accounts)
}

// GetAccount handles GET /api/v1/accounts/:id
func (h *AccountHandler) GetAccount(c echo.Context) error {
	account, err := h.accountService.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, account)
}

// UpdateAccount handles PUT /api/v1/accounts/:id
func (h *AccountHandler) UpdateAccount(c echo.Context) error {
	var req UpdateAccountRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body")
	}

	input := service.UpdateAccountInput{
		Name:         req.Name,
		BalanceMinor: req.BalanceMinor,
	}
	if req.Role != nil {
		role := domain.AccountRole(*req.Role)
		input.Role = &role
	}

	account, err := h.accountService.Update(c.Request().Context(), c.Param("id"), input)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, account)
}

// DeactivateAccount handles DELETE /api/v1/accounts/:id
func (h *AccountHandler) DeactivateAccount(c echo.Context) error {
	if err := h.accountService.Deactivate(c.Request().Context(), c.Param("id")); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// UpdateAccountDetail handles PUT /api/v1/accounts/:id/detail
func (h *AccountHandler) UpdateAccountDetail(c echo.Context) error {
	var req DetailRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body")
	}
	detail, err := h.accountService.UpdateDetail(c.Request().Context(), c.Param("id"), req.toInput())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, detail)
}

// GetAccountDetailHistory handles GET /api/v1/accounts/:id/detail/history
func (h *AccountHandler) GetAccountDetailHistory(c echo.Context) error {
	details, err := h.accountService.DetailHistory(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, details)
}
