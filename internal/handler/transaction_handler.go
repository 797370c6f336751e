package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/dojofin/dojo-backend/internal/domain"
	"github.com/dojofin/dojo-backend/internal/service"
)

// TransactionHandler handles transaction and transfer HTTP requests
type TransactionHandler struct {
	ledgerService *service.LedgerService
}

// NewTransactionHandler creates a new TransactionHandler
func NewTransactionHandler(ledgerService *service.LedgerService) *TransactionHandler {
	return &TransactionHandler{ledgerService: ledgerService}
}

// TransactionRequest represents the create/update transaction request body
type TransactionRequest struct {
	AccountID   string  `json:"accountId"`
	CategoryID  string  `json:"categoryId"`
	Date        string  `json:"transactionDate"`
	AmountMinor int64   `json:"amountMinor"`
	Memo        *string `json:"memo,omitempty"`
	Status      string  `json:"status,omitempty"`
}

// TransferRequest represents the create transfer request body
type TransferRequest struct {
	SourceAccountID      string  `json:"sourceAccountId"`
	DestinationAccountID string  `json:"destinationAccountId"`
	AmountMinor          int64   `json:"amountMinor"`
	Date                 string  `json:"transferDate"`
	Memo                 *string `json:"memo,omitempty"`
}

func (r *TransactionRequest) toInput() (service.CreateTransactionInput, error) {
	date, err := parseDate(r.Date)
	if err != nil {
		return service.CreateTransactionInput{}, err
	}
	return service.CreateTransactionInput{
		AccountID:   r.AccountID,
		CategoryID:  r.CategoryID,
		Date:        date,
		AmountMinor: r.AmountMinor,
		Memo:        r.Memo,
		Status:      domain.TransactionStatus(r.Status),
		Source:      domain.SourceUser,
	}, nil
}

// CreateTransaction handles POST /api/v1/transactions
func (h *TransactionHandler) CreateTransaction(c echo.Context) error {
	var req TransactionRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body")
	}
	input, err := req.toInput()
	if err != nil {
		return NewValidationError(c, err.Error())
	}

	result, err := h.ledgerService.CreateTransaction(c.Request().Context(), input)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, result)
}

// UpdateTransaction handles PUT /api/v1/transactions/:id
func (h *TransactionHandler) UpdateTransaction(c echo.Context) error {
	conceptID, err := pathUUID(c, "id")
	if err != nil {
		return NewValidationError(c, err.Error())
	}
	var req TransactionRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body")
	}
	input, err := req.toInput()
	if err != nil {
		return NewValidationError(c, err.Error())
	}

	result, err := h.ledgerService.EditTransaction(c.Request().Context(), conceptID, input)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

// DeleteTransaction handles DELETE /api/v1/transactions/:id
func (h *TransactionHandler) DeleteTransaction(c echo.Context) error {
	conceptID, err := pathUUID(c, "id")
	if err != nil {
		return NewValidationError(c, err.Error())
	}
	if err := h.ledgerService.DeleteTransaction(c.Request().Context(), conceptID); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// GetTransactions handles GET /api/v1/transactions
func (h *TransactionHandler) GetTransactions(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	txns, err := h.ledgerService.ListRecent(c.Request().Context(), limit)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, txns)
}

// GetAccountTransactions handles GET /api/v1/accounts/:id/transactions
func (h *TransactionHandler) GetAccountTransactions(c echo.Context) error {
	filters := domain.TransactionFilters{}
	if v := c.QueryParam("startDate"); v != "" {
		start, err := parseDate(v)
		if err != nil {
			return NewValidationError(c, err.Error())
		}
		filters.StartDate = &start
	}
	if v := c.QueryParam("endDate"); v != "" {
		end, err := parseDate(v)
		if err != nil {
			return NewValidationError(c, err.Error())
		}
		filters.EndDate = &end
	}
	filters.ClearedOnly = c.QueryParam("status") == "cleared"
	filters.Limit, _ = strconv.Atoi(c.QueryParam("limit"))

	txns, err := h.ledgerService.ListByAccount(c.Request().Context(), c.Param("id"), filters)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, txns)
}

// CreateTransfer handles POST /api/v1/transfers
func (h *TransactionHandler) CreateTransfer(c echo.Context) error {
	var req TransferRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body")
	}
	date, err := parseDate(req.Date)
	if err != nil {
		return NewValidationError(c, err.Error())
	}

	result, err := h.ledgerService.CreateTransfer(c.Request().Context(), service.TransferInput{
		SourceAccountID:      req.SourceAccountID,
		DestinationAccountID: req.DestinationAccountID,
		AmountMinor:          req.AmountMinor,
		Date:                 date,
		Memo:                 req.Memo,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, result)
}

// DeleteTransfer handles DELETE /api/v1/transfers/:groupId
func (h *TransactionHandler) DeleteTransfer(c echo.Context) error {
	groupID, err := pathUUID(c, "groupId")
	if err != nil {
		return NewValidationError(c, err.Error())
	}
	if err := h.ledgerService.DeleteTransfer(c.Request().Context(), groupID); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
