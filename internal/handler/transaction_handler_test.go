package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dojofin/dojo-backend/internal/domain"
	"github.com/dojofin/dojo-backend/internal/service"
	"github.com/dojofin/dojo-backend/internal/testutil"
)

func newTestHandler(t *testing.T) (*TransactionHandler, *service.AccountService, *service.CategoryService) {
	t.Helper()
	store := testutil.NewMemStore()
	clock := domain.NewClock()
	return NewTransactionHandler(service.NewLedgerService(store, clock)),
		service.NewAccountService(store, clock),
		service.NewCategoryService(store, clock)
}

func seedAccountAndCategory(t *testing.T, accounts *service.AccountService, categories *service.CategoryService) *domain.Category {
	t.Helper()
	if _, err := accounts.Create(context.Background(), service.CreateAccountInput{
		ID:       "checking",
		Name:     "Checking",
		Class:    domain.ClassCash,
		OpenedOn: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}); err != nil {
		t.Fatalf("Failed to create account: %v", err)
	}
	cat, err := categories.Create(context.Background(), service.CategoryInput{Name: "Groceries"})
	if err != nil {
		t.Fatalf("Failed to create category: %v", err)
	}
	return cat
}

func TestCreateTransaction_Success(t *testing.T) {
	e := echo.New()
	handler, accounts, categories := newTestHandler(t)
	cat := seedAccountAndCategory(t, accounts, categories)

	reqBody := `{"accountId": "checking", "categoryId": "` + cat.ID + `", "transactionDate": "2025-06-05", "amountMinor": -4500}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/transactions", strings.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := handler.CreateTransaction(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var response service.TransactionResult
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if response.Transaction.AmountMinor != -4500 {
		t.Errorf("Expected amount -4500, got %d", response.Transaction.AmountMinor)
	}
	if response.Account.CurrentBalanceMinor != -4500 {
		t.Errorf("Expected balance -4500, got %d", response.Account.CurrentBalanceMinor)
	}
	if response.Transaction.Status != domain.StatusCleared {
		t.Errorf("Expected cleared default, got %s", response.Transaction.Status)
	}
}

func TestCreateTransaction_ZeroAmountIsProblemDetails(t *testing.T) {
	e := echo.New()
	handler, accounts, categories := newTestHandler(t)
	cat := seedAccountAndCategory(t, accounts, categories)

	reqBody := `{"accountId": "checking", "categoryId": "` + cat.ID + `", "transactionDate": "2025-06-05", "amountMinor": 0}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/transactions", strings.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := handler.CreateTransaction(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", rec.Code)
	}

	var problem ProblemDetails
	if err := json.Unmarshal(rec.Body.Bytes(), &problem); err != nil {
		t.Fatalf("Failed to unmarshal problem details: %v", err)
	}
	if problem.Type != ErrorTypeValidation {
		t.Errorf("Expected validation problem type, got %s", problem.Type)
	}
}

func TestCreateTransaction_UnknownAccountIs404(t *testing.T) {
	e := echo.New()
	handler, _, categories := newTestHandler(t)
	cat, err := categories.Create(context.Background(), service.CategoryInput{Name: "Groceries"})
	if err != nil {
		t.Fatalf("Failed to create category: %v", err)
	}

	reqBody := `{"accountId": "ghost", "categoryId": "` + cat.ID + `", "transactionDate": "2025-06-05", "amountMinor": -4500}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/transactions", strings.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := handler.CreateTransaction(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rec.Code)
	}
}

func TestCreateTransaction_BadDateRejected(t *testing.T) {
	e := echo.New()
	handler, accounts, categories := newTestHandler(t)
	cat := seedAccountAndCategory(t, accounts, categories)

	reqBody := `{"accountId": "checking", "categoryId": "` + cat.ID + `", "transactionDate": "05/06/2025", "amountMinor": -4500}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/transactions", strings.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := handler.CreateTransaction(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
}
