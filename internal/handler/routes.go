package handler

import (
	"github.com/labstack/echo/v4"
)

// Handlers bundles every HTTP handler for route registration
type Handlers struct {
	Account        *AccountHandler
	Category       *CategoryHandler
	Transaction    *TransactionHandler
	Allocation     *AllocationHandler
	Reconciliation *ReconciliationHandler
	NetWorth       *NetWorthHandler
	MarketData     *MarketDataHandler
	Admin          *AdminHandler
}

// RegisterRoutes sets up all API routes
func RegisterRoutes(e *echo.Echo, h *Handlers) {
	e.GET("/health", h.Admin.Health)

	// API version 1
	api := e.Group("/api/v1")

	// Account registry
	accounts := api.Group("/accounts")
	accounts.POST("", h.Account.CreateAccount)
	accounts.GET("", h.Account.GetAccounts)
	accounts.GET("/:id", h.Account.GetAccount)
	accounts.PUT("/:id", h.Account.UpdateAccount)
	accounts.DELETE("/:id", h.Account.DeactivateAccount)
	accounts.PUT("/:id/detail", h.Account.UpdateAccountDetail)
	accounts.GET("/:id/detail/history", h.Account.GetAccountDetailHistory)

	// Per-account ledger views
	accounts.GET("/:id/transactions", h.Transaction.GetAccountTransactions)
	accounts.GET("/:id/history", h.NetWorth.GetAccountHistory)

	// Reconciliation
	accounts.GET("/:id/reconciliations", h.Reconciliation.GetHistory)
	accounts.GET("/:id/reconciliations/latest", h.Reconciliation.GetLatest)
	accounts.POST("/:id/reconciliations/worksheet", h.Reconciliation.GetWorksheet)
	accounts.POST("/:id/reconciliations", h.Reconciliation.Commit)

	// Investment holdings
	accounts.GET("/:id/holdings", h.MarketData.GetHoldings)
	accounts.PUT("/:id/holdings", h.MarketData.SetHolding)

	// Categories and groups
	groups := api.Group("/category-groups")
	groups.POST("", h.Category.CreateGroup)
	groups.GET("", h.Category.GetGroups)
	groups.PUT("/:id", h.Category.UpdateGroup)

	categories := api.Group("/categories")
	categories.POST("", h.Category.CreateCategory)
	categories.GET("", h.Category.GetCategories)
	categories.PUT("/:id", h.Category.UpdateCategory)
	categories.DELETE("/:id", h.Category.DeleteCategory)

	// Transactions and transfers
	transactions := api.Group("/transactions")
	transactions.POST("", h.Transaction.CreateTransaction)
	transactions.GET("", h.Transaction.GetTransactions)
	transactions.PUT("/:id", h.Transaction.UpdateTransaction)
	transactions.DELETE("/:id", h.Transaction.DeleteTransaction)

	transfers := api.Group("/transfers")
	transfers.POST("", h.Transaction.CreateTransfer)
	transfers.DELETE("/:groupId", h.Transaction.DeleteTransfer)

	// Envelope budget
	allocations := api.Group("/allocations")
	allocations.POST("", h.Allocation.CreateAllocation)
	allocations.GET("", h.Allocation.GetAllocations)
	allocations.PUT("/:id", h.Allocation.UpdateAllocation)
	allocations.DELETE("/:id", h.Allocation.DeleteAllocation)

	budget := api.Group("/budget")
	budget.GET("/:month", h.Category.GetBudgetMonth)
	budget.GET("/:month/ready-to-assign", h.Allocation.GetReadyToAssign)

	// Net worth
	netWorth := api.Group("/net-worth")
	netWorth.GET("", h.NetWorth.GetNetWorth)
	netWorth.GET("/history", h.NetWorth.GetNetWorthHistory)

	// Market data
	api.PUT("/market-prices", h.MarketData.UpsertPrice)

	// Operations
	api.POST("/admin/rebuild", h.Admin.Rebuild)
}
