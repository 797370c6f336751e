package domain

import "time"

type GoalType string

const (
	GoalTargetDate GoalType = "target_date"
	GoalRecurring  GoalType = "recurring"
)

// CategoryGroup is a named, ordered group of budget categories.
type CategoryGroup struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	SortOrder int    `json:"sortOrder"`
	IsActive  bool   `json:"isActive"`
}

// Category is an envelope or system category. Capability flags decide what
// the ledger and allocation services accept against it.
type Category struct {
	ID                string     `json:"id"`
	GroupID           *string    `json:"groupId,omitempty"`
	Name              string     `json:"name"`
	IsSystem          bool       `json:"isSystem"`
	AllowTransactions bool       `json:"allowTransactions"`
	AllowAllocations  bool       `json:"allowAllocations"`
	IsEnvelope        bool       `json:"isEnvelope"`
	IsPayment         bool       `json:"isPayment"`
	GoalType          *GoalType  `json:"goalType,omitempty"`
	GoalAmountMinor   *int64     `json:"goalAmountMinor,omitempty"`
	GoalTargetDate    *time.Time `json:"goalTargetDate,omitempty"`
	GoalFrequency     *string    `json:"goalFrequency,omitempty"`
	IsActive          bool       `json:"isActive"`
}

// Fixed registry of system categories and reserved groups. These exist in
// every store; migrations seed them and services refuse to mutate them.
const (
	CategoryOpeningBalance    = "opening_balance"
	CategoryBalanceAdjustment = "balance_adjustment"
	CategoryAccountTransfer   = "account_transfer"
	CategoryAvailableToBudget = "available_to_budget"

	GroupCreditCardPayments = "credit_card_payments"
)

// IsSystemCategoryID reports whether id names a system category.
func IsSystemCategoryID(id string) bool {
	switch id {
	case CategoryOpeningBalance, CategoryBalanceAdjustment,
		CategoryAccountTransfer, CategoryAvailableToBudget:
		return true
	}
	return false
}

// PaymentCategoryID returns the reserved payment category id for a credit
// account.
func PaymentCategoryID(accountID string) string {
	return "payment_" + accountID
}

// SystemCategories returns the fixed system category rows.
func SystemCategories() []*Category {
	return []*Category{
		{ID: CategoryOpeningBalance, Name: "Opening Balance", IsSystem: true, AllowTransactions: true, IsActive: true},
		{ID: CategoryBalanceAdjustment, Name: "Balance Adjustment", IsSystem: true, AllowTransactions: true, IsActive: true},
		{ID: CategoryAccountTransfer, Name: "Account Transfer", IsSystem: true, AllowTransactions: true, IsActive: true},
		{ID: CategoryAvailableToBudget, Name: "Available to Budget", IsSystem: true, AllowTransactions: true, AllowAllocations: true, IsActive: true},
	}
}

// CategoryRepository persists categories.
type CategoryRepository interface {
	Insert(c *Category) error
	GetByID(id string) (*Category, error)
	List(includeInactive bool) ([]*Category, error)
	Update(c *Category) error
	SoftDelete(id string) error
}

// CategoryGroupRepository persists category groups.
type CategoryGroupRepository interface {
	Insert(g *CategoryGroup) error
	GetByID(id string) (*CategoryGroup, error)
	List() ([]*CategoryGroup, error)
	Update(g *CategoryGroup) error
}
