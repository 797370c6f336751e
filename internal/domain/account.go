package domain

import (
	"time"

	"github.com/google/uuid"
)

type AccountType string

const (
	AccountTypeAsset     AccountType = "asset"
	AccountTypeLiability AccountType = "liability"
)

type AccountClass string

const (
	ClassCash       AccountClass = "cash"
	ClassCredit     AccountClass = "credit"
	ClassAccessible AccountClass = "accessible"
	ClassInvestment AccountClass = "investment"
	ClassLoan       AccountClass = "loan"
	ClassTangible   AccountClass = "tangible"
)

type AccountRole string

const (
	RoleOnBudget AccountRole = "on_budget"
	RoleTracking AccountRole = "tracking"
)

// TypeForClass returns the account type a class implies. Credit and loan
// accounts are liabilities, everything else is an asset.
func TypeForClass(class AccountClass) (AccountType, error) {
	switch class {
	case ClassCredit, ClassLoan:
		return AccountTypeLiability, nil
	case ClassCash, ClassAccessible, ClassInvestment, ClassTangible:
		return AccountTypeAsset, nil
	default:
		return "", ErrUnknownClass
	}
}

// Account is a ledger account. CurrentBalanceMinor is a derived cache of
// the sum of active transaction amounts; only the ledger service and the
// cache rebuild may move it.
type Account struct {
	ID                  string       `json:"id"`
	Name                string       `json:"name"`
	Type                AccountType  `json:"accountType"`
	Class               AccountClass `json:"accountClass"`
	Role                AccountRole  `json:"accountRole"`
	CurrentBalanceMinor int64        `json:"currentBalanceMinor"`
	Currency            string       `json:"currency"`
	IsActive            bool         `json:"isActive"`
	OpenedOn            time.Time    `json:"openedOn"`
	CreatedAt           time.Time    `json:"createdAt"`
	UpdatedAt           time.Time    `json:"updatedAt"`
}

// AccountDetail is the SCD-2 per-class detail record. The columns are
// class-discriminated: only the fields for the account's class are set.
type AccountDetail struct {
	DetailID            uuid.UUID    `json:"detailId"`
	AccountID           string       `json:"accountId"`
	Class               AccountClass `json:"accountClass"`
	APRBps              *int64       `json:"aprBps,omitempty"`
	CreditLimitMinor    *int64       `json:"creditLimitMinor,omitempty"`
	TermMonths          *int32       `json:"termMonths,omitempty"`
	UninvestedCashMinor *int64       `json:"uninvestedCashMinor,omitempty"`
	FairValueMinor      *int64       `json:"fairValueMinor,omitempty"`
	NoticeDays          *int32       `json:"noticeDays,omitempty"`
	ValidFrom           time.Time    `json:"validFrom"`
	ValidTo             *time.Time   `json:"validTo,omitempty"`
	IsActive            bool         `json:"isActive"`
}

// AccountRepository persists accounts and their class detail versions.
type AccountRepository interface {
	Insert(a *Account) error
	GetByID(id string) (*Account, error)
	List(includeInactive bool) ([]*Account, error)
	// Update writes metadata and activity flag only, never the balance.
	Update(a *Account) error
	AddBalance(id string, deltaMinor int64) error
	SetBalance(id string, balanceMinor int64) error

	InsertDetail(d *AccountDetail) error
	ActiveDetail(accountID string) (*AccountDetail, error)
	CloseDetail(detailID uuid.UUID, at time.Time) error
	ActiveDetailsByClass(class AccountClass) ([]*AccountDetail, error)
	DetailsByAccount(accountID string) ([]*AccountDetail, error)
}
