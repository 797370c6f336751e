package domain

import (
	"time"

	"github.com/google/uuid"
)

type TransactionStatus string

const (
	StatusPending TransactionStatus = "pending"
	StatusCleared TransactionStatus = "cleared"
)

type TransactionSource string

const (
	SourceUser   TransactionSource = "user"
	SourceSystem TransactionSource = "system"
)

// Transaction is one SCD-2 version of a transaction concept. ConceptID is
// stable across edits; exactly one version per concept has IsActive true.
type Transaction struct {
	VersionID       uuid.UUID         `json:"versionId"`
	ConceptID       uuid.UUID         `json:"conceptId"`
	AccountID       string            `json:"accountId"`
	CategoryID      string            `json:"categoryId"`
	Date            time.Time         `json:"transactionDate"`
	AmountMinor     int64             `json:"amountMinor"`
	Memo            *string           `json:"memo,omitempty"`
	Status          TransactionStatus `json:"status"`
	Source          TransactionSource `json:"source"`
	TransferGroupID *uuid.UUID        `json:"transferGroupId,omitempty"`
	RecordedAt      time.Time         `json:"recordedAt"`
	RecordedSeq     int64             `json:"-"`
	ValidFrom       time.Time         `json:"validFrom"`
	ValidTo         *time.Time        `json:"validTo,omitempty"`
	IsActive        bool              `json:"isActive"`
}

// TransactionFilters narrows account transaction listings.
type TransactionFilters struct {
	StartDate   *time.Time
	EndDate     *time.Time
	ClearedOnly bool
	Limit       int
}

const (
	DefaultTransactionLimit = 50
	MaxTransactionLimit     = 500
)

// DailyFlow is the net signed amount for one calendar day.
type DailyFlow struct {
	Date     time.Time `json:"date"`
	NetMinor int64     `json:"netMinor"`
}

// CategoryMonthActivity aggregates active transactions per category and
// month for the cache rebuild. ActivityMinor is the signed sum;
// InflowMinor is the sum of positive amounts.
type CategoryMonthActivity struct {
	CategoryID    string
	MonthStart    time.Time
	ActivityMinor int64
	InflowMinor   int64
}

// AccountMonthNet aggregates active credit-account movements that the
// payment reserve mirrors, per account and month.
type AccountMonthNet struct {
	AccountID  string
	MonthStart time.Time
	NetMinor   int64
}

// TransactionRepository persists transaction versions. Versions are never
// updated in place apart from retirement.
type TransactionRepository interface {
	InsertVersion(t *Transaction) error
	ActiveByConcept(conceptID uuid.UUID) (*Transaction, error)
	// Retire closes the given version. Returns ErrVersionConflict when the
	// version is no longer active.
	Retire(versionID uuid.UUID, at time.Time) error
	ListRecent(limit int) ([]*Transaction, error)
	ListByAccount(accountID string, f TransactionFilters) ([]*Transaction, error)
	ActiveByTransferGroup(groupID uuid.UUID) ([]*Transaction, error)

	// SumActive sums active amounts for an account, optionally cleared
	// rows only, optionally only rows dated on or before a cutoff.
	SumActive(accountID string, clearedOnly bool, onOrBefore *time.Time) (int64, error)
	DailyFlows(accountID string, start, end time.Time, clearedOnly bool) ([]DailyFlow, error)

	// PendingOrRecordedAfter returns active rows that are pending, or that
	// were recorded after the given stamp (nil means pending only).
	PendingOrRecordedAfter(accountID string, after *Stamp) ([]*Transaction, error)
	// RecordedAfterDatedOnOrBefore returns active rows recorded after a
	// checkpoint stamp but dated inside the already-reconciled period.
	RecordedAfterDatedOnOrBefore(accountID string, after Stamp, dateCutoff time.Time) ([]*Transaction, error)

	ActiveTotalsByAccount() (map[string]int64, error)
	ActiveByCategoryMonth() ([]CategoryMonthActivity, error)
	// ActiveCreditReserveByAccountMonth sums active rows on credit accounts
	// whose category feeds the payment reserve: envelope categories and
	// transfer legs.
	ActiveCreditReserveByAccountMonth() ([]AccountMonthNet, error)
}
