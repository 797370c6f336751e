package domain

import (
	"time"

	"github.com/google/uuid"
)

// Allocation is one SCD-2 version of an envelope move. FromCategoryID is
// never empty: moves out of Ready-to-Assign use the available_to_budget
// system category.
type Allocation struct {
	VersionID      uuid.UUID  `json:"versionId"`
	ConceptID      uuid.UUID  `json:"conceptId"`
	Date           time.Time  `json:"allocationDate"`
	MonthStart     time.Time  `json:"monthStart"`
	FromCategoryID string     `json:"fromCategoryId"`
	ToCategoryID   string     `json:"toCategoryId"`
	AmountMinor    int64      `json:"amountMinor"`
	Memo           *string    `json:"memo,omitempty"`
	RecordedAt     time.Time  `json:"recordedAt"`
	RecordedSeq    int64      `json:"-"`
	ValidFrom      time.Time  `json:"validFrom"`
	ValidTo        *time.Time `json:"validTo,omitempty"`
	IsActive       bool       `json:"isActive"`
}

// CategoryMonthNet aggregates active allocations per category and month
// for the cache rebuild: incoming minus outgoing.
type CategoryMonthNet struct {
	CategoryID string
	MonthStart time.Time
	NetMinor   int64
}

// AllocationRepository persists allocation versions.
type AllocationRepository interface {
	InsertVersion(a *Allocation) error
	ActiveByConcept(conceptID uuid.UUID) (*Allocation, error)
	Retire(versionID uuid.UUID, at time.Time) error
	ListByMonth(monthStart time.Time) ([]*Allocation, error)
	NetByCategoryMonth() ([]CategoryMonthNet, error)
}
