package domain

import "time"

// CategoryMonthState is the derived monthly cache row for one category.
// Invariant: AvailableMinor = previous month's AvailableMinor +
// AllocatedMinor + InflowMinor + ActivityMinor. Rows for system
// categories record allocated/inflow/activity but keep AvailableMinor at
// zero; Ready-to-Assign is computed from authoritative sources on read.
type CategoryMonthState struct {
	CategoryID     string    `json:"categoryId"`
	MonthStart     time.Time `json:"monthStart"`
	AllocatedMinor int64     `json:"allocatedMinor"`
	InflowMinor    int64     `json:"inflowMinor"`
	ActivityMinor  int64     `json:"activityMinor"`
	AvailableMinor int64     `json:"availableMinor"`
}

// MonthStateRepository persists the derived monthly cache. Rows are
// materialized lazily on first touch.
type MonthStateRepository interface {
	Get(categoryID string, monthStart time.Time) (*CategoryMonthState, error)
	// LatestOnOrBefore returns the newest row at or before the month,
	// ErrMonthStateNotFound when the category has no earlier row.
	LatestOnOrBefore(categoryID string, monthStart time.Time) (*CategoryMonthState, error)
	Insert(s *CategoryMonthState) error
	Update(s *CategoryMonthState) error
	ListByMonth(monthStart time.Time) ([]*CategoryMonthState, error)
	// ListAfter returns rows for the category strictly after the month,
	// ascending, for rollover propagation into later months.
	ListAfter(categoryID string, monthStart time.Time) ([]*CategoryMonthState, error)
	// Delete removes one row. Used when a reversal leaves every movement
	// at zero: the row is pure rollover and reads reconstruct it from the
	// nearest earlier month.
	Delete(categoryID string, monthStart time.Time) error
	// EnvelopeAvailableTotal sums AvailableMinor over active, non-system
	// envelope categories as of the given month (latest row per category
	// at or before it).
	EnvelopeAvailableTotal(monthStart time.Time) (int64, error)
	DeleteAll() error
}
