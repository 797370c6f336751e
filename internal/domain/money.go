package domain

import "time"

// All monetary values are signed 64-bit integers in minor units (cents).
// Assets carry positive balances, liabilities negative. Outflows are
// negative amounts, inflows positive. Higher layers must never re-derive
// these conventions.

// Owed converts a signed liability balance into the positive amount owed.
func Owed(balanceMinor int64) int64 {
	return -balanceMinor
}

// MonthStart normalizes a date to the first day of its month in UTC.
func MonthStart(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// PreviousMonthStart returns the first day of the month before the given
// month start.
func PreviousMonthStart(monthStart time.Time) time.Time {
	return MonthStart(monthStart.AddDate(0, 0, -1))
}

// NextMonthStart returns the first day of the month after the given month
// start.
func NextMonthStart(monthStart time.Time) time.Time {
	return MonthStart(monthStart.AddDate(0, 1, 0))
}

// DayStart truncates a timestamp to midnight UTC.
func DayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of calendar days from start to end,
// inclusive of both endpoints. start and end must be day-aligned.
func DaysBetween(start, end time.Time) int {
	return int(end.Sub(start).Hours()/24) + 1
}
