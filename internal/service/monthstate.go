package service

import (
	"errors"

	"time"

	"github.com/dojofin/dojo-backend/internal/domain"
)

// Monthly-state maintenance shared by the ledger and allocation services.
// Rows are materialized lazily: the first touch of a (category, month)
// seeds the row, carrying available_minor forward from the nearest
// earlier month. System and non-envelope categories record allocated,
// inflow and activity but keep available_minor at zero.

// seedMonthState returns the row for the month, creating it with the
// rollover carried forward when it does not exist yet.
func seedMonthState(uow domain.UnitOfWork, cat *domain.Category, monthStart time.Time) (*domain.CategoryMonthState, error) {
	state, err := uow.MonthStates().Get(cat.ID, monthStart)
	if err == nil {
		return state, nil
	}
	if !errors.Is(err, domain.ErrMonthStateNotFound) {
		return nil, err
	}

	var available int64
	if envelopeTracked(cat) {
		prev, err := uow.MonthStates().LatestOnOrBefore(cat.ID, domain.PreviousMonthStart(monthStart))
		switch {
		case err == nil:
			available = prev.AvailableMinor
		case errors.Is(err, domain.ErrMonthStateNotFound):
			// First month the category is ever touched.
		default:
			return nil, err
		}
	}

	state = &domain.CategoryMonthState{
		CategoryID:     cat.ID,
		MonthStart:     monthStart,
		AvailableMinor: available,
	}
	if err := uow.MonthStates().Insert(state); err != nil {
		return nil, err
	}
	return state, nil
}

// applyMonthDelta mutates the month's row and propagates the available
// delta into every later materialized month so rollover stays exact.
// A row whose movements all return to zero is dropped: it carries pure
// rollover, which reads reconstruct and the rebuild never writes.
func applyMonthDelta(uow domain.UnitOfWork, cat *domain.Category, monthStart time.Time, dAllocated, dInflow, dActivity int64) (*domain.CategoryMonthState, error) {
	state, err := seedMonthState(uow, cat, monthStart)
	if err != nil {
		return nil, err
	}

	state.AllocatedMinor += dAllocated
	state.InflowMinor += dInflow
	state.ActivityMinor += dActivity

	var dAvailable int64
	if envelopeTracked(cat) {
		dAvailable = dAllocated + dInflow + dActivity
	}
	state.AvailableMinor += dAvailable

	if state.AllocatedMinor == 0 && state.InflowMinor == 0 && state.ActivityMinor == 0 {
		if err := uow.MonthStates().Delete(state.CategoryID, state.MonthStart); err != nil {
			return nil, err
		}
	} else if err := uow.MonthStates().Update(state); err != nil {
		return nil, err
	}

	if dAvailable != 0 {
		later, err := uow.MonthStates().ListAfter(cat.ID, monthStart)
		if err != nil {
			return nil, err
		}
		for _, row := range later {
			row.AvailableMinor += dAvailable
			if err := uow.MonthStates().Update(row); err != nil {
				return nil, err
			}
		}
	}
	return state, nil
}

// envelopeTracked reports whether the category participates in envelope
// math. System categories and plain activity categories never do.
func envelopeTracked(cat *domain.Category) bool {
	return cat.IsEnvelope && !cat.IsSystem
}
