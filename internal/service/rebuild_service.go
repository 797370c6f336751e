package service

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dojofin/dojo-backend/internal/domain"
)

// RebuildService recomputes the derived caches from the active ledger
// rows: account balances and the monthly category state. Incremental
// maintenance and a rebuild must land on identical values; the rebuild
// is the recovery path and runs on startup unless skipped.
type RebuildService struct {
	store domain.Store
}

// NewRebuildService creates a new RebuildService.
func NewRebuildService(store domain.Store) *RebuildService {
	return &RebuildService{store: store}
}

// RebuildStats summarizes one rebuild run.
type RebuildStats struct {
	Accounts   int   `json:"accounts"`
	StateRows  int   `json:"stateRows"`
	DurationMS int64 `json:"durationMs"`
}

// Rebuild recomputes both caches inside a single unit of work.
func (s *RebuildService) Rebuild(ctx context.Context) (*RebuildStats, error) {
	started := time.Now()

	uow, err := s.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer uow.Rollback()

	accounts, err := rebuildBalances(uow)
	if err != nil {
		return nil, err
	}
	rows, err := rebuildMonthStates(uow)
	if err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}

	stats := &RebuildStats{
		Accounts:   accounts,
		StateRows:  rows,
		DurationMS: time.Since(started).Milliseconds(),
	}
	log.Info().
		Int("accounts", stats.Accounts).
		Int("state_rows", stats.StateRows).
		Dur("duration", time.Since(started)).
		Msg("Derived caches rebuilt")
	return stats, nil
}

// rebuildBalances sets every account's cached balance to the sum of its
// active transaction amounts. Accounts with no active rows go to zero.
func rebuildBalances(uow domain.UnitOfWork) (int, error) {
	totals, err := uow.Transactions().ActiveTotalsByAccount()
	if err != nil {
		return 0, err
	}
	accounts, err := uow.Accounts().List(true)
	if err != nil {
		return 0, err
	}
	for _, a := range accounts {
		if err := uow.Accounts().SetBalance(a.ID, totals[a.ID]); err != nil {
			return 0, err
		}
	}
	return len(accounts), nil
}

// rebuildMonthStates drops the monthly cache and rewrites it from the
// per-category-month aggregates, walking each category's touched months
// in order so available_minor rolls over exactly as the incremental
// path computes it.
func rebuildMonthStates(uow domain.UnitOfWork) (int, error) {
	activities, err := uow.Transactions().ActiveByCategoryMonth()
	if err != nil {
		return 0, err
	}
	nets, err := uow.Allocations().NetByCategoryMonth()
	if err != nil {
		return 0, err
	}
	reserves, err := uow.Transactions().ActiveCreditReserveByAccountMonth()
	if err != nil {
		return 0, err
	}
	categories, err := uow.Categories().List(true)
	if err != nil {
		return 0, err
	}
	byID := make(map[string]*domain.Category, len(categories))
	for _, c := range categories {
		byID[c.ID] = c
	}

	type monthRow struct {
		allocated int64
		inflow    int64
		activity  int64
	}
	merged := make(map[string]map[time.Time]*monthRow)
	touch := func(categoryID string, month time.Time) *monthRow {
		months, ok := merged[categoryID]
		if !ok {
			months = make(map[time.Time]*monthRow)
			merged[categoryID] = months
		}
		row, ok := months[month]
		if !ok {
			row = &monthRow{}
			months[month] = row
		}
		return row
	}

	for _, a := range activities {
		row := touch(a.CategoryID, a.MonthStart)
		row.activity += a.ActivityMinor
		// Inflow is tracked only against the unassigned-income category;
		// everywhere else positive activity is a refund, not income.
		if a.CategoryID == domain.CategoryAvailableToBudget {
			row.inflow += a.InflowMinor
		}
	}
	for _, n := range nets {
		touch(n.CategoryID, n.MonthStart).allocated += n.NetMinor
	}
	// Credit-account activity is mirrored into the payment reserve with
	// the opposite sign, matching the incremental sync.
	for _, rsv := range reserves {
		touch(domain.PaymentCategoryID(rsv.AccountID), rsv.MonthStart).activity += -rsv.NetMinor
	}

	if err := uow.MonthStates().DeleteAll(); err != nil {
		return 0, err
	}

	written := 0
	for categoryID, months := range merged {
		cat, ok := byID[categoryID]
		if !ok {
			return 0, domain.ErrCategoryNotFound
		}

		ordered := make([]time.Time, 0, len(months))
		for m := range months {
			ordered = append(ordered, m)
		}
		sort.Slice(ordered, func(i, j int) bool { return ordered[i].Before(ordered[j]) })

		var available int64
		for _, month := range ordered {
			row := months[month]
			if envelopeTracked(cat) {
				available += row.allocated + row.inflow + row.activity
			}
			// Movements that offset within the month leave no row, same
			// as the incremental path.
			if row.allocated == 0 && row.inflow == 0 && row.activity == 0 {
				continue
			}
			state := &domain.CategoryMonthState{
				CategoryID:     categoryID,
				MonthStart:     month,
				AllocatedMinor: row.allocated,
				InflowMinor:    row.inflow,
				ActivityMinor:  row.activity,
				AvailableMinor: 0,
			}
			if envelopeTracked(cat) {
				state.AvailableMinor = available
			}
			if err := uow.MonthStates().Insert(state); err != nil {
				return 0, err
			}
			written++
		}
	}
	return written, nil
}
