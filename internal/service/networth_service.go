package service

import (
	"context"
	"errors"
	"time"

	"github.com/dojofin/dojo-backend/internal/domain"
)

// NetWorthService serves the net-worth and balance-history read models.
// Everything here is a pure query over the ledger and its SCD-2 side
// tables.
type NetWorthService struct {
	store domain.Store
	clock *domain.Clock
}

// NewNetWorthService creates a new NetWorthService.
func NewNetWorthService(store domain.Store, clock *domain.Clock) *NetWorthService {
	return &NetWorthService{store: store, clock: clock}
}

// Current computes the net-worth snapshot:
// assets + liabilities + positions + tangibles, liabilities negative.
func (s *NetWorthService) Current(ctx context.Context) (*domain.NetWorthSnapshot, error) {
	uow, err := s.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer uow.Rollback()

	now := s.clock.Next().RecordedAt

	accounts, err := uow.Accounts().List(false)
	if err != nil {
		return nil, err
	}

	snapshot := &domain.NetWorthSnapshot{AsOf: now}
	for _, a := range accounts {
		switch {
		case a.Type == domain.AccountTypeLiability:
			snapshot.LiabilitiesMinor += a.CurrentBalanceMinor
		case a.Class == domain.ClassInvestment:
			value, err := investmentValue(uow, a)
			if err != nil {
				return nil, err
			}
			snapshot.PositionsMinor += value
		default:
			snapshot.AssetsMinor += a.CurrentBalanceMinor
		}
	}

	tangibles, err := uow.Accounts().ActiveDetailsByClass(domain.ClassTangible)
	if err != nil {
		return nil, err
	}
	activeIDs := make(map[string]bool, len(accounts))
	for _, a := range accounts {
		activeIDs[a.ID] = true
	}
	for _, d := range tangibles {
		if d.FairValueMinor != nil && activeIDs[d.AccountID] {
			snapshot.TangiblesMinor += *d.FairValueMinor
		}
	}

	snapshot.NetWorthMinor = snapshot.AssetsMinor + snapshot.LiabilitiesMinor +
		snapshot.PositionsMinor + snapshot.TangiblesMinor
	if err := uow.Commit(); err != nil {
		return nil, err
	}
	return snapshot, nil
}

// AccountHistory returns one absolute balance per calendar day in
// [start, end]: the pre-range baseline plus the running sum of daily
// flows. For end = today and the all-statuses filter, the final point
// equals the account's cached balance.
func (s *NetWorthService) AccountHistory(ctx context.Context, accountID string, start, end time.Time, clearedOnly bool) ([]domain.BalancePoint, error) {
	start, end = domain.DayStart(start), domain.DayStart(end)
	if end.Before(start) || domain.DaysBetween(start, end) > domain.MaxHistoryDays {
		return nil, domain.ErrRangeTooLong
	}

	uow, err := s.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if _, err := uow.Accounts().GetByID(accountID); err != nil {
		return nil, err
	}

	series, err := accountSeries(uow, accountID, start, end, clearedOnly)
	if err != nil {
		return nil, err
	}
	return series, uow.Commit()
}

// NetWorthHistory returns a daily absolute net-worth series aggregating
// ledger balances, investment positions valued with as-of prices, and
// tangible fair values over their SCD-2 validity windows.
func (s *NetWorthService) NetWorthHistory(ctx context.Context, start, end time.Time) ([]domain.BalancePoint, error) {
	start, end = domain.DayStart(start), domain.DayStart(end)
	if end.Before(start) || domain.DaysBetween(start, end) > domain.MaxHistoryDays {
		return nil, domain.ErrRangeTooLong
	}

	uow, err := s.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer uow.Rollback()

	accounts, err := uow.Accounts().List(false)
	if err != nil {
		return nil, err
	}

	days := domain.DaysBetween(start, end)
	totals := make([]int64, days)

	for _, a := range accounts {
		switch {
		case a.Class == domain.ClassInvestment:
			if err := addInvestmentSeries(uow, a, start, days, totals); err != nil {
				return nil, err
			}
		default:
			series, err := accountSeries(uow, a.ID, start, end, false)
			if err != nil {
				return nil, err
			}
			for i, p := range series {
				totals[i] += p.BalanceMinor
			}
		}
		if a.Class == domain.ClassTangible {
			if err := addTangibleSeries(uow, a.ID, start, days, totals); err != nil {
				return nil, err
			}
		}
	}

	points := make([]domain.BalancePoint, days)
	for i := range points {
		points[i] = domain.BalancePoint{
			Date:         start.AddDate(0, 0, i),
			BalanceMinor: totals[i],
		}
	}
	return points, uow.Commit()
}

func accountSeries(uow domain.UnitOfWork, accountID string, start, end time.Time, clearedOnly bool) ([]domain.BalancePoint, error) {
	dayBefore := start.AddDate(0, 0, -1)
	baseline, err := uow.Transactions().SumActive(accountID, clearedOnly, &dayBefore)
	if err != nil {
		return nil, err
	}
	flows, err := uow.Transactions().DailyFlows(accountID, start, end, clearedOnly)
	if err != nil {
		return nil, err
	}

	flowByDay := make(map[time.Time]int64, len(flows))
	for _, f := range flows {
		flowByDay[domain.DayStart(f.Date)] = f.NetMinor
	}

	days := domain.DaysBetween(start, end)
	points := make([]domain.BalancePoint, days)
	running := baseline
	for i := 0; i < days; i++ {
		day := start.AddDate(0, 0, i)
		running += flowByDay[day]
		points[i] = domain.BalancePoint{Date: day, BalanceMinor: running}
	}
	return points, nil
}

// investmentValue prices an investment account for the snapshot:
// declared uninvested cash plus holdings at the latest recorded close,
// whatever its date. Accounts with neither fall back to their
// ledger-derived balance.
func investmentValue(uow domain.UnitOfWork, account *domain.Account) (int64, error) {
	holdings, err := uow.MarketData().ActiveHoldings(account.ID)
	if err != nil {
		return 0, err
	}

	var uninvested *int64
	detail, err := uow.Accounts().ActiveDetail(account.ID)
	switch {
	case err == nil:
		uninvested = detail.UninvestedCashMinor
	case errors.Is(err, domain.ErrDetailNotFound):
	default:
		return 0, err
	}

	if len(holdings) == 0 && uninvested == nil {
		return account.CurrentBalanceMinor, nil
	}

	var value int64
	if uninvested != nil {
		value = *uninvested
	}
	for _, h := range holdings {
		price, err := uow.MarketData().LatestClose(h.Symbol)
		if errors.Is(err, domain.ErrPriceNotFound) {
			continue
		}
		if err != nil {
			return 0, err
		}
		value += h.Value(price.CloseMinor)
	}
	return value, nil
}

func addInvestmentSeries(uow domain.UnitOfWork, account *domain.Account, start time.Time, days int, totals []int64) error {
	holdings, err := uow.MarketData().HoldingsByAccount(account.ID)
	if err != nil {
		return err
	}
	details, err := uow.Accounts().DetailsByAccount(account.ID)
	if err != nil {
		return err
	}

	declaresCash := false
	for _, d := range details {
		if d.UninvestedCashMinor != nil {
			declaresCash = true
			break
		}
	}
	if len(holdings) == 0 && !declaresCash {
		end := start.AddDate(0, 0, days-1)
		series, err := accountSeries(uow, account.ID, start, end, false)
		if err != nil {
			return err
		}
		for i, p := range series {
			totals[i] += p.BalanceMinor
		}
		return nil
	}

	for i := 0; i < days; i++ {
		day := start.AddDate(0, 0, i)
		dayEnd := day.AddDate(0, 0, 1)

		if d := detailAsOf(details, dayEnd); d != nil && d.UninvestedCashMinor != nil {
			totals[i] += *d.UninvestedCashMinor
		}
		for _, h := range holdings {
			if !validAsOf(h.ValidFrom, h.ValidTo, dayEnd) {
				continue
			}
			price, err := uow.MarketData().LatestCloseOnOrBefore(h.Symbol, day)
			if errors.Is(err, domain.ErrPriceNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			totals[i] += h.Value(price.CloseMinor)
		}
	}
	return nil
}

func addTangibleSeries(uow domain.UnitOfWork, accountID string, start time.Time, days int, totals []int64) error {
	details, err := uow.Accounts().DetailsByAccount(accountID)
	if err != nil {
		return err
	}
	for i := 0; i < days; i++ {
		dayEnd := start.AddDate(0, 0, i+1)
		if d := detailAsOf(details, dayEnd); d != nil && d.FairValueMinor != nil {
			totals[i] += *d.FairValueMinor
		}
	}
	return nil
}

// detailAsOf picks the detail version valid just before cutoff. Details
// are ordered by valid_from.
func detailAsOf(details []*domain.AccountDetail, cutoff time.Time) *domain.AccountDetail {
	var match *domain.AccountDetail
	for _, d := range details {
		if validAsOf(d.ValidFrom, d.ValidTo, cutoff) {
			match = d
		}
	}
	return match
}

func validAsOf(from time.Time, to *time.Time, cutoff time.Time) bool {
	if !from.Before(cutoff) {
		return false
	}
	return to == nil || to.After(cutoff) || to.Equal(cutoff)
}
