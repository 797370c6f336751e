package service

import (
	"context"
	"testing"
	"time"

	"github.com/dojofin/dojo-backend/internal/domain"
	"github.com/dojofin/dojo-backend/internal/testutil"
)

// fixture wires every service against the in-memory store with a
// deterministic clock that advances one second per stamp.
type fixture struct {
	ctx             context.Context
	store           *testutil.MemStore
	clock           *domain.Clock
	ledger          *LedgerService
	allocations     *AllocationService
	accounts        *AccountService
	categories      *CategoryService
	reconciliations *ReconciliationService
	netWorth        *NetWorthService
	marketData      *MarketDataService
	rebuild         *RebuildService
}

func newFixture() *fixture {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	return newFixtureWithClock(domain.NewClockAt(func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}))
}

func newFixtureWithClock(clock *domain.Clock) *fixture {
	store := testutil.NewMemStore()
	return &fixture{
		ctx:             context.Background(),
		store:           store,
		clock:           clock,
		ledger:          NewLedgerService(store, clock),
		allocations:     NewAllocationService(store, clock),
		accounts:        NewAccountService(store, clock),
		categories:      NewCategoryService(store, clock),
		reconciliations: NewReconciliationService(store, clock),
		netWorth:        NewNetWorthService(store, clock),
		marketData:      NewMarketDataService(store, clock),
		rebuild:         NewRebuildService(store),
	}
}

func (f *fixture) mustAccount(t *testing.T, id string, class domain.AccountClass) *domain.Account {
	t.Helper()
	account, err := f.accounts.Create(f.ctx, CreateAccountInput{
		ID:       id,
		Name:     id,
		Class:    class,
		OpenedOn: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("Failed to create account %s: %v", id, err)
	}
	return account
}

func (f *fixture) mustEnvelope(t *testing.T, name string) *domain.Category {
	t.Helper()
	cat, err := f.categories.Create(f.ctx, CategoryInput{Name: name})
	if err != nil {
		t.Fatalf("Failed to create category %s: %v", name, err)
	}
	return cat
}

// mustIncome posts an inflow to available_to_budget on the given account.
func (f *fixture) mustIncome(t *testing.T, accountID string, amountMinor int64, date time.Time) *TransactionResult {
	t.Helper()
	result, err := f.ledger.CreateTransaction(f.ctx, CreateTransactionInput{
		AccountID:   accountID,
		CategoryID:  domain.CategoryAvailableToBudget,
		Date:        date,
		AmountMinor: amountMinor,
	})
	if err != nil {
		t.Fatalf("Failed to post income: %v", err)
	}
	return result
}

func (f *fixture) mustSpend(t *testing.T, accountID, categoryID string, amountMinor int64, date time.Time) *TransactionResult {
	t.Helper()
	result, err := f.ledger.CreateTransaction(f.ctx, CreateTransactionInput{
		AccountID:   accountID,
		CategoryID:  categoryID,
		Date:        date,
		AmountMinor: amountMinor,
	})
	if err != nil {
		t.Fatalf("Failed to post transaction: %v", err)
	}
	return result
}

func (f *fixture) mustAllocate(t *testing.T, from, to string, amountMinor int64, date time.Time) *domain.Allocation {
	t.Helper()
	alloc, err := f.allocations.Allocate(f.ctx, AllocateInput{
		Date:           date,
		FromCategoryID: from,
		ToCategoryID:   to,
		AmountMinor:    amountMinor,
	})
	if err != nil {
		t.Fatalf("Failed to allocate: %v", err)
	}
	return alloc
}

func (f *fixture) accountBalance(t *testing.T, id string) int64 {
	t.Helper()
	account, err := f.accounts.Get(f.ctx, id)
	if err != nil {
		t.Fatalf("Failed to get account %s: %v", id, err)
	}
	return account.CurrentBalanceMinor
}

func (f *fixture) monthState(t *testing.T, categoryID string, month time.Time) *domain.CategoryMonthState {
	t.Helper()
	uow, err := f.store.Begin(f.ctx)
	if err != nil {
		t.Fatalf("Failed to begin: %v", err)
	}
	defer uow.Rollback()
	state, err := uow.MonthStates().Get(categoryID, domain.MonthStart(month))
	if err != nil {
		t.Fatalf("Failed to get month state for %s: %v", categoryID, err)
	}
	return state
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
