package service

import (
	"testing"

	"github.com/dojofin/dojo-backend/internal/domain"
)

// seedLedger runs a mixed workload: income, envelope spending, credit
// card use, allocations, a transfer, an edit and a delete.
func seedLedger(t *testing.T, f *fixture) (groceries, dining *domain.Category) {
	t.Helper()
	f.mustAccount(t, "checking", domain.ClassCash)
	f.mustAccount(t, "savings", domain.ClassCash)
	f.mustAccount(t, "visa", domain.ClassCredit)
	groceries = f.mustEnvelope(t, "Groceries")
	dining = f.mustEnvelope(t, "Dining")

	f.mustIncome(t, "checking", 250000, day(2025, 6, 1))
	f.mustAllocate(t, domain.CategoryAvailableToBudget, groceries.ID, 60000, day(2025, 6, 1))
	f.mustAllocate(t, domain.CategoryAvailableToBudget, dining.ID, 20000, day(2025, 6, 1))

	f.mustSpend(t, "checking", groceries.ID, -15000, day(2025, 6, 5))
	// The card spend funds the visa payment reserve on its own.
	f.mustSpend(t, "visa", dining.ID, -8000, day(2025, 6, 8))

	if _, err := f.ledger.CreateTransfer(f.ctx, TransferInput{
		SourceAccountID:      "checking",
		DestinationAccountID: "savings",
		AmountMinor:          50000,
		Date:                 day(2025, 6, 10),
	}); err != nil {
		t.Fatalf("Failed to create transfer: %v", err)
	}

	edited := f.mustSpend(t, "checking", groceries.ID, -3000, day(2025, 6, 12))
	if _, err := f.ledger.EditTransaction(f.ctx, edited.Transaction.ConceptID, CreateTransactionInput{
		AccountID:   "checking",
		CategoryID:  groceries.ID,
		Date:        day(2025, 6, 12),
		AmountMinor: -4000,
	}); err != nil {
		t.Fatalf("Failed to edit: %v", err)
	}

	deleted := f.mustSpend(t, "checking", dining.ID, -1000, day(2025, 6, 14))
	if err := f.ledger.DeleteTransaction(f.ctx, deleted.Transaction.ConceptID); err != nil {
		t.Fatalf("Failed to delete: %v", err)
	}

	// July spending so rollover spans months.
	f.mustSpend(t, "checking", groceries.ID, -6000, day(2025, 7, 3))
	return groceries, dining
}

func snapshotState(t *testing.T, f *fixture) (balances map[string]int64, states map[string]domain.CategoryMonthState) {
	t.Helper()
	uow, err := f.store.Begin(f.ctx)
	if err != nil {
		t.Fatalf("Failed to begin: %v", err)
	}
	defer uow.Rollback()

	balances = make(map[string]int64)
	accounts, err := uow.Accounts().List(true)
	if err != nil {
		t.Fatalf("Failed to list accounts: %v", err)
	}
	for _, a := range accounts {
		balances[a.ID] = a.CurrentBalanceMinor
	}

	states = make(map[string]domain.CategoryMonthState)
	for _, month := range []int{5, 6, 7, 8} {
		rows, err := uow.MonthStates().ListByMonth(day(2025, 5, 1).AddDate(0, month-5, 0))
		if err != nil {
			t.Fatalf("Failed to list month states: %v", err)
		}
		for _, s := range rows {
			states[s.CategoryID+"/"+s.MonthStart.Format("2006-01")] = *s
		}
	}
	return balances, states
}

func TestRebuild_MatchesIncrementalMaintenance(t *testing.T) {
	f := newFixture()
	seedLedger(t, f)

	wantBalances, wantStates := snapshotState(t, f)

	if _, err := f.rebuild.Rebuild(f.ctx); err != nil {
		t.Fatalf("Failed to rebuild: %v", err)
	}

	gotBalances, gotStates := snapshotState(t, f)
	for id, want := range wantBalances {
		if got := gotBalances[id]; got != want {
			t.Errorf("Account %s: expected balance %d, got %d", id, want, got)
		}
	}
	for key, want := range wantStates {
		got, ok := gotStates[key]
		if !ok {
			t.Errorf("Month state %s missing after rebuild", key)
			continue
		}
		if got != want {
			t.Errorf("Month state %s: expected %+v, got %+v", key, want, got)
		}
	}
	for key := range gotStates {
		if _, ok := wantStates[key]; !ok {
			t.Errorf("Unexpected month state %s after rebuild", key)
		}
	}
}

func TestRebuild_RepairsCorruptedCaches(t *testing.T) {
	f := newFixture()
	groceries, _ := seedLedger(t, f)

	wantBalances, wantStates := snapshotState(t, f)

	// Corrupt both caches directly.
	uow, err := f.store.Begin(f.ctx)
	if err != nil {
		t.Fatalf("Failed to begin: %v", err)
	}
	if err := uow.Accounts().SetBalance("checking", 123456789); err != nil {
		t.Fatalf("Failed to corrupt balance: %v", err)
	}
	if err := uow.MonthStates().DeleteAll(); err != nil {
		t.Fatalf("Failed to corrupt month states: %v", err)
	}
	if err := uow.Commit(); err != nil {
		t.Fatalf("Failed to commit corruption: %v", err)
	}

	if _, err := f.rebuild.Rebuild(f.ctx); err != nil {
		t.Fatalf("Failed to rebuild: %v", err)
	}

	gotBalances, gotStates := snapshotState(t, f)
	if gotBalances["checking"] != wantBalances["checking"] {
		t.Errorf("Expected checking balance %d, got %d", wantBalances["checking"], gotBalances["checking"])
	}
	key := groceries.ID + "/2025-06"
	if gotStates[key] != wantStates[key] {
		t.Errorf("Expected groceries June state %+v, got %+v", wantStates[key], gotStates[key])
	}
}

func TestRebuild_CreateThenDeleteLeavesNoMonthRow(t *testing.T) {
	f := newFixture()
	groceries, _ := seedLedger(t, f)

	// An August spend followed by its deletion must leave no trace:
	// no August row incrementally, and none after a rebuild either.
	created := f.mustSpend(t, "checking", groceries.ID, -30000, day(2025, 8, 4))
	if err := f.ledger.DeleteTransaction(f.ctx, created.Transaction.ConceptID); err != nil {
		t.Fatalf("Failed to delete: %v", err)
	}

	wantBalances, wantStates := snapshotState(t, f)
	if _, ok := wantStates[groceries.ID+"/2025-08"]; ok {
		t.Errorf("Expected no August row for groceries after delete")
	}

	if _, err := f.rebuild.Rebuild(f.ctx); err != nil {
		t.Fatalf("Failed to rebuild: %v", err)
	}

	gotBalances, gotStates := snapshotState(t, f)
	if _, ok := gotStates[groceries.ID+"/2025-08"]; ok {
		t.Errorf("Expected no August row for groceries after rebuild")
	}
	for id, want := range wantBalances {
		if gotBalances[id] != want {
			t.Errorf("Account %s: expected balance %d, got %d", id, want, gotBalances[id])
		}
	}
	if len(gotStates) != len(wantStates) {
		t.Fatalf("State row count changed: %d then %d", len(wantStates), len(gotStates))
	}
	for key, want := range wantStates {
		if gotStates[key] != want {
			t.Errorf("Month state %s: expected %+v, got %+v", key, want, gotStates[key])
		}
	}
}

func TestRebuild_Idempotent(t *testing.T) {
	f := newFixture()
	seedLedger(t, f)

	if _, err := f.rebuild.Rebuild(f.ctx); err != nil {
		t.Fatalf("First rebuild failed: %v", err)
	}
	firstBalances, firstStates := snapshotState(t, f)

	if _, err := f.rebuild.Rebuild(f.ctx); err != nil {
		t.Fatalf("Second rebuild failed: %v", err)
	}
	secondBalances, secondStates := snapshotState(t, f)

	for id, want := range firstBalances {
		if secondBalances[id] != want {
			t.Errorf("Account %s: balance changed across rebuilds", id)
		}
	}
	if len(firstStates) != len(secondStates) {
		t.Fatalf("State row count changed: %d then %d", len(firstStates), len(secondStates))
	}
	for key, want := range firstStates {
		if secondStates[key] != want {
			t.Errorf("Month state %s changed across rebuilds", key)
		}
	}
}
