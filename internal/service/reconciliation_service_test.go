package service

import (
	"errors"
	"testing"
	"time"

	"github.com/dojofin/dojo-backend/internal/domain"
)

func TestReconciliation_LatestNilWhenNeverReconciled(t *testing.T) {
	f := newFixture()
	f.mustAccount(t, "checking", domain.ClassCash)

	latest, err := f.reconciliations.Latest(f.ctx, "checking")
	if err != nil {
		t.Fatalf("Failed to get latest: %v", err)
	}
	if latest != nil {
		t.Errorf("Expected nil, got %+v", latest)
	}
}

func TestWorksheet_ClearedTotalAndDifference(t *testing.T) {
	f := newFixture()
	f.mustAccount(t, "checking", domain.ClassCash)
	groceries := f.mustEnvelope(t, "Groceries")

	f.mustIncome(t, "checking", 100000, day(2025, 6, 1))
	f.mustSpend(t, "checking", groceries.ID, -20000, day(2025, 6, 10))
	if _, err := f.ledger.CreateTransaction(f.ctx, CreateTransactionInput{
		AccountID:   "checking",
		CategoryID:  groceries.ID,
		Date:        day(2025, 6, 12),
		AmountMinor: -5000,
		Status:      domain.StatusPending,
	}); err != nil {
		t.Fatalf("Failed to create pending transaction: %v", err)
	}

	ws, err := f.reconciliations.Worksheet(f.ctx, CommitInput{
		AccountID:             "checking",
		StatementDate:         day(2025, 6, 30),
		StatementBalanceMinor: 80000,
	})
	if err != nil {
		t.Fatalf("Failed to build worksheet: %v", err)
	}

	// Pending rows are excluded from the cleared total.
	if ws.ClearedTotalMinor != 80000 {
		t.Errorf("Expected cleared total 80000, got %d", ws.ClearedTotalMinor)
	}
	if ws.DifferenceMinor != 0 {
		t.Errorf("Expected difference 0, got %d", ws.DifferenceMinor)
	}
	if len(ws.Pending) != 1 {
		t.Errorf("Expected 1 pending transaction, got %d", len(ws.Pending))
	}
}

func TestCommit_RequiresZeroDifference(t *testing.T) {
	f := newFixture()
	f.mustAccount(t, "checking", domain.ClassCash)
	f.mustIncome(t, "checking", 100000, day(2025, 6, 1))

	_, err := f.reconciliations.Commit(f.ctx, CommitInput{
		AccountID:             "checking",
		StatementDate:         day(2025, 6, 30),
		StatementBalanceMinor: 99999,
	})
	if !errors.Is(err, domain.ErrDifferenceNotZero) {
		t.Errorf("Expected ErrDifferenceNotZero, got %v", err)
	}

	rec, err := f.reconciliations.Commit(f.ctx, CommitInput{
		AccountID:             "checking",
		StatementDate:         day(2025, 6, 30),
		StatementBalanceMinor: 100000,
	})
	if err != nil {
		t.Fatalf("Failed to commit: %v", err)
	}
	if rec.PreviousID != nil {
		t.Errorf("Expected no previous checkpoint, got %v", rec.PreviousID)
	}
}

func TestCommit_LinksPreviousCheckpoint(t *testing.T) {
	f := newFixture()
	f.mustAccount(t, "checking", domain.ClassCash)
	groceries := f.mustEnvelope(t, "Groceries")
	f.mustIncome(t, "checking", 100000, day(2025, 6, 1))

	first, err := f.reconciliations.Commit(f.ctx, CommitInput{
		AccountID:             "checking",
		StatementDate:         day(2025, 6, 30),
		StatementBalanceMinor: 100000,
	})
	if err != nil {
		t.Fatalf("Failed to commit first checkpoint: %v", err)
	}

	f.mustSpend(t, "checking", groceries.ID, -30000, day(2025, 7, 5))
	second, err := f.reconciliations.Commit(f.ctx, CommitInput{
		AccountID:             "checking",
		StatementDate:         day(2025, 7, 31),
		StatementBalanceMinor: 70000,
	})
	if err != nil {
		t.Fatalf("Failed to commit second checkpoint: %v", err)
	}
	if second.PreviousID == nil || *second.PreviousID != first.ID {
		t.Errorf("Expected previous link to %s, got %v", first.ID, second.PreviousID)
	}

	history, err := f.reconciliations.History(f.ctx, "checking")
	if err != nil {
		t.Fatalf("Failed to get history: %v", err)
	}
	if len(history) != 2 {
		t.Errorf("Expected 2 checkpoints, got %d", len(history))
	}
}

func TestWorksheet_DetectsDriftAgainstReconciledPeriod(t *testing.T) {
	f := newFixture()
	f.mustAccount(t, "checking", domain.ClassCash)
	groceries := f.mustEnvelope(t, "Groceries")
	f.mustIncome(t, "checking", 100000, day(2025, 6, 1))

	if _, err := f.reconciliations.Commit(f.ctx, CommitInput{
		AccountID:             "checking",
		StatementDate:         day(2025, 6, 30),
		StatementBalanceMinor: 100000,
	}); err != nil {
		t.Fatalf("Failed to commit checkpoint: %v", err)
	}

	// Backdated into the already-reconciled period.
	f.mustSpend(t, "checking", groceries.ID, -2500, day(2025, 6, 15))

	ws, err := f.reconciliations.Worksheet(f.ctx, CommitInput{
		AccountID:             "checking",
		StatementDate:         day(2025, 7, 31),
		StatementBalanceMinor: 97500,
	})
	if err != nil {
		t.Fatalf("Failed to build worksheet: %v", err)
	}
	if len(ws.Drift) != 1 {
		t.Fatalf("Expected 1 drift transaction, got %d", len(ws.Drift))
	}
	if ws.Drift[0].AmountMinor != -2500 {
		t.Errorf("Expected drift amount -2500, got %d", ws.Drift[0].AmountMinor)
	}
}

func TestWorksheet_DriftSurvivesStalledClock(t *testing.T) {
	// Every write in this test carries the same wall-clock instant, so
	// ordering rests entirely on the per-instant sequence numbers.
	frozen := time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC)
	f := newFixtureWithClock(domain.NewClockAt(func() time.Time { return frozen }))
	f.mustAccount(t, "checking", domain.ClassCash)
	groceries := f.mustEnvelope(t, "Groceries")
	f.mustIncome(t, "checking", 100000, day(2025, 6, 1))

	if _, err := f.reconciliations.Commit(f.ctx, CommitInput{
		AccountID:             "checking",
		StatementDate:         day(2025, 6, 30),
		StatementBalanceMinor: 100000,
	}); err != nil {
		t.Fatalf("Failed to commit checkpoint: %v", err)
	}

	f.mustSpend(t, "checking", groceries.ID, -2500, day(2025, 6, 15))

	ws, err := f.reconciliations.Worksheet(f.ctx, CommitInput{
		AccountID:             "checking",
		StatementDate:         day(2025, 7, 31),
		StatementBalanceMinor: 97500,
	})
	if err != nil {
		t.Fatalf("Failed to build worksheet: %v", err)
	}
	if len(ws.Drift) != 1 {
		t.Fatalf("Expected 1 drift transaction, got %d", len(ws.Drift))
	}
	if ws.Drift[0].AmountMinor != -2500 {
		t.Errorf("Expected drift amount -2500, got %d", ws.Drift[0].AmountMinor)
	}
}

func TestReconciliation_UnknownAccount(t *testing.T) {
	f := newFixture()

	_, err := f.reconciliations.Latest(f.ctx, "ghost")
	if !errors.Is(err, domain.ErrAccountNotFound) {
		t.Errorf("Expected ErrAccountNotFound, got %v", err)
	}
}
