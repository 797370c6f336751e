package service

import (
	"errors"
	"testing"
	"time"

	"github.com/dojofin/dojo-backend/internal/domain"
)

func TestCreateTransaction_UpdatesBalanceAndMonthState(t *testing.T) {
	f := newFixture()
	f.mustAccount(t, "checking", domain.ClassCash)
	groceries := f.mustEnvelope(t, "Groceries")

	result := f.mustSpend(t, "checking", groceries.ID, -4500, day(2025, 6, 5))

	if result.Account.CurrentBalanceMinor != -4500 {
		t.Errorf("Expected balance -4500, got %d", result.Account.CurrentBalanceMinor)
	}
	state := f.monthState(t, groceries.ID, day(2025, 6, 1))
	if state.ActivityMinor != -4500 {
		t.Errorf("Expected activity -4500, got %d", state.ActivityMinor)
	}
	if state.AvailableMinor != -4500 {
		t.Errorf("Expected available -4500, got %d", state.AvailableMinor)
	}
}

func TestCreateTransaction_ZeroAmountRejected(t *testing.T) {
	f := newFixture()
	f.mustAccount(t, "checking", domain.ClassCash)
	groceries := f.mustEnvelope(t, "Groceries")

	_, err := f.ledger.CreateTransaction(f.ctx, CreateTransactionInput{
		AccountID:  "checking",
		CategoryID: groceries.ID,
		Date:       day(2025, 6, 5),
	})
	if !errors.Is(err, domain.ErrZeroAmount) {
		t.Errorf("Expected ErrZeroAmount, got %v", err)
	}
}

func TestCreateTransaction_DirectTransferCategoryRejected(t *testing.T) {
	f := newFixture()
	f.mustAccount(t, "checking", domain.ClassCash)

	_, err := f.ledger.CreateTransaction(f.ctx, CreateTransactionInput{
		AccountID:   "checking",
		CategoryID:  domain.CategoryAccountTransfer,
		Date:        day(2025, 6, 5),
		AmountMinor: -1000,
	})
	if !errors.Is(err, domain.ErrTransferLegDirect) {
		t.Errorf("Expected ErrTransferLegDirect, got %v", err)
	}
}

func TestCreateTransaction_BalanceAdjustmentOnCashRejected(t *testing.T) {
	f := newFixture()
	f.mustAccount(t, "checking", domain.ClassCash)

	_, err := f.ledger.CreateTransaction(f.ctx, CreateTransactionInput{
		AccountID:   "checking",
		CategoryID:  domain.CategoryBalanceAdjustment,
		Date:        day(2025, 6, 5),
		AmountMinor: 1000,
	})
	if !errors.Is(err, domain.ErrAdjustmentOnCash) {
		t.Errorf("Expected ErrAdjustmentOnCash, got %v", err)
	}
}

func TestEditTransaction_NewVersionSameConcept(t *testing.T) {
	f := newFixture()
	f.mustAccount(t, "checking", domain.ClassCash)
	groceries := f.mustEnvelope(t, "Groceries")

	created := f.mustSpend(t, "checking", groceries.ID, -4500, day(2025, 6, 5))
	conceptID := created.Transaction.ConceptID

	edited, err := f.ledger.EditTransaction(f.ctx, conceptID, CreateTransactionInput{
		AccountID:   "checking",
		CategoryID:  groceries.ID,
		Date:        day(2025, 6, 6),
		AmountMinor: -6000,
	})
	if err != nil {
		t.Fatalf("Failed to edit transaction: %v", err)
	}

	if edited.Transaction.ConceptID != conceptID {
		t.Errorf("Expected concept %s, got %s", conceptID, edited.Transaction.ConceptID)
	}
	if edited.Transaction.VersionID == created.Transaction.VersionID {
		t.Error("Expected a new version id")
	}
	if edited.Account.CurrentBalanceMinor != -6000 {
		t.Errorf("Expected balance -6000 after edit, got %d", edited.Account.CurrentBalanceMinor)
	}

	state := f.monthState(t, groceries.ID, day(2025, 6, 1))
	if state.ActivityMinor != -6000 {
		t.Errorf("Expected activity -6000 after edit, got %d", state.ActivityMinor)
	}

	// Retiring the old version again must fail: it is no longer active.
	uow, _ := f.store.Begin(f.ctx)
	defer uow.Rollback()
	err = uow.Transactions().Retire(created.Transaction.VersionID, time.Now().UTC())
	if !errors.Is(err, domain.ErrVersionConflict) {
		t.Errorf("Expected ErrVersionConflict, got %v", err)
	}
}

func TestEditTransaction_StatusOnlyTransition(t *testing.T) {
	f := newFixture()
	f.mustAccount(t, "checking", domain.ClassCash)
	groceries := f.mustEnvelope(t, "Groceries")

	created, err := f.ledger.CreateTransaction(f.ctx, CreateTransactionInput{
		AccountID:   "checking",
		CategoryID:  groceries.ID,
		Date:        day(2025, 6, 5),
		AmountMinor: -4500,
		Status:      domain.StatusPending,
	})
	if err != nil {
		t.Fatalf("Failed to create: %v", err)
	}

	edited, err := f.ledger.EditTransaction(f.ctx, created.Transaction.ConceptID, CreateTransactionInput{
		AccountID:   "checking",
		CategoryID:  groceries.ID,
		Date:        day(2025, 6, 5),
		AmountMinor: -4500,
		Status:      domain.StatusCleared,
	})
	if err != nil {
		t.Fatalf("Failed to edit: %v", err)
	}
	if edited.Transaction.Status != domain.StatusCleared {
		t.Errorf("Expected cleared, got %s", edited.Transaction.Status)
	}
	// Balance is unchanged: pending and cleared both count.
	if edited.Account.CurrentBalanceMinor != -4500 {
		t.Errorf("Expected balance -4500, got %d", edited.Account.CurrentBalanceMinor)
	}
}

func TestDeleteTransaction_ReversesEffects(t *testing.T) {
	f := newFixture()
	f.mustAccount(t, "checking", domain.ClassCash)
	groceries := f.mustEnvelope(t, "Groceries")

	created := f.mustSpend(t, "checking", groceries.ID, -4500, day(2025, 6, 5))
	if err := f.ledger.DeleteTransaction(f.ctx, created.Transaction.ConceptID); err != nil {
		t.Fatalf("Failed to delete: %v", err)
	}

	if balance := f.accountBalance(t, "checking"); balance != 0 {
		t.Errorf("Expected balance 0 after delete, got %d", balance)
	}
	// The reversal zeroes every movement, so the month row disappears
	// instead of lingering as an all-zero row a rebuild would not write.
	uow, _ := f.store.Begin(f.ctx)
	_, err := uow.MonthStates().Get(groceries.ID, day(2025, 6, 1))
	uow.Rollback()
	if !errors.Is(err, domain.ErrMonthStateNotFound) {
		t.Errorf("Expected month row removed after delete, got %v", err)
	}

	if err := f.ledger.DeleteTransaction(f.ctx, created.Transaction.ConceptID); !errors.Is(err, domain.ErrTransactionNotFound) {
		t.Errorf("Expected ErrTransactionNotFound on second delete, got %v", err)
	}
}

func TestCreateTransfer_NetsToZero(t *testing.T) {
	f := newFixture()
	f.mustAccount(t, "checking", domain.ClassCash)
	f.mustAccount(t, "savings", domain.ClassCash)
	f.mustIncome(t, "checking", 100000, day(2025, 6, 1))

	result, err := f.ledger.CreateTransfer(f.ctx, TransferInput{
		SourceAccountID:      "checking",
		DestinationAccountID: "savings",
		AmountMinor:          25000,
		Date:                 day(2025, 6, 10),
	})
	if err != nil {
		t.Fatalf("Failed to create transfer: %v", err)
	}

	if result.Source.Transaction.AmountMinor != -25000 {
		t.Errorf("Expected source leg -25000, got %d", result.Source.Transaction.AmountMinor)
	}
	if result.Destination.Transaction.AmountMinor != 25000 {
		t.Errorf("Expected destination leg 25000, got %d", result.Destination.Transaction.AmountMinor)
	}
	if result.Source.Transaction.TransferGroupID == nil ||
		result.Destination.Transaction.TransferGroupID == nil ||
		*result.Source.Transaction.TransferGroupID != *result.Destination.Transaction.TransferGroupID {
		t.Error("Expected both legs to share a transfer group")
	}

	if got := f.accountBalance(t, "checking"); got != 75000 {
		t.Errorf("Expected checking 75000, got %d", got)
	}
	if got := f.accountBalance(t, "savings"); got != 25000 {
		t.Errorf("Expected savings 25000, got %d", got)
	}
}

func TestDeleteTransfer_RetiresBothLegs(t *testing.T) {
	f := newFixture()
	f.mustAccount(t, "checking", domain.ClassCash)
	f.mustAccount(t, "savings", domain.ClassCash)

	result, err := f.ledger.CreateTransfer(f.ctx, TransferInput{
		SourceAccountID:      "checking",
		DestinationAccountID: "savings",
		AmountMinor:          10000,
		Date:                 day(2025, 6, 10),
	})
	if err != nil {
		t.Fatalf("Failed to create transfer: %v", err)
	}

	groupID := *result.Source.Transaction.TransferGroupID
	if err := f.ledger.DeleteTransfer(f.ctx, groupID); err != nil {
		t.Fatalf("Failed to delete transfer: %v", err)
	}

	if got := f.accountBalance(t, "checking"); got != 0 {
		t.Errorf("Expected checking 0, got %d", got)
	}
	if got := f.accountBalance(t, "savings"); got != 0 {
		t.Errorf("Expected savings 0, got %d", got)
	}
	if err := f.ledger.DeleteTransfer(f.ctx, groupID); !errors.Is(err, domain.ErrTransactionNotFound) {
		t.Errorf("Expected ErrTransactionNotFound, got %v", err)
	}
}

func TestEditTransferLeg_AmountEditRejected(t *testing.T) {
	f := newFixture()
	f.mustAccount(t, "checking", domain.ClassCash)
	f.mustAccount(t, "savings", domain.ClassCash)

	result, err := f.ledger.CreateTransfer(f.ctx, TransferInput{
		SourceAccountID:      "checking",
		DestinationAccountID: "savings",
		AmountMinor:          10000,
		Date:                 day(2025, 6, 10),
	})
	if err != nil {
		t.Fatalf("Failed to create transfer: %v", err)
	}

	leg := result.Source.Transaction
	_, err = f.ledger.EditTransaction(f.ctx, leg.ConceptID, CreateTransactionInput{
		AccountID:   leg.AccountID,
		CategoryID:  leg.CategoryID,
		Date:        leg.Date,
		AmountMinor: -25000,
	})
	if !errors.Is(err, domain.ErrTransferLegEdit) {
		t.Errorf("Expected ErrTransferLegEdit for amount change, got %v", err)
	}

	_, err = f.ledger.EditTransaction(f.ctx, leg.ConceptID, CreateTransactionInput{
		AccountID:   "savings",
		CategoryID:  leg.CategoryID,
		Date:        leg.Date,
		AmountMinor: leg.AmountMinor,
	})
	if !errors.Is(err, domain.ErrTransferLegEdit) {
		t.Errorf("Expected ErrTransferLegEdit for account change, got %v", err)
	}

	// Legs still sum to zero across both accounts.
	if got := f.accountBalance(t, "checking") + f.accountBalance(t, "savings"); got != 0 {
		t.Errorf("Expected legs to net to zero, got %d", got)
	}
}

func TestEditTransferLeg_StatusEditAllowed(t *testing.T) {
	f := newFixture()
	f.mustAccount(t, "checking", domain.ClassCash)
	f.mustAccount(t, "savings", domain.ClassCash)

	result, err := f.ledger.CreateTransfer(f.ctx, TransferInput{
		SourceAccountID:      "checking",
		DestinationAccountID: "savings",
		AmountMinor:          10000,
		Date:                 day(2025, 6, 10),
	})
	if err != nil {
		t.Fatalf("Failed to create transfer: %v", err)
	}

	leg := result.Source.Transaction
	edited, err := f.ledger.EditTransaction(f.ctx, leg.ConceptID, CreateTransactionInput{
		AccountID:   leg.AccountID,
		CategoryID:  leg.CategoryID,
		Date:        leg.Date,
		AmountMinor: leg.AmountMinor,
		Status:      domain.StatusPending,
	})
	if err != nil {
		t.Fatalf("Failed to edit leg status: %v", err)
	}
	if edited.Transaction.Status != domain.StatusPending {
		t.Errorf("Expected pending, got %s", edited.Transaction.Status)
	}
	if edited.Transaction.TransferGroupID == nil || *edited.Transaction.TransferGroupID != *leg.TransferGroupID {
		t.Error("Expected the new version to keep its transfer group")
	}
}

func TestCreateTransfer_SameAccountRejected(t *testing.T) {
	f := newFixture()
	f.mustAccount(t, "checking", domain.ClassCash)

	_, err := f.ledger.CreateTransfer(f.ctx, TransferInput{
		SourceAccountID:      "checking",
		DestinationAccountID: "checking",
		AmountMinor:          1000,
		Date:                 day(2025, 6, 10),
	})
	if !errors.Is(err, domain.ErrSameAccount) {
		t.Errorf("Expected ErrSameAccount, got %v", err)
	}
}

func TestCreateTransaction_InactiveAccountRejected(t *testing.T) {
	f := newFixture()
	f.mustAccount(t, "old", domain.ClassCash)
	groceries := f.mustEnvelope(t, "Groceries")
	if err := f.accounts.Deactivate(f.ctx, "old"); err != nil {
		t.Fatalf("Failed to deactivate: %v", err)
	}

	_, err := f.ledger.CreateTransaction(f.ctx, CreateTransactionInput{
		AccountID:   "old",
		CategoryID:  groceries.ID,
		Date:        day(2025, 6, 5),
		AmountMinor: -100,
	})
	if !errors.Is(err, domain.ErrAccountInactive) {
		t.Errorf("Expected ErrAccountInactive, got %v", err)
	}
}

func TestBackdatedTransaction_PropagatesAvailableForward(t *testing.T) {
	f := newFixture()
	f.mustAccount(t, "checking", domain.ClassCash)
	groceries := f.mustEnvelope(t, "Groceries")

	// Touch June and July, then backdate a May expense.
	f.mustSpend(t, "checking", groceries.ID, -1000, day(2025, 6, 5))
	f.mustSpend(t, "checking", groceries.ID, -2000, day(2025, 7, 5))
	f.mustSpend(t, "checking", groceries.ID, -500, day(2025, 5, 20))

	may := f.monthState(t, groceries.ID, day(2025, 5, 1))
	june := f.monthState(t, groceries.ID, day(2025, 6, 1))
	july := f.monthState(t, groceries.ID, day(2025, 7, 1))

	if may.AvailableMinor != -500 {
		t.Errorf("Expected May available -500, got %d", may.AvailableMinor)
	}
	if june.AvailableMinor != -1500 {
		t.Errorf("Expected June available -1500, got %d", june.AvailableMinor)
	}
	if july.AvailableMinor != -3500 {
		t.Errorf("Expected July available -3500, got %d", july.AvailableMinor)
	}

	// Rollover invariant holds for every materialized month.
	if june.AvailableMinor != may.AvailableMinor+june.AllocatedMinor+june.InflowMinor+june.ActivityMinor {
		t.Error("June rollover identity violated")
	}
	if july.AvailableMinor != june.AvailableMinor+july.AllocatedMinor+july.InflowMinor+july.ActivityMinor {
		t.Error("July rollover identity violated")
	}
}
