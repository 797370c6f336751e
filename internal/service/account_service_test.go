package service

import (
	"errors"
	"testing"
	"time"

	"github.com/dojofin/dojo-backend/internal/domain"
)

func TestCreateAccount_TypeFollowsClass(t *testing.T) {
	f := newFixture()

	checking := f.mustAccount(t, "checking", domain.ClassCash)
	if checking.Type != domain.AccountTypeAsset {
		t.Errorf("Expected asset, got %s", checking.Type)
	}
	if checking.Role != domain.RoleOnBudget {
		t.Errorf("Expected on_budget default for cash, got %s", checking.Role)
	}

	visa := f.mustAccount(t, "visa", domain.ClassCredit)
	if visa.Type != domain.AccountTypeLiability {
		t.Errorf("Expected liability, got %s", visa.Type)
	}

	brokerage := f.mustAccount(t, "brokerage", domain.ClassInvestment)
	if brokerage.Role != domain.RoleTracking {
		t.Errorf("Expected tracking default for investment, got %s", brokerage.Role)
	}
}

func TestCreateAccount_NonZeroOpeningBalanceRejected(t *testing.T) {
	f := newFixture()

	_, err := f.accounts.Create(f.ctx, CreateAccountInput{
		Name:                "Checking",
		Class:               domain.ClassCash,
		OpeningBalanceMinor: 50000,
	})
	if !errors.Is(err, domain.ErrInvalidBalance) {
		t.Errorf("Expected ErrInvalidBalance, got %v", err)
	}
}

func TestCreateAccount_UnknownClassRejected(t *testing.T) {
	f := newFixture()

	_, err := f.accounts.Create(f.ctx, CreateAccountInput{
		Name:  "Mystery",
		Class: "crypto",
	})
	if !errors.Is(err, domain.ErrUnknownClass) {
		t.Errorf("Expected ErrUnknownClass, got %v", err)
	}
}

func TestCreateCreditAccount_CreatesPaymentCategory(t *testing.T) {
	f := newFixture()
	f.mustAccount(t, "visa", domain.ClassCredit)

	uow, err := f.store.Begin(f.ctx)
	if err != nil {
		t.Fatalf("Failed to begin: %v", err)
	}
	defer uow.Rollback()

	cat, err := uow.Categories().GetByID(domain.PaymentCategoryID("visa"))
	if err != nil {
		t.Fatalf("Expected payment category, got %v", err)
	}
	if !cat.IsPayment || !cat.IsEnvelope {
		t.Errorf("Expected payment envelope flags, got %+v", cat)
	}
	if cat.GroupID == nil || *cat.GroupID != domain.GroupCreditCardPayments {
		t.Errorf("Expected credit_card_payments group, got %v", cat.GroupID)
	}
	if cat.AllowTransactions {
		t.Error("Payment categories must not accept transactions directly")
	}
}

func TestUpdateCreditAccount_RenamesPaymentCategory(t *testing.T) {
	f := newFixture()
	f.mustAccount(t, "visa", domain.ClassCredit)

	newName := "Visa Platinum"
	if _, err := f.accounts.Update(f.ctx, "visa", UpdateAccountInput{Name: &newName}); err != nil {
		t.Fatalf("Failed to update account: %v", err)
	}

	uow, err := f.store.Begin(f.ctx)
	if err != nil {
		t.Fatalf("Failed to begin: %v", err)
	}
	defer uow.Rollback()

	cat, err := uow.Categories().GetByID(domain.PaymentCategoryID("visa"))
	if err != nil {
		t.Fatalf("Expected payment category, got %v", err)
	}
	if cat.Name != "Visa Platinum Payment" {
		t.Errorf("Expected renamed payment category, got %q", cat.Name)
	}
	if !cat.IsActive || !cat.IsPayment {
		t.Errorf("Expected active payment category, got %+v", cat)
	}
}

func TestUpdateAccount_BalanceMutationRejected(t *testing.T) {
	f := newFixture()
	f.mustAccount(t, "checking", domain.ClassCash)

	bad := int64(99999)
	_, err := f.accounts.Update(f.ctx, "checking", UpdateAccountInput{BalanceMinor: &bad})
	if !errors.Is(err, domain.ErrCannotMutateBalance) {
		t.Errorf("Expected ErrCannotMutateBalance, got %v", err)
	}
}

func TestDeactivateAccount_RequiresZeroBalance(t *testing.T) {
	f := newFixture()
	f.mustAccount(t, "checking", domain.ClassCash)
	f.mustIncome(t, "checking", 1000, day(2025, 6, 1))

	if err := f.accounts.Deactivate(f.ctx, "checking"); !errors.Is(err, domain.ErrBalanceNotZero) {
		t.Errorf("Expected ErrBalanceNotZero, got %v", err)
	}
}

func TestDeactivateTangible_RequiresZeroFairValue(t *testing.T) {
	f := newFixture()
	fairValue := int64(2500000)
	_, err := f.accounts.Create(f.ctx, CreateAccountInput{
		ID:     "car",
		Name:   "Car",
		Class:  domain.ClassTangible,
		Detail: DetailInput{FairValueMinor: &fairValue},
	})
	if err != nil {
		t.Fatalf("Failed to create account: %v", err)
	}

	if err := f.accounts.Deactivate(f.ctx, "car"); !errors.Is(err, domain.ErrFairValueNotZero) {
		t.Errorf("Expected ErrFairValueNotZero, got %v", err)
	}

	zero := int64(0)
	if _, err := f.accounts.UpdateDetail(f.ctx, "car", DetailInput{FairValueMinor: &zero}); err != nil {
		t.Fatalf("Failed to update detail: %v", err)
	}
	if err := f.accounts.Deactivate(f.ctx, "car"); err != nil {
		t.Errorf("Expected deactivation to succeed, got %v", err)
	}
}

func TestUpdateDetail_KeepsHistory(t *testing.T) {
	f := newFixture()
	apr := int64(1999)
	limit := int64(500000)
	_, err := f.accounts.Create(f.ctx, CreateAccountInput{
		ID:     "visa",
		Name:   "Visa",
		Class:  domain.ClassCredit,
		Detail: DetailInput{APRBps: &apr, CreditLimitMinor: &limit},
	})
	if err != nil {
		t.Fatalf("Failed to create account: %v", err)
	}

	newAPR := int64(2399)
	updated, err := f.accounts.UpdateDetail(f.ctx, "visa", DetailInput{APRBps: &newAPR, CreditLimitMinor: &limit})
	if err != nil {
		t.Fatalf("Failed to update detail: %v", err)
	}
	if updated.APRBps == nil || *updated.APRBps != 2399 {
		t.Errorf("Expected APR 2399, got %v", updated.APRBps)
	}

	history, err := f.accounts.DetailHistory(f.ctx, "visa")
	if err != nil {
		t.Fatalf("Failed to get history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("Expected 2 detail versions, got %d", len(history))
	}
	first, second := history[0], history[1]
	if first.IsActive {
		t.Error("Expected first version to be closed")
	}
	if first.ValidTo == nil || !second.IsActive {
		t.Error("Expected closed first version and active second version")
	}
	if !first.ValidTo.Equal(second.ValidFrom) {
		t.Errorf("Expected contiguous validity, got %v and %v", first.ValidTo, second.ValidFrom)
	}
}

func TestCreateAccount_NameValidation(t *testing.T) {
	f := newFixture()

	_, err := f.accounts.Create(f.ctx, CreateAccountInput{Name: "   ", Class: domain.ClassCash})
	if !errors.Is(err, domain.ErrNameRequired) {
		t.Errorf("Expected ErrNameRequired, got %v", err)
	}

	long := make([]byte, domain.MaxNameLength+1)
	for i := range long {
		long[i] = 'a'
	}
	_, err = f.accounts.Create(f.ctx, CreateAccountInput{Name: string(long), Class: domain.ClassCash})
	if !errors.Is(err, domain.ErrNameTooLong) {
		t.Errorf("Expected ErrNameTooLong, got %v", err)
	}
}

func TestCreateAccount_OpenedOnNormalized(t *testing.T) {
	f := newFixture()
	account, err := f.accounts.Create(f.ctx, CreateAccountInput{
		ID:       "checking",
		Name:     "Checking",
		Class:    domain.ClassCash,
		OpenedOn: time.Date(2025, 3, 15, 18, 30, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("Failed to create account: %v", err)
	}
	if !account.OpenedOn.Equal(day(2025, 3, 15)) {
		t.Errorf("Expected day-aligned opened_on, got %v", account.OpenedOn)
	}
}
