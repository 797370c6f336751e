package service

import (
	"errors"
	"testing"

	"github.com/dojofin/dojo-backend/internal/domain"
)

func TestSystemCategories_Protected(t *testing.T) {
	f := newFixture()

	if _, err := f.categories.Update(f.ctx, domain.CategoryOpeningBalance, CategoryInput{Name: "Renamed"}); !errors.Is(err, domain.ErrSystemCategoryProtected) {
		t.Errorf("Expected ErrSystemCategoryProtected on update, got %v", err)
	}
	if err := f.categories.Delete(f.ctx, domain.CategoryAvailableToBudget); !errors.Is(err, domain.ErrSystemCategoryProtected) {
		t.Errorf("Expected ErrSystemCategoryProtected on delete, got %v", err)
	}
	if _, err := f.categories.UpdateGroup(f.ctx, domain.GroupCreditCardPayments, GroupInput{Name: "Cards"}); !errors.Is(err, domain.ErrSystemCategoryProtected) {
		t.Errorf("Expected ErrSystemCategoryProtected on group update, got %v", err)
	}
}

func TestPaymentCategory_NotDeletable(t *testing.T) {
	f := newFixture()
	f.mustAccount(t, "visa", domain.ClassCredit)

	err := f.categories.Delete(f.ctx, domain.PaymentCategoryID("visa"))
	if !errors.Is(err, domain.ErrSystemCategoryProtected) {
		t.Errorf("Expected ErrSystemCategoryProtected, got %v", err)
	}
}

func TestDeleteCategory_SoftDelete(t *testing.T) {
	f := newFixture()
	groceries := f.mustEnvelope(t, "Groceries")

	if err := f.categories.Delete(f.ctx, groceries.ID); err != nil {
		t.Fatalf("Failed to delete: %v", err)
	}

	active, err := f.categories.List(f.ctx, false)
	if err != nil {
		t.Fatalf("Failed to list: %v", err)
	}
	for _, c := range active {
		if c.ID == groceries.ID {
			t.Error("Expected deleted category to be hidden from default listing")
		}
	}

	all, err := f.categories.List(f.ctx, true)
	if err != nil {
		t.Fatalf("Failed to list all: %v", err)
	}
	found := false
	for _, c := range all {
		if c.ID == groceries.ID && !c.IsActive {
			found = true
		}
	}
	if !found {
		t.Error("Expected deleted category to remain queryable with includeInactive")
	}
}

func TestCreateGroup_AndAssignCategory(t *testing.T) {
	f := newFixture()
	group, err := f.categories.CreateGroup(f.ctx, GroupInput{Name: "Essentials", SortOrder: 1})
	if err != nil {
		t.Fatalf("Failed to create group: %v", err)
	}

	cat, err := f.categories.Create(f.ctx, CategoryInput{Name: "Rent", GroupID: &group.ID})
	if err != nil {
		t.Fatalf("Failed to create category: %v", err)
	}
	if cat.GroupID == nil || *cat.GroupID != group.ID {
		t.Errorf("Expected group %s, got %v", group.ID, cat.GroupID)
	}

	ghost := "nope"
	if _, err := f.categories.Create(f.ctx, CategoryInput{Name: "Bad", GroupID: &ghost}); !errors.Is(err, domain.ErrCategoryGroupNotFound) {
		t.Errorf("Expected ErrCategoryGroupNotFound, got %v", err)
	}
}

func TestListWithMonthlyState_CarriesRolloverWithoutWriting(t *testing.T) {
	f := newFixture()
	f.mustAccount(t, "checking", domain.ClassCash)
	groceries := f.mustEnvelope(t, "Groceries")
	f.mustIncome(t, "checking", 100000, day(2025, 6, 1))
	f.mustAllocate(t, domain.CategoryAvailableToBudget, groceries.ID, 30000, day(2025, 6, 2))

	// September was never touched: the view carries June's available
	// forward with zero movement.
	rows, err := f.categories.ListWithMonthlyState(f.ctx, day(2025, 9, 1))
	if err != nil {
		t.Fatalf("Failed to list: %v", err)
	}

	var got *domain.CategoryMonthState
	for _, row := range rows {
		if row.Category.ID == groceries.ID {
			got = row.State
		}
	}
	if got == nil {
		t.Fatal("Expected groceries in the month view")
	}
	if got.AvailableMinor != 30000 {
		t.Errorf("Expected rollover 30000, got %d", got.AvailableMinor)
	}
	if got.AllocatedMinor != 0 || got.ActivityMinor != 0 {
		t.Errorf("Expected zero movement in untouched month, got %+v", got)
	}

	// Reading must not materialize the row.
	uow, err := f.store.Begin(f.ctx)
	if err != nil {
		t.Fatalf("Failed to begin: %v", err)
	}
	defer uow.Rollback()
	if _, err := uow.MonthStates().Get(groceries.ID, day(2025, 9, 1)); !errors.Is(err, domain.ErrMonthStateNotFound) {
		t.Errorf("Expected no materialized row, got %v", err)
	}
}
