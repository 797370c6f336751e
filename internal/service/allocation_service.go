package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dojofin/dojo-backend/internal/domain"
)

// AllocationService handles envelope moves: SCD-2 budget allocations and
// the Ready-to-Assign read model.
type AllocationService struct {
	store domain.Store
	clock *domain.Clock
}

// NewAllocationService creates a new AllocationService.
func NewAllocationService(store domain.Store, clock *domain.Clock) *AllocationService {
	return &AllocationService{store: store, clock: clock}
}

// AllocateInput holds the input for an envelope move. FromCategoryID is
// required; moves out of Ready-to-Assign use available_to_budget.
type AllocateInput struct {
	Date           time.Time
	FromCategoryID string
	ToCategoryID   string
	AmountMinor    int64
	Memo           *string
}

// Allocate creates a new allocation concept and updates the monthly state
// of both endpoints inside one unit of work.
func (s *AllocationService) Allocate(ctx context.Context, input AllocateInput) (*domain.Allocation, error) {
	uow, err := s.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer uow.Rollback()

	alloc, err := s.allocateInUnit(uow, uuid.New(), input)
	if err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}
	return alloc, nil
}

// Edit retires the active version and writes a replacement for the same
// concept.
func (s *AllocationService) Edit(ctx context.Context, conceptID uuid.UUID, input AllocateInput) (*domain.Allocation, error) {
	uow, err := s.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer uow.Rollback()

	prev, err := uow.Allocations().ActiveByConcept(conceptID)
	if err != nil {
		return nil, err
	}
	if err := s.retireWithReversal(uow, prev); err != nil {
		return nil, err
	}
	alloc, err := s.allocateInUnit(uow, conceptID, input)
	if err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}
	return alloc, nil
}

// Delete retires the active version with no replacement.
func (s *AllocationService) Delete(ctx context.Context, conceptID uuid.UUID) error {
	uow, err := s.store.Begin(ctx)
	if err != nil {
		return err
	}
	defer uow.Rollback()

	prev, err := uow.Allocations().ActiveByConcept(conceptID)
	if err != nil {
		return err
	}
	if err := s.retireWithReversal(uow, prev); err != nil {
		return err
	}
	return uow.Commit()
}

// ListByMonth returns active allocations for a month.
func (s *AllocationService) ListByMonth(ctx context.Context, monthStart time.Time) ([]*domain.Allocation, error) {
	uow, err := s.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer uow.Rollback()

	allocs, err := uow.Allocations().ListByMonth(domain.MonthStart(monthStart))
	if err != nil {
		return nil, err
	}
	return allocs, uow.Commit()
}

// ReadyToAssign computes RTA for a month from authoritative sources: the
// balances of active on-budget cash accounts minus the money already
// committed to envelopes, rollover included.
func (s *AllocationService) ReadyToAssign(ctx context.Context, monthStart time.Time) (int64, error) {
	uow, err := s.store.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer uow.Rollback()

	rta, err := readyToAssignInUnit(uow, domain.MonthStart(monthStart))
	if err != nil {
		return 0, err
	}
	return rta, uow.Commit()
}

func readyToAssignInUnit(uow domain.UnitOfWork, monthStart time.Time) (int64, error) {
	accounts, err := uow.Accounts().List(false)
	if err != nil {
		return 0, err
	}
	var cash int64
	for _, a := range accounts {
		if a.Role == domain.RoleOnBudget && a.Class == domain.ClassCash {
			cash += a.CurrentBalanceMinor
		}
	}

	committed, err := uow.MonthStates().EnvelopeAvailableTotal(monthStart)
	if err != nil {
		return 0, err
	}
	return cash - committed, nil
}

func (s *AllocationService) allocateInUnit(uow domain.UnitOfWork, conceptID uuid.UUID, input AllocateInput) (*domain.Allocation, error) {
	if err := normalizeAllocateInput(&input); err != nil {
		return nil, err
	}

	from, err := allocationCategory(uow, input.FromCategoryID)
	if err != nil {
		return nil, err
	}
	to, err := allocationCategory(uow, input.ToCategoryID)
	if err != nil {
		return nil, err
	}

	monthStart := domain.MonthStart(input.Date)
	stamp := s.clock.Next()
	alloc := &domain.Allocation{
		VersionID:      uuid.New(),
		ConceptID:      conceptID,
		Date:           domain.DayStart(input.Date),
		MonthStart:     monthStart,
		FromCategoryID: from.ID,
		ToCategoryID:   to.ID,
		AmountMinor:    input.AmountMinor,
		Memo:           input.Memo,
		RecordedAt:     stamp.RecordedAt,
		RecordedSeq:    stamp.RecordedSeq,
		ValidFrom:      stamp.RecordedAt,
		IsActive:       true,
	}
	if err := uow.Allocations().InsertVersion(alloc); err != nil {
		return nil, err
	}
	if err := applyAllocationEffects(uow, from, to, monthStart, alloc.AmountMinor); err != nil {
		return nil, err
	}
	return alloc, nil
}

func (s *AllocationService) retireWithReversal(uow domain.UnitOfWork, alloc *domain.Allocation) error {
	from, err := uow.Categories().GetByID(alloc.FromCategoryID)
	if err != nil {
		return err
	}
	to, err := uow.Categories().GetByID(alloc.ToCategoryID)
	if err != nil {
		return err
	}
	if err := applyAllocationEffects(uow, from, to, alloc.MonthStart, -alloc.AmountMinor); err != nil {
		return err
	}
	stamp := s.clock.Next()
	return uow.Allocations().Retire(alloc.VersionID, stamp.RecordedAt)
}

// applyAllocationEffects moves amount between the endpoints' monthly
// states. The available_to_budget row tracks the month's net RTA movement
// the same way; RTA itself is computed on read.
func applyAllocationEffects(uow domain.UnitOfWork, from, to *domain.Category, monthStart time.Time, amountMinor int64) error {
	if _, err := applyMonthDelta(uow, to, monthStart, amountMinor, 0, 0); err != nil {
		return err
	}
	_, err := applyMonthDelta(uow, from, monthStart, -amountMinor, 0, 0)
	return err
}

func normalizeAllocateInput(input *AllocateInput) error {
	if input.AmountMinor <= 0 {
		return domain.ErrNonPositiveAmount
	}
	if input.FromCategoryID == input.ToCategoryID {
		return domain.ErrSameCategory
	}
	if input.Memo != nil {
		trimmed := strings.TrimSpace(*input.Memo)
		if trimmed == "" {
			input.Memo = nil
		} else {
			if len(trimmed) > domain.MaxMemoLength {
				return domain.ErrNameTooLong
			}
			input.Memo = &trimmed
		}
	}
	return nil
}

func allocationCategory(uow domain.UnitOfWork, id string) (*domain.Category, error) {
	cat, err := uow.Categories().GetByID(id)
	if err != nil {
		if errors.Is(err, domain.ErrCategoryNotFound) {
			return nil, domain.ErrCategoryNotFound
		}
		return nil, err
	}
	if !cat.IsActive {
		return nil, domain.ErrCategoryNotFound
	}
	if !cat.AllowAllocations {
		return nil, domain.ErrCategoryDisallowsAllocations
	}
	return cat, nil
}
