package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/dojofin/dojo-backend/internal/domain"
)

// CategoryService manages category groups and categories. System
// categories and the per-account payment categories are fixed
// infrastructure and refuse mutation here.
type CategoryService struct {
	store domain.Store
	clock *domain.Clock
}

// NewCategoryService creates a new CategoryService.
func NewCategoryService(store domain.Store, clock *domain.Clock) *CategoryService {
	return &CategoryService{store: store, clock: clock}
}

// GroupInput holds the input for creating or updating a category group.
type GroupInput struct {
	Name      string
	SortOrder int
}

// CategoryInput holds the input for creating or updating a category.
type CategoryInput struct {
	GroupID         *string
	Name            string
	GoalType        *domain.GoalType
	GoalAmountMinor *int64
	GoalTargetDate  *time.Time
	GoalFrequency   *string
}

// CategoryWithState pairs a category with its monthly envelope state for
// one month. The state is evaluated on read; months the category never
// touched are not materialized.
type CategoryWithState struct {
	Category *domain.Category           `json:"category"`
	State    *domain.CategoryMonthState `json:"state"`
}

// CreateGroup creates a category group.
func (s *CategoryService) CreateGroup(ctx context.Context, input GroupInput) (*domain.CategoryGroup, error) {
	name, err := normalizeName(input.Name)
	if err != nil {
		return nil, err
	}

	uow, err := s.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer uow.Rollback()

	group := &domain.CategoryGroup{
		ID:        uuid.NewString(),
		Name:      name,
		SortOrder: input.SortOrder,
		IsActive:  true,
	}
	if err := uow.CategoryGroups().Insert(group); err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}
	return group, nil
}

// ListGroups returns all category groups ordered by sort order.
func (s *CategoryService) ListGroups(ctx context.Context) ([]*domain.CategoryGroup, error) {
	uow, err := s.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer uow.Rollback()

	groups, err := uow.CategoryGroups().List()
	if err != nil {
		return nil, err
	}
	return groups, uow.Commit()
}

// UpdateGroup renames or reorders a group. The reserved credit-card
// payments group cannot be changed.
func (s *CategoryService) UpdateGroup(ctx context.Context, id string, input GroupInput) (*domain.CategoryGroup, error) {
	if id == domain.GroupCreditCardPayments {
		return nil, domain.ErrSystemCategoryProtected
	}
	name, err := normalizeName(input.Name)
	if err != nil {
		return nil, err
	}

	uow, err := s.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer uow.Rollback()

	group, err := uow.CategoryGroups().GetByID(id)
	if err != nil {
		return nil, err
	}
	group.Name = name
	group.SortOrder = input.SortOrder
	if err := uow.CategoryGroups().Update(group); err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}
	return group, nil
}

// Create creates a user envelope category.
func (s *CategoryService) Create(ctx context.Context, input CategoryInput) (*domain.Category, error) {
	name, err := normalizeName(input.Name)
	if err != nil {
		return nil, err
	}

	uow, err := s.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if input.GroupID != nil {
		if _, err := uow.CategoryGroups().GetByID(*input.GroupID); err != nil {
			return nil, err
		}
	}

	cat := &domain.Category{
		ID:                uuid.NewString(),
		GroupID:           input.GroupID,
		Name:              name,
		AllowTransactions: true,
		AllowAllocations:  true,
		IsEnvelope:        true,
		GoalType:          input.GoalType,
		GoalAmountMinor:   input.GoalAmountMinor,
		GoalTargetDate:    input.GoalTargetDate,
		GoalFrequency:     input.GoalFrequency,
		IsActive:          true,
	}
	if err := uow.Categories().Insert(cat); err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}
	return cat, nil
}

// List returns categories, optionally including soft-deleted ones.
func (s *CategoryService) List(ctx context.Context, includeInactive bool) ([]*domain.Category, error) {
	uow, err := s.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer uow.Rollback()

	cats, err := uow.Categories().List(includeInactive)
	if err != nil {
		return nil, err
	}
	return cats, uow.Commit()
}

// Update changes a category's name, group or goal. System categories are
// fixed; payment categories follow their account and only accept goal
// changes.
func (s *CategoryService) Update(ctx context.Context, id string, input CategoryInput) (*domain.Category, error) {
	uow, err := s.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer uow.Rollback()

	cat, err := uow.Categories().GetByID(id)
	if err != nil {
		return nil, err
	}
	if cat.IsSystem {
		return nil, domain.ErrSystemCategoryProtected
	}

	if !cat.IsPayment {
		name, err := normalizeName(input.Name)
		if err != nil {
			return nil, err
		}
		cat.Name = name
		if input.GroupID != nil {
			if _, err := uow.CategoryGroups().GetByID(*input.GroupID); err != nil {
				return nil, err
			}
			cat.GroupID = input.GroupID
		}
	}
	cat.GoalType = input.GoalType
	cat.GoalAmountMinor = input.GoalAmountMinor
	cat.GoalTargetDate = input.GoalTargetDate
	cat.GoalFrequency = input.GoalFrequency

	if err := uow.Categories().Update(cat); err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}
	return cat, nil
}

// Delete soft-deletes a category. History and past monthly state stay
// queryable. System and payment categories cannot be deleted.
func (s *CategoryService) Delete(ctx context.Context, id string) error {
	uow, err := s.store.Begin(ctx)
	if err != nil {
		return err
	}
	defer uow.Rollback()

	cat, err := uow.Categories().GetByID(id)
	if err != nil {
		return err
	}
	if cat.IsSystem || cat.IsPayment {
		return domain.ErrSystemCategoryProtected
	}
	if err := uow.Categories().SoftDelete(id); err != nil {
		return err
	}
	return uow.Commit()
}

// ListWithMonthlyState returns active categories paired with their
// envelope state for the month. Categories with no row for the month get
// the rollover from the nearest earlier month and zero movement, without
// writing anything.
func (s *CategoryService) ListWithMonthlyState(ctx context.Context, monthStart time.Time) ([]*CategoryWithState, error) {
	monthStart = domain.MonthStart(monthStart)

	uow, err := s.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer uow.Rollback()

	cats, err := uow.Categories().List(false)
	if err != nil {
		return nil, err
	}

	out := make([]*CategoryWithState, 0, len(cats))
	for _, cat := range cats {
		state, err := uow.MonthStates().Get(cat.ID, monthStart)
		switch {
		case err == nil:
		case errors.Is(err, domain.ErrMonthStateNotFound):
			state = &domain.CategoryMonthState{CategoryID: cat.ID, MonthStart: monthStart}
			if envelopeTracked(cat) {
				prev, err := uow.MonthStates().LatestOnOrBefore(cat.ID, domain.PreviousMonthStart(monthStart))
				switch {
				case err == nil:
					state.AvailableMinor = prev.AvailableMinor
				case errors.Is(err, domain.ErrMonthStateNotFound):
				default:
					return nil, err
				}
			}
		default:
			return nil, err
		}
		out = append(out, &CategoryWithState{Category: cat, State: state})
	}
	return out, uow.Commit()
}
