package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/dojofin/dojo-backend/internal/domain"
)

// AccountService manages the account registry: the accounts table, the
// SCD-2 class detail records, and the reserved payment category that
// every credit account carries.
type AccountService struct {
	store domain.Store
	clock *domain.Clock
}

// NewAccountService creates a new AccountService.
func NewAccountService(store domain.Store, clock *domain.Clock) *AccountService {
	return &AccountService{store: store, clock: clock}
}

// CreateAccountInput holds the input for account creation. Accounts are
// born with a zero balance; an opening position is posted afterwards as
// an opening_balance transaction so it lives in the ledger like any
// other flow.
type CreateAccountInput struct {
	ID                  string
	Name                string
	Class               domain.AccountClass
	Role                domain.AccountRole
	Currency            string
	OpenedOn            time.Time
	OpeningBalanceMinor int64
	Detail              DetailInput
}

// DetailInput carries the class-discriminated detail fields. Only the
// fields for the account's class are read.
type DetailInput struct {
	APRBps              *int64
	CreditLimitMinor    *int64
	TermMonths          *int32
	UninvestedCashMinor *int64
	FairValueMinor      *int64
	NoticeDays          *int32
}

// UpdateAccountInput updates account metadata. The balance is a derived
// cache and cannot be set here.
type UpdateAccountInput struct {
	Name         *string
	Role         *domain.AccountRole
	BalanceMinor *int64
}

// Create registers an account with its initial detail version and, for
// credit accounts, the reserved payment category.
func (s *AccountService) Create(ctx context.Context, input CreateAccountInput) (*domain.Account, error) {
	if err := normalizeAccountInput(&input); err != nil {
		return nil, err
	}
	accountType, err := domain.TypeForClass(input.Class)
	if err != nil {
		return nil, err
	}

	uow, err := s.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer uow.Rollback()

	stamp := s.clock.Next()
	account := &domain.Account{
		ID:        input.ID,
		Name:      input.Name,
		Type:      accountType,
		Class:     input.Class,
		Role:      input.Role,
		Currency:  input.Currency,
		IsActive:  true,
		OpenedOn:  domain.DayStart(input.OpenedOn),
		CreatedAt: stamp.RecordedAt,
		UpdatedAt: stamp.RecordedAt,
	}
	if err := uow.Accounts().Insert(account); err != nil {
		return nil, err
	}

	detail := detailForClass(input.Class, input.Detail)
	detail.AccountID = account.ID
	detail.ValidFrom = stamp.RecordedAt
	if err := uow.Accounts().InsertDetail(detail); err != nil {
		return nil, err
	}

	if input.Class == domain.ClassCredit {
		if err := ensurePaymentCategory(uow, account.ID, account.Name); err != nil {
			return nil, err
		}
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}
	log.Info().
		Str("account_id", account.ID).
		Str("class", string(account.Class)).
		Msg("Account created")
	return account, nil
}

// Get returns one account.
func (s *AccountService) Get(ctx context.Context, id string) (*domain.Account, error) {
	uow, err := s.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer uow.Rollback()

	account, err := uow.Accounts().GetByID(id)
	if err != nil {
		return nil, err
	}
	return account, uow.Commit()
}

// List returns accounts, optionally including deactivated ones.
func (s *AccountService) List(ctx context.Context, includeInactive bool) ([]*domain.Account, error) {
	uow, err := s.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer uow.Rollback()

	accounts, err := uow.Accounts().List(includeInactive)
	if err != nil {
		return nil, err
	}
	return accounts, uow.Commit()
}

// Update changes account metadata. Any attempt to write the balance is
// rejected: balances move only through transactions and the rebuild.
func (s *AccountService) Update(ctx context.Context, id string, input UpdateAccountInput) (*domain.Account, error) {
	if input.BalanceMinor != nil {
		return nil, domain.ErrCannotMutateBalance
	}

	uow, err := s.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer uow.Rollback()

	account, err := uow.Accounts().GetByID(id)
	if err != nil {
		return nil, err
	}
	if input.Name != nil {
		name, err := normalizeName(*input.Name)
		if err != nil {
			return nil, err
		}
		account.Name = name
	}
	if input.Role != nil {
		account.Role = *input.Role
	}
	account.UpdatedAt = s.clock.Next().RecordedAt

	if err := uow.Accounts().Update(account); err != nil {
		return nil, err
	}
	// Keep the reserved payment category in step with the account name.
	if account.Class == domain.ClassCredit {
		if err := ensurePaymentCategory(uow, account.ID, account.Name); err != nil {
			return nil, err
		}
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}
	return account, nil
}

// Deactivate hides an account from default listings. History stays
// intact. The balance must already be zero, and a tangible account must
// have written its fair value down to zero first.
func (s *AccountService) Deactivate(ctx context.Context, id string) error {
	uow, err := s.store.Begin(ctx)
	if err != nil {
		return err
	}
	defer uow.Rollback()

	account, err := uow.Accounts().GetByID(id)
	if err != nil {
		return err
	}
	if account.CurrentBalanceMinor != 0 {
		return domain.ErrBalanceNotZero
	}
	if account.Class == domain.ClassTangible {
		detail, err := uow.Accounts().ActiveDetail(id)
		switch {
		case err == nil:
			if detail.FairValueMinor != nil && *detail.FairValueMinor != 0 {
				return domain.ErrFairValueNotZero
			}
		case errors.Is(err, domain.ErrDetailNotFound):
		default:
			return err
		}
	}

	account.IsActive = false
	account.UpdatedAt = s.clock.Next().RecordedAt
	if err := uow.Accounts().Update(account); err != nil {
		return err
	}
	return uow.Commit()
}

// UpdateDetail writes a new detail version: the active one is closed and
// the replacement inserted, so attribute history is queryable as of any
// time.
func (s *AccountService) UpdateDetail(ctx context.Context, accountID string, input DetailInput) (*domain.AccountDetail, error) {
	uow, err := s.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer uow.Rollback()

	account, err := uow.Accounts().GetByID(accountID)
	if err != nil {
		return nil, err
	}

	stamp := s.clock.Next()
	current, err := uow.Accounts().ActiveDetail(accountID)
	switch {
	case err == nil:
		if err := uow.Accounts().CloseDetail(current.DetailID, stamp.RecordedAt); err != nil {
			return nil, err
		}
	case errors.Is(err, domain.ErrDetailNotFound):
	default:
		return nil, err
	}

	detail := detailForClass(account.Class, input)
	detail.AccountID = accountID
	detail.ValidFrom = stamp.RecordedAt
	if err := uow.Accounts().InsertDetail(detail); err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}
	return detail, nil
}

// DetailHistory returns every detail version for the account, oldest
// first.
func (s *AccountService) DetailHistory(ctx context.Context, accountID string) ([]*domain.AccountDetail, error) {
	uow, err := s.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if _, err := uow.Accounts().GetByID(accountID); err != nil {
		return nil, err
	}
	details, err := uow.Accounts().DetailsByAccount(accountID)
	if err != nil {
		return nil, err
	}
	return details, uow.Commit()
}

// ensurePaymentCategory upserts the reserved payment category for a
// credit account into the credit_card_payments group.
func ensurePaymentCategory(uow domain.UnitOfWork, accountID, accountName string) error {
	id := domain.PaymentCategoryID(accountID)
	groupID := domain.GroupCreditCardPayments
	name := accountName + " Payment"

	existing, err := uow.Categories().GetByID(id)
	switch {
	case err == nil:
		if existing.IsActive && existing.Name == name {
			return nil
		}
		existing.IsActive = true
		existing.Name = name
		return uow.Categories().Update(existing)
	case errors.Is(err, domain.ErrCategoryNotFound):
	default:
		return err
	}

	return uow.Categories().Insert(&domain.Category{
		ID:               id,
		GroupID:          &groupID,
		Name:             name,
		AllowAllocations: true,
		IsEnvelope:       true,
		IsPayment:        true,
		IsActive:         true,
	})
}

func detailForClass(class domain.AccountClass, input DetailInput) *domain.AccountDetail {
	detail := &domain.AccountDetail{
		DetailID: uuid.New(),
		Class:    class,
		IsActive: true,
	}
	switch class {
	case domain.ClassCredit:
		detail.APRBps = input.APRBps
		detail.CreditLimitMinor = input.CreditLimitMinor
	case domain.ClassLoan:
		detail.APRBps = input.APRBps
		detail.TermMonths = input.TermMonths
	case domain.ClassInvestment:
		detail.UninvestedCashMinor = input.UninvestedCashMinor
	case domain.ClassTangible:
		detail.FairValueMinor = input.FairValueMinor
	case domain.ClassAccessible:
		detail.NoticeDays = input.NoticeDays
	}
	return detail
}

func normalizeAccountInput(input *CreateAccountInput) error {
	name, err := normalizeName(input.Name)
	if err != nil {
		return err
	}
	input.Name = name

	if input.OpeningBalanceMinor != 0 {
		return domain.ErrInvalidBalance
	}
	if input.ID == "" {
		input.ID = uuid.NewString()
	}
	if input.Role == "" {
		if input.Class == domain.ClassCash || input.Class == domain.ClassCredit {
			input.Role = domain.RoleOnBudget
		} else {
			input.Role = domain.RoleTracking
		}
	}
	if input.Currency == "" {
		input.Currency = "EUR"
	}
	if input.OpenedOn.IsZero() {
		input.OpenedOn = time.Now().UTC()
	}
	return nil
}

func normalizeName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", domain.ErrNameRequired
	}
	if len(trimmed) > domain.MaxNameLength {
		return "", domain.ErrNameTooLong
	}
	return trimmed, nil
}
