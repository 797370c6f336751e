package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dojofin/dojo-backend/internal/domain"
)

// LedgerService owns the transactional write path: transaction create,
// edit and delete as SCD-2 versions, the account balance cache, and the
// derived monthly category state. Transfers are composed on top of it.
type LedgerService struct {
	store domain.Store
	clock *domain.Clock
}

// NewLedgerService creates a new LedgerService.
func NewLedgerService(store domain.Store, clock *domain.Clock) *LedgerService {
	return &LedgerService{store: store, clock: clock}
}

// CreateTransactionInput holds the input for creating a transaction.
type CreateTransactionInput struct {
	AccountID   string
	CategoryID  string
	Date        time.Time
	AmountMinor int64
	Memo        *string
	Status      domain.TransactionStatus
	Source      domain.TransactionSource
}

// TransactionResult is the write-path response: the new version plus the
// affected account and monthly-state snapshots.
type TransactionResult struct {
	Transaction *domain.Transaction        `json:"transaction"`
	Account     *domain.Account            `json:"account"`
	MonthState  *domain.CategoryMonthState `json:"monthState"`
}

// TransferInput holds the input for an account-to-account transfer.
type TransferInput struct {
	SourceAccountID      string
	DestinationAccountID string
	AmountMinor          int64
	Date                 time.Time
	Memo                 *string
}

// TransferResult holds both legs of a transfer.
type TransferResult struct {
	Source      *TransactionResult `json:"source"`
	Destination *TransactionResult `json:"destination"`
}

// CreateTransaction creates a new transaction concept inside one unit of
// work and maintains the derived caches.
func (s *LedgerService) CreateTransaction(ctx context.Context, input CreateTransactionInput) (*TransactionResult, error) {
	uow, err := s.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer uow.Rollback()

	result, err := s.createInUnit(uow, input, nil)
	if err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}
	return result, nil
}

// createInUnit validates and writes one transaction version. transferGroup
// is non-nil only for transfer legs, which are the sole path allowed to
// use the account_transfer category.
func (s *LedgerService) createInUnit(uow domain.UnitOfWork, input CreateTransactionInput, transferGroup *uuid.UUID) (*TransactionResult, error) {
	if err := normalizeTransactionInput(&input, transferGroup != nil); err != nil {
		return nil, err
	}

	account, category, err := resolveTransactionRefs(uow, input.AccountID, input.CategoryID)
	if err != nil {
		return nil, err
	}
	if input.CategoryID == domain.CategoryBalanceAdjustment && account.Class == domain.ClassCash {
		return nil, domain.ErrAdjustmentOnCash
	}

	stamp := s.clock.Next()
	txn := &domain.Transaction{
		VersionID:       uuid.New(),
		ConceptID:       uuid.New(),
		AccountID:       input.AccountID,
		CategoryID:      input.CategoryID,
		Date:            domain.DayStart(input.Date),
		AmountMinor:     input.AmountMinor,
		Memo:            input.Memo,
		Status:          input.Status,
		Source:          input.Source,
		TransferGroupID: transferGroup,
		RecordedAt:      stamp.RecordedAt,
		RecordedSeq:     stamp.RecordedSeq,
		ValidFrom:       stamp.RecordedAt,
		IsActive:        true,
	}
	if err := uow.Transactions().InsertVersion(txn); err != nil {
		return nil, err
	}

	state, err := s.applyEffects(uow, category, txn, +1)
	if err != nil {
		return nil, err
	}

	account, err = uow.Accounts().GetByID(account.ID)
	if err != nil {
		return nil, err
	}
	return &TransactionResult{Transaction: txn, Account: account, MonthState: state}, nil
}

// EditTransaction retires the active version and writes a replacement
// sharing the concept id. Status-only transitions go through here too.
func (s *LedgerService) EditTransaction(ctx context.Context, conceptID uuid.UUID, input CreateTransactionInput) (*TransactionResult, error) {
	uow, err := s.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer uow.Rollback()

	prev, err := uow.Transactions().ActiveByConcept(conceptID)
	if err != nil {
		return nil, err
	}
	if err := normalizeTransactionInput(&input, prev.TransferGroupID != nil); err != nil {
		return nil, err
	}
	// A transfer leg cannot be reshaped on its own: that would break the
	// legs-sum-to-zero invariant of the group. Status and memo may change.
	if prev.TransferGroupID != nil {
		if input.AccountID != prev.AccountID || input.CategoryID != prev.CategoryID ||
			input.AmountMinor != prev.AmountMinor || !domain.DayStart(input.Date).Equal(prev.Date) {
			return nil, domain.ErrTransferLegEdit
		}
	}

	account, category, err := resolveTransactionRefs(uow, input.AccountID, input.CategoryID)
	if err != nil {
		return nil, err
	}
	if input.CategoryID == domain.CategoryBalanceAdjustment && account.Class == domain.ClassCash {
		return nil, domain.ErrAdjustmentOnCash
	}

	if err := s.retireWithReversal(uow, prev); err != nil {
		return nil, err
	}

	stamp := s.clock.Next()
	next := &domain.Transaction{
		VersionID:       uuid.New(),
		ConceptID:       conceptID,
		AccountID:       input.AccountID,
		CategoryID:      input.CategoryID,
		Date:            domain.DayStart(input.Date),
		AmountMinor:     input.AmountMinor,
		Memo:            input.Memo,
		Status:          input.Status,
		Source:          input.Source,
		TransferGroupID: prev.TransferGroupID,
		RecordedAt:      stamp.RecordedAt,
		RecordedSeq:     stamp.RecordedSeq,
		ValidFrom:       stamp.RecordedAt,
		IsActive:        true,
	}
	if err := uow.Transactions().InsertVersion(next); err != nil {
		return nil, err
	}

	state, err := s.applyEffects(uow, category, next, +1)
	if err != nil {
		return nil, err
	}
	account, err = uow.Accounts().GetByID(account.ID)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}
	return &TransactionResult{Transaction: next, Account: account, MonthState: state}, nil
}

// DeleteTransaction retires the active version with no replacement.
func (s *LedgerService) DeleteTransaction(ctx context.Context, conceptID uuid.UUID) error {
	uow, err := s.store.Begin(ctx)
	if err != nil {
		return err
	}
	defer uow.Rollback()

	prev, err := uow.Transactions().ActiveByConcept(conceptID)
	if err != nil {
		return err
	}
	if err := s.retireWithReversal(uow, prev); err != nil {
		return err
	}
	return uow.Commit()
}

// CreateTransfer writes both legs of an account-to-account movement
// inside one unit of work. The legs sum to zero by construction.
func (s *LedgerService) CreateTransfer(ctx context.Context, input TransferInput) (*TransferResult, error) {
	if input.AmountMinor <= 0 {
		return nil, domain.ErrNonPositiveAmount
	}
	if input.SourceAccountID == input.DestinationAccountID {
		return nil, domain.ErrSameAccount
	}

	uow, err := s.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer uow.Rollback()

	groupID := uuid.New()
	source, err := s.createInUnit(uow, CreateTransactionInput{
		AccountID:   input.SourceAccountID,
		CategoryID:  domain.CategoryAccountTransfer,
		Date:        input.Date,
		AmountMinor: -input.AmountMinor,
		Memo:        input.Memo,
		Status:      domain.StatusCleared,
		Source:      domain.SourceUser,
	}, &groupID)
	if err != nil {
		return nil, err
	}

	destination, err := s.createInUnit(uow, CreateTransactionInput{
		AccountID:   input.DestinationAccountID,
		CategoryID:  domain.CategoryAccountTransfer,
		Date:        input.Date,
		AmountMinor: input.AmountMinor,
		Memo:        input.Memo,
		Status:      domain.StatusCleared,
		Source:      domain.SourceUser,
	}, &groupID)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}
	return &TransferResult{Source: source, Destination: destination}, nil
}

// DeleteTransfer retires both legs of a transfer group.
func (s *LedgerService) DeleteTransfer(ctx context.Context, groupID uuid.UUID) error {
	uow, err := s.store.Begin(ctx)
	if err != nil {
		return err
	}
	defer uow.Rollback()

	legs, err := uow.Transactions().ActiveByTransferGroup(groupID)
	if err != nil {
		return err
	}
	if len(legs) == 0 {
		return domain.ErrTransactionNotFound
	}
	for _, leg := range legs {
		if err := s.retireWithReversal(uow, leg); err != nil {
			return err
		}
	}
	return uow.Commit()
}

// ListRecent returns the newest active transactions.
func (s *LedgerService) ListRecent(ctx context.Context, limit int) ([]*domain.Transaction, error) {
	uow, err := s.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer uow.Rollback()

	txns, err := uow.Transactions().ListRecent(clampLimit(limit))
	if err != nil {
		return nil, err
	}
	return txns, uow.Commit()
}

// ListByAccount returns active transactions for an account.
func (s *LedgerService) ListByAccount(ctx context.Context, accountID string, filters domain.TransactionFilters) ([]*domain.Transaction, error) {
	filters.Limit = clampLimit(filters.Limit)

	uow, err := s.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if _, err := uow.Accounts().GetByID(accountID); err != nil {
		return nil, err
	}
	txns, err := uow.Transactions().ListByAccount(accountID, filters)
	if err != nil {
		return nil, err
	}
	return txns, uow.Commit()
}

// retireWithReversal reverses the version's balance and monthly-state
// effects and closes it.
func (s *LedgerService) retireWithReversal(uow domain.UnitOfWork, txn *domain.Transaction) error {
	category, err := uow.Categories().GetByID(txn.CategoryID)
	if err != nil {
		return err
	}
	if _, err := s.applyEffects(uow, category, txn, -1); err != nil {
		return err
	}
	stamp := s.clock.Next()
	return uow.Transactions().Retire(txn.VersionID, stamp.RecordedAt)
}

// applyEffects applies (sign=+1) or reverses (sign=-1) a version's
// derived-state effects: the account balance cache, the category's
// monthly state, and the payment reserve for credit accounts. Inflows to
// available_to_budget are additionally tracked as the month's income.
func (s *LedgerService) applyEffects(uow domain.UnitOfWork, category *domain.Category, txn *domain.Transaction, sign int64) (*domain.CategoryMonthState, error) {
	if err := uow.Accounts().AddBalance(txn.AccountID, sign*txn.AmountMinor); err != nil {
		return nil, err
	}

	var dInflow int64
	if category.ID == domain.CategoryAvailableToBudget && txn.AmountMinor > 0 {
		dInflow = sign * txn.AmountMinor
	}
	state, err := applyMonthDelta(uow, category, domain.MonthStart(txn.Date), 0, dInflow, sign*txn.AmountMinor)
	if err != nil {
		return nil, err
	}
	if err := syncPaymentReserve(uow, category, txn, sign); err != nil {
		return nil, err
	}
	return state, nil
}

// syncPaymentReserve mirrors credit-account activity into the account's
// payment category so card use never moves Ready-to-Assign: a purchase
// against an envelope shifts that much from the envelope into the
// reserve, and a payment transfer leg releases it again.
func syncPaymentReserve(uow domain.UnitOfWork, category *domain.Category, txn *domain.Transaction, sign int64) error {
	account, err := uow.Accounts().GetByID(txn.AccountID)
	if err != nil {
		return err
	}
	if account.Class != domain.ClassCredit {
		return nil
	}
	if !envelopeTracked(category) && category.ID != domain.CategoryAccountTransfer {
		return nil
	}
	payment, err := uow.Categories().GetByID(domain.PaymentCategoryID(account.ID))
	if err != nil {
		return err
	}
	_, err = applyMonthDelta(uow, payment, domain.MonthStart(txn.Date), 0, 0, -sign*txn.AmountMinor)
	return err
}

func normalizeTransactionInput(input *CreateTransactionInput, transferLeg bool) error {
	if input.AmountMinor == 0 {
		return domain.ErrZeroAmount
	}
	if input.Status == "" {
		input.Status = domain.StatusCleared
	}
	if input.Status != domain.StatusPending && input.Status != domain.StatusCleared {
		return domain.ErrInvalidStatus
	}
	if input.Source == "" {
		input.Source = domain.SourceUser
	}
	if input.CategoryID == domain.CategoryAccountTransfer && !transferLeg {
		return domain.ErrTransferLegDirect
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

func resolveTransactionRefs(uow domain.UnitOfWork, accountID, categoryID string) (*domain.Account, *domain.Category, error) {
	account, err := uow.Accounts().GetByID(accountID)
	if err != nil {
		return nil, nil, err
	}
	if !account.IsActive {
		return nil, nil, domain.ErrAccountInactive
	}
	category, err := uow.Categories().GetByID(categoryID)
	if err != nil {
		return nil, nil, err
	}
	if !category.IsActive {
		return nil, nil, domain.ErrCategoryNotFound
	}
	if !category.AllowTransactions {
		return nil, nil, domain.ErrCategoryDisallowsTransactions
	}
	return account, category, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return domain.DefaultTransactionLimit
	}
	if limit > domain.MaxTransactionLimit {
		return domain.MaxTransactionLimit
	}
	return limit
}
