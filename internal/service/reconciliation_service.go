package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/dojofin/dojo-backend/internal/domain"
)

// ReconciliationService manages append-only account reconciliation
// checkpoints and the pre-commit worksheet.
type ReconciliationService struct {
	store domain.Store
	clock *domain.Clock
}

// NewReconciliationService creates a new ReconciliationService.
func NewReconciliationService(store domain.Store, clock *domain.Clock) *ReconciliationService {
	return &ReconciliationService{store: store, clock: clock}
}

// CommitInput holds the input for a reconciliation commit.
type CommitInput struct {
	AccountID             string
	StatementDate         time.Time
	StatementBalanceMinor int64
}

// Latest returns the most recent checkpoint for the account, or nil when
// the account has never been reconciled.
func (s *ReconciliationService) Latest(ctx context.Context, accountID string) (*domain.Reconciliation, error) {
	uow, err := s.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if _, err := uow.Accounts().GetByID(accountID); err != nil {
		return nil, err
	}
	latest, err := uow.Reconciliations().Latest(accountID)
	if err != nil && !errors.Is(err, domain.ErrReconciliationNotFound) {
		return nil, err
	}
	return latest, uow.Commit()
}

// Worksheet computes the pre-commit view: pending or recently touched
// transactions, the cleared total as of the statement date, the
// remaining difference, and any drift against the reconciled period.
func (s *ReconciliationService) Worksheet(ctx context.Context, input CommitInput) (*domain.ReconciliationWorksheet, error) {
	uow, err := s.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer uow.Rollback()

	ws, err := s.worksheetInUnit(uow, input)
	if err != nil {
		return nil, err
	}
	return ws, uow.Commit()
}

// Commit appends a checkpoint linked to the previous one. It succeeds
// only when the worksheet difference, evaluated inside the same unit of
// work, is exactly zero.
func (s *ReconciliationService) Commit(ctx context.Context, input CommitInput) (*domain.Reconciliation, error) {
	uow, err := s.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer uow.Rollback()

	ws, err := s.worksheetInUnit(uow, input)
	if err != nil {
		return nil, err
	}
	if ws.DifferenceMinor != 0 {
		return nil, domain.ErrDifferenceNotZero
	}

	var previousID *uuid.UUID
	previous, err := uow.Reconciliations().Latest(input.AccountID)
	switch {
	case err == nil:
		previousID = &previous.ID
	case errors.Is(err, domain.ErrReconciliationNotFound):
	default:
		return nil, err
	}

	stamp := s.clock.Next()
	rec := &domain.Reconciliation{
		ID:                    uuid.New(),
		AccountID:             input.AccountID,
		CreatedAt:             stamp.RecordedAt,
		RecordedSeq:           stamp.RecordedSeq,
		StatementDate:         domain.DayStart(input.StatementDate),
		StatementBalanceMinor: input.StatementBalanceMinor,
		PreviousID:            previousID,
	}
	if err := uow.Reconciliations().Insert(rec); err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}

	log.Info().
		Str("account_id", rec.AccountID).
		Time("statement_date", rec.StatementDate).
		Int64("statement_balance_minor", rec.StatementBalanceMinor).
		Msg("Reconciliation committed")
	return rec, nil
}

// History returns all checkpoints for the account, oldest first.
func (s *ReconciliationService) History(ctx context.Context, accountID string) ([]*domain.Reconciliation, error) {
	uow, err := s.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if _, err := uow.Accounts().GetByID(accountID); err != nil {
		return nil, err
	}
	recs, err := uow.Reconciliations().ListByAccount(accountID)
	if err != nil {
		return nil, err
	}
	return recs, uow.Commit()
}

func (s *ReconciliationService) worksheetInUnit(uow domain.UnitOfWork, input CommitInput) (*domain.ReconciliationWorksheet, error) {
	if _, err := uow.Accounts().GetByID(input.AccountID); err != nil {
		return nil, err
	}

	statementDate := domain.DayStart(input.StatementDate)

	var previous *domain.Reconciliation
	prev, err := uow.Reconciliations().Latest(input.AccountID)
	switch {
	case err == nil:
		previous = prev
	case errors.Is(err, domain.ErrReconciliationNotFound):
	default:
		return nil, err
	}

	var since *domain.Stamp
	if previous != nil {
		checkpoint := previous.Stamp()
		since = &checkpoint
	}
	pending, err := uow.Transactions().PendingOrRecordedAfter(input.AccountID, since)
	if err != nil {
		return nil, err
	}

	clearedTotal, err := uow.Transactions().SumActive(input.AccountID, true, &statementDate)
	if err != nil {
		return nil, err
	}

	var drift []*domain.Transaction
	if previous != nil {
		drift, err = uow.Transactions().RecordedAfterDatedOnOrBefore(
			input.AccountID, previous.Stamp(), previous.StatementDate)
		if err != nil {
			return nil, err
		}
		if len(drift) > 0 {
			log.Warn().
				Str("account_id", input.AccountID).
				Int("count", len(drift)).
				Msg("Backdated changes detected against reconciled period")
		}
	}

	return &domain.ReconciliationWorksheet{
		AccountID:             input.AccountID,
		StatementDate:         statementDate,
		StatementBalanceMinor: input.StatementBalanceMinor,
		ClearedTotalMinor:     clearedTotal,
		DifferenceMinor:       input.StatementBalanceMinor - clearedTotal,
		Pending:               pending,
		Drift:                 drift,
	}, nil
}
