package duckdb

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/dojofin/dojo-backend/internal/domain"
)

// ReconciliationRepository implements domain.ReconciliationRepository.
// Checkpoints are append-only; there is no update or delete.
type ReconciliationRepository struct {
	ctx context.Context
	tx  *sql.Tx
}

const reconciliationColumns = `reconciliation_id, account_id, created_at, recorded_seq,
	statement_date, statement_balance_minor, previous_reconciliation_id`

func (r *ReconciliationRepository) Insert(rec *domain.Reconciliation) error {
	_, err := r.tx.ExecContext(r.ctx, `
		INSERT INTO account_reconciliations (reconciliation_id, account_id, created_at,
			recorded_seq, statement_date, statement_balance_minor, previous_reconciliation_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID.String(), rec.AccountID, rec.CreatedAt, rec.RecordedSeq, rec.StatementDate,
		rec.StatementBalanceMinor, nullUUID(rec.PreviousID))
	if err != nil {
		return storageErr("insert reconciliation", err)
	}
	return nil
}

func (r *ReconciliationRepository) Latest(accountID string) (*domain.Reconciliation, error) {
	row := r.tx.QueryRowContext(r.ctx, `
		SELECT `+reconciliationColumns+` FROM account_reconciliations
		WHERE account_id = ?
		ORDER BY created_at DESC, recorded_seq DESC LIMIT 1`, accountID)
	return scanReconciliation(row)
}

func (r *ReconciliationRepository) ListByAccount(accountID string) ([]*domain.Reconciliation, error) {
	rows, err := r.tx.QueryContext(r.ctx, `
		SELECT `+reconciliationColumns+` FROM account_reconciliations
		WHERE account_id = ? ORDER BY created_at, recorded_seq`, accountID)
	if err != nil {
		return nil, storageErr("list reconciliations", err)
	}
	defer rows.Close()

	var out []*domain.Reconciliation
	for rows.Next() {
		rec, err := scanReconciliation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func scanReconciliation(row rowScanner) (*domain.Reconciliation, error) {
	var rec domain.Reconciliation
	var id string
	var previous sql.NullString
	err := row.Scan(&id, &rec.AccountID, &rec.CreatedAt, &rec.RecordedSeq,
		&rec.StatementDate, &rec.StatementBalanceMinor, &previous)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrReconciliationNotFound
		}
		return nil, storageErr("scan reconciliation", err)
	}
	if rec.ID, err = uuid.Parse(id); err != nil {
		return nil, storageErr("parse reconciliation id", err)
	}
	if rec.PreviousID, err = uuidPtr(previous); err != nil {
		return nil, storageErr("parse previous reconciliation id", err)
	}
	rec.CreatedAt = rec.CreatedAt.UTC()
	rec.StatementDate = rec.StatementDate.UTC()
	return &rec, nil
}
