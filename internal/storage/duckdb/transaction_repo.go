package duckdb

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/dojofin/dojo-backend/internal/domain"
)

// TransactionRepository implements domain.TransactionRepository. Versions
// are append-only; the only in-place write is retirement.
type TransactionRepository struct {
	ctx context.Context
	tx  *sql.Tx
}

const transactionColumns = `transaction_version_id, concept_id, account_id, category_id,
	transaction_date, amount_minor, memo, status, source, transfer_group_id,
	recorded_at, recorded_seq, valid_from, valid_to, is_active`

func (r *TransactionRepository) InsertVersion(t *domain.Transaction) error {
	_, err := r.tx.ExecContext(r.ctx, `
		INSERT INTO transactions (transaction_version_id, concept_id, account_id, category_id,
			transaction_date, amount_minor, memo, status, source, transfer_group_id,
			recorded_at, recorded_seq, valid_from, valid_to, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.VersionID.String(), t.ConceptID.String(), t.AccountID, t.CategoryID,
		t.Date, t.AmountMinor, nullString(t.Memo), string(t.Status), string(t.Source),
		nullUUID(t.TransferGroupID), t.RecordedAt, t.RecordedSeq,
		t.ValidFrom, nullTime(t.ValidTo), t.IsActive)
	if err != nil {
		return storageErr("insert transaction version", err)
	}
	return nil
}

func (r *TransactionRepository) ActiveByConcept(conceptID uuid.UUID) (*domain.Transaction, error) {
	row := r.tx.QueryRowContext(r.ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE concept_id = ? AND is_active`,
		conceptID.String())
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrTransactionNotFound
	}
	return t, err
}

func (r *TransactionRepository) Retire(versionID uuid.UUID, at time.Time) error {
	res, err := r.tx.ExecContext(r.ctx, `
		UPDATE transactions SET is_active = FALSE, valid_to = ?
		WHERE transaction_version_id = ? AND is_active`, at, versionID.String())
	if err != nil {
		return storageErr("retire transaction version", err)
	}
	return requireRow(res, domain.ErrVersionConflict)
}

func (r *TransactionRepository) ListRecent(limit int) ([]*domain.Transaction, error) {
	rows, err := r.tx.QueryContext(r.ctx, `
		SELECT `+transactionColumns+` FROM transactions
		WHERE is_active
		ORDER BY transaction_date DESC, recorded_at DESC, recorded_seq DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, storageErr("list recent transactions", err)
	}
	defer rows.Close()
	return collectTransactions(rows)
}

func (r *TransactionRepository) ListByAccount(accountID string, f domain.TransactionFilters) ([]*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE account_id = ? AND is_active`
	args := []any{accountID}
	if f.StartDate != nil {
		query += ` AND transaction_date >= ?`
		args = append(args, *f.StartDate)
	}
	if f.EndDate != nil {
		query += ` AND transaction_date <= ?`
		args = append(args, *f.EndDate)
	}
	if f.ClearedOnly {
		query += ` AND status = 'cleared'`
	}
	query += ` ORDER BY transaction_date DESC, recorded_at DESC, recorded_seq DESC LIMIT ?`
	args = append(args, f.Limit)

	rows, err := r.tx.QueryContext(r.ctx, query, args...)
	if err != nil {
		return nil, storageErr("list transactions by account", err)
	}
	defer rows.Close()
	return collectTransactions(rows)
}

func (r *TransactionRepository) ActiveByTransferGroup(groupID uuid.UUID) ([]*domain.Transaction, error) {
	rows, err := r.tx.QueryContext(r.ctx, `
		SELECT `+transactionColumns+` FROM transactions
		WHERE transfer_group_id = ? AND is_active
		ORDER BY amount_minor`, groupID.String())
	if err != nil {
		return nil, storageErr("list transfer group", err)
	}
	defer rows.Close()
	return collectTransactions(rows)
}

func (r *TransactionRepository) SumActive(accountID string, clearedOnly bool, onOrBefore *time.Time) (int64, error) {
	query := `SELECT COALESCE(SUM(amount_minor), 0) FROM transactions
		WHERE account_id = ? AND is_active`
	args := []any{accountID}
	if clearedOnly {
		query += ` AND status = 'cleared'`
	}
	if onOrBefore != nil {
		query += ` AND transaction_date <= ?`
		args = append(args, *onOrBefore)
	}

	var total int64
	if err := r.tx.QueryRowContext(r.ctx, query, args...).Scan(&total); err != nil {
		return 0, storageErr("sum transactions", err)
	}
	return total, nil
}

func (r *TransactionRepository) DailyFlows(accountID string, start, end time.Time, clearedOnly bool) ([]domain.DailyFlow, error) {
	query := `SELECT transaction_date, SUM(amount_minor) FROM transactions
		WHERE account_id = ? AND is_active AND transaction_date >= ? AND transaction_date <= ?`
	args := []any{accountID, start, end}
	if clearedOnly {
		query += ` AND status = 'cleared'`
	}
	query += ` GROUP BY transaction_date ORDER BY transaction_date`

	rows, err := r.tx.QueryContext(r.ctx, query, args...)
	if err != nil {
		return nil, storageErr("daily flows", err)
	}
	defer rows.Close()

	var flows []domain.DailyFlow
	for rows.Next() {
		var f domain.DailyFlow
		if err := rows.Scan(&f.Date, &f.NetMinor); err != nil {
			return nil, storageErr("scan daily flow", err)
		}
		f.Date = f.Date.UTC()
		flows = append(flows, f)
	}
	return flows, rows.Err()
}

func (r *TransactionRepository) PendingOrRecordedAfter(accountID string, after *domain.Stamp) ([]*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions
		WHERE account_id = ? AND is_active AND (status = 'pending'`
	args := []any{accountID}
	if after != nil {
		query += ` OR recorded_at > ? OR (recorded_at = ? AND recorded_seq > ?)`
		args = append(args, after.RecordedAt, after.RecordedAt, after.RecordedSeq)
	}
	query += `) ORDER BY transaction_date, recorded_at, recorded_seq`

	rows, err := r.tx.QueryContext(r.ctx, query, args...)
	if err != nil {
		return nil, storageErr("worksheet transactions", err)
	}
	defer rows.Close()
	return collectTransactions(rows)
}

func (r *TransactionRepository) RecordedAfterDatedOnOrBefore(accountID string, after domain.Stamp, dateCutoff time.Time) ([]*domain.Transaction, error) {
	rows, err := r.tx.QueryContext(r.ctx, `
		SELECT `+transactionColumns+` FROM transactions
		WHERE account_id = ? AND is_active
		  AND (recorded_at > ? OR (recorded_at = ? AND recorded_seq > ?))
		  AND transaction_date <= ?
		ORDER BY transaction_date, recorded_at, recorded_seq`,
		accountID, after.RecordedAt, after.RecordedAt, after.RecordedSeq, dateCutoff)
	if err != nil {
		return nil, storageErr("drift transactions", err)
	}
	defer rows.Close()
	return collectTransactions(rows)
}

func (r *TransactionRepository) ActiveTotalsByAccount() (map[string]int64, error) {
	rows, err := r.tx.QueryContext(r.ctx, `
		SELECT account_id, SUM(amount_minor) FROM transactions
		WHERE is_active GROUP BY account_id`)
	if err != nil {
		return nil, storageErr("totals by account", err)
	}
	defer rows.Close()

	totals := make(map[string]int64)
	for rows.Next() {
		var id string
		var total int64
		if err := rows.Scan(&id, &total); err != nil {
			return nil, storageErr("scan account total", err)
		}
		totals[id] = total
	}
	return totals, rows.Err()
}

func (r *TransactionRepository) ActiveByCategoryMonth() ([]domain.CategoryMonthActivity, error) {
	rows, err := r.tx.QueryContext(r.ctx, `
		SELECT category_id, date_trunc('month', transaction_date) AS month_start,
			SUM(amount_minor),
			SUM(CASE WHEN amount_minor > 0 THEN amount_minor ELSE 0 END)
		FROM transactions
		WHERE is_active
		GROUP BY category_id, month_start
		ORDER BY category_id, month_start`)
	if err != nil {
		return nil, storageErr("activity by category month", err)
	}
	defer rows.Close()

	var out []domain.CategoryMonthActivity
	for rows.Next() {
		var a domain.CategoryMonthActivity
		if err := rows.Scan(&a.CategoryID, &a.MonthStart, &a.ActivityMinor, &a.InflowMinor); err != nil {
			return nil, storageErr("scan category month activity", err)
		}
		a.MonthStart = a.MonthStart.UTC()
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *TransactionRepository) ActiveCreditReserveByAccountMonth() ([]domain.AccountMonthNet, error) {
	rows, err := r.tx.QueryContext(r.ctx, `
		SELECT t.account_id, date_trunc('month', t.transaction_date) AS month_start,
			SUM(t.amount_minor)
		FROM transactions t
		JOIN accounts a ON a.account_id = t.account_id AND a.account_class = 'credit'
		JOIN categories c ON c.category_id = t.category_id
		WHERE t.is_active
		  AND ((c.is_envelope AND NOT c.is_system) OR c.category_id = ?)
		GROUP BY t.account_id, month_start
		ORDER BY t.account_id, month_start`, domain.CategoryAccountTransfer)
	if err != nil {
		return nil, storageErr("credit reserve by account month", err)
	}
	defer rows.Close()

	var out []domain.AccountMonthNet
	for rows.Next() {
		var n domain.AccountMonthNet
		if err := rows.Scan(&n.AccountID, &n.MonthStart, &n.NetMinor); err != nil {
			return nil, storageErr("scan credit reserve net", err)
		}
		n.MonthStart = n.MonthStart.UTC()
		out = append(out, n)
	}
	return out, rows.Err()
}

func scanTransaction(row rowScanner) (*domain.Transaction, error) {
	var t domain.Transaction
	var versionID, conceptID, status, source string
	var memo, transferGroup sql.NullString
	var validTo sql.NullTime
	err := row.Scan(&versionID, &conceptID, &t.AccountID, &t.CategoryID,
		&t.Date, &t.AmountMinor, &memo, &status, &source, &transferGroup,
		&t.RecordedAt, &t.RecordedSeq, &t.ValidFrom, &validTo, &t.IsActive)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, storageErr("scan transaction", err)
	}

	if t.VersionID, err = uuid.Parse(versionID); err != nil {
		return nil, storageErr("parse version id", err)
	}
	if t.ConceptID, err = uuid.Parse(conceptID); err != nil {
		return nil, storageErr("parse concept id", err)
	}
	if t.TransferGroupID, err = uuidPtr(transferGroup); err != nil {
		return nil, storageErr("parse transfer group id", err)
	}
	t.Date = t.Date.UTC()
	t.RecordedAt = t.RecordedAt.UTC()
	t.Memo = stringPtr(memo)
	t.Status = domain.TransactionStatus(status)
	t.Source = domain.TransactionSource(source)
	t.ValidTo = timePtr(validTo)
	return &t, nil
}

func collectTransactions(rows *sql.Rows) ([]*domain.Transaction, error) {
	var out []*domain.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
