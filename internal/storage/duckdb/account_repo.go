package duckdb

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/dojofin/dojo-backend/internal/domain"
)

// AccountRepository implements domain.AccountRepository inside one unit
// of work.
type AccountRepository struct {
	ctx context.Context
	tx  *sql.Tx
}

const accountColumns = `account_id, name, account_type, account_class, account_role,
	current_balance_minor, currency, is_active, opened_on, created_at, updated_at`

func (r *AccountRepository) Insert(a *domain.Account) error {
	_, err := r.tx.ExecContext(r.ctx, `
		INSERT INTO accounts (account_id, name, account_type, account_class, account_role,
			current_balance_minor, currency, is_active, opened_on, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Name, string(a.Type), string(a.Class), string(a.Role),
		a.CurrentBalanceMinor, a.Currency, a.IsActive, a.OpenedOn,
		a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return storageErr("insert account", err)
	}
	return nil
}

func (r *AccountRepository) GetByID(id string) (*domain.Account, error) {
	row := r.tx.QueryRowContext(r.ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE account_id = ?`, id)
	return scanAccount(row)
}

func (r *AccountRepository) List(includeInactive bool) ([]*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts`
	if !includeInactive {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY opened_on, account_id`

	rows, err := r.tx.QueryContext(r.ctx, query)
	if err != nil {
		return nil, storageErr("list accounts", err)
	}
	defer rows.Close()

	var accounts []*domain.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (r *AccountRepository) Update(a *domain.Account) error {
	res, err := r.tx.ExecContext(r.ctx, `
		UPDATE accounts
		SET name = ?, account_role = ?, currency = ?, is_active = ?, opened_on = ?, updated_at = ?
		WHERE account_id = ?`,
		a.Name, string(a.Role), a.Currency, a.IsActive, a.OpenedOn, a.UpdatedAt, a.ID)
	if err != nil {
		return storageErr("update account", err)
	}
	return requireRow(res, domain.ErrAccountNotFound)
}

func (r *AccountRepository) AddBalance(id string, deltaMinor int64) error {
	res, err := r.tx.ExecContext(r.ctx, `
		UPDATE accounts
		SET current_balance_minor = current_balance_minor + ?, updated_at = CURRENT_TIMESTAMP
		WHERE account_id = ?`, deltaMinor, id)
	if err != nil {
		return storageErr("add balance", err)
	}
	return requireRow(res, domain.ErrAccountNotFound)
}

func (r *AccountRepository) SetBalance(id string, balanceMinor int64) error {
	res, err := r.tx.ExecContext(r.ctx, `
		UPDATE accounts
		SET current_balance_minor = ?, updated_at = CURRENT_TIMESTAMP
		WHERE account_id = ?`, balanceMinor, id)
	if err != nil {
		return storageErr("set balance", err)
	}
	return requireRow(res, domain.ErrAccountNotFound)
}

const detailColumns = `detail_id, account_id, account_class, apr_bps, credit_limit_minor,
	term_months, uninvested_cash_minor, fair_value_minor, notice_days,
	valid_from, valid_to, is_active`

func (r *AccountRepository) InsertDetail(d *domain.AccountDetail) error {
	_, err := r.tx.ExecContext(r.ctx, `
		INSERT INTO account_details (detail_id, account_id, account_class, apr_bps,
			credit_limit_minor, term_months, uninvested_cash_minor, fair_value_minor,
			notice_days, valid_from, valid_to, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.DetailID.String(), d.AccountID, string(d.Class),
		nullInt64(d.APRBps), nullInt64(d.CreditLimitMinor), nullInt32(d.TermMonths),
		nullInt64(d.UninvestedCashMinor), nullInt64(d.FairValueMinor), nullInt32(d.NoticeDays),
		d.ValidFrom, nullTime(d.ValidTo), d.IsActive)
	if err != nil {
		return storageErr("insert account detail", err)
	}
	return nil
}

func (r *AccountRepository) ActiveDetail(accountID string) (*domain.AccountDetail, error) {
	row := r.tx.QueryRowContext(r.ctx,
		`SELECT `+detailColumns+` FROM account_details WHERE account_id = ? AND is_active`,
		accountID)
	return scanDetail(row)
}

func (r *AccountRepository) CloseDetail(detailID uuid.UUID, at time.Time) error {
	res, err := r.tx.ExecContext(r.ctx, `
		UPDATE account_details
		SET is_active = FALSE, valid_to = ?
		WHERE detail_id = ? AND is_active`, at, detailID.String())
	if err != nil {
		return storageErr("close account detail", err)
	}
	return requireRow(res, domain.ErrDetailNotFound)
}

func (r *AccountRepository) ActiveDetailsByClass(class domain.AccountClass) ([]*domain.AccountDetail, error) {
	rows, err := r.tx.QueryContext(r.ctx,
		`SELECT `+detailColumns+` FROM account_details WHERE account_class = ? AND is_active`,
		string(class))
	if err != nil {
		return nil, storageErr("list details by class", err)
	}
	defer rows.Close()
	return collectDetails(rows)
}

func (r *AccountRepository) DetailsByAccount(accountID string) ([]*domain.AccountDetail, error) {
	rows, err := r.tx.QueryContext(r.ctx,
		`SELECT `+detailColumns+` FROM account_details WHERE account_id = ? ORDER BY valid_from`,
		accountID)
	if err != nil {
		return nil, storageErr("list details by account", err)
	}
	defer rows.Close()
	return collectDetails(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*domain.Account, error) {
	var a domain.Account
	var typ, class, role string
	err := row.Scan(&a.ID, &a.Name, &typ, &class, &role,
		&a.CurrentBalanceMinor, &a.Currency, &a.IsActive, &a.OpenedOn,
		&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, storageErr("scan account", err)
	}
	a.Type = domain.AccountType(typ)
	a.Class = domain.AccountClass(class)
	a.Role = domain.AccountRole(role)
	a.OpenedOn = a.OpenedOn.UTC()
	return &a, nil
}

func scanDetail(row rowScanner) (*domain.AccountDetail, error) {
	var d domain.AccountDetail
	var detailID, class string
	var apr, limit, cash, fair sql.NullInt64
	var term, notice sql.NullInt32
	var validTo sql.NullTime
	err := row.Scan(&detailID, &d.AccountID, &class, &apr, &limit, &term,
		&cash, &fair, &notice, &d.ValidFrom, &validTo, &d.IsActive)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrDetailNotFound
		}
		return nil, storageErr("scan account detail", err)
	}
	id, err := uuid.Parse(detailID)
	if err != nil {
		return nil, storageErr("parse detail id", err)
	}
	d.DetailID = id
	d.Class = domain.AccountClass(class)
	d.APRBps = int64Ptr(apr)
	d.CreditLimitMinor = int64Ptr(limit)
	d.TermMonths = int32Ptr(term)
	d.UninvestedCashMinor = int64Ptr(cash)
	d.FairValueMinor = int64Ptr(fair)
	d.NoticeDays = int32Ptr(notice)
	d.ValidTo = timePtr(validTo)
	return &d, nil
}

func collectDetails(rows *sql.Rows) ([]*domain.AccountDetail, error) {
	var details []*domain.AccountDetail
	for rows.Next() {
		d, err := scanDetail(rows)
		if err != nil {
			return nil, err
		}
		details = append(details, d)
	}
	return details, rows.Err()
}

func requireRow(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return storageErr("rows affected", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
