package duckdb

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/dojofin/dojo-backend/internal/domain"
)

// MonthStateRepository implements domain.MonthStateRepository over the
// derived budget_category_monthly_state cache.
type MonthStateRepository struct {
	ctx context.Context
	tx  *sql.Tx
}

const monthStateColumns = `category_id, month_start, allocated_minor, inflow_minor,
	activity_minor, available_minor`

func (r *MonthStateRepository) Get(categoryID string, monthStart time.Time) (*domain.CategoryMonthState, error) {
	row := r.tx.QueryRowContext(r.ctx, `
		SELECT `+monthStateColumns+` FROM budget_category_monthly_state
		WHERE category_id = ? AND month_start = ?`, categoryID, monthStart)
	return scanMonthState(row)
}

func (r *MonthStateRepository) LatestOnOrBefore(categoryID string, monthStart time.Time) (*domain.CategoryMonthState, error) {
	row := r.tx.QueryRowContext(r.ctx, `
		SELECT `+monthStateColumns+` FROM budget_category_monthly_state
		WHERE category_id = ? AND month_start <= ?
		ORDER BY month_start DESC LIMIT 1`, categoryID, monthStart)
	return scanMonthState(row)
}

func (r *MonthStateRepository) Insert(s *domain.CategoryMonthState) error {
	_, err := r.tx.ExecContext(r.ctx, `
		INSERT INTO budget_category_monthly_state
			(category_id, month_start, allocated_minor, inflow_minor, activity_minor, available_minor)
		VALUES (?, ?, ?, ?, ?, ?)`,
		s.CategoryID, s.MonthStart, s.AllocatedMinor, s.InflowMinor,
		s.ActivityMinor, s.AvailableMinor)
	if err != nil {
		return storageErr("insert month state", err)
	}
	return nil
}

func (r *MonthStateRepository) Update(s *domain.CategoryMonthState) error {
	res, err := r.tx.ExecContext(r.ctx, `
		UPDATE budget_category_monthly_state
		SET allocated_minor = ?, inflow_minor = ?, activity_minor = ?, available_minor = ?
		WHERE category_id = ? AND month_start = ?`,
		s.AllocatedMinor, s.InflowMinor, s.ActivityMinor, s.AvailableMinor,
		s.CategoryID, s.MonthStart)
	if err != nil {
		return storageErr("update month state", err)
	}
	return requireRow(res, domain.ErrMonthStateNotFound)
}

func (r *MonthStateRepository) ListByMonth(monthStart time.Time) ([]*domain.CategoryMonthState, error) {
	rows, err := r.tx.QueryContext(r.ctx, `
		SELECT `+monthStateColumns+` FROM budget_category_monthly_state
		WHERE month_start = ? ORDER BY category_id`, monthStart)
	if err != nil {
		return nil, storageErr("list month states", err)
	}
	defer rows.Close()
	return collectMonthStates(rows)
}

func (r *MonthStateRepository) ListAfter(categoryID string, monthStart time.Time) ([]*domain.CategoryMonthState, error) {
	rows, err := r.tx.QueryContext(r.ctx, `
		SELECT `+monthStateColumns+` FROM budget_category_monthly_state
		WHERE category_id = ? AND month_start > ?
		ORDER BY month_start`, categoryID, monthStart)
	if err != nil {
		return nil, storageErr("list later month states", err)
	}
	defer rows.Close()
	return collectMonthStates(rows)
}

func (r *MonthStateRepository) EnvelopeAvailableTotal(monthStart time.Time) (int64, error) {
	// Latest row per category at or before the month; only active,
	// non-system envelope categories count toward committed money.
	var total int64
	err := r.tx.QueryRowContext(r.ctx, `
		SELECT COALESCE(SUM(s.available_minor), 0)
		FROM budget_category_monthly_state s
		JOIN categories c ON c.category_id = s.category_id
		WHERE c.is_envelope AND NOT c.is_system AND c.is_active
		  AND s.month_start = (
			SELECT MAX(s2.month_start)
			FROM budget_category_monthly_state s2
			WHERE s2.category_id = s.category_id AND s2.month_start <= ?
		  )`, monthStart).Scan(&total)
	if err != nil {
		return 0, storageErr("envelope available total", err)
	}
	return total, nil
}

func (r *MonthStateRepository) Delete(categoryID string, monthStart time.Time) error {
	res, err := r.tx.ExecContext(r.ctx, `
		DELETE FROM budget_category_monthly_state
		WHERE category_id = ? AND month_start = ?`, categoryID, monthStart)
	if err != nil {
		return storageErr("delete month state", err)
	}
	return requireRow(res, domain.ErrMonthStateNotFound)
}

func (r *MonthStateRepository) DeleteAll() error {
	if _, err := r.tx.ExecContext(r.ctx, `DELETE FROM budget_category_monthly_state`); err != nil {
		return storageErr("delete month states", err)
	}
	return nil
}

func scanMonthState(row rowScanner) (*domain.CategoryMonthState, error) {
	var s domain.CategoryMonthState
	err := row.Scan(&s.CategoryID, &s.MonthStart, &s.AllocatedMinor,
		&s.InflowMinor, &s.ActivityMinor, &s.AvailableMinor)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrMonthStateNotFound
		}
		return nil, storageErr("scan month state", err)
	}
	s.MonthStart = s.MonthStart.UTC()
	return &s, nil
}

func collectMonthStates(rows *sql.Rows) ([]*domain.CategoryMonthState, error) {
	var out []*domain.CategoryMonthState
	for rows.Next() {
		s, err := scanMonthState(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
