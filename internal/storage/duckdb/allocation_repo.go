package duckdb

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/dojofin/dojo-backend/internal/domain"
)

// AllocationRepository implements domain.AllocationRepository.
type AllocationRepository struct {
	ctx context.Context
	tx  *sql.Tx
}

const allocationColumns = `allocation_version_id, concept_id, allocation_date, month_start,
	from_category_id, to_category_id, amount_minor, memo,
	recorded_at, recorded_seq, valid_from, valid_to, is_active`

func (r *AllocationRepository) InsertVersion(a *domain.Allocation) error {
	_, err := r.tx.ExecContext(r.ctx, `
		INSERT INTO budget_allocations (allocation_version_id, concept_id, allocation_date,
			month_start, from_category_id, to_category_id, amount_minor, memo,
			recorded_at, recorded_seq, valid_from, valid_to, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.VersionID.String(), a.ConceptID.String(), a.Date, a.MonthStart,
		a.FromCategoryID, a.ToCategoryID, a.AmountMinor, nullString(a.Memo),
		a.RecordedAt, a.RecordedSeq, a.ValidFrom, nullTime(a.ValidTo), a.IsActive)
	if err != nil {
		return storageErr("insert allocation version", err)
	}
	return nil
}

func (r *AllocationRepository) ActiveByConcept(conceptID uuid.UUID) (*domain.Allocation, error) {
	row := r.tx.QueryRowContext(r.ctx,
		`SELECT `+allocationColumns+` FROM budget_allocations WHERE concept_id = ? AND is_active`,
		conceptID.String())
	a, err := scanAllocation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrAllocationNotFound
	}
	return a, err
}

func (r *AllocationRepository) Retire(versionID uuid.UUID, at time.Time) error {
	res, err := r.tx.ExecContext(r.ctx, `
		UPDATE budget_allocations SET is_active = FALSE, valid_to = ?
		WHERE allocation_version_id = ? AND is_active`, at, versionID.String())
	if err != nil {
		return storageErr("retire allocation version", err)
	}
	return requireRow(res, domain.ErrVersionConflict)
}

func (r *AllocationRepository) ListByMonth(monthStart time.Time) ([]*domain.Allocation, error) {
	rows, err := r.tx.QueryContext(r.ctx, `
		SELECT `+allocationColumns+` FROM budget_allocations
		WHERE month_start = ? AND is_active
		ORDER BY allocation_date, recorded_at, recorded_seq`, monthStart)
	if err != nil {
		return nil, storageErr("list allocations by month", err)
	}
	defer rows.Close()

	var out []*domain.Allocation
	for rows.Next() {
		a, err := scanAllocation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *AllocationRepository) NetByCategoryMonth() ([]domain.CategoryMonthNet, error) {
	rows, err := r.tx.QueryContext(r.ctx, `
		SELECT category_id, month_start, SUM(net) FROM (
			SELECT to_category_id AS category_id, month_start, amount_minor AS net
			FROM budget_allocations WHERE is_active
			UNION ALL
			SELECT from_category_id AS category_id, month_start, -amount_minor AS net
			FROM budget_allocations WHERE is_active
		)
		GROUP BY category_id, month_start
		ORDER BY category_id, month_start`)
	if err != nil {
		return nil, storageErr("allocation net by category month", err)
	}
	defer rows.Close()

	var out []domain.CategoryMonthNet
	for rows.Next() {
		var n domain.CategoryMonthNet
		if err := rows.Scan(&n.CategoryID, &n.MonthStart, &n.NetMinor); err != nil {
			return nil, storageErr("scan allocation net", err)
		}
		n.MonthStart = n.MonthStart.UTC()
		out = append(out, n)
	}
	return out, rows.Err()
}

func scanAllocation(row rowScanner) (*domain.Allocation, error) {
	var a domain.Allocation
	var versionID, conceptID string
	var memo sql.NullString
	var validTo sql.NullTime
	err := row.Scan(&versionID, &conceptID, &a.Date, &a.MonthStart,
		&a.FromCategoryID, &a.ToCategoryID, &a.AmountMinor, &memo,
		&a.RecordedAt, &a.RecordedSeq, &a.ValidFrom, &validTo, &a.IsActive)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, storageErr("scan allocation", err)
	}

	if a.VersionID, err = uuid.Parse(versionID); err != nil {
		return nil, storageErr("parse allocation version id", err)
	}
	if a.ConceptID, err = uuid.Parse(conceptID); err != nil {
		return nil, storageErr("parse allocation concept id", err)
	}
	a.Date = a.Date.UTC()
	a.MonthStart = a.MonthStart.UTC()
	a.RecordedAt = a.RecordedAt.UTC()
	a.Memo = stringPtr(memo)
	a.ValidTo = timePtr(validTo)
	return &a, nil
}
