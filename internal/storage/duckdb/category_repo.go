package duckdb

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dojofin/dojo-backend/internal/domain"
)

// CategoryRepository implements domain.CategoryRepository.
type CategoryRepository struct {
	ctx context.Context
	tx  *sql.Tx
}

const categoryColumns = `category_id, group_id, name, is_system, allow_transactions,
	allow_allocations, is_envelope, is_payment, goal_type, goal_amount_minor,
	goal_target_date, goal_frequency, is_active`

func (r *CategoryRepository) Insert(c *domain.Category) error {
	var goalType *string
	if c.GoalType != nil {
		s := string(*c.GoalType)
		goalType = &s
	}
	_, err := r.tx.ExecContext(r.ctx, `
		INSERT INTO categories (category_id, group_id, name, is_system, allow_transactions,
			allow_allocations, is_envelope, is_payment, goal_type, goal_amount_minor,
			goal_target_date, goal_frequency, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, nullString(c.GroupID), c.Name, c.IsSystem, c.AllowTransactions,
		c.AllowAllocations, c.IsEnvelope, c.IsPayment, nullString(goalType),
		nullInt64(c.GoalAmountMinor), nullTime(c.GoalTargetDate),
		nullString(c.GoalFrequency), c.IsActive)
	if err != nil {
		return storageErr("insert category", err)
	}
	return nil
}

func (r *CategoryRepository) GetByID(id string) (*domain.Category, error) {
	row := r.tx.QueryRowContext(r.ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE category_id = ?`, id)
	return scanCategory(row)
}

func (r *CategoryRepository) List(includeInactive bool) ([]*domain.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories`
	if !includeInactive {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY category_id`

	rows, err := r.tx.QueryContext(r.ctx, query)
	if err != nil {
		return nil, storageErr("list categories", err)
	}
	defer rows.Close()

	var categories []*domain.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (r *CategoryRepository) Update(c *domain.Category) error {
	var goalType *string
	if c.GoalType != nil {
		s := string(*c.GoalType)
		goalType = &s
	}
	res, err := r.tx.ExecContext(r.ctx, `
		UPDATE categories
		SET group_id = ?, name = ?, allow_transactions = ?, allow_allocations = ?,
			is_envelope = ?, is_payment = ?, goal_type = ?, goal_amount_minor = ?,
			goal_target_date = ?, goal_frequency = ?, is_active = ?
		WHERE category_id = ?`,
		nullString(c.GroupID), c.Name, c.AllowTransactions, c.AllowAllocations,
		c.IsEnvelope, c.IsPayment, nullString(goalType), nullInt64(c.GoalAmountMinor),
		nullTime(c.GoalTargetDate), nullString(c.GoalFrequency), c.IsActive, c.ID)
	if err != nil {
		return storageErr("update category", err)
	}
	return requireRow(res, domain.ErrCategoryNotFound)
}

func (r *CategoryRepository) SoftDelete(id string) error {
	res, err := r.tx.ExecContext(r.ctx,
		`UPDATE categories SET is_active = FALSE WHERE category_id = ? AND is_active`, id)
	if err != nil {
		return storageErr("soft delete category", err)
	}
	return requireRow(res, domain.ErrCategoryNotFound)
}

func scanCategory(row rowScanner) (*domain.Category, error) {
	var c domain.Category
	var groupID, goalType, goalFreq sql.NullString
	var goalAmount sql.NullInt64
	var goalDate sql.NullTime
	err := row.Scan(&c.ID, &groupID, &c.Name, &c.IsSystem, &c.AllowTransactions,
		&c.AllowAllocations, &c.IsEnvelope, &c.IsPayment, &goalType, &goalAmount,
		&goalDate, &goalFreq, &c.IsActive)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrCategoryNotFound
		}
		return nil, storageErr("scan category", err)
	}
	c.GroupID = stringPtr(groupID)
	if goalType.Valid {
		gt := domain.GoalType(goalType.String)
		c.GoalType = &gt
	}
	c.GoalAmountMinor = int64Ptr(goalAmount)
	c.GoalTargetDate = timePtr(goalDate)
	c.GoalFrequency = stringPtr(goalFreq)
	return &c, nil
}

// CategoryGroupRepository implements domain.CategoryGroupRepository.
type CategoryGroupRepository struct {
	ctx context.Context
	tx  *sql.Tx
}

func (r *CategoryGroupRepository) Insert(g *domain.CategoryGroup) error {
	_, err := r.tx.ExecContext(r.ctx, `
		INSERT INTO category_groups (group_id, name, sort_order, is_active)
		VALUES (?, ?, ?, ?)`, g.ID, g.Name, g.SortOrder, g.IsActive)
	if err != nil {
		return storageErr("insert category group", err)
	}
	return nil
}

func (r *CategoryGroupRepository) GetByID(id string) (*domain.CategoryGroup, error) {
	var g domain.CategoryGroup
	err := r.tx.QueryRowContext(r.ctx, `
		SELECT group_id, name, sort_order, is_active
		FROM category_groups WHERE group_id = ?`, id).
		Scan(&g.ID, &g.Name, &g.SortOrder, &g.IsActive)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrCategoryGroupNotFound
		}
		return nil, storageErr("get category group", err)
	}
	return &g, nil
}

func (r *CategoryGroupRepository) List() ([]*domain.CategoryGroup, error) {
	rows, err := r.tx.QueryContext(r.ctx, `
		SELECT group_id, name, sort_order, is_active
		FROM category_groups ORDER BY sort_order, group_id`)
	if err != nil {
		return nil, storageErr("list category groups", err)
	}
	defer rows.Close()

	var groups []*domain.CategoryGroup
	for rows.Next() {
		var g domain.CategoryGroup
		if err := rows.Scan(&g.ID, &g.Name, &g.SortOrder, &g.IsActive); err != nil {
			return nil, storageErr("scan category group", err)
		}
		groups = append(groups, &g)
	}
	return groups, rows.Err()
}

func (r *CategoryGroupRepository) Update(g *domain.CategoryGroup) error {
	res, err := r.tx.ExecContext(r.ctx, `
		UPDATE category_groups SET name = ?, sort_order = ?, is_active = ?
		WHERE group_id = ?`, g.Name, g.SortOrder, g.IsActive, g.ID)
	if err != nil {
		return storageErr("update category group", err)
	}
	return requireRow(res, domain.ErrCategoryGroupNotFound)
}
