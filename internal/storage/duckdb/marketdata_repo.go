package duckdb

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dojofin/dojo-backend/internal/domain"
)

// MarketDataRepository implements domain.MarketDataRepository. Holding
// quantities are stored as decimal strings to keep fractional shares
// exact.
type MarketDataRepository struct {
	ctx context.Context
	tx  *sql.Tx
}

func (r *MarketDataRepository) UpsertPrice(p *domain.MarketPrice) error {
	_, err := r.tx.ExecContext(r.ctx, `
		INSERT INTO market_prices (symbol, price_date, close_minor)
		VALUES (?, ?, ?)
		ON CONFLICT (symbol, price_date) DO UPDATE SET close_minor = excluded.close_minor`,
		p.Symbol, p.PriceDate, p.CloseMinor)
	if err != nil {
		return storageErr("upsert market price", err)
	}
	return nil
}

func (r *MarketDataRepository) LatestClose(symbol string) (*domain.MarketPrice, error) {
	var p domain.MarketPrice
	err := r.tx.QueryRowContext(r.ctx, `
		SELECT symbol, price_date, close_minor FROM market_prices
		WHERE symbol = ?
		ORDER BY price_date DESC LIMIT 1`, symbol).
		Scan(&p.Symbol, &p.PriceDate, &p.CloseMinor)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrPriceNotFound
		}
		return nil, storageErr("latest close", err)
	}
	p.PriceDate = p.PriceDate.UTC()
	return &p, nil
}

func (r *MarketDataRepository) LatestCloseOnOrBefore(symbol string, date time.Time) (*domain.MarketPrice, error) {
	var p domain.MarketPrice
	err := r.tx.QueryRowContext(r.ctx, `
		SELECT symbol, price_date, close_minor FROM market_prices
		WHERE symbol = ? AND price_date <= ?
		ORDER BY price_date DESC LIMIT 1`, symbol, date).
		Scan(&p.Symbol, &p.PriceDate, &p.CloseMinor)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrPriceNotFound
		}
		return nil, storageErr("latest close on or before", err)
	}
	p.PriceDate = p.PriceDate.UTC()
	return &p, nil
}

const holdingColumns = `holding_id, account_id, symbol, quantity, valid_from, valid_to, is_active`

func (r *MarketDataRepository) InsertHolding(h *domain.InvestmentHolding) error {
	_, err := r.tx.ExecContext(r.ctx, `
		INSERT INTO investment_holdings (holding_id, account_id, symbol, quantity,
			valid_from, valid_to, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		h.HoldingID.String(), h.AccountID, h.Symbol, h.Quantity.String(),
		h.ValidFrom, nullTime(h.ValidTo), h.IsActive)
	if err != nil {
		return storageErr("insert holding", err)
	}
	return nil
}

func (r *MarketDataRepository) CloseHolding(holdingID uuid.UUID, at time.Time) error {
	res, err := r.tx.ExecContext(r.ctx, `
		UPDATE investment_holdings SET is_active = FALSE, valid_to = ?
		WHERE holding_id = ? AND is_active`, at, holdingID.String())
	if err != nil {
		return storageErr("close holding", err)
	}
	return requireRow(res, domain.ErrVersionConflict)
}

func (r *MarketDataRepository) ActiveHoldings(accountID string) ([]*domain.InvestmentHolding, error) {
	rows, err := r.tx.QueryContext(r.ctx, `
		SELECT `+holdingColumns+` FROM investment_holdings
		WHERE account_id = ? AND is_active ORDER BY symbol`, accountID)
	if err != nil {
		return nil, storageErr("active holdings", err)
	}
	defer rows.Close()
	return collectHoldings(rows)
}

func (r *MarketDataRepository) HoldingsByAccount(accountID string) ([]*domain.InvestmentHolding, error) {
	rows, err := r.tx.QueryContext(r.ctx, `
		SELECT `+holdingColumns+` FROM investment_holdings
		WHERE account_id = ? ORDER BY valid_from`, accountID)
	if err != nil {
		return nil, storageErr("holdings by account", err)
	}
	defer rows.Close()
	return collectHoldings(rows)
}

func scanHolding(row rowScanner) (*domain.InvestmentHolding, error) {
	var h domain.InvestmentHolding
	var id, quantity string
	var validTo sql.NullTime
	err := row.Scan(&id, &h.AccountID, &h.Symbol, &quantity,
		&h.ValidFrom, &validTo, &h.IsActive)
	if err != nil {
		return nil, storageErr("scan holding", err)
	}
	if h.HoldingID, err = uuid.Parse(id); err != nil {
		return nil, storageErr("parse holding id", err)
	}
	if h.Quantity, err = decimal.NewFromString(quantity); err != nil {
		return nil, storageErr("parse holding quantity", err)
	}
	h.ValidTo = timePtr(validTo)
	return &h, nil
}

func collectHoldings(rows *sql.Rows) ([]*domain.InvestmentHolding, error) {
	var out []*domain.InvestmentHolding
	for rows.Next() {
		h, err := scanHolding(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}
