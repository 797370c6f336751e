package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dojofin/dojo-backend/internal/domain"
)

// MarketDataService manages daily closes and investment holdings.
// Positions are SCD-2: setting a symbol's quantity closes the active
// version and inserts a replacement, so historical valuations keep using
// the quantity that was held at the time.
type MarketDataService struct {
	store domain.Store
	clock *domain.Clock
}

// NewMarketDataService creates a new MarketDataService.
func NewMarketDataService(store domain.Store, clock *domain.Clock) *MarketDataService {
	return &MarketDataService{store: store, clock: clock}
}

// UpsertPrice records a close for a symbol and date, replacing any
// earlier value for the same day.
func (s *MarketDataService) UpsertPrice(ctx context.Context, symbol string, priceDate time.Time, closeMinor int64) (*domain.MarketPrice, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, domain.ErrNameRequired
	}
	if closeMinor <= 0 {
		return nil, domain.ErrNonPositiveAmount
	}

	uow, err := s.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer uow.Rollback()

	price := &domain.MarketPrice{
		Symbol:     symbol,
		PriceDate:  domain.DayStart(priceDate),
		CloseMinor: closeMinor,
	}
	if err := uow.MarketData().UpsertPrice(price); err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}
	return price, nil
}

// SetHolding sets the quantity held of a symbol in an investment
// account. A zero quantity closes the position without a replacement.
func (s *MarketDataService) SetHolding(ctx context.Context, accountID, symbol string, quantity decimal.Decimal) (*domain.InvestmentHolding, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, domain.ErrNameRequired
	}
	if quantity.IsNegative() {
		return nil, domain.ErrNonPositiveAmount
	}

	uow, err := s.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer uow.Rollback()

	account, err := uow.Accounts().GetByID(accountID)
	if err != nil {
		return nil, err
	}
	if account.Class != domain.ClassInvestment {
		return nil, domain.ErrUnknownClass
	}

	stamp := s.clock.Next()
	active, err := uow.MarketData().ActiveHoldings(accountID)
	if err != nil {
		return nil, err
	}
	for _, h := range active {
		if h.Symbol == symbol {
			if err := uow.MarketData().CloseHolding(h.HoldingID, stamp.RecordedAt); err != nil {
				return nil, err
			}
		}
	}

	if quantity.IsZero() {
		return nil, uow.Commit()
	}

	holding := &domain.InvestmentHolding{
		HoldingID: uuid.New(),
		AccountID: accountID,
		Symbol:    symbol,
		Quantity:  quantity,
		ValidFrom: stamp.RecordedAt,
		IsActive:  true,
	}
	if err := uow.MarketData().InsertHolding(holding); err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}
	return holding, nil
}

// Holdings returns the active positions of an investment account.
func (s *MarketDataService) Holdings(ctx context.Context, accountID string) ([]*domain.InvestmentHolding, error) {
	uow, err := s.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if _, err := uow.Accounts().GetByID(accountID); err != nil {
		return nil, err
	}
	holdings, err := uow.MarketData().ActiveHoldings(accountID)
	if err != nil {
		return nil, err
	}
	return holdings, uow.Commit()
}

// LatestPrice returns the newest close for a symbol on or before a date.
func (s *MarketDataService) LatestPrice(ctx context.Context, symbol string, onOrBefore time.Time) (*domain.MarketPrice, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	uow, err := s.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer uow.Rollback()

	price, err := uow.MarketData().LatestCloseOnOrBefore(symbol, domain.DayStart(onOrBefore))
	if err != nil {
		if errors.Is(err, domain.ErrPriceNotFound) {
			return nil, domain.ErrPriceNotFound
		}
		return nil, err
	}
	return price, uow.Commit()
}
