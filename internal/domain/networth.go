package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// NetWorthSnapshot is the current net-worth read model.
// NetWorthMinor = AssetsMinor + LiabilitiesMinor + PositionsMinor +
// TangiblesMinor, liabilities carrying negative sign.
type NetWorthSnapshot struct {
	AsOf             time.Time `json:"asOf"`
	AssetsMinor      int64     `json:"assetsMinor"`
	LiabilitiesMinor int64     `json:"liabilitiesMinor"`
	PositionsMinor   int64     `json:"positionsMinor"`
	TangiblesMinor   int64     `json:"tangiblesMinor"`
	NetWorthMinor    int64     `json:"netWorthMinor"`
}

// BalancePoint is one day of an absolute balance series.
type BalancePoint struct {
	Date         time.Time `json:"asOfDate"`
	BalanceMinor int64     `json:"balanceMinor"`
}

// MarketPrice is a daily close for an investment symbol, in minor units.
type MarketPrice struct {
	Symbol     string    `json:"symbol"`
	PriceDate  time.Time `json:"priceDate"`
	CloseMinor int64     `json:"closeMinor"`
}

// InvestmentHolding is an SCD-2 position in an investment account.
// Quantity is a decimal to allow fractional shares.
type InvestmentHolding struct {
	HoldingID uuid.UUID       `json:"holdingId"`
	AccountID string          `json:"accountId"`
	Symbol    string          `json:"symbol"`
	Quantity  decimal.Decimal `json:"quantity"`
	ValidFrom time.Time       `json:"validFrom"`
	ValidTo   *time.Time      `json:"validTo,omitempty"`
	IsActive  bool            `json:"isActive"`
}

// Value returns the holding's market value at the given close.
func (h *InvestmentHolding) Value(closeMinor int64) int64 {
	return h.Quantity.Mul(decimal.NewFromInt(closeMinor)).IntPart()
}

// MarketDataRepository persists prices and holdings.
type MarketDataRepository interface {
	UpsertPrice(p *MarketPrice) error
	// LatestClose returns the newest close for the symbol regardless of
	// its date.
	LatestClose(symbol string) (*MarketPrice, error)
	LatestCloseOnOrBefore(symbol string, date time.Time) (*MarketPrice, error)
	InsertHolding(h *InvestmentHolding) error
	CloseHolding(holdingID uuid.UUID, at time.Time) error
	ActiveHoldings(accountID string) ([]*InvestmentHolding, error)
	HoldingsByAccount(accountID string) ([]*InvestmentHolding, error)
}
