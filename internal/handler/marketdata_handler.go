package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/dojofin/dojo-backend/internal/service"
)

// MarketDataHandler handles market price and holding HTTP requests
type MarketDataHandler struct {
	marketDataService *service.MarketDataService
}

// NewMarketDataHandler creates a new MarketDataHandler
func NewMarketDataHandler(marketDataService *service.MarketDataService) *MarketDataHandler {
	return &MarketDataHandler{marketDataService: marketDataService}
}

// PriceRequest represents the upsert price request body
type PriceRequest struct {
	Symbol     string `json:"symbol"`
	PriceDate  string `json:"priceDate"`
	CloseMinor int64  `json:"closeMinor"`
}

// HoldingRequest represents the set holding request body
type HoldingRequest struct {
	Symbol   string `json:"symbol"`
	Quantity string `json:"quantity"`
}

// UpsertPrice handles PUT /api/v1/market-prices
func (h *MarketDataHandler) UpsertPrice(c echo.Context) error {
	var req PriceRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body")
	}
	date, err := parseDate(req.PriceDate)
	if err != nil {
		return NewValidationError(c, err.Error())
	}
	price, err := h.marketDataService.UpsertPrice(c.Request().Context(), req.Symbol, date, req.CloseMinor)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, price)
}

// SetHolding handles PUT /api/v1/accounts/:id/holdings
func (h *MarketDataHandler) SetHolding(c echo.Context) error {
	var req HoldingRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body")
	}
	quantity, err := decimal.NewFromString(req.Quantity)
	if err != nil {
		return NewValidationError(c, "Invalid quantity")
	}
	holding, err := h.marketDataService.SetHolding(c.Request().Context(), c.Param("id"), req.Symbol, quantity)
	if err != nil {
		return respondError(c, err)
	}
	if holding == nil {
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(http.StatusOK, holding)
}

// GetHoldings handles GET /api/v1/accounts/:id/holdings
func (h *MarketDataHandler) GetHoldings(c echo.Context) error {
	holdings, err := h.marketDataService.Holdings(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, holdings)
}
