// Package market builds read-only views over the order and trade tables:
// the two-sided order book, recent trades and a ticker summary per pair.
package market

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cryptovest/internal/apperr"
	"cryptovest/internal/config"
	"cryptovest/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

// PriceSource quotes an external reference price for an exchange symbol such as BTCUSDT.
type PriceSource interface {
	TickerPrice(ctx context.Context, symbol string) (decimal.Decimal, error)
}

// Aggregator serves market views from the database.
type Aggregator struct {
	db           *gorm.DB
	logger       *zap.Logger
	defaultLimit int
	maxLimit     int
	prices       PriceSource
}

// NewAggregator creates an Aggregator. prices may be nil, in which case tickers
// carry no reference price.
func NewAggregator(db *gorm.DB, logger *zap.Logger, cfg config.Market, prices PriceSource) *Aggregator {
	a := &Aggregator{
		db:           db,
		logger:       logger.Named("market"),
		defaultLimit: cfg.DefaultLimit,
		maxLimit:     cfg.MaxLimit,
		prices:       prices,
	}
	if a.maxLimit <= 0 {
		a.maxLimit = maxLimit
	}
	if a.defaultLimit <= 0 {
		a.defaultLimit = defaultLimit
	}
	if a.defaultLimit > a.maxLimit {
		a.defaultLimit = a.maxLimit
	}
	return a
}

// clampLimit maps a caller-provided limit into [1, maxLimit].
func (a *Aggregator) clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return a.defaultLimit
	case limit > a.maxLimit:
		return a.maxLimit
	}
	return limit
}

// OrderBookEntry is one resting order as shown on the book.
type OrderBookEntry struct {
	ID              string             `json:"id"`
	Side            models.OrderSide   `json:"side"`
	Price           decimal.Decimal    `json:"price"`
	Amount          decimal.Decimal    `json:"amount"`
	FilledAmount    decimal.Decimal    `json:"filledAmount"`
	RemainingAmount decimal.Decimal    `json:"remainingAmount"`
	Status          models.OrderStatus `json:"status"`
	CreatedAt       time.Time          `json:"createdAt"`
}

// OrderBook is the two-sided view of a pair.
type OrderBook struct {
	BuyOrders  []OrderBookEntry `json:"buyOrders"`
	SellOrders []OrderBookEntry `json:"sellOrders"`
}

// TradeParty identifies one side of a trade.
type TradeParty struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// TradeView is an executed trade. Side is set only when the viewer took part.
type TradeView struct {
	ID         string           `json:"id"`
	Amount     decimal.Decimal  `json:"amount"`
	Price      decimal.Decimal  `json:"price"`
	TotalValue decimal.Decimal  `json:"totalValue"`
	CreatedAt  time.Time        `json:"createdAt"`
	Buyer      TradeParty       `json:"buyer"`
	Seller     TradeParty       `json:"seller"`
	Side       models.OrderSide `json:"side,omitempty"`
}

// RecentTrades is the newest-first trade list of a pair.
type RecentTrades struct {
	Trades []TradeView `json:"trades"`
}

// Ticker summarizes the current state of a pair.
type Ticker struct {
	Symbol         string           `json:"symbol"`
	BaseAsset      string           `json:"baseAsset"`
	QuoteAsset     string           `json:"quoteAsset"`
	BestBid        *decimal.Decimal `json:"bestBid"`
	BestAsk        *decimal.Decimal `json:"bestAsk"`
	LastPrice      *decimal.Decimal `json:"lastPrice"`
	ReferencePrice *decimal.Decimal `json:"referencePrice,omitempty"`
}

// findPair resolves a pair by symbol. A nil pair with a nil error means it does not exist.
func findPair(db *gorm.DB, symbol string) (*models.TradingPair, error) {
	var pair models.TradingPair
	err := db.Where("symbol = ?", symbol).First(&pair).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load trading pair %s: %w", symbol, err)
	}
	return &pair, nil
}

// OrderBook returns the resting orders of a pair. Buys are sorted best (highest)
// price first and sells lowest price first; equal prices keep arrival order.
// An unknown symbol yields an empty book.
func (a *Aggregator) OrderBook(ctx context.Context, symbol string, limit int) (*OrderBook, error) {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return nil, apperr.Validation("tradingPair is required")
	}
	limit = a.clampLimit(limit)
	book := &OrderBook{BuyOrders: []OrderBookEntry{}, SellOrders: []OrderBookEntry{}}

	db := a.db.WithContext(ctx)
	pair, err := findPair(db, symbol)
	if err != nil {
		return nil, err
	}
	if pair == nil {
		a.logger.Debug("Order book requested for unknown pair", zap.String("symbol", symbol))
		return book, nil
	}

	buys, err := a.restingOrders(db, pair.ID, models.OrderSideBuy, "price desc, created_at asc", limit)
	if err != nil {
		return nil, err
	}
	sells, err := a.restingOrders(db, pair.ID, models.OrderSideSell, "price asc, created_at asc", limit)
	if err != nil {
		return nil, err
	}

	for _, o := range buys {
		book.BuyOrders = append(book.BuyOrders, a.entry(pair.Symbol, o))
	}
	for _, o := range sells {
		book.SellOrders = append(book.SellOrders, a.entry(pair.Symbol, o))
	}
	return book, nil
}

func (a *Aggregator) restingOrders(db *gorm.DB, pairID string, side models.OrderSide, order string, limit int) ([]models.Order, error) {
	var orders []models.Order
	err := db.
		Where("trading_pair_id = ? AND side = ? AND status IN ?", pairID, side, models.RestingStatuses).
		Order(order).
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load %s orders: %w", strings.ToLower(string(side)), err)
	}
	return orders, nil
}

func (a *Aggregator) entry(symbol string, o models.Order) OrderBookEntry {
	remaining := o.Remaining()
	if remaining.IsNegative() {
		a.logger.Warn("Order filled beyond its amount",
			zap.String("order_id", o.ID),
			zap.String("symbol", symbol),
			zap.String("amount", o.Amount.String()),
			zap.String("filled_amount", o.FilledAmount.String()))
		remaining = decimal.Zero
	}
	return OrderBookEntry{
		ID:              o.ID,
		Side:            o.Side,
		Price:           o.Price,
		Amount:          o.Amount,
		FilledAmount:    o.FilledAmount,
		RemainingAmount: remaining,
		Status:          o.Status,
		CreatedAt:       o.CreatedAt,
	}
}

// RecentTrades returns the newest trades of a pair with both parties attached.
// viewerID, when it matches a party, sets Side from that party's point of view.
func (a *Aggregator) RecentTrades(ctx context.Context, symbol string, limit int, viewerID string) (*RecentTrades, error) {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return nil, apperr.Validation("tradingPair is required")
	}
	limit = a.clampLimit(limit)
	result := &RecentTrades{Trades: []TradeView{}}

	db := a.db.WithContext(ctx)
	pair, err := findPair(db, symbol)
	if err != nil {
		return nil, err
	}
	if pair == nil {
		return result, nil
	}

	var trades []models.Trade
	err = db.Preload("Buyer").Preload("Seller").
		Where("trading_pair_id = ?", pair.ID).
		Order("created_at desc").
		Limit(limit).
		Find(&trades).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load trades of %s: %w", symbol, err)
	}

	for _, t := range trades {
		view := TradeView{
			ID:         t.ID,
			Amount:     t.Amount,
			Price:      t.Price,
			TotalValue: t.TotalValue,
			CreatedAt:  t.CreatedAt,
			Buyer:      party(t.BuyerID, t.Buyer),
			Seller:     party(t.SellerID, t.Seller),
		}
		switch {
		case viewerID == "":
		case viewerID == t.BuyerID:
			view.Side = models.OrderSideBuy
		case viewerID == t.SellerID:
			view.Side = models.OrderSideSell
		}
		result.Trades = append(result.Trades, view)
	}
	return result, nil
}

func party(id string, u *models.User) TradeParty {
	p := TradeParty{ID: id}
	if u != nil {
		p.Name = u.Name
		p.Email = u.Email
	}
	return p
}

// Ticker returns the top of book, the last traded price and, when a price
// source is configured, the external reference price of a pair.
func (a *Aggregator) Ticker(ctx context.Context, symbol string) (*Ticker, error) {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return nil, apperr.Validation("tradingPair is required")
	}

	db := a.db.WithContext(ctx)
	pair, err := findPair(db, symbol)
	if err != nil {
		return nil, err
	}
	if pair == nil {
		return nil, apperr.NotFound("trading pair %s not found", symbol)
	}

	ticker := &Ticker{Symbol: pair.Symbol, BaseAsset: pair.BaseAsset, QuoteAsset: pair.QuoteAsset}

	bids, err := a.restingOrders(db, pair.ID, models.OrderSideBuy, "price desc, created_at asc", 1)
	if err != nil {
		return nil, err
	}
	if len(bids) > 0 {
		ticker.BestBid = &bids[0].Price
	}
	asks, err := a.restingOrders(db, pair.ID, models.OrderSideSell, "price asc, created_at asc", 1)
	if err != nil {
		return nil, err
	}
	if len(asks) > 0 {
		ticker.BestAsk = &asks[0].Price
	}

	var last []models.Trade
	if err := db.Where("trading_pair_id = ?", pair.ID).Order("created_at desc").Limit(1).Find(&last).Error; err != nil {
		return nil, fmt.Errorf("failed to load last trade of %s: %w", symbol, err)
	}
	if len(last) > 0 {
		ticker.LastPrice = &last[0].Price
	}

	if a.prices != nil {
		ref, err := a.prices.TickerPrice(ctx, pair.ExchangeSymbol())
		if err != nil {
			a.logger.Warn("Reference price unavailable",
				zap.String("symbol", pair.Symbol),
				zap.String("exchange_symbol", pair.ExchangeSymbol()),
				zap.Error(err))
		} else {
			ticker.ReferencePrice = &ref
		}
	}
	return ticker, nil
}
