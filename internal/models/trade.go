package models

import (
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderSide is BUY or SELL.
type OrderSide string

const (
	OrderSideBuy  OrderSide = "BUY"
	OrderSideSell OrderSide = "SELL"
)

// OrderType is LIMIT or MARKET.
type OrderType string

const (
	OrderTypeLimit  OrderType = "LIMIT"
	OrderTypeMarket OrderType = "MARKET"
)

// OrderStatus is the fill state of an order.
type OrderStatus string

const (
	OrderPending         OrderStatus = "PENDING"
	OrderPartiallyFilled OrderStatus = "PARTIALLY_FILLED"
	OrderFilled          OrderStatus = "FILLED"
	OrderCancelled       OrderStatus = "CANCELLED"
)

// RestingStatuses are the statuses of orders that still sit on the book.
var RestingStatuses = []OrderStatus{OrderPending, OrderPartiallyFilled}

// TradingPair is a tradable market, e.g. BTC/USDT.
type TradingPair struct {
	Base
	Symbol          string          `gorm:"size:30;uniqueIndex;not null" json:"symbol"`
	BaseAsset       string          `gorm:"size:15;not null" json:"baseAsset"`
	QuoteAsset      string          `gorm:"size:15;not null" json:"quoteAsset"`
	PricePrecision  int             `gorm:"not null;default:2" json:"pricePrecision"`
	AmountPrecision int             `gorm:"not null;default:6" json:"amountPrecision"`
	MakerFee        decimal.Decimal `gorm:"type:numeric(10,6);not null;default:0" json:"makerFee"`
	TakerFee        decimal.Decimal `gorm:"type:numeric(10,6);not null;default:0" json:"takerFee"`
	IsActive        bool            `gorm:"not null;default:true" json:"isActive"`
}

// ExchangeSymbol is the concatenated symbol used by external exchanges, e.g. BTCUSDT.
func (p TradingPair) ExchangeSymbol() string {
	return p.BaseAsset + p.QuoteAsset
}

// Order is a resting or historical order. The remaining amount is always
// derived as Amount - FilledAmount and never stored.
type Order struct {
	Base
	UserID        string          `gorm:"type:varchar(36);not null;index" json:"userId"`
	TradingPairID string          `gorm:"type:varchar(36);not null;index:idx_order_book,priority:1" json:"tradingPairId"`
	Side          OrderSide       `gorm:"type:varchar(4);not null;index:idx_order_book,priority:2" json:"side"`
	Type          OrderType       `gorm:"type:varchar(10);not null;default:'LIMIT'" json:"type"`
	Price         decimal.Decimal `gorm:"type:numeric(30,10);not null" json:"price"`
	Amount        decimal.Decimal `gorm:"type:numeric(30,10);not null" json:"amount"`
	FilledAmount  decimal.Decimal `gorm:"type:numeric(30,10);not null;default:0" json:"filledAmount"`
	Status        OrderStatus     `gorm:"type:varchar(20);not null;default:'PENDING';index:idx_order_book,priority:3" json:"status"`
}

// BeforeSave enforces 0 <= FilledAmount <= Amount.
func (o *Order) BeforeSave(tx *gorm.DB) error {
	if o.FilledAmount.IsNegative() || o.FilledAmount.GreaterThan(o.Amount) {
		return fmt.Errorf("order %s: filled amount %s outside [0, %s]", o.ID, o.FilledAmount, o.Amount)
	}
	return nil
}

// Remaining returns Amount - FilledAmount.
func (o Order) Remaining() decimal.Decimal {
	return o.Amount.Sub(o.FilledAmount)
}

// Trade is an executed match between a buyer and a seller. Immutable once created.
type Trade struct {
	Base
	TradingPairID string          `gorm:"type:varchar(36);not null;index" json:"tradingPairId"`
	BuyOrderID    string          `gorm:"type:varchar(36);index" json:"buyOrderId"`
	SellOrderID   string          `gorm:"type:varchar(36);index" json:"sellOrderId"`
	BuyerID       string          `gorm:"type:varchar(36);not null;index" json:"buyerId"`
	SellerID      string          `gorm:"type:varchar(36);not null;index" json:"sellerId"`
	Amount        decimal.Decimal `gorm:"type:numeric(30,10);not null" json:"amount"`
	Price         decimal.Decimal `gorm:"type:numeric(30,10);not null" json:"price"`
	TotalValue    decimal.Decimal `gorm:"type:numeric(30,10);not null" json:"totalValue"`
	Fee           decimal.Decimal `gorm:"type:numeric(30,10);not null;default:0" json:"fee"`

	Buyer  *User `gorm:"foreignKey:BuyerID" json:"-"`
	Seller *User `gorm:"foreignKey:SellerID" json:"-"`
}
