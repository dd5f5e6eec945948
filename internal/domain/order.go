package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Direction is the side of the position a signal wants to open.
type Direction int

const (
	DirectionLong Direction = iota + 1
	DirectionShort
)

// String returns the string representation of Direction
func (d Direction) String() string {
	switch d {
	case DirectionLong:
		return "LONG"
	case DirectionShort:
		return "SHORT"
	default:
		return "UNKNOWN"
	}
}

// Side maps the direction to the order side used on the exchange.
func (d Direction) Side() string {
	if d == DirectionShort {
		return SideSell
	}
	return SideBuy
}

// Valid reports whether d is LONG or SHORT.
func (d Direction) Valid() bool {
	return d == DirectionLong || d == DirectionShort
}

// ParseDirection accepts "long"/"short" in any case, plus "buy"/"sell".
func ParseDirection(s string) (Direction, bool) {
	switch s {
	case "LONG", "long", "Long", "BUY", "buy", "Buy":
		return DirectionLong, true
	case "SHORT", "short", "Short", "SELL", "sell", "Sell":
		return DirectionShort, true
	default:
		return 0, false
	}
}

const (
	SideBuy  = "BUY"
	SideSell = "SELL"

	OrderTypeLimit  = "LIMIT"
	OrderTypeMarket = "MARKET"

	TimeInForceGTC = "GTC"
)

// OrderStatus is the normalized lifecycle state of an exchange order.
// It is derived fresh on every poll and never cached.
type OrderStatus string

const (
	OrderStatusNew       OrderStatus = "NEW"
	OrderStatusFilled    OrderStatus = "FILLED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
	OrderStatusUnknown   OrderStatus = "UNKNOWN"
)

// IsTerminal reports whether the order can no longer change.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusFilled || s == OrderStatusCancelled
}

// OrderRequest is one entry attempt. Never mutated after creation.
type OrderRequest struct {
	Symbol         string
	Direction      Direction
	Quantity       decimal.Decimal
	ReferencePrice decimal.Decimal
	Leverage       int
}

// Validate checks direction, quantity and reference price.
func (r OrderRequest) Validate() error {
	if !r.Direction.Valid() {
		return ErrInvalidDirection
	}
	if !r.Quantity.IsPositive() {
		return ErrInvalidQuantity
	}
	if !r.ReferencePrice.IsPositive() {
		return ErrInvalidPrice
	}
	return nil
}

// OrderHandle identifies a live limit order for the duration of one entry.
type OrderHandle struct {
	OrderID     string
	SubmittedAt time.Time
}

// ExecutionResult is the single outcome of one entry call.
// FillPrice is always the exchange-reported average price.
type ExecutionResult struct {
	OrderID   string          `json:"order_id"`
	Filled    bool            `json:"filled"`
	FillPrice decimal.Decimal `json:"fill_price"`
	FeePaid   decimal.Decimal `json:"fee_paid"`
	OrderType string          `json:"order_type"` // LIMIT or MARKET; empty when nothing filled
}

// NotFilled builds the "no position opened" result for a cancelled limit order.
func NotFilled(orderID string) ExecutionResult {
	return ExecutionResult{
		OrderID:   orderID,
		Filled:    false,
		FillPrice: decimal.Zero,
		FeePaid:   decimal.Zero,
	}
}
