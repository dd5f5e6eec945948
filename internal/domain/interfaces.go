package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// ResultCodeOK is the exchange result code for a successful call.
const ResultCodeOK = 0

// SubmitOrderRequest is a single order placement.
// Price and TimeInForce are ignored for market orders.
type SubmitOrderRequest struct {
	Category    string
	Symbol      string
	Side        string // BUY, SELL
	OrderType   string // LIMIT, MARKET
	Qty         decimal.Decimal
	Price       decimal.Decimal
	TimeInForce string
}

type SubmitOrderResponse struct {
	RetCode int
	RetMsg  string
	OrderID string
}

// OrderRecord is one row of an active or historic order listing.
type OrderRecord struct {
	OrderID  string
	Status   OrderStatus
	AvgPrice decimal.Decimal
}

type OrderListResponse struct {
	RetCode int
	RetMsg  string
	List    []OrderRecord
}

// Find returns the record for orderID, if listed.
func (r OrderListResponse) Find(orderID string) (OrderRecord, bool) {
	for _, rec := range r.List {
		if rec.OrderID == orderID {
			return rec, true
		}
	}
	return OrderRecord{}, false
}

type CancelOrderResponse struct {
	RetCode int
	RetMsg  string
}

// PositionRequest opens a position with an immediate market order.
type PositionRequest struct {
	Symbol   string
	Side     string
	Quantity decimal.Decimal
	Leverage int
}

// ExchangeGateway is the only path to the exchange. It is the single source
// of truth for order status.
//
// A returned error means a transport-level failure; business rejections come
// back as a non-zero RetCode. OpenPosition is the exception and reports a
// rejection as *APIError.
type ExchangeGateway interface {
	SubmitOrder(ctx context.Context, req SubmitOrderRequest) (SubmitOrderResponse, error)
	GetActiveOrders(ctx context.Context, symbol string) (OrderListResponse, error)
	GetHistoricOrders(ctx context.Context, symbol string) (OrderListResponse, error)
	CancelOrder(ctx context.Context, symbol, orderID string) (CancelOrderResponse, error)
	OpenPosition(ctx context.Context, req PositionRequest) (string, error)
}
