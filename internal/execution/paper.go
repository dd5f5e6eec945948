package execution

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"crypto_exec/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Result codes the paper exchange answers with. They mirror the real
// exchange so the canceller and submitter classify them the same way.
const (
	paperCodeOrderGone   = 110001
	paperCodeNoPrice     = 30001
	paperCodeInvalidSize = 10001
)

// PaperFill represents a simulated order fill.
type PaperFill struct {
	OrderID   string
	Symbol    string
	Side      string
	OrderType string
	Price     decimal.Decimal
	Qty       decimal.Decimal
	Leverage  int
	FilledAt  time.Time
}

type paperOrder struct {
	id        string
	symbol    string
	side      string
	orderType string
	qty       decimal.Decimal
	price     decimal.Decimal
	status    domain.OrderStatus
	avgPrice  decimal.Decimal
	leverage  int
}

// PaperGateway is an in-memory exchange implementing domain.ExchangeGateway.
//
// Market orders fill at the last price given to UpdatePrice. Limit orders
// rest until UpdatePrice crosses them and then fill at their limit price.
// A marketable limit fills on submit at the current price.
type PaperGateway struct {
	mu       sync.Mutex
	prices   map[string]decimal.Decimal
	orders   map[string]*paperOrder
	sequence []string
	fills    []PaperFill
	leverage map[string]int
	logger   *slog.Logger
}

var _ domain.ExchangeGateway = (*PaperGateway)(nil)

// NewPaperGateway creates an empty paper exchange.
func NewPaperGateway(logger *slog.Logger) *PaperGateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &PaperGateway{
		prices:   make(map[string]decimal.Decimal),
		orders:   make(map[string]*paperOrder),
		fills:    make([]PaperFill, 0),
		leverage: make(map[string]int),
		logger:   logger.With("module", "paper_exchange"),
	}
}

// UpdatePrice sets the market price for symbol and fills every resting limit
// order it crosses.
func (p *PaperGateway) UpdatePrice(symbol string, price decimal.Decimal) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.prices[symbol] = price
	for _, id := range p.sequence {
		o := p.orders[id]
		if o.symbol != symbol || o.status != domain.OrderStatusNew {
			continue
		}
		if crosses(o.side, o.price, price) {
			p.fill(o, o.price)
		}
	}
}

// crosses reports whether a limit at limit is marketable against market.
func crosses(side string, limit, market decimal.Decimal) bool {
	if side == domain.SideBuy {
		return market.LessThanOrEqual(limit)
	}
	return market.GreaterThanOrEqual(limit)
}

// fill must be called with p.mu held.
func (p *PaperGateway) fill(o *paperOrder, price decimal.Decimal) {
	o.status = domain.OrderStatusFilled
	o.avgPrice = price
	p.fills = append(p.fills, PaperFill{
		OrderID:   o.id,
		Symbol:    o.symbol,
		Side:      o.side,
		OrderType: o.orderType,
		Price:     price,
		Qty:       o.qty,
		Leverage:  o.leverage,
		FilledAt:  time.Now(),
	})

	p.logger.Info("PAPER EXECUTION: Order Filled",
		slog.String("order_id", o.id),
		slog.String("symbol", o.symbol),
		slog.String("side", o.side),
		slog.String("type", o.orderType),
		slog.String("price", price.String()),
		slog.String("qty", o.qty.String()))
}

// SubmitOrder places a simulated order.
func (p *PaperGateway) SubmitOrder(ctx context.Context, req domain.SubmitOrderRequest) (domain.SubmitOrderResponse, error) {
	if err := ctx.Err(); err != nil {
		return domain.SubmitOrderResponse{}, domain.NewFatalNetworkError("submit_order", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if !req.Qty.IsPositive() {
		return domain.SubmitOrderResponse{RetCode: paperCodeInvalidSize, RetMsg: "invalid order quantity"}, nil
	}

	market, hasPrice := p.prices[req.Symbol]
	if req.OrderType == domain.OrderTypeMarket && !hasPrice {
		return domain.SubmitOrderResponse{RetCode: paperCodeNoPrice, RetMsg: "no price available for " + req.Symbol}, nil
	}

	o := &paperOrder{
		id:        uuid.NewString(),
		symbol:    req.Symbol,
		side:      req.Side,
		orderType: req.OrderType,
		qty:       req.Qty,
		price:     req.Price,
		status:    domain.OrderStatusNew,
		avgPrice:  decimal.Zero,
		leverage:  p.leverage[req.Symbol],
	}
	p.orders[o.id] = o
	p.sequence = append(p.sequence, o.id)

	switch {
	case req.OrderType == domain.OrderTypeMarket:
		p.fill(o, market)
	case hasPrice && crosses(o.side, o.price, market):
		p.fill(o, market)
	}

	return domain.SubmitOrderResponse{RetCode: domain.ResultCodeOK, RetMsg: "OK", OrderID: o.id}, nil
}

// GetActiveOrders lists resting orders for symbol.
func (p *PaperGateway) GetActiveOrders(ctx context.Context, symbol string) (domain.OrderListResponse, error) {
	return p.list(ctx, symbol, func(s domain.OrderStatus) bool { return s == domain.OrderStatusNew })
}

// GetHistoricOrders lists filled and cancelled orders for symbol.
func (p *PaperGateway) GetHistoricOrders(ctx context.Context, symbol string) (domain.OrderListResponse, error) {
	return p.list(ctx, symbol, domain.OrderStatus.IsTerminal)
}

func (p *PaperGateway) list(ctx context.Context, symbol string, keep func(domain.OrderStatus) bool) (domain.OrderListResponse, error) {
	if err := ctx.Err(); err != nil {
		return domain.OrderListResponse{}, domain.NewFatalNetworkError("list_orders", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	out := domain.OrderListResponse{RetCode: domain.ResultCodeOK, RetMsg: "OK"}
	for _, id := range p.sequence {
		o := p.orders[id]
		if o.symbol != symbol || !keep(o.status) {
			continue
		}
		out.List = append(out.List, domain.OrderRecord{OrderID: o.id, Status: o.status, AvgPrice: o.avgPrice})
	}
	return out, nil
}

// CancelOrder cancels a resting order. Unknown or already closed orders get
// the "order not exists or too late to cancel" result code.
func (p *PaperGateway) CancelOrder(ctx context.Context, symbol, orderID string) (domain.CancelOrderResponse, error) {
	if err := ctx.Err(); err != nil {
		return domain.CancelOrderResponse{}, domain.NewFatalNetworkError("cancel_order", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	o, ok := p.orders[orderID]
	if !ok || o.symbol != symbol || o.status != domain.OrderStatusNew {
		return domain.CancelOrderResponse{RetCode: paperCodeOrderGone, RetMsg: "order not exists or too late to cancel"}, nil
	}
	o.status = domain.OrderStatusCancelled
	p.logger.Info("PAPER EXECUTION: Order Cancelled", slog.String("order_id", orderID))
	return domain.CancelOrderResponse{RetCode: domain.ResultCodeOK, RetMsg: "OK"}, nil
}

// OpenPosition records the leverage and fills a market order.
func (p *PaperGateway) OpenPosition(ctx context.Context, req domain.PositionRequest) (string, error) {
	if req.Leverage > 0 {
		p.mu.Lock()
		p.leverage[req.Symbol] = req.Leverage
		p.mu.Unlock()
	}

	resp, err := p.SubmitOrder(ctx, domain.SubmitOrderRequest{
		Symbol:    req.Symbol,
		Side:      req.Side,
		OrderType: domain.OrderTypeMarket,
		Qty:       req.Quantity,
	})
	if err != nil {
		return "", err
	}
	if resp.RetCode != domain.ResultCodeOK {
		return "", &domain.APIError{Op: "open_position", Code: resp.RetCode, Msg: resp.RetMsg}
	}
	return resp.OrderID, nil
}

// Fills returns a copy of every simulated fill so far.
func (p *PaperGateway) Fills() []PaperFill {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]PaperFill, len(p.fills))
	copy(out, p.fills)
	return out
}
