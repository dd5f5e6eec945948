package execution

import (
	"context"
	"log/slog"
	"time"

	"crypto_exec/internal/domain"
	"crypto_exec/internal/infra"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EntryState is a step of the entry state machine.
type EntryState int

const (
	StateInit EntryState = iota
	StateLimitSubmitted
	StateWaitingForFill
	StateFilled
	StateTimedOut
	StateCancelling
	StateUnfilled
	StateFallbackSubmitted
	StateFallbackResolved
	StateFailed
)

func (s EntryState) String() string {
	switch s {
	case StateInit:
		return "INIT"
	case StateLimitSubmitted:
		return "LIMIT_SUBMITTED"
	case StateWaitingForFill:
		return "WAITING_FOR_FILL"
	case StateFilled:
		return "FILLED"
	case StateTimedOut:
		return "TIMED_OUT"
	case StateCancelling:
		return "CANCELLING"
	case StateUnfilled:
		return "UNFILLED"
	case StateFallbackSubmitted:
		return "FALLBACK_SUBMITTED"
	case StateFallbackResolved:
		return "FALLBACK_RESOLVED"
	case StateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// cancelGrace bounds the cleanup cancel sent after the caller's context died.
const cancelGrace = 5 * time.Second

// Coordinator runs the limit-order-with-market-fallback entry protocol.
//
// It keeps no mutable state between calls, so ExecuteEntry is safe to call
// concurrently; each call owns its order handle and polling loop.
type Coordinator struct {
	cfg       domain.ExecutionConfig
	clock     Clock
	metrics   *infra.Metrics
	logger    *slog.Logger
	submitter *OrderSubmitter
	watcher   *FillWatcher
	canceller *OrderCanceller
	fallback  *MarketFallbackExecutor
	prices    *priceResolver
	fees      FeeCalculator
}

// Option customizes a Coordinator.
type Option func(*Coordinator)

// WithClock replaces the real clock (tests).
func WithClock(clock Clock) Option {
	return func(c *Coordinator) { c.clock = clock }
}

// WithMetrics sets the metrics sink. Defaults to infra.GlobalMetrics.
func WithMetrics(m *infra.Metrics) Option {
	return func(c *Coordinator) { c.metrics = m }
}

// NewCoordinator wires the execution components around gw.
func NewCoordinator(gw domain.ExchangeGateway, cfg domain.ExecutionConfig, logger *slog.Logger, opts ...Option) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Coordinator{
		cfg:     cfg,
		clock:   RealClock(),
		metrics: infra.GlobalMetrics,
		logger:  logger.With("module", "execution"),
		fees:    NewFeeCalculator(cfg.MakerFeeRate, cfg.TakerFeeRate),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.submitter = NewOrderSubmitter(gw, cfg, c.clock, c.metrics, logger)
	c.watcher = NewFillWatcher(gw, cfg, c.clock, logger)
	c.canceller = NewOrderCanceller(gw, cfg, c.metrics, logger)
	c.fallback = NewMarketFallbackExecutor(gw, cfg, c.clock, logger)
	c.prices = newPriceResolver(gw, cfg, c.clock, c.logger)
	return c
}

// entry carries the per-call state machine.
type entry struct {
	state  EntryState
	logger *slog.Logger
}

func (e *entry) transition(next EntryState) {
	e.logger.Debug("Entry state transition",
		slog.String("from", e.state.String()),
		slog.String("to", next.String()))
	e.state = next
}

// ExecuteEntry turns one approved signal into at most one position.
//
// It returns an error only when nothing could be executed: submission
// exhaustion or rejection, market fallback failure, invalid input, or ctx
// cancellation. A limit order that never filled with fallback disabled is a
// normal result with Filled=false.
func (c *Coordinator) ExecuteEntry(ctx context.Context, direction domain.Direction, quantity, currentPrice decimal.Decimal, leverage int) (domain.ExecutionResult, error) {
	started := c.clock.Now()
	req := domain.OrderRequest{
		Symbol:         c.cfg.Symbol,
		Direction:      direction,
		Quantity:       quantity,
		ReferencePrice: currentPrice,
		Leverage:       leverage,
	}
	e := &entry{
		state:  StateInit,
		logger: c.logger.With(
			slog.String("entry_id", uuid.NewString()),
			slog.String("symbol", req.Symbol),
			slog.String("direction", direction.String())),
	}

	res, err := c.run(ctx, e, req)
	elapsed := c.clock.Now().Sub(started)
	if err != nil {
		e.transition(StateFailed)
		c.metrics.RecordError()
		e.logger.Error("Entry failed", slog.Duration("elapsed", elapsed), slog.Any("error", err))
		return domain.ExecutionResult{}, err
	}

	c.metrics.RecordEntry(res.Filled, res.OrderType, elapsed.Nanoseconds())
	e.logger.Info("Entry finished",
		slog.String("state", e.state.String()),
		slog.String("order_id", res.OrderID),
		slog.Bool("filled", res.Filled),
		slog.String("fill_price", res.FillPrice.String()),
		slog.String("fee", res.FeePaid.String()),
		slog.Duration("elapsed", elapsed))
	return res, nil
}

func (c *Coordinator) run(ctx context.Context, e *entry, req domain.OrderRequest) (domain.ExecutionResult, error) {
	if err := req.Validate(); err != nil {
		return domain.ExecutionResult{}, err
	}

	if !c.cfg.Enabled {
		e.logger.Info("Limit execution disabled, going straight to market")
		return c.marketFallback(ctx, e, req)
	}

	limitPrice, err := CalculateLimitPrice(req.Direction, req.ReferencePrice, c.cfg.SlippagePercent)
	if err != nil {
		return domain.ExecutionResult{}, err
	}

	orderID, err := c.submitter.Submit(ctx, req, limitPrice)
	if err != nil {
		return domain.ExecutionResult{}, err
	}
	handle := domain.OrderHandle{OrderID: orderID, SubmittedAt: c.clock.Now()}
	e.transition(StateLimitSubmitted)

	e.transition(StateWaitingForFill)
	filled, err := c.watcher.WaitForFill(ctx, handle.OrderID, c.cfg.Timeout)
	if err != nil {
		c.abandon(ctx, e, handle)
		return domain.ExecutionResult{}, err
	}
	if filled {
		e.transition(StateFilled)
		return c.limitFill(ctx, e, req, handle)
	}

	e.transition(StateTimedOut)
	e.transition(StateCancelling)
	// Advisory only: the order may fill between the last poll and this call.
	outcome := c.canceller.Cancel(ctx, handle.OrderID)
	e.logger.Info("Limit order cancel attempted",
		slog.String("order_id", handle.OrderID),
		slog.String("outcome", outcome.String()))

	// A fill outranks the cancel. Re-read the exchange once before opening a
	// second position.
	if price, ok := c.prices.filledPrice(ctx, handle.OrderID); ok {
		e.logger.Warn("Limit order filled during cancel race", slog.String("order_id", handle.OrderID))
		e.transition(StateFilled)
		return c.limitResult(req, handle, price), nil
	}

	if !c.cfg.FallbackToMarket {
		e.transition(StateUnfilled)
		return domain.NotFilled(handle.OrderID), nil
	}
	return c.marketFallback(ctx, e, req)
}

func (c *Coordinator) limitFill(ctx context.Context, e *entry, req domain.OrderRequest, handle domain.OrderHandle) (domain.ExecutionResult, error) {
	price, err := c.prices.AveragePrice(ctx, handle.OrderID)
	if err != nil {
		// The position exists on the exchange; surface loudly for reconciliation.
		e.logger.Error("Limit order filled but fill price unresolved",
			slog.String("order_id", handle.OrderID),
			slog.Any("error", err))
		return domain.ExecutionResult{}, err
	}
	return c.limitResult(req, handle, price), nil
}

func (c *Coordinator) limitResult(req domain.OrderRequest, handle domain.OrderHandle, price decimal.Decimal) domain.ExecutionResult {
	return domain.ExecutionResult{
		OrderID:   handle.OrderID,
		Filled:    true,
		FillPrice: price,
		FeePaid:   c.fees.Calculate(req.Quantity, price, domain.OrderTypeLimit),
		OrderType: domain.OrderTypeLimit,
	}
}

func (c *Coordinator) marketFallback(ctx context.Context, e *entry, req domain.OrderRequest) (domain.ExecutionResult, error) {
	e.transition(StateFallbackSubmitted)
	res, err := c.fallback.Execute(ctx, req)
	if err != nil {
		return domain.ExecutionResult{}, err
	}
	e.transition(StateFallbackResolved)
	return res, nil
}

// abandon pulls a resting order when the caller gave up mid-wait.
func (c *Coordinator) abandon(ctx context.Context, e *entry, handle domain.OrderHandle) {
	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cancelGrace)
	defer cancel()

	outcome := c.canceller.Cancel(cleanupCtx, handle.OrderID)
	e.logger.Warn("Entry aborted while waiting for fill",
		slog.String("order_id", handle.OrderID),
		slog.String("cancel_outcome", outcome.String()))
}
