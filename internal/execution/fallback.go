package execution

import (
	"context"
	"log/slog"

	"crypto_exec/internal/domain"
)

// MarketFallbackExecutor opens the position with an immediate market order.
// It is the last tier: every failure goes back to the caller as-is.
type MarketFallbackExecutor struct {
	gateway domain.ExchangeGateway
	prices  *priceResolver
	fees    FeeCalculator
	logger  *slog.Logger
}

// NewMarketFallbackExecutor creates the fallback executor.
func NewMarketFallbackExecutor(gw domain.ExchangeGateway, cfg domain.ExecutionConfig, clock Clock, logger *slog.Logger) *MarketFallbackExecutor {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("module", "market_fallback")
	return &MarketFallbackExecutor{
		gateway: gw,
		prices:  newPriceResolver(gw, cfg, clock, logger),
		fees:    NewFeeCalculator(cfg.MakerFeeRate, cfg.TakerFeeRate),
		logger:  logger,
	}
}

// Execute opens a market position for req and resolves its fill price and
// taker fee.
func (m *MarketFallbackExecutor) Execute(ctx context.Context, req domain.OrderRequest) (domain.ExecutionResult, error) {
	if !req.Direction.Valid() {
		return domain.ExecutionResult{}, domain.ErrInvalidDirection
	}
	orderID, err := m.gateway.OpenPosition(ctx, domain.PositionRequest{
		Symbol:   req.Symbol,
		Side:     req.Direction.Side(),
		Quantity: req.Quantity,
		Leverage: req.Leverage,
	})
	if err != nil {
		m.logger.Error("Market order failed", slog.String("symbol", req.Symbol), slog.Any("error", err))
		return domain.ExecutionResult{}, err
	}

	price, err := m.prices.AveragePrice(ctx, orderID)
	if err != nil {
		m.logger.Error("Market fill price unresolved", slog.String("order_id", orderID), slog.Any("error", err))
		return domain.ExecutionResult{}, err
	}

	fee := m.fees.Calculate(req.Quantity, price, domain.OrderTypeMarket)
	m.logger.Info("Market order filled",
		slog.String("order_id", orderID),
		slog.String("fill_price", price.String()),
		slog.String("fee", fee.String()))

	return domain.ExecutionResult{
		OrderID:   orderID,
		Filled:    true,
		FillPrice: price,
		FeePaid:   fee,
		OrderType: domain.OrderTypeMarket,
	}, nil
}
