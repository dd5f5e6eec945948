package execution

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"crypto_exec/internal/domain"

	"github.com/shopspring/decimal"
)

// lookupHistoric returns the historic record for orderID. ok is false when the
// order is not listed yet.
func lookupHistoric(ctx context.Context, gw domain.ExchangeGateway, symbol, orderID string) (domain.OrderRecord, bool, error) {
	hist, err := gw.GetHistoricOrders(ctx, symbol)
	if err != nil {
		return domain.OrderRecord{}, false, err
	}
	if hist.RetCode != domain.ResultCodeOK {
		return domain.OrderRecord{}, false, &domain.APIError{Op: "historic_orders", Code: hist.RetCode, Msg: hist.RetMsg}
	}
	rec, ok := hist.Find(orderID)
	return rec, ok, nil
}

// priceResolver reads the exchange-reported average fill price. The historic
// listing can lag the fill, so it retries a bounded number of times.
type priceResolver struct {
	gateway  domain.ExchangeGateway
	symbol   string
	attempts int
	interval time.Duration
	clock    Clock
	logger   *slog.Logger
}

func newPriceResolver(gw domain.ExchangeGateway, cfg domain.ExecutionConfig, clock Clock, logger *slog.Logger) *priceResolver {
	attempts := cfg.PriceLookupAttempts
	if attempts < 1 {
		attempts = 1
	}
	return &priceResolver{
		gateway:  gw,
		symbol:   cfg.Symbol,
		attempts: attempts,
		interval: cfg.PollInterval,
		clock:    clock,
		logger:   logger,
	}
}

// AveragePrice returns the filled order's average price.
func (r *priceResolver) AveragePrice(ctx context.Context, orderID string) (decimal.Decimal, error) {
	var lastErr error
	for i := 0; i < r.attempts; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return decimal.Zero, ctx.Err()
			case <-r.clock.After(r.interval):
			}
		}

		rec, ok, err := lookupHistoric(ctx, r.gateway, r.symbol, orderID)
		switch {
		case err != nil:
			lastErr = err
		case !ok:
			lastErr = fmt.Errorf("order %s not in history", orderID)
		case rec.Status != domain.OrderStatusFilled:
			lastErr = fmt.Errorf("order %s status %s", orderID, rec.Status)
		case !rec.AvgPrice.IsPositive():
			lastErr = fmt.Errorf("order %s reported avg price %s", orderID, rec.AvgPrice)
		default:
			return rec.AvgPrice, nil
		}

		r.logger.Debug("Average price not available yet",
			slog.String("order_id", orderID),
			slog.Int("attempt", i+1),
			slog.Any("error", lastErr))
	}
	return decimal.Zero, fmt.Errorf("%w: %v", domain.ErrFillPriceUnavailable, lastErr)
}

// filledPrice does a single historic read and reports whether orderID is
// FILLED with a usable price. Read errors count as "not filled".
func (r *priceResolver) filledPrice(ctx context.Context, orderID string) (decimal.Decimal, bool) {
	rec, ok, err := lookupHistoric(ctx, r.gateway, r.symbol, orderID)
	if err != nil || !ok {
		return decimal.Zero, false
	}
	if rec.Status != domain.OrderStatusFilled || !rec.AvgPrice.IsPositive() {
		return decimal.Zero, false
	}
	return rec.AvgPrice, true
}
