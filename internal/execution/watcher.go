package execution

import (
	"context"
	"log/slog"
	"time"

	"crypto_exec/internal/domain"
)

// FillWatcher polls the exchange until an order reaches a terminal state or
// the deadline passes. It only reads order state.
type FillWatcher struct {
	gateway  domain.ExchangeGateway
	symbol   string
	interval time.Duration
	clock    Clock
	logger   *slog.Logger
}

// NewFillWatcher creates a watcher polling every cfg.PollInterval.
func NewFillWatcher(gw domain.ExchangeGateway, cfg domain.ExecutionConfig, clock Clock, logger *slog.Logger) *FillWatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &FillWatcher{
		gateway:  gw,
		symbol:   cfg.Symbol,
		interval: cfg.PollInterval,
		clock:    clock,
		logger:   logger.With("module", "fill_watcher"),
	}
}

// WaitForFill reports whether orderID filled before timeout elapsed.
//
// false means either the order was cancelled/rejected on the exchange or it was
// still resting at the deadline. At least one check is always made. The only
// error is ctx cancellation.
//
// Each poll runs under the time left before the deadline, floored at one poll
// interval, so a hung listing delays the result by at most one interval.
func (w *FillWatcher) WaitForFill(ctx context.Context, orderID string, timeout time.Duration) (bool, error) {
	deadline := w.clock.Now().Add(timeout)

	for {
		status := w.poll(ctx, orderID, deadline)
		switch status {
		case domain.OrderStatusFilled:
			w.logger.Info("Limit order filled", slog.String("order_id", orderID))
			return true, nil
		case domain.OrderStatusCancelled:
			w.logger.Info("Limit order closed without fill", slog.String("order_id", orderID))
			return false, nil
		}

		now := w.clock.Now()
		if !now.Before(deadline) {
			w.logger.Info("Fill wait timed out",
				slog.String("order_id", orderID),
				slog.Duration("timeout", timeout))
			return false, nil
		}

		sleep := w.interval
		if remaining := deadline.Sub(now); remaining < sleep {
			sleep = remaining
		}

		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-w.clock.After(sleep):
		}
	}
}

func (w *FillWatcher) poll(ctx context.Context, orderID string, deadline time.Time) domain.OrderStatus {
	budget := deadline.Sub(w.clock.Now())
	if budget < w.interval {
		budget = w.interval
	}
	pollCtx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()
	return w.check(pollCtx, orderID)
}

// check performs one poll. NEW means "keep waiting", which also covers poll
// failures and orders not yet visible in either listing.
func (w *FillWatcher) check(ctx context.Context, orderID string) domain.OrderStatus {
	active, err := w.gateway.GetActiveOrders(ctx, w.symbol)
	if err != nil {
		w.logger.Warn("Active order poll failed", slog.String("order_id", orderID), slog.Any("error", err))
		return domain.OrderStatusNew
	}
	if active.RetCode != domain.ResultCodeOK {
		w.logger.Warn("Active order poll rejected",
			slog.String("order_id", orderID),
			slog.Int("code", active.RetCode),
			slog.String("msg", active.RetMsg))
		return domain.OrderStatusNew
	}
	if _, ok := active.Find(orderID); ok {
		return domain.OrderStatusNew
	}

	rec, ok, err := lookupHistoric(ctx, w.gateway, w.symbol, orderID)
	if err != nil {
		w.logger.Warn("Historic order poll failed", slog.String("order_id", orderID), slog.Any("error", err))
		return domain.OrderStatusNew
	}
	if !ok {
		w.logger.Debug("Order absent from both listings", slog.String("order_id", orderID))
		return domain.OrderStatusNew
	}

	switch rec.Status {
	case domain.OrderStatusFilled:
		return domain.OrderStatusFilled
	case domain.OrderStatusNew:
		return domain.OrderStatusNew
	default:
		// Cancelled, rejected or any other terminal state.
		return domain.OrderStatusCancelled
	}
}
