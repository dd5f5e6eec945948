package execution

import (
	"context"
	"log/slog"
	"strings"

	"crypto_exec/internal/domain"
	"crypto_exec/internal/infra"
)

// CancelOutcome is the typed result of a cancel attempt. None of the outcomes
// is an error: cancellation is advisory.
type CancelOutcome int

const (
	CancelConfirmed   CancelOutcome = iota + 1 // exchange acknowledged the cancel
	CancelAlreadyGone                          // order filled or was cancelled first
	CancelFailed                               // transport or unexpected API failure
)

func (o CancelOutcome) String() string {
	switch o {
	case CancelConfirmed:
		return "CONFIRMED"
	case CancelAlreadyGone:
		return "ALREADY_GONE"
	case CancelFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// Cancelled reports whether the exchange explicitly confirmed the cancel.
func (o CancelOutcome) Cancelled() bool {
	return o == CancelConfirmed
}

// Result codes for "order does not exist or too late to cancel".
var orderGoneCodes = map[int]struct{}{
	110001: {}, // derivatives
	170213: {}, // spot
}

// IsOrderGone reports whether a cancel response means the order already left
// the book. Matches on code first, then on message.
func IsOrderGone(code int, msg string) bool {
	if _, ok := orderGoneCodes[code]; ok {
		return true
	}
	m := strings.ToLower(msg)
	return strings.Contains(m, "order not exists") ||
		strings.Contains(m, "order does not exist") ||
		strings.Contains(m, "too late to cancel")
}

// OrderCanceller cancels orders without ever failing the caller.
type OrderCanceller struct {
	gateway domain.ExchangeGateway
	symbol  string
	metrics *infra.Metrics
	logger  *slog.Logger
}

// NewOrderCanceller creates a canceller for cfg.Symbol.
func NewOrderCanceller(gw domain.ExchangeGateway, cfg domain.ExecutionConfig, metrics *infra.Metrics, logger *slog.Logger) *OrderCanceller {
	if logger == nil {
		logger = slog.Default()
	}
	return &OrderCanceller{
		gateway: gw,
		symbol:  cfg.Symbol,
		metrics: metrics,
		logger:  logger.With("module", "order_canceller"),
	}
}

// Cancel asks the exchange to cancel orderID and classifies the answer.
func (c *OrderCanceller) Cancel(ctx context.Context, orderID string) CancelOutcome {
	outcome := c.cancel(ctx, orderID)
	c.metrics.RecordCancel(outcome.String())
	return outcome
}

func (c *OrderCanceller) cancel(ctx context.Context, orderID string) CancelOutcome {
	resp, err := c.gateway.CancelOrder(ctx, c.symbol, orderID)
	if err != nil {
		c.logger.Warn("Cancel request failed",
			slog.String("order_id", orderID),
			slog.Any("error", err))
		return CancelFailed
	}

	if resp.RetCode == domain.ResultCodeOK {
		c.logger.Info("Order cancelled", slog.String("order_id", orderID))
		return CancelConfirmed
	}

	if IsOrderGone(resp.RetCode, resp.RetMsg) {
		c.logger.Info("Order already gone before cancel",
			slog.String("order_id", orderID),
			slog.Int("code", resp.RetCode),
			slog.String("msg", resp.RetMsg))
		return CancelAlreadyGone
	}

	c.logger.Warn("Cancel rejected by exchange",
		slog.String("order_id", orderID),
		slog.Int("code", resp.RetCode),
		slog.String("msg", resp.RetMsg))
	return CancelFailed
}
