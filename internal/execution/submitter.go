package execution

import (
	"context"
	"log/slog"
	"time"

	"crypto_exec/internal/domain"
	"crypto_exec/internal/infra"

	"github.com/shopspring/decimal"
)

// OrderSubmitter places GTC limit orders with bounded retry on transport failure.
//
// A transport error does not prove the order was rejected: the request may have
// reached the exchange and only the response was lost. Retrying can therefore
// leave a duplicate resting order; the submitter does not assume idempotency.
type OrderSubmitter struct {
	gateway    domain.ExchangeGateway
	category   string
	maxRetries int
	backoff    time.Duration
	clock      Clock
	metrics    *infra.Metrics
	logger     *slog.Logger
}

// NewOrderSubmitter creates a submitter making at most cfg.MaxRetries+1 attempts.
func NewOrderSubmitter(gw domain.ExchangeGateway, cfg domain.ExecutionConfig, clock Clock, metrics *infra.Metrics, logger *slog.Logger) *OrderSubmitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &OrderSubmitter{
		gateway:    gw,
		category:   cfg.Category,
		maxRetries: cfg.MaxRetries,
		backoff:    cfg.RetryBackoff,
		clock:      clock,
		metrics:    metrics,
		logger:     logger.With("module", "order_submitter"),
	}
}

// Submit places a limit order at limitPrice and returns the exchange order id.
//
// Transport errors are retried; a non-zero result code is returned at once as
// *domain.APIError. Exhausting all attempts returns
// *domain.OrderSubmissionFailedError.
func (s *OrderSubmitter) Submit(ctx context.Context, req domain.OrderRequest, limitPrice decimal.Decimal) (string, error) {
	if !req.Direction.Valid() {
		return "", domain.ErrInvalidDirection
	}
	submitReq := domain.SubmitOrderRequest{
		Category:    s.category,
		Symbol:      req.Symbol,
		Side:        req.Direction.Side(),
		OrderType:   domain.OrderTypeLimit,
		Qty:         req.Quantity,
		Price:       limitPrice,
		TimeInForce: domain.TimeInForceGTC,
	}

	attempts := s.maxRetries + 1
	var lastErr error
	made := 0
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			s.metrics.RecordSubmitRetry()
			if err := s.wait(ctx, attempt); err != nil {
				lastErr = err
				break
			}
		}

		made++
		resp, err := s.gateway.SubmitOrder(ctx, submitReq)
		if err != nil {
			lastErr = err
			s.logger.Warn("Limit order submission failed",
				slog.Int("attempt", made),
				slog.Int("max_attempts", attempts),
				slog.Bool("retriable", domain.IsRetriable(err)),
				slog.Any("error", err))
			if ctx.Err() != nil {
				break
			}
			continue
		}

		if resp.RetCode != domain.ResultCodeOK {
			s.logger.Error("Limit order rejected by exchange",
				slog.Int("code", resp.RetCode),
				slog.String("msg", resp.RetMsg))
			return "", &domain.APIError{Op: "submit_order", Code: resp.RetCode, Msg: resp.RetMsg}
		}

		s.logger.Info("Limit order placed",
			slog.String("order_id", resp.OrderID),
			slog.String("symbol", req.Symbol),
			slog.String("side", submitReq.Side),
			slog.String("price", limitPrice.String()),
			slog.String("qty", req.Quantity.String()),
			slog.Int("attempt", made))
		return resp.OrderID, nil
	}

	return "", &domain.OrderSubmissionFailedError{Attempts: made, Err: lastErr}
}

// wait applies the optional backoff before retry n (1-based).
func (s *OrderSubmitter) wait(ctx context.Context, retry int) error {
	if s.backoff <= 0 {
		return ctx.Err()
	}
	delay := infra.CalculateBackoff(retry-1, s.backoff, 10*s.backoff)
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.clock.After(delay):
		return nil
	}
}
