package app

import (
	"context"
	"log/slog"
	"time"

	"crypto_exec/internal/domain"
	"crypto_exec/internal/execution"
	"crypto_exec/internal/infra"
	"crypto_exec/internal/infra/storage"

	"github.com/shopspring/decimal"
)

// Bootstrap orchestrates the application startup sequence
type Bootstrap struct {
	Config      *infra.Config
	Logger      *slog.Logger
	Storage     *storage.Storage
	Gateway     domain.ExchangeGateway
	Coordinator *execution.Coordinator
}

// NewBootstrap creates a new Bootstrap instance
func NewBootstrap() *Bootstrap {
	return &Bootstrap{}
}

// Initialize performs core system initialization (config, logger, DB, gateway).
func (b *Bootstrap) Initialize(configPath string) error {
	slog.Info("🚀 Bootstrapping Crypto Exec...")

	if err := b.OpenJournal(configPath); err != nil {
		return err
	}
	cfg, logger := b.Config, b.Logger

	// 4. Exchange Gateway
	gw, err := execution.NewGatewayFactory(cfg, logger).CreateGateway()
	if err != nil {
		b.Close()
		b.Storage = nil
		return err
	}
	b.Gateway = gw

	// 5. Coordinator
	b.Coordinator = execution.NewCoordinator(gw, cfg.ExecutionConfig(), logger)
	logger.Info("✅ Execution coordinator ready",
		slog.String("mode", cfg.Trading.Mode),
		slog.String("symbol", cfg.Execution.Symbol),
		slog.Bool("limit_enabled", cfg.Execution.Enabled),
		slog.Bool("fallback_to_market", cfg.Execution.FallbackToMarket))

	return nil
}

// OpenJournal loads config, logger and the execution journal without
// touching the exchange.
func (b *Bootstrap) OpenJournal(configPath string) error {
	// 1. Load Config
	cfg, err := infra.LoadConfig(configPath)
	if err != nil {
		return err // Let main handle the error
	}
	b.Config = cfg

	// 2. Setup Logger
	logger := infra.NewLogger(cfg)
	slog.SetDefault(logger)
	b.Logger = logger

	// 3. Initialize Storage (DB)
	store, err := storage.NewStorage(cfg.Storage.Path)
	if err != nil {
		return err
	}
	b.Storage = store
	logger.Info("✅ Execution journal initialized")
	return nil
}

// Execute runs one entry and journals its outcome, successful or not.
// In paper mode the reference price also becomes the simulated market price.
func (b *Bootstrap) Execute(ctx context.Context, direction domain.Direction, quantity, price decimal.Decimal, leverage int) (domain.ExecutionResult, error) {
	if paper, ok := b.Gateway.(*execution.PaperGateway); ok && price.IsPositive() {
		paper.UpdatePrice(b.Config.Execution.Symbol, price)
	}

	started := time.Now()
	res, execErr := b.Coordinator.ExecuteEntry(ctx, direction, quantity, price, leverage)

	req := domain.OrderRequest{
		Symbol:         b.Config.Execution.Symbol,
		Direction:      direction,
		Quantity:       quantity,
		ReferencePrice: price,
		Leverage:       leverage,
	}
	rec := domain.NewExecutionRecord(req, res, execErr, time.Since(started))
	if err := b.Storage.SaveExecution(rec); err != nil {
		b.Logger.Error("Failed to journal execution",
			slog.String("order_id", res.OrderID),
			slog.Any("error", err))
	}

	return res, execErr
}

// History returns journaled entries, newest first. failuresOnly keeps only
// entries that ended in an error; limit <= 0 returns everything.
func (b *Bootstrap) History(limit int, failuresOnly bool) ([]domain.ExecutionRecord, error) {
	if failuresOnly {
		recs, err := b.Storage.ListFailures()
		if err != nil {
			return nil, err
		}
		if limit > 0 && len(recs) > limit {
			recs = recs[:limit]
		}
		return recs, nil
	}
	return b.Storage.ListExecutions(limit)
}

// Close releases resources held by the bootstrap.
func (b *Bootstrap) Close() error {
	if b.Storage == nil {
		return nil
	}
	return b.Storage.Close()
}
