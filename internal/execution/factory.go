package execution

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"crypto_exec/internal/domain"
	"crypto_exec/internal/infra"
	"crypto_exec/internal/infra/bybit"
)

// Mode represents the trading execution mode
type Mode string

const (
	ModePaper Mode = "PAPER"
	ModeDemo  Mode = "DEMO"
	ModeReal  Mode = "REAL"
)

// confirmRealEnv must be "true" before REAL mode touches mainnet.
const confirmRealEnv = "CONFIRM_REAL_MONEY"

// GatewayFactory creates the exchange gateway for the configured mode.
type GatewayFactory struct {
	config *infra.Config
	logger *slog.Logger
}

// NewGatewayFactory creates a new factory
func NewGatewayFactory(cfg *infra.Config, logger *slog.Logger) *GatewayFactory {
	if logger == nil {
		logger = slog.Default()
	}
	return &GatewayFactory{config: cfg, logger: logger}
}

// CreateGateway returns the gateway for trading.mode.
func (f *GatewayFactory) CreateGateway() (domain.ExchangeGateway, error) {
	mode := Mode(strings.ToUpper(f.config.Trading.Mode))

	f.logger.Info("Initializing Execution System", slog.String("mode", string(mode)))

	switch mode {
	case ModePaper:
		return NewPaperGateway(f.logger), nil

	case ModeDemo:
		cfg := *f.config
		cfg.Exchange.Testnet = true
		if cfg.Exchange.BaseURL == "" || cfg.Exchange.BaseURL == bybit.BaseURLMainnet {
			cfg.Exchange.BaseURL = bybit.BaseURLTestnet
		}
		f.logger.Info("🔒 Connecting to Bybit DEMO (Testnet)", slog.String("base_url", cfg.Exchange.BaseURL))
		return bybit.NewClient(&cfg, f.logger), nil

	case ModeReal:
		// SAFETY LATCH
		if os.Getenv(confirmRealEnv) != "true" {
			f.logger.Error("SAFETY_GUARD: real trading requires confirmation", slog.String("env", confirmRealEnv))
			return nil, domain.ErrRealTradingNotConfirmed
		}
		cfg := *f.config
		cfg.Exchange.Testnet = false
		if cfg.Exchange.BaseURL == "" {
			cfg.Exchange.BaseURL = bybit.BaseURLMainnet
		}
		f.logger.Warn("🚨🚨🚨 Connecting to Bybit REAL (Mainnet) 🚨🚨🚨")
		return bybit.NewClient(&cfg, f.logger), nil

	default:
		return nil, &domain.ConfigError{Field: "trading.mode", Err: fmt.Errorf("unknown execution mode: %s", mode)}
	}
}
