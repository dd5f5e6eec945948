package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ExecutionConfig drives the limit-with-market-fallback protocol.
// Built once at startup and read-only afterwards.
type ExecutionConfig struct {
	Enabled          bool
	Timeout          time.Duration
	SlippagePercent  decimal.Decimal
	FallbackToMarket bool
	MaxRetries       int

	Category string // e.g. "linear"
	Symbol   string

	PollInterval        time.Duration
	RetryBackoff        time.Duration // 0 = retry immediately
	MakerFeeRate        decimal.Decimal
	TakerFeeRate        decimal.Decimal
	PriceLookupAttempts int
}

// DefaultExecutionConfig returns the values used when the config file is silent.
func DefaultExecutionConfig() ExecutionConfig {
	return ExecutionConfig{
		Enabled:             true,
		Timeout:             30 * time.Second,
		SlippagePercent:     decimal.RequireFromString("0.02"),
		FallbackToMarket:    true,
		MaxRetries:          3,
		Category:            "linear",
		Symbol:              "BTCUSDT",
		PollInterval:        500 * time.Millisecond,
		MakerFeeRate:        decimal.RequireFromString("0.0001"), // 0.01%
		TakerFeeRate:        decimal.RequireFromString("0.0006"), // 0.06%
		PriceLookupAttempts: 3,
	}
}

// Validate rejects values the protocol cannot run with.
func (c ExecutionConfig) Validate() error {
	if c.Symbol == "" {
		return &ConfigError{Field: "execution.symbol", Err: errors.New("must not be empty")}
	}
	if c.Enabled && c.Timeout <= 0 {
		return &ConfigError{Field: "execution.timeout_ms", Err: errors.New("must be positive")}
	}
	if c.SlippagePercent.IsNegative() {
		return &ConfigError{Field: "execution.slippage_percent", Err: errors.New("must not be negative")}
	}
	// 100% or more drives a LONG limit price to zero or below.
	if c.SlippagePercent.GreaterThanOrEqual(decimal.NewFromInt(100)) {
		return &ConfigError{Field: "execution.slippage_percent", Err: errors.New("must be below 100")}
	}
	if c.MaxRetries < 0 {
		return &ConfigError{Field: "execution.max_retries", Err: errors.New("must not be negative")}
	}
	if c.PollInterval <= 0 {
		return &ConfigError{Field: "execution.poll_interval_ms", Err: errors.New("must be positive")}
	}
	if c.MakerFeeRate.IsNegative() || c.TakerFeeRate.IsNegative() {
		return &ConfigError{Field: "execution.fee_rate", Err: errors.New("must not be negative")}
	}
	if c.PriceLookupAttempts < 1 {
		return &ConfigError{Field: "execution.price_lookup_attempts", Err: errors.New("must be at least 1")}
	}
	return nil
}
