package infra

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"crypto_exec/internal/domain"

	"github.com/shopspring/decimal"
)

const sampleConfig = `
app:
  name: crypto-exec
exchange:
  base_url: https://api-testnet.bybit.com
  testnet: true
  rate_limit_per_sec: 5
execution:
  enabled: true
  category: linear
  symbol: ETHUSDT
  timeout_ms: 15000
  slippage_percent: 0.05
  fallback_to_market: false
  max_retries: 2
  poll_interval_ms: 250
  retry_backoff_ms: 100
  maker_fee_rate: 0.0002
  taker_fee_rate: 0.00055
trading:
  mode: DEMO
logging:
  level: debug
`

func TestParseConfig(t *testing.T) {
	t.Setenv("CRYPTO_BYBIT_KEY", "")
	t.Setenv("CRYPTO_TRADING_MODE", "")

	cfg, err := ParseConfig([]byte(sampleConfig))
	if err != nil {
		t.Fatalf("ParseConfig failed: %v", err)
	}

	exec := cfg.ExecutionConfig()

	if exec.Symbol != "ETHUSDT" {
		t.Errorf("Symbol = %s, want ETHUSDT", exec.Symbol)
	}
	if exec.Timeout != 15*time.Second {
		t.Errorf("Timeout = %v, want 15s", exec.Timeout)
	}
	if !exec.SlippagePercent.Equal(decimal.RequireFromString("0.05")) {
		t.Errorf("SlippagePercent = %s, want 0.05", exec.SlippagePercent)
	}
	if exec.FallbackToMarket {
		t.Error("FallbackToMarket should be false")
	}
	if exec.MaxRetries != 2 {
		t.Errorf("MaxRetries = %d, want 2", exec.MaxRetries)
	}
	if exec.RetryBackoff != 100*time.Millisecond {
		t.Errorf("RetryBackoff = %v, want 100ms", exec.RetryBackoff)
	}
	if !exec.TakerFeeRate.Equal(decimal.RequireFromString("0.00055")) {
		t.Errorf("TakerFeeRate = %s, want 0.00055", exec.TakerFeeRate)
	}
	// Not in the file: default kept
	if exec.PriceLookupAttempts != 3 {
		t.Errorf("PriceLookupAttempts = %d, want default 3", exec.PriceLookupAttempts)
	}
	if cfg.Exchange.RecvWindowMS != 5000 {
		t.Errorf("RecvWindowMS = %d, want default 5000", cfg.Exchange.RecvWindowMS)
	}
}

func TestParseConfig_EnvOverride(t *testing.T) {
	t.Setenv("CRYPTO_BYBIT_KEY", "env-key")
	t.Setenv("CRYPTO_BYBIT_SECRET", "env-secret")
	t.Setenv("CRYPTO_TRADING_MODE", "PAPER")

	cfg, err := ParseConfig([]byte(sampleConfig))
	if err != nil {
		t.Fatalf("ParseConfig failed: %v", err)
	}

	if cfg.Exchange.APIKey != "env-key" || cfg.Exchange.SecretKey != "env-secret" {
		t.Errorf("Secrets not overridden: %q / %q", cfg.Exchange.APIKey, cfg.Exchange.SecretKey)
	}
	if cfg.Trading.Mode != "PAPER" {
		t.Errorf("Mode = %s, want PAPER", cfg.Trading.Mode)
	}
}

func TestParseConfig_Invalid(t *testing.T) {
	t.Setenv("CRYPTO_TRADING_MODE", "")

	tests := []struct {
		name  string
		yaml  string
		field string
	}{
		{"unknown mode", "trading:\n  mode: YOLO\n", "trading.mode"},
		{"bad url", "exchange:\n  base_url: ftp://x\n", "exchange.base_url"},
		{"negative slippage", "execution:\n  slippage_percent: -1\n", "execution.slippage_percent"},
		{"slippage eats the price", "execution:\n  slippage_percent: 150\n", "execution.slippage_percent"},
		{"zero timeout", "execution:\n  timeout_ms: 0\n", "execution.timeout_ms"},
		{"empty symbol", "execution:\n  symbol: \"\"\n", "execution.symbol"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig([]byte(tt.yaml))
			if err == nil {
				t.Fatal("Expected validation error")
			}
			var cfgErr *domain.ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("Expected ConfigError, got %v", err)
			}
			if cfgErr.Field != tt.field {
				t.Errorf("Field = %s, want %s", cfgErr.Field, tt.field)
			}
		})
	}
}

func TestLoadConfig_Missing(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if !errors.Is(err, domain.ErrConfigNotFound) {
		t.Errorf("Expected ErrConfigNotFound, got %v", err)
	}
}

func TestLoadConfig_File(t *testing.T) {
	t.Setenv("CRYPTO_TRADING_MODE", "")

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(sampleConfig), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Trading.Mode != "DEMO" {
		t.Errorf("Mode = %s, want DEMO", cfg.Trading.Mode)
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
