package infra

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"crypto_exec/internal/domain"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Config는 애플리케이션의 모든 설정을 담습니다.
// LoadConfig로 로드된 후에 환경 변수를 통해 민감 내용을 덮어씁니다.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Exchange struct {
		BaseURL         string  `yaml:"base_url"`
		Testnet         bool    `yaml:"testnet"`
		APIKey          string  `yaml:"api_key"`
		SecretKey       string  `yaml:"secret_key"`
		RecvWindowMS    int     `yaml:"recv_window_ms"`
		RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
		TimeoutMS       int     `yaml:"timeout_ms"`
	} `yaml:"exchange"`

	Execution struct {
		Enabled             bool            `yaml:"enabled"`
		Category            string          `yaml:"category"`
		Symbol              string          `yaml:"symbol"`
		TimeoutMS           int             `yaml:"timeout_ms"`
		SlippagePercent     decimal.Decimal `yaml:"slippage_percent"`
		FallbackToMarket    bool            `yaml:"fallback_to_market"`
		MaxRetries          int             `yaml:"max_retries"`
		PollIntervalMS      int             `yaml:"poll_interval_ms"`
		RetryBackoffMS      int             `yaml:"retry_backoff_ms"`
		MakerFeeRate        decimal.Decimal `yaml:"maker_fee_rate"`
		TakerFeeRate        decimal.Decimal `yaml:"taker_fee_rate"`
		PriceLookupAttempts int             `yaml:"price_lookup_attempts"`
	} `yaml:"execution"`

	Trading struct {
		Mode string `yaml:"mode"` // PAPER, DEMO, REAL
	} `yaml:"trading"`

	Storage struct {
		Path string `yaml:"path"` // empty = user config dir
	} `yaml:"storage"`

	Logging struct {
		Level string `yaml:"level"`
		Dir   string `yaml:"dir"`
	} `yaml:"logging"`
}

// DefaultConfig returns a config populated with safe defaults.
// Values in the YAML file override these.
func DefaultConfig() *Config {
	def := domain.DefaultExecutionConfig()

	var cfg Config
	cfg.App.Name = "crypto-exec"
	cfg.Exchange.RecvWindowMS = 5000
	cfg.Exchange.RateLimitPerSec = 10
	cfg.Exchange.TimeoutMS = 10000
	cfg.Exchange.Testnet = true

	cfg.Execution.Enabled = def.Enabled
	cfg.Execution.Category = def.Category
	cfg.Execution.Symbol = def.Symbol
	cfg.Execution.TimeoutMS = int(def.Timeout / time.Millisecond)
	cfg.Execution.SlippagePercent = def.SlippagePercent
	cfg.Execution.FallbackToMarket = def.FallbackToMarket
	cfg.Execution.MaxRetries = def.MaxRetries
	cfg.Execution.PollIntervalMS = int(def.PollInterval / time.Millisecond)
	cfg.Execution.MakerFeeRate = def.MakerFeeRate
	cfg.Execution.TakerFeeRate = def.TakerFeeRate
	cfg.Execution.PriceLookupAttempts = def.PriceLookupAttempts

	cfg.Trading.Mode = "PAPER"
	cfg.Logging.Level = "info"
	cfg.Logging.Dir = "logs"
	return &cfg
}

// LoadConfig는 설정 파일을 읽고 파싱합니다.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrConfigNotFound, path)
		}
		return nil, err
	}
	return ParseConfig(data)
}

// ParseConfig decodes YAML over the defaults, applies env overrides and validates.
func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// 보안 우선 - .env 파일과 환경 변수 오버라이드 지원
	_ = godotenv.Load()
	overrideWithEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks configuration validity
func (c *Config) Validate() error {
	switch strings.ToUpper(c.Trading.Mode) {
	case "PAPER", "DEMO", "REAL":
	default:
		return &domain.ConfigError{Field: "trading.mode", Err: fmt.Errorf("unknown mode %q", c.Trading.Mode)}
	}

	if c.Exchange.BaseURL != "" && !strings.HasPrefix(c.Exchange.BaseURL, "https://") && !strings.HasPrefix(c.Exchange.BaseURL, "http://") {
		return &domain.ConfigError{Field: "exchange.base_url", Err: fmt.Errorf("invalid URL %q", c.Exchange.BaseURL)}
	}
	if c.Exchange.RateLimitPerSec <= 0 {
		return &domain.ConfigError{Field: "exchange.rate_limit_per_sec", Err: errors.New("must be positive")}
	}

	return c.ExecutionConfig().Validate()
}

// ExecutionConfig converts the execution section into the domain config.
func (c *Config) ExecutionConfig() domain.ExecutionConfig {
	e := c.Execution
	return domain.ExecutionConfig{
		Enabled:             e.Enabled,
		Timeout:             time.Duration(e.TimeoutMS) * time.Millisecond,
		SlippagePercent:     e.SlippagePercent,
		FallbackToMarket:    e.FallbackToMarket,
		MaxRetries:          e.MaxRetries,
		Category:            e.Category,
		Symbol:              e.Symbol,
		PollInterval:        time.Duration(e.PollIntervalMS) * time.Millisecond,
		RetryBackoff:        time.Duration(e.RetryBackoffMS) * time.Millisecond,
		MakerFeeRate:        e.MakerFeeRate,
		TakerFeeRate:        e.TakerFeeRate,
		PriceLookupAttempts: e.PriceLookupAttempts,
	}
}

// overrideWithEnv는 환경 변수가 존재할 경우 설정 값을 덮어씁니다.
func overrideWithEnv(cfg *Config) {
	if key := os.Getenv("CRYPTO_BYBIT_KEY"); key != "" {
		cfg.Exchange.APIKey = key
	}
	if secret := os.Getenv("CRYPTO_BYBIT_SECRET"); secret != "" {
		cfg.Exchange.SecretKey = secret
	}
	if mode := os.Getenv("CRYPTO_TRADING_MODE"); mode != "" {
		cfg.Trading.Mode = mode
	}
	if level := os.Getenv("CRYPTO_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
}
