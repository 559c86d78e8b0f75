package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App         AppConfig
	API         APIConfig
	POS         POSConfig
	Diagnostics DiagnosticsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if _, err := cfg.POS.TaxRateDecimal(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"GROCERPOS_APP_ENV" required:"true"`
	LogLevel     string `envconfig:"GROCERPOS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"GROCERPOS_LOG_WARN_STACK" default:"false"`
	TerminalID   string `envconfig:"GROCERPOS_TERMINAL_ID" default:"pos-1"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type APIConfig struct {
	BaseURL string        `envconfig:"GROCERPOS_API_BASE_URL" required:"true"`
	Token   string        `envconfig:"GROCERPOS_API_TOKEN"`
	Timeout time.Duration `envconfig:"GROCERPOS_API_TIMEOUT" default:"10s"`
}

type POSConfig struct {
	TaxRate      string `envconfig:"GROCERPOS_TAX_RATE" default:"0.05"`
	ReceiptWidth int    `envconfig:"GROCERPOS_RECEIPT_WIDTH" default:"40"`
}

// TaxRateDecimal parses the configured tax rate and rejects negative values.
func (p POSConfig) TaxRateDecimal() (decimal.Decimal, error) {
	rate, err := decimal.NewFromString(strings.TrimSpace(p.TaxRate))
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing tax rate %q: %w", p.TaxRate, err)
	}
	if rate.IsNegative() {
		return decimal.Zero, fmt.Errorf("tax rate must be non-negative, got %s", rate)
	}
	return rate, nil
}

type DiagnosticsConfig struct {
	Enabled bool   `envconfig:"GROCERPOS_DIAG_ENABLED" default:"true"`
	Addr    string `envconfig:"GROCERPOS_DIAG_ADDR" default:":9464"`
}
