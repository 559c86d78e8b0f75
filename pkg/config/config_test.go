package config

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestLoad_Success(t *testing.T) {
	setMinimalEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if cfg.App.Env != "production" {
		t.Fatalf("expected App.Env to be production, got %q", cfg.App.Env)
	}

	if cfg.API.BaseURL != "http://127.0.0.1:8000/api/v1" {
		t.Fatalf("unexpected API base URL: %q", cfg.API.BaseURL)
	}

	rate, err := cfg.POS.TaxRateDecimal()
	if err != nil {
		t.Fatalf("tax rate parse failed: %v", err)
	}
	if !rate.Equal(decimal.RequireFromString("0.05")) {
		t.Fatalf("expected default tax rate 0.05, got %s", rate)
	}

	if cfg.Diagnostics.Addr != ":9464" {
		t.Fatalf("unexpected diagnostics addr %q", cfg.Diagnostics.Addr)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvAPIBaseURL, "")

	if _, err := Load(); err == nil {
		t.Fatal("expected missing required env to return an error")
	}
}

func TestLoad_RejectsBadTaxRate(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvTaxRate, "-0.05")

	if _, err := Load(); err == nil {
		t.Fatal("expected negative tax rate to be rejected")
	}

	t.Setenv(EnvTaxRate, "five percent")
	if _, err := Load(); err == nil {
		t.Fatal("expected unparseable tax rate to be rejected")
	}
}

func setMinimalEnv(t *testing.T) {
	t.Helper()

	t.Setenv(EnvAppEnv, "production")
	t.Setenv(EnvAPIBaseURL, "http://127.0.0.1:8000/api/v1")
	t.Setenv(EnvAPIToken, "token-123")
}

func TestAppConfigEnvHelpers(t *testing.T) {
	devConfig := AppConfig{Env: "DEV"}
	if !devConfig.IsDev() {
		t.Fatalf("expected IsDev true for %q", devConfig.Env)
	}
	if devConfig.IsProd() {
		t.Fatalf("expected IsProd false for %q", devConfig.Env)
	}

	prodConfig := AppConfig{Env: "production"}
	if !prodConfig.IsProd() {
		t.Fatalf("expected IsProd true for %q", prodConfig.Env)
	}
	if prodConfig.IsDev() {
		t.Fatalf("expected IsDev false for %q", prodConfig.Env)
	}
}
