package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/oaramirez/grocerpos/internal/catalog"
	"github.com/oaramirez/grocerpos/internal/checkout"
	"github.com/oaramirez/grocerpos/internal/customers"
	"github.com/oaramirez/grocerpos/internal/diag"
	"github.com/oaramirez/grocerpos/internal/notify"
	"github.com/oaramirez/grocerpos/internal/receipt"
	"github.com/oaramirez/grocerpos/internal/resolver"
	"github.com/oaramirez/grocerpos/internal/terminal"
	"github.com/oaramirez/grocerpos/pkg/config"
	"github.com/oaramirez/grocerpos/pkg/logger"
	"github.com/oaramirez/grocerpos/pkg/metrics"
	"github.com/oaramirez/grocerpos/pkg/posapi"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "pos"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "pos",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithTerminalID(ctx, cfg.App.TerminalID)

	taxRate, err := cfg.POS.TaxRateDecimal()
	if err != nil {
		logg.Error(ctx, "invalid tax rate", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	posMetrics := metrics.NewPOSMetrics(registry)

	apiClient, err := posapi.NewClient(cfg.API, posapi.StaticTokenSource(cfg.API.Token), logg)
	if err != nil {
		logg.Error(ctx, "failed to create backend client", err)
		os.Exit(1)
	}

	cache, err := catalog.NewCache(apiClient, logg, posMetrics)
	if err != nil {
		logg.Error(ctx, "failed to create catalog cache", err)
		os.Exit(1)
	}
	if err := cache.Load(ctx); err != nil {
		logg.Error(ctx, "initial catalog load failed", err)
		os.Exit(1)
	}

	scanResolver, err := resolver.New(cache, apiClient, logg, posMetrics)
	if err != nil {
		logg.Error(ctx, "failed to create resolver", err)
		os.Exit(1)
	}

	customerService, err := customers.NewService(apiClient, logg)
	if err != nil {
		logg.Error(ctx, "failed to create customer service", err)
		os.Exit(1)
	}

	checkoutService, err := checkout.NewService(apiClient, cache, logg, posMetrics)
	if err != nil {
		logg.Error(ctx, "failed to create checkout service", err)
		os.Exit(1)
	}

	if cfg.Diagnostics.Enabled {
		diagServer := diag.NewServer(cfg.Diagnostics, registry, logg)
		go func() {
			if err := diagServer.Start(ctx); err != nil {
				logg.Error(ctx, "diagnostics listener failed", err)
			}
		}()
		defer func() {
			if err := diagServer.Shutdown(context.Background()); err != nil {
				logg.Error(ctx, "diagnostics shutdown failed", err)
			}
		}()
	}

	session := checkout.NewSession(taxRate)
	loop, err := terminal.New(terminal.Config{
		In:        os.Stdin,
		Out:       os.Stdout,
		Session:   session,
		Checkout:  checkoutService,
		Resolver:  scanResolver,
		Catalog:   cache,
		Customers: customerService,
		Renderer:  receipt.NewRenderer(cfg.POS.ReceiptWidth),
		Notifier:  notify.NewWriter(os.Stdout, logg),
		Logger:    logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create terminal loop", err)
		os.Exit(1)
	}

	logg.Info(ctx, "register ready")
	if err := loop.Run(ctx); err != nil && err != context.Canceled {
		logg.Error(ctx, "terminal loop failed", err)
		os.Exit(1)
	}
}
