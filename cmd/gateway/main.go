package main

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"MiniCart/internal/config"
	"MiniCart/internal/gateway"
	"MiniCart/pkg/kit"
)

func main() {
	service := "gateway"

	cfg, err := config.LoadGateway()
	if err != nil {
		kit.NewLogger(service, "info").Fatal("load config failed", zap.Error(err))
	}

	log := kit.NewLogger(service, cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	deps := gateway.Deps{
		CatalogURL: cfg.CatalogURL,
		CartURL:    cfg.CartURL,
	}

	reg := prometheus.NewRegistry()
	h, err := gateway.NewHandler(deps, gateway.HTTPDeps{
		Log:            log,
		Service:        service,
		Registry:       reg,
		MetricsEnabled: cfg.Metrics.Enabled,
		MetricsToken:   cfg.Metrics.Token,
	})
	if err != nil {
		log.Fatal("init gateway handler failed", zap.Error(err))
	}

	if err := kit.RunHTTPServer(context.Background(), fmt.Sprintf(":%d", cfg.Port), h, log); err != nil {
		log.Fatal("http server stopped", zap.Error(err))
	}
}
