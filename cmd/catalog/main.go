package main

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"MiniCart/internal/catalog"
	"MiniCart/internal/config"
	"MiniCart/pkg/kit"
)

func main() {
	service := "catalog"

	cfg, err := config.LoadCatalog()
	if err != nil {
		kit.NewLogger(service, "info").Fatal("load config failed", zap.Error(err))
	}

	log := kit.NewLogger(service, cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	ctx := context.Background()

	store := catalog.NewStore()
	if cfg.DatabaseURL != "" {
		db, err := kit.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatal("open postgres failed", zap.Error(err))
		}
		defer func() { _ = db.Close() }()

		store = catalog.NewPostgresStore(db)
		log.Info("catalog store: postgres")
	} else {
		log.Info("catalog store: memory")
	}

	reg := prometheus.NewRegistry()
	h := catalog.NewHandler(&catalog.Server{Store: store, Log: log}, catalog.HTTPDeps{
		Log:            log,
		Service:        service,
		Registry:       reg,
		MetricsEnabled: cfg.Metrics.Enabled,
		MetricsToken:   cfg.Metrics.Token,
	})

	if err := kit.RunHTTPServer(ctx, fmt.Sprintf(":%d", cfg.Port), h, log); err != nil {
		log.Fatal("http server stopped", zap.Error(err))
	}
}
