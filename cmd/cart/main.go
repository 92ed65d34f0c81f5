package main

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"MiniCart/internal/cart"
	"MiniCart/internal/config"
	"MiniCart/internal/kv"
	"MiniCart/internal/notify"
	"MiniCart/pkg/kit"
)

func main() {
	service := "cart"

	cfg, err := config.LoadCart()
	if err != nil {
		kit.NewLogger(service, "info").Fatal("load config failed", zap.Error(err))
	}

	log := kit.NewLogger(service, cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	ctx := context.Background()

	storage, closeStorage, err := openStorage(ctx, cfg)
	if err != nil {
		log.Fatal("open cart storage failed", zap.String("storage", cfg.Storage), zap.Error(err))
	}
	defer closeStorage()
	log.Info("cart storage ready", zap.String("storage", cfg.Storage))

	catalogClient := cart.NewCatalogClient(cfg.CatalogURL, cfg.CatalogTimeout)
	if cfg.BreakerEnabled {
		catalogClient = catalogClient.WithBreaker(cart.DefaultBreakerConfig(), log)
	}

	reg := prometheus.NewRegistry()

	store := cart.NewStore(ctx, cart.Deps{
		Catalog:  catalogClient,
		Storage:  storage,
		Notifier: notify.NewLog(log),
		Log:      log,
		Metrics:  cart.NewMetrics(reg),
		Key:      cfg.StorageKey,
	})

	s := &cart.Server{
		Store: store,
		Log:   log,
		Ping:  storage.Ping,
	}

	h := cart.NewHandler(s, cart.HTTPDeps{
		Log:                log,
		Service:            service,
		Registry:           reg,
		MetricsEnabled:     cfg.Metrics.Enabled,
		MetricsToken:       cfg.Metrics.Token,
		MutationsPerMinute: cfg.MutationsPerMinute,
	})

	if err := kit.RunHTTPServer(ctx, fmt.Sprintf(":%d", cfg.Port), h, log); err != nil {
		log.Fatal("http server stopped", zap.Error(err))
	}
}

func openStorage(ctx context.Context, cfg *config.Cart) (kv.Store, func(), error) {
	switch cfg.Storage {
	case config.StorageMemory:
		return kv.NewMemStore(), func() {}, nil

	case config.StorageFile:
		s, err := kv.NewFileStore(cfg.FileDir)
		if err != nil {
			return nil, nil, err
		}
		return s, func() {}, nil

	case config.StorageRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		s := kv.NewRedisStore(client, cfg.RedisTTL)
		if err := s.Ping(ctx); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("ping redis: %w", err)
		}
		return s, func() { _ = client.Close() }, nil

	case config.StoragePostgres:
		db, err := kit.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return kv.NewPostgresStore(db), func() { _ = db.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unknown storage %q", cfg.Storage)
	}
}
