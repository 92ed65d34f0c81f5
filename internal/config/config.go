// Package config loads per-binary settings from environment variables.
package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/caarlos0/env/v10"
)

const (
	StorageMemory   = "memory"
	StorageFile     = "file"
	StorageRedis    = "redis"
	StoragePostgres = "postgres"
)

type Metrics struct {
	Enabled bool   `env:"METRICS_ENABLED" envDefault:"true"`
	Token   string `env:"METRICS_TOKEN"`
}

type Catalog struct {
	Port        int    `env:"PORT" envDefault:"8082"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	DatabaseURL string `env:"DATABASE_URL"`
	Metrics     Metrics
}

type Cart struct {
	Port     int    `env:"PORT" envDefault:"8084"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	CatalogURL     string        `env:"CATALOG_URL" envDefault:"http://localhost:8082"`
	CatalogTimeout time.Duration `env:"CATALOG_TIMEOUT" envDefault:"3s"`
	BreakerEnabled bool          `env:"CATALOG_BREAKER" envDefault:"true"`

	Storage    string `env:"CART_STORAGE" envDefault:"file"`
	StorageKey string `env:"CART_STORAGE_KEY" envDefault:"@RocketShoes:cart"`
	FileDir    string `env:"CART_FILE_DIR" envDefault:"./data"`

	RedisAddr     string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB" envDefault:"0"`
	RedisTTL      time.Duration `env:"REDIS_TTL" envDefault:"0s"`

	DatabaseURL string `env:"DATABASE_URL"`

	// MutationsPerMinute is the per-IP cap on cart changes; 0 turns limiting off.
	MutationsPerMinute int `env:"CART_MUTATIONS_PER_MINUTE" envDefault:"120"`

	Metrics Metrics
}

type Gateway struct {
	Port       int    `env:"PORT" envDefault:"8080"`
	LogLevel   string `env:"LOG_LEVEL" envDefault:"info"`
	CatalogURL string `env:"CATALOG_URL" envDefault:"http://catalog:8082"`
	CartURL    string `env:"CART_URL" envDefault:"http://cart:8084"`
	Metrics    Metrics
}

func LoadCatalog() (*Catalog, error) {
	cfg := &Catalog{}
	if err := load(cfg); err != nil {
		return nil, fmt.Errorf("load catalog config: %w", err)
	}
	if err := validatePort(cfg.Port); err != nil {
		return nil, err
	}
	return cfg, nil
}

func LoadCart() (*Cart, error) {
	cfg := &Cart{}
	if err := load(cfg); err != nil {
		return nil, fmt.Errorf("load cart config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func LoadGateway() (*Gateway, error) {
	cfg := &Gateway{}
	if err := load(cfg); err != nil {
		return nil, fmt.Errorf("load gateway config: %w", err)
	}
	if err := validatePort(cfg.Port); err != nil {
		return nil, err
	}
	for _, u := range []string{cfg.CatalogURL, cfg.CartURL} {
		if err := validateURL(u); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func (c *Cart) validate() error {
	if err := validatePort(c.Port); err != nil {
		return err
	}
	if err := validateURL(c.CatalogURL); err != nil {
		return err
	}
	if c.StorageKey == "" {
		return fmt.Errorf("CART_STORAGE_KEY must not be empty")
	}
	if c.CatalogTimeout <= 0 {
		return fmt.Errorf("invalid CATALOG_TIMEOUT: %s", c.CatalogTimeout)
	}
	if c.MutationsPerMinute < 0 {
		return fmt.Errorf("invalid CART_MUTATIONS_PER_MINUTE: %d", c.MutationsPerMinute)
	}

	switch c.Storage {
	case StorageMemory, StorageRedis:
	case StorageFile:
		if c.FileDir == "" {
			return fmt.Errorf("CART_FILE_DIR is required for file storage")
		}
	case StoragePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for postgres storage")
		}
	default:
		return fmt.Errorf("unknown CART_STORAGE: %q", c.Storage)
	}
	return nil
}

func load(cfg any) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

func validatePort(p int) error {
	if p < 1 || p > 65535 {
		return fmt.Errorf("invalid PORT: %d", p)
	}
	return nil
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid upstream url: %q", raw)
	}
	return nil
}
