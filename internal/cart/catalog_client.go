package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

const maxCatalogBody = 1 << 20

var (
	ErrCatalogNotFound    = errors.New("catalog product not found")
	ErrCatalogBadStatus   = errors.New("catalog bad status")
	ErrCatalogUnavailable = errors.New("catalog unavailable")
)

type BreakerConfig struct {
	Name                string
	MaxRequests         uint32
	Interval            time.Duration
	Timeout             time.Duration
	ConsecutiveFailures uint32
}

func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Name:                "catalog",
		MaxRequests:         1,
		Interval:            60 * time.Second,
		Timeout:             30 * time.Second,
		ConsecutiveFailures: 5,
	}
}

// CatalogClient talks to the catalog service over HTTP. It never retries.
type CatalogClient struct {
	BaseURL string
	Client  *http.Client

	breaker *gobreaker.CircuitBreaker[[]byte]
}

func NewCatalogClient(baseURL string, timeout time.Duration) *CatalogClient {
	if u, err := url.Parse(baseURL); err == nil && u.Scheme != "" && u.Host != "" {
		baseURL = strings.TrimRight(baseURL, "/")
	}
	return &CatalogClient{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: timeout},
	}
}

// WithBreaker routes every request through a circuit breaker. A 404 is an
// answer, not a failure, and does not count towards tripping it.
func (c *CatalogClient) WithBreaker(cfg BreakerConfig, log *zap.Logger) *CatalogClient {
	if log == nil {
		log = zap.NewNop()
	}

	c.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrCatalogNotFound)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	return c
}

// BreakerState reports the breaker state, StateClosed when none is configured.
func (c *CatalogClient) BreakerState() gobreaker.State {
	if c.breaker == nil {
		return gobreaker.StateClosed
	}
	return c.breaker.State()
}

func (c *CatalogClient) Product(ctx context.Context, id int) (Product, error) {
	var p Product
	if err := c.getJSON(ctx, fmt.Sprintf("/products/%d", id), &p); err != nil {
		return Product{}, err
	}
	return p, nil
}

func (c *CatalogClient) Stock(ctx context.Context, id int) (Stock, error) {
	var st Stock
	if err := c.getJSON(ctx, fmt.Sprintf("/stock/%d", id), &st); err != nil {
		return Stock{}, err
	}
	return st, nil
}

func (c *CatalogClient) getJSON(ctx context.Context, path string, out any) error {
	body, err := c.fetch(ctx, path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (c *CatalogClient) fetch(ctx context.Context, path string) ([]byte, error) {
	if c.breaker == nil {
		return c.do(ctx, path)
	}

	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.do(ctx, path)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}
	return body, err
}

func (c *CatalogClient) do(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, ErrCatalogNotFound
	default:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: status=%d", ErrCatalogBadStatus, resp.StatusCode)
	}

	return io.ReadAll(io.LimitReader(resp.Body, maxCatalogBody))
}
