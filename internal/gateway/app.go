package gateway

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"MiniCart/pkg/kit"
)

type HTTPDeps = kit.ServiceDeps

type Deps struct {
	CatalogURL string
	CartURL    string
}

const (
	readyTimeout      = 2 * time.Second
	readyProbeTimeout = 700 * time.Millisecond
)

var readyClient = &http.Client{
	Transport: &http.Transport{
		MaxIdleConns:        50,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     30 * time.Second,
	},
}

func NewHandler(deps Deps, httpDeps HTTPDeps) (http.Handler, error) {
	catalogProxy, cartProxy, err := buildProxies(deps, httpDeps.Log)
	if err != nil {
		return nil, err
	}

	r := kit.NewServiceRouter(httpDeps)

	r.Get("/healthz", healthz)
	r.Get("/readyz", readyz(deps, httpDeps.Log))

	r.Group(func(pr chi.Router) {
		pr.Use(ForwardRequestID)

		pr.Handle("/products", catalogProxy)
		pr.Handle("/products/*", catalogProxy)
		pr.Handle("/stock/*", catalogProxy)

		pr.Handle("/cart", cartProxy)
		pr.Handle("/cart/*", cartProxy)
	})

	return r, nil
}

func buildProxies(deps Deps, log *zap.Logger) (catalogProxy, cartProxy http.Handler, err error) {
	cp, err := NewReverseProxy(deps.CatalogURL, log)
	if err != nil {
		return nil, nil, err
	}

	kp, err := NewReverseProxy(deps.CartURL, log)
	if err != nil {
		return nil, nil, err
	}

	return cp, kp, nil
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func readyz(deps Deps, log *zap.Logger) http.HandlerFunc {
	upstreams := []struct {
		name string
		url  string
	}{
		{"catalog", deps.CatalogURL},
		{"cart", deps.CartURL},
	}

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		for _, u := range upstreams {
			if err := checkReady(ctx, u.url+"/readyz"); err != nil {
				if log != nil {
					log.Warn("readyz failed: "+u.name, zap.Error(err))
				}
				kit.WriteError(w, r, http.StatusServiceUnavailable, u.name+" not ready", nil)
				return
			}
		}

		w.WriteHeader(http.StatusOK)
	}
}

func checkReady(ctx context.Context, url string) error {
	cctx, cancel := context.WithTimeout(ctx, readyProbeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(cctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := readyClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status=%d", resp.StatusCode)
	}

	return nil
}
