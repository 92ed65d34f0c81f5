package kit

import (
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// ServiceDeps is the wiring every HTTP service shares.
type ServiceDeps struct {
	Log      *zap.Logger
	Service  string
	Registry *prometheus.Registry

	MetricsEnabled bool
	MetricsToken   string
}

// NewServiceRouter returns a router with request ids, panic recovery and
// request logging. With a Registry it also records HTTP metrics and, when
// enabled, serves them on /metrics behind MetricsAuth.
func NewServiceRouter(deps ServiceDeps) *chi.Mux {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(Recoverer)
	r.Use(Logging(deps.Log))

	if deps.Registry == nil {
		return r
	}

	metrics := NewMetrics(deps.Registry)
	r.Use(metrics.Middleware(deps.Service, ChiRoutePatternOrPath))

	if deps.MetricsEnabled {
		r.With(MetricsAuth(deps.MetricsToken)).
			Handle("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}
	return r
}
