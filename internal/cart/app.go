package cart

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"MiniCart/pkg/kit"
)

const mutationWindow = time.Minute

type HTTPDeps struct {
	Log      *zap.Logger
	Service  string
	Registry *prometheus.Registry

	MetricsEnabled bool
	MetricsToken   string

	// MutationsPerMinute caps add/update/remove calls per client IP; 0 disables it.
	MutationsPerMinute int
}

func NewHandler(s *Server, deps HTTPDeps) http.Handler {
	r := kit.NewServiceRouter(kit.ServiceDeps{
		Log:            deps.Log,
		Service:        deps.Service,
		Registry:       deps.Registry,
		MetricsEnabled: deps.MetricsEnabled,
		MetricsToken:   deps.MetricsToken,
	})

	var limit func(http.Handler) http.Handler
	if deps.MutationsPerMinute > 0 {
		limit = kit.NewIPRateLimiter(deps.MutationsPerMinute, mutationWindow).Middleware
	}

	r.Mount("/", s.Routes(limit))
	return r
}
