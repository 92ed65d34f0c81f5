package gateway

import (
	"net/http"
	"net/http/httputil"
	"net/url"

	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"MiniCart/pkg/kit"
)

const requestIDHeader = "X-Request-Id"

// NewReverseProxy forwards to target and answers 502 when the upstream is unreachable.
func NewReverseProxy(target string, log *zap.Logger) (*httputil.ReverseProxy, error) {
	u, err := url.Parse(target)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}

	p := httputil.NewSingleHostReverseProxy(u)
	p.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		log.Warn("upstream failed",
			zap.String("upstream", u.Host),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		kit.WriteError(w, r, http.StatusBadGateway, "upstream unavailable", nil)
	}
	return p, nil
}

// ForwardRequestID passes the gateway's request id to the upstream service.
func ForwardRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := chimw.GetReqID(r.Context()); id != "" {
			r.Header.Set(requestIDHeader, id)
		}
		next.ServeHTTP(w, r)
	})
}
