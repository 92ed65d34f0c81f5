package catalog

import (
	"net/http"

	"MiniCart/pkg/kit"
)

type HTTPDeps = kit.ServiceDeps

// NewHandler serves the catalog routes under the shared service middleware.
func NewHandler(s *Server, deps HTTPDeps) http.Handler {
	r := kit.NewServiceRouter(deps)
	r.Mount("/", s.Routes())
	return r
}
