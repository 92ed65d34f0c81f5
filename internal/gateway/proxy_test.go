package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"MiniCart/pkg/kit"
)

func TestForwardRequestID(t *testing.T) {
	var got string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get(requestIDHeader)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(upstream.Close)

	p, err := NewReverseProxy(upstream.URL, zap.NewNop())
	if err != nil {
		t.Fatalf("NewReverseProxy: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	req = req.WithContext(context.WithValue(req.Context(), chimw.RequestIDKey, "gw-42"))
	w := httptest.NewRecorder()

	ForwardRequestID(p).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if got != "gw-42" {
		t.Fatalf("upstream request id=%q", got)
	}
}

func TestReverseProxy_UpstreamDown(t *testing.T) {
	upstream := httptest.NewServer(http.NotFoundHandler())
	target := upstream.URL
	upstream.Close()

	p, err := NewReverseProxy(target, nil)
	if err != nil {
		t.Fatalf("NewReverseProxy: %v", err)
	}

	w := httptest.NewRecorder()
	p.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/cart", nil))

	if w.Code != http.StatusBadGateway {
		t.Fatalf("status=%d", w.Code)
	}

	var body kit.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error != "upstream unavailable" {
		t.Fatalf("error=%q", body.Error)
	}
}
