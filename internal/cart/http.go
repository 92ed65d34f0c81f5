package cart

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"MiniCart/pkg/kit"
)

type Server struct {
	Store *Store
	Log   *zap.Logger

	// Ping reports whether the snapshot storage is reachable; nil means always ready.
	Ping func(ctx context.Context) error
}

type cartView struct {
	Items       []Entry `json:"items"`
	TotalAmount int     `json:"total_amount"`
	TotalCents  int64   `json:"total_cents"`
}

type addReq struct {
	ProductID *int `json:"product_id"`
}

type updateReq struct {
	Amount *int `json:"amount"`
}

func (s *Server) Routes(mutations func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", s.ready)

	r.Get("/cart", s.get)

	r.Group(func(mr chi.Router) {
		if mutations != nil {
			mr.Use(mutations)
		}
		mr.Post("/cart/items", s.add)
		mr.Patch("/cart/items/{id}", s.update)
		mr.Delete("/cart/items/{id}", s.remove)
	})

	return r
}

func (s *Server) ready(w http.ResponseWriter, r *http.Request) {
	if s.Ping == nil {
		w.WriteHeader(http.StatusOK)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 1*time.Second)
	defer cancel()

	if err := s.Ping(ctx); err != nil {
		s.logger().Warn("readyz failed", zap.Error(err))
		kit.WriteError(w, r, http.StatusServiceUnavailable, "not ready", nil)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) get(w http.ResponseWriter, _ *http.Request) {
	s.writeCart(w)
}

func (s *Server) add(w http.ResponseWriter, r *http.Request) {
	var req addReq
	if err := kit.DecodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, OpAdd, s.Store.Reject(r.Context(), OpAdd, 0, err))
		return
	}
	if req.ProductID == nil {
		s.writeError(w, r, OpAdd, s.Store.Reject(r.Context(), OpAdd, 0, errMissingField("product_id")))
		return
	}

	if err := s.Store.AddItem(r.Context(), *req.ProductID); err != nil {
		s.writeError(w, r, OpAdd, err)
		return
	}
	s.writeCart(w)
}

func (s *Server) update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, OpUpdate, s.Store.Reject(r.Context(), OpUpdate, 0, err))
		return
	}

	var req updateReq
	if err := kit.DecodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, OpUpdate, s.Store.Reject(r.Context(), OpUpdate, id, err))
		return
	}
	if req.Amount == nil {
		s.writeError(w, r, OpUpdate, s.Store.Reject(r.Context(), OpUpdate, id, errMissingField("amount")))
		return
	}

	if err := s.Store.UpdateAmount(r.Context(), id, *req.Amount); err != nil {
		s.writeError(w, r, OpUpdate, err)
		return
	}
	s.writeCart(w)
}

func (s *Server) remove(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, OpRemove, s.Store.Reject(r.Context(), OpRemove, 0, err))
		return
	}

	if err := s.Store.RemoveItem(r.Context(), id); err != nil {
		s.writeError(w, r, OpRemove, err)
		return
	}
	s.writeCart(w)
}

func (s *Server) writeCart(w http.ResponseWriter) {
	items := s.Store.Items()
	kit.WriteJSON(w, http.StatusOK, cartView{
		Items:       items,
		TotalAmount: TotalAmount(items),
		TotalCents:  TotalCents(items),
	})
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, op Op, err error) {
	kind := KindOf(err)
	kit.WriteError(w, r, statusFor(kind), Message(op, err), map[string]any{"kind": kind.String()})
}

func statusFor(k Kind) int {
	switch k {
	case KindOutOfStock:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalidRequest:
		return http.StatusBadRequest
	case KindTransport:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

type errMissingField string

func (e errMissingField) Error() string { return string(e) + " required" }

func (s *Server) logger() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}
