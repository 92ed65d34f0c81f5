// Package notify provides the sinks that receive user-facing cart failure
// messages.
package notify

import (
	"context"
	"sync"

	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Log writes each message as a warning, tagged with the request id when the
// context carries one.
type Log struct {
	log *zap.Logger
}

func NewLog(log *zap.Logger) *Log {
	if log == nil {
		log = zap.NewNop()
	}
	return &Log{log: log}
}

func (l *Log) Notify(ctx context.Context, msg string) {
	fields := []zap.Field{zap.String("message", msg)}
	if id := chimw.GetReqID(ctx); id != "" {
		fields = append(fields, zap.String("request_id", id))
	}
	l.log.Warn("user notification", fields...)
}

// Recorder keeps every message in order. Safe for concurrent use.
type Recorder struct {
	mu   sync.Mutex
	msgs []string
}

func (r *Recorder) Notify(_ context.Context, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
}

func (r *Recorder) Messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]string, len(r.msgs))
	copy(out, r.msgs)
	return out
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = nil
}

type Func func(ctx context.Context, msg string)

func (f Func) Notify(ctx context.Context, msg string) { f(ctx, msg) }

// Notifier mirrors cart.Notifier so this package does not import cart.
type Notifier interface {
	Notify(ctx context.Context, msg string)
}

// Multi fans a message out to every sink in order.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, msg string) {
	for _, n := range m {
		n.Notify(ctx, msg)
	}
}
