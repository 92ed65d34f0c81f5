package cart

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const DefaultKey = "@RocketShoes:cart"

const saveTimeout = 5 * time.Second

// Catalog resolves product metadata and current stock by id.
type Catalog interface {
	Product(ctx context.Context, id int) (Product, error)
	Stock(ctx context.Context, id int) (Stock, error)
}

// Storage is where the cart snapshot lives between restarts.
type Storage interface {
	Load(ctx context.Context, key string) ([]byte, bool, error)
	Save(ctx context.Context, key string, value []byte) error
}

// Notifier receives one human-readable message per failed operation.
type Notifier interface {
	Notify(ctx context.Context, msg string)
}

type Deps struct {
	Catalog  Catalog
	Storage  Storage
	Notifier Notifier
	Log      *zap.Logger
	Metrics  *Metrics

	// Key is the storage key of the snapshot; DefaultKey when empty.
	Key string
}

// Store owns the cart. Catalog lookups happen outside the lock; the
// validate, mutate and persist steps of every operation run under mu, so a
// concurrent caller always validates against the latest cart and the stored
// snapshot never lags behind memory.
type Store struct {
	catalog  Catalog
	storage  Storage
	notifier Notifier
	log      *zap.Logger
	metrics  *Metrics
	key      string

	mu      sync.Mutex
	entries []Entry
}

// NewStore builds a Store from the persisted snapshot. A missing, unreadable
// or corrupt snapshot yields an empty cart.
func NewStore(ctx context.Context, deps Deps) *Store {
	s := &Store{
		catalog:  deps.Catalog,
		storage:  deps.Storage,
		notifier: deps.Notifier,
		log:      deps.Log,
		metrics:  deps.Metrics,
		key:      deps.Key,
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.key == "" {
		s.key = DefaultKey
	}

	s.entries = s.load(ctx)
	s.metrics.setItems(s.entries)
	return s
}

func (s *Store) load(ctx context.Context) []Entry {
	data, ok, err := s.storage.Load(ctx, s.key)
	if err != nil {
		s.log.Warn("cart snapshot unreadable, starting empty", zap.String("key", s.key), zap.Error(err))
		return []Entry{}
	}
	if !ok {
		return []Entry{}
	}

	entries, err := DecodeSnapshot(data)
	if err != nil {
		s.log.Warn("cart snapshot corrupt, starting empty", zap.String("key", s.key), zap.Error(err))
		return []Entry{}
	}
	return entries
}

// Items returns a copy of the cart in insertion order.
func (s *Store) Items() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Len is the number of distinct products in the cart.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Quantity reports the amount of productID in the cart, 0 if absent.
func (s *Store) Quantity(productID int) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := indexOf(s.entries, productID); i >= 0 {
		return s.entries[i].Amount
	}
	return 0
}

// AddItem adds one unit of productID. A product not yet in the cart is
// inserted with amount 1 without consulting stock; only increments of an
// existing line are checked against it.
func (s *Store) AddItem(ctx context.Context, productID int) error {
	err := s.addItem(ctx, productID)
	s.finish(ctx, OpAdd, productID, err)
	return err
}

func (s *Store) addItem(ctx context.Context, productID int) error {
	var (
		product Product
		stock   Stock
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := s.catalog.Product(gctx, productID)
		product = p
		return err
	})
	g.Go(func() error {
		st, err := s.catalog.Stock(gctx, productID)
		stock = st
		return err
	})
	if err := g.Wait(); err != nil {
		return newError(OpAdd, KindTransport, productID, err)
	}

	return s.mutate(ctx, func(entries []Entry) ([]Entry, error) {
		if i := indexOf(entries, productID); i >= 0 {
			candidate := entries[i].Amount + 1
			if candidate > stock.Amount {
				return nil, newError(OpAdd, KindOutOfStock, productID,
					fmt.Errorf("want %d, available %d", candidate, stock.Amount))
			}
			entries[i].Amount = candidate
			return entries, nil
		}

		product.ID = productID
		return append(entries, Entry{Product: product, Amount: 1}), nil
	})
}

// RemoveItem drops the line for productID.
func (s *Store) RemoveItem(ctx context.Context, productID int) error {
	err := s.mutate(ctx, func(entries []Entry) ([]Entry, error) {
		i := indexOf(entries, productID)
		if i < 0 {
			return nil, newError(OpRemove, KindNotFound, productID, nil)
		}
		return append(entries[:i], entries[i+1:]...), nil
	})
	s.finish(ctx, OpRemove, productID, err)
	return err
}

// UpdateAmount sets the amount of an existing line to exactly amount.
func (s *Store) UpdateAmount(ctx context.Context, productID, amount int) error {
	err := s.updateAmount(ctx, productID, amount)
	s.finish(ctx, OpUpdate, productID, err)
	return err
}

func (s *Store) updateAmount(ctx context.Context, productID, amount int) error {
	stock, err := s.catalog.Stock(ctx, productID)
	if err != nil {
		return newError(OpUpdate, KindTransport, productID, err)
	}

	return s.mutate(ctx, func(entries []Entry) ([]Entry, error) {
		i := indexOf(entries, productID)
		if i < 0 || amount < 1 {
			return nil, newError(OpUpdate, KindInvalidRequest, productID,
				fmt.Errorf("amount %d", amount))
		}
		if amount > stock.Amount {
			return nil, newError(OpUpdate, KindOutOfStock, productID,
				fmt.Errorf("want %d, available %d", amount, stock.Amount))
		}
		entries[i].Amount = amount
		return entries, nil
	})
}

// mutate applies fn to a private copy of the cart and, if fn succeeds,
// persists the result and swaps it in. A failed fn leaves the cart untouched.
func (s *Store) mutate(ctx context.Context, fn func([]Entry) ([]Entry, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]Entry, len(s.entries), len(s.entries)+1)
	copy(next, s.entries)

	next, err := fn(next)
	if err != nil {
		return err
	}

	s.persist(ctx, next)
	s.entries = next
	s.metrics.setItems(next)
	return nil
}

// persist writes the snapshot. The write is detached from the caller's
// cancellation: once the cart changes in memory the snapshot must follow,
// even if the client has gone away. Storage failures are logged but never
// fail the operation.
func (s *Store) persist(ctx context.Context, entries []Entry) {
	data, err := EncodeSnapshot(entries)
	if err != nil {
		s.log.Error("encode cart snapshot", zap.Error(err))
		return
	}

	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), saveTimeout)
	defer cancel()

	if err := s.storage.Save(sctx, s.key, data); err != nil {
		s.log.Warn("save cart snapshot", zap.String("key", s.key), zap.Error(err))
	}
}

func (s *Store) finish(ctx context.Context, op Op, productID int, err error) {
	s.metrics.observe(op, err)

	if err == nil {
		s.log.Debug("cart updated", zap.String("op", string(op)), zap.Int("product_id", productID))
		return
	}

	s.log.Info("cart operation failed",
		zap.String("op", string(op)),
		zap.Int("product_id", productID),
		zap.String("kind", KindOf(err).String()),
		zap.Error(err),
	)
	if s.notifier != nil {
		s.notifier.Notify(ctx, Message(op, err))
	}
}

// Reject reports input refused before it reached an operation (an
// unparsable id, a malformed body) as an InvalidRequest failure of op, with
// the usual notification.
func (s *Store) Reject(ctx context.Context, op Op, productID int, cause error) error {
	err := newError(op, KindInvalidRequest, productID, cause)
	s.finish(ctx, op, productID, err)
	return err
}
