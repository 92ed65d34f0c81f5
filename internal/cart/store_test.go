package cart

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"MiniCart/internal/kv"
	"MiniCart/internal/notify"
)

type fakeCatalog struct {
	mu         sync.Mutex
	stock      map[int]int
	productErr error
	stockErr   error

	productCalls atomic.Int32
	stockCalls   atomic.Int32
}

func newFakeCatalog(stock map[int]int) *fakeCatalog {
	return &fakeCatalog{stock: stock}
}

func (c *fakeCatalog) Product(_ context.Context, id int) (Product, error) {
	c.productCalls.Add(1)
	if c.productErr != nil {
		return Product{}, c.productErr
	}
	return Product{ID: id, Title: "Tênis", PriceCents: 17990, Image: "tenis.jpg"}, nil
}

func (c *fakeCatalog) Stock(_ context.Context, id int) (Stock, error) {
	c.stockCalls.Add(1)
	if c.stockErr != nil {
		return Stock{}, c.stockErr
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return Stock{ID: id, Amount: c.stock[id]}, nil
}

type failingStorage struct {
	kv.Store
	saveErr error
}

func (s failingStorage) Save(context.Context, string, []byte) error { return s.saveErr }

type testEnv struct {
	store    *Store
	catalog  *fakeCatalog
	kv       *kv.MemStore
	notified *notify.Recorder
}

func newTestEnv(t *testing.T, stock map[int]int, seed []Entry) *testEnv {
	t.Helper()

	mem := kv.NewMemStore()
	if seed != nil {
		data, err := EncodeSnapshot(seed)
		require.NoError(t, err)
		require.NoError(t, mem.Save(context.Background(), DefaultKey, data))
	}

	env := &testEnv{
		catalog:  newFakeCatalog(stock),
		kv:       mem,
		notified: &notify.Recorder{},
	}
	env.store = NewStore(context.Background(), Deps{
		Catalog:  env.catalog,
		Storage:  mem,
		Notifier: env.notified,
		Log:      zap.NewNop(),
	})
	return env
}

func (e *testEnv) persisted(t *testing.T) []Entry {
	t.Helper()

	data, ok, err := e.kv.Load(context.Background(), DefaultKey)
	require.NoError(t, err)
	require.True(t, ok, "snapshot not persisted")

	entries, err := DecodeSnapshot(data)
	require.NoError(t, err)
	return entries
}

func entry(id, amount int) Entry {
	return Entry{Product: Product{ID: id, Title: "Tênis", PriceCents: 17990, Image: "tenis.jpg"}, Amount: amount}
}

// ---------------------------------------------------------------------------
// AddItem
// ---------------------------------------------------------------------------

func TestAddItem_NewProduct(t *testing.T) {
	env := newTestEnv(t, map[int]int{1: 5}, nil)

	require.NoError(t, env.store.AddItem(context.Background(), 1))

	assert.Equal(t, []Entry{entry(1, 1)}, env.store.Items())
	assert.Equal(t, env.store.Items(), env.persisted(t))
	assert.Empty(t, env.notified.Messages())
	assert.Equal(t, int32(1), env.catalog.productCalls.Load())
	assert.Equal(t, int32(1), env.catalog.stockCalls.Load())
}

func TestAddItem_NewProductIgnoresStock(t *testing.T) {
	env := newTestEnv(t, map[int]int{1: 0}, nil)

	require.NoError(t, env.store.AddItem(context.Background(), 1))
	assert.Equal(t, 1, env.store.Quantity(1))
}

func TestAddItem_IncrementsExisting(t *testing.T) {
	env := newTestEnv(t, map[int]int{1: 5, 2: 5}, []Entry{entry(2, 1), entry(1, 2)})

	require.NoError(t, env.store.AddItem(context.Background(), 1))

	assert.Equal(t, []Entry{entry(2, 1), entry(1, 3)}, env.store.Items())
	assert.Equal(t, env.store.Items(), env.persisted(t))
}

func TestAddItem_AtStockLimit(t *testing.T) {
	env := newTestEnv(t, map[int]int{1: 5}, []Entry{entry(1, 5)})

	err := env.store.AddItem(context.Background(), 1)

	require.Error(t, err)
	assert.Equal(t, KindOutOfStock, KindOf(err))
	assert.ErrorIs(t, err, ErrOutOfStock)
	assert.Equal(t, []Entry{entry(1, 5)}, env.store.Items())
	assert.Equal(t, []Entry{entry(1, 5)}, env.persisted(t))
	assert.Equal(t, []string{MsgOutOfStock}, env.notified.Messages())
}

func TestAddItem_CatalogFailure(t *testing.T) {
	boom := errors.New("connection refused")

	tests := []struct {
		name   string
		breakF func(c *fakeCatalog)
	}{
		{name: "product lookup", breakF: func(c *fakeCatalog) { c.productErr = boom }},
		{name: "stock lookup", breakF: func(c *fakeCatalog) { c.stockErr = boom }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, map[int]int{1: 5}, []Entry{entry(1, 1)})
			tt.breakF(env.catalog)

			err := env.store.AddItem(context.Background(), 1)

			require.Error(t, err)
			assert.Equal(t, KindTransport, KindOf(err))
			assert.ErrorIs(t, err, ErrTransport)
			assert.ErrorIs(t, err, boom)
			assert.Equal(t, []Entry{entry(1, 1)}, env.store.Items())
			assert.Equal(t, []string{MsgAddFailed}, env.notified.Messages())
		})
	}
}

// ---------------------------------------------------------------------------
// RemoveItem
// ---------------------------------------------------------------------------

func TestRemoveItem(t *testing.T) {
	env := newTestEnv(t, nil, []Entry{entry(2, 1)})

	require.NoError(t, env.store.RemoveItem(context.Background(), 2))

	assert.Empty(t, env.store.Items())
	assert.Empty(t, env.persisted(t))
	assert.Zero(t, env.catalog.stockCalls.Load())
	assert.Zero(t, env.catalog.productCalls.Load())
}

func TestRemoveItem_KeepsOrder(t *testing.T) {
	env := newTestEnv(t, nil, []Entry{entry(1, 1), entry(2, 2), entry(3, 3)})

	require.NoError(t, env.store.RemoveItem(context.Background(), 2))
	assert.Equal(t, []Entry{entry(1, 1), entry(3, 3)}, env.store.Items())
}

func TestRemoveItem_NotInCart(t *testing.T) {
	env := newTestEnv(t, nil, []Entry{entry(1, 1)})

	err := env.store.RemoveItem(context.Background(), 9)

	require.Error(t, err)
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, []Entry{entry(1, 1)}, env.store.Items())
	assert.Equal(t, []string{MsgRemoveFailed}, env.notified.Messages())
}

// ---------------------------------------------------------------------------
// UpdateAmount
// ---------------------------------------------------------------------------

func TestUpdateAmount_SetsAbsoluteValue(t *testing.T) {
	for _, amount := range []int{1, 2, 3} {
		env := newTestEnv(t, map[int]int{1: 3}, []Entry{entry(1, 2)})

		require.NoError(t, env.store.UpdateAmount(context.Background(), 1, amount))
		assert.Equal(t, amount, env.store.Quantity(1))
		assert.Equal(t, env.store.Items(), env.persisted(t))
	}
}

func TestUpdateAmount_NonPositive(t *testing.T) {
	for _, amount := range []int{0, -1, -100} {
		env := newTestEnv(t, map[int]int{1: 3}, []Entry{entry(1, 2)})

		err := env.store.UpdateAmount(context.Background(), 1, amount)

		require.Error(t, err)
		assert.Equal(t, KindInvalidRequest, KindOf(err))
		assert.Equal(t, 2, env.store.Quantity(1))
		assert.Equal(t, []string{MsgUpdateFailed}, env.notified.Messages())
	}
}

func TestUpdateAmount_NotInCart(t *testing.T) {
	env := newTestEnv(t, map[int]int{1: 3, 2: 3}, []Entry{entry(1, 2)})

	err := env.store.UpdateAmount(context.Background(), 2, 1)

	require.Error(t, err)
	assert.Equal(t, KindInvalidRequest, KindOf(err))
	assert.Equal(t, []Entry{entry(1, 2)}, env.store.Items())
	assert.Equal(t, []string{MsgUpdateFailed}, env.notified.Messages())
}

func TestUpdateAmount_OverStock(t *testing.T) {
	env := newTestEnv(t, map[int]int{1: 3}, []Entry{entry(1, 2)})

	err := env.store.UpdateAmount(context.Background(), 1, 10)

	require.Error(t, err)
	assert.Equal(t, KindOutOfStock, KindOf(err))
	assert.Equal(t, []Entry{entry(1, 2)}, env.store.Items())
	assert.Equal(t, []string{MsgOutOfStock}, env.notified.Messages())
}

func TestUpdateAmount_CatalogFailure(t *testing.T) {
	env := newTestEnv(t, nil, []Entry{entry(1, 2)})
	env.catalog.stockErr = ErrCatalogUnavailable

	err := env.store.UpdateAmount(context.Background(), 1, 0)

	require.Error(t, err)
	assert.Equal(t, KindTransport, KindOf(err))
	assert.Equal(t, []string{MsgUpdateFailed}, env.notified.Messages())
}

// ---------------------------------------------------------------------------
// Lifecycle & persistence
// ---------------------------------------------------------------------------

func TestNewStore_CorruptSnapshotStartsEmpty(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)

	mem := kv.NewMemStore()
	require.NoError(t, mem.Save(context.Background(), DefaultKey, []byte("{not json")))

	s := NewStore(context.Background(), Deps{
		Catalog: newFakeCatalog(nil),
		Storage: mem,
		Log:     zap.New(core),
	})

	assert.Empty(t, s.Items())
	assert.Equal(t, 1, logs.FilterMessage("cart snapshot corrupt, starting empty").Len())
}

func TestNewStore_UnreadableStorageStartsEmpty(t *testing.T) {
	s := NewStore(context.Background(), Deps{
		Catalog: newFakeCatalog(nil),
		Storage: loadErrStorage{},
	})
	assert.Empty(t, s.Items())
}

type loadErrStorage struct{}

func (loadErrStorage) Load(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("disk on fire")
}
func (loadErrStorage) Save(context.Context, string, []byte) error { return nil }

func TestNewStore_CustomKey(t *testing.T) {
	mem := kv.NewMemStore()
	s := NewStore(context.Background(), Deps{
		Catalog: newFakeCatalog(map[int]int{4: 1}),
		Storage: mem,
		Key:     "shop:cart",
	})

	require.NoError(t, s.AddItem(context.Background(), 4))

	_, ok, err := mem.Load(context.Background(), "shop:cart")
	require.NoError(t, err)
	assert.True(t, ok)

	reopened := NewStore(context.Background(), Deps{Catalog: newFakeCatalog(nil), Storage: mem, Key: "shop:cart"})
	assert.Equal(t, s.Items(), reopened.Items())
}

func TestSaveFailureDoesNotFailOperation(t *testing.T) {
	s := NewStore(context.Background(), Deps{
		Catalog:  newFakeCatalog(map[int]int{1: 5}),
		Storage:  failingStorage{Store: kv.NewMemStore(), saveErr: errors.New("quota exceeded")},
		Notifier: &notify.Recorder{},
	})

	require.NoError(t, s.AddItem(context.Background(), 1))
	assert.Equal(t, 1, s.Quantity(1))
}

// cancellingCatalog cancels the caller's context as soon as it answers, the
// way a client disconnecting right after the catalog round-trip would.
type cancellingCatalog struct {
	*fakeCatalog
	cancel context.CancelFunc
}

func (c cancellingCatalog) Product(ctx context.Context, id int) (Product, error) {
	defer c.cancel()
	return c.fakeCatalog.Product(ctx, id)
}

func (c cancellingCatalog) Stock(ctx context.Context, id int) (Stock, error) {
	defer c.cancel()
	return c.fakeCatalog.Stock(ctx, id)
}

func TestSnapshotSavedAfterCallerCancels(t *testing.T) {
	files, err := kv.NewFileStore(t.TempDir())
	require.NoError(t, err)

	seed, err := EncodeSnapshot([]Entry{entry(1, 1)})
	require.NoError(t, err)
	require.NoError(t, files.Save(context.Background(), DefaultKey, seed))

	tests := []struct {
		name string
		run  func(ctx context.Context, s *Store) error
		want int
	}{
		{name: "update", run: func(ctx context.Context, s *Store) error { return s.UpdateAmount(ctx, 1, 4) }, want: 4},
		{name: "add", run: func(ctx context.Context, s *Store) error { return s.AddItem(ctx, 1) }, want: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			s := NewStore(context.Background(), Deps{
				Catalog:  cancellingCatalog{fakeCatalog: newFakeCatalog(map[int]int{1: 10}), cancel: cancel},
				Storage:  files,
				Notifier: &notify.Recorder{},
			})

			require.NoError(t, tt.run(ctx, s))
			require.Error(t, ctx.Err())

			data, ok, err := files.Load(context.Background(), DefaultKey)
			require.NoError(t, err)
			require.True(t, ok)
			persisted, err := DecodeSnapshot(data)
			require.NoError(t, err)

			assert.Equal(t, tt.want, s.Quantity(1))
			assert.Equal(t, s.Items(), persisted)
		})
	}
}

func TestItemsReturnsCopy(t *testing.T) {
	env := newTestEnv(t, nil, []Entry{entry(1, 1)})

	items := env.store.Items()
	items[0].Amount = 99

	assert.Equal(t, 1, env.store.Quantity(1))
	assert.Equal(t, 1, env.store.Len())
}

func TestReject(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	err := env.store.Reject(context.Background(), OpAdd, 0, errors.New("bad json"))

	assert.Equal(t, KindInvalidRequest, KindOf(err))
	assert.Equal(t, []string{MsgAddFailed}, env.notified.Messages())
}

// ---------------------------------------------------------------------------
// Concurrency & metrics
// ---------------------------------------------------------------------------

func TestConcurrentAddsDoNotLoseUpdates(t *testing.T) {
	const n = 40
	env := newTestEnv(t, map[int]int{1: n + 1}, []Entry{entry(1, 1)})

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, env.store.AddItem(context.Background(), 1))
		}()
	}
	wg.Wait()

	assert.Equal(t, n+1, env.store.Quantity(1))
	assert.Equal(t, env.store.Items(), env.persisted(t))
}

func TestConcurrentAddsRespectStock(t *testing.T) {
	env := newTestEnv(t, map[int]int{1: 5}, []Entry{entry(1, 1)})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = env.store.AddItem(context.Background(), 1)
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, env.store.Quantity(1))
	assert.Len(t, env.notified.Messages(), 16)
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	s := NewStore(context.Background(), Deps{
		Catalog: newFakeCatalog(map[int]int{1: 1}),
		Storage: kv.NewMemStore(),
		Metrics: m,
	})

	require.NoError(t, s.AddItem(context.Background(), 1))
	require.Error(t, s.AddItem(context.Background(), 1))
	require.Error(t, s.RemoveItem(context.Background(), 2))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Operations.WithLabelValues("add", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Operations.WithLabelValues("add", "out_of_stock")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Operations.WithLabelValues("remove", "not_found")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Items))
}
