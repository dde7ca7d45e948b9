package featcache

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hupe1980/featcache/core"
	"github.com/hupe1980/featcache/devmem"
	"github.com/hupe1980/featcache/featstore"
	"github.com/hupe1980/featcache/graph"
	"github.com/hupe1980/featcache/model"
	"github.com/hupe1980/featcache/testutil"
)

const (
	featuresField = model.FieldName("features")
	normField     = model.FieldName("norm")
)

// newTestStore builds a 6-node store where features[id] = [id, 2id, 3id]
// and norm[id] = [id], so any gathered row identifies its node.
func newTestStore(t *testing.T) *featstore.MemoryStore {
	t.Helper()

	schema, err := model.NewSchema(
		model.FieldSpec{Name: featuresField, Dim: 3},
		model.FieldSpec{Name: normField, Dim: 1},
	)
	require.NoError(t, err)

	store := featstore.NewMemoryStore(schema, 6)
	for id := 0; id < 6; id++ {
		f := float32(id)
		require.NoError(t, store.SetRow(featuresField, core.GlobalID(id), []float32{f, 2 * f, 3 * f}))
		require.NoError(t, store.SetRow(normField, core.GlobalID(id), []float32{f}))
	}
	return store
}

// newTestPartition gives out-degrees 3,0,5,1,2,0 with identity global ids,
// so degree placement at capacity 2 selects nodes 2 then 0.
func newTestPartition() *graph.Partition {
	return testutil.DegreePartition([]int{3, 0, 5, 1, 2, 0})
}

// countingStore wraps a Store and counts Fetch calls.
type countingStore struct {
	featstore.Store
	calls atomic.Int64
}

func (c *countingStore) Fetch(ctx context.Context, ids []core.GlobalID, fields []model.FieldName) (model.Frame, error) {
	c.calls.Add(1)
	return c.Store.Fetch(ctx, ids, fields)
}

func requireRow(t *testing.T, frame model.Frame, row int, id core.LocalID) {
	t.Helper()
	f := float32(id)
	require.Equal(t, []float32{f, 2 * f, 3 * f}, frame[featuresField].Row(row))
	require.Equal(t, []float32{f}, frame[normField].Row(row))
}

func TestCache_Lifecycle(t *testing.T) {
	ctx := context.Background()
	store := &countingStore{Store: newTestStore(t)}
	part := newTestPartition()

	// Room for exactly 2 rows: totalDim 4, 16 bytes per row.
	mem := devmem.Static{Total: 32, Peak: 0}
	metrics := &BasicMetricsCollector{}
	cache := New(store, part, mem,
		WithHeadroom(0),
		WithMetrics(metrics),
	)

	require.NoError(t, cache.InitFields(ctx, featuresField, normField))
	require.Equal(t, 4, cache.Schema().TotalDim())

	require.NoError(t, cache.AutoCache(ctx))

	stats := cache.Stats()
	require.Equal(t, 6, stats.NumNodes)
	require.Equal(t, 2, stats.CachedNodes)
	require.Equal(t, 2, stats.Capacity)
	require.False(t, stats.FullyCached)
	require.Equal(t, int64(32), stats.DeviceBytes)

	// Nodes 2 and 0 (highest out-degree) are device-resident.
	sr, err := graph.NewSamplingResult(
		[]core.LocalID{4, 0, 2},
		[]core.LocalID{5, 1},
	)
	require.NoError(t, err)

	callsBefore := store.calls.Load()
	require.NoError(t, cache.Fetch(ctx, sr))

	// Rows come back in request order regardless of residency.
	layer0 := sr.LayerFrame(0)
	requireRow(t, layer0, 0, 4)
	requireRow(t, layer0, 1, 0)
	requireRow(t, layer0, 2, 2)

	layer1 := sr.LayerFrame(1)
	requireRow(t, layer1, 0, 5)
	requireRow(t, layer1, 1, 1)

	// One store round trip per layer for the host-resident remainder.
	require.Equal(t, callsBefore+2, store.calls.Load())

	require.Equal(t, int64(2), metrics.DeviceRows.Load())
	require.Equal(t, int64(3), metrics.HostRows.Load())
	require.InDelta(t, 0.4, metrics.HitRate(), 1e-9)
}

func TestCache_FullyCachedFastPath(t *testing.T) {
	ctx := context.Background()
	store := &countingStore{Store: newTestStore(t)}
	part := newTestPartition()

	cache := New(store, part, devmem.Static{Total: 1 << 20, Peak: 0}, WithHeadroom(0))

	require.NoError(t, cache.InitFields(ctx, featuresField, normField))
	require.NoError(t, cache.AutoCache(ctx))
	require.True(t, cache.Stats().FullyCached)
	require.Equal(t, 6, cache.Stats().CachedNodes)

	sr, err := graph.NewSamplingResult([]core.LocalID{5, 3, 1, 0, 2, 4})
	require.NoError(t, err)

	callsBefore := store.calls.Load()
	require.NoError(t, cache.Fetch(ctx, sr))

	// Every row served from device memory, no store round trip.
	require.Equal(t, callsBefore, store.calls.Load())

	frame := sr.LayerFrame(0)
	for row, id := range sr.LayerNodes(0) {
		requireRow(t, frame, row, id)
	}
}

func TestCache_CapacityExhausted(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	part := newTestPartition()

	// Peak allocation fills the device: nothing fits, but AutoCache
	// succeeds and serves everything from the host store.
	cache := New(store, part, devmem.Static{Total: 1 << 20, Peak: 1 << 20}, WithHeadroom(0))

	require.NoError(t, cache.InitFields(ctx, featuresField, normField))
	require.NoError(t, cache.AutoCache(ctx))

	stats := cache.Stats()
	require.Zero(t, stats.CachedNodes)
	require.False(t, stats.FullyCached)

	sr, err := graph.NewSamplingResult([]core.LocalID{3, 1})
	require.NoError(t, err)
	require.NoError(t, cache.Fetch(ctx, sr))
	requireRow(t, sr.LayerFrame(0), 0, 3)
	requireRow(t, sr.LayerFrame(0), 1, 1)
}

type fakeMeminfo struct {
	total int64
	peak  atomic.Int64
}

func (f *fakeMeminfo) TotalBytes() int64         { return f.total }
func (f *fakeMeminfo) PeakAllocatedBytes() int64 { return f.peak.Load() }

func TestCache_RecacheReflectsMemoryPressure(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	part := newTestPartition()

	mem := &fakeMeminfo{total: 96}
	cache := New(store, part, mem, WithHeadroom(0))

	require.NoError(t, cache.InitFields(ctx, featuresField, normField))

	// 96 bytes, 16 per row: all 6 nodes fit.
	require.NoError(t, cache.AutoCache(ctx))
	require.Equal(t, 6, cache.Stats().CachedNodes)
	require.True(t, cache.Stats().FullyCached)

	// Training allocations grew; the re-cache shrinks to 2 rows.
	mem.peak.Store(64)
	require.NoError(t, cache.AutoCache(ctx))
	require.Equal(t, 2, cache.Stats().CachedNodes)
	require.False(t, cache.Stats().FullyCached)

	sr, err := graph.NewSamplingResult([]core.LocalID{0, 3})
	require.NoError(t, err)
	require.NoError(t, cache.Fetch(ctx, sr))
	requireRow(t, sr.LayerFrame(0), 0, 0)
	requireRow(t, sr.LayerFrame(0), 1, 3)
}

func TestCache_Reservation(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	part := newTestPartition()

	res := devmem.NewReservation(64)
	mem := &fakeMeminfo{total: 32}
	cache := New(store, part, mem, WithHeadroom(0), WithReservation(res))

	require.NoError(t, cache.InitFields(ctx, featuresField, normField))
	require.NoError(t, cache.AutoCache(ctx))
	require.Equal(t, int64(32), res.Held())

	// Re-cache releases the old rows before reserving the new ones.
	require.NoError(t, cache.AutoCache(ctx))
	require.Equal(t, int64(32), res.Held())

	require.Equal(t, int64(32), cache.Stats().HeldReserved)
}

func TestCache_RecacheBudgetExceededThenRetry(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	part := newTestPartition()

	// Budget fits the initial 2-row placement (32 bytes) but not a full
	// 6-row re-cache (96 bytes).
	res := devmem.NewReservation(32)
	mem := &fakeMeminfo{total: 96}
	mem.peak.Store(64)
	cache := New(store, part, mem, WithHeadroom(0), WithReservation(res))

	require.NoError(t, cache.InitFields(ctx, featuresField, normField))
	require.NoError(t, cache.AutoCache(ctx))
	require.Equal(t, 2, cache.Stats().CachedNodes)
	require.Equal(t, int64(32), res.Held())

	// Pressure eases, the re-cache wants all 6 rows and blows the budget.
	mem.peak.Store(0)
	require.ErrorIs(t, cache.AutoCache(ctx), devmem.ErrBudgetExceeded)

	// The failed run left nothing booked and nothing device-resident.
	require.Equal(t, int64(0), res.Held())
	require.Zero(t, cache.Stats().CachedNodes)

	// Retrying must fail the same way, not double-release the old bytes.
	require.ErrorIs(t, cache.AutoCache(ctx), devmem.ErrBudgetExceeded)
	require.Equal(t, int64(0), res.Held())

	// The cache still serves everything from the host store meanwhile.
	sr, err := graph.NewSamplingResult([]core.LocalID{2, 4})
	require.NoError(t, err)
	require.NoError(t, cache.Fetch(ctx, sr))
	requireRow(t, sr.LayerFrame(0), 0, 2)
	requireRow(t, sr.LayerFrame(0), 1, 4)

	// Once pressure returns, a retry succeeds within the budget.
	mem.peak.Store(64)
	require.NoError(t, cache.AutoCache(ctx))
	require.Equal(t, 2, cache.Stats().CachedNodes)
	require.Equal(t, int64(32), res.Held())
}

func TestCache_ErrNotInitialized(t *testing.T) {
	ctx := context.Background()
	cache := New(newTestStore(t), newTestPartition(), devmem.Static{Total: 1 << 20})

	require.ErrorIs(t, cache.AutoCache(ctx), ErrNotInitialized)

	sr, err := graph.NewSamplingResult([]core.LocalID{0})
	require.NoError(t, err)
	require.ErrorIs(t, cache.Fetch(ctx, sr), ErrNotInitialized)
}

func TestCache_InitFieldsErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("UnknownField", func(t *testing.T) {
		cache := New(newTestStore(t), newTestPartition(), devmem.Static{Total: 1 << 20})
		err := cache.InitFields(ctx, "missing")

		var invalid *ErrInvalidField
		require.ErrorAs(t, err, &invalid)
	})

	t.Run("NoFields", func(t *testing.T) {
		cache := New(newTestStore(t), newTestPartition(), devmem.Static{Total: 1 << 20})
		require.ErrorIs(t, cache.InitFields(ctx), model.ErrEmptySchema)
	})

	t.Run("CalledTwice", func(t *testing.T) {
		cache := New(newTestStore(t), newTestPartition(), devmem.Static{Total: 1 << 20})
		require.NoError(t, cache.InitFields(ctx, featuresField))
		require.Error(t, cache.InitFields(ctx, featuresField))
	})
}

func TestCache_FetchOutOfRange(t *testing.T) {
	ctx := context.Background()
	cache := New(newTestStore(t), newTestPartition(), devmem.Static{Total: 1 << 20}, WithHeadroom(0))

	require.NoError(t, cache.InitFields(ctx, featuresField))
	require.NoError(t, cache.AutoCache(ctx))

	sr, err := graph.NewSamplingResult([]core.LocalID{0, 6})
	require.NoError(t, err)

	fetchErr := cache.Fetch(ctx, sr)
	var oor *ErrIndexOutOfRange
	require.ErrorAs(t, fetchErr, &oor)
	require.Equal(t, core.LocalID(6), oor.ID)
	require.Equal(t, 6, oor.Limit)
}

// lyingStore reports one dimension on the probe and another afterwards.
type lyingStore struct {
	inner  featstore.Store
	probed atomic.Bool
}

func (l *lyingStore) Fetch(ctx context.Context, ids []core.GlobalID, fields []model.FieldName) (model.Frame, error) {
	if !l.probed.Swap(true) {
		return l.inner.Fetch(ctx, ids, fields)
	}
	frame := make(model.Frame, len(fields))
	for _, f := range fields {
		frame[f] = model.NewMatrix(len(ids), 2)
	}
	return frame, nil
}

func TestCache_DimensionMismatch(t *testing.T) {
	ctx := context.Background()
	store := &lyingStore{inner: newTestStore(t)}
	cache := New(store, newTestPartition(), devmem.Static{Total: 1 << 20}, WithHeadroom(0))

	require.NoError(t, cache.InitFields(ctx, featuresField))

	err := cache.AutoCache(ctx)
	var mismatch *ErrDimensionMismatch
	require.ErrorAs(t, err, &mismatch)
	require.Equal(t, featuresField, mismatch.Field)
	require.Equal(t, 3, mismatch.Expected)
	require.Equal(t, 2, mismatch.Actual)
}

func TestCache_AgainstStoreGroundTruth(t *testing.T) {
	ctx := context.Background()

	rng := testutil.NewRNG(42)
	schema, err := model.NewSchema(
		model.FieldSpec{Name: featuresField, Dim: 8},
		model.FieldSpec{Name: normField, Dim: 1},
	)
	require.NoError(t, err)

	const numNodes = 200
	store := featstore.NewMemoryStore(schema, numNodes)
	for name, col := range testutil.RandomColumns(rng, schema, numNodes) {
		require.NoError(t, store.SetColumn(name, col))
	}
	part := testutil.RandomPartition(rng, numNodes, 5)

	// Enough room for roughly half the nodes: totalDim 9, 36 bytes/row.
	cache := New(store, part, devmem.Static{Total: 36 * numNodes / 2}, WithHeadroom(0))
	require.NoError(t, cache.InitFields(ctx, featuresField, normField))
	require.NoError(t, cache.AutoCache(ctx))
	require.Greater(t, cache.Stats().CachedNodes, 0)
	require.Less(t, cache.Stats().CachedNodes, numNodes)

	for trial := 0; trial < 10; trial++ {
		ids := make([]core.LocalID, 0, 30)
		seen := make(map[core.LocalID]bool)
		for len(ids) < 30 {
			id := core.LocalID(rng.Intn(numNodes))
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}

		sr, err := graph.NewSamplingResult(ids)
		require.NoError(t, err)
		require.NoError(t, cache.Fetch(ctx, sr))

		globals := make([]core.GlobalID, len(ids))
		for i, id := range ids {
			globals[i] = part.Global(id)
		}
		want, err := store.Fetch(ctx, globals, schema.Fields())
		require.NoError(t, err)

		got := sr.LayerFrame(0)
		for _, field := range schema.Fields() {
			for i := range ids {
				require.Equal(t, want[field].Row(i), got[field].Row(i), "field %s row %d", field, i)
			}
		}
	}
}
