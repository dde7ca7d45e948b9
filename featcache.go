package featcache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hupe1980/featcache/core"
	"github.com/hupe1980/featcache/devmem"
	"github.com/hupe1980/featcache/featstore"
	"github.com/hupe1980/featcache/graph"
	"github.com/hupe1980/featcache/model"
)

// Cache is a device-resident feature cache over one graph partition. It
// keeps the feature rows of the most frequently sampled nodes in device
// memory and serves everything else from the backing store, assembling
// per-layer feature frames in the sampler's request order.
type Cache struct {
	store   featstore.Store
	part    *graph.Partition
	mem     devmem.Meminfo
	opts    Options
	fetcher *remoteFetcher

	schema      *model.Schema
	estimator   *CapacityEstimator
	loc         *LocationIndex
	dev         *DeviceCache
	capacity    int
	fullyCached bool
}

// New creates a cache over the given store, partition and device memory
// telemetry. The cache starts empty; call InitFields and then AutoCache
// before fetching.
func New(store featstore.Store, part *graph.Partition, mem devmem.Meminfo, opts ...Option) *Cache {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Cache{
		store: store,
		part:  part,
		mem:   mem,
		opts:  o,
	}
}

// InitFields probes the store for the dimensions of the given fields and
// fixes the cache schema. The probe fetches one representative node (local
// id 0) and reads each field's width off the returned rows. Must be called
// exactly once, before AutoCache or Fetch.
func (c *Cache) InitFields(ctx context.Context, fields ...model.FieldName) error {
	err := c.initFields(ctx, fields)
	c.opts.Metrics.RecordInitFields(len(fields), c.totalDim(), err)
	c.opts.Logger.LogInitFields(ctx, len(fields), c.totalDim(), err)
	return err
}

func (c *Cache) initFields(ctx context.Context, fields []model.FieldName) error {
	if c.schema != nil {
		return errors.New("fields already initialized")
	}
	if len(fields) == 0 {
		return model.ErrEmptySchema
	}
	if c.part.NumNodes() == 0 {
		return errors.New("partition has no nodes")
	}

	probe := []core.GlobalID{c.part.Global(0)}
	frame, err := c.store.Fetch(ctx, probe, fields)
	if err != nil {
		return translateStoreError(err)
	}

	specs := make([]model.FieldSpec, len(fields))
	for i, name := range fields {
		m, ok := frame[name]
		if !ok {
			return &ErrInvalidField{Field: name}
		}
		specs[i] = model.FieldSpec{Name: name, Dim: m.Dim()}
	}

	schema, err := model.NewSchema(specs...)
	if err != nil {
		return err
	}

	c.schema = schema
	c.estimator = NewCapacityEstimator(c.mem, c.opts.HeadroomBytes)
	c.fetcher = newRemoteFetcher(c.store, c.part, schema, c.opts.FetchLimiter)
	c.loc = NewLocationIndex(c.part.NumNodes())
	c.dev = NewDeviceCache(schema)
	return nil
}

// AutoCache sizes the cache from current device memory telemetry, selects
// the highest-value nodes under the placement policy, fetches their rows
// from the store and installs them in device memory. An exhausted capacity
// estimate is not an error: the cache logs it and leaves every node
// host-resident. AutoCache may be called again to re-populate; the new
// placement replaces the old one wholesale.
func (c *Cache) AutoCache(ctx context.Context) error {
	start := time.Now()
	cached, err := c.autoCache(ctx)
	c.opts.Metrics.RecordAutoCache(cached, c.fullyCached, time.Since(start), err)
	c.opts.Logger.LogAutoCache(ctx, cached, c.capacity, c.fullyCached, time.Since(start), err)
	return err
}

func (c *Cache) autoCache(ctx context.Context) (int, error) {
	if c.schema == nil {
		return 0, ErrNotInitialized
	}

	capacity, err := c.estimator.Estimate(c.schema.TotalDim())
	if err != nil {
		if errors.Is(err, ErrCapacityExhausted) {
			c.opts.Logger.WarnContext(ctx, "no device capacity, all nodes stay host-resident",
				"total_dim", c.schema.TotalDim(),
			)
			c.dropCache()
			return 0, nil
		}
		return 0, err
	}
	c.capacity = capacity

	ids := c.opts.Placement.Select(capacity, c.part)
	if len(ids) == 0 {
		c.dropCache()
		return 0, nil
	}

	frame, err := c.fetcher.fetch(ctx, ids)
	if err != nil {
		return 0, err
	}

	// Release the previous placement and clear it before reserving the new
	// bytes. A failed acquire or populate then leaves the cache in a clean
	// host-resident state with nothing booked, so a retrying AutoCache never
	// releases the same bytes twice.
	newBytes := int64(len(ids)) * int64(c.schema.TotalDim()) * bytesPerElement
	c.opts.Reservation.Release(c.dev.SizeBytes())
	c.dev.Clear()
	c.loc.Reset()
	c.fullyCached = false

	if err := c.opts.Reservation.Acquire(newBytes); err != nil {
		return 0, fmt.Errorf("reserve %d cache bytes: %w", newBytes, err)
	}

	if err := c.dev.Populate(len(ids), frame); err != nil {
		c.opts.Reservation.Release(newBytes)
		return 0, err
	}
	c.loc.MarkCached(ids)
	c.fullyCached = len(ids) == c.part.NumNodes()
	return len(ids), nil
}

func (c *Cache) dropCache() {
	c.opts.Reservation.Release(c.dev.SizeBytes())
	c.dev.Clear()
	c.loc.Reset()
	c.capacity = 0
	c.fullyCached = false
}

// Fetch fills the feature frame of every layer in the sampling result,
// preserving each layer's request order. Device-resident rows are copied
// from cache slots; host-resident rows are pulled from the store in one
// batched request per layer.
func (c *Cache) Fetch(ctx context.Context, sr *graph.SamplingResult) error {
	start := time.Now()
	devRows, hostRows, err := c.fetch(ctx, sr)
	c.opts.Metrics.RecordFetch(sr.NumLayers(), devRows, hostRows, time.Since(start), err)
	c.opts.Logger.LogFetch(ctx, sr.NumLayers(), devRows, hostRows, time.Since(start), err)
	return err
}

func (c *Cache) fetch(ctx context.Context, sr *graph.SamplingResult) (int, int, error) {
	if c.schema == nil {
		return 0, 0, ErrNotInitialized
	}

	devTotal, hostTotal := 0, 0
	for i := 0; i < sr.NumLayers(); i++ {
		ids := sr.LayerNodes(i)

		if c.fullyCached {
			frame, err := c.gatherCached(ids)
			if err != nil {
				return devTotal, hostTotal, fmt.Errorf("layer %d: %w", i, err)
			}
			sr.SetLayerFrame(i, frame)
			devTotal += len(ids)
			continue
		}

		frame, dev, host, err := c.gatherLayer(ctx, ids)
		if err != nil {
			return devTotal, hostTotal, fmt.Errorf("layer %d: %w", i, err)
		}
		sr.SetLayerFrame(i, frame)
		devTotal += dev
		hostTotal += host
	}
	return devTotal, hostTotal, nil
}

// Stats is a point-in-time snapshot of the cache state.
type Stats struct {
	NumNodes     int
	CachedNodes  int
	Capacity     int
	FullyCached  bool
	TotalDim     int
	DeviceBytes  int64
	HeldReserved int64
}

// Stats reports the current cache state. Zero values before InitFields.
func (c *Cache) Stats() Stats {
	s := Stats{
		NumNodes:     c.part.NumNodes(),
		HeldReserved: c.opts.Reservation.Held(),
	}
	if c.schema == nil {
		return s
	}
	s.CachedNodes = c.loc.CachedCount()
	s.Capacity = c.capacity
	s.FullyCached = c.fullyCached
	s.TotalDim = c.schema.TotalDim()
	s.DeviceBytes = c.dev.SizeBytes()
	return s
}

// Schema returns the probed field schema, or nil before InitFields.
func (c *Cache) Schema() *model.Schema { return c.schema }

func (c *Cache) totalDim() int {
	if c.schema == nil {
		return 0
	}
	return c.schema.TotalDim()
}
