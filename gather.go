package featcache

import (
	"context"

	"github.com/hupe1980/featcache/core"
	"github.com/hupe1980/featcache/model"
)

// gatherLayer assembles the feature frame for one layer's ids, reading
// device-resident rows out of the cache and fetching the rest from the
// store in a single batched request. Row j of every output matrix
// corresponds to ids[j] regardless of where the row came from.
func (c *Cache) gatherLayer(ctx context.Context, ids []core.LocalID) (model.Frame, int, int, error) {
	n := c.part.NumNodes()
	fields := c.schema.Fields()

	frame := make(model.Frame, c.schema.Len())
	for _, spec := range c.schema.Specs() {
		frame[spec.Name] = model.NewMatrix(len(ids), spec.Dim)
	}

	var (
		hostIDs  []core.LocalID
		hostPos  []int
		devCount int
	)
	for j, id := range ids {
		if int(id) >= n {
			return nil, 0, 0, &ErrIndexOutOfRange{ID: id, Limit: n}
		}
		if c.loc.OnDevice(id) {
			slot := c.loc.Slot(id)
			for _, name := range fields {
				frame[name].SetRow(j, c.dev.Row(name, slot))
			}
			devCount++
			continue
		}
		hostIDs = append(hostIDs, id)
		hostPos = append(hostPos, j)
	}

	if len(hostIDs) > 0 {
		if err := c.fetcher.fetchInto(ctx, hostIDs, hostPos, frame); err != nil {
			return nil, 0, 0, err
		}
	}
	return frame, devCount, len(hostIDs), nil
}

// gatherCached is the fast path taken when every node is device-resident:
// no partitioning, no store round trip, every row is a slot lookup.
func (c *Cache) gatherCached(ids []core.LocalID) (model.Frame, error) {
	n := c.part.NumNodes()
	fields := c.schema.Fields()

	frame := make(model.Frame, c.schema.Len())
	for _, spec := range c.schema.Specs() {
		frame[spec.Name] = model.NewMatrix(len(ids), spec.Dim)
	}

	for j, id := range ids {
		if int(id) >= n {
			return nil, &ErrIndexOutOfRange{ID: id, Limit: n}
		}
		slot := c.loc.Slot(id)
		for _, name := range fields {
			frame[name].SetRow(j, c.dev.Row(name, slot))
		}
	}
	return frame, nil
}
