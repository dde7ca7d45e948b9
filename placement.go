package featcache

import (
	"sort"

	"github.com/hupe1980/featcache/core"
	"github.com/hupe1980/featcache/graph"
)

// PlacementPolicy chooses which local node ids to cache, bounded by the
// estimated capacity. Implementations must be deterministic: identical
// inputs select identical ordered id sequences.
type PlacementPolicy interface {
	// Select returns an ordered, duplicate-free sequence of at most
	// capacity local ids to place in device memory.
	Select(capacity int, part *graph.Partition) []core.LocalID
}

// DegreePlacement ranks nodes by out-degree within the local partition.
// High out-degree nodes are sampled as neighbors disproportionately often,
// so caching them maximizes hit rate per byte of device memory. Ties break
// by ascending local id, making the selection reproducible across runs.
type DegreePlacement struct{}

// Select implements PlacementPolicy. When capacity covers the whole
// partition it returns all ids in ascending order (the full-cache layout,
// where slot equals id); otherwise the capacity highest-degree ids in rank
// order.
func (DegreePlacement) Select(capacity int, part *graph.Partition) []core.LocalID {
	n := part.NumNodes()

	ids := make([]core.LocalID, n)
	for i := range ids {
		ids[i] = core.LocalID(i)
	}

	if capacity >= n {
		return ids
	}

	sort.Slice(ids, func(a, b int) bool {
		da, db := part.OutDegree(ids[a]), part.OutDegree(ids[b])
		if da != db {
			return da > db
		}
		return ids[a] < ids[b]
	})
	return ids[:capacity]
}

var _ PlacementPolicy = DegreePlacement{}
