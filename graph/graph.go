package graph

import (
	"fmt"

	"github.com/hupe1980/featcache/core"
)

// Partition is the structural handle over one process-local graph
// partition: a CSR out-adjacency plus the map from local ids to the node's
// identity in the full graph. The cache consults it for out-degrees (the
// placement importance proxy) and for local -> global translation on
// remote fetches.
//
// Partitions are immutable after construction and safe for concurrent use.
type Partition struct {
	globals []core.GlobalID
	offsets []uint64
	targets []core.LocalID
}

// NewPartition builds a partition from an adjacency list. adj[i] holds the
// out-neighbors of local id i; len(adj) must equal len(globals).
func NewPartition(globals []core.GlobalID, adj [][]core.LocalID) (*Partition, error) {
	if len(adj) != len(globals) {
		return nil, fmt.Errorf("adjacency has %d nodes, id map has %d", len(adj), len(globals))
	}

	offsets := make([]uint64, len(adj)+1)
	total := 0
	for i, nbrs := range adj {
		total += len(nbrs)
		offsets[i+1] = uint64(total)
	}

	targets := make([]core.LocalID, 0, total)
	n := core.LocalID(len(globals))
	for i, nbrs := range adj {
		for _, t := range nbrs {
			if t >= n {
				return nil, fmt.Errorf("node %d: neighbor %d outside partition of %d nodes", i, t, n)
			}
			targets = append(targets, t)
		}
	}

	return &Partition{
		globals: append([]core.GlobalID(nil), globals...),
		offsets: offsets,
		targets: targets,
	}, nil
}

// NewPartitionCSR builds a partition directly from CSR arrays. offsets must
// have len(globals)+1 monotone entries and offsets[len(globals)] must equal
// len(targets). The slices are used directly, not copied.
func NewPartitionCSR(globals []core.GlobalID, offsets []uint64, targets []core.LocalID) (*Partition, error) {
	if len(offsets) != len(globals)+1 {
		return nil, fmt.Errorf("offsets length %d, want %d", len(offsets), len(globals)+1)
	}
	for i := 1; i < len(offsets); i++ {
		if offsets[i] < offsets[i-1] {
			return nil, fmt.Errorf("offsets not monotone at %d", i)
		}
	}
	if offsets[len(globals)] != uint64(len(targets)) {
		return nil, fmt.Errorf("offsets end at %d, targets length %d", offsets[len(globals)], len(targets))
	}
	return &Partition{globals: globals, offsets: offsets, targets: targets}, nil
}

// NumNodes returns the number of nodes in the partition.
func (p *Partition) NumNodes() int { return len(p.globals) }

// NumEdges returns the number of out-edges in the partition.
func (p *Partition) NumEdges() int { return len(p.targets) }

// Global returns the full-graph identity of a local id.
func (p *Partition) Global(id core.LocalID) core.GlobalID {
	return p.globals[id]
}

// Globals returns the full local -> global id map. The slice aliases
// internal memory; do not modify.
func (p *Partition) Globals() []core.GlobalID { return p.globals }

// OutDegree returns the out-degree of a local id within the partition.
func (p *Partition) OutDegree(id core.LocalID) int {
	return int(p.offsets[id+1] - p.offsets[id])
}

// Neighbors returns the out-neighbors of a local id. The slice aliases
// internal memory; do not modify.
func (p *Partition) Neighbors(id core.LocalID) []core.LocalID {
	return p.targets[p.offsets[id]:p.offsets[id+1]]
}
