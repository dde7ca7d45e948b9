package testutil

import (
	"math/rand"
	"sync"

	"github.com/hupe1980/featcache/core"
	"github.com/hupe1980/featcache/graph"
	"github.com/hupe1980/featcache/model"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Float32 returns a pseudo-random float32 in [0,1).
func (r *RNG) Float32() float32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float32()
}

// FillUniform fills v with uniform values in [0, 1).
func (r *RNG) FillUniform(v []float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range v {
		v[i] = r.rand.Float32()
	}
}

// RandomMatrix returns a rows x dim matrix filled with uniform values.
func RandomMatrix(rng *RNG, rows, dim int) *model.Matrix {
	m := model.NewMatrix(rows, dim)
	rng.FillUniform(m.Data())
	return m
}

// RandomColumns generates one full feature column per schema field, each
// with numNodes rows.
func RandomColumns(rng *RNG, schema *model.Schema, numNodes int) map[model.FieldName]*model.Matrix {
	cols := make(map[model.FieldName]*model.Matrix, schema.Len())
	for _, spec := range schema.Specs() {
		cols[spec.Name] = RandomMatrix(rng, numNodes, spec.Dim)
	}
	return cols
}

// RandomPartition builds a partition of numNodes nodes with identity
// global ids and random out-adjacency averaging avgDegree edges per node.
func RandomPartition(rng *RNG, numNodes, avgDegree int) *graph.Partition {
	globals := make([]core.GlobalID, numNodes)
	for i := range globals {
		globals[i] = core.GlobalID(i)
	}

	adj := make([][]core.LocalID, numNodes)
	for i := range adj {
		deg := rng.Intn(2*avgDegree + 1)
		nbrs := make([]core.LocalID, deg)
		for j := range nbrs {
			nbrs[j] = core.LocalID(rng.Intn(numNodes))
		}
		adj[i] = nbrs
	}

	part, err := graph.NewPartition(globals, adj)
	if err != nil {
		panic(err)
	}
	return part
}

// DegreePartition builds a partition whose node i has out-degree degrees[i],
// with identity global ids. Edges point at node (i+1) mod n repeatedly;
// only the degrees matter for placement tests.
func DegreePartition(degrees []int) *graph.Partition {
	n := len(degrees)
	globals := make([]core.GlobalID, n)
	for i := range globals {
		globals[i] = core.GlobalID(i)
	}

	adj := make([][]core.LocalID, n)
	for i, d := range degrees {
		nbrs := make([]core.LocalID, d)
		for j := range nbrs {
			nbrs[j] = core.LocalID((i + 1) % n)
		}
		adj[i] = nbrs
	}

	part, err := graph.NewPartition(globals, adj)
	if err != nil {
		panic(err)
	}
	return part
}
