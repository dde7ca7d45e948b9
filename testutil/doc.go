// Package testutil provides testing utilities for featcache.
//
// This package is intended for use in tests and benchmarks only.
// It provides seeded generators for feature matrices and graph
// partitions, so tests compare gathered frames against a reproducible
// ground truth.
//
//	rng := testutil.NewRNG(seed)
//	cols := testutil.RandomColumns(rng, schema, numNodes)
//	part := testutil.RandomPartition(rng, numNodes, avgDegree)
package testutil
