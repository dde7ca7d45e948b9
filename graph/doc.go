// Package graph holds the structural types featcache consumes: the local
// graph partition (out-degrees and the local -> global id map) and the
// multi-hop sampling result whose per-layer feature frames the cache fills.
//
// The sampler itself is an external collaborator; featcache only reads its
// output shape.
package graph
