package core

// LocalID is a dense identifier for a node within one graph partition.
// It is strictly 32-bit, allowing for max 4 billion nodes per partition.
// Used for all hot-path structures (location bitmaps, slot maps, adjacency).
type LocalID uint32

// MaxLocalID is the maximum possible value for a LocalID.
const MaxLocalID = ^LocalID(0)

// GlobalID identifies a node in the full, unpartitioned graph.
// The partition's id map translates LocalID -> GlobalID when features
// are fetched from the host-side store.
type GlobalID uint64
