// Package featcache caches per-node feature vectors of a graph partition
// in fast device memory and transparently gathers correctly ordered
// feature batches for neighbor-sampling training, merging device-resident
// rows with rows fetched on demand from a host-side feature store.
//
// The lifecycle is populate-once, read-many:
//
//	cache := featcache.New(store, partition, meminfo)
//	if err := cache.InitFields(ctx, "features", "norm"); err != nil { ... }
//	if err := cache.AutoCache(ctx); err != nil { ... }
//	// per training step:
//	if err := cache.Fetch(ctx, samplingResult); err != nil { ... }
//
// AutoCache sizes the cache from current device memory pressure and places
// the highest out-degree nodes, which neighbor sampling requests
// disproportionately often. Fetch fills each sampling layer's feature
// frame in request order, regardless of where each row currently lives.
//
// The cache holds no internal locks. Fetch is safe to call concurrently
// with other Fetch calls, but callers must not run AutoCache concurrently
// with in-flight Fetch calls; complete the setup phase before steady-state
// gathering begins.
package featcache
