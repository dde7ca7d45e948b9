// Package featstore provides the host-side feature store boundary of
// featcache and its built-in backends.
//
// A Store serves named per-node feature fields for arbitrary sets of global
// node ids, row-aligned to the request order. Backends:
//
//   - MemoryStore: features held in RAM, for tests and small graphs.
//   - FileStore: per-field column files on local disk, described by a JSON
//     manifest, optionally zstd- or lz4-compressed.
//   - s3.Store / minio.Store (subpackages): per-field column objects in
//     object storage, fetched with ranged reads over coalesced row runs.
//
// Stores are read-only at serving time. The WriteDir helper authors the
// file layout consumed by FileStore and the object-store backends.
package featstore
