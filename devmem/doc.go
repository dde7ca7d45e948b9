// Package devmem abstracts device memory telemetry and budget accounting
// for the feature cache. The cache never allocates device memory through
// this package; it only sizes itself from a Meminfo snapshot and,
// optionally, books its buffers against a shared Reservation.
package devmem
