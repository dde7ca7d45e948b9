package featcache

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems; the prom
// subpackage ships a Prometheus implementation.
type MetricsCollector interface {
	// RecordInitFields is called after each field-dimension probe.
	RecordInitFields(fields, totalDim int, err error)

	// RecordAutoCache is called after each cache population run.
	// cached is the number of node rows placed in device memory.
	RecordAutoCache(cached int, full bool, duration time.Duration, err error)

	// RecordFetch is called after each gather. deviceRows and hostRows
	// count where the served rows came from, summed over all layers.
	RecordFetch(layers, deviceRows, hostRows int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordInitFields(int, int, error)                {}
func (NoopMetricsCollector) RecordAutoCache(int, bool, time.Duration, error) {}
func (NoopMetricsCollector) RecordFetch(int, int, int, time.Duration, error) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	InitFieldsCount  atomic.Int64
	InitFieldsErrors atomic.Int64
	AutoCacheCount   atomic.Int64
	AutoCacheErrors  atomic.Int64
	CachedNodes      atomic.Int64
	FetchCount       atomic.Int64
	FetchErrors      atomic.Int64
	FetchTotalNanos  atomic.Int64
	DeviceRows       atomic.Int64
	HostRows         atomic.Int64
}

// RecordInitFields implements MetricsCollector.
func (b *BasicMetricsCollector) RecordInitFields(fields, totalDim int, err error) {
	b.InitFieldsCount.Add(1)
	if err != nil {
		b.InitFieldsErrors.Add(1)
	}
}

// RecordAutoCache implements MetricsCollector.
func (b *BasicMetricsCollector) RecordAutoCache(cached int, full bool, duration time.Duration, err error) {
	b.AutoCacheCount.Add(1)
	if err != nil {
		b.AutoCacheErrors.Add(1)
		return
	}
	b.CachedNodes.Store(int64(cached))
}

// RecordFetch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordFetch(layers, deviceRows, hostRows int, duration time.Duration, err error) {
	b.FetchCount.Add(1)
	b.FetchTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.FetchErrors.Add(1)
		return
	}
	b.DeviceRows.Add(int64(deviceRows))
	b.HostRows.Add(int64(hostRows))
}

// HitRate returns the fraction of served rows that came from device
// memory, or 0 before the first fetch.
func (b *BasicMetricsCollector) HitRate() float64 {
	dev := b.DeviceRows.Load()
	host := b.HostRows.Load()
	if dev+host == 0 {
		return 0
	}
	return float64(dev) / float64(dev+host)
}
