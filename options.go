package featcache

import (
	"golang.org/x/time/rate"

	"github.com/hupe1980/featcache/devmem"
)

// Options configures a Cache. Use the With* helpers with New.
type Options struct {
	// Logger used for operational logging. Defaults to NoopLogger.
	Logger *Logger

	// Metrics receives operation outcomes. Defaults to NoopMetricsCollector.
	Metrics MetricsCollector

	// HeadroomBytes is device memory left unclaimed by the cache.
	// Negative selects DefaultHeadroomBytes; zero disables headroom.
	HeadroomBytes int64

	// Placement decides which nodes to cache. Defaults to DegreePlacement.
	Placement PlacementPolicy

	// FetchLimiter rate-limits host store fetches, counting one token per
	// requested row. Nil disables limiting.
	FetchLimiter *rate.Limiter

	// Reservation tracks cache buffer bytes against a device budget.
	// Nil disables tracking.
	Reservation *devmem.Reservation
}

// Option customizes cache construction.
type Option func(*Options)

// WithLogger sets the logger.
func WithLogger(l *Logger) Option {
	return func(o *Options) { o.Logger = l }
}

// WithMetrics sets the metrics collector.
func WithMetrics(m MetricsCollector) Option {
	return func(o *Options) { o.Metrics = m }
}

// WithHeadroom sets the headroom in bytes kept free during capacity
// estimation.
func WithHeadroom(bytes int64) Option {
	return func(o *Options) { o.HeadroomBytes = bytes }
}

// WithPlacementPolicy sets the node selection policy.
func WithPlacementPolicy(p PlacementPolicy) Option {
	return func(o *Options) { o.Placement = p }
}

// WithFetchRateLimit limits host store fetches to rowsPerSec rows per
// second with the given burst.
func WithFetchRateLimit(rowsPerSec float64, burst int) Option {
	return func(o *Options) { o.FetchLimiter = rate.NewLimiter(rate.Limit(rowsPerSec), burst) }
}

// WithReservation sets the device memory reservation tracker.
func WithReservation(r *devmem.Reservation) Option {
	return func(o *Options) { o.Reservation = r }
}

func defaultOptions() Options {
	return Options{
		Logger:        NoopLogger(),
		Metrics:       NoopMetricsCollector{},
		HeadroomBytes: DefaultHeadroomBytes,
		Placement:     DegreePlacement{},
	}
}
