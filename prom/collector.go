// Package prom exposes cache operation metrics to Prometheus.
package prom

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/hupe1980/featcache"
)

// Collector implements featcache.MetricsCollector on top of Prometheus.
// Register it with an option:
//
//	col := prom.NewCollector(prometheus.DefaultRegisterer)
//	cache := featcache.New(store, part, mem, featcache.WithMetrics(col))
type Collector struct {
	initFieldsTotal  *prometheus.CounterVec
	autoCacheTotal   *prometheus.CounterVec
	autoCacheSeconds prometheus.Histogram
	cachedNodes      prometheus.Gauge
	fetchTotal       *prometheus.CounterVec
	fetchSeconds     prometheus.Histogram
	servedRows       *prometheus.CounterVec
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		initFieldsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "featcache_init_fields_total",
			Help: "Field-dimension probes, by outcome",
		}, []string{"status"}),
		autoCacheTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "featcache_auto_cache_total",
			Help: "Cache population runs, by outcome",
		}, []string{"status"}),
		autoCacheSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "featcache_auto_cache_duration_seconds",
			Help:    "Duration of cache population runs",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300},
		}),
		cachedNodes: factory.NewGauge(prometheus.GaugeOpts{
			Name: "featcache_cached_nodes",
			Help: "Node rows currently resident in device memory",
		}),
		fetchTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "featcache_fetch_total",
			Help: "Feature gathers, by outcome",
		}, []string{"status"}),
		fetchSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "featcache_fetch_duration_seconds",
			Help:    "Duration of feature gathers",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),
		servedRows: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "featcache_served_rows_total",
			Help: "Feature rows served, by source",
		}, []string{"source"}),
	}
}

// RecordInitFields implements featcache.MetricsCollector.
func (c *Collector) RecordInitFields(fields, totalDim int, err error) {
	c.initFieldsTotal.WithLabelValues(status(err)).Inc()
}

// RecordAutoCache implements featcache.MetricsCollector.
func (c *Collector) RecordAutoCache(cached int, full bool, duration time.Duration, err error) {
	c.autoCacheTotal.WithLabelValues(status(err)).Inc()
	c.autoCacheSeconds.Observe(duration.Seconds())
	if err == nil {
		c.cachedNodes.Set(float64(cached))
	}
}

// RecordFetch implements featcache.MetricsCollector.
func (c *Collector) RecordFetch(layers, deviceRows, hostRows int, duration time.Duration, err error) {
	c.fetchTotal.WithLabelValues(status(err)).Inc()
	c.fetchSeconds.Observe(duration.Seconds())
	if err == nil {
		c.servedRows.WithLabelValues("device").Add(float64(deviceRows))
		c.servedRows.WithLabelValues("host").Add(float64(hostRows))
	}
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

var _ featcache.MetricsCollector = (*Collector)(nil)
