// Package metrics provides Prometheus observability for refilling pools.
//
// # Overview
//
// The metrics package provides:
//   - PoolCollector, a prometheus.Collector reading a pool's Stats on scrape
//   - LatencyTracker, a bounded window of latencies with percentile queries
//
// # Basic Usage
//
//	reg := prometheus.NewRegistry()
//	reg.MustRegister(metrics.NewPoolCollector("refillpool", "audio", pool))
//	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
//
// # Performance Considerations
//
// The collector reads only atomic counters when scraped and never drains the
// pool's CreatedSinceLastChecked counter, so it does not interfere with other
// readers of that value.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ajitpratap0/refillpool/pkg/refill"
)

// StatsSource is anything that reports pool statistics, such as
// *refill.Pool or *bufpool.BufferPool.
type StatsSource interface {
	Stats() refill.Stats
}

// PoolCollector exports the statistics of one pool. Every metric carries a
// "pool" label with the pool's name.
type PoolCollector struct {
	source StatsSource
	pool   string

	available      *prometheus.Desc
	capacity       *prometheus.Desc
	lowWaterMark   *prometheus.Desc
	created        *prometheus.Desc
	fallbacks      *prometheus.Desc
	dropped        *prometheus.Desc
	refills        *prometheus.Desc
	refillFailures *prometheus.Desc
}

// NewPoolCollector creates a collector for source under the given namespace.
//
// Example:
//
//	collector := metrics.NewPoolCollector("refillpool", "audio", pool)
//	prometheus.MustRegister(collector)
func NewPoolCollector(namespace, pool string, source StatsSource) *PoolCollector {
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "pool", name),
			help,
			nil,
			prometheus.Labels{"pool": pool},
		)
	}

	return &PoolCollector{
		source:         source,
		pool:           pool,
		available:      desc("available", "Pre-built objects currently queued"),
		capacity:       desc("capacity", "Maximum number of queued objects"),
		lowWaterMark:   desc("low_water_mark", "Queue length at or below which a refill is triggered"),
		created:        desc("created_total", "Objects built by the factory"),
		fallbacks:      desc("fallbacks_total", "Get calls served by allocating on the calling goroutine"),
		dropped:        desc("dropped_total", "Objects discarded because the queue was full"),
		refills:        desc("refills_total", "Completed refill passes"),
		refillFailures: desc("refill_failures_total", "Refill passes aborted by a panicking factory"),
	}
}

// Describe implements prometheus.Collector
func (c *PoolCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.available
	ch <- c.capacity
	ch <- c.lowWaterMark
	ch <- c.created
	ch <- c.fallbacks
	ch <- c.dropped
	ch <- c.refills
	ch <- c.refillFailures
}

// Collect implements prometheus.Collector
func (c *PoolCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.source.Stats()

	ch <- prometheus.MustNewConstMetric(c.available, prometheus.GaugeValue, float64(s.Available))
	ch <- prometheus.MustNewConstMetric(c.capacity, prometheus.GaugeValue, float64(s.Capacity))
	ch <- prometheus.MustNewConstMetric(c.lowWaterMark, prometheus.GaugeValue, float64(s.LowWaterMark))
	ch <- prometheus.MustNewConstMetric(c.created, prometheus.CounterValue, float64(s.Created))
	ch <- prometheus.MustNewConstMetric(c.fallbacks, prometheus.CounterValue, float64(s.Fallbacks))
	ch <- prometheus.MustNewConstMetric(c.dropped, prometheus.CounterValue, float64(s.Dropped))
	ch <- prometheus.MustNewConstMetric(c.refills, prometheus.CounterValue, float64(s.Refills))
	ch <- prometheus.MustNewConstMetric(c.refillFailures, prometheus.CounterValue, float64(s.RefillFailures))
}
