// Package observability reports refilling pool statistics through
// OpenTelemetry observable instruments.
package observability

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/ajitpratap0/refillpool/pkg/refill"
)

// StatsSource is anything that reports pool statistics.
type StatsSource interface {
	Stats() refill.Stats
}

// ObservePool registers observable gauges and counters that report the
// statistics of src on every collection. Stats are read once per collection.
// The returned registration can be used to stop reporting.
func ObservePool(meter metric.Meter, pool string, src StatsSource) (metric.Registration, error) {
	attrs := metric.WithAttributes(attribute.String("pool", pool))

	available, err := meter.Int64ObservableGauge("refillpool.pool.available",
		metric.WithDescription("Pre-built objects currently queued"),
		metric.WithUnit("{object}"))
	if err != nil {
		return nil, err
	}
	capacity, err := meter.Int64ObservableGauge("refillpool.pool.capacity",
		metric.WithDescription("Maximum number of queued objects"),
		metric.WithUnit("{object}"))
	if err != nil {
		return nil, err
	}
	created, err := meter.Int64ObservableCounter("refillpool.pool.created",
		metric.WithDescription("Objects built by the factory"),
		metric.WithUnit("{object}"))
	if err != nil {
		return nil, err
	}
	fallbacks, err := meter.Int64ObservableCounter("refillpool.pool.fallbacks",
		metric.WithDescription("Get calls served by allocating on the calling goroutine"),
		metric.WithUnit("{call}"))
	if err != nil {
		return nil, err
	}
	dropped, err := meter.Int64ObservableCounter("refillpool.pool.dropped",
		metric.WithDescription("Objects discarded because the queue was full"),
		metric.WithUnit("{object}"))
	if err != nil {
		return nil, err
	}
	refills, err := meter.Int64ObservableCounter("refillpool.pool.refills",
		metric.WithDescription("Completed refill passes"),
		metric.WithUnit("{pass}"))
	if err != nil {
		return nil, err
	}
	failures, err := meter.Int64ObservableCounter("refillpool.pool.refill_failures",
		metric.WithDescription("Refill passes aborted by a panicking factory"),
		metric.WithUnit("{pass}"))
	if err != nil {
		return nil, err
	}

	return meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		s := src.Stats()
		o.ObserveInt64(available, int64(s.Available), attrs)
		o.ObserveInt64(capacity, int64(s.Capacity), attrs)
		o.ObserveInt64(created, int64(s.Created), attrs)
		o.ObserveInt64(fallbacks, int64(s.Fallbacks), attrs)
		o.ObserveInt64(dropped, int64(s.Dropped), attrs)
		o.ObserveInt64(refills, int64(s.Refills), attrs)
		o.ObserveInt64(failures, int64(s.RefillFailures), attrs)
		return nil
	}, available, capacity, created, fallbacks, dropped, refills, failures)
}
