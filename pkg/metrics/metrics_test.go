package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/refillpool/pkg/refill"
)

type fixedStats refill.Stats

func (f fixedStats) Stats() refill.Stats { return refill.Stats(f) }

func TestPoolCollector_Collect(t *testing.T) {
	src := fixedStats{
		Capacity:       10,
		LowWaterMark:   5,
		Available:      7,
		Created:        15,
		Fallbacks:      1,
		Dropped:        2,
		Refills:        3,
		RefillFailures: 0,
	}
	c := NewPoolCollector("refillpool", "audio", src)

	expected := `
# HELP refillpool_pool_available Pre-built objects currently queued
# TYPE refillpool_pool_available gauge
refillpool_pool_available{pool="audio"} 7
# HELP refillpool_pool_created_total Objects built by the factory
# TYPE refillpool_pool_created_total counter
refillpool_pool_created_total{pool="audio"} 15
# HELP refillpool_pool_fallbacks_total Get calls served by allocating on the calling goroutine
# TYPE refillpool_pool_fallbacks_total counter
refillpool_pool_fallbacks_total{pool="audio"} 1
`
	err := testutil.CollectAndCompare(c, strings.NewReader(expected),
		"refillpool_pool_available", "refillpool_pool_created_total", "refillpool_pool_fallbacks_total")
	require.NoError(t, err)

	assert.Equal(t, 8, testutil.CollectAndCount(c))
}

func TestPoolCollector_LivePool(t *testing.T) {
	p, err := refill.New(4, 1, func() *int { return new(int) })
	require.NoError(t, err)
	defer p.Close()

	reg := prometheus.NewRegistry()
	require.NoError(t, reg.Register(NewPoolCollector("test", "live", p)))

	families, err := reg.Gather()
	require.NoError(t, err)

	values := make(map[string]float64)
	for _, mf := range families {
		m := mf.GetMetric()[0]
		if g := m.GetGauge(); g != nil {
			values[mf.GetName()] = g.GetValue()
		}
		if c := m.GetCounter(); c != nil {
			values[mf.GetName()] = c.GetValue()
		}
	}

	assert.Equal(t, float64(4), values["test_pool_available"])
	assert.Equal(t, float64(4), values["test_pool_capacity"])
	assert.Equal(t, float64(1), values["test_pool_low_water_mark"])
	assert.Equal(t, float64(4), values["test_pool_created_total"])

	// Scraping must not drain the pool's own counter
	assert.Equal(t, 4, p.CreatedSinceLastChecked())
}

func TestLatencyTracker(t *testing.T) {
	lt := NewLatencyTracker(4)
	assert.Equal(t, time.Duration(0), lt.GetPercentile(99))

	for _, d := range []time.Duration{40, 10, 30, 20} {
		lt.Record(d * time.Microsecond)
	}
	assert.Equal(t, 10*time.Microsecond, lt.GetPercentile(0))
	assert.Equal(t, 30*time.Microsecond, lt.GetPercentile(50))
	assert.Equal(t, 40*time.Microsecond, lt.GetPercentile(100))

	// Window slides; max is kept
	lt.Record(time.Microsecond)
	assert.Equal(t, time.Microsecond, lt.GetPercentile(0))
	assert.Equal(t, 40*time.Microsecond, lt.Max())
	assert.Equal(t, uint64(5), lt.Count())
}
