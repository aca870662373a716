package rtsim

import (
	"context"
	"testing"
	"time"

	gojson "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/refillpool/pkg/bufpool"
	poolerrors "github.com/ajitpratap0/refillpool/pkg/errors"
	"github.com/ajitpratap0/refillpool/pkg/refill"
	"github.com/ajitpratap0/refillpool/pkg/testutil"
)

func newBufferPool(t *testing.T, capacity, lowWaterMark, size int) *bufpool.BufferPool {
	t.Helper()
	bp, err := bufpool.NewBufferPool(capacity, lowWaterMark, size,
		refill.WithLogger(testutil.TestLogger(t)), refill.WithName("rtsim"))
	require.NoError(t, err)
	t.Cleanup(bp.Close)
	return bp
}

func TestConfig_Validate(t *testing.T) {
	valid := Config{Period: time.Millisecond, BuffersPerCycle: 1, HoldCycles: 0, Cycles: 1}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		field  string
		mutate func(*Config)
	}{
		{"zero period", "period", func(c *Config) { c.Period = 0 }},
		{"no buffers", "buffers_per_cycle", func(c *Config) { c.BuffersPerCycle = 0 }},
		{"negative hold", "hold_cycles", func(c *Config) { c.HoldCycles = -1 }},
		{"negative cycles", "cycles", func(c *Config) { c.Cycles = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, poolerrors.IsType(err, poolerrors.ErrorTypeValidation))

			var perr *poolerrors.Error
			require.ErrorAs(t, err, &perr)
			field, ok := perr.Detail("field")
			assert.True(t, ok)
			assert.Equal(t, tt.field, field)
		})
	}
}

func TestRun_InvalidConfig(t *testing.T) {
	bp := newBufferPool(t, 4, 1, 16)
	_, err := New(bp, Config{}, nil).Run(context.Background())
	assert.True(t, poolerrors.IsType(err, poolerrors.ErrorTypeValidation))
}

func TestRun_BoundedCycles(t *testing.T) {
	bp := newBufferPool(t, 32, 8, 64)
	cfg := Config{
		Period:          200 * time.Microsecond,
		BuffersPerCycle: 2,
		HoldCycles:      3,
		Cycles:          50,
	}

	report, err := New(bp, cfg, testutil.TestLogger(t)).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 50, report.Cycles)
	assert.Equal(t, uint64(100), report.Gets)
	assert.LessOrEqual(t, report.GetLatencyP50, report.GetLatencyMax)
	assert.LessOrEqual(t, report.GetLatencyP99, report.GetLatencyMax)
	assert.Greater(t, report.Elapsed, time.Duration(0))
	assert.Equal(t, 32, report.Final.Capacity)

	// Everything held was handed back; the queue never exceeds its capacity
	assert.LessOrEqual(t, bp.Available(), 32)
}

func TestRun_CancelBoundedRun(t *testing.T) {
	bp := newBufferPool(t, 8, 2, 16)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := New(bp, Config{Period: time.Hour, BuffersPerCycle: 1, Cycles: 10}, nil).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, report.Cycles)
}

func TestRun_UnboundedStopsOnContext(t *testing.T) {
	bp := newBufferPool(t, 8, 2, 16)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	var report Report
	var err error
	testutil.CompletesWithin(t, 5*time.Second, "unbounded run did not stop", func() {
		report, err = New(bp, Config{Period: time.Millisecond, BuffersPerCycle: 1}, nil).Run(ctx)
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(report.Cycles), report.Gets)
}

func TestRun_CountsFallbacksWhenPoolTooSmall(t *testing.T) {
	bp := newBufferPool(t, 2, 1, 8)
	bp.Close()

	// With the refiller stopped and more buffers held than the pool holds,
	// later callbacks must allocate on the calling goroutine.
	cfg := Config{Period: 100 * time.Microsecond, BuffersPerCycle: 2, HoldCycles: 2, Cycles: 3}
	report, err := New(bp, cfg, nil).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(4), report.Fallbacks)
}

func TestReport_JSON(t *testing.T) {
	r := Report{Cycles: 3, Gets: 6, GetLatencyMax: 1500 * time.Nanosecond}
	data, err := r.JSON()
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, gojson.Unmarshal(data, &decoded))
	assert.Equal(t, float64(3), decoded["cycles"])
	assert.Equal(t, float64(1500), decoded["get_latency_max_ns"])
	assert.Contains(t, decoded, "final")
}
