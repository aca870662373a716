package config

import (
	"time"

	poolerrors "github.com/ajitpratap0/refillpool/pkg/errors"
)

// PoolConfig is the configuration of a refilling buffer pool and the tooling
// that drives it. Sections mirror the concerns of the pool's lifecycle.
type PoolConfig struct {
	// Name labels the pool in logs and metrics
	Name string `yaml:"name" json:"name"`

	// Pool sizing
	Pool SizingConfig `yaml:"pool" json:"pool"`

	// Retry bounds the refiller's backoff after a failed refill pass
	Retry RetryConfig `yaml:"retry" json:"retry"`

	// Logging configures the global zap logger
	Logging LoggingConfig `yaml:"logging" json:"logging"`

	// Metrics configures the Prometheus endpoint
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`

	// Simulation configures the real-time consumer simulation
	Simulation SimulationConfig `yaml:"simulation" json:"simulation"`
}

// SizingConfig contains the pool dimensions.
type SizingConfig struct {
	// Capacity is the number of pre-built buffers kept queued
	Capacity int `yaml:"capacity" json:"capacity"`
	// LowWaterMark triggers a refill when the queue drains to it
	LowWaterMark int `yaml:"low_water_mark" json:"low_water_mark"`
	// BufferSize is the size of each buffer in bytes
	BufferSize int `yaml:"buffer_size" json:"buffer_size"`
}

// RetryConfig contains the refill retry backoff bounds.
type RetryConfig struct {
	Initial time.Duration `yaml:"initial" json:"initial"`
	Max     time.Duration `yaml:"max" json:"max"`
}

// LoggingConfig contains logger settings.
type LoggingConfig struct {
	// Level is a zap level name (debug, info, warn, error)
	Level string `yaml:"level" json:"level"`
	// Encoding is json or console
	Encoding string `yaml:"encoding" json:"encoding"`
	// Development enables colored levels and stack traces on errors
	Development bool `yaml:"development" json:"development"`
}

// MetricsConfig contains Prometheus exporter settings.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled" json:"enabled"`
	Address   string `yaml:"address" json:"address"`
	Namespace string `yaml:"namespace" json:"namespace"`
}

// SimulationConfig describes the simulated real-time consumer.
type SimulationConfig struct {
	// Period is the callback interval
	Period time.Duration `yaml:"period" json:"period"`
	// BuffersPerCycle is the number of buffers taken per callback
	BuffersPerCycle int `yaml:"buffers_per_cycle" json:"buffers_per_cycle"`
	// HoldCycles is how many callbacks a buffer is kept before release
	HoldCycles int `yaml:"hold_cycles" json:"hold_cycles"`
	// Cycles is the number of callbacks to run (0 runs until interrupted)
	Cycles int `yaml:"cycles" json:"cycles"`
}

// Default returns a configuration with sensible defaults: a pool of 64
// buffers of 4 KiB refilled at 16, driven by a 48 kHz / 256-frame callback.
func Default() *PoolConfig {
	return &PoolConfig{
		Name: "default",
		Pool: SizingConfig{
			Capacity:     64,
			LowWaterMark: 16,
			BufferSize:   4096,
		},
		Retry: RetryConfig{
			Initial: 10 * time.Millisecond,
			Max:     time.Second,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Encoding: "json",
		},
		Metrics: MetricsConfig{
			Enabled:   false,
			Address:   ":9090",
			Namespace: "refillpool",
		},
		Simulation: SimulationConfig{
			Period:          5333 * time.Microsecond,
			BuffersPerCycle: 2,
			HoldCycles:      4,
			Cycles:          1000,
		},
	}
}

// Validate checks required fields and value ranges. The returned error is a
// *errors.Error of type config carrying the offending field.
func (c *PoolConfig) Validate() error {
	if c.Name == "" {
		return invalid("name", "name is required", c.Name)
	}
	if c.Pool.Capacity <= 0 {
		return invalid("pool.capacity", "capacity must be positive", c.Pool.Capacity)
	}
	if c.Pool.LowWaterMark < 0 {
		return invalid("pool.low_water_mark", "low_water_mark cannot be negative", c.Pool.LowWaterMark)
	}
	if c.Pool.LowWaterMark >= c.Pool.Capacity {
		return invalid("pool.low_water_mark", "low_water_mark must be less than capacity", c.Pool.LowWaterMark)
	}
	if c.Pool.BufferSize < 0 {
		return invalid("pool.buffer_size", "buffer_size cannot be negative", c.Pool.BufferSize)
	}
	if c.Retry.Initial < 0 || c.Retry.Max < 0 {
		return invalid("retry", "retry intervals cannot be negative", c.Retry)
	}
	if c.Metrics.Enabled && c.Metrics.Address == "" {
		return invalid("metrics.address", "address is required when metrics are enabled", c.Metrics.Address)
	}
	if c.Simulation.Period <= 0 {
		return invalid("simulation.period", "period must be positive", c.Simulation.Period)
	}
	if c.Simulation.BuffersPerCycle <= 0 {
		return invalid("simulation.buffers_per_cycle", "buffers_per_cycle must be positive", c.Simulation.BuffersPerCycle)
	}
	if c.Simulation.HoldCycles < 0 {
		return invalid("simulation.hold_cycles", "hold_cycles cannot be negative", c.Simulation.HoldCycles)
	}
	if c.Simulation.Cycles < 0 {
		return invalid("simulation.cycles", "cycles cannot be negative", c.Simulation.Cycles)
	}
	return nil
}

func invalid(field, message string, value interface{}) error {
	return poolerrors.New(poolerrors.ErrorTypeConfig, message).
		WithDetail("field", field).
		WithDetail("value", value)
}
