// Package rtsim simulates a real-time consumer, such as an audio callback,
// drawing buffers from a refilling pool at a fixed period.
//
// # Overview
//
// Every period the callback takes BuffersPerCycle buffers, writes to them and
// keeps them for HoldCycles callbacks before releasing them, which models
// buffers travelling through a processing graph. The latency of every Get is
// recorded, and callbacks that overrun their period are counted.
//
// # Basic Usage
//
//	sim := rtsim.New(bufferPool, rtsim.Config{
//	    Period:          5 * time.Millisecond,
//	    BuffersPerCycle: 2,
//	    HoldCycles:      4,
//	    Cycles:          1000,
//	}, logger)
//	report, err := sim.Run(ctx)
package rtsim

import (
	"context"
	"fmt"
	"time"

	gojson "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/ajitpratap0/refillpool/pkg/bufpool"
	poolerrors "github.com/ajitpratap0/refillpool/pkg/errors"
	"github.com/ajitpratap0/refillpool/pkg/metrics"
	"github.com/ajitpratap0/refillpool/pkg/refill"
)

// latencyWindow is the number of Get latencies kept for percentiles
const latencyWindow = 4096

// Source is the pool the simulated callback draws from.
type Source interface {
	Get() *bufpool.Buffer
	Release(*bufpool.Buffer)
	Stats() refill.Stats
}

// Config describes the simulated callback.
type Config struct {
	Period          time.Duration // Callback interval
	BuffersPerCycle int           // Buffers taken per callback
	HoldCycles      int           // Callbacks a buffer is held before release
	Cycles          int           // Callbacks to run; 0 runs until ctx is done
}

// Validate checks the configuration values. The returned error is a
// *errors.Error of type validation naming the offending field.
func (c Config) Validate() error {
	if c.Period <= 0 {
		return invalid("period", "period must be positive", c.Period)
	}
	if c.BuffersPerCycle <= 0 {
		return invalid("buffers_per_cycle", "buffers_per_cycle must be positive", c.BuffersPerCycle)
	}
	if c.HoldCycles < 0 {
		return invalid("hold_cycles", "hold_cycles cannot be negative", c.HoldCycles)
	}
	if c.Cycles < 0 {
		return invalid("cycles", "cycles cannot be negative", c.Cycles)
	}
	return nil
}

func invalid(field, message string, value interface{}) error {
	return poolerrors.New(poolerrors.ErrorTypeValidation, message).
		WithDetail("field", field).
		WithDetail("value", value)
}

// Report summarises a simulation run.
type Report struct {
	Cycles         int           `json:"cycles"`
	Gets           uint64        `json:"gets"`
	Fallbacks      uint64        `json:"fallbacks"`
	Created        uint64        `json:"created"`
	Dropped        uint64        `json:"dropped"`
	Refills        uint64        `json:"refills"`
	RefillFailures uint64        `json:"refill_failures"`
	Overruns       int           `json:"overruns"`
	GetLatencyP50  time.Duration `json:"get_latency_p50_ns"`
	GetLatencyP99  time.Duration `json:"get_latency_p99_ns"`
	GetLatencyMax  time.Duration `json:"get_latency_max_ns"`
	Elapsed        time.Duration `json:"elapsed_ns"`
	Final          refill.Stats  `json:"final"`
}

// JSON renders the report as indented JSON
func (r Report) JSON() ([]byte, error) {
	return gojson.MarshalIndent(r, "", "  ")
}

// Simulator drives a Source with a periodic callback.
type Simulator struct {
	src     Source
	cfg     Config
	logger  *zap.Logger
	latency *metrics.LatencyTracker
}

// New creates a simulator. A nil logger disables logging.
func New(src Source, cfg Config, logger *zap.Logger) *Simulator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Simulator{
		src:     src,
		cfg:     cfg,
		logger:  logger.Named("rtsim"),
		latency: metrics.NewLatencyTracker(latencyWindow),
	}
}

// Run executes the simulation until the configured number of cycles has run
// or ctx is done. Cancelling a bounded run returns the partial report along
// with ctx.Err(); an unbounded run returns a nil error when ctx is done.
func (s *Simulator) Run(ctx context.Context) (Report, error) {
	if err := s.cfg.Validate(); err != nil {
		return Report{}, fmt.Errorf("invalid simulation config: %w", err)
	}

	before := s.src.Stats()
	held := make([][]*bufpool.Buffer, s.cfg.HoldCycles+1)
	report := Report{}
	start := time.Now()

	ticker := time.NewTicker(s.cfg.Period)
	defer ticker.Stop()

	var runErr error
loop:
	for s.cfg.Cycles == 0 || report.Cycles < s.cfg.Cycles {
		select {
		case <-ctx.Done():
			if s.cfg.Cycles > 0 {
				runErr = ctx.Err()
			}
			break loop
		case <-ticker.C:
		}

		began := time.Now()
		slot := report.Cycles % len(held)
		s.release(held[slot])
		held[slot] = s.callback(held[slot][:0], byte(report.Cycles))
		report.Gets += uint64(s.cfg.BuffersPerCycle)
		report.Cycles++

		if time.Since(began) > s.cfg.Period {
			report.Overruns++
		}
	}

	for _, bufs := range held {
		s.release(bufs)
	}

	after := s.src.Stats()
	report.Fallbacks = after.Fallbacks - before.Fallbacks
	report.Created = after.Created - before.Created
	report.Dropped = after.Dropped - before.Dropped
	report.Refills = after.Refills - before.Refills
	report.RefillFailures = after.RefillFailures - before.RefillFailures
	report.GetLatencyP50 = s.latency.GetPercentile(50)
	report.GetLatencyP99 = s.latency.GetPercentile(99)
	report.GetLatencyMax = s.latency.Max()
	report.Elapsed = time.Since(start)
	report.Final = after

	s.logger.Info("simulation finished",
		zap.Int("cycles", report.Cycles),
		zap.Uint64("fallbacks", report.Fallbacks),
		zap.Int("overruns", report.Overruns),
		zap.Duration("get_latency_max", report.GetLatencyMax))

	return report, runErr
}

// callback is one simulated real-time period: take buffers and fill them.
func (s *Simulator) callback(into []*bufpool.Buffer, fill byte) []*bufpool.Buffer {
	for i := 0; i < s.cfg.BuffersPerCycle; i++ {
		t0 := time.Now()
		buf := s.src.Get()
		s.latency.Record(time.Since(t0))

		data := buf.Bytes()
		for j := range data {
			data[j] = fill
		}
		into = append(into, buf)
	}
	return into
}

func (s *Simulator) release(bufs []*bufpool.Buffer) {
	for _, b := range bufs {
		s.src.Release(b)
	}
}
