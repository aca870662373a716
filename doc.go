// Package refillpool provides a bounded, lock-free object pool that a
// background goroutine keeps topped up, so that real-time consumers such as
// audio callbacks never allocate or block on their hot path.
//
// # Architecture
//
// A pool owns a fixed-capacity MPMC queue of pre-built objects and one
// refiller goroutine. Get takes an object from the queue; when the queue is
// empty it builds one on the calling goroutine instead of waiting (a fallback
// allocation). Whenever the queue length reaches the low-water mark, Get wakes
// the refiller, which tops the queue back up to capacity off the hot path.
//
// Release returns an object to the queue, or drops it when the queue is full.
//
// # Packages
//
//   - pkg/refill: the generic refilling pool and its refiller
//   - pkg/bufpool: a pool of fixed-size byte buffers built on pkg/refill
//   - pkg/lockfree: the bounded MPMC queue and the drainable counter
//   - pkg/metrics: Prometheus collector and latency tracking
//   - pkg/observability: OpenTelemetry instruments and OTLP export
//   - pkg/config: YAML configuration with environment substitution
//   - pkg/logger: the zap logger used throughout
//   - internal/rtsim: a periodic real-time consumer simulation
//
// # Quick Start
//
//	p, err := refill.New(64, 16, func() *Frame { return new(Frame) },
//	    refill.WithLogger(logger.Get()), refill.WithName("frames"))
//	if err != nil {
//	    return err
//	}
//	defer p.Close()
//
//	f := p.Get()
//	// ... fill and hand off f ...
//	p.Release(f)
//
// # Command Line
//
//	refillpool simulate --capacity 64 --low-water-mark 16 --period 5ms
//	refillpool simulate --config pool.yaml --metrics-addr :9090
package refillpool
