package refill

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sourcegraph/conc"
	"go.uber.org/zap"

	poolerrors "github.com/ajitpratap0/refillpool/pkg/errors"
	"github.com/ajitpratap0/refillpool/pkg/lockfree"
)

// Pool is a concurrent object pool that a background goroutine keeps topped up.
// All methods are safe for concurrent use. Get and Release never block.
type Pool[T any] struct {
	name         string
	capacity     int
	lowWaterMark int

	queue   *lockfree.Queue[T]
	factory func() T // counts every object it builds
	onDrop  func(T)

	// Refill coordinator: the flag is authoritative, wake is best-effort.
	refillNeeded atomic.Bool
	wake         chan struct{}

	closed    atomic.Bool
	closeOnce sync.Once
	ctx       context.Context
	cancel    context.CancelFunc
	refiller  conc.WaitGroup

	retryInitial time.Duration
	retryMax     time.Duration

	created lockfree.Counter // drained by CreatedSinceLastChecked
	stats   struct {
		created        atomic.Uint64
		fallbacks      atomic.Uint64
		dropped        atomic.Uint64
		refills        atomic.Uint64
		refillFailures atomic.Uint64
	}
	fallbacksSinceRefill atomic.Uint64
	lastErr              atomic.Pointer[poolerrors.Error]

	logger *zap.Logger
}

// Stats is a snapshot of a pool's counters. All totals are monotonic since
// the pool was created; reading them does not reset anything.
type Stats struct {
	// Capacity is the maximum number of queued items
	Capacity int `json:"capacity"`
	// LowWaterMark is the queue length at or below which a refill is triggered
	LowWaterMark int `json:"low_water_mark"`
	// Available is the current queue length
	Available int `json:"available"`
	// Created is the number of objects built by the factory
	Created uint64 `json:"created"`
	// Fallbacks is the number of Get calls served by on-path allocation
	Fallbacks uint64 `json:"fallbacks"`
	// Dropped is the number of items discarded because the queue was full
	Dropped uint64 `json:"dropped"`
	// Refills is the number of completed refill passes
	Refills uint64 `json:"refills"`
	// RefillFailures is the number of refill passes aborted by a factory panic
	RefillFailures uint64 `json:"refill_failures"`
}

// New creates a pool holding up to capacity objects built by factory, and
// pre-fills it to capacity on the calling goroutine. When a Get leaves lowWaterMark
// or fewer objects queued, the refiller is woken to top the queue back up.
//
// New fails with a *CreationError when lowWaterMark >= capacity. The factory
// may be called from any goroutine; a panic during pre-fill propagates.
func New[T any](capacity, lowWaterMark int, factory func() T, opts ...Option) (*Pool[T], error) {
	if capacity < 0 || lowWaterMark < 0 {
		return nil, &CreationError{Description: descNegative}
	}
	if lowWaterMark >= capacity {
		return nil, &CreationError{Description: descLowWaterMark}
	}
	if factory == nil {
		return nil, &CreationError{Description: descNilFactory}
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	var onDrop func(T)
	if o.onDrop != nil {
		hook, ok := o.onDrop.(func(T))
		if !ok {
			return nil, &CreationError{Description: descOnDropType}
		}
		onDrop = hook
	}

	p := &Pool[T]{
		name:         o.name,
		capacity:     capacity,
		lowWaterMark: lowWaterMark,
		queue:        lockfree.NewQueue[T](capacity),
		onDrop:       onDrop,
		wake:         make(chan struct{}, 1),
		retryInitial: o.retryInitial,
		retryMax:     o.retryMax,
		logger:       o.logger.Named("refill").With(zap.String("pool", o.name)),
	}
	p.factory = func() T {
		item := factory()
		p.created.Inc()
		p.stats.created.Add(1)
		return item
	}

	for i := 0; i < capacity; i++ {
		if !p.queue.Enqueue(p.factory()) {
			return nil, &CreationError{Description: descPrefill}
		}
	}

	p.ctx, p.cancel = context.WithCancel(context.Background())
	p.refiller.Go(p.refillLoop)

	p.logger.Debug("pool created",
		zap.Int("capacity", capacity),
		zap.Int("low_water_mark", lowWaterMark))

	return p, nil
}

// Get returns an object from the pool. When the queue is empty it builds one
// on the calling goroutine instead of waiting. It never blocks and never fails.
//
// The caller owns the returned object until it passes it to Release.
func (p *Pool[T]) Get() T {
	item, ok := p.queue.Dequeue()
	if !ok {
		// Slow path: allocate here rather than wait for the refiller
		item = p.factory()
		p.stats.fallbacks.Add(1)
		p.fallbacksSinceRefill.Add(1)
	}

	if p.queue.Len() <= p.lowWaterMark {
		p.notifyRefiller()
	}
	return item
}

// Release hands an object back to the pool. If the pool is already full the
// object is dropped. Pool-full is an expected outcome, not an error.
func (p *Pool[T]) Release(item T) {
	if !p.queue.Enqueue(item) {
		p.drop(item)
	}
}

// Available returns the number of pre-built objects currently queued.
// It is lock-free; the value is a momentary snapshot.
func (p *Pool[T]) Available() int {
	return p.queue.Len()
}

// CreatedSinceLastChecked returns the number of objects built since the
// previous call and resets the count. It covers pre-fill, background refills
// and fallback allocations in Get. Concurrent callers split the count.
func (p *Pool[T]) CreatedSinceLastChecked() int {
	return int(p.created.Drain())
}

// Capacity returns the maximum number of queued objects.
func (p *Pool[T]) Capacity() int {
	return p.capacity
}

// LowWaterMark returns the refill threshold.
func (p *Pool[T]) LowWaterMark() int {
	return p.lowWaterMark
}

// Name returns the pool label set with WithName.
func (p *Pool[T]) Name() string {
	return p.name
}

// Stats returns a snapshot of the pool's counters.
func (p *Pool[T]) Stats() Stats {
	return Stats{
		Capacity:       p.capacity,
		LowWaterMark:   p.lowWaterMark,
		Available:      p.queue.Len(),
		Created:        p.stats.created.Load(),
		Fallbacks:      p.stats.fallbacks.Load(),
		Dropped:        p.stats.dropped.Load(),
		Refills:        p.stats.refills.Load(),
		RefillFailures: p.stats.refillFailures.Load(),
	}
}

// Err returns the failure of the most recent refill pass, or nil once a pass
// has succeeded since.
func (p *Pool[T]) Err() error {
	if err := p.lastErr.Load(); err != nil {
		return err
	}
	return nil
}

// Close stops the refiller and waits for it to exit. It is safe to call more
// than once. A panic that escaped the refiller is re-raised here.
func (p *Pool[T]) Close() {
	p.closeOnce.Do(func() {
		p.closed.Store(true)
		p.cancel()
		p.notifyRefiller()
		p.refiller.Wait()
		p.logger.Debug("pool closed", zap.Int("available", p.queue.Len()))
	})
}

func (p *Pool[T]) drop(item T) {
	p.stats.dropped.Add(1)
	if p.onDrop != nil {
		p.onDrop(item)
	}
}
