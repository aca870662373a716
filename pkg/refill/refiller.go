package refill

import (
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/sourcegraph/conc/panics"
	"go.uber.org/zap"

	poolerrors "github.com/ajitpratap0/refillpool/pkg/errors"
)

// notifyRefiller wakes the refiller without taking a lock. The flag is set
// before the send so a refiller that misses the token still sees pending work
// when it re-checks the flag. A token already in the channel is enough.
func (p *Pool[T]) notifyRefiller() {
	p.refillNeeded.Store(true)
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// refillLoop is the body of the refiller goroutine.
func (p *Pool[T]) refillLoop() {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.retryInitial
	b.MaxInterval = p.retryMax

	for {
		// Parked
		for !p.refillNeeded.Load() && !p.closed.Load() {
			<-p.wake
		}
		if p.closed.Load() {
			return
		}

		// Refilling
		if !p.refillWithRetry(b) {
			return
		}

		p.refillNeeded.Store(false)
		// A Get may have crossed the mark between the last measurement and the
		// store above; its notification must not be lost.
		if p.queue.Len() <= p.lowWaterMark {
			p.refillNeeded.Store(true)
		}
	}
}

// refillWithRetry runs fill until it completes, retrying with exponential
// backoff when the factory panics. It returns false once the pool is closed.
func (p *Pool[T]) refillWithRetry(b *backoff.ExponentialBackOff) bool {
	for {
		var pc panics.Catcher
		var pushed int
		pc.Try(func() { pushed = p.fill() })

		if r := pc.Recovered(); r != nil {
			p.recordFailure(r)
			wait := b.NextBackOff()
			if wait == backoff.Stop {
				wait = p.retryMax
			}
			select {
			case <-p.ctx.Done():
				return false
			case <-time.After(wait):
				continue
			}
		}

		if p.closed.Load() {
			return false
		}

		b.Reset()
		p.lastErr.Store(nil)
		p.stats.refills.Add(1)
		if n := p.fallbacksSinceRefill.Swap(0); n > 0 {
			p.logger.Warn("objects were allocated on the consumer path because the pool was empty",
				zap.Uint64("fallbacks", n))
		}
		p.logger.Debug("refill complete",
			zap.Int("pushed", pushed),
			zap.Int("available", p.queue.Len()))
		return true
	}
}

// fill pushes new objects until the queue is measured full. The shortfall is
// re-measured after every batch so consumption during the refill is made up
// as well. Shutdown is checked between pushes.
func (p *Pool[T]) fill() int {
	pushed := 0
	for {
		need := p.capacity - p.queue.Len()
		if need <= 0 {
			return pushed
		}
		for i := 0; i < need; i++ {
			if p.closed.Load() {
				return pushed
			}
			item := p.factory()
			if !p.queue.Enqueue(item) {
				// A concurrent Release took the slot
				p.drop(item)
				continue
			}
			pushed++
		}
	}
}

func (p *Pool[T]) recordFailure(r *panics.Recovered) {
	p.stats.refillFailures.Add(1)
	err := poolerrors.Wrap(r.AsError(), poolerrors.ErrorTypeInternal, "refill pass failed: factory panicked").
		WithDetail("pool", p.name).
		WithDetail("available", p.queue.Len())
	p.lastErr.Store(err)
	p.logger.Error("refill pass failed",
		zap.Object("failure", err),
		zap.String("panic", fmt.Sprint(r.Value)))
}
