// Package refill implements an object pool that is replenished in the background
// so that a consumer running under hard real-time constraints, such as an audio
// callback, can obtain a ready-to-use object without blocking on a lock or on
// allocation.
//
// Architecture
//
// A Pool[T] keeps pre-built objects in a bounded lock-free queue
// (lockfree.Queue). One refiller goroutine per pool sleeps until the queue
// drains to the low-water mark and then tops it back up to capacity.
//
// Core Types:
//
//   - Pool[T]: the pool facade (Get, Release, Available, CreatedSinceLastChecked)
//   - CreationError: the only error New can return
//   - Stats: a monotonic snapshot of the pool's counters
//
// Consumer Path
//
// Get pops from the queue. When the queue is empty it calls the factory on the
// calling goroutine instead of waiting. Either way, if the queue is at or below
// the low-water mark afterwards, the refiller is signalled by setting an atomic
// flag and doing a non-blocking send on its wake channel. Get and Release never
// take a lock and never wait for the refiller.
//
// Ownership
//
// The garbage collector does not enforce single ownership, so the pool relies
// on a checked-out convention: an item returned by Get belongs to the caller
// until it is passed to Release, and must not be used afterwards. Release drops
// the item when the queue is already full; WithOnDrop observes those drops.
//
// Shutdown
//
// Go has no destructors. Close stops the refiller and waits for it to exit; it
// must be called once the pool is no longer needed. Get and Release remain
// usable after Close but nothing is refilled any more.
//
// Usage
//
//	p, err := refill.New(64, 16, func() *Frame { return &Frame{} },
//		refill.WithLogger(logger),
//		refill.WithName("audio-frames"),
//	)
//	if err != nil {
//		return err
//	}
//	defer p.Close()
//
//	frame := p.Get()
//	process(frame)
//	p.Release(frame)
package refill
