// Package lockfree provides lock-free data structures for the refilling pool.
package lockfree

import (
	"runtime"
	"sync/atomic"
)

// Queue implements a bounded lock-free multi-producer multi-consumer queue
// using per-slot sequence numbers and cache-line padding to avoid false sharing.
//
// Unlike a power-of-two ring, the queue holds exactly the requested number of
// slots, so Len never exceeds Cap.
type Queue[T any] struct {
	buffer   []slot[T]
	capacity uint64

	// Separate enqueue and dequeue indices on different cache lines
	enqueuePos atomic.Uint64
	_padding1  [7]uint64 //nolint:unused

	dequeuePos atomic.Uint64
	_padding2  [7]uint64 //nolint:unused
}

// slot represents a queue slot with sequence number for ordering
type slot[T any] struct {
	sequence atomic.Uint64
	data     T
}

// NewQueue creates a queue with room for exactly capacity items.
// A non-positive capacity yields a queue that is always empty and always full.
func NewQueue[T any](capacity int) *Queue[T] {
	if capacity < 0 {
		capacity = 0
	}
	q := &Queue[T]{
		buffer:   make([]slot[T], capacity),
		capacity: uint64(capacity),
	}

	// Initialize sequence numbers
	for i := uint64(0); i < q.capacity; i++ {
		q.buffer[i].sequence.Store(i)
	}

	return q
}

// Enqueue adds an item to the queue without blocking.
// Returns false if the queue is full.
func (q *Queue[T]) Enqueue(item T) bool {
	if q.capacity == 0 {
		return false
	}
	for {
		pos := q.enqueuePos.Load()
		s := &q.buffer[pos%q.capacity]
		seq := s.sequence.Load()

		diff := int64(seq) - int64(pos)

		if diff == 0 {
			// Slot is ready for enqueue
			if q.enqueuePos.CompareAndSwap(pos, pos+1) {
				s.data = item
				// Publishing the sequence makes data visible to consumers
				s.sequence.Store(pos + 1)
				return true
			}
		} else if diff < 0 {
			// Queue is full
			return false
		}

		// Another producer moved on, retry
		runtime.Gosched()
	}
}

// Dequeue removes an item from the queue without blocking.
// Returns the zero value and false if the queue is empty.
func (q *Queue[T]) Dequeue() (T, bool) {
	var zero T
	if q.capacity == 0 {
		return zero, false
	}
	for {
		pos := q.dequeuePos.Load()
		s := &q.buffer[pos%q.capacity]
		seq := s.sequence.Load()

		diff := int64(seq) - int64(pos+1)

		if diff == 0 {
			// Slot is ready for dequeue
			if q.dequeuePos.CompareAndSwap(pos, pos+1) {
				item := s.data
				s.data = zero
				s.sequence.Store(pos + q.capacity)
				return item, true
			}
		} else if diff < 0 {
			// Queue is empty
			return zero, false
		}

		// Another consumer moved on, retry
		runtime.Gosched()
	}
}

// Len returns the number of items in the queue.
// This is a snapshot and may be stale in concurrent scenarios; it is always
// within [0, Cap()].
func (q *Queue[T]) Len() int {
	for {
		deq := q.dequeuePos.Load()
		enq := q.enqueuePos.Load()
		// Re-read to get a consistent pair
		if deq != q.dequeuePos.Load() {
			continue
		}
		if enq <= deq {
			return 0
		}
		n := enq - deq
		if n > q.capacity {
			n = q.capacity
		}
		return int(n)
	}
}

// Cap returns the fixed capacity of the queue.
func (q *Queue[T]) Cap() int {
	return int(q.capacity)
}

// IsEmpty returns true if the queue is empty.
// This check is atomic but may be stale in concurrent scenarios.
func (q *Queue[T]) IsEmpty() bool {
	return q.Len() == 0
}

// IsFull returns true if the queue is full.
// This check is atomic but may be stale in concurrent scenarios.
func (q *Queue[T]) IsFull() bool {
	return q.Len() == q.Cap()
}
