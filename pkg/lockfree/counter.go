package lockfree

import "sync/atomic"

// Counter provides a lock-free counter with read-and-reset semantics.
type Counter struct {
	value atomic.Uint64
}

// Inc atomically increments the counter by one.
func (c *Counter) Inc() {
	c.value.Add(1)
}

// Add atomically adds the given delta value to the counter.
func (c *Counter) Add(delta uint64) {
	c.value.Add(delta)
}

// Load returns the current value of the counter atomically.
func (c *Counter) Load() uint64 {
	return c.value.Load()
}

// Drain atomically swaps the counter to zero and returns the previous value.
// Concurrent callers split the accumulated count between them; every
// increment is observed by exactly one Drain.
func (c *Counter) Drain() uint64 {
	return c.value.Swap(0)
}
