package metrics

import (
	"sort"
	"sync"
	"time"
)

// LatencyTracker provides percentile tracking over the most recent values
type LatencyTracker struct {
	mu      sync.Mutex
	values  []time.Duration
	next    int
	full    bool
	maxSize int
	max     time.Duration
	count   uint64
}

// NewLatencyTracker creates a new latency tracker keeping at most maxSize values
func NewLatencyTracker(maxSize int) *LatencyTracker {
	if maxSize <= 0 {
		maxSize = 1
	}
	return &LatencyTracker{
		values:  make([]time.Duration, maxSize),
		maxSize: maxSize,
	}
}

// Record records a latency value, overwriting the oldest once the window is full
func (l *LatencyTracker) Record(d time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.values[l.next] = d
	l.next++
	if l.next == l.maxSize {
		l.next = 0
		l.full = true
	}
	if d > l.max {
		l.max = d
	}
	l.count++
}

// GetPercentile returns the percentile value (0-100) of the recorded window
func (l *LatencyTracker) GetPercentile(p float64) time.Duration {
	l.mu.Lock()
	n := l.next
	if l.full {
		n = l.maxSize
	}
	window := make([]time.Duration, n)
	copy(window, l.values[:n])
	l.mu.Unlock()

	if len(window) == 0 {
		return 0
	}
	sort.Slice(window, func(i, j int) bool { return window[i] < window[j] })

	index := int(float64(len(window)) * p / 100)
	if index >= len(window) {
		index = len(window) - 1
	}
	if index < 0 {
		index = 0
	}
	return window[index]
}

// Max returns the largest value ever recorded, including ones that left the window
func (l *LatencyTracker) Max() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.max
}

// Count returns the number of values ever recorded
func (l *LatencyTracker) Count() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.count
}
