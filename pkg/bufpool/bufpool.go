// Package bufpool provides a refilling pool of fixed-size byte buffers, the
// shape used by audio and packet processing callbacks.
//
// Example usage:
//
//	bp, err := bufpool.NewBufferPool(32, 8, 4096)
//	if err != nil {
//	    return err
//	}
//	defer bp.Close()
//
//	buf := bp.Get()
//	n := copy(buf.Bytes(), samples)
//	emit(buf.Bytes()[:n])
//	bp.Release(buf)
package bufpool

import (
	"github.com/ajitpratap0/refillpool/pkg/refill"
)

// Buffer is a fixed-size byte buffer handed out by a BufferPool.
// A Buffer obtained from Get belongs to the caller until it is released.
type Buffer struct {
	data []byte
}

// Bytes returns the buffer's backing slice. Its length is the pool's buffer size.
func (b *Buffer) Bytes() []byte {
	return b.data
}

// Len returns the size of the buffer in bytes.
func (b *Buffer) Len() int {
	return len(b.data)
}

// Reset zeroes the buffer contents.
func (b *Buffer) Reset() {
	clear(b.data)
}

// BufferPool is a refill.Pool of equally sized buffers.
type BufferPool struct {
	pool       *refill.Pool[*Buffer]
	bufferSize int
}

// NewBufferPool creates a pool of capacity buffers of bufferSize bytes each.
// It returns a *refill.CreationError when lowWaterMark >= capacity.
func NewBufferPool(capacity, lowWaterMark, bufferSize int, opts ...refill.Option) (*BufferPool, error) {
	if bufferSize < 0 {
		return nil, &refill.CreationError{Description: "buffer_size must not be negative"}
	}
	p, err := refill.New(capacity, lowWaterMark, func() *Buffer {
		return &Buffer{data: make([]byte, bufferSize)}
	}, opts...)
	if err != nil {
		return nil, err
	}
	return &BufferPool{pool: p, bufferSize: bufferSize}, nil
}

// Get returns a buffer without blocking. Its contents are unspecified unless
// the caller resets buffers before releasing them.
func (bp *BufferPool) Get() *Buffer {
	return bp.pool.Get()
}

// Release returns a buffer to the pool. Nil buffers and buffers of a different
// size are ignored; the buffer must not be used afterwards.
func (bp *BufferPool) Release(b *Buffer) {
	if b == nil || len(b.data) != bp.bufferSize {
		return
	}
	bp.pool.Release(b)
}

// BufferSize returns the size of every buffer in the pool.
func (bp *BufferPool) BufferSize() int {
	return bp.bufferSize
}

// Available returns the number of buffers currently queued.
func (bp *BufferPool) Available() int {
	return bp.pool.Available()
}

// CreatedSinceLastChecked returns and resets the number of buffers allocated
// since the previous call.
func (bp *BufferPool) CreatedSinceLastChecked() int {
	return bp.pool.CreatedSinceLastChecked()
}

// Stats returns a snapshot of the underlying pool's counters.
func (bp *BufferPool) Stats() refill.Stats {
	return bp.pool.Stats()
}

// Err reports the last refill failure, if any.
func (bp *BufferPool) Err() error {
	return bp.pool.Err()
}

// Close stops the background refiller.
func (bp *BufferPool) Close() {
	bp.pool.Close()
}
