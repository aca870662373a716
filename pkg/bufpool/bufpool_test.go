package bufpool

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/refillpool/pkg/refill"
	"github.com/ajitpratap0/refillpool/pkg/testutil"
)

func TestNewBufferPool(t *testing.T) {
	bp, err := NewBufferPool(4, 1, 512, refill.WithLogger(testutil.TestLogger(t)))
	require.NoError(t, err)
	defer bp.Close()

	assert.Equal(t, 4, bp.Available())
	assert.Equal(t, 512, bp.BufferSize())
	assert.Equal(t, 4, bp.CreatedSinceLastChecked())

	buf := bp.Get()
	require.NotNil(t, buf)
	assert.Equal(t, 512, buf.Len())
	assert.Len(t, buf.Bytes(), 512)
}

func TestNewBufferPool_Errors(t *testing.T) {
	tests := []struct {
		name        string
		capacity    int
		lowWater    int
		size        int
		description string
	}{
		{"low water mark not below capacity", 4, 4, 16, "low_water_mark must be less than capacity"},
		{"negative buffer size", 4, 1, -1, "buffer_size must not be negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bp, err := NewBufferPool(tt.capacity, tt.lowWater, tt.size)
			assert.Nil(t, bp)
			assert.Equal(t, &refill.CreationError{Description: tt.description}, err)
		})
	}
}

func TestBufferPool_ReleaseIgnoresForeignBuffers(t *testing.T) {
	bp, err := NewBufferPool(2, 1, 64)
	require.NoError(t, err)
	defer bp.Close()

	buf := bp.Get()
	testutil.AssertEventually(t, func() bool { return bp.Available() == 2 }, time.Second,
		"pool should refill after dropping to the low-water mark")
	dropped := bp.Stats().Dropped

	bp.Release(nil)
	bp.Release(&Buffer{data: make([]byte, 32)})
	assert.Equal(t, dropped, bp.Stats().Dropped, "foreign buffers never reach the queue")

	// The pool is full again, so its own buffer is dropped
	bp.Release(buf)
	assert.Equal(t, dropped+1, bp.Stats().Dropped)
	assert.Equal(t, 2, bp.Available())
}

func TestBuffer_Reset(t *testing.T) {
	b := &Buffer{data: []byte{1, 2, 3}}
	b.Reset()
	assert.Equal(t, []byte{0, 0, 0}, b.Bytes())
}

func TestBufferPool_RefillAfterConsumption(t *testing.T) {
	bp, err := NewBufferPool(8, 2, 128, refill.WithLogger(testutil.TestLogger(t)))
	require.NoError(t, err)
	defer bp.Close()
	bp.CreatedSinceLastChecked()

	held := make([]*Buffer, 0, 6)
	for i := 0; i < 6; i++ {
		held = append(held, bp.Get())
	}

	testutil.AssertEventually(t, func() bool { return bp.Available() == 8 }, time.Second,
		"buffer pool should refill")
	assert.Equal(t, 6, bp.CreatedSinceLastChecked())
	assert.NoError(t, bp.Err())

	for _, b := range held {
		bp.Release(b)
	}
	assert.Equal(t, 8, bp.Available())
	assert.Equal(t, uint64(6), bp.Stats().Dropped)
}
