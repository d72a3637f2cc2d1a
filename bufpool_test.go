package polldough

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetPooledBufferSizeBuckets(t *testing.T) {
	tests := []struct {
		name        string
		requestSize uint32
		expectCap   int
	}{
		{"128KB bucket - exact", 128 * 1024, 128 * 1024},
		{"128KB bucket - smaller", 65 * 1024, 128 * 1024},
		{"256KB bucket - exact", 256 * 1024, 256 * 1024},
		{"256KB bucket - smaller", 200 * 1024, 256 * 1024},
		{"512KB bucket - exact", 512 * 1024, 512 * 1024},
		{"1MB bucket - exact", 1024 * 1024, 1024 * 1024},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := GetPooledBuffer(tt.requestSize)
			assert.Len(t, buf, int(tt.requestSize))
			assert.Equal(t, tt.expectCap, cap(buf))
			PutPooledBuffer(buf)
		})
	}
}

func TestPutPooledBufferNonStandardCap(t *testing.T) {
	buf := make([]byte, 100*1024)
	assert.NotPanics(t, func() { PutPooledBuffer(buf) })
}

func TestGetPooledBufferOversized(t *testing.T) {
	buf := GetPooledBuffer(2 * 1024 * 1024)
	assert.Len(t, buf, 2*1024*1024, "expected unpooled allocation of requested size")
	assert.NotPanics(t, func() { PutPooledBuffer(buf) })
}

func TestPooledByteSliceReadRoundTrip(t *testing.T) {
	c, err := NewCompletion(4, WithBackend(BackendPolling))
	assert.NoError(t, err)
	defer c.Close()

	r, w, rf, wf, err := PipeSources()
	assert.NoError(t, err)
	defer rf.Close()
	defer wf.Close()
	assert.NoError(t, c.Register(r))
	assert.NoError(t, c.Register(w))

	write := NewWrite[ByteSlice](w, ByteSlice("pooled"))
	_, err = c.Submit(write, 1)
	assert.NoError(t, err)

	pooled := NewPooledBuffer(128 * 1024)
	defer pooled.Release()
	read := NewRead[*PooledByteSlice](r, pooled)

	status, err := c.Submit(read, 2)
	assert.NoError(t, err)
	assert.True(t, status.Complete, "expected a read from a pipe with data already available to complete synchronously")
	assert.Equal(t, "pooled", string(read.IntoBuf().Bytes()[:status.Result]))
}
