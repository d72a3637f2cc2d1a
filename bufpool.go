package polldough

import "sync"

// Pooled buffer size thresholds backing PooledByteSlice. Requests larger
// than size1m fall through to an unpooled allocation; the reactor itself
// never issues reads/writes that large without the caller supplying its
// own buffer.
const (
	size128k = 128 * 1024
	size256k = 256 * 1024
	size512k = 512 * 1024
	size1m   = 1024 * 1024
)

// bufferPool is the shared pool backing GetPooledBuffer/PutPooledBuffer.
// Size-bucketed pools (rather than a single pool of variable-size slices)
// keep reuse effective under mixed I/O sizes.
var bufferPool = struct {
	pool128k sync.Pool
	pool256k sync.Pool
	pool512k sync.Pool
	pool1m   sync.Pool
}{
	pool128k: sync.Pool{New: func() any { b := make([]byte, size128k); return &b }},
	pool256k: sync.Pool{New: func() any { b := make([]byte, size256k); return &b }},
	pool512k: sync.Pool{New: func() any { b := make([]byte, size512k); return &b }},
	pool1m:   sync.Pool{New: func() any { b := make([]byte, size1m); return &b }},
}

// GetPooledBuffer returns a buffer of at least the requested size from the
// shared pool. Callers done with the buffer should return it with
// PutPooledBuffer to avoid a fresh allocation on the next call.
func GetPooledBuffer(size uint32) []byte {
	switch {
	case size <= size128k:
		return (*bufferPool.pool128k.Get().(*[]byte))[:size]
	case size <= size256k:
		return (*bufferPool.pool256k.Get().(*[]byte))[:size]
	case size <= size512k:
		return (*bufferPool.pool512k.Get().(*[]byte))[:size]
	case size <= size1m:
		return (*bufferPool.pool1m.Get().(*[]byte))[:size]
	default:
		return make([]byte, size)
	}
}

// PutPooledBuffer returns a buffer obtained from GetPooledBuffer to its
// bucket. Buffers with a non-standard capacity (including ones not
// obtained from GetPooledBuffer) are silently dropped.
func PutPooledBuffer(buf []byte) {
	c := cap(buf)
	buf = buf[:c]
	switch c {
	case size128k:
		bufferPool.pool128k.Put(&buf)
	case size256k:
		bufferPool.pool256k.Put(&buf)
	case size512k:
		bufferPool.pool512k.Put(&buf)
	case size1m:
		bufferPool.pool1m.Put(&buf)
	}
}
