//go:build linux

package polldough

import (
	"unsafe"

	"github.com/pawelgaczynski/giouring"
)

// prepSQE fills sqe to perform this write via io_uring.
func (w *Write[B]) prepSQE(sqe *giouring.SubmissionQueueEntry) {
	buf := w.buf.Bytes()
	var ptr unsafe.Pointer
	if len(buf) > 0 {
		ptr = unsafe.Pointer(&buf[0])
	}
	var offset uint64
	if w.ty == SourceFile {
		offset = uint64(w.offset)
	}
	sqe.PrepWrite(int(w.source), ptr, uint32(len(buf)), offset)
}
