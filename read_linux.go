//go:build linux

package polldough

import (
	"unsafe"

	"github.com/pawelgaczynski/giouring"
)

// prepSQE fills sqe to perform this read via io_uring. Offset is only
// meaningful for files; giouring.PrepRead mirrors io_uring_prep_read's
// treatment of offset 0 on non-seekable descriptors as "current position",
// which sockets/pipes ignore entirely.
func (r *Read[B]) prepSQE(sqe *giouring.SubmissionQueueEntry) {
	buf := r.buf.MutBytes()
	var ptr unsafe.Pointer
	if len(buf) > 0 {
		ptr = unsafe.Pointer(&buf[0])
	}
	var offset uint64
	if r.ty == SourceFile {
		offset = uint64(r.offset)
	}
	sqe.PrepRead(int(r.source), ptr, uint32(len(buf)), offset)
}
