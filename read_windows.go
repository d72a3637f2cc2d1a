//go:build windows

package polldough

import "golang.org/x/sys/windows"

// startOverlapped issues the platform call backing this read. A non-nil,
// non-ERROR_IO_PENDING error is a hard failure; ERROR_IO_PENDING means the
// operation is in flight and its result will arrive through the IOCP. The
// returned int is the synchronous byte count, valid only when err is nil.
func (r *Read[B]) startOverlapped(ov *windows.Overlapped) (int, error) {
	buf := r.buf.MutBytes()
	switch r.ty {
	case SourceSocket:
		wsabuf := windows.WSABuf{Len: uint32(len(buf))}
		if len(buf) > 0 {
			wsabuf.Buf = &buf[0]
		}
		var received, flags uint32
		err := windows.WSARecv(windows.Handle(r.source), &wsabuf, 1, &received, &flags, ov, nil)
		return int(received), err
	default: // SourceFile
		ov.Offset = uint32(r.offset)
		ov.OffsetHigh = uint32(r.offset >> 32)
		var read uint32
		err := windows.ReadFile(windows.Handle(r.source), buf, &read, ov)
		return int(read), err
	}
}
