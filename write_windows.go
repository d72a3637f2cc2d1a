//go:build windows

package polldough

import "golang.org/x/sys/windows"

// startOverlapped issues the platform call backing this write. The
// returned int is the synchronous byte count, valid only when err is nil.
func (w *Write[B]) startOverlapped(ov *windows.Overlapped) (int, error) {
	buf := w.buf.Bytes()
	switch w.ty {
	case SourceSocket:
		wsabuf := windows.WSABuf{Len: uint32(len(buf))}
		if len(buf) > 0 {
			wsabuf.Buf = &buf[0]
		}
		var sent uint32
		err := windows.WSASend(windows.Handle(w.source), &wsabuf, 1, &sent, 0, ov, nil)
		return int(sent), err
	default: // SourceFile
		ov.Offset = uint32(w.offset)
		ov.OffsetHigh = uint32(w.offset >> 32)
		var written uint32
		err := windows.WriteFile(windows.Handle(w.source), buf, &written, ov)
		return int(written), err
	}
}
