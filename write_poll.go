//go:build !windows

package polldough

import "golang.org/x/sys/unix"

// pollOnce attempts the write without blocking.
func (w *Write[B]) pollOnce() (int, error) {
	if w.ty == SourceFile && !w.seeked {
		if _, err := unix.Seek(int(w.source), w.offset, unix.SEEK_SET); err != nil {
			return 0, err
		}
		w.seeked = true
	}
	buf := w.buf.Bytes()
	n, err := unix.Write(int(w.source), buf)
	return n, err
}

// interest reports which readiness directions this op needs.
func (w *Write[B]) interest() (read, write bool) { return false, true }
