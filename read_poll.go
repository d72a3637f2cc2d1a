//go:build !windows

package polldough

import "golang.org/x/sys/unix"

// pollOnce attempts the read without blocking, returning the byte count or
// an error (wrapping EAGAIN/EWOULDBLOCK when the operation would block).
// Files seek exactly once before their first read attempt, matching
// pread-at-an-offset semantics without needing pread's separate syscall.
func (r *Read[B]) pollOnce() (int, error) {
	if r.ty == SourceFile && !r.seeked {
		if _, err := unix.Seek(int(r.source), r.offset, unix.SEEK_SET); err != nil {
			return 0, err
		}
		r.seeked = true
	}
	buf := r.buf.MutBytes()
	n, err := unix.Read(int(r.source), buf)
	return n, err
}

// interest reports which readiness directions this op needs.
func (r *Read[B]) interest() (read, write bool) { return true, false }
