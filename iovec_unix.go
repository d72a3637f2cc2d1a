//go:build !windows

package polldough

import "golang.org/x/sys/unix"

// OwnedIoSlice is an owned buffer laid out identically to a single
// syscall.Iovec/unix.Iovec, so it can be passed directly into vectored
// I/O syscalls (readv/writev, recvmsg/sendmsg) with no copy. It
// implements Buf, BufMut, IoBuf and IoBufMut.
type OwnedIoSlice struct {
	raw       unix.Iovec
	keepAlive []byte
	closed    bool
}

// NewOwnedIoSlice takes ownership of data and wraps it as an ABI-compatible
// I/O vector.
func NewOwnedIoSlice(data []byte) *OwnedIoSlice {
	s := &OwnedIoSlice{keepAlive: data}
	if len(data) > 0 {
		s.raw.Base = &data[0]
	}
	s.raw.SetLen(len(data))
	return s
}

// Bytes implements Buf.
func (s *OwnedIoSlice) Bytes() []byte { return s.keepAlive }

// MutBytes implements BufMut.
func (s *OwnedIoSlice) MutBytes() []byte { return s.keepAlive }

func (s *OwnedIoSlice) ioBuf()    {}
func (s *OwnedIoSlice) ioBufMut() {}

// Iovec returns the underlying ABI-identical struct for direct use with
// readv/writev-style syscalls.
func (s *OwnedIoSlice) Iovec() *unix.Iovec { return &s.raw }

// Close releases the slice exactly once. It is safe, though unnecessary,
// to call more than once; the second call is a no-op.
func (s *OwnedIoSlice) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.keepAlive = nil
	s.raw = unix.Iovec{}
	return nil
}
