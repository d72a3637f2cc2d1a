//go:build windows

package polldough

import "golang.org/x/sys/windows"

// OwnedIoSlice is an owned buffer laid out identically to a WSABUF, so it
// can be passed directly into WSASend/WSARecv with no copy. It implements
// Buf, BufMut, IoBuf and IoBufMut.
type OwnedIoSlice struct {
	raw       windows.WSABuf
	keepAlive []byte
	closed    bool
}

// NewOwnedIoSlice takes ownership of data and wraps it as an ABI-compatible
// WSABUF.
func NewOwnedIoSlice(data []byte) *OwnedIoSlice {
	s := &OwnedIoSlice{keepAlive: data}
	if len(data) > 0 {
		s.raw.Buf = &data[0]
	}
	s.raw.Len = uint32(len(data))
	return s
}

// Bytes implements Buf.
func (s *OwnedIoSlice) Bytes() []byte { return s.keepAlive }

// MutBytes implements BufMut.
func (s *OwnedIoSlice) MutBytes() []byte { return s.keepAlive }

func (s *OwnedIoSlice) ioBuf()    {}
func (s *OwnedIoSlice) ioBufMut() {}

// WSABuf returns the underlying ABI-identical struct for direct use with
// WSASend/WSARecv.
func (s *OwnedIoSlice) WSABuf() *windows.WSABuf { return &s.raw }

// Close releases the slice exactly once.
func (s *OwnedIoSlice) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.keepAlive = nil
	s.raw = windows.WSABuf{}
	return nil
}
