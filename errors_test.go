package polldough

import (
	"errors"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStructuredError(t *testing.T) {
	err := NewError(StageSubmit, "submit", CodeInvalidArgument, "bad key")

	assert.Equal(t, "submit", err.Op)
	assert.Equal(t, CodeInvalidArgument, err.Code)
	assert.Equal(t, "polldough: bad key (stage=submit)", err.Error())
}

func TestNewErrnoError(t *testing.T) {
	err := NewErrnoError(StageRegistration, "register", syscall.EPERM)

	assert.Equal(t, syscall.EPERM, err.Errno)
	assert.Equal(t, CodePermissionDenied, err.Code)
}

func TestWrapError(t *testing.T) {
	inner := syscall.ENOENT
	err := WrapError(StageWait, "wait", inner)

	require.NotNil(t, err)
	assert.Equal(t, CodeNotFound, err.Code)
	assert.Equal(t, syscall.ENOENT, err.Errno)
	assert.True(t, errors.Is(err, syscall.ENOENT), "expected wrapped error to satisfy errors.Is for ENOENT")
}

func TestWrapErrorPreservesExistingError(t *testing.T) {
	original := NewError(StageOp, "read", CodeTimedOut, "deadline exceeded")
	wrapped := WrapError(StageWait, "wait", original)

	assert.Equal(t, CodeTimedOut, wrapped.Code, "Code should survive re-wrap")
	assert.Equal(t, "wait", wrapped.Op)
}

func TestErrorIsSentinelCode(t *testing.T) {
	err := NewError(StageSubmit, "submit", CodeResourceExhausted, "ring full")
	assert.True(t, errors.Is(err, CodeResourceExhausted), "expected errors.Is to match against a bare Code sentinel")
}

func TestIsCode(t *testing.T) {
	err := NewError(StageOp, "read", CodeTimedOut, "operation timed out")

	assert.True(t, IsCode(err, CodeTimedOut))
	assert.False(t, IsCode(err, CodeIO))
	assert.False(t, IsCode(nil, CodeTimedOut))
}

func TestIsErrno(t *testing.T) {
	err := NewErrnoError(StageOp, "read", syscall.EIO)

	assert.True(t, IsErrno(err, syscall.EIO))
	assert.False(t, IsErrno(err, syscall.EPERM))
	assert.False(t, IsErrno(nil, syscall.EIO))
}

func TestErrnoMapping(t *testing.T) {
	testCases := []struct {
		errno    syscall.Errno
		expected Code
	}{
		{syscall.EEXIST, CodeAlreadyExists},
		{syscall.ENOENT, CodeNotFound},
		{syscall.EINVAL, CodeInvalidArgument},
		{syscall.EPERM, CodePermissionDenied},
		{syscall.ENOMEM, CodeResourceExhausted},
		{syscall.ETIMEDOUT, CodeTimedOut},
		{syscall.ENOSYS, CodeUnsupported},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.expected, errnoToCode(tc.errno), "errnoToCode(%v)", tc.errno)
	}
}

func TestWouldBlock(t *testing.T) {
	assert.True(t, wouldBlock(syscall.EAGAIN))
	assert.False(t, wouldBlock(syscall.EINVAL))
}
