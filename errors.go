package polldough

import (
	"errors"
	"fmt"
	"syscall"
)

// Stage identifies which phase of a Completion's lifecycle an Error
// originated from, matching the five-stage taxonomy the reactor's error
// handling design specifies.
type Stage string

const (
	// StageConstruction covers backend setup: ring/epoll/IOCP creation.
	StageConstruction Stage = "construction"
	// StageRegistration covers Register/Deregister.
	StageRegistration Stage = "registration"
	// StageSubmit covers Submit.
	StageSubmit Stage = "submit"
	// StageOp covers an individual operation's underlying syscall.
	StageOp Stage = "op"
	// StageWait covers Wait.
	StageWait Stage = "wait"
)

// Code represents a high-level error category, independent of the
// underlying errno (which may not exist at all, e.g. for a construction
// failure before any syscall runs).
type Code string

const (
	CodeUnsupported      Code = "unsupported"
	CodeAlreadyExists     Code = "already registered"
	CodeNotFound          Code = "not registered"
	CodeResourceExhausted Code = "resource exhausted"
	CodeInvalidArgument   Code = "invalid argument"
	CodePermissionDenied  Code = "permission denied"
	CodeTimedOut          Code = "timed out"
	CodeIO                Code = "I/O error"
)

// Error is the structured error type every reactor-facing failure is
// reported as. Op names the failing operation (e.g. "submit", "register");
// Stage narrows it to one of the five lifecycle phases; Errno is zero when
// the failure never reached a syscall.
type Error struct {
	Stage Stage
	Op    string
	Code  Code
	Errno syscall.Errno
	Msg   string
	Inner error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var parts []string
	if e.Stage != "" {
		parts = append(parts, fmt.Sprintf("stage=%s", e.Stage))
	}
	if e.Op != "" {
		parts = append(parts, fmt.Sprintf("op=%s", e.Op))
	}
	if e.Errno != 0 {
		parts = append(parts, fmt.Sprintf("errno=%d", e.Errno))
	}

	msg := e.Msg
	if msg == "" {
		msg = string(e.Code)
	}

	if len(parts) > 0 {
		return fmt.Sprintf("polldough: %s (%s)", msg, parts[0])
	}
	return fmt.Sprintf("polldough: %s", msg)
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Inner
}

// Is lets errors.Is match both a *Error with the same Code and a bare
// Code value used as a sentinel.
func (e *Error) Is(target error) bool {
	if target == nil {
		return false
	}
	if c, ok := target.(Code); ok {
		return e.Code == c
	}
	if te, ok := target.(*Error); ok {
		return e.Code == te.Code
	}
	return false
}

// Error lets a bare Code satisfy the error interface, so callers can
// compare against it with errors.Is without constructing an *Error.
func (c Code) Error() string { return string(c) }

// NewError builds a stage-tagged error with no underlying errno.
func NewError(stage Stage, op string, code Code, msg string) *Error {
	return &Error{Stage: stage, Op: op, Code: code, Msg: msg}
}

// NewErrnoError builds a stage-tagged error around a kernel errno,
// deriving its Code via errnoToCode.
func NewErrnoError(stage Stage, op string, errno syscall.Errno) *Error {
	return &Error{Stage: stage, Op: op, Code: errnoToCode(errno), Errno: errno, Msg: errno.Error(), Inner: errno}
}

// WrapError tags an arbitrary error with a stage and operation name,
// preserving an existing *Error's Code/Errno if inner already is one.
func WrapError(stage Stage, op string, inner error) *Error {
	if inner == nil {
		return nil
	}
	if pe, ok := inner.(*Error); ok {
		return &Error{Stage: stage, Op: op, Code: pe.Code, Errno: pe.Errno, Msg: pe.Msg, Inner: pe.Inner}
	}
	if errno, ok := inner.(syscall.Errno); ok {
		return NewErrnoError(stage, op, errno)
	}
	return &Error{Stage: stage, Op: op, Code: CodeIO, Msg: inner.Error(), Inner: inner}
}

// errnoToCode maps a kernel errno to the reactor's error Code vocabulary.
func errnoToCode(errno syscall.Errno) Code {
	switch errno {
	case syscall.EEXIST:
		return CodeAlreadyExists
	case syscall.ENOENT, syscall.EBADF:
		return CodeNotFound
	case syscall.EINVAL, syscall.E2BIG:
		return CodeInvalidArgument
	case syscall.ENOSYS, syscall.EOPNOTSUPP:
		return CodeUnsupported
	case syscall.EPERM, syscall.EACCES:
		return CodePermissionDenied
	case syscall.ENOMEM, syscall.ENOSPC, syscall.EMFILE, syscall.ENFILE:
		return CodeResourceExhausted
	case syscall.ETIMEDOUT:
		return CodeTimedOut
	default:
		return CodeIO
	}
}

// IsCode reports whether err is, or wraps, an *Error with the given Code.
func IsCode(err error, code Code) bool {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Code == code
	}
	return false
}

// IsErrno reports whether err is, or wraps, an *Error carrying the given
// errno.
func IsErrno(err error, errno syscall.Errno) bool {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Errno == errno
	}
	return false
}

// wouldBlock reports whether err represents a non-blocking syscall telling
// the caller to retry, across the errno spellings the backends see.
func wouldBlock(err error) bool {
	return errors.Is(err, syscall.EAGAIN) || errors.Is(err, syscall.EWOULDBLOCK)
}
