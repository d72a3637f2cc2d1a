package polldough

import "os"

// fdSource adapts a raw OS handle to Source. It carries no lifecycle of its
// own — closing the underlying descriptor is the caller's responsibility,
// exactly as Source's contract requires.
type fdSource struct {
	raw Raw
	ty  SourceType
}

func (s fdSource) Raw() Raw { return s.raw }

func (s fdSource) SourceType() SourceType { return s.ty }

// NewFDSource wraps an existing raw handle as a Source. Useful for tests
// and for callers bridging to APIs that hand back a bare fd/HANDLE rather
// than an *os.File.
func NewFDSource(raw Raw, ty SourceType) Source {
	return fdSource{raw: raw, ty: ty}
}

// PipeSources creates an OS pipe and wraps both ends as Sources, for
// package tests that need a real, readiness-pollable descriptor pair
// without standing up a socket. The caller owns closing both *os.File
// values; PipeSources does not close them itself.
func PipeSources() (r Source, w Source, rf, wf *os.File, err error) {
	rf, wf, err = os.Pipe()
	if err != nil {
		return nil, nil, nil, nil, err
	}
	return NewFDSource(rf.Fd(), SourceSocket), NewFDSource(wf.Fd(), SourceSocket), rf, wf, nil
}
