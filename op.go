package polldough

// Op is the contract every operation type (Read, Write, ...) satisfies so
// a backend can submit it without knowing its concrete type. The
// per-backend realization (a submission queue entry, a readiness-polling
// closure, a Windows OVERLAPPED launch) is obtained through an unexported,
// build-tag-scoped interface that each Op type implements in a file
// specific to that backend — see read_linux.go/read_poll.go/
// read_windows.go for the pattern.
type Op interface {
	// Source returns the raw handle this operation targets.
	Source() Raw
	// SourceType reports how backends should treat the handle.
	SourceType() SourceType
}
