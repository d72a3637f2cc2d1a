//go:build windows

package polldough

import (
	"sync"
	"sync/atomic"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"
)

// overlappedOp is satisfied by every Op type that drives itself through a
// Windows overlapped call (Read, Write — see read_windows.go/write_windows.go).
// The returned int is the synchronous byte count, valid only when err is
// nil.
type overlappedOp interface {
	startOverlapped(ov *windows.Overlapped) (int, error)
}

// iocpEntry is a slot in the backend's fixed-capacity slab. The OVERLAPPED
// pointer address is the routing key: GetQueuedCompletionStatusEx hands
// back the same pointer we passed to the originating Win32 call, as the
// Overlapped field of the returned OverlappedEntry, and the backend
// reinterprets it as *iocpEntry to recover the key and source type.
// OVERLAPPED must stay the first field for that cast to be valid.
type iocpEntry struct {
	ov         windows.Overlapped
	key        uint64
	sourceType SourceType
	// syncDone marks an entry whose result submit already reported to the
	// caller as AlreadyComplete. The kernel still queues a completion
	// packet for it — wait matches that packet by slot identity and
	// discards it instead of emitting a second Event for the submission.
	syncDone bool
}

// iocpBackend implements driver on top of a single I/O completion port,
// following the OVERLAPPED-pointer-identity completion model: sources are
// associated with the port at Register time via CreateIoCompletionPort, and
// every Submit either finishes synchronously or parks a slab entry until
// GetQueuedCompletionStatusEx reports it. Bookkeeping lives in a
// fixed-capacity slab (sized at construction from cfg.entries) rather than
// growing unbounded, so submit can enforce the same resource-exhaustion
// contract the other backends do.
type iocpBackend struct {
	port windows.Handle

	mu   sync.Mutex // guards slab allocation/free
	slab []iocpEntry
	free []int32

	resultMu sync.Mutex // guards the GetQueuedCompletionStatusEx batch buffer
	batch    []windows.OverlappedEntry

	notified atomic.Bool
}

const wakeupKey uintptr = ^uintptr(0)

func newIOCPBackend(cfg config) (*iocpBackend, error) {
	port, err := windows.CreateIoCompletionPort(windows.InvalidHandle, 0, 0, 0)
	if err != nil {
		return nil, err
	}

	capacity := cfg.entries
	if capacity == 0 {
		capacity = 64
	}

	slab := make([]iocpEntry, capacity)
	free := make([]int32, capacity)
	for i := range free {
		free[i] = int32(capacity) - 1 - int32(i)
	}

	return &iocpBackend{
		port:  port,
		slab:  slab,
		free:  free,
		batch: make([]windows.OverlappedEntry, 64),
	}, nil
}

func (b *iocpBackend) register(s Source) error {
	handle := windows.Handle(s.Raw())
	_, err := windows.CreateIoCompletionPort(handle, b.port, 0, 0)
	return err
}

// deregister is a documented no-op: Windows provides no API to disassociate
// a handle from a completion port short of closing the handle itself.
func (b *iocpBackend) deregister(s Source) error { return nil }

func (b *iocpBackend) submit(op Op, key uint64) (SubmissionStatus, error) {
	oop, ok := op.(overlappedOp)
	if !ok {
		return SubmissionStatus{}, windows.ERROR_NOT_SUPPORTED
	}

	b.mu.Lock()
	if len(b.free) == 0 {
		b.mu.Unlock()
		return SubmissionStatus{}, NewError(StageSubmit, "submit", CodeResourceExhausted, "iocp slab at capacity")
	}
	idx := b.free[len(b.free)-1]
	b.free = b.free[:len(b.free)-1]
	entry := &b.slab[idx]
	*entry = iocpEntry{key: key, sourceType: op.SourceType()}
	b.mu.Unlock()

	n, err := oop.startOverlapped(&entry.ov)
	if err == windows.ERROR_IO_PENDING {
		return Submitted(), nil
	}

	b.mu.Lock()
	entry.syncDone = true
	b.mu.Unlock()

	return AlreadyComplete(n, err), nil
}

func (b *iocpBackend) wait(timeout *time.Duration, out *[]Event) (int, error) {
	timeoutMs := uint32(windows.INFINITE)
	if timeout != nil {
		timeoutMs = uint32(timeout.Milliseconds())
	}

	b.resultMu.Lock()
	defer b.resultMu.Unlock()
	var removed uint32
	err := windows.GetQueuedCompletionStatusEx(b.port, b.batch, &removed, timeoutMs, false)
	entries := b.batch[:removed]

	if err != nil {
		if err == windows.WAIT_TIMEOUT {
			return 0, nil
		}
		return 0, err
	}

	n := 0
	for i := range entries {
		e := &entries[i]
		if uintptr(e.CompletionKey) == wakeupKey {
			b.notified.Store(false)
			continue
		}

		entry := (*iocpEntry)(unsafe.Pointer(e.Overlapped))

		b.mu.Lock()
		syncDone := entry.syncDone
		offset := uintptr(unsafe.Pointer(entry)) - uintptr(unsafe.Pointer(&b.slab[0]))
		idx := int32(offset / unsafe.Sizeof(b.slab[0]))
		b.free = append(b.free, idx)
		b.mu.Unlock()

		if syncDone {
			continue
		}

		var evErr error
		switch entry.sourceType {
		case SourceSocket:
			if int32(e.Overlapped.Internal) == -1 {
				evErr = windows.GetLastError()
			}
		case SourceFile:
			if e.Overlapped.Internal == 0 {
				evErr = windows.GetLastError()
			}
		}
		*out = append(*out, Event{Key: entry.key, Result: int(e.Overlapped.InternalHigh), Err: evErr})
		n++
	}
	return n, nil
}

func (b *iocpBackend) notify() error {
	if !b.notified.CompareAndSwap(false, true) {
		return nil
	}
	return windows.PostQueuedCompletionStatus(b.port, 0, wakeupKey, nil)
}

func (b *iocpBackend) close() error {
	return windows.CloseHandle(b.port)
}
