//go:build !windows

package polldough

import (
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sys/unix"
)

// pollOp is satisfied by every Op type that can drive itself through a
// single non-blocking syscall (Read, Write — see read_poll.go/write_poll.go).
// pollOnce returns (n, unix.EAGAIN) when the syscall would block, at which
// point the backend parks the op until the source reports readiness.
type pollOp interface {
	pollOnce() (int, error)
	interest() (wantRead, wantWrite bool)
}

// poller is the per-OS readiness-notification mechanism (epoll on Linux,
// kqueue on BSD/Darwin).
type poller interface {
	add(fd int, wantRead, wantWrite bool) error
	modify(fd int, wantRead, wantWrite bool) error
	remove(fd int) error
	wait(timeout *time.Duration, out []pollReadyEvent) (int, error)
	close() error
}

type pollReadyEvent struct {
	fd       int
	readable bool
	writable bool
}

type pendingPollOp struct {
	key  uint64
	op   pollOp
	read bool
	write bool
}

// pollBackend implements driver on top of a generic readiness poller,
// following the submit-poll-once-then-register-on-EWOULDBLOCK algorithm:
// every Submit tries the syscall immediately and only parks the op behind
// the poller if the kernel says it would block.
type pollBackend struct {
	p poller

	mu         sync.Mutex
	pending    map[int][]*pendingPollOp // keyed by fd
	registered map[int]struct{}

	wakeR, wakeW int
	notified     atomic.Bool
}

func newPollBackend(cfg config) (*pollBackend, error) {
	p, err := newOSPoller()
	if err != nil {
		return nil, err
	}

	fds := make([]int, 2)
	if err := unix.Pipe(fds); err != nil {
		p.close()
		return nil, err
	}
	unix.CloseOnExec(fds[0])
	unix.CloseOnExec(fds[1])
	unix.SetNonblock(fds[0], true)
	unix.SetNonblock(fds[1], true)

	b := &pollBackend{
		p:          p,
		pending:    make(map[int][]*pendingPollOp),
		registered: make(map[int]struct{}),
		wakeR:      fds[0],
		wakeW:      fds[1],
	}
	if err := p.add(b.wakeR, true, false); err != nil {
		unix.Close(b.wakeR)
		unix.Close(b.wakeW)
		p.close()
		return nil, err
	}
	return b, nil
}

// register rejects File sources outright: regular files are always
// "ready" under epoll/kqueue (no EWOULDBLOCK path to park behind), so the
// polling backend only ever supports readiness-pollable sockets/pipes. It
// also rejects a source that's already registered, matching the Rust
// polling backend's fd_to_key.insert(...).is_some() check.
func (b *pollBackend) register(s Source) error {
	if s.SourceType() == SourceFile {
		return NewError(StageRegistration, "register", CodeUnsupported, "polling backend does not support file sources")
	}

	fd := int(s.Raw())

	b.mu.Lock()
	_, exists := b.registered[fd]
	if !exists {
		b.registered[fd] = struct{}{}
	}
	b.mu.Unlock()

	if exists {
		return NewError(StageRegistration, "register", CodeAlreadyExists, "source already registered")
	}

	if err := unix.SetNonblock(fd, true); err != nil {
		b.mu.Lock()
		delete(b.registered, fd)
		b.mu.Unlock()
		return err
	}
	return nil
}

func (b *pollBackend) deregister(s Source) error {
	fd := int(s.Raw())
	b.mu.Lock()
	delete(b.pending, fd)
	delete(b.registered, fd)
	b.mu.Unlock()
	return b.p.remove(fd)
}

func (b *pollBackend) submit(op Op, key uint64) (SubmissionStatus, error) {
	pop, ok := op.(pollOp)
	if !ok {
		return SubmissionStatus{}, unix.ENOTSUP
	}

	n, err := pop.pollOnce()
	if err == nil {
		return AlreadyComplete(n, nil), nil
	}
	if !wouldBlock(err) {
		return AlreadyComplete(n, err), nil
	}

	fd := int(op.Source())
	wantRead, wantWrite := pop.interest()

	b.mu.Lock()
	entries := b.pending[fd]
	first := len(entries) == 0
	b.pending[fd] = append(entries, &pendingPollOp{key: key, op: pop, read: wantRead, write: wantWrite})
	for _, e := range entries {
		wantRead = wantRead || e.read
		wantWrite = wantWrite || e.write
	}
	b.mu.Unlock()

	if first {
		if err := b.p.add(fd, wantRead, wantWrite); err != nil {
			return SubmissionStatus{}, err
		}
	} else {
		if err := b.p.modify(fd, wantRead, wantWrite); err != nil {
			return SubmissionStatus{}, err
		}
	}

	return Submitted(), nil
}

func (b *pollBackend) wait(timeout *time.Duration, out *[]Event) (int, error) {
	events := make([]pollReadyEvent, 64)
	count, err := b.p.wait(timeout, events)
	if err != nil {
		return 0, err
	}

	n := 0
	for i := 0; i < count; i++ {
		ev := events[i]
		if ev.fd == b.wakeR {
			b.drainWakeup()
			b.notified.Store(false)
			continue
		}
		n += b.drainFD(ev, out)
	}
	return n, nil
}

// drainFD retries every pending op on fd whose interest matches the
// reported readiness, in reverse registration order (last submitted, first
// retried), removing each one that completes.
func (b *pollBackend) drainFD(ev pollReadyEvent, out *[]Event) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	entries := b.pending[ev.fd]

	n := 0
	remaining := make([]*pendingPollOp, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		ready := (ev.readable && e.read) || (ev.writable && e.write)
		if !ready {
			remaining = append(remaining, e)
			continue
		}
		res, err := e.op.pollOnce()
		if err != nil && wouldBlock(err) {
			remaining = append(remaining, e)
			continue
		}
		*out = append(*out, Event{Key: e.key, Result: res, Err: err})
		n++
	}
	// The loop collected survivors back to front; restore submission order.
	for i, j := 0, len(remaining)-1; i < j; i, j = i+1, j-1 {
		remaining[i], remaining[j] = remaining[j], remaining[i]
	}

	if len(remaining) == 0 {
		delete(b.pending, ev.fd)
		b.p.remove(ev.fd)
		return n
	}
	b.pending[ev.fd] = remaining
	wantRead, wantWrite := false, false
	for _, e := range remaining {
		wantRead = wantRead || e.read
		wantWrite = wantWrite || e.write
	}
	b.p.modify(ev.fd, wantRead, wantWrite)
	return n
}

func (b *pollBackend) drainWakeup() {
	var buf [64]byte
	for {
		_, err := unix.Read(b.wakeR, buf[:])
		if err != nil {
			return
		}
	}
}

func (b *pollBackend) notify() error {
	if !b.notified.CompareAndSwap(false, true) {
		return nil
	}
	_, err := unix.Write(b.wakeW, []byte{1})
	if err != nil && !wouldBlock(err) {
		return err
	}
	return nil
}

func (b *pollBackend) close() error {
	unix.Close(b.wakeR)
	unix.Close(b.wakeW)
	return b.p.close()
}
