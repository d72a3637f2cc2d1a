//go:build linux

package polldough

import (
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"time"
	"unsafe"

	"github.com/pawelgaczynski/giouring"
	"golang.org/x/sys/unix"
)

// entryKey is the sentinel user-data value used for the wakeup read SQE.
// It can never collide with a caller-chosen key in practice (io_uring
// itself never assigns user_data; callers own the whole uint64 space, and
// documenting max-uint64 as reserved costs nothing) — mirrors the Rust
// reactor's u64::MAX ENTRY_KEY.
const entryKey uint64 = math.MaxUint64

// uringOp is satisfied by every Op type that can prepare its own
// submission queue entry (Read, Write — see read_linux.go/write_linux.go).
type uringOp interface {
	prepSQE(sqe *giouring.SubmissionQueueEntry)
}

// uringBackend drives a Completion via a real Linux io_uring instance.
type uringBackend struct {
	ring *giouring.Ring

	submitMu sync.Mutex

	wakeupFD     int
	wakeupBuf    [8]byte
	notified     atomic.Bool
}

func newUringBackend(cfg config) (*uringBackend, error) {
	var params giouring.IOURingParams
	if cfg.sqPoll {
		params.Flags |= giouring.SetupSQPoll
		params.SqThreadIdle = cfg.sqPollIdle
		if cfg.sqPollCPU > 0 {
			params.Flags |= giouring.SetupSQAff
			params.SqThreadCPU = uint32(cfg.sqPollCPU)
		}
	}
	if cfg.ioPoll {
		params.Flags |= giouring.SetupIOPoll
	}

	entries := cfg.entries
	if entries == 0 {
		entries = 64
	}

	ring, err := giouring.CreateRingParams(entries, &params)
	if err != nil {
		return nil, err
	}

	fd, err := unix.Eventfd(0, unix.EFD_CLOEXEC)
	if err != nil {
		ring.QueueExit()
		return nil, err
	}

	return &uringBackend{ring: ring, wakeupFD: fd}, nil
}

func (b *uringBackend) register(s Source) error   { return nil }
func (b *uringBackend) deregister(s Source) error { return nil }

func (b *uringBackend) submit(op Op, key uint64) (SubmissionStatus, error) {
	prepper, ok := op.(uringOp)
	if !ok {
		return SubmissionStatus{}, errors.New("op does not support the io_uring backend")
	}

	b.submitMu.Lock()
	defer b.submitMu.Unlock()

	sqe := b.ring.GetSQE()
	if sqe == nil {
		return SubmissionStatus{}, unix.ENOMEM
	}
	prepper.prepSQE(sqe)
	sqe.UserData = key

	return Submitted(), nil
}

func (b *uringBackend) wait(timeout *time.Duration, out *[]Event) (int, error) {
	var ts *giouring.Timespec
	if timeout != nil {
		ts = durationToTimespec(*timeout)
	}

	// Submit pending SQEs under the lock, then block unlocked: a blocked
	// Wait must never hold submitMu, or a concurrent Notify (which needs
	// the lock to queue its own wakeup read) can never run, and the two
	// deadlock against each other. Mirrors the grounding ring's Submit/
	// SubmitAndWait, which drops sqLock before the blocking io_uring_enter.
	b.submitMu.Lock()
	_, err := b.ring.Submit()
	b.submitMu.Unlock()
	if err != nil {
		return 0, err
	}

	_, err = b.ring.WaitCQEsTimeout(1, ts)
	if err != nil && !errors.Is(err, unix.ETIME) {
		return 0, err
	}

	const batch = 64
	var cqes [batch]*giouring.CompletionQueueEvent
	n := 0
	for {
		count := b.ring.PeekBatchCQE(cqes[:])
		if count == 0 {
			break
		}
		for i := uint32(0); i < count; i++ {
			cqe := cqes[i]
			if cqe.UserData == entryKey {
				b.notified.Store(false)
				continue
			}
			var evErr error
			if cqe.Res < 0 {
				evErr = unix.Errno(-cqe.Res)
			}
			*out = append(*out, Event{Key: cqe.UserData, Result: int(cqe.Res), Err: evErr})
			n++
		}
		b.ring.CQAdvance(count)
		if count < batch {
			break
		}
	}
	return n, nil
}

func (b *uringBackend) notify() error {
	if !b.notified.CompareAndSwap(false, true) {
		return nil
	}

	var value uint64 = 1
	if _, err := unix.Write(b.wakeupFD, (*(*[8]byte)(unsafe.Pointer(&value)))[:]); err != nil {
		return err
	}

	// Queue the wakeup read and push it to the kernel ourselves rather
	// than leaving it for the next Wait to flush: a Wait may already be
	// blocked inside its own io_uring_enter, and that call's to_submit
	// count was fixed when it was issued, so it will never see an entry
	// queued after the fact. Submitting here lands the read (which
	// completes immediately, since the eventfd already has data) as an
	// independent io_uring_enter call, and the kernel posts its CQE to
	// the same completion queue the blocked Wait is watching.
	b.submitMu.Lock()
	defer b.submitMu.Unlock()
	sqe := b.ring.GetSQE()
	if sqe == nil {
		return unix.ENOMEM
	}
	sqe.PrepRead(b.wakeupFD, unsafe.Pointer(&b.wakeupBuf[0]), uint32(len(b.wakeupBuf)), 0)
	sqe.UserData = entryKey
	_, err := b.ring.Submit()
	return err
}

func (b *uringBackend) close() error {
	unix.Close(b.wakeupFD)
	b.ring.QueueExit()
	return nil
}

func durationToTimespec(d time.Duration) *giouring.Timespec {
	return &giouring.Timespec{
		Sec:  int64(d / time.Second),
		Nsec: int64(d % time.Second),
	}
}
