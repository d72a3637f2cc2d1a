package polldough

import (
	"sync/atomic"
	"time"

	"github.com/notgull/polldough/internal/logging"
)

// driver is the backend contract, implemented by uringBackend (Linux),
// pollBackend (every POSIX platform, Linux included) and iocpBackend
// (Windows); newPlatformBackend picks one per Completion.
type driver interface {
	register(s Source) error
	deregister(s Source) error
	submit(op Op, key uint64) (SubmissionStatus, error)
	wait(timeout *time.Duration, out *[]Event) (int, error)
	notify() error
	close() error
}

// Completion is the reactor facade: register sources, submit operations
// against caller-chosen keys, and drain completions through Wait. A
// Completion is safe for concurrent use from multiple goroutines; Submit
// and Wait are explicitly designed to be called from different goroutines
// at once.
type Completion struct {
	d        driver
	observer Observer
	logger   *logging.Logger
	closed   atomic.Bool
}

// NewCompletion creates a Completion sized for roughly capacity
// concurrently in-flight operations. The backend is chosen automatically
// per platform unless overridden with WithBackend.
func NewCompletion(capacity int, opts ...Option) (*Completion, error) {
	cfg := defaultConfig(capacity)
	for _, opt := range opts {
		opt(&cfg)
	}

	d, err := newPlatformBackend(cfg)
	if err != nil {
		return nil, WrapError(StageConstruction, "new_completion", err)
	}

	logging.Default().Debug("completion constructed", "capacity", capacity, "backend", cfg.backend)
	return &Completion{d: d, observer: cfg.observer, logger: logging.Default()}, nil
}

// Register tells the backend about a Source ahead of submitting operations
// against it. Not all backends require this (io_uring doesn't), but
// calling it is always safe and is required before submitting against the
// polling backend on some platforms.
func (c *Completion) Register(s Source) error {
	if err := c.d.register(s); err != nil {
		return WrapError(StageRegistration, "register", err)
	}
	return nil
}

// Deregister undoes a prior Register. It is a no-op, not an error, if s
// was never registered, and (on the IOCP backend) a no-op unconditionally
// — see SPEC_FULL.md's Open Question resolutions.
func (c *Completion) Deregister(s Source) error {
	if err := c.d.deregister(s); err != nil {
		return WrapError(StageRegistration, "deregister", err)
	}
	return nil
}

// Submit hands op to the backend under key. The returned SubmissionStatus
// reports whether the operation already finished synchronously — if so,
// no Event for key will arrive from Wait.
func (c *Completion) Submit(op Op, key uint64) (SubmissionStatus, error) {
	log := c.logger.With("key", key)
	status, err := c.d.submit(op, key)
	c.observer.ObserveSubmit(status, err)
	if err != nil {
		log.Debug("submit failed", "err", err)
		return status, WrapError(StageSubmit, "submit", err)
	}
	log.Debug("submit completed", "synchronous", status.Complete)
	return status, nil
}

// Wait blocks until at least one event is available (or timeout elapses,
// if non-nil) and appends completed events to out, returning how many
// were added. A nil timeout blocks indefinitely.
func (c *Completion) Wait(timeout *time.Duration, out *[]Event) (int, error) {
	c.observer.ObserveWait()
	n, err := c.d.wait(timeout, out)
	if err != nil {
		return n, WrapError(StageWait, "wait", err)
	}
	for _, ev := range (*out)[len(*out)-n:] {
		c.observer.ObserveCompletion(ev, 0)
	}
	return n, nil
}

// Notify wakes up a goroutine blocked in Wait without submitting any
// operation. Useful for shutdown signaling.
func (c *Completion) Notify() error {
	c.observer.ObserveNotify()
	if err := c.d.notify(); err != nil {
		return WrapError(StageWait, "notify", err)
	}
	return nil
}

// Close releases the backend's resources. It is idempotent. It does not
// wait for in-flight operations to drain; callers that need drain
// semantics must track their own outstanding keys.
func (c *Completion) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	return c.d.close()
}
