package polldough

// Backend identifies which completion engine a Completion is driven by.
type Backend int

const (
	// BackendAuto selects io_uring on Linux (falling back to the polling
	// backend if the kernel doesn't support it), the polling backend on
	// other POSIX platforms, and IOCP on Windows.
	BackendAuto Backend = iota
	// BackendPolling forces the generic readiness-polling backend on
	// Linux instead of io_uring. It has no effect on Windows, which
	// always uses IOCP.
	BackendPolling
)

// config holds the resolved construction parameters for NewCompletion,
// built up from the supplied Options.
type config struct {
	entries  uint32
	backend  Backend
	sqPoll   bool
	sqPollCPU   int
	sqPollIdle  uint32 // milliseconds
	ioPoll   bool
	observer Observer
}

func defaultConfig(capacity int) config {
	return config{
		entries:  uint32(capacity),
		backend:  BackendAuto,
		observer: NoOpObserver{},
	}
}

// Option configures a Completion at construction time.
type Option func(*config)

// WithBackend overrides automatic backend selection.
func WithBackend(b Backend) Option {
	return func(c *config) { c.backend = b }
}

// WithSQPoll enables the io_uring backend's kernel-side submission-queue
// polling thread, eliminating io_uring_enter calls on the hot path at the
// cost of a dedicated kernel thread. No effect on other backends.
func WithSQPoll() Option {
	return func(c *config) { c.sqPoll = true }
}

// WithSQPollCPU pins the SQPOLL kernel thread to the given CPU. Implies
// WithSQPoll. A cpu of 0 sets no affinity, so CPU 0 cannot be selected.
func WithSQPollCPU(cpu int) Option {
	return func(c *config) { c.sqPoll = true; c.sqPollCPU = cpu }
}

// WithSQPollIdleMillis sets how long the SQPOLL kernel thread idles before
// sleeping. Implies WithSQPoll.
func WithSQPollIdleMillis(ms uint32) Option {
	return func(c *config) { c.sqPoll = true; c.sqPollIdle = ms }
}

// WithIOPoll enables io_uring busy-polling completions instead of
// interrupt-driven completion, for pollable block devices only.
func WithIOPoll() Option {
	return func(c *config) { c.ioPoll = true }
}

// WithObserver attaches an Observer to record Submit/Wait/Notify activity.
func WithObserver(o Observer) Option {
	return func(c *config) {
		if o != nil {
			c.observer = o
		}
	}
}
