//go:build linux

package polldough

// newPlatformBackend selects the io_uring backend by default, falling back
// to the generic polling backend if the running kernel doesn't support
// io_uring (old kernels, seccomp filters, containers that block the
// syscall) or if the caller forced BackendPolling.
func newPlatformBackend(cfg config) (driver, error) {
	if cfg.backend == BackendPolling {
		return newPollBackend(cfg)
	}

	d, err := newUringBackend(cfg)
	if err == nil {
		return d, nil
	}
	if cfg.backend == BackendAuto {
		return newPollBackend(cfg)
	}
	return nil, err
}
