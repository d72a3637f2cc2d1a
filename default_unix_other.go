//go:build !linux && !windows

package polldough

// newPlatformBackend always uses the generic readiness-polling backend on
// POSIX platforms without io_uring (BSD, Darwin).
func newPlatformBackend(cfg config) (driver, error) {
	return newPollBackend(cfg)
}
