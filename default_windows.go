//go:build windows

package polldough

// newPlatformBackend always uses the IOCP backend on Windows.
func newPlatformBackend(cfg config) (driver, error) {
	return newIOCPBackend(cfg)
}
