//go:build !windows && !linux

package service

// New reports that no service backend exists for this platform.
func New() (Manager, error) {
	return nil, ErrNotSupported
}
