//go:build unix

// Package elevation reports whether the process may change service state.
package elevation

import "golang.org/x/sys/unix"

// IsElevated reports whether the process runs as root. Polkit rules that
// authorize other users are not consulted.
func IsElevated() bool {
	return unix.Geteuid() == 0
}
