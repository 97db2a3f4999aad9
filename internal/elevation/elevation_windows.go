//go:build windows

// Package elevation reports whether the process may change service state.
package elevation

import "golang.org/x/sys/windows"

// IsElevated reports whether the process token is elevated (UAC admin).
func IsElevated() bool {
	return windows.GetCurrentProcessToken().IsElevated()
}
