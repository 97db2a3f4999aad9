//go:build linux

package resources

import "golang.org/x/sys/unix"

// availableMemory returns free system memory in bytes.
func availableMemory() uint64 {
	var info unix.Sysinfo_t
	if err := unix.Sysinfo(&info); err != nil {
		return 0
	}
	return uint64(info.Freeram) * uint64(info.Unit)
}
