//go:build !windows && !unix

package elevation

// IsElevated always reports false where services cannot be managed.
func IsElevated() bool {
	return false
}
