// Package launcher opens the external service manager.
package launcher

import (
	"errors"
	"strings"
)

// ErrNoPath is returned when no program is configured.
var ErrNoPath = errors.New("no service manager configured")

// Launch starts path without waiting for it. Windows documents such as
// services.msc are opened with their associated program.
func Launch(path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return ErrNoPath
	}
	return launch(path)
}
