//go:build !windows

package launcher

import (
	"fmt"
	"os/exec"
)

func launch(path string) error {
	cmd := exec.Command(path)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", path, err)
	}
	// Reap the child so it does not linger as a zombie.
	go cmd.Wait()
	return nil
}
