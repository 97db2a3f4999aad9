package service

import (
	"context"
	"fmt"
	"time"
)

// WaitForStatus polls m until the service reaches target or ctx is done.
// The caller bounds the wait through ctx; an expired context yields an
// error wrapping ErrTimeout together with the last observed status.
func WaitForStatus(ctx context.Context, m Manager, name string, target Status, interval time.Duration) (Status, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := StatusUnknown
	for {
		status, err := m.Query(ctx, name)
		if err != nil {
			if ctx.Err() != nil {
				return last, &OperationError{Op: OpWait, Service: name,
					Err: fmt.Errorf("%w waiting for %s (last status %s)", ErrTimeout, target, last)}
			}
			return last, err
		}
		last = status
		if status == target {
			return status, nil
		}

		select {
		case <-ctx.Done():
			return last, &OperationError{Op: OpWait, Service: name,
				Err: fmt.Errorf("%w waiting for %s (last status %s)", ErrTimeout, target, last)}
		case <-ticker.C:
		}
	}
}
