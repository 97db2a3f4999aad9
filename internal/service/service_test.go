package service

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestStatusString(t *testing.T) {
	tests := []struct {
		status   Status
		expected string
	}{
		{StatusUnknown, "Unknown"},
		{StatusStopped, "Stopped"},
		{StatusStartPending, "Start Pending"},
		{StatusStopPending, "Stop Pending"},
		{StatusRunning, "Running"},
		{StatusContinuePending, "Continue Pending"},
		{StatusPausePending, "Pause Pending"},
		{StatusPaused, "Paused"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.status.String(); got != tt.expected {
				t.Errorf("Status.String() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestStatusSettled(t *testing.T) {
	settled := map[Status]bool{
		StatusRunning: true,
		StatusStopped: true,
	}
	for s := StatusUnknown; s <= StatusPaused; s++ {
		if got := s.Settled(); got != settled[s] {
			t.Errorf("%s.Settled() = %v, want %v", s, got, settled[s])
		}
	}
}

func TestOperationErrorUnwrap(t *testing.T) {
	err := &OperationError{Op: OpStart, Service: "wuauserv", Err: fmt.Errorf("%w: access is denied", ErrPermissionDenied)}

	if !errors.Is(err, ErrPermissionDenied) {
		t.Error("OperationError should unwrap to ErrPermissionDenied")
	}
	if !strings.Contains(err.Error(), "start service wuauserv") {
		t.Errorf("unexpected message %q", err.Error())
	}

	var opErr *OperationError
	wrapped := fmt.Errorf("toggle: %w", err)
	if !errors.As(wrapped, &opErr) || opErr.Service != "wuauserv" {
		t.Error("errors.As should find the OperationError through wrapping")
	}
}

func TestEnumerationErrorUnwrap(t *testing.T) {
	cause := errors.New("rpc unavailable")
	err := &EnumerationError{Err: cause}
	if !errors.Is(err, cause) {
		t.Error("EnumerationError should unwrap to its cause")
	}
}
