// Package service provides access to the operating system's service directory.
// Windows uses the Service Control Manager, Linux talks to systemd over D-Bus,
// and other platforms report ErrNotSupported.
package service

import (
	"context"
	"errors"
	"fmt"
)

// Status represents the current service status.
type Status int

const (
	StatusUnknown Status = iota
	StatusStopped
	StatusStartPending
	StatusStopPending
	StatusRunning
	StatusContinuePending
	StatusPausePending
	StatusPaused
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusStopped:
		return "Stopped"
	case StatusStartPending:
		return "Start Pending"
	case StatusStopPending:
		return "Stop Pending"
	case StatusRunning:
		return "Running"
	case StatusContinuePending:
		return "Continue Pending"
	case StatusPausePending:
		return "Pause Pending"
	case StatusPaused:
		return "Paused"
	default:
		return "Unknown"
	}
}

// Settled reports whether s is Running or Stopped. Every other status is
// transient or foreign and is never acted upon.
func (s Status) Settled() bool {
	return s == StatusRunning || s == StatusStopped
}

// Record is a point-in-time view of one installed service.
type Record struct {
	Name        string // stable identifier
	DisplayName string
	Status      Status
}

// Lister enumerates installed services.
type Lister interface {
	List(ctx context.Context) ([]Record, error)
}

// Manager is the full service directory accessor.
type Manager interface {
	Lister

	// Query returns the current status of a single service.
	Query(ctx context.Context, name string) (Status, error)

	// Start requests a start. It returns once the request was accepted,
	// not when the service is running.
	Start(ctx context.Context, name string) error

	// Stop requests a stop. It returns once the request was accepted.
	Stop(ctx context.Context, name string) error

	// Close releases OS handles held by the manager.
	Close() error
}

// Classified failures. Backends wrap their native errors with one of these.
var (
	ErrNotFound         = errors.New("service not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrTimeout          = errors.New("timed out")
	ErrNotSupported     = errors.New("service management is not supported on this platform")
)

// Op names a mutating or querying service operation.
type Op string

const (
	OpQuery Op = "query"
	OpStart Op = "start"
	OpStop  Op = "stop"
	OpWait  Op = "wait"
)

// OperationError reports a failed operation against a single service.
// It is recovered locally and surfaced to the user as a notification.
type OperationError struct {
	Op      Op
	Service string
	Err     error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("failed to %s service %s: %v", e.Op, e.Service, e.Err)
}

func (e *OperationError) Unwrap() error { return e.Err }

// EnumerationError reports a failure to list services. Callers skip the
// current tick or redraw and retry on the next cycle.
type EnumerationError struct {
	Err error
}

func (e *EnumerationError) Error() string {
	return fmt.Sprintf("failed to enumerate services: %v", e.Err)
}

func (e *EnumerationError) Unwrap() error { return e.Err }
