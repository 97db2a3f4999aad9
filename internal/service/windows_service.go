//go:build windows

package service

import (
	"context"
	"errors"
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
	"golang.org/x/sys/windows/svc"
	"golang.org/x/sys/windows/svc/mgr"
)

// scmManager talks to the Service Control Manager. A connection is opened per
// call and closed before returning, so no handle outlives an operation.
type scmManager struct{}

// New returns the Service Control Manager backed Manager.
func New() (Manager, error) {
	return &scmManager{}, nil
}

// connect opens the SCM with only the rights needed for access. mgr.Connect
// asks for SC_MANAGER_ALL_ACCESS, which fails for non-elevated users.
func connect(access uint32) (*mgr.Mgr, error) {
	h, err := windows.OpenSCManager(nil, nil, access)
	if err != nil {
		return nil, err
	}
	return &mgr.Mgr{Handle: h}, nil
}

func openService(m *mgr.Mgr, name string, access uint32) (*mgr.Service, error) {
	namePtr, err := windows.UTF16PtrFromString(name)
	if err != nil {
		return nil, err
	}
	h, err := windows.OpenService(m.Handle, namePtr, access)
	if err != nil {
		return nil, err
	}
	return &mgr.Service{Name: name, Handle: h}, nil
}

// List enumerates all Win32 services with their display names and states in
// a single EnumServicesStatusEx round trip.
func (w *scmManager) List(ctx context.Context) ([]Record, error) {
	m, err := connect(windows.SC_MANAGER_CONNECT | windows.SC_MANAGER_ENUMERATE_SERVICE)
	if err != nil {
		return nil, &EnumerationError{Err: classify(err)}
	}
	defer m.Disconnect()

	var (
		buf              []byte
		bytesNeeded      uint32
		servicesReturned uint32
	)
	for {
		if err := ctx.Err(); err != nil {
			return nil, &EnumerationError{Err: err}
		}
		var p *byte
		if len(buf) > 0 {
			p = &buf[0]
		}
		err = windows.EnumServicesStatusEx(m.Handle, windows.SC_ENUM_PROCESS_INFO,
			windows.SERVICE_WIN32, windows.SERVICE_STATE_ALL,
			p, uint32(len(buf)), &bytesNeeded, &servicesReturned, nil, nil)
		if err == nil {
			break
		}
		if !errors.Is(err, windows.ERROR_MORE_DATA) || bytesNeeded <= uint32(len(buf)) {
			return nil, &EnumerationError{Err: classify(err)}
		}
		buf = make([]byte, bytesNeeded)
	}

	if servicesReturned == 0 {
		return []Record{}, nil
	}

	entries := unsafe.Slice((*windows.ENUM_SERVICE_STATUS_PROCESS)(unsafe.Pointer(&buf[0])), int(servicesReturned))
	records := make([]Record, 0, len(entries))
	for _, e := range entries {
		records = append(records, Record{
			Name:        windows.UTF16PtrToString(e.ServiceName),
			DisplayName: windows.UTF16PtrToString(e.DisplayName),
			Status:      svcStateToStatus(svc.State(e.ServiceStatusProcess.CurrentState)),
		})
	}
	return records, nil
}

// Query returns the current service status.
func (w *scmManager) Query(ctx context.Context, name string) (Status, error) {
	m, err := connect(windows.SC_MANAGER_CONNECT)
	if err != nil {
		return StatusUnknown, &OperationError{Op: OpQuery, Service: name, Err: classify(err)}
	}
	defer m.Disconnect()

	s, err := openService(m, name, windows.SERVICE_QUERY_STATUS)
	if err != nil {
		return StatusUnknown, &OperationError{Op: OpQuery, Service: name, Err: classify(err)}
	}
	defer s.Close()

	status, err := s.Query()
	if err != nil {
		return StatusUnknown, &OperationError{Op: OpQuery, Service: name, Err: classify(err)}
	}
	return svcStateToStatus(status.State), nil
}

// Start starts the named service.
func (w *scmManager) Start(ctx context.Context, name string) error {
	m, err := connect(windows.SC_MANAGER_CONNECT)
	if err != nil {
		return &OperationError{Op: OpStart, Service: name, Err: classify(err)}
	}
	defer m.Disconnect()

	s, err := openService(m, name, windows.SERVICE_START|windows.SERVICE_QUERY_STATUS)
	if err != nil {
		return &OperationError{Op: OpStart, Service: name, Err: classify(err)}
	}
	defer s.Close()

	if err := s.Start(); err != nil {
		return &OperationError{Op: OpStart, Service: name, Err: classify(err)}
	}
	return nil
}

// Stop sends the stop control to the named service.
func (w *scmManager) Stop(ctx context.Context, name string) error {
	m, err := connect(windows.SC_MANAGER_CONNECT)
	if err != nil {
		return &OperationError{Op: OpStop, Service: name, Err: classify(err)}
	}
	defer m.Disconnect()

	s, err := openService(m, name, windows.SERVICE_STOP|windows.SERVICE_QUERY_STATUS)
	if err != nil {
		return &OperationError{Op: OpStop, Service: name, Err: classify(err)}
	}
	defer s.Close()

	if _, err := s.Control(svc.Stop); err != nil {
		return &OperationError{Op: OpStop, Service: name, Err: classify(err)}
	}
	return nil
}

// Close is a no-op; connections are per call.
func (w *scmManager) Close() error {
	return nil
}

// classify maps Win32 errors onto the package sentinels.
func classify(err error) error {
	switch {
	case errors.Is(err, windows.ERROR_SERVICE_DOES_NOT_EXIST):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, windows.ERROR_ACCESS_DENIED):
		return fmt.Errorf("%w: %w", ErrPermissionDenied, err)
	case errors.Is(err, windows.ERROR_SERVICE_REQUEST_TIMEOUT):
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	default:
		return err
	}
}

// svcStateToStatus converts Windows service state to our Status type.
func svcStateToStatus(state svc.State) Status {
	switch state {
	case svc.Stopped:
		return StatusStopped
	case svc.StartPending:
		return StatusStartPending
	case svc.StopPending:
		return StatusStopPending
	case svc.Running:
		return StatusRunning
	case svc.ContinuePending:
		return StatusContinuePending
	case svc.PausePending:
		return StatusPausePending
	case svc.Paused:
		return StatusPaused
	default:
		return StatusUnknown
	}
}
