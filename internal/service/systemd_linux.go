//go:build linux

package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/godbus/dbus/v5"
)

const (
	systemdDest  = "org.freedesktop.systemd1"
	systemdPath  = dbus.ObjectPath("/org/freedesktop/systemd1")
	managerIface = "org.freedesktop.systemd1.Manager"
)

// unitStatus mirrors the (ssssssouso) struct returned by ListUnits*.
type unitStatus struct {
	Name        string
	Description string
	LoadState   string
	ActiveState string
	SubState    string
	Followed    string
	Path        dbus.ObjectPath
	JobID       uint32
	JobType     string
	JobPath     dbus.ObjectPath
}

// systemdManager drives systemd service units over the system bus.
// Unit names (e.g. "sshd.service") are the stable identifiers and unit
// descriptions stand in for display names.
type systemdManager struct {
	conn *dbus.Conn
	obj  dbus.BusObject
}

// New connects to the system bus.
func New() (Manager, error) {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to system bus: %w", err)
	}
	return &systemdManager{
		conn: conn,
		obj:  conn.Object(systemdDest, systemdPath),
	}, nil
}

// List returns every loaded service unit.
func (s *systemdManager) List(ctx context.Context) ([]Record, error) {
	var units []unitStatus
	err := s.obj.CallWithContext(ctx, managerIface+".ListUnitsByPatterns", 0,
		[]string{}, []string{"*.service"}).Store(&units)
	if err != nil {
		return nil, &EnumerationError{Err: classifyDBus(err)}
	}

	records := make([]Record, 0, len(units))
	for _, u := range units {
		if u.LoadState == "not-found" {
			continue
		}
		records = append(records, Record{
			Name:        u.Name,
			DisplayName: u.Description,
			Status:      unitToStatus(u.ActiveState),
		})
	}
	return records, nil
}

// Query returns the status of one unit. Units systemd cannot find report ErrNotFound.
func (s *systemdManager) Query(ctx context.Context, name string) (Status, error) {
	var units []unitStatus
	err := s.obj.CallWithContext(ctx, managerIface+".ListUnitsByNames", 0, []string{name}).Store(&units)
	if err != nil {
		return StatusUnknown, &OperationError{Op: OpQuery, Service: name, Err: classifyDBus(err)}
	}
	if len(units) == 0 || units[0].LoadState == "not-found" {
		return StatusUnknown, &OperationError{Op: OpQuery, Service: name, Err: ErrNotFound}
	}
	return unitToStatus(units[0].ActiveState), nil
}

// Start enqueues a start job for the unit.
func (s *systemdManager) Start(ctx context.Context, name string) error {
	var job dbus.ObjectPath
	err := s.obj.CallWithContext(ctx, managerIface+".StartUnit", 0, name, "replace").Store(&job)
	if err != nil {
		return &OperationError{Op: OpStart, Service: name, Err: classifyDBus(err)}
	}
	return nil
}

// Stop enqueues a stop job for the unit.
func (s *systemdManager) Stop(ctx context.Context, name string) error {
	var job dbus.ObjectPath
	err := s.obj.CallWithContext(ctx, managerIface+".StopUnit", 0, name, "replace").Store(&job)
	if err != nil {
		return &OperationError{Op: OpStop, Service: name, Err: classifyDBus(err)}
	}
	return nil
}

// Close closes the bus connection.
func (s *systemdManager) Close() error {
	return s.conn.Close()
}

func unitToStatus(activeState string) Status {
	switch activeState {
	case "active", "reloading":
		return StatusRunning
	case "inactive", "failed":
		return StatusStopped
	case "activating":
		return StatusStartPending
	case "deactivating":
		return StatusStopPending
	default:
		return StatusUnknown
	}
}

// classifyDBus maps systemd and polkit error names onto the package sentinels.
func classifyDBus(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	switch dbusErrorName(err) {
	case "org.freedesktop.systemd1.NoSuchUnit", "org.freedesktop.systemd1.LoadFailed":
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case "org.freedesktop.DBus.Error.AccessDenied",
		"org.freedesktop.PolicyKit1.Error.NotAuthorized",
		"org.freedesktop.DBus.Error.InteractiveAuthorizationRequired":
		return fmt.Errorf("%w: %w", ErrPermissionDenied, err)
	case "org.freedesktop.DBus.Error.Timeout", "org.freedesktop.DBus.Error.NoReply":
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return err
}

func dbusErrorName(err error) string {
	var de dbus.Error
	if errors.As(err, &de) {
		return de.Name
	}
	var dep *dbus.Error
	if errors.As(err, &dep) && dep != nil {
		return dep.Name
	}
	return ""
}
