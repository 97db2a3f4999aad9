// Package constants holds values shared across the tray, the watcher and the CLI.
package constants

import "time"

// Application identity
const (
	AppName        = "svctray"
	AppDisplayName = "Service Tray"
)

// Interval bounds. A zero watch or reclaim interval disables that timer.
const (
	// MinWatchInterval is the shortest accepted external-change polling interval.
	MinWatchInterval = 5 * time.Second

	// MinReclaimInterval is the shortest accepted periodic reclamation interval.
	MinReclaimInterval = 60 * time.Second

	// MenuRefreshInterval drives the menu synchronizer. Rebuilds only happen
	// when the matched services actually changed, so this can be short.
	MenuRefreshInterval = time.Second

	// StatusPollInterval is how often a start/stop waits re-query the service.
	StatusPollInterval = 250 * time.Millisecond

	// ConfigReloadDebounce coalesces bursts of file events from editors.
	ConfigReloadDebounce = 200 * time.Millisecond

	// ShutdownGrace bounds how long background goroutines get to exit.
	ShutdownGrace = 2 * time.Second
)

// Start/stop wait bounds
const (
	DefaultCommandTimeout = 30 * time.Second
	MinCommandTimeout     = time.Second
	MaxCommandTimeout     = 10 * time.Minute
)

// Event bus sizing
const (
	EventBusDefaultBuffer = 64
	EventBusMaxBuffer     = 1024
)
