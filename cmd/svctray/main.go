// svctray shows selected operating-system services in a tray menu and
// starts or stops them on click.
package main

import (
	"os"
	"runtime"

	"github.com/rescale/svctray/internal/cli"
	"github.com/rescale/svctray/internal/version"
)

// Set by ldflags:
//
//	go build -ldflags "-X main.Version=v1.2.0 -X main.BuildTime=$(date -u +%F)" ./cmd/svctray
var (
	Version   = ""
	BuildTime = ""
)

func init() {
	// The tray's native event loop must own the main thread.
	runtime.LockOSThread()
}

func main() {
	if Version != "" {
		version.Version = Version
	}
	if BuildTime != "" {
		version.BuildTime = BuildTime
	}

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
