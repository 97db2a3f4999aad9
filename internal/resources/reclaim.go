// Package resources implements periodic memory reclamation for the
// long-running tray process.
package resources

import (
	"runtime"
	"runtime/debug"
	"sync"

	"github.com/rescale/svctray/internal/logging"
)

// Stats describes the heap before and after one reclamation.
type Stats struct {
	HeapBefore      uint64
	HeapAfter       uint64
	SystemAvailable uint64 // 0 when the platform cannot report it
}

// Reclaimer returns freed memory to the operating system.
type Reclaimer struct {
	logger *logging.Logger

	mu   sync.Mutex
	runs int
}

// NewReclaimer creates a reclaimer.
func NewReclaimer(logger *logging.Logger) *Reclaimer {
	return &Reclaimer{logger: logger.Component("gc")}
}

// Reclaim forces a garbage collection, releases unused heap to the OS and
// logs the result.
func (r *Reclaimer) Reclaim() Stats {
	var before, after runtime.MemStats
	runtime.ReadMemStats(&before)

	debug.FreeOSMemory()

	runtime.ReadMemStats(&after)
	stats := Stats{
		HeapBefore:      before.HeapAlloc,
		HeapAfter:       after.HeapAlloc,
		SystemAvailable: availableMemory(),
	}

	r.mu.Lock()
	r.runs++
	r.mu.Unlock()

	r.logger.Debug().
		Uint64("heap_before", stats.HeapBefore).
		Uint64("heap_after", stats.HeapAfter).
		Uint64("heap_released", after.HeapReleased).
		Uint64("system_available", stats.SystemAvailable).
		Msg("Reclaimed memory")
	return stats
}

// Runs returns how many times Reclaim was called.
func (r *Reclaimer) Runs() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runs
}
