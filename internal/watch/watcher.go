// Package watch reports service changes made outside svctray.
package watch

import (
	"context"
	"time"

	"github.com/rescale/svctray/internal/events"
	"github.com/rescale/svctray/internal/logging"
	"github.com/rescale/svctray/internal/notify"
	"github.com/rescale/svctray/internal/service"
	"github.com/rescale/svctray/internal/snapshot"
	"github.com/rescale/svctray/internal/state"
)

// Watcher compares successive snapshots of the matched services and
// notifies about every transition the process did not cause itself.
//
// Tick is not safe for concurrent use. The tray calls it from its UI loop;
// the headless watch command calls it from Run.
type Watcher struct {
	lister service.Lister
	state  *state.Context
	sink   notify.Sink
	bus    *events.EventBus
	logger *logging.Logger

	prev *snapshot.Snapshot
}

// New creates a watcher. bus may be nil.
func New(lister service.Lister, st *state.Context, sink notify.Sink, bus *events.EventBus, logger *logging.Logger) *Watcher {
	return &Watcher{
		lister: lister,
		state:  st,
		sink:   sink,
		bus:    bus,
		logger: logger.Component("watch"),
	}
}

// Tick takes a new snapshot and returns the transitions it reported.
// The first successful tick only records a baseline. A failed enumeration
// is logged and leaves the baseline untouched for the next tick.
//
// Transitions for names in the ignore set consume that entry and are not
// notified. All others are notified regardless of the notification policy.
func (w *Watcher) Tick(ctx context.Context) []snapshot.Transition {
	all, err := w.lister.List(ctx)
	if err != nil {
		w.logger.Warn().Err(err).Msg("Failed to enumerate services, retrying next tick")
		return nil
	}

	opts := w.state.Options()
	curr := snapshot.Match(all, opts.Filter())

	if w.prev == nil {
		w.prev = &curr
		w.logger.Debug().Int("services", len(curr)).Msg("Watch baseline recorded")
		return nil
	}

	res := snapshot.Diff(w.prev, curr)
	w.prev = &curr
	if !res.Changed {
		return nil
	}

	var reported []snapshot.Transition
	for _, tr := range res.Transitions {
		name := tr.Record.Name
		suppressed := w.state.Ignore.Consume(name)
		if w.bus != nil {
			w.bus.PublishTransition(name, tr.Direction.String(), suppressed)
		}
		if suppressed {
			w.logger.Debug().Str("service", name).Str("direction", tr.Direction.String()).Msg("Suppressed self-initiated transition")
			continue
		}

		w.logger.Info().Str("service", name).Str("direction", tr.Direction.String()).Msg("Service changed externally")
		label := opts.Label(tr.Record)
		if tr.Direction == snapshot.Started {
			w.sink.Notify(notify.Started(label, opts.StartedSeverity))
		} else {
			w.sink.Notify(notify.Stopped(label, opts.StoppedSeverity))
		}
		reported = append(reported, tr)
	}
	return reported
}

// Reset drops the baseline so the next tick records a new one. The tray
// calls it after the filter changes.
func (w *Watcher) Reset() {
	w.prev = nil
}

// Run ticks every interval until ctx is done. The first tick happens
// immediately to record the baseline.
func (w *Watcher) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	w.logger.Info().Dur("interval", interval).Msg("Watching services")
	w.Tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			w.Tick(ctx)
		}
	}
}
