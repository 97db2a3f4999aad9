// Package command toggles a single service between running and stopped
// without blocking the tray's UI loop.
package command

import (
	"context"
	"sync"
	"time"

	"github.com/rescale/svctray/internal/constants"
	"github.com/rescale/svctray/internal/events"
	"github.com/rescale/svctray/internal/logging"
	"github.com/rescale/svctray/internal/notify"
	"github.com/rescale/svctray/internal/service"
	"github.com/rescale/svctray/internal/state"
)

// Action is what a command did to its service.
type Action int

const (
	ActionNone Action = iota
	ActionStart
	ActionStop
)

func (a Action) String() string {
	switch a {
	case ActionStart:
		return "start"
	case ActionStop:
		return "stop"
	default:
		return "none"
	}
}

// Outcome is the result of one command. Err is a *service.OperationError
// when the command failed; it is never fatal to the process.
type Outcome struct {
	Service string
	Action  Action
	Status  service.Status

	// Notification is the message to show, or nil when the notification
	// policy suppresses it.
	Notification *notify.Message

	Err error
}

// Executor runs start/stop commands against a service manager.
type Executor struct {
	manager      service.Manager
	state        *state.Context
	sink         notify.Sink
	bus          *events.EventBus
	logger       *logging.Logger
	pollInterval time.Duration

	wg sync.WaitGroup
}

// NewExecutor creates an executor. sink and bus may be nil; Submit then
// skips delivery or publishing respectively.
func NewExecutor(m service.Manager, st *state.Context, sink notify.Sink, bus *events.EventBus, logger *logging.Logger) *Executor {
	return &Executor{
		manager:      m,
		state:        st,
		sink:         sink,
		bus:          bus,
		logger:       logger.Component("command"),
		pollInterval: constants.StatusPollInterval,
	}
}

// SetPollInterval changes how often the wait re-queries the service.
func (e *Executor) SetPollInterval(d time.Duration) {
	e.pollInterval = d
}

// Execute toggles name: a running service is stopped, a stopped one started,
// and each waits (bounded by the configured timeout) for the target status.
// Any other status is left alone and reported as ActionNone without error.
//
// When watchEnabled is set, name is added to the ignore set before the
// start or stop request so the watcher does not report the change again.
// The entry is withdrawn if the request itself is rejected, unless an
// earlier command had already added it.
func (e *Executor) Execute(ctx context.Context, name string, watchEnabled bool) Outcome {
	opts := e.state.Options()
	log := e.logger.With().Str("service", name).Logger()

	out := Outcome{Service: name}

	status, err := e.manager.Query(ctx, name)
	if err != nil {
		out.Err = err
		log.Warn().Err(err).Msg("Failed to query service")
		return e.finish(out)
	}
	out.Status = status

	var (
		request func(context.Context, string) error
		target  service.Status
	)
	switch status {
	case service.StatusRunning:
		out.Action, request, target = ActionStop, e.manager.Stop, service.StatusStopped
	case service.StatusStopped:
		out.Action, request, target = ActionStart, e.manager.Start, service.StatusRunning
	default:
		log.Debug().Str("status", status.String()).Msg("Service is not settled, nothing to do")
		return out
	}

	// Only an entry added here may be withdrawn; an existing one still
	// belongs to an earlier command whose transition is not yet observed.
	added := watchEnabled && e.state.Ignore.Add(name)

	log.Info().Str("action", out.Action.String()).Msg("Requesting service change")
	if err := request(ctx, name); err != nil {
		if added {
			e.state.Ignore.Consume(name)
		}
		out.Err = err
		log.Warn().Err(err).Str("action", out.Action.String()).Msg("Service request failed")
		return e.finish(out)
	}

	waitCtx, cancel := context.WithTimeout(ctx, opts.CommandTimeout)
	defer cancel()

	out.Status, err = service.WaitForStatus(waitCtx, e.manager, name, target, e.pollInterval)
	if err != nil {
		out.Err = err
		log.Warn().Err(err).Str("status", out.Status.String()).Msg("Service did not settle")
		return e.finish(out)
	}

	log.Info().Str("status", out.Status.String()).Msg("Service changed")
	return e.finish(out)
}

// finish attaches the notification allowed by the current policy.
func (e *Executor) finish(out Outcome) Outcome {
	opts := e.state.Options()

	if out.Err != nil {
		if opts.Notify.NotifyError() {
			action := out.Action.String()
			if out.Action == ActionNone {
				action = "control"
			}
			m := notify.Failed(out.Service, action, out.Err, opts.ErrorSeverity)
			out.Notification = &m
		}
		return out
	}

	if !opts.Notify.NotifySuccess() {
		return out
	}
	var m notify.Message
	switch out.Action {
	case ActionStart:
		m = notify.Started(out.Service, opts.StartedSeverity)
	case ActionStop:
		m = notify.Stopped(out.Service, opts.StoppedSeverity)
	default:
		return out
	}
	out.Notification = &m
	return out
}

// Submit runs Execute in its own goroutine and returns a channel that
// receives the outcome once. The watch setting is read from the current
// options. The command is not cancelled with ctx; it runs until it
// completes or its wait times out. The outcome's notification is delivered
// to the sink and a CommandCompletedEvent is published before the channel
// receives it.
func (e *Executor) Submit(ctx context.Context, name string) <-chan Outcome {
	result := make(chan Outcome, 1)
	watchEnabled := e.state.Options().Watching()
	ctx = context.WithoutCancel(ctx)

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer close(result)

		out := e.Execute(ctx, name, watchEnabled)
		if out.Notification != nil && e.sink != nil {
			e.sink.Notify(*out.Notification)
		}
		if e.bus != nil {
			e.bus.PublishCommandCompleted(out.Service, out.Action.String(), out.Status.String(), out.Err)
		}
		result <- out
	}()
	return result
}

// Wait blocks until every submitted command has finished.
func (e *Executor) Wait() {
	e.wg.Wait()
}
