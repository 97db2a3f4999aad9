// Package tray runs the system tray icon: one UI loop owns the menu and both
// previous snapshots, while start/stop commands run in their own goroutines.
package tray

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"regexp"
	"syscall"
	"time"

	"fyne.io/systray"
	"vawter.tech/stopper"

	"github.com/rescale/svctray/internal/command"
	"github.com/rescale/svctray/internal/config"
	"github.com/rescale/svctray/internal/constants"
	"github.com/rescale/svctray/internal/events"
	"github.com/rescale/svctray/internal/logging"
	"github.com/rescale/svctray/internal/menu"
	"github.com/rescale/svctray/internal/notify"
	"github.com/rescale/svctray/internal/resources"
	"github.com/rescale/svctray/internal/service"
	"github.com/rescale/svctray/internal/state"
	"github.com/rescale/svctray/internal/version"
	"github.com/rescale/svctray/internal/watch"
)

// Action is a menu click delivered to the UI loop.
type Action struct {
	Kind    menu.ActionKind
	Service string
}

// Deps wires the tray to its collaborators.
type Deps struct {
	State    *state.Context
	Manager  service.Manager
	Sink     notify.Sink
	Logger   *logging.Logger
	Icon     []byte
	Elevated func() bool
	Launch   func(path string) error

	// ConfigPath is watched for changes when set. Overrides are the
	// command-line values re-applied on every reload.
	ConfigPath string
	Overrides  map[string]string
}

// App is the tray application.
type App struct {
	state     *state.Context
	sink      notify.Sink
	logger    *logging.Logger
	launch    func(string) error
	bus       *events.EventBus
	executor  *command.Executor
	watcher   *watch.Watcher
	reclaimer *resources.Reclaimer

	host     host
	view     menu.View
	menuSync *menu.Synchronizer
	icon     []byte
	actions  chan Action
	reloads  chan *config.Options

	configPath      string
	overrides       map[string]string
	refreshInterval time.Duration

	sctx *stopper.Context

	// shutdownSteps records the release order, for diagnostics.
	shutdownSteps []string
}

func newApp(d Deps, h host) *App {
	bus := events.NewEventBus(0)
	return &App{
		state:           d.State,
		sink:            d.Sink,
		logger:          d.Logger.Component("tray"),
		launch:          d.Launch,
		bus:             bus,
		executor:        command.NewExecutor(d.Manager, d.State, d.Sink, bus, d.Logger),
		watcher:         watch.New(d.Manager, d.State, d.Sink, bus, d.Logger),
		reclaimer:       resources.NewReclaimer(d.Logger),
		host:            h,
		icon:            d.Icon,
		actions:         make(chan Action, 8),
		reloads:         make(chan *config.Options, 1),
		configPath:      d.ConfigPath,
		overrides:       d.Overrides,
		refreshInterval: constants.MenuRefreshInterval,
	}
}

// setView attaches the menu surface. It must be called before start.
func (a *App) setView(v menu.View, elevated func() bool, lister service.Lister) {
	a.view = v
	a.menuSync = menu.NewSynchronizer(lister, a.state, v, elevated, a.logger)
}

// Run shows the tray icon and blocks until the user exits or the process
// is interrupted. It must be called from the main goroutine.
func Run(ctx context.Context, d Deps) error {
	a := newApp(d, systrayHost{})
	a.bind(ctx)
	a.setView(newSystrayView(a.sctx, a.actions), d.Elevated, d.Manager)

	systray.Run(func() {
		a.start()
	}, func() {
		a.logger.Debug().Msg("Tray exited")
	})

	a.sctx.Stop(constants.ShutdownGrace)
	err := a.sctx.Wait()
	a.executor.Wait()
	a.bus.Close()
	return err
}

// bind creates the stopper for the tray's goroutines. Cancelling ctx
// requests an orderly stop instead of cancelling calls already in flight
// on the UI loop.
func (a *App) bind(ctx context.Context) {
	a.sctx = stopper.WithContext(context.WithoutCancel(ctx))
	a.sctx.Go(func(sctx *stopper.Context) error {
		select {
		case <-ctx.Done():
			a.logger.Info().Msg("Cancelled, shutting down")
			sctx.Stop(constants.ShutdownGrace)
		case <-sctx.Stopping():
		}
		return nil
	})
}

// start launches the UI loop and its helper goroutines under a.sctx.
func (a *App) start() {
	a.host.SetIcon(a.icon)
	a.host.SetTooltip(constants.AppDisplayName)

	a.interceptSignals()

	if a.configPath != "" {
		a.sctx.Go(func(sctx *stopper.Context) error {
			ctx, cancel := untilStopping(sctx)
			defer cancel()
			err := config.Watch(ctx, a.configPath, a.overrides, a.logger, func(o *config.Options) {
				select {
				case a.reloads <- o:
				case <-sctx.Stopping():
				}
			})
			if err != nil {
				a.logger.Warn().Err(err).Msg("Config hot reload disabled")
			}
			return nil
		})
	}

	a.sctx.Go(a.loop)
}

// interceptSignals turns Ctrl-C and SIGTERM into an orderly stop so the UI
// loop finishes its current callback before shutting down.
func (a *App) interceptSignals() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	a.sctx.Go(func(sctx *stopper.Context) error {
		defer signal.Stop(sigCh)
		select {
		case sig := <-sigCh:
			a.logger.Info().Str("signal", sig.String()).Msg("Interrupt received, shutting down")
			sctx.Stop(constants.ShutdownGrace)
		case <-sctx.Stopping():
		}
		return nil
	})
}

// loop is the single UI loop. All menu mutation, watcher ticks and option
// swaps happen here.
func (a *App) loop(sctx *stopper.Context) error {
	opts := a.state.Options()
	watchTimer := newInterval(opts.WatchInterval)
	gcTimer := newInterval(opts.ReclaimInterval)
	refresh := time.NewTicker(a.refreshInterval)
	defer refresh.Stop()

	completed := a.bus.Subscribe(events.EventCommandCompleted)
	defer a.bus.Unsubscribe(events.EventCommandCompleted, completed)

	a.logger.Info().
		Dur("watch", opts.WatchInterval).
		Dur("gc", opts.ReclaimInterval).
		Str("mode", opts.Mode.String()).
		Msg("Tray started")

	a.syncMenu(sctx)
	if watchTimer.Enabled() {
		a.watcher.Tick(sctx)
	}

	for {
		select {
		case <-sctx.Stopping():
			a.shutdown(watchTimer, gcTimer)
			return nil

		case act := <-a.actions:
			if a.handle(sctx, act) {
				a.shutdown(watchTimer, gcTimer)
				sctx.Stop(constants.ShutdownGrace)
				return nil
			}

		case <-refresh.C:
			a.syncMenu(sctx)

		case ev, ok := <-completed:
			if !ok {
				completed = nil
				continue
			}
			if done, ok := ev.(*events.CommandCompletedEvent); ok {
				a.logger.Debug().Str("service", done.Service).Str("action", done.Action).Msg("Command completed")
			}
			a.syncMenu(sctx)

		case <-watchTimer.C():
			if len(a.watcher.Tick(sctx)) > 0 {
				a.syncMenu(sctx)
			}

		case <-gcTimer.C():
			a.reclaimer.Reclaim()

		case next := <-a.reloads:
			a.applyOptions(next, watchTimer, gcTimer)
			a.syncMenu(sctx)
		}
	}
}

// handle processes one menu action and reports whether the tray should exit.
func (a *App) handle(ctx context.Context, act Action) bool {
	opts := a.state.Options()

	switch act.Kind {
	case menu.ActionToggle:
		if opts.Mode != config.ModeManage {
			a.logger.Debug().Str("service", act.Service).Msg("Ignoring toggle, management disabled")
			return false
		}
		done := a.executor.Submit(ctx, act.Service)
		// Shutdown waits for commands still settling.
		a.sctx.Go(func(*stopper.Context) error {
			<-done
			return nil
		})

	case menu.ActionOpenManager:
		if err := a.launch(opts.ServiceManagerPath); err != nil {
			a.logger.Warn().Err(err).Str("path", opts.ServiceManagerPath).Msg("Failed to open service manager")
		}

	case menu.ActionAbout:
		a.sink.Notify(aboutMessage())

	case menu.ActionExit:
		a.logger.Info().Msg("Exit requested")
		return true
	}
	return false
}

// syncMenu rebuilds the menu if the matched services changed. Enumeration
// failures skip this refresh.
func (a *App) syncMenu(ctx context.Context) {
	rebuilt, err := a.menuSync.Sync(ctx)
	if err != nil {
		var enumErr *service.EnumerationError
		if errors.As(err, &enumErr) {
			a.logger.Debug().Err(err).Msg("Skipping menu refresh")
		} else {
			a.logger.Warn().Err(err).Msg("Menu refresh failed")
		}
		return
	}
	if rebuilt {
		a.host.SetTooltip(tooltip(a.menuSync.Model()))
	}
}

// applyOptions installs reloaded options and adjusts the timers.
func (a *App) applyOptions(next *config.Options, watchTimer, gcTimer *interval) {
	prev := a.state.Options()
	a.state.SetOptions(next)

	// A baseline taken under another filter, or before a pause in
	// watching, would report stale transitions.
	if !samePatterns(prev, next) || (!watchTimer.Enabled() && next.Watching()) {
		a.watcher.Reset()
	}
	watchTimer.Reset(next.WatchInterval)
	gcTimer.Reset(next.ReclaimInterval)
	a.menuSync.Invalidate()

	a.bus.PublishConfigChanged(next.Source)
	a.logger.Info().
		Dur("watch", next.WatchInterval).
		Dur("gc", next.ReclaimInterval).
		Str("mode", next.Mode.String()).
		Msg("Options applied")
}

func samePatterns(a, b *config.Options) bool {
	return patternString(a.NamePattern) == patternString(b.NamePattern) &&
		patternString(a.DisplayNamePattern) == patternString(b.DisplayNamePattern)
}

func patternString(re *regexp.Regexp) string {
	if re == nil {
		return ""
	}
	return re.String()
}

// shutdown releases resources in a fixed order: icon, context menu, tray
// icon, watch timer, reclamation timer.
func (a *App) shutdown(watchTimer, gcTimer *interval) {
	steps := []struct {
		name    string
		release func()
	}{
		{"icon", func() { a.icon = nil }},
		{"menu", func() { a.view.Clear() }},
		{"tray", func() { a.host.Quit() }},
		{"watch-timer", watchTimer.Stop},
		{"gc-timer", gcTimer.Stop},
	}
	for _, s := range steps {
		s.release()
		a.shutdownSteps = append(a.shutdownSteps, s.name)
		a.logger.Debug().Str("resource", s.name).Msg("Released")
	}
}

func tooltip(m menu.Model) string {
	return fmt.Sprintf("%s\n%d services, %d running", constants.AppDisplayName, len(m.Services), m.Running)
}

func aboutMessage() notify.Message {
	return notify.Message{
		Title:    "About " + constants.AppDisplayName,
		Body:     fmt.Sprintf("%s %s (built %s)", constants.AppName, version.Version, version.BuildTime),
		Severity: notify.SeverityInfo,
	}
}

// untilStopping returns a context that is cancelled as soon as sctx starts
// stopping, rather than after the grace period.
func untilStopping(sctx *stopper.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(sctx)
	go func() {
		select {
		case <-sctx.Stopping():
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
