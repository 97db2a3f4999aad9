package menu

import (
	"context"

	"github.com/rescale/svctray/internal/logging"
	"github.com/rescale/svctray/internal/service"
	"github.com/rescale/svctray/internal/snapshot"
	"github.com/rescale/svctray/internal/state"
)

// Synchronizer keeps a View in step with the matched services. It holds its
// own last-drawn snapshot, independent of the watcher's.
//
// Sync, Invalidate and Model must be called from the same goroutine.
type Synchronizer struct {
	lister   service.Lister
	state    *state.Context
	view     View
	elevated func() bool
	logger   *logging.Logger

	drawn    *snapshot.Snapshot
	model    Model
	rebuilds int
}

// NewSynchronizer creates a synchronizer. elevated is consulted once per rebuild.
func NewSynchronizer(lister service.Lister, st *state.Context, view View, elevated func() bool, logger *logging.Logger) *Synchronizer {
	return &Synchronizer{
		lister:   lister,
		state:    st,
		view:     view,
		elevated: elevated,
		logger:   logger.Component("menu"),
	}
}

// Sync re-reads the services and rebuilds the view if the matched services
// changed since the last rebuild. It reports whether a rebuild happened.
// A failed enumeration returns the *service.EnumerationError and leaves the
// menu as it was.
func (s *Synchronizer) Sync(ctx context.Context) (bool, error) {
	all, err := s.lister.List(ctx)
	if err != nil {
		return false, err
	}

	opts := s.state.Options()
	curr := snapshot.Match(all, opts.Filter())

	if !snapshot.Diff(s.drawn, curr).Changed {
		return false, nil
	}

	s.model = BuildModel(curr, opts, s.elevated())
	Render(s.view, s.model)
	s.drawn = &curr
	s.rebuilds++

	s.logger.Debug().
		Int("services", len(s.model.Services)).
		Int("running", s.model.Running).
		Msg("Menu rebuilt")
	return true, nil
}

// Invalidate forces the next Sync to rebuild, for changes the snapshot does
// not capture such as a new manage mode or label preference.
func (s *Synchronizer) Invalidate() {
	s.drawn = nil
}

// Model returns the last drawn model.
func (s *Synchronizer) Model() Model {
	return s.model
}

// Rebuilds returns how many times the view was rebuilt.
func (s *Synchronizer) Rebuilds() int {
	return s.rebuilds
}
