// Package state holds the state shared between the tray's UI loop and the
// goroutines running service commands.
package state

import (
	"sync/atomic"

	"github.com/rescale/svctray/internal/config"
)

// Context is passed by pointer to every component that runs outside the UI
// loop. Access rules:
//
//   - Options: written by the UI loop at startup and on config reload,
//     read by anyone. Readers call Options once per unit of work and use
//     that value throughout.
//   - Ignore: Add by the command executor, Consume by the watcher loop.
//
// The previous snapshots of the watcher and the menu synchronizer are not
// here. Each is owned by its component and touched only from the UI loop.
type Context struct {
	options atomic.Pointer[config.Options]
	Ignore  *IgnoreSet
}

// NewContext creates a context holding opts.
func NewContext(opts *config.Options) *Context {
	c := &Context{Ignore: NewIgnoreSet()}
	c.options.Store(opts)
	return c
}

// Options returns the current options. The returned value must not be modified.
func (c *Context) Options() *config.Options {
	return c.options.Load()
}

// SetOptions replaces the current options.
func (c *Context) SetOptions(opts *config.Options) {
	c.options.Store(opts)
}
