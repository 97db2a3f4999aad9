// Package menu builds the tray's context menu from the matched services and
// rebuilds it only when they change.
package menu

import (
	"github.com/rescale/svctray/internal/config"
	"github.com/rescale/svctray/internal/service"
	"github.com/rescale/svctray/internal/snapshot"
)

// ActionKind identifies what clicking an entry does.
type ActionKind int

const (
	ActionToggle ActionKind = iota
	ActionOpenManager
	ActionAbout
	ActionExit
)

func (k ActionKind) String() string {
	switch k {
	case ActionToggle:
		return "toggle"
	case ActionOpenManager:
		return "open-manager"
	case ActionAbout:
		return "about"
	case ActionExit:
		return "exit"
	default:
		return "unknown"
	}
}

// Entry is one service line in the menu.
type Entry struct {
	Label   string
	Service string
	Checked bool
	Enabled bool
}

// Fixed is one trailing menu entry.
type Fixed struct {
	Kind    ActionKind
	Label   string
	Enabled bool
}

// Model is the complete menu content.
type Model struct {
	Services []Entry
	Fixed    []Fixed
	Running  int
}

// BuildModel derives the menu for snap. An entry is checked iff the service
// is running, and enabled iff the process is elevated, the manage mode is
// ModeManage and the service is running or stopped.
func BuildModel(snap snapshot.Snapshot, opts *config.Options, elevated bool) Model {
	canManage := elevated && opts.Mode == config.ModeManage

	m := Model{Services: make([]Entry, 0, len(snap))}
	for _, r := range snap {
		running := r.Status == service.StatusRunning
		if running {
			m.Running++
		}
		m.Services = append(m.Services, Entry{
			Label:   opts.Label(r),
			Service: r.Name,
			Checked: running,
			Enabled: canManage && r.Status.Settled(),
		})
	}

	m.Fixed = []Fixed{
		{Kind: ActionOpenManager, Label: "Open Service Manager", Enabled: opts.ServiceManagerPath != ""},
		{Kind: ActionAbout, Label: "About", Enabled: true},
		{Kind: ActionExit, Label: "Exit", Enabled: true},
	}
	return m
}

// View is the menu surface the model is drawn onto.
type View interface {
	// Clear removes every entry.
	Clear()
	AddService(e Entry)
	AddSeparator()
	AddFixed(f Fixed)
}

// Render clears v and draws m: service entries, a separator when there is
// at least one service, then the fixed entries.
func Render(v View, m Model) {
	v.Clear()
	for _, e := range m.Services {
		v.AddService(e)
	}
	if len(m.Services) > 0 {
		v.AddSeparator()
	}
	for _, f := range m.Fixed {
		v.AddFixed(f)
	}
}
